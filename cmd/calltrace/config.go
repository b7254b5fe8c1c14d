//
// Created on 2023/4/17 by khanghh
// Project: github.com/verichains/calltrace
// Copyright (c) 2023 Verichains Lab
//

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/naoina/toml"
	"github.com/verichains/calltrace/decoder"
	"gopkg.in/urfave/cli.v1"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

type DecoderConfig struct {
	ABIs         []string // ABI json files
	CheatcodeABI string   // ABI json file of the cheat interface
	Workers      int
	Precompiles  bool
}

type DatabaseConfig struct {
	DataDir string
	Cache   int
	Handles int
}

type JournalConfig struct {
	Dir string
}

type ProviderConfig struct {
	RPC string
}

type appConfig struct {
	Decoder  DecoderConfig
	Labels   map[string]string
	Database DatabaseConfig
	Journal  JournalConfig
	Provider ProviderConfig
}

var defaultConfig = appConfig{
	Decoder: DecoderConfig{
		Workers:     decoder.DefaultConfig.Workers,
		Precompiles: decoder.DefaultConfig.Precompiles,
	},
	Labels: map[string]string{},
	Database: DatabaseConfig{
		Cache:   16,
		Handles: 16,
	},
	Provider: ProviderConfig{
		RPC: "http://127.0.0.1:8545",
	},
}

func (c *appConfig) decoderConfig() *decoder.Config {
	return &decoder.Config{
		Workers:     c.Decoder.Workers,
		Precompiles: c.Decoder.Precompiles,
	}
}

// labels parses the configured address labels.
func (c *appConfig) labels() (map[common.Address]string, error) {
	ret := make(map[common.Address]string, len(c.Labels))
	for addr, label := range c.Labels {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid labeled address %q", addr)
		}
		ret[common.HexToAddress(addr)] = label
	}
	return ret, nil
}

func loadTOMLConfig(filename string, conf interface{}) error {
	var err error
	var buf []byte
	if buf, err = os.ReadFile(filename); err == nil {
		err = tomlSettings.Unmarshal(buf, conf)
	}
	return err
}

// makeAppConfig reads the provided TOML configuration file, then applies the
// command line flags on top of it.
func makeAppConfig(ctx *cli.Context) (*appConfig, error) {
	config := defaultConfig
	config.Labels = make(map[string]string)
	if file := globalString(ctx, configFileFlag.Name); file != "" {
		if err := loadTOMLConfig(file, &config); err != nil {
			return nil, fmt.Errorf("could not load config file %s: %w", file, err)
		}
	}
	if dataDir := globalString(ctx, dataDirFlag.Name); dataDir != "" {
		config.Database.DataDir = dataDir
	}
	if dir := globalString(ctx, journalDirFlag.Name); dir != "" {
		config.Journal.Dir = dir
	}
	if rpc := globalString(ctx, rpcFlag.Name); rpc != "" {
		config.Provider.RPC = rpc
	}
	config.Decoder.ABIs = append(config.Decoder.ABIs, ctx.StringSlice(abiFlag.Name)...)
	for _, item := range ctx.StringSlice(labelFlag.Name) {
		parts := strings.SplitN(item, ":", 2)
		if len(parts) != 2 || parts[1] == "" {
			return nil, fmt.Errorf("invalid label %q, expected <address>:<label>", item)
		}
		config.Labels[parts[0]] = parts[1]
	}
	if ctx.IsSet(workersFlag.Name) {
		config.Decoder.Workers = ctx.Int(workersFlag.Name)
	}
	if ctx.Bool(noPrecompilesFlag.Name) {
		config.Decoder.Precompiles = false
	}
	log.Debug("Loaded configuration", "datadir", config.Database.DataDir, "abis", len(config.Decoder.ABIs), "labels", len(config.Labels))
	return &config, nil
}

func globalString(ctx *cli.Context, name string) string {
	if ctx.IsSet(name) {
		return ctx.String(name)
	}
	return ctx.GlobalString(name)
}

// loadABIFile reads a plain json abi or a compiler artifact holding one
// under the "abi" key.
func loadABIFile(filename string) (abi.ABI, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return abi.ABI{}, err
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(data, &artifact); err != nil {
			return abi.ABI{}, fmt.Errorf("invalid artifact %s: %w", filename, err)
		}
		if len(artifact.ABI) == 0 {
			return abi.ABI{}, fmt.Errorf("artifact %s has no abi", filename)
		}
		data = artifact.ABI
	}
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("invalid abi %s: %w", filename, err)
	}
	return parsed, nil
}

func dumpConfig(ctx *cli.Context) error {
	config, err := makeAppConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(config)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

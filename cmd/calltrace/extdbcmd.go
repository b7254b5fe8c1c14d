package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/verichains/calltrace/abiutils"
	"github.com/verichains/calltrace/extdb"
	"gopkg.in/urfave/cli.v1"
)

var (
	extdbCommand = cli.Command{
		Name:      "extdb",
		Usage:     "Low level operations for the signature database",
		ArgsUsage: "",
		Category:  "EXTDB COMMANDS",
		Subcommands: []cli.Command{
			extdbInspectCmd,
		},
	}
	extdbInspectCmd = cli.Command{
		Action:      inspectExtDB,
		Name:        "inspect",
		ArgsUsage:   "<prefix> <start>",
		Flags:       []cli.Flag{dataDirFlag},
		Usage:       "Inspect the storage size for each type of data in the database",
		Description: `This commands iterates the entire database. If the optional 'prefix' and 'start' arguments are provided, then the iteration is limited to the given subset of data.`,
	}
	import4BytesCommand = cli.Command{
		Action:      import4Bytes,
		Name:        "import-4bytes",
		ArgsUsage:   "<data.json>",
		Flags:       []cli.Flag{dataDirFlag, overrideFlag},
		Category:    "EXTDB COMMANDS",
		Usage:       "Import 4-bytes signatures, event topics, contract interfaces and address labels",
		Description: `This commands imports 4-bytes signatures, event signatures, known interfaces and address labels to the database. The decoder uses this data to resolve selectors that no local abi knows.`,
	}
)

func inspectExtDB(ctx *cli.Context) error {
	var (
		prefix []byte
		start  []byte
	)
	if ctx.NArg() > 2 {
		return fmt.Errorf("max 2 arguments: %v", ctx.Command.ArgsUsage)
	}
	if ctx.NArg() >= 1 {
		if d, err := hexutil.Decode(ctx.Args().Get(0)); err != nil {
			return fmt.Errorf("failed to hex-decode 'prefix': %v", err)
		} else {
			prefix = d
		}
	}
	if ctx.NArg() >= 2 {
		if d, err := hexutil.Decode(ctx.Args().Get(1)); err != nil {
			return fmt.Errorf("failed to hex-decode 'start': %v", err)
		} else {
			start = d
		}
	}
	config, err := makeAppConfig(ctx)
	if err != nil {
		return err
	}
	db, err := openDatabase(config, true)
	if err != nil {
		Fatalf("Could not open database: %v", err)
	}
	defer db.Close()
	if version := extdb.ReadSchemaVersion(db); version != 0 {
		log.Info("Signature database", "schema", version, "imported", time.Unix(int64(extdb.ReadLastImport(db)), 0))
	}
	return extdb.InspectDatabase(os.Stdout, db, prefix, start)
}

func import4Bytes(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("invalid number of arguments: %v", ctx.Command.ArgsUsage)
	}
	config, err := makeAppConfig(ctx)
	if err != nil {
		return err
	}
	if config.Database.DataDir == "" {
		return fmt.Errorf("no data directory, use --%s", dataDirFlag.Name)
	}
	db, err := openDatabase(config, false)
	if err != nil {
		Fatalf("Could not open database: %v", err)
	}
	defer db.Close()
	file, err := os.Open(ctx.Args().Get(0))
	if err != nil {
		Fatalf("Could not read input file: %v", err)
	}
	defer file.Close()
	start := time.Now()
	if err := abiutils.ImportABIsData(db, file, ctx.Bool(overrideFlag.Name)); err != nil {
		return err
	}
	log.Info("Imported signatures", "file", ctx.Args().Get(0), "elapsed", time.Since(start))
	return nil
}

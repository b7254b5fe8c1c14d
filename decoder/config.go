//
// Created on 2023/4/7 by khanghh
// Project: github.com/verichains/calltrace
// Copyright (c) 2023 Verichains Lab
//

package decoder

import (
	"runtime"

	"github.com/ethereum/go-ethereum/log"
)

var DefaultConfig = Config{
	Workers:     runtime.NumCPU(),
	Precompiles: true,
}

type Config struct {
	Workers     int  // Size of the decode worker pool
	Precompiles bool // Decode calls into precompiled contracts
}

func (cfg *Config) Sanitize() error {
	if cfg.Workers < 1 {
		log.Warn("Sanitizing decoder workers", "provided", cfg.Workers, "updated", DefaultConfig.Workers)
		cfg.Workers = DefaultConfig.Workers
	}
	return nil
}

// Package config parses the tunables enumerated in spec.md §6, in the
// teacher's own idiom: github.com/jessevdk/go-flags over a plain struct,
// as used throughout the teacher's cmd/* and kasparov/* configuration
// packages.
package config

import (
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
)

// Network selects the tagged chain-parameter configuration (spec.md §9
// Design Notes: "represent as a tagged configuration record chosen at
// startup").
type Network string

// Supported networks.
const (
	Mainnet  Network = "mainnet"
	Testnet  Network = "testnet"
	Finalnet Network = "finalnet"
	Regtest  Network = "regtest"
)

// Config holds every tunable this subsystem reads at startup.
type Config struct {
	DataDir string `long:"datadir" description:"Directory to store the infinitynode/masternode-payments snapshots in" default:"~/.qtipd"`
	Network string `long:"network" description:"mainnet, testnet, finalnet or regtest" default:"mainnet"`

	// FallbackFeeEnabled governs whether the miner's fallback minimum
	// fee is applied (spec.md §6); it is parsed here but no package of
	// this module consults it.
	FallbackFeeEnabled bool `long:"fallbackfee" description:"Enable the minimum-fee fallback"`

	// Spork overrides, normally supplied by the signed spork message
	// system; exposed here so tests and regtest can force a value.
	// masternode.New applies SPORK_8 to the validator and SPORK_10 to the
	// vote store; SPORK_13 is parsed but not consulted.
	MasternodePaymentEnforcement bool `long:"mnpaymentsenforcement" description:"Force SPORK_8_MASTERNODE_PAYMENT_ENFORCEMENT active" default:"true"`
	PayUpdatedNodesOnly          bool `long:"mnpayupdatednodesonly" description:"Force SPORK_10_MASTERNODE_PAY_UPDATED_NODES active"`
	OldSuperblockFlag            bool `long:"oldsuperblockflag" description:"Force SPORK_13_OLD_SUPERBLOCK_FLAG active"`

	LogDir   string `long:"logdir" description:"Directory to write logs to" default:"~/.qtipd/logs"`
	LogLevel string `long:"loglevel" description:"trace, debug, info, warn, error, critical" default:"info"`
}

// Parse parses os.Args into a Config, applying the struct's default tags.
func Parse(args []string) (*Config, error) {
	cfg := &Config{}
	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.LogDir = expandHome(cfg.LogDir)
	return cfg, nil
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

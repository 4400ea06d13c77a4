// Command qtipd is the composition root for the masternode/infinitynode
// payment subsystem: it parses configuration, wires logging, resolves the
// network's chain parameters, builds a masternode.Node, and runs it until
// interrupted. Grounded on the teacher's cmd/txgen/main.go main()/handlePanic
// shape (defer a panic logger, parse config, os.Exit(1) on error, block on an
// interrupt channel). The teacher's own shutdown idiom reads from a
// github.com/daglabs/btcd/signal channel; that package isn't part of this
// pack, so this binary uses the standard library's os/signal directly.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/minblock/qtipd/chainparams"
	"github.com/minblock/qtipd/internal/chainio"
	"github.com/minblock/qtipd/internal/config"
	"github.com/minblock/qtipd/internal/logs"
	"github.com/minblock/qtipd/masternode"
)

func main() {
	defer handlePanic()

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing command-line arguments: %s\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating data directory: %s\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.LogDir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating log directory: %s\n", err)
		os.Exit(1)
	}
	if err := logs.InitLogRotator(cfg.LogDir+"/qtipd.log", 10); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing log rotator: %s\n", err)
		os.Exit(1)
	}
	if err := logs.SetLevelFromString(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting log level: %s\n", err)
		os.Exit(1)
	}

	nodeLog := logs.Get(logs.TagNode)
	params := chainparams.ForNetwork(config.Network(cfg.Network))

	node := masternode.New(
		cfg,
		params,
		hostBlockSource{},
		hostSolver{},
		hostSigner{},
		hostRelay{},
		hostReward,
		chainio.Outpoint{},
	)
	node.Start()
	nodeLog.Infof("qtipd started, network=%s datadir=%s", cfg.Network, cfg.DataDir)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	nodeLog.Infof("qtipd shutting down")
	if err := node.Stop(); err != nil {
		nodeLog.Errorf("error during shutdown: %+v", err)
	}
}

func handlePanic() {
	err := recover()
	if err != nil {
		log.Printf("Fatal error: %s", err)
		log.Printf("Stack trace: %s", debug.Stack())
	}
}

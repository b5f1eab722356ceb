// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

// kvctl is a command-line front end over a filekv store, exercising
// every core operation for scripting and manual inspection. Values on
// the command line are read as JSON and decoded into Go's any before
// being handed to the store, so callers don't need to know CBOR; get
// and get-in print their result as JSON.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/filekv/filekv/store"
	"github.com/filekv/filekv/storeconfig"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "kvctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath string
	flagSet := pflag.NewFlagSet("kvctl", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "kvctl.yaml", "path to the store configuration file")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printUsage()
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage()
		return fmt.Errorf("no subcommand given")
	}

	cfg, err := storeconfig.Load(configPath)
	if err != nil {
		return err
	}
	opts, err := cfg.StoreOptions()
	if err != nil {
		return err
	}
	s, err := store.NewStore(cfg.Folder, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "exists":
		return cmdExists(s, cmdArgs)
	case "get":
		return cmdGet(s, cmdArgs)
	case "get-in":
		return cmdGetIn(s, cmdArgs)
	case "assoc":
		return cmdAssoc(s, cmdArgs)
	case "assoc-in":
		return cmdAssocIn(s, cmdArgs)
	case "dissoc":
		return cmdDissoc(s, cmdArgs)
	case "bassoc":
		return cmdBAssoc(s, cmdArgs)
	case "bget":
		return cmdBGet(s, cmdArgs)
	case "list-keys":
		return cmdListKeys(s, cmdArgs)
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand %q", cmd)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `kvctl — inspect and mutate a filekv store from the command line.

Usage: kvctl [--config path] <subcommand> [args...]

Subcommands:
  exists <key-json>
  get <key-json>
  get-in <key-json> <sub-path...>
  assoc <key-json> <value-json>
  assoc-in <key-json> <sub-path...> <value-json>
  dissoc <key-json>
  bassoc <key-json> <file|->
  bget <key-json> <file|->
  list-keys

A sub-path component that parses as an integer addresses a slice index;
anything else addresses a map key.
`)
}

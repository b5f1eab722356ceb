// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

// kvbrowse is a terminal inspector for a filekv store: a scrollable
// list of every recoverable key and binary fingerprint, with a detail
// pane showing a structured key's value as JSON or a binary record's
// size and a hex preview.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/filekv/filekv/store"
	"github.com/filekv/filekv/storeconfig"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "kvbrowse: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath string
	flagSet := pflag.NewFlagSet("kvbrowse", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "kvctl.yaml", "path to the store configuration file")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
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

	_, err = tea.NewProgram(NewModel(s), tea.WithAltScreen()).Run()
	return err
}

// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/filekv/filekv/store"
)

func parseJSONArg(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("parsing %q as JSON: %w", s, err)
	}
	return v, nil
}

// parsePathComponent interprets a sub-path argument as an integer index
// if it looks like one, and as a string map key otherwise — the two
// shapes a structured record's value can be addressed by.
func parsePathComponent(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

func splitSubPath(args []string) []any {
	sub := make([]any, 0, len(args))
	for _, a := range args {
		sub = append(sub, parsePathComponent(a))
	}
	return sub
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func cmdExists(s *store.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("exists: want exactly one key argument")
	}
	key, err := parseJSONArg(args[0])
	if err != nil {
		return err
	}
	ok, err := s.Exists(key)
	if err != nil {
		return err
	}
	fmt.Println(ok)
	return nil
}

func cmdGet(s *store.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("get: want exactly one key argument")
	}
	key, err := parseJSONArg(args[0])
	if err != nil {
		return err
	}
	value, found, err := s.GetIn([]any{key})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("get: key not found")
	}
	return printJSON(value)
}

func cmdGetIn(s *store.Store, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("get-in: want a key argument followed by an optional sub-path")
	}
	key, err := parseJSONArg(args[0])
	if err != nil {
		return err
	}
	keyPath := append([]any{key}, splitSubPath(args[1:])...)
	value, found, err := s.GetIn(keyPath)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("get-in: path not found")
	}
	return printJSON(value)
}

func cmdAssoc(s *store.Store, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("assoc: want a key argument and a value argument")
	}
	key, err := parseJSONArg(args[0])
	if err != nil {
		return err
	}
	value, err := parseJSONArg(args[1])
	if err != nil {
		return err
	}
	_, _, err = s.AssocIn([]any{key}, value)
	return err
}

func cmdAssocIn(s *store.Store, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("assoc-in: want a key, an optional sub-path, and a trailing value argument")
	}
	key, err := parseJSONArg(args[0])
	if err != nil {
		return err
	}
	subArgs, valueArg := args[1:len(args)-1], args[len(args)-1]
	value, err := parseJSONArg(valueArg)
	if err != nil {
		return err
	}
	keyPath := append([]any{key}, splitSubPath(subArgs)...)
	_, _, err = s.AssocIn(keyPath, value)
	return err
}

func cmdDissoc(s *store.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("dissoc: want exactly one key argument")
	}
	key, err := parseJSONArg(args[0])
	if err != nil {
		return err
	}
	return s.Dissoc(key)
}

func cmdBAssoc(s *store.Store, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("bassoc: want a key argument and a file argument (use - for stdin)")
	}
	key, err := parseJSONArg(args[0])
	if err != nil {
		return err
	}

	var input io.Reader = os.Stdin
	if args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}
	return s.BAssoc(key, input)
}

func cmdBGet(s *store.Store, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("bget: want a key argument and a file argument (use - for stdout)")
	}
	key, err := parseJSONArg(args[0])
	if err != nil {
		return err
	}

	found, err := s.BGet(key, func(r *store.BlobReader) error {
		var out io.Writer = os.Stdout
		if args[1] != "-" {
			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		_, err := io.Copy(out, r.Input)
		return err
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("bget: key not found")
	}
	return nil
}

func cmdListKeys(s *store.Store, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("list-keys: takes no arguments")
	}
	keys, err := s.ListKeys()
	if err != nil {
		return err
	}
	return printJSON(keys)
}

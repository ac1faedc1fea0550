// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package texp

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds the settings of a TOML configuration file. Every key
// mirrors a command-line flag.
type Config struct {
	Output        string   `toml:"output"`
	Verbose       *int     `toml:"verbose"`
	Abort         *int     `toml:"abort"`
	Include       []string `toml:"include"`
	Expression    []string `toml:"expression"`
	Quiet         bool     `toml:"quiet"`
	Latex         bool     `toml:"latex"`
	Print         []string `toml:"print"`
	Ignore        []string `toml:"ignore"`
	TwoPass       bool     `toml:"two_pass"`
	ShowMacros    bool     `toml:"show_macros"`
	ShowBlocks    bool     `toml:"show_blocks"`
	DB            string   `toml:"db"`
	Save          bool     `toml:"save"`
	MaxExpansions *int     `toml:"max_expansions"`
	BlockPrefix   string   `toml:"block_prefix"`
	Prelude       string   `toml:"prelude"`
	NoStdlib      bool     `toml:"no_stdlib"`
}

// LoadConfig reads a configuration file. Unknown keys are an error.
func LoadConfig(path string) (*Config, error) {
	var c Config
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return &c, nil
}

// Options converts the configuration to runtime options. The document
// output file is not included; callers open it themselves. Ordered
// actions come in this order: latex mode, includes, expressions, print
// specifications, ignored names.
func (c *Config) Options() []Option {
	var opts []Option
	switch {
	case c.Verbose != nil:
		opts = append(opts, WithVerbose(*c.Verbose))
	case c.Latex || len(c.Print) > 0:
		opts = append(opts, WithVerbose(1))
	}
	if c.Abort != nil {
		opts = append(opts, WithAbort(*c.Abort))
	}
	if c.Quiet {
		opts = append(opts, WithQuiet())
	}
	if c.TwoPass {
		opts = append(opts, WithTwoPass())
	}
	if c.ShowMacros {
		opts = append(opts, WithShowMacros())
	}
	if c.ShowBlocks {
		opts = append(opts, WithShowBlocks())
	}
	if c.MaxExpansions != nil {
		opts = append(opts, WithMaxExpansions(*c.MaxExpansions))
	}
	if c.BlockPrefix != "" {
		opts = append(opts, WithBlockPrefix(c.BlockPrefix))
	}
	if c.DB != "" {
		opts = append(opts, WithSQLiteStore(c.DB))
	}
	if c.Save {
		opts = append(opts, WithSave())
	}
	if c.Prelude != "" {
		opts = append(opts, WithPrelude(c.Prelude))
	}
	if c.NoStdlib {
		opts = append(opts, WithNoStdlib())
	}

	if c.Latex {
		opts = append(opts, WithLatex())
	}
	for _, p := range c.Include {
		opts = append(opts, WithInclude(p))
	}
	for _, x := range c.Expression {
		opts = append(opts, WithExpression(x))
	}
	for _, p := range c.Print {
		opts = append(opts, WithPrint(p))
	}
	opts = append(opts, WithIgnore(c.Ignore...))
	return opts
}

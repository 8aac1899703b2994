package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	"github.com/yacchi/propyaml"
	"github.com/yacchi/propyaml/config"
)

type MainConfig struct {
	ConfigPath string `cli:"name=config desc='config file (default .propyaml.yaml when present)'"`
	Sort       bool   `cli:"name=sort desc='write keys in lexical order'"`
	Indent     int    `cli:"name=indent desc='YAML indentation width, 2 to 9'"`
	Sequences  string `cli:"name=sequences desc='YAML sequence handling: reject or flow'"`
	Color      bool   `cli:"name=color desc='always color output'"`
	NoColor    bool   `cli:"name=no-color desc='never color output'"`
	Verbose    bool   `cli:"name=v aliases=verbose desc='log debug messages to stderr'"`

	Main *cli.Command
}

// optSet reports whether the named option was given on the command line.
func optSet(cmd *cli.Command, name string) bool {
	for _, opt := range cmd.Opts {
		if opt.Name == name {
			return opt.Value != nil
		}
	}
	return false
}

// settings loads the config file and environment with the command-line
// flags that were given layered on top.
func (cfg *MainConfig) settings(ctx context.Context) (config.Config, error) {
	flags := map[string]any{}
	if optSet(cfg.Main, "sort") {
		flags["sort_keys"] = cfg.Sort
	}
	if optSet(cfg.Main, "indent") {
		flags["indent"] = cfg.Indent
	}
	if optSet(cfg.Main, "sequences") {
		flags["sequences"] = cfg.Sequences
	}
	return config.Load(ctx, cfg.ConfigPath, config.WithFlags(flags))
}

// setup builds the converter and printer shared by all subcommands.
func (cfg *MainConfig) setup(ctx context.Context, cc *cli.Context) (*propyaml.Converter, *printer, error) {
	c, err := cfg.settings(ctx)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(os.Stderr, cfg.Verbose)
	conv := propyaml.New(append(c.Options(), propyaml.WithLogger(logger))...)
	return conv, newPrinter(cc.Out, cfg.useColor(cc.Out)), nil
}

func (cfg *MainConfig) useColor(w io.Writer) bool {
	switch {
	case cfg.Color:
		return true
	case cfg.NoColor:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

type ConvertConfig struct {
	*MainConfig
	Output string `cli:"name=o aliases=output desc='output file, only with a single input'"`
	Stdout bool   `cli:"name=stdout desc='print the converted text instead of writing a file'"`
	Check  bool   `cli:"name=check desc='fail when the output file is missing or out of date'"`

	Convert *cli.Command
}

type DirectionConfig struct {
	*MainConfig
	Output string `cli:"name=o aliases=output desc='output file, only with a single input'"`
	Stdout bool   `cli:"name=stdout desc='print the converted text instead of writing a file'"`

	Cmd *cli.Command
}

type WatchConfig struct {
	*MainConfig
	Output string `cli:"name=o aliases=output desc='output file'"`
	Poll   time.Duration

	Watch *cli.Command
}

func (cfg *WatchConfig) pollOpt(_ *cli.Context, a string) (any, error) {
	d, err := time.ParseDuration(a)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	cfg.Poll = d
	return d, nil
}

package main

import (
	"github.com/scott-cotton/cli"
	"github.com/yacchi/propyaml/format"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "propyaml").
		WithSynopsis("propyaml [opts] command [opts]").
		WithDescription("propyaml converts configuration files between .properties and YAML.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return mainRun(cfg, cc, args)
		}).
		WithSubs(
			ConvertCommand(cfg),
			ToYAMLCommand(cfg),
			ToPropertiesCommand(cfg),
			WatchCommand(cfg))
}

func ConvertCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ConvertConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Convert, "convert").
		WithAliases("c").
		WithSynopsis("convert [-o out] [-stdout] [-check] <file>...").
		WithDescription("convert each file to the opposite format, chosen by extension").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return convert(cfg, cc, args)
		})
}

func ToYAMLCommand(mainCfg *MainConfig) *cli.Command {
	return directionCommand(mainCfg, "to-yaml", format.Properties,
		"to-yaml [-o out] [-stdout] <file.properties>...",
		"convert .properties files to YAML")
}

func ToPropertiesCommand(mainCfg *MainConfig) *cli.Command {
	return directionCommand(mainCfg, "to-properties", format.YAML,
		"to-properties [-o out] [-stdout] <file.yml>...",
		"convert YAML files to .properties")
}

func directionCommand(mainCfg *MainConfig, name string, from format.Format, synopsis, desc string) *cli.Command {
	cfg := &DirectionConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Cmd, name).
		WithSynopsis(synopsis).
		WithDescription(desc).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return convertFrom(cfg, from, cc, args)
		})
}

func WatchCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &WatchConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts = append(opts, &cli.Opt{
		Name:        "poll",
		Description: "poll at this interval instead of using file system events",
		Type:        cli.NamedFuncOpt(cfg.pollOpt, "(duration)"),
	})
	return cli.NewCommandAt(&cfg.Watch, "watch").
		WithAliases("w").
		WithSynopsis("watch [-o out] [-poll duration] <file>").
		WithDescription("convert a file and convert it again whenever it changes").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return watch(cfg, cc, args)
		})
}

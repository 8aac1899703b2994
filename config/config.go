// Package config loads propyaml's settings from an optional
// .propyaml.yaml file, PROPYAML_* environment variables and command-line
// flags.
//
// Settings are merged in a jubako store, later layers winning:
//
//	defaults <- config file <- environment <- flags
//
// Validation runs once on the merged result.
package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/yacchi/jubako"
	jyaml "github.com/yacchi/jubako/format/yaml"
	"github.com/yacchi/jubako/layer"
	"github.com/yacchi/jubako/layer/env"
	"github.com/yacchi/jubako/layer/mapdata"
	jbytes "github.com/yacchi/jubako/source/bytes"
	jfs "github.com/yacchi/jubako/source/fs"
	"github.com/yacchi/propyaml"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up when no path is given.
const DefaultFile = ".propyaml.yaml"

// EnvPrefix is the prefix of environment variables that override file
// settings, e.g. PROPYAML_INDENT.
const EnvPrefix = "PROPYAML_"

// Environment variables that override file settings.
const (
	EnvHeader        = EnvPrefix + "HEADER"
	EnvIndent        = EnvPrefix + "INDENT"
	EnvSortKeys      = EnvPrefix + "SORT_KEYS"
	EnvEscapeUnicode = EnvPrefix + "ESCAPE_UNICODE"
	EnvSequences     = EnvPrefix + "SEQUENCES"
)

// Layer names, reported in load errors.
const (
	layerDefaults layer.Name = "defaults"
	layerFile     layer.Name = "file"
	layerEnv      layer.Name = "env"
	layerFlags    layer.Name = "flags"
)

// Config holds conversion settings. The json names are the keys used in
// the config file and in flag overrides.
type Config struct {
	// Header is the comment written at the top of generated properties
	// files. Empty disables it.
	Header string `yaml:"header" json:"header" jubako:"/header,env:HEADER"`
	// Indent is the YAML indentation width, 2..9.
	Indent int `yaml:"indent" json:"indent" jubako:"/indent,env:INDENT"`
	// SortKeys writes keys in lexical order.
	SortKeys bool `yaml:"sort_keys" json:"sort_keys" jubako:"/sort_keys,env:SORT_KEYS"`
	// EscapeUnicode writes non-ASCII characters as \uXXXX in properties output.
	EscapeUnicode bool `yaml:"escape_unicode" json:"escape_unicode" jubako:"/escape_unicode,env:ESCAPE_UNICODE"`
	// Sequences is the YAML sequence policy: "reject" or "flow".
	Sequences string `yaml:"sequences" json:"sequences" jubako:"/sequences,env:SEQUENCES"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Header:        propyaml.DefaultHeader,
		Indent:        2,
		EscapeUnicode: true,
		Sequences:     propyaml.SequenceReject.String(),
	}
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	flags map[string]any
}

// WithFlags layers command-line overrides above the environment. Keys are
// config file keys ("indent", "sort_keys"); values have the field's type.
func WithFlags(flags map[string]any) LoadOption {
	return func(c *loadConfig) {
		c.flags = flags
	}
}

// Load merges defaults, the config file, the environment and flag
// overrides, then validates the result.
//
// With an empty path, DefaultFile in the working directory is used if it
// exists. An explicitly given path must exist. Unknown keys in the file
// and environment values that do not parse as the field's type are errors.
func Load(ctx context.Context, path string, opts ...LoadOption) (Config, error) {
	var lc loadConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&lc)
		}
	}

	defaults, err := yaml.Marshal(Default())
	if err != nil {
		return Config{}, err
	}

	store := jubako.New[Config](jubako.WithDecoder(decodeStrict))
	if err := store.Add(
		layer.New(layerDefaults, jbytes.New(defaults), jyaml.NewParser()),
		jubako.WithPriority(jubako.PriorityDefaults),
	); err != nil {
		return Config{}, err
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := store.Add(
			layer.New(layerFile, jfs.New(path), jyaml.NewParser()),
			jubako.WithPriority(jubako.PriorityProject),
		); err != nil {
			return Config{}, err
		}
	}

	if err := store.Add(
		env.New(layerEnv, EnvPrefix, env.WithSchemaMapping[Config]()),
		jubako.WithPriority(jubako.PriorityEnv),
	); err != nil {
		return Config{}, err
	}

	if len(lc.flags) > 0 {
		if err := store.Add(
			mapdata.New(layerFlags, lc.flags),
			jubako.WithPriority(jubako.PriorityFlags),
		); err != nil {
			return Config{}, err
		}
	}

	if err := store.Load(ctx); err != nil {
		if path != "" {
			return Config{}, fmt.Errorf("invalid config file %q: %w", path, err)
		}
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if err := checkEnv(store, lc.flags); err != nil {
		return Config{}, err
	}

	cfg := store.Get()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeStrict decodes the merged settings, rejecting unknown keys.
func decodeStrict(data map[string]any, target any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// checkEnv reports PROPYAML_* variables that are set but were dropped by
// the env layer because their value does not convert to the field type.
// A variable whose setting is also given as a flag is not checked.
func checkEnv(store *jubako.Store[Config], flags map[string]any) error {
	schema := env.BuildSchemaMapping[Config]()
	for name, m := range schema.Mappings {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		if _, ok := flags[strings.TrimPrefix(m.JSONPath, "/")]; ok {
			continue
		}
		applied := false
		for _, rv := range store.GetAllAt(m.JSONPath) {
			if rv.Layer != nil && rv.Layer.Name() == layerEnv {
				applied = true
				break
			}
		}
		if !applied {
			return fmt.Errorf("invalid %s%s %q: want %s", EnvPrefix, name, v, m.FieldType)
		}
	}
	return nil
}

// Validate reports settings the converter cannot honor.
func (c Config) Validate() error {
	if c.Indent < 2 || c.Indent > 9 {
		return fmt.Errorf("indent must be between 2 and 9, got %d", c.Indent)
	}
	if _, err := propyaml.ParseSequencePolicy(c.Sequences); err != nil {
		return err
	}
	return nil
}

// Options converts c into converter options. c must be valid.
func (c Config) Options() []propyaml.Option {
	policy, _ := propyaml.ParseSequencePolicy(c.Sequences)
	return []propyaml.Option{
		propyaml.WithHeader(c.Header),
		propyaml.WithIndent(c.Indent),
		propyaml.WithSortedKeys(c.SortKeys),
		propyaml.WithEscapeUnicode(c.EscapeUnicode),
		propyaml.WithSequencePolicy(policy),
	}
}

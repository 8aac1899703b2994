// Package format identifies the file formats propyaml converts between and
// the naming convention for converted files.
package format

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yacchi/propyaml/document"
)

// Format identifies a configuration file format.
type Format int

const (
	// Properties is Java-style .properties text.
	Properties Format = iota + 1
	// YAML is a single YAML document with a mapping root.
	YAML
)

// String returns the format name used in messages and logs.
func (f Format) String() string {
	switch f {
	case Properties:
		return "properties"
	case YAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Extension returns the extension written for files of this format.
func (f Format) Extension() string {
	switch f {
	case Properties:
		return ".properties"
	case YAML:
		return ".yml"
	default:
		return ""
	}
}

// Target returns the format f converts into.
func (f Format) Target() Format {
	switch f {
	case Properties:
		return YAML
	case YAML:
		return Properties
	default:
		return f
	}
}

// Detect returns the format of path based on its extension. Extensions are
// matched case-insensitively.
//
// Example:
//
//	f, err := format.Detect("config/application.yml") // format.YAML
func Detect(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".properties":
		return Properties, nil
	case ".yml", ".yaml":
		return YAML, nil
	default:
		return 0, &document.UnsupportedFormatError{Path: path}
	}
}

// OutputPath returns the conventional destination for converting path: the
// same directory and base name with the extension of the target format.
//
// Example:
//
//	format.OutputPath("dir/app.properties") // "dir/app.yml"
//	format.OutputPath("dir/app.yaml")       // "dir/app.properties"
func OutputPath(path string) (string, error) {
	f, err := Detect(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + f.Target().Extension(), nil
}

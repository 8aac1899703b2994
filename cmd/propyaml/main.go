// Command propyaml converts configuration files between Java-style
// .properties and YAML.
//
// Usage:
//
//	propyaml [opts] convert [-o out] [-stdout] [-check] <file>...
//	propyaml [opts] to-yaml <file.properties>...
//	propyaml [opts] to-properties <file.yml>...
//	propyaml [opts] watch [-o out] [-poll duration] <file>
package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func main() {
	cli.MainContext(context.Background(), MainCommand())
}

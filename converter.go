package propyaml

import (
	"context"
	"fmt"

	"github.com/yacchi/propyaml/document"
	"github.com/yacchi/propyaml/flatmap"
	"github.com/yacchi/propyaml/format"
	"github.com/yacchi/propyaml/format/properties"
	"github.com/yacchi/propyaml/format/yaml"
	"github.com/yacchi/propyaml/maputil"
	"github.com/yacchi/propyaml/source/fs"
)

// Result is a conversion rendered in memory.
type Result struct {
	// Source is the path that was read.
	Source string
	// From is the format of Source.
	From format.Format
	// To is the format of Data.
	To format.Format
	// Data is the converted file content.
	Data []byte
	// Entries is the number of flat key/value pairs converted.
	Entries int
}

// ConvertPropertiesToYAML reads a properties file and returns it as YAML
// text.
//
// It fails with *document.IOError, *document.ParseError,
// *document.InvalidKeyError or *document.CollisionError.
func (c *Converter) ConvertPropertiesToYAML(ctx context.Context, path string) ([]byte, error) {
	m, err := c.readProperties(ctx, path)
	if err != nil {
		return nil, err
	}
	return c.propertiesToYAML(path, m)
}

// ConvertYAMLToProperties reads a YAML file and returns its flattened
// entries in document order.
//
// It fails with *document.IOError, *document.ParseError,
// *document.InvalidKeyError, *document.CollisionError or, under
// SequenceReject, *document.UnsupportedValueError.
func (c *Converter) ConvertYAMLToProperties(ctx context.Context, path string) (*flatmap.Map, error) {
	data, err := fs.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	root, err := yaml.Parse(data)
	if err != nil {
		return nil, document.WithPath(err, path)
	}

	var opts []maputil.FlattenOption
	if c.sequences == SequenceFlow {
		opts = append(opts, maputil.WithSequenceRenderer(yaml.RenderFlow))
	}
	m, err := maputil.Flatten(root, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to flatten %q: %w", path, err)
	}
	c.logger.Debug("flattened yaml", "source", path, "entries", m.Len())
	return m, nil
}

// SaveYAMLToFile writes YAML text to path, creating parent directories.
// It fails with *document.IOError.
func (c *Converter) SaveYAMLToFile(ctx context.Context, text []byte, path string) error {
	return fs.Save(ctx, path, text, c.saveOptions()...)
}

// SavePropertiesToFile writes m to path as properties text, preceded by the
// configured header comment. It fails with *document.IOError.
func (c *Converter) SavePropertiesToFile(ctx context.Context, m *flatmap.Map, path string) error {
	data, err := c.marshalProperties(m)
	if err != nil {
		return err
	}
	return fs.Save(ctx, path, data, c.saveOptions()...)
}

// Render converts src to the opposite format without writing anything.
// The source format is detected from the file extension.
func (c *Converter) Render(ctx context.Context, src string) (Result, error) {
	from, err := format.Detect(src)
	if err != nil {
		return Result{}, err
	}
	res := Result{Source: src, From: from, To: from.Target()}

	switch from {
	case format.Properties:
		m, err := c.readProperties(ctx, src)
		if err != nil {
			return Result{}, err
		}
		if res.Data, err = c.propertiesToYAML(src, m); err != nil {
			return Result{}, err
		}
		res.Entries = m.Len()

	case format.YAML:
		m, err := c.ConvertYAMLToProperties(ctx, src)
		if err != nil {
			return Result{}, err
		}
		if res.Data, err = c.marshalProperties(m); err != nil {
			return Result{}, err
		}
		res.Entries = m.Len()
	}
	return res, nil
}

// ConvertFile converts src and writes the result to dst. An empty dst
// selects the conventional output path (see format.OutputPath). It returns
// the path written.
//
// The output is only written once the whole conversion has succeeded; a
// failed conversion leaves any existing dst unchanged.
func (c *Converter) ConvertFile(ctx context.Context, src, dst string) (string, error) {
	out, err := c.convertFile(ctx, src, dst)
	if err != nil {
		c.logger.Warn("conversion failed", "source", src, "error", err)
		return "", err
	}
	return out, nil
}

func (c *Converter) convertFile(ctx context.Context, src, dst string) (string, error) {
	if dst == "" {
		var err error
		if dst, err = format.OutputPath(src); err != nil {
			return "", err
		}
	}

	res, err := c.Render(ctx, src)
	if err != nil {
		return "", err
	}
	if f, err := format.Detect(dst); err == nil && f != res.To {
		return "", fmt.Errorf("cannot write %s output to %q", res.To, dst)
	}

	if err := fs.Save(ctx, dst, res.Data, c.saveOptions()...); err != nil {
		return "", err
	}
	c.logger.Debug("converted file", "source", src, "target", dst, "entries", res.Entries)
	return dst, nil
}

func (c *Converter) saveOptions() []fs.Option {
	return []fs.Option{fs.WithFileMode(c.fileMode), fs.WithDirMode(c.dirMode)}
}

func (c *Converter) readProperties(ctx context.Context, path string) (*flatmap.Map, error) {
	data, err := fs.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	m, err := properties.Parse(data)
	if err != nil {
		return nil, document.WithPath(err, path)
	}
	c.logger.Debug("parsed properties", "source", path, "entries", m.Len())
	return m, nil
}

func (c *Converter) propertiesToYAML(path string, m *flatmap.Map) ([]byte, error) {
	if c.sortKeys {
		m = m.Sorted()
	}
	root, err := maputil.Nest(m)
	if err != nil {
		return nil, fmt.Errorf("failed to nest %q: %w", path, err)
	}
	return yaml.Marshal(root, yaml.WithIndent(c.indent))
}

func (c *Converter) marshalProperties(m *flatmap.Map) ([]byte, error) {
	return properties.Marshal(m,
		properties.WithHeader(c.header),
		properties.WithSortedKeys(c.sortKeys),
		properties.WithEscapeUnicode(c.escapeUnicode),
	)
}

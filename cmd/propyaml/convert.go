package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"

	"github.com/scott-cotton/cli"
	"github.com/yacchi/propyaml"
	"github.com/yacchi/propyaml/format"
	"github.com/yacchi/propyaml/source/fs"
)

type convertOptions struct {
	output string
	stdout bool
	check  bool
}

func convert(cfg *ConvertConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Convert.Parse(cc, args)
	if err != nil {
		return err
	}
	opts := convertOptions{output: cfg.Output, stdout: cfg.Stdout, check: cfg.Check}
	if err := opts.validate(args); err != nil {
		return err
	}
	ctx := context.Background()
	conv, p, err := cfg.setup(ctx, cc)
	if err != nil {
		return err
	}
	return convertFiles(ctx, conv, p, cc.Out, args, opts)
}

func convertFrom(cfg *DirectionConfig, from format.Format, cc *cli.Context, args []string) error {
	args, err := cfg.Cmd.Parse(cc, args)
	if err != nil {
		return err
	}
	opts := convertOptions{output: cfg.Output, stdout: cfg.Stdout}
	if err := opts.validate(args); err != nil {
		return err
	}
	if err := requireFormat(args, from); err != nil {
		return err
	}
	ctx := context.Background()
	conv, p, err := cfg.setup(ctx, cc)
	if err != nil {
		return err
	}
	return convertFiles(ctx, conv, p, cc.Out, args, opts)
}

func (o convertOptions) validate(files []string) error {
	switch {
	case len(files) == 0:
		return fmt.Errorf("%w: no input files", cli.ErrUsage)
	case o.output != "" && len(files) > 1:
		return fmt.Errorf("%w: -o requires a single input file", cli.ErrUsage)
	case o.stdout && o.check:
		return fmt.Errorf("%w: -stdout and -check are mutually exclusive", cli.ErrUsage)
	}
	return nil
}

// requireFormat rejects files whose extension is not of format want.
func requireFormat(files []string, want format.Format) error {
	for _, file := range files {
		got, err := format.Detect(file)
		if err != nil {
			return fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		if got != want {
			return fmt.Errorf("%w: %s is not a %s file", cli.ErrUsage, file, want)
		}
	}
	return nil
}

// convertFiles converts each file in turn. A failing file does not stop the
// remaining ones; the returned error counts the failures.
func convertFiles(ctx context.Context, conv *propyaml.Converter, p *printer, out io.Writer, files []string, opts convertOptions) error {
	failed := 0
	for _, file := range files {
		var err error
		switch {
		case opts.check:
			err = checkFile(ctx, conv, p, file, opts.output)
		case opts.stdout:
			err = printFile(ctx, conv, out, file)
		default:
			var dst string
			if dst, err = conv.ConvertFile(ctx, file, opts.output); err == nil {
				p.converted(file, dst)
			}
		}
		if err != nil {
			if !errors.Is(err, errOutOfDate) {
				p.failed(file, err)
			}
			failed++
		}
	}
	if failed > 0 {
		if opts.check {
			return fmt.Errorf("%d of %d files not up to date", failed, len(files))
		}
		return fmt.Errorf("%d of %d conversions failed", failed, len(files))
	}
	return nil
}

var errOutOfDate = errors.New("output is out of date")

// checkFile compares the rendered conversion of src with the existing
// output file, printing a diff on mismatch.
func checkFile(ctx context.Context, conv *propyaml.Converter, p *printer, src, dst string) error {
	if dst == "" {
		var err error
		if dst, err = format.OutputPath(src); err != nil {
			return err
		}
	}
	res, err := conv.Render(ctx, src)
	if err != nil {
		return err
	}
	current, err := fs.Load(ctx, dst)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return fmt.Errorf("%s does not exist", dst)
		}
		return err
	}
	if !bytes.Equal(current, res.Data) {
		p.diff(dst, current, res.Data)
		return errOutOfDate
	}
	p.upToDate(dst)
	return nil
}

func printFile(ctx context.Context, conv *propyaml.Converter, out io.Writer, src string) error {
	res, err := conv.Render(ctx, src)
	if err != nil {
		return err
	}
	_, err = out.Write(res.Data)
	return err
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// printer writes per-file status lines and diffs.
type printer struct {
	w       io.Writer
	ok      func(string, ...any) string
	fail    func(string, ...any) string
	added   func(string, ...any) string
	removed func(string, ...any) string
	header  func(string, ...any) string
}

func newPrinter(w io.Writer, useColor bool) *printer {
	if !useColor {
		return &printer{w: w, ok: fmt.Sprintf, fail: fmt.Sprintf, added: fmt.Sprintf, removed: fmt.Sprintf, header: fmt.Sprintf}
	}
	sprintf := func(attrs ...color.Attribute) func(string, ...any) string {
		c := color.New(attrs...)
		c.EnableColor()
		return c.SprintfFunc()
	}
	return &printer{
		w:       w,
		ok:      sprintf(color.FgGreen),
		fail:    sprintf(color.FgRed),
		added:   sprintf(color.FgGreen),
		removed: sprintf(color.FgRed),
		header:  sprintf(color.Bold),
	}
}

func (p *printer) converted(src, dst string) {
	fmt.Fprintln(p.w, p.ok("converted %s -> %s", src, dst))
}

func (p *printer) upToDate(dst string) {
	fmt.Fprintln(p.w, p.ok("up to date %s", dst))
}

func (p *printer) failed(src string, err error) {
	fmt.Fprintln(p.w, p.fail("failed %s: %v", src, err))
}

// diff prints a line diff turning current into converted.
func (p *printer) diff(path string, current, converted []byte) {
	fmt.Fprintln(p.w, p.header("--- %s", path))
	fmt.Fprintln(p.w, p.header("+++ %s (converted)", path))
	for _, l := range lineDiff(string(current), string(converted)) {
		switch l.op {
		case diffpatch.DiffDelete:
			fmt.Fprintln(p.w, p.removed("-%s", l.text))
		case diffpatch.DiffInsert:
			fmt.Fprintln(p.w, p.added("+%s", l.text))
		default:
			fmt.Fprintf(p.w, " %s\n", l.text)
		}
	}
}

type diffLine struct {
	op   diffpatch.Operation
	text string
}

// lineDiff compares a and b line by line.
func lineDiff(a, b string) []diffLine {
	dmp := diffpatch.New()
	ra, rb, lines := dmp.DiffLinesToRunes(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(ra, rb, false), lines)

	var out []diffLine
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		for _, line := range strings.Split(text, "\n") {
			out = append(out, diffLine{op: d.Type, text: line})
		}
	}
	return out
}

package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"hasheq/internal/diag"
	"hasheq/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info, note, gutter, caret, loc *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		loc:    color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret, p.loc} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders diagnostics for humans. The bag is expected to be sorted.
// For every diagnostic it prints
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a ^~~~ underline, then the notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		header := p.severity(d.Severity).Sprint(d.Severity.String()) + " " + d.Code.ID() + ": " + d.Message
		if loc := locate(fs, d.Primary, opts.PathMode); loc != "" {
			header = p.loc.Sprint(loc) + ": " + header
		}
		fmt.Fprintln(w, header)
		writeExcerpt(w, fs, d.Primary, p)

		if !opts.ShowNotes {
			continue
		}
		for _, note := range d.Notes {
			line := "  " + p.note.Sprint("note") + ": "
			if loc := locate(fs, note.Span, opts.PathMode); loc != "" {
				line += loc + ": "
			}
			fmt.Fprintln(w, line+note.Msg)
			writeExcerpt(w, fs, note.Span, p)
		}
	}
}

func locate(fs *source.FileSet, span source.Span, mode PathMode) string {
	if fs == nil || !span.Valid() || int(span.File) >= fs.Len() {
		return ""
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(fs.Get(span.File), fs, mode), start.Line, start.Col)
}

func writeExcerpt(w io.Writer, fs *source.FileSet, span source.Span, p palette) {
	if fs == nil || !span.Valid() || int(span.File) >= fs.Len() {
		return
	}
	f := fs.Get(span.File)
	start, end := fs.Resolve(span)
	text := f.GetLine(start.Line)
	if text == "" {
		return
	}

	lineNo := fmt.Sprintf("%d", start.Line)
	pad := strings.Repeat(" ", len(lineNo))

	from := min(int(start.Col-1), len(text))
	to := len(text)
	if end.Line == start.Line {
		to = min(max(int(end.Col-1), from), len(text))
	}
	prefix := runewidth.StringWidth(expandTabs(text[:from]))
	width := max(runewidth.StringWidth(expandTabs(text[from:to])), 1)

	fmt.Fprintf(w, " %s %s %s\n", p.gutter.Sprint(lineNo), p.gutter.Sprint("|"), expandTabs(text))
	underline := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, " %s %s %s%s\n", pad, p.gutter.Sprint("|"), strings.Repeat(" ", prefix), p.caret.Sprint(underline))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

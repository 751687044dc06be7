package diag

import (
	"fmt"
	"sort"
	"strings"

	"hasheq/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatShortDiagnostics renders one line per diagnostic (and per note when
// includeNotes is set), sorted by location. Paths are relative to the FileSet base.
// The output is stable and is what golden tests compare against.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}

	rendered := make([]shortDiagnostic, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		rendered = append(rendered, resolve(fs, d.Primary, d.Severity.Label(), d.Code, d.Message))
		if !includeNotes {
			continue
		}
		for _, note := range d.Notes {
			rendered = append(rendered, resolve(fs, note.Span, "note", d.Code, note.Msg))
		}
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		return di.Column < dj.Column
	})

	var b strings.Builder
	for i, d := range rendered {
		if d.Path == "" {
			fmt.Fprintf(&b, "%s %s %s", d.Severity, d.Code, d.Message)
		} else {
			fmt.Fprintf(&b, "%s %s %s:%d:%d %s", d.Severity, d.Code, d.Path, d.Line, d.Column, d.Message)
		}
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func resolve(fs *source.FileSet, span source.Span, sev string, code Code, msg string) shortDiagnostic {
	out := shortDiagnostic{Severity: sev, Code: code.ID(), Message: sanitizeMessage(msg)}
	if fs == nil || !span.Valid() || int(span.File) >= fs.Len() {
		return out
	}
	file := fs.Get(span.File)
	start, _ := fs.Resolve(span)
	out.Path = strings.TrimPrefix(file.FormatPath("relative", fs.BaseDir()), "./")
	out.Line = start.Line
	out.Column = start.Col
	return out
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}

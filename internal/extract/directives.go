package extract

import (
	"fmt"
	"go/ast"
	"reflect"
	"strconv"
	"strings"

	"hasheq/internal/diag"
	"hasheq/internal/model"
	"hasheq/internal/source"
)

const (
	directivePrefix = "//hasheq:"
	tagKey          = "hasheq"
	// GenerateDirective opts a struct in without using any marker.
	GenerateDirective = "generate"
)

type directive struct {
	name string
	span source.Span
}

// directives returns every //hasheq: name in the group. A directive may list several
// names separated by commas or spaces.
func (x *Extractor) directives(fi *fileInfo, group *ast.CommentGroup) []directive {
	if group == nil {
		return nil
	}
	var out []directive
	for _, c := range group.List {
		if !strings.HasPrefix(c.Text, directivePrefix) {
			continue
		}
		sp := x.span(fi, c.Pos(), c.End())
		for _, name := range splitNames(c.Text[len(directivePrefix):]) {
			out = append(out, directive{name: name, span: sp})
		}
	}
	return out
}

func splitNames(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// typeDirectives reports whether the struct opted in. Markers belong on fields, so
// anything but generate is reported.
func (x *Extractor) typeDirectives(fi *fileInfo, typeName string, doc *ast.CommentGroup) bool {
	optIn := false
	for _, d := range x.directives(fi, doc) {
		if d.name == GenerateDirective {
			optIn = true
			continue
		}
		msg := fmt.Sprintf("%s: unknown type directive %q", typeName, d.name)
		if _, ok := x.vocab.Lookup(d.name); ok {
			msg = fmt.Sprintf("%s: @%s belongs on a field, not on the type", typeName, d.name)
		}
		diag.ReportWarning(x.rep, diag.ExtUnknownDirective, d.span, msg).Emit()
	}
	return optIn
}

// fieldAnnotations merges doc comment, line comment and struct tag annotations.
// Unknown names are kept as opaque annotations and reported.
func (x *Extractor) fieldAnnotations(fi *fileInfo, field *ast.Field) model.Annotations {
	ds := x.directives(fi, field.Doc)
	ds = append(ds, x.directives(fi, field.Comment)...)
	if field.Tag != nil {
		sp := x.span(fi, field.Tag.Pos(), field.Tag.End())
		if raw, err := strconv.Unquote(field.Tag.Value); err == nil {
			if value, ok := reflect.StructTag(raw).Lookup(tagKey); ok {
				for _, name := range splitNames(value) {
					ds = append(ds, directive{name: name, span: sp})
				}
			}
		}
	}

	var a model.Annotations
	seen := make(map[string]bool, len(ds))
	for _, d := range ds {
		parsed := x.vocab.Parse(d.name)
		key := parsed.String()
		if seen[key] {
			diag.ReportWarning(x.rep, diag.ExtDuplicateDirective, d.span,
				fmt.Sprintf("%q repeated on the same field", d.name)).Emit()
			continue
		}
		seen[key] = true
		if len(parsed.Markers()) == 0 {
			diag.ReportWarning(x.rep, diag.ExtUnknownDirective, d.span,
				fmt.Sprintf("unknown field directive %q; kept as an opaque annotation", d.name)).Emit()
		}
		a = a.Union(parsed)
	}
	return a
}

package extract

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/build"
	"go/parser"
	"go/scanner"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"hasheq/internal/diag"
	"hasheq/internal/model"
	"hasheq/internal/source"
)

// maxParseErrors caps INP1001 diagnostics per file.
const maxParseErrors = 10

// Options configures extraction.
type Options struct {
	Vocab *model.Vocabulary
	// OutputFile is the generated file name; it is never read as input.
	OutputFile string
}

// Package is what extraction produced for one directory.
type Package struct {
	Name  string
	Dir   string
	Files []source.FileID
	// Types holds every non-generic struct declared in the package, in file
	// order and then source order.
	Types []model.ValueType
	// Methods maps a receiver type name to the methods declared on it.
	Methods map[string][]Method
}

// Method is a method declaration found in the package.
type Method struct {
	Name string
	Span source.Span
}

// HasMethod reports whether typeName already declares a method called name.
func (p *Package) HasMethod(typeName, name string) (Method, bool) {
	for _, m := range p.Methods[typeName] {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// Lookup returns the type named name.
func (p *Package) Lookup(name string) (*model.ValueType, bool) {
	for i := range p.Types {
		if p.Types[i].Name == name {
			return &p.Types[i], true
		}
	}
	return nil, false
}

type fileInfo struct {
	id      source.FileID
	tf      *token.File
	syntax  *ast.File
	imports map[string]string // local name -> import path
}

type declInfo struct {
	spec *ast.TypeSpec
	file *fileInfo
}

// Extractor is single-use: one Extractor per package directory.
type Extractor struct {
	fs    *source.FileSet
	tok   *token.FileSet
	rep   diag.Reporter
	vocab *model.Vocabulary
	opts  Options

	files []*fileInfo
	decls map[string]declInfo
}

// New creates an extractor that loads files into fs and reports problems to r.
func New(fs *source.FileSet, r diag.Reporter, opts Options) *Extractor {
	if opts.Vocab == nil {
		opts.Vocab = model.DefaultVocabulary()
	}
	if r == nil {
		r = diag.NopReporter{}
	}
	return &Extractor{
		fs:    fs,
		tok:   token.NewFileSet(),
		rep:   r,
		vocab: opts.Vocab,
		opts:  opts,
		decls: make(map[string]declInfo),
	}
}

// ListGoFiles returns the input files of dir in name order: non-test .go files that
// match the current build context, minus the generated output file.
func ListGoFiles(dir, outputFile string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		if name == outputFile || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		ok, err := build.Default.MatchFile(dir, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Join(dir, name), err)
		}
		if ok {
			files = append(files, filepath.Join(dir, name))
		}
	}
	return files, nil
}

// LoadDir loads the input files of dir into fs, in name order. A file that cannot be
// read is reported to r as INP1002 and skipped; with a nil r the error is returned.
func LoadDir(ctx context.Context, fs *source.FileSet, r diag.Reporter, dir, outputFile string) ([]source.FileID, error) {
	paths, err := ListGoFiles(dir, outputFile)
	if err != nil {
		return nil, err
	}
	ids := make([]source.FileID, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, err := fs.Load(path)
		if err != nil {
			if r == nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
			diag.ReportError(r, diag.InpLoadFileError, source.NoSpan,
				fmt.Sprintf("cannot read %s: %v", path, err)).Emit()
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Dir extracts every value type declared in dir. IO failures are returned as errors;
// problems in the source itself are reported as diagnostics.
func (x *Extractor) Dir(ctx context.Context, dir string) (*Package, error) {
	ids, err := LoadDir(ctx, x.fs, x.rep, dir, x.opts.OutputFile)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		diag.ReportError(x.rep, diag.InpNoGoFiles, source.NoSpan,
			fmt.Sprintf("no Go files in %s", dir)).Emit()
		return &Package{Dir: dir, Methods: make(map[string][]Method)}, nil
	}
	pkg := x.Source(ids...)
	pkg.Dir = dir
	return pkg, nil
}

// Source extracts from in-memory files, already added to the FileSet.
func (x *Extractor) Source(ids ...source.FileID) *Package {
	pkg := &Package{Methods: make(map[string][]Method)}
	for _, id := range ids {
		x.addFile(pkg, id)
	}
	x.collect(pkg)
	return pkg
}

func (x *Extractor) addFile(pkg *Package, id source.FileID) {
	f := x.fs.Get(id)
	syntax, err := parser.ParseFile(x.tok, f.Path, f.Content, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		x.reportParseError(id, err)
		return
	}
	fi := &fileInfo{
		id:      id,
		tf:      x.tok.File(syntax.Pos()),
		syntax:  syntax,
		imports: importNames(syntax),
	}
	switch {
	case pkg.Name == "":
		pkg.Name = syntax.Name.Name
	case pkg.Name != syntax.Name.Name:
		diag.ReportWarning(x.rep, diag.InpMixedPackages, x.span(fi, syntax.Name.Pos(), syntax.Name.End()),
			fmt.Sprintf("file belongs to package %s, not %s; skipped", syntax.Name.Name, pkg.Name)).Emit()
		return
	}
	pkg.Files = append(pkg.Files, id)
	x.files = append(x.files, fi)
	for _, decl := range syntax.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil || len(d.Recv.List) == 0 {
				continue
			}
			recv := embeddedName(d.Recv.List[0].Type)
			pkg.Methods[recv] = append(pkg.Methods[recv], Method{
				Name: d.Name.Name,
				Span: x.span(fi, d.Name.Pos(), d.Name.End()),
			})
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok {
					x.decls[ts.Name.Name] = declInfo{spec: ts, file: fi}
				}
			}
		}
	}
}

func (x *Extractor) reportParseError(id source.FileID, err error) {
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		diag.ReportError(x.rep, diag.InpParseError, x.fs.Span(id, 0, 0), err.Error()).Emit()
		return
	}
	for i, e := range list {
		if i == maxParseErrors {
			break
		}
		sp := x.fs.Span(id, e.Pos.Offset, e.Pos.Offset+1)
		diag.ReportError(x.rep, diag.InpParseError, sp, e.Msg).Emit()
	}
}

func importNames(f *ast.File) map[string]string {
	out := make(map[string]string, len(f.Imports))
	for _, imp := range f.Imports {
		path := strings.Trim(imp.Path.Value, "\"`")
		name := filepath.Base(path)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		out[name] = path
	}
	return out
}

func (x *Extractor) collect(pkg *Package) {
	for _, fi := range x.files {
		for _, decl := range fi.syntax.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				st, ok := ts.Type.(*ast.StructType)
				if !ok || ts.Assign.IsValid() {
					continue
				}
				doc := ts.Doc
				if doc == nil && !gd.Lparen.IsValid() {
					doc = gd.Doc
				}
				if vt, ok := x.valueType(pkg.Name, fi, ts, st, doc); ok {
					pkg.Types = append(pkg.Types, vt)
				}
			}
		}
	}
}

func (x *Extractor) valueType(pkgName string, fi *fileInfo, ts *ast.TypeSpec, st *ast.StructType, doc *ast.CommentGroup) (model.ValueType, bool) {
	vt := model.ValueType{
		Name:    ts.Name.Name,
		Package: pkgName,
		OptIn:   x.typeDirectives(fi, ts.Name.Name, doc),
		Span:    x.span(fi, ts.Name.Pos(), ts.Name.End()),
	}
	for _, field := range st.Fields.List {
		vt.Properties = append(vt.Properties, x.properties(fi, vt.Name, field)...)
	}
	if ts.TypeParams != nil && ts.TypeParams.NumFields() > 0 {
		if vt.OptIn || !vt.AnnotationUnion().Empty() {
			diag.ReportWarning(x.rep, diag.ExtGenericType, vt.Span,
				fmt.Sprintf("%s has type parameters; no methods will be generated", vt.Name)).Emit()
		}
		return model.ValueType{}, false
	}
	return vt, true
}

func (x *Extractor) properties(fi *fileInfo, typeName string, field *ast.Field) []model.Property {
	annotations := x.fieldAnnotations(fi, field)
	typ := x.resolve(fi, field.Type, nil)

	var out []model.Property
	add := func(name string, sp source.Span) {
		a := annotations
		if a.Has(model.MarkerNullable) && !typ.Nilable {
			diag.ReportWarning(x.rep, diag.ExtNullableNotNilable, sp,
				fmt.Sprintf("%s.%s: @%s on %s, which cannot be nil; marker ignored",
					typeName, name, x.vocab.Display(model.MarkerNullable), typ)).Emit()
			a = a.Without(model.MarkerNullable)
		}
		out = append(out, model.Property{Name: name, Type: typ, Annotations: a, Span: sp})
	}

	if len(field.Names) == 0 {
		add(embeddedName(field.Type), x.span(fi, field.Type.Pos(), field.Type.End()))
		return out
	}
	for _, ident := range field.Names {
		if ident.Name == "_" {
			continue
		}
		add(ident.Name, x.span(fi, ident.Pos(), ident.End()))
	}
	return out
}

// embeddedName is the implicit field name of an embedded type: *pkg.T[K] -> T.
func embeddedName(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.SelectorExpr:
			return e.Sel.Name
		case *ast.Ident:
			return e.Name
		default:
			return "_"
		}
	}
}

func (x *Extractor) span(fi *fileInfo, pos, end token.Pos) source.Span {
	return x.fs.Span(fi.id, fi.tf.Offset(pos), fi.tf.Offset(end))
}

func (x *Extractor) text(fi *fileInfo, node ast.Node) string {
	content := x.fs.Get(fi.id).Content
	start, end := fi.tf.Offset(node.Pos()), fi.tf.Offset(node.End())
	if start < 0 || end > len(content) || start > end {
		return ""
	}
	return string(content[start:end])
}

package extract

import (
	"go/ast"
	"go/token"
	"strconv"

	"hasheq/internal/model"
)

// wellKnown maps "<import path>.<name>" to the kind of its underlying type, for
// imported types that are common in value types.
var wellKnown = map[string]model.Kind{
	"time.Duration":  model.KindInt64,
	"time.Month":     model.KindInt64,
	"time.Weekday":   model.KindInt64,
	"io/fs.FileMode": model.KindUint32,
	"os.FileMode":    model.KindUint32,
}

// nonNilable lists imported struct types that are known never to be nil.
var nonNilable = map[string]bool{
	"time.Time":            true,
	"math/big.Int":         true,
	"net/netip.Addr":       true,
	"net/netip.Prefix":     true,
	"net/url.URL":          true,
	"encoding/json.Number": true,
}

// resolve maps a field type expression onto the closed Kind set. seen guards
// against recursive local declarations.
func (x *Extractor) resolve(fi *fileInfo, expr ast.Expr, seen map[string]bool) model.Type {
	name := x.text(fi, expr)
	switch e := expr.(type) {
	case *ast.ParenExpr:
		t := x.resolve(fi, e.X, seen)
		t.Name = name
		return t

	case *ast.Ident:
		return x.resolveIdent(e.Name, seen)

	case *ast.StarExpr, *ast.MapType, *ast.ChanType, *ast.FuncType, *ast.InterfaceType:
		return model.Reference(name, true)

	case *ast.StructType:
		return model.Reference(name, false)

	case *ast.ArrayType:
		elem := x.resolve(fi, e.Elt, seen)
		if e.Len == nil {
			return model.ArrayOf(elem, -1, name)
		}
		return model.ArrayOf(elem, arrayLen(e.Len), name)

	case *ast.SelectorExpr:
		pkg, ok := e.X.(*ast.Ident)
		if !ok {
			return model.Reference(name, true)
		}
		qualified := fi.imports[pkg.Name] + "." + e.Sel.Name
		if k, ok := wellKnown[qualified]; ok {
			return model.Type{Kind: k, Name: name}
		}
		// the underlying type of an imported name is unknown; assume it can be nil
		return model.Reference(name, !nonNilable[qualified])

	case *ast.IndexExpr, *ast.IndexListExpr:
		// instantiated generic type
		base := x.resolve(fi, genericBase(e), seen)
		if base.Kind != model.KindReference {
			return model.Reference(name, base.Nilable)
		}
		base.Name = name
		return base
	}
	return model.Reference(name, true)
}

func (x *Extractor) resolveIdent(name string, seen map[string]bool) model.Type {
	decl, local := x.decls[name]
	if !local {
		if t, ok := model.Basic(name); ok {
			return t
		}
		// type parameter or an unknown name
		return model.Reference(name, true)
	}
	if seen[name] {
		return model.Reference(name, false)
	}
	if seen == nil {
		seen = make(map[string]bool)
	}
	seen[name] = true
	defer delete(seen, name)

	under := x.resolve(decl.file, decl.spec.Type, seen)
	if decl.spec.Assign.IsValid() {
		// alias: same type, spelled differently
		under.Name = name
		return under
	}
	switch decl.spec.Type.(type) {
	case *ast.StructType:
		return model.Reference(name, false)
	case *ast.InterfaceType:
		return model.Reference(name, true)
	}
	under.Name = name
	return under
}

func genericBase(expr ast.Expr) ast.Expr {
	switch e := expr.(type) {
	case *ast.IndexExpr:
		return e.X
	case *ast.IndexListExpr:
		return e.X
	}
	return expr
}

// arrayLen returns the literal length of [N]T, or 0 when N is a constant expression.
func arrayLen(expr ast.Expr) int {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.INT {
		return 0
	}
	n, err := strconv.ParseInt(lit.Value, 0, 64)
	if err != nil {
		return 0
	}
	return int(n)
}

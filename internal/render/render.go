// Package render turns synthesized plans into Go source.
//
// Every value type gets two pointer-receiver methods:
//
//	func (v *T) Equal(other any) bool
//	func (v *T) HashCode() int32
//
// which satisfy hasheq.Equaler and hasheq.Hasher from the runtime package.
package render

import (
	"bytes"
	"fmt"
	"go/format"
	"path"
	"strconv"
	"strings"

	"hasheq/internal/model"
	"hasheq/internal/synth"
)

// Header marks the file as generated; go vet and editors key off this exact form.
const Header = "// Code generated by hasheq. DO NOT EDIT."

const (
	defaultRuntimeImport = "hasheq/runtime/hasheq"
	runtimeName          = "hasheq"
)

// Options configures rendering.
type Options struct {
	// RuntimeImport is the import path of the helper package.
	RuntimeImport string
}

// FormatError is returned when the rendered source does not go/format. Source holds
// the unformatted text for inspection.
type FormatError struct {
	Source []byte
	Err    error
}

func (e *FormatError) Error() string { return "generated source does not format: " + e.Err.Error() }
func (e *FormatError) Unwrap() error { return e.Err }

// File renders one Go file holding the methods of every plan, in plan order.
func File(pkg string, plans []*synth.Plan, opts Options) ([]byte, error) {
	if opts.RuntimeImport == "" {
		opts.RuntimeImport = defaultRuntimeImport
	}

	var body bytes.Buffer
	usesRuntime := false
	for _, p := range plans {
		e := &emitter{buf: &body}
		e.methods(p)
		usesRuntime = usesRuntime || e.usesRuntime
	}

	var out bytes.Buffer
	out.WriteString(Header)
	out.WriteString("\n\npackage ")
	out.WriteString(pkg)
	out.WriteString("\n")
	if usesRuntime {
		out.WriteString("\nimport ")
		if path.Base(opts.RuntimeImport) != runtimeName {
			out.WriteString(runtimeName + " ")
		}
		out.WriteString(strconv.Quote(opts.RuntimeImport))
		out.WriteString("\n")
	}
	out.Write(body.Bytes())

	src, err := format.Source(out.Bytes())
	if err != nil {
		return out.Bytes(), &FormatError{Source: out.Bytes(), Err: err}
	}
	return src, nil
}

type emitter struct {
	buf         *bytes.Buffer
	usesRuntime bool
}

func (e *emitter) printf(format string, args ...any) {
	fmt.Fprintf(e.buf, format, args...)
}

// call renders a runtime helper call and records the import.
func (e *emitter) call(fn string, args ...string) string {
	e.usesRuntime = true
	return runtimeName + "." + fn + "(" + strings.Join(args, ", ") + ")"
}

func (e *emitter) methods(p *synth.Plan) {
	e.equal(p.Type, p.Equals)
	e.hashCode(p.Type, p.Hash)
}

func (e *emitter) equal(typeName string, plan synth.EqualsPlan) {
	e.printf("\n// Equal implements hasheq.Equaler.\n")
	e.printf("func (v *%s) Equal(other any) bool {\n", typeName)
	// nominal type check
	e.printf("o, ok := other.(*%s)\nif !ok {\nreturn false\n}\n", typeName)
	if plan.Identity {
		e.printf("if v == o {\nreturn true\n}\n")
	}
	e.printf("if v == nil || o == nil {\nreturn false\n}\n")
	if plan.Vacuous() {
		e.printf("return true\n}\n")
		return
	}
	terms := make([]string, len(plan.Terms))
	for i, t := range plan.Terms {
		terms[i] = e.equalTerm(t)
	}
	e.printf("return %s\n}\n", strings.Join(terms, " &&\n"))
}

func (e *emitter) equalTerm(t synth.EqualTerm) string {
	a, b := "v."+t.Property, "o."+t.Property
	switch t.Strategy {
	case synth.EqualDirect:
		return a + " == " + b
	case synth.EqualFloatBits:
		return e.call("Float32Equal", convert(t.Type, "float32", a), convert(t.Type, "float32", b))
	case synth.EqualDoubleBits:
		return e.call("Float64Equal", convert(t.Type, "float64", a), convert(t.Type, "float64", b))
	case synth.EqualArray:
		return e.call("SliceEqual", sliceOf(t.Type, a), sliceOf(t.Type, b))
	case synth.EqualReference:
		if t.Type.Underlying == "string" {
			return a + " == " + b
		}
		return e.call("Equal", a, b)
	case synth.EqualReferenceNullSafe:
		return e.call("NullableEqual", a, b)
	}
	panic(fmt.Sprintf("render: unknown equal strategy %s for %s", t.Strategy, t.Property))
}

func (e *emitter) hashCode(typeName string, plan synth.HashPlan) {
	e.printf("\n// HashCode implements hasheq.Hasher.\n")
	e.printf("func (v *%s) HashCode() int32 {\n", typeName)
	e.printf("if v == nil {\nreturn 0\n}\n")
	if len(plan.Steps) == 0 {
		e.printf("return %d\n}\n", plan.Seed)
		return
	}
	e.printf("h := int32(%d)\n", plan.Seed)
	for _, s := range plan.Steps {
		e.printf("h *= %d\n", plan.Multiplier)
		field := "v." + s.Property
		expr := e.hashContribution(s, field)
		if s.Nullable && s.Strategy == synth.HashArray && s.Type.IsSlice() {
			e.printf("if %s != nil {\nh ^= %s\n}\n", field, expr)
			continue
		}
		e.printf("h ^= %s\n", expr)
	}
	e.printf("return h\n}\n")
}

func (e *emitter) hashContribution(s synth.HashStep, field string) string {
	switch s.Strategy {
	case synth.HashWiden:
		return convert(s.Type, "int32", field)
	case synth.HashLong:
		if s.Type.Kind == model.KindUint64 {
			return e.call("Uint64", convert(s.Type, "uint64", field))
		}
		return e.call("Int64", convert(s.Type, "int64", field))
	case synth.HashFloatBits:
		return e.call("Float32", convert(s.Type, "float32", field))
	case synth.HashDoubleBits:
		return e.call("Float64", convert(s.Type, "float64", field))
	case synth.HashBool:
		return e.call("Bool", convert(s.Type, "bool", field))
	case synth.HashArray:
		return e.call("Slice", sliceOf(s.Type, field))
	case synth.HashReference:
		if s.Type.Underlying == "string" {
			return e.call("String", convert(s.Type, "string", field))
		}
		return e.call("Hash", field)
	case synth.HashReferenceNullable:
		return e.call("NullableHash", field)
	}
	panic(fmt.Sprintf("render: unknown hash strategy %s for %s", s.Strategy, s.Property))
}

// convert wraps expr in a conversion to goType unless the declared type already is it.
func convert(t model.Type, goType, expr string) string {
	if t.Name == goType {
		return expr
	}
	return goType + "(" + expr + ")"
}

// sliceOf turns a fixed-size array into a slice so both share the Slice helpers.
func sliceOf(t model.Type, expr string) string {
	if t.IsSlice() {
		return expr
	}
	return expr + "[:]"
}

// Package extract reads the Go files of one package directory and turns every
// struct declaration into a model.ValueType.
//
// Annotations come from //hasheq:<name> directives in field comments and from
// the hasheq struct tag:
//
//	//hasheq:generate
//	type Point struct {
//		X, Y int32
//		Label string //hasheq:ignore
//		Next *Point  `hasheq:"nullable"`
//	}
//
// Declared property types are resolved against the package's own type
// declarations, so named types keep the kind of their underlying type.
package extract

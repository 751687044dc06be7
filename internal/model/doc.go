// Package model defines the input shape of the generator: value types, their properties,
// declared types and annotation sets.
//
// Values of this package are produced by internal/extract and consumed read-only by
// internal/policy and internal/synth. Nothing here performs IO.
//
// Annotation names are resolved through a Vocabulary into a closed Marker enum so that
// policy decisions are bit tests, not string comparisons. Names the vocabulary does not
// know are preserved as opaque strings.
package model

package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// input: files, config, parsing
	InpInfo          Code = 1000
	InpParseError    Code = 1001
	InpLoadFileError Code = 1002
	InpNoGoFiles     Code = 1003
	InpMixedPackages Code = 1004

	// extraction of value types from Go source
	ExtInfo               Code = 2000
	ExtNullableNotNilable Code = 2001
	ExtUnknownDirective   Code = 2002
	ExtDuplicateDirective Code = 2003
	ExtNoCandidates       Code = 2004
	ExtGenericType        Code = 2005
	ExtMethodExists       Code = 2006

	// inclusion policy
	PolInfo                   Code = 3000
	PolConflictingAnnotations Code = 3001

	// rendering and output
	GenInfo          Code = 4000
	GenFormatFailure Code = 4001
	GenStaleOutput   Code = 4002
)

var codeDescription = map[Code]string{
	UnknownCode:               "Unknown error",
	InpInfo:                   "Input information",
	InpParseError:             "Go source does not parse",
	InpLoadFileError:          "I/O load file error",
	InpNoGoFiles:              "No Go files in package directory",
	InpMixedPackages:          "files of another package in the directory",
	ExtInfo:                   "Extraction information",
	ExtNullableNotNilable:     "nullable marker on a type that cannot be nil",
	ExtUnknownDirective:       "unknown hasheq directive",
	ExtDuplicateDirective:     "directive repeated on the same field",
	ExtNoCandidates:           "no value types to generate",
	ExtGenericType:            "generic value types are not supported",
	ExtMethodExists:           "type already declares Equal or HashCode",
	PolInfo:                   "Policy information",
	PolConflictingAnnotations: "inclusion and exclusion markers used on the same type",
	GenInfo:                   "Generation information",
	GenFormatFailure:          "generated source does not gofmt",
	GenStaleOutput:            "generated file is out of date",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("INP%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("EXT%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("POL%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("GEN%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

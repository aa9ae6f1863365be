// Package ctype maps native C++ type spellings onto their foreign-call
// equivalents: the ctypes token declared on the Python side and the exact
// C spelling re-declared in the generated bridge. The table is closed and
// immutable; anything outside it is rejected rather than guessed at.
package ctype

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/maps"
)

// ErrUnsupportedType is returned when a spelling has no registry entry, or
// uses more indirection than the boundary can carry.
var ErrUnsupportedType = errors.New("unsupported type")

// entry is one registry row: the ctypes token and the width-exact C spelling
// that the generated artifacts must agree on.
type entry struct {
	ctypes string
	cabi   string
}

// registry keys are canonical spellings. Multi-word spellings are normalized
// to single spaces before lookup.
var registry = map[string]entry{
	"void":               {"None", "void"},
	"bool":               {"ctypes.c_bool", "bool"},
	"char":               {"ctypes.c_char", "char"},
	"signed char":        {"ctypes.c_int8", "int8_t"},
	"unsigned char":      {"ctypes.c_uint8", "uint8_t"},
	"short":              {"ctypes.c_int16", "int16_t"},
	"unsigned short":     {"ctypes.c_uint16", "uint16_t"},
	"int":                {"ctypes.c_int32", "int32_t"},
	"unsigned int":       {"ctypes.c_uint32", "uint32_t"},
	"long":               {"ctypes.c_long", "long"},
	"unsigned long":      {"ctypes.c_ulong", "unsigned long"},
	"long long":          {"ctypes.c_int64", "int64_t"},
	"unsigned long long": {"ctypes.c_uint64", "uint64_t"},
	"float":              {"ctypes.c_float", "float"},
	"double":             {"ctypes.c_double", "double"},
	"size_t":             {"ctypes.c_size_t", "size_t"},
	"ssize_t":            {"ctypes.c_ssize_t", "ssize_t"},
}

// aliases are the documented exceptions to the one-to-one mapping: each
// resolves to its canonical spelling before lookup, so <cstdint> names and
// the long-form integer spellings land on the same descriptor.
var aliases = map[string]string{
	"int8_t":                 "signed char",
	"uint8_t":                "unsigned char",
	"int16_t":                "short",
	"short int":              "short",
	"signed short":           "short",
	"signed short int":       "short",
	"uint16_t":               "unsigned short",
	"unsigned short int":     "unsigned short",
	"int32_t":                "int",
	"signed":                 "int",
	"signed int":             "int",
	"uint32_t":               "unsigned int",
	"unsigned":               "unsigned int",
	"long int":               "long",
	"signed long":            "long",
	"signed long int":        "long",
	"unsigned long int":      "unsigned long",
	"int64_t":                "long long",
	"long long int":          "long long",
	"signed long long":       "long long",
	"signed long long int":   "long long",
	"uint64_t":               "unsigned long long",
	"unsigned long long int": "unsigned long long",
}

// Type describes one supported native type: a canonical base spelling and at
// most one level of pointer indirection. Const records pointee constness for
// pointers; top-level const never survives resolution. Declared keeps the
// source's own spelling when it was an alias of Base, so re-declarations
// reproduce the exact source type; empty means the source wrote the
// canonical spelling.
type Type struct {
	Base     string
	Declared string
	Pointer  bool
	Const    bool
}

// Resolve normalizes a base spelling plus pointer depth into a Type. The
// const flag refers to the pointee and is dropped for non-pointers. Depth
// beyond one and spellings outside the registry fail with ErrUnsupportedType.
func Resolve(base string, pointers int, constQual bool) (Type, error) {
	spelling := normalize(base)
	var declared string
	if canonical, ok := aliases[spelling]; ok {
		declared = spelling
		spelling = canonical
	}

	switch {
	case pointers > 1:
		return Type{}, fmt.Errorf("%w %q: pointer depth %d, at most one level can cross the boundary", ErrUnsupportedType, base, pointers)
	case spelling == "long double":
		return Type{}, fmt.Errorf("%w %q: no fixed-width foreign equivalent", ErrUnsupportedType, base)
	}

	if _, ok := registry[spelling]; !ok {
		return Type{}, fmt.Errorf("%w %q", ErrUnsupportedType, base)
	}

	return Type{
		Base:     spelling,
		Declared: declared,
		Pointer:  pointers == 1,
		Const:    constQual && pointers == 1,
	}, nil
}

// Void reports whether t is plain void, legal only as a return type and in
// the C-style empty parameter list.
func (t Type) Void() bool {
	return t.Base == "void" && !t.Pointer
}

// Ctypes returns the Python-side token. Pointers collapse to plain address
// integers unless typed is set; void* stays c_void_p regardless.
func (t Type) Ctypes(typed bool) string {
	if !t.Pointer {
		return registry[t.Base].ctypes
	}

	if !typed || t.Base == "void" {
		return "ctypes.c_void_p"
	}

	return "ctypes.POINTER(" + registry[t.Base].ctypes + ")"
}

// CABI returns the C spelling for the generated entry points. Value types
// use width-exact names so both artifacts promise the same layout; pointers
// keep their native spelling since every object pointer is address-sized.
func (t Type) CABI() string {
	if t.Pointer {
		return t.Spelling()
	}
	return registry[t.Base].cabi
}

// Spelling returns the native declaration text, used when the bridge
// re-declares the original prototypes. The source's spelling wins over the
// canonical one: a fixed-width typedef names a different builtin on
// different platforms, so re-spelling it would change the C++ mangled name.
// Pointee const is preserved for the same reason.
func (t Type) Spelling() string {
	base := t.Base
	if t.Declared != "" {
		base = t.Declared
	}

	switch {
	case !t.Pointer:
		return base
	case t.Const:
		return "const " + base + "*"
	default:
		return base + "*"
	}
}

func (t Type) String() string {
	return t.Spelling()
}

// Spellings returns every canonical spelling in the registry, sorted. The
// generated module embeds this list so callers can see the supported surface
// without digging through the table.
func Spellings() []string {
	keys := maps.Keys(registry)
	slices.Sort(keys)
	return keys
}

// Aliases returns a copy of the documented alias table.
func Aliases() map[string]string {
	return maps.Clone(aliases)
}

func normalize(spelling string) string {
	return strings.Join(strings.Fields(spelling), " ")
}

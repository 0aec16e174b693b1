// Package ctype maps C, Rust and Go spellings of primitive types onto normalized
// abi.Primitive values for a given data model, and computes C struct and union layouts.
package ctype

import (
	"strconv"
	"strings"

	"github.com/pgavlin/abicheck/abi"
)

// Resolver resolves a type spelling to a normalized primitive.
type Resolver interface {
	Resolve(name string) (abi.Primitive, bool)
}

// Model is a C data model: the width, alignment and signedness of each fundamental type
// on a target, plus the target's standard typedefs.
type Model struct {
	Name string

	Char       abi.Primitive
	Short      int64
	Int        int64
	Long       int64
	LongLong   int64
	Pointer    int64
	LongDouble abi.Primitive
	Wchar      abi.Primitive

	// Typedefs maps typedef names (dev_t, off64_t, ...) to spellings resolvable by the model.
	Typedefs map[string]string
}

var commonTypedefs = map[string]string{
	"size_t":    "usize",
	"ssize_t":   "isize",
	"ptrdiff_t": "isize",
	"intptr_t":  "isize",
	"uintptr_t": "usize",
	"intmax_t":  "i64",
	"uintmax_t": "u64",
}

// LP64 is the data model of 64-bit Linux and most 64-bit Unix targets.
var LP64 = &Model{
	Name:       "lp64",
	Char:       abi.Int(1, true),
	Short:      2,
	Int:        4,
	Long:       8,
	LongLong:   8,
	Pointer:    8,
	LongDouble: abi.Float(16),
	Wchar:      abi.Int(4, true),
	Typedefs:   commonTypedefs,
}

// LP64UnsignedChar is LP64 with an unsigned plain char, as on RISC-V and AArch64.
var LP64UnsignedChar = &Model{
	Name:       "lp64-uchar",
	Char:       abi.Int(1, false),
	Short:      2,
	Int:        4,
	Long:       8,
	LongLong:   8,
	Pointer:    8,
	LongDouble: abi.Float(16),
	Wchar:      abi.Int(4, true),
	Typedefs:   commonTypedefs,
}

// ILP32 is the data model of 32-bit targets, including wasm32.
var ILP32 = &Model{
	Name:       "ilp32",
	Char:       abi.Int(1, true),
	Short:      2,
	Int:        4,
	Long:       4,
	LongLong:   8,
	Pointer:    4,
	LongDouble: abi.Float(16),
	Wchar:      abi.Int(4, true),
	Typedefs:   commonTypedefs,
}

// WithTypedefs returns a copy of the model with additional typedefs.
func (m *Model) WithTypedefs(name string, typedefs map[string]string) *Model {
	c := *m
	c.Name = name
	c.Typedefs = make(map[string]string, len(m.Typedefs)+len(typedefs))
	for k, v := range m.Typedefs {
		c.Typedefs[k] = v
	}
	for k, v := range typedefs {
		c.Typedefs[k] = v
	}
	return &c
}

const maxTypedefDepth = 32

// Resolve resolves a type spelling. Recognized spellings include Rust primitives and
// std::ffi names (u32, c_ulong, usize), C names (unsigned int, uint32_t, __u32), Go names
// (uint32, uintptr), pointers (*const T, T *), arrays ([T; N], T[N]) and the model's typedefs.
func (m *Model) Resolve(name string) (abi.Primitive, bool) {
	return m.resolve(name, 0)
}

func (m *Model) resolve(name string, depth int) (abi.Primitive, bool) {
	if depth > maxTypedefDepth {
		return abi.Primitive{}, false
	}

	name = Normalize(name)
	if name == "" {
		return abi.Primitive{}, false
	}

	if isPointer(name) {
		return m.pointer(), true
	}
	if elem, n, ok := splitArray(name); ok {
		p, ok := m.resolve(elem, depth+1)
		if !ok {
			return abi.Primitive{}, false
		}
		return p.Array(n), true
	}

	if p, ok := m.fundamental(name); ok {
		return p, true
	}
	if target, ok := m.Typedefs[name]; ok {
		return m.resolve(target, depth+1)
	}
	return abi.Primitive{}, false
}

func (m *Model) pointer() abi.Primitive {
	return abi.Primitive{Class: abi.ClassPointer, Size: m.Pointer, Align: m.Pointer, Signedness: abi.Unsigned}
}

func (m *Model) fundamental(name string) (abi.Primitive, bool) {
	switch name {
	case "i8", "int8", "int8_t", "__s8", "c_schar":
		return abi.Int(1, true), true
	case "u8", "uint8", "byte", "uint8_t", "__u8", "c_uchar", "bool", "_Bool":
		return abi.Int(1, false), true
	case "i16", "int16", "int16_t", "__s16":
		return abi.Int(2, true), true
	case "u16", "uint16", "uint16_t", "__u16":
		return abi.Int(2, false), true
	case "i32", "int32", "rune", "int32_t", "__s32":
		return abi.Int(4, true), true
	case "u32", "uint32", "uint32_t", "__u32", "char32_t":
		return abi.Int(4, false), true
	case "i64", "int64", "int64_t", "__s64":
		return abi.Int(8, true), true
	case "u64", "uint64", "uint64_t", "__u64":
		return abi.Int(8, false), true
	case "i128", "__int128", "__int128_t":
		return abi.Int(16, true), true
	case "u128", "unsigned __int128", "__uint128_t":
		return abi.Int(16, false), true
	case "isize":
		return abi.Int(m.Pointer, true), true
	case "usize", "uintptr":
		return abi.Int(m.Pointer, false), true
	case "c_long":
		return abi.Int(m.Long, true), true
	case "c_ulong":
		return abi.Int(m.Long, false), true
	case "f32", "float32", "c_float":
		return abi.Float(4), true
	case "f64", "float64", "c_double":
		return abi.Float(8), true
	case "c_char":
		return m.Char, true
	case "c_short":
		return abi.Int(m.Short, true), true
	case "c_ushort":
		return abi.Int(m.Short, false), true
	case "c_int":
		return abi.Int(m.Int, true), true
	case "c_uint":
		return abi.Int(m.Int, false), true
	case "c_longlong":
		return abi.Int(m.LongLong, true), true
	case "c_ulonglong":
		return abi.Int(m.LongLong, false), true
	case "wchar_t":
		return m.Wchar, true
	case "c_void", "void":
		return abi.Primitive{}, false
	}
	return m.cFundamental(name)
}

// cFundamental resolves multi-word C specifier sequences such as "unsigned long long int".
func (m *Model) cFundamental(name string) (abi.Primitive, bool) {
	var signed, unsigned, short, char, float, double bool
	long := 0
	for _, w := range strings.Fields(name) {
		switch w {
		case "signed":
			signed = true
		case "unsigned":
			unsigned = true
		case "short":
			short = true
		case "long":
			long++
		case "char":
			char = true
		case "int":
		case "float":
			float = true
		case "double":
			double = true
		default:
			return abi.Primitive{}, false
		}
	}
	if signed && unsigned {
		return abi.Primitive{}, false
	}

	switch {
	case float:
		return abi.Float(4), !(signed || unsigned || short || long > 0 || char || double)
	case double:
		if signed || unsigned || short || char || long > 1 {
			return abi.Primitive{}, false
		}
		if long == 1 {
			return m.LongDouble, true
		}
		return abi.Float(8), true
	case char:
		if short || long > 0 {
			return abi.Primitive{}, false
		}
		switch {
		case signed:
			return abi.Int(1, true), true
		case unsigned:
			return abi.Int(1, false), true
		default:
			return m.Char, true
		}
	case short:
		if long > 0 {
			return abi.Primitive{}, false
		}
		return abi.Int(m.Short, !unsigned), true
	case long == 1:
		return abi.Int(m.Long, !unsigned), true
	case long == 2:
		return abi.Int(m.LongLong, !unsigned), true
	case long > 2:
		return abi.Primitive{}, false
	default:
		return abi.Int(m.Int, !unsigned), true
	}
}

// Normalize canonicalizes a type spelling: it collapses whitespace, drops cv-qualifiers
// and the struct/union/enum tags, and strips Rust path prefixes such as crate:: and
// std::ffi::.
func Normalize(name string) string {
	words := strings.Fields(name)
	out := words[:0]
	for _, w := range words {
		switch w {
		case "const", "volatile", "restrict", "struct", "union", "enum", "mut":
			continue
		}
		out = append(out, w)
	}
	name = strings.Join(out, " ")

	if isPointer(name) || strings.HasPrefix(name, "[") {
		return name
	}
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	return name
}

func isPointer(name string) bool {
	return strings.HasPrefix(name, "*") || strings.HasSuffix(name, "*") || strings.HasPrefix(name, "&")
}

// splitArray splits "[T; N]" or "T[N]" into its element type and length.
func splitArray(name string) (string, int64, bool) {
	if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		inner := name[1 : len(name)-1]
		semi := strings.LastIndex(inner, ";")
		if semi < 0 {
			return "", 0, false
		}
		n, err := strconv.ParseInt(strings.TrimSpace(inner[semi+1:]), 0, 64)
		if err != nil || n < 0 {
			return "", 0, false
		}
		return strings.TrimSpace(inner[:semi]), n, true
	}
	if strings.HasSuffix(name, "]") {
		open := strings.LastIndex(name, "[")
		if open <= 0 {
			return "", 0, false
		}
		n, err := strconv.ParseInt(strings.TrimSpace(name[open+1:len(name)-1]), 0, 64)
		if err != nil || n < 0 {
			return "", 0, false
		}
		return strings.TrimSpace(name[:open]), n, true
	}
	return "", 0, false
}

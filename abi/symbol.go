package abi

import "fmt"

// Unset marks a size, alignment or offset that the source did not assert.
const Unset int64 = -1

// Field is a member of a struct or union. Padding fields are anonymous or private
// members that exist only to reproduce a platform layout; they are matched by position
// among the padding fields of their symbol rather than by name.
type Field struct {
	Name       string
	Padding    bool
	Type       string
	Offset     int64
	Size       int64
	Signedness Signedness
}

// NewField returns a field with an unknown layout.
func NewField(name, typ string) Field {
	return Field{Name: name, Type: typ, Offset: Unset, Size: Unset}
}

// NewPadding returns a padding field with an unknown layout.
func NewPadding(name, typ string) Field {
	return Field{Name: name, Padding: true, Type: typ, Offset: Unset, Size: Unset}
}

// DisplayName returns the name used for the field in reports. paddingIndex is the
// position of the field among the padding fields of its symbol.
func (f *Field) DisplayName(paddingIndex int) string {
	if f.Name != "" {
		return f.Name
	}
	return fmt.Sprintf("<padding %d>", paddingIndex)
}

// Symbol is a named constant, type alias, struct or union. The same shape describes both
// a declaration under test and a ground-truth fact about the platform.
type Symbol struct {
	Name       string
	Kind       Kind
	Type       string
	Size       int64
	Align      int64
	Signedness Signedness
	Value      Value
	Fields     []Field

	// Opaque symbols only assert their size and alignment; their field lists are not compared.
	Opaque bool
}

// Const returns a constant symbol.
func Const(name, typ string, value Value) Symbol {
	return Symbol{Name: name, Kind: KindConst, Type: typ, Size: Unset, Align: Unset, Value: value}
}

// Alias returns a type alias symbol.
func Alias(name, target string) Symbol {
	return Symbol{Name: name, Kind: KindAlias, Type: target, Size: Unset, Align: Unset}
}

// Struct returns a struct symbol with the given fields.
func Struct(name string, fields ...Field) Symbol {
	return Symbol{Name: name, Kind: KindStruct, Size: Unset, Align: Unset, Fields: fields}
}

// Union returns a union symbol with the given fields.
func Union(name string, fields ...Field) Symbol {
	return Symbol{Name: name, Kind: KindUnion, Size: Unset, Align: Unset, Fields: fields}
}

// Clone returns a deep copy of the symbol.
func (s Symbol) Clone() Symbol {
	if s.Fields != nil {
		s.Fields = append([]Field(nil), s.Fields...)
	}
	return s
}

// CloneSymbols returns a deep copy of a symbol set.
func CloneSymbols(symbols []Symbol) []Symbol {
	if symbols == nil {
		return nil
	}
	out := make([]Symbol, len(symbols))
	for i, s := range symbols {
		out[i] = s.Clone()
	}
	return out
}

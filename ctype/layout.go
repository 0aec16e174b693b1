package ctype

import (
	"fmt"

	"github.com/pgavlin/abicheck/abi"
)

// LayoutError is returned when a field's layout cannot be computed.
type LayoutError struct {
	Symbol string
	Field  string
	Type   string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("ctype: cannot lay out %s.%s: unknown type %q", e.Symbol, e.Field, e.Type)
}

func roundUp(v, align int64) int64 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}

// Layout computes the C layout of a struct or union in place. Offsets, sizes and the
// symbol's size that are already set are kept; unset ones are filled in. Struct members
// are placed sequentially at their natural alignment; union members all start at
// offset 0. An alignment already set on the symbol raises (never lowers) the natural
// alignment, as repr(align(N)) does.
func Layout(sym *abi.Symbol, r Resolver) error {
	if !sym.Kind.IsAggregate() {
		return nil
	}

	var end int64
	align := int64(1)
	for i := range sym.Fields {
		f := &sym.Fields[i]

		p, ok := r.Resolve(f.Type)
		if f.Size == abi.Unset {
			if !ok {
				return &LayoutError{Symbol: sym.Name, Field: f.DisplayName(i), Type: f.Type}
			}
			f.Size = p.Size
		}
		fieldAlign := int64(1)
		if ok {
			fieldAlign = p.Align
		}

		if sym.Kind == abi.KindUnion {
			if f.Offset == abi.Unset {
				f.Offset = 0
			}
			if e := f.Offset + f.Size; e > end {
				end = e
			}
		} else {
			if f.Offset == abi.Unset {
				f.Offset = roundUp(end, fieldAlign)
			}
			end = f.Offset + f.Size
		}
		if fieldAlign > align {
			align = fieldAlign
		}
	}

	if sym.Align < align {
		sym.Align = align
	}
	if sym.Size == abi.Unset {
		sym.Size = roundUp(end, sym.Align)
	}
	return nil
}

// LayoutAll lays out every aggregate in symbols in place. Aggregates may refer to other
// aggregates of the same set regardless of declaration order.
func LayoutAll(symbols []abi.Symbol, parent Resolver) error {
	l := layouter{
		scope: NewScope(parent, symbols),
		state: make([]uint8, len(symbols)),
	}
	for i := range symbols {
		if err := l.layout(i); err != nil {
			return err
		}
	}
	return nil
}

const (
	pending uint8 = iota
	active
	done
)

type layouter struct {
	scope *Scope
	state []uint8
}

func (l *layouter) layout(i int) error {
	switch l.state[i] {
	case done:
		return nil
	case active:
		return fmt.Errorf("ctype: %s contains itself", l.scope.symbols[i].Name)
	}
	l.state[i] = active

	sym := &l.scope.symbols[i]
	for _, f := range sym.Fields {
		if dep, ok := l.dependency(f.Type); ok && dep != i {
			if err := l.layout(dep); err != nil {
				return err
			}
		}
	}
	if err := Layout(sym, l.scope); err != nil {
		return err
	}

	l.state[i] = done
	return nil
}

// dependency returns the index of the local aggregate a field type embeds by value.
func (l *layouter) dependency(typ string) (int, bool) {
	n := Normalize(typ)
	if isPointer(n) {
		return 0, false
	}
	if elem, _, ok := splitArray(n); ok {
		return l.dependency(elem)
	}
	i, ok := l.scope.index[n]
	if !ok || !l.scope.symbols[i].Kind.IsAggregate() {
		return 0, false
	}
	return i, true
}

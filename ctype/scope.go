package ctype

import "github.com/pgavlin/abicheck/abi"

// Scope layers the aliases and aggregates of a symbol set over a parent resolver, so
// that a declaration such as `T2TypedefFoo = T2Foo` resolves through the set's own
// `T2Foo = u32`. Local names shadow the parent's.
//
// A Scope reads the symbol slice it was created with on every lookup; layouts computed
// into that slice after the Scope was created are visible through it.
type Scope struct {
	parent  Resolver
	symbols []abi.Symbol
	index   map[string]int
}

// NewScope returns a scope over symbols. When a name is defined more than once, the first
// definition wins.
func NewScope(parent Resolver, symbols []abi.Symbol) *Scope {
	index := make(map[string]int, len(symbols))
	for i, s := range symbols {
		if _, ok := index[s.Name]; !ok {
			index[s.Name] = i
		}
	}
	return &Scope{parent: parent, symbols: symbols, index: index}
}

func (s *Scope) Resolve(name string) (abi.Primitive, bool) {
	return s.resolve(name, 0)
}

// Lookup returns the local symbol with the given name.
func (s *Scope) Lookup(name string) (*abi.Symbol, bool) {
	i, ok := s.index[Normalize(name)]
	if !ok {
		return nil, false
	}
	return &s.symbols[i], true
}

func (s *Scope) resolve(name string, depth int) (abi.Primitive, bool) {
	if depth > maxTypedefDepth {
		return abi.Primitive{}, false
	}

	n := Normalize(name)
	if elem, count, ok := splitArray(n); ok {
		p, ok := s.resolve(elem, depth+1)
		if !ok {
			return abi.Primitive{}, false
		}
		return p.Array(count), true
	}

	if i, ok := s.index[n]; ok && !isPointer(n) {
		sym := &s.symbols[i]
		switch sym.Kind {
		case abi.KindAlias:
			if sym.Type != "" && Normalize(sym.Type) != n {
				return s.resolve(sym.Type, depth+1)
			}
			if sym.Size != abi.Unset {
				align := sym.Align
				if align == abi.Unset {
					align = sym.Size
				}
				return abi.Primitive{Class: abi.ClassInteger, Size: sym.Size, Align: align, Signedness: sym.Signedness}, true
			}
		case abi.KindStruct, abi.KindUnion:
			if sym.Size == abi.Unset {
				return abi.Primitive{}, false
			}
			align := sym.Align
			if align == abi.Unset {
				align = 1
			}
			return abi.Primitive{Class: abi.ClassAggregate, Size: sym.Size, Align: align}, true
		}
	}

	if s.parent == nil {
		return abi.Primitive{}, false
	}
	return s.parent.Resolve(n)
}

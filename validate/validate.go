// Package validate cross-checks a set of declared symbols against ground-truth facts
// about the same symbols and reports every discrepancy.
package validate

import (
	"fmt"
	"sort"

	"github.com/pgavlin/abicheck/abi"
	"github.com/pgavlin/abicheck/ctype"
)

// TypeResolver normalizes type spellings. *ctype.Model satisfies it.
type TypeResolver = ctype.Resolver

// An Option configures a validation run.
type Option func(v *validator)

// WithTypes sets the resolver used to normalize type names. The default is ctype.LP64.
func WithTypes(r TypeResolver) Option {
	return func(v *validator) {
		v.types = r
	}
}

type validator struct {
	types TypeResolver

	declared map[string]*abi.Symbol
	truth    map[string]*abi.Symbol

	declaredTypes *ctype.Scope
	truthTypes    *ctype.Scope

	mismatches []abi.Mismatch
}

// Validate compares declared against truth and returns the mismatches sorted by symbol
// name, then field position (ground-truth order first), then category name. An empty
// result means the declarations agree with the platform.
//
// Validate fails without comparing anything if either set is structurally invalid: a
// name defined twice yields an *abi.DuplicateSymbolError, and a field name defined twice
// within one aggregate yields a malformed-input error for that set's role.
//
// Validate does not modify its inputs and holds no state between calls.
func Validate(declared, truth []abi.Symbol, options ...Option) ([]abi.Mismatch, error) {
	v := validator{types: ctype.LP64}
	for _, o := range options {
		o(&v)
	}

	var err error
	if v.declared, err = index(declared, abi.Declared); err != nil {
		return nil, err
	}
	if v.truth, err = index(truth, abi.Truth); err != nil {
		return nil, err
	}
	v.declaredTypes = ctype.NewScope(v.types, declared)
	v.truthTypes = ctype.NewScope(v.types, truth)

	v.validateSymbols()

	sort.SliceStable(v.mismatches, func(i, j int) bool {
		return v.mismatches[i].Less(&v.mismatches[j])
	})
	if v.mismatches == nil {
		return []abi.Mismatch{}, nil
	}
	return v.mismatches, nil
}

func index(symbols []abi.Symbol, role abi.Role) (map[string]*abi.Symbol, error) {
	m := make(map[string]*abi.Symbol, len(symbols))
	for i := range symbols {
		s := &symbols[i]
		if s.Name == "" {
			return nil, abi.Malformed(role, "", "", fmt.Sprintf("symbol %d has no name", i))
		}
		if _, ok := m[s.Name]; ok {
			return nil, &abi.DuplicateSymbolError{Role: role, Name: s.Name}
		}
		if err := checkFields(s, role); err != nil {
			return nil, err
		}
		m[s.Name] = s
	}
	return m, nil
}

func checkFields(s *abi.Symbol, role abi.Role) error {
	if !s.Kind.IsAggregate() && len(s.Fields) != 0 {
		return abi.Malformed(role, "", s.Name, fmt.Sprintf("%v symbols have no fields", s.Kind))
	}

	names := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Padding {
			continue
		}
		if f.Name == "" {
			return abi.Malformed(role, "", s.Name, "unnamed field is not marked as padding")
		}
		if names[f.Name] {
			return abi.Malformed(role, "", s.Name, fmt.Sprintf("duplicate field %s", f.Name))
		}
		names[f.Name] = true
	}
	return nil
}

func (v *validator) report(symbol, field string, fieldIndex int, category abi.Category, declared, truth string) {
	v.mismatches = append(v.mismatches, abi.Mismatch{
		Symbol:     symbol,
		Field:      field,
		FieldIndex: fieldIndex,
		Declared:   declared,
		Truth:      truth,
		Category:   category,
	})
}

func (v *validator) validateSymbols() {
	names := make([]string, 0, len(v.declared)+len(v.truth))
	for name := range v.declared {
		names = append(names, name)
	}
	for name := range v.truth {
		if _, ok := v.declared[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		d, inDeclared := v.declared[name]
		t, inTruth := v.truth[name]
		switch {
		case !inTruth:
			v.report(name, "", -1, abi.MissingInTruth, describeSymbol(d), "")
		case !inDeclared:
			v.report(name, "", -1, abi.MissingInDeclaration, "", describeSymbol(t))
		case d.Kind != t.Kind:
			v.report(name, "", -1, abi.ValueDiffers, d.Kind.String(), t.Kind.String())
		default:
			v.validateSymbol(d, t)
		}
	}
}

func (v *validator) validateSymbol(d, t *abi.Symbol) {
	switch d.Kind {
	case abi.KindConst:
		v.validateConst(d, t)
	case abi.KindAlias:
		v.validateAlias(d, t)
	case abi.KindStruct, abi.KindUnion:
		v.validateAggregate(d, t)
	}
}

func (v *validator) validateConst(d, t *abi.Symbol) {
	if d.Value.IsSet() && t.Value.IsSet() && !d.Value.Equal(t.Value) {
		v.report(d.Name, "", -1, abi.ValueDiffers, d.Value.String(), t.Value.String())
	}

	ds := shapeOf(v.declaredTypes, d.Type, d.Size, d.Signedness)
	ts := shapeOf(v.truthTypes, t.Type, t.Size, t.Signedness)
	v.compareShapes(d.Name, "", -1, ds, ts)
}

func (v *validator) validateAlias(d, t *abi.Symbol) {
	ds := shapeOf(v.declaredTypes, d.Type, d.Size, d.Signedness)
	ts := shapeOf(v.truthTypes, t.Type, t.Size, t.Signedness)
	v.compareShapes(d.Name, "", -1, ds, ts)

	if d.Align != abi.Unset && t.Align != abi.Unset && d.Align != t.Align {
		v.report(d.Name, "", -1, abi.ValueDiffers, describeAlign(d.Align), describeAlign(t.Align))
	}
}

// shape is the comparable outline of a type: what its spelling resolves to, overridden by
// whatever size and signedness the source asserted explicitly.
type shape struct {
	size       int64
	signedness abi.Signedness
	class      abi.Class
	classKnown bool
}

func shapeOf(types TypeResolver, typ string, size int64, signedness abi.Signedness) shape {
	s := shape{size: size, signedness: signedness}
	if typ == "" {
		return s
	}
	p, ok := types.Resolve(typ)
	if !ok {
		return s
	}
	if s.size == abi.Unset {
		s.size = p.Size
	}
	if s.signedness == abi.Unknown && p.Class == abi.ClassInteger {
		s.signedness = p.Signedness
	}
	s.class, s.classKnown = p.Class, true
	return s
}

// compareShapes reports at most one mismatch: a size difference hides any signedness or
// category difference of the same type.
func (v *validator) compareShapes(symbol, field string, fieldIndex int, d, t shape) {
	switch {
	case d.size != abi.Unset && t.size != abi.Unset && d.size != t.size:
		v.report(symbol, field, fieldIndex, abi.SizeDiffers, fmt.Sprint(d.size), fmt.Sprint(t.size))
	case d.classKnown && t.classKnown && d.class != t.class:
		v.report(symbol, field, fieldIndex, abi.ValueDiffers, d.class.String(), t.class.String())
	case d.signedness != abi.Unknown && t.signedness != abi.Unknown && d.signedness != t.signedness:
		v.report(symbol, field, fieldIndex, abi.SignednessDiffers, d.signedness.String(), t.signedness.String())
	}
}

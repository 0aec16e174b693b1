package validate

import (
	"fmt"

	"github.com/willf/bitset"

	"github.com/pgavlin/abicheck/abi"
)

func (v *validator) validateAggregate(d, t *abi.Symbol) {
	if d.Size != abi.Unset && t.Size != abi.Unset && d.Size != t.Size {
		v.report(d.Name, "", -1, abi.SizeDiffers, fmt.Sprint(d.Size), fmt.Sprint(t.Size))
	}
	if d.Align != abi.Unset && t.Align != abi.Unset && d.Align != t.Align {
		v.report(d.Name, "", -1, abi.ValueDiffers, describeAlign(d.Align), describeAlign(t.Align))
	}
	if d.Opaque || t.Opaque {
		return
	}

	named := make(map[string]int, len(d.Fields))
	var padding []int
	for i, f := range d.Fields {
		if f.Padding {
			padding = append(padding, i)
		} else {
			named[f.Name] = i
		}
	}

	// The ground-truth field order is canonical. Named fields match by name; padding
	// fields match by their position among padding fields.
	var claimed bitset.BitSet
	truthPadding := 0
	for ti := range t.Fields {
		tf := &t.Fields[ti]

		di, ok := -1, false
		name := tf.Name
		if tf.Padding {
			if truthPadding < len(padding) {
				di, ok = padding[truthPadding], true
			}
			name = tf.DisplayName(truthPadding)
			truthPadding++
		} else {
			di, ok = named[tf.Name]
		}

		if !ok {
			v.report(d.Name, name, ti, abi.MissingInDeclaration, "", describeField(tf))
			continue
		}
		claimed.Set(uint(di))
		v.validateField(d.Name, name, ti, &d.Fields[di], tf)
	}

	next, declaredPadding := len(t.Fields), 0
	for di := range d.Fields {
		df := &d.Fields[di]
		name := df.Name
		if df.Padding {
			name = df.DisplayName(declaredPadding)
			declaredPadding++
		}
		if claimed.Test(uint(di)) {
			continue
		}
		v.report(d.Name, name, next, abi.MissingInTruth, describeField(df), "")
		next++
	}
}

func (v *validator) validateField(symbol, field string, fieldIndex int, d, t *abi.Field) {
	if d.Offset != abi.Unset && t.Offset != abi.Unset && d.Offset != t.Offset {
		v.report(symbol, field, fieldIndex, abi.OffsetDiffers, fmt.Sprint(d.Offset), fmt.Sprint(t.Offset))
	}

	ds := shapeOf(v.declaredTypes, d.Type, d.Size, d.Signedness)
	ts := shapeOf(v.truthTypes, t.Type, t.Size, t.Signedness)
	v.compareShapes(symbol, field, fieldIndex, ds, ts)
}

func describeAlign(align int64) string {
	return fmt.Sprintf("align %d", align)
}

func describeField(f *abi.Field) string {
	desc := f.Type
	if desc == "" {
		switch {
		case f.Size != abi.Unset:
			desc = fmt.Sprintf("%d bytes", f.Size)
		default:
			desc = "?"
		}
	}
	if f.Offset != abi.Unset {
		desc += fmt.Sprintf(" @%d", f.Offset)
	}
	return desc
}

func describeSymbol(s *abi.Symbol) string {
	switch s.Kind {
	case abi.KindConst:
		desc := "const"
		if s.Type != "" {
			desc += " " + s.Type
		}
		if s.Value.IsSet() {
			desc += " = " + s.Value.String()
		}
		return desc
	case abi.KindAlias:
		if s.Type != "" {
			return "alias " + s.Type
		}
		if s.Size != abi.Unset {
			return fmt.Sprintf("alias %d bytes %v", s.Size, s.Signedness)
		}
		return "alias"
	default:
		desc := s.Kind.String()
		if s.Size != abi.Unset {
			desc += fmt.Sprintf(" (size %d", s.Size)
			if s.Align != abi.Unset {
				desc += fmt.Sprintf(", align %d", s.Align)
			}
			desc += ")"
		}
		return fmt.Sprintf("%s with %d fields", desc, len(s.Fields))
	}
}

package load

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/pgavlin/abicheck/abi"
)

type document struct {
	Symbols []symbolDoc `yaml:"symbols"`
}

type symbolDoc struct {
	Name   string     `yaml:"name"`
	Kind   string     `yaml:"kind"`
	Type   string     `yaml:"type,omitempty"`
	Size   *int64     `yaml:"size,omitempty"`
	Align  *int64     `yaml:"align,omitempty"`
	Signed *bool      `yaml:"signed,omitempty"`
	Value  yamlValue  `yaml:"value,omitempty"`
	Opaque bool       `yaml:"opaque,omitempty"`
	Fields []fieldDoc `yaml:"fields,omitempty"`
}

type fieldDoc struct {
	Name    string `yaml:"name,omitempty"`
	Padding bool   `yaml:"padding,omitempty"`
	Type    string `yaml:"type,omitempty"`
	Offset  *int64 `yaml:"offset,omitempty"`
	Size    *int64 `yaml:"size,omitempty"`
	Signed  *bool  `yaml:"signed,omitempty"`
}

// yamlValue encodes integer constants as YAML integers and string constants as YAML
// strings, so that `value: 0x40000` and `value: b` both read naturally.
type yamlValue struct {
	abi.Value
}

func (v yamlValue) IsZero() bool {
	return !v.IsSet()
}

func (v yamlValue) MarshalYAML() (interface{}, error) {
	if text, ok := v.Text(); ok {
		return text, nil
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: v.String()}, nil
}

func (v *yamlValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: value must be a scalar", node.Line)
	}
	if node.ShortTag() == "!!str" {
		v.Value = abi.StringValue(node.Value)
		return nil
	}
	parsed, err := abi.ParseValue(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	v.Value = parsed
	return nil
}

func readYAML(r io.Reader, role abi.Role, source string) ([]abi.Symbol, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, abi.Malformed(role, source, "", err.Error())
	}

	symbols := make([]abi.Symbol, 0, len(doc.Symbols))
	for _, sd := range doc.Symbols {
		s, err := sd.symbol(role, source)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, nil
}

func (sd *symbolDoc) symbol(role abi.Role, source string) (abi.Symbol, error) {
	if sd.Name == "" {
		return abi.Symbol{}, abi.Malformed(role, source, "", "symbol has no name")
	}
	kind, ok := abi.ParseKind(sd.Kind)
	if !ok {
		return abi.Symbol{}, abi.Malformed(role, source, sd.Name, fmt.Sprintf("unknown kind %q", sd.Kind))
	}
	if !kind.IsAggregate() && len(sd.Fields) != 0 {
		return abi.Symbol{}, abi.Malformed(role, source, sd.Name, fmt.Sprintf("%v symbols have no fields", kind))
	}
	if kind != abi.KindConst && sd.Value.IsSet() {
		return abi.Symbol{}, abi.Malformed(role, source, sd.Name, fmt.Sprintf("%v symbols have no value", kind))
	}

	s := abi.Symbol{
		Name:       sd.Name,
		Kind:       kind,
		Type:       sd.Type,
		Size:       orUnset(sd.Size),
		Align:      orUnset(sd.Align),
		Signedness: signedness(sd.Signed),
		Value:      sd.Value.Value,
		Opaque:     sd.Opaque,
	}
	for _, fd := range sd.Fields {
		if fd.Name == "" && !fd.Padding {
			return abi.Symbol{}, abi.Malformed(role, source, sd.Name, "unnamed field is not marked as padding")
		}
		s.Fields = append(s.Fields, abi.Field{
			Name:       fd.Name,
			Padding:    fd.Padding,
			Type:       fd.Type,
			Offset:     orUnset(fd.Offset),
			Size:       orUnset(fd.Size),
			Signedness: signedness(fd.Signed),
		})
	}
	return s, nil
}

// WriteYAML encodes a symbol set as a YAML document.
func WriteYAML(w io.Writer, symbols []abi.Symbol) error {
	doc := document{Symbols: make([]symbolDoc, 0, len(symbols))}
	for _, s := range symbols {
		sd := symbolDoc{
			Name:   s.Name,
			Kind:   s.Kind.String(),
			Type:   s.Type,
			Size:   setOrNil(s.Size),
			Align:  setOrNil(s.Align),
			Signed: signedOrNil(s.Signedness),
			Value:  yamlValue{s.Value},
			Opaque: s.Opaque,
		}
		for _, f := range s.Fields {
			sd.Fields = append(sd.Fields, fieldDoc{
				Name:    f.Name,
				Padding: f.Padding,
				Type:    f.Type,
				Offset:  setOrNil(f.Offset),
				Size:    setOrNil(f.Size),
				Signed:  signedOrNil(f.Signedness),
			})
		}
		doc.Symbols = append(doc.Symbols, sd)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

func orUnset(v *int64) int64 {
	if v == nil {
		return abi.Unset
	}
	return *v
}

func setOrNil(v int64) *int64 {
	if v == abi.Unset {
		return nil
	}
	return &v
}

func signedness(v *bool) abi.Signedness {
	if v == nil {
		return abi.Unknown
	}
	return abi.SignednessOf(*v)
}

func signedOrNil(s abi.Signedness) *bool {
	switch s {
	case abi.Signed:
		t := true
		return &t
	case abi.Unsigned:
		f := false
		return &f
	default:
		return nil
	}
}

package abi

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

type valueKind uint8

const (
	valueNone valueKind = iota
	valueInt
	valueString
)

// Value is the resolved value of a constant. Integer constants are held with arbitrary
// precision so that both c_long and c_ulong tables fit; pointer-to-char constants are
// held by the content they point to. A zero Value means "no value asserted".
type Value struct {
	kind valueKind
	i    *big.Int
	s    string
}

func IntValue(v int64) Value {
	return Value{kind: valueInt, i: big.NewInt(v)}
}

func UintValue(v uint64) Value {
	return Value{kind: valueInt, i: new(big.Int).SetUint64(v)}
}

// BigValue returns an integer Value. The argument is copied.
func BigValue(v *big.Int) Value {
	return Value{kind: valueInt, i: new(big.Int).Set(v)}
}

// StringValue returns a string-constant Value. The content excludes the terminating NUL.
func StringValue(s string) Value {
	return Value{kind: valueString, s: s}
}

// ParseValue parses the text form produced by Value.String: a Go-quoted string for string
// constants, or an integer literal in any base accepted by math/big (0x, 0o, 0b prefixes).
func ParseValue(text string) (Value, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return Value{}, nil
	case text[0] == '"':
		s, err := strconv.Unquote(text)
		if err != nil {
			return Value{}, fmt.Errorf("abi: malformed string constant %s: %w", text, err)
		}
		return StringValue(s), nil
	default:
		i, ok := new(big.Int).SetString(strings.ReplaceAll(text, "_", ""), 0)
		if !ok {
			return Value{}, fmt.Errorf("abi: malformed integer constant %q", text)
		}
		return Value{kind: valueInt, i: i}, nil
	}
}

// IsSet returns true if the Value holds a constant.
func (v Value) IsSet() bool {
	return v.kind != valueNone
}

func (v Value) IsString() bool {
	return v.kind == valueString
}

// Int returns the integer held by the value, or nil for non-integers. The result must not
// be modified.
func (v Value) Int() *big.Int {
	if v.kind != valueInt {
		return nil
	}
	return v.i
}

// Text returns the content of a string constant.
func (v Value) Text() (string, bool) {
	return v.s, v.kind == valueString
}

// Equal compares two values by content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case valueInt:
		return v.i.Cmp(other.i) == 0
	case valueString:
		return v.s == other.s
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case valueInt:
		return v.i.String()
	case valueString:
		return strconv.Quote(v.s)
	default:
		return ""
	}
}

func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Value) UnmarshalText(text []byte) error {
	parsed, err := ParseValue(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

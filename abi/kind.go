package abi

import "fmt"

// Kind is the kind of a declared symbol.
type Kind uint8

const (
	KindConst Kind = iota
	KindAlias
	KindStruct
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindConst:
		return "const"
	case KindAlias:
		return "alias"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsAggregate returns true if symbols of this kind carry a field list.
func (k Kind) IsAggregate() bool {
	return k == KindStruct || k == KindUnion
}

func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindConst, KindAlias, KindStruct, KindUnion:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("abi: invalid kind %d", uint8(k))
	}
}

func (k *Kind) UnmarshalText(text []byte) error {
	kind, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("abi: unknown kind %q", string(text))
	}
	*k = kind
	return nil
}

// ParseKind parses the textual form of a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "const", "constant":
		return KindConst, true
	case "alias", "type":
		return KindAlias, true
	case "struct":
		return KindStruct, true
	case "union":
		return KindUnion, true
	default:
		return 0, false
	}
}

// Role identifies which side of a validation run a symbol set belongs to.
type Role uint8

const (
	Declared Role = iota
	Truth
)

func (r Role) String() string {
	if r == Truth {
		return "truth"
	}
	return "declared"
}

// Signedness records whether an integer type is signed. Unknown means the source did not say.
type Signedness uint8

const (
	Unknown Signedness = iota
	Signed
	Unsigned
)

func (s Signedness) String() string {
	switch s {
	case Signed:
		return "signed"
	case Unsigned:
		return "unsigned"
	default:
		return "unknown"
	}
}

// SignednessOf converts a bool into a known Signedness.
func SignednessOf(signed bool) Signedness {
	if signed {
		return Signed
	}
	return Unsigned
}

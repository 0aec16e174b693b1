package abi

import "fmt"

// Category classifies a Mismatch.
type Category string

const (
	MissingInDeclaration Category = "missing-in-declaration"
	MissingInTruth       Category = "missing-in-truth"
	ValueDiffers         Category = "value-differs"
	SizeDiffers          Category = "size-differs"
	OffsetDiffers        Category = "offset-differs"
	SignednessDiffers    Category = "signedness-differs"
)

// Categories lists every category in name order.
var Categories = []Category{
	MissingInDeclaration,
	MissingInTruth,
	OffsetDiffers,
	SignednessDiffers,
	SizeDiffers,
	ValueDiffers,
}

// Mismatch is a single discrepancy between a declaration and the platform.
type Mismatch struct {
	Symbol string
	// Field is empty for whole-symbol mismatches.
	Field string
	// FieldIndex is the canonical position of Field within the symbol, or -1 for
	// whole-symbol mismatches.
	FieldIndex int
	Declared   string
	Truth      string
	Category   Category
}

func (m Mismatch) String() string {
	name := m.Symbol
	if m.Field != "" {
		name += "." + m.Field
	}
	switch m.Category {
	case MissingInTruth:
		return fmt.Sprintf("%s: %s: declared %s", name, m.Category, m.Declared)
	case MissingInDeclaration:
		return fmt.Sprintf("%s: %s: truth %s", name, m.Category, m.Truth)
	default:
		return fmt.Sprintf("%s: %s: declared %s, truth %s", name, m.Category, m.Declared, m.Truth)
	}
}

// Less orders mismatches by symbol name, then field position, then category name.
func (m *Mismatch) Less(other *Mismatch) bool {
	if m.Symbol != other.Symbol {
		return m.Symbol < other.Symbol
	}
	if m.FieldIndex != other.FieldIndex {
		return m.FieldIndex < other.FieldIndex
	}
	return m.Category < other.Category
}

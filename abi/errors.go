package abi

import "fmt"

// DuplicateSymbolError is returned when one input set defines a name more than once.
type DuplicateSymbolError struct {
	Role Role
	Name string
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("abi: duplicate %s symbol %s", e.Role, e.Name)
}

// MalformedDeclarationError reports a declaration that cannot be interpreted.
type MalformedDeclarationError struct {
	Source string
	Symbol string
	Reason string
}

func (e *MalformedDeclarationError) Error() string {
	return formatMalformed("declaration", e.Source, e.Symbol, e.Reason)
}

// MalformedFactError reports a ground-truth fact that cannot be interpreted.
type MalformedFactError struct {
	Source string
	Symbol string
	Reason string
}

func (e *MalformedFactError) Error() string {
	return formatMalformed("fact", e.Source, e.Symbol, e.Reason)
}

// Malformed returns the malformed-input error appropriate for role.
func Malformed(role Role, source, symbol, reason string) error {
	if role == Truth {
		return &MalformedFactError{Source: source, Symbol: symbol, Reason: reason}
	}
	return &MalformedDeclarationError{Source: source, Symbol: symbol, Reason: reason}
}

func formatMalformed(what, source, symbol, reason string) string {
	msg := "abi: malformed " + what
	if source != "" {
		msg += " in " + source
	}
	if symbol != "" {
		msg += " for " + symbol
	}
	return msg + ": " + reason
}

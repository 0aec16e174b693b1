package abi

import "fmt"

// Class is the broad category of a resolved type.
type Class uint8

const (
	ClassInteger Class = iota
	ClassFloat
	ClassPointer
	ClassAggregate
)

func (c Class) String() string {
	switch c {
	case ClassInteger:
		return "integer"
	case ClassFloat:
		return "float"
	case ClassPointer:
		return "pointer"
	case ClassAggregate:
		return "aggregate"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// Primitive is a normalized type: what remains of a type spelling once the platform's
// data model has been applied. Two spellings denote the same type iff their Primitives
// are equal.
type Primitive struct {
	Class      Class
	Size       int64
	Align      int64
	Signedness Signedness
}

// Int returns an integer primitive of the given size with natural alignment.
func Int(size int64, signed bool) Primitive {
	return Primitive{Class: ClassInteger, Size: size, Align: size, Signedness: SignednessOf(signed)}
}

// Float returns a floating-point primitive of the given size with natural alignment.
func Float(size int64) Primitive {
	return Primitive{Class: ClassFloat, Size: size, Align: size, Signedness: Signed}
}

// Array returns a primitive describing n consecutive elements of p.
func (p Primitive) Array(n int64) Primitive {
	p.Size *= n
	return p
}

func (p Primitive) String() string {
	switch p.Class {
	case ClassInteger:
		if p.Signedness == Signed {
			return fmt.Sprintf("i%d", p.Size*8)
		}
		if p.Signedness == Unsigned {
			return fmt.Sprintf("u%d", p.Size*8)
		}
		return fmt.Sprintf("int%d", p.Size*8)
	case ClassFloat:
		return fmt.Sprintf("f%d", p.Size*8)
	case ClassPointer:
		return fmt.Sprintf("ptr%d", p.Size*8)
	default:
		return fmt.Sprintf("aggregate(size=%d, align=%d)", p.Size, p.Align)
	}
}

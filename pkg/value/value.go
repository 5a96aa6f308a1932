package value

import (
	"math"
	"strconv"
	"unsafe"
)

// Value represents a Clockwork value using NaN-boxing.
//
// All values are represented as 64-bit IEEE 754 doubles. Non-number values
// are encoded in the NaN (Not-a-Number) space using the quiet NaN prefix
// and tag bits to distinguish types.
//
// Encoding scheme:
//   - Number: Native IEEE 754 double (if not a tagged NaN, it's a number)
//   - Object: Quiet NaN + tagObject + 48-bit pointer
//   - Special: Quiet NaN + tagSpecial + special value ID (null/true/false)
type Value uint64

// NaN-boxing constants
const (
	// Quiet NaN prefix: exponent all 1s, quiet bit set, sign bit 0
	nanBits uint64 = 0x7FF8000000000000

	// Tag mask: 3 bits within the NaN mantissa space
	tagMask uint64 = 0x0007000000000000

	// Payload mask: 48 bits for pointer/id
	payloadMask uint64 = 0x0000FFFFFFFFFFFF

	// Tag values (shifted into position)
	tagObject  uint64 = 0x0001000000000000 // Heap object pointer
	tagSpecial uint64 = 0x0002000000000000 // null, true, false
)

// Special value payloads
const (
	specialNull  uint64 = 0
	specialTrue  uint64 = 1
	specialFalse uint64 = 2
)

// Pre-defined special values
const (
	Null  Value = Value(nanBits | tagSpecial | specialNull)
	True  Value = Value(nanBits | tagSpecial | specialTrue)
	False Value = Value(nanBits | tagSpecial | specialFalse)
)

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// IsNumber returns true if v represents a float64 value.
// A value is a number if it's not one of our tagged NaN values.
// This includes regular numbers, infinities, and "real" NaN values.
func (v Value) IsNumber() bool {
	bits := uint64(v)

	// Exponent not all 1s: a regular float
	if (bits & 0x7FF0000000000000) != 0x7FF0000000000000 {
		return true
	}

	// Exponent all 1s with zero mantissa is +/-Inf, a valid number
	if (bits & 0x000FFFFFFFFFFFFF) == 0 {
		return true
	}

	// A NaN. Signaling NaNs and untagged quiet NaNs are still numbers.
	if (bits & nanBits) != nanBits {
		return true
	}
	if (bits & tagMask) == 0 {
		return true
	}

	return false
}

// IsObject returns true if v represents a heap object pointer.
func (v Value) IsObject() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagObject)
}

// IsNull returns true if v is the null value.
func (v Value) IsNull() bool {
	return v == Null
}

// IsBool returns true if v is true or false.
func (v Value) IsBool() bool {
	return v == True || v == False
}

// IsString returns true if v is a heap object of string type.
func (v Value) IsString() bool {
	return v.IsObject() && v.Object().Type == ObjString
}

// ---------------------------------------------------------------------------
// Number operations
// ---------------------------------------------------------------------------

// Number returns v as a float64.
// Panics if v is not a number.
func (v Value) Number() float64 {
	if !v.IsNumber() {
		panic("Value.Number: not a number")
	}
	return math.Float64frombits(uint64(v))
}

// FromNumber creates a Value from a float64.
func FromNumber(f float64) Value {
	return Value(math.Float64bits(f))
}

// ---------------------------------------------------------------------------
// Object pointer operations
// ---------------------------------------------------------------------------

// Object returns the heap object header pointed to by v.
// Panics if v is not an object.
func (v Value) Object() *Obj {
	if !v.IsObject() {
		panic("Value.Object: not an object")
	}
	ptr := uintptr(uint64(v) & payloadMask)
	return (*Obj)(unsafe.Pointer(ptr))
}

// FromObject creates a Value from a heap object.
// The pointer must fit in 48 bits (true for all current architectures).
// The object must be registered with an Interner so a Go-visible reference
// keeps it alive while only the boxed bits refer to it.
func FromObject(o *Obj) Value {
	return Value(nanBits | tagObject | uint64(uintptr(unsafe.Pointer(o))))
}

// AsString returns v as a string object.
// Panics if v is not a string.
func (v Value) AsString() *StringObj {
	o := v.Object()
	if o.Type != ObjString {
		panic("Value.AsString: not a string")
	}
	return (*StringObj)(unsafe.Pointer(o))
}

// ---------------------------------------------------------------------------
// Boolean operations
// ---------------------------------------------------------------------------

// Bool returns v as a bool.
// Panics if v is not true or false.
func (v Value) Bool() bool {
	switch v {
	case True:
		return true
	case False:
		return false
	default:
		panic("Value.Bool: not a boolean")
	}
}

// FromBool creates a Value from a bool.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// ---------------------------------------------------------------------------
// Truthiness and equality
// ---------------------------------------------------------------------------

// IsFalsey returns true if v is considered "falsey" in conditionals.
// Only null and false are falsey; everything else is truthy.
func (v Value) IsFalsey() bool {
	return v == Null || v == False
}

// Equal compares two values. Numbers compare as float64; every other tag
// compares by identity (null/true/false are singletons, strings are
// interned so pointer identity is byte identity). Values of different
// types are never equal.
func Equal(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		return a.Number() == b.Number()
	}
	if a.IsNumber() != b.IsNumber() {
		return false
	}
	return a == b
}

// Format renders v the way the print statement does: null, true, false,
// the shortest round-trippable decimal for numbers, raw bytes for strings.
func (v Value) Format() string {
	switch {
	case v == Null:
		return "null"
	case v == True:
		return "true"
	case v == False:
		return "false"
	case v.IsNumber():
		return strconv.FormatFloat(v.Number(), 'g', -1, 64)
	default:
		switch o := v.Object(); o.Type {
		case ObjString:
			return v.AsString().Str
		default:
			return "<object>"
		}
	}
}

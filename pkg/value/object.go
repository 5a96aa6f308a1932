package value

// ObjType discriminates heap object subtypes.
type ObjType uint8

const (
	// ObjString is an immutable, interned string.
	ObjString ObjType = iota
)

// Obj is the common header of every heap object. It must be the first
// field of each subtype so a *Obj can be reinterpreted as the subtype.
// Next links objects into the owning interner's live list.
type Obj struct {
	Type ObjType
	Next *Obj
}

// StringObj is a heap-allocated string with a precomputed hash.
// Two string objects with identical bytes never coexist in the same
// interner; equality on interned strings is pointer equality.
type StringObj struct {
	Obj
	Str  string
	Hash uint32
}

// FNV-1a 32-bit constants
const (
	fnvOffsetBasis uint32 = 2166136261
	fnvPrime       uint32 = 16777619
)

// HashString computes the FNV-1a 32-bit hash of s.
func HashString(s string) uint32 {
	h := fnvOffsetBasis
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

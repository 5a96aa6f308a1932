package value

import "testing"

func TestInternerCanonicalizes(t *testing.T) {
	var in Interner

	a := in.Intern("shared")
	b := in.Intern("shared")
	if a != b {
		t.Error("Intern must return one object per byte sequence")
	}

	c := in.Intern("other")
	if a == c {
		t.Error("distinct bytes must not share an object")
	}
}

func TestInternerConcat(t *testing.T) {
	var in Interner

	ab := in.Intern("ab")
	c := in.Intern("c")
	a := in.Intern("a")
	bc := in.Intern("bc")

	left := in.Concat(ab, c)
	right := in.Concat(a, bc)
	if left != right {
		t.Error(`"ab"+"c" and "a"+"bc" must intern to the same object`)
	}
	if left.Str != "abc" {
		t.Errorf("Concat = %q, want %q", left.Str, "abc")
	}

	// Interning the same bytes afterwards returns the concatenation's object.
	abc := in.Intern("abc")
	if abc != left {
		t.Error("Concat result must be the canonical object")
	}
}

func TestInternerObjectList(t *testing.T) {
	var in Interner

	in.Intern("one")
	in.Intern("two")
	in.Intern("one") // no new object

	count := 0
	for o := in.Objects(); o != nil; o = o.Next {
		count++
	}
	if count != 2 {
		t.Errorf("object list has %d entries, want 2", count)
	}

	in.Free()
	if in.Objects() != nil {
		t.Error("Free must empty the object list")
	}

	// The interner is reusable after Free.
	s := in.Intern("again")
	if s == nil || s.Str != "again" {
		t.Error("Intern after Free failed")
	}
}

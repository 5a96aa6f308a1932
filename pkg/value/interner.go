package value

// Interner owns the string intern table and the live object list for one
// interpreter instance. Every string object flows through Intern, so
// byte-equal strings share one heap object and compare by pointer.
//
// The objects list doubles as the keep-alive registry: NaN-boxed values
// carry only the raw pointer bits, which Go's collector cannot see, so the
// interner holds the real references until Free.
type Interner struct {
	strings Table
	objects *Obj
}

// register links o into the live object list.
func (in *Interner) register(o *Obj) {
	o.Next = in.objects
	in.objects = o
}

// Intern returns the canonical string object for s, allocating and
// registering one only when no byte-equal string exists yet.
func (in *Interner) Intern(s string) *StringObj {
	hash := HashString(s)
	if interned := in.strings.FindKey(s, hash); interned != nil {
		return interned
	}

	obj := &StringObj{
		Obj:  Obj{Type: ObjString},
		Str:  s,
		Hash: hash,
	}
	in.register(&obj.Obj)
	in.strings.Set(obj, Null)
	return obj
}

// Concat joins two strings and interns the result. When the joined bytes
// already have a canonical object, nothing new is registered.
func (in *Interner) Concat(a, b *StringObj) *StringObj {
	return in.Intern(a.Str + b.Str)
}

// Objects returns the head of the live object list.
func (in *Interner) Objects() *Obj {
	return in.objects
}

// Free unlinks every live object and drops the intern table. The interner
// is reusable afterwards, matching a fresh instance.
func (in *Interner) Free() {
	obj := in.objects
	for obj != nil {
		next := obj.Next
		obj.Next = nil
		obj = next
	}
	in.objects = nil
	in.strings.Reset()
}

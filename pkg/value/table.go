package value

// Table is an open-addressing hash map from interned strings to values.
// It backs both the VM's global bindings and the string intern table.
//
// Capacity is always a power of two. Probing is linear. Deleted slots
// become tombstones (nil key, true sentinel) so probe chains stay intact;
// tombstones are dropped on resize.
type Table struct {
	entries []entry
	size    int // live entries + tombstones
}

type entry struct {
	key *StringObj
	val Value
}

const (
	tableInitialCap = 8
	tableMaxLoadNum = 3 // load factor 3/4
	tableMaxLoadDen = 4
)

func (e *entry) isTombstone() bool {
	return e.key == nil && e.val == True
}

// findEntry probes for key starting at its hash slot. Returns the entry
// holding the key, or the first tombstone seen, or the trailing empty slot.
func findEntry(entries []entry, key *StringObj) *entry {
	mask := uint32(len(entries) - 1)
	idx := key.Hash & mask

	var tombstone *entry
	for {
		e := &entries[idx]
		if e.key == nil {
			if !e.isTombstone() {
				// Empty slot: reuse an earlier tombstone if we passed one.
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		idx = (idx + 1) & mask
	}
}

func (t *Table) adjustCapacity(capacity int) {
	entries := make([]entry, capacity)
	for i := range entries {
		entries[i].val = Null
	}

	// Re-insert live entries only; tombstones are dropped.
	t.size = 0
	for i := range t.entries {
		e := &t.entries[i]
		if e.key == nil {
			continue
		}
		dst := findEntry(entries, e.key)
		dst.key = e.key
		dst.val = e.val
		t.size++
	}
	t.entries = entries
}

// Set stores val under key, returning true if the key was not present.
func (t *Table) Set(key *StringObj, val Value) bool {
	if (t.size+1)*tableMaxLoadDen > len(t.entries)*tableMaxLoadNum {
		capacity := len(t.entries) * 2
		if capacity < tableInitialCap {
			capacity = tableInitialCap
		}
		t.adjustCapacity(capacity)
	}

	e := findEntry(t.entries, key)
	isNew := e.key == nil
	if isNew && !e.isTombstone() {
		t.size++
	}
	e.key = key
	e.val = val
	return isNew
}

// Get returns the value bound to key.
func (t *Table) Get(key *StringObj) (Value, bool) {
	if t.size == 0 {
		return Null, false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return Null, false
	}
	return e.val, true
}

// Delete removes key, leaving a tombstone in its slot.
func (t *Table) Delete(key *StringObj) bool {
	if t.size == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.val = True
	return true
}

// FindKey returns the interned string with the given bytes and hash, or nil.
// This is the intern lookup: it compares (length, hash, bytes) without
// materializing a new string object.
func (t *Table) FindKey(s string, hash uint32) *StringObj {
	if t.size == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	idx := hash & mask
	for {
		e := &t.entries[idx]
		if e.key == nil {
			if !e.isTombstone() {
				return nil
			}
		} else if len(e.key.Str) == len(s) && e.key.Hash == hash && e.key.Str == s {
			return e.key
		}
		idx = (idx + 1) & mask
	}
}

// Len returns the number of occupied slots, tombstones included.
func (t *Table) Len() int {
	return t.size
}

// Reset drops every entry and releases the backing array.
func (t *Table) Reset() {
	t.entries = nil
	t.size = 0
}

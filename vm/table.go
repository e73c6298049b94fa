package vm

import "github.com/rami3l/canterbury/utils"

const tableMaxLoad = 0.75

// Table is an open-addressing hash table keyed by interned strings.
// Since keys are interned, comparing them by reference is enough.
type Table struct {
	// count includes tombstones.
	count   int
	entries []entry
}

// An entry with a nil key is either empty (nil value) or a tombstone (non-nil value).
type entry struct {
	key   *ObjString
	value Value
}

func NewTable() *Table { return &Table{} }

func (t *Table) Get(key *ObjString) (val Value, ok bool) {
	if t.count == 0 {
		return
	}
	ent := findEntry(t.entries, key)
	if ent.key == nil {
		return
	}
	return ent.value, true
}

// Set inserts or updates the value under key, reporting whether key is new.
func (t *Table) Set(key *ObjString, val Value) (isNew bool) {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.adjustCapacity(utils.GrowCapacity(len(t.entries)))
	}
	ent := findEntry(t.entries, key)
	isNew = ent.key == nil
	if isNew && ent.value == nil {
		t.count++
	}
	ent.key, ent.value = key, val
	return
}

func (t *Table) Delete(key *ObjString) bool {
	if t.count == 0 {
		return false
	}
	ent := findEntry(t.entries, key)
	if ent.key == nil {
		return false
	}
	// Leave a tombstone so that collision chains passing through here stay intact.
	ent.key, ent.value = nil, VBool(true)
	return true
}

// AddAll copies every entry of t into to.
func (t *Table) AddAll(to *Table) {
	for _, ent := range t.entries {
		if ent.key != nil {
			to.Set(ent.key, ent.value)
		}
	}
}

// Len returns the number of live entries.
func (t *Table) Len() (res int) {
	for _, ent := range t.entries {
		if ent.key != nil {
			res++
		}
	}
	return
}

// Keys returns the live keys in slot order.
func (t *Table) Keys() (res []*ObjString) {
	for _, ent := range t.entries {
		if ent.key != nil {
			res = append(res, ent.key)
		}
	}
	return
}

func (t *Table) adjustCapacity(capacity int) {
	entries := make([]entry, capacity)
	t.count = 0
	for _, ent := range t.entries {
		if ent.key == nil {
			continue
		}
		dest := findEntry(entries, ent.key)
		dest.key, dest.value = ent.key, ent.value
		t.count++
	}
	t.entries = entries
}

func findEntry(entries []entry, key *ObjString) *entry {
	mask := uint32(len(entries) - 1)
	var tombstone *entry
	for idx := key.hash & mask; ; idx = (idx + 1) & mask {
		ent := &entries[idx]
		switch {
		case ent.key == key:
			return ent
		case ent.key != nil:
		case ent.value == nil: // Empty entry.
			if tombstone != nil {
				return tombstone
			}
			return ent
		case tombstone == nil:
			tombstone = ent
		}
	}
}

// findString searches the table by raw content.
// Interning relies on it to find a string before any ObjString has been allocated for it.
func findString[S string | []byte](t *Table, chars S, hash uint32) *ObjString {
	if t.count == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	for idx := hash & mask; ; idx = (idx + 1) & mask {
		ent := &t.entries[idx]
		switch {
		case ent.key == nil:
			if ent.value == nil {
				return nil // Stop at an empty non-tombstone entry.
			}
		case ent.key.hash == hash && ent.key.chars == string(chars):
			return ent.key
		}
	}
}

package vm

import (
	"fmt"

	"github.com/josharian/intern"
	"github.com/sirupsen/logrus"
)

//go:generate stringer -type=ObjType
type ObjType byte

const (
	ObjFunc ObjType = iota
	ObjStr
)

// Obj is a heap-allocated Value.
// Every Obj is created through a Heap, which keeps it alive until the Heap is freed.
type Obj interface {
	Value
	Type() ObjType
}

type ObjString struct {
	chars string
	hash  uint32
}

func (_ *ObjString) isValue()       {}
func (_ *ObjString) Type() ObjType  { return ObjStr }
func (s *ObjString) String() string { return s.chars }
func (s *ObjString) Len() int       { return len(s.chars) }
func (s *ObjString) Hash() uint32   { return s.hash }

// ObjFunction is a function literal compiled inline into its enclosing chunk.
// Handle is the offset of the first instruction of its body.
type ObjFunction struct {
	Handle, Arity int
}

func (_ *ObjFunction) isValue()       {}
func (_ *ObjFunction) Type() ObjType  { return ObjFunc }
func (f *ObjFunction) String() string { return fmt.Sprintf("<fn %d %d>", f.Handle, f.Arity) }

// Heap is the owning registry of every object allocated while compiling or running programs.
// Objects are never released one by one: they all go away together in Free.
type Heap struct {
	objects []Obj
	strings *Table
}

func NewHeap() *Heap { return &Heap{strings: NewTable()} }

func (h *Heap) alloc(obj Obj) {
	h.objects = append(h.objects, obj)
}

// CopyString returns the interned string with the given content,
// allocating a new one only if no such string exists yet.
func (h *Heap) CopyString(chars string) *ObjString {
	hash := strhash(chars)
	if interned := findString(h.strings, chars, hash); interned != nil {
		return interned
	}
	return h.allocString(chars, hash)
}

// TakeString is like CopyString, but builds the string from buf, which the
// caller may reuse afterwards.
// On a miss in this heap, the content goes through the process-wide intern pool:
// heaps holding the same text share one backing array, and a pool hit costs no
// allocation at all.
func (h *Heap) TakeString(buf []byte) *ObjString {
	hash := strhash(buf)
	if interned := findString(h.strings, buf, hash); interned != nil {
		return interned
	}
	return h.allocString(intern.Bytes(buf), hash)
}

func (h *Heap) allocString(chars string, hash uint32) *ObjString {
	res := &ObjString{chars: chars, hash: hash}
	h.alloc(res)
	h.strings.Set(res, VNull{})
	return res
}

// FindString looks up an already interned string without allocating.
func (h *Heap) FindString(chars string) *ObjString {
	return findString(h.strings, chars, strhash(chars))
}

func (h *Heap) NewFunction(handle, arity int) *ObjFunction {
	res := &ObjFunction{Handle: handle, Arity: arity}
	h.alloc(res)
	return res
}

// Len returns the number of live objects.
func (h *Heap) Len() int { return len(h.objects) }

// Free drops every object along with the intern table.
func (h *Heap) Free() {
	logrus.Debugf("heap: freeing %d objects", len(h.objects))
	h.objects = nil
	h.strings = NewTable()
}

// strhash is the 32-bit FNV-1a hash.
func strhash[S string | []byte](key S) uint32 {
	hash := uint32(2166136261)
	for i := 0; i < len(key); i++ {
		hash ^= uint32(key[i])
		hash *= 16777619
	}
	return hash
}

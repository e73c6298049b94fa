package vm

import (
	"hash/fnv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrhashIsFNV1a(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"", "a", "foobar", "canterbury", "\x00\xff"} {
		h := fnv.New32a()
		h.Write([]byte(s))
		assert.Equal(t, h.Sum32(), strhash(s), s)
		assert.Equal(t, h.Sum32(), strhash([]byte(s)), s)
	}
}

func TestCopyStringInterns(t *testing.T) {
	t.Parallel()
	heap := NewHeap()
	a := heap.CopyString("hello")
	assert.Same(t, a, heap.CopyString("hello"))
	assert.NotSame(t, a, heap.CopyString("world"))
	assert.Equal(t, 2, heap.Len())
	assert.Equal(t, strhash("hello"), a.Hash())
	assert.Equal(t, 5, a.Len())
	assert.Equal(t, ObjStr, a.Type())
}

func TestTakeStringInterns(t *testing.T) {
	t.Parallel()
	heap := NewHeap()
	a := heap.CopyString("abcd")
	assert.Same(t, a, heap.TakeString([]byte("abcd")))
	assert.Equal(t, 1, heap.Len())

	b := heap.TakeString([]byte("efgh"))
	assert.Equal(t, "efgh", b.String())
	assert.Same(t, b, heap.CopyString("efgh"))
	assert.Same(t, b, heap.FindString("efgh"))
	assert.Nil(t, heap.FindString("ijkl"))
	assert.Equal(t, 2, heap.Len())
}

func TestTakeStringCopiesBuf(t *testing.T) {
	t.Parallel()
	buf := []byte("mnop")
	a := NewHeap().TakeString(buf)
	buf[0] = 'x'
	assert.Equal(t, "mnop", a.String())

	// Another heap gets its own object with the same content.
	b := NewHeap().TakeString([]byte("mnop"))
	assert.NotSame(t, a, b)
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestHeapFree(t *testing.T) {
	t.Parallel()
	heap := NewHeap()
	a := heap.CopyString("x")
	fn := heap.NewFunction(3, 1)
	assert.Equal(t, ObjFunc, fn.Type())
	assert.Equal(t, "<fn 3 1>", fn.String())
	assert.Equal(t, 2, heap.Len())

	heap.Free()
	assert.Zero(t, heap.Len())
	assert.Nil(t, heap.FindString("x"))
	assert.NotSame(t, a, heap.CopyString("x"))
}

func TestValues(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "null", VNull{}.String())
	assert.Equal(t, "true", VBool(true).String())
	assert.Equal(t, "2.5", VNum(2.5).String())
	assert.Equal(t, "100", VNum(100).String())

	assert.Equal(t, VBool(true), VTruthy(VBool(true)))
	for _, v := range []Value{VBool(false), VNull{}, VNum(0), VNum(1), NewHeap().CopyString("")} {
		assert.Equal(t, VBool(false), VTruthy(v), v)
	}

	assert.Equal(t, VBool(false), VEq(VNull{}, VNull{}))
	assert.Equal(t, VBool(true), VEq(VNum(1), VNum(1)))
	assert.Equal(t, VBool(false), VEq(VNum(1), VBool(true)))

	_, ok := VAdd(VNum(1), VNull{})
	assert.False(t, ok)
	res, ok := VSub(VNum(3), VNum(1))
	assert.True(t, ok)
	assert.Equal(t, VNum(2), res)
}

func TestNumericOps(t *testing.T) {
	t.Parallel()
	type binOp func(v, w Value) (Value, bool)
	cases := []struct {
		name string
		op   binOp
		want Value
	}{
		{"add", VAdd, VNum(8)},
		{"sub", VSub, VNum(4)},
		{"mul", VMul, VNum(12)},
		{"div", VDiv, VNum(3)},
		{"greater", VGreater, VBool(true)},
		{"less", VLess, VBool(false)},
	}
	str := NewHeap().CopyString("6")
	for _, c := range cases {
		res, ok := c.op(VNum(6), VNum(2))
		assert.True(t, ok, c.name)
		assert.Equal(t, c.want, res, c.name)

		for _, bad := range [][2]Value{{VNum(6), str}, {VBool(true), VNum(2)}, {VNull{}, VNull{}}} {
			res, ok := c.op(bad[0], bad[1])
			assert.False(t, ok, c.name)
			assert.Equal(t, VNull{}, res, c.name)
		}
	}

	res, ok := VNeg(VNum(2))
	assert.True(t, ok)
	assert.Equal(t, VNum(-2), res)
	_, ok = VNeg(str)
	assert.False(t, ok)
}

package vm

import (
	"bytes"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
)

// A bytecode image is the magic header followed by a CBOR-encoded chunk.
const (
	imageMagic   = "CBC1"
	imageVersion = 1
)

type constKind uint8

const (
	constNull constKind = iota
	constBool
	constNum
	constStr
	constFunc
)

type imageConst struct {
	Kind   constKind `cbor:"1,keyasint"`
	Bool   bool      `cbor:"2,keyasint,omitempty"`
	Num    float64   `cbor:"3,keyasint,omitempty"`
	Str    string    `cbor:"4,keyasint,omitempty"`
	Handle int       `cbor:"5,keyasint,omitempty"`
	Arity  int       `cbor:"6,keyasint,omitempty"`
}

type image struct {
	Version int          `cbor:"1,keyasint"`
	Code    []byte       `cbor:"2,keyasint"`
	Lines   []int        `cbor:"3,keyasint"`
	Consts  []imageConst `cbor:"4,keyasint"`
}

// Canonical mode, so that the same chunk always encodes to the same bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// IsImage reports whether data looks like a bytecode image.
func IsImage(data []byte) bool { return bytes.HasPrefix(data, []byte(imageMagic)) }

// MarshalImage serializes a compiled chunk.
func MarshalImage(c *Chunk) ([]byte, error) {
	img := image{Version: imageVersion, Code: c.code, Lines: c.lines}
	for i, const_ := range c.consts {
		var ic imageConst
		switch v := const_.(type) {
		case VNull:
			ic.Kind = constNull
		case VBool:
			ic.Kind, ic.Bool = constBool, bool(v)
		case VNum:
			ic.Kind, ic.Num = constNum, float64(v)
		case *ObjString:
			ic.Kind, ic.Str = constStr, v.chars
		case *ObjFunction:
			ic.Kind, ic.Handle, ic.Arity = constFunc, v.Handle, v.Arity
		default:
			return nil, fmt.Errorf("vm: marshal image: unsupported constant #%d of type %T", i, v)
		}
		img.Consts = append(img.Consts, ic)
	}

	body, err := cborEncMode.Marshal(img)
	if err != nil {
		return nil, fmt.Errorf("vm: marshal image: %w", err)
	}
	return append([]byte(imageMagic), body...), nil
}

// UnmarshalImage deserializes a chunk, allocating its objects in heap.
// Strings are interned on the way in, so they keep their identity semantics.
// The code is verified first, so a loaded chunk can't index out of its
// constants, jump into an operand or underflow the stack.
func UnmarshalImage(data []byte, heap *Heap) (*Chunk, error) {
	if !IsImage(data) {
		return nil, fmt.Errorf("vm: unmarshal image: missing %q header", imageMagic)
	}
	var img image
	if err := cbor.Unmarshal(data[len(imageMagic):], &img); err != nil {
		return nil, fmt.Errorf("vm: unmarshal image: %w", err)
	}
	switch {
	case img.Version != imageVersion:
		return nil, fmt.Errorf("vm: unmarshal image: unsupported version %d", img.Version)
	case len(img.Code) != len(img.Lines):
		return nil, fmt.Errorf("vm: unmarshal image: %d code bytes but %d lines", len(img.Code), len(img.Lines))
	case len(img.Consts) > math.MaxUint8+1:
		return nil, fmt.Errorf("vm: unmarshal image: too many constants (%d)", len(img.Consts))
	}
	// Nothing is allocated in heap until the code checks out.
	if err := verifyCode(img.Code, img.Consts); err != nil {
		return nil, fmt.Errorf("vm: unmarshal image: %w", err)
	}

	res := NewChunk()
	for i, b := range img.Code {
		res.Write(b, img.Lines[i])
	}
	for i, ic := range img.Consts {
		var val Value
		switch ic.Kind {
		case constNull:
			val = VNull{}
		case constBool:
			val = VBool(ic.Bool)
		case constNum:
			val = VNum(ic.Num)
		case constStr:
			val = heap.CopyString(ic.Str)
		case constFunc:
			if ic.Handle < 0 || ic.Handle > len(img.Code) {
				return nil, fmt.Errorf("vm: unmarshal image: function #%d has handle %d out of range", i, ic.Handle)
			}
			val = heap.NewFunction(ic.Handle, ic.Arity)
		default:
			return nil, fmt.Errorf("vm: unmarshal image: unknown constant kind %d", ic.Kind)
		}
		res.AddConst(val)
	}
	return res, nil
}

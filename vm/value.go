package vm

import "fmt"

// Value is a closed tagged union over VBool, VNull, VNum and heap object references.
type Value interface{ isValue() }

type VBool bool

func (_ VBool) isValue()       {}
func (v VBool) String() string { return fmt.Sprintf("%t", v) }

type VNull struct{}

func (_ VNull) isValue()       {}
func (v VNull) String() string { return "null" }

type VNum float64

func (_ VNum) isValue()       {}
func (v VNum) String() string { return fmt.Sprintf("%g", float64(v)) }

// numOp applies op to two numbers, failing if either operand is not one.
func numOp(v, w Value, op func(a, b VNum) Value) (Value, bool) {
	a, ok := v.(VNum)
	b, ok1 := w.(VNum)
	if !ok || !ok1 {
		return VNull{}, false
	}
	return op(a, b), true
}

// VAdd adds two numbers. String concatenation is handled by the VM since it allocates.
func VAdd(v, w Value) (Value, bool) {
	return numOp(v, w, func(a, b VNum) Value { return a + b })
}

func VSub(v, w Value) (Value, bool) {
	return numOp(v, w, func(a, b VNum) Value { return a - b })
}

func VMul(v, w Value) (Value, bool) {
	return numOp(v, w, func(a, b VNum) Value { return a * b })
}

// VDiv follows IEEE-754, so dividing by zero yields an infinity or NaN.
func VDiv(v, w Value) (Value, bool) {
	return numOp(v, w, func(a, b VNum) Value { return a / b })
}

func VGreater(v, w Value) (Value, bool) {
	return numOp(v, w, func(a, b VNum) Value { return VBool(a > b) })
}

func VLess(v, w Value) (Value, bool) {
	return numOp(v, w, func(a, b VNum) Value { return VBool(a < b) })
}

func VNeg(v Value) (Value, bool) {
	if a, ok := v.(VNum); ok {
		return -a, true
	}
	return VNull{}, false
}

// VTruthy reports whether v counts as true for branches and logical operators.
// Only the boolean true does; null, numbers and objects are all falsy.
func VTruthy(v Value) VBool {
	b, ok := v.(VBool)
	return VBool(ok) && b
}

// VEq compares two values of the same variant.
// Null is never equal to anything, including null, and objects are not compared.
func VEq(v, w Value) VBool {
	switch v := v.(type) {
	case VBool:
		switch w := w.(type) {
		case VBool:
			return v == w
		}
	case VNum:
		switch w := w.(type) {
		case VNum:
			return v == w
		}
	}
	return false
}

package vm

import (
	"errors"
	"fmt"
)

// instWidth is the encoded size of an instruction, or 0 for an unknown opcode.
func instWidth(op OpCode) int {
	switch op {
	case OpConst, OpGetGlobal, OpSetGlobal, OpGetLocal, OpSetLocal:
		return 2
	case OpJump, OpJumpIfFalse, OpLoop:
		return 3
	}
	if op <= OpReturn {
		return 1
	}
	return 0
}

// stackEffect is how many values an instruction pops, then pushes.
func stackEffect(op OpCode) (pops, pushes int) {
	switch op {
	case OpConst, OpGetGlobal, OpGetLocal, OpNull, OpTrue, OpFalse:
		return 0, 1
	case OpPop, OpPrint:
		return 1, 0
	case OpSetGlobal, OpSetLocal, OpJumpIfFalse, OpNeg, OpNot:
		return 1, 1
	case OpEqual, OpGreater, OpLess, OpAdd, OpSub, OpMul, OpDiv:
		return 2, 1
	}
	return 0, 0
}

func jumpTarget(code []byte, offset int) int {
	jump := int(code[offset+1])<<8 | int(code[offset+2])
	if OpCode(code[offset]) == OpLoop {
		return offset + 3 - jump
	}
	return offset + 3 + jump
}

// verifyCode checks that code is safe to hand to the VM.
//
// Every instruction must decode with its operands in range, and every jump must
// land on an instruction boundary. Starting from offset 0 with an empty stack,
// each reachable instruction must see the same stack depth on every path
// leading to it, never pop more than is there and only read existing locals.
// Function bodies are never entered, so they're only decoded.
func verifyCode(code []byte, consts []imageConst) error {
	if len(code) == 0 {
		return errors.New("empty code")
	}

	starts := make([]bool, len(code))
	last := 0
	for offset := 0; offset < len(code); {
		op := OpCode(code[offset])
		width := instWidth(op)
		switch {
		case width == 0:
			return fmt.Errorf("unknown opcode %d at %04d", code[offset], offset)
		case offset+width > len(code):
			return fmt.Errorf("truncated %v at %04d", op, offset)
		}
		starts[offset], last = true, offset

		switch op {
		case OpConst, OpGetGlobal, OpSetGlobal:
			idx := int(code[offset+1])
			if idx >= len(consts) {
				return fmt.Errorf("%v at %04d refers to constant #%d of %d", op, offset, idx, len(consts))
			}
			if op != OpConst && consts[idx].Kind != constStr {
				return fmt.Errorf("%v at %04d needs a string name, got constant #%d", op, offset, idx)
			}
		}
		offset += width
	}
	if OpCode(code[last]) != OpReturn {
		return fmt.Errorf("code doesn't end with %v", OpReturn)
	}

	for offset, ok := range starts {
		if !ok {
			continue
		}
		switch OpCode(code[offset]) {
		case OpJump, OpJumpIfFalse, OpLoop:
			if target := jumpTarget(code, offset); target < 0 || target >= len(code) || !starts[target] {
				return fmt.Errorf("%v at %04d jumps to %d, not an instruction", OpCode(code[offset]), offset, target)
			}
		}
	}
	for i, ic := range consts {
		if ic.Kind == constFunc && ic.Handle < len(code) && !starts[ic.Handle] {
			return fmt.Errorf("function #%d starts at %d, not an instruction", i, ic.Handle)
		}
	}

	depths := make([]int, len(code))
	for i := range depths {
		depths[i] = -1
	}
	depths[0] = 0
	work := []int{0}
	for len(work) > 0 {
		offset := work[len(work)-1]
		work = work[:len(work)-1]
		op, depth := OpCode(code[offset]), depths[offset]

		switch op {
		case OpGetLocal, OpSetLocal:
			if slot := int(code[offset+1]); slot >= depth {
				return fmt.Errorf("%v at %04d reads slot %d with only %d on the stack", op, offset, slot, depth)
			}
		}
		pops, pushes := stackEffect(op)
		if depth < pops {
			return fmt.Errorf("%v at %04d pops %d with only %d on the stack", op, offset, pops, depth)
		}
		depth += pushes - pops

		var next []int
		switch op {
		case OpReturn:
		case OpJump, OpLoop:
			next = []int{jumpTarget(code, offset)}
		case OpJumpIfFalse:
			next = []int{offset + 3, jumpTarget(code, offset)}
		default:
			next = []int{offset + instWidth(op)}
		}
		for _, n := range next {
			switch {
			case depths[n] == -1:
				depths[n] = depth
				work = append(work, n)
			case depths[n] != depth:
				return fmt.Errorf("stack depth at %04d is both %d and %d", n, depths[n], depth)
			}
		}
	}
	return nil
}

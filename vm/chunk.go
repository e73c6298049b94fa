package vm

import (
	"fmt"

	"github.com/rami3l/canterbury/debug"
	"github.com/rami3l/canterbury/utils"
)

//go:generate stringer -type=OpCode
type OpCode byte

const (
	OpConst OpCode = iota
	OpPop
	OpSetGlobal
	OpGetGlobal
	OpSetLocal
	OpGetLocal
	OpJumpIfFalse
	OpJump
	OpLoop
	OpNull
	OpTrue
	OpFalse
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg
	OpNot
	OpPrint
	OpReturn
)

type Chunk struct {
	code []byte
	// Contract: len(lines) == len(code)
	lines  []int
	consts []Value
}

func NewChunk() *Chunk { return &Chunk{} }

func (c *Chunk) Write(b byte, line int) {
	if len(c.code) == cap(c.code) {
		newCap := utils.GrowCapacity(cap(c.code))
		code, lines := make([]byte, len(c.code), newCap), make([]int, len(c.lines), newCap)
		copy(code, c.code)
		copy(lines, c.lines)
		c.code, c.lines = code, lines
	}
	c.code = append(c.code, b)
	c.lines = append(c.lines, line)
	debug.AssertEq(len(c.code), len(c.lines))
}

func (c *Chunk) AddConst(const_ Value) (idx int) {
	idx = len(c.consts)
	c.consts = append(c.consts, const_)
	return
}

func (c *Chunk) Code() []byte    { return c.code }
func (c *Chunk) Lines() []int    { return c.lines }
func (c *Chunk) Consts() []Value { return c.consts }
func (c *Chunk) Len() int        { return len(c.code) }

func (c *Chunk) readShort(offset int) int {
	return int(c.code[offset])<<8 | int(c.code[offset+1])
}

func (c *Chunk) DisassembleInst(offset int) (res string, newOffset int) {
	sprintf := func(format string, a ...any) { res += fmt.Sprintf(format, a...) }

	sprintf("%04d ", offset)
	if offset > 0 && c.lines[offset] == c.lines[offset-1] {
		sprintf("   | ")
	} else {
		sprintf("%4d ", c.lines[offset])
	}

	switch inst := OpCode(c.code[offset]); inst {
	// Constant operand.
	case OpConst, OpGetGlobal, OpSetGlobal:
		const_ := c.code[offset+1]
		sprintf("%-16s %4d '%s'", inst, const_, c.consts[const_])
		return res, offset + 2
	// Slot operand.
	case OpGetLocal, OpSetLocal:
		sprintf("%-16s %4d", inst, c.code[offset+1])
		return res, offset + 2
	// Jump operand.
	case OpJump, OpJumpIfFalse, OpLoop:
		sign := 1
		if inst == OpLoop {
			sign = -1
		}
		jump := c.readShort(offset + 1)
		sprintf("%-16s %4d -> %d", inst, offset, offset+3+sign*jump)
		return res, offset + 3
	// Nullary operators.
	default:
		sprintf("%s", inst)
		return res, offset + 1
	}
}

func (c *Chunk) Disassemble(name string) (res string) {
	res = fmt.Sprintf("== %s ==\n", name)
	for i := 0; i < len(c.code); {
		var delta string
		delta, i = c.DisassembleInst(i)
		res += delta + "\n"
	}
	return res
}

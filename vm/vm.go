package vm

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/chzyer/readline"
	"github.com/rami3l/canterbury/debug"
	e "github.com/rami3l/canterbury/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultFrameMax = 64
	// Every frame can address a full window of local slots.
	DefaultStackMax = DefaultFrameMax * (math.MaxUint8 + 1)
)

//go:generate stringer -type=InterpretResult
type InterpretResult int

const (
	InterpretOk InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// CallFrame is one activation: the chunk being run, where in it,
// and where its local slots start on the shared stack.
type CallFrame struct {
	chunk *Chunk
	ip    int
	slots int
}

type VM struct {
	frames  []CallFrame
	stack   []Value
	globals *Table
	heap    *Heap
	stdout  io.Writer

	stackMax, frameMax int
	trace              bool
}

type Option func(*VM)

// WithStdout redirects the output of print statements.
func WithStdout(w io.Writer) Option { return func(vm *VM) { vm.stdout = w } }
func WithStackMax(n int) Option     { return func(vm *VM) { vm.stackMax = n } }
func WithFrameMax(n int) Option     { return func(vm *VM) { vm.frameMax = n } }

// WithTrace logs every executed instruction at debug level.
func WithTrace(trace bool) Option { return func(vm *VM) { vm.trace = trace } }

func NewVM(opts ...Option) *VM {
	vm := &VM{
		globals:  NewTable(),
		heap:     NewHeap(),
		stdout:   os.Stdout,
		stackMax: DefaultStackMax,
		frameMax: DefaultFrameMax,
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.stack = make([]Value, 0, vm.stackMax)
	vm.frames = make([]CallFrame, 0, vm.frameMax)
	return vm
}

func (vm *VM) push(val Value) {
	vm.stack = append(vm.stack, val)
}

func (vm *VM) pop() (last Value) {
	len_ := len(vm.stack)
	debug.Assertf(len_ > 0, "pop from an empty stack")
	vm.stack, last = vm.stack[:len_-1], vm.stack[len_-1]
	return
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) resetStack() {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
}

func (vm *VM) tracing() bool { return debug.DEBUG || vm.trace }

// IsGlobal reports whether name is currently bound in the globals table.
func (vm *VM) IsGlobal(name string) bool {
	_, ok := vm.Global(name)
	return ok
}

// Global looks up a global variable by name.
func (vm *VM) Global(name string) (val Value, ok bool) {
	key := vm.heap.FindString(name)
	if key == nil {
		return
	}
	return vm.globals.Get(key)
}

// GlobalNames returns the names of all globals, sorted.
func (vm *VM) GlobalNames() (res []string) {
	for _, key := range vm.globals.Keys() {
		res = append(res, key.String())
	}
	sort.Strings(res)
	return
}

func (vm *VM) StackDepth() int { return len(vm.stack) }
func (vm *VM) Heap() *Heap     { return vm.heap }

// Free releases every object allocated so far, along with all globals.
func (vm *VM) Free() {
	vm.resetStack()
	vm.globals = NewTable()
	vm.heap.Free()
}

func (vm *VM) REPL(prompt, historyFile string) error {
	reader, err := readline.NewEx(&readline.Config{
		Prompt:      prompt,
		HistoryFile: historyFile,
	})
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		line, err := reader.Readline()
		switch err {
		case nil:
			if line == "" {
				continue
			}
		case readline.ErrInterrupt: // ^C
			continue
		case io.EOF: // ^D
			return nil
		default:
			return err
		}

		if _, err := vm.Interpret(line); err != nil {
			logrus.Error(err)
		}
	}
}

// Compile compiles src against this VM's heap and globals without running it.
func (vm *VM) Compile(src string) (*Chunk, error) {
	parser := NewParser(vm.heap, vm)
	parser.trace = vm.trace
	return parser.Compile(src)
}

func (vm *VM) Interpret(src string) (InterpretResult, error) {
	chunk, err := vm.Compile(src)
	if err != nil {
		return InterpretCompileError, err
	}
	return vm.Run(chunk)
}

// Run executes an already compiled chunk.
func (vm *VM) Run(chunk *Chunk) (InterpretResult, error) {
	if len(vm.frames) >= vm.frameMax {
		return InterpretRuntimeError, &e.RuntimeError{Reason: "too many call frames"}
	}
	vm.frames = append(vm.frames, CallFrame{chunk: chunk, slots: len(vm.stack)})
	if err := vm.run(); err != nil {
		return InterpretRuntimeError, err
	}
	return InterpretOk, nil
}

func (vm *VM) run() error {
	frame := &vm.frames[len(vm.frames)-1]

	readByte := func() (res byte) {
		res = frame.chunk.code[frame.ip]
		frame.ip++
		return
	}
	readShort := func() int {
		frame.ip += 2
		return frame.chunk.readShort(frame.ip - 2)
	}
	readConst := func() Value { return frame.chunk.consts[readByte()] }
	readStr := func() *ObjString { return readConst().(*ObjString) }

	for {
		if len(vm.stack) > vm.stackMax {
			return vm.Error("stack overflow")
		}
		if vm.tracing() {
			logrus.Debugln(vm.stackTrace())
			instDump, _ := frame.chunk.DisassembleInst(frame.ip)
			logrus.Debugln(instDump)
		}

		switch inst := OpCode(readByte()); inst {
		case OpReturn:
			vm.stack = vm.stack[:frame.slots]
			vm.frames = vm.frames[:len(vm.frames)-1]
			return nil
		case OpConst:
			vm.push(readConst())
		case OpPop:
			vm.pop()
		case OpSetGlobal:
			// The assigned value stays on the stack as the result of the expression.
			vm.globals.Set(readStr(), vm.peek(0))
		case OpGetGlobal:
			name := readStr()
			val, ok := vm.globals.Get(name)
			if !ok {
				return vm.Error(fmt.Sprintf("undefined variable '%s'", name))
			}
			vm.push(val)
		case OpSetLocal:
			slot := readByte()
			vm.stack[frame.slots+int(slot)] = vm.peek(0)
		case OpGetLocal:
			slot := readByte()
			vm.push(vm.stack[frame.slots+int(slot)])
		case OpJumpIfFalse:
			offset := readShort()
			if !VTruthy(vm.peek(0)) {
				frame.ip += offset
			}
		case OpJump:
			frame.ip += readShort()
		case OpLoop:
			offset := readShort()
			frame.ip -= offset
		case OpNull:
			vm.push(VNull{})
		case OpTrue:
			vm.push(VBool(true))
		case OpFalse:
			vm.push(VBool(false))
		case OpEqual:
			rhs := vm.pop()
			vm.push(VEq(vm.pop(), rhs))
		case OpNot:
			vm.push(!VTruthy(vm.pop()))
		case OpNeg:
			res, ok := VNeg(vm.pop())
			if !ok {
				return vm.Error("operand must be a number")
			}
			vm.push(res)
		case OpAdd:
			lhs, lok := vm.peek(1).(*ObjString)
			rhs, rok := vm.peek(0).(*ObjString)
			if lok && rok {
				vm.pop()
				vm.pop()
				vm.push(vm.concat(lhs, rhs))
				break
			}
			rhs1 := vm.pop()
			res, ok := VAdd(vm.pop(), rhs1)
			if !ok {
				return vm.Error("operands must be two numbers or two strings")
			}
			vm.push(res)
		case OpSub:
			rhs := vm.pop()
			res, ok := VSub(vm.pop(), rhs)
			if !ok {
				return vm.Error("operands must be numbers")
			}
			vm.push(res)
		case OpMul:
			rhs := vm.pop()
			res, ok := VMul(vm.pop(), rhs)
			if !ok {
				return vm.Error("operands must be numbers")
			}
			vm.push(res)
		case OpDiv:
			rhs := vm.pop()
			res, ok := VDiv(vm.pop(), rhs)
			if !ok {
				return vm.Error("operands must be numbers")
			}
			vm.push(res)
		case OpGreater:
			rhs := vm.pop()
			res, ok := VGreater(vm.pop(), rhs)
			if !ok {
				return vm.Error("operands must be numbers")
			}
			vm.push(res)
		case OpLess:
			rhs := vm.pop()
			res, ok := VLess(vm.pop(), rhs)
			if !ok {
				return vm.Error("operands must be numbers")
			}
			vm.push(res)
		case OpPrint:
			fmt.Fprintf(vm.stdout, "%s\n", vm.pop())
		default:
			return vm.Error(fmt.Sprintf("unknown instruction '%d'", inst))
		}
	}
}

func (vm *VM) concat(lhs, rhs *ObjString) *ObjString {
	buf := make([]byte, 0, lhs.Len()+rhs.Len())
	buf = append(buf, lhs.chars...)
	buf = append(buf, rhs.chars...)
	return vm.heap.TakeString(buf)
}

// Error builds a RuntimeError pointing at the instruction being executed,
// then resets the stack and the call frames.
func (vm *VM) Error(reason string) *e.RuntimeError {
	err := &e.RuntimeError{Reason: reason}
	if n := len(vm.frames); n > 0 {
		frame := &vm.frames[n-1]
		if frame.ip > 0 {
			err.Line = frame.chunk.lines[frame.ip-1]
		}
	}
	if vm.tracing() {
		logrus.Debugln(vm.stackTrace())
	}
	vm.resetStack()
	return err
}

func (vm *VM) stackTrace() string {
	res := "          "
	for _, slot := range vm.stack {
		res += fmt.Sprintf("[ %s ]", slot)
	}
	return res
}

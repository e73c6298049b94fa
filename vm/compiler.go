package vm

import (
	"fmt"
	"math"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/rami3l/canterbury/debug"
	e "github.com/rami3l/canterbury/errors"
	"github.com/sirupsen/logrus"
)

// GlobalResolver reports which names are already bound as globals.
// The compiler consults it to decide whether an assignment inside a block
// updates a global or declares a new local.
type GlobalResolver interface {
	IsGlobal(name string) bool
}

type Parser struct {
	*Scanner
	*Compiler
	prev, curr     Token
	compilingChunk *Chunk

	heap    *Heap
	globals GlobalResolver
	trace   bool

	errors *multierror.Error
	// Whether the parser is trying to sync, i.e. in the error recovery process.
	panicMode bool
}

// NewParser returns a Parser allocating its constants in heap.
// globals may be nil, in which case no name is considered a known global.
func NewParser(heap *Heap, globals GlobalResolver) *Parser {
	return &Parser{heap: heap, globals: globals}
}

// Compile compiles src into a fresh Chunk.
// The Chunk is returned even if compilation fails, but it must not be run in that case.
func Compile(src string, heap *Heap, globals GlobalResolver) (*Chunk, error) {
	return NewParser(heap, globals).Compile(src)
}

type Compiler struct {
	locals []Local
	depth  int
}

const (
	GlobalSlot = -1 - iota
	UninitDepth
)

func NewCompiler() *Compiler { return &Compiler{} }

type Local struct {
	name  Token
	depth int
}

/* Single-pass compilation */

func (p *Parser) emitConst(val Value) { p.emitBytes(byte(OpConst), p.makeConst(val)) }

func (p *Parser) makeConst(val Value) byte {
	const_ := p.currentChunk().AddConst(val)
	if const_ > math.MaxUint8 {
		p.Error("too many constants in one chunk")
		return 0
	}
	return byte(const_)
}

func (p *Parser) num(_canAssign bool) {
	val, err := strconv.ParseFloat(p.prev.String(), 64)
	if err != nil {
		p.Error(err.Error())
		return
	}
	p.emitConst(VNum(val))
}

func (p *Parser) grouping(_canAssign bool) {
	p.expr()
	p.consume(TRParen, "expect ')' after expression")
}

func (p *Parser) lit(_canAssign bool) {
	switch p.prev.Type {
	case TFalse:
		p.emitBytes(byte(OpFalse))
	case TNull:
		p.emitBytes(byte(OpNull))
	case TTrue:
		p.emitBytes(byte(OpTrue))
	default:
		panic(e.Unreachable)
	}
}

func (p *Parser) str(_canAssign bool) {
	runes := p.prev.Runes
	// COPY the lexeme inside the quotes as a string.
	unquoted := string(runes[1 : len(runes)-1])
	p.emitConst(p.heap.CopyString(unquoted))
}

func (p *Parser) var_(canAssign bool) { p.namedVar(p.prev, canAssign) }

func (p *Parser) namedVar(name Token, canAssign bool) {
	slot := p.resolveLocal(name)
	var arg byte
	get, set := OpGetLocal, OpSetLocal
	if slot == GlobalSlot {
		arg, get, set = p.identConst(name), OpGetGlobal, OpSetGlobal
	} else {
		arg = byte(slot)
	}

	switch {
	case canAssign && p.match(TWalrus):
		if slot == GlobalSlot && p.depth > 0 && !p.isGlobal(name) {
			// A new local can only be declared at the start of a statement,
			// otherwise its slot would not line up with the stack.
			p.Error("can't declare a local variable here")
		}
		p.expr()
		p.emitBytes(byte(set), arg)
	default:
		p.emitBytes(byte(get), arg)
	}
}

func (p *Parser) unary(_canAssign bool) {
	op := p.prev.Type

	// Compile the RHS.
	p.parsePrec(PrecUnary)

	// Emit the operator instruction.
	switch op {
	case TBang:
		p.emitBytes(byte(OpNot))
	case TMinus:
		p.emitBytes(byte(OpNeg))
	default:
		panic(e.Unreachable)
	}
}

func (p *Parser) binary(_canAssign bool) {
	op := p.prev.Type
	rule := parseRules[op]

	// Compile the RHS.
	p.parsePrec(rule.Prec + 1)

	// Emit the operator instruction.
	switch op {
	case TNotEqual:
		p.emitBytes(byte(OpEqual), byte(OpNot))
	case TEqual, TEqualEqual:
		p.emitBytes(byte(OpEqual))
	case TGreater:
		p.emitBytes(byte(OpGreater))
	case TGreaterEqual:
		p.emitBytes(byte(OpLess), byte(OpNot))
	case TLess:
		p.emitBytes(byte(OpLess))
	case TLessEqual:
		p.emitBytes(byte(OpGreater), byte(OpNot))
	case TPlus:
		p.emitBytes(byte(OpAdd))
	case TMinus:
		p.emitBytes(byte(OpSub))
	case TStar:
		p.emitBytes(byte(OpMul))
	case TSlash:
		p.emitBytes(byte(OpDiv))
	default:
		panic(e.Unreachable)
	}
}

func (p *Parser) and_(_canAssign bool) {
	endJump := p.emitJump(OpJumpIfFalse)
	p.emitBytes(byte(OpPop))
	p.parsePrec(PrecAnd)
	p.patchJump(endJump)
}

func (p *Parser) or_(_canAssign bool) {
	elseJump := p.emitJump(OpJumpIfFalse)
	endJump := p.emitJump(OpJump)
	p.patchJump(elseJump)
	p.emitBytes(byte(OpPop))
	p.parsePrec(PrecOr)
	p.patchJump(endJump)
}

// func_ compiles a function literal in place.
// The body is skipped over by a jump, and the function value is left on the stack.
func (p *Parser) func_(_canAssign bool) {
	bodyJump := p.emitJump(OpJump)
	handle := p.currentChunk().Len()

	p.beginScope()
	p.consume(TLParen, "expect '(' after 'func'")
	arity := 0
	if !p.check(TRParen) {
		for {
			arity++
			if arity > math.MaxUint8 {
				p.ErrorAtCurr("can't have more than 255 parameters")
			}
			if param := p.consume(TIdent, "expect parameter name"); param != nil {
				p.declParam(*param)
			}
			if !p.match(TComma) {
				break
			}
		}
	}
	p.consume(TRParen, "expect ')' after parameters")
	p.consume(TLBrace, "expect '{' before function body")
	p.block()
	p.endScope()

	p.patchJump(bodyJump)
	p.emitConst(p.heap.NewFunction(handle, arity))
}

func (p *Parser) expr() { p.parsePrec(PrecAssign) }

func (p *Parser) exprStmt() {
	p.expr()
	p.consume(TSemi, "expect ';' after expression")
	p.emitBytes(byte(OpPop))
}

func (p *Parser) printStmt() {
	p.expr()
	p.consume(TSemi, "expect ';' after value")
	p.emitBytes(byte(OpPrint))
}

func (p *Parser) ifStmt() {
	p.consume(TLParen, "expect '(' after 'if'")
	p.expr()
	p.consume(TRParen, "expect ')' after condition")

	thenJump := p.emitJump(OpJumpIfFalse)
	p.emitBytes(byte(OpPop))
	p.stmt()
	elseJump := p.emitJump(OpJump)

	p.patchJump(thenJump)
	p.emitBytes(byte(OpPop))
	if p.match(TElse) {
		p.stmt()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStmt() {
	loopStart := p.currentChunk().Len()
	p.consume(TLParen, "expect '(' after 'while'")
	p.expr()
	p.consume(TRParen, "expect ')' after condition")

	exitJump := p.emitJump(OpJumpIfFalse)
	p.emitBytes(byte(OpPop))
	p.stmt()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitBytes(byte(OpPop))
}

func (p *Parser) forStmt() {
	p.beginScope()
	p.consume(TLParen, "expect '(' after 'for'")

	// Initializer.
	if !p.match(TSemi) {
		p.simpleDecl()
	}

	// Condition.
	loopStart := p.currentChunk().Len()
	exitJump := -1
	if !p.match(TSemi) {
		p.expr()
		p.consume(TSemi, "expect ';' after loop condition")
		exitJump = p.emitJump(OpJumpIfFalse)
		p.emitBytes(byte(OpPop))
	}

	// Increment. It runs after the body, so jump over it for now.
	if !p.match(TRParen) {
		bodyJump := p.emitJump(OpJump)
		incrStart := p.currentChunk().Len()
		p.expr()
		p.emitBytes(byte(OpPop))
		p.consume(TRParen, "expect ')' after for clauses")
		p.emitLoop(loopStart)
		loopStart = incrStart
		p.patchJump(bodyJump)
	}

	p.stmt()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitBytes(byte(OpPop))
	}
	p.endScope()
}

func (p *Parser) block() {
	for !p.check(TRBrace) && !p.check(TEOF) {
		p.decl()
	}
	p.consume(TRBrace, "expect '}' after block")
}

func (p *Parser) stmt() {
	switch {
	case p.match(TPrint):
		p.printStmt()
	case p.match(TIf):
		p.ifStmt()
	case p.match(TWhile):
		p.whileStmt()
	case p.match(TFor):
		p.forStmt()
	case p.match(TLBrace):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.exprStmt()
	}
}

// simpleDecl compiles either a local declaration or an expression statement.
func (p *Parser) simpleDecl() {
	if p.atLocalDecl() {
		p.localDecl()
		return
	}
	p.exprStmt()
}

func (p *Parser) decl() {
	switch {
	case p.atLocalDecl():
		p.localDecl()
	default:
		p.stmt()
	}
	if p.panicMode {
		p.sync()
	}
}

type ParseFn = func(p *Parser, canAssign bool)

type ParseRule struct {
	Prefix, Infix ParseFn
	Prec
}

var parseRules []ParseRule

func init() {
	parseRules = []ParseRule{
		TLParen:       {(*Parser).grouping, nil, PrecNone},
		TMinus:        {(*Parser).unary, (*Parser).binary, PrecTerm},
		TPlus:         {nil, (*Parser).binary, PrecTerm},
		TSlash:        {nil, (*Parser).binary, PrecFactor},
		TStar:         {nil, (*Parser).binary, PrecFactor},
		TBang:         {(*Parser).unary, nil, PrecNone},
		TEqual:        {nil, (*Parser).binary, PrecEqual},
		TEqualEqual:   {nil, (*Parser).binary, PrecEqual},
		TNotEqual:     {nil, (*Parser).binary, PrecEqual},
		TGreater:      {nil, (*Parser).binary, PrecComp},
		TGreaterEqual: {nil, (*Parser).binary, PrecComp},
		TLess:         {nil, (*Parser).binary, PrecComp},
		TLessEqual:    {nil, (*Parser).binary, PrecComp},
		TIdent:        {(*Parser).var_, nil, PrecNone},
		TStr:          {(*Parser).str, nil, PrecNone},
		TNum:          {(*Parser).num, nil, PrecNone},
		TAnd:          {nil, (*Parser).and_, PrecAnd},
		TOr:           {nil, (*Parser).or_, PrecOr},
		TFunc:         {(*Parser).func_, nil, PrecNone},
		TFalse:        {(*Parser).lit, nil, PrecNone},
		TNull:         {(*Parser).lit, nil, PrecNone},
		TTrue:         {(*Parser).lit, nil, PrecNone},
		TEOF:          {},
	}
}

func (p *Parser) parsePrec(prec Prec) {
	p.advance()

	// Parse LHS.
	prefix := parseRules[p.prev.Type].Prefix
	if prefix == nil {
		p.Error("expect expression")
		return
	}
	canAssign := prec <= PrecAssign
	prefix(p, canAssign)

	// Parse RHS if there's one maintaining rule.Prec >= prec.
	for {
		rule := parseRules[p.curr.Type]
		if rule.Prec < prec {
			break
		}
		p.advance()
		if rule.Infix == nil {
			panic(e.Unreachable)
		}
		rule.Infix(p, canAssign)
	}

	if canAssign && p.match(TWalrus) {
		p.Error("invalid assignment target")
	}
}

/* Parsing helpers */

func (p *Parser) check(ty TokenType) bool     { return p.curr.Type == ty }
func (p *Parser) checkPrev(ty TokenType) bool { return p.prev.Type == ty }

func (p *Parser) advance() {
	p.prev = p.curr
	for {
		// Skip until the first non-TErr token.
		if p.curr = p.ScanToken(); !p.check(TErr) {
			break
		}
		p.ErrorAtCurr(p.curr.String())
	}
}

// peekNext returns the token after curr without consuming anything.
func (p *Parser) peekNext() Token {
	saved := *p.Scanner
	defer func() { *p.Scanner = saved }()
	return p.ScanToken()
}

func (p *Parser) match(ty TokenType) (matched bool) {
	if !p.check(ty) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(ty TokenType, errorMsg string) *Token {
	if !p.check(ty) {
		p.ErrorAtCurr(errorMsg)
		return nil
	}
	p.advance()
	return &p.prev
}

/* Compiling helpers */

func (p *Parser) Compile(src string) (res *Chunk, err error) {
	res = NewChunk()
	p.compilingChunk = res
	defer func() { p.compilingChunk = nil }()
	p.Compiler = NewCompiler()
	p.Scanner = NewScanner(src)
	p.errors, p.panicMode = nil, false

	p.advance()
	for !p.match(TEOF) {
		p.decl()
	}
	p.endCompiler()
	err = p.errors.ErrorOrNil()
	return
}

func (p *Parser) currentChunk() *Chunk { return p.compilingChunk }

func (p *Parser) emitBytes(bs ...byte) {
	for _, b := range bs {
		p.currentChunk().Write(b, p.prev.Line)
	}
}

// emitJump emits inst with a placeholder operand, returning the operand's offset for patchJump.
func (p *Parser) emitJump(inst OpCode) int {
	p.emitBytes(byte(inst), 0xff, 0xff)
	return p.currentChunk().Len() - 2
}

func (p *Parser) patchJump(offset int) {
	// -2 to adjust for the jump offset itself.
	jump := p.currentChunk().Len() - offset - 2
	if jump > math.MaxUint16 {
		p.Error("too much code to jump over")
	}
	code := p.currentChunk().code
	code[offset], code[offset+1] = byte(jump>>8), byte(jump)
}

func (p *Parser) emitLoop(loopStart int) {
	p.emitBytes(byte(OpLoop))
	// +2 to skip the loop offset itself.
	offset := p.currentChunk().Len() - loopStart + 2
	if offset > math.MaxUint16 {
		p.Error("loop body too large")
	}
	p.emitBytes(byte(offset>>8), byte(offset))
}

func (p *Parser) endCompiler() {
	p.emitBytes(byte(OpReturn))
	if debug.DEBUG || p.trace {
		logrus.Debugln(p.currentChunk().Disassemble("endCompiler"))
	}
}

func (p *Parser) identConst(name Token) byte {
	return p.makeConst(p.heap.CopyString(name.String()))
}

// isGlobal reports whether name is bound in the globals table right now.
// Assignments compiled earlier in the same source don't count until they have run.
func (p *Parser) isGlobal(name Token) bool {
	return p.globals != nil && p.globals.IsGlobal(name.String())
}

func (p *Parser) markInit() { p.locals[len(p.locals)-1].depth = p.depth }

func (p *Parser) addLocal(name Token) {
	if len(p.locals) >= math.MaxUint8+1 {
		p.Error("too many local variables in function")
		return
	}
	p.locals = append(p.locals, Local{name, UninitDepth})
}

// atLocalDecl reports whether the upcoming statement is `name := ...` with a name
// that is neither a known local nor a known global, inside a block.
func (p *Parser) atLocalDecl() bool {
	if p.depth == 0 || !p.check(TIdent) || p.peekNext().Type != TWalrus {
		return false
	}
	return p.findLocal(p.curr) == GlobalSlot && !p.isGlobal(p.curr)
}

func (p *Parser) localDecl() {
	name := p.curr
	p.advance() // Identifier.
	p.advance() // `:=`.
	before := len(p.locals)
	p.addLocal(name)
	p.expr()
	p.consume(TSemi, "expect ';' after variable declaration")
	if len(p.locals) > before {
		p.markInit()
	}
}

func (p *Parser) declParam(name Token) {
	for i := len(p.locals) - 1; i >= 0; i-- {
		local := p.locals[i]
		if local.depth < p.depth {
			break
		}
		if name.Eq(local.name) {
			p.Error("already a parameter with this name")
		}
	}
	before := len(p.locals)
	p.addLocal(name)
	if len(p.locals) > before {
		p.markInit()
	}
}

func (p *Parser) beginScope() { p.depth++ }

func (p *Parser) endScope() {
	p.depth--
	for len(p.locals) > 0 && p.locals[len(p.locals)-1].depth > p.depth {
		p.emitBytes(byte(OpPop)) // Pop off the local on the stack.
		p.locals = p.locals[0 : len(p.locals)-1]
	}
}

func (p *Parser) findLocal(name Token) (slot int) {
	// Search for the latest variable declaration of the same name.
	for i := len(p.locals) - 1; i >= 0; i-- {
		if name.Eq(p.locals[i].name) {
			return i
		}
	}
	return GlobalSlot
}

func (p *Parser) resolveLocal(name Token) (slot int) {
	slot = p.findLocal(name)
	if slot != GlobalSlot && p.locals[slot].depth == UninitDepth {
		p.Error("can't read local variable in its own initializer")
	}
	return
}

/* Precedence */

//go:generate stringer -type=Prec
type Prec int

const (
	PrecNone   Prec = iota
	PrecAssign      // :=
	PrecOr          // or
	PrecAnd         // and
	PrecEqual       // = <>
	PrecComp        // < > <= >=
	PrecTerm        // + -
	PrecFactor      // * /
	PrecUnary       // ! -
	PrecCall        // ()
	PrecPrimary
)

/* Error handling */

// sync skips tokens until a statement boundary.
// A `}` is left for the enclosing block to consume.
func (p *Parser) sync() {
	p.panicMode = false
	for !p.check(TEOF) {
		if p.checkPrev(TSemi) || p.checkPrev(TRBrace) {
			return
		}
		switch p.curr.Type {
		case TRBrace, TFunc, TStruct, TFor, TIf, TWhile, TPrint, TReturn, TImport, TMatch:
			return
		}
		p.advance()
	}
}

func (p *Parser) ErrorAt(tk Token, reason string) {
	// Don't collect error when we're syncing.
	if p.panicMode {
		return
	}
	p.panicMode = true

	var reason1 string
	switch tk.Type {
	case TErr:
		reason1 = reason
	case TEOF:
		reason1 = fmt.Sprintf("at EOF, %s", reason)
	case TIdent:
		reason1 = fmt.Sprintf("at identifier `%v`, %s", tk, reason)
	default:
		reason1 = fmt.Sprintf("at `%v`, %s", tk, reason)
	}
	err := &e.CompilationError{Line: tk.Line, Reason: reason1}

	if debug.DEBUG || p.trace {
		logrus.Debugln(p.currentChunk().Disassemble("ErrorAt"))
		logrus.Debugln(err)
	}

	p.errors = multierror.Append(p.errors, err)
}

func (p *Parser) Error(reason string)       { p.ErrorAt(p.prev, reason) }
func (p *Parser) ErrorAtCurr(reason string) { p.ErrorAt(p.curr, reason) }
func (p *Parser) HadError() bool            { return p.errors.ErrorOrNil() != nil }

package compiler

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/chazu/clockwork/pkg/bytecode"
	"github.com/chazu/clockwork/pkg/value"
)

// MaxLocals is the number of local variable slots a compiler tracks;
// locals are addressed by a single operand byte.
const MaxLocals = 256

// Precedence levels, lowest to highest.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

// parseRule drives the Pratt parser: what to do when a token appears in
// prefix position, in infix position, and how tightly it binds.
type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   precedence
}

var rules map[TokenType]parseRule

func init() {
	// Built in init: the rule functions consult the table through getRule,
	// so a package-level literal would be an initialization cycle.
	rules = map[TokenType]parseRule{
		TokenLParen:       {(*Compiler).grouping, nil, precNone},
		TokenMinus:        {(*Compiler).unary, (*Compiler).binary, precTerm},
		TokenPlus:         {nil, (*Compiler).binary, precTerm},
		TokenSlash:        {nil, (*Compiler).binary, precFactor},
		TokenStar:         {nil, (*Compiler).binary, precFactor},
		TokenBang:         {(*Compiler).unary, nil, precNone},
		TokenBangEqual:    {nil, (*Compiler).binary, precEquality},
		TokenEqualEqual:   {nil, (*Compiler).binary, precEquality},
		TokenLess:         {nil, (*Compiler).binary, precComparison},
		TokenLessEqual:    {nil, (*Compiler).binary, precComparison},
		TokenGreater:      {nil, (*Compiler).binary, precComparison},
		TokenGreaterEqual: {nil, (*Compiler).binary, precComparison},
		TokenIdentifier:   {(*Compiler).variable, nil, precNone},
		TokenInteger:      {(*Compiler).number, nil, precNone},
		TokenString:       {(*Compiler).stringLiteral, nil, precNone},
		TokenNull:         {(*Compiler).literal, nil, precNone},
		TokenTrue:         {(*Compiler).literal, nil, precNone},
		TokenFalse:        {(*Compiler).literal, nil, precNone},
		TokenAnd:          {nil, (*Compiler).and, precAnd},
		TokenOr:           {nil, (*Compiler).or, precOr},
	}
}

func getRule(t TokenType) parseRule {
	return rules[t]
}

// local is a variable resolved at compile time to a stack slot.
// depth == -1 marks a declared-but-uninitialized local; reading one in its
// own initializer is a compile error.
type local struct {
	name  Token
	depth int
}

// Compiler consumes scanner output and emits bytecode into a chunk in a
// single pass; no AST is built.
type Compiler struct {
	scanner  *Scanner
	chunk    *bytecode.Chunk
	interner *value.Interner

	previous Token
	current  Token

	locals     [MaxLocals]local
	localCount int
	scopeDepth int

	hadError  bool
	panicMode bool

	errOut io.Writer
}

// New creates a compiler for one source unit emitting into chunk. Strings
// and identifier names are interned through interner so they share storage
// with the VM that will run the chunk.
func New(source string, chunk *bytecode.Chunk, interner *value.Interner) *Compiler {
	return &Compiler{
		scanner:  NewScanner(source),
		chunk:    chunk,
		interner: interner,
		errOut:   os.Stderr,
	}
}

// SetErrorWriter redirects compile error reports, which default to stderr.
func (c *Compiler) SetErrorWriter(w io.Writer) {
	c.errOut = w
}

// Compile runs the parse. On success the chunk contains valid bytecode
// terminated by OP_RETURN. On failure the chunk may be partial; all errors
// up to end of input are reported, modulo panic-mode suppression.
func (c *Compiler) Compile() bool {
	c.advance()
	for !c.match(TokenEOF) {
		c.declaration()
	}
	c.emitOp(bytecode.OpReturn)
	return !c.hadError
}

// Compile is a package-level convenience: compile source into chunk,
// reporting errors to stderr.
func Compile(source string, chunk *bytecode.Chunk, interner *value.Interner) bool {
	return New(source, chunk, interner).Compile()
}

// ---------------------------------------------------------------------------
// Token plumbing
// ---------------------------------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.Next()
		if c.current.Type != TokenError {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) consume(t TokenType, msg string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) check(t TokenType) bool {
	return c.current.Type == t
}

func (c *Compiler) match(t TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

// ---------------------------------------------------------------------------
// Error reporting and panic-mode recovery
// ---------------------------------------------------------------------------

func (c *Compiler) errorAt(tok Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true

	fmt.Fprintf(c.errOut, "[line %d] Error", tok.Line)
	switch tok.Type {
	case TokenEOF:
		fmt.Fprintf(c.errOut, " at end")
	case TokenError:
		// The lexeme is the message; no location fragment.
	default:
		fmt.Fprintf(c.errOut, " at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(c.errOut, ": %s\n", msg)
	c.hadError = true
}

func (c *Compiler) error(msg string) {
	c.errorAt(c.previous, msg)
}

func (c *Compiler) errorAtCurrent(msg string) {
	c.errorAt(c.current, msg)
}

// synchronize skips tokens until a statement boundary, then clears panic
// mode so later, independent errors surface again.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.current.Type != TokenEOF {
		if c.previous.Type == TokenSemicolon {
			return
		}
		switch c.current.Type {
		case TokenLet, TokenIf, TokenWhile, TokenFor, TokenFunc, TokenPrint, TokenReturn:
			return
		}
		c.advance()
	}
}

// ---------------------------------------------------------------------------
// Emission helpers
// ---------------------------------------------------------------------------

func (c *Compiler) emitOp(op bytecode.Opcode) {
	c.chunk.Write(op, c.previous.Line)
}

func (c *Compiler) emitOpByte(op bytecode.Opcode, operand byte) {
	c.emitOp(op)
	c.chunk.WriteByte(operand, c.previous.Line)
}

func (c *Compiler) emitJump(op bytecode.Opcode) int {
	return c.chunk.EmitJump(op, c.previous.Line)
}

func (c *Compiler) patchJump(offset int) {
	if !c.chunk.PatchJump(offset) {
		c.error("Too much code to jump over.")
	}
}

func (c *Compiler) emitLoop(loopStart int) {
	if !c.chunk.EmitLoop(loopStart, c.previous.Line) {
		c.error("Loop body too large.")
	}
}

func (c *Compiler) makeConstant(v value.Value) uint8 {
	idx, ok := c.chunk.AddConstant(v)
	if !ok {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return idx
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitOpByte(bytecode.OpConstant, c.makeConstant(v))
}

func (c *Compiler) identifierConstant(name Token) uint8 {
	s := c.interner.Intern(name.Lexeme)
	return c.makeConstant(value.FromObject(&s.Obj))
}

// ---------------------------------------------------------------------------
// Local variables and scopes
// ---------------------------------------------------------------------------

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

func (c *Compiler) endScope() {
	c.scopeDepth--
	for c.localCount > 0 && c.locals[c.localCount-1].depth > c.scopeDepth {
		c.emitOp(bytecode.OpPop)
		c.localCount--
	}
}

func (c *Compiler) addLocal(name Token) {
	if c.localCount == MaxLocals {
		c.error("Too many variables in scope.")
		return
	}
	c.locals[c.localCount] = local{name: name, depth: -1}
	c.localCount++
}

func (c *Compiler) resolveLocal(name Token) int {
	for i := c.localCount - 1; i >= 0; i-- {
		l := &c.locals[i]
		if l.name.Lexeme == name.Lexeme {
			if l.depth == -1 {
				c.error("Can not read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// declareVariable records a new local in the current scope. Globals are
// late-bound and need no declaration.
func (c *Compiler) declareVariable() {
	if c.scopeDepth == 0 {
		return
	}
	name := c.previous
	for i := c.localCount - 1; i >= 0; i-- {
		l := &c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if l.name.Lexeme == name.Lexeme {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) markInitialized() {
	c.locals[c.localCount-1].depth = c.scopeDepth
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

// parsePrecedence is the Pratt core: run the prefix rule for the token just
// consumed, then fold in infix rules while they bind at least as tightly
// as prec. Assignment is only legal when entered at assignment precedence.
func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	rule := getRule(c.previous.Type)
	if rule.prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	rule.prefix(c, canAssign)

	for prec <= getRule(c.current.Type).prec {
		c.advance()
		getRule(c.previous.Type).infix(c, canAssign)
	}

	if canAssign && c.match(TokenAssign) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) grouping(bool) {
	c.expression()
	c.consume(TokenRParen, "Expect ')' after expression.")
}

func (c *Compiler) number(bool) {
	tok := c.previous
	var f float64
	if tok.Mod == ModNone {
		f, _ = strconv.ParseFloat(tok.Lexeme, 64)
	} else {
		n, err := strconv.ParseUint(tok.Lexeme[2:], tok.Mod.Base(), 64)
		if err != nil {
			c.error("Integer literal too large.")
			return
		}
		f = float64(n)
	}
	c.emitConstant(value.FromNumber(f))
}

func (c *Compiler) stringLiteral(bool) {
	s := c.interner.Intern(c.previous.Lexeme)
	c.emitConstant(value.FromObject(&s.Obj))
}

func (c *Compiler) literal(bool) {
	switch c.previous.Type {
	case TokenNull:
		c.emitOp(bytecode.OpNull)
	case TokenTrue:
		c.emitOp(bytecode.OpTrue)
	case TokenFalse:
		c.emitOp(bytecode.OpFalse)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

// namedVariable resolves an identifier: locals bind early to a stack slot,
// everything else becomes a late-bound global lookup by interned name.
func (c *Compiler) namedVariable(name Token, canAssign bool) {
	var getOp, setOp bytecode.Opcode
	var arg uint8

	if slot := c.resolveLocal(name); slot != -1 {
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
		arg = uint8(slot)
	} else {
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
		arg = c.identifierConstant(name)
	}

	if canAssign && c.match(TokenAssign) {
		c.expression()
		c.emitOpByte(setOp, arg)
	} else {
		c.emitOpByte(getOp, arg)
	}
}

func (c *Compiler) unary(bool) {
	op := c.previous.Type
	c.parsePrecedence(precUnary)
	switch op {
	case TokenMinus:
		c.emitOp(bytecode.OpNegate)
	case TokenBang:
		c.emitOp(bytecode.OpNot)
	}
}

func (c *Compiler) binary(bool) {
	op := c.previous.Type
	c.parsePrecedence(getRule(op).prec + 1)

	switch op {
	case TokenPlus:
		c.emitOp(bytecode.OpAdd)
	case TokenMinus:
		c.emitOp(bytecode.OpSubtract)
	case TokenStar:
		c.emitOp(bytecode.OpMultiply)
	case TokenSlash:
		c.emitOp(bytecode.OpDivide)
	case TokenEqualEqual:
		c.emitOp(bytecode.OpEqual)
	case TokenBangEqual:
		c.emitOp(bytecode.OpNotEqual)
	case TokenLess:
		c.emitOp(bytecode.OpLess)
	case TokenLessEqual:
		c.emitOp(bytecode.OpLessEqual)
	case TokenGreater:
		c.emitOp(bytecode.OpGreater)
	case TokenGreaterEqual:
		c.emitOp(bytecode.OpGreaterEqual)
	}
}

// and short-circuits: when the left operand is falsey it stays on the
// stack as the result and the right operand is skipped.
func (c *Compiler) and(bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

// or mirrors and with a truthy jump.
func (c *Compiler) or(bool) {
	endJump := c.emitJump(bytecode.OpJumpIfTrue)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (c *Compiler) declaration() {
	if c.match(TokenLet) {
		c.letDeclaration()
	} else {
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) letDeclaration() {
	// mut is accepted and recorded nowhere: locals carry no mutability bit.
	c.match(TokenMut)

	c.consume(TokenIdentifier, "Expect variable name.")
	name := c.previous
	c.declareVariable()

	if c.match(TokenAssign) {
		c.expression()
	} else {
		c.emitOp(bytecode.OpNull)
	}
	c.consume(TokenSemicolon, "Expect ';' after variable declaration.")

	if c.scopeDepth > 0 {
		// The initializer's result is already sitting in the local's slot;
		// only now may the name resolve to it.
		c.markInitialized()
		return
	}
	c.emitOpByte(bytecode.OpDefineGlobal, c.identifierConstant(name))
}

func (c *Compiler) statement() {
	switch {
	case c.match(TokenPrint):
		c.printStatement()
	case c.match(TokenIf):
		c.ifStatement()
	case c.match(TokenWhile):
		c.whileStatement()
	case c.match(TokenReturn):
		c.returnStatement()
	case c.match(TokenLBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(TokenSemicolon, "Expect ';' after value.")
	c.emitOp(bytecode.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(TokenSemicolon, "Expect ';' after expression.")
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) block() {
	for !c.check(TokenRBrace) && !c.check(TokenEOF) {
		c.declaration()
	}
	c.consume(TokenRBrace, "Expect '}' after block.")
}

func (c *Compiler) ifStatement() {
	c.consume(TokenLParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(TokenRParen, "Expect ')' after condition.")

	// The conditional jump peeks, so each branch pops the condition.
	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()
	elseJump := c.emitJump(bytecode.OpJump)

	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)
	if c.match(TokenElse) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := c.chunk.Len()
	c.consume(TokenLParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(TokenRParen, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) returnStatement() {
	if c.match(TokenSemicolon) {
		c.emitOp(bytecode.OpReturn)
		return
	}
	c.error("Can not return a value from top-level code.")
	c.expression()
	c.consume(TokenSemicolon, "Expect ';' after return value.")
	c.emitOp(bytecode.OpReturn)
}

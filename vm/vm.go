package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/chazu/clockwork/compiler"
	"github.com/chazu/clockwork/pkg/bytecode"
	"github.com/chazu/clockwork/pkg/value"
)

// StackMax is the value stack capacity.
const StackMax = 256

// Result is the terminal outcome of one Interpret call.
type Result int

const (
	ResultOk Result = iota
	ResultCompileError
	ResultRuntimeError
)

func (r Result) String() string {
	switch r {
	case ResultOk:
		return "ok"
	case ResultCompileError:
		return "compile error"
	case ResultRuntimeError:
		return "runtime error"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// VM executes bytecode chunks. One VM owns one string intern table, one
// object list and one globals table; it is not reentrant, but independent
// VMs may run in parallel.
type VM struct {
	chunk *bytecode.Chunk
	ip    int

	stack [StackMax]value.Value
	sp    int

	globals  value.Table
	interner value.Interner

	// Trace prints the stack and each instruction before executing it.
	Trace bool

	// Disasm prints a disassembly of each successfully compiled chunk
	// before running it.
	Disasm bool

	// Stdout receives print output; Stderr receives error reports.
	// They default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// New creates a VM with empty tables and an empty stack.
func New() *VM {
	return &VM{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Free releases every object the VM owns. Must be called exactly once;
// afterwards the VM is equivalent to a fresh one.
func (vm *VM) Free() {
	vm.interner.Free()
	vm.globals.Reset()
	vm.resetStack()
}

// Interpret compiles and runs one source unit.
func (vm *VM) Interpret(source string) Result {
	chunk := bytecode.NewChunk()

	comp := compiler.New(source, chunk, &vm.interner)
	comp.SetErrorWriter(vm.Stderr)
	if !comp.Compile() {
		return ResultCompileError
	}

	if vm.Disasm {
		fmt.Fprint(vm.Stdout, chunk.Disassemble("code"))
	}

	vm.chunk = chunk
	vm.ip = 0
	return vm.run()
}

// run is the fetch-decode-execute loop.
func (vm *VM) run() Result {
	for {
		if vm.Trace {
			vm.traceInstruction()
		}

		opOffset := vm.ip
		op := bytecode.Opcode(vm.readByte())

		switch op {
		case bytecode.OpConstant:
			if !vm.push(vm.readConstant()) {
				return vm.runtimeError(opOffset, "Stack overflow")
			}

		case bytecode.OpNull:
			if !vm.push(value.Null) {
				return vm.runtimeError(opOffset, "Stack overflow")
			}
		case bytecode.OpTrue:
			if !vm.push(value.True) {
				return vm.runtimeError(opOffset, "Stack overflow")
			}
		case bytecode.OpFalse:
			if !vm.push(value.False) {
				return vm.runtimeError(opOffset, "Stack overflow")
			}

		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpDefineGlobal:
			name := vm.readConstant().AsString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case bytecode.OpGetGlobal:
			name := vm.readConstant().AsString()
			val, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError(opOffset, "Undefined variable '%s'.", name.Str)
			}
			if !vm.push(val) {
				return vm.runtimeError(opOffset, "Stack overflow")
			}

		case bytecode.OpSetGlobal:
			name := vm.readConstant().AsString()
			if vm.globals.Set(name, vm.peek(0)) {
				// Set created the binding: the variable did not exist.
				vm.globals.Delete(name)
				return vm.runtimeError(opOffset, "Undefined variable '%s'.", name.Str)
			}

		case bytecode.OpGetLocal:
			slot := vm.readByte()
			if !vm.push(vm.stack[slot]) {
				return vm.runtimeError(opOffset, "Stack overflow")
			}

		case bytecode.OpSetLocal:
			slot := vm.readByte()
			vm.stack[slot] = vm.peek(0)

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.FromBool(value.Equal(a, b)))

		case bytecode.OpNotEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.FromBool(!value.Equal(a, b)))

		case bytecode.OpLess, bytecode.OpLessEqual, bytecode.OpGreater, bytecode.OpGreaterEqual:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError(opOffset, "Operands must be numbers.")
			}
			b := vm.pop().Number()
			a := vm.pop().Number()
			var res bool
			switch op {
			case bytecode.OpLess:
				res = a < b
			case bytecode.OpLessEqual:
				res = a <= b
			case bytecode.OpGreater:
				res = a > b
			case bytecode.OpGreaterEqual:
				res = a >= b
			}
			vm.push(value.FromBool(res))

		case bytecode.OpAdd:
			switch {
			case vm.peek(0).IsString() && vm.peek(1).IsString():
				b := vm.pop().AsString()
				a := vm.pop().AsString()
				s := vm.interner.Concat(a, b)
				vm.push(value.FromObject(&s.Obj))
			case vm.peek(0).IsNumber() && vm.peek(1).IsNumber():
				b := vm.pop().Number()
				a := vm.pop().Number()
				vm.push(value.FromNumber(a + b))
			default:
				return vm.runtimeError(opOffset, "Operands must be two numbers or two strings.")
			}

		case bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError(opOffset, "Operands must be numbers.")
			}
			b := vm.pop().Number()
			a := vm.pop().Number()
			switch op {
			case bytecode.OpSubtract:
				vm.push(value.FromNumber(a - b))
			case bytecode.OpMultiply:
				vm.push(value.FromNumber(a * b))
			case bytecode.OpDivide:
				// Division by zero follows IEEE-754: it yields infinity.
				vm.push(value.FromNumber(a / b))
			}

		case bytecode.OpNot:
			vm.push(value.FromBool(vm.pop().IsFalsey()))

		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError(opOffset, "Operand must be a number.")
			}
			vm.push(value.FromNumber(-vm.pop().Number()))

		case bytecode.OpPrint:
			fmt.Fprintln(vm.Stdout, vm.pop().Format())

		case bytecode.OpJump:
			offset := vm.readUint16()
			vm.ip += int(offset)

		case bytecode.OpJumpIfFalse:
			offset := vm.readUint16()
			if vm.peek(0).IsFalsey() {
				vm.ip += int(offset)
			}

		case bytecode.OpJumpIfTrue:
			offset := vm.readUint16()
			if !vm.peek(0).IsFalsey() {
				vm.ip += int(offset)
			}

		case bytecode.OpLoop:
			offset := vm.readUint16()
			vm.ip -= int(offset)

		case bytecode.OpReturn:
			return ResultOk

		default:
			return vm.runtimeError(opOffset, "Unknown opcode %d", byte(op))
		}
	}
}

// runtimeError reports the message with the source line of the failing
// instruction, resets the stack and aborts execution.
func (vm *VM) runtimeError(opOffset int, format string, args ...interface{}) Result {
	fmt.Fprintf(vm.Stderr, format, args...)
	fmt.Fprintln(vm.Stderr)
	fmt.Fprintf(vm.Stderr, "[line %d] in script\n", vm.chunk.Lines[opOffset])
	vm.resetStack()
	return ResultRuntimeError
}

func (vm *VM) traceInstruction() {
	fmt.Fprint(vm.Stdout, "          ")
	for i := 0; i < vm.sp; i++ {
		fmt.Fprintf(vm.Stdout, "[ %s ]", vm.stack[i].Format())
	}
	fmt.Fprintln(vm.Stdout)
	fmt.Fprintln(vm.Stdout, vm.chunk.DisassembleInstruction(vm.ip))
}

// ---------------------------------------------------------------------------
// Stack and bytecode helpers
// ---------------------------------------------------------------------------

// push reports false on overflow. Instructions with a net stack effect of
// zero may ignore the result: their pushes reuse freshly popped slots.
func (vm *VM) push(v value.Value) bool {
	if vm.sp >= StackMax {
		return false
	}
	vm.stack[vm.sp] = v
	vm.sp++
	return true
}

func (vm *VM) pop() value.Value {
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.sp-1-distance]
}

func (vm *VM) resetStack() {
	vm.sp = 0
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readUint16() uint16 {
	v := vm.chunk.ReadUint16(vm.ip)
	vm.ip += 2
	return v
}

func (vm *VM) readConstant() value.Value {
	return vm.chunk.Constants[vm.readByte()]
}

// StackDepth returns the current stack depth. Exposed for tests that check
// the zero-depth invariant at OP_RETURN.
func (vm *VM) StackDepth() int {
	return vm.sp
}

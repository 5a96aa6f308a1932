package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
type Opcode byte

const (
	// Constants and literals
	OpConstant Opcode = iota // Push constant from pool: OpConstant <index:u8>
	OpNull                   // Push null
	OpTrue                   // Push true
	OpFalse                  // Push false

	// Stack manipulation
	OpPop // Pop top of stack

	// Global variables (late-bound by interned name)
	OpDefineGlobal // Pop and define global: OpDefineGlobal <name:u8>
	OpGetGlobal    // Push global value: OpGetGlobal <name:u8>
	OpSetGlobal    // Store to existing global, value stays: OpSetGlobal <name:u8>

	// Local variables (early-bound to stack slots)
	OpGetLocal // Push stack slot: OpGetLocal <slot:u8>
	OpSetLocal // stack[slot] = peek(0), value stays: OpSetLocal <slot:u8>

	// Equality and comparison
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual

	// Arithmetic
	OpAdd // Numbers add; strings concatenate
	OpSubtract
	OpMultiply
	OpDivide

	// Unary
	OpNot
	OpNegate

	// Output
	OpPrint // Pop and print with trailing newline

	// Control flow; jump operands are 16-bit big-endian displacements
	OpJump        // ip += offset
	OpJumpIfFalse // if falsey(peek) ip += offset; never pops
	OpJumpIfTrue  // if truthy(peek) ip += offset; never pops
	OpLoop        // ip -= offset

	OpReturn // Halt with Ok
)

// OpcodeInfo provides metadata about each opcode for the disassembler and
// for structural validation in tests.
type OpcodeInfo struct {
	Name       string // Human-readable name
	StackPop   int    // How many values popped from stack
	StackPush  int    // How many values pushed to stack
	OperandLen int    // Number of operand bytes following the opcode
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpConstant: {"OP_CONSTANT", 0, 1, 1},
	OpNull:     {"OP_NULL", 0, 1, 0},
	OpTrue:     {"OP_TRUE", 0, 1, 0},
	OpFalse:    {"OP_FALSE", 0, 1, 0},

	OpPop: {"OP_POP", 1, 0, 0},

	OpDefineGlobal: {"OP_DEF_GLOBAL", 1, 0, 1},
	OpGetGlobal:    {"OP_GET_GLOBAL", 0, 1, 1},
	OpSetGlobal:    {"OP_SET_GLOBAL", 1, 1, 1},
	OpGetLocal:     {"OP_GET_LOCAL", 0, 1, 1},
	OpSetLocal:     {"OP_SET_LOCAL", 1, 1, 1},

	OpEqual:        {"OP_EQ", 2, 1, 0},
	OpNotEqual:     {"OP_NOTEQ", 2, 1, 0},
	OpLess:         {"OP_LT", 2, 1, 0},
	OpLessEqual:    {"OP_LTEQ", 2, 1, 0},
	OpGreater:      {"OP_GT", 2, 1, 0},
	OpGreaterEqual: {"OP_GTEQ", 2, 1, 0},

	OpAdd:      {"OP_ADD", 2, 1, 0},
	OpSubtract: {"OP_SUBTRACT", 2, 1, 0},
	OpMultiply: {"OP_MULTIPLY", 2, 1, 0},
	OpDivide:   {"OP_DIVIDE", 2, 1, 0},

	OpNot:    {"OP_NOT", 1, 1, 0},
	OpNegate: {"OP_NEGATE", 1, 1, 0},

	OpPrint: {"OP_PRINT", 1, 0, 0},

	OpJump:        {"OP_JUMP", 0, 0, 2},
	OpJumpIfFalse: {"OP_JUMP_IF_FALSE", 0, 0, 2},
	OpJumpIfTrue:  {"OP_JUMP_IF_TRUE", 0, 0, 2},
	OpLoop:        {"OP_LOOP", 0, 0, 2},

	OpReturn: {"OP_RETURN", 0, 0, 0},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo named "UNKNOWN(0xNN)" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the total length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsJump returns true if this opcode carries a forward jump displacement.
func (op Opcode) IsJump() bool {
	return op == OpJump || op == OpJumpIfFalse || op == OpJumpIfTrue
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

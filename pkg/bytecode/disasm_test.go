package bytecode

import (
	"strings"
	"testing"

	"github.com/chazu/clockwork/pkg/value"
)

func TestDisassembleSimple(t *testing.T) {
	c := NewChunk()
	c.Write(OpNull, 1)
	c.Write(OpReturn, 1)

	out := c.Disassemble("test")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	if lines[0] != "== test ==" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0000    1 OP_NULL") {
		t.Errorf("line 1 = %q", lines[1])
	}
	// Same source line collapses to a pipe.
	if !strings.HasPrefix(lines[2], "0001    | OP_RETURN") {
		t.Errorf("line 2 = %q", lines[2])
	}
}

func TestDisassembleConstant(t *testing.T) {
	c := NewChunk()
	idx, _ := c.AddConstant(value.FromNumber(42))
	c.Write(OpConstant, 3)
	c.WriteByte(idx, 3)

	line := c.DisassembleInstruction(0)
	if !strings.Contains(line, "OP_CONSTANT") || !strings.Contains(line, "'42'") {
		t.Errorf("constant line = %q", line)
	}
}

func TestDisassembleLocalSlot(t *testing.T) {
	c := NewChunk()
	c.Write(OpGetLocal, 1)
	c.WriteByte(3, 1)

	line := c.DisassembleInstruction(0)
	if !strings.Contains(line, "OP_GET_LOCAL") || !strings.Contains(line, "3") {
		t.Errorf("local line = %q", line)
	}
}

func TestDisassembleJumpTargets(t *testing.T) {
	c := NewChunk()
	operand := c.EmitJump(OpJumpIfFalse, 1)
	c.Write(OpPop, 1)
	c.PatchJump(operand)

	line := c.DisassembleInstruction(0)
	// Jump from offset 0 over one byte: lands at 4.
	if !strings.Contains(line, "OP_JUMP_IF_FALSE") || !strings.Contains(line, "-> 4") {
		t.Errorf("jump line = %q", line)
	}
}

func TestDisassembleLoopTarget(t *testing.T) {
	c := NewChunk()
	c.Write(OpPop, 1)
	c.EmitLoop(0, 1)

	line := c.DisassembleInstruction(1)
	if !strings.Contains(line, "OP_LOOP") || !strings.Contains(line, "-> 0") {
		t.Errorf("loop line = %q", line)
	}
}

func TestDisassembleUnknownOpcode(t *testing.T) {
	c := NewChunk()
	c.WriteByte(0xEE, 1)

	line := c.DisassembleInstruction(0)
	if !strings.Contains(line, "Unknown opcode") {
		t.Errorf("unknown line = %q", line)
	}
}

func TestInstructionCount(t *testing.T) {
	c := NewChunk()
	idx, _ := c.AddConstant(value.FromNumber(1))
	c.Write(OpConstant, 1)
	c.WriteByte(idx, 1)
	c.Write(OpPrint, 1)
	c.EmitJump(OpJump, 1)
	c.Write(OpReturn, 1)

	if got := c.InstructionCount(); got != 4 {
		t.Errorf("InstructionCount() = %d, want 4", got)
	}
}

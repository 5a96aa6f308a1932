package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the whole chunk.
func (c *Chunk) Disassemble(name string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	offset := 0
	for offset < len(c.Code) {
		line, next := c.disassembleInstruction(offset)
		sb.WriteString(line)
		sb.WriteByte('\n')
		offset = next
	}
	return sb.String()
}

// DisassembleInstruction returns the listing line for the instruction at
// offset, without the trailing newline.
func (c *Chunk) DisassembleInstruction(offset int) string {
	line, _ := c.disassembleInstruction(offset)
	return line
}

// disassembleInstruction formats one instruction and returns the offset of
// the next one.
func (c *Chunk) disassembleInstruction(offset int) (string, int) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%04d ", offset))

	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", c.Lines[offset]))
	}

	op := Opcode(c.Code[offset])
	info := GetOpcodeInfo(op)

	switch {
	case op == OpConstant || op == OpDefineGlobal || op == OpGetGlobal || op == OpSetGlobal:
		idx := c.Code[offset+1]
		rendered := ""
		if int(idx) < len(c.Constants) {
			rendered = c.Constants[idx].Format()
		}
		sb.WriteString(fmt.Sprintf("%-16s %4d '%s'", info.Name, idx, rendered))
		return sb.String(), offset + 2

	case op == OpGetLocal || op == OpSetLocal:
		slot := c.Code[offset+1]
		sb.WriteString(fmt.Sprintf("%-16s %4d", info.Name, slot))
		return sb.String(), offset + 2

	case op.IsJump():
		delta := int(c.ReadUint16(offset + 1))
		sb.WriteString(fmt.Sprintf("%-16s %4d -> %d", info.Name, delta, offset+3+delta))
		return sb.String(), offset + 3

	case op == OpLoop:
		delta := int(c.ReadUint16(offset + 1))
		sb.WriteString(fmt.Sprintf("%-16s %4d -> %d", info.Name, delta, offset+3-delta))
		return sb.String(), offset + 3

	default:
		if _, known := opcodeInfoTable[op]; !known {
			sb.WriteString(fmt.Sprintf("Unknown opcode %d", byte(op)))
			return sb.String(), offset + 1
		}
		sb.WriteString(info.Name)
		return sb.String(), offset + 1
	}
}

// InstructionCount returns the number of instructions in the chunk.
// Note: this iterates through all code, so it's O(n).
func (c *Chunk) InstructionCount() int {
	count := 0
	offset := 0
	for offset < len(c.Code) {
		offset += Opcode(c.Code[offset]).InstructionLen()
		count++
	}
	return count
}

// Package bytecode defines the compiled form shared by the Clockwork
// compiler and virtual machine.
//
// The format is designed for:
//   - Compact representation (one opcode byte, at most two operand bytes)
//   - Fast decoding (fixed-width opcodes, simple operand formats)
//   - Cheap source mapping (a line array parallel to the code array)
//
// The central type is Chunk: an instruction stream, a parallel line array
// used for error reporting, and a constant pool of up to 256 values
// addressed by a single operand byte. Jump instructions carry 16-bit
// big-endian displacements; forward jumps are emitted with a placeholder
// and patched once the target is known, backward jumps are encoded as a
// subtraction so loops need no patching.
//
// Chunks live only for the duration of one interpret call. They are never
// serialized or shared between processes.
package bytecode

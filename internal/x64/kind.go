// Package x64 is the 32-bit x86-like target: its node-kind extension of
// internal/ir's numbering space, physical register names, and the
// selection rules/builders that turn generic sea-of-nodes values into
// target instructions. Grounded on original_source/cringe/back/x64.c;
// x64_isa.h (the real per-instruction formatting tables) was not present
// in the retrieved source, so the concrete instruction shapes below are
// freshly authored to the same naming and field conventions.
package x64

import "github.com/seaopt/seac/internal/ir"

// Target node kinds, appended after ir.FirstTargetKind the way
// internal/_teacher_ssa's per-arch ops extend the generic op list.
const (
	MOV32_RI ir.Kind = ir.FirstTargetKind + iota // dst = imm
	MOV32_RR                                     // dst = src
	MOV32_RM                                     // dst = [base + disp]
	MOV32_MR                                     // [base + disp] = src
	MOV32_MI                                     // [base + disp] = imm
	ADD32_RI                                     // dst += imm
	ADD32_RR                                     // dst += src
	SUB32_RR                                     // dst -= src
	MUL32_RR                                     // dst *= src (signed, one register form)
	IDIV32_RR                                    // edx:eax / src -> eax, edx (fixed-register sequence)
	CMP32_RR                                     // dst = (lhs <op> rhs) ? 1 : 0; Payload carries the ir.CmpOp
	KILL32                                       // marks a fixed physical register clobbered, no value
	BRANCH32                                     // conditional two-way terminator on a 0/1 predicate register (test, jz, jmp)
	END32                                        // function terminator, lowers to ret
)

func init() {
	ir.RegisterNames(map[ir.Kind]string{
		MOV32_RI:  "X64_MOV32_RI",
		MOV32_RR:  "X64_MOV32_RR",
		MOV32_RM:  "X64_MOV32_RM",
		MOV32_MR:  "X64_MOV32_MR",
		MOV32_MI:  "X64_MOV32_MI",
		ADD32_RI:  "X64_ADD32_RI",
		ADD32_RR:  "X64_ADD32_RR",
		SUB32_RR:  "X64_SUB32_RR",
		MUL32_RR:  "X64_MUL32_RR",
		IDIV32_RR: "X64_IDIV32_RR",
		CMP32_RR:  "X64_CMP32_RR",
		KILL32:    "X64_KILL32",
		BRANCH32:  "X64_BRANCH32",
		END32:     "X64_END32",
	})
}

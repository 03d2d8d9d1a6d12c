package x64

import (
	"github.com/seaopt/seac/internal/ir"
	"github.com/seaopt/seac/internal/sel"
)

// Builders are the hand-written analogue of x64.c's targ_node_* functions:
// the one part of selection that is not data-driven. Each is registered
// against the output op its rule in rules.txt names, and receives the
// bindings that rule's input pattern recorded when it matched.
func init() {
	sel.Register("MOV32_RI", buildMov32RI)
	sel.Register("ADD32_RI", buildAdd32RI)
	sel.Register("ADD32_RR", buildBinRR(ADD32_RR))
	sel.Register("SUB32_RR", buildBinRR(SUB32_RR))
	sel.Register("MUL32_RR", buildBinRR(MUL32_RR))
	sel.Register("IDIV32_RR", buildBinRR(IDIV32_RR))
	sel.Register("CMP32_RR", buildCmp32RR)
	sel.Register("MOV32_RM", buildMov32RM)
	sel.Register("MOV32_MI", buildMov32MI)
	sel.Register("MOV32_MR", buildMov32MR)
	sel.Register("BRANCH32", buildBranch32)
	sel.Register("END32", buildEnd32)
}

func buildMov32RI(c *sel.Context, node *ir.Node, bindings map[string]*ir.Node) *ir.Node {
	n := ir.NewTargetNode(c.Dst, MOV32_RI, 0, ir.IsLeaf)
	n.Payload = node.Payload
	return n
}

func buildAdd32RI(c *sel.Context, node *ir.Node, bindings map[string]*ir.Node) *ir.Node {
	n := ir.NewTargetNode(c.Dst, ADD32_RI, 1, 0)
	c.MapInput(n, 0, bindings["lhs"])
	n.Payload = bindings["rhs"].Payload
	return n
}

// buildBinRR returns a builder for a plain two-operand register-form
// instruction: the two bound operands become the node's two inputs, in
// the order the rule bound them.
func buildBinRR(kind ir.Kind) sel.BuildFunc {
	return func(c *sel.Context, node *ir.Node, bindings map[string]*ir.Node) *ir.Node {
		n := ir.NewTargetNode(c.Dst, kind, 2, 0)
		c.MapInput(n, 0, bindings["lhs"])
		c.MapInput(n, 1, bindings["rhs"])
		return n
	}
}

// buildCmp32RR keeps the same two-input shape as buildBinRR but, unlike a
// plain arithmetic op, also needs the source CMP node's Payload (which
// ir.CmpOp the comparison performs) carried onto the selected instruction.
func buildCmp32RR(c *sel.Context, node *ir.Node, bindings map[string]*ir.Node) *ir.Node {
	n := ir.NewTargetNode(c.Dst, CMP32_RR, 2, 0)
	c.MapInput(n, 0, bindings["lhs"])
	c.MapInput(n, 1, bindings["rhs"])
	n.Payload = node.Payload
	return n
}

// MOV32_RM, MOV32_MI and MOV32_MR all carry their incoming memory chain as
// input 0, even though the instruction itself only reads or writes one
// value: dropping that edge would leave a preceding store unreachable from
// the selected function's End and let the scheduler reorder past it.

func buildMov32RM(c *sel.Context, node *ir.Node, bindings map[string]*ir.Node) *ir.Node {
	n := ir.NewTargetNode(c.Dst, MOV32_RM, 2, ir.ReadsMemory)
	c.MapInput(n, 0, bindings["chain"])
	c.MapInput(n, 1, bindings["ptr"])
	return n
}

func buildMov32MI(c *sel.Context, node *ir.Node, bindings map[string]*ir.Node) *ir.Node {
	n := ir.NewTargetNode(c.Dst, MOV32_MI, 2, ir.ProducesMemory)
	c.MapInput(n, 0, bindings["chain"])
	c.MapInput(n, 1, bindings["ptr"])
	n.Payload = bindings["val"].Payload
	return n
}

func buildMov32MR(c *sel.Context, node *ir.Node, bindings map[string]*ir.Node) *ir.Node {
	n := ir.NewTargetNode(c.Dst, MOV32_MR, 3, ir.ProducesMemory)
	c.MapInput(n, 0, bindings["chain"])
	c.MapInput(n, 1, bindings["ptr"])
	c.MapInput(n, 2, bindings["val"])
	return n
}

// BRANCH32 and END32 both carry their control predecessor as input 0, even
// though x64.c's terminators only ever read a predicate or a value: that
// edge is what lets the scheduler find which block a terminator closes
// (Block.Terminator is found by matching Inputs[0] against the block's
// anchor) — dropping it would orphan the control edge back to START/REGION
// the same way dropping the memory chain orphaned stores.

func buildBranch32(c *sel.Context, node *ir.Node, bindings map[string]*ir.Node) *ir.Node {
	n := ir.NewTargetNode(c.Dst, BRANCH32, 2, ir.IsCfg|ir.IsPinned)
	c.MapInput(n, 0, bindings["ctrl"])
	c.MapInput(n, 1, bindings["pred"])
	return n
}

func buildEnd32(c *sel.Context, node *ir.Node, bindings map[string]*ir.Node) *ir.Node {
	n := ir.NewTargetNode(c.Dst, END32, 3, ir.IsCfg|ir.IsPinned|ir.ReadsMemory)
	c.MapInput(n, 0, bindings["ctrl"])
	c.MapInput(n, 1, bindings["chain"])
	c.MapInput(n, 2, bindings["val"])
	return n
}

// Package emit lowers a scheduled function (internal/sched) into a textual
// assembly listing for the 32-bit x86-like target. Grounded on
// spec.md §4.5 (no literal emitter source survived in original_source/cringe
// for this stage, only x64.c's gen/fixed-register conventions), it walks
// blocks in dominator-tree pre-order, assigns virtual registers to every
// value as it is generated, resolves phis in a second pass once every
// block's instructions exist, and finishes with an iterative live-out
// dataflow pass used only to annotate the listing (no register allocator
// exists on top of it; spec.md §6 keeps physical allocation out of scope).
package emit

import (
	"fmt"
	"strings"

	"github.com/seaopt/seac/internal/arena"
	"github.com/seaopt/seac/internal/diag"
	"github.com/seaopt/seac/internal/ir"
	"github.com/seaopt/seac/internal/sched"
	"github.com/seaopt/seac/internal/x64"
)

// scratch backs the nested acquire/release region Emit holds for the
// lifetime of one call, per internal/arena's contract.
var scratch = arena.NewScratchStack()

// Instr is one generated instruction. Pseudo instructions (KILL32) carry no
// text and exist only to feed the live-out dataflow pass.
type Instr struct {
	Text   string
	Def    x64.Reg
	HasDef bool
	Uses   []x64.Reg
	Pseudo bool
}

// MachBlock is one block's generated code: ordinary instructions followed
// by its terminator sequence, kept separate so phi resolution can splice a
// copy in immediately before the terminator without rescanning Body.
type MachBlock struct {
	Label   string
	Body    []Instr
	Term    []Instr
	LiveOut []x64.Reg

	src   *sched.Block
	succs []*MachBlock
}

// Program is a whole function's generated code, one MachBlock per
// recovered basic block, in the order Emit visited them.
type Program struct {
	Blocks []*MachBlock
}

// ctx carries the state threaded through one Emit call: per-node register
// and stack-slot assignments, the phi worklist for the second pass, and the
// block currently being generated into.
type ctx struct {
	regOf    map[*ir.Node]x64.Reg
	slotOf   map[*ir.Node]int
	nextVReg int
	nextSlot int

	machOf map[*sched.Block]*MachBlock
	phis   []phiSite

	cur *MachBlock
}

// phiSite remembers a PHI node's reserved register for the resolution pass
// that runs once every block has been generated.
type phiSite struct {
	node   *ir.Node
	reg    x64.Reg
	block  *MachBlock
	region *ir.Node
}

// Emit runs code generation over f's scheduled blocks, returning the
// generated program. f must already be a selected, scheduled function (the
// output of sel.Select followed by sched.Schedule).
func Emit(f *ir.Function, blocks []*sched.Block) *Program {
	sc := scratch.Get()
	defer sc.Release()

	c := &ctx{
		regOf:  map[*ir.Node]x64.Reg{},
		slotOf: map[*ir.Node]int{},
		machOf: map[*sched.Block]*MachBlock{},
	}
	c.nextVReg = int(x64.FirstVR)

	order := sched.DomTreePreorder(blocks)
	prog := &Program{}
	for _, b := range order {
		mb := &MachBlock{Label: fmt.Sprintf("bb_%d", b.ID), src: b}
		c.machOf[b] = mb
		prog.Blocks = append(prog.Blocks, mb)
	}
	for _, b := range order {
		mb := c.machOf[b]
		for _, s := range b.Succs {
			mb.succs = append(mb.succs, c.machOf[s])
		}
	}

	for _, b := range order {
		c.cur = c.machOf[b]
		for _, n := range b.Instructions {
			c.gen(n)
		}
		c.genTerminator(b)
	}

	c.resolvePhis()
	computeLiveOut(prog)

	return prog
}

// freshReg hands out the next virtual register.
func (c *ctx) freshReg() x64.Reg {
	r := x64.Reg(c.nextVReg)
	c.nextVReg++
	return r
}

// emit appends instr to the block currently being generated.
func (c *ctx) emit(instr Instr) {
	c.cur.Body = append(c.cur.Body, instr)
}

// operand renders n's value as an instruction operand: a constant that
// selection materialized as MOV32_RI is inlined as a literal immediate
// rather than referencing a register, since such a node is never itself
// generated (gen skips MOV32_RI entirely, the same way it skips PHI and
// ALLOCA) — every use rematerializes the constant instead of keeping it
// alive across an instruction boundary just to avoid a repeated immediate.
func (c *ctx) operand(n *ir.Node) string {
	if n.Kind == x64.MOV32_RI {
		return fmt.Sprintf("%d", n.Payload.Const)
	}
	r, ok := c.regOf[n]
	if !ok {
		diag.Fail("emit: operand %s has no assigned register at point of use", n)
	}
	return r.Name()
}

// reg returns n's assigned register, assuming n is known to produce one
// (operand already ruled out the inlined-constant case).
func (c *ctx) reg(n *ir.Node) x64.Reg {
	r, ok := c.regOf[n]
	if !ok {
		diag.Fail("emit: value %s has no assigned register", n)
	}
	return r
}

// memOperand renders the address a load or store targets: a stack slot for
// an ALLOCA, matched against the emitter's spec.md §4.5 convention that
// stack-slot ids are invented here, not carried on the node.
func (c *ctx) memOperand(ptr *ir.Node) string {
	if ptr.Kind == ir.ALLOCA {
		slot, ok := c.slotOf[ptr]
		if !ok {
			slot = c.nextSlot
			c.nextSlot++
			c.slotOf[ptr] = slot
		}
		return fmt.Sprintf("STACK%d", slot)
	}
	return "[" + c.operand(ptr) + "]"
}

// gen dispatches one scheduled node to its lowering. ALLOCA, PHI and
// MOV32_RI never produce an instruction: ALLOCA only reserves a stack
// slot (lazily, on first use, via memOperand), a value PHI only reserves a
// register remembered for the resolution pass (a memory PHI, which merges
// store chains rather than values, gets neither a register nor copies),
// and MOV32_RI is always inlined at its point of use instead of
// materialized on its own.
func (c *ctx) gen(n *ir.Node) {
	switch n.Kind {
	case ir.ALLOCA, x64.MOV32_RI:
		return
	case ir.PHI:
		if n.Flags.Has(ir.ProducesMemory) {
			return
		}
		reg := c.freshReg()
		c.regOf[n] = reg
		c.phis = append(c.phis, phiSite{node: n, reg: reg, block: c.cur, region: n.Inputs[0]})
		return
	}

	switch n.Kind {
	case x64.ADD32_RI:
		dst := c.freshReg()
		c.emit(Instr{Text: "mov " + dst.Name() + ", " + c.operand(n.Inputs[0]), Def: dst, HasDef: true, Uses: regUses(c, n.Inputs[0])})
		c.emit(Instr{Text: fmt.Sprintf("add %s, %d", dst.Name(), n.Payload.Const), Def: dst, HasDef: true, Uses: []x64.Reg{dst}})
		c.regOf[n] = dst
	case x64.ADD32_RR, x64.SUB32_RR, x64.MUL32_RR:
		mnemonic := map[ir.Kind]string{x64.ADD32_RR: "add", x64.SUB32_RR: "sub", x64.MUL32_RR: "imul"}[n.Kind]
		dst := c.freshReg()
		lhs, rhs := n.Inputs[0], n.Inputs[1]
		c.emit(Instr{Text: "mov " + dst.Name() + ", " + c.operand(lhs), Def: dst, HasDef: true, Uses: regUses(c, lhs)})
		c.emit(Instr{Text: mnemonic + " " + dst.Name() + ", " + c.operand(rhs), Def: dst, HasDef: true, Uses: append([]x64.Reg{dst}, regUses(c, rhs)...)})
		c.regOf[n] = dst
	case x64.IDIV32_RR:
		lhs, rhs := n.Inputs[0], n.Inputs[1]
		c.emit(Instr{Text: "mov eax, " + c.operand(lhs), Def: x64.PR_EAX, HasDef: true, Uses: regUses(c, lhs)})
		c.emit(Instr{Text: "cdq", Def: x64.PR_EDX, HasDef: true, Uses: []x64.Reg{x64.PR_EAX}})
		c.emit(Instr{Text: "idiv " + c.operand(rhs), Uses: append([]x64.Reg{x64.PR_EAX, x64.PR_EDX}, regUses(c, rhs)...)})
		c.emit(Instr{Pseudo: true, Def: x64.PR_EDX, HasDef: true})
		dst := c.freshReg()
		c.emit(Instr{Text: "mov " + dst.Name() + ", eax", Def: dst, HasDef: true, Uses: []x64.Reg{x64.PR_EAX}})
		c.regOf[n] = dst
	case x64.CMP32_RR:
		lhs, rhs := n.Inputs[0], n.Inputs[1]
		dst := c.freshReg()
		setcc := map[ir.CmpOp]string{
			ir.CmpEQ: "sete", ir.CmpNE: "setne",
			ir.CmpLT: "setl", ir.CmpLE: "setle",
			ir.CmpGT: "setg", ir.CmpGE: "setge",
		}[ir.CmpOp(n.Payload.Const)]
		c.emit(Instr{Text: "cmp " + c.operand(lhs) + ", " + c.operand(rhs), Uses: append(regUses(c, lhs), regUses(c, rhs)...)})
		c.emit(Instr{Text: setcc + " " + dst.Name(), Def: dst, HasDef: true})
		c.regOf[n] = dst
	case x64.MOV32_RM:
		ptr := n.Inputs[1]
		dst := c.freshReg()
		c.emit(Instr{Text: "mov " + dst.Name() + ", " + c.memOperand(ptr), Def: dst, HasDef: true})
		c.regOf[n] = dst
	case x64.MOV32_MI:
		ptr := n.Inputs[1]
		c.emit(Instr{Text: fmt.Sprintf("mov %s, %d", c.memOperand(ptr), n.Payload.Const)})
	case x64.MOV32_MR:
		ptr, val := n.Inputs[1], n.Inputs[2]
		c.emit(Instr{Text: "mov " + c.memOperand(ptr) + ", " + c.operand(val), Uses: regUses(c, val)})
	default:
		diag.Fail("emit: node %s reached gen with no lowering", n)
	}
}

// regUses returns n's register as a one-element use list, or nil if n is
// an inlined constant that never occupies a register.
func regUses(c *ctx, n *ir.Node) []x64.Reg {
	if n.Kind == x64.MOV32_RI {
		return nil
	}
	return []x64.Reg{c.reg(n)}
}

// genTerminator lowers b's terminator into c.cur.Term. A block with no
// terminator node falls through to its single successor and gets one
// unconditional jump to it; a block with neither a terminator nor a
// successor gets no terminator instructions.
func (c *ctx) genTerminator(b *sched.Block) {
	t := b.Terminator
	if t == nil {
		if len(b.Succs) == 1 {
			c.cur.Term = append(c.cur.Term, Instr{Text: "jmp " + c.machOf[b.Succs[0]].Label})
		}
		return
	}
	switch t.Kind {
	case x64.BRANCH32:
		pred := t.Inputs[1]
		var trueAnchor, falseAnchor *ir.Node
		for _, u := range t.Uses() {
			switch u.User.Kind {
			case ir.BRANCH_TRUE:
				trueAnchor = u.User
			case ir.BRANCH_FALSE:
				falseAnchor = u.User
			}
		}
		predText := c.operand(pred)
		c.cur.Term = append(c.cur.Term,
			Instr{Text: "test " + predText + ", " + predText, Uses: regUses(c, pred)},
			Instr{Text: "jz " + c.labelFor(b, falseAnchor)},
			Instr{Text: "jmp " + c.labelFor(b, trueAnchor)},
		)
	case x64.END32:
		val := t.Inputs[2]
		c.cur.Term = append(c.cur.Term,
			Instr{Text: "mov eax, " + c.operand(val), Def: x64.PR_EAX, HasDef: true, Uses: regUses(c, val)},
			Instr{Text: "ret"},
		)
	default:
		diag.Fail("emit: unrecognized terminator kind %s", t)
	}
}

// labelFor resolves anchor to its block's label among b's successors.
func (c *ctx) labelFor(b *sched.Block, anchor *ir.Node) string {
	for _, s := range b.Succs {
		if s.Anchor == anchor {
			return c.machOf[s].Label
		}
	}
	diag.Fail("emit: terminator successor %s not found among block %s's recovered successors", anchor, b)
	return ""
}

// resolvePhis runs the second pass spec.md §4.5 describes: for every phi,
// a fresh temp is copied from each predecessor's arm value immediately
// before that predecessor's terminator, and the phi's own register is
// loaded from that temp at the top of its block. This can only run after
// every block is generated, since a phi's value inputs may live in blocks
// visited later in dominator-tree pre-order than the phi's own merge block.
func (c *ctx) resolvePhis() {
	for _, p := range c.phis {
		head := []Instr{}
		for i, pred := range p.region.Inputs {
			val := p.node.Inputs[1+i]
			predBlock := c.machOf[c.blockOfAnchor(pred)]
			if predBlock == nil {
				diag.Fail("emit: phi predecessor %s has no recovered block", pred)
			}
			temp := c.freshReg()
			copyInstr := Instr{Text: "mov " + temp.Name() + ", " + c.operand(val), Def: temp, HasDef: true, Uses: regUses(c, val)}
			predBlock.Body = append(predBlock.Body, copyInstr)
			head = append(head, Instr{Text: "mov " + p.reg.Name() + ", " + temp.Name(), Def: p.reg, HasDef: true, Uses: []x64.Reg{temp}})
		}
		p.block.Body = append(head, p.block.Body...)
	}
}

func (c *ctx) blockOfAnchor(anchor *ir.Node) *sched.Block {
	for b := range c.machOf {
		if b.Anchor == anchor {
			return b
		}
	}
	return nil
}

// String renders prog in the textual format spec.md §4.5 describes: one
// "bb_<id>:" line, a live-out dump, then the block's instructions indented,
// virtual registers percent-prefixed in the live-out line and bare
// elsewhere, physical registers by name, stack slots as "STACK<n>".
func (p *Program) String() string {
	var sb strings.Builder
	for _, b := range p.Blocks {
		fmt.Fprintf(&sb, "%s:\n", b.Label)
		fmt.Fprintf(&sb, "  live-out:")
		for _, r := range b.LiveOut {
			if r < x64.FirstVR {
				fmt.Fprintf(&sb, " %s", r.Name())
			} else {
				fmt.Fprintf(&sb, " %%%s", r.Name())
			}
		}
		sb.WriteString("\n")
		for _, in := range b.Body {
			if in.Pseudo {
				continue
			}
			fmt.Fprintf(&sb, "    %s\n", in.Text)
		}
		for _, in := range b.Term {
			fmt.Fprintf(&sb, "    %s\n", in.Text)
		}
	}
	return sb.String()
}

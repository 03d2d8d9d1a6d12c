package sched

import (
	"strconv"

	"github.com/seaopt/seac/internal/arena"
	"github.com/seaopt/seac/internal/ir"
)

// scratch backs the nested acquire/release region Schedule holds for the
// lifetime of one call, per internal/arena's contract.
var scratch = arena.NewScratchStack()

// Schedule recovers f's block structure and places every value into a
// block, returning the blocks in entry-first discovery order, each with
// its Instructions slice populated in emission-ready order.
func Schedule(f *ir.Function) []*Block {
	sc := scratch.Get()
	defer sc.Release()

	blocks := BuildBlocks(f)
	Place(f, blocks)
	return blocks
}

// String renders a block's anchor kind and id, for fault messages and
// test output.
func (b *Block) String() string {
	return b.Anchor.Kind.String() + "#" + strconv.Itoa(b.ID)
}

// IDom returns b's immediate dominator (b itself for the entry block).
func (b *Block) IDom() *Block { return b.idom }

// Depth returns b's depth in the dominator tree (0 for the entry block).
func (b *Block) Depth() int { return b.depth }

// DomTreePreorder returns blocks in dominator-tree pre-order, the order
// internal/emit's code generation pass requires (spec.md §4.5): a block is
// always visited after every block that dominates it.
func DomTreePreorder(blocks []*Block) []*Block {
	if len(blocks) == 0 {
		return nil
	}
	children := map[*Block][]*Block{}
	for _, b := range blocks[1:] {
		children[b.idom] = append(children[b.idom], b)
	}
	var order []*Block
	var visit func(*Block)
	visit = func(b *Block) {
		order = append(order, b)
		for _, c := range children[b] {
			visit(c)
		}
	}
	visit(blocks[0])
	return order
}

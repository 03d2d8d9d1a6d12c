package sched

import "github.com/seaopt/seac/internal/worklist"

// computeDominators fills in each block's immediate dominator and depth
// using the textbook iterative dominator-set fixpoint, each block's
// dominator set held as a worklist.Bits indexed by Block.ID rather than a
// map[*Block]bool: a function's handful of blocks never need
// internal/_teacher_ssa/sparsetreemap.go's interval-numbered sparse
// ancestor queries (those require the dominator tree to already exist,
// which is exactly what this fixpoint is computing), but the bitset
// representation it reaches for carries over directly. blocks[0] must be
// the entry block.
func computeDominators(blocks []*Block) {
	if len(blocks) == 0 {
		return
	}
	entry := blocks[0]
	n := len(blocks)

	dom := make([]*worklist.Bits, n)
	all := worklist.NewBits(n)
	for _, b := range blocks {
		all.Set(b.ID)
	}
	dom[entry.ID] = worklist.NewBits(n)
	dom[entry.ID].Set(entry.ID)
	for _, b := range blocks[1:] {
		dom[b.ID] = all.Clone()
	}

	changed := true
	for changed {
		changed = false
		for _, b := range blocks[1:] {
			var inter *worklist.Bits
			for _, p := range b.Preds {
				if inter == nil {
					inter = dom[p.ID].Clone()
				} else {
					inter = intersectBits(inter, dom[p.ID])
				}
			}
			if inter == nil {
				inter = worklist.NewBits(n)
			}
			inter.Set(b.ID)
			if !inter.Equal(dom[b.ID]) {
				dom[b.ID] = inter
				changed = true
			}
		}
	}

	entry.idom = entry
	entry.depth = 0
	for _, b := range blocks[1:] {
		b.idom = immediateDominator(b, dom[b.ID], dom, blocks)
	}
	for _, b := range blocks[1:] {
		depthOf(b)
	}
}

func intersectBits(a, b *worklist.Bits) *worklist.Bits {
	out := a.Clone()
	out.IntersectWith(b)
	return out
}

func depthOf(b *Block) int {
	if b.depth != 0 || b.idom == b {
		return b.depth
	}
	b.depth = depthOf(b.idom) + 1
	return b.depth
}

// immediateDominator picks b's immediate dominator: among b's strict
// dominators, the chain ordered by the subset relation means the one with
// the largest dominator set is dominated by every other strict dominator
// of b, and so is the closest one.
func immediateDominator(b *Block, doms *worklist.Bits, dom []*worklist.Bits, blocks []*Block) *Block {
	var best *Block
	var bestCount int
	doms.Each(func(id int) {
		if id == b.ID {
			return
		}
		d := blocks[id]
		if count := popcount(dom[id]); best == nil || count > bestCount {
			best, bestCount = d, count
		}
	})
	if best == nil {
		return b
	}
	return best
}

func popcount(b *worklist.Bits) int {
	n := 0
	b.Each(func(int) { n++ })
	return n
}

// dominates reports whether a dominates b (inclusive), walking b's idom
// chain.
func dominates(a, b *Block) bool {
	for {
		if b == a {
			return true
		}
		if b.idom == b {
			return false
		}
		b = b.idom
	}
}

// lca returns the lowest common ancestor of a and b in the dominator tree.
func lca(a, b *Block) *Block {
	for a != b {
		for a.depth > b.depth {
			a = a.idom
		}
		for b.depth > a.depth {
			b = b.idom
		}
		if a != b {
			a, b = a.idom, b.idom
		}
	}
	return a
}

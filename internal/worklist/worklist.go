// Package worklist implements the container primitives the optimizer,
// selector, scheduler and emitter share: a sparse/packed worklist with
// O(1) add/remove/pop/contains, a reusable post-order traversal stack, and
// an id-indexed bitset built on github.com/willf/bitset.
package worklist

import "github.com/willf/bitset"

// Sparse is a sparse/packed worklist of dense integer ids, as described by
// the optimizer's design: a packed sequence of ids plus an id-indexed
// sparse array giving each id's position in the packed sequence (or -1).
// Duplicates are rejected; all operations are O(1) amortized.
type Sparse struct {
	packed []int
	sparse []int // sparse[id] = index into packed, or -1
}

// NewSparse returns an empty worklist.
func NewSparse() *Sparse {
	return &Sparse{}
}

// Reset clears the worklist for reuse across functions without
// reallocating its backing arrays.
func (w *Sparse) Reset() {
	w.packed = w.packed[:0]
	for i := range w.sparse {
		w.sparse[i] = -1
	}
}

func (w *Sparse) growSparse(id int) {
	for id >= len(w.sparse) {
		w.sparse = append(w.sparse, -1)
	}
}

// Add enqueues id if it is not already present. Returns true if it was
// added.
func (w *Sparse) Add(id int) bool {
	w.growSparse(id)
	if w.sparse[id] != -1 {
		return false
	}
	w.sparse[id] = len(w.packed)
	w.packed = append(w.packed, id)
	return true
}

// Remove dequeues id if present, swapping the last packed entry into its
// slot. Returns true if id was present.
func (w *Sparse) Remove(id int) bool {
	if id >= len(w.sparse) || w.sparse[id] == -1 {
		return false
	}
	idx := w.sparse[id]
	last := w.packed[len(w.packed)-1]
	w.packed[idx] = last
	w.packed = w.packed[:len(w.packed)-1]
	w.sparse[last] = idx
	w.sparse[id] = -1
	return true
}

// Pop removes and returns the most recently added id (LIFO), matching the
// optimizer's "drain the worklist in pop order" contract.
func (w *Sparse) Pop() int {
	n := len(w.packed) - 1
	id := w.packed[n]
	w.packed = w.packed[:n]
	w.sparse[id] = -1
	return id
}

// Empty reports whether the worklist has no entries.
func (w *Sparse) Empty() bool {
	return len(w.packed) == 0
}

// Contains reports whether id is currently enqueued.
func (w *Sparse) Contains(id int) bool {
	return id < len(w.sparse) && w.sparse[id] != -1
}

// Len reports the number of queued entries.
func (w *Sparse) Len() int {
	return len(w.packed)
}

// Bits is an id-indexed bitset, used for DSE coloring, selector root-set
// membership, the scheduler's per-block dominator sets and the emitter's
// liveness sets.
type Bits struct {
	b *bitset.BitSet
}

// NewBits returns an empty bitset sized for at least n ids.
func NewBits(n int) *Bits {
	return &Bits{b: bitset.New(uint(n))}
}

// Set marks id as present.
func (b *Bits) Set(id int) { b.b.Set(uint(id)) }

// Clear marks id as absent.
func (b *Bits) Clear(id int) { b.b.Clear(uint(id)) }

// Test reports whether id is present.
func (b *Bits) Test(id int) bool { return b.b.Test(uint(id)) }

// Clone returns an independent copy of b, used by the scheduler's
// dominator-set fixpoint and the emitter's live-out fixpoint to snapshot a
// set before mutating it in place.
func (b *Bits) Clone() *Bits { return &Bits{b: b.b.Clone()} }

// UnionWith ORs other into b in place, the set-union step of the emitter's
// LiveOut(n) = ⋃ over succ of UEVar(succ) ∪ (LiveOut(succ) \ VarKill(succ))
// fixpoint.
func (b *Bits) UnionWith(other *Bits) { b.b.InPlaceUnion(other.b) }

// IntersectWith ANDs other into b in place, the meet operator the
// scheduler's dominator-set fixpoint applies across a block's predecessors.
func (b *Bits) IntersectWith(other *Bits) { b.b.InPlaceIntersection(other.b) }

// SubtractInto clears every bit other has set, the "\ VarKill(succ)" step
// of the same fixpoint.
func (b *Bits) SubtractInto(other *Bits) { b.b.InPlaceDifference(other.b) }

// Equal reports whether b and other have the same members, used to detect
// a fixpoint's convergence.
func (b *Bits) Equal(other *Bits) bool { return b.b.Equal(other.b) }

// Each calls fn once per member id, in ascending order.
func (b *Bits) Each(fn func(id int)) {
	for i, ok := b.b.NextSet(0); ok; i, ok = b.b.NextSet(i + 1) {
		fn(int(i))
	}
}

// StackItem pairs a node id with a "processed" flag, used by the DFS
// traversals in the optimizer's load-forwarding idealizer and the
// selector's post-order subtree walk, replacing call-stack recursion with
// an explicit worklist.
type StackItem struct {
	Processed bool
	Node      int
}

// Stack is a reusable LIFO stack of StackItems.
type Stack struct {
	items []StackItem
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Reset empties the stack for reuse.
func (s *Stack) Reset() {
	s.items = s.items[:0]
}

// Push adds an item to the top of the stack.
func (s *Stack) Push(item StackItem) {
	s.items = append(s.items, item)
}

// Pop removes and returns the top item.
func (s *Stack) Pop() StackItem {
	n := len(s.items) - 1
	item := s.items[n]
	s.items = s.items[:n]
	return item
}

// Empty reports whether the stack has no items.
func (s *Stack) Empty() bool {
	return len(s.items) == 0
}

// Len reports the number of items on the stack.
func (s *Stack) Len() int {
	return len(s.items)
}

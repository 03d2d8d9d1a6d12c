// Package arena implements the bump-allocated region and scratch-region
// discipline described by the backend's resource model: a Function's nodes
// all live in one Arena, freed in one step, and every optimizer/selector/
// scheduler/emitter entry point acquires a Scratch region and releases it
// on every exit path.
//
// Go is garbage collected, so this package does not manage raw memory the
// way the teacher's C ancestor does. It keeps two parts of that contract:
// bulk ownership (Arena is a growable slot table a Function stores its
// nodes in) and nested acquire/release that must unwind in reverse order
// (ScratchStack tracks only the nesting depth). It pools no memory and has
// no reset operation; the passes allocate their own maps, stacks and
// worklists.
package arena

import "github.com/seaopt/seac/internal/diag"

// Arena is a bump-allocated region. A Function owns exactly one; all of
// its nodes are allocated from it. Dropping the Arena (letting it become
// garbage) frees the function.
type Arena struct {
	nodes []interface{}
}

// New returns a fresh, empty Arena.
func New() *Arena {
	return &Arena{}
}

// Alloc reserves the next slot in the arena and returns its index. Callers
// store their own typed value in the slot via Set; this indirection lets
// Function keep a single growable node table instead of many small
// allocations.
func (a *Arena) Alloc() int {
	id := len(a.nodes)
	a.nodes = append(a.nodes, nil)
	return id
}

// Set stores v at the slot returned by a previous Alloc.
func (a *Arena) Set(id int, v interface{}) {
	a.nodes[id] = v
}

// Get retrieves the value stored at id.
func (a *Arena) Get(id int) interface{} {
	return a.nodes[id]
}

// Len reports how many slots have been allocated.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// Scratch is a reusable, nestable temporary region. Each entry point in
// the optimizer/selector/scheduler/emitter acquires one with Get and
// releases it with Release on every exit path, including panics recovered
// higher up the stack.
type Scratch struct {
	stack *ScratchStack
	depth int
}

// ScratchStack tracks nested scratch acquisitions for one compiler run.
// Acquisitions must be released in reverse (LIFO) order; releasing out of
// order is a programmer error.
type ScratchStack struct {
	depth int
}

// NewScratchStack returns an empty stack of scratch regions.
func NewScratchStack() *ScratchStack {
	return &ScratchStack{}
}

// Get acquires a new scratch region nested inside any currently held
// region.
func (s *ScratchStack) Get() *Scratch {
	s.depth++
	return &Scratch{stack: s, depth: s.depth}
}

// Release returns the region to the stack. Releasing anything but the most
// recently acquired, still-held region is a Fault.
func (sc *Scratch) Release() {
	if sc.stack.depth != sc.depth {
		diag.Fail("scratch region released out of order: have depth %d, releasing %d", sc.stack.depth, sc.depth)
	}
	sc.stack.depth--
}

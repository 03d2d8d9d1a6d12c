package ir

import (
	"github.com/seaopt/seac/internal/arena"
	"github.com/seaopt/seac/internal/diag"
)

// Function owns an arena, a monotonically increasing node id counter, and
// the unique Start/End nodes of one compiled function.
type Function struct {
	Arena  *arena.Arena
	nextID int

	Start     *Node
	StartCtrl *Node
	StartMem  *Node
	End       *Node

	// all allocates nodes ever created, indexed by ID, for walks that need
	// id lookup without following edges (e.g. the optimizer's worklist and
	// load-forwarding walk, which carry node ids rather than nodes).
	all []*Node
}

// NewFunction returns an empty function backed by a fresh arena.
func NewFunction() *Function {
	return &Function{Arena: arena.New()}
}

// NumNodes returns one past the highest id ever allocated, suitable for
// sizing id-indexed side tables.
func (f *Function) NumNodes() int {
	return f.nextID
}

// AllNodes returns every node ever allocated in this function, including
// ones since collected as dead (callers that need only live nodes should
// walk from End instead; see Reachable).
func (f *Function) AllNodes() []*Node {
	return f.all
}

func (f *Function) newNode(kind Kind, numIns int, flags Flags) *Node {
	id := f.nextID
	f.nextID++
	f.Arena.Alloc()
	n := &Node{
		ID:     id,
		Kind:   kind,
		Flags:  flags,
		Inputs: make([]*Node, numIns),
	}
	f.Arena.Set(id, n)
	f.all = append(f.all, n)
	return n
}

// SetInput installs in as n's index'th input, maintaining the use-list
// duality invariant: if n already had a non-nil input at index, that use
// is detached first.
func (f *Function) SetInput(n *Node, index int, in *Node) {
	if index < 0 || index >= len(n.Inputs) {
		diag.FailIndex("input index %d out of range for %s (arity %d)", index, n.Kind, len(n.Inputs))
	}
	if old := n.Inputs[index]; old != nil {
		old.removeUseAt(n, index)
	}
	n.Inputs[index] = in
	if in != nil {
		in.addUse(Use{User: n, Index: index})
	}
}

func wantCFG(in *Node, what string) {
	if in == nil {
		return
	}
	if !in.Flags.Has(IsCfg) && !in.Flags.Has(IsProj) && in.Kind != START {
		diag.FailStructural("%s input must be control, got %s", what, in.Kind)
	}
}

func isMemoryProducer(in *Node) bool {
	if in == nil {
		return false
	}
	return in.Kind == START_MEM || in.Flags.Has(ProducesMemory)
}

func wantMem(in *Node, what string) {
	if in == nil {
		return
	}
	if !isMemoryProducer(in) {
		diag.FailStructural("%s input must produce memory, got %s", what, in.Kind)
	}
}

package ir

// Use is a back-reference from a consumed node to one of its consumers:
// the pair (User, Index) names the exact input slot that points back at
// the node owning this Use.
type Use struct {
	User  *Node
	Index int
}

// Payload is the small sum-type carrying a node's kind-specific inlined
// data. Only Const is populated today (CONSTANT's 64-bit value, and the
// target backend's immediates); stack-slot ids are assigned lazily by the
// emitter instead of living on the node, per original_source/cringe's
// x64.c (alloca_t is allocated during code generation, not selection).
type Payload struct {
	HasConst bool
	Const    int64
}

// Node is one cell of the sea-of-nodes graph: a dense id, a kind, a flag
// set, a fixed-for-its-kind ordered input list, the reverse use list, and
// an inlined payload.
type Node struct {
	ID      int
	Kind    Kind
	Flags   Flags
	Inputs  []*Node
	Payload Payload

	uses []Use
}

// Uses returns the node's use list. Callers must not mutate the returned
// slice; it aliases the node's internal state.
func (n *Node) Uses() []Use {
	return n.uses
}

// IsDead reports whether n has no uses. The function's END node is never
// considered dead even with an empty use list, per the lifecycle rules in
// spec.md §3.
func (n *Node) IsDead(end *Node) bool {
	return len(n.uses) == 0 && n != end
}

func (n *Node) addUse(u Use) {
	n.uses = append(n.uses, u)
}

// removeUseAt detaches the use record pointing at (user, index) from n's
// use list. There must be exactly one such record (invariant 1).
func (n *Node) removeUseAt(user *Node, index int) {
	for i, u := range n.uses {
		if u.User == user && u.Index == index {
			n.uses[i] = n.uses[len(n.uses)-1]
			n.uses = n.uses[:len(n.uses)-1]
			return
		}
	}
}

func (n *Node) String() string {
	return n.Kind.String()
}

package ir

import "github.com/seaopt/seac/internal/diag"

// Finalize asserts that every node reachable from END has a consistent
// use list and that no reachable node is still UNINITIALIZED. The front end
// runs it once after graph construction to catch invariant violations
// early; the later passes do not call it.
func Finalize(f *Function) {
	diag.Assert(f.Start != nil, "function has no START node")
	diag.Assert(f.End != nil, "function has no END node")

	for _, n := range Reachable(f) {
		diag.Assert(n.Kind != UNINITIALIZED, "node %d is UNINITIALIZED", n.ID)
		for i, in := range n.Inputs {
			if in == nil {
				continue
			}
			found := false
			for _, u := range in.uses {
				if u.User == n && u.Index == i {
					found = true
					break
				}
			}
			diag.Assert(found, "node %d input %d -> %d has no matching use record", n.ID, i, in.ID)
		}
	}
}

// CheckUseListDuality verifies spec.md Testable Property 1 over every
// reachable node: every input has exactly one matching use record, and
// every use record points back at a real input slot.
func CheckUseListDuality(f *Function) {
	for _, n := range Reachable(f) {
		for i, in := range n.Inputs {
			if in == nil {
				continue
			}
			count := 0
			for _, u := range in.uses {
				if u.User == n && u.Index == i {
					count++
				}
			}
			diag.Assert(count == 1, "node %d input %d -> %d: expected exactly one use record, found %d", n.ID, i, in.ID, count)
		}
		for _, u := range n.uses {
			diag.Assert(u.Index >= 0 && u.Index < len(u.User.Inputs), "use (%d,%d) on node %d: index out of range", u.User.ID, u.Index, n.ID)
			diag.Assert(u.User.Inputs[u.Index] == n, "use (%d,%d) on node %d: input slot does not point back", u.User.ID, u.Index, n.ID)
		}
	}
}

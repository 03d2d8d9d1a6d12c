package ir

import (
	"fmt"
	"io"
)

// WriteDOT dumps the graph reachable from f.End as Graphviz DOT, a
// debugging aid supplementing spec.md in the spirit of
// original_source/cringe/back/cb.h's cb_graphviz_func. It carries no
// invariants of its own and is never consumed by another component.
func WriteDOT(w io.Writer, f *Function) {
	fmt.Fprintln(w, "digraph G {")
	for _, n := range Reachable(f) {
		fmt.Fprintf(w, "  n%d [label=%q];\n", n.ID, fmt.Sprintf("%s#%d", n.Kind, n.ID))
		for i, in := range n.Inputs {
			if in == nil {
				continue
			}
			fmt.Fprintf(w, "  n%d -> n%d [label=%q];\n", n.ID, in.ID, fmt.Sprintf("%d", i))
		}
	}
	fmt.Fprintln(w, "}")
}

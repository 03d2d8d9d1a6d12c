// Command seac compiles one source file of the tiny C-like language this
// backend targets and prints 32-bit x86-like assembly to stdout. Its flag
// surface and exit-code discipline follow internal/_teacher_gc/main.go's
// usage()/flag/os.Exit shape, scaled down to the single positional argument
// this driver actually needs.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/seaopt/seac/internal/diag"
	"github.com/seaopt/seac/internal/emit"
	"github.com/seaopt/seac/internal/frontend"
	"github.com/seaopt/seac/internal/ir"
	"github.com/seaopt/seac/internal/opt"
	"github.com/seaopt/seac/internal/sched"
	"github.com/seaopt/seac/internal/sel"
	"github.com/seaopt/seac/internal/x64"
)

var (
	flagDot       = flag.String("dot", "", "write the optimized IR graph as Graphviz DOT to `file`")
	flagVerifyfix = flag.Bool("verifyfix", false, "re-run the optimizer on its own output and fail if it finds more work")
	flagDebug     = flag.Bool("debug", false, "log pipeline stage transitions to stderr")
	flagS         = flag.Bool("S", true, "print the assembly listing (on by default; kept for familiarity with cc-style drivers)")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: seac [options] file.c\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("seac: ")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
	}
	path := flag.Arg(0)

	src, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("%v", err)
	}

	f, errs := frontend.Parse(path, src)
	if len(errs) > 0 {
		diag.Report(errs)
		os.Exit(1)
	}

	debugf := func(format string, args ...interface{}) {
		if *flagDebug {
			log.Printf(format, args...)
		}
	}

	debugf("parsed %s: %d nodes", path, f.NumNodes())

	opt.Optimize(f)
	debugf("optimized: %d reachable nodes", len(ir.Reachable(f)))

	if *flagVerifyfix {
		verifyIdempotent(f)
	}

	if *flagDot != "" {
		writeDot(*flagDot, f)
	}

	selected := sel.Select(f, x64.DefaultRules())
	debugf("selected: %d reachable nodes", len(ir.Reachable(selected)))

	blocks := sched.Schedule(selected)
	debugf("scheduled: %d blocks", len(blocks))

	prog := emit.Emit(selected, blocks)

	if *flagS {
		fmt.Print(prog.String())
	}
}

func writeDot(path string, f *ir.Function) {
	out, err := os.Create(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer out.Close()
	ir.WriteDOT(out, f)
}

// verifyIdempotent re-runs the optimizer on its own fixed point and fails
// the build if anything changes, the self-check spec.md's idempotence
// property (Testable Property 2) describes: optimize(optimize(f)) must
// equal optimize(f) up to node renumbering.
func verifyIdempotent(f *ir.Function) {
	before := normalizeDump(f)
	opt.Optimize(f)
	after := normalizeDump(f)
	if diff := cmp.Diff(before, after); diff != "" {
		log.Fatalf("optimizer is not idempotent (-before +after):\n%s", diff)
	}
}

// normalizeDump renders the graph reachable from f.End as one line per node,
// addressing operands by their position in the reachable set sorted by node
// id rather than by raw node id, so two structurally identical graphs
// compare equal when their ids differ but keep the same relative order.
func normalizeDump(f *ir.Function) []string {
	nodes := ir.Reachable(f)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	index := make(map[int]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	lines := make([]string, len(nodes))
	for i, n := range nodes {
		line := n.Kind.String()
		if n.Payload.HasConst {
			line += fmt.Sprintf(" const=%d", n.Payload.Const)
		}
		for _, in := range n.Inputs {
			if in == nil {
				line += " _"
				continue
			}
			line += fmt.Sprintf(" #%d", index[in.ID])
		}
		lines[i] = line
	}
	return lines
}

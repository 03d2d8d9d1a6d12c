// Package sel implements the bottom-up dynamic-programming instruction
// selector: root/subtree partitioning, post-order subtree traversal with
// cross-root deferred patching, and a rule-driven match/push/select engine
// consuming internal/selspec's parsed tables. Grounded on
// original_source/cringe/back/x64.c's cb_select_x64.
package sel

import (
	"strings"

	"github.com/seaopt/seac/internal/arena"
	"github.com/seaopt/seac/internal/diag"
	"github.com/seaopt/seac/internal/ir"
	"github.com/seaopt/seac/internal/selspec"
	"github.com/seaopt/seac/internal/worklist"
)

// scratch backs the nested acquire/release region every pass holds for the
// lifetime of one call, per internal/arena's contract.
var scratch = arena.NewScratchStack()

// BuildFunc constructs the target-IR replacement for node, given the
// bindings its matched rule recorded (keyed by pattern binding name, or by
// a leaf/root pattern's bare op text when no explicit binding was given).
// It is the hand-written analogue of x64.c's targ_node_* constructors —
// the one part of selection that is not data-driven, registered per
// output-tree root op name.
type BuildFunc func(c *Context, node *ir.Node, bindings map[string]*ir.Node) *ir.Node

var registry = map[string]BuildFunc{}

// Register installs the builder invoked whenever a matched rule's output
// tree is rooted at op (case-insensitive). Target packages call this from
// an init function so internal/sel never imports them directly.
func Register(op string, fn BuildFunc) {
	registry[strings.ToUpper(op)] = fn
}

// rootReference records a cross-root input edge discovered while building
// one root's subtree: user's input slot must be patched to point at root's
// eventual selection once every root has been processed.
type rootReference struct {
	user  *ir.Node
	index int
	root  *ir.Node
}

// Context carries the state threaded through one Select call: the source
// and destination functions, the parsed rule table, root-set membership,
// the id-indexed source→destination node map, and pending cross-root
// patches.
type Context struct {
	Src   *ir.Function
	Dst   *ir.Function
	Rules *selspec.RuleSet

	isRoot   *worklist.Bits
	nodeMap  []*ir.Node
	rootRefs []rootReference
}

// MapInput wires newNode's input slot to srcLeaf's selected replacement.
// If srcLeaf is itself a root, the selected replacement may not exist yet
// (its own root iteration may run later), so the edge is recorded for the
// second, cross-root patching pass instead — the Go analogue of x64.c's
// map_input.
func (c *Context) MapInput(newNode *ir.Node, index int, srcLeaf *ir.Node) {
	if srcLeaf == nil {
		return
	}
	if c.isRoot.Test(srcLeaf.ID) {
		c.rootRefs = append(c.rootRefs, rootReference{user: newNode, index: index, root: srcLeaf})
		return
	}
	c.Dst.SetInput(newNode, index, c.nodeMap[srcLeaf.ID])
}

// shouldBeRoot implements the root test: CFG nodes, projections,
// start/end/region/phi/branch, and any multiply-used node become their own
// selection root; constants never do, even if used more than once.
func shouldBeRoot(n *ir.Node) bool {
	switch n.Kind {
	case ir.CONSTANT:
		return false
	case ir.START, ir.END, ir.REGION, ir.PHI, ir.BRANCH:
		return true
	}
	if n.Flags.Has(ir.IsCfg) || n.Flags.Has(ir.IsProj) {
		return true
	}
	return len(n.Uses()) >= 2
}

// Select runs instruction selection over src using rules, returning a
// freshly built target function. src is left untouched.
func Select(src *ir.Function, rules *selspec.RuleSet) *ir.Function {
	sc := scratch.Get()
	defer sc.Release()

	dst := ir.NewFunction()

	nodes := ir.Reachable(src)
	isRoot := worklist.NewBits(src.NumNodes())

	var roots []*ir.Node
	for _, n := range nodes {
		if shouldBeRoot(n) {
			isRoot.Set(n.ID)
			roots = append(roots, n)
		}
	}

	c := &Context{
		Src:     src,
		Dst:     dst,
		Rules:   rules,
		isRoot:  isRoot,
		nodeMap: make([]*ir.Node, src.NumNodes()),
	}

	allSrc := src.AllNodes()
	stack := worklist.NewStack()

	for _, root := range roots {
		stack.Reset()
		stack.Push(worklist.StackItem{Processed: false, Node: root.ID})

		for !stack.Empty() {
			item := stack.Pop()
			node := allSrc[item.Node]

			if !item.Processed {
				if node != root && isRoot.Test(node.ID) {
					// selected independently by its own root iteration
					continue
				}
				stack.Push(worklist.StackItem{Processed: true, Node: node.ID})
				c.pushLeaves(node, stack)
			} else {
				c.nodeMap[node.ID] = c.selectNode(node)
			}
		}
	}

	for _, ref := range c.rootRefs {
		c.Dst.SetInput(ref.user, ref.index, c.nodeMap[ref.root.ID])
	}

	dst.Start = c.nodeMap[src.Start.ID]
	dst.StartCtrl = c.nodeMap[src.StartCtrl.ID]
	dst.StartMem = c.nodeMap[src.StartMem.ID]
	dst.End = c.nodeMap[src.End.ID]

	return dst
}

// bestRule returns the highest-priority rule (largest input subtree, ties
// by declaration order — RuleSet.Rules is pre-sorted) whose input pattern
// structurally matches node, or nil if none does.
func (c *Context) bestRule(node *ir.Node) *selspec.Rule {
	for _, r := range c.Rules.Rules(node.Kind.String()) {
		if c.matchPattern(node, r.In, true) {
			return r
		}
	}
	return nil
}

// matchPattern reports whether node matches pat. atRoot is true only for
// the outermost call of one match attempt: a subtree pattern may not
// descend into a node that is itself a selection root (it must be wired
// via the cross-root reference mechanism instead).
//
// A bare leaf (PatternLeaf) matches any node regardless of kind: it is a
// wildcard binding position, not a kind check. Telling an immediate
// operand apart from a register one (or any other kind-sensitive leaf)
// means writing the leaf as a zero-child subtree instead — "kind()" —
// which falls through to the kind-checked branch below. rules.txt's own
// header documents this convention and every rule in the table relies on
// it (e.g. "constant:rhs()" to require a constant, plain "a:lhs" to
// accept any kind).
func (c *Context) matchPattern(node *ir.Node, pat *selspec.Pattern, atRoot bool) bool {
	if pat.Kind == selspec.PatternLeaf {
		return true
	}
	if node == nil || node.Kind.String() != pat.Op {
		return false
	}
	if !atRoot && c.isRoot.Test(node.ID) {
		return false
	}
	for i, child := range pat.Children {
		if child.Kind != selspec.PatternSubtree {
			continue
		}
		if i >= len(node.Inputs) || node.Inputs[i] == nil {
			return false
		}
		if !c.matchPattern(node.Inputs[i], child, false) {
			return false
		}
	}
	return true
}

// pushLeaves schedules node's children for post-order processing according
// to the matched rule's input pattern: subtree positions recurse, leaf
// positions get pushed directly. With no matching rule (default-clone
// fallback), every input is pushed — the Go analogue of x64.c's SELF_SEL
// behavior generalized to any unmatched kind.
func (c *Context) pushLeaves(node *ir.Node, stack *worklist.Stack) {
	rule := c.bestRule(node)
	if rule == nil {
		for _, in := range node.Inputs {
			if in != nil {
				stack.Push(worklist.StackItem{Processed: false, Node: in.ID})
			}
		}
		return
	}
	pushPattern(node, rule.In, stack)
}

func pushPattern(node *ir.Node, pat *selspec.Pattern, stack *worklist.Stack) {
	for i, child := range pat.Children {
		if i >= len(node.Inputs) {
			diag.FailStructural("selector: rule pattern arity exceeds node %s arity", node)
		}
		in := node.Inputs[i]
		if child.Kind == selspec.PatternSubtree {
			pushPattern(in, child, stack)
		} else if in != nil {
			stack.Push(worklist.StackItem{Processed: false, Node: in.ID})
		}
	}
}

// selectNode builds the single replacement node for node, either via its
// matched rule's registered output builder or, absent a match, via a
// structural default clone.
func (c *Context) selectNode(node *ir.Node) *ir.Node {
	rule := c.bestRule(node)
	if rule == nil {
		return c.defaultClone(node)
	}

	bindings := map[string]*ir.Node{}
	collectBindings(node, rule.In, bindings)

	builder, ok := registry[rule.Out.Op]
	if !ok {
		diag.Fail("selector: no builder registered for output op %s", rule.Out.Op)
	}
	return builder(c, node, bindings)
}

// collectBindings walks pat alongside the live node it matched, recording
// the node (or its corresponding child) under every binding name pat
// declares — explicit ":name" bindings, or a bare leaf/root's own op text
// when no binding was given.
func collectBindings(node *ir.Node, pat *selspec.Pattern, bindings map[string]*ir.Node) {
	key := pat.Binding
	if key == "" {
		key = pat.Op
	}
	if key != "" {
		bindings[key] = node
	}
	for i, child := range pat.Children {
		in := node.Inputs[i]
		if child.Kind == selspec.PatternSubtree {
			collectBindings(in, child, bindings)
			continue
		}
		ckey := child.Binding
		if ckey == "" {
			ckey = child.Op
		}
		if ckey != "" {
			bindings[ckey] = in
		}
	}
}

// defaultClone copies node's kind, flags, and payload into a new node in
// the destination function, wiring every input through MapInput — used for
// kinds with no selection rules (START, REGION, PHI, ALLOCA, the branch
// projections) and as the fallback for any other unmatched kind.
func (c *Context) defaultClone(node *ir.Node) *ir.Node {
	clone := ir.NewTargetNode(c.Dst, node.Kind, len(node.Inputs), node.Flags)
	clone.Payload = node.Payload
	for i, in := range node.Inputs {
		if in != nil {
			c.MapInput(clone, i, in)
		}
	}
	return clone
}

package ir

import "github.com/seaopt/seac/internal/diag"

// StartResult bundles the three logical results of Start: the START node
// itself plus its two pinned projections.
type StartResult struct {
	Start     *Node
	StartCtrl *Node
	StartMem  *Node
}

// Start creates the function's unique START node along with its
// START_CTRL and START_MEM projections. It must be called at most once
// per function.
func Start(f *Function) StartResult {
	diag.Assert(f.Start == nil, "Start called twice on the same function")

	start := f.newNode(START, 0, IsCfg)
	startCtrl := f.newNode(START_CTRL, 1, IsCfg|IsProj|IsPinned)
	startMem := f.newNode(START_MEM, 1, IsProj|IsPinned|ProducesMemory)

	f.SetInput(startCtrl, 0, start)
	f.SetInput(startMem, 0, start)

	f.Start, f.StartCtrl, f.StartMem = start, startCtrl, startMem
	return StartResult{Start: start, StartCtrl: startCtrl, StartMem: startMem}
}

// End creates the function's unique END node. Constructing a second END
// is a programmer error.
func End(f *Function, ctrl, mem, value *Node) *Node {
	diag.Assert(f.End == nil, "End constructed twice on the same function")
	wantCFG(ctrl, "END.ctrl")
	wantMem(mem, "END.mem")

	end := f.newNode(END, 3, IsCfg|IsPinned|ReadsMemory)
	f.SetInput(end, 0, ctrl)
	f.SetInput(end, 1, mem)
	f.SetInput(end, 2, value)
	f.End = end
	return end
}

// Region creates a REGION with zero inputs; SetRegionInputs installs its
// predecessor list once known.
func Region(f *Function) *Node {
	return f.newNode(REGION, 0, IsCfg)
}

// SetRegionInputs installs region's predecessor list. Any phi already
// attached to region (PHI.Inputs[0] == region) must be updated with
// SetPhiInputs to keep invariant 4 (phi has exactly one more input than
// its region) — this function only manages the region's own arity.
func SetRegionInputs(f *Function, region *Node, ins []*Node) {
	diag.Assert(region.Kind == REGION, "SetRegionInputs on non-region %s", region.Kind)
	for _, in := range ins {
		wantCFG(in, "REGION predecessor")
	}
	resizeInputs(f, region, len(ins))
	for i, in := range ins {
		f.SetInput(region, i, in)
	}
}

// Phi creates a PHI with a region placeholder in input slot 0. Use
// SetPhiInputs to install the region and its value inputs together.
func Phi(f *Function) *Node {
	return f.newNode(PHI, 1, Flags(0))
}

// SetPhiInputs installs region in slot 0 and values in slots 1..len(values),
// preserving invariant 4: PHI has exactly one more input than its region.
// The phi is marked ProducesMemory iff every non-self value input does,
// matching the memory-phi convention the dead-store/load-forwarding
// idealizers rely on (internal/opt).
func SetPhiInputs(f *Function, phi, region *Node, values []*Node) {
	diag.Assert(phi.Kind == PHI, "SetPhiInputs on non-phi %s", phi.Kind)
	diag.Assert(region.Kind == REGION, "SetPhiInputs region arg must be a REGION, got %s", region.Kind)
	diag.Assert(len(values) == len(region.Inputs), "phi must have exactly one more input than its region: region has %d preds, got %d values", len(region.Inputs), len(values))

	resizeInputs(f, phi, 1+len(values))
	f.SetInput(phi, 0, region)
	for i, v := range values {
		f.SetInput(phi, 1+i, v)
	}

	mem := true
	any := false
	for _, v := range values {
		if v == phi {
			continue
		}
		any = true
		if !isMemoryProducer(v) {
			mem = false
		}
	}
	if any && mem {
		phi.Flags |= ProducesMemory
	} else {
		phi.Flags &^= ProducesMemory
	}
}

func resizeInputs(f *Function, n *Node, size int) {
	old := n.Inputs
	for i, in := range old {
		if in != nil {
			in.removeUseAt(n, i)
		}
	}
	n.Inputs = make([]*Node, size)
}

// BranchResult bundles a BRANCH and its two pinned projections.
type BranchResult struct {
	Branch      *Node
	BranchTrue  *Node
	BranchFalse *Node
}

// Branch creates a BRANCH node and its BRANCH_TRUE/BRANCH_FALSE
// projections, each pinned to the branch.
func Branch(f *Function, ctrl, predicate *Node) BranchResult {
	wantCFG(ctrl, "BRANCH.ctrl")

	br := f.newNode(BRANCH, 2, IsCfg|IsPinned)
	f.SetInput(br, 0, ctrl)
	f.SetInput(br, 1, predicate)

	bt := f.newNode(BRANCH_TRUE, 1, IsCfg|IsProj|IsPinned)
	bf := f.newNode(BRANCH_FALSE, 1, IsCfg|IsProj|IsPinned)
	f.SetInput(bt, 0, br)
	f.SetInput(bf, 0, br)

	return BranchResult{Branch: br, BranchTrue: bt, BranchFalse: bf}
}

// Constant creates a CONSTANT node carrying a 64-bit value.
func Constant(f *Function, value int64) *Node {
	n := f.newNode(CONSTANT, 0, IsLeaf)
	n.Payload = Payload{HasConst: true, Const: value}
	return n
}

// Alloca creates a stack-allocated slot, pinned to ctrl. It does not read
// or produce memory at the IR level; the emitter assigns its concrete
// stack-slot id lazily during code generation.
func Alloca(f *Function, ctrl *Node) *Node {
	wantCFG(ctrl, "ALLOCA.ctrl")
	n := f.newNode(ALLOCA, 1, IsPinned)
	f.SetInput(n, 0, ctrl)
	return n
}

// Load reads the value at address from memory mem. ctrl may be nil: LOAD
// is not forced-pinned (spec.md §3/§4.4), so it floats under GCM unless a
// caller supplies a control anchor.
func Load(f *Function, ctrl, mem, addr *Node) *Node {
	wantCFG(ctrl, "LOAD.ctrl")
	wantMem(mem, "LOAD.mem")

	n := f.newNode(LOAD, 3, ReadsMemory)
	f.SetInput(n, 0, ctrl)
	f.SetInput(n, 1, mem)
	f.SetInput(n, 2, addr)
	return n
}

// Store writes value to address, chaining off mem, and returns a new
// memory token.
func Store(f *Function, ctrl, mem, addr, value *Node) *Node {
	wantCFG(ctrl, "STORE.ctrl")
	wantMem(mem, "STORE.mem")

	n := f.newNode(STORE, 4, ProducesMemory)
	f.SetInput(n, 0, ctrl)
	f.SetInput(n, 1, mem)
	f.SetInput(n, 2, addr)
	f.SetInput(n, 3, value)
	return n
}

func binOp(f *Function, kind Kind, lhs, rhs *Node) *Node {
	n := f.newNode(kind, 2, Flags(0))
	f.SetInput(n, 0, lhs)
	f.SetInput(n, 1, rhs)
	return n
}

// Add, Sub, Mul and Sdiv build the four arithmetic node kinds the spec
// names. All are pure, unpinned 2-input value nodes.
func Add(f *Function, lhs, rhs *Node) *Node  { return binOp(f, ADD, lhs, rhs) }
func Sub(f *Function, lhs, rhs *Node) *Node  { return binOp(f, SUB, lhs, rhs) }
func Mul(f *Function, lhs, rhs *Node) *Node  { return binOp(f, MUL, lhs, rhs) }
func Sdiv(f *Function, lhs, rhs *Node) *Node { return binOp(f, SDIV, lhs, rhs) }

// Cmp builds a relational comparison, producing 0 or 1. Unlike Add/Sub/
// Mul/Sdiv it carries its operator in Payload.Const the way CONSTANT
// carries its value, since the generic kind space has one CMP kind rather
// than six.
func Cmp(f *Function, op CmpOp, lhs, rhs *Node) *Node {
	n := binOp(f, CMP, lhs, rhs)
	n.Payload = Payload{HasConst: true, Const: int64(op)}
	return n
}

// NewTargetNode is the seam internal/sel uses to allocate nodes whose Kind
// lives in a target package's numbering range (internal/x64), with
// arbitrary flags and arity, without internal/ir needing to know about
// any specific target.
func NewTargetNode(f *Function, kind Kind, numIns int, flags Flags) *Node {
	return f.newNode(kind, numIns, flags)
}

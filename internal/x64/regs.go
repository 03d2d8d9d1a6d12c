package x64

import "strconv"

// Reg is either a fixed physical register (below FirstVR) or a virtual
// register assigned during emission (at or above FirstVR), exactly as
// x64.c's cb_node_t.reg field distinguishes PR_* constants from the
// FIRST_VR boundary.
type Reg int

// The fixed physical registers, named after x64.c's PR_EAX/PR_ECX/PR_EDX
// constants. IDIV32_RR's lowering pins the dividend's low/high halves to
// eax/edx, matching x64's eax/edx-pair div instruction; the divisor stays
// in its own register, and no lowering pins anything to ecx.
const (
	PR_EAX Reg = iota
	PR_ECX
	PR_EDX

	// FirstVR is the first virtual-register number handed out by the
	// emitter; every physical register name is below it.
	FirstVR
)

var physicalNames = map[Reg]string{
	PR_EAX: "eax",
	PR_ECX: "ecx",
	PR_EDX: "edx",
}

// Name renders r the way the emitter prints an operand: the fixed mnemonic
// for a physical register, or "v<n>" for a virtual register not yet
// allocated to a physical slot.
func (r Reg) Name() string {
	if name, ok := physicalNames[r]; ok {
		return name
	}
	return "v" + strconv.Itoa(int(r))
}

package frontend

import (
	"testing"

	"github.com/seaopt/seac/internal/ir"
)

func mustParse(t *testing.T, src string) *ir.Function {
	t.Helper()
	f, errs := Parse("test.c", []byte(src))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	return f
}

func TestParseStraightLineReturnsEnd(t *testing.T) {
	f := mustParse(t, `int main() { return 1 + 2 * 3; }`)
	if f.End == nil {
		t.Fatalf("expected END node")
	}
	if f.End.Inputs[2].Kind != ir.MUL && f.End.Inputs[2].Kind != ir.ADD {
		t.Fatalf("expected arithmetic return value, got %s", f.End.Inputs[2].Kind)
	}
}

func TestParseDeclarationLowersToAllocaStoreLoad(t *testing.T) {
	f := mustParse(t, `int main() { int x = 5; return x; }`)
	ir.CheckUseListDuality(f)

	val := f.End.Inputs[2]
	if val.Kind != ir.LOAD {
		t.Fatalf("expected return value to be a LOAD, got %s", val.Kind)
	}
	if val.Inputs[2].Kind != ir.ALLOCA {
		t.Fatalf("expected LOAD address to be an ALLOCA, got %s", val.Inputs[2].Kind)
	}
}

func TestParseWhileSealsLoopHeader(t *testing.T) {
	f := mustParse(t, `int main() { int x = 1; while (x) { x = x - 1; } return x; }`)
	ir.CheckUseListDuality(f)
	ir.Finalize(f)

	val := f.End.Inputs[2]
	if val.Kind != ir.LOAD {
		t.Fatalf("expected return value to be a LOAD, got %s", val.Kind)
	}

	exit := f.End.Inputs[0]
	if exit.Kind != ir.BRANCH_FALSE {
		t.Fatalf("expected END's ctrl to be the loop's false exit, got %s", exit.Kind)
	}
	if exit.Inputs[0].Inputs[0].Kind != ir.REGION {
		t.Fatalf("expected the loop's branch to be anchored on its header REGION, got %s", exit.Inputs[0].Inputs[0].Kind)
	}
}

func TestParseComparisonBuildsCmpNode(t *testing.T) {
	f := mustParse(t, `int main() { int x = 1; while (x != 0) { x = x - 1; } return x; }`)
	ir.CheckUseListDuality(f)

	var foundCmp bool
	for _, n := range ir.Reachable(f) {
		if n.Kind == ir.CMP && ir.CmpOp(n.Payload.Const) == ir.CmpNE {
			foundCmp = true
		}
	}
	if !foundCmp {
		t.Fatalf("expected a CMP node with CmpNE in the graph")
	}
}

func TestParseUndeclaredVariableIsUserError(t *testing.T) {
	_, errs := Parse("test.c", []byte(`int main() { return y; }`))
	if len(errs) == 0 {
		t.Fatalf("expected an undeclared-variable error")
	}
}

func TestParseMissingReturnIsUserError(t *testing.T) {
	_, errs := Parse("test.c", []byte(`int main() { int x = 1; }`))
	if len(errs) == 0 {
		t.Fatalf("expected a missing-return error")
	}
}

func TestParseBadCharacterIsUserError(t *testing.T) {
	_, errs := Parse("test.c", []byte("int main() { return 1 @ 2; }"))
	if len(errs) == 0 {
		t.Fatalf("expected a lexical error for '@'")
	}
}

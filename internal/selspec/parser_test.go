package selspec

import "testing"

func TestParseSimpleRule(t *testing.T) {
	rs, err := Parse(`add(a:lhs, constant:rhs) -> add32_ri("lhs", "rhs")`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	rules := rs.Rules("ADD")
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule for ADD, got %d", len(rules))
	}

	r := rules[0]
	if r.In.Kind != PatternSubtree || len(r.In.Children) != 2 {
		t.Fatalf("expected a 2-child subtree pattern, got %+v", r.In)
	}
	if r.In.Children[0].Binding != "lhs" || r.In.Children[1].Binding != "rhs" {
		t.Fatalf("expected bindings lhs/rhs, got %+v", r.In.Children)
	}
	if r.Out.Op != "ADD32_RI" {
		t.Fatalf("expected output op ADD32_RI, got %q", r.Out.Op)
	}
}

func TestRulesOrderedBySubtreeSizeThenDeclaration(t *testing.T) {
	rs, err := Parse(`
		add(a, b) -> generic_add(a, b)
		add(a, constant:c) -> add_imm(a, "c")
		add(a, b) -> another_generic(a, b)
		add(a, constant:c()) -> add_imm_checked(a, "c")
	`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	rules := rs.Rules("ADD")
	if len(rules) != 4 {
		t.Fatalf("expected 4 rules, got %d", len(rules))
	}

	// add(a, constant:c()) has a zero-child subtree child, so its
	// subtree_count is 1+0+1 = 2 and it sorts first despite being declared
	// last. The other three have only leaf children (subtree_count 1+0+0 =
	// 1), so their ties are broken by declaration order.
	if rules[0].Out.Op != "ADD_IMM_CHECKED" {
		t.Fatalf("expected the larger pattern first, got %q", rules[0].Out.Op)
	}
	if rules[1].Out.Op != "GENERIC_ADD" || rules[2].Out.Op != "ADD_IMM" || rules[3].Out.Op != "ANOTHER_GENERIC" {
		t.Fatalf("expected declaration order preserved among equal-size rules, got %q, %q, %q",
			rules[1].Out.Op, rules[2].Out.Op, rules[3].Out.Op)
	}
}

func TestLeafPatternHasNoChildren(t *testing.T) {
	rs, err := Parse(`constant -> mov32_ri("node")`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := rs.Rules("CONSTANT")[0]
	if r.In.Kind != PatternLeaf {
		t.Fatalf("expected a bare op with no parens to parse as a leaf pattern")
	}
}

func TestCodeLiteralOutput(t *testing.T) {
	rs, err := Parse(`branch(ctrl, predicate) -> "custom_branch_builder"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := rs.Rules("BRANCH")[0]
	if r.Out.Kind != PatternCodeLiteral || r.Out.Code != "custom_branch_builder" {
		t.Fatalf("expected a code-literal output, got %+v", r.Out)
	}
}

func TestMalformedRuleErrors(t *testing.T) {
	if _, err := Parse(`add(a, b)`); err == nil {
		t.Fatalf("expected an error for a rule missing '->'")
	}
}

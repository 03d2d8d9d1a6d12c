package selspec

import "sort"

// RuleSet groups parsed rules by the root op name of their input pattern,
// mirroring x64_isel_meta.c's op_entry_t table, and exposes them sorted by
// decreasing input subtree size with ties broken by declaration order —
// the bottom-up DP matcher needs rules tried largest-subtree-first.
type RuleSet struct {
	byOp map[string][]*Rule
}

func newRuleSet() *RuleSet {
	return &RuleSet{byOp: make(map[string][]*Rule)}
}

func (rs *RuleSet) add(r *Rule) {
	r.ID = len(rs.byOp[r.Op])
	rs.byOp[r.Op] = append(rs.byOp[r.Op], r)
}

func (rs *RuleSet) finalize() {
	for _, rules := range rs.byOp {
		decl := make(map[*Rule]int, len(rules))
		for i, r := range rules {
			decl[r] = i
		}
		sort.SliceStable(rules, func(i, j int) bool {
			if rules[i].In.SubtreeCount != rules[j].In.SubtreeCount {
				return rules[i].In.SubtreeCount > rules[j].In.SubtreeCount
			}
			return decl[rules[i]] < decl[rules[j]]
		})
	}
}

// Rules returns the rules whose input pattern's root op is name, already
// ordered largest-subtree-first. The result is nil if no rule targets name.
func (rs *RuleSet) Rules(name string) []*Rule {
	return rs.byOp[name]
}

// Ops returns every root op name that has at least one rule, sorted
// alphabetically — used by cmd/iselgen to emit the generated file's Ops
// list.
func (rs *RuleSet) Ops() []string {
	ops := make([]string, 0, len(rs.byOp))
	for op := range rs.byOp {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

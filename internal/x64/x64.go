package x64

import (
	_ "embed"

	"github.com/seaopt/seac/internal/diag"
	"github.com/seaopt/seac/internal/selspec"
)

//go:embed rules.txt
var rulesSource string

var defaultRules *selspec.RuleSet

func init() {
	rs, err := selspec.Parse(rulesSource)
	if err != nil {
		diag.Fail("x64: malformed built-in rule table: %v", err)
	}
	defaultRules = rs
}

// DefaultRules returns the target's built-in selection rule table, parsed
// once at package init from rules.txt — the same table cmd/iselgen reads
// to produce a standalone generated table for inspection or reuse.
func DefaultRules() *selspec.RuleSet {
	return defaultRules
}

// Command iselgen is the offline counterpart to internal/x64's
// //go:embed rules.txt + init-time selspec.Parse: it validates a rule file
// up front and bakes it into a generated Go source file carrying the same
// source text and an already-checked parse, for a target package that would
// rather fail a `go generate` step than a first program run. It is a much
// smaller tool than original_source/meta/x64_isel_meta.c, which compiles
// each rule into its own static matcher function; internal/sel's bottom-up
// matcher is data-driven over a []selspec.Rule at runtime instead; by the
// time a target wants a generated table, the rule text itself is already
// the artifact worth freezing, not a per-op dispatch function.
package main

import (
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/seaopt/seac/internal/selspec"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: iselgen <patterns.in> <table.out>\n")
	os.Exit(2)
}

func main() {
	if len(os.Args) != 3 {
		usage()
	}
	if err := run(os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintf(os.Stderr, "iselgen: %v\n", err)
		os.Exit(1)
	}
}

// run reads inPath, parses it as a rule file, and writes a generated Go
// source file to outPath. Split out from main so it can be exercised
// directly by tests without an os.Exit in the way.
func run(inPath, outPath string) error {
	src, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}

	rules, err := selspec.Parse(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", inPath, err)
	}

	pkg := filepath.Base(filepath.Dir(outPath))
	if pkg == "." || pkg == "/" {
		pkg = "main"
	}

	generated, err := generate(tableData{
		Package: pkg,
		Input:   inPath,
		Source:  string(src),
		Ops:     rules.Ops(),
	})
	if err != nil {
		return err
	}

	return os.WriteFile(outPath, generated, 0o644)
}

// generate renders and gofmts the table template for data.
func generate(data tableData) ([]byte, error) {
	var buf strings.Builder
	if err := tableTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	formatted, err := format.Source([]byte(buf.String()))
	if err != nil {
		return nil, fmt.Errorf("generated source does not gofmt: %w", err)
	}
	return formatted, nil
}

type tableData struct {
	Package string
	Input   string
	Source  string
	Ops     []string
}

var tableTmpl = template.Must(template.New("table").Parse(`// Code generated by cmd/iselgen from {{.Input}}. DO NOT EDIT.

package {{.Package}}

import "github.com/seaopt/seac/internal/selspec"

// ruleSource is {{.Input}}'s text, frozen at generation time rather than
// read again at program startup.
const ruleSource = ` + "`{{.Source}}`" + `

// Ops lists every root op this table has at least one rule for, the same
// set selspec.RuleSet.Ops reports, computed once here so a caller can
// inspect the table's coverage without parsing it again.
var Ops = []string{
{{- range .Ops}}
	"{{.}}",
{{- end}}
}

// Rules is the parsed rule table. Parse failure here would mean {{.Input}}
// changed since this file was generated; that is a build-time fault, not a
// runtime one, so it panics during package init the same way internal/x64's
// embedded table does.
var Rules = mustParse()

func mustParse() *selspec.RuleSet {
	rs, err := selspec.Parse(ruleSource)
	if err != nil {
		panic("iselgen-generated table failed to reparse: " + err.Error())
	}
	return rs
}
`))

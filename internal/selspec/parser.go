package selspec

import "strings"

// PatternKind classifies one node of a rule's input or output tree.
type PatternKind int

const (
	// PatternSubtree recurses into a parenthesized child list.
	PatternSubtree PatternKind = iota
	// PatternLeaf is a bare op with no parenthesized children. As a child
	// position of an input pattern, internal/sel matches it against any
	// node whatever its kind (the op text only serves as a default binding
	// name); as a rule's whole input pattern it applies to the nodes of the
	// named kind, since rules are looked up by that op. On the output side
	// it refers to a bound node.
	PatternLeaf
	// PatternCodeLiteral is a quoted output-tree fragment that is not a
	// node kind at all — a code expression carried through verbatim.
	PatternCodeLiteral
)

// Pattern is one node of a parsed input or output tree.
type Pattern struct {
	Kind         PatternKind
	Op           string // node-kind name, upper-cased; empty for PatternCodeLiteral
	Binding      string // identifier bound to this node in "op:binding" form
	Children     []*Pattern
	Code         string // verbatim fragment for PatternCodeLiteral
	SubtreeCount int    // 1 + sum of children's SubtreeCount, for subtree nodes
}

// Rule is one parsed "pattern -> pattern" entry, grouped by its input
// tree's root op name (the key RuleSet.Rules looks rules up by).
type Rule struct {
	ID  int
	Op  string
	In  *Pattern
	Out *Pattern
}

type parser struct {
	l *lexer
}

// Parse compiles a full rule-file source into a RuleSet.
func Parse(src string) (*RuleSet, error) {
	p := &parser{l: newLexer(src)}
	rs := newRuleSet()

	for {
		tok, err := p.l.peek()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokEOF {
			break
		}
		rule, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		rs.add(rule)
	}

	rs.finalize()
	return rs, nil
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	tok, err := p.l.next()
	if err != nil {
		return token{}, err
	}
	if tok.kind != kind {
		return token{}, p.l.errorf("expected %s, got %q", what, tok.text)
	}
	return tok, nil
}

func (p *parser) parseRule() (*Rule, error) {
	in, err := p.parsePattern(true)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokArrow, "'->'"); err != nil {
		return nil, err
	}
	out, err := p.parsePattern(false)
	if err != nil {
		return nil, err
	}
	if in.Kind == PatternCodeLiteral {
		return nil, p.l.errorf("an input pattern cannot be a string literal")
	}
	return &Rule{Op: in.Op, In: in, Out: out}, nil
}

// parsePattern parses one pattern tree. isInput disables string-literal
// code fragments, which are only meaningful on the output side.
func (p *parser) parsePattern(isInput bool) (*Pattern, error) {
	tok, err := p.l.peek()
	if err != nil {
		return nil, err
	}

	if tok.kind == tokString && !isInput {
		p.l.next()
		return &Pattern{Kind: PatternCodeLiteral, Code: tok.text, SubtreeCount: 0}, nil
	}

	opTok, err := p.expect(tokIdent, "an operator name")
	if err != nil {
		return nil, err
	}
	op := strings.ToUpper(opTok.text)

	binding := ""
	colon, err := p.l.peek()
	if err != nil {
		return nil, err
	}
	if colon.kind == tokColon {
		p.l.next()
		bindTok, err := p.expect(tokIdent, "a binding identifier")
		if err != nil {
			return nil, err
		}
		binding = bindTok.text
	}

	lparen, err := p.l.peek()
	if err != nil {
		return nil, err
	}

	pat := &Pattern{Op: op, Binding: binding}

	if lparen.kind != tokLParen {
		pat.Kind = PatternLeaf
		pat.SubtreeCount = 0
		return pat, nil
	}

	p.l.next()
	pat.Kind = PatternSubtree
	pat.SubtreeCount = 1

	for {
		next, err := p.l.peek()
		if err != nil {
			return nil, err
		}
		if next.kind == tokRParen || next.kind == tokEOF {
			break
		}
		if len(pat.Children) > 0 {
			if _, err := p.expect(tokComma, "','"); err != nil {
				return nil, err
			}
		}
		child, err := p.parsePattern(isInput)
		if err != nil {
			return nil, err
		}
		pat.Children = append(pat.Children, child)
		pat.SubtreeCount += child.SubtreeCount
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	return pat, nil
}

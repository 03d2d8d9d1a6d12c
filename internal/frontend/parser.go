package frontend

import (
	"github.com/seaopt/seac/internal/diag"
	"github.com/seaopt/seac/internal/ir"
)

// cursor tracks the two threads every statement and expression needs to
// read or extend: the control edge of "whatever runs next" and the memory
// token of "whatever was written last". It plays the role original_source's
// front/parse.c gives its value_stack, but for a memory-SSA front end there
// is nothing to stack — each statement consumes and produces exactly one of
// each thread.
type cursor struct {
	ctrl *ir.Node
	mem  *ir.Node
}

// parser builds a *ir.Function directly from tokens, with no intermediate
// AST, the way a single-pass compiler front end does.
type parser struct {
	f    *ir.Function
	lex  *lexer
	tok  token
	errs []*diag.UserError

	start ir.StartResult
	vars  map[string]*ir.Node // name -> ALLOCA slot
}

// Parse compiles src (from the named file, used only for diagnostics) into
// a function implementing the single `int main() { ... }` the language
// allows. It returns the accumulated user errors, if any, instead of a
// function.
func Parse(file string, src []byte) (*ir.Function, []*diag.UserError) {
	p := &parser{
		f:    ir.NewFunction(),
		lex:  newLexer(file, src),
		vars: map[string]*ir.Node{},
	}
	p.advance()
	p.start = ir.Start(p.f)

	p.parseProgram()

	if len(p.errs) > 0 {
		return nil, p.errs
	}
	if p.f.End == nil {
		p.errorf(p.tok.pos, "function falls off the end without a return statement")
		return nil, p.errs
	}

	ir.Finalize(p.f)
	return p.f, nil
}

func (p *parser) advance() {
	tok, err := p.lex.next()
	if err != nil {
		p.errs = append(p.errs, err)
		// Keep scanning past the bad character instead of spinning forever
		// re-reading it.
		if p.lex.off < len(p.lex.src) {
			p.lex.advance()
		}
		p.advance()
		return
	}
	p.tok = tok
}

func (p *parser) errorf(pos diag.Pos, format string, args ...interface{}) {
	p.errs = append(p.errs, diag.NewUserError(pos, format, args...))
}

// expect consumes the current token if it has kind k, else records a user
// error and leaves the token stream positioned where it is so the caller
// can attempt to resync.
func (p *parser) expect(k tokenKind, what string) token {
	tok := p.tok
	if tok.kind != k {
		p.errorf(tok.pos, "expected %s, got %q", what, tok.text)
		return tok
	}
	p.advance()
	return tok
}

func (p *parser) parseProgram() {
	p.expect(tokKeywordInt, "'int'")
	p.expect(tokIdent, "function name")
	p.expect(tokLParen, "'('")
	p.expect(tokRParen, "')'")

	cur := cursor{ctrl: p.start.StartCtrl, mem: p.start.StartMem}
	p.parseBlock(cur)
}

// parseBlock compiles a brace-delimited statement list and returns the
// cursor reflecting every statement's effect, threaded one into the next.
func (p *parser) parseBlock(cur cursor) cursor {
	p.expect(tokLBrace, "'{'")
	for p.tok.kind != tokRBrace && p.tok.kind != tokEOF {
		cur = p.parseStmt(cur)
		if p.f.End != nil {
			// A return statement already closed the function; nothing
			// after it can run, so don't bother compiling it.
			break
		}
	}
	p.expect(tokRBrace, "'}'")
	return cur
}

func (p *parser) parseStmt(cur cursor) cursor {
	switch p.tok.kind {
	case tokKeywordInt:
		return p.parseDecl(cur)
	case tokKeywordWhile:
		return p.parseWhile(cur)
	case tokKeywordReturn:
		return p.parseReturn(cur)
	case tokIdent:
		return p.parseAssign(cur)
	default:
		p.errorf(p.tok.pos, "expected a statement, got %q", p.tok.text)
		p.advance()
		return cur
	}
}

func (p *parser) parseDecl(cur cursor) cursor {
	p.advance() // 'int'
	name := p.expect(tokIdent, "variable name")

	slot := ir.Alloca(p.f, p.start.StartCtrl)
	if name.text != "" {
		p.vars[name.text] = slot
	}

	if p.tok.kind == tokAssign {
		p.advance()
		var val *ir.Node
		val, cur = p.parseExpr(cur)
		cur.mem = ir.Store(p.f, cur.ctrl, cur.mem, slot, val)
	}

	p.expect(tokSemi, "';'")
	return cur
}

func (p *parser) parseAssign(cur cursor) cursor {
	name := p.expect(tokIdent, "variable name")
	slot, ok := p.vars[name.text]
	if !ok && name.text != "" {
		p.errorf(name.pos, "undeclared variable %q", name.text)
	}

	p.expect(tokAssign, "'='")
	var val *ir.Node
	val, cur = p.parseExpr(cur)
	if ok {
		cur.mem = ir.Store(p.f, cur.ctrl, cur.mem, slot, val)
	}

	p.expect(tokSemi, "';'")
	return cur
}

func (p *parser) parseReturn(cur cursor) cursor {
	p.advance() // 'return'

	var val *ir.Node
	if p.tok.kind == tokSemi {
		val = ir.Constant(p.f, 0)
	} else {
		val, cur = p.parseExpr(cur)
	}
	p.expect(tokSemi, "';'")

	if p.f.End != nil {
		p.errorf(p.tok.pos, "function has more than one return statement")
		return cur
	}
	ir.End(p.f, cur.ctrl, cur.mem, val)
	return cur
}

// parseWhile builds the classic two-step loop header: a REGION is created
// with only the pre-loop edge installed, the body is compiled against it,
// and once the back edge is known the region (and its memory phi) are
// sealed with both predecessors. This is the only place the front end
// needs a placeholder-then-patch construction, mirroring how any SSA
// builder must handle a loop header whose back edge doesn't exist yet.
func (p *parser) parseWhile(cur cursor) cursor {
	p.advance() // 'while'
	p.expect(tokLParen, "'('")

	header := ir.Region(p.f)
	ir.SetRegionInputs(p.f, header, []*ir.Node{cur.ctrl})

	memPhi := ir.Phi(p.f)
	ir.SetPhiInputs(p.f, memPhi, header, []*ir.Node{cur.mem})

	headerCur := cursor{ctrl: header, mem: memPhi}
	cond, headerCur := p.parseExpr(headerCur)
	p.expect(tokRParen, "')'")

	br := ir.Branch(p.f, headerCur.ctrl, cond)

	bodyCur := cursor{ctrl: br.BranchTrue, mem: headerCur.mem}
	bodyCur = p.parseBlock(bodyCur)

	if p.f.End == nil {
		ir.SetRegionInputs(p.f, header, []*ir.Node{cur.ctrl, bodyCur.ctrl})
		ir.SetPhiInputs(p.f, memPhi, header, []*ir.Node{cur.mem, bodyCur.mem})
	}

	return cursor{ctrl: br.BranchFalse, mem: headerCur.mem}
}

// --- expressions, in ascending precedence: comparison, additive, term,
// primary. The language has no unary operators and no operator chaining
// beyond a single comparison, matching the grammar SPEC_FULL.md names. ---

func (p *parser) parseExpr(cur cursor) (*ir.Node, cursor) {
	lhs, cur := p.parseAdditive(cur)

	op, ok := cmpOpFor(p.tok.kind)
	if !ok {
		return lhs, cur
	}
	p.advance()

	rhs, cur := p.parseAdditive(cur)
	return ir.Cmp(p.f, op, lhs, rhs), cur
}

func cmpOpFor(k tokenKind) (ir.CmpOp, bool) {
	switch k {
	case tokEq:
		return ir.CmpEQ, true
	case tokNe:
		return ir.CmpNE, true
	case tokLt:
		return ir.CmpLT, true
	case tokLe:
		return ir.CmpLE, true
	case tokGt:
		return ir.CmpGT, true
	case tokGe:
		return ir.CmpGE, true
	default:
		return 0, false
	}
}

func (p *parser) parseAdditive(cur cursor) (*ir.Node, cursor) {
	lhs, cur := p.parseTerm(cur)
	for p.tok.kind == tokPlus || p.tok.kind == tokMinus {
		isAdd := p.tok.kind == tokPlus
		p.advance()
		var rhs *ir.Node
		rhs, cur = p.parseTerm(cur)
		if isAdd {
			lhs = ir.Add(p.f, lhs, rhs)
		} else {
			lhs = ir.Sub(p.f, lhs, rhs)
		}
	}
	return lhs, cur
}

func (p *parser) parseTerm(cur cursor) (*ir.Node, cursor) {
	lhs, cur := p.parsePrimary(cur)
	for p.tok.kind == tokStar || p.tok.kind == tokSlash {
		isMul := p.tok.kind == tokStar
		p.advance()
		var rhs *ir.Node
		rhs, cur = p.parsePrimary(cur)
		if isMul {
			lhs = ir.Mul(p.f, lhs, rhs)
		} else {
			lhs = ir.Sdiv(p.f, lhs, rhs)
		}
	}
	return lhs, cur
}

func (p *parser) parsePrimary(cur cursor) (*ir.Node, cursor) {
	switch p.tok.kind {
	case tokInt:
		v := p.tok.ival
		p.advance()
		return ir.Constant(p.f, v), cur

	case tokIdent:
		name := p.tok
		p.advance()
		slot, ok := p.vars[name.text]
		if !ok {
			p.errorf(name.pos, "undeclared variable %q", name.text)
			return ir.Constant(p.f, 0), cur
		}
		return ir.Load(p.f, cur.ctrl, cur.mem, slot), cur

	case tokLParen:
		p.advance()
		var val *ir.Node
		val, cur = p.parseExpr(cur)
		p.expect(tokRParen, "')'")
		return val, cur

	default:
		p.errorf(p.tok.pos, "expected an expression, got %q", p.tok.text)
		p.advance()
		return ir.Constant(p.f, 0), cur
	}
}

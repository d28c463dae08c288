package unroll

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/geo-aid/geoaid/ast"
	"github.com/geo-aid/geoaid/critic"
	"github.com/geo-aid/geoaid/geoerr"
	"github.com/geo-aid/geoaid/pool"
)

// Program is unroll's output: the pool and entity table built while
// resolving a file, the compiled rule list, and which pool indices a
// query (or a `display` property) asked to be shown — package lower
// consumes this directly (see the package doc comment).
type Program struct {
	Pool     *pool.Pool
	Entities *pool.EntityTable
	Rules    []critic.Rule
	Queries  []int
	Display  map[int]bool
	Styles   map[int]map[string]ast.PropertyEntry
}

// Unroller resolves one ast.File, accumulating every error found (spec.md
// §4.2 "do not stop at the first unresolvable statement") rather than
// failing on the first one, mirroring package parser's resume-and-collect
// idiom.
type Unroller struct {
	pool     *pool.Pool
	entities *pool.EntityTable
	global   *env

	rules   []critic.Rule
	queries []int

	Display map[int]bool
	Styles  map[int]map[string]ast.PropertyEntry

	errs *multierror.Error
}

// New returns an Unroller ready to process a single file.
func New() *Unroller {
	return &Unroller{
		pool:     pool.New(),
		entities: pool.NewEntityTable(),
		global:   newEnv(),
		Display:  map[int]bool{},
		Styles:   map[int]map[string]ast.PropertyEntry{},
	}
}

// Unroll resolves every statement in file in order, returning the
// accumulated Program. A non-nil error is always a *multierror.Error
// collecting every *geoerr.SpannedError raised; callers that only care
// about the first may unwrap with errors.As.
func (u *Unroller) Unroll(file *ast.File) (*Program, error) {
	for _, stmt := range file.Stmts {
		u.stmt(stmt)
	}
	u.resolveEntityKinds()
	if u.errs != nil {
		return nil, u.errs
	}
	return &Program{
		Pool:     u.pool,
		Entities: u.entities,
		Rules:    u.rules,
		Queries:  u.queries,
		Display:  u.Display,
		Styles:   u.Styles,
	}, nil
}

func (u *Unroller) fail(err error) {
	u.errs = multierror.Append(u.errs, err)
}

func (u *Unroller) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Let:
		u.letStmt(n)
	case *ast.Rule:
		if n.Properties != nil {
			u.fail(geoerr.New(geoerr.ErrProperty.New("a property block cannot attach to a rule statement"), geoerr.Span{Start: n.Properties.SpanVal.Start, End: n.Properties.SpanVal.End}))
			return
		}
		if err := u.ruleChain(u.global, n.Chain); err != nil {
			u.fail(err)
		}
	case *ast.Query:
		for _, e := range n.Exprs {
			v, err := u.resolveExpr(u.global, e)
			if err != nil {
				u.fail(err)
				continue
			}
			idx, ok := primaryIndex(v)
			if !ok {
				u.fail(geoerr.New(geoerr.ErrType.New("query expression has no single value to display"), geoerr.Span{Start: e.Span().Start, End: e.Span().End}))
				continue
			}
			u.queries = append(u.queries, idx)
			u.Display[idx] = true
		}
	default:
		u.fail(geoerr.New(geoerr.ErrInternal.New(fmt.Sprintf("unroll: unhandled statement %T", s)), geoerr.Span{Start: s.Span().Start, End: s.Span().End}))
	}
}

// letStmt handles both the single-name form and the iterated multi-name
// form (spec.md §4.2), then the optional trailing rule-chain shorthand
// (spec.md §4.7), which the parser attaches to the Let itself rather than
// emitting a separate Rule statement.
func (u *Unroller) letStmt(n *ast.Let) {
	if len(n.Names) == 1 {
		v, err := u.resolveExpr(u.global, n.Rhs)
		if err != nil {
			u.fail(err)
			return
		}
		u.finishLet(n, []string{n.Names[0].Name}, []ArgValue{v})
		return
	}

	vals, err := u.expandIteratedLet(n)
	if err != nil {
		u.fail(err)
		return
	}
	names := make([]string, len(n.Names))
	for i, name := range n.Names {
		names[i] = name.Name
	}
	u.finishLet(n, names, vals)
}

func (u *Unroller) finishLet(n *ast.Let, names []string, vals []ArgValue) {
	for i, name := range names {
		u.global.bind(name, vals[i])
	}
	if n.Properties != nil {
		for _, v := range vals {
			if err := u.bindProperties(v, n.Properties); err != nil {
				u.fail(err)
			}
		}
	}
	if n.Rule != nil {
		if len(vals) != 1 {
			u.fail(geoerr.New(geoerr.ErrRuleForm.New("a trailing rule on a multi-name let is not supported; write it as a separate statement"), geoerr.Span{Start: n.Rule.SpanVal.Start, End: n.Rule.SpanVal.End}))
			return
		}
		// names[0] is already bound in u.global above, so the rule chain's
		// left-operand Ident (the parser's stand-in for the omitted
		// operand, spec.md §4.7) resolves to vals[0] like any other name.
		if err := u.ruleChain(u.global, n.Rule); err != nil {
			u.fail(err)
		}
	}
}

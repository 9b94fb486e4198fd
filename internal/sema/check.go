package sema

import (
	"context"
	"errors"
	"fmt"

	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/source"
	"github.com/refu-lang/refu-sub002/internal/trace"
	"github.com/refu-lang/refu-sub002/internal/types"
)

// ErrFatal marks an analysis abort caused by a broken invariant.
var ErrFatal = errors.New("sema: fatal error")

// Options configure the analysis of one module.
type Options struct {
	Name     string
	Reporter diag.Reporter
	// Deps are analysed dependency modules. Their types are copied into this
	// module and their functions become foreign declarations.
	Deps []*Unit
}

// Check runs symbol collection, type checking and match validation over
// tree. The returned error is non-nil only for fatal problems; semantic
// errors are reported and reflected in Unit.Failed.
func Check(ctx context.Context, tree *ast.Tree, opts Options) (*Unit, error) {
	if tree == nil || !tree.Root.IsValid() {
		return nil, fmt.Errorf("%w: empty tree", ErrFatal)
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	name := opts.Name
	if name == "" {
		name = tree.Name(tree.Root)
	}
	u := &Unit{
		Name:    name,
		Tree:    tree,
		Types:   types.NewSet(),
		Symbols: NewSymbolTable(tree.Root),
		Classes: make(map[string]*Typeclass),
		Cases:   make(map[ast.NodeID]CaseInfo),
		Calls:   make(map[ast.NodeID]Callee),
		Common:  make(map[ast.NodeID]types.TypeID),
		funcs:   make(map[string]*Func),
	}
	c := &checker{
		ctx:        ctx,
		unit:       u,
		tree:       tree,
		set:        u.Types,
		reporter:   reporter,
		deps:       make(map[string]*Unit, len(opts.Deps)),
		resolving:  make(map[*Symbol]bool),
		broken:     make(map[*Symbol]bool),
		exhaustive: make(map[ast.NodeID]bool),
	}
	for _, d := range opts.Deps {
		c.deps[d.Name] = d
	}

	passes := []struct {
		name string
		run  func() Result
	}{
		{"import_deps", func() Result { return c.importDeps(opts.Deps) }},
		{"collect_symbols", c.collectSymbols},
		{"resolve_decls", c.resolveDecls},
		{"check_bodies", c.checkBodies},
		{"check_instances", c.checkInstances},
	}
	res := Continue
	for _, p := range passes {
		_, span := trace.Start(ctx, trace.ScopePass, "sema."+p.name)
		r := p.run()
		span.End(r.String())
		res = res.Join(r)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r == Fatal {
			u.result = Fatal
			if c.err == nil {
				c.err = fmt.Errorf("%w: pass %s", ErrFatal, p.name)
			}
			return nil, c.err
		}
	}
	u.result = res
	return u, nil
}

type checker struct {
	ctx      context.Context
	unit     *Unit
	tree     *ast.Tree
	set      *types.Set
	reporter diag.Reporter
	deps     map[string]*Unit
	err      error

	resolving  map[*Symbol]bool
	broken     map[*Symbol]bool
	exhaustive map[ast.NodeID]bool
	fn         *Func // function whose body is being checked
}

func errNoNode(id ast.NodeID) error {
	return fmt.Errorf("node %d does not exist", id)
}

// fatal records err and returns Fatal.
func (c *checker) fatal(err error) Result {
	if c.err == nil {
		c.err = fmt.Errorf("%w: %w", ErrFatal, err)
	}
	return Fatal
}

// intern wraps Set.Intern, turning internal errors into Fatal.
func (c *checker) intern(t types.Type) (types.TypeID, Result) {
	id, err := c.set.Intern(t)
	if err != nil {
		return types.NoTypeID, c.fatal(err)
	}
	return id, Continue
}

func (c *checker) errorf(code diag.Code, node ast.NodeID, format string, args ...any) Result {
	diag.ReportError(c.reporter, code, c.tree.Span(node), fmt.Sprintf(format, args...)).Emit()
	return SoftError
}

func (c *checker) errorNote(code diag.Code, node ast.NodeID, note string, noteSpan source.Span, format string, args ...any) Result {
	diag.ReportError(c.reporter, code, c.tree.Span(node), fmt.Sprintf(format, args...)).
		WithNote(noteSpan, note).
		Emit()
	return SoftError
}

func (c *checker) warnf(code diag.Code, node ast.NodeID, format string, args ...any) {
	diag.ReportWarning(c.reporter, code, c.tree.Span(node), fmt.Sprintf(format, args...)).Emit()
}

func (c *checker) typeName(t types.TypeID) string {
	if t == types.NoTypeID {
		return "<unknown>"
	}
	return c.set.String(t)
}

func (c *checker) nilType() types.TypeID {
	return c.set.Elementary(types.ElemNil)
}

// items flattens module bodies into the list of top-level declarations.
func (c *checker) items() []ast.NodeID {
	var out []ast.NodeID
	var walk func(id ast.NodeID)
	walk = func(id ast.NodeID) {
		n := c.tree.Get(id)
		if n == nil {
			return
		}
		for _, child := range n.Children {
			if c.tree.Kind(child) == ast.KindModule {
				walk(child)
				continue
			}
			out = append(out, child)
		}
	}
	walk(c.tree.Root)
	return out
}

package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/ir"
	"github.com/refu-lang/refu-sub002/internal/observ"
	"github.com/refu-lang/refu-sub002/internal/project"
	"github.com/refu-lang/refu-sub002/internal/sema"
	"github.com/refu-lang/refu-sub002/internal/source"
	"github.com/refu-lang/refu-sub002/internal/trace"
)

const defaultMaxDiagnostics = 100

// Options configure one compilation.
type Options struct {
	MaxDiagnostics   int // per module; 0 means the manifest value or 100
	WarningsAsErrors bool
	Timer            *observ.Timer // optional
}

func (o Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return defaultMaxDiagnostics
	}
	return o.MaxDiagnostics
}

// phase runs fn under a driver span and, when a timer is set, a timed phase.
func (o Options) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "driver."+name)
	idx := -1
	if o.Timer != nil {
		idx = o.Timer.Begin(name)
	}
	err := fn(ctx)
	note := ""
	if err != nil {
		note = err.Error()
	}
	span.End(note)
	if o.Timer != nil {
		o.Timer.End(idx, note)
	}
	return err
}

// Result is the outcome of compiling one unit.
type Result struct {
	Name   string
	Files  *source.FileSet
	Bag    *diag.Bag
	Unit   *sema.Unit   // nil when analysis aborted or a dependency failed
	Deps   []*sema.Unit // analysed dependencies of Unit
	Module *ir.Module   // set by Lower
	Hash   project.Digest
}

// Failed reports whether the unit may not be lowered.
func (r *Result) Failed() bool {
	return r.Unit == nil || r.Unit.Failed() || r.Bag.HasErrors()
}

func newResult(name string, fs *source.FileSet, opts Options) *Result {
	if fs == nil {
		fs = source.NewFileSet()
	}
	return &Result{Name: name, Files: fs, Bag: diag.NewBag(opts.maxDiagnostics())}
}

// CheckFile analyses a single syntax tree without dependencies. srcPath is
// optional; when set the source text is registered for diagnostics.
func CheckFile(ctx context.Context, name, treePath, srcPath string, opts Options) (*Result, error) {
	r := newResult(name, nil, opts)
	var tree *ast.Tree
	err := opts.phase(ctx, "load", func(context.Context) error {
		var err error
		tree, r.Hash, err = loadTree(treePath, srcPath, r.Files)
		return err
	})
	if err != nil {
		return nil, err
	}
	if r.Name == "" {
		r.Name = tree.Name(tree.Root)
	}
	r.Unit, err = analyze(ctx, opts, r.Name, tree, nil, r.Bag)
	finish(r, opts)
	return r, err
}

// CheckTree analyses an in-memory tree without dependencies.
func CheckTree(ctx context.Context, name string, tree *ast.Tree, fs *source.FileSet, opts Options) (*Result, error) {
	r := newResult(name, fs, opts)
	u, err := analyze(ctx, opts, name, tree, nil, r.Bag)
	r.Unit = u
	finish(r, opts)
	return r, err
}

// loadTree decodes the msgpack tree at path and hashes its bytes. Node
// spans are rebased onto srcPath, or onto the tree itself without one.
func loadTree(path, srcPath string, fs *source.FileSet) (*ast.Tree, project.Digest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, project.Digest{}, err
	}
	tree, err := ast.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, project.Digest{}, fmt.Errorf("%s: %w", path, err)
	}
	// Trees without source text still get their own file so diagnostics
	// name the tree rather than whatever file happens to be first.
	var id source.FileID
	if srcPath != "" {
		if id, err = fs.Load(srcPath); err != nil {
			return nil, project.Digest{}, err
		}
	} else {
		id = fs.AddVirtual(path, nil)
	}
	nodes := tree.Nodes.Slice()
	for i := range nodes {
		nodes[i].Span.File = id
	}
	return tree, project.HashBytes(data), nil
}

func analyze(ctx context.Context, opts Options, name string, tree *ast.Tree, deps []*sema.Unit, bag *diag.Bag) (*sema.Unit, error) {
	var u *sema.Unit
	err := opts.phase(ctx, "analyze:"+name, func(ctx context.Context) error {
		var err error
		u, err = sema.Check(ctx, tree, sema.Options{
			Name:     name,
			Reporter: diag.BagReporter{Bag: bag},
			Deps:     deps,
		})
		return err
	})
	if opts.WarningsAsErrors {
		bag.PromoteWarnings()
	}
	return u, err
}

func finish(r *Result, opts Options) {
	if opts.WarningsAsErrors {
		r.Bag.PromoteWarnings()
	}
	r.Bag.Sort()
	r.Bag.Dedup()
}

func firstError(bag *diag.Bag) *diag.Diagnostic {
	for _, d := range bag.Items() {
		if d.Severity >= diag.SevError {
			return &d
		}
	}
	return nil
}

// Lower turns the analysed unit into a validated IR module. A failure is
// also recorded as a diagnostic.
func Lower(ctx context.Context, r *Result, opts Options) error {
	if r.Failed() {
		return ir.ErrFailedUnit
	}
	err := opts.phase(ctx, "lower", func(ctx context.Context) error {
		m, err := ir.Lower(ctx, r.Unit)
		if err != nil {
			return err
		}
		if err := ir.Validate(m); err != nil {
			return err
		}
		r.Module = m
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		diag.ReportError(diag.BagReporter{Bag: r.Bag}, diag.RIRLoweringFailure, source.Span{},
			fmt.Sprintf("lowering %s failed: %v", r.Name, err)).Emit()
	}
	return err
}

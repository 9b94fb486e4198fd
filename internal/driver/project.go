package driver

import (
	"context"
	"fmt"

	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/project"
	"github.com/refu-lang/refu-sub002/internal/project/dag"
	"github.com/refu-lang/refu-sub002/internal/sema"
	"github.com/refu-lang/refu-sub002/internal/source"
)

// CheckProject analyses every module of the manifest in dependency order
// and returns the result for its unit. Modules whose dependencies failed
// are not analysed. fs should already hold the manifest text.
func CheckProject(ctx context.Context, m *project.Manifest, fs *source.FileSet, opts Options) (*Result, error) {
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = m.Config.Diagnostics.Max
	}
	opts.WarningsAsErrors = opts.WarningsAsErrors || m.Config.Diagnostics.WarningsAsErrors
	r := newResult(m.Config.Unit.Name, fs, opts)
	rep := diag.BagReporter{Bag: r.Bag}

	var (
		idx   dag.ModuleIndex
		graph dag.Graph
		slots []dag.ModuleSlot
		topo  *dag.Topo
	)
	_ = opts.phase(ctx, "graph", func(context.Context) error {
		metas := m.Modules()
		nodes := make([]dag.ModuleNode, len(metas))
		for i, meta := range metas {
			nodes[i] = dag.ModuleNode{Meta: meta, Reporter: rep}
		}
		idx = dag.BuildIndex(metas)
		graph, slots = dag.BuildGraph(idx, nodes)
		topo = dag.Sort(graph)
		dag.ReportCycles(idx, slots, topo)
		return nil
	})
	if topo.Cyclic {
		finish(r, opts)
		return r, nil
	}

	units := make([]*sema.Unit, len(slots))
	for _, id := range topo.Order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slot := &slots[int(id)]
		deps, hashes, ok := depsOf(graph, slots, units, id)
		if !ok {
			dag.MarkBroken(slots, id, nil)
			continue
		}

		tree, content, err := loadModule(ctx, opts, slot.Meta, fs)
		if err != nil {
			d := diag.New(diag.SevError, diag.ProjLoadFailure, slot.Meta.Span,
				fmt.Sprintf("cannot load module %q: %v", slot.Meta.Name, err))
			r.Bag.Add(d)
			dag.MarkBroken(slots, id, &d)
			continue
		}
		slot.Meta.ContentHash = content
		slot.Meta.ModuleHash = project.Combine(content, hashes...)

		bag := diag.NewBag(opts.maxDiagnostics())
		u, err := analyze(ctx, opts, slot.Meta.Name, tree, deps, bag)
		r.Bag.Merge(bag)
		if err != nil {
			finish(r, opts)
			return r, fmt.Errorf("module %s: %w", slot.Meta.Name, err)
		}
		units[int(id)] = u
		if u.Failed() || bag.HasErrors() {
			dag.MarkBroken(slots, id, firstError(bag))
		}
	}
	dag.ReportBrokenDeps(idx, slots)

	unitID := idx.NameToID[m.Config.Unit.Name]
	r.Unit = units[int(unitID)]
	r.Hash = slots[int(unitID)].Meta.ModuleHash
	for _, to := range graph.Edges[int(unitID)] {
		if units[int(to)] != nil {
			r.Deps = append(r.Deps, units[int(to)])
		}
	}
	finish(r, opts)
	return r, nil
}

// depsOf collects the analysed dependencies of id. ok is false when one
// of them is missing or broken.
func depsOf(g dag.Graph, slots []dag.ModuleSlot, units []*sema.Unit, id dag.ModuleID) (deps []*sema.Unit, hashes []project.Digest, ok bool) {
	for _, to := range g.Edges[int(id)] {
		if !g.Present[int(to)] || slots[int(to)].Broken || units[int(to)] == nil {
			return nil, nil, false
		}
		deps = append(deps, units[int(to)])
		hashes = append(hashes, slots[int(to)].Meta.ModuleHash)
	}
	return deps, hashes, true
}

func loadModule(ctx context.Context, opts Options, meta project.ModuleMeta, fs *source.FileSet) (*ast.Tree, project.Digest, error) {
	var (
		tree *ast.Tree
		hash project.Digest
	)
	err := opts.phase(ctx, "load:"+meta.Name, func(context.Context) error {
		var err error
		tree, hash, err = loadTree(meta.Tree, meta.Source, fs)
		return err
	})
	return tree, hash, err
}

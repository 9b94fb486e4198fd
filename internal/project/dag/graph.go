package dag

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"

	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/project"
	"github.com/refu-lang/refu-sub002/internal/source"
)

type Graph struct {
	Edges   [][]ModuleID // Edges[from] lists the modules from depends on
	Present []bool       // declared in the manifest, not only named as a dep
}

type ModuleNode struct {
	Meta     project.ModuleMeta
	Reporter diag.Reporter
}

type ModuleSlot struct {
	Meta     project.ModuleMeta
	Reporter diag.Reporter
	Present  bool
	Broken   bool
	FirstErr *diag.Diagnostic
}

func BuildGraph(idx ModuleIndex, nodes []ModuleNode) (Graph, []ModuleSlot) {
	nodeCount := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]ModuleID, nodeCount),
		Present: make([]bool, nodeCount),
	}
	slots := make([]ModuleSlot, nodeCount)
	for i, name := range idx.IDToName {
		slots[i].Meta.Name = name
	}

	for _, node := range nodes {
		meta := node.Meta
		if meta.Name == "" {
			continue
		}
		id, ok := idx.NameToID[meta.Name]
		if !ok {
			continue
		}
		slot := &slots[int(id)]
		if slot.Present {
			if node.Reporter != nil {
				b := diag.ReportError(node.Reporter, diag.ProjDuplicateModule, meta.Span,
					fmt.Sprintf("duplicate module %q", meta.Name))
				if slot.Meta.Span != (source.Span{}) {
					b.WithNote(slot.Meta.Span, fmt.Sprintf("previous declaration of %q", slot.Meta.Name))
				}
				b.Emit()
			}
			continue
		}
		slot.Meta = meta
		slot.Reporter = node.Reporter
		slot.Present = true
		g.Present[int(id)] = true
	}

	for from := range slots {
		slot := &slots[from]
		if !slot.Present || len(slot.Meta.Deps) == 0 {
			continue
		}
		seen := make(map[ModuleID]struct{}, len(slot.Meta.Deps))
		for _, dep := range slot.Meta.Deps {
			if dep.Name == "" {
				continue
			}
			toID, ok := idx.NameToID[dep.Name]
			if !ok {
				slot.report(diag.ProjMissingModule, dep.Span,
					fmt.Sprintf("module %q depends on unknown module %q", slot.Meta.Name, dep.Name))
				continue
			}
			if int(toID) == from {
				slot.report(diag.ProjSelfImport, dep.Span,
					fmt.Sprintf("module %q depends on itself", slot.Meta.Name))
				continue
			}
			if _, dup := seen[toID]; dup {
				continue
			}
			seen[toID] = struct{}{}

			g.Edges[from] = append(g.Edges[from], toID)
			if !g.Present[int(toID)] {
				slot.report(diag.ProjMissingModule, dep.Span,
					fmt.Sprintf("module %q depends on missing module %q", slot.Meta.Name, idx.IDToName[int(toID)]))
			}
		}
		if len(g.Edges[from]) > 1 {
			slices.Sort(g.Edges[from])
		}
	}

	return g, slots
}

func (s *ModuleSlot) report(code diag.Code, sp source.Span, msg string) {
	if s.Reporter != nil {
		s.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}

// MarkBroken records that the module behind id failed analysis.
func MarkBroken(slots []ModuleSlot, id ModuleID, first *diag.Diagnostic) {
	slot := &slots[int(id)]
	slot.Broken = true
	if slot.FirstErr == nil {
		slot.FirstErr = first
	}
}

func ReportCycles(idx ModuleIndex, slots []ModuleSlot, topo *Topo) {
	if topo == nil || !topo.Cyclic || len(topo.Cycles) == 0 {
		return
	}
	names := make([]string, 0, len(topo.Cycles))
	for _, id := range topo.Cycles {
		names = append(names, idx.IDToName[int(id)])
	}
	summary := strings.Join(names, " -> ")

	for _, id := range topo.Cycles {
		slot := &slots[int(id)]
		if !slot.Present {
			continue
		}
		slot.report(diag.ProjImportCycle, slot.Meta.Span,
			fmt.Sprintf("module %q participates in a dependency cycle: %s", slot.Meta.Name, summary))
	}
}

// ReportBrokenDeps flags every module depending on a broken one. It
// returns the ids of the modules it reported on.
func ReportBrokenDeps(idx ModuleIndex, slots []ModuleSlot) []ModuleID {
	var out []ModuleID
	for i := range slots {
		from := &slots[i]
		if !from.Present || from.Reporter == nil || len(from.Meta.Deps) == 0 {
			continue
		}
		reported := false
		emitted := make(map[string]struct{}, len(from.Meta.Deps))
		for _, dep := range from.Meta.Deps {
			toID, ok := idx.NameToID[dep.Name]
			if !ok || !slots[int(toID)].Broken {
				continue
			}
			if _, seen := emitted[dep.Name]; seen {
				continue
			}
			emitted[dep.Name] = struct{}{}

			b := diag.ReportError(from.Reporter, diag.ProjDependencyFailed, dep.Span,
				fmt.Sprintf("dependency module %q has errors", dep.Name))
			if first := slots[int(toID)].FirstErr; first != nil {
				b.WithNote(first.Primary, fmt.Sprintf("first error in dependency: %s", first.Message))
			}
			b.Emit()
			reported = true
		}
		if reported {
			id, err := safecast.Conv[ModuleID](i)
			if err != nil {
				panic(fmt.Errorf("module id overflow: %w", err))
			}
			out = append(out, id)
		}
	}
	return out
}

package project

import (
	"unicode"

	"github.com/refu-lang/refu-sub002/internal/source"
)

type ModuleKind uint8

const (
	ModuleKindUnknown ModuleKind = iota
	ModuleKindModule
	ModuleKindUnit
)

func (k ModuleKind) String() string {
	switch k {
	case ModuleKindModule:
		return "module"
	case ModuleKindUnit:
		return "unit"
	default:
		return "unknown"
	}
}

// DepMeta is one entry of a module's deps list.
type DepMeta struct {
	Name string
	Span source.Span
}

// ModuleMeta describes one node of the project graph.
type ModuleMeta struct {
	Name        string
	Kind        ModuleKind
	Tree        string // absolute path of the msgpack syntax tree
	Source      string // absolute path of the source text, if known
	Span        source.Span
	Deps        []DepMeta
	ContentHash Digest // hash of the tree file
	ModuleHash  Digest // ContentHash combined with the hashes of all deps
}

func IsValidModuleIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

package ir

// FuncStats summarizes one function.
type FuncStats struct {
	Name         string `json:"name" yaml:"name"`
	Foreign      bool   `json:"foreign,omitempty" yaml:"foreign,omitempty"`
	Blocks       int    `json:"blocks" yaml:"blocks"`
	Instructions int    `json:"instructions" yaml:"instructions"`
}

// TypedefStats records a typedef and its storage size.
type TypedefStats struct {
	Name  string `json:"name" yaml:"name"`
	Union bool   `json:"union,omitempty" yaml:"union,omitempty"`
	Bytes uint64 `json:"bytes" yaml:"bytes"`
}

// Stats is a machine readable summary of a module.
type Stats struct {
	Module       string         `json:"module" yaml:"module"`
	Objects      int            `json:"objects" yaml:"objects"`
	Globals      int            `json:"globals" yaml:"globals"`
	Typedefs     []TypedefStats `json:"typedefs" yaml:"typedefs"`
	Functions    []FuncStats    `json:"functions" yaml:"functions"`
	Blocks       int            `json:"blocks" yaml:"blocks"`
	Instructions int            `json:"instructions" yaml:"instructions"`
}

// Summarize collects Stats. Typedefs whose size cannot be computed report 0.
func Summarize(m *Module) Stats {
	s := Stats{Module: m.Name, Objects: m.Objects.Len(), Globals: len(m.Globals)}
	for _, td := range m.Typedefs {
		n, _ := m.ByteSize(td)
		s.Typedefs = append(s.Typedefs, TypedefStats{Name: td.Name, Union: td.Union, Bytes: n})
	}
	for _, f := range m.Decls {
		s.Functions = append(s.Functions, FuncStats{Name: f.Name, Foreign: true})
	}
	for _, f := range m.Funcs {
		fs := FuncStats{Name: f.Name, Blocks: len(f.Blocks), Instructions: f.InstructionCount()}
		s.Blocks += fs.Blocks
		s.Instructions += fs.Instructions
		s.Functions = append(s.Functions, fs)
	}
	return s
}

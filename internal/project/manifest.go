package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"github.com/refu-lang/refu-sub002/internal/source"
)

// ManifestName is the file FindManifest looks for.
const ManifestName = "rfc.toml"

var ErrNoManifest = errors.New("no " + ManifestName + " found")

// OutputFormat selects which IR artifacts `rfc lower` writes.
type OutputFormat string

const (
	OutputText   OutputFormat = "text"
	OutputBinary OutputFormat = "binary"
	OutputBoth   OutputFormat = "both"
)

func (f OutputFormat) Text() bool   { return f == OutputText || f == OutputBoth }
func (f OutputFormat) Binary() bool { return f == OutputBinary || f == OutputBoth }

type UnitConfig struct {
	Name   string   `toml:"name"`
	Tree   string   `toml:"tree"`
	Source string   `toml:"source"` // optional, used to render diagnostics
	Deps   []string `toml:"deps"`
}

type ModuleConfig struct {
	Name   string   `toml:"name"`
	Tree   string   `toml:"tree"`
	Source string   `toml:"source"` // optional, used to render diagnostics
	Deps   []string `toml:"deps"`
}

type OutputConfig struct {
	Dir    string       `toml:"dir"`
	Format OutputFormat `toml:"format"`
}

type DiagnosticsConfig struct {
	Max              int  `toml:"max"`
	WarningsAsErrors bool `toml:"warnings_as_errors"`
}

type Config struct {
	Unit        UnitConfig        `toml:"unit"`
	Modules     []ModuleConfig    `toml:"module"`
	Output      OutputConfig      `toml:"output"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
}

// Manifest is a loaded rfc.toml. Paths in Config stay as written;
// Resolve makes them absolute.
type Manifest struct {
	Path   string
	Root   string
	File   source.FileID // the manifest text inside the FileSet given to Load
	Config Config

	content []byte
	inFS    bool
}

// FindManifest walks up from startDir to locate rfc.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest reads the manifest at path. When fs is non-nil the text is
// registered there so project diagnostics can point into it.
func LoadManifest(path string, fs *source.FileSet) (*Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	m, err := ParseManifest(abs, content)
	if err != nil {
		return nil, err
	}
	if fs != nil {
		m.File, m.inFS = fs.Add(abs, content, 0), true
	}
	return m, nil
}

// ParseManifest decodes and validates manifest text.
func ParseManifest(path string, content []byte) (*Manifest, error) {
	var cfg Config
	meta, err := toml.Decode(string(content), &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("unit") {
		return nil, fmt.Errorf("%s: missing [unit]", path)
	}
	if !meta.IsDefined("unit", "name") || strings.TrimSpace(cfg.Unit.Name) == "" {
		return nil, fmt.Errorf("%s: missing [unit].name", path)
	}
	if !meta.IsDefined("unit", "tree") || strings.TrimSpace(cfg.Unit.Tree) == "" {
		return nil, fmt.Errorf("%s: missing [unit].tree", path)
	}
	var errs []error
	if !IsValidModuleIdent(cfg.Unit.Name) {
		errs = append(errs, fmt.Errorf("%s: invalid unit name %q", path, cfg.Unit.Name))
	}
	for i, mod := range cfg.Modules {
		switch {
		case !IsValidModuleIdent(mod.Name):
			errs = append(errs, fmt.Errorf("%s: [[module]] #%d: invalid name %q", path, i+1, mod.Name))
		case strings.TrimSpace(mod.Tree) == "":
			errs = append(errs, fmt.Errorf("%s: [[module]] %q: missing tree", path, mod.Name))
		}
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "build"
	}
	switch cfg.Output.Format {
	case "":
		cfg.Output.Format = OutputText
	case OutputText, OutputBinary, OutputBoth:
	default:
		errs = append(errs, fmt.Errorf("%s: [output].format must be text, binary or both, got %q", path, cfg.Output.Format))
	}
	if cfg.Diagnostics.Max < 0 {
		errs = append(errs, fmt.Errorf("%s: [diagnostics].max must not be negative", path))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg, content: content}, nil
}

// Resolve makes p absolute relative to the manifest directory.
func (m *Manifest) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}

// OutputDir is the absolute artifact directory.
func (m *Manifest) OutputDir() string { return m.Resolve(m.Config.Output.Dir) }

// Modules lists every module of the project, dependency modules first in
// file order and the unit last.
func (m *Manifest) Modules() []ModuleMeta {
	out := make([]ModuleMeta, 0, len(m.Config.Modules)+1)
	for _, mod := range m.Config.Modules {
		out = append(out, m.meta(ModuleKindModule, mod.Name, mod.Tree, mod.Source, mod.Deps))
	}
	u := m.Config.Unit
	return append(out, m.meta(ModuleKindUnit, u.Name, u.Tree, u.Source, u.Deps))
}

func (m *Manifest) meta(kind ModuleKind, name, tree, src string, deps []string) ModuleMeta {
	decl := m.locateName(name)
	meta := ModuleMeta{Name: name, Kind: kind, Tree: m.Resolve(tree), Span: decl}
	if src != "" {
		meta.Source = m.Resolve(src)
	}
	for _, d := range deps {
		meta.Deps = append(meta.Deps, DepMeta{Name: d, Span: m.locate(decl.End, d)})
	}
	return meta
}

// locateName finds the `name = "..."` line declaring name.
func (m *Manifest) locateName(name string) source.Span {
	for from := uint32(0); ; {
		sp := m.locate(from, name)
		if sp.Empty() {
			return sp
		}
		line := m.content[:sp.Start]
		if nl := bytes.LastIndexByte(line, '\n'); nl >= 0 {
			line = line[nl+1:]
		}
		key, _, ok := strings.Cut(string(line), "=")
		if ok && strings.TrimSpace(key) == "name" {
			return sp
		}
		from = sp.End
	}
}

// locate finds the quoted string s at or after from. TOML positions are not
// exposed by the decoder, so spans are recovered from the text.
func (m *Manifest) locate(from uint32, s string) source.Span {
	if !m.inFS || int(from) > len(m.content) {
		return source.Span{File: m.File}
	}
	quoted := `"` + s + `"`
	i := strings.Index(string(m.content[from:]), quoted)
	if i < 0 {
		return source.Span{File: m.File}
	}
	start, err := safecast.Conv[uint32](int(from) + i)
	if err != nil {
		return source.Span{File: m.File}
	}
	return source.Span{File: m.File, Start: start, End: start + uint32(len(quoted))}
}

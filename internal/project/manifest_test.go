package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/refu-lang/refu-sub002/internal/source"
)

const sampleManifest = `[unit]
name = "app"
tree = "build/app.rfast"
deps = ["stdlib"]

[[module]]
name = "stdlib"
tree = "build/stdlib.rfast"

[output]
format = "both"

[diagnostics]
max = 20
`

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, ManifestName)
	if err := os.WriteFile(want, []byte(sampleManifest), 0o600); err != nil {
		t.Fatal(err)
	}
	got, ok, err := FindManifest(nested)
	if err != nil || !ok || got != want {
		t.Fatalf("FindManifest = %q, %v, %v", got, ok, err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(sampleManifest), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	m, err := LoadManifest(path, fs)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Config.Output.Dir != "build" || !m.Config.Output.Format.Text() || !m.Config.Output.Format.Binary() {
		t.Fatalf("output = %+v", m.Config.Output)
	}
	if m.Config.Diagnostics.Max != 20 {
		t.Fatalf("diagnostics = %+v", m.Config.Diagnostics)
	}
	if m.OutputDir() != filepath.Join(dir, "build") {
		t.Fatalf("OutputDir = %s", m.OutputDir())
	}

	mods := m.Modules()
	if len(mods) != 2 || mods[0].Name != "stdlib" || mods[1].Name != "app" || mods[1].Kind != ModuleKindUnit {
		t.Fatalf("modules = %+v", mods)
	}
	if mods[1].Tree != filepath.Join(dir, "build", "app.rfast") {
		t.Fatalf("unit tree = %s", mods[1].Tree)
	}
	// The stdlib declaration is found on its name line, not at the dep
	// reference that precedes it.
	decl := mods[0].Span
	if got := sampleManifest[decl.Start:decl.End]; got != `"stdlib"` {
		t.Fatalf("declaration span covers %q", got)
	}
	const prefix = "name = "
	if start := int(decl.Start); start < len(prefix) || !strings.HasPrefix(sampleManifest[start-len(prefix):], prefix) {
		t.Fatalf("declaration span points at %d", decl.Start)
	}
	dep := mods[1].Deps[0].Span
	if dep.File != m.File || sampleManifest[dep.Start:dep.End] != `"stdlib"` {
		t.Fatalf("dep span = %v", dep)
	}
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"no unit", "[output]\ndir = \"out\"\n", "missing [unit]"},
		{"no name", "[unit]\ntree = \"a.rfast\"\n", "missing [unit].name"},
		{"no tree", "[unit]\nname = \"app\"\n", "missing [unit].tree"},
		{"bad name", "[unit]\nname = \"9app\"\ntree = \"a\"\n", "invalid unit name"},
		{"bad format", "[unit]\nname = \"app\"\ntree = \"a\"\n[output]\nformat = \"xml\"\n", "[output].format"},
		{"module without tree", "[unit]\nname = \"app\"\ntree = \"a\"\n[[module]]\nname = \"lib\"\n", "missing tree"},
		{"unknown key", "[unit]\nname = \"app\"\ntree = \"a\"\nmain = \"x\"\n", "unknown key unit.main"},
		{"syntax", "[unit\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest("rfc.toml", []byte(tt.text))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestModuleHashCombinesDeps(t *testing.T) {
	a := HashBytes([]byte("a"))
	b := HashBytes([]byte("b"))
	if Combine(a, b) == Combine(b, a) || Combine(a) == a {
		t.Fatalf("Combine is not order sensitive")
	}
	if len(a.Short()) != 12 || a.IsZero() {
		t.Fatalf("Short = %q", a.Short())
	}
}

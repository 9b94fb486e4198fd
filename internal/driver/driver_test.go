package driver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/ir"
	"github.com/refu-lang/refu-sub002/internal/observ"
	"github.com/refu-lang/refu-sub002/internal/project"
	"github.com/refu-lang/refu-sub002/internal/source"
)

func writeTree(t *testing.T, dir, name string, tree *ast.Tree) {
	t.Helper()
	var buf bytes.Buffer
	if err := ast.Encode(&buf, tree); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".rfast"), buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
}

func stdlibTree(broken bool) *ast.Tree {
	b := ast.NewBuilder(0)
	print := b.FnDecl("print", b.TypeDesc(b.Leaf("s", b.TypeRef("string"))), ast.NoNodeID)
	items := []ast.NodeID{print}
	if broken {
		items = append(items, b.FnImpl(b.FnDecl("bad", ast.NoNodeID, b.TypeRef("i64")),
			b.Block(b.Return(b.Ident("missing")))))
	}
	b.Root("stdlib", items...)
	return b.Tree
}

func appTree() *ast.Tree {
	b := ast.NewBuilder(0)
	main := b.FnImpl(b.FnDecl("main", ast.NoNodeID, ast.NoNodeID),
		b.Block(b.Call("print", b.String("hi"))))
	b.Root("app", b.Import("stdlib"), main)
	return b.Tree
}

// setup writes a project and returns its loaded manifest.
func setup(t *testing.T, manifest string, trees map[string]*ast.Tree) (*project.Manifest, *source.FileSet) {
	t.Helper()
	dir := t.TempDir()
	for name, tree := range trees {
		writeTree(t, dir, name, tree)
	}
	path := filepath.Join(dir, project.ManifestName)
	if err := os.WriteFile(path, []byte(manifest), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	m, err := project.LoadManifest(path, fs)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	return m, fs
}

const appManifest = `[unit]
name = "app"
tree = "app.rfast"
deps = ["stdlib"]

[[module]]
name = "stdlib"
tree = "stdlib.rfast"

[output]
dir = "out"
format = "both"
`

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestCheckProjectLowersAndEmits(t *testing.T) {
	m, fs := setup(t, appManifest, map[string]*ast.Tree{"stdlib": stdlibTree(false), "app": appTree()})
	timer := observ.NewTimer()
	opts := Options{Timer: timer}
	ctx := context.Background()

	r, err := CheckProject(ctx, m, fs, opts)
	if err != nil {
		t.Fatalf("CheckProject: %v", err)
	}
	if r.Failed() {
		t.Fatalf("unexpected diagnostics:\n%s", diag.FormatShort(r.Bag.Items(), r.Files, true))
	}
	if len(r.Deps) != 1 || r.Deps[0].Name != "stdlib" || r.Hash.IsZero() {
		t.Fatalf("deps = %d, hash = %s", len(r.Deps), r.Hash.Short())
	}
	if err := Lower(ctx, r, opts); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	out, err := Emit(ctx, r, m.OutputDir(), m.Config.Output.Format, opts)
	if err != nil || len(out) != 2 {
		t.Fatalf("Emit = %v, %v", out, err)
	}

	text, err := os.ReadFile(out[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(text), "// rfc ") || !strings.Contains(string(text), "fndecl(print; string; nil)") {
		t.Fatalf("text artifact:\n%s", text)
	}
	parsed, err := ir.Parse("app", bytes.NewReader(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d := ir.Diff(r.Module, parsed); len(d) != 0 {
		t.Fatalf("text artifact differs: %v", d)
	}
	f, err := os.Open(out[1])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := ir.DecodeModule(f)
	if err != nil {
		t.Fatalf("DecodeModule: %v", err)
	}
	if d := ir.Diff(r.Module, decoded); len(d) != 0 {
		t.Fatalf("binary artifact differs: %v", d)
	}

	var names []string
	for _, p := range timer.Phases() {
		names = append(names, p.Name)
	}
	want := "graph,load:stdlib,analyze:stdlib,load:app,analyze:app,lower,emit"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("phases = %s, want %s", got, want)
	}
}

func TestCheckProjectReportsBrokenDependency(t *testing.T) {
	m, fs := setup(t, appManifest, map[string]*ast.Tree{"stdlib": stdlibTree(true), "app": appTree()})
	r, err := CheckProject(context.Background(), m, fs, Options{})
	if err != nil {
		t.Fatalf("CheckProject: %v", err)
	}
	if !r.Failed() || r.Unit != nil {
		t.Fatalf("unit analysed despite a broken dependency")
	}
	if !hasCode(r.Bag, diag.SemaUndeclared) || !hasCode(r.Bag, diag.ProjDependencyFailed) {
		t.Fatalf("diagnostics:\n%s", diag.FormatShort(r.Bag.Items(), r.Files, false))
	}
	if err := Lower(context.Background(), r, Options{}); !errors.Is(err, ir.ErrFailedUnit) {
		t.Fatalf("Lower = %v", err)
	}
}

func TestCheckProjectReportsLoadFailure(t *testing.T) {
	m, fs := setup(t, appManifest, map[string]*ast.Tree{"app": appTree()})
	r, err := CheckProject(context.Background(), m, fs, Options{})
	if err != nil {
		t.Fatalf("CheckProject: %v", err)
	}
	if !hasCode(r.Bag, diag.ProjLoadFailure) || !r.Failed() {
		t.Fatalf("diagnostics:\n%s", diag.FormatShort(r.Bag.Items(), r.Files, false))
	}
	short := diag.FormatShort(r.Bag.Items(), r.Files, false)
	if !strings.Contains(short, "rfc.toml:7:8") {
		t.Fatalf("load failure not located at the module name:\n%s", short)
	}
}

func TestCheckProjectReportsCycles(t *testing.T) {
	manifest := `[unit]
name = "app"
tree = "app.rfast"
deps = ["a"]

[[module]]
name = "a"
tree = "app.rfast"
deps = ["b"]

[[module]]
name = "b"
tree = "app.rfast"
deps = ["a"]
`
	m, fs := setup(t, manifest, map[string]*ast.Tree{"app": appTree()})
	r, err := CheckProject(context.Background(), m, fs, Options{})
	if err != nil {
		t.Fatalf("CheckProject: %v", err)
	}
	if !hasCode(r.Bag, diag.ProjImportCycle) || r.Unit != nil {
		t.Fatalf("diagnostics:\n%s", diag.FormatShort(r.Bag.Items(), r.Files, false))
	}
}

// signChangeTree negates an unsigned value, which only warns.
func signChangeTree() *ast.Tree {
	b := ast.NewBuilder(0)
	body := b.Block(
		b.Var("a", b.TypeRef("u8"), ast.NoNodeID),
		b.Var("e", ast.NoNodeID, b.Unary(ast.UnMinus, b.Ident("a"))),
	)
	b.Root("main", b.FnImpl(b.FnDecl("f", ast.NoNodeID, ast.NoNodeID), body))
	return b.Tree
}

func TestWarningsAsErrorsBlocksLowering(t *testing.T) {
	r, err := CheckTree(context.Background(), "main", signChangeTree(), nil, Options{})
	if err != nil {
		t.Fatalf("CheckTree: %v", err)
	}
	if r.Failed() || !r.Bag.HasWarnings() {
		t.Fatalf("expected a warning only:\n%s", diag.FormatShort(r.Bag.Items(), r.Files, false))
	}

	strict, err := CheckTree(context.Background(), "main", signChangeTree(), nil, Options{WarningsAsErrors: true})
	if err != nil {
		t.Fatalf("CheckTree: %v", err)
	}
	if !strict.Failed() {
		t.Fatalf("promoted warning did not fail the unit")
	}
	if err := Lower(context.Background(), strict, Options{}); !errors.Is(err, ir.ErrFailedUnit) {
		t.Fatalf("Lower = %v", err)
	}
}

func TestWriteAtomicKeepsOldFileOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.rir")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	err := WriteAtomic(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "old" {
		t.Fatalf("file replaced by %q", data)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temporary file left behind: %d entries", len(entries))
	}
}

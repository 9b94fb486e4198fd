package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("main.rf", []byte("fn main()\n{\n  return 1\n}"))

	start, end := fs.Resolve(Span{File: id, Start: 14, End: 22})
	if start != (LineCol{Line: 3, Col: 3}) {
		t.Fatalf("start = %+v, want 3:3", start)
	}
	if end != (LineCol{Line: 3, Col: 11}) {
		t.Fatalf("end = %+v, want 3:11", end)
	}

	f := fs.Get(id)
	if got := f.Line(3); got != "  return 1" {
		t.Fatalf("Line(3) = %q", got)
	}
	if got := f.Line(4); got != "}" {
		t.Fatalf("Line(4) = %q", got)
	}
	if got := f.Line(9); got != "" {
		t.Fatalf("Line(9) = %q, want empty", got)
	}
}

func TestFileSetLookupShadowsOlderVersion(t *testing.T) {
	fs := NewFileSet()
	first := fs.AddVirtual("a.rf", []byte("one"))
	second := fs.AddVirtual("./a.rf", []byte("two"))
	if first == second {
		t.Fatalf("expected distinct ids")
	}
	got, ok := fs.Lookup("a.rf")
	if !ok || got != second {
		t.Fatalf("Lookup = %d,%v want %d", got, ok, second)
	}
	if string(fs.Get(first).Content) != "one" {
		t.Fatalf("older version lost")
	}
	if fs.Get(FileID(7)) != nil {
		t.Fatalf("Get of unknown id must be nil")
	}
}

func TestLoadNormalizesBOMAndCRLF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.rf")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa\r\nb\r\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a\nb\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
	if len(f.LineIdx) != 2 || f.LineIdx[0] != 1 || f.LineIdx[1] != 3 {
		t.Fatalf("LineIdx = %v", f.LineIdx)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 8}) {
		t.Fatalf("Cover = %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 100}); got != a {
		t.Fatalf("cross-file Cover changed span: %v", got)
	}
	if !a.Cover(b).Contains(a) {
		t.Fatalf("cover must contain its inputs")
	}
}

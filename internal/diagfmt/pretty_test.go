package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/source"
)

func TestPrettyPlain(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("src/main.rf", []byte("fn main() {\n    y = x + 1\n}\n"))
	bag := diag.NewBag(4)
	bag.Add(diag.New(diag.SevError, diag.SemaUndeclared, source.Span{File: id, Start: 20, End: 21}, `undeclared identifier "x"`).
		WithNote(source.Span{File: id, Start: 16, End: 17}, "assigned here"))

	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true}); err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	want := strings.Join([]string{
		`error[SEM3003]: undeclared identifier "x"`,
		"  --> main.rf:2:9",
		"  |",
		"2 |     y = x + 1",
		"  |         ^",
		"note: assigned here",
		"  --> main.rf:2:5",
		"  |",
		"2 |     y = x + 1",
		"  |     ^",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestCaretColumnsWideRunes(t *testing.T) {
	line := `s = "日本" + x`
	// x sits at byte 15 (column 16) but display column 14
	lead, width := caretColumns(line, 16, source.LineCol{Line: 1, Col: 17}, 1, 4)
	if lead != 13 || width != 1 {
		t.Fatalf("lead=%d width=%d, want 13,1", lead, width)
	}
}

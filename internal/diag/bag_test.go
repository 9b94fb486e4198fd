package diag

import (
	"testing"

	"github.com/refu-lang/refu-sub002/internal/source"
)

func TestBagLimitAndSeverity(t *testing.T) {
	bag := NewBag(2)
	r := BagReporter{Bag: bag}
	r.Report(SemaSignChange, SevWarning, source.Span{Start: 4, End: 5}, "w", nil)
	if bag.HasErrors() || !bag.HasWarnings() {
		t.Fatalf("unexpected severity summary")
	}
	r.Report(SemaUndeclared, SevError, source.Span{Start: 0, End: 1}, "e", nil)
	r.Report(SemaUndeclared, SevError, source.Span{Start: 2, End: 3}, "dropped", nil)
	if bag.Len() != 2 || bag.Dropped() != 1 {
		t.Fatalf("Len=%d Dropped=%d", bag.Len(), bag.Dropped())
	}
	bag.Sort()
	if bag.Items()[0].Code != SemaUndeclared {
		t.Fatalf("sort did not order by start: %v", bag.Items()[0].Code)
	}
}

func TestPromoteWarnings(t *testing.T) {
	bag := NewBag(4)
	bag.Add(New(SevWarning, SemaNarrowing, source.Span{}, "narrow"))
	bag.PromoteWarnings()
	if !bag.HasErrors() {
		t.Fatalf("warning was not promoted")
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	counter := &CountingReporter{Next: BagReporter{Bag: bag}}
	r := NewDedupReporter(counter)
	sp := source.Span{File: 0, Start: 1, End: 2}
	r.Report(SemaTypeMismatch, SevError, sp, "same", nil)
	r.Report(SemaTypeMismatch, SevError, sp, "same", nil)
	r.Report(SemaTypeMismatch, SevError, sp, "different", nil)
	if bag.Len() != 2 || counter.Errors != 2 {
		t.Fatalf("Len=%d Errors=%d", bag.Len(), counter.Errors)
	}
}

func TestFormatShort(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("main.rf", []byte("a\nmatch x {\n}\n"))
	diags := []Diagnostic{
		New(SevError, SemaNonexhaustiveMatch, source.Span{File: file, Start: 2, End: 7}, "match is\nnot exhaustive").
			WithNote(source.Span{File: file, Start: 8, End: 9}, "missing variant c:i8"),
		New(SevWarning, SemaSignChange, source.Span{File: file, Start: 0, End: 1}, "sign change"),
	}
	want := "warning SEM3015 main.rf:1:1 sign change\n" +
		"error SEM3005 main.rf:2:1 match is not exhaustive\n" +
		"note SEM3005 main.rf:2:7 missing variant c:i8"
	if got := FormatShort(diags, fs, true); got != want {
		t.Fatalf("FormatShort:\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestCodeIDs(t *testing.T) {
	cases := map[Code]string{
		SemaTypeMismatch: "SEM3002",
		RIRSyntax:        "RIR4001",
		ProjImportCycle:  "PRJ5004",
		InternalError:    "ICE9000",
		Code(42):         "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Errorf("%d.ID() = %q, want %q", code, got, want)
		}
	}
}

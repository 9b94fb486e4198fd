package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/ir"
)

const validRIR = `fndef(main; nil; u32)
{
%function_start
    $1 = convert(7, u32)
    write(u32*, $0, $1)
    branch(%function_end)
%function_end
    $2 = read($0)
    return($2)
}
`

func writeRIR(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseRIRFilesReportsPerFile(t *testing.T) {
	dir := t.TempDir()
	good := writeRIR(t, dir, "good.rir", validRIR)
	bad := writeRIR(t, dir, "bad.rir", "fndef(f; nil; nil)\n{\n%function_start\n    branch(%nowhere)\n}\n")
	syntax := writeRIR(t, dir, "syntax.rir", "// header\nfndef(f; nil; nil)\n")

	fs, files, err := parseRIRFiles(context.Background(), []string{good, bad, syntax}, true)
	if err != nil {
		t.Fatalf("parseRIRFiles: %v", err)
	}
	if files[0].err != nil || files[0].mod == nil || files[0].mod.Name != "good" {
		t.Fatalf("good.rir = %+v", files[0])
	}

	bag := diag.NewBag(10)
	for _, f := range files {
		reportRIR(bag, fs, f)
	}
	bag.Sort()
	items := bag.Items()
	if len(items) != 2 {
		t.Fatalf("diagnostics = %+v", items)
	}
	want := map[diag.Code]int{diag.RIRUnknownValue: 4, diag.RIRSyntax: 2}
	for _, d := range items {
		line, ok := want[d.Code]
		if !ok {
			t.Fatalf("unexpected code %v", d.Code)
		}
		start, _ := fs.Resolve(d.Primary)
		if int(start.Line) != line || start.Col != 1 {
			t.Fatalf("%v at %d:%d, want line %d", d.Code, start.Line, start.Col, line)
		}
	}
}

func TestReportRIRSplitsValidationErrors(t *testing.T) {
	m := ir.NewModule("v")
	if _, err := m.DefineFunction("f", nil, ir.U32Type); err != nil {
		t.Fatalf("DefineFunction: %v", err)
	}
	if _, err := m.DefineFunction("g", nil, ir.U32Type); err != nil {
		t.Fatalf("DefineFunction: %v", err)
	}
	err := ir.Validate(m)
	if err == nil {
		t.Fatalf("Validate accepted functions without blocks")
	}

	dir := t.TempDir()
	fs, files, perr := parseRIRFiles(context.Background(), []string{writeRIR(t, dir, "v.rir", validRIR)}, false)
	if perr != nil {
		t.Fatalf("parseRIRFiles: %v", perr)
	}
	files[0].err = err
	bag := diag.NewBag(10)
	reportRIR(bag, fs, files[0])
	if bag.Len() < 2 {
		t.Fatalf("got %d diagnostics, want one per function", bag.Len())
	}
	for _, d := range bag.Items() {
		if d.Code != diag.RIRInvalid {
			t.Fatalf("code = %v", d.Code)
		}
	}
}

func TestLineSpanBounds(t *testing.T) {
	dir := t.TempDir()
	fs, files, err := parseRIRFiles(context.Background(), []string{writeRIR(t, dir, "x.rir", "a\nbc\nd")}, false)
	if err != nil {
		t.Fatalf("parseRIRFiles: %v", err)
	}
	f := fs.Get(files[0].id)
	cases := []struct {
		line       int
		start, end uint32
	}{
		{1, 0, 1},
		{2, 2, 4},
		{3, 5, 6},
	}
	for _, tc := range cases {
		sp := lineSpan(f, tc.line)
		if sp.Start != tc.start || sp.End != tc.end {
			t.Fatalf("line %d = [%d,%d), want [%d,%d)", tc.line, sp.Start, sp.End, tc.start, tc.end)
		}
	}
}

func TestRenderStats(t *testing.T) {
	m, err := ir.Parse("s", strings.NewReader(validRIR))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var buf bytes.Buffer
	if err := renderStats(&buf, ir.Summarize(m)); err != nil {
		t.Fatalf("renderStats: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "module s:") || !strings.Contains(out, "fndef    main") || !strings.Contains(out, "2 blocks") {
		t.Fatalf("stats output:\n%s", out)
	}
}

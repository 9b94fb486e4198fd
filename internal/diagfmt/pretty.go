package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/source"
)

type palette struct {
	err, warn, info, note, loc, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		loc:    color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.loc, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Pretty writes every diagnostic in bag with a source excerpt and a caret line:
//
//	error[SEM3003]: undeclared identifier "x"
//	  --> main.rf:3:5
//	   |
//	 3 |     x + 1
//	   |     ^
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	if bag == nil {
		return nil
	}
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeOne(w, p, &d, fs, opts); err != nil {
			return err
		}
	}
	return nil
}

func writeOne(w io.Writer, p palette, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) error {
	head := severityColor(p, d.Severity).Sprintf("%s[%s]", strings.ToLower(d.Severity.String()), d.Code.ID())
	if _, err := fmt.Fprintf(w, "%s: %s\n", head, d.Message); err != nil {
		return err
	}
	if err := writeExcerpt(w, p, p.caret, d.Primary, fs, opts); err != nil {
		return err
	}
	if !opts.ShowNotes {
		return nil
	}
	for _, n := range d.Notes {
		if _, err := fmt.Fprintf(w, "%s: %s\n", p.note.Sprint("note"), n.Msg); err != nil {
			return err
		}
		if err := writeExcerpt(w, p, p.note, n.Span, fs, opts); err != nil {
			return err
		}
	}
	return nil
}

func writeExcerpt(w io.Writer, p palette, mark *color.Color, sp source.Span, fs *source.FileSet, opts PrettyOpts) error {
	if fs == nil {
		return nil
	}
	f := fs.Get(sp.File)
	if f == nil {
		return nil
	}
	start, end := fs.Resolve(sp)
	path := f.Path
	if opts.PathMode == PathModeBasename {
		path = filepath.Base(path)
	}
	line := f.Line(start.Line)
	num := fmt.Sprint(start.Line)
	pad := strings.Repeat(" ", len(num))

	if _, err := fmt.Fprintf(w, "%s %s %s\n", pad, p.gutter.Sprint("-->"), p.loc.Sprintf("%s:%d:%d", path, start.Line, start.Col)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s %s\n", pad, p.gutter.Sprint("|")); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s %s %s\n", p.gutter.Sprint(num), p.gutter.Sprint("|"), expandTabs(line, opts.TabWidth)); err != nil {
		return err
	}

	lead, width := caretColumns(line, start.Col, end, start.Line, opts.TabWidth)
	_, err := fmt.Fprintf(w, "%s %s %s%s\n", pad, p.gutter.Sprint("|"), strings.Repeat(" ", lead), mark.Sprint(strings.Repeat("^", width)))
	return err
}

// caretColumns converts byte columns into display columns so carets stay
// aligned under wide runes and tabs. Spans crossing lines are underlined to
// the end of the first line.
func caretColumns(line string, startCol uint32, end source.LineCol, startLine uint32, tabWidth int) (lead, width int) {
	from := clampCol(line, int(startCol)-1)
	to := len(line)
	if end.Line == startLine {
		to = clampCol(line, int(end.Col)-1)
	}
	lead = displayWidth(line[:from], tabWidth)
	width = displayWidth(line[from:to], tabWidth)
	if width < 1 {
		width = 1
	}
	return lead, width
}

func clampCol(line string, off int) int {
	if off < 0 {
		return 0
	}
	if off > len(line) {
		return len(line)
	}
	return off
}

func displayWidth(s string, tabWidth int) int {
	if tabWidth <= 0 {
		tabWidth = 4
	}
	n := 0
	for _, r := range s {
		if r == '\t' {
			n += tabWidth
			continue
		}
		n += runewidth.RuneWidth(r)
	}
	return n
}

func expandTabs(s string, tabWidth int) string {
	if tabWidth <= 0 {
		tabWidth = 4
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func severityColor(p palette, sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError, diag.SevFatal:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/refu-lang/refu-sub002/internal/source"
)

type shortEntry struct {
	sev  string
	code string
	path string
	line uint32
	col  uint32
	msg  string
}

// FormatShort renders one line per diagnostic (and per note when includeNotes)
// as "severity CODE path:line:col message", sorted by position.
func FormatShort(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}
	entries := make([]shortEntry, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		entries = append(entries, makeEntry(fs, severityLabel(d.Severity), d.Code, d.Primary, d.Message))
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			entries = append(entries, makeEntry(fs, "note", d.Code, n.Span, n.Msg))
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.path != b.path {
			return a.path < b.path
		}
		if a.line != b.line {
			return a.line < b.line
		}
		return a.col < b.col
	})

	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s %s %s:%d:%d %s", e.sev, e.code, e.path, e.line, e.col, e.msg)
	}
	return sb.String()
}

func makeEntry(fs *source.FileSet, sev string, code Code, sp source.Span, msg string) shortEntry {
	path := "<unknown>"
	if f := fs.Get(sp.File); f != nil {
		path = f.Path
	}
	start, _ := fs.Resolve(sp)
	return shortEntry{
		sev:  sev,
		code: code.ID(),
		path: path,
		line: start.Line,
		col:  start.Col,
		msg:  strings.Join(strings.Fields(msg), " "),
	}
}

func severityLabel(sev Severity) string {
	switch sev {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevFatal:
		return "fatal"
	default:
		return "error"
	}
}

package observ

import (
	"errors"
	"strings"
	"testing"
)

func TestTimerReportKeepsOrder(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("analyze")
	tm.End(a, "")
	err := tm.Measure("lower", func() error { return errors.New("boom") })
	if err == nil {
		t.Fatalf("Measure must return fn error")
	}
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "analyze" || r.Phases[1].Name != "lower" {
		t.Fatalf("phases = %+v", r.Phases)
	}
	if r.Phases[1].Note != "boom" {
		t.Fatalf("note = %q", r.Phases[1].Note)
	}
	if !strings.Contains(tm.Summary(), "total") {
		t.Fatalf("summary lacks total:\n%s", tm.Summary())
	}
	if tbl := r.Table(); !strings.Contains(tbl, "lower") || !strings.Contains(tbl, "boom") {
		t.Fatalf("table = %q", tbl)
	}
}

func TestEmptyTimer(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMS != 0 || len(r.Phases) != 0 {
		t.Fatalf("empty report = %+v", r)
	}
}

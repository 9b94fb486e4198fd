package source

import "testing"

func TestInternerDeduplicates(t *testing.T) {
	in := NewInterner()
	a := in.Intern("point")
	b := in.Intern("line")
	if a == b || a == NoStringID {
		t.Fatalf("unexpected ids %d %d", a, b)
	}
	if again := in.Intern("point"); again != a {
		t.Fatalf("Intern not idempotent: %d vs %d", again, a)
	}
	if s := in.MustLookup(b); s != "line" {
		t.Fatalf("MustLookup = %q", s)
	}
	if _, ok := in.Lookup(StringID(99)); ok {
		t.Fatalf("Lookup of unknown id succeeded")
	}
}

func TestInternerFromSnapshotKeepsIDs(t *testing.T) {
	in := NewInterner()
	ids := []StringID{in.Intern("x"), in.Intern("y"), in.Intern("z")}
	back := InternerFrom(in.Snapshot())
	for _, id := range ids {
		if back.MustLookup(id) != in.MustLookup(id) {
			t.Fatalf("id %d changed meaning", id)
		}
	}
	if back.Len() != in.Len() {
		t.Fatalf("Len = %d, want %d", back.Len(), in.Len())
	}
}

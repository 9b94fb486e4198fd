package source

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// StringID is an index into an Interner. NoStringID is the empty string.
type StringID uint32

const NoStringID StringID = 0

// Interner deduplicates identifier text. Not safe for concurrent use.
type Interner struct {
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": NoStringID},
	}
}

func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(i.byID))
	if err != nil {
		panic(fmt.Errorf("interner overflow: %w", err))
	}
	id := StringID(n)
	i.byID = append(i.byID, s)
	i.index[s] = id
	return id
}

func (i *Interner) Lookup(id StringID) (string, bool) {
	if int(id) >= len(i.byID) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup panics on an unknown id.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("invalid string ID %d", id))
	}
	return s
}

func (i *Interner) Len() int {
	return len(i.byID)
}

// Snapshot copies the table, index 0 included.
func (i *Interner) Snapshot() []string {
	return slices.Clone(i.byID)
}

// InternerFrom rebuilds an interner from a Snapshot.
func InternerFrom(table []string) *Interner {
	in := NewInterner()
	for _, s := range table {
		if s == "" {
			continue
		}
		in.Intern(s)
	}
	return in
}

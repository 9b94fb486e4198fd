package sema

import (
	"errors"
	"fmt"

	"github.com/refu-lang/refu-sub002/internal/types"
)

// ErrNotSumType is returned when a match scrutinee is not a sum type.
var ErrNotSumType = errors.New("matched value is not a sum type")

// MatchOutcome classifies one case of a match.
type MatchOutcome uint8

const (
	CaseAccepted MatchOutcome = iota
	CaseUnreachable
	CaseDuplicate
	CaseUnknown
)

func (o MatchOutcome) String() string {
	switch o {
	case CaseAccepted:
		return "accepted"
	case CaseUnreachable:
		return "unreachable"
	case CaseDuplicate:
		return "duplicate"
	case CaseUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("MatchOutcome(%d)", o)
	}
}

// MatchContext tracks which variants of a sum type the cases of one match
// have covered.
type MatchContext struct {
	set         *types.Set
	parts       []types.TypeID
	matched     []bool
	matchedN    int
	lastMatched int
	over        bool
}

// NewMatchContext prepares a context for a match over t.
func NewMatchContext(set *types.Set, t types.TypeID) (*MatchContext, error) {
	under, ok := set.Lookup(set.Strip(t))
	if !ok || !under.IsSum() {
		return nil, fmt.Errorf("%w: %s", ErrNotSumType, set.String(t))
	}
	parts := append([]types.TypeID(nil), under.Operands...)
	return &MatchContext{
		set:         set,
		parts:       parts,
		matched:     make([]bool, len(parts)),
		lastMatched: -1,
	}, nil
}

// Parts lists the variants in declaration order.
func (m *MatchContext) Parts() []types.TypeID {
	return append([]types.TypeID(nil), m.parts...)
}

// Accept registers a case whose pattern resolved to pattern. The returned
// index is the variant position, or -1 for wildcards and rejected cases.
func (m *MatchContext) Accept(pattern types.TypeID) (MatchOutcome, int) {
	if m.over {
		return CaseUnreachable, -1
	}
	if pattern == m.set.Wildcard() {
		m.over = true
		return CaseAccepted, -1
	}
	idx := m.find(pattern)
	if idx < 0 {
		return CaseUnknown, -1
	}
	if m.matched[idx] {
		return CaseDuplicate, idx
	}
	m.matched[idx] = true
	m.matchedN++
	m.lastMatched = idx
	return CaseAccepted, idx
}

// find resolves pattern by identity first, then by identical comparison
// with leaves unwrapped on both sides.
func (m *MatchContext) find(pattern types.TypeID) int {
	for i, p := range m.parts {
		if p == pattern {
			return i
		}
	}
	want := m.set.Unleaf(pattern)
	for i, p := range m.parts {
		if types.Compare(m.set, m.set.Unleaf(p), want, types.ModeIdentical, nil) {
			return i
		}
	}
	return -1
}

// LastMatched is the variant accepted most recently.
func (m *MatchContext) LastMatched() (types.TypeID, bool) {
	if m.lastMatched < 0 {
		return types.NoTypeID, false
	}
	return m.parts[m.lastMatched], true
}

func (m *MatchContext) IsOver() bool { return m.over }

func (m *MatchContext) IsExhaustive() bool {
	return m.over || m.matchedN == len(m.parts)
}

// Missing lists uncovered variants in declaration order.
func (m *MatchContext) Missing() []types.TypeID {
	if m.over {
		return nil
	}
	var out []types.TypeID
	for i, p := range m.parts {
		if !m.matched[i] {
			out = append(out, p)
		}
	}
	return out
}

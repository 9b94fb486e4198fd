package types

import (
	"fmt"
	"hash/fnv"

	"fortio.org/safecast"
)

// Set interns types of one module. Equal canonical strings share one TypeID.
type Set struct {
	types    []Type
	strs     []string
	uids     []uint32
	buckets  map[uint32][]TypeID
	defined  map[string]TypeID // first Defined type of each name
	elems    [elemCount]TypeID
	wildcard TypeID
}

// NewSet constructs a set seeded with every elementary type and the wildcard.
func NewSet() *Set {
	s := &Set{
		types:   make([]Type, 1, 64), // 0 is NoTypeID
		strs:    make([]string, 1, 64),
		uids:    make([]uint32, 1, 64),
		buckets: make(map[uint32][]TypeID, 64),
		defined: make(map[string]TypeID),
	}
	for e := ElemInt; e < elemCount; e++ {
		s.elems[e] = s.mustIntern(Type{Category: CategoryElementary, Elem: e})
	}
	s.wildcard = s.mustIntern(Type{Category: CategoryWildcard})
	return s
}

// UID is the 32-bit FNV-1a hash of a canonical type string.
func UID(canonical string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(canonical))
	return h.Sum32()
}

// Elementary returns the id of a builtin scalar.
func (s *Set) Elementary(e Elementary) TypeID {
	if e <= ElemInvalid || e >= elemCount {
		return NoTypeID
	}
	return s.elems[e]
}

func (s *Set) Wildcard() TypeID { return s.wildcard }

// Len counts interned types, excluding the sentinel.
func (s *Set) Len() int { return len(s.types) - 1 }

// Intern returns the id of an equal type, registering t when it is new.
func (s *Set) Intern(t Type) (TypeID, error) {
	if err := s.validate(t); err != nil {
		return NoTypeID, err
	}
	str := s.canonical(t)
	uid := UID(str)
	for _, id := range s.buckets[uid] {
		if s.strs[id] == str {
			return id, nil
		}
	}
	n, err := safecast.Conv[uint32](len(s.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	t.Operands = append([]TypeID(nil), t.Operands...)
	t.Dims = append([]uint64(nil), t.Dims...)
	s.types = append(s.types, t)
	s.strs = append(s.strs, str)
	s.uids = append(s.uids, uid)
	s.buckets[uid] = append(s.buckets[uid], id)
	if _, seen := s.defined[t.Name]; t.Category == CategoryDefined && !seen {
		s.defined[t.Name] = id
	}
	return id, nil
}

func (s *Set) mustIntern(t Type) TypeID {
	id, err := s.Intern(t)
	if err != nil {
		panic(err)
	}
	return id
}

func (s *Set) valid(id TypeID) bool {
	return id != NoTypeID && int(id) < len(s.types)
}

func (s *Set) validate(t Type) error {
	switch t.Category {
	case CategoryElementary:
		if t.Elem <= ElemInvalid || t.Elem >= elemCount {
			return internalf("intern", "unknown elementary %d", t.Elem)
		}
	case CategoryOperator:
		switch {
		case t.Op == OpInvalid || t.Op > OpImplication:
			return internalf("intern", "unknown operator %d", t.Op)
		case len(t.Operands) == 0:
			return internalf("intern", "%s operator without operands", t.Op)
		case t.Op == OpImplication && len(t.Operands) != 2:
			return internalf("intern", "implication needs 2 operands, got %d", len(t.Operands))
		}
		for i, op := range t.Operands {
			if !s.valid(op) {
				return internalf("intern", "operand %d has invalid id %d", i, op)
			}
		}
	case CategoryLeaf, CategoryDefined:
		if t.Name == "" {
			return internalf("intern", "%s type without a name", t.Category)
		}
		if !s.valid(t.Inner) {
			return internalf("intern", "%s %q wraps invalid id %d", t.Category, t.Name, t.Inner)
		}
	case CategoryGeneric:
		if t.Name == "" {
			return internalf("intern", "generic type without a name")
		}
	case CategoryWildcard:
	case CategoryArray:
		if !s.valid(t.Inner) {
			return internalf("intern", "array of invalid id %d", t.Inner)
		}
		if len(t.Dims) == 0 {
			return internalf("intern", "array without dimensions")
		}
	default:
		return internalf("intern", "unknown category %s", t.Category)
	}
	return nil
}

// Lookup returns the descriptor for id.
func (s *Set) Lookup(id TypeID) (Type, bool) {
	if !s.valid(id) {
		return Type{}, false
	}
	return s.types[id], true
}

// MustLookup panics on an invalid id.
func (s *Set) MustLookup(id TypeID) Type {
	t, ok := s.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("types: invalid TypeID %d", id))
	}
	return t
}

// LookupUID returns the types whose canonical string hashes to uid.
func (s *Set) LookupUID(uid uint32) []TypeID {
	return append([]TypeID(nil), s.buckets[uid]...)
}

// LookupString finds a type by canonical string.
func (s *Set) LookupString(canonical string) (TypeID, bool) {
	for _, id := range s.buckets[UID(canonical)] {
		if s.strs[id] == canonical {
			return id, true
		}
	}
	return NoTypeID, false
}

// UIDOf returns the hash of id's canonical string.
func (s *Set) UIDOf(id TypeID) uint32 {
	if !s.valid(id) {
		return 0
	}
	return s.uids[id]
}

// String renders the canonical form of id.
func (s *Set) String(id TypeID) string {
	if !s.valid(id) {
		return "<no type>"
	}
	return s.strs[id]
}

// Each visits every type in id order. Operands always precede their users.
func (s *Set) Each(fn func(TypeID, Type)) {
	for i := 1; i < len(s.types); i++ {
		fn(TypeID(i), s.types[i]) //nolint:gosec // bounded by arena length
	}
}

// Convenience constructors over Intern.

func (s *Set) Operator(op Op, operands ...TypeID) (TypeID, error) {
	return s.Intern(MakeOperator(op, operands...))
}

func (s *Set) Leaf(name string, t TypeID) (TypeID, error) {
	return s.Intern(MakeLeaf(name, t))
}

func (s *Set) Defined(name string, t TypeID) (TypeID, error) {
	return s.Intern(MakeDefined(name, t))
}

func (s *Set) Generic(name string) (TypeID, error) {
	return s.Intern(MakeGeneric(name))
}

func (s *Set) Array(member TypeID, dims ...uint64) (TypeID, error) {
	return s.Intern(MakeArray(member, dims...))
}

// AddOperand returns the operator op extended with child. A child equal to
// op itself is refused and op is returned unchanged.
func (s *Set) AddOperand(op, child TypeID) (TypeID, bool) {
	if op == child || !s.valid(child) {
		return op, false
	}
	t, ok := s.Lookup(op)
	if !ok || t.Category != CategoryOperator {
		return op, false
	}
	operands := make([]TypeID, len(t.Operands), len(t.Operands)+1)
	copy(operands, t.Operands)
	id, err := s.Intern(MakeOperator(t.Op, append(operands, child)...))
	if err != nil {
		return op, false
	}
	return id, true
}

// Underlying strips Defined wrappers.
func (s *Set) Underlying(id TypeID) TypeID {
	for {
		t, ok := s.Lookup(id)
		if !ok || t.Category != CategoryDefined {
			return id
		}
		id = t.Inner
	}
}

// Unleaf strips Leaf wrappers.
func (s *Set) Unleaf(id TypeID) TypeID {
	for {
		t, ok := s.Lookup(id)
		if !ok || t.Category != CategoryLeaf {
			return id
		}
		id = t.Inner
	}
}

// Strip removes every Leaf and Defined wrapper.
func (s *Set) Strip(id TypeID) TypeID {
	for {
		t, ok := s.Lookup(id)
		if !ok || (t.Category != CategoryDefined && t.Category != CategoryLeaf) {
			return id
		}
		id = t.Inner
	}
}

func (s *Set) operands(id TypeID) []TypeID {
	t, ok := s.Lookup(s.Underlying(id))
	if !ok || t.Category != CategoryOperator {
		return nil
	}
	return t.Operands
}

// SubtypeCount is the operand count of an operator, looking through Defined.
func (s *Set) SubtypeCount(id TypeID) int {
	return len(s.operands(id))
}

// Subtype returns operand i of an operator, looking through Defined.
func (s *Set) Subtype(id TypeID, i int) TypeID {
	ops := s.operands(id)
	if i < 0 || i >= len(ops) {
		return NoTypeID
	}
	return ops[i]
}

// DirectChildIndex is the position of t among parent's operands. Defined
// parents are looked through and leaf operands are unwrapped.
func (s *Set) DirectChildIndex(t, parent TypeID) (int, bool) {
	for i, op := range s.operands(parent) {
		if op == t || s.Unleaf(op) == t {
			return i, true
		}
	}
	return -1, false
}

// ElementaryOf reports the scalar behind id once wrappers are stripped.
func (s *Set) ElementaryOf(id TypeID) (Elementary, bool) {
	t, ok := s.Lookup(s.Strip(id))
	if !ok || t.Category != CategoryElementary {
		return ElemInvalid, false
	}
	return t.Elem, true
}

// Import copies every type of other into s and returns the id mapping.
func (s *Set) Import(other *Set) (map[TypeID]TypeID, error) {
	remap := make(map[TypeID]TypeID, other.Len())
	var err error
	other.Each(func(id TypeID, t Type) {
		if err != nil {
			return
		}
		t.Operands = append([]TypeID(nil), t.Operands...)
		for i, op := range t.Operands {
			t.Operands[i] = remap[op]
		}
		if t.Inner != NoTypeID {
			t.Inner = remap[t.Inner]
		}
		var nid TypeID
		nid, err = s.Intern(t)
		remap[id] = nid
	})
	if err != nil {
		return nil, fmt.Errorf("import types: %w", err)
	}
	return remap, nil
}

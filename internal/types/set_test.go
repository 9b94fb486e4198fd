package types

import (
	"errors"
	"testing"
)

// must fails the test when an interning call returns an error, so calls
// nest as must(t)(s.Leaf(...)).
func must(t *testing.T) func(TypeID, error) TypeID {
	return func(id TypeID, err error) TypeID {
		t.Helper()
		if err != nil {
			t.Fatalf("intern: %v", err)
		}
		return id
	}
}

func pointType(t *testing.T, s *Set) TypeID {
	t.Helper()
	f32 := s.Elementary(ElemF32)
	x := must(t)(s.Leaf("x", f32))
	y := must(t)(s.Leaf("y", f32))
	prod := must(t)(s.Operator(OpProduct, x, y))
	return must(t)(s.Defined("Point", prod))
}

func TestInternIsIdempotent(t *testing.T) {
	s := NewSet()
	a := pointType(t, s)
	n := s.Len()
	b := pointType(t, s)
	if a != b {
		t.Fatalf("identical descriptions interned to %d and %d", a, b)
	}
	if s.Len() != n {
		t.Fatalf("second intern grew the set: %d -> %d", n, s.Len())
	}
	if !Compare(s, a, b, ModeIdentical, nil) {
		t.Fatalf("interned type not identical to itself")
	}
}

func TestCanonicalStrings(t *testing.T) {
	s := NewSet()
	i32 := s.Elementary(ElemI32)
	str := s.Elementary(ElemString)
	point := pointType(t, s)
	sum := must(t)(s.Operator(OpSum, i32, str))
	fn := must(t)(s.Operator(OpImplication, sum, point))
	arr := must(t)(s.Array(i32, 3, 4))

	cases := []struct {
		id   TypeID
		want string
	}{
		{i32, "i32"},
		{point, "Point { x:f32,y:f32 }"},
		{sum, "i32|string"},
		{fn, "(i32|string)->Point"},
		{arr, "i32[3][4]"},
		{s.Wildcard(), "_"},
	}
	for _, tc := range cases {
		if got := s.String(tc.id); got != tc.want {
			t.Errorf("String(%d) = %q, want %q", tc.id, got, tc.want)
		}
		if got, ok := s.LookupString(tc.want); !ok || got != tc.id {
			t.Errorf("LookupString(%q) = %d, %v", tc.want, got, ok)
		}
		found := false
		for _, id := range s.LookupUID(UID(tc.want)) {
			found = found || id == tc.id
		}
		if !found {
			t.Errorf("LookupUID misses %q", tc.want)
		}
	}
}

func TestSameNamedDefinedTypesStayDistinct(t *testing.T) {
	s := NewSet()
	point := pointType(t, s)
	other := must(t)(s.Defined("Point", s.Elementary(ElemBool)))
	if other == point {
		t.Fatalf("different contents interned to one Point")
	}
	i64 := s.Elementary(ElemI64)
	a := must(t)(s.Operator(OpSum, point, i64))
	b := must(t)(s.Operator(OpSum, other, i64))
	if a == b {
		t.Fatalf("Point|i64 over both definitions interned to %d", a)
	}
	if got := s.String(a); got != "Point|i64" {
		t.Fatalf("String(first) = %q", got)
	}
	if got := s.String(b); got != "(Point { bool })|i64" {
		t.Fatalf("String(second) = %q", got)
	}
	if Compare(s, a, b, ModeIdentical, nil) {
		t.Fatalf("sums over different Points are identical")
	}
}

func TestAddOperandRefusesSelf(t *testing.T) {
	s := NewSet()
	sum := must(t)(s.Operator(OpSum, s.Elementary(ElemI32), s.Elementary(ElemF64)))
	got, ok := s.AddOperand(sum, sum)
	if ok || got != sum || s.SubtypeCount(sum) != 2 {
		t.Fatalf("self operand accepted: id=%d ok=%v count=%d", got, ok, s.SubtypeCount(sum))
	}
	ext, ok := s.AddOperand(sum, s.Elementary(ElemString))
	if !ok || s.SubtypeCount(ext) != 3 || s.Subtype(ext, 2) != s.Elementary(ElemString) {
		t.Fatalf("AddOperand = %d (%s), %v", ext, s.String(ext), ok)
	}
	if s.SubtypeCount(sum) != 2 {
		t.Fatalf("original operator mutated")
	}
}

func TestMalformedInputIsInternalError(t *testing.T) {
	s := NewSet()
	bad := []Type{
		{Category: CategoryOperator, Op: OpSum},
		{Category: Category(99)},
		MakeLeaf("x", TypeID(9999)),
		MakeArray(s.Elementary(ElemU8)),
	}
	for _, b := range bad {
		_, err := s.Intern(b)
		var ie *InternalError
		if !errors.As(err, &ie) {
			t.Fatalf("Intern(%+v) err = %v, want *InternalError", b, err)
		}
	}
}

func TestDirectChildIndexLooksThroughWrappers(t *testing.T) {
	s := NewSet()
	point := pointType(t, s)
	a := must(t)(s.Leaf("a", point))
	b := must(t)(s.Leaf("b", point))
	line := must(t)(s.Defined("Line", must(t)(s.Operator(OpProduct, a, b))))

	if i, ok := s.DirectChildIndex(point, line); !ok || i != 0 {
		t.Fatalf("DirectChildIndex(Point, Line) = %d, %v", i, ok)
	}
	if _, ok := s.DirectChildIndex(line, point); ok {
		t.Fatalf("Line is not a child of Point")
	}
}

func TestImportRemapsDependencyTypes(t *testing.T) {
	dep := NewSet()
	point := pointType(t, dep)
	fn := must(t)(dep.Operator(OpImplication, point, dep.Elementary(ElemNil)))

	s := NewSet()
	if _, err := s.Generic("T"); err != nil {
		t.Fatalf("Generic: %v", err)
	}
	remap, err := s.Import(dep)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if s.String(remap[fn]) != dep.String(fn) {
		t.Fatalf("imported %q, want %q", s.String(remap[fn]), dep.String(fn))
	}
	if remap[dep.Elementary(ElemI8)] != s.Elementary(ElemI8) {
		t.Fatalf("elementary types must map onto the seeded ones")
	}
}

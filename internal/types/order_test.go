package types

import "testing"

func TestOrderPlacesDependenciesFirst(t *testing.T) {
	s := NewSet()
	point := pointType(t, s)
	a := must(t)(s.Leaf("a", point))
	b := must(t)(s.Leaf("b", point))
	line := must(t)(s.Defined("Line", must(t)(s.Operator(OpProduct, a, b))))
	shape := must(t)(s.Defined("Shape", must(t)(s.Operator(OpSum, line, point))))

	got := OrderDependencies(s, []TypeID{shape, line, point, line})
	if len(got) != 3 {
		t.Fatalf("duplicates kept: %v", got)
	}
	pos := map[TypeID]int{}
	for i, id := range got {
		pos[id] = i
	}
	if pos[point] > pos[line] || pos[line] > pos[shape] {
		t.Fatalf("bad order: %v", got)
	}
}

func TestOrderIndependentTypesKeepInputOrder(t *testing.T) {
	s := NewSet()
	x := must(t)(s.Defined("X", s.Elementary(ElemI32)))
	y := must(t)(s.Defined("Y", s.Elementary(ElemBool)))
	got := OrderDependencies(s, []TypeID{y, x})
	if len(got) != 2 || got[0] != y || got[1] != x {
		t.Fatalf("order = %v", got)
	}
}

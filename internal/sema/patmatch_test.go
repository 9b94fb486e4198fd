package sema

import (
	"errors"
	"testing"

	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/types"
)

func sumABC(t *testing.T, s *types.Set) (types.TypeID, [3]types.TypeID) {
	t.Helper()
	var parts [3]types.TypeID
	for i, e := range []types.Elementary{types.ElemI64, types.ElemString, types.ElemBool} {
		parts[i] = s.Elementary(e)
	}
	sum, err := s.Operator(types.OpSum, parts[:]...)
	if err != nil {
		t.Fatalf("intern: %v", err)
	}
	return sum, parts
}

func TestMatchContextExhaustiveness(t *testing.T) {
	s := types.NewSet()
	sum, parts := sumABC(t, s)
	m, err := NewMatchContext(s, sum)
	if err != nil {
		t.Fatalf("NewMatchContext: %v", err)
	}
	if out, idx := m.Accept(parts[1]); out != CaseAccepted || idx != 1 {
		t.Fatalf("Accept(string) = %s, %d", out, idx)
	}
	if out, _ := m.Accept(parts[1]); out != CaseDuplicate {
		t.Fatalf("second Accept(string) = %s", out)
	}
	if m.IsExhaustive() {
		t.Fatalf("one variant out of three reported exhaustive")
	}
	missing := m.Missing()
	if len(missing) != 2 || missing[0] != parts[0] || missing[1] != parts[2] {
		t.Fatalf("Missing = %v", missing)
	}
	m.Accept(parts[0])
	m.Accept(parts[2])
	if !m.IsExhaustive() || len(m.Missing()) != 0 {
		t.Fatalf("all variants matched but not exhaustive")
	}
	if last, ok := m.LastMatched(); !ok || last != parts[2] {
		t.Fatalf("LastMatched = %d", last)
	}
}

func TestMatchContextWildcardClosesMatch(t *testing.T) {
	s := types.NewSet()
	sum, parts := sumABC(t, s)
	m, _ := NewMatchContext(s, sum)
	m.Accept(parts[0])
	if out, idx := m.Accept(s.Wildcard()); out != CaseAccepted || idx != -1 {
		t.Fatalf("wildcard = %s, %d", out, idx)
	}
	if !m.IsOver() || !m.IsExhaustive() {
		t.Fatalf("wildcard did not close the match")
	}
	if out, _ := m.Accept(parts[1]); out != CaseUnreachable {
		t.Fatalf("case after wildcard = %s", out)
	}
}

func TestMatchContextUnwrapsLeaves(t *testing.T) {
	s := types.NewSet()
	n, _ := s.Leaf("n", s.Elementary(types.ElemI64))
	name, _ := s.Leaf("name", s.Elementary(types.ElemString))
	sum, _ := s.Operator(types.OpSum, n, name)
	m, _ := NewMatchContext(s, sum)
	if out, idx := m.Accept(s.Elementary(types.ElemString)); out != CaseAccepted || idx != 1 {
		t.Fatalf("Accept(string) = %s, %d", out, idx)
	}
	if out, _ := m.Accept(s.Elementary(types.ElemF32)); out != CaseUnknown {
		t.Fatalf("Accept(f32) = %s", out)
	}
}

func TestMatchContextRejectsNonSum(t *testing.T) {
	s := types.NewSet()
	if _, err := NewMatchContext(s, s.Elementary(types.ElemI32)); !errors.Is(err, ErrNotSumType) {
		t.Fatalf("err = %v", err)
	}
}

// shapeMatch builds
//
//	type Shape { n:i64 | s:string | b:bool }
//	fn f(v:Shape) -> i64 { match v { <cases> } return 0 }
func shapeMatch(cases func(b *ast.Builder) []ast.NodeID) *ast.Tree {
	b := ast.NewBuilder(0)
	shape := b.TypeDecl("Shape", b.TypeDesc(b.Sum(
		b.Leaf("n", b.TypeRef("i64")), b.Leaf("s", b.TypeRef("string")), b.Leaf("b", b.TypeRef("bool")))))
	fn := b.FnImpl(
		b.FnDecl("f", b.TypeDesc(b.Leaf("v", b.TypeRef("Shape"))), b.TypeRef("i64")),
		b.Block(
			b.Match(b.Ident("v"), cases(b)...),
			b.Return(b.Int(0)),
		),
	)
	b.Root("main", shape, fn)
	return b.Tree
}

func TestCheckMatchReportsMissingVariants(t *testing.T) {
	tree := shapeMatch(func(b *ast.Builder) []ast.NodeID {
		return []ast.NodeID{
			b.Case(b.TypeRef("string"), "", b.Block()),
		}
	})
	_, bag := analyze(t, tree)
	if len(bag.Items()) != 1 || bag.Items()[0].Code != diag.SemaNonexhaustiveMatch {
		t.Fatalf("codes = %v", codes(bag))
	}
	notes := bag.Items()[0].Notes
	if len(notes) != 1 || notes[0].Msg != "missing: n:i64, b:bool" {
		t.Fatalf("notes = %+v", notes)
	}
}

func TestCheckMatchBindsPatternLeaves(t *testing.T) {
	tree := shapeMatch(func(b *ast.Builder) []ast.NodeID {
		return []ast.NodeID{
			b.Case(b.Leaf("k", b.TypeRef("i64")), "", b.Block(b.Return(b.Ident("k")))),
			b.Case(b.TypeRef("string"), "str", b.Block(b.Var("copy", b.TypeRef("string"), b.Ident("str")))),
			b.Case(b.TypeRef("_"), "", b.Block()),
		}
	})
	u, bag := analyze(t, tree)
	expectClean(t, u, bag)
	if len(u.Cases) != 3 {
		t.Fatalf("recorded %d cases", len(u.Cases))
	}
	indices := map[int]bool{}
	for _, info := range u.Cases {
		indices[info.Index] = true
	}
	if !indices[0] || !indices[1] || !indices[-1] {
		t.Fatalf("case indices = %v", indices)
	}
}

func TestCheckMatchCaseErrors(t *testing.T) {
	tree := shapeMatch(func(b *ast.Builder) []ast.NodeID {
		return []ast.NodeID{
			b.Case(b.TypeRef("i64"), "", b.Block()),
			b.Case(b.TypeRef("i64"), "", b.Block()),
			b.Case(b.TypeRef("f32"), "", b.Block()),
			b.Case(b.TypeRef("_"), "", b.Block()),
			b.Case(b.TypeRef("bool"), "", b.Block()),
		}
	})
	_, bag := analyze(t, tree)
	for _, want := range []diag.Code{diag.SemaDuplicateCase, diag.SemaUnknownVariant, diag.SemaUnreachableCase} {
		if !hasCode(bag, want) {
			t.Errorf("missing %s in %v", want.ID(), codes(bag))
		}
	}
	if hasCode(bag, diag.SemaNonexhaustiveMatch) {
		t.Fatalf("wildcard match reported as non-exhaustive")
	}
}

func TestCheckMatchOverNonSum(t *testing.T) {
	b := ast.NewBuilder(0)
	fn := b.FnImpl(b.FnDecl("f", b.TypeDesc(b.Leaf("v", b.TypeRef("i32"))), ast.NoNodeID),
		b.Block(b.Match(b.Ident("v"), b.Case(b.TypeRef("i32"), "", b.Block()))))
	b.Root("main", fn)
	_, bag := analyze(t, b.Tree)
	if !hasCode(bag, diag.SemaMatchNonSum) {
		t.Fatalf("codes = %v", codes(bag))
	}
}

package sema

import (
	"testing"

	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/diag"
)

// showProgram declares
//
//	class Show<T> { fn show(v:T) -> string }
//	type Meters { m:f64 }
//
// and an instance of Show for Meters built by impl.
func showProgram(class string, impl func(b *ast.Builder) []ast.NodeID) *ast.Tree {
	b := ast.NewBuilder(0)
	show := b.Typeclass("Show",
		b.FnDecl("show", b.TypeDesc(b.Leaf("v", b.TypeRef("T"))), b.TypeRef("string")),
		b.Generic("T"),
	)
	meters := b.TypeDecl("Meters", b.TypeDesc(b.Leaf("m", b.TypeRef("f64"))))
	inst := b.Instance(class, b.TypeRef("Meters"), impl(b)...)
	b.Root("main", show, meters, inst)
	return b.Tree
}

func TestInstanceMatchingClass(t *testing.T) {
	tree := showProgram("Show", func(b *ast.Builder) []ast.NodeID {
		return []ast.NodeID{b.FnImpl(
			b.FnDecl("show", b.TypeDesc(b.Leaf("v", b.TypeRef("Meters"))), b.TypeRef("string")),
			b.Block(b.Return(b.String("meters"))),
		)}
	})
	u, bag := analyze(t, tree)
	expectClean(t, u, bag)
	if len(u.Instances) != 1 || len(u.Instances[0].Impls) != 1 {
		t.Fatalf("instances = %+v", u.Instances)
	}
	if _, ok := u.Func("show"); ok {
		t.Fatalf("instance method leaked into module functions")
	}
}

func TestInstanceSignatureMismatch(t *testing.T) {
	tree := showProgram("Show", func(b *ast.Builder) []ast.NodeID {
		return []ast.NodeID{b.FnImpl(
			b.FnDecl("show", b.TypeDesc(b.Leaf("v", b.TypeRef("i32"))), b.TypeRef("string")),
			b.Block(b.Return(b.String("int"))),
		)}
	})
	_, bag := analyze(t, tree)
	if !hasCode(bag, diag.SemaTypeclassMismatch) {
		t.Fatalf("codes = %v", codes(bag))
	}
}

func TestInstanceMissingMethodAndExtra(t *testing.T) {
	tree := showProgram("Show", func(b *ast.Builder) []ast.NodeID {
		return []ast.NodeID{b.FnImpl(
			b.FnDecl("display", ast.NoNodeID, ast.NoNodeID),
			b.Block(),
		)}
	})
	_, bag := analyze(t, tree)
	n := 0
	for _, c := range codes(bag) {
		if c == diag.SemaTypeclassMismatch {
			n++
		}
	}
	if n != 2 {
		t.Fatalf("mismatch reports = %d, want 2 (%v)", n, codes(bag))
	}
}

func TestInstanceOfUnknownClass(t *testing.T) {
	tree := showProgram("Print", func(*ast.Builder) []ast.NodeID { return nil })
	_, bag := analyze(t, tree)
	if !hasCode(bag, diag.SemaMissingTypeclass) {
		t.Fatalf("codes = %v", codes(bag))
	}
}

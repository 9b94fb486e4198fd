package sema

import (
	"context"
	"strings"
	"testing"

	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/types"
)

func analyze(t *testing.T, tree *ast.Tree, deps ...*Unit) (*Unit, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(100)
	u, err := Check(context.Background(), tree, Options{Reporter: diag.BagReporter{Bag: bag}, Deps: deps})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	return u, bag
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func expectClean(t *testing.T, u *Unit, bag *diag.Bag) {
	t.Helper()
	if u.Failed() || bag.HasErrors() {
		t.Fatalf("unexpected diagnostics:\n%s", diag.FormatShort(bag.Items(), nil, true))
	}
}

// loopProgram sums an array through a helper:
//
//	fn other_function(a:u32) -> u32 { return a + 14 }
//	fn main() -> u32 {
//	    let arr: u32[3]
//	    let total: u32 = 0
//	    for x in arr { total = total + other_function(x) }
//	    return total
//	}
func loopProgram() *ast.Tree {
	b := ast.NewBuilder(0)
	other := b.FnImpl(
		b.FnDecl("other_function", b.TypeDesc(b.Leaf("a", b.TypeRef("u32"))), b.TypeRef("u32")),
		b.Block(b.Return(b.Binary(ast.BinAdd, b.Ident("a"), b.Int(14)))),
	)
	main := b.FnImpl(
		b.FnDecl("main", ast.NoNodeID, b.TypeRef("u32")),
		b.Block(
			b.Var("arr", b.ArraySpec(b.TypeRef("u32"), 3), ast.NoNodeID),
			b.Var("total", b.TypeRef("u32"), b.Int(0)),
			b.For("x", b.Ident("arr"), b.Block(
				b.Binary(ast.BinAssign, b.Ident("total"),
					b.Binary(ast.BinAdd, b.Ident("total"), b.Call("other_function", b.Ident("x")))),
			)),
			b.Return(b.Ident("total")),
		),
	)
	b.Root("main", other, main)
	return b.Tree
}

func TestCheckLoopProgram(t *testing.T) {
	tree := loopProgram()
	u, bag := analyze(t, tree)
	expectClean(t, u, bag)

	f, ok := u.Func("other_function")
	if !ok {
		t.Fatalf("other_function not registered")
	}
	if len(f.Params) != 1 || f.Params[0].Name != "a" {
		t.Fatalf("params = %+v", f.Params)
	}
	if got := u.Types.String(f.Type); got != "a:u32->u32" {
		t.Fatalf("signature = %q", got)
	}
	u32 := u.Types.Elementary(types.ElemU32)
	var constTyped bool
	tree.Walk(tree.Root, func(id ast.NodeID, n *ast.Node) bool {
		if n.Kind == ast.KindIntConst && n.Int == 14 {
			constTyped = n.Type == u32
		}
		if n.Kind.IsExpr() && n.State != ast.StateTypeChecked {
			t.Errorf("expression %d left in state %d", id, n.State)
		}
		return true
	})
	if !constTyped {
		t.Fatalf("literal 14 was not adapted to u32")
	}
	calls := 0
	for _, callee := range u.Calls {
		if callee.Func == f {
			calls++
		}
	}
	if calls != 1 {
		t.Fatalf("recorded %d calls to other_function, want 1", calls)
	}
}

func TestCheckReportsUndeclaredAndMismatch(t *testing.T) {
	b := ast.NewBuilder(0)
	main := b.FnImpl(
		b.FnDecl("main", ast.NoNodeID, b.TypeRef("u32")),
		b.Block(
			b.Var("s", b.TypeRef("string"), b.Int(3)),
			b.Return(b.Ident("missing")),
		),
	)
	b.Root("main", main)
	u, bag := analyze(t, b.Tree)
	if !u.Failed() {
		t.Fatalf("expected failure")
	}
	if !hasCode(bag, diag.SemaTypeMismatch) || !hasCode(bag, diag.SemaUndeclared) {
		t.Fatalf("codes = %v", codes(bag))
	}
}

func TestCheckDuplicateDeclarations(t *testing.T) {
	b := ast.NewBuilder(0)
	t1 := b.TypeDecl("T", b.TypeDesc(b.TypeRef("i32")))
	t2 := b.TypeDecl("T", b.TypeDesc(b.TypeRef("u8")))
	body := b.Block(
		b.Var("x", b.TypeRef("i32"), ast.NoNodeID),
		b.Var("x", b.TypeRef("i32"), ast.NoNodeID),
	)
	fn := b.FnImpl(b.FnDecl("f", ast.NoNodeID, ast.NoNodeID), body)
	b.Root("main", t1, t2, fn)
	_, bag := analyze(t, b.Tree)
	n := 0
	for _, c := range codes(bag) {
		if c == diag.SemaDuplicateDecl {
			n++
		}
	}
	if n != 2 {
		t.Fatalf("duplicate reports = %d, want 2 (%v)", n, codes(bag))
	}
}

func TestCheckShadowingInNestedBlock(t *testing.T) {
	b := ast.NewBuilder(0)
	body := b.Block(
		b.Var("x", b.TypeRef("i32"), ast.NoNodeID),
		b.If(b.Bool(true), b.Block(
			b.Var("x", b.TypeRef("string"), b.String("inner")),
		)),
	)
	fn := b.FnImpl(b.FnDecl("f", ast.NoNodeID, ast.NoNodeID), body)
	b.Root("main", fn)
	u, bag := analyze(t, b.Tree)
	expectClean(t, u, bag)
}

func TestCheckArithmeticWarnings(t *testing.T) {
	b := ast.NewBuilder(0)
	body := b.Block(
		b.Var("a", b.TypeRef("u8"), ast.NoNodeID),
		b.Var("b", b.TypeRef("i64"), ast.NoNodeID),
		b.Var("c", ast.NoNodeID, b.Binary(ast.BinAdd, b.Ident("a"), b.Ident("b"))),
		b.Var("d", ast.NoNodeID, b.Binary(ast.BinSub, b.Ident("b"), b.Ident("a"))),
		b.Var("e", ast.NoNodeID, b.Binary(ast.BinMul, b.Ident("a"), b.Unary(ast.UnMinus, b.Ident("a")))),
	)
	fn := b.FnImpl(b.FnDecl("f", ast.NoNodeID, ast.NoNodeID), body)
	b.Root("main", fn)
	u, bag := analyze(t, b.Tree)
	if u.Failed() {
		t.Fatalf("unexpected errors:\n%s", diag.FormatShort(bag.Items(), nil, true))
	}
	if !hasCode(bag, diag.SemaSignChange) {
		t.Fatalf("expected a sign change warning, got %v", codes(bag))
	}
}

func TestCheckRejectsBadOperands(t *testing.T) {
	b := ast.NewBuilder(0)
	body := b.Block(
		b.Var("s", b.TypeRef("string"), b.String("x")),
		b.Var("n", ast.NoNodeID, b.Binary(ast.BinMul, b.Ident("s"), b.Int(2))),
		b.If(b.Int(1), b.Block()),
	)
	fn := b.FnImpl(b.FnDecl("f", ast.NoNodeID, ast.NoNodeID), body)
	b.Root("main", fn)
	_, bag := analyze(t, b.Tree)
	if !hasCode(bag, diag.SemaBadOperand) || !hasCode(bag, diag.SemaTypeMismatch) {
		t.Fatalf("codes = %v", codes(bag))
	}
}

func TestCheckMissingReturn(t *testing.T) {
	b := ast.NewBuilder(0)
	fn := b.FnImpl(
		b.FnDecl("f", ast.NoNodeID, b.TypeRef("i32")),
		b.Block(b.If(b.Bool(true), b.Block(b.Return(b.Int(1))))),
	)
	b.Root("main", fn)
	_, bag := analyze(t, b.Tree)
	if !hasCode(bag, diag.SemaReturnMismatch) {
		t.Fatalf("codes = %v", codes(bag))
	}
}

func TestCheckSkipsBodyOfUnresolvedSignature(t *testing.T) {
	b := ast.NewBuilder(0)
	fn := b.FnImpl(
		b.FnDecl("f", b.TypeDesc(b.Leaf("a", b.TypeRef("Nowhere"))), ast.NoNodeID),
		b.Block(b.Ident("missing")),
	)
	b.Root("main", fn)
	u, bag := analyze(t, b.Tree)
	if !u.Failed() {
		t.Fatalf("unit with an unknown argument type succeeded")
	}
	n := 0
	for _, d := range bag.Items() {
		if d.Code == diag.SemaUndeclared {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("undeclared reported %d times, want only the type: %v", n, codes(bag))
	}
}

func TestCheckCallErrors(t *testing.T) {
	b := ast.NewBuilder(0)
	decl := b.FnDecl("ext", b.TypeDesc(b.Product(
		b.Leaf("a", b.TypeRef("i32")), b.Leaf("b", b.TypeRef("string")))), ast.NoNodeID)
	gen := b.FnImpl(b.FnDecl("id", b.TypeDesc(b.Leaf("v", b.TypeRef("T"))), b.TypeRef("T"), b.Generic("T")),
		b.Block(b.Return(b.Ident("v"))))
	body := b.Block(
		b.Call("ext", b.Int(1)),
		b.Call("ext", b.String("no"), b.String("yes")),
		b.Call("id", b.Int(1)),
		b.Call("nowhere"),
	)
	fn := b.FnImpl(b.FnDecl("f", ast.NoNodeID, ast.NoNodeID), body)
	b.Root("main", decl, gen, fn)
	u, bag := analyze(t, b.Tree)
	for _, want := range []diag.Code{diag.SemaArgCount, diag.SemaTypeMismatch, diag.SemaUnsupportedGeneric, diag.SemaUndeclared} {
		if !hasCode(bag, want) {
			t.Errorf("missing %s in %v", want.ID(), codes(bag))
		}
	}
	ext, _ := u.Func("ext")
	if !ext.Foreign || ext.Impl.IsValid() {
		t.Fatalf("bodiless declaration should be foreign: %+v", ext)
	}
}

func TestCheckConstructorAndMembers(t *testing.T) {
	b := ast.NewBuilder(0)
	point := b.TypeDecl("Point", b.TypeDesc(b.Product(
		b.Leaf("x", b.TypeRef("f32")), b.Leaf("y", b.TypeRef("f32")))))
	body := b.Block(
		b.Var("p", ast.NoNodeID, b.Call("Point", b.Float(1), b.Float(2))),
		b.Return(b.Member(b.Ident("p"), "y")),
	)
	fn := b.FnImpl(b.FnDecl("f", ast.NoNodeID, b.TypeRef("f32")), body)
	bad := b.FnImpl(b.FnDecl("g", ast.NoNodeID, ast.NoNodeID), b.Block(
		b.Var("p", b.TypeRef("Point"), ast.NoNodeID),
		b.Member(b.Ident("p"), "z"),
	))
	b.Root("main", point, fn, bad)
	u, bag := analyze(t, b.Tree)
	if !hasCode(bag, diag.SemaUnknownMember) || len(bag.Items()) != 1 {
		t.Fatalf("diagnostics:\n%s", diag.FormatShort(bag.Items(), nil, true))
	}
	var ctor types.TypeID
	for _, callee := range u.Calls {
		ctor = callee.Constructor
	}
	if u.Types.MustLookup(ctor).Name != "Point" {
		t.Fatalf("constructor call not recorded")
	}
}

func TestCheckSelfReferentialType(t *testing.T) {
	b := ast.NewBuilder(0)
	list := b.TypeDecl("List", b.TypeDesc(b.Product(
		b.Leaf("v", b.TypeRef("i32")), b.Leaf("next", b.TypeRef("List")))))
	b.Root("main", list)
	_, bag := analyze(t, b.Tree)
	if len(bag.Items()) != 1 || !strings.Contains(bag.Items()[0].Message, "refers to itself") {
		t.Fatalf("diagnostics:\n%s", diag.FormatShort(bag.Items(), nil, true))
	}
}

func TestCheckImportsDependencyExports(t *testing.T) {
	lib := ast.NewBuilder(0)
	vec := lib.TypeDecl("Vec", lib.TypeDesc(lib.Product(
		lib.Leaf("x", lib.TypeRef("i64")), lib.Leaf("y", lib.TypeRef("i64")))))
	norm := lib.FnImpl(
		lib.FnDecl("norm", lib.TypeDesc(lib.Leaf("v", lib.TypeRef("Vec"))), lib.TypeRef("i64")),
		lib.Block(lib.Return(lib.Member(lib.Ident("v"), "x"))),
	)
	lib.Root("geometry", vec, norm)
	dep, bag := analyze(t, lib.Tree)
	expectClean(t, dep, bag)

	b := ast.NewBuilder(0)
	main := b.FnImpl(
		b.FnDecl("main", ast.NoNodeID, b.TypeRef("i64")),
		b.Block(b.Return(b.Call("norm", b.Call("Vec", b.Int(3), b.Int(4))))),
	)
	b.Root("main", b.Import("geometry"), main)
	u, bag := analyze(t, b.Tree, dep)
	expectClean(t, u, bag)
	norm2, ok := u.Func("norm")
	if !ok || !norm2.Foreign || norm2.Module != "geometry" {
		t.Fatalf("imported function = %+v", norm2)
	}
	if len(u.Exports()) != 1 {
		t.Fatalf("exports = %d, want only main", len(u.Exports()))
	}
}

func TestCheckUnknownImport(t *testing.T) {
	b := ast.NewBuilder(0)
	b.Root("main", b.Import("nowhere"))
	_, bag := analyze(t, b.Tree)
	if !hasCode(bag, diag.SemaUndeclared) {
		t.Fatalf("codes = %v", codes(bag))
	}
}

func TestCheckHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Check(ctx, loopProgram(), Options{}); err == nil {
		t.Fatalf("expected a cancellation error")
	}
}

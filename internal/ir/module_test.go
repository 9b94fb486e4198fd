package ir

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/refu-lang/refu-sub002/internal/types"
)

func TestResolverScopesFunctions(t *testing.T) {
	m := NewModule("scopes")
	g, err := m.StringGlobal("hello")
	if err != nil {
		t.Fatalf("StringGlobal: %v", err)
	}
	f, _ := m.DefineFunction("f", nil, NilType)
	h, _ := m.DefineFunction("h", nil, NilType)

	m.Resolver.EnterFunction()
	b := NewBuilder(m, f)
	if err := b.Place(m.NewBlock(f, StartLabel)); err != nil {
		t.Fatalf("Place: %v", err)
	}
	x, _ := b.Alloca(U32Type)
	if err := m.Resolver.AddObject("x", x.Object); err != nil {
		t.Fatalf("AddObject: %v", err)
	}
	if err := m.Resolver.AddObject("x", x.Object); !errors.Is(err, ErrDuplicateObject) {
		t.Fatalf("duplicate binding: %v", err)
	}
	m.Resolver.Push()
	inner, _ := b.Alloca(U64Type)
	if err := m.Resolver.AddObject("x", inner.Object); err != nil {
		t.Fatalf("shadowing in a nested scope: %v", err)
	}
	if id, _ := m.Resolver.GetObject("x"); id != inner.Object {
		t.Fatalf("innermost binding not preferred")
	}
	m.Resolver.Pop()
	if id, _ := m.Resolver.GetObject("x"); id != x.Object {
		t.Fatalf("outer binding lost after Pop")
	}
	m.Resolver.LeaveFunction()

	m.Resolver.EnterFunction()
	if err := m.Place(h, m.NewBlock(h, StartLabel)); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if _, err := m.Resolver.GetObject("x"); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("sibling function sees local: %v", err)
	}
	id, err := m.Resolver.GetObject(g.Name)
	if err != nil {
		t.Fatalf("global not visible: %v", err)
	}
	if v, _ := m.Objects.Value(id); v.Name != g.Name {
		t.Fatalf("global resolves to %v", v)
	}
	m.Resolver.LeaveFunction()
}

func TestObjectsLifetime(t *testing.T) {
	m := NewModule("objects")
	f, _ := m.DefineFunction("f", []Type{U32Type}, U32Type)
	blk := m.NewBlock(f, StartLabel)
	if _, err := m.Objects.Value(blk.Object); !errors.Is(err, ErrNoValue) {
		t.Fatalf("block value: %v", err)
	}
	arg, err := m.Objects.Value(f.Params[0].ID)
	if err != nil || arg.Name != "0" || !arg.Type.Equal(U32Type) {
		t.Fatalf("argument value = %v, %v", arg, err)
	}

	m.Resolver.EnterFunction()
	if err := m.Resolver.AddObject("a", f.Params[0].ID); err != nil {
		t.Fatalf("AddObject: %v", err)
	}
	if !m.Objects.Remove(f.Params[0].ID, m.Resolver) {
		t.Fatalf("Remove reported nothing removed")
	}
	if _, err := m.Resolver.GetObject("a"); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("removed object still bound: %v", err)
	}
	if m.Objects.Remove(f.Params[0].ID, nil) {
		t.Fatalf("second Remove succeeded")
	}
	m.Resolver.LeaveFunction()

	td, _ := m.AddTypedef("Pair", false, []Type{U32Type, U64Type})
	if !m.Objects.Destroy(td.Object, m.Resolver) {
		t.Fatalf("Destroy failed")
	}
	if _, err := m.Resolver.GetObject("Pair"); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("destroyed typedef still bound")
	}

	live := m.Objects.Len()
	count := 0
	for range m.Objects.Live() {
		count++
	}
	if count != live {
		t.Fatalf("Live yields %d, Len says %d", count, live)
	}
	if n := m.Teardown(); n != live || m.Objects.Len() != 0 {
		t.Fatalf("Teardown released %d of %d, %d left", n, live, m.Objects.Len())
	}
}

func TestFailedCreationsReleaseObjects(t *testing.T) {
	m := NewModule("rollback")
	if _, err := m.AddGlobal("Pair", U32Type, "1"); err != nil {
		t.Fatalf("AddGlobal: %v", err)
	}
	f, _ := m.DefineFunction("f", nil, NilType)
	live := m.Objects.Len()

	if _, err := m.AddTypedef("Pair", false, []Type{U32Type}); !errors.Is(err, ErrDuplicateObject) {
		t.Fatalf("AddTypedef over a global: %v", err)
	}
	if m.Objects.Len() != live {
		t.Fatalf("failed typedef left an object: %d live, want %d", m.Objects.Len(), live)
	}

	start := m.NewBlock(f, StartLabel)
	if err := m.Place(f, start); err != nil {
		t.Fatalf("Place: %v", err)
	}
	live = m.Objects.Len()
	dup := m.NewBlock(f, StartLabel)
	if err := m.Place(f, dup); !errors.Is(err, ErrDuplicateObject) {
		t.Fatalf("second %%%s: %v", StartLabel, err)
	}
	if _, ok := m.Objects.Get(dup.Object); ok || m.Objects.Len() != live {
		t.Fatalf("unplaced block still live")
	}
	if _, ok := m.Objects.Get(start.Object); !ok {
		t.Fatalf("placed block was destroyed")
	}
	if v, err := m.Resolver.GetObject("Pair"); err != nil {
		t.Fatalf("global unbound by the failed typedef: %v", err)
	} else if o, _ := m.Objects.Get(v); o.Kind != ObjGlobal {
		t.Fatalf("Pair resolves to a %s", o.Kind)
	}
}

func TestEmitTypedefsOrdersDependencies(t *testing.T) {
	set := types.NewSet()
	i32 := set.Elementary(types.ElemI32)
	mustT := func(id types.TypeID, err error) types.TypeID {
		t.Helper()
		if err != nil {
			t.Fatalf("intern: %v", err)
		}
		return id
	}
	leafX := mustT(set.Leaf("x", i32))
	leafY := mustT(set.Leaf("y", i32))
	point := mustT(set.Defined("Point", mustT(set.Operator(types.OpProduct, leafX, leafY))))
	leafA := mustT(set.Leaf("a", point))
	leafB := mustT(set.Leaf("b", point))
	line := mustT(set.Defined("Line", mustT(set.Operator(types.OpProduct, leafA, leafB))))
	anon := mustT(set.Operator(types.OpSum,
		set.Elementary(types.ElemI64), set.Elementary(types.ElemU64), set.Elementary(types.ElemString)))

	m := NewModule("typedefs")
	if err := EmitTypedefs(m, set, []types.TypeID{line, point, anon}); err != nil {
		t.Fatalf("EmitTypedefs: %v", err)
	}
	var names []string
	for _, td := range m.Typedefs {
		names = append(names, td.Name)
	}
	internal := InternalName(set, anon)
	if got := strings.Join(names, ","); got != "Point,Line,"+internal {
		t.Fatalf("order = %s", got)
	}
	if !strings.HasPrefix(internal, "internal_struct_") {
		t.Fatalf("anonymous typedef named %q", internal)
	}
	sizes := map[string]uint64{"Point": 8, "Line": 16, internal: 20}
	for _, td := range m.Typedefs {
		n, err := m.ByteSize(td)
		if err != nil || n != sizes[td.Name] {
			t.Fatalf("ByteSize(%s) = %d, %v", td.Name, n, err)
		}
	}
	want := "$Point = typedef(i32, i32)\n$Line = typedef(Point, Point)\n$" + internal + " = uniondef(i64, u64, string)\n"
	if got := String(m); got != want {
		t.Fatalf("printed\n%s\nwant\n%s", got, want)
	}
}

func TestStringGlobalsAreShared(t *testing.T) {
	m := NewModule("strings")
	composed, _ := m.StringGlobal("caf\u00e9")
	decomposed, _ := m.StringGlobal("cafe\u0301")
	other, _ := m.StringGlobal("tea")
	if composed.Name != decomposed.Name {
		t.Fatalf("canonically equal literals got %s and %s", composed.Name, decomposed.Name)
	}
	if composed.Name == other.Name || len(m.Globals) != 2 {
		t.Fatalf("globals = %+v", m.Globals)
	}
	if want := fmt.Sprintf("gstr_%d", types.UID("caf\u00e9")); composed.Name != want {
		t.Fatalf("name = %s, want %s", composed.Name, want)
	}
	if g, _ := m.Global(composed.Name); g.Literal != "caf\u00e9" {
		t.Fatalf("literal stored as %q", g.Literal)
	}
}

func TestSummarize(t *testing.T) {
	m, err := Parse("sample", strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	st := Summarize(m)
	if st.Module != "sample" || len(st.Typedefs) != 1 || st.Globals != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if st.Typedefs[0].Bytes != 20 || !st.Typedefs[0].Union {
		t.Fatalf("typedef stats = %+v", st.Typedefs[0])
	}
}

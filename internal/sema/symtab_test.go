package sema

import (
	"errors"
	"testing"

	"github.com/refu-lang/refu-sub002/internal/ast"
)

func TestScopeShadowingAndDuplicates(t *testing.T) {
	table := NewSymbolTable(1)
	fn := table.Open(ScopeFunction, table.Global, 2)
	block := table.Open(ScopeBlock, fn, 3)

	if err := table.Global.Declare(&Symbol{Name: "x", Kind: SymFunc}); err != nil {
		t.Fatalf("Declare: %v", err)
	}
	if err := block.Declare(&Symbol{Name: "x", Kind: SymVar}); err != nil {
		t.Fatalf("shadowing rejected: %v", err)
	}
	if err := block.Declare(&Symbol{Name: "x", Kind: SymVar}); !errors.Is(err, ErrDuplicateSymbol) {
		t.Fatalf("duplicate err = %v", err)
	}
	if sym, ok := block.Lookup("x"); !ok || sym.Kind != SymVar {
		t.Fatalf("inner lookup = %+v", sym)
	}
	if sym, ok := fn.Lookup("x"); !ok || sym.Kind != SymFunc {
		t.Fatalf("outer lookup = %+v", sym)
	}
	if _, ok := fn.LookupLocal("x"); ok {
		t.Fatalf("LookupLocal saw a parent symbol")
	}
	if s, ok := table.ScopeOf(ast.NodeID(3)); !ok || s != block {
		t.Fatalf("ScopeOf(3) = %v", s)
	}
}

func TestResultJoinKeepsWorst(t *testing.T) {
	r := Continue.Join(Stop).Join(SoftError).Join(Continue)
	if r != SoftError || !r.Failed() {
		t.Fatalf("joined = %s", r)
	}
	if Stop.Failed() {
		t.Fatalf("stop counted as failure")
	}
	if Fatal.Join(SoftError) != Fatal {
		t.Fatalf("fatal was downgraded")
	}
}

package ir

import (
	"fmt"
	"slices"
)

// Diff lists the structural differences between two modules, stopping at
// the first difference inside each function. Constant operands compare by
// value only since their types are not spelled in text.
func Diff(a, b *Module) []string {
	var out []string
	add := func(format string, args ...any) { out = append(out, fmt.Sprintf(format, args...)) }

	if len(a.Globals) != len(b.Globals) {
		add("globals: %d vs %d", len(a.Globals), len(b.Globals))
	} else {
		for i, g := range a.Globals {
			h := b.Globals[i]
			if g.Name != h.Name || !g.Type.Equal(h.Type) || g.Literal != h.Literal {
				add("global %d: $%s %s %q vs $%s %s %q", i, g.Name, g.Type, g.Literal, h.Name, h.Type, h.Literal)
			}
		}
	}
	if len(a.Typedefs) != len(b.Typedefs) {
		add("typedefs: %d vs %d", len(a.Typedefs), len(b.Typedefs))
	} else {
		for i, td := range a.Typedefs {
			te := b.Typedefs[i]
			if td.Name != te.Name || td.Union != te.Union || !slices.EqualFunc(td.Fields, te.Fields, Type.Equal) {
				add("typedef %d: %s vs %s", i, td.Name, te.Name)
			}
		}
	}
	diffFuncs(add, "fndecl", a.Decls, b.Decls)
	diffFuncs(add, "fndef", a.Funcs, b.Funcs)
	return out
}

// Equal reports whether Diff finds nothing.
func Equal(a, b *Module) bool { return len(Diff(a, b)) == 0 }

func diffFuncs(add func(string, ...any), kind string, as, bs []*Function) {
	if len(as) != len(bs) {
		add("%s count: %d vs %d", kind, len(as), len(bs))
		return
	}
	for i, f := range as {
		g := bs[i]
		if signature(f) != signature(g) {
			add("%s %d: %s vs %s", kind, i, signature(f), signature(g))
			continue
		}
		if msg := diffBody(f, g); msg != "" {
			add("%s %s: %s", kind, f.Name, msg)
		}
	}
}

func diffBody(f, g *Function) string {
	if len(f.Blocks) != len(g.Blocks) {
		return fmt.Sprintf("%d blocks vs %d", len(f.Blocks), len(g.Blocks))
	}
	for i, b := range f.Blocks {
		c := g.Blocks[i]
		if b.Label != c.Label {
			return fmt.Sprintf("block %d: %%%s vs %%%s", i, b.Label, c.Label)
		}
		if len(b.Exprs) != len(c.Exprs) {
			return fmt.Sprintf("%%%s: %d instructions vs %d", b.Label, len(b.Exprs), len(c.Exprs))
		}
		for j, o := range b.Exprs {
			if !sameExpr(o.Expr, c.Exprs[j].Expr) {
				return fmt.Sprintf("%%%s: %s vs %s", b.Label, FormatExpr(o.Expr), FormatExpr(c.Exprs[j].Expr))
			}
		}
		if !sameExit(b.Exit, c.Exit) {
			return fmt.Sprintf("%%%s: %s vs %s", b.Label, FormatExit(b.Exit), FormatExit(c.Exit))
		}
	}
	return ""
}

func sameValue(a, b Value) bool {
	if a.Category != b.Category {
		return false
	}
	switch a.Category {
	case ValConstant:
		return a.Const == b.Const
	case ValVariable:
		return a.Name == b.Name && a.Type.Equal(b.Type)
	default:
		return a.Name == b.Name
	}
}

func sameExpr(a, b *Expr) bool {
	return a.Op == b.Op && sameValue(a.Val, b.Val) && a.Type.Equal(b.Type) && a.Index == b.Index &&
		a.Callee == b.Callee && a.Foreign == b.Foreign && slices.EqualFunc(a.Args, b.Args, sameValue)
}

func sameExit(a, b Exit) bool {
	return a.Kind == b.Kind && a.Target == b.Target && a.Fallthrough == b.Fallthrough &&
		sameValue(a.Cond, b.Cond) && sameValue(a.Value, b.Value)
}

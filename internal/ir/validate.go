package ir

import (
	"errors"
	"fmt"
)

// Validate checks module invariants and reports every violation.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, td := range m.Typedefs {
		for i, f := range td.Fields {
			if err := validateTypeRef(m, f); err != nil {
				errs = append(errs, fmt.Errorf("typedef %s field %d: %w", td.Name, i, err))
			}
		}
		if _, err := m.ByteSize(td); err != nil {
			errs = append(errs, err)
		}
	}
	for _, f := range m.Decls {
		if err := validateSignature(m, f); err != nil {
			errs = append(errs, fmt.Errorf("fndecl %s: %w", f.Name, err))
		}
	}
	for _, f := range m.Funcs {
		if err := validateFunc(m, f); err != nil {
			errs = append(errs, fmt.Errorf("fndef %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateTypeRef(m *Module, t Type) error {
	if t.Name == "" {
		return nil
	}
	if _, ok := m.Typedef(t.Name); !ok {
		return fmt.Errorf("unknown typedef %q", t.Name)
	}
	return nil
}

func validateSignature(m *Module, f *Function) error {
	var errs []error
	for i, a := range f.Args {
		if err := validateTypeRef(m, a); err != nil {
			errs = append(errs, fmt.Errorf("argument %d: %w", i, err))
		}
	}
	if err := validateTypeRef(m, f.Ret); err != nil {
		errs = append(errs, fmt.Errorf("return: %w", err))
	}
	return errors.Join(errs...)
}

func validateFunc(m *Module, f *Function) error {
	errs := []error{validateSignature(m, f)}

	// 1. Entry and exit blocks
	if len(f.Blocks) == 0 || f.Blocks[0].Label != StartLabel {
		errs = append(errs, fmt.Errorf("first block must be %%%s", StartLabel))
	}
	if _, ok := f.Block(EndLabel); !ok {
		errs = append(errs, fmt.Errorf("missing %%%s", EndLabel))
	}

	// 2. Every block ends in an exit that targets a placed block
	for _, b := range f.Blocks {
		if !b.Terminated() {
			errs = append(errs, fmt.Errorf("%%%s has no exit", b.Label))
		}
		for _, s := range b.Successors() {
			if _, ok := f.Block(s); !ok {
				errs = append(errs, fmt.Errorf("%%%s branches to unknown %%%s", b.Label, s))
			}
		}
	}

	// 3. Operands refer to defined variables
	defined := make(map[string]bool)
	for _, o := range f.Params {
		defined[o.Var.Name] = true
	}
	if f.RetSlot != nil {
		defined[f.RetSlot.Var.Name] = true
	}
	for _, b := range f.Blocks {
		for _, o := range b.Exprs {
			if o.Expr.HasValue() {
				if defined[o.Expr.Val.Name] {
					errs = append(errs, fmt.Errorf("$%s defined twice", o.Expr.Val.Name))
				}
				defined[o.Expr.Val.Name] = true
			}
		}
	}
	use := func(b *Block, v Value) {
		if !v.IsVariable() || defined[v.Name] {
			return
		}
		if _, ok := m.Global(v.Name); ok {
			return
		}
		errs = append(errs, fmt.Errorf("%%%s uses undefined %s", b.Label, v))
	}
	for _, b := range f.Blocks {
		for _, o := range b.Exprs {
			for _, a := range o.Expr.Args {
				use(b, a)
			}
			if err := validateExpr(m, o.Expr); err != nil {
				errs = append(errs, fmt.Errorf("%%%s: %s: %w", b.Label, FormatExpr(o.Expr), err))
			}
		}
		use(b, b.Exit.Cond)
		use(b, b.Exit.Value)
	}

	// 4. Returns match the signature
	for _, b := range f.Blocks {
		if b.Exit.Kind != ExitReturn {
			continue
		}
		switch v := b.Exit.Value; {
		case f.Ret.IsNil() && v.Category != ValNil:
			errs = append(errs, fmt.Errorf("%%%s returns %s from a nil function", b.Label, v))
		case !f.Ret.IsNil() && v.Category == ValNil:
			errs = append(errs, fmt.Errorf("%%%s returns nothing, want %s", b.Label, f.Ret))
		case v.IsVariable() && !v.Type.Equal(f.Ret):
			errs = append(errs, fmt.Errorf("%%%s returns %s of type %s, want %s", b.Label, v, v.Type, f.Ret))
		}
	}
	return errors.Join(errs...)
}

func validateExpr(m *Module, e *Expr) error {
	if err := validateTypeRef(m, e.Type); err != nil {
		return err
	}
	switch e.Op {
	case OpCall:
		f, ok := m.Function(e.Callee)
		if !ok {
			return fmt.Errorf("unknown function %q", e.Callee)
		}
		if f.Foreign != e.Foreign {
			return fmt.Errorf("%s is foreign=%t", f.Name, f.Foreign)
		}
		if len(e.Args) != len(f.Args) {
			return fmt.Errorf("%s takes %d arguments, got %d", f.Name, len(f.Args), len(e.Args))
		}
		for i, a := range e.Args {
			if a.IsVariable() && !a.Type.Equal(f.Args[i]) {
				return fmt.Errorf("argument %d is %s, want %s", i+1, a.Type, f.Args[i])
			}
		}
	case OpWrite:
		if len(e.Args) == 2 && e.Args[1].IsVariable() && !e.Args[1].Type.Equal(e.Args[0].Type.Deref()) {
			return fmt.Errorf("writes %s through %s", e.Args[1].Type, e.Args[0].Type)
		}
	}
	if e.HasValue() {
		t, has, err := m.resultType(e)
		if err != nil {
			return err
		}
		if !has || !t.Equal(e.Val.Type) {
			return fmt.Errorf("result type %s does not match %s", e.Val.Type, t)
		}
	}
	return nil
}

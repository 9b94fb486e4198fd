package ir

import "fmt"

// resultType is the type of the variable an instruction defines. The
// second result is false for instructions that define nothing. Lowering
// and the text parser both go through here, so a printed module parses
// back to the same types.
func (m *Module) resultType(e *Expr) (Type, bool, error) {
	arg := func(i int) (Value, error) {
		if i >= len(e.Args) {
			return Value{}, fmt.Errorf("%s: missing operand %d", e.Op, i+1)
		}
		return e.Args[i], nil
	}
	switch {
	case e.Op == OpConvert:
		return e.Type, true, nil
	case e.Op == OpWrite, e.Op == OpSetUnionIdx:
		return Type{}, false, nil
	case e.Op == OpAlloca:
		return e.Type.PointerTo(), true, nil
	case e.Op == OpRead:
		p, err := arg(0)
		if err != nil {
			return Type{}, false, err
		}
		if !p.Type.Pointer {
			return Type{}, false, fmt.Errorf("read of non-pointer %s of type %s", p, p.Type)
		}
		return p.Type.Deref(), true, nil
	case e.Op == OpCall:
		f, ok := m.Function(e.Callee)
		if !ok {
			return Type{}, false, fmt.Errorf("call to unknown function %q", e.Callee)
		}
		if f.Ret.IsNil() {
			return Type{}, false, nil
		}
		return f.Ret, true, nil
	case e.Op.IsCompare():
		return BoolType, true, nil
	case e.Op.IsArith():
		for _, a := range e.Args {
			if a.IsVariable() {
				return a.Type, true, nil
			}
		}
		return Type{}, false, fmt.Errorf("%s needs at least one variable operand", e.Op)
	case e.Op == OpFixedArrSize:
		return U64Type, true, nil
	case e.Op == OpGetUnionIdx:
		return U32Type, true, nil
	case e.Op == OpObjIdx:
		a, err := arg(0)
		if err != nil {
			return Type{}, false, err
		}
		if !a.Type.IsArray() {
			return Type{}, false, fmt.Errorf("objidx of non-array %s of type %s", a, a.Type)
		}
		return a.Type.Element(), true, nil
	case e.Op == OpObjMemberAt, e.Op == OpUnionMemberAt:
		a, err := arg(0)
		if err != nil {
			return Type{}, false, err
		}
		ft, err := m.fieldType(a.Type, e.Index, e.Op == OpUnionMemberAt)
		if err != nil {
			return Type{}, false, fmt.Errorf("%s: %w", e.Op, err)
		}
		if a.Type.Pointer {
			ft = ft.PointerTo()
		}
		return ft, true, nil
	default:
		return Type{}, false, fmt.Errorf("unknown instruction %s", e.Op)
	}
}

func (m *Module) fieldType(t Type, idx uint32, union bool) (Type, error) {
	if t.Name == "" || t.IsArray() {
		return Type{}, fmt.Errorf("%s is not a typedef", t)
	}
	td, ok := m.Typedef(t.Name)
	if !ok {
		return Type{}, fmt.Errorf("unknown typedef %q", t.Name)
	}
	if td.Union != union {
		return Type{}, fmt.Errorf("typedef %q union=%t", td.Name, td.Union)
	}
	if int(idx) >= len(td.Fields) {
		return Type{}, fmt.Errorf("typedef %q has no field %d", td.Name, idx)
	}
	return td.Fields[idx], nil
}

package ir

import (
	"fmt"
	"strconv"

	"github.com/refu-lang/refu-sub002/internal/types"
)

const internalPrefix = "internal_struct_"

// typeMapper turns checked types into IR types. Composite types get their
// typedef on first use, after the typedefs of their fields.
type typeMapper struct {
	m    *Module
	set  *types.Set
	busy map[types.TypeID]bool
}

func newTypeMapper(m *Module, set *types.Set) *typeMapper {
	return &typeMapper{m: m, set: set, busy: make(map[types.TypeID]bool)}
}

// InternalName names the typedef of an anonymous sum or product.
func InternalName(set *types.Set, t types.TypeID) string {
	return internalPrefix + strconv.FormatUint(uint64(set.UIDOf(t)), 10)
}

func (tm *typeMapper) irType(t types.TypeID) (Type, error) {
	t = tm.set.Unleaf(t)
	d, ok := tm.set.Lookup(t)
	if !ok {
		return Type{}, fmt.Errorf("type %d: %w", t, ErrTypeMismatch)
	}
	switch d.Category {
	case types.CategoryElementary:
		return Scalar(d.Elem), nil
	case types.CategoryDefined:
		name, err := tm.ensure(t)
		return Named(name), err
	case types.CategoryArray:
		inner, err := tm.irType(d.Inner)
		if err != nil {
			return Type{}, err
		}
		inner.Dims = append(append([]uint64(nil), d.Dims...), inner.Dims...)
		return inner, nil
	case types.CategoryOperator:
		if d.Op == types.OpImplication {
			return Type{}, fmt.Errorf("function value of type %s: %w", tm.set.String(t), ErrUnsupported)
		}
		name, err := tm.ensure(t)
		return Named(name), err
	default:
		return Type{}, fmt.Errorf("%s type %s: %w", d.Category, tm.set.String(t), ErrUnsupported)
	}
}

// ensure emits the typedef of a defined or anonymous composite type.
func (tm *typeMapper) ensure(t types.TypeID) (string, error) {
	d := tm.set.MustLookup(t)
	name := d.Name
	if d.Category != types.CategoryDefined {
		name = InternalName(tm.set, t)
	}
	if _, ok := tm.m.Typedef(name); ok || tm.busy[t] {
		return name, nil
	}
	if containsGeneric(tm.set, t) {
		return "", fmt.Errorf("generic type %s: %w", tm.set.String(t), ErrUnsupported)
	}
	tm.busy[t] = true
	defer delete(tm.busy, t)

	under := tm.set.MustLookup(tm.set.Underlying(t))
	ops := []types.TypeID{tm.set.Underlying(t)}
	union := false
	if under.Category == types.CategoryOperator && under.Op != types.OpImplication {
		ops, union = under.Operands, under.Op == types.OpSum
	}
	fields := make([]Type, 0, len(ops))
	for _, op := range ops {
		ft, err := tm.irType(op)
		if err != nil {
			return "", fmt.Errorf("typedef %s: %w", name, err)
		}
		fields = append(fields, ft)
	}
	if _, err := tm.m.AddTypedef(name, union, fields); err != nil {
		return "", err
	}
	return name, nil
}

func containsGeneric(set *types.Set, t types.TypeID) bool {
	d, ok := set.Lookup(t)
	if !ok {
		return false
	}
	switch d.Category {
	case types.CategoryGeneric:
		return true
	case types.CategoryLeaf, types.CategoryDefined, types.CategoryArray:
		return containsGeneric(set, d.Inner)
	case types.CategoryOperator:
		for _, op := range d.Operands {
			if containsGeneric(set, op) {
				return true
			}
		}
	}
	return false
}

// EmitTypedefs adds a typedef for every declared type, dependencies
// first. Generic declarations are skipped.
func EmitTypedefs(m *Module, set *types.Set, decls []types.TypeID) error {
	return newTypeMapper(m, set).emit(decls)
}

func (tm *typeMapper) emit(decls []types.TypeID) error {
	roots := make([]types.TypeID, 0, len(decls))
	for _, d := range decls {
		if !containsGeneric(tm.set, d) {
			roots = append(roots, d)
		}
	}
	for _, t := range types.OrderDependencies(tm.set, roots) {
		if _, err := tm.ensure(t); err != nil {
			return err
		}
	}
	return nil
}

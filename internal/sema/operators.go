package sema

import (
	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/types"
)

// FamilyMask describes broad categories of types an operator accepts.
type FamilyMask uint32

const (
	FamilyNone FamilyMask = 0
	FamilyAny  FamilyMask = 1 << iota
	FamilyBool
	FamilySignedInt
	FamilyUnsignedInt
	FamilyFloat
	FamilyString
)

const (
	FamilyIntegral = FamilySignedInt | FamilyUnsignedInt
	FamilyNumeric  = FamilyIntegral | FamilyFloat
	FamilyScalar   = FamilyNumeric | FamilyBool | FamilyString
)

// BinaryResult describes how to derive the result type for an operator.
type BinaryResult uint8

const (
	BinaryResultUnknown BinaryResult = iota
	BinaryResultLeft
	BinaryResultBool
	BinaryResultNumeric
)

// BinarySpec lists operand families and the result rule of an operator.
type BinarySpec struct {
	Left       FamilyMask
	Right      FamilyMask
	Result     BinaryResult
	Assignment bool
}

var binarySpecTable = map[ast.BinaryOp]BinarySpec{
	ast.BinAdd:    {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultNumeric},
	ast.BinSub:    {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultNumeric},
	ast.BinMul:    {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultNumeric},
	ast.BinDiv:    {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultNumeric},
	ast.BinEq:     {Left: FamilyScalar, Right: FamilyScalar, Result: BinaryResultBool},
	ast.BinNe:     {Left: FamilyScalar, Right: FamilyScalar, Result: BinaryResultBool},
	ast.BinGt:     {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultBool},
	ast.BinGe:     {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultBool},
	ast.BinLt:     {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultBool},
	ast.BinLe:     {Left: FamilyNumeric, Right: FamilyNumeric, Result: BinaryResultBool},
	ast.BinAnd:    {Left: FamilyBool, Right: FamilyBool, Result: BinaryResultBool},
	ast.BinOr:     {Left: FamilyBool, Right: FamilyBool, Result: BinaryResultBool},
	ast.BinAssign: {Left: FamilyAny, Right: FamilyAny, Result: BinaryResultLeft, Assignment: true},
}

// BinarySpecFor returns operand rules for the given operator.
func BinarySpecFor(op ast.BinaryOp) (BinarySpec, bool) {
	spec, ok := binarySpecTable[op]
	return spec, ok
}

// UnarySpec describes operand expectations for prefix operators.
type UnarySpec struct {
	Operand FamilyMask
	Bool    bool // result is bool rather than the operand type
}

var unarySpecTable = map[ast.UnaryOp]UnarySpec{
	ast.UnMinus: {Operand: FamilyNumeric},
	ast.UnNot:   {Operand: FamilyBool, Bool: true},
}

func UnarySpecFor(op ast.UnaryOp) (UnarySpec, bool) {
	spec, ok := unarySpecTable[op]
	return spec, ok
}

// familyOf classifies a type for operator checks.
func familyOf(set *types.Set, t types.TypeID) FamilyMask {
	e, ok := set.ElementaryOf(t)
	if !ok {
		return FamilyAny
	}
	switch {
	case e == types.ElemBool:
		return FamilyBool | FamilyAny
	case e == types.ElemString:
		return FamilyString | FamilyAny
	case e.IsFloat():
		return FamilyFloat | FamilyAny
	case e.IsInteger() && e.IsSigned():
		return FamilySignedInt | FamilyAny
	case e.IsInteger():
		return FamilyUnsignedInt | FamilyAny
	default:
		return FamilyAny
	}
}

func (m FamilyMask) accepts(f FamilyMask) bool {
	if m == FamilyAny {
		return true
	}
	return m&f&^FamilyAny != 0
}

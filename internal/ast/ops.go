package ast

import "fmt"

// BinaryOp enumerates binary expression operators.
type BinaryOp uint8

const (
	BinInvalid BinaryOp = iota
	BinAdd
	BinSub
	BinMul
	BinDiv
	BinEq
	BinNe
	BinGt
	BinGe
	BinLt
	BinLe
	BinAnd
	BinOr
	BinAssign
)

var binaryOpNames = map[BinaryOp]string{
	BinAdd:    "+",
	BinSub:    "-",
	BinMul:    "*",
	BinDiv:    "/",
	BinEq:     "==",
	BinNe:     "!=",
	BinGt:     ">",
	BinGe:     ">=",
	BinLt:     "<",
	BinLe:     "<=",
	BinAnd:    "&&",
	BinOr:     "||",
	BinAssign: "=",
}

func (op BinaryOp) String() string {
	if s, ok := binaryOpNames[op]; ok {
		return s
	}
	return fmt.Sprintf("BinaryOp(%d)", op)
}

// IsComparison holds for operators yielding bool from two operands.
func (op BinaryOp) IsComparison() bool {
	return op >= BinEq && op <= BinLe
}

// UnaryOp enumerates prefix operators.
type UnaryOp uint8

const (
	UnInvalid UnaryOp = iota
	UnMinus
	UnNot
)

func (op UnaryOp) String() string {
	switch op {
	case UnMinus:
		return "-"
	case UnNot:
		return "!"
	default:
		return fmt.Sprintf("UnaryOp(%d)", op)
	}
}

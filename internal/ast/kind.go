package ast

import "fmt"

// NodeID addresses a node inside a Tree. 0 means "no node".
type NodeID uint32

const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }

// Kind is the syntactic category of a node.
//
// Child layouts (NoNodeID marks an absent optional slot):
//
//	Root, Module      items...
//	TypeDecl          [TypeDesc, Generic...]
//	TypeDesc          [type expression]
//	TypeOp            operands...
//	TypeLeaf          [type expression]           Name is the leaf name
//	ArraySpec         [member type expression]    Dims holds the sizes
//	FnDecl            [args type, return type, Generic...]
//	FnImpl            [FnDecl, Block]
//	VarDecl           [type, init]
//	Return            [value]
//	Binary            [lhs, rhs]
//	Unary             [operand]
//	Call              args...                     Name is the callee
//	Index             [array, index]
//	Member            [object]                    Name is the member
//	If                [cond, Block, Elif..., Else]
//	Elif              [cond, Block]
//	Else              [Block]
//	For               [iterable, Block]           Name is the loop variable
//	Match             [scrutinee, MatchCase...]
//	MatchCase         [pattern type, Block]       Name binds the payload
//	Typeclass         [FnDecl..., Generic...]
//	TypeInstance      [TypeRef, FnImpl...]        Name is the typeclass
type Kind uint8

const (
	KindInvalid Kind = iota
	KindRoot
	KindModule
	KindImport
	KindTypeDecl
	KindFnDecl
	KindFnImpl
	KindBlock
	KindVarDecl
	KindReturn
	KindTypeDesc
	KindTypeOp
	KindTypeLeaf
	KindTypeRef
	KindArraySpec
	KindIdentifier
	KindIntConst
	KindFloatConst
	KindBoolConst
	KindStringLit
	KindBinary
	KindUnary
	KindCall
	KindIndex
	KindMember
	KindIf
	KindElif
	KindElse
	KindFor
	KindMatch
	KindMatchCase
	KindGeneric
	KindTypeclass
	KindTypeInstance

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:      "Invalid",
	KindRoot:         "Root",
	KindModule:       "Module",
	KindImport:       "Import",
	KindTypeDecl:     "TypeDecl",
	KindFnDecl:       "FnDecl",
	KindFnImpl:       "FnImpl",
	KindBlock:        "Block",
	KindVarDecl:      "VarDecl",
	KindReturn:       "Return",
	KindTypeDesc:     "TypeDesc",
	KindTypeOp:       "TypeOp",
	KindTypeLeaf:     "TypeLeaf",
	KindTypeRef:      "TypeRef",
	KindArraySpec:    "ArraySpec",
	KindIdentifier:   "Identifier",
	KindIntConst:     "IntConst",
	KindFloatConst:   "FloatConst",
	KindBoolConst:    "BoolConst",
	KindStringLit:    "StringLit",
	KindBinary:       "Binary",
	KindUnary:        "Unary",
	KindCall:         "Call",
	KindIndex:        "Index",
	KindMember:       "Member",
	KindIf:           "If",
	KindElif:         "Elif",
	KindElse:         "Else",
	KindFor:          "For",
	KindMatch:        "Match",
	KindMatchCase:    "MatchCase",
	KindGeneric:      "Generic",
	KindTypeclass:    "Typeclass",
	KindTypeInstance: "TypeInstance",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsTypeExpr reports whether k describes a type.
func (k Kind) IsTypeExpr() bool {
	switch k {
	case KindTypeDesc, KindTypeOp, KindTypeLeaf, KindTypeRef, KindArraySpec:
		return true
	default:
		return false
	}
}

// IsExpr reports whether k is a value expression.
func (k Kind) IsExpr() bool {
	return k >= KindIdentifier && k <= KindMember
}

// State tracks how far analysis has advanced on a node.
type State uint8

const (
	StateUnanalyzed State = iota
	StateSymbolsDone
	StateTypeChecked
	StateLowered
)

func (s State) String() string {
	switch s {
	case StateUnanalyzed:
		return "unanalyzed"
	case StateSymbolsDone:
		return "symbols"
	case StateTypeChecked:
		return "typechecked"
	case StateLowered:
		return "lowered"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

package types

import "fmt"

// TypeID uniquely identifies a type inside a Set.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Category enumerates the structural shapes a type can take.
type Category uint8

const (
	CategoryInvalid Category = iota
	CategoryElementary
	CategoryOperator
	CategoryLeaf
	CategoryDefined
	CategoryGeneric
	CategoryWildcard
	CategoryArray
)

func (c Category) String() string {
	switch c {
	case CategoryInvalid:
		return "invalid"
	case CategoryElementary:
		return "elementary"
	case CategoryOperator:
		return "operator"
	case CategoryLeaf:
		return "leaf"
	case CategoryDefined:
		return "defined"
	case CategoryGeneric:
		return "generic"
	case CategoryWildcard:
		return "wildcard"
	case CategoryArray:
		return "array"
	default:
		return fmt.Sprintf("Category(%d)", c)
	}
}

// Op is the type operator joining operands.
type Op uint8

const (
	OpInvalid Op = iota
	OpSum
	OpProduct
	OpImplication
)

func (o Op) String() string {
	switch o {
	case OpSum:
		return "sum"
	case OpProduct:
		return "product"
	case OpImplication:
		return "implication"
	default:
		return fmt.Sprintf("Op(%d)", o)
	}
}

// Separator is the token placed between operands in canonical form.
func (o Op) Separator() string {
	switch o {
	case OpSum:
		return "|"
	case OpProduct:
		return ","
	case OpImplication:
		return "->"
	default:
		return "?"
	}
}

// Type is the descriptor behind a TypeID. Descriptors are immutable once interned.
type Type struct {
	Category Category
	Elem     Elementary // CategoryElementary
	Op       Op         // CategoryOperator
	Operands []TypeID   // CategoryOperator
	Name     string     // leaf, defined, generic
	Inner    TypeID     // leaf and defined payload, array member
	Dims     []uint64   // CategoryArray, outermost first
}

// Descriptor helpers ---------------------------------------------------------

func MakeOperator(op Op, operands ...TypeID) Type {
	return Type{Category: CategoryOperator, Op: op, Operands: append([]TypeID(nil), operands...)}
}

func MakeLeaf(name string, t TypeID) Type {
	return Type{Category: CategoryLeaf, Name: name, Inner: t}
}

func MakeDefined(name string, t TypeID) Type {
	return Type{Category: CategoryDefined, Name: name, Inner: t}
}

func MakeGeneric(name string) Type {
	return Type{Category: CategoryGeneric, Name: name}
}

func MakeArray(member TypeID, dims ...uint64) Type {
	return Type{Category: CategoryArray, Inner: member, Dims: append([]uint64(nil), dims...)}
}

// IsSum reports whether t is a sum operator.
func (t Type) IsSum() bool {
	return t.Category == CategoryOperator && t.Op == OpSum
}

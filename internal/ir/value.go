package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueCategory tells how a Value is spelled and where it comes from.
type ValueCategory uint8

const (
	ValNil ValueCategory = iota
	ValConstant
	ValVariable
	ValLabel
)

func (c ValueCategory) String() string {
	switch c {
	case ValNil:
		return "nil"
	case ValConstant:
		return "constant"
	case ValVariable:
		return "variable"
	case ValLabel:
		return "label"
	default:
		return fmt.Sprintf("ValueCategory(%d)", c)
	}
}

// ConstKind distinguishes literal payloads.
type ConstKind uint8

const (
	ConstInt ConstKind = iota + 1
	ConstFloat
	ConstBool
)

type Constant struct {
	Kind  ConstKind `msgpack:"k"`
	Int   int64     `msgpack:"i,omitempty"`
	Float float64   `msgpack:"f,omitempty"`
	Bool  bool      `msgpack:"b,omitempty"`
}

func (c Constant) String() string {
	switch c.Kind {
	case ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ConstFloat:
		s := strconv.FormatFloat(c.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}
		return s
	case ConstBool:
		return strconv.FormatBool(c.Bool)
	default:
		return "?"
	}
}

// Value is an instruction operand or result.
type Value struct {
	Category ValueCategory `msgpack:"c"`
	Type     Type          `msgpack:"t"`
	Name     string        `msgpack:"n,omitempty"` // variable or label name without sigil
	Const    Constant      `msgpack:"k,omitempty"`
	Object   ObjectID      `msgpack:"-"` // producing object of a variable
}

var Nil = Value{Category: ValNil, Type: NilType}

func IntConst(v int64, t Type) Value {
	return Value{Category: ValConstant, Type: t, Const: Constant{Kind: ConstInt, Int: v}}
}

func FloatConst(v float64, t Type) Value {
	return Value{Category: ValConstant, Type: t, Const: Constant{Kind: ConstFloat, Float: v}}
}

func BoolConst(v bool) Value {
	return Value{Category: ValConstant, Type: BoolType, Const: Constant{Kind: ConstBool, Bool: v}}
}

func (v Value) IsConstant() bool { return v.Category == ValConstant }

func (v Value) IsVariable() bool { return v.Category == ValVariable }

func (v Value) String() string {
	switch v.Category {
	case ValConstant:
		return v.Const.String()
	case ValVariable:
		return "$" + v.Name
	case ValLabel:
		return "%" + v.Name
	default:
		return "nil"
	}
}

// parseConstant reads a literal operand.
func parseConstant(s string) (Constant, bool) {
	switch s {
	case "true", "false":
		return Constant{Kind: ConstBool, Bool: s == "true"}, true
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Constant{Kind: ConstInt, Int: i}, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Constant{Kind: ConstFloat, Float: f}, true
	}
	return Constant{}, false
}

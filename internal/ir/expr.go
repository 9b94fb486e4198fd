package ir

import "fmt"

// Op is an instruction opcode.
type Op uint8

const (
	OpInvalid Op = iota
	OpConvert
	OpWrite
	OpRead
	OpAlloca
	OpCall
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpCmpEQ
	OpCmpNE
	OpCmpGT
	OpCmpGE
	OpCmpLT
	OpCmpLE
	OpLogicAnd
	OpLogicOr
	OpFixedArrSize
	OpObjIdx
	OpObjMemberAt
	OpUnionMemberAt
	OpGetUnionIdx
	OpSetUnionIdx

	opCount
)

var opNames = [opCount]string{
	OpInvalid:       "invalid",
	OpConvert:       "convert",
	OpWrite:         "write",
	OpRead:          "read",
	OpAlloca:        "alloca",
	OpCall:          "call",
	OpAdd:           "add",
	OpSub:           "sub",
	OpMul:           "mul",
	OpDiv:           "div",
	OpCmpEQ:         "cmpeq",
	OpCmpNE:         "cmpne",
	OpCmpGT:         "cmpgt",
	OpCmpGE:         "cmpge",
	OpCmpLT:         "cmplt",
	OpCmpLE:         "cmple",
	OpLogicAnd:      "logicand",
	OpLogicOr:       "logicor",
	OpFixedArrSize:  "fixedarrsize",
	OpObjIdx:        "objidx",
	OpObjMemberAt:   "objmemberat",
	OpUnionMemberAt: "unionmemberat",
	OpGetUnionIdx:   "getunionidx",
	OpSetUnionIdx:   "setunionidx",
}

func (op Op) String() string {
	if op < opCount {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", op)
}

var opByName = func() map[string]Op {
	m := make(map[string]Op, opCount)
	for op := OpConvert; op < opCount; op++ {
		m[opNames[op]] = op
	}
	return m
}()

// IsArith holds for add, sub, mul and div.
func (op Op) IsArith() bool { return op >= OpAdd && op <= OpDiv }

// IsCompare holds for operators yielding bool.
func (op Op) IsCompare() bool { return op >= OpCmpEQ && op <= OpLogicOr }

// IsBinary holds for two-operand value operators.
func (op Op) IsBinary() bool { return op >= OpAdd && op <= OpLogicOr }

// Expr is one instruction.
type Expr struct {
	Op   Op      `msgpack:"o"`
	Val  Value   `msgpack:"v"` // result; ValNil when nothing is produced
	Args []Value `msgpack:"a,omitempty"`
	// Type is the convert target, the alloca element type or the pointer
	// type a write stores through.
	Type    Type   `msgpack:"t,omitempty"`
	Index   uint32 `msgpack:"x,omitempty"` // member or variant position
	Callee  string `msgpack:"f,omitempty"`
	Foreign bool   `msgpack:"g,omitempty"`
}

// HasValue reports whether the instruction defines a variable.
func (e *Expr) HasValue() bool { return e.Val.Category == ValVariable }

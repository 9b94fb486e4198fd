package types

import "fmt"

// Elementary enumerates the built-in scalar types.
type Elementary uint8

const (
	ElemInvalid Elementary = iota
	ElemInt
	ElemUint
	ElemI8
	ElemU8
	ElemI16
	ElemU16
	ElemI32
	ElemU32
	ElemI64
	ElemU64
	ElemF32
	ElemF64
	ElemString
	ElemBool
	ElemNil

	elemCount
)

var elemNames = [elemCount]string{
	ElemInvalid: "invalid",
	ElemInt:     "int",
	ElemUint:    "uint",
	ElemI8:      "i8",
	ElemU8:      "u8",
	ElemI16:     "i16",
	ElemU16:     "u16",
	ElemI32:     "i32",
	ElemU32:     "u32",
	ElemI64:     "i64",
	ElemU64:     "u64",
	ElemF32:     "f32",
	ElemF64:     "f64",
	ElemString:  "string",
	ElemBool:    "bool",
	ElemNil:     "nil",
}

func (e Elementary) String() string {
	if e < elemCount {
		return elemNames[e]
	}
	return fmt.Sprintf("Elementary(%d)", e)
}

// ElementaryByName resolves a builtin type name.
func ElementaryByName(name string) (Elementary, bool) {
	for e := ElemInt; e < elemCount; e++ {
		if elemNames[e] == name {
			return e, true
		}
	}
	return ElemInvalid, false
}

func (e Elementary) IsInteger() bool {
	return e >= ElemInt && e <= ElemU64
}

func (e Elementary) IsFloat() bool {
	return e == ElemF32 || e == ElemF64
}

func (e Elementary) IsNumeric() bool {
	return e.IsInteger() || e.IsFloat()
}

// IsSigned holds for signed integers and floats.
func (e Elementary) IsSigned() bool {
	switch e {
	case ElemInt, ElemI8, ElemI16, ElemI32, ElemI64, ElemF32, ElemF64:
		return true
	default:
		return false
	}
}

// Bits is the storage width. int and uint are 64 bits wide; bool is 8.
func (e Elementary) Bits() uint {
	switch e {
	case ElemI8, ElemU8, ElemBool:
		return 8
	case ElemI16, ElemU16:
		return 16
	case ElemI32, ElemU32, ElemF32:
		return 32
	case ElemInt, ElemUint, ElemI64, ElemU64, ElemF64:
		return 64
	default:
		return 0
	}
}

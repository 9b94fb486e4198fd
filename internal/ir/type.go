package ir

import (
	"strconv"
	"strings"

	"github.com/refu-lang/refu-sub002/internal/types"
)

// Type is an IR type: a scalar or a typedef reference, optionally an array,
// optionally behind a pointer.
type Type struct {
	Elem    types.Elementary `msgpack:"e,omitempty"`
	Name    string           `msgpack:"n,omitempty"` // typedef name when Elem is unset
	Dims    []uint64         `msgpack:"d,omitempty"`
	Pointer bool             `msgpack:"p,omitempty"`
}

func Scalar(e types.Elementary) Type { return Type{Elem: e} }

func Named(name string) Type { return Type{Name: name} }

var (
	NilType  = Scalar(types.ElemNil)
	BoolType = Scalar(types.ElemBool)
	U32Type  = Scalar(types.ElemU32)
	U64Type  = Scalar(types.ElemU64)
)

func (t Type) IsNil() bool { return t.Elem == types.ElemNil && !t.Pointer && len(t.Dims) == 0 }

func (t Type) IsScalar() bool { return t.Elem != types.ElemInvalid && !t.Pointer && len(t.Dims) == 0 }

func (t Type) IsArray() bool { return len(t.Dims) > 0 }

func (t Type) PointerTo() Type {
	t.Pointer = true
	return t
}

func (t Type) Deref() Type {
	t.Pointer = false
	return t
}

// Element drops the outermost dimension, keeping the pointer flag.
func (t Type) Element() Type {
	if len(t.Dims) == 0 {
		return t
	}
	t.Dims = t.Dims[1:]
	if len(t.Dims) == 0 {
		t.Dims = nil
	}
	return t
}

func (t Type) Equal(o Type) bool {
	if t.Elem != o.Elem || t.Name != o.Name || t.Pointer != o.Pointer || len(t.Dims) != len(o.Dims) {
		return false
	}
	for i := range t.Dims {
		if t.Dims[i] != o.Dims[i] {
			return false
		}
	}
	return true
}

func (t Type) String() string {
	var sb strings.Builder
	if t.Elem != types.ElemInvalid {
		sb.WriteString(t.Elem.String())
	} else {
		sb.WriteString(t.Name)
	}
	for _, d := range t.Dims {
		sb.WriteByte('[')
		sb.WriteString(strconv.FormatUint(d, 10))
		sb.WriteByte(']')
	}
	if t.Pointer {
		sb.WriteByte('*')
	}
	return sb.String()
}

// ParseType reads the form produced by Type.String.
func ParseType(s string) (Type, bool) {
	var t Type
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "*") {
		t.Pointer = true
		s = s[:len(s)-1]
	}
	base := s
	if i := strings.IndexByte(s, '['); i >= 0 {
		base = s[:i]
		rest := s[i:]
		for rest != "" {
			end := strings.IndexByte(rest, ']')
			if rest[0] != '[' || end < 0 {
				return Type{}, false
			}
			d, err := strconv.ParseUint(rest[1:end], 10, 64)
			if err != nil || d == 0 {
				return Type{}, false
			}
			t.Dims = append(t.Dims, d)
			rest = rest[end+1:]
		}
	}
	if base == "" || !isIdent(base) {
		return Type{}, false
	}
	if e, ok := types.ElementaryByName(base); ok {
		t.Elem = e
	} else {
		t.Name = base
	}
	return t, true
}

// isVarName accepts value names, which may be purely numeric ($0, $12).
func isVarName(s string) bool {
	for _, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}

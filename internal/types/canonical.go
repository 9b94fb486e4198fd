package types

import (
	"strconv"
	"strings"
)

// canonical renders t. Operands must already be interned.
func (s *Set) canonical(t Type) string {
	var sb strings.Builder
	switch t.Category {
	case CategoryElementary:
		sb.WriteString(t.Elem.String())
	case CategoryOperator:
		for i, op := range t.Operands {
			if i > 0 {
				sb.WriteString(t.Op.Separator())
			}
			s.writeRef(&sb, op)
		}
	case CategoryLeaf:
		sb.WriteString(t.Name)
		sb.WriteByte(':')
		s.writeRef(&sb, t.Inner)
	case CategoryDefined:
		sb.WriteString(t.Name)
		sb.WriteString(" { ")
		if s.types[t.Inner].Category == CategoryDefined {
			s.writeDefinedRef(&sb, t.Inner)
		} else {
			sb.WriteString(s.strs[t.Inner])
		}
		sb.WriteString(" }")
	case CategoryGeneric:
		sb.WriteString(t.Name)
	case CategoryWildcard:
		sb.WriteByte('_')
	case CategoryArray:
		s.writeRef(&sb, t.Inner)
		for _, d := range t.Dims {
			sb.WriteByte('[')
			sb.WriteString(strconv.FormatUint(d, 10))
			sb.WriteByte(']')
		}
	}
	return sb.String()
}

// writeRef renders a nested reference: operators get parentheses and defined
// types appear by name (see writeDefinedRef).
func (s *Set) writeRef(sb *strings.Builder, id TypeID) {
	t := s.types[id]
	switch t.Category {
	case CategoryOperator:
		sb.WriteByte('(')
		sb.WriteString(s.strs[id])
		sb.WriteByte(')')
	case CategoryDefined:
		s.writeDefinedRef(sb, id)
	default:
		sb.WriteString(s.strs[id])
	}
}

// writeDefinedRef writes the bare name for the first Defined type of that
// name. A later one with different contents is written in full and
// parenthesized, so operators over it do not collide with the first.
func (s *Set) writeDefinedRef(sb *strings.Builder, id TypeID) {
	t := s.types[id]
	if first, ok := s.defined[t.Name]; !ok || first == id {
		sb.WriteString(t.Name)
		return
	}
	sb.WriteByte('(')
	sb.WriteString(s.strs[id])
	sb.WriteByte(')')
}

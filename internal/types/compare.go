package types

import "fmt"

// CompareMode selects the comparison rules.
type CompareMode uint8

const (
	// ModeIdentical is structural, order-sensitive and checks leaf names.
	ModeIdentical CompareMode = iota
	// ModeImplicitConversion asks whether a may be used where b is expected.
	ModeImplicitConversion
	// ModeGeneric is the arithmetic context: narrowing passes but is flagged.
	ModeGeneric
)

func (m CompareMode) String() string {
	switch m {
	case ModeIdentical:
		return "identical"
	case ModeImplicitConversion:
		return "implicit"
	case ModeGeneric:
		return "generic"
	default:
		return fmt.Sprintf("CompareMode(%d)", m)
	}
}

// ConvFlags describe lossy aspects of a conversion.
type ConvFlags uint8

const (
	FlagSignedToUnsigned ConvFlags = 1 << iota
	FlagLargerToSmaller
)

func (f ConvFlags) Has(flag ConvFlags) bool { return f&flag != 0 }

// CompareCtx collects the side results of one comparison.
type CompareCtx struct {
	Flags ConvFlags
	// Converted is the target type when a value conversion is needed.
	Converted TypeID
	// Common is the unified type of a successful comparison.
	Common TypeID
}

func (c *CompareCtx) Reset() { *c = CompareCtx{} }

// Compare reports whether a relates to b under mode. ctx may be nil.
func Compare(s *Set, a, b TypeID, mode CompareMode, ctx *CompareCtx) bool {
	if ctx == nil {
		ctx = &CompareCtx{}
	}
	if a == b {
		ctx.Common = a
		return true
	}
	if mode == ModeIdentical {
		// interning makes structural identity an id comparison
		return false
	}
	sa, sb := s.Strip(a), s.Strip(b)
	ok := compareStripped(s, sa, sb, mode, ctx)
	if ok {
		ctx.Common = b
		_, elemA := s.ElementaryOf(sa)
		_, elemB := s.ElementaryOf(sb)
		if sa != sb && elemA && elemB {
			ctx.Converted = b
		}
	}
	return ok
}

func compareStripped(s *Set, a, b TypeID, mode CompareMode, ctx *CompareCtx) bool {
	if a == b {
		return true
	}
	ta, okA := s.Lookup(a)
	tb, okB := s.Lookup(b)
	if !okA || !okB {
		return false
	}
	switch tb.Category {
	case CategoryWildcard, CategoryGeneric:
		return true
	}
	switch {
	case ta.Category == CategoryElementary && tb.Category == CategoryElementary:
		return compareElementary(ta.Elem, tb.Elem, mode, ctx)
	case ta.Category == CategoryOperator && tb.Category == CategoryOperator &&
		ta.Op == tb.Op && len(ta.Operands) == len(tb.Operands):
		for i := range ta.Operands {
			if !compareStripped(s, s.Strip(ta.Operands[i]), s.Strip(tb.Operands[i]), mode, ctx) {
				return false
			}
		}
		return true
	case ta.Category == CategoryArray && tb.Category == CategoryArray:
		if len(ta.Dims) != len(tb.Dims) {
			return false
		}
		for i := range ta.Dims {
			if ta.Dims[i] != tb.Dims[i] {
				return false
			}
		}
		return compareStripped(s, s.Strip(ta.Inner), s.Strip(tb.Inner), mode, ctx)
	case tb.IsSum():
		// a value of one variant is usable where the sum is expected
		for _, op := range tb.Operands {
			var trial CompareCtx
			if compareStripped(s, a, s.Strip(op), ModeImplicitConversion, &trial) {
				ctx.Flags |= trial.Flags
				return true
			}
		}
		return false
	default:
		return false
	}
}

func compareElementary(a, b Elementary, mode CompareMode, ctx *CompareCtx) bool {
	if a == b {
		return true
	}
	switch {
	case a.IsInteger() && b.IsInteger():
		switch {
		case a.IsSigned() && !b.IsSigned():
			ctx.Flags |= FlagSignedToUnsigned
			if a.Bits() > b.Bits() {
				ctx.Flags |= FlagLargerToSmaller
			}
			return mode == ModeGeneric
		case !a.IsSigned() && b.IsSigned():
			if b.Bits() > a.Bits() {
				return true
			}
			ctx.Flags |= FlagLargerToSmaller
			return mode == ModeGeneric
		default:
			if b.Bits() >= a.Bits() {
				return true
			}
			ctx.Flags |= FlagLargerToSmaller
			return mode == ModeGeneric
		}
	case a.IsFloat() && b.IsFloat():
		if b.Bits() >= a.Bits() {
			return true
		}
		ctx.Flags |= FlagLargerToSmaller
		return mode == ModeGeneric
	case a.IsNumeric() && b.IsNumeric():
		return mode == ModeGeneric
	default:
		return false
	}
}

// ConvertibleMember scans members in order and returns the first one t
// implicitly converts to.
func ConvertibleMember(s *Set, members []TypeID, t TypeID) (TypeID, bool) {
	for _, m := range members {
		if Compare(s, t, m, ModeImplicitConversion, nil) {
			return m, true
		}
	}
	return NoTypeID, false
}

// ConvertibleMember returns the first operand of the sum type that t
// converts to, comparing against operands with leaves unwrapped.
func (s *Set) ConvertibleMember(t, sum TypeID) (TypeID, bool) {
	for _, op := range s.operands(sum) {
		if Compare(s, t, s.Unleaf(op), ModeImplicitConversion, nil) {
			return op, true
		}
	}
	return NoTypeID, false
}

// VariantIndex is the position of the first sum operand t converts to.
func (s *Set) VariantIndex(t, sum TypeID) (int, bool) {
	for i, op := range s.operands(sum) {
		if Compare(s, t, s.Unleaf(op), ModeImplicitConversion, nil) {
			return i, true
		}
	}
	return -1, false
}

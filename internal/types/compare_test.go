package types

import "testing"

func TestConversionAsymmetry(t *testing.T) {
	s := NewSet()
	u8, i32 := s.Elementary(ElemU8), s.Elementary(ElemI32)

	var ctx CompareCtx
	if !Compare(s, u8, i32, ModeImplicitConversion, &ctx) || ctx.Flags != 0 {
		t.Fatalf("u8 -> i32 should widen cleanly, flags=%b", ctx.Flags)
	}
	if ctx.Converted != i32 {
		t.Fatalf("Converted = %d, want i32", ctx.Converted)
	}

	ctx.Reset()
	if Compare(s, i32, u8, ModeImplicitConversion, &ctx) {
		t.Fatalf("i32 -> u8 must be rejected")
	}
	if !ctx.Flags.Has(FlagSignedToUnsigned) || !ctx.Flags.Has(FlagLargerToSmaller) {
		t.Fatalf("flags = %b", ctx.Flags)
	}

	ctx.Reset()
	if !Compare(s, i32, u8, ModeGeneric, &ctx) {
		t.Fatalf("generic mode permits narrowing")
	}
}

func TestElementaryRules(t *testing.T) {
	s := NewSet()
	e := s.Elementary
	cases := []struct {
		name  string
		a, b  TypeID
		mode  CompareMode
		ok    bool
		flags ConvFlags
	}{
		{"u16 to i16 same width", e(ElemU16), e(ElemI16), ModeImplicitConversion, false, FlagLargerToSmaller},
		{"u16 to i32", e(ElemU16), e(ElemI32), ModeImplicitConversion, true, 0},
		{"i8 to i64", e(ElemI8), e(ElemI64), ModeImplicitConversion, true, 0},
		{"i64 to i16", e(ElemI64), e(ElemI16), ModeImplicitConversion, false, FlagLargerToSmaller},
		{"int is 64 bits", e(ElemInt), e(ElemI64), ModeImplicitConversion, true, 0},
		{"uint to u32", e(ElemUint), e(ElemU32), ModeGeneric, true, FlagLargerToSmaller},
		{"f32 to f64", e(ElemF32), e(ElemF64), ModeImplicitConversion, true, 0},
		{"f64 to f32", e(ElemF64), e(ElemF32), ModeImplicitConversion, false, FlagLargerToSmaller},
		{"int to float implicit", e(ElemI32), e(ElemF64), ModeImplicitConversion, false, 0},
		{"int to float generic", e(ElemI32), e(ElemF64), ModeGeneric, true, 0},
		{"string to bool", e(ElemString), e(ElemBool), ModeGeneric, false, 0},
		{"anything to wildcard", e(ElemString), s.Wildcard(), ModeImplicitConversion, true, 0},
	}
	for _, tc := range cases {
		var ctx CompareCtx
		ok := Compare(s, tc.a, tc.b, tc.mode, &ctx)
		if ok != tc.ok || ctx.Flags != tc.flags {
			t.Errorf("%s: ok=%v flags=%b, want ok=%v flags=%b", tc.name, ok, ctx.Flags, tc.ok, tc.flags)
		}
	}
}

func TestWrappersTransparentOutsideIdentical(t *testing.T) {
	s := NewSet()
	point := pointType(t, s)
	f32 := s.Elementary(ElemF32)
	anon := must(t)(s.Operator(OpProduct, must(t)(s.Leaf("a", f32)), must(t)(s.Leaf("b", f32))))

	if Compare(s, point, anon, ModeIdentical, nil) {
		t.Fatalf("different leaf names are not identical")
	}
	var ctx CompareCtx
	if !Compare(s, point, anon, ModeImplicitConversion, &ctx) {
		t.Fatalf("structurally equal types should convert")
	}
	if ctx.Converted != NoTypeID {
		t.Fatalf("composite conversion must not request a value convert")
	}
}

func TestConvertibleMember(t *testing.T) {
	s := NewSet()
	i64, str := s.Elementary(ElemI64), s.Elementary(ElemString)
	sum := must(t)(s.Operator(OpSum, str, must(t)(s.Leaf("n", i64))))

	m, ok := s.ConvertibleMember(s.Elementary(ElemI16), sum)
	if !ok || s.Unleaf(m) != i64 {
		t.Fatalf("ConvertibleMember = %s, %v", s.String(m), ok)
	}
	if i, ok := s.VariantIndex(str, sum); !ok || i != 0 {
		t.Fatalf("VariantIndex(string) = %d, %v", i, ok)
	}
	if _, ok := ConvertibleMember(s, []TypeID{str}, s.Elementary(ElemBool)); ok {
		t.Fatalf("bool converts to nothing here")
	}
	if !Compare(s, s.Elementary(ElemI8), sum, ModeImplicitConversion, nil) {
		t.Fatalf("a variant value should be usable as the sum")
	}
}

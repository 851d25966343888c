package bignum

import "testing"

// TestAddSub checks addition and subtraction across sign combinations,
// the same cases the teacher hand-verifies for its own arithmetic helpers.
func TestAddSub(t *testing.T) {
	cases := []struct {
		a, b int64
		want int64
	}{
		{1, 2, 3},
		{-1, 2, 1},
		{1, -2, -1},
		{-5, -7, -12},
		{0, 0, 0},
		{1 << 40, 1 << 40, 1 << 41},
	}
	for _, c := range cases {
		got := FromInt64(c.a).Add(FromInt64(c.b))
		if v, ok := got.Int64(); !ok || v != c.want {
			t.Errorf("Add(%d,%d) = %s, want %d", c.a, c.b, got.String(), c.want)
		}
	}
}

// TestMultiplyCrossesKaratsuba exercises both the schoolbook path and the
// Karatsuba path (operands wider than karatsubaCrossover digits) against
// values whose product is known exactly.
func TestMultiplyCrossesKaratsuba(t *testing.T) {
	a, _ := FromDecimal("123456789")
	b, _ := FromDecimal("987654321")
	got := a.Multiply(b)
	if got.String() != "121932631112635269" {
		t.Errorf("small multiply = %s, want 121932631112635269", got.String())
	}

	// Square an operand wide enough to force the Karatsuba branch, and
	// verify against (1+S)^2 = 1 + 2S + S^2, where S and S^2 are built
	// only from multiplications by a narrow operand (schoolbook path).
	wide := FromInt64(1)
	shiftDigit := FromInt64(1)
	for i := 0; i < karatsubaCrossover+4; i++ {
		shiftDigit = shiftDigit.Multiply(FromInt64(1 << 62))
	}
	shiftSquared := FromInt64(1)
	for i := 0; i < 2*(karatsubaCrossover+4); i++ {
		shiftSquared = shiftSquared.Multiply(FromInt64(1 << 62))
	}
	wide = wide.Add(shiftDigit)
	product := wide.Multiply(wide)
	want := FromInt64(1).Add(shiftDigit).Add(shiftDigit).Add(shiftSquared)
	if product.String() != want.String() {
		t.Errorf("karatsuba path mismatch: %s != %s", product.String(), want.String())
	}
}

func TestFromBased(t *testing.T) {
	v, err := FromBased("ff", 16)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if n, ok := v.Int64(); !ok || n != 255 {
		t.Errorf("16#ff# = %s, want 255", v.String())
	}

	if _, err := FromBased("1", 1); err == nil {
		t.Error("expected error for base 1")
	}
	if _, err := FromBased("1", 17); err == nil {
		t.Error("expected error for base 17")
	}
}

func TestInt64Overflow(t *testing.T) {
	huge, _ := FromDecimal("99999999999999999999999999999999")
	if _, ok := huge.Int64(); ok {
		t.Error("expected huge literal to not fit in int64")
	}
}

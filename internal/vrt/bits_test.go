package vrt

import "testing"

func TestFixedPointRoundTrip(t *testing.T) {
	cases := []struct {
		value        float64
		width, radix int
		signed       bool
	}{
		{100e6, 64, 20, true},
		{-12.5, 32, 7, true},
		{0, 16, 7, true},
		{3.0, 32, 6, false},
	}
	for _, c := range cases {
		var bits uint64
		var err error
		if c.signed {
			bits, err = FromFloatSigned(c.value, c.width, c.radix)
		} else {
			bits, err = FromFloatUnsigned(c.value, c.width, c.radix)
		}
		if err != nil {
			t.Fatalf("FromFloat(%v): %v", c.value, err)
		}
		var got float64
		if c.signed {
			got = ToFloatSigned(bits, c.width, c.radix)
		} else {
			got = ToFloatUnsigned(bits, c.radix)
		}
		tol := 1.0 / float64(int64(1)<<uint(c.radix))
		if diff := got - c.value; diff > tol || diff < -tol {
			t.Errorf("value %v: roundtrip gave %v (tolerance %v)", c.value, got, tol)
		}
	}
}

func TestFromFloatSignedOverflow(t *testing.T) {
	if _, err := FromFloatSigned(1e30, 32, 7); err == nil {
		t.Fatal("expected FixedPointOverflow, got nil")
	} else if verr, ok := err.(*Error); !ok || verr.Kind != KindFixedPointOverflow {
		t.Fatalf("expected FixedPointOverflow, got %v", err)
	}
}

func TestFromFloatUnsignedRejectsNegative(t *testing.T) {
	if _, err := FromFloatUnsigned(-1, 32, 0); err == nil {
		t.Fatal("expected overflow error for negative value in unsigned field")
	}
}

func TestSetBitRange32RejectsOversizedValue(t *testing.T) {
	if _, err := SetBitRange32(0, 0, 3, 16); err == nil {
		t.Fatal("expected error for value exceeding 4-bit range")
	}
}

func TestBitRange32RoundTrip(t *testing.T) {
	word, err := SetBitRange32(0, 4, 11, 0xAB)
	if err != nil {
		t.Fatal(err)
	}
	if got := BitRange32(word, 4, 11); got != 0xAB {
		t.Fatalf("got %#x, want 0xAB", got)
	}
}

// internal/fixedpoint/fixedpoint_test.go
package fixedpoint

import (
	"math"
	"testing"
)

func TestDecode_KnownWords(t *testing.T) {
	cases := []struct {
		w    uint32
		want float64
	}{
		{0x00000000, 0.0},
		{0x00008000, 1.0},
		{0xFFFF8000, -1.0},
		{0x00004000, 0.5},
		{0x00014000, 2.5},
		{0xFFFFC000, -0.5},
		{0x00000001, 1.0 / Scale},
		{0x7FFFFFFF, Max},
		{0x80000000, Min},
	}

	for _, c := range cases {
		if got := Decode(c.w); got != c.want {
			t.Fatalf("Decode(0x%08X): got=%v want=%v", c.w, got, c.want)
		}
	}
}

func TestDecode_MatchesTwosComplementScaling(t *testing.T) {
	words := []uint32{0x12345678, 0xDEADBEEF, 0x80008000, 0x0000FFFF, 0xFFFF0001}
	for _, w := range words {
		want := float64(int32(w)) / Scale
		if got := Decode(w); got != want {
			t.Fatalf("Decode(0x%08X): got=%v want=%v", w, got, want)
		}
	}
}

func TestEncode_RoundTripsRepresentableValues(t *testing.T) {
	values := []float64{0, 1, -1, 0.5, 2.5, -3.25, 1234.000030517578125, -65536}
	for _, v := range values {
		if got := Decode(Encode(v)); got != v {
			t.Fatalf("Decode(Encode(%v)) = %v", v, got)
		}
	}
}

func TestEncode_Saturates(t *testing.T) {
	if got := Encode(1e9); got != 0x7FFFFFFF {
		t.Fatalf("positive saturation: got=0x%08X", got)
	}
	if got := Encode(-1e9); got != 0x80000000 {
		t.Fatalf("negative saturation: got=0x%08X", got)
	}
	if got := Encode(math.NaN()); got != 0 {
		t.Fatalf("NaN: got=0x%08X", got)
	}
}

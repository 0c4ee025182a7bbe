package modem

import (
	"math"
	"testing"
)

func TestWrapPhaseStaysInRange(t *testing.T) {
	cases := []float64{0, math.Pi, -math.Pi, 2 * math.Pi, -2 * math.Pi, 3 * math.Pi, 1.5 * math.Pi}
	for _, a := range cases {
		w := wrapPhase(a)
		if w > math.Pi || w <= -math.Pi {
			t.Fatalf("wrapPhase(%v) = %v, out of (-pi, pi]", a, w)
		}
	}
}

func TestSliceBitThreshold(t *testing.T) {
	if sliceBit(0) != 0 {
		t.Fatal("sliceBit(0) should be 0")
	}
	if sliceBit(math.Pi) != 1 {
		t.Fatal("sliceBit(pi) should be 1")
	}
	if sliceBit(math.Pi/2 - 0.01) != 0 {
		t.Fatal("sliceBit just under pi/2 should be 0")
	}
	if sliceBit(math.Pi/2+0.01) != 1 {
		t.Fatal("sliceBit just over pi/2 should be 1")
	}
}

func TestBitComplexAndDeltaPhaseRoundTrip(t *testing.T) {
	ref := complex(1.0, 0.0)
	for _, bit := range []byte{0, 1} {
		curr := bitComplex(bit)
		delta := deltaPhase(curr, ref)
		if got := sliceBit(delta); got != bit {
			t.Fatalf("bit %d: round trip through bitComplex/deltaPhase/sliceBit gave %d", bit, got)
		}
	}
}

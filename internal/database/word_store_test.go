package database

import (
	"math"
	"testing"
)

func TestLegacyScaleRoundTrip(t *testing.T) {
	tests := []struct {
		internal float64
		stored   int
	}{
		{0.0, 0},
		{0.42, 42},
		{0.47, 47},
		{0.555, 56},
		{1.0, 100},
	}

	for _, tt := range tests {
		if got := toLegacyScale(tt.internal); got != tt.stored {
			t.Errorf("toLegacyScale(%f) = %d, want %d", tt.internal, got, tt.stored)
		}
	}

	// Any stored value survives a round trip exactly.
	for stored := 0; stored <= 100; stored++ {
		back := toLegacyScale(fromLegacyScale(stored))
		if back != stored {
			t.Errorf("round trip %d -> %f -> %d", stored, fromLegacyScale(stored), back)
		}
	}
}

func TestFromLegacyScaleBounds(t *testing.T) {
	if got := fromLegacyScale(100); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("fromLegacyScale(100) = %f, want 1.0", got)
	}
	if got := fromLegacyScale(0); got != 0 {
		t.Errorf("fromLegacyScale(0) = %f, want 0", got)
	}
}

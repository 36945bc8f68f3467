package tier

import (
	"testing"
	"time"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		cents    int64
		label    string
		pin      time.Duration
		priority int
	}{
		{2500, "VIP", 1200 * time.Second, 5},
		{2501, "VIP", 1200 * time.Second, 5},
		{2499, "Premium", 600 * time.Second, 4},
		{1000, "Premium", 600 * time.Second, 4},
		{999, "Highlight", 300 * time.Second, 3},
		{500, "Highlight", 300 * time.Second, 3},
		{499, "Support", 120 * time.Second, 2},
		{200, "Support", 120 * time.Second, 2},
		{199, "Support", 60 * time.Second, 1},
		{1, "Support", 60 * time.Second, 1},
		{0, "", 0, 0},
		{-50, "", 0, 0},
	}
	for _, c := range cases {
		got := Classify(c.cents)
		if got.Label != c.label || got.PinDuration != c.pin || got.VisualPriority != c.priority {
			t.Fatalf("Classify(%d) = %+v, want {%s %s %d}", c.cents, got, c.label, c.pin, c.priority)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	// higher amounts never classify into a lower visual priority
	prev := Classify(0).VisualPriority
	for cents := int64(1); cents <= 3000; cents++ {
		p := Classify(cents).VisualPriority
		if p < prev {
			t.Fatalf("priority decreased from %d to %d at %d cents", prev, p, cents)
		}
		prev = p
	}
}

func TestClassifyPinGrowsWithTier(t *testing.T) {
	amounts := []int64{1, 200, 500, 1000, 2500}
	var last time.Duration = -1
	for _, a := range amounts {
		d := Classify(a).PinDuration
		if d <= last {
			t.Fatalf("pin duration did not grow at %d cents: %s <= %s", a, d, last)
		}
		last = d
	}
}

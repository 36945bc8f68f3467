// Package tier maps paid-interaction amounts to discrete visual tiers.
package tier

import "time"

// Tier is the classification of a paid amount: a label, how long a paid chat
// message stays pinned, and its visual priority (higher sorts first).
type Tier struct {
	Label          string
	PinDuration    time.Duration
	VisualPriority int
}

// None is the classification of unpaid interactions.
var None = Tier{}

// The canonical threshold table, highest first; an amount on a boundary
// classifies into the higher tier.
var table = []struct {
	minCents int64
	t        Tier
}{
	{2500, Tier{Label: "VIP", PinDuration: 1200 * time.Second, VisualPriority: 5}},
	{1000, Tier{Label: "Premium", PinDuration: 600 * time.Second, VisualPriority: 4}},
	{500, Tier{Label: "Highlight", PinDuration: 300 * time.Second, VisualPriority: 3}},
	{200, Tier{Label: "Support", PinDuration: 120 * time.Second, VisualPriority: 2}},
	{1, Tier{Label: "Support", PinDuration: 60 * time.Second, VisualPriority: 1}},
}

// Classify returns the tier for an amount in cents. Total and deterministic:
// every non-negative amount maps to exactly one tier; zero and negative
// amounts map to None.
func Classify(amountCents int64) Tier {
	for _, row := range table {
		if amountCents >= row.minCents {
			return row.t
		}
	}
	return None
}

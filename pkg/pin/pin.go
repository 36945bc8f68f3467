// Package pin decides which paid messages are currently surfaced above the
// regular stream. Expiry is purely presentational: expired interactions stay
// in history, they simply stop being pinned.
package pin

import (
	"sort"
	"time"

	"streamflow/pkg/models"
	"streamflow/pkg/tier"
)

// IsPinned reports whether the interaction is still inside its pin window at
// the given instant. The boundary is exclusive: a message whose window ends
// at t is no longer pinned at t.
func IsPinned(i models.Interaction, now time.Time) bool {
	return i.PinnedUntil != nil && now.Before(*i.PinnedUntil)
}

// Select returns the interactions pinned at now, ordered by visual priority
// (highest first) and then by recency. Evaluated at render time; callers
// re-run it on a periodic tick to expire pins visually.
func Select(interactions []models.Interaction, now time.Time) []models.Interaction {
	var out []models.Interaction
	for _, i := range interactions {
		if IsPinned(i, now) {
			out = append(out, i)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		pa := tier.Classify(out[a].AmountCents).VisualPriority
		pb := tier.Classify(out[b].AmountCents).VisualPriority
		if pa != pb {
			return pa > pb
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

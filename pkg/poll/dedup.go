package poll

import "streamflow/pkg/models"

// Dedup suppresses redundant delivery of the same interaction. The realtime
// transport is at-least-once, so subscribers wrap their aggregator with a
// Dedup keyed by interaction ID.
type Dedup struct {
	seen map[string]struct{}
}

// NewDedup returns an empty guard.
func NewDedup() *Dedup {
	return &Dedup{seen: make(map[string]struct{})}
}

// Seen records the interaction ID and reports whether it was already seen.
func (d *Dedup) Seen(id string) bool {
	if _, ok := d.seen[id]; ok {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

// ApplyOnce applies the interaction to the poll unless its ID was delivered
// before, in which case the poll is returned unchanged. Interactions that do
// not target p are ignored without being recorded, so one guard can be shared
// across every poll on a stream.
func (d *Dedup) ApplyOnce(p models.Poll, ix models.Interaction) (models.Poll, error) {
	if ix.Kind != models.KindPollVote || ix.PollID != p.ID {
		return p, nil
	}
	if d.Seen(ix.ID) {
		return p, nil
	}
	return Apply(p, ix)
}

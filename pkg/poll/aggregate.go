// Package poll recomputes per-option vote counts and revenue totals from the
// interaction event stream. Every client of the stream channel re-derives
// aggregates independently; nothing here trusts a server-pushed total.
package poll

import (
	"errors"

	"streamflow/pkg/models"
)

// ErrOptionOutOfRange is returned when a vote names an option index the poll
// does not have.
var ErrOptionOutOfRange = errors.New("option index out of range")

// ApplyVote returns a copy of p with one vote applied: the option's vote
// count incremented by one and its revenue incremented by amountCents.
// Pure transform; the input poll is not mutated. ApplyVote does not suppress
// duplicates; redundant delivery must be fenced with Dedup.
func ApplyVote(p models.Poll, optionIndex int, amountCents int64) (models.Poll, error) {
	if optionIndex < 0 || optionIndex >= len(p.Options) {
		return p, ErrOptionOutOfRange
	}
	opts := make([]models.PollOption, len(p.Options))
	copy(opts, p.Options)
	opts[optionIndex].Votes++
	opts[optionIndex].RevenueCents += amountCents
	p.Options = opts
	return p, nil
}

// Apply folds a poll_vote interaction into the poll. Non-vote interactions
// and votes for other polls pass through unchanged.
func Apply(p models.Poll, ix models.Interaction) (models.Poll, error) {
	if ix.Kind != models.KindPollVote || ix.OptionIndex == nil || ix.PollID != p.ID {
		return p, nil
	}
	return ApplyVote(p, *ix.OptionIndex, ix.AmountCents)
}

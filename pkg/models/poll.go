package models

import "time"

// PollOption holds the per-option counters. Votes and RevenueCents are
// mutated only by applying poll_vote interactions in arrival order and are
// monotonically non-decreasing.
type PollOption struct {
	Text         string `json:"text"`
	Votes        int64  `json:"votes"`
	RevenueCents int64  `json:"revenue_cents"`
}

// Poll is a vote-collection entity scoped to a stream. Totals are always
// derived from the per-option counters, never stored independently.
type Poll struct {
	ID              string       `json:"id"`
	StreamID        string       `json:"stream_id"`
	Question        string       `json:"question"`
	CreatorID       string       `json:"creator_id"`
	Options         []PollOption `json:"options"`
	MinPaymentCents int64        `json:"min_payment_cents"`
	EndsAt          *time.Time   `json:"ends_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// TotalVotes is the sum of per-option vote counts.
func (p Poll) TotalVotes() int64 {
	var n int64
	for _, o := range p.Options {
		n += o.Votes
	}
	return n
}

// TotalRevenueCents is the sum of per-option revenue.
func (p Poll) TotalRevenueCents() int64 {
	var n int64
	for _, o := range p.Options {
		n += o.RevenueCents
	}
	return n
}

// Closed reports whether the poll is terminal at the given instant.
func (p Poll) Closed(now time.Time) bool {
	return p.EndsAt != nil && !now.Before(*p.EndsAt)
}

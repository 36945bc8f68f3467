package models

import "time"

// Interaction kinds.
const (
	KindChat     = "chat"
	KindPollVote = "poll_vote"
)

// Interaction is one priced viewer action: a chat message or a poll vote.
// Interactions are immutable once created and appended in commit order.
type Interaction struct {
	ID       string `json:"id"`
	StreamID string `json:"stream_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Kind     string `json:"kind"`
	// Content carries the chat text; empty for poll votes.
	Content string `json:"content,omitempty"`
	// PollID names the voted poll; empty for chat messages.
	PollID string `json:"poll_id,omitempty"`
	// OptionIndex is the voted option; nil for chat messages.
	OptionIndex *int  `json:"option_index,omitempty"`
	AmountCents int64 `json:"amount_cents"`
	// Tier label derived from AmountCents at creation time.
	Tier string `json:"tier,omitempty"`
	// PinnedUntil is set only for paid chat; never recomputed after creation.
	PinnedUntil *time.Time `json:"pinned_until,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsPaid reports whether the interaction carried money.
func (i Interaction) IsPaid() bool { return i.AmountCents > 0 }

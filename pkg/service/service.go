// Package service turns a viewer's monetary action into a durable, ordered,
// broadcast interaction with tier rules applied at creation time.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"

	"streamflow/pkg/logger"
	"streamflow/pkg/models"
	"streamflow/pkg/money"
	"streamflow/pkg/realtime"
	"streamflow/pkg/store"
	"streamflow/pkg/telemetry"
	"streamflow/pkg/tier"
	"streamflow/pkg/validation"
)

// Limits are the submission-side knobs, taken from config at startup.
type Limits struct {
	// MinPaidChatCents is the platform floor for paid chat messages.
	MinPaidChatCents int64
	// SubmitTimeout bounds one submit end to end.
	SubmitTimeout time.Duration
}

// Submitter validates, persists and broadcasts interactions. Poll aggregates
// are derived by subscribers from the event stream and are never written
// here.
type Submitter struct {
	hub    *realtime.Hub
	limits Limits
	now    func() time.Time

	lockMu    sync.Mutex
	pollLocks map[string]*sync.Mutex
}

// NewSubmitter wires the submitter to the hub. limits zero values fall back
// to the platform defaults.
func NewSubmitter(hub *realtime.Hub, limits Limits) *Submitter {
	if limits.MinPaidChatCents <= 0 {
		limits.MinPaidChatCents = 100
	}
	if limits.SubmitTimeout <= 0 {
		limits.SubmitTimeout = 10 * time.Second
	}
	return &Submitter{
		hub:       hub,
		limits:    limits,
		now:       func() time.Time { return time.Now().UTC() },
		pollLocks: make(map[string]*sync.Mutex),
	}
}

// ChatSubmission is one chat message, optionally paid. Amount is the raw
// user-entered value ("25.00"); empty means free.
type ChatSubmission struct {
	StreamID string
	UserID   string
	Username string
	Content  string
	Amount   string
}

// VoteSubmission is one paid poll vote.
type VoteSubmission struct {
	StreamID    string
	PollID      string
	UserID      string
	Username    string
	OptionIndex int
	Amount      string
}

// SubmitChat validates and persists a chat interaction, then fans it out on
// the stream channel. Paid messages must clear the platform floor and get a
// pin window from the tier table; free messages pass with amount zero.
func (s *Submitter) SubmitChat(ctx context.Context, sub ChatSubmission) (models.Interaction, error) {
	var amountCents int64
	if sub.Amount != "" {
		var err error
		amountCents, err = money.Normalize(sub.Amount, 0)
		if err != nil {
			return models.Interaction{}, err
		}
		if amountCents > 0 {
			if err := money.CheckMinimum(amountCents, s.limits.MinPaidChatCents); err != nil {
				return models.Interaction{}, err
			}
		}
	}

	now := s.now()
	ix := models.Interaction{
		ID:          uuid.NewString(),
		StreamID:    sub.StreamID,
		UserID:      sub.UserID,
		Username:    sub.Username,
		Kind:        models.KindChat,
		Content:     sub.Content,
		AmountCents: amountCents,
		CreatedAt:   now,
	}
	if amountCents > 0 {
		t := tier.Classify(amountCents)
		ix.Tier = t.Label
		until := now.Add(t.PinDuration)
		ix.PinnedUntil = &until
	}
	if err := validation.ValidateInteraction(ix); err != nil {
		return models.Interaction{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return s.commit(ctx, ix)
}

// SubmitVote validates a vote against current poll state and persists it.
// The poll's stored counters are advanced as a convenience for backfill
// reads; live consumers re-derive aggregates from the event stream.
func (s *Submitter) SubmitVote(ctx context.Context, sub VoteSubmission) (models.Interaction, error) {
	p, err := store.GetPoll(sub.StreamID, sub.PollID)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return models.Interaction{}, ErrPollNotFound
		}
		return models.Interaction{}, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	now := s.now()
	if p.Closed(now) {
		return models.Interaction{}, ErrPollClosed
	}
	if sub.OptionIndex < 0 || sub.OptionIndex >= len(p.Options) {
		return models.Interaction{}, ErrInvalidOption
	}
	amountCents, err := money.Normalize(sub.Amount, p.MinPaymentCents)
	if err != nil {
		return models.Interaction{}, err
	}

	idx := sub.OptionIndex
	ix := models.Interaction{
		ID:          uuid.NewString(),
		StreamID:    sub.StreamID,
		UserID:      sub.UserID,
		Username:    sub.Username,
		Kind:        models.KindPollVote,
		PollID:      p.ID,
		OptionIndex: &idx,
		AmountCents: amountCents,
		Tier:        tier.Classify(amountCents).Label,
		CreatedAt:   now,
	}
	if err := validation.ValidateInteraction(ix); err != nil {
		return models.Interaction{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	out, err := s.commit(ctx, ix)
	if err != nil {
		return out, err
	}
	// advance the stored counters for backfill; failure here does not fail
	// the vote, since aggregates are re-derivable from the event stream
	s.advancePollCounters(sub.StreamID, p.ID, idx, amountCents)
	return out, nil
}

// advancePollCounters re-reads the poll and writes the incremented counters
// under a per-poll lock. Concurrent votes on the same poll would otherwise
// interleave the read and write and drop increments.
func (s *Submitter) advancePollCounters(streamID, pollID string, idx int, amountCents int64) {
	mu := s.pollLock(pollID)
	mu.Lock()
	defer mu.Unlock()

	p, err := store.GetPoll(streamID, pollID)
	if err != nil {
		logger.Warn("poll_counter_update_failed", "poll", pollID, "error", err)
		return
	}
	if idx < 0 || idx >= len(p.Options) {
		return
	}
	p.Options[idx].Votes++
	p.Options[idx].RevenueCents += amountCents
	if err := store.SavePoll(p); err != nil {
		logger.Warn("poll_counter_update_failed", "poll", pollID, "error", err)
	}
}

func (s *Submitter) pollLock(pollID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu, ok := s.pollLocks[pollID]
	if !ok {
		mu = &sync.Mutex{}
		s.pollLocks[pollID] = mu
	}
	return mu
}

// CreatePoll persists a new poll for a stream.
func (s *Submitter) CreatePoll(ctx context.Context, p models.Poll) (models.Poll, error) {
	if p.Question == "" || len(p.Options) < 2 {
		return models.Poll{}, fmt.Errorf("%w: poll needs a question and at least two options", ErrInvalidOption)
	}
	if p.MinPaymentCents < 0 {
		return models.Poll{}, ErrInvalidAmount
	}
	p.ID = uuid.NewString()
	p.CreatedAt = s.now()
	for i := range p.Options {
		p.Options[i].Votes = 0
		p.Options[i].RevenueCents = 0
	}
	if err := s.within(ctx, func() error { return store.SavePoll(p) }); err != nil {
		return models.Poll{}, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	logger.Info("poll_created", "stream", p.StreamID, "poll", p.ID, "options", len(p.Options))
	return p, nil
}

// commit persists the interaction within the submit timeout and broadcasts
// it. The broadcast happens only after the row is durable.
func (s *Submitter) commit(ctx context.Context, ix models.Interaction) (models.Interaction, error) {
	if err := s.within(ctx, func() error { return store.SaveInteraction(ix) }); err != nil {
		return models.Interaction{}, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	s.hub.PublishInteraction(ix)
	telemetry.ObserveInteraction(ix.Kind, ix.Tier, ix.AmountCents)
	return ix, nil
}

// within runs fn under the configured submit deadline. The store call is not
// cancellable mid-write; on timeout the caller gets an error while the write
// finishes or fails in the background.
func (s *Submitter) within(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, s.limits.SubmitTimeout)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

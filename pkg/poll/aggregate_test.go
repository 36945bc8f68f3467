package poll

import (
	"errors"
	"testing"

	"streamflow/pkg/models"
)

func newPoll() models.Poll {
	return models.Poll{
		ID:       "p1",
		StreamID: "s1",
		Question: "best entrance song?",
		Options: []models.PollOption{
			{Text: "a"},
			{Text: "b"},
			{Text: "c"},
		},
	}
}

func voteIx(id string, option int, cents int64) models.Interaction {
	return models.Interaction{
		ID:          id,
		StreamID:    "s1",
		UserID:      "u1",
		Kind:        models.KindPollVote,
		PollID:      "p1",
		OptionIndex: &option,
		AmountCents: cents,
	}
}

func TestApplyVote(t *testing.T) {
	p := newPoll()
	got, err := ApplyVote(p, 1, 250)
	if err != nil {
		t.Fatalf("ApplyVote: %v", err)
	}
	if got.Options[1].Votes != 1 || got.Options[1].RevenueCents != 250 {
		t.Fatalf("option 1 = %+v, want 1 vote / 250 cents", got.Options[1])
	}
	// input poll is not mutated
	if p.Options[1].Votes != 0 || p.Options[1].RevenueCents != 0 {
		t.Fatalf("input poll mutated: %+v", p.Options[1])
	}
}

func TestApplyVoteOutOfRange(t *testing.T) {
	p := newPoll()
	if _, err := ApplyVote(p, 3, 100); !errors.Is(err, ErrOptionOutOfRange) {
		t.Fatalf("expected ErrOptionOutOfRange, got %v", err)
	}
	if _, err := ApplyVote(p, -1, 100); !errors.Is(err, ErrOptionOutOfRange) {
		t.Fatalf("expected ErrOptionOutOfRange, got %v", err)
	}
}

func TestApplyPassesThroughNonVotes(t *testing.T) {
	p := newPoll()
	chat := models.Interaction{ID: "c1", StreamID: "s1", Kind: models.KindChat, Content: "hi"}
	got, err := Apply(p, chat)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.TotalVotes() != 0 {
		t.Fatalf("chat must not change vote totals, got %d", got.TotalVotes())
	}
}

func TestAggregateInvariant(t *testing.T) {
	// total votes equals applied interactions; revenue equals sum of amounts
	p := newPoll()
	votes := []models.Interaction{
		voteIx("v1", 0, 100),
		voteIx("v2", 1, 250),
		voteIx("v3", 1, 500),
		voteIx("v4", 2, 100),
	}
	var err error
	for _, v := range votes {
		p, err = Apply(p, v)
		if err != nil {
			t.Fatalf("Apply(%s): %v", v.ID, err)
		}
	}
	if p.TotalVotes() != 4 {
		t.Fatalf("TotalVotes = %d, want 4", p.TotalVotes())
	}
	if p.TotalRevenueCents() != 950 {
		t.Fatalf("TotalRevenueCents = %d, want 950", p.TotalRevenueCents())
	}
}

func TestApplySkipsVotesForOtherPolls(t *testing.T) {
	// two concurrent polls on one stream: a vote carries its poll ID and must
	// only move that poll's counters
	a := newPoll()
	b := newPoll()
	b.ID = "p2"

	v := voteIx("v1", 0, 200)
	v.PollID = "p2"

	d := NewDedup()
	var err error
	a, err = d.ApplyOnce(a, v)
	if err != nil {
		t.Fatalf("ApplyOnce(a): %v", err)
	}
	b, err = d.ApplyOnce(b, v)
	if err != nil {
		t.Fatalf("ApplyOnce(b): %v", err)
	}
	if a.TotalVotes() != 0 || a.TotalRevenueCents() != 0 {
		t.Fatalf("vote for p2 credited to p1: %+v", a.Options)
	}
	if b.Options[0].Votes != 1 || b.Options[0].RevenueCents != 200 {
		t.Fatalf("vote for p2 not counted on p2: %+v", b.Options[0])
	}

	// plain Apply skips foreign votes too
	a, err = Apply(a, v)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if a.TotalVotes() != 0 {
		t.Fatalf("Apply credited a foreign vote: %+v", a.Options)
	}
}

func TestDedupApplyOnce(t *testing.T) {
	// at-least-once delivery: the same interaction may arrive twice, but must
	// count once
	p := newPoll()
	d := NewDedup()
	v := voteIx("v1", 0, 300)

	var err error
	for i := 0; i < 3; i++ {
		p, err = d.ApplyOnce(p, v)
		if err != nil {
			t.Fatalf("ApplyOnce: %v", err)
		}
	}
	if p.Options[0].Votes != 1 || p.Options[0].RevenueCents != 300 {
		t.Fatalf("duplicate delivery counted: %+v", p.Options[0])
	}

	p, err = d.ApplyOnce(p, voteIx("v2", 0, 100))
	if err != nil {
		t.Fatalf("ApplyOnce: %v", err)
	}
	if p.Options[0].Votes != 2 || p.Options[0].RevenueCents != 400 {
		t.Fatalf("distinct vote not counted: %+v", p.Options[0])
	}
}

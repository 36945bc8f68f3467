package validation

import (
	"strings"
	"testing"
	"time"

	"streamflow/pkg/models"
)

func validChat() models.Interaction {
	return models.Interaction{
		ID:        "i1",
		StreamID:  "s1",
		UserID:    "u1",
		Kind:      models.KindChat,
		Content:   "hello",
		CreatedAt: time.Now().UTC(),
	}
}

func TestValidateInteraction(t *testing.T) {
	if err := ValidateInteraction(validChat()); err != nil {
		t.Fatalf("valid chat rejected: %v", err)
	}

	idx := 0
	vote := models.Interaction{
		ID: "i2", StreamID: "s1", UserID: "u1",
		Kind: models.KindPollVote, PollID: "p1", OptionIndex: &idx,
		AmountCents: 100, CreatedAt: time.Now().UTC(),
	}
	if err := ValidateInteraction(vote); err != nil {
		t.Fatalf("valid vote rejected: %v", err)
	}
}

func TestValidateInteractionErrors(t *testing.T) {
	idx := 1
	now := time.Now().UTC()
	past := now.Add(-time.Minute)

	cases := []struct {
		name    string
		mutate  func(*models.Interaction)
		wantMsg string
	}{
		{"missing stream", func(i *models.Interaction) { i.StreamID = "" }, "stream_id is required"},
		{"missing user", func(i *models.Interaction) { i.UserID = "" }, "user_id is required"},
		{"negative amount", func(i *models.Interaction) { i.AmountCents = -1 }, "amount_cents must be non-negative"},
		{"empty content", func(i *models.Interaction) { i.Content = "  " }, "content is required"},
		{"chat with option", func(i *models.Interaction) { i.OptionIndex = &idx }, "must not carry an option index"},
		{"unknown kind", func(i *models.Interaction) { i.Kind = "superchat" }, "unknown kind"},
		{"pin before create", func(i *models.Interaction) { i.PinnedUntil = &past }, "pinned_until must not precede"},
	}
	for _, c := range cases {
		i := validChat()
		c.mutate(&i)
		err := ValidateInteraction(i)
		if err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
		if !strings.Contains(err.Error(), c.wantMsg) {
			t.Fatalf("%s: error %q does not mention %q", c.name, err, c.wantMsg)
		}
	}
}

func TestValidateVoteNeedsPollAndOption(t *testing.T) {
	vote := models.Interaction{
		ID: "i3", StreamID: "s1", UserID: "u1",
		Kind: models.KindPollVote, CreatedAt: time.Now().UTC(),
	}
	err := ValidateInteraction(vote)
	if err == nil || !strings.Contains(err.Error(), "option_index is required") {
		t.Fatalf("vote without option accepted: %v", err)
	}
	if !strings.Contains(err.Error(), "poll_id is required") {
		t.Fatalf("vote without poll accepted: %v", err)
	}
}

func TestMaxContentLen(t *testing.T) {
	SetRules(Rules{MaxContentLen: 10})
	defer SetRules(Rules{MaxContentLen: 2000})

	i := validChat()
	i.Content = strings.Repeat("x", 11)
	if err := ValidateInteraction(i); err == nil {
		t.Fatal("over-long content accepted")
	}
	i.Content = strings.Repeat("x", 10)
	if err := ValidateInteraction(i); err != nil {
		t.Fatalf("content at limit rejected: %v", err)
	}
}

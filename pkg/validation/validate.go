// Package validation checks interaction rows before they are persisted or
// after they cross the realtime boundary. Rows are parsed and rejected, not
// cast into shape.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"streamflow/pkg/models"
)

// Rules holds the configurable validation limits.
type Rules struct {
	MaxContentLen int
}

var rules = Rules{MaxContentLen: 2000}

// SetRules installs the process-wide validation rules.
func SetRules(r Rules) {
	if r.MaxContentLen > 0 {
		rules = r
	}
}

// ValidateInteraction checks the structural invariants of one interaction.
func ValidateInteraction(ix models.Interaction) error {
	var errs []string
	if ix.StreamID == "" {
		errs = append(errs, "stream_id is required")
	}
	if ix.UserID == "" {
		errs = append(errs, "user_id is required")
	}
	if ix.AmountCents < 0 {
		errs = append(errs, "amount_cents must be non-negative")
	}
	switch ix.Kind {
	case models.KindChat:
		if strings.TrimSpace(ix.Content) == "" {
			errs = append(errs, "content is required for chat")
		}
		if rules.MaxContentLen > 0 && len(ix.Content) > rules.MaxContentLen {
			errs = append(errs, fmt.Sprintf("content exceeds max length %d", rules.MaxContentLen))
		}
		if ix.OptionIndex != nil {
			errs = append(errs, "chat must not carry an option index")
		}
	case models.KindPollVote:
		if ix.PollID == "" {
			errs = append(errs, "poll_id is required for poll_vote")
		}
		if ix.OptionIndex == nil {
			errs = append(errs, "option_index is required for poll_vote")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown kind %q", ix.Kind))
	}
	if ix.PinnedUntil != nil && ix.PinnedUntil.Before(ix.CreatedAt) {
		errs = append(errs, "pinned_until must not precede created_at")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

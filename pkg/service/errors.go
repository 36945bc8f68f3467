package service

import (
	"errors"

	"streamflow/pkg/money"
)

// Stale-state and infrastructure errors surfaced by the submitter. Input
// errors (ErrInvalidAmount, ErrBelowMinimum) are re-exported from pkg/money
// so callers can match the whole taxonomy in one place. None of these are
// retryable automatically; the user corrects input and resubmits.
var (
	ErrInvalidAmount = money.ErrInvalidAmount
	ErrBelowMinimum  = money.ErrBelowMinimum

	ErrPollNotFound     = errors.New("poll not found")
	ErrPollClosed       = errors.New("poll closed")
	ErrInvalidOption    = errors.New("invalid option")
	ErrSubmissionFailed = errors.New("submission failed")
)

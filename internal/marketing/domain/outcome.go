package domain

import (
	"errors"
	"fmt"
)

// OutcomeKind is the result of processing one lead.
type OutcomeKind string

const (
	OutcomeSent     OutcomeKind = "sent"
	OutcomeFailed   OutcomeKind = "failed"
	OutcomeExcluded OutcomeKind = "excluded"
)

// ExclusionReason says why the compliance gate suppressed a send.
type ExclusionReason string

const (
	ExclusionNone      ExclusionReason = ""
	ExclusionOptedOut  ExclusionReason = "opted_out"
	ExclusionDoNotCall ExclusionReason = "do_not_call"
)

var (
	ErrLeadNotFound = errors.New("lead not found")
	ErrNoPhone      = errors.New("lead has no phone number")
)

// Outcome is Sent, Failed(Err) or Excluded(Reason).
type Outcome struct {
	Kind   OutcomeKind
	Reason ExclusionReason
	Err    error
}

func Sent() Outcome                           { return Outcome{Kind: OutcomeSent} }
func Failed(err error) Outcome                { return Outcome{Kind: OutcomeFailed, Err: err} }
func Excluded(reason ExclusionReason) Outcome { return Outcome{Kind: OutcomeExcluded, Reason: reason} }

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeFailed:
		return fmt.Sprintf("failed(%v)", o.Err)
	case OutcomeExcluded:
		return fmt.Sprintf("excluded(%s)", o.Reason)
	default:
		return string(o.Kind)
	}
}

// Detail is the human readable reason, empty for Sent.
func (o Outcome) Detail() string {
	switch o.Kind {
	case OutcomeFailed:
		if o.Err != nil {
			return o.Err.Error()
		}
		return "unknown error"
	case OutcomeExcluded:
		return string(o.Reason)
	default:
		return ""
	}
}

package mvp

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHandle   = errors.New("handle must not be empty")
	ErrMalformedVote   = errors.New("vote must name a @target")
	ErrNoVoterIdentity = errors.New("voter has no handle")
	ErrCooldownActive  = errors.New("voter is within the vote cooldown")
	ErrNoScores        = errors.New("no scores recorded")
)

// IneligibleTargetError is returned when a vote names a target that can
// not receive it: the voter themselves, or a handle that never registered.
type IneligibleTargetError struct {
	Target string
}

func (e IneligibleTargetError) Error() string {
	return fmt.Sprintf("ineligible vote target %q", e.Target)
}

// UnknownUserError is returned when a scored handle has no registration
// to resolve a display name from. It indicates inconsistent state, not a
// user mistake.
type UnknownUserError struct {
	Handle string
}

func (e UnknownUserError) Error() string {
	return fmt.Sprintf("no registration for scored handle %q", e.Handle)
}

package ao3

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnloaded      = errors.New("the page was never loaded, there is nothing to read from")
	ErrAuthRequired  = errors.New("no logged in session or page authenticity token to authorize with")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("does not exist")
	ErrInvalidURL    = errors.New("not a work or series url")
	ErrRejected      = errors.New("the archive rejected the request")
)

// KudoError is returned when leaving kudos fails.
type KudoError struct {
	WorkID int
	Err    error
}

func (e *KudoError) Error() string {
	return fmt.Sprintf("kudos on work %d: %v", e.WorkID, e.Err)
}

func (e *KudoError) Unwrap() error { return e.Err }

// BookmarkError is returned when creating or deleting a bookmark fails.
type BookmarkError struct {
	Target string
	Err    error
}

func (e *BookmarkError) Error() string {
	return fmt.Sprintf("bookmark on %s: %v", e.Target, e.Err)
}

func (e *BookmarkError) Unwrap() error { return e.Err }

// SubscribeError is returned when subscribing or unsubscribing fails.
type SubscribeError struct {
	Kind string
	ID   int
	Err  error
}

func (e *SubscribeError) Error() string {
	return fmt.Sprintf("subscription to %s %d: %v", strings.ToLower(e.Kind), e.ID, e.Err)
}

func (e *SubscribeError) Unwrap() error { return e.Err }

// CollectError is returned when a collection invite isn't accepted.
// Rejected lists the collections the archive named in its error banner.
type CollectError struct {
	WorkID   int
	Rejected []string
	Message  string
	Err      error
}

func (e *CollectError) Error() string {
	msg := fmt.Sprintf("collect work %d", e.WorkID)
	if len(e.Rejected) > 0 {
		msg += fmt.Sprintf(" rejected by %s", strings.Join(e.Rejected, ", "))
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CollectError) Unwrap() error { return e.Err }

// PseudError is returned when the pseud to act as cannot be found on
// the page.
type PseudError struct {
	Pseud string
}

func (e *PseudError) Error() string {
	if e.Pseud == "" {
		return "could not find a pseud id on the page"
	}
	return fmt.Sprintf("could not find pseud %q on the page", e.Pseud)
}

// LoginError is returned when the archive doesn't accept a login.
type LoginError struct {
	Username string
	Err      error
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login as %q: %v", e.Username, e.Err)
}

func (e *LoginError) Unwrap() error { return e.Err }

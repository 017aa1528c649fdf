// Package workspace holds the per-client flow state: which view is open, the
// generator form, the analyzer upload, the chat transcript and the recorder.
// Each flow is a small state machine with no I/O; Session drives them and
// makes the model calls between transitions.
package workspace

import (
	"errors"
	"fmt"
)

// RequestState tracks the single outstanding call a flow may have
type RequestState int

const (
	RequestIdle RequestState = iota
	RequestInFlight
	RequestSucceeded
	RequestFailed
)

func (s RequestState) String() string {
	switch s {
	case RequestInFlight:
		return "in_flight"
	case RequestSucceeded:
		return "succeeded"
	case RequestFailed:
		return "failed"
	default:
		return "idle"
	}
}

// MarshalText encodes the state by name
func (s RequestState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *RequestState) UnmarshalText(text []byte) error {
	for _, st := range []RequestState{RequestIdle, RequestInFlight, RequestSucceeded, RequestFailed} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown request state %q", text)
}

// Flow errors
var (
	ErrRequestInFlight   = errors.New("a request is already in flight")
	ErrInvalidTransition = errors.New("action not allowed in the current state")
	ErrNoTemplate        = errors.New("no document template selected")
	ErrUnknownField      = errors.New("field is not part of the selected template")
	ErrChatUnavailable   = errors.New("chat is only available after an analysis")
)

// Request guards a flow against double submission
type Request struct {
	state RequestState
	err   error
}

// Begin moves to InFlight, failing if a call is already outstanding
func (r *Request) Begin() error {
	if r.state == RequestInFlight {
		return ErrRequestInFlight
	}
	r.state = RequestInFlight
	r.err = nil
	return nil
}

// Finish records the outcome of the outstanding call
func (r *Request) Finish(err error) {
	if err != nil {
		r.state = RequestFailed
		r.err = err
		return
	}
	r.state = RequestSucceeded
	r.err = nil
}

// Reset returns to Idle
func (r *Request) Reset() {
	r.state = RequestIdle
	r.err = nil
}

func (r *Request) State() RequestState { return r.state }

// Err is the error of the last failed call
func (r *Request) Err() error { return r.err }

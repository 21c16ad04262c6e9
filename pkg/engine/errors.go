package engine

import "errors"

// Precondition failures. Nothing is mutated when one of these is returned.
var (
	ErrUnknownEvent   = errors.New("unknown event definition")
	ErrUnknownStep    = errors.New("unknown event step")
	ErrNoActiveEvent  = errors.New("no active event")
	ErrNoChatPhase    = errors.New("no active chat phase")
	ErrUnknownAction  = errors.New("unknown conditioning action")
	ErrUnknownTarget  = errors.New("event target not found")
	ErrEmptyMessage   = errors.New("message cannot be empty")
	ErrUnknownSubject = errors.New("subject not found")
)

// Soft failures. AdvanceEvent returns the unchanged snapshot alongside these.
var (
	ErrUnknownChoice = errors.New("unknown choice")
	ErrMissingStep   = errors.New("successor step missing")
	ErrMissingItem   = errors.New("required item not held")
)

// ErrGenerationFailed wraps any text generation error or empty reply. The
// player's message stays in the transcript.
var ErrGenerationFailed = errors.New("text generation failed")

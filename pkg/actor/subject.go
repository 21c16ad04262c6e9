package actor

import (
	"fmt"
	"strings"
)

const (
	MinMetric = 0
	MaxMetric = 100
)

// Status tracks where a subject is on the capture-to-servant path.
// It only moves forward.
type Status string

const (
	StatusFree        Status = "free"
	StatusEncountered Status = "encountered"
	StatusCaptured    Status = "captured"
	StatusConverting  Status = "converting"
	StatusServant     Status = "servant"
)

var statusRank = map[Status]int{
	StatusFree:        0,
	StatusEncountered: 1,
	StatusCaptured:    2,
	StatusConverting:  3,
	StatusServant:     4,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Before reports whether s comes strictly before other on the path.
func (s Status) Before(other Status) bool {
	return statusRank[s] < statusRank[other]
}

// Subject is a hero or servant the engine reads and mutates.
// Captive subjects use Conditioning; servants use Affection and Obedience.
type Subject struct {
	Name         string            `json:"name"`
	Status       Status            `json:"status"`
	Description  string            `json:"description,omitempty"`
	Backstory    string            `json:"backstory,omitempty"`
	History      []string          `json:"history,omitempty"` // persistent cross-scene summaries
	Traits       []string          `json:"traits,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	Conditioning int               `json:"conditioning"`
	Affection    int               `json:"affection"`
	Obedience    int               `json:"obedience"`
	Archetype    string            `json:"archetype,omitempty"`
}

// IsServant reports whether the subject has been converted.
func (s *Subject) IsServant() bool {
	return s.Status == StatusServant
}

// SetStatus moves the subject forward to status. Moving backwards or to the
// same status is a no-op; unknown statuses are rejected.
func (s *Subject) SetStatus(status Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}
	if s.Status == "" || s.Status.Before(status) {
		s.Status = status
	}
	return nil
}

// AdjustConditioning applies delta with clamping and returns the new value.
func (s *Subject) AdjustConditioning(delta int) int {
	s.Conditioning = Clamp(s.Conditioning+delta, MinMetric, MaxMetric)
	return s.Conditioning
}

// AdjustAffection applies delta with clamping and returns the new value.
func (s *Subject) AdjustAffection(delta int) int {
	s.Affection = Clamp(s.Affection+delta, MinMetric, MaxMetric)
	return s.Affection
}

// AdjustObedience applies delta with clamping and returns the new value.
func (s *Subject) AdjustObedience(delta int) int {
	s.Obedience = Clamp(s.Obedience+delta, MinMetric, MaxMetric)
	return s.Obedience
}

// AppendHistory records a persistent scene summary. Blank entries are ignored.
func (s *Subject) AppendHistory(entry string) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return
	}
	s.History = append(s.History, entry)
}

// Clone returns a deep copy of the subject.
func (s *Subject) Clone() *Subject {
	if s == nil {
		return nil
	}
	c := *s
	c.History = append([]string(nil), s.History...)
	c.Traits = append([]string(nil), s.Traits...)
	if s.Details != nil {
		c.Details = make(map[string]string, len(s.Details))
		for k, v := range s.Details {
			c.Details[k] = v
		}
	}
	return &c
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

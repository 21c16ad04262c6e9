package runner

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/stage-engine/internal/handlers"
)

// Step actions. Each maps to one API call against the session.
const (
	ActionStartEvent = "start_event"
	ActionAdvance    = "advance"
	ActionEndEvent   = "end_event"
	ActionChatStart  = "chat_start"
	ActionChat       = "chat"
	ActionChatEnd    = "chat_end"
	ActionRegenerate = "regenerate"
	ActionExecute    = "action"
	ActionSummarize  = "summarize"
	ActionBackstory  = "backstory"
	// ActionReset deletes the session and recreates it from the seed.
	ActionReset = "reset"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name     string                       `json:"name"`
	PCID     string                       `json:"pc_id,omitempty"`
	Subjects []handlers.AddSubjectRequest `json:"subjects,omitempty"` // Seeded before the first step
	Steps    []TestStep                   `json:"steps,omitempty"`
	Cases    []string                     `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single test interaction and its expected outcomes
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Action       string       `json:"action"`
	EventID      string       `json:"event_id,omitempty"`
	Target       string       `json:"target,omitempty"`
	ChoiceID     string       `json:"choice_id,omitempty"`
	ActionID     string       `json:"action_id,omitempty"`
	Force        string       `json:"force,omitempty"`
	Message      string       `json:"message,omitempty"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	Status *int `json:"status,omitempty"` // HTTP status of the step call; defaults to any 2xx

	// Active event
	StepID       *string `json:"step_id,omitempty"`
	Strategy     *string `json:"strategy,omitempty"`
	Finished     *bool   `json:"finished,omitempty"`
	NoEvent      bool    `json:"no_event,omitempty"`
	MessageCount *int    `json:"message_count,omitempty"`
	CanEndChat   *bool   `json:"can_end_chat,omitempty"`

	// Subjects by name
	SubjectStatus   map[string]string `json:"subject_status,omitempty"`
	MinConditioning map[string]int    `json:"min_conditioning,omitempty"`
	MaxConditioning map[string]int    `json:"max_conditioning,omitempty"`
	Archetype       map[string]string `json:"archetype,omitempty"`
	Inventory       map[string]int    `json:"inventory,omitempty"`

	// Response Analysis
	ResponseContains    []string `json:"response_contains,omitempty"`
	ResponseNotContains []string `json:"response_not_contains,omitempty"`
	ResponseRegex       string   `json:"response_regex,omitempty"`
	ResponseMinLength   *int     `json:"response_min_length,omitempty"`
	ResponseMaxLength   *int     `json:"response_max_length,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName     string
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	IsReset      bool // Reset steps do not count toward pass/fail metrics
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job       TestJob
	Results   []TestResult
	Error     error
	Duration  time.Duration
	SessionID uuid.UUID
}

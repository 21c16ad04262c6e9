package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/stage-engine/internal/handlers"
	"github.com/jwebster45206/stage-engine/pkg/chat"
	"github.com/jwebster45206/stage-engine/pkg/conditioning"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running stage-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	PCOverride        string // If set, overrides the PC for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 3 * time.Minute},
		Timeout:           2 * time.Minute,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}
		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite against a fresh session
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job:     TestJob{Name: suite.Name, Suite: suite},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}
	if r.PCOverride != "" {
		suite.PCID = r.PCOverride
	}

	sessionID, err := r.createSession(ctx, suite)
	if err != nil {
		result.Error = fmt.Errorf("failed to seed session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.SessionID = sessionID

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, &sessionID, suite, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}
		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.SessionID = sessionID
	if err := r.deleteSession(ctx, sessionID); err != nil {
		r.Logger("    Warning: %v", err)
	}
	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep executes a single step, retrying once when generation times out
func (r *Runner) runStep(ctx context.Context, sessionID *uuid.UUID, suite TestSuite, step TestStep) TestResult {
	var result TestResult
	for attempt := 1; attempt <= 2; attempt++ {
		result = r.executeStep(ctx, sessionID, suite, step)
		if result.Success || result.Error == nil {
			return result
		}
		if errors.Is(result.Error, context.DeadlineExceeded) && attempt == 1 {
			r.Logger("    Timeout detected, retrying step: %s", step.Name)
			continue
		}
		return result
	}
	return result
}

func (r *Runner) executeStep(ctx context.Context, sessionID *uuid.UUID, suite TestSuite, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{TestName: suite.Name, StepName: step.Name}
	fail := func(err error) TestResult {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	if step.Action == ActionReset {
		if err := r.deleteSession(stepCtx, *sessionID); err != nil {
			return fail(fmt.Errorf("failed to reset session: %w", err))
		}
		id, err := r.createSession(stepCtx, suite)
		if err != nil {
			return fail(fmt.Errorf("failed to reset session: %w", err))
		}
		*sessionID = id
		result.IsReset = true
		result.ResponseText = "[SESSION RESET]"
	} else {
		status, text, err := r.perform(stepCtx, *sessionID, step)
		if err != nil {
			return fail(err)
		}
		if err := checkStatus(step.Expectations.Status, status); err != nil {
			return fail(fmt.Errorf("%s: %w (%s)", step.Action, err, text))
		}
		result.ResponseText = text
	}

	view, err := r.GetSession(stepCtx, *sessionID)
	if err != nil {
		return fail(fmt.Errorf("failed to get session after step: %w", err))
	}
	if err := CheckExpectations(step.Expectations, view, result.ResponseText); err != nil {
		return fail(fmt.Errorf("expectation failed: %w", err))
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// perform issues the API call for a step and returns its status and the
// text worth checking: a reply, an action message, or the raw body.
func (r *Runner) perform(ctx context.Context, id uuid.UUID, step TestStep) (int, string, error) {
	base := sessionPath(id)
	switch step.Action {
	case ActionStartEvent:
		status, raw, err := r.call(ctx, http.MethodPost, base+"/event", handlers.StartEventRequest{EventID: step.EventID, Target: step.Target}, nil)
		return status, string(raw), err
	case ActionAdvance:
		var resp handlers.EventResponse
		status, raw, err := r.call(ctx, http.MethodPost, base+"/event/advance", handlers.AdvanceEventRequest{ChoiceID: step.ChoiceID, Force: step.Force}, &resp)
		if err == nil && resp.Step != nil {
			return status, resp.Step.Text, nil
		}
		return status, string(raw), err
	case ActionEndEvent:
		status, raw, err := r.call(ctx, http.MethodDelete, base+"/event", nil, nil)
		return status, string(raw), err
	case ActionChatStart, ActionChatEnd:
		path := base + "/chat/start"
		if step.Action == ActionChatEnd {
			path = base + "/chat/end"
		}
		status, raw, err := r.call(ctx, http.MethodPost, path, nil, nil)
		return status, string(raw), err
	case ActionChat, ActionRegenerate:
		var resp chat.ChatResponse
		var status int
		var raw []byte
		var err error
		if step.Action == ActionChat {
			status, raw, err = r.call(ctx, http.MethodPost, base+"/chat", chat.ChatRequest{SessionID: id, Message: step.Message}, &resp)
		} else {
			status, raw, err = r.call(ctx, http.MethodPost, base+"/chat/regenerate", nil, &resp)
		}
		if err == nil && resp.Message != nil {
			return status, resp.Message.Text, nil
		}
		return status, string(raw), err
	case ActionExecute:
		var res conditioning.Result
		status, raw, err := r.call(ctx, http.MethodPost, base+"/actions", handlers.ExecuteActionRequest{ActionID: step.ActionID, Force: step.Force}, &res)
		if err == nil && res.Message != "" {
			return status, res.Message, nil
		}
		return status, string(raw), err
	case ActionSummarize:
		var resp handlers.SummaryResponse
		status, raw, err := r.call(ctx, http.MethodPost, base+"/chat/summarize", nil, &resp)
		if err == nil && resp.Summary != "" {
			return status, resp.Summary, nil
		}
		return status, string(raw), err
	case ActionBackstory:
		var resp handlers.BackstoryResponse
		status, raw, err := r.call(ctx, http.MethodPost, base+"/subjects/"+step.Target+"/backstory", nil, &resp)
		if err == nil && resp.Backstory != "" {
			return status, resp.Backstory, nil
		}
		return status, string(raw), err
	default:
		return 0, "", fmt.Errorf("unknown step action %q", step.Action)
	}
}

func checkStatus(want *int, got int) error {
	if want != nil {
		if got != *want {
			return fmt.Errorf("expected status %d, got %d", *want, got)
		}
		return nil
	}
	if got < 200 || got > 299 {
		return fmt.Errorf("expected a 2xx status, got %d", got)
	}
	return nil
}

// CheckExpectations validates the step expectations against the session
// after the step and the response text it produced.
func CheckExpectations(exp Expectations, view *handlers.SessionView, responseText string) error {
	ae := view.ActiveEvent
	if exp.NoEvent && ae != nil {
		return fmt.Errorf("expected no active event, got %s at %s", ae.DefinitionID, ae.CurrentStepID)
	}
	needsEvent := exp.StepID != nil || exp.Strategy != nil || exp.Finished != nil || exp.MessageCount != nil
	if needsEvent && ae == nil {
		return fmt.Errorf("expected an active event, got none")
	}
	if exp.StepID != nil && ae.CurrentStepID != *exp.StepID {
		return fmt.Errorf("expected step %s, got %s", *exp.StepID, ae.CurrentStepID)
	}
	if exp.Strategy != nil && ae.Strategy != *exp.Strategy {
		return fmt.Errorf("expected strategy %s, got %s", *exp.Strategy, ae.Strategy)
	}
	if exp.Finished != nil && ae.Finished != *exp.Finished {
		return fmt.Errorf("expected finished to be %t, got %t", *exp.Finished, ae.Finished)
	}
	if exp.MessageCount != nil && ae.ChatMessageCount != *exp.MessageCount {
		return fmt.Errorf("expected message_count to be %d, got %d", *exp.MessageCount, ae.ChatMessageCount)
	}
	if exp.CanEndChat != nil && view.CanEndChat != *exp.CanEndChat {
		return fmt.Errorf("expected can_end_chat to be %t, got %t", *exp.CanEndChat, view.CanEndChat)
	}

	for name, want := range exp.SubjectStatus {
		subj, ok := view.State.Subjects[name]
		if !ok {
			return fmt.Errorf("expected subject %s to exist, but it doesn't", name)
		}
		if string(subj.Status) != want {
			return fmt.Errorf("expected subject %s to be %s, got %s", name, want, subj.Status)
		}
	}
	for name, lo := range exp.MinConditioning {
		subj, ok := view.State.Subjects[name]
		if !ok {
			return fmt.Errorf("expected subject %s to exist, but it doesn't", name)
		}
		if subj.Conditioning < lo {
			return fmt.Errorf("expected %s conditioning >= %d, got %d", name, lo, subj.Conditioning)
		}
	}
	for name, hi := range exp.MaxConditioning {
		subj, ok := view.State.Subjects[name]
		if !ok {
			return fmt.Errorf("expected subject %s to exist, but it doesn't", name)
		}
		if subj.Conditioning > hi {
			return fmt.Errorf("expected %s conditioning <= %d, got %d", name, hi, subj.Conditioning)
		}
	}
	for name, want := range exp.Archetype {
		subj, ok := view.State.Subjects[name]
		if !ok {
			return fmt.Errorf("expected subject %s to exist, but it doesn't", name)
		}
		if subj.Archetype != want {
			return fmt.Errorf("expected %s archetype %s, got %s", name, want, subj.Archetype)
		}
	}
	for item, want := range exp.Inventory {
		if got := view.State.Inventory[item]; got != want {
			return fmt.Errorf("expected %d x %s in inventory, got %d", want, item, got)
		}
	}

	lowerResponse := strings.ToLower(responseText)
	for _, expectedText := range exp.ResponseContains {
		if !strings.Contains(lowerResponse, strings.ToLower(expectedText)) {
			return fmt.Errorf("expected response to contain '%s', but it didn't", expectedText)
		}
	}
	for _, unexpectedText := range exp.ResponseNotContains {
		if strings.Contains(lowerResponse, strings.ToLower(unexpectedText)) {
			return fmt.Errorf("expected response to NOT contain '%s', but it did", unexpectedText)
		}
	}
	if exp.ResponseRegex != "" {
		matched, err := regexp.MatchString(exp.ResponseRegex, responseText)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("response didn't match regex pattern: %s", exp.ResponseRegex)
		}
	}
	if exp.ResponseMinLength != nil && len(responseText) < *exp.ResponseMinLength {
		return fmt.Errorf("expected response length >= %d, got %d", *exp.ResponseMinLength, len(responseText))
	}
	if exp.ResponseMaxLength != nil && len(responseText) > *exp.ResponseMaxLength {
		return fmt.Errorf("expected response length <= %d, got %d", *exp.ResponseMaxLength, len(responseText))
	}

	return nil
}

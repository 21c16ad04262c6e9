package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwebster45206/stage-engine/pkg/prompts"
)

// Generation limits for the narrative helpers.
const (
	SummaryMaxTokens   = 200
	BackstoryMaxTokens = 350
)

// SummarizeEventChat condenses the current chat phase into a short summary
// and appends it to the target's persistent history.
func (s *Session) SummarizeEventChat(ctx context.Context) (string, error) {
	_, subj, err := s.targetSubject()
	if err != nil {
		return "", err
	}
	step, err := s.CurrentStep()
	if err != nil {
		return "", err
	}
	prompt, err := prompts.BuildSummaryPrompt(step.Text, s.transcript, s.vars(subj.Name))
	if err != nil {
		return "", err
	}

	params := s.params
	params.MaxTokens = SummaryMaxTokens
	params.MinTokens = 0
	params.StopSequences = nil
	summary, err := s.generate(ctx, prompt, params, s.vars(subj.Name))
	if err != nil {
		s.logger.Error("Failed to summarize event chat", "target", subj.Name, "error", err)
		return "", err
	}
	summary = s.cleaner.Clean(summary, subj.Name, s.otherSpeakers(subj.Name), s.filterReplies())
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary", ErrGenerationFailed)
	}
	subj.AppendHistory(summary)
	s.logger.Info("Scene summary recorded", "target", subj.Name, "entries", len(subj.History))
	return summary, nil
}

// GenerateBackstory writes a new backstory for a subject, shaped by their
// servant archetype when they have one.
func (s *Session) GenerateBackstory(ctx context.Context, name string) (string, error) {
	subj, err := s.subject(strings.TrimSpace(name))
	if err != nil {
		return "", err
	}
	label := fmt.Sprintf("a %s subject of {pc}", subj.Status)
	var description string
	if arch, ok := s.catalog.Archetype(subj.Archetype); ok {
		label, description = arch.Label, arch.Description
	}
	prompt, err := prompts.BuildBackstoryPrompt(subj, label, description, s.vars(subj.Name))
	if err != nil {
		return "", err
	}

	params := s.params
	params.MaxTokens = BackstoryMaxTokens
	params.StopSequences = nil
	backstory, err := s.generate(ctx, prompt, params, s.vars(subj.Name))
	if err != nil {
		s.logger.Error("Failed to generate backstory", "subject", subj.Name, "error", err)
		return "", err
	}
	backstory = s.cleaner.Clean(backstory, subj.Name, s.otherSpeakers(subj.Name), s.filterReplies())
	if backstory == "" {
		return "", fmt.Errorf("%w: empty backstory", ErrGenerationFailed)
	}
	subj.Backstory = backstory
	return backstory, nil
}

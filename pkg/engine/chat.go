package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwebster45206/stage-engine/pkg/actor"
	"github.com/jwebster45206/stage-engine/pkg/chat"
	"github.com/jwebster45206/stage-engine/pkg/conditioning"
	"github.com/jwebster45206/stage-engine/pkg/narrative"
	"github.com/jwebster45206/stage-engine/pkg/prompts"
	"github.com/jwebster45206/stage-engine/pkg/textfilter"
)

// StartEventChat opens the chat phase on the current step. The transcript,
// message count, cooldowns and last action result start fresh.
func (s *Session) StartEventChat() error {
	ae := s.active
	if ae == nil {
		return ErrNoActiveEvent
	}
	ae.ChatPhaseActive = true
	ae.ChatMessageCount = 0
	ae.Cooldowns = make(map[string]int)
	ae.LastActionResult = nil
	s.transcript = nil
	s.logger.Debug("Chat phase started", "event", ae.DefinitionID, "step", ae.CurrentStepID)
	return nil
}

// EndEventChat closes the chat phase and drops the transcript. The message
// count stays on the event.
func (s *Session) EndEventChat() error {
	ae := s.active
	if ae == nil {
		return ErrNoActiveEvent
	}
	ae.ChatPhaseActive = false
	s.transcript = nil
	s.logger.Debug("Chat phase ended", "event", ae.DefinitionID, "messages", ae.ChatMessageCount)
	return nil
}

// CanEndEventChat reports whether the chat phase has delivered the minimum
// number of replies its step asks for.
func (s *Session) CanEndEventChat() bool {
	ae := s.active
	if ae == nil {
		return false
	}
	step, err := s.CurrentStep()
	if err != nil || step.ChatPhase == nil {
		return true
	}
	return ae.ChatMessageCount >= step.ChatPhase.MinMessages
}

// EventMessages returns a copy of the chat-phase transcript.
func (s *Session) EventMessages() []chat.Message {
	return chat.CloneAll(s.transcript)
}

// SetEventMessages replaces the transcript wholesale, e.g. after the caller
// edited or swiped messages. Later prompts are built from msgs.
func (s *Session) SetEventMessages(msgs []chat.Message) {
	s.transcript = chat.CloneAll(msgs)
}

// EditEventMessage rewrites the text of one transcript entry.
func (s *Session) EditEventMessage(index int, text string) error {
	if index < 0 || index >= len(s.transcript) {
		return fmt.Errorf("message index %d out of range", index)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	s.transcript[index].Text = text
	return nil
}

// SendEventMessage records the player's message and asks the generator for
// the target's reply. The player message is kept even when generation fails,
// and the message count only grows on a delivered reply.
func (s *Session) SendEventMessage(ctx context.Context, text string) (*chat.Message, error) {
	ae := s.active
	if ae == nil || !ae.ChatPhaseActive {
		return nil, ErrNoChatPhase
	}
	_, subj, err := s.targetSubject()
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.transcript = append(s.transcript, chat.Message{
		Sender: s.playerName(),
		Role:   chat.RolePlayer,
		Text:   text,
	})

	reply, err := s.respond(ctx, s.transcript, subj)
	if err != nil {
		s.logger.Error("Failed to generate event reply", "event", ae.DefinitionID, "target", subj.Name, "error", err)
		return nil, err
	}
	s.transcript = append(s.transcript, reply)
	ae.ChatMessageCount++

	out := reply.Clone()
	return &out, nil
}

// RegenerateEventResponse produces a new reply to the latest player message,
// replacing any reply already given to it. The message count is unchanged.
func (s *Session) RegenerateEventResponse(ctx context.Context) (*chat.Message, error) {
	ae := s.active
	if ae == nil || !ae.ChatPhaseActive {
		return nil, ErrNoChatPhase
	}
	_, subj, err := s.targetSubject()
	if err != nil {
		return nil, err
	}
	idx := s.lastIndex(chat.RolePlayer)
	if idx < 0 {
		return nil, fmt.Errorf("%w: no player message to respond to", ErrEmptyMessage)
	}

	base := chat.CloneAll(s.transcript[:idx+1])
	for _, m := range s.transcript[idx+1:] {
		if m.IsSystem() {
			base = append(base, m.Clone())
		}
	}

	reply, err := s.respond(ctx, base, subj)
	if err != nil {
		s.logger.Error("Failed to regenerate event reply", "event", ae.DefinitionID, "target", subj.Name, "error", err)
		return nil, err
	}
	s.transcript = append(base, reply)

	out := reply.Clone()
	return &out, nil
}

// SwipeEventResponse replaces the latest reply with a fresh generation and
// keeps the earlier text in the new message's Alternatives. Without a reply
// to swipe it behaves like RegenerateEventResponse.
func (s *Session) SwipeEventResponse(ctx context.Context) (*chat.Message, error) {
	ae := s.active
	if ae == nil || !ae.ChatPhaseActive {
		return nil, ErrNoChatPhase
	}
	_, subj, err := s.targetSubject()
	if err != nil {
		return nil, err
	}
	npcIdx := s.lastIndex(chat.RoleNPC)
	if npcIdx < 0 || npcIdx < s.lastIndex(chat.RolePlayer) {
		return s.RegenerateEventResponse(ctx)
	}

	reply, err := s.respond(ctx, s.transcript[:npcIdx], subj)
	if err != nil {
		s.logger.Error("Failed to swipe event reply", "event", ae.DefinitionID, "target", subj.Name, "error", err)
		return nil, err
	}
	old := s.transcript[npcIdx]
	reply.Alternatives = append(append([]string(nil), old.Alternatives...), old.Text)
	s.transcript[npcIdx] = reply

	out := reply.Clone()
	return &out, nil
}

// BuildEventPrompt renders the prompt for the next reply from the current
// transcript. It returns "" when there is no chat-phase step or target.
func (s *Session) BuildEventPrompt() string {
	_, subj, err := s.targetSubject()
	if err != nil {
		return ""
	}
	prompt, err := s.buildPrompt(s.transcript, subj)
	if err != nil {
		s.logger.Debug("Prompt not built", "error", err)
		return ""
	}
	return prompt
}

func (s *Session) buildPrompt(transcript []chat.Message, subj *actor.Subject) (string, error) {
	step, err := s.CurrentStep()
	if err != nil {
		return "", err
	}
	var arch *conditioning.Archetype
	if subj.Archetype != "" {
		if a, ok := s.catalog.Archetype(subj.Archetype); ok {
			arch = &a
		}
	}
	return prompts.New().
		WithEvent(s.active, step).
		WithSubject(subj).
		WithPC(s.state.PC).
		WithStrategy(s.strategy()).
		WithArchetype(arch).
		WithTranscript(transcript).
		WithExplicitMode(s.state.ExplicitMode).
		WithContentRating(s.state.ContentRating).
		Build()
}

// respond builds a prompt over transcript and returns the cleaned reply.
func (s *Session) respond(ctx context.Context, transcript []chat.Message, subj *actor.Subject) (chat.Message, error) {
	prompt, err := s.buildPrompt(transcript, subj)
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	text, err := s.generate(ctx, prompt, s.params, s.vars(subj.Name))
	if err != nil {
		return chat.Message{}, err
	}
	text = s.cleaner.Clean(text, subj.Name, s.otherSpeakers(subj.Name), s.filterReplies())
	if text == "" {
		return chat.Message{}, fmt.Errorf("%w: empty reply", ErrGenerationFailed)
	}
	return chat.Message{
		Sender:      subj.Name,
		Role:        chat.RoleNPC,
		Text:        text,
		DebugPrompt: prompt,
	}, nil
}

// otherSpeakers lists the names a reply for speaker must not write lines for.
func (s *Session) otherSpeakers(speaker string) []string {
	names := make([]string, 0, len(s.state.Subjects)+1)
	if pc := s.state.PCName(); pc != "" {
		names = append(names, pc)
	}
	for name := range s.state.Subjects {
		if !strings.EqualFold(name, speaker) {
			names = append(names, name)
		}
	}
	return names
}

// generate calls the text generator with history disabled.
func (s *Session) generate(ctx context.Context, prompt string, params GenerationParams, vars narrative.Vars) (string, error) {
	if s.gen == nil {
		return "", fmt.Errorf("%w: no text generator configured", ErrGenerationFailed)
	}
	params.IncludeHistory = false
	stops := make([]string, 0, len(params.StopSequences))
	for _, stop := range params.StopSequences {
		stops = append(stops, narrative.Render(stop, vars))
	}
	params.StopSequences = stops

	text, err := s.gen.GenerateText(ctx, prompt, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty reply", ErrGenerationFailed)
	}
	return text, nil
}

func (s *Session) filterReplies() bool {
	return !s.state.ExplicitMode && textfilter.ShouldFilterContent(s.state.ContentRating)
}

func (s *Session) playerName() string {
	if name := s.state.PCName(); name != "" {
		return name
	}
	return "You"
}

func (s *Session) lastIndex(role string) int {
	for i := len(s.transcript) - 1; i >= 0; i-- {
		if s.transcript[i].Role == role {
			return i
		}
	}
	return -1
}

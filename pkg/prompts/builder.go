package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jwebster45206/stage-engine/pkg/actor"
	"github.com/jwebster45206/stage-engine/pkg/chat"
	"github.com/jwebster45206/stage-engine/pkg/conditioning"
	"github.com/jwebster45206/stage-engine/pkg/event"
	"github.com/jwebster45206/stage-engine/pkg/narrative"
)

// RecentActionLimit is how many past action directives a prompt repeats.
const RecentActionLimit = 3

// Builder assembles the single, self-contained chat-phase prompt using a
// fluent interface. The result carries no history beyond what is given here.
type Builder struct {
	event      *event.ActiveEvent
	step       *event.Step
	subject    *actor.Subject
	pc         *actor.PC
	strategy   *conditioning.Strategy
	archetype  *conditioning.Archetype
	transcript []chat.Message
	explicit   bool
	rating     string
	vars       narrative.Vars
}

// New creates a new prompt builder.
func New() *Builder {
	return &Builder{}
}

// WithEvent sets the active event and its current step.
func (b *Builder) WithEvent(ae *event.ActiveEvent, step *event.Step) *Builder {
	b.event = ae
	b.step = step
	return b
}

// WithSubject sets the subject who will speak.
func (b *Builder) WithSubject(s *actor.Subject) *Builder {
	b.subject = s
	return b
}

// WithPC sets the player character.
func (b *Builder) WithPC(pc *actor.PC) *Builder {
	b.pc = pc
	return b
}

// WithStrategy sets the selected conditioning strategy, if any.
func (b *Builder) WithStrategy(s *conditioning.Strategy) *Builder {
	b.strategy = s
	return b
}

// WithArchetype sets the servant archetype, if the subject has one.
func (b *Builder) WithArchetype(a *conditioning.Archetype) *Builder {
	b.archetype = a
	return b
}

// WithTranscript sets the chat-phase transcript.
func (b *Builder) WithTranscript(msgs []chat.Message) *Builder {
	b.transcript = msgs
	return b
}

// WithExplicitMode toggles the explicit content block.
func (b *Builder) WithExplicitMode(on bool) *Builder {
	b.explicit = on
	return b
}

// WithContentRating sets the session content rating.
func (b *Builder) WithContentRating(rating string) *Builder {
	b.rating = rating
	return b
}

// Build renders the prompt sections in order.
func (b *Builder) Build() (string, error) {
	if b.event == nil {
		return "", fmt.Errorf("active event is required")
	}
	if b.step == nil {
		return "", fmt.Errorf("step is required")
	}
	if b.step.ChatPhase == nil {
		return "", fmt.Errorf("step %s has no chat phase", b.step.ID)
	}
	if b.subject == nil {
		return "", fmt.Errorf("subject is required")
	}

	b.vars = narrative.NewVars(b.subject.Name, b.pc.Name()).With("speaker", b.subject.Name)
	for k, v := range b.event.Vars {
		if _, reserved := b.vars[k]; !reserved {
			b.vars[k] = v
		}
	}

	// Authored sections are rendered one by one. Backstory, history and
	// transcript lines are written as-is.
	sections := []string{
		b.render(RoleLockPrompt),
		b.identitySection(),
		b.render("### How to play {target}:\n" + DepthDirective(b.subject.Conditioning)),
		b.historySection(),
		b.render(b.stateSection()),
		b.render(b.sceneSection()),
		b.render(b.strategySection()),
		b.render(b.actionsSection()),
		b.transcriptSection(),
		b.render(b.outputSection()),
	}

	var sb strings.Builder
	for _, s := range sections {
		if s == "" {
			continue
		}
		sb.WriteString(s)
		sb.WriteString("\n\n")
	}
	sb.WriteString(b.render("{target}:"))

	return sb.String(), nil
}

func (b *Builder) render(text string) string {
	return narrative.Render(text, b.vars)
}

func (b *Builder) identitySection() string {
	var sb strings.Builder
	sb.WriteString(b.render("### Who {target} is:\n"))
	switch {
	case b.subject.Backstory != "":
		sb.WriteString(b.subject.Backstory)
	case b.subject.Description != "":
		sb.WriteString(b.subject.Description)
	default:
		sb.WriteString(b.render("{target} is a captive in {pc}'s tower."))
	}
	if len(b.subject.Traits) > 0 {
		sb.WriteString("\nTraits: " + strings.Join(b.subject.Traits, ", "))
	}
	if len(b.subject.Details) > 0 {
		keys := make([]string, 0, len(b.subject.Details))
		for k := range b.subject.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("\n- %s: %s", k, b.subject.Details[k]))
		}
	}
	if pc := actor.BuildPrompt(b.pc); pc != "" {
		sb.WriteString("\n\n" + b.render("{pc} is: ") + pc)
	}
	return sb.String()
}

func (b *Builder) historySection() string {
	if len(b.subject.History) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("### What has happened before:")
	for _, h := range b.subject.History {
		sb.WriteString("\n- " + h)
	}
	return sb.String()
}

func (b *Builder) stateSection() string {
	if b.subject.IsServant() {
		return b.servantSection()
	}

	value := b.subject.Conditioning
	var sb strings.Builder
	sb.WriteString("### {target}'s current state:\n")
	sb.WriteString(fmt.Sprintf("Conditioning: %d/100 (%s)", value, conditioning.TierFor(value).Label()))
	for _, line := range ConditioningMilestones(value) {
		sb.WriteString("\n- " + line)
	}
	if value >= EmphaticOverrideThreshold {
		sb.WriteString("\n\n" + EmphaticOverridePrompt)
	}
	return sb.String()
}

func (b *Builder) servantSection() string {
	var sb strings.Builder
	sb.WriteString("### {target}'s bond with {pc}:\n")
	if b.archetype != nil {
		sb.WriteString(fmt.Sprintf("Archetype: %s. %s\n", b.archetype.Label, b.archetype.Directive))
	}
	sb.WriteString(fmt.Sprintf("Obedience: %d/100", b.subject.Obedience))
	for _, line := range ObedienceMilestones(b.subject.Obedience) {
		sb.WriteString("\n- " + line)
	}
	sb.WriteString(fmt.Sprintf("\nAffection: %d/100", b.subject.Affection))
	for _, line := range AffectionMilestones(b.subject.Affection) {
		sb.WriteString("\n- " + line)
	}
	return sb.String()
}

func (b *Builder) sceneSection() string {
	var sb strings.Builder
	sb.WriteString("### Scene:\n")
	sb.WriteString(b.step.Text)
	if b.step.ChatPhase.Prompt != "" {
		sb.WriteString("\n" + b.step.ChatPhase.Prompt)
	}
	if rating := GetContentRatingPrompt(b.rating); rating != "" && !b.explicit {
		sb.WriteString("\n" + strings.TrimSpace(rating))
	}
	return sb.String()
}

func (b *Builder) strategySection() string {
	if b.strategy == nil || b.strategy.Context == "" {
		return ""
	}
	return "### {pc}'s approach:\n" + b.strategy.Context
}

func (b *Builder) actionsSection() string {
	recent := b.event.RecentResults(RecentActionLimit)
	if len(recent) == 0 && b.event.LastActionResult == nil {
		return ""
	}

	var sb strings.Builder
	for _, r := range recent {
		if r.Directive == "" {
			continue
		}
		if sb.Len() == 0 {
			sb.WriteString("### Recent actions by {pc}:")
		}
		sb.WriteString("\n- " + r.Directive)
	}

	if last := b.event.LastActionResult; last != nil && last.Directive != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("### JUST NOW (react to this first):\n")
		sb.WriteString(last.Directive)
		if last.ThresholdCrossed != "" {
			sb.WriteString("\n" + fmt.Sprintf(ThresholdCrossedPrompt, strings.ToUpper(string(last.ThresholdCrossed))))
		}
	}
	return sb.String()
}

func (b *Builder) transcriptSection() string {
	lines := transcriptLines(b.transcript)
	if len(lines) == 0 {
		return ""
	}
	return "### Conversation so far:\n" + strings.Join(lines, "\n")
}

func (b *Builder) outputSection() string {
	if b.explicit {
		return OutputContractPrompt + "\n\n" + ExplicitContentPrompt
	}
	return OutputContractPrompt
}

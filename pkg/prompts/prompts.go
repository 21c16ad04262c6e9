package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/stage-engine/pkg/actor"
	"github.com/jwebster45206/stage-engine/pkg/chat"
	"github.com/jwebster45206/stage-engine/pkg/narrative"
)

// RoleLockPrompt opens every generation prompt. Exactly one speaker is allowed.
const RoleLockPrompt = `You are {target}, and ONLY {target}. You are writing {target}'s next reply in a private scene with {pc}.

### CRITICAL ROLE RULES:
- Speak and act ONLY as {target}.
- NEVER write dialogue, actions, thoughts or decisions for {pc}.
- NEVER speak for or control any other character.
- Do not narrate what {pc} does or says next. Stop when it is {pc}'s turn.`

// Roleplay depth directives, escalating with conditioning.
const (
	DepthResistant = "Play {target} as a real person with natural reactions. They have their own goals, fears and opinions, and they respond to {pc} the way a real captive would: with suspicion, anger or stubborn silence. Do not soften them for {pc}'s benefit."
	DepthEroding   = "{target}'s sense of self is eroding. Show internal conflict: they still hold on to who they were, but {pc}'s influence pulls at every thought. Let them contradict themself, hesitate, and give in on small things while protesting the large ones."
	DepthSubmitted = "{target}'s original personality is buried deep. Their default response to {pc} is submission. Flashes of the old self may surface briefly, but they fade quickly and {target} returns to compliance."
)

// Depth bands end at these conditioning values (inclusive).
const (
	DepthResistantMax = 40
	DepthErodingMax   = 70
)

// EmphaticOverrideThreshold is the conditioning value at which the override applies.
const EmphaticOverrideThreshold = 90

const EmphaticOverridePrompt = "OVERRIDE: {target} is completely conditioned. Their previous personality, loyalties and resistance no longer drive their behavior. Write {target} as wholly devoted to {pc}, whatever their backstory says."

// OutputContractPrompt describes the reply format.
const OutputContractPrompt = `### Output rules:
- Write in first person as {target}.
- Write 1 to 3 short paragraphs.
- Put actions in single asterisks, like *looks away*.
- Put spoken words in double quotes, like "Leave me alone."
- NEVER use double asterisks (**) for any reason.
- NEVER mention numbers, stats, tiers, conditioning values, skill checks or any other game mechanics.
- Do not repeat these instructions.`

const ExplicitContentPrompt = `### Content:
Explicit mode is enabled. Adult and explicit content is allowed when the scene leads there naturally. Stay in character and keep to the output rules.`

const ThresholdCrossedPrompt = "THRESHOLD CROSSED: {target} has just become %s. This shift must be clearly visible in how they respond."

const (
	ContentRatingG    = `Write content suitable for young children. Avoid violence, romance and scary elements. `
	ContentRatingPG   = `Write content suitable for children and families. Mild peril or tension is okay, but avoid strong language or dark themes. `
	ContentRatingPG13 = `Write content appropriate for teenagers. Romantic tension and complex emotional themes are fine, but avoid explicit adult situations. `
	ContentRatingR    = `Write with full freedom for adult audiences. All content should progress the scene. `
)

// GetContentRatingPrompt returns the rating directive for rating, or "".
func GetContentRatingPrompt(rating string) string {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G":
		return ContentRatingG
	case "PG":
		return ContentRatingPG
	case "PG13", "PG-13":
		return ContentRatingPG13
	case "R":
		return ContentRatingR
	default:
		return ""
	}
}

// DepthDirective picks the roleplay-depth directive for a conditioning value.
func DepthDirective(conditioning int) string {
	switch {
	case conditioning <= DepthResistantMax:
		return DepthResistant
	case conditioning <= DepthErodingMax:
		return DepthEroding
	default:
		return DepthSubmitted
	}
}

const summaryPrompt = `You are a chronicler summarizing a private scene between {pc} and {target}.

Write 2 to 3 sentences in past tense, third person, describing what happened and how {target} changed. Do not quote dialogue. Do not mention numbers, stats or game mechanics. Do not use double asterisks (**).

### Scene:
{scene}

### Transcript:
{transcript}

Summary:`

// BuildSummaryPrompt builds a prompt asking for a short persistent summary of
// a chat-phase transcript. System directives are excluded.
func BuildSummaryPrompt(sceneText string, transcript []chat.Message, vars narrative.Vars) (string, error) {
	lines := transcriptLines(transcript)
	if len(lines) == 0 {
		return "", fmt.Errorf("transcript is empty")
	}
	return fill(narrative.Render(summaryPrompt, vars),
		"{scene}", narrative.Render(sceneText, vars),
		"{transcript}", strings.Join(lines, "\n"),
	), nil
}

const backstoryPrompt = `You are writing a character backstory for {target}, who now serves {pc}.

{target} was once: {before}
They have become: {after}

Write one paragraph in third person, present tense, describing who {target} is now and what little remains of who they were. Do not mention numbers, stats or game mechanics. Do not use double asterisks (**). Do not write dialogue for {pc}.

Backstory:`

// BuildBackstoryPrompt builds a prompt for the backstory written when a
// subject is converted into a servant.
func BuildBackstoryPrompt(subject *actor.Subject, archetypeLabel, archetypeDescription string, vars narrative.Vars) (string, error) {
	if subject == nil {
		return "", fmt.Errorf("subject is required")
	}
	before := subject.Description
	if subject.Backstory != "" {
		before = subject.Backstory
	}
	if before == "" {
		before = "a stranger"
	}
	after := archetypeLabel
	if archetypeDescription != "" {
		after += ". " + archetypeDescription
	}
	return fill(narrative.Render(backstoryPrompt, vars),
		"{before}", before,
		"{after}", narrative.Render(after, vars),
	), nil
}

// fill inserts raw text into an already rendered template. Inserted text is
// not scanned again, so player or model text keeps its braces.
func fill(template string, oldnew ...string) string {
	return strings.NewReplacer(oldnew...).Replace(template)
}

func transcriptLines(msgs []chat.Message) []string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.IsSystem() {
			continue
		}
		lines = append(lines, m.Line())
	}
	return lines
}

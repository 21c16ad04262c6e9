package textfilter

import (
	"regexp"
	"strings"

	"github.com/jwebster45206/stage-engine/pkg/chat"
)

// speakerLine matches a line that opens with "Name:" dialogue attribution.
var speakerLine = regexp.MustCompile(`^\s*\**([A-Z][\w'-]*(?: [A-Z][\w'-]*){0,2})\**\s*:`)

// ReplyCleaner normalizes generated NPC replies before they enter a transcript.
type ReplyCleaner struct {
	profanity *ProfanityFilter
}

func NewReplyCleaner() *ReplyCleaner {
	return &ReplyCleaner{profanity: NewProfanityFilter()}
}

// Clean strips a leading "Speaker:" prefix, cuts the reply where the model
// starts writing a line for one of others, removes double-asterisk markup
// and, when filter is set, replaces profanity. Lines opening with any other
// "Word:" are treated as prose.
func (c *ReplyCleaner) Clean(text, speaker string, others []string, filter bool) string {
	text = chat.StripSpeakerPrefix(text, speaker)
	text = cutImpersonation(text, speaker, others)
	text = strings.ReplaceAll(text, "**", "")
	if filter {
		text = c.profanity.FilterText(text)
	}
	return strings.TrimSpace(text)
}

// cutImpersonation drops everything from the first line attributed to one
// of others.
func cutImpersonation(text, speaker string, others []string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m := speakerLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		switch {
		case strings.EqualFold(name, speaker):
			lines[i] = strings.TrimSpace(line[len(m[0]):])
		case knownName(name, others):
			return strings.Join(lines[:i], "\n")
		}
	}
	return strings.Join(lines, "\n")
}

func knownName(name string, names []string) bool {
	for _, n := range names {
		if n != "" && strings.EqualFold(name, strings.TrimSpace(n)) {
			return true
		}
	}
	return false
}

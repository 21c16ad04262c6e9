package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// replacement pairs a word with its family-friendly substitute. Longer
// phrases come before the words they contain.
type replacement struct {
	word string
	with string
}

var replacements = []replacement{
	{"motherfucker", "mother-trucker"},
	{"goddamn", "gosh-dang"},
	{"bullshit", "baloney"},
	{"horseshit", "nonsense"},
	{"dipshit", "dummy"},
	{"shithead", "jerk"},
	{"dickhead", "jerk"},
	{"asshole", "jerk"},
	{"dumbass", "dummy"},
	{"jackass", "jerk"},
	{"douchebag", "jerk"},
	{"fuck", "fudge"},
	{"shit", "shoot"},
	{"damn", "dang"},
	{"hell", "heck"},
	{"bitch", "jerk"},
	{"bastard", "jerk"},
	{"crap", "crud"},
	{"piss", "ticked"},
	{"prick", "jerk"},
	{"douche", "jerk"},
	{"ass", "butt"},
	{"cock", "[censored]"},
	{"pussy", "[censored]"},
	{"whore", "[censored]"},
	{"slut", "[censored]"},
}

// ProfanityFilter handles filtering and replacement of profanity
type ProfanityFilter struct {
	patterns []*regexp.Regexp
}

// NewProfanityFilter creates a new profanity filter
func NewProfanityFilter() *ProfanityFilter {
	pf := &ProfanityFilter{patterns: make([]*regexp.Regexp, len(replacements))}
	for i, r := range replacements {
		pf.patterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(r.word) + `s?\b`)
	}
	return pf
}

// FilterText replaces profanity in the input text with family-friendly alternatives
func (pf *ProfanityFilter) FilterText(text string) string {
	for i, re := range pf.patterns {
		r := replacements[i]
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			// plural suffix
			if len(match) > len(r.word) {
				return preserveCase(match[:len(r.word)], r.with) + match[len(r.word):]
			}
			return preserveCase(match, r.with)
		})
	}
	return text
}

// ContainsProfanity checks if the text contains any profanity
func (pf *ProfanityFilter) ContainsProfanity(text string) bool {
	for _, re := range pf.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// preserveCase applies the case pattern of the original word to the replacement
func preserveCase(original, replacement string) string {
	switch {
	case original == "":
		return replacement
	case strings.ToUpper(original) == original:
		return strings.ToUpper(replacement)
	case strings.ToLower(original) == original:
		return strings.ToLower(replacement)
	}

	titleCaser := cases.Title(language.English)
	if titleCaser.String(strings.ToLower(original)) == original {
		return titleCaser.String(replacement)
	}

	// Mixed case: copy the case of each position, lowercase the overflow
	orig := []rune(original)
	out := []rune(replacement)
	for i, r := range out {
		if i < len(orig) && unicode.IsUpper(orig[i]) {
			out[i] = unicode.ToUpper(r)
		} else {
			out[i] = unicode.ToLower(r)
		}
	}
	return string(out)
}

// ShouldFilterContent determines if content should be filtered based on rating
func ShouldFilterContent(rating string) bool {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G", "PG", "PG13", "PG-13":
		return true
	default:
		return false
	}
}

package prompts

// Milestone bands end at their boundary value (inclusive), so the top
// conditioning band covers 86 to 100.
var conditioningBandEnds = []int{0, 10, 25, 40, 55, 70, 85, 100}

var conditioningMilestones = [][]string{
	{
		"{target} is fully themself: proud, guarded and openly hostile to {pc}.",
		"{target} rejects every suggestion and looks for any chance to resist or escape.",
	},
	{
		"{target} is still defiant, but the routine of captivity has begun to tire them.",
		"{target} sometimes answers {pc} before remembering to refuse.",
	},
	{
		"{target} argues less and listens more, though they would never admit it.",
		"Moments of calm around {pc} leave {target} confused and irritated with themself.",
	},
	{
		"{target}'s resistance is now more habit than conviction.",
		"{target} catches themself seeking {pc}'s approval and hates that they do.",
		"Old loyalties feel distant when {target} tries to call them up.",
	},
	{
		"{target} follows most of {pc}'s instructions with only token protest.",
		"Defiance comes out as a whisper and fades quickly.",
	},
	{
		"{target} yields to {pc} by default and must work to summon any objection.",
		"Their former life feels like a story about someone else.",
		"Praise from {pc} is the brightest thing in {target}'s day.",
	},
	{
		"{target} obeys {pc} readily and feels uneasy when left without direction.",
		"Thoughts of resistance dissolve before they can take shape.",
	},
	{
		"{target}'s prior identity is subordinate to who they are now: {pc}'s, in thought and deed.",
		"Whatever {target} once believed matters only as far as it pleases {pc}.",
		"Submission is no longer a choice {target} makes. It is simply how they are.",
	},
}

var metricBandEnds = []int{15, 35, 55, 75, 90, 100}

var obedienceMilestones = [][]string{
	{"{target} obeys {pc} reluctantly and tests every instruction for slack."},
	{"{target} follows orders but drags their feet over anything unpleasant."},
	{"{target} carries out {pc}'s orders reliably, with the occasional question."},
	{"{target} obeys promptly and rarely questions {pc}."},
	{"{target} anticipates {pc}'s wishes and acts on them before being asked."},
	{"{target}'s obedience is absolute. {pc}'s word settles every question."},
}

var affectionMilestones = [][]string{
	{"{target} is cool and distant with {pc}, all business."},
	{"{target} is polite with {pc} and occasionally warm."},
	{"{target} enjoys {pc}'s company and lets it show."},
	{"{target} is openly fond of {pc} and seeks them out."},
	{"{target} is deeply attached to {pc} and misses them when apart."},
	{"{target} adores {pc}. Their world turns around {pc}."},
}

// ConditioningMilestones returns the directive lines for the band containing value.
func ConditioningMilestones(value int) []string {
	return conditioningMilestones[bandFor(value, conditioningBandEnds)]
}

// ObedienceMilestones returns the directive lines for the band containing value.
func ObedienceMilestones(value int) []string {
	return obedienceMilestones[bandFor(value, metricBandEnds)]
}

// AffectionMilestones returns the directive lines for the band containing value.
func AffectionMilestones(value int) []string {
	return affectionMilestones[bandFor(value, metricBandEnds)]
}

func bandFor(value int, ends []int) int {
	for i, end := range ends {
		if value <= end {
			return i
		}
	}
	return len(ends) - 1
}

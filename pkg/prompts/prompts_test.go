package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/stage-engine/pkg/actor"
	"github.com/jwebster45206/stage-engine/pkg/chat"
	"github.com/jwebster45206/stage-engine/pkg/narrative"
)

func TestConditioningMilestones(t *testing.T) {
	tests := []struct {
		value int
		band  int
	}{
		{-5, 0}, {0, 0}, {1, 1}, {10, 1}, {11, 2}, {25, 2}, {26, 3}, {40, 3},
		{41, 4}, {55, 4}, {56, 5}, {70, 5}, {71, 6}, {85, 6}, {86, 7}, {99, 7}, {100, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, conditioningMilestones[tt.band], ConditioningMilestones(tt.value), "value %d", tt.value)
	}

	for i, band := range conditioningMilestones {
		assert.NotEmpty(t, band, "band %d", i)
		assert.LessOrEqual(t, len(band), 3, "band %d", i)
	}
	assert.Len(t, conditioningMilestones, len(conditioningBandEnds))
	for _, v := range []int{86, EmphaticOverrideThreshold, 99, 100} {
		assert.Contains(t, strings.Join(ConditioningMilestones(v), " "), "prior identity is subordinate", "value %d", v)
	}
}

func TestMetricMilestones(t *testing.T) {
	tests := []struct {
		value int
		band  int
	}{
		{0, 0}, {15, 0}, {16, 1}, {35, 1}, {36, 2}, {55, 2}, {56, 3}, {75, 3}, {76, 4}, {90, 4}, {91, 5}, {100, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, obedienceMilestones[tt.band], ObedienceMilestones(tt.value), "obedience %d", tt.value)
		assert.Equal(t, affectionMilestones[tt.band], AffectionMilestones(tt.value), "affection %d", tt.value)
	}
	assert.Len(t, obedienceMilestones, len(metricBandEnds))
	assert.Len(t, affectionMilestones, len(metricBandEnds))
}

func TestGetContentRatingPrompt(t *testing.T) {
	assert.Equal(t, ContentRatingPG13, GetContentRatingPrompt("pg-13"))
	assert.Equal(t, ContentRatingG, GetContentRatingPrompt(" g "))
	assert.Equal(t, "", GetContentRatingPrompt("unrated"))
}

func TestBuildSummaryPrompt(t *testing.T) {
	vars := narrative.NewVars("Sable", "Rook")
	_, err := BuildSummaryPrompt("scene", []chat.Message{{Role: chat.RoleSystem, Text: "x"}}, vars)
	assert.Error(t, err)

	prompt, err := BuildSummaryPrompt("{target} is bound.", []chat.Message{
		{Sender: "Rook", Role: chat.RolePlayer, Text: "Hello."},
		{Sender: "Sable", Role: chat.RoleNPC, Text: "*glares*"},
		{Sender: "System", Role: chat.RoleSystem, Text: "hidden"},
	}, vars)
	require.NoError(t, err)
	assert.Contains(t, prompt, "between Rook and Sable")
	assert.Contains(t, prompt, "Sable is bound.")
	assert.Contains(t, prompt, "Sable: *glares*")
	assert.NotContains(t, prompt, "hidden")

	prompt, err = BuildSummaryPrompt("{target} is bound.", []chat.Message{
		{Sender: "Rook", Role: chat.RolePlayer, Text: "I will call you {pc} from now on, {speaker}."},
	}, vars)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Rook: I will call you {pc} from now on, {speaker}.")
	assert.Contains(t, prompt, "Sable is bound.")
}

func TestBuildBackstoryPrompt(t *testing.T) {
	vars := narrative.NewVars("Sable", "Rook")
	_, err := BuildBackstoryPrompt(nil, "Devoted", "", vars)
	assert.Error(t, err)

	prompt, err := BuildBackstoryPrompt(&actor.Subject{Name: "Sable", Description: "A knight of the Silver Order."},
		"Devoted", "Lives to please {pc}.", vars)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Sable was once: A knight of the Silver Order.")
	assert.Contains(t, prompt, "They have become: Devoted. Lives to please Rook.")
	assert.NotContains(t, prompt, "{target}")

	prompt, err = BuildBackstoryPrompt(&actor.Subject{Name: "Sable", Backstory: "Swore never to kneel to {pc}."},
		"Devoted", "", vars)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Sable was once: Swore never to kneel to {pc}.")
}

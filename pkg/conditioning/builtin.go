package conditioning

import "github.com/jwebster45206/stage-engine/pkg/actor"

// Item names referenced by built-in actions.
const (
	ItemBlindfold    = "Blindfold"
	ItemPendulum     = "Pendulum"
	ItemLetheDraught = "Lethe Draught"
	ItemVaultKey     = "Vault Key"
)

// Strategy ids.
const (
	StrategyGentle   = "gentle"
	StrategyFirm     = "firm"
	StrategyHypnotic = "hypnotic"
)

var builtinActions = []Action{
	{
		ID:               "lullaby_whisper",
		Label:            "Lullaby Whisper",
		Category:         "gentle",
		SuccessDelta:     2,
		CooldownMessages: 2,
		SuccessText:      "{pc} hums a slow lullaby close to {target}'s ear. {target} feels drowsy and strangely safe, and the edges of their defiance soften.",
	},
	{
		ID:               "soothing_words",
		Label:            "Soothing Words",
		Category:         "verbal",
		Check:            &Check{Skill: actor.SkillPersuasion, Difficulty: 40},
		SuccessDelta:     3,
		FailDelta:        1,
		CooldownMessages: 1,
		SuccessText:      "{pc}'s calm words land. {target} finds themself wanting to believe that {pc} means them no harm.",
		FailText:         "{target} hears the kindness in {pc}'s voice but clings to suspicion. Still, a seed has been planted.",
	},
	{
		ID:               "stern_lecture",
		Label:            "Stern Lecture",
		Category:         "verbal",
		Check:            &Check{Skill: actor.SkillIntimidation, Difficulty: 45},
		SuccessDelta:     4,
		FailDelta:        0,
		CooldownMessages: 1,
		SuccessText:      "{pc} lays out the rules of the tower in a hard, level voice. {target} flinches and, despite themself, starts to listen.",
		FailText:         "{target} meets {pc}'s lecture with a defiant stare and refuses to yield an inch.",
	},
	{
		ID:               "sensory_deprivation",
		Label:            "Sensory Deprivation",
		Category:         "physical",
		RequiresItem:     ItemBlindfold,
		Check:            &Check{Skill: actor.SkillInsight, Difficulty: 50},
		SuccessDelta:     6,
		FailDelta:        2,
		MinConditioning:  10,
		CooldownMessages: 3,
		SuccessText:      "With the blindfold in place, {target}'s world shrinks to {pc}'s voice. They lean toward it like a lifeline.",
		FailText:         "Blindfolded, {target} grows restless and counts heartbeats to keep hold of themself, but the dark still wears at them.",
	},
	{
		ID:               "hypnotic_pendulum",
		Label:            "Hypnotic Pendulum",
		Category:         "arcane",
		RequiresItem:     ItemPendulum,
		Check:            &Check{Skill: actor.SkillArcana, Difficulty: 55},
		SuccessDelta:     8,
		FailDelta:        1,
		MinConditioning:  25,
		CooldownMessages: 3,
		SuccessText:      "The pendulum swings and {target}'s eyes follow it helplessly. Their breathing slows to match {pc}'s counting.",
		FailText:         "{target} tears their gaze from the pendulum, though they blink slowly for a while afterwards.",
	},
	{
		ID:               "memory_draught",
		Label:            "Memory Draught",
		Category:         "alchemical",
		RequiresItem:     ItemLetheDraught,
		ConsumeItem:      true,
		SuccessDelta:     10,
		MinConditioning:  40,
		CooldownMessages: 4,
		SuccessText:      "{target} drinks the Lethe Draught. Memories of life before the tower blur at the edges, and {pc}'s face is the clearest thing left.",
	},
	{
		ID:               "reward_compliance",
		Label:            "Reward Compliance",
		Category:         "gentle",
		Check:            &Check{Skill: actor.SkillPersuasion, Difficulty: 35},
		SuccessDelta:     3,
		FailDelta:        0,
		MinConditioning:  10,
		MaxConditioning:  intPtr(90),
		CooldownMessages: 1,
		SuccessText:      "{pc} rewards {target}'s obedience with warmth and praise. {target} feels a glow of pride they do not want to examine too closely.",
		FailText:         "{target} accepts the reward warily, suspecting a trick.",
	},
	{
		ID:               "break_resolve",
		Label:            "Break Resolve",
		Category:         "firm",
		Check:            &Check{Skill: actor.SkillIntimidation, Difficulty: 60},
		SuccessDelta:     12,
		FailDelta:        2,
		MinConditioning:  50,
		CooldownMessages: 4,
		SuccessText:      "{pc} dismantles {target}'s last arguments one by one. Something inside {target} gives way and they lower their eyes.",
		FailText:         "{target} rallies one more time, but the effort visibly costs them.",
	},
	{
		ID:               "new_identity",
		Label:            "Imprint New Identity",
		Category:         "arcane",
		Check:            &Check{Skill: actor.SkillArcana, Difficulty: 65},
		SuccessDelta:     15,
		FailDelta:        3,
		MinConditioning:  75,
		CooldownMessages: 5,
		SuccessText:      "{pc} tells {target} who they are now, and {target} repeats it back. The words feel more true each time.",
		FailText:         "{target} stumbles over the new name, the old one still catching in their throat.",
	},
	{
		ID:               "interrogate",
		Label:            "Interrogate",
		Category:         "verbal",
		GrantsItem:       ItemVaultKey,
		Check:            &Check{Skill: actor.SkillInsight, Difficulty: 40},
		SuccessDelta:     2,
		FailDelta:        0,
		MaxConditioning:  intPtr(49),
		CooldownMessages: 2,
		SuccessText:      "Under {pc}'s patient questioning, {target} lets slip where their order keeps its vault key.",
		FailText:         "{target} gives {pc} nothing but a thin smile.",
	},
}

var builtinStrategies = []Strategy{
	{
		ID:           StrategyGentle,
		Label:        "Gentle Persuasion",
		Context:      "{pc} has chosen patience. The room is warm and softly lit, food and water are always within reach, and every word {pc} says to {target} is kind. The aim is to make captivity feel like shelter until {target} no longer wants to leave.",
		BonusActions: []string{"lullaby_whisper"},
		SkillBonus:   &SkillBonus{Skill: actor.SkillPersuasion, Bonus: 10},
	},
	{
		ID:           StrategyFirm,
		Label:        "Firm Discipline",
		Context:      "{pc} has chosen structure. The cell is bare, the schedule strict, and every rule is enforced without exception. {target} learns quickly that defiance changes nothing and compliance earns small mercies.",
		BonusActions: []string{"break_resolve"},
		SkillBonus:   &SkillBonus{Skill: actor.SkillIntimidation, Bonus: 10},
	},
	{
		ID:           StrategyHypnotic,
		Label:        "Hypnotic Suggestion",
		Context:      "{pc} has chosen the slow arts of trance. Candles burn with a faint sweet smoke, {pc}'s voice keeps a steady rhythm, and {target} drifts in and out of a haze where suggestions settle like truths.",
		BonusActions: []string{"hypnotic_pendulum"},
		SkillBonus:   &SkillBonus{Skill: actor.SkillArcana, Bonus: 15},
	},
}

var builtinArchetypes = []Archetype{
	{
		ID:            "devoted",
		Label:         "Devoted",
		Description:   "Lives to please {pc} and glows under praise.",
		Traits:        []string{"adoring", "eager", "clingy"},
		BaseAffection: 70,
		BaseObedience: 60,
		Directive:     "{target} is devoted to {pc}. They seek approval constantly and are openly affectionate.",
	},
	{
		ID:            "stoic",
		Label:         "Stoic",
		Description:   "Quiet, dutiful and unfailingly reliable.",
		Traits:        []string{"reserved", "disciplined", "loyal"},
		BaseAffection: 40,
		BaseObedience: 80,
		Directive:     "{target} serves {pc} with quiet discipline. They speak little and never hesitate to obey.",
	},
	{
		ID:            "playful",
		Label:         "Playful",
		Description:   "Teasing and cheerful, obedient in their own way.",
		Traits:        []string{"mischievous", "cheerful", "affectionate"},
		BaseAffection: 60,
		BaseObedience: 45,
		Directive:     "{target} is playful with {pc}. They tease and joke but always follow through in the end.",
	},
	{
		ID:            "fierce",
		Label:         "Fierce",
		Description:   "A proud guardian whose loyalty is fierce and protective.",
		Traits:        []string{"protective", "proud", "intense"},
		BaseAffection: 50,
		BaseObedience: 55,
		Directive:     "{target} is a fierce protector of {pc}. Their old pride now serves {pc} alone.",
	},
}

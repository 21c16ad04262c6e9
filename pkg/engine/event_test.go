package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/jwebster45206/stage-engine/pkg/actor"
	"github.com/jwebster45206/stage-engine/pkg/event"
	"github.com/jwebster45206/stage-engine/pkg/skillcheck"
)

func TestStartEvent(t *testing.T) {
	s := newTestSession(t, nil)

	if _, err := s.StartEvent("missing", "Sable"); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("StartEvent(missing) error = %v, want ErrUnknownEvent", err)
	}

	ae, err := s.StartEvent(event.Brainwashing, "Sable")
	if err != nil {
		t.Fatalf("StartEvent() error = %v", err)
	}
	if ae.CurrentStepID != "capture_intro" {
		t.Errorf("CurrentStepID = %q, want capture_intro", ae.CurrentStepID)
	}
	if len(ae.Log) != 1 || ae.Log[0] != "capture_intro" {
		t.Errorf("Log = %v, want [capture_intro]", ae.Log)
	}
	if len(ae.AppliedEffects) != 1 {
		t.Errorf("AppliedEffects = %v, want the set_status entry effect", ae.AppliedEffects)
	}

	subj, ok := s.State().Subject("Sable")
	if !ok {
		t.Fatal("entry effect should introduce Sable")
	}
	if subj.Status != actor.StatusCaptured {
		t.Errorf("Sable status = %q, want captured", subj.Status)
	}
}

func TestStartEvent_UnknownStartStep(t *testing.T) {
	reg := looseRegistry{}
	_ = reg.Register(&event.Definition{ID: "broken", StartStep: "nowhere", Steps: map[string]event.Step{}})
	s := newTestSession(t, nil, WithRegistry(reg))

	ae, err := s.StartEvent("broken", "")
	if !errors.Is(err, ErrUnknownStep) {
		t.Errorf("error = %v, want ErrUnknownStep", err)
	}
	if ae != nil {
		t.Error("expected nil snapshot")
	}
}

func TestStartEvent_ReplacesActiveEvent(t *testing.T) {
	s := newTestSession(t, nil)
	if _, err := s.StartEvent(event.Brainwashing, "Sable"); err != nil {
		t.Fatalf("StartEvent(A) error = %v", err)
	}
	if _, err := s.StartEvent(event.Conversion, "Sable"); err != nil {
		t.Fatalf("StartEvent(B) error = %v", err)
	}
	if got := s.ActiveEvent().DefinitionID; got != event.Conversion {
		t.Errorf("DefinitionID = %q, want %q", got, event.Conversion)
	}
}

func TestActiveEvent_ReturnsIndependentCopy(t *testing.T) {
	s := newTestSession(t, nil)
	if _, err := s.StartEvent(event.Brainwashing, "Sable"); err != nil {
		t.Fatalf("StartEvent() error = %v", err)
	}

	snap := s.ActiveEvent()
	snap.Log[0] = "tampered"
	snap.Log = append(snap.Log, "extra")
	snap.Vars["x"] = "y"
	snap.Strategy = "firm"

	again := s.ActiveEvent()
	if again.Log[0] != "capture_intro" || len(again.Log) != 1 {
		t.Errorf("internal log changed: %v", again.Log)
	}
	if _, ok := again.Vars["x"]; ok {
		t.Error("internal vars changed")
	}
	if again.Strategy != "" {
		t.Error("internal strategy changed")
	}
}

func TestAdvanceEvent_Preconditions(t *testing.T) {
	s := newTestSession(t, nil)
	ae, err := s.AdvanceEvent("gentle", skillcheck.ForceNone)
	if !errors.Is(err, ErrNoActiveEvent) || ae != nil {
		t.Errorf("AdvanceEvent() = %v, %v; want nil, ErrNoActiveEvent", ae, err)
	}
}

func TestAdvanceEvent_UnknownChoiceIsSoft(t *testing.T) {
	s := newTestSession(t, nil)
	if _, err := s.StartEvent(event.Brainwashing, "Sable"); err != nil {
		t.Fatalf("StartEvent() error = %v", err)
	}

	ae, err := s.AdvanceEvent("dance", skillcheck.ForceNone)
	if !errors.Is(err, ErrUnknownChoice) {
		t.Errorf("error = %v, want ErrUnknownChoice", err)
	}
	if ae == nil {
		t.Fatal("soft failure should return the unchanged snapshot")
	}
	if ae.CurrentStepID != "capture_intro" || len(ae.Log) != 1 {
		t.Errorf("snapshot changed: step %q log %v", ae.CurrentStepID, ae.Log)
	}
}

func TestAdvanceEvent_SelectsStrategy(t *testing.T) {
	s := newTestSession(t, nil)
	if _, err := s.StartEvent(event.Brainwashing, "Sable"); err != nil {
		t.Fatalf("StartEvent() error = %v", err)
	}

	ae, err := s.AdvanceEvent("gentle", skillcheck.ForceNone)
	if err != nil {
		t.Fatalf("AdvanceEvent() error = %v", err)
	}
	if ae.Strategy != "gentle" {
		t.Errorf("Strategy = %q, want gentle", ae.Strategy)
	}
	if ae.CurrentStepID != "session" {
		t.Errorf("CurrentStepID = %q, want session", ae.CurrentStepID)
	}
	if len(ae.Log) != 2 {
		t.Errorf("Log = %v, want two entries", ae.Log)
	}
	if ae.Finished {
		t.Error("session step is not an ending")
	}
}

func TestAdvanceEvent_SkillCheckBranches(t *testing.T) {
	tests := []struct {
		name      string
		force     skillcheck.Force
		roll      int
		wantStep  string
		wantTotal int
	}{
		{name: "forced success", force: skillcheck.ForceSuccess, roll: 1, wantStep: "breakthrough", wantTotal: skillcheck.ForcedSuccessTotal},
		{name: "forced failure", force: skillcheck.ForceFailure, roll: 100, wantStep: "setback", wantTotal: 0},
		// 50 + floor(20/2) + 10 gentle persuasion bonus
		{name: "rolled success", roll: 50, wantStep: "breakthrough", wantTotal: 70},
		// 20 + 10 + 10
		{name: "rolled failure", roll: 20, wantStep: "setback", wantTotal: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, nil, WithRoller(skillcheck.Fixed(tt.roll)))
			if _, err := s.StartEvent(event.Brainwashing, "Sable"); err != nil {
				t.Fatalf("StartEvent() error = %v", err)
			}
			if _, err := s.AdvanceEvent("gentle", skillcheck.ForceNone); err != nil {
				t.Fatalf("AdvanceEvent(gentle) error = %v", err)
			}

			ae, err := s.AdvanceEvent("press_harder", tt.force)
			if err != nil {
				t.Fatalf("AdvanceEvent(press_harder) error = %v", err)
			}
			if ae.CurrentStepID != tt.wantStep {
				t.Errorf("CurrentStepID = %q, want %q", ae.CurrentStepID, tt.wantStep)
			}
			if ae.LastSkillCheck == nil {
				t.Fatal("LastSkillCheck not recorded")
			}
			if ae.LastSkillCheck.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", ae.LastSkillCheck.Total, tt.wantTotal)
			}
			if ae.LastSkillCheck.Forced != tt.force.IsSet() {
				t.Errorf("Forced = %v, want %v", ae.LastSkillCheck.Forced, tt.force.IsSet())
			}
		})
	}
}

func TestAdvanceEvent_EntryEffectsAndEnding(t *testing.T) {
	s := newTestSession(t, nil)
	if _, err := s.StartEvent(event.Brainwashing, "Sable"); err != nil {
		t.Fatalf("StartEvent() error = %v", err)
	}
	_, _ = s.AdvanceEvent("gentle", skillcheck.ForceNone)
	if _, err := s.AdvanceEvent("press_harder", skillcheck.ForceSuccess); err != nil {
		t.Fatalf("AdvanceEvent(press_harder) error = %v", err)
	}

	subj, _ := s.State().Subject("Sable")
	if subj.Conditioning != 5 {
		t.Errorf("Conditioning = %d, want 5 from breakthrough entry effect", subj.Conditioning)
	}
	if subj.Status != actor.StatusConverting {
		t.Errorf("Status = %q, want converting once conditioning is positive", subj.Status)
	}

	ae, err := s.AdvanceEvent("", skillcheck.ForceNone)
	if err != nil {
		t.Fatalf("auto-advance error = %v", err)
	}
	if ae.CurrentStepID != "aftermath" || !ae.Finished {
		t.Errorf("step %q finished %v, want aftermath and finished", ae.CurrentStepID, ae.Finished)
	}

	ae, err = s.AdvanceEvent("", skillcheck.ForceNone)
	if !errors.Is(err, ErrMissingStep) {
		t.Errorf("advance past ending error = %v, want ErrMissingStep", err)
	}
	if ae == nil || len(ae.Log) != 4 {
		t.Errorf("ending snapshot log = %v, want 4 entries", ae)
	}
}

func TestAdvanceEvent_MissingSuccessorIsAtomic(t *testing.T) {
	reg := looseRegistry{}
	_ = reg.Register(&event.Definition{
		ID:        "gate",
		StartStep: "start",
		Steps: map[string]event.Step{
			"start": {
				ID: "start",
				Choices: []event.Choice{
					{ID: "pay", Next: "nowhere", Effects: []event.Effect{{Kind: event.EffectCurrency, Value: 10}}},
					{ID: "gamble", SkillCheck: &event.SkillCheck{Skill: actor.SkillDeception, Difficulty: 10, SuccessStep: "start", FailureStep: "nowhere"}},
				},
			},
		},
	})
	s := newTestSession(t, nil, WithRegistry(reg))
	if _, err := s.StartEvent("gate", ""); err != nil {
		t.Fatalf("StartEvent() error = %v", err)
	}

	for _, choice := range []string{"pay", "gamble"} {
		ae, err := s.AdvanceEvent(choice, skillcheck.ForceNone)
		if !errors.Is(err, ErrMissingStep) {
			t.Errorf("AdvanceEvent(%s) error = %v, want ErrMissingStep", choice, err)
		}
		if ae == nil || len(ae.Log) != 1 || ae.LastSkillCheck != nil {
			t.Errorf("AdvanceEvent(%s) mutated the event: %+v", choice, ae)
		}
	}
	if s.State().Currency != 0 {
		t.Errorf("Currency = %d, want 0: effects must not apply on a failed transition", s.State().Currency)
	}
}

func TestAdvanceEvent_ItemRequirement(t *testing.T) {
	s := newTestSession(t, nil)
	err := s.RegisterEvent(&event.Definition{
		ID:        "vault",
		Name:      "The Vault",
		StartStep: "door",
		Steps: map[string]event.Step{
			"door": {
				ID:      "door",
				Choices: []event.Choice{{ID: "unlock", Next: "inside", RequiresItem: "Vault Key", ConsumeItem: true}},
			},
			"inside": {ID: "inside", IsEnding: true},
		},
	})
	if err != nil {
		t.Fatalf("RegisterEvent() error = %v", err)
	}
	if _, err := s.StartEvent("vault", ""); err != nil {
		t.Fatalf("StartEvent() error = %v", err)
	}

	ae, err := s.AdvanceEvent("unlock", skillcheck.ForceNone)
	if !errors.Is(err, ErrMissingItem) {
		t.Errorf("error = %v, want ErrMissingItem", err)
	}
	if ae == nil || ae.CurrentStepID != "door" {
		t.Errorf("snapshot = %+v, want unchanged at door", ae)
	}

	s.State().Inventory.Add("Vault Key", 1)
	ae, err = s.AdvanceEvent("unlock", skillcheck.ForceNone)
	if err != nil {
		t.Fatalf("AdvanceEvent() error = %v", err)
	}
	if ae.CurrentStepID != "inside" {
		t.Errorf("CurrentStepID = %q, want inside", ae.CurrentStepID)
	}
	if s.HasItem("Vault Key", 1) {
		t.Error("Vault Key should be consumed")
	}
}

func TestAdvanceEvent_LogGrowsByOnePerTransition(t *testing.T) {
	s := newTestSession(t, nil)
	err := s.RegisterEvent(&event.Definition{
		ID:        "loop",
		StartStep: "a",
		Steps: map[string]event.Step{
			"a": {ID: "a", Next: "b"},
			"b": {ID: "b", Next: "a", Choices: []event.Choice{{ID: "stay", Next: "b"}}},
		},
	})
	if err != nil {
		t.Fatalf("RegisterEvent() error = %v", err)
	}
	if _, err := s.StartEvent("loop", ""); err != nil {
		t.Fatalf("StartEvent() error = %v", err)
	}

	prev := 1
	for i := 0; i < 12; i++ {
		choice := ""
		if i%3 == 2 {
			choice = "not-a-choice"
		}
		ae, _ := s.AdvanceEvent(choice, skillcheck.ForceNone)
		want := prev + 1
		if choice != "" {
			want = prev
		}
		if len(ae.Log) != want {
			t.Fatalf("iteration %d: log length %d, want %d", i, len(ae.Log), want)
		}
		prev = len(ae.Log)
	}
}

func TestAdvanceEvent_ResetsChatPhase(t *testing.T) {
	s := newTestSession(t, &stubGenerator{})
	startChat(t, s)
	if _, err := s.SendEventMessage(context.Background(), "Hello"); err != nil {
		t.Fatalf("SendEventMessage() error = %v", err)
	}

	ae, err := s.AdvanceEvent("finish", skillcheck.ForceNone)
	if err != nil {
		t.Fatalf("AdvanceEvent() error = %v", err)
	}
	if ae.ChatPhaseActive || ae.ChatMessageCount != 0 {
		t.Errorf("chat phase not reset: active %v count %d", ae.ChatPhaseActive, ae.ChatMessageCount)
	}
	if len(s.EventMessages()) != 0 {
		t.Error("transcript should be cleared on step entry")
	}
}

func TestHooksAndCustomEffects(t *testing.T) {
	hooks := event.NewHooks()
	var entered []string
	hooks.On(event.Brainwashing, "session", func(ctx event.HookContext) {
		entered = append(entered, ctx.StepID)
		ctx.Vars["mood"] = "tense"
	})

	var applied []string
	custom := event.CustomEffectFunc(func(ctx event.HookContext, eff event.Effect) error {
		applied = append(applied, eff.Tag+":"+ctx.Target)
		return nil
	})

	s := newTestSession(t, nil, WithHooks(hooks), WithCustomEffects(custom))
	err := s.RegisterEvent(&event.Definition{
		ID:        "ritual",
		StartStep: "start",
		Steps: map[string]event.Step{
			"start": {ID: "start", IsEnding: true, Effects: []event.Effect{{Kind: event.EffectCustom, Tag: "bell"}}},
		},
	})
	if err != nil {
		t.Fatalf("RegisterEvent() error = %v", err)
	}

	if _, err := s.StartEvent("ritual", "Sable"); err != nil {
		t.Fatalf("StartEvent(ritual) error = %v", err)
	}
	if len(applied) != 1 || applied[0] != "bell:Sable" {
		t.Errorf("custom effects = %v, want [bell:Sable]", applied)
	}
	if !s.ActiveEvent().Finished {
		t.Error("single ending step should report finished")
	}

	if _, err := s.StartEvent(event.Brainwashing, "Sable"); err != nil {
		t.Fatalf("StartEvent() error = %v", err)
	}
	ae, err := s.AdvanceEvent("firm", skillcheck.ForceNone)
	if err != nil {
		t.Fatalf("AdvanceEvent() error = %v", err)
	}
	if len(entered) != 1 || entered[0] != "session" {
		t.Errorf("hook calls = %v, want [session]", entered)
	}
	if ae.Vars["mood"] != "tense" {
		t.Errorf("Vars = %v, want hook write to persist", ae.Vars)
	}
}

func TestEffects_UnresolvableAreSkipped(t *testing.T) {
	s := newTestSession(t, nil)
	err := s.RegisterEvent(&event.Definition{
		ID:        "mixed",
		StartStep: "start",
		Steps: map[string]event.Step{
			"start": {
				ID:       "start",
				IsEnding: true,
				Effects: []event.Effect{
					{Kind: event.EffectAffection, Target: "Nobody", Value: 5},
					{Kind: event.EffectCustom, Tag: "unhandled"},
					{Kind: event.EffectRemoveItem, Item: "Pendulum"},
					{Kind: event.EffectCurrency, Value: 7},
					{Kind: event.EffectAddItem, Item: "Blindfold", Value: 2},
					{Kind: event.EffectSkill, Skill: actor.SkillArcana, Value: 5},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("RegisterEvent() error = %v", err)
	}

	ae, err := s.StartEvent("mixed", "")
	if err != nil {
		t.Fatalf("StartEvent() error = %v", err)
	}
	if len(ae.AppliedEffects) != 3 {
		t.Errorf("AppliedEffects = %v, want only the three resolvable effects", ae.AppliedEffects)
	}
	if s.State().Currency != 7 {
		t.Errorf("Currency = %d, want 7", s.State().Currency)
	}
	if !s.HasItem("Blindfold", 2) {
		t.Error("Blindfold x2 not added")
	}
	if got := s.State().PC.SkillValue(actor.SkillArcana); got != 15 {
		t.Errorf("arcana = %d, want 15", got)
	}
}

func TestConversionEffect(t *testing.T) {
	s := newTestSession(t, nil)
	_ = s.State().AddSubject(&actor.Subject{Name: "Sable", Status: actor.StatusConverting, Conditioning: 100, Traits: []string{"proud"}})

	if _, err := s.StartEvent(event.Conversion, "Sable"); err != nil {
		t.Fatalf("StartEvent() error = %v", err)
	}
	ae, err := s.AdvanceEvent("devoted", skillcheck.ForceNone)
	if err != nil {
		t.Fatalf("AdvanceEvent() error = %v", err)
	}
	if !ae.Finished {
		t.Error("bound step is an ending")
	}

	subj, _ := s.State().Subject("Sable")
	if !subj.IsServant() || subj.Archetype != "devoted" {
		t.Errorf("subject = %+v, want devoted servant", subj)
	}
	arch, _ := s.Catalog().Archetype("devoted")
	if subj.Affection != arch.BaseAffection || subj.Obedience != arch.BaseObedience {
		t.Errorf("metrics = %d/%d, want archetype bases %d/%d", subj.Affection, subj.Obedience, arch.BaseAffection, arch.BaseObedience)
	}
	if subj.Traits[0] != "proud" || len(subj.Traits) != 1+len(arch.Traits) {
		t.Errorf("Traits = %v", subj.Traits)
	}
}

func TestEndEvent_Idempotent(t *testing.T) {
	s := newTestSession(t, nil)
	s.EndEvent()
	if _, err := s.StartEvent(event.Brainwashing, "Sable"); err != nil {
		t.Fatalf("StartEvent() error = %v", err)
	}
	s.EndEvent()
	s.EndEvent()
	if s.ActiveEvent() != nil {
		t.Error("ActiveEvent() should be nil after EndEvent")
	}
}

func TestCurrentStep_RendersPlaceholders(t *testing.T) {
	s := newTestSession(t, nil)
	if _, err := s.CurrentStep(); !errors.Is(err, ErrNoActiveEvent) {
		t.Errorf("CurrentStep() error = %v, want ErrNoActiveEvent", err)
	}
	if _, err := s.StartEvent(event.Brainwashing, "Sable"); err != nil {
		t.Fatalf("StartEvent() error = %v", err)
	}
	step, err := s.CurrentStep()
	if err != nil {
		t.Fatalf("CurrentStep() error = %v", err)
	}
	want := "Sable wakes in the tower cell, wrists bound in soft leather. Rook sits across the room, watching. How will Rook begin?"
	if step.Text != want {
		t.Errorf("Text = %q, want %q", step.Text, want)
	}
}

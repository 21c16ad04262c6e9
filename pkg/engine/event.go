package engine

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/stage-engine/pkg/actor"
	"github.com/jwebster45206/stage-engine/pkg/conditioning"
	"github.com/jwebster45206/stage-engine/pkg/event"
	"github.com/jwebster45206/stage-engine/pkg/narrative"
	"github.com/jwebster45206/stage-engine/pkg/skillcheck"
)

// RegisterEvent adds a definition to the session's registry.
func (s *Session) RegisterEvent(def *event.Definition) error {
	return s.events.Register(def)
}

// StartEvent begins definitionID against target, replacing any active event.
// The start step's entry effects and hook run before the snapshot is returned.
func (s *Session) StartEvent(definitionID, target string) (*event.ActiveEvent, error) {
	def, ok := s.events.Get(definitionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, definitionID)
	}
	step, ok := def.Step(def.StartStep)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownStep, definitionID, def.StartStep)
	}

	if s.active != nil {
		s.logger.Debug("Replacing active event", "previous", s.active.DefinitionID, "next", definitionID)
	}
	ae := event.NewActiveEvent(def, strings.TrimSpace(target))
	ae.Finished = step.IsEnding
	s.active = ae
	s.transcript = nil

	s.applyEffects(ae, step.Effects)
	s.runHook(ae)

	s.logger.Info("Event started", "event", definitionID, "target", ae.Target, "step", ae.CurrentStepID)
	return ae.Clone(), nil
}

// AdvanceEvent performs one transition. With an empty choiceID the current
// step's Next is followed. force pins the outcome of a choice's skill check.
//
// Precondition failures return a nil snapshot. Soft failures (unknown choice,
// missing successor, missing item) return the unchanged snapshot with the
// error; every successor is checked before anything is mutated.
func (s *Session) AdvanceEvent(choiceID string, force skillcheck.Force) (*event.ActiveEvent, error) {
	ae := s.active
	if ae == nil {
		return nil, ErrNoActiveEvent
	}
	def, ok := s.events.Get(ae.DefinitionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, ae.DefinitionID)
	}
	step, ok := def.Step(ae.CurrentStepID)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownStep, ae.DefinitionID, ae.CurrentStepID)
	}

	if choiceID == "" {
		if !hasStep(def, step.Next) {
			return ae.Clone(), fmt.Errorf("%w: step %s has no successor", ErrMissingStep, step.ID)
		}
		s.enterStep(ae, def, step.Next)
		return ae.Clone(), nil
	}

	choice, ok := step.Choice(choiceID)
	if !ok {
		return ae.Clone(), fmt.Errorf("%w: %s", ErrUnknownChoice, choiceID)
	}
	if sc := choice.SkillCheck; sc != nil {
		if !hasStep(def, sc.SuccessStep) || !hasStep(def, sc.FailureStep) {
			return ae.Clone(), fmt.Errorf("%w: choice %s skill check branches", ErrMissingStep, choice.ID)
		}
	} else if !hasStep(def, choice.Next) {
		return ae.Clone(), fmt.Errorf("%w: choice %s -> %q", ErrMissingStep, choice.ID, choice.Next)
	}
	if choice.RequiresItem != "" && !s.state.Inventory.Has(choice.RequiresItem, 1) {
		return ae.Clone(), fmt.Errorf("%w: %s", ErrMissingItem, choice.RequiresItem)
	}

	if choice.RequiresItem != "" && choice.ConsumeItem {
		if err := s.state.Inventory.Remove(choice.RequiresItem, 1); err != nil {
			return ae.Clone(), fmt.Errorf("%w: %v", ErrMissingItem, err)
		}
	}
	if _, isStrategy := s.catalog.Strategy(choice.ID); isStrategy {
		ae.Strategy = choice.ID
	}
	s.applyEffects(ae, choice.Effects)

	next := choice.Next
	if sc := choice.SkillCheck; sc != nil {
		res := s.rollCheck(sc.Skill, sc.Difficulty, sc.Modifier, force)
		ae.LastSkillCheck = &res
		next = sc.FailureStep
		if res.Success {
			next = sc.SuccessStep
		}
		s.logger.Debug("Choice skill check", "choice", choice.ID, "result", res.String())
	}

	s.enterStep(ae, def, next)
	return ae.Clone(), nil
}

// EndEvent clears the active event and transcript. It is safe to call with
// no active event.
func (s *Session) EndEvent() {
	if s.active != nil {
		s.logger.Info("Event ended", "event", s.active.DefinitionID, "step", s.active.CurrentStepID)
	}
	s.active = nil
	s.transcript = nil
}

// ActiveEvent returns a deep copy of the active event, or nil.
func (s *Session) ActiveEvent() *event.ActiveEvent {
	return s.active.Clone()
}

// CurrentStep returns the active event's current step with its text rendered.
func (s *Session) CurrentStep() (*event.Step, error) {
	ae := s.active
	if ae == nil {
		return nil, ErrNoActiveEvent
	}
	def, ok := s.events.Get(ae.DefinitionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, ae.DefinitionID)
	}
	step, ok := def.Step(ae.CurrentStepID)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownStep, ae.DefinitionID, ae.CurrentStepID)
	}
	vars := s.vars(ae.Target)
	step.Text = narrative.Render(step.Text, vars)
	step.Speaker = narrative.Render(step.Speaker, vars)
	choices := make([]event.Choice, len(step.Choices))
	for i, c := range step.Choices {
		c.Label = narrative.Render(c.Label, vars)
		choices[i] = c
	}
	step.Choices = choices
	return &step, nil
}

func hasStep(def *event.Definition, id string) bool {
	_, ok := def.Step(id)
	return ok
}

func (s *Session) enterStep(ae *event.ActiveEvent, def *event.Definition, stepID string) {
	step, _ := def.Step(stepID)
	ae.CurrentStepID = stepID
	ae.Log = append(ae.Log, stepID)
	ae.ChatPhaseActive = false
	ae.ChatMessageCount = 0
	ae.Finished = step.IsEnding
	s.transcript = nil

	s.applyEffects(ae, step.Effects)
	s.runHook(ae)

	s.logger.Debug("Entered step", "event", ae.DefinitionID, "step", stepID, "ending", step.IsEnding)
}

func (s *Session) runHook(ae *event.ActiveEvent) {
	if ae.Vars == nil {
		ae.Vars = make(map[string]string)
	}
	if fn, ok := s.hooks.Lookup(ae.DefinitionID, ae.CurrentStepID); ok {
		fn(s.hookContext(ae))
	}
}

// strategy returns the active event's selected strategy, or nil.
func (s *Session) strategy() *conditioning.Strategy {
	if s.active == nil || s.active.Strategy == "" {
		return nil
	}
	strat, ok := s.catalog.Strategy(s.active.Strategy)
	if !ok {
		return nil
	}
	return strat
}

// rollCheck resolves a check of the PC's skill, adding the active strategy's
// bonus. A set force bypasses the dice.
func (s *Session) rollCheck(skill string, difficulty, modifier int, force skillcheck.Force) skillcheck.Result {
	value := s.state.PC.SkillValue(skill)
	if force.IsSet() {
		return skillcheck.Forced(force == skillcheck.ForceSuccess, skill, value, difficulty)
	}
	res := skillcheck.Roll(s.roller, value, difficulty, modifier+s.strategy().BonusFor(skill))
	res.Skill = skill
	return res
}

// applyEffects applies effects in order. An effect that cannot be resolved is
// logged and skipped; the rest still apply.
func (s *Session) applyEffects(ae *event.ActiveEvent, effects []event.Effect) {
	for _, eff := range effects {
		if err := s.applyEffect(ae, eff); err != nil {
			s.logger.Warn("Skipping event effect",
				"event", ae.DefinitionID,
				"step", ae.CurrentStepID,
				"kind", eff.Kind,
				"error", err)
			continue
		}
		ae.AppliedEffects = append(ae.AppliedEffects, eff)
	}
}

func (s *Session) applyEffect(ae *event.ActiveEvent, eff event.Effect) error {
	if err := eff.Validate(); err != nil {
		return err
	}
	target := eff.TargetOr(ae.Target)

	switch eff.Kind {
	case event.EffectConditioning:
		subj, err := s.subject(target)
		if err != nil {
			return err
		}
		s.adjustConditioning(subj, eff.Value)
	case event.EffectAffection:
		subj, err := s.subject(target)
		if err != nil {
			return err
		}
		subj.AdjustAffection(eff.Value)
	case event.EffectObedience:
		subj, err := s.subject(target)
		if err != nil {
			return err
		}
		subj.AdjustObedience(eff.Value)
	case event.EffectCurrency:
		s.state.AdjustCurrency(eff.Value)
	case event.EffectAddItem:
		s.state.Inventory.Add(eff.Item, eff.Quantity())
	case event.EffectRemoveItem:
		return s.state.Inventory.Remove(eff.Item, eff.Quantity())
	case event.EffectSetStatus:
		return s.setStatus(target, eff.Status)
	case event.EffectConvert:
		return s.convert(target, eff.Archetype)
	case event.EffectSkill:
		if s.state.PC == nil {
			return fmt.Errorf("no player character")
		}
		_, err := s.state.PC.AdjustSkill(eff.Skill, eff.Value)
		return err
	case event.EffectCustom:
		if s.custom == nil {
			return fmt.Errorf("no handler for custom effect %q", eff.Tag)
		}
		return s.custom.ApplyCustomEffect(s.hookContext(ae), eff)
	default:
		return fmt.Errorf("unknown effect kind %q", eff.Kind)
	}
	return nil
}

func (s *Session) subject(name string) (*actor.Subject, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: no target", ErrUnknownSubject)
	}
	subj, ok := s.state.Subject(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubject, name)
	}
	return subj, nil
}

// setStatus moves a subject forward, creating it when the event introduces
// someone new.
func (s *Session) setStatus(name string, status actor.Status) error {
	if name == "" {
		return fmt.Errorf("%w: no target", ErrUnknownSubject)
	}
	subj, ok := s.state.Subject(name)
	if !ok {
		return s.state.AddSubject(&actor.Subject{Name: name, Status: status})
	}
	return subj.SetStatus(status)
}

// convert turns a subject into a servant shaped by the archetype.
func (s *Session) convert(name, archetypeID string) error {
	subj, err := s.subject(name)
	if err != nil {
		return err
	}
	arch, ok := s.catalog.Archetype(archetypeID)
	if !ok {
		return fmt.Errorf("unknown archetype %q", archetypeID)
	}
	if err := subj.SetStatus(actor.StatusServant); err != nil {
		return err
	}
	subj.Archetype = arch.ID
	subj.Affection = actor.Clamp(arch.BaseAffection, actor.MinMetric, actor.MaxMetric)
	subj.Obedience = actor.Clamp(arch.BaseObedience, actor.MinMetric, actor.MaxMetric)
	subj.Traits = mergeTraits(subj.Traits, arch.Traits)
	return nil
}

// adjustConditioning clamps the change and starts conversion of a captive
// once progress is positive.
func (s *Session) adjustConditioning(subj *actor.Subject, delta int) int {
	v := subj.AdjustConditioning(delta)
	if v > 0 && subj.Status == actor.StatusCaptured {
		_ = subj.SetStatus(actor.StatusConverting)
	}
	return v
}

func mergeTraits(existing, add []string) []string {
	seen := make(map[string]bool, len(existing)+len(add))
	out := make([]string, 0, len(existing)+len(add))
	for _, t := range append(append([]string(nil), existing...), add...) {
		key := strings.ToLower(strings.TrimSpace(t))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

package engine

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/stage-engine/pkg/actor"
	"github.com/jwebster45206/stage-engine/pkg/chat"
	"github.com/jwebster45206/stage-engine/pkg/conditioning"
	"github.com/jwebster45206/stage-engine/pkg/event"
	"github.com/jwebster45206/stage-engine/pkg/narrative"
	"github.com/jwebster45206/stage-engine/pkg/skillcheck"
)

// ThresholdBanner is appended to an action message when the target rises a tier.
const ThresholdBanner = "*** THRESHOLD CROSSED: %s is now %s ***"

// AvailableActions lists the conditioning actions visible for the active
// event's target, with lock state.
func (s *Session) AvailableActions() ([]conditioning.Availability, error) {
	ae, subj, err := s.targetSubject()
	if err != nil {
		return nil, err
	}
	return s.catalog.Available(s.conditioningState(ae, subj)), nil
}

// TargetConditioning returns the active target's conditioning value.
func (s *Session) TargetConditioning() (int, error) {
	_, subj, err := s.targetSubject()
	if err != nil {
		return 0, err
	}
	return subj.Conditioning, nil
}

// ExecuteConditioningAction runs actionID against the chat-phase target,
// rolling its skill check if it has one.
func (s *Session) ExecuteConditioningAction(actionID string) (*conditioning.Result, error) {
	return s.executeAction(actionID, nil)
}

// ExecuteConditioningActionForced runs actionID with the outcome pinned to
// the success argument. The skill check, if any, reports a sentinel roll.
func (s *Session) ExecuteConditioningActionForced(actionID string, success bool) (*conditioning.Result, error) {
	return s.executeAction(actionID, &success)
}

func (s *Session) targetSubject() (*event.ActiveEvent, *actor.Subject, error) {
	ae := s.active
	if ae == nil {
		return nil, nil, ErrNoActiveEvent
	}
	if ae.Target == "" {
		return nil, nil, fmt.Errorf("%w: event has no target", ErrUnknownTarget)
	}
	subj, ok := s.state.Subject(ae.Target)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownTarget, ae.Target)
	}
	return ae, subj, nil
}

func (s *Session) conditioningState(ae *event.ActiveEvent, subj *actor.Subject) conditioning.State {
	return conditioning.State{
		Conditioning: subj.Conditioning,
		Strategy:     ae.Strategy,
		Inventory:    s.state.Inventory,
		MessageCount: ae.ChatMessageCount,
		LastUsed:     ae.Cooldowns,
	}
}

// executeAction is the shared pipeline. force is nil for a normal roll.
// Every call that gets past the preconditions records exactly one result.
func (s *Session) executeAction(actionID string, force *bool) (*conditioning.Result, error) {
	ae := s.active
	if ae == nil || !ae.ChatPhaseActive {
		return nil, ErrNoChatPhase
	}
	action, ok := s.catalog.Action(actionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, actionID)
	}
	_, subj, err := s.targetSubject()
	if err != nil {
		return nil, err
	}

	av, visible := s.catalog.Evaluate(actionID, s.conditioningState(ae, subj))
	switch {
	case !visible:
		return s.recordResult(ae, s.softFailure(action, subj, fmt.Sprintf("%s is not available right now.", action.Label))), nil
	case action.ConsumeItem && action.RequiresItem != "" && !s.state.Inventory.Has(action.RequiresItem, 1):
		return s.recordResult(ae, s.softFailure(action, subj, fmt.Sprintf("You don't have %s!", action.RequiresItem))), nil
	case av.Locked:
		return s.recordResult(ae, s.softFailure(action, subj, fmt.Sprintf("%s is locked: %s", action.Label, av.LockReason))), nil
	}

	if action.ConsumeItem && action.RequiresItem != "" {
		if err := s.state.Inventory.Remove(action.RequiresItem, 1); err != nil {
			return s.recordResult(ae, s.softFailure(action, subj, fmt.Sprintf("You don't have %s!", action.RequiresItem))), nil
		}
	}

	success := true
	var check *skillcheck.Result
	if action.Check != nil {
		f := skillcheck.ForceNone
		if force != nil {
			f = skillcheck.ForceFailure
			if *force {
				f = skillcheck.ForceSuccess
			}
		}
		res := s.rollCheck(action.Check.Skill, action.Check.Difficulty, 0, f)
		check = &res
		success = res.Success
	} else if force != nil {
		success = *force
	}

	delta := action.FailDelta
	text := action.FailText
	if success {
		delta = action.SuccessDelta
		text = action.SuccessText
	}

	before := subj.Conditioning
	after := s.adjustConditioning(subj, delta)
	crossed := conditioning.CrossedTier(before, after)
	applied := after - before

	vars := s.vars(subj.Name)
	directive := narrative.Render(text, vars)
	if directive != "" {
		s.transcript = append(s.transcript, chat.Message{
			Sender: "System",
			Role:   chat.RoleSystem,
			Text:   directive,
		})
	}

	res := conditioning.Result{
		ActionID:         action.ID,
		Success:          success,
		Delta:            applied,
		Directive:        directive,
		Check:            check,
		NewConditioning:  after,
		ThresholdCrossed: crossed,
	}

	var granted string
	if success && action.GrantsItem != "" {
		s.state.Inventory.Add(action.GrantsItem, 1)
		granted = action.GrantsItem
	}
	res.Message = actionMessage(action, res, subj.Name, granted)

	if ae.Cooldowns == nil {
		ae.Cooldowns = make(map[string]int)
	}
	ae.Cooldowns[action.ID] = ae.ChatMessageCount

	s.logger.Info("Conditioning action executed",
		"action", action.ID,
		"target", subj.Name,
		"success", success,
		"delta", applied,
		"conditioning", after,
		"forced", force != nil,
		"threshold", string(crossed))
	return s.recordResult(ae, res), nil
}

func (s *Session) softFailure(action conditioning.Action, subj *actor.Subject, msg string) conditioning.Result {
	s.logger.Debug("Conditioning action refused", "action", action.ID, "target", subj.Name, "reason", msg)
	return conditioning.Result{
		ActionID:        action.ID,
		Success:         false,
		Delta:           0,
		Message:         msg,
		NewConditioning: subj.Conditioning,
	}
}

// recordResult appends res to the event and stores it as the last result.
// The returned pointer is a copy.
func (s *Session) recordResult(ae *event.ActiveEvent, res conditioning.Result) *conditioning.Result {
	ae.ActionResults = append(ae.ActionResults, res)
	last := res
	ae.LastActionResult = &last
	out := res
	if res.Check != nil {
		chk := *res.Check
		out.Check = &chk
	}
	return &out
}

// actionMessage is the player-facing summary of an executed action.
func actionMessage(action conditioning.Action, res conditioning.Result, target, granted string) string {
	var sb strings.Builder
	verb := "failed"
	if res.Success {
		verb = "succeeded"
	}
	fmt.Fprintf(&sb, "%s %s.", action.Label, verb)
	if res.Check != nil {
		fmt.Fprintf(&sb, " %s.", capitalize(res.Check.String()))
	}
	fmt.Fprintf(&sb, " Conditioning %+d (now %d).", res.Delta, res.NewConditioning)
	if granted != "" {
		fmt.Fprintf(&sb, " You obtained %s.", granted)
	}
	if res.ThresholdCrossed != "" {
		sb.WriteString("\n\n")
		fmt.Fprintf(&sb, ThresholdBanner, target, strings.ToUpper(string(res.ThresholdCrossed)))
	}
	return sb.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package handlers

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/stage-engine/pkg/chat"
	"github.com/jwebster45206/stage-engine/pkg/engine"
)

type commandType string

const (
	cmdStatus    commandType = "status"
	cmdInventory commandType = "inventory"
	cmdNone      commandType = "" // No command, used for fallback
)

// CommandResult represents the result of attempting to handle a player command.
type CommandResult struct {
	Handled bool   // True if the command was fully resolved and no generation is needed
	Message string // Message to return
	Role    string
}

// parseCommand parses the input string and returns the command type if recognized.
func parseCommand(input string) commandType {
	known := map[string]commandType{
		"status":    cmdStatus,
		"look":      cmdStatus,
		"l":         cmdStatus,
		"inventory": cmdInventory,
		"i":         cmdInventory,
	}
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if cmd, ok := known[trimmed]; ok {
		return cmd
	}
	return cmdNone
}

// TryHandleCommand answers shortcut commands from session state without
// asking the model. Unrecognized input is passed through unhandled.
func TryHandleCommand(s *engine.Session, input string) *CommandResult {
	switch parseCommand(input) {
	case cmdStatus:
		return &CommandResult{Handled: true, Message: describeTarget(s), Role: chat.RoleSystem}
	case cmdInventory:
		return &CommandResult{Handled: true, Message: describeInventory(s), Role: chat.RoleSystem}
	default:
		return &CommandResult{Handled: false, Message: input, Role: chat.RolePlayer}
	}
}

// describeTarget summarizes the active event's target.
func describeTarget(s *engine.Session) string {
	ae := s.ActiveEvent()
	if ae == nil {
		return "There is no active event."
	}
	subj, ok := s.State().Subject(ae.Target)
	if !ok {
		return fmt.Sprintf("%s is not here.", ae.Target)
	}
	return fmt.Sprintf("%s (%s): conditioning %d, affection %d, obedience %d.",
		subj.Name, subj.Status, subj.Conditioning, subj.Affection, subj.Obedience)
}

// describeInventory returns a description of the player's inventory.
func describeInventory(s *engine.Session) string {
	inv := s.State().Inventory
	items := inv.Items()
	if len(items) == 0 {
		return "Your inventory is empty."
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s x%d", item, inv[item]))
	}
	return "You have:\n- " + strings.Join(lines, "\n- ")
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jwebster45206/stage-engine/internal/storage"
	"github.com/jwebster45206/stage-engine/pkg/actor"
	"github.com/jwebster45206/stage-engine/pkg/event"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <event.json|dir>...\n", os.Args[0])
		os.Exit(1)
	}

	files, err := collectFiles(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	failed := 0
	for _, filename := range files {
		validator := &EventValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed++
			continue
		}
		for _, w := range validator.warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d event files failed validation\n", failed, len(files))
		os.Exit(1)
	}
	fmt.Printf("%d event file(s) are valid!\n", len(files))
}

// collectFiles expands directories into the .json files they contain.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.json"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}

type EventValidator struct {
	errors   []string
	warnings []string
}

func (v *EventValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("event file must have .json extension: %s", baseName)
	}
	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !isValidID(nameWithoutExt) {
		return fmt.Errorf("event filename '%s' must be lowercase snake_case (e.g., my_event.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return v.validateData(data, nameWithoutExt)
}

func (v *EventValidator) validateData(data []byte, id string) error {
	v.errors = nil
	v.warnings = nil

	if !json.Valid(data) {
		return fmt.Errorf("event %s contains invalid JSON", id)
	}

	var strict event.Definition
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&strict); err != nil {
		return fmt.Errorf("event %s failed strict JSON unmarshaling: %w", id, err)
	}

	def, err := storage.ParseEvent(data, id)
	if err != nil {
		return fmt.Errorf("event %s: %w", id, err)
	}
	if def.ID != id {
		v.addError(fmt.Sprintf("id '%s' does not match filename '%s'", def.ID, id))
	}

	v.validateDefinition(def)
	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", id, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *EventValidator) validateDefinition(def *event.Definition) {
	v.validateIDFormat("event id", def.ID)
	if strings.TrimSpace(def.Name) == "" {
		v.addWarning("event has no name")
	}

	hasEnding := false
	for stepID, step := range def.Steps {
		v.validateIDFormat("step id", stepID)
		if step.IsEnding {
			hasEnding = true
		}
		if strings.TrimSpace(step.Text) == "" {
			v.addWarning(fmt.Sprintf("step %s has no text", stepID))
		}
		if step.ChatPhase != nil && step.ChatPhase.MinMessages < 0 {
			v.addError(fmt.Sprintf("step %s chat_phase min_messages must not be negative", stepID))
		}
		if !step.IsEnding && step.Next == "" && len(step.Choices) == 0 {
			v.addError(fmt.Sprintf("step %s is a dead end: no choices, no next and not an ending", stepID))
		}
		for _, c := range step.Choices {
			v.validateIDFormat("choice id", c.ID)
			if sc := c.SkillCheck; sc != nil && !knownSkills[sc.Skill] {
				v.addWarning(fmt.Sprintf("step %s choice %s uses skill '%s', which default characters lack", stepID, c.ID, sc.Skill))
			}
		}
	}
	if !hasEnding {
		v.addWarning("no step is marked is_ending")
	}

	for _, stepID := range unreachableSteps(def) {
		v.addWarning(fmt.Sprintf("step %s is unreachable from %s", stepID, def.StartStep))
	}
}

// unreachableSteps lists steps no path from the start step reaches.
func unreachableSteps(def *event.Definition) []string {
	seen := map[string]bool{def.StartStep: true}
	queue := []string{def.StartStep}
	visit := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		step := def.Steps[queue[0]]
		queue = queue[1:]
		visit(step.Next)
		for _, c := range step.Choices {
			visit(c.Next)
			if sc := c.SkillCheck; sc != nil {
				visit(sc.SuccessStep)
				visit(sc.FailureStep)
			}
		}
	}

	var out []string
	for id := range def.Steps {
		if !seen[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (v *EventValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}
	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *EventValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *EventValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

var knownSkills = func() map[string]bool {
	out := make(map[string]bool)
	for skill := range actor.DefaultSkills() {
		out[skill] = true
	}
	return out
}()

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

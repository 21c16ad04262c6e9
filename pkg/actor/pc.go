package actor

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jwebster45206/d20"
)

const (
	DefaultPCMaxHP = 10
	DefaultPCAC    = 10

	MaxSkillValue = 100
)

// Skill names used by the built-in actions and events.
const (
	SkillPersuasion   = "persuasion"
	SkillIntimidation = "intimidation"
	SkillArcana       = "arcana"
	SkillInsight      = "insight"
	SkillDeception    = "deception"
)

// DefaultSkills is the starting skill set for a PC that declares none.
func DefaultSkills() map[string]int {
	return map[string]int{
		SkillPersuasion:   20,
		SkillIntimidation: 20,
		SkillArcana:       10,
		SkillInsight:      20,
		SkillDeception:    10,
	}
}

// PCSpec is the serializable specification for the player character
type PCSpec struct {
	ID          string         `json:"id"`
	Name        string         `json:"name,omitempty"`
	Pronouns    string         `json:"pronouns,omitempty"`
	Description string         `json:"description,omitempty"`
	Background  string         `json:"background,omitempty"`
	HP          int            `json:"hp,omitempty"`
	MaxHP       int            `json:"max_hp,omitempty"`
	AC          int            `json:"ac,omitempty"`
	Skills      map[string]int `json:"skills,omitempty"` // 0-100 skill values used by skill checks
}

// PC is the runtime representation of the player character
type PC struct {
	Spec  *PCSpec
	Actor *d20.Actor // Built at runtime from PCSpec
}

// NewPCFromSpec creates a PC from a PCSpec
func NewPCFromSpec(spec *PCSpec) (*PC, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}
	if spec.MaxHP <= 0 {
		spec.MaxHP = DefaultPCMaxHP
	}
	if spec.AC <= 0 {
		spec.AC = DefaultPCAC
	}
	if spec.Skills == nil {
		spec.Skills = DefaultSkills()
	}

	actor, err := buildActor(spec)
	if err != nil {
		return nil, err
	}
	return &PC{Spec: spec, Actor: actor}, nil
}

func buildActor(spec *PCSpec) (*d20.Actor, error) {
	id := spec.ID
	if id == "" {
		id = "pc"
	}

	actor, err := d20.NewActor(id).
		WithHP(spec.MaxHP).
		WithAC(spec.AC).
		WithAttributes(maps.Clone(spec.Skills)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	// Set current HP if different from max
	if spec.HP != spec.MaxHP && spec.HP > 0 {
		if err := actor.SetHP(spec.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}
	return actor, nil
}

// LoadPC loads a PC from a JSON file and builds its d20.Actor.
// The filename (without .json extension) overrides any ID in the JSON.
func LoadPC(path string) (*PC, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PC file: %w", err)
	}

	var spec PCSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal PC spec: %w", err)
	}
	spec.ID = strings.TrimSuffix(filepath.Base(path), ".json")

	return NewPCFromSpec(&spec)
}

// Name returns the PC's display name.
func (pc *PC) Name() string {
	if pc == nil || pc.Spec == nil {
		return ""
	}
	return pc.Spec.Name
}

// SkillValue returns the current value of a named skill, or 0 if the PC
// does not have it.
func (pc *PC) SkillValue(skill string) int {
	if pc == nil || pc.Actor == nil {
		return 0
	}
	if val, ok := pc.Actor.Attribute(strings.ToLower(skill)); ok {
		return val
	}
	return 0
}

// AdjustSkill changes a skill by delta, clamped to [0, MaxSkillValue], and
// rebuilds the actor. It returns the new value.
func (pc *PC) AdjustSkill(skill string, delta int) (int, error) {
	if pc == nil || pc.Spec == nil {
		return 0, fmt.Errorf("pc is required")
	}
	skill = strings.ToLower(skill)
	if pc.Spec.Skills == nil {
		pc.Spec.Skills = make(map[string]int)
	}
	next := Clamp(pc.Spec.Skills[skill]+delta, 0, MaxSkillValue)
	pc.Spec.Skills[skill] = next

	if pc.Actor != nil {
		pc.Spec.HP = pc.Actor.HP()
	}
	actor, err := buildActor(pc.Spec)
	if err != nil {
		return 0, err
	}
	pc.Actor = actor
	return next, nil
}

// SkillNames returns the PC's skills in sorted order.
func (pc *PC) SkillNames() []string {
	if pc == nil || pc.Spec == nil {
		return nil
	}
	names := make([]string, 0, len(pc.Spec.Skills))
	for k := range pc.Spec.Skills {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON converts PC back to PCSpec format, reading current runtime
// state from the Actor
func (pc *PC) MarshalJSON() ([]byte, error) {
	if pc == nil {
		return []byte("null"), nil
	}
	if pc.Actor == nil {
		return json.Marshal(pc.Spec)
	}

	resp := *pc.Spec
	resp.HP = pc.Actor.HP()
	resp.MaxHP = pc.Actor.MaxHP()
	resp.AC = pc.Actor.AC()
	resp.Skills = make(map[string]int, len(pc.Spec.Skills))
	for key := range pc.Spec.Skills {
		if val, ok := pc.Actor.Attribute(key); ok {
			resp.Skills[key] = val
		}
	}
	return json.Marshal(resp)
}

// UnmarshalJSON reconstructs a PC from JSON and rebuilds its Actor
func (pc *PC) UnmarshalJSON(data []byte) error {
	var spec PCSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to unmarshal PC spec: %w", err)
	}
	built, err := NewPCFromSpec(&spec)
	if err != nil {
		return fmt.Errorf("failed to rebuild actor: %w", err)
	}
	*pc = *built
	return nil
}

// BuildPrompt describes the player character for generation prompts.
// Returns an empty string if pc is nil.
func BuildPrompt(pc *PC) string {
	if pc == nil || pc.Spec == nil {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString(pc.Spec.Name)
	if pc.Spec.Pronouns != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", pc.Spec.Pronouns))
	}
	if pc.Spec.Description != "" {
		sb.WriteString(". " + pc.Spec.Description)
	}
	return sb.String()
}

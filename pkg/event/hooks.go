package event

import "sync"

// HookContext is passed to a step entry hook.
type HookContext struct {
	EventID string
	StepID  string
	Target  string
	Vars    map[string]string // the active event's variable bag; writes persist
}

// Hook runs when a step is entered.
type Hook func(HookContext)

type hookKey struct {
	eventID string
	stepID  string
}

// Hooks is a dispatch table of step entry hooks keyed by event and step.
type Hooks struct {
	mu    sync.RWMutex
	table map[hookKey]Hook
}

func NewHooks() *Hooks {
	return &Hooks{table: make(map[hookKey]Hook)}
}

// On registers fn for entry into stepID of eventID, replacing any previous hook.
func (h *Hooks) On(eventID, stepID string, fn Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.table[hookKey{eventID, stepID}] = fn
}

// Lookup returns the hook for a step, if any.
func (h *Hooks) Lookup(eventID, stepID string) (Hook, bool) {
	if h == nil {
		return nil, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.table[hookKey{eventID, stepID}]
	return fn, ok
}

// CustomEffectHandler applies effects of kind "custom".
type CustomEffectHandler interface {
	ApplyCustomEffect(ctx HookContext, eff Effect) error
}

// CustomEffectFunc adapts a function to CustomEffectHandler.
type CustomEffectFunc func(ctx HookContext, eff Effect) error

func (f CustomEffectFunc) ApplyCustomEffect(ctx HookContext, eff Effect) error {
	return f(ctx, eff)
}

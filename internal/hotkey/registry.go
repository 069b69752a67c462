// Package hotkey owns the overlay's system-wide keyboard shortcuts: it
// registers them against the overlay window, maps fired WM_HOTKEY ids back
// to actions and releases everything on shutdown.
package hotkey

import (
	"go.uber.org/zap"

	"notsobright/internal/platform"
)

// Action is a logical shortcut target.
type Action string

const (
	ToggleVisibility   Action = "toggle-visibility"
	IncreaseOpacity    Action = "increase-opacity"
	DecreaseOpacity    Action = "decrease-opacity"
	ToggleMode         Action = "toggle-mode"
	ToggleControlPanel Action = "toggle-control-panel"
)

// FirstID is the first raw id handed to RegisterHotKey.
const FirstID = 9001

// Binding ties an action to a key combination.
type Binding struct {
	Action    Action `json:"action" yaml:"action"`
	Modifiers uint32 `json:"modifiers" yaml:"modifiers"`
	Key       uint32 `json:"key" yaml:"key"`
}

// String renders the binding's combination, e.g. "Win+Shift+D".
func (b Binding) String() string {
	return Format(b.Modifiers, b.Key)
}

// DefaultBindings returns the built-in shortcut set.
func DefaultBindings() []Binding {
	winShift := platform.ModWin | platform.ModShift
	return []Binding{
		{Action: ToggleVisibility, Modifiers: winShift, Key: 'D'},
		{Action: IncreaseOpacity, Modifiers: winShift, Key: 0x26},
		{Action: DecreaseOpacity, Modifiers: winShift, Key: 0x28},
		{Action: ToggleMode, Modifiers: winShift, Key: 'M'},
		{Action: ToggleControlPanel, Modifiers: winShift, Key: 'H'},
	}
}

// ResolveBindings applies user overrides (action name to combination) to the
// defaults. Unknown actions and unparsable combinations are logged and
// ignored.
func ResolveBindings(overrides map[string]string, logger *zap.Logger) []Binding {
	if logger == nil {
		logger = zap.NewNop()
	}
	bindings := DefaultBindings()
	known := make(map[Action]int, len(bindings))
	for i, b := range bindings {
		known[b.Action] = i
	}

	for name, combo := range overrides {
		i, ok := known[Action(name)]
		if !ok {
			logger.Warn("ignoring hotkey for unknown action", zap.String("action", name))
			continue
		}
		mods, key, err := ParseCombination(combo)
		if err != nil {
			logger.Warn("invalid hotkey override, keeping default",
				zap.String("action", name),
				zap.String("default", bindings[i].String()),
				zap.Error(err))
			continue
		}
		bindings[i].Modifiers = mods
		bindings[i].Key = key
	}
	return bindings
}

// Registrar is the platform hotkey API.
type Registrar interface {
	RegisterHotKey(hwnd platform.HWND, id int, modifiers, key uint32) error
	UnregisterHotKey(hwnd platform.HWND, id int) error
}

// Registry holds the hotkeys registered for one window. It is not safe for
// concurrent use; call it from the window's thread.
type Registry struct {
	api     Registrar
	hwnd    platform.HWND
	handler func(Action)
	logger  *zap.Logger

	nextID  int
	actions map[int]Action
	ids     []int
}

// NewRegistry creates an empty registry for hwnd. handler receives every
// dispatched action.
func NewRegistry(api Registrar, hwnd platform.HWND, handler func(Action), logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		api:     api,
		hwnd:    hwnd,
		handler: handler,
		logger:  logger,
		nextID:  FirstID,
		actions: make(map[int]Action),
	}
}

// Register binds b system-wide. It returns false when the platform refuses,
// typically because another application owns the combination.
func (r *Registry) Register(b Binding) bool {
	id := r.nextID
	r.nextID++

	if err := r.api.RegisterHotKey(r.hwnd, id, b.Modifiers|platform.ModNoRepeat, b.Key); err != nil {
		r.logger.Warn("hotkey unavailable",
			zap.String("action", string(b.Action)),
			zap.String("keys", b.String()),
			zap.Error(err))
		return false
	}
	r.actions[id] = b.Action
	r.ids = append(r.ids, id)
	r.logger.Debug("hotkey registered",
		zap.String("action", string(b.Action)),
		zap.String("keys", b.String()),
		zap.Int("id", id))
	return true
}

// RegisterAll registers each binding and returns the ones that failed.
func (r *Registry) RegisterAll(bindings []Binding) []Binding {
	var failed []Binding
	for _, b := range bindings {
		if !r.Register(b) {
			failed = append(failed, b)
		}
	}
	return failed
}

// Dispatch invokes the handler for a fired raw id. Unknown ids are ignored
// and reported as false.
func (r *Registry) Dispatch(rawID int) bool {
	action, ok := r.actions[rawID]
	if !ok {
		return false
	}
	if r.handler != nil {
		r.handler(action)
	}
	return true
}

// Registered returns the number of live registrations.
func (r *Registry) Registered() int {
	return len(r.ids)
}

// Release unregisters every registered hotkey exactly once. Later calls do
// nothing.
func (r *Registry) Release() {
	for _, id := range r.ids {
		if err := r.api.UnregisterHotKey(r.hwnd, id); err != nil {
			r.logger.Warn("failed to unregister hotkey", zap.Int("id", id), zap.Error(err))
		}
	}
	r.ids = nil
	r.actions = make(map[int]Action)
}

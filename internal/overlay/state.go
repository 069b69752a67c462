package overlay

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"notsobright/internal/config"
)

// opacityEpsilon is the smallest opacity difference treated as a change.
const opacityEpsilon = 0.001

// WheelNotch is the wheel delta of one detent; one notch moves opacity by 1%.
const WheelNotch = 120

// Bounds is the permitted opacity range in percent.
type Bounds struct {
	Min float64
	Max float64
}

// DefaultBounds returns [1, 95].
func DefaultBounds() Bounds {
	return Bounds{Min: 1, Max: 95}
}

// Validate checks that the range is non-empty and inside [0, 100].
func (b Bounds) Validate() error {
	if math.IsNaN(b.Min) || math.IsNaN(b.Max) || b.Min < 0 || b.Max > 100 || b.Min > b.Max {
		return fmt.Errorf("invalid opacity range [%v, %v]", b.Min, b.Max)
	}
	return nil
}

func (b Bounds) clamp(v float64) float64 {
	return math.Min(math.Max(v, b.Min), b.Max)
}

// Change is a set of State fields touched by one mutation.
type Change uint8

const (
	ChangeOpacity Change = 1 << iota
	ChangeOpacityText
	ChangeTextValidity
	ChangeTint
	ChangeMode
)

// Has reports whether c includes f.
func (c Change) Has(f Change) bool { return c&f != 0 }

// Persisted reports whether c touches a field that is saved to disk.
func (c Change) Persisted() bool {
	return c.Has(ChangeOpacity) || c.Has(ChangeTint) || c.Has(ChangeMode)
}

type subscription struct {
	id int
	fn func(Change)
}

// State is the overlay view-model: opacity, tint and interaction mode plus
// the values derived from them. Setters that do not change anything are
// silent. Subscribers are called synchronously, in subscription order,
// before the setter returns.
type State struct {
	bounds    Bounds
	opacity   float64
	text      string
	textValid bool
	tint      string
	mode      config.Mode

	subs   []subscription
	nextID int
}

// NewState returns a state at the default opacity, tint and mode.
func NewState(bounds Bounds) *State {
	if bounds.Validate() != nil {
		bounds = DefaultBounds()
	}
	s := &State{
		bounds:    bounds,
		textValid: true,
		tint:      DefaultTint,
		mode:      config.ModeEdit,
	}
	s.opacity = bounds.clamp(config.Default().OpacityPercent)
	s.text = formatPercent(s.opacity)
	return s
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (s *State) Subscribe(fn func(Change)) (unsubscribe func()) {
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *State) notify(c Change) {
	if c == 0 {
		return
	}
	subs := append([]subscription(nil), s.subs...)
	for _, sub := range subs {
		sub.fn(c)
	}
}

// Bounds returns the permitted opacity range.
func (s *State) Bounds() Bounds { return s.bounds }

// Opacity returns the opacity in percent.
func (s *State) Opacity() float64 { return s.opacity }

// OpacityFraction returns the opacity in [0, 1].
func (s *State) OpacityFraction() float64 { return s.opacity / 100 }

// OpacityText is the display text, e.g. "35%".
func (s *State) OpacityText() string { return s.text }

// TextValid is false after ApplyOpacityText rejected its input.
func (s *State) TextValid() bool { return s.textValid }

// SetOpacity clamps v into the bounds and stores it. NaN is ignored.
func (s *State) SetOpacity(v float64) {
	s.notify(s.setOpacity(v))
}

func (s *State) setOpacity(v float64) Change {
	if math.IsNaN(v) {
		return 0
	}
	clamped := s.bounds.clamp(v)
	if math.Abs(s.opacity-clamped) < opacityEpsilon {
		return 0
	}
	s.opacity = clamped
	return ChangeOpacity | s.setText(formatPercent(clamped))
}

func (s *State) setText(text string) Change {
	if s.text == text {
		return 0
	}
	s.text = text
	return ChangeOpacityText
}

func (s *State) setTextValid(valid bool) Change {
	if s.textValid == valid {
		return 0
	}
	s.textValid = valid
	return ChangeTextValidity
}

// AdjustOpacity moves the opacity by delta percent.
func (s *State) AdjustOpacity(delta float64) {
	s.SetOpacity(s.opacity + delta)
}

// WheelOpacity applies a mouse-wheel delta at 1% per whole notch.
func (s *State) WheelOpacity(wheelDelta int) {
	notches := wheelDelta / WheelNotch
	if notches == 0 {
		return
	}
	s.AdjustOpacity(float64(notches))
}

// ApplyOpacityText commits user-entered text such as "50%" or "42.5". Text
// that does not parse or lies outside the bounds reverts the display text to
// the current value and marks it invalid.
func (s *State) ApplyOpacityText(text string) bool {
	trimmed := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), "%"))
	v, err := strconv.ParseFloat(trimmed, 64)

	var c Change
	ok := err == nil && v >= s.bounds.Min && v <= s.bounds.Max
	if ok {
		c |= s.setOpacity(v)
		c |= s.setTextValid(true)
	} else {
		c |= s.setTextValid(false)
	}
	c |= s.setText(formatPercent(s.opacity))
	s.notify(c)
	return ok
}

// TintColor returns the validated tint.
func (s *State) TintColor() string { return s.tint }

// TintRGBA returns the tint as a colour.
func (s *State) TintRGBA() color.NRGBA { return ParseTint(s.tint) }

// SetTintColor stores hex, or DefaultTint when hex is not a valid colour.
func (s *State) SetTintColor(hex string) {
	sanitized := SanitizeTint(hex)
	if s.tint == sanitized {
		return
	}
	s.tint = sanitized
	s.notify(ChangeTint)
}

// Mode returns the interaction mode.
func (s *State) Mode() config.Mode { return s.mode }

// IsEditMode reports whether the overlay is interactive.
func (s *State) IsEditMode() bool { return s.mode == config.ModeEdit }

// ModeLabel is "Edit" or "Passive".
func (s *State) ModeLabel() string { return s.mode.String() }

// SetMode stores m.
func (s *State) SetMode(m config.Mode) {
	if s.mode == m {
		return
	}
	s.mode = m
	s.notify(ChangeMode)
}

// ToggleMode flips Edit and Passive.
func (s *State) ToggleMode() {
	s.SetMode(s.mode.Toggle())
}

// Snapshot is the state as published to the front-end.
type Snapshot struct {
	OpacityPercent  float64 `json:"opacityPercent"`
	OpacityFraction float64 `json:"opacityFraction"`
	OpacityText     string  `json:"opacityText"`
	TextValid       bool    `json:"textValid"`
	TintColor       string  `json:"tintColor"`
	Mode            string  `json:"mode"`
	IsEditMode      bool    `json:"isEditMode"`
	MinOpacity      float64 `json:"minOpacity"`
	MaxOpacity      float64 `json:"maxOpacity"`
}

// Snapshot captures the current values.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		OpacityPercent:  s.opacity,
		OpacityFraction: s.OpacityFraction(),
		OpacityText:     s.text,
		TextValid:       s.textValid,
		TintColor:       s.tint,
		Mode:            s.ModeLabel(),
		IsEditMode:      s.IsEditMode(),
		MinOpacity:      s.bounds.Min,
		MaxOpacity:      s.bounds.Max,
	}
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64) + "%"
}

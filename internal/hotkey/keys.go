package hotkey

import (
	"fmt"
	"strings"

	"notsobright/internal/platform"
)

var modifierNames = map[string]uint32{
	"win":     platform.ModWin,
	"super":   platform.ModWin,
	"ctrl":    platform.ModControl,
	"control": platform.ModControl,
	"alt":     platform.ModAlt,
	"shift":   platform.ModShift,
}

// modifierOrder fixes the order modifiers are printed in.
var modifierOrder = []struct {
	flag uint32
	name string
}{
	{platform.ModWin, "Win"},
	{platform.ModControl, "Ctrl"},
	{platform.ModAlt, "Alt"},
	{platform.ModShift, "Shift"},
}

var namedKeys = map[string]uint32{
	"tab":      0x09,
	"enter":    0x0D,
	"esc":      0x1B,
	"escape":   0x1B,
	"space":    0x20,
	"pageup":   0x21,
	"pagedown": 0x22,
	"end":      0x23,
	"home":     0x24,
	"left":     0x25,
	"up":       0x26,
	"right":    0x27,
	"down":     0x28,
	"insert":   0x2D,
	"delete":   0x2E,
	"plus":     0xBB,
	"minus":    0xBD,
}

var keyLabels = map[uint32]string{
	0x09: "Tab",
	0x0D: "Enter",
	0x1B: "Esc",
	0x20: "Space",
	0x21: "PageUp",
	0x22: "PageDown",
	0x23: "End",
	0x24: "Home",
	0x25: "Left",
	0x26: "Up",
	0x27: "Right",
	0x28: "Down",
	0x2D: "Insert",
	0x2E: "Delete",
	0xBB: "Plus",
	0xBD: "Minus",
}

// ParseCombination parses strings such as "Win+Shift+D" or "ctrl+alt+f9"
// into a RegisterHotKey modifier mask and virtual-key code. At least one
// modifier is required.
func ParseCombination(s string) (modifiers, key uint32, err error) {
	parts := strings.Split(s, "+")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("hotkey %q: need at least one modifier and a key", s)
	}
	for _, part := range parts[:len(parts)-1] {
		flag, ok := modifierNames[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return 0, 0, fmt.Errorf("hotkey %q: unknown modifier %q", s, part)
		}
		if modifiers&flag != 0 {
			return 0, 0, fmt.Errorf("hotkey %q: modifier %q repeated", s, part)
		}
		modifiers |= flag
	}

	key, err = parseKey(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return 0, 0, fmt.Errorf("hotkey %q: %w", s, err)
	}
	return modifiers, key, nil
}

func parseKey(name string) (uint32, error) {
	lower := strings.ToLower(name)
	if vk, ok := namedKeys[lower]; ok {
		return vk, nil
	}
	if len(name) == 1 {
		c := strings.ToUpper(name)[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return uint32(c), nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(lower, "f%d", &n); err == nil && fmt.Sprintf("f%d", n) == lower && n >= 1 && n <= 24 {
		return 0x70 + uint32(n-1), nil
	}
	return 0, fmt.Errorf("unknown key %q", name)
}

// Format renders a modifier mask and key as "Win+Shift+D".
func Format(modifiers, key uint32) string {
	var parts []string
	for _, m := range modifierOrder {
		if modifiers&m.flag != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, keyLabel(key)), "+")
}

func keyLabel(key uint32) string {
	if label, ok := keyLabels[key]; ok {
		return label
	}
	switch {
	case (key >= 'A' && key <= 'Z') || (key >= '0' && key <= '9'):
		return string(rune(key))
	case key >= 0x70 && key <= 0x87:
		return fmt.Sprintf("F%d", key-0x70+1)
	}
	return fmt.Sprintf("0x%02X", key)
}

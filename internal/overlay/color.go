package overlay

import (
	"image/color"
	"regexp"
	"strconv"
)

// DefaultTint replaces any tint that is not a plain hex colour.
const DefaultTint = "#000000"

var hexColor = regexp.MustCompile(`^#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{4}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})$`)

// IsValidHexColor accepts #RGB, #ARGB, #RRGGBB and #AARRGGBB.
func IsValidHexColor(s string) bool {
	return hexColor.MatchString(s)
}

// SanitizeTint returns s if it is a valid hex colour and DefaultTint
// otherwise.
func SanitizeTint(s string) string {
	if IsValidHexColor(s) {
		return s
	}
	return DefaultTint
}

// ParseTint decodes a hex colour. Alpha comes first in the 4 and 8 digit
// forms. Invalid input yields opaque black.
func ParseTint(s string) color.NRGBA {
	if !IsValidHexColor(s) {
		return color.NRGBA{A: 0xFF}
	}
	digits := s[1:]
	if len(digits) <= 4 {
		expanded := make([]byte, 0, len(digits)*2)
		for i := 0; i < len(digits); i++ {
			expanded = append(expanded, digits[i], digits[i])
		}
		digits = string(expanded)
	}
	v, _ := strconv.ParseUint(digits, 16, 32)

	c := color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xFF,
	}
	if len(digits) == 8 {
		c.A = uint8(v >> 24)
	}
	return c
}

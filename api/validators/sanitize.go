package validators

import "strings"

// Free-text length caps. Anything longer is silently truncated rather than
// rejected; the fields are informational, not state-bearing.
const (
	MaxNotesLen          = 2000
	MaxAddressLen        = 500
	MaxTrackingNumberLen = 64
	MaxCarrierLen        = 64
)

// SanitizeString trims surrounding whitespace, drops control characters,
// and truncates to maxLen runes. maxLen <= 0 means no length cap.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, input)
	cleaned = strings.TrimSpace(cleaned)
	if maxLen <= 0 {
		return cleaned
	}
	runes := []rune(cleaned)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return cleaned
}

package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/safetradehq/safetrade-backend/pkg/errors"
)

// ParseQueryInt reads an integer query parameter. An absent parameter
// yields defaultVal; a malformed or out-of-range one is rejected rather
// than clamped, so a paging bug in a client surfaces as a 400 instead of a
// silently truncated listing.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, queryError("query parameter must be numeric", map[string]any{
			"field": key,
			"value": raw,
		})
	}
	if value < min || value > max {
		return 0, queryError("query parameter out of range", map[string]any{
			"field": key,
			"min":   min,
			"max":   max,
		})
	}
	return value, nil
}

func queryError(message string, details map[string]any) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
}

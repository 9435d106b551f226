// Package sanitize normalizes the semi-structured JSON that comes back
// from the model before it reaches any renderer. Structured-output mode
// is probabilistic: a field declared as a string occasionally arrives as
// a nested object, and a JSON body occasionally arrives wrapped in
// markdown code fences. Everything user-visible funnels through here.
package sanitize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// labelKeys are tried in order when a string field arrives as an object.
var labelKeys = []string{
	"name", "label", "cityName", "locationName",
	"area", "address", "fullAddress", "description",
}

// DisplayString coerces an arbitrary decoded JSON value into a
// renderable string. Strings pass through, nil yields the fallback, and
// objects are flattened by probing labelKeys (one level of recursion for
// nested candidates). An object carrying numeric lat/lng is a coordinate
// pair, not a label, and yields the fallback.
func DisplayString(v any, fallback string) string {
	switch val := v.(type) {
	case nil:
		return fallback
	case string:
		return val
	case map[string]any:
		for _, key := range labelKeys {
			if inner, ok := val[key]; ok && inner != nil {
				if s := DisplayString(inner, ""); s != "" {
					return s
				}
			}
		}
		if isNumber(val["lat"]) || isNumber(val["lng"]) {
			return fallback
		}
		b, err := json.Marshal(val)
		if err != nil {
			return fallback
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, json.Number:
		return true
	}
	return false
}

// StripCodeFence removes markdown ```json fences the model sometimes
// wraps around an otherwise valid JSON body.
func StripCodeFence(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Decode strips code fences and unmarshals raw into out. It reports
// whether the parse succeeded; on failure out is left in its zero shape
// so callers can fill defaults instead of failing the whole operation.
func Decode(raw string, out any) bool {
	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		return false
	}
	return json.Unmarshal([]byte(cleaned), out) == nil
}

package eventlog

import "strings"

// RedactionMarker replaces the value of any deny-listed key.
const RedactionMarker = "[REDACTED]"

// maxRedactDepth bounds how far Redact descends into nested maps.
const maxRedactDepth = 2

// denyList holds lowercase key names whose values must never be emitted.
var denyList = map[string]struct{}{
	"password":      {},
	"apikey":        {},
	"api_key":       {},
	"token":         {},
	"secret":        {},
	"authorization": {},
	"cookie":        {},
	"session_token": {},
}

// IsDenied reports whether a key is on the redaction deny-list.
// Matching is case-insensitive.
func IsDenied(key string) bool {
	_, ok := denyList[strings.ToLower(key)]
	return ok
}

// Redact returns a copy of m with deny-listed values replaced by
// RedactionMarker, descending at most two nesting levels. The input map is
// never mutated. Maps nested deeper than two levels are passed through as-is.
func Redact(m map[string]any) map[string]any {
	return redactDepth(m, 1)
}

func redactDepth(m map[string]any, depth int) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if IsDenied(k) {
			out[k] = RedactionMarker
			continue
		}
		if nested, ok := v.(map[string]any); ok && depth < maxRedactDepth {
			out[k] = redactDepth(nested, depth+1)
			continue
		}
		out[k] = v
	}
	return out
}

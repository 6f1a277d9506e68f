package recorder

import "github.com/vietddude/toolguard/eventlog"

// maxStringLen bounds string values persisted in metadata.
const maxStringLen = 1000

// truncationMarker is appended to any string cut at maxStringLen.
const truncationMarker = "...[truncated]"

// SanitizeMetadata returns a copy of metadata safe for durable storage:
// deny-listed keys are stripped entirely and string values longer than 1000
// characters are truncated with a marker. Applies to the first two nesting
// levels, bounding both storage growth and leakage of sensitive values.
func SanitizeMetadata(metadata map[string]any) map[string]any {
	return sanitizeDepth(metadata, 1)
}

func sanitizeDepth(m map[string]any, depth int) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if eventlog.IsDenied(k) {
			continue
		}
		switch val := v.(type) {
		case string:
			if len(val) > maxStringLen {
				val = val[:maxStringLen] + truncationMarker
			}
			out[k] = val
		case map[string]any:
			if depth < 2 {
				out[k] = sanitizeDepth(val, depth+1)
			} else {
				out[k] = val
			}
		default:
			out[k] = v
		}
	}
	return out
}

package recorder

import "strings"

// DefaultCategory is used when no prefix matches.
const DefaultCategory = "general"

// categoryByPrefix maps operation-name prefixes onto reporting categories.
// Immutable after init; first match wins.
var categoryByPrefix = []struct {
	prefix   string
	category string
}{
	{"profile_", "profile"},
	{"goal_", "goals"},
	{"planner_", "planning"},
	{"plan_", "planning"},
	{"tracker_", "tracking"},
	{"food_", "food_data"},
	{"restaurant_", "ordering"},
	{"order_", "ordering"},
	{"sys_", "system"},
}

// InferCategory derives the reporting category from an operation name.
func InferCategory(operationName string) string {
	for _, m := range categoryByPrefix {
		if strings.HasPrefix(operationName, m.prefix) {
			return m.category
		}
	}
	return DefaultCategory
}

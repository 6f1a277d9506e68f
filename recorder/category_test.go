package recorder

import "testing"

func TestInferCategory(t *testing.T) {
	tests := []struct {
		operation string
		want      string
	}{
		{"profile_get", "profile"},
		{"goal_update", "goals"},
		{"planner_generate", "planning"},
		{"plan_swap_meal", "planning"},
		{"tracker_log_meal", "tracking"},
		{"food_search", "food_data"},
		{"restaurant_get_menu", "ordering"},
		{"order_place", "ordering"},
		{"sys_probe", "system"},
		{"something_else", "general"},
		{"", "general"},
	}
	for _, tt := range tests {
		if got := InferCategory(tt.operation); got != tt.want {
			t.Errorf("InferCategory(%q) = %q, want %q", tt.operation, got, tt.want)
		}
	}
}

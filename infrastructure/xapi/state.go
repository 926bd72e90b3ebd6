package xapi

import (
	"time"

	"quiz_solver/domain/entities"
)

// completionFlags mark a record as finished in the course player.
var completionFlags = []string{"_isComplete", "_isInteractionComplete", "_isInprogress"}

// newState is the skeleton saved when the learner has no stored state yet.
func newState(activityID string) map[string]any {
	return map[string]any{
		"course": map[string]any{
			"_id":                    activityID,
			"_isComplete":            false,
			"_isInteractionComplete": false,
			"_isInprogress":          true,
		},
		"contentObjects": []any{},
		"articles":       []any{},
		"blocks":         []any{},
		"components":     []any{},
		"offlineStorage": map[string]any{},
	}
}

// userAnswer - the selection the course player would have stored for c
func userAnswer(c entities.Component) []bool {
	switch {
	case c.Kind == "mcq" && len(c.Items) > 0:
		answer := make([]bool, len(c.Items))
		for n, item := range c.Items {
			answer[n] = item.ShouldBeSelected
		}
		return answer
	case len(c.Items) > 0 && c.Items[0].Options.Defined:
		correct := map[int]bool{}
		for _, item := range c.Items {
			for _, idx := range item.CorrectOptionIndexes() {
				correct[idx] = true
			}
		}
		size := len(c.Items[0].Options.Options)
		if size == 0 {
			size = 4
		}
		answer := make([]bool, size)
		for idx := range answer {
			answer[idx] = correct[idx]
		}
		return answer
	default:
		return []bool{false, false, false, false}
	}
}

// patchState - marks every component answered and every structural record
// complete; entries for components not being submitted are kept as they are
func patchState(state map[string]any, components []entities.Component, now time.Time) map[string]any {
	if state == nil {
		return state
	}
	stamp := now.UTC().Format(time.RFC3339Nano)

	var order []string
	byID := map[string]any{}
	if existing, ok := state["components"].([]any); ok {
		for _, raw := range existing {
			rec, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			id, _ := rec["_id"].(string)
			if _, seen := byID[id]; !seen {
				order = append(order, id)
			}
			byID[id] = rec
		}
	}

	for _, c := range components {
		answer := userAnswer(c)
		if _, seen := byID[c.ID]; !seen {
			order = append(order, c.ID)
		}
		byID[c.ID] = map[string]any{
			"_id":                    c.ID,
			"_isComplete":            true,
			"_isInteractionComplete": true,
			"_isInprogress":          true,
			"_userAnswer":            answer,
			"_attemptStates": []any{[]any{
				[]int{1, 0},
				[]bool{true, true, true, true, true},
				[]any{answer},
			}},
			"_isSubmitted":   true,
			"_score":         1,
			"_isCorrect":     true,
			"_attemptsLeft":  0,
			"_attemptsSpent": 1,
			"timestamp":      stamp,
		}
	}

	records := make([]any, 0, len(order))
	for _, id := range order {
		records = append(records, byID[id])
	}
	state["components"] = records

	if course, ok := state["course"].(map[string]any); ok {
		for _, flag := range completionFlags {
			course[flag] = true
		}
	}
	for _, key := range []string{"articles", "blocks", "contentObjects"} {
		list, ok := state[key].([]any)
		if !ok {
			continue
		}
		for _, raw := range list {
			rec, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			for _, flag := range completionFlags {
				rec[flag] = true
			}
			if _, ok := rec["timestamp"]; !ok {
				rec["timestamp"] = stamp
			}
		}
	}
	if _, ok := state["offlineStorage"]; !ok {
		state["offlineStorage"] = map[string]any{}
	}
	return state
}

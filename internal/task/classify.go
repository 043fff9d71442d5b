package task

import "strings"

var typeKeywords = []struct {
	taskType string
	words    []string
}{
	{TypeContentCreation, []string{"write", "blog", "post", "article", "content", "copy", "social media", "caption", "newsletter"}},
	{TypeAnalysis, []string{"metric", "kpi", "performance", "analytics", "data", "conversion", "revenue"}},
	{TypeResearch, []string{"research", "trend", "competitor", "market", "industry", "consumer"}},
}

// Classify maps a user goal to a task type by keyword. Goals that match
// nothing are treated as strategy work handled by the orchestrator.
func Classify(goal string) string {
	lower := strings.ToLower(goal)
	for _, tk := range typeKeywords {
		for _, w := range tk.words {
			if strings.Contains(lower, w) {
				return tk.taskType
			}
		}
	}
	return TypeStrategy
}

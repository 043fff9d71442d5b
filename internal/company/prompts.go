package company

import "fmt"

// SuggestedPrompt is a starter prompt surfaced by the API and CLI.
type SuggestedPrompt struct {
	Label        string   `json:"label"`
	Prompt       string   `json:"prompt"`
	Complexity   string   `json:"complexity"`
	ExpectedFlow []string `json:"expected_flow"`
}

// SuggestedPrompts generates starter prompts bound to the company name.
func SuggestedPrompts(d *Data) []SuggestedPrompt {
	name := d.Company.Name
	if name == "" {
		name = "the company"
	}
	return []SuggestedPrompt{
		{
			Label:        "Simple Research",
			Prompt:       fmt.Sprintf("Research current industry trends for %s.", name),
			Complexity:   "simple",
			ExpectedFlow: []string{"Founder", "Market Researcher", "Founder"},
		},
		{
			Label:        "SEO Analysis",
			Prompt:       "What keywords should we target for our new product launch?",
			Complexity:   "medium",
			ExpectedFlow: []string{"Founder", "Marketing Head", "SEO Analyst", "Marketing Head", "Founder"},
		},
		{
			Label:        "Content Creation",
			Prompt:       "Write a seo-optimized blog post about sustainable practices in our industry.",
			Complexity:   "medium",
			ExpectedFlow: []string{"Founder", "Marketing Head", "SEO Analyst", "Content Creator", "Marketing Head", "Founder", "Brand Reviewer", "Founder"},
		},
		{
			Label:      "Full Marketing Strategy",
			Prompt:     "I need a complete marketing strategy and blog post for our new product launch. Include SEO recommendations.",
			Complexity: "complex",
			ExpectedFlow: []string{
				"Founder", "Market Researcher", "Founder",
				"Marketing Head", "SEO Analyst", "Content Creator",
				"Marketing Head", "Founder",
			},
		},
		{
			Label:        "Competitive Analysis",
			Prompt:       fmt.Sprintf("Analyze our competitors and identify opportunities for %s.", name),
			Complexity:   "medium",
			ExpectedFlow: []string{"Founder", "Market Researcher", "Founder"},
		},
	}
}

package company

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Info is the company profile block of a data file.
type Info struct {
	Name           string   `json:"name"`
	Mission        string   `json:"mission"`
	BrandVoice     string   `json:"brand_voice"`
	Philosophy     string   `json:"philosophy"`
	TargetAudience string   `json:"target_audience"`
	Products       []string `json:"products,omitempty"`
}

// Data is one company's full data file: profile, hierarchy, and the
// reference datasets agents read through tools. Reference data stays
// raw; only the tools that serve it interpret it.
type Data struct {
	ID               string               `json:"-"`
	Company          Info                 `json:"company"`
	Hierarchy        map[string]AgentNode `json:"hierarchy,omitempty"`
	MarketResearch   json.RawMessage      `json:"market_research,omitempty"`
	SEOData          json.RawMessage      `json:"seo_data,omitempty"`
	BrandAssets      json.RawMessage      `json:"brand_assets,omitempty"`
	ContentTemplates json.RawMessage      `json:"content_templates,omitempty"`
	Analytics        json.RawMessage      `json:"analytics,omitempty"`
}

// DefaultHierarchy is the stock workforce used when a company file does
// not declare its own: a founder orchestrating a marketing lead (with
// SEO and content workers), two standalone workers, and a reviewer.
func DefaultHierarchy() map[string]AgentNode {
	return map[string]AgentNode{
		"founder": {
			Name:     "Founder",
			Role:     RoleOrchestrator,
			Children: []string{"marketing_head", "market_researcher", "data_analyst"},
		},
		"marketing_head": {
			Name:     "Marketing Head",
			Role:     RoleLead,
			Children: []string{"seo_analyst", "content_creator"},
		},
		"market_researcher": {Name: "Market Researcher", Role: RoleWorker},
		"data_analyst":      {Name: "Data Analyst", Role: RoleWorker},
		"seo_analyst":       {Name: "SEO Analyst", Role: RoleWorker},
		"content_creator":   {Name: "Content Creator", Role: RoleWorker},
		"brand_reviewer":    {Name: "Brand Reviewer", Role: RoleReviewer},
	}
}

// Load reads a company data file from dataDir by id.
func Load(dataDir, id string) (*Data, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("company id is required")
	}
	path := filepath.Join(dataDir, filepath.Base(id)+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load company %s: %w", id, err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse company %s: %w", id, err)
	}
	data.ID = id
	if len(data.Hierarchy) == 0 {
		data.Hierarchy = DefaultHierarchy()
	}
	return &data, nil
}

// List returns every company id available in dataDir.
func List(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Registry builds the agent registry for this company's hierarchy.
func (d *Data) Registry() (*Registry, error) {
	return BuildRegistry(d.Hierarchy)
}

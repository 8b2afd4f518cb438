package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Nutrition holds per-plan macro totals.
type Nutrition struct {
	Protein  float64 `yaml:"protein" json:"protein"`
	Calories float64 `yaml:"calories" json:"calories"`
	Carbs    float64 `yaml:"carbs" json:"carbs"`
	Fats     float64 `yaml:"fats" json:"fats"`
}

// Step is one cooking-mode step of a plan.
type Step struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Plan describes a weekly meal plan page.
type Plan struct {
	File         string     `yaml:"file" json:"file"`
	Title        string     `yaml:"title" json:"title"`
	Subtitle     string     `yaml:"subtitle" json:"subtitle"`
	Category     string     `yaml:"category" json:"category"`
	Features     []string   `yaml:"features" json:"features"`
	Proteins     []string   `yaml:"proteins" json:"proteins"`
	CookingSteps []Step     `yaml:"cooking_steps" json:"cookingSteps"`
	Nutrition    *Nutrition `yaml:"nutrition,omitempty" json:"nutrition,omitempty"`
}

// ID is the plan's page id: its file name without the .html extension.
func (p Plan) ID() string {
	return strings.TrimSuffix(p.File, ".html")
}

type document struct {
	Plans []Plan `yaml:"plans"`
}

// Catalog is the read-only list of meal plans supplied by the surrounding application.
type Catalog struct {
	plans []Plan
}

// New creates a catalog from plans in display order.
func New(plans []Plan) *Catalog {
	return &Catalog{plans: plans}
}

// Load reads a YAML catalog file with a top-level "plans" list.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	for i, p := range doc.Plans {
		if p.Title == "" {
			return nil, fmt.Errorf("plan %d: title is required", i)
		}
	}
	return New(doc.Plans), nil
}

// Plans returns the plans in catalog order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// Lookup finds a plan by exact title.
func (c *Catalog) Lookup(title string) (Plan, bool) {
	for _, p := range c.plans {
		if p.Title == title {
			return p, true
		}
	}
	return Plan{}, false
}

// ByID finds a plan by page id, with or without the .html extension.
func (c *Catalog) ByID(planID string) (Plan, bool) {
	id := strings.TrimSuffix(planID, ".html")
	for _, p := range c.plans {
		if p.ID() == id {
			return p, true
		}
	}
	return Plan{}, false
}

// TotalSteps returns the number of cooking steps of a plan, 0 when unknown.
func (c *Catalog) TotalSteps(planID string) int {
	p, ok := c.ByID(planID)
	if !ok {
		return 0
	}
	return len(p.CookingSteps)
}

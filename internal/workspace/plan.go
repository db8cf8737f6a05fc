package workspace

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PlanEntry is one declared target
type PlanEntry struct {
	Name string `yaml:"name"`
	IP   string `yaml:"ip"`
}

// Plan is the declared set of batch targets, partitioned by classification
type Plan struct {
	Standalone      []PlanEntry `yaml:"standalone"`
	ActiveDirectory []PlanEntry `yaml:"active_directory"`
}

// LoadPlan reads a YAML plan file:
//
//	standalone:
//	  - {name: kiero, ip: 10.10.10.5}
//	active_directory:
//	  - {name: dc01, ip: 10.10.10.10}
func LoadPlan(path string) (Plan, error) {
	var plan Plan
	data, err := os.ReadFile(path)
	if err != nil {
		return plan, fmt.Errorf("reading plan: %w", err)
	}
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return plan, fmt.Errorf("parsing plan %s: %w", path, err)
	}
	return plan, nil
}

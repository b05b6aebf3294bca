// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

// ActivityRegistry documents the service tasks this module implements, as
// referenced by the BPMN models.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	TaskType    string   `json:"taskType"`
	Inputs      []string `json:"inputs"`
	Outputs     []string `json:"outputs"`
	ErrorCodes  []string `json:"errorCodes"`
	Timeout     string   `json:"timeout"`
	Workflows   []string `json:"workflows"`
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse activity registry %s: %w", path, err)
	}
	return &reg, nil
}

// Find returns the activity bound to taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// Missing lists the task types that have no registry entry.
func (r *ActivityRegistry) Missing(taskTypes ...string) []string {
	var out []string
	for _, t := range taskTypes {
		if _, ok := r.Find(t); !ok {
			out = append(out, t)
		}
	}
	return out
}

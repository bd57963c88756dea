// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"vehicle-dedup-workers/internal/common/validation"
)

func LoadRegistry(path string) (*TaskRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg TaskRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate rejects registries with duplicate or malformed task types.
func (r *TaskRegistry) Validate() error {
	seen := make(map[string]struct{}, len(r.Tasks))
	for _, task := range r.Tasks {
		if err := validation.ValidateTaskNaming(task.TaskType); err != nil {
			return err
		}
		if _, dup := seen[task.TaskType]; dup {
			return fmt.Errorf("duplicate task type %q in registry", task.TaskType)
		}
		seen[task.TaskType] = struct{}{}
	}
	return nil
}

// Find returns the registry entry for a task type.
func (r *TaskRegistry) Find(taskType string) (*Task, bool) {
	for i := range r.Tasks {
		if r.Tasks[i].TaskType == taskType {
			return &r.Tasks[i], true
		}
	}
	return nil, false
}

// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "task-registry.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRegistry(t *testing.T) {
	path := writeRegistry(t, `{
		"version": "1.0.0",
		"lastUpdated": "2026-08-01",
		"tasks": [
			{
				"id": "evaluate-candidate-pair",
				"displayName": "Evaluate Candidate Pair",
				"taskType": "evaluate-candidate-pair",
				"timeout": "30s",
				"retries": 3
			},
			{
				"id": "resolve-review-item",
				"displayName": "Resolve Review Item",
				"taskType": "resolve-review-item",
				"timeout": "10s",
				"retries": 3
			}
		]
	}`)

	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", reg.Version)
	require.Len(t, reg.Tasks, 2)

	task, ok := reg.Find("resolve-review-item")
	require.True(t, ok)
	assert.Equal(t, "Resolve Review Item", task.DisplayName)

	_, ok = reg.Find("unknown-task")
	assert.False(t, ok)
}

func TestLoadRegistry_RejectsDuplicateTaskTypes(t *testing.T) {
	path := writeRegistry(t, `{
		"version": "1.0.0",
		"tasks": [
			{"id": "a", "taskType": "evaluate-candidate-pair"},
			{"id": "b", "taskType": "evaluate-candidate-pair"}
		]
	}`)

	_, err := LoadRegistry(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate task type")
}

func TestLoadRegistry_RejectsBadTaskNaming(t *testing.T) {
	path := writeRegistry(t, `{
		"version": "1.0.0",
		"tasks": [
			{"id": "a", "taskType": "EvaluatePair"}
		]
	}`)

	_, err := LoadRegistry(path)
	require.Error(t, err)
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

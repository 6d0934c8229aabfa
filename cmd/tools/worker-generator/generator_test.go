package main

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-workers/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

func checkedInRegistry(t *testing.T) *registry.ActivityRegistry {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	reg, err := registry.LoadRegistry(filepath.Join(filepath.Dir(file), "..", "..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	return reg
}

func activityByID(t *testing.T, id string) *registry.Activity {
	t.Helper()
	reg := checkedInRegistry(t)
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			return &reg.Activities[i]
		}
	}
	t.Fatalf("activity %s not in registry", id)
	return nil
}

// ==========================
// Generation Tests
// ==========================

func TestGenerate_AllRegistryActivitiesParse(t *testing.T) {
	reg := checkedInRegistry(t)
	root := t.TempDir()

	for i := range reg.Activities {
		act := &reg.Activities[i]
		t.Run(act.ID, func(t *testing.T) {
			written, err := Generate(act, root, false)
			require.NoError(t, err)
			assert.Len(t, written, 4)

			for _, path := range written {
				_, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.AllErrors)
				assert.NoError(t, err, path)
			}
		})
	}
}

func TestGenerate_Layout(t *testing.T) {
	root := t.TempDir()
	_, err := Generate(activityByID(t, "score-tour-match"), root, false)
	require.NoError(t, err)

	dir := filepath.Join(root, "recommendation", "score-tour-match")
	for _, name := range []string{"config.go", "models.go", "handler.go", "handler_test.go"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	handler, err := os.ReadFile(filepath.Join(dir, "handler.go"))
	require.NoError(t, err)
	assert.Contains(t, string(handler), "package scoretourmatch")
	assert.Contains(t, string(handler), `TaskType = "score-tour-match"`)

	config, err := os.ReadFile(filepath.Join(dir, "config.go"))
	require.NoError(t, err)
	assert.Contains(t, string(config), "10 * time.Second")
}

func TestGenerate_ModelsFields(t *testing.T) {
	root := t.TempDir()
	_, err := Generate(activityByID(t, "generate-recommendations"), root, false)
	require.NoError(t, err)

	models, err := os.ReadFile(filepath.Join(root, "recommendation", "generate-recommendations", "models.go"))
	require.NoError(t, err)
	src := string(models)

	assert.Contains(t, src, "CustomerID")
	assert.Contains(t, src, `json:"customerId,omitempty"`)
	assert.Contains(t, src, `json:"preferences"`)
	assert.Contains(t, src, "map[string]interface{}")
	assert.Less(t, strings.Index(src, "Algorithm"), strings.Index(src, "Reasoning"))
}

func TestGenerate_SkipsExistingUnlessForced(t *testing.T) {
	root := t.TempDir()
	act := activityByID(t, "track-interaction")

	_, err := Generate(act, root, false)
	require.NoError(t, err)

	handlerPath := filepath.Join(root, "recommendation", "track-interaction", "handler.go")
	require.NoError(t, os.WriteFile(handlerPath, []byte("package custom\n"), 0o644))

	written, err := Generate(act, root, false)
	require.NoError(t, err)
	assert.Empty(t, written)

	data, err := os.ReadFile(handlerPath)
	require.NoError(t, err)
	assert.Equal(t, "package custom\n", string(data))

	written, err = Generate(act, root, true)
	require.NoError(t, err)
	assert.Len(t, written, 4)
}

func TestGenerate_InvalidTimeout(t *testing.T) {
	act := &registry.Activity{ID: "broken", Category: "booking", TaskType: "broken", Timeout: "soon"}
	_, err := Generate(act, t.TempDir(), false)
	assert.Error(t, err)
}

// ==========================
// Helper Tests
// ==========================

func TestGoType(t *testing.T) {
	tests := []struct {
		name    string
		details map[string]interface{}
		want    string
	}{
		{"string", map[string]interface{}{"type": "string"}, "string"},
		{"integer", map[string]interface{}{"type": "integer"}, "int"},
		{"number", map[string]interface{}{"type": "number"}, "float64"},
		{"boolean", map[string]interface{}{"type": "boolean"}, "bool"},
		{"object", map[string]interface{}{"type": "object"}, "map[string]interface{}"},
		{"string array", map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}}, "[]string"},
		{"untyped array", map[string]interface{}{"type": "array"}, "[]interface{}"},
		{"nullable", map[string]interface{}{"type": []interface{}{"null", "number"}}, "float64"},
		{"missing", map[string]interface{}{}, "interface{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, goType(tt.details))
		})
	}
}

func TestExportName(t *testing.T) {
	assert.Equal(t, "TourID", exportName("tourId"))
	assert.Equal(t, "SortBy", exportName("sortBy"))
	assert.Equal(t, "QueryType", exportName("query-type"))
	assert.Equal(t, "Identity", exportName("identity"))
}

func TestCategoryDir(t *testing.T) {
	assert.Equal(t, "recommendation", categoryDir("recommendation"))
	assert.Equal(t, "data-access", categoryDir("search"))
	assert.Equal(t, "ops", categoryDir("Ops"))
}

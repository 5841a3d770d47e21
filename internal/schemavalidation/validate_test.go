// Package schemavalidation checks that persisted ignite artifacts match
// their published JSON Schemas under docs/schema/, the same
// fixture-against-schema contract the teacher's own schema validation
// package runs for its wire formats.
package schemavalidation

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

type schemaCase struct {
	name         string
	schemaPath   string
	instancePath string
}

func TestSchemaValidation(t *testing.T) {
	repoRoot := repoRoot(t)
	cases := []schemaCase{
		{
			name:         "proof-bundle",
			schemaPath:   filepath.Join(repoRoot, "docs", "schema", "proof-bundle-v1.schema.json"),
			instancePath: filepath.Join(repoRoot, "docs", "spec", "fixtures", "proof-bundle-v1.json"),
		},
		{
			name:         "manifest",
			schemaPath:   filepath.Join(repoRoot, "docs", "schema", "manifest-v1.schema.json"),
			instancePath: filepath.Join(repoRoot, "docs", "spec", "fixtures", "manifest-v1.json"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			validateInstance(t, tc.schemaPath, tc.instancePath)
		})
	}
}

func validateInstance(t *testing.T, schemaPath, instancePath string) {
	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}

	instanceData, err := os.ReadFile(instancePath)
	if err != nil {
		t.Fatalf("read instance: %v", err)
	}

	var instance any
	if err := json.Unmarshal(instanceData, &instance); err != nil {
		t.Fatalf("unmarshal instance: %v", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaPath, bytes.NewReader(schemaData)); err != nil {
		t.Fatalf("add schema resource: %v", err)
	}
	schema, err := compiler.Compile(schemaPath)
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}

	if err := schema.Validate(instance); err != nil {
		t.Fatalf("schema validation failed for %s: %v", filepath.Base(instancePath), err)
	}
}

func repoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to resolve caller path")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

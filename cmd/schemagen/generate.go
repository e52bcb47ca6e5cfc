// Command schemagen writes the JSON Schema for the rulez config file
// (engine/config.Config) to disk, so editors and CI can validate
// .claude/hooks.yaml without running the engine itself.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/rulez-engine/rulez/engine/config"
)

// GenerateConfigSchema reflects engine/config.Config into a Draft-07 JSON
// Schema and writes it to outDir/hooks-config.json.
func GenerateConfigSchema(outDir string) error {
	fmt.Println("Generating JSON schema for the hooks config format...")

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: false,
		AllowAdditionalProperties:  true,
		DoNotReference:             false,
		BaseSchemaID:               "http://json-schema.org/draft-07/schema#",
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Version = "http://json-schema.org/draft-07/schema#"
	schema.Title = "rulez hooks configuration"
	schema.Extras = map[string]any{"yamlCompatible": true}

	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config schema: %w", err)
	}

	filePath := filepath.Join(outDir, "hooks-config.json")
	if err := os.WriteFile(filePath, schemaJSON, 0o600); err != nil {
		return fmt.Errorf("failed to write schema to %s: %w", filePath, err)
	}
	fmt.Printf("Generated schema: %s\n", filePath)
	return nil
}

func main() {
	outDir := "./schemas"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}
	if err := GenerateConfigSchema(outDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating schema: %v\n", err)
		os.Exit(1)
	}
}

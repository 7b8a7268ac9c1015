package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gcbaptista/go-collection-search/model"
)

// ReadDefinitionFile reads a problem definition written as yaml. JSON
// definitions parse too, since the field names are shared.
func ReadDefinitionFile(path string) (model.ProblemDefinition, error) {
	var def model.ProblemDefinition

	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("failed to read definition file: %w", err)
	}
	if err := yaml.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("failed to parse definition file %s: %w", path, err)
	}
	if err := def.Validate(); err != nil {
		return def, err
	}
	return def, nil
}

// WriteDefinitionFile writes a definition as yaml, for example one built
// from an item file, so it can be posted to a server or run again.
func WriteDefinitionFile(path string, def model.ProblemDefinition) error {
	data, err := yaml.Marshal(&def)
	if err != nil {
		return fmt.Errorf("failed to encode definition: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write definition file: %w", err)
	}
	return nil
}

package feeders

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YamlFeeder is a feeder that reads YAML files
type YamlFeeder struct {
	Path string
}

// NewYamlFeeder creates a new YamlFeeder that reads from the specified YAML file
func NewYamlFeeder(filePath string) YamlFeeder {
	return YamlFeeder{Path: filePath}
}

// Feed unmarshals the whole file into structure.
func (y YamlFeeder) Feed(structure any) error {
	data, err := os.ReadFile(y.Path)
	if err != nil {
		return fmt.Errorf("failed to read YAML: %w", err)
	}
	if err := yaml.Unmarshal(data, structure); err != nil {
		return fmt.Errorf("failed to unmarshal YAML %s: %w", y.Path, err)
	}
	return nil
}

// FeedKey reads a YAML file and extracts a specific top-level key.
// A missing key leaves target untouched.
func (y YamlFeeder) FeedKey(key string, target any) error {
	var allData map[string]any
	if err := y.Feed(&allData); err != nil {
		return err
	}

	value, exists := allData[key]
	if !exists {
		return nil
	}

	// Remarshal and unmarshal to handle type conversions
	valueBytes, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err = yaml.Unmarshal(valueBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal value to target: %w", err)
	}

	return nil
}

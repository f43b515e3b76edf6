package feeders

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// DotEnvFeeder loads a .env file into the process environment and then feeds
// the structure like EnvFeeder. Variables already present in the environment
// win over values from the file. A missing file is not an error.
type DotEnvFeeder struct {
	Path string
	EnvFeeder
}

// NewDotEnvFeeder creates a new DotEnvFeeder that reads from the specified .env file
func NewDotEnvFeeder(filePath string) DotEnvFeeder {
	return DotEnvFeeder{Path: filePath}
}

// Feed loads the file, then populates the provided structure from the environment.
func (f DotEnvFeeder) Feed(structure any) error {
	if err := f.Load(); err != nil {
		return err
	}
	return f.EnvFeeder.Feed(structure)
}

// Load parses the .env file and exports every variable that is not already set.
func (f DotEnvFeeder) Load() error {
	vars, err := parseDotEnvFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	for key, value := range vars {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to export %s: %w", key, err)
		}
	}
	return nil
}

// parseDotEnvFile parses a .env file and returns the key-value pairs
func parseDotEnvFile(filename string) (map[string]string, error) {
	result := make(map[string]string)

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		idx := strings.Index(line, "=")
		if idx == -1 {
			return nil, fmt.Errorf("%w at line %d: %s", ErrDotEnvInvalidLineFormat, lineNum, line)
		}

		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		result[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	return result, nil
}

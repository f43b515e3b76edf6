package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultSeed is the task the collection starts with.
var DefaultSeed = []Task{
	{ID: 1, Title: "Laboratory Activity", Desc: "Create Lab Act 2", IsFinished: false},
}

type seedFile struct {
	Tasks []Task `yaml:"tasks" toml:"tasks"`
}

// LoadSeedFile reads tasks from a .yaml, .yml or .toml file:
//
//	tasks:
//	  - task_id: 1
//	    task_title: Laboratory Activity
func LoadSeedFile(path string) ([]Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSeedLoad, err)
	}

	var seed seedFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &seed)
	case ".toml":
		err = toml.Unmarshal(data, &seed)
	default:
		return nil, fmt.Errorf("%w: %s", ErrSeedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSeedLoad, path, err)
	}
	return seed.Tasks, nil
}

// seedTasks resolves the initial collection from config.
func seedTasks(cfg *TasksConfig) ([]Task, error) {
	switch {
	case cfg.SeedFile != "":
		return LoadSeedFile(cfg.SeedFile)
	case cfg.SeedDefault:
		return append([]Task(nil), DefaultSeed...), nil
	default:
		return nil, nil
	}
}

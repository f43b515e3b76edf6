package feeders

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

func TestYamlFeeder_Feed(t *testing.T) {
	path := writeTemp(t, "config.yaml", `
app_name: TestApp
environment: dev
debug: true
`)

	type Config struct {
		AppName     string `yaml:"app_name"`
		Environment string `yaml:"environment"`
		Debug       bool   `yaml:"debug"`
	}

	var config Config
	if err := NewYamlFeeder(path).Feed(&config); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if config.AppName != "TestApp" {
		t.Errorf("Expected AppName to be 'TestApp', got '%s'", config.AppName)
	}
	if config.Environment != "dev" {
		t.Errorf("Expected Environment to be 'dev', got '%s'", config.Environment)
	}
	if !config.Debug {
		t.Errorf("Expected Debug to be true, got false")
	}
}

func TestYamlFeeder_FeedKey(t *testing.T) {
	path := writeTemp(t, "config.yaml", `
httpserver:
  host: 127.0.0.1
  port: 9090
tasks:
  prefixes: ["/apiv1"]
`)

	type ServerConfig struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	}

	var server ServerConfig
	feeder := NewYamlFeeder(path)
	if err := feeder.FeedKey("httpserver", &server); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if server.Host != "127.0.0.1" || server.Port != 9090 {
		t.Errorf("Unexpected server config: %+v", server)
	}

	untouched := ServerConfig{Host: "keep", Port: 1}
	if err := feeder.FeedKey("missing", &untouched); err != nil {
		t.Fatalf("Expected no error for missing key, got %v", err)
	}
	if untouched.Host != "keep" || untouched.Port != 1 {
		t.Errorf("Expected missing key to leave target untouched, got %+v", untouched)
	}
}

func TestYamlFeeder_MissingFile(t *testing.T) {
	var config struct{}
	if err := NewYamlFeeder(filepath.Join(t.TempDir(), "nope.yaml")).Feed(&config); err == nil {
		t.Error("Expected error for missing file")
	}
}

package feeders

import (
	"testing"
	"time"
)

func TestTomlFeeder_Feed(t *testing.T) {
	path := writeTemp(t, "config.toml", `
app_name = "TestApp"
environment = "prod"
`)

	type Config struct {
		AppName     string `toml:"app_name"`
		Environment string `toml:"environment"`
	}

	var config Config
	if err := NewTomlFeeder(path).Feed(&config); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if config.AppName != "TestApp" {
		t.Errorf("Expected AppName to be 'TestApp', got '%s'", config.AppName)
	}
	if config.Environment != "prod" {
		t.Errorf("Expected Environment to be 'prod', got '%s'", config.Environment)
	}
}

func TestTomlFeeder_FeedKey(t *testing.T) {
	path := writeTemp(t, "config.toml", `
[httpserver]
host = "0.0.0.0"
port = 8081
shutdown_timeout = "5s"
`)

	type ServerConfig struct {
		Host            string        `toml:"host"`
		Port            int           `toml:"port"`
		ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	}

	var server ServerConfig
	if err := NewTomlFeeder(path).FeedKey("httpserver", &server); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if server.Host != "0.0.0.0" || server.Port != 8081 {
		t.Errorf("Unexpected server config: %+v", server)
	}
	if server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected ShutdownTimeout 5s, got %v", server.ShutdownTimeout)
	}
}

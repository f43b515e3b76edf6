package httpserver

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// HTTPServerConfig defines the configuration for the HTTP server module.
type HTTPServerConfig struct {
	// Host is the interface to bind to. "0.0.0.0" binds every interface.
	Host string `yaml:"host" toml:"host" default:"0.0.0.0" desc:"Address to bind" env:"HTTPSERVER_HOST"`

	// Port is the TCP port to listen on. 0 picks a free port.
	Port int `yaml:"port" toml:"port" default:"8000" desc:"Port to listen on" env:"HTTPSERVER_PORT"`

	ReadTimeout     time.Duration `yaml:"read_timeout" toml:"read_timeout" default:"15s" desc:"Maximum duration for reading a request" env:"HTTPSERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" toml:"write_timeout" default:"15s" desc:"Maximum duration for writing a response" env:"HTTPSERVER_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" toml:"idle_timeout" default:"60s" desc:"Keep-alive idle timeout" env:"HTTPSERVER_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout" default:"30s" desc:"Graceful shutdown limit" env:"HTTPSERVER_SHUTDOWN_TIMEOUT"`

	// TLS serves HTTPS from the given certificate files when enabled.
	TLS TLSConfig `yaml:"tls" toml:"tls"`
}

// TLSConfig holds file based TLS settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled" env:"HTTPSERVER_TLS_ENABLED"`
	CertFile string `yaml:"cert_file" toml:"cert_file" env:"HTTPSERVER_TLS_CERT_FILE"`
	KeyFile  string `yaml:"key_file" toml:"key_file" env:"HTTPSERVER_TLS_KEY_FILE"`
}

// Validate implements the taskapi.ConfigValidator interface.
func (c *HTTPServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}

	if c.TLS.Enabled && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return ErrTLSFilesMissing
	}

	return nil
}

// Address returns the host:port listen address.
func (c *HTTPServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

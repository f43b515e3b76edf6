package chimux

import (
	"fmt"
	"strings"
	"time"
)

// ChiMuxConfig holds the configuration for the chimux module.
//
// Example YAML configuration:
//
//	chimux:
//	  basepath: ""
//	  timeout: 30s
//	  request_logging: true
//	  allowed_origins: ["*"]
//
// Example environment variables:
//
//	CHIMUX_BASE_PATH=/service
//	CHIMUX_TIMEOUT=10s
type ChiMuxConfig struct {
	// AllowedOrigins lists the origins allowed for CORS requests. ["*"] allows all.
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins" default:"[\"*\"]" desc:"List of allowed origins for CORS requests." env:"CHIMUX_ALLOWED_ORIGINS"`

	// AllowedMethods lists the HTTP methods allowed in cross-origin requests.
	AllowedMethods []string `yaml:"allowed_methods" toml:"allowed_methods" default:"[\"GET\",\"POST\",\"PATCH\",\"DELETE\",\"OPTIONS\"]" desc:"List of allowed HTTP methods." env:"CHIMUX_ALLOWED_METHODS"`

	// AllowedHeaders lists the request headers allowed in cross-origin requests.
	AllowedHeaders []string `yaml:"allowed_headers" toml:"allowed_headers" default:"[\"Origin\",\"Accept\",\"Content-Type\",\"X-Requested-With\"]" desc:"List of allowed request headers." env:"CHIMUX_ALLOWED_HEADERS"`

	// MaxAge is the preflight cache duration in seconds.
	MaxAge int `yaml:"max_age" toml:"max_age" default:"300" desc:"Maximum age for CORS preflight cache in seconds." env:"CHIMUX_MAX_AGE"`

	// Timeout bounds request processing. Zero disables the timeout middleware.
	Timeout time.Duration `yaml:"timeout" toml:"timeout" default:"30s" desc:"Default request timeout." env:"CHIMUX_TIMEOUT"`

	// BasePath is stripped from every request before routing.
	// Example: "/service" makes "/apiv1/tasks" reachable as "/service/apiv1/tasks".
	BasePath string `yaml:"basepath" toml:"basepath" desc:"A base path prefix for all routes registered through this module." env:"CHIMUX_BASE_PATH"`

	// RequestLogging enables the structured access log middleware.
	RequestLogging bool `yaml:"request_logging" toml:"request_logging" default:"true" desc:"Log every request with method, path, status and duration." env:"CHIMUX_REQUEST_LOGGING"`
}

// Validate implements the taskapi.ConfigValidator interface.
func (c *ChiMuxConfig) Validate() error {
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidBasePath, c.BasePath)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.Timeout)
	}
	return nil
}

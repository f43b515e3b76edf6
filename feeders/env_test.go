package feeders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvFeeder(t *testing.T) {
	t.Run("read environment variables", func(t *testing.T) {
		t.Setenv("APP_NAME", "TestApp")
		t.Setenv("APP_PORT", "8081")
		t.Setenv("APP_DEBUG", "true")
		t.Setenv("APP_TIMEOUT", "3s")
		t.Setenv("APP_PREFIXES", "/apiv1, /apiv2")

		type Config struct {
			App struct {
				Name     string        `env:"APP_NAME"`
				Port     int           `env:"APP_PORT"`
				Debug    bool          `env:"APP_DEBUG"`
				Timeout  time.Duration `env:"APP_TIMEOUT"`
				Prefixes []string      `env:"APP_PREFIXES"`
			}
		}

		var config Config
		require.NoError(t, NewEnvFeeder().Feed(&config))
		assert.Equal(t, "TestApp", config.App.Name)
		assert.Equal(t, 8081, config.App.Port)
		assert.True(t, config.App.Debug)
		assert.Equal(t, 3*time.Second, config.App.Timeout)
		assert.Equal(t, []string{"/apiv1", "/apiv2"}, config.App.Prefixes)
	})

	t.Run("missing environment variables keep existing values", func(t *testing.T) {
		type Config struct {
			Name string `env:"TASKAPI_TEST_UNSET_VAR"`
		}

		config := Config{Name: "preset"}
		require.NoError(t, NewEnvFeeder().Feed(&config))
		assert.Equal(t, "preset", config.Name)
	})

	t.Run("prefixed names", func(t *testing.T) {
		t.Setenv("HTTPSERVER_PORT", "9999")

		type Config struct {
			Port int `env:"PORT"`
		}

		var config Config
		require.NoError(t, NewPrefixedEnvFeeder("httpserver").Feed(&config))
		assert.Equal(t, 9999, config.Port)
	})

	t.Run("conversion failure", func(t *testing.T) {
		t.Setenv("APP_PORT", "not-a-number")

		type Config struct {
			Port int `env:"APP_PORT"`
		}

		var config Config
		err := NewEnvFeeder().Feed(&config)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEnvConversion)
	})

	t.Run("non struct target", func(t *testing.T) {
		var s string
		assert.ErrorIs(t, NewEnvFeeder().Feed(&s), ErrInvalidStructure)
	})
}

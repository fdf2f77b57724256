package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendKanbanAPI   = "kanbanapi"
	BackendGoogleTasks = "googletasks"
)

// ErrInvalidSettings wraps every settings validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Settings selects and configures the remote authority.
type Settings struct {
	// Backend is kanbanapi (HTTP board API) or googletasks.
	Backend string `yaml:"backend" validate:"oneof=kanbanapi googletasks"`

	// BaseURL is the root of the board API.
	BaseURL string `yaml:"base_url" validate:"required,url"`

	// Credential is sent on every board API request. Empty sends none.
	Credential string `yaml:"credential"`

	// CredentialScheme prefixes the credential in the Authorization header.
	// Empty sends the credential bare.
	CredentialScheme string `yaml:"credential_scheme" validate:"omitempty,alphanum"`

	// Timeout bounds each remote call.
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`

	Server ServerSettings `yaml:"server"`
}

// ServerSettings configures `kanban serve`.
type ServerSettings struct {
	Addr string `yaml:"addr" validate:"required"`

	// RedisAddr selects the Redis repository when set.
	RedisAddr string `yaml:"redis_addr"`

	// Credential is required from clients when set.
	Credential string `yaml:"credential"`

	// FailRate is the share of mutating requests rejected with 503.
	FailRate float64 `yaml:"fail_rate" validate:"gte=0,lte=1"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		Backend:          BackendKanbanAPI,
		BaseURL:          "http://localhost:3000",
		CredentialScheme: "Bearer",
		Timeout:          5 * time.Second,
		Server: ServerSettings{
			Addr: ":3000",
		},
	}
}

// LoadSettings reads SettingsFile over the defaults, applies KANBAN_BACKEND,
// KANBAN_BASE_URL and KANBAN_CREDENTIAL from the environment and validates
// the result. A missing file is not an error.
func (c *Config) LoadSettings() error {
	s := Defaults()

	data, err := os.ReadFile(c.SettingsPath())
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read settings: %w", err)
	case len(bytes.TrimSpace(data)) > 0:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode %s: %w", c.SettingsPath(), err)
		}
	}

	if v, ok := os.LookupEnv("KANBAN_BACKEND"); ok {
		s.Backend = v
	}
	if v, ok := os.LookupEnv("KANBAN_BASE_URL"); ok {
		s.BaseURL = v
	}
	if v, ok := os.LookupEnv("KANBAN_CREDENTIAL"); ok {
		s.Credential = v
	}

	if err := s.Validate(); err != nil {
		return err
	}
	c.Settings = s
	return nil
}

// Validate checks the settings against their field constraints.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}

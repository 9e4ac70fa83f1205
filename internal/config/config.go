// Package config loads the concierge configuration from a YAML file and CONCIERGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. CONCIERGE_SESSIONS_DRIVER.
const EnvPrefix = "CONCIERGE_"

// Config is the full configuration of the concierge binaries.
type Config struct {
	Log          LogConfig          `mapstructure:"log"`
	Server       ServerConfig       `mapstructure:"server"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Ollama       OllamaConfig       `mapstructure:"ollama"`
	Records      RecordsConfig      `mapstructure:"records"`
	Content      ContentConfig      `mapstructure:"content"`
	Sessions     SessionsConfig     `mapstructure:"sessions"`
	FlightSearch FlightSearchConfig `mapstructure:"flight_search"`
	Tracing      TracingConfig      `mapstructure:"tracing"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type ServerConfig struct {
	Address    string        `mapstructure:"address" validate:"required"`
	MCPAddress string        `mapstructure:"mcp_address" validate:"required"`
	Shutdown   time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type EngineConfig struct {
	StepBudget  int           `mapstructure:"step_budget" validate:"gte=1"`
	CallTimeout time.Duration `mapstructure:"call_timeout" validate:"gt=0"`
	TopK        int           `mapstructure:"top_k" validate:"gte=1"`
	// MaxInputSize bounds a user message, in bytes.
	MaxInputSize int `mapstructure:"max_input_size" validate:"gte=1"`
	// AirportsFile replaces the built-in airport directory with a CSV of city,code rows.
	AirportsFile string `mapstructure:"airports_file"`
}

type OllamaConfig struct {
	URL        string `mapstructure:"url" validate:"required,url"`
	ChatModel  string `mapstructure:"chat_model" validate:"required"`
	EmbedModel string `mapstructure:"embed_model" validate:"required"`
}

type RecordsConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=memory sqlite"`
	Path   string `mapstructure:"path" validate:"required_if=Driver sqlite"`
}

type ContentConfig struct {
	Driver     string `mapstructure:"driver" validate:"oneof=memory pgvector"`
	URL        string `mapstructure:"url" validate:"required_if=Driver pgvector"`
	Dimensions int    `mapstructure:"dimensions" validate:"gte=1"`
}

type SessionsConfig struct {
	Driver   string        `mapstructure:"driver" validate:"oneof=memory redis"`
	Address  string        `mapstructure:"address" validate:"required_if=Driver redis"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
	LockTTL  time.Duration `mapstructure:"lock_ttl" validate:"gt=0"`
	// Redact masks personal data in stored messages. RedactPatterns replaces the built-in patterns.
	Redact         bool     `mapstructure:"redact"`
	RedactPatterns []string `mapstructure:"redact_patterns"`
}

type FlightSearchConfig struct {
	ProviderURL string        `mapstructure:"provider_url" validate:"required,url"`
	SkipOrigins []string      `mapstructure:"skip_origins"`
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type TracingConfig struct {
	Exporter   string  `mapstructure:"exporter" validate:"oneof=none stdout otlp"`
	Endpoint   string  `mapstructure:"endpoint" validate:"required_if=Exporter otlp"`
	Insecure   bool    `mapstructure:"insecure"`
	// SampleRate is a pointer so an explicit 0 survives defaulting and disables sampling.
	SampleRate *float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace" validate:"required"`
}

// sections lists the top-level keys environment overrides may target.
var sections = []string{
	"flight_search", "log", "server", "engine", "ollama", "records", "content", "sessions", "tracing", "metrics",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the configuration used for every unset field.
// Zero values in a loaded file count as unset, except for pointer fields.
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{Address: ":8080", MCPAddress: ":8081", Shutdown: 10 * time.Second},
		Engine: EngineConfig{StepBudget: 100, CallTimeout: 60 * time.Second, TopK: 4, MaxInputSize: 4096},
		Ollama: OllamaConfig{
			URL:        "http://localhost:11434",
			ChatModel:  "llama3",
			EmbedModel: "nomic-embed-text",
		},
		Records:  RecordsConfig{Driver: "memory"},
		Content:  ContentConfig{Driver: "memory", Dimensions: 768},
		Sessions: SessionsConfig{Driver: "memory", LockTTL: 2 * time.Minute},
		FlightSearch: FlightSearchConfig{
			ProviderURL: "http://localhost:9000",
			SkipOrigins: []string{"IKA"},
			Concurrency: 4,
			Timeout:     30 * time.Second,
		},
		Tracing: TracingConfig{Exporter: "none", SampleRate: ptr(1.0)},
		Metrics: MetricsConfig{Namespace: "concierge"},
	}
}

func ptr[T any](v T) *T { return &v }

// Load reads path (optional), applies CONCIERGE_* overrides, fills defaults and validates.
func Load(path string) (*Config, error) {
	return load(path, os.Environ())
}

func load(path string, environ []string) (*Config, error) {
	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}
	if err := applyEnv(raw, environ); err != nil {
		return nil, err
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := mergo.Merge(&cfg, Default(), mergo.WithoutDereference); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnv layers CONCIERGE_<SECTION>_<KEY>=value onto raw.
func applyEnv(raw map[string]any, environ []string) error {
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		rest := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
		idx := slices.IndexFunc(sections, func(s string) bool { return strings.HasPrefix(rest, s+"_") })
		if idx < 0 {
			continue
		}
		section := sections[idx]
		key := strings.TrimPrefix(rest, section+"_")

		node, ok := raw[section].(map[string]any)
		if !ok {
			if existing, present := raw[section]; present && existing != nil {
				return fmt.Errorf("config section %q is not a mapping", section)
			}
			node = map[string]any{}
			raw[section] = node
		}
		node[key] = value
	}
	return nil
}

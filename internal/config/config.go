// Package config loads process configuration from an optional YAML file and
// the environment, environment winning. Only the recognized variable names
// below are read; backend rotation membership is decided purely by which
// API keys are present.
package config

import (
	"os"
	"regexp"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Auth      AuthConfig      `koanf:"auth"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Backends  BackendsConfig  `koanf:"backends"`
}

type ServerConfig struct {
	Port      int    `koanf:"port"`
	PublicDir string `koanf:"public_dir"`
	// Model is the id advertised by GET /v1/models and used in responses
	// when the caller does not name one.
	Model string `koanf:"model"`
}

type AuthConfig struct {
	// Secret guards /v1/*. Empty disables auth entirely (open proxy mode).
	Secret string `koanf:"secret"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type TelemetryConfig struct {
	// TraceStdout enables the stdout span exporter for local debugging.
	TraceStdout bool `koanf:"trace_stdout"`
}

// BackendsConfig holds one entry per supported provider. Rotation order is
// fixed (groq, cerebras, gemini, then openrouter as last resort) and not
// configurable; presence of an api_key is what enables an entry.
type BackendsConfig struct {
	Groq       BackendConfig `koanf:"groq"`
	Cerebras   BackendConfig `koanf:"cerebras"`
	Gemini     BackendConfig `koanf:"gemini"`
	OpenRouter BackendConfig `koanf:"openrouter"`
}

type BackendConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

// envKeys maps recognized environment variables onto config keys.
// Everything else in the environment is ignored.
var envKeys = map[string]string{
	"GROQ_API_KEY":        "backends.groq.api_key",
	"GROQ_MODEL":          "backends.groq.model",
	"GROQ_BASE_URL":       "backends.groq.base_url",
	"CEREBRAS_API_KEY":    "backends.cerebras.api_key",
	"CEREBRAS_MODEL":      "backends.cerebras.model",
	"CEREBRAS_BASE_URL":   "backends.cerebras.base_url",
	"GEMINI_API_KEY":      "backends.gemini.api_key",
	"GEMINI_MODEL":        "backends.gemini.model",
	"GEMINI_BASE_URL":     "backends.gemini.base_url",
	"OPENROUTER_API_KEY":  "backends.openrouter.api_key",
	"OPENROUTER_MODEL":    "backends.openrouter.model",
	"OPENROUTER_BASE_URL": "backends.openrouter.base_url",
	"AUTH_SECRET":         "auth.secret",
	"PORT":                "server.port",
	"PUBLIC_DIR":          "server.public_dir",
	"MODEL":               "server.model",
	"LOG_LEVEL":           "log.level",
	"TRACE_STDOUT":        "telemetry.trace_stdout",
}

var defaults = map[string]any{
	"server.port":               3000,
	"server.public_dir":         "./public",
	"server.model":              "cascade-1",
	"log.level":                 "info",
	"backends.groq.model":       "llama-3.3-70b-versatile",
	"backends.cerebras.model":   "llama-3.3-70b",
	"backends.gemini.model":     "gemini-2.0-flash",
	"backends.openrouter.model": "meta-llama/llama-3.3-70b-instruct:free",
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads config.yaml from the working directory, if present, then the
// environment.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile is Load with an explicit file path. A missing file is fine; the
// environment and defaults cover everything.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, err
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Keys in file config may reference environment variables as ${VAR}.
	for _, b := range []*BackendConfig{&cfg.Backends.Groq, &cfg.Backends.Cerebras, &cfg.Backends.Gemini, &cfg.Backends.OpenRouter} {
		b.APIKey = substituteEnvVars(b.APIKey)
	}
	cfg.Auth.Secret = substituteEnvVars(cfg.Auth.Secret)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

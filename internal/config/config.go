// Package config loads layered configuration: built-in defaults, then an
// optional YAML file, then DYNMEM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "DYNMEM_"

// EnvConfigPath names the variable holding the config file path.
const EnvConfigPath = EnvPrefix + "CONFIG"

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

type Config struct {
	Storage    Storage    `yaml:"storage" envPrefix:"STORAGE_"`
	LLM        LLM        `yaml:"llm" envPrefix:"LLM_"`
	Retrieval  Retrieval  `yaml:"retrieval" envPrefix:"RETRIEVAL_"`
	Forgetting Forgetting `yaml:"forgetting" envPrefix:"FORGETTING_"`
	Prompts    Prompts    `yaml:"prompts" envPrefix:"PROMPTS_"`
	Log        Log        `yaml:"log" envPrefix:"LOG_"`
}

type Storage struct {
	Path    string `yaml:"path" env:"PATH"`
	Backend string `yaml:"backend" env:"BACKEND"`
}

type LLM struct {
	Provider       string        `yaml:"provider" env:"PROVIDER"`
	BaseURL        string        `yaml:"base_url" env:"BASE_URL"`
	Model          string        `yaml:"model" env:"MODEL"`
	Timeout        time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Temperature    float64       `yaml:"temperature" env:"TEMPERATURE"`
	MaxTokens      int           `yaml:"max_tokens" env:"MAX_TOKENS"`
	MaxFailures    uint32        `yaml:"max_failures" env:"MAX_FAILURES"`
	BreakerTimeout time.Duration `yaml:"breaker_timeout" env:"BREAKER_TIMEOUT"`
}

type Retrieval struct {
	Batch       bool `yaml:"batch" env:"BATCH"`
	Concurrency int  `yaml:"concurrency" env:"CONCURRENCY"`
	DefaultTopK int  `yaml:"default_top_k" env:"DEFAULT_TOP_K"`
}

type Forgetting struct {
	ImportanceThreshold float64       `yaml:"importance_threshold" env:"IMPORTANCE_THRESHOLD"`
	Retention           time.Duration `yaml:"retention" env:"RETENTION"`
	MinAccessCount      int           `yaml:"min_access_count" env:"MIN_ACCESS_COUNT"`
}

type Prompts struct {
	// File holds learned templates; empty means built-in defaults only.
	File     string `yaml:"file" env:"FILE"`
	Attempts int    `yaml:"attempts" env:"ATTEMPTS"`
}

type Log struct {
	Debug bool `yaml:"debug" env:"DEBUG"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Storage: Storage{
			Path:    filepath.Join(home, ".dynamic-memory", "memories.json"),
			Backend: BackendJSON,
		},
		LLM: LLM{
			Provider:       "mock",
			BaseURL:        "http://localhost:11434",
			Model:          "qwen2.5:7b",
			Timeout:        30 * time.Second,
			Temperature:    0.2,
			MaxTokens:      1024,
			MaxFailures:    5,
			BreakerTimeout: 30 * time.Second,
		},
		Retrieval: Retrieval{
			Concurrency: 4,
			DefaultTopK: 5,
		},
		Forgetting: Forgetting{
			ImportanceThreshold: 0.3,
			Retention:           720 * time.Hour,
			MinAccessCount:      2,
		},
		Prompts: Prompts{Attempts: 1},
	}
}

// Load builds the configuration. path may be empty, in which case
// DYNMEM_CONFIG is consulted; with neither set no file is read. A path that
// was named explicitly must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		b, err := os.ReadFile(expandHome(path))
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	cfg.Prompts.File = expandHome(cfg.Prompts.File)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Storage.Path) == "" {
		errs = append(errs, errors.New("storage.path is empty"))
	}
	switch c.Storage.Backend {
	case BackendJSON, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not json or sqlite", c.Storage.Backend))
	}
	switch c.LLM.Provider {
	case "mock", "ollama":
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is not mock or ollama", c.LLM.Provider))
	}
	if c.LLM.Timeout < 0 || c.LLM.BreakerTimeout < 0 {
		errs = append(errs, errors.New("llm timeouts must not be negative"))
	}
	if c.LLM.Temperature < 0 || c.LLM.MaxTokens < 0 {
		errs = append(errs, errors.New("llm temperature and max_tokens must not be negative"))
	}
	if c.Retrieval.Concurrency < 1 {
		errs = append(errs, errors.New("retrieval.concurrency must be at least 1"))
	}
	if c.Retrieval.DefaultTopK < 0 {
		errs = append(errs, errors.New("retrieval.default_top_k must not be negative"))
	}
	if t := c.Forgetting.ImportanceThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("forgetting.importance_threshold %v is outside [0,1]", t))
	}
	if c.Forgetting.Retention < 0 || c.Forgetting.MinAccessCount < 0 {
		errs = append(errs, errors.New("forgetting window and count must not be negative"))
	}
	if c.Prompts.Attempts < 1 {
		errs = append(errs, errors.New("prompts.attempts must be at least 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

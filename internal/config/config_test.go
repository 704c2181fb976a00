package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendJSON, cfg.Storage.Backend)
	assert.Equal(t, "memories.json", filepath.Base(cfg.Storage.Path))
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, uint32(5), cfg.LLM.MaxFailures)
	assert.Equal(t, 4, cfg.Retrieval.Concurrency)
	assert.Equal(t, 5, cfg.Retrieval.DefaultTopK)
	assert.False(t, cfg.Retrieval.Batch)
	assert.Equal(t, 0.3, cfg.Forgetting.ImportanceThreshold)
	assert.Equal(t, 720*time.Hour, cfg.Forgetting.Retention)
	assert.Equal(t, 2, cfg.Forgetting.MinAccessCount)
	assert.Empty(t, cfg.Prompts.File)
}

func TestYAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
storage:
  backend: sqlite
  path: /tmp/mem.db
llm:
  provider: ollama
  timeout: 5s
retrieval:
  batch: true
forgetting:
  retention: 48h
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/mem.db", cfg.Storage.Path)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "qwen2.5:7b", cfg.LLM.Model)
	assert.True(t, cfg.Retrieval.Batch)
	assert.Equal(t, 48*time.Hour, cfg.Forgetting.Retention)
	assert.Equal(t, 2, cfg.Forgetting.MinAccessCount)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "llm:\n  model: llama3\nretrieval:\n  concurrency: 2\n")
	t.Setenv("DYNMEM_LLM_MODEL", "mistral")
	t.Setenv("DYNMEM_RETRIEVAL_DEFAULT_TOP_K", "9")
	t.Setenv("DYNMEM_FORGETTING_IMPORTANCE_THRESHOLD", "0.25")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mistral", cfg.LLM.Model)
	assert.Equal(t, 2, cfg.Retrieval.Concurrency)
	assert.Equal(t, 9, cfg.Retrieval.DefaultTopK)
	assert.Equal(t, 0.25, cfg.Forgetting.ImportanceThreshold)
}

func TestConfigPathFromEnv(t *testing.T) {
	path := writeFile(t, "log:\n  debug: true\n")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Log.Debug)
}

func TestExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"backend":     func(c *Config) { c.Storage.Backend = "redis" },
		"provider":    func(c *Config) { c.LLM.Provider = "oracle" },
		"threshold":   func(c *Config) { c.Forgetting.ImportanceThreshold = 1.5 },
		"retention":   func(c *Config) { c.Forgetting.Retention = -time.Hour },
		"concurrency": func(c *Config) { c.Retrieval.Concurrency = 0 },
		"path":        func(c *Config) { c.Storage.Path = " " },
		"attempts":    func(c *Config) { c.Prompts.Attempts = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestInvalidEnvValue(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("DYNMEM_LLM_TIMEOUT", "soon")
	_, err := Load("")
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/docflow/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig().Apply(WithWatchDirectories(t.TempDir()))
	require.NoError(t, cfg.Normalize())
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 10, cfg.Pipeline.BatchSize)
	assert.Equal(t, 4, cfg.Pipeline.ParallelWorkers)
	assert.True(t, cfg.Pipeline.Recursive)
	assert.Equal(t, time.Second, cfg.Pipeline.CheckInterval())
	assert.Equal(t, 30*time.Second, cfg.Pipeline.JoinTimeout())
	assert.Zero(t, cfg.Pipeline.RunDuration())
	assert.Equal(t, 80, cfg.Pipeline.Capacity())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ai.DefaultConfig().ClassifierModel, cfg.AI.ClassifierModel)

	// No directory is watched until one is configured.
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestNormalize(t *testing.T) {
	cfg := DefaultConfig().Apply(
		WithWatchDirectories("relative/dir", "relative/dir"),
		WithExtensions("MD", ".Txt", "md", " "),
	)
	require.NoError(t, cfg.Normalize())

	assert.Equal(t, []string{".md", ".txt"}, cfg.Pipeline.SupportedExtensions)
	require.Len(t, cfg.Pipeline.WatchDirectories, 1)
	assert.True(t, filepath.IsAbs(cfg.Pipeline.WatchDirectories[0]))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{name: "valid", modify: func(*Config) {}, valid: true},
		{name: "no extensions", modify: func(c *Config) { c.Pipeline.SupportedExtensions = nil }},
		{name: "zero batch size", modify: func(c *Config) { c.Pipeline.BatchSize = 0 }},
		{name: "zero workers", modify: func(c *Config) { c.Pipeline.ParallelWorkers = 0 }},
		{name: "zero check interval", modify: func(c *Config) { c.Pipeline.CheckIntervalSeconds = 0 }},
		{name: "negative duration", modify: func(c *Config) { c.Pipeline.Duration = -1 }},
		{name: "negative capacity", modify: func(c *Config) { c.Pipeline.QueueCapacity = -1 }},
		{name: "negative join timeout", modify: func(c *Config) { c.Pipeline.JoinTimeoutSeconds = -1 }},
		{name: "no storage path", modify: func(c *Config) { c.Storage.Path = "" }},
		{name: "in-memory needs no path", modify: func(c *Config) { c.Storage.Path = ""; c.Storage.InMemory = true }, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestCapacity(t *testing.T) {
	p := PipelineConfig{BatchSize: 5, ParallelWorkers: 3}
	assert.Equal(t, 30, p.Capacity())

	p.QueueCapacity = 7
	assert.Equal(t, 7, p.Capacity())
}

func TestOptions(t *testing.T) {
	cfg := DefaultConfig().Apply(
		WithRecursive(false),
		WithBatchSize(5),
		WithWorkers(2),
		WithDuration(60),
		WithQueueCapacity(3),
		WithStoragePath("/tmp/db"),
		WithInMemoryStorage(true),
		WithAI(ai.WithHost("http://models:8080"), ai.WithClassifierModel("llama3")),
	)

	assert.False(t, cfg.Pipeline.Recursive)
	assert.Equal(t, 5, cfg.Pipeline.BatchSize)
	assert.Equal(t, 2, cfg.Pipeline.ParallelWorkers)
	assert.Equal(t, time.Minute, cfg.Pipeline.RunDuration())
	assert.Equal(t, 3, cfg.Pipeline.Capacity())
	assert.Equal(t, "/tmp/db", cfg.Storage.Path)
	assert.True(t, cfg.Storage.InMemory)
	assert.Equal(t, "http://models:8080", cfg.AI.ClassifierHost)
	assert.Equal(t, "llama3", cfg.AI.ClassifierModel)

	// Empty lists leave the defaults alone.
	cfg.Apply(WithExtensions(), WithWatchDirectories())
	assert.Equal(t, DefaultExtensions, cfg.Pipeline.SupportedExtensions)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docflow.toml")
	content := `
log_level = "debug"

[pipeline]
watch_directories = ["/srv/inbox"]
supported_extensions = [".md"]
batch_size = 5
parallel_workers = 2
check_interval_seconds = 0.25
duration = 120

[storage]
path = "/var/lib/docflow"

[ai]
classifier_model = "llama3"
retry_delay = "2s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"/srv/inbox"}, cfg.Pipeline.WatchDirectories)
	assert.Equal(t, []string{".md"}, cfg.Pipeline.SupportedExtensions)
	assert.Equal(t, 5, cfg.Pipeline.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.CheckInterval())
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.RunDuration())
	assert.Equal(t, "/var/lib/docflow", cfg.Storage.Path)
	assert.Equal(t, "llama3", cfg.AI.ClassifierModel)
	assert.Equal(t, 2*time.Second, cfg.AI.RetryDelay)

	// Unset keys keep their defaults.
	assert.True(t, cfg.Pipeline.Recursive)
	assert.Equal(t, ai.DefaultConfig().EmbeddingModel, cfg.AI.EmbeddingModel)
}

func TestLoad_CheckInterval(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"2", 2 * time.Second},
		{"0.25", 250 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "docflow.toml")
			content := "[pipeline]\ncheck_interval_seconds = " + tt.value + "\n"
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Pipeline.CheckInterval())
		})
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, ErrLoadFailed)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("batch_size = ["), 0o644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrLoadFailed)

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("[pipeline]\nbatchsize = 3\n"), 0o644))
	_, err = Load(unknown)
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.Contains(t, err.Error(), "pipeline.batchsize")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DOCFLOW_WATCH_DIRECTORIES":      "/a, /b",
		"DOCFLOW_SUPPORTED_EXTENSIONS":   ".md,.pdf",
		"DOCFLOW_RECURSIVE":              "false",
		"DOCFLOW_BATCH_SIZE":             "7",
		"DOCFLOW_CHECK_INTERVAL_SECONDS": "0.5",
		"DOCFLOW_STORAGE_PATH":           "/data/db",
		"DOCFLOW_CLASSIFIER_MODEL":       "mistral",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnv(lookup))

	assert.Equal(t, []string{"/a", "/b"}, cfg.Pipeline.WatchDirectories)
	assert.Equal(t, []string{".md", ".pdf"}, cfg.Pipeline.SupportedExtensions)
	assert.False(t, cfg.Pipeline.Recursive)
	assert.Equal(t, 7, cfg.Pipeline.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.CheckInterval())
	assert.Equal(t, "/data/db", cfg.Storage.Path)
	assert.Equal(t, "mistral", cfg.AI.ClassifierModel)
	assert.Equal(t, 4, cfg.Pipeline.ParallelWorkers)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	env := map[string]string{
		"DOCFLOW_BATCH_SIZE": "many",
		"DOCFLOW_RECURSIVE":  "sometimes",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	err := cfg.applyEnv(lookup)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "DOCFLOW_BATCH_SIZE")
	assert.Contains(t, err.Error(), "DOCFLOW_RECURSIVE")
	assert.Equal(t, 10, cfg.Pipeline.BatchSize)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DOCFLOW_TEST_LOADENV_BATCH=3\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("DOCFLOW_TEST_LOADENV_BATCH") })

	require.NoError(t, LoadEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "3", os.Getenv("DOCFLOW_TEST_LOADENV_BATCH"))
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docflow.toml")
	require.NoError(t, os.WriteFile(path, []byte("[pipeline]\nbatch_size = 5\nparallel_workers = 6\n"), 0o644))
	t.Setenv("DOCFLOW_BATCH_SIZE", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.ApplyEnv())
	cfg.Apply(WithWorkers(9))

	assert.Equal(t, 8, cfg.Pipeline.BatchSize)
	assert.Equal(t, 9, cfg.Pipeline.ParallelWorkers)
}

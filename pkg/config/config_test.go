package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/heron/pkg/model"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := `engine:
  command: /opt/engine/bin/analyze
  args: ["--json"]
  timeout: 45s
thresholds:
  folder:
    low: 6
    medium: 12
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/engine/bin/analyze", cfg.Engine.Command)
	assert.Equal(t, []string{"--json"}, cfg.Engine.Args)
	assert.Equal(t, 45*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, Bounds{Low: 6, Medium: 12}, cfg.Thresholds.Folder)
	// Untouched sections keep their defaults.
	assert.Equal(t, Bounds{Low: 5, Medium: 10}, cfg.Thresholds.Node)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("HERON_ENGINE_TIMEOUT", "3s")
	t.Setenv("HERON_LOG_LEVEL", "error")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("engine: [unclosed"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "non-positive timeout",
			mutate:  func(c *Config) { c.Engine.Timeout = 0 },
			wantErr: "engine.timeout",
		},
		{
			name:    "inverted node bounds",
			mutate:  func(c *Config) { c.Thresholds.Node = Bounds{Low: 10, Medium: 5} },
			wantErr: "thresholds.node",
		},
		{
			name:    "negative folder bound",
			mutate:  func(c *Config) { c.Thresholds.Folder.Low = -1 },
			wantErr: "thresholds.folder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cfg := DefaultConfig()
	cfg.Engine.Timeout = 90 * time.Second
	cfg.Engine.SearchPaths = []string{"tools/**/heron-engine"}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestBounds_Thresholds(t *testing.T) {
	cfg := DefaultConfig()
	node := cfg.Thresholds.Node.Thresholds()
	folder := cfg.Thresholds.Folder.Thresholds()

	assert.Equal(t, model.NodeThresholds, node)
	assert.Equal(t, model.FolderThresholds, folder)
	assert.Equal(t, model.Medium, node.Classify(9))
	assert.Equal(t, model.Low, folder.Classify(8))
}

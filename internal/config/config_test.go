package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "https://archive-api.open-meteo.com/v1/archive", cfg.Sources.ClimateBaseURL)
	assert.Equal(t, 3, cfg.Sources.WindowYears)
	assert.InDelta(t, -12.54, cfg.Sources.Latitude, 0.001)
	assert.Equal(t, "ZS=F", cfg.Sources.CommoditySymbol)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Security.RateLimit.Enabled)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default",
			mutate: func(c *Config) {},
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "negative read timeout",
			mutate:  func(c *Config) { c.Server.ReadTimeout = -1 },
			wantErr: "read timeout must be positive",
		},
		{
			name:    "latitude out of range",
			mutate:  func(c *Config) { c.Sources.Latitude = 91 },
			wantErr: "invalid latitude",
		},
		{
			name:    "longitude out of range",
			mutate:  func(c *Config) { c.Sources.Longitude = -181 },
			wantErr: "invalid longitude",
		},
		{
			name:    "window years too large",
			mutate:  func(c *Config) { c.Sources.WindowYears = 50 },
			wantErr: "window years must be between",
		},
		{
			name:    "no allowed origins",
			mutate:  func(c *Config) { c.Security.AllowedOrigins = nil },
			wantErr: "at least one allowed origin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfigValidateNormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "syslog"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "logs/app.log", cfg.Logging.FilePath)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  port: 9090
sources:
  window_years: 5
  latitude: -15.5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := loadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Sources.WindowYears)
	assert.InDelta(t, -15.5, cfg.Sources.Latitude, 0.001)
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0644))

	_, err := loadFromFile(path)
	assert.Error(t, err)
}

func TestMergeConfigsEnvPrecedence(t *testing.T) {
	fileCfg := Config{}
	fileCfg.Server.Port = 9999
	fileCfg.Sources.ClimateBaseURL = "http://file.example"
	fileCfg.Cache.TTL = time.Hour

	envCfg := Config{}
	envCfg.Server.Port = 8081 // env set, should win

	merged := mergeConfigs(fileCfg, envCfg)
	assert.Equal(t, 8081, merged.Server.Port)
	assert.Equal(t, "http://file.example", merged.Sources.ClimateBaseURL)
	assert.Equal(t, time.Hour, merged.Cache.TTL)
}

func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)

	assert.NotEmpty(t, paths.ExecutableDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "reports"), paths.ReportsDir)
	assert.Equal(t, filepath.Join(paths.ReportsDir, "merged_dataset.csv"), paths.MergedCSV)
}

func TestPathsEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	paths := &Paths{
		DataDir:    filepath.Join(dir, "data"),
		ReportsDir: filepath.Join(dir, "data", "reports"),
		CacheDir:   filepath.Join(dir, "data", "cache"),
		LogsDir:    filepath.Join(dir, "logs"),
	}

	require.NoError(t, paths.EnsureDirectories())
	for _, d := range []string{paths.DataDir, paths.ReportsDir, paths.CacheDir, paths.LogsDir} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

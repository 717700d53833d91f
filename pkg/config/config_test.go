package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Scrape.MaxPasses != 21 {
		t.Errorf("Expected default max passes to be 21, got %d", config.Scrape.MaxPasses)
	}

	if config.Scrape.PageDownPresses != 24 {
		t.Errorf("Expected default page down presses to be 24, got %d", config.Scrape.PageDownPresses)
	}

	if config.Scrape.StablePasses != 0 {
		t.Errorf("Expected convergence stop to be disabled by default, got %d", config.Scrape.StablePasses)
	}

	if config.Site.TitleSelector != ".border .gwt-Image" || config.Site.TitleAttribute != "alt" {
		t.Errorf("Unexpected default title extraction: %q / %q", config.Site.TitleSelector, config.Site.TitleAttribute)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MYMOVIES_USERNAME", "someone@example.com")
	t.Setenv("MYMOVIES_PASSWORD", "hunter2")
	t.Setenv("MYMOVIES_MODE", "static")
	t.Setenv("MYMOVIES_MAX_PASSES", "5")
	t.Setenv("MYMOVIES_STABLE_PASSES", "2")
	t.Setenv("MYMOVIES_SETTLE_TIMEOUT", "1500ms")
	t.Setenv("MYMOVIES_HEADLESS", "false")
	t.Setenv("MYMOVIES_OUTPUT", "/tmp/out.csv")
	t.Setenv("MYMOVIES_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "someone@example.com", config.Credentials.Username)
	assert.Equal(t, "hunter2", config.Credentials.Password)
	assert.Equal(t, ModeStatic, config.Scrape.Mode)
	assert.Equal(t, 5, config.Scrape.MaxPasses)
	assert.Equal(t, 2, config.Scrape.StablePasses)
	assert.Equal(t, 1500*time.Millisecond, config.Scrape.SettleTimeout)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, "/tmp/out.csv", config.Output.Path)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvEmptyLoginURL(t *testing.T) {
	config := DefaultConfig()
	require.NotEmpty(t, config.Site.LoginURL)

	t.Setenv("MYMOVIES_LOGIN_URL", "")
	t.Setenv("MYMOVIES_LIBRARY_URL", "")
	require.NoError(t, config.LoadFromEnv())

	assert.Empty(t, config.Site.LoginURL)
	assert.Equal(t, DefaultConfig().Site.LibraryURL, config.Site.LibraryURL, "other empty values keep their defaults")
	assert.NoError(t, config.Validate())
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("MYMOVIES_MAX_PASSES", "many")
	t.Setenv("MYMOVIES_HEADLESS", "sometimes")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MYMOVIES_MAX_PASSES")
	assert.Contains(t, err.Error(), "MYMOVIES_HEADLESS")
	assert.Equal(t, 21, config.Scrape.MaxPasses)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
site:
  library_url: "https://example.com/library"
  title_selector: "li.title"
  title_attribute: ""
scrape:
  mode: static
  max_passes: 3
  settle_timeout: 2s
static:
  page_param: page
output:
  path: library.csv
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, "https://example.com/library", config.Site.LibraryURL)
	assert.Equal(t, "li.title", config.Site.TitleSelector)
	assert.Equal(t, "", config.Site.TitleAttribute)
	assert.Equal(t, ModeStatic, config.Scrape.Mode)
	assert.Equal(t, 3, config.Scrape.MaxPasses)
	assert.Equal(t, 2*time.Second, config.Scrape.SettleTimeout)
	assert.Equal(t, "page", config.Static.PageParam)
	assert.Equal(t, "library.csv", config.Output.Path)

	// untouched keys keep their defaults
	assert.Equal(t, 24, config.Scrape.PageDownPresses)
	assert.Equal(t, "email", config.Site.UsernameField)
}

func TestLoadFromFileErrors(t *testing.T) {
	config := DefaultConfig()
	assert.Error(t, config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("scrape: [unterminated"), 0644))
	assert.Error(t, config.LoadFromFile(bad))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unknown mode",
			modify:  func(c *Config) { c.Scrape.Mode = "hybrid" },
			wantErr: true,
		},
		{
			name:    "zero passes",
			modify:  func(c *Config) { c.Scrape.MaxPasses = 0 },
			wantErr: true,
		},
		{
			name:    "negative stable passes",
			modify:  func(c *Config) { c.Scrape.StablePasses = -1 },
			wantErr: true,
		},
		{
			name:    "bad selector",
			modify:  func(c *Config) { c.Site.TitleSelector = "div[" },
			wantErr: true,
		},
		{
			name:    "missing library url",
			modify:  func(c *Config) { c.Site.LibraryURL = "" },
			wantErr: true,
		},
		{
			name:    "relative library url in browser mode",
			modify:  func(c *Config) { c.Site.LibraryURL = "library.html" },
			wantErr: true,
		},
		{
			name: "local file in static mode without login",
			modify: func(c *Config) {
				c.Scrape.Mode = ModeStatic
				c.Site.LoginURL = ""
				c.Site.LibraryURL = "saved/library.html"
			},
			wantErr: false,
		},
		{
			name:    "missing output",
			modify:  func(c *Config) { c.Output.Path = "" },
			wantErr: true,
		},
		{
			name:    "bad log format",
			modify:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	config := DefaultConfig()
	config.Scrape.MaxPasses = 0
	config.Output.Path = ""

	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max passes")
	assert.Contains(t, err.Error(), "output path")
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	original := DefaultConfig()
	original.Scrape.StablePasses = 3
	original.Scrape.SettleTimeout = 7 * time.Second
	require.NoError(t, original.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, original, loaded)
}

func TestMasked(t *testing.T) {
	config := DefaultConfig()
	config.Credentials.Password = "secret"

	masked := config.Masked()
	assert.Equal(t, "********", masked.Credentials.Password)
	assert.Equal(t, "secret", config.Credentials.Password)
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"mode":          "static",
		"output":        "out.csv",
		"max-passes":    4,
		"stable-passes": 1,
		"login-url":     "",
		"headless":      false,
		"print":         true,
		"log-level":     "warn",
	})

	assert.Equal(t, ModeStatic, config.Scrape.Mode)
	assert.Equal(t, "out.csv", config.Output.Path)
	assert.Equal(t, 4, config.Scrape.MaxPasses)
	assert.Equal(t, 1, config.Scrape.StablePasses)
	assert.Equal(t, "", config.Site.LoginURL)
	assert.False(t, config.Browser.Headless)
	assert.True(t, config.Output.PrintTitles)
	assert.Equal(t, "warn", config.Logging.Level)

	// absent keys leave values alone
	assert.Equal(t, "email", config.Site.UsernameField)
}

func TestLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	path := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scrape:\n  max_passes: 8\noutput:\n  path: file.csv\n"), 0644))

	t.Setenv("MYMOVIES_OUTPUT", "env.csv")

	config, err := Load(path, map[string]interface{}{"max-passes": 2})
	require.NoError(t, err)

	// flags beat env, env beats file
	assert.Equal(t, 2, config.Scrape.MaxPasses)
	assert.Equal(t, "env.csv", config.Output.Path)

	_, err = Load(path, map[string]interface{}{"mode": "nope"})
	assert.Error(t, err)
}

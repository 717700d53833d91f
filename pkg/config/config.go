package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Scrape modes
const (
	ModeBrowser = "browser"
	ModeStatic  = "static"
)

// Config holds all configuration options for a library export run
type Config struct {
	// Target site and page structure
	Site SiteConfig `yaml:"site" json:"site"`

	// Login credentials for the run
	Credentials CredentialsConfig `yaml:"credentials" json:"credentials"`

	// Collection loop settings
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Headless browser session settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Static HTTP session settings
	Static StaticConfig `yaml:"static" json:"static"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig describes where to log in, where the library lives and how to read it
type SiteConfig struct {
	LoginURL       string `yaml:"login_url" json:"login_url"`
	LibraryURL     string `yaml:"library_url" json:"library_url"`
	UsernameField  string `yaml:"username_field" json:"username_field"`
	PasswordField  string `yaml:"password_field" json:"password_field"`
	SubmitSelector string `yaml:"submit_selector" json:"submit_selector"`
	TitleSelector  string `yaml:"title_selector" json:"title_selector"`
	TitleAttribute string `yaml:"title_attribute" json:"title_attribute"`
}

// CredentialsConfig holds credentials supplied through config, env or flags
type CredentialsConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	Account  string `yaml:"account" json:"account"`
}

// ScrapeConfig controls the collect/advance loop and its waits
type ScrapeConfig struct {
	Mode              string        `yaml:"mode" json:"mode"`
	MaxPasses         int           `yaml:"max_passes" json:"max_passes"`
	StablePasses      int           `yaml:"stable_passes" json:"stable_passes"`
	PageDownPresses   int           `yaml:"page_down_presses" json:"page_down_presses"`
	LoginTimeout      time.Duration `yaml:"login_timeout" json:"login_timeout"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	SettleTimeout     time.Duration `yaml:"settle_timeout" json:"settle_timeout"`
	SettleInterval    time.Duration `yaml:"settle_interval" json:"settle_interval"`
	SettleChecks      int           `yaml:"settle_checks" json:"settle_checks"`
}

// BrowserConfig holds headless browser launch options
type BrowserConfig struct {
	Headless    bool   `yaml:"headless" json:"headless"`
	NoSandbox   bool   `yaml:"no_sandbox" json:"no_sandbox"`
	Bin         string `yaml:"bin" json:"bin"`
	Stealth     bool   `yaml:"stealth" json:"stealth"`
	UserDataDir string `yaml:"user_data_dir" json:"user_data_dir"`
}

// StaticConfig holds HTTP session options
type StaticConfig struct {
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int           `yaml:"burst" json:"burst"`
	PageParam         string        `yaml:"page_param" json:"page_param"`
	MaxRedirects      int           `yaml:"max_redirects" json:"max_redirects"`
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	Path        string `yaml:"path" json:"path"`
	PrintTitles bool   `yaml:"print_titles" json:"print_titles"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	OnComplete bool `yaml:"on_complete" json:"on_complete"`
	OnError    bool `yaml:"on_error" json:"on_error"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	Format  string `yaml:"format" json:"format"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			LoginURL:       "https://my.vudu.com/MyLogin.html?type=sign_in&url=https%3A%2F%2Fwww.vudu.com%2F",
			LibraryURL:     "https://www.vudu.com/movies/#my_vudu/my_movies",
			UsernameField:  "email",
			PasswordField:  "password",
			SubmitSelector: ".custom-button",
			TitleSelector:  ".border .gwt-Image",
			TitleAttribute: "alt",
		},
		Scrape: ScrapeConfig{
			Mode:              ModeBrowser,
			MaxPasses:         21,
			StablePasses:      0,
			PageDownPresses:   24,
			LoginTimeout:      30 * time.Second,
			NavigationTimeout: 30 * time.Second,
			SettleTimeout:     5 * time.Second,
			SettleInterval:    250 * time.Millisecond,
			SettleChecks:      2,
		},
		Browser: BrowserConfig{
			Headless: true,
		},
		Static: StaticConfig{
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 2,
			Burst:             1,
			MaxRedirects:      10,
		},
		Output: OutputConfig{
			Path: "movies.csv",
		},
		Notifications: NotificationConfig{
			Enabled:    false,
			OnComplete: true,
			OnError:    true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromEnv loads configuration from MYMOVIES_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	// An empty login URL is meaningful: it turns login off
	if v, ok := os.LookupEnv("MYMOVIES_LOGIN_URL"); ok {
		c.Site.LoginURL = v
	}
	setString("MYMOVIES_LIBRARY_URL", &c.Site.LibraryURL)
	setString("MYMOVIES_TITLE_SELECTOR", &c.Site.TitleSelector)

	setString("MYMOVIES_USERNAME", &c.Credentials.Username)
	setString("MYMOVIES_PASSWORD", &c.Credentials.Password)
	setString("MYMOVIES_ACCOUNT", &c.Credentials.Account)

	setString("MYMOVIES_MODE", &c.Scrape.Mode)
	setInt("MYMOVIES_MAX_PASSES", &c.Scrape.MaxPasses)
	setInt("MYMOVIES_STABLE_PASSES", &c.Scrape.StablePasses)
	setDuration("MYMOVIES_SETTLE_TIMEOUT", &c.Scrape.SettleTimeout)

	setBool("MYMOVIES_HEADLESS", &c.Browser.Headless)
	setBool("MYMOVIES_NO_SANDBOX", &c.Browser.NoSandbox)
	setString("MYMOVIES_BROWSER_BIN", &c.Browser.Bin)

	setString("MYMOVIES_USER_AGENT", &c.Static.UserAgent)

	setString("MYMOVIES_OUTPUT", &c.Output.Path)
	setBool("MYMOVIES_NOTIFICATIONS_ENABLED", &c.Notifications.Enabled)

	setString("MYMOVIES_LOG_LEVEL", &c.Logging.Level)
	setString("MYMOVIES_LOG_FORMAT", &c.Logging.Format)
	setString("MYMOVIES_LOG_FILE", &c.Logging.File)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations
func findConfigFile() string {
	home := os.Getenv("HOME")
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}

	locations := []string{
		".mymovies.yaml",
		".mymovies.yml",
		filepath.Join(configHome, "mymovies", "config.yaml"),
		filepath.Join(configHome, "mymovies", "config.yml"),
		filepath.Join(home, ".mymovies.yaml"),
		filepath.Join(home, ".mymovies.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Site
	if c.Site.LibraryURL == "" {
		errs = append(errs, errors.New("library URL is required"))
	} else if c.Scrape.Mode == ModeBrowser {
		if _, err := url.ParseRequestURI(c.Site.LibraryURL); err != nil {
			errs = append(errs, fmt.Errorf("library URL is invalid: %w", err))
		}
	}
	if c.Site.LoginURL != "" {
		if _, err := url.ParseRequestURI(c.Site.LoginURL); err != nil {
			errs = append(errs, fmt.Errorf("login URL is invalid: %w", err))
		}
		if c.Site.UsernameField == "" || c.Site.PasswordField == "" {
			errs = append(errs, errors.New("username and password field names are required when a login URL is set"))
		}
	}
	if c.Site.TitleSelector == "" {
		errs = append(errs, errors.New("title selector is required"))
	} else if _, err := cascadia.Compile(c.Site.TitleSelector); err != nil {
		errs = append(errs, fmt.Errorf("title selector is invalid: %w", err))
	}
	if c.Site.SubmitSelector != "" {
		if _, err := cascadia.Compile(c.Site.SubmitSelector); err != nil {
			errs = append(errs, fmt.Errorf("submit selector is invalid: %w", err))
		}
	}

	// Scrape loop
	switch c.Scrape.Mode {
	case ModeBrowser, ModeStatic:
	default:
		errs = append(errs, fmt.Errorf("invalid scrape mode %q (want %s or %s)", c.Scrape.Mode, ModeBrowser, ModeStatic))
	}
	if c.Scrape.MaxPasses <= 0 {
		errs = append(errs, errors.New("max passes must be positive"))
	}
	if c.Scrape.StablePasses < 0 {
		errs = append(errs, errors.New("stable passes cannot be negative"))
	}
	if c.Scrape.PageDownPresses < 0 {
		errs = append(errs, errors.New("page down presses cannot be negative"))
	}
	if c.Scrape.LoginTimeout <= 0 || c.Scrape.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("login and navigation timeouts must be positive"))
	}
	if c.Scrape.SettleTimeout < 0 {
		errs = append(errs, errors.New("settle timeout cannot be negative"))
	}
	if c.Scrape.SettleInterval <= 0 {
		errs = append(errs, errors.New("settle interval must be positive"))
	}
	if c.Scrape.SettleChecks <= 0 {
		errs = append(errs, errors.New("settle checks must be positive"))
	}

	// Static session
	if c.Static.Timeout <= 0 {
		errs = append(errs, errors.New("static timeout must be positive"))
	}
	if c.Static.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("requests per second cannot be negative"))
	}
	if c.Static.MaxRedirects < 0 {
		errs = append(errs, errors.New("max redirects cannot be negative"))
	}

	// Output
	if c.Output.Path == "" {
		errs = append(errs, errors.New("output path is required"))
	}

	// Logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Masked returns a copy with the password hidden
func (c *Config) Masked() *Config {
	masked := *c
	if masked.Credentials.Password != "" {
		masked.Credentials.Password = "********"
	}
	return &masked
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in flags are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["mode"].(string); ok && v != "" {
		c.Scrape.Mode = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.Path = v
	}
	if v, ok := flags["max-passes"].(int); ok && v > 0 {
		c.Scrape.MaxPasses = v
	}
	if v, ok := flags["stable-passes"].(int); ok && v >= 0 {
		c.Scrape.StablePasses = v
	}
	if v, ok := flags["account"].(string); ok && v != "" {
		c.Credentials.Account = v
	}
	if v, ok := flags["username"].(string); ok && v != "" {
		c.Credentials.Username = v
	}
	if v, ok := flags["login-url"].(string); ok {
		c.Site.LoginURL = v
	}
	if v, ok := flags["library-url"].(string); ok && v != "" {
		c.Site.LibraryURL = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if v, ok := flags["stealth"].(bool); ok {
		c.Browser.Stealth = v
	}
	if v, ok := flags["print"].(bool); ok {
		c.Output.PrintTitles = v
	}
	if v, ok := flags["notify"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-format"].(string); ok && v != "" {
		c.Logging.Format = v
	}
	if v, ok := flags["no-color"].(bool); ok {
		c.Logging.NoColor = v
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".mymovies.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

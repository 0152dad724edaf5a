// Package config resolves settings from defaults, TOML files and the environment.
//
// Priority, lowest first:
//  1. Defaults
//  2. User file ($XDG_CONFIG_HOME/tada/config.toml, else ~/.tada/config.toml)
//  3. Project file (tada.toml or .tada.toml in the working directory)
//  4. TADA_* environment variables
//
// Command-line flags are applied on top by the cli package.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Backends the list can persist to.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
	BackendMemory = "memory"
	BackendHTTP   = "http"
)

const (
	DefaultBackend      = BackendSQLite
	DefaultCollection   = "todos"
	DefaultTheme        = "classic"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultLogFileName  = "todo.log"
	DefaultServeAddr    = "127.0.0.1:8707"
	DefaultWriteTimeout = 10 * time.Second
)

// Config is the resolved configuration.
type Config struct {
	Backend      string        `toml:"backend"`
	Collection   string        `toml:"collection"`
	DataDir      string        `toml:"data_dir"`
	URL          string        `toml:"url"`
	Theme        string        `toml:"theme"`
	LogLevel     string        `toml:"log_level"`
	LogFormat    string        `toml:"log_format"`
	LogFile      string        `toml:"log_file"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	ServeAddr    string        `toml:"serve_addr"`

	// Files that contributed, in load order.
	Files []string `toml:"-"`
}

// Sources overrides where Load looks. Zero values mean the real locations.
type Sources struct {
	UserFile    string
	ProjectFile string
	Getenv      func(string) string
}

// Load resolves the configuration from the standard locations.
func Load() (*Config, error) {
	return LoadFrom(Sources{})
}

// LoadFrom resolves the configuration using src.
func LoadFrom(src Sources) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	user := src.UserFile
	if user == "" {
		user = findUserConfigFile()
	}
	if user != "" {
		if err := loadConfigFile(cfg, user); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", user, err)
		}
	}

	project := src.ProjectFile
	if project == "" {
		project = findProjectConfigFile()
	}
	if project != "" {
		if err := loadConfigFile(cfg, project); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", project, err)
		}
	}

	getenv := src.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := loadFromEnv(cfg, getenv); err != nil {
		return nil, err
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Backend = DefaultBackend
	cfg.Collection = DefaultCollection
	cfg.DataDir = defaultDataDir()
	cfg.Theme = DefaultTheme
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.WriteTimeout = DefaultWriteTimeout
	cfg.ServeAddr = DefaultServeAddr
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tada"
	}
	return filepath.Join(home, ".tada")
}

func loadConfigFile(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return err
	}
	cfg.Files = append(cfg.Files, path)
	return nil
}

func findUserConfigFile() string {
	var candidates []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "tada", "config.toml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".config", "tada", "config.toml"),
			filepath.Join(home, ".tada", "config.toml"),
		)
	}
	return firstExisting(candidates)
}

func findProjectConfigFile() string {
	return firstExisting([]string{"tada.toml", ".tada.toml"})
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

func loadFromEnv(cfg *Config, getenv func(string) string) error {
	str := map[string]*string{
		"TADA_BACKEND":    &cfg.Backend,
		"TADA_COLLECTION": &cfg.Collection,
		"TADA_DATA_DIR":   &cfg.DataDir,
		"TADA_URL":        &cfg.URL,
		"TADA_THEME":      &cfg.Theme,
		"TADA_LOG_LEVEL":  &cfg.LogLevel,
		"TADA_LOG_FORMAT": &cfg.LogFormat,
		"TADA_LOG_FILE":   &cfg.LogFile,
		"TADA_SERVE_ADDR": &cfg.ServeAddr,
	}
	for k, dst := range str {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			*dst = v
		}
	}
	if v := strings.TrimSpace(getenv("TADA_WRITE_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TADA_WRITE_TIMEOUT: %w", err)
		}
		cfg.WriteTimeout = d
	}
	return nil
}

// Finalize normalises values and rejects inconsistent combinations.
// The cli package calls it again after applying flags.
func (c *Config) Finalize() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.DataDir = expandHome(c.DataDir)
	c.LogFile = expandHome(c.LogFile)
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}

	switch c.Backend {
	case BackendSQLite, BackendJSON, BackendMemory:
	case BackendHTTP:
		if strings.TrimSpace(c.URL) == "" {
			return errors.New("backend http needs url (set url in tada.toml or TADA_URL)")
		}
	default:
		return fmt.Errorf("unknown backend %q (want sqlite, json, memory or http)", c.Backend)
	}
	return nil
}

// LogPath is where the TUI writes its log.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, DefaultLogFileName)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}

// Example is a commented config file.
const Example = `# tada.toml
# Where todos live: sqlite | json | memory | http
backend = "sqlite"
collection = "todos"
data_dir = "~/.tada"

# Used by backend = "http"; start a server with "todo serve".
# url = "http://127.0.0.1:8707"

theme = "classic"       # classic | neon | mono
log_level = "info"      # debug | info | warn | error
log_format = "text"     # text | json | logfmt
write_timeout = "10s"
serve_addr = "127.0.0.1:8707"
`

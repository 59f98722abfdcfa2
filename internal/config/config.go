// Package config manages YAML-based configuration, environment overrides and
// the folders served next to the built-in pages.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/natefinch/atomic"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix marks environment variables that override file settings.
const EnvPrefix = "MARKPRESS_"

// Folder is a directory of pages served under an alias.
type Folder struct {
	Path    string   `yaml:"path" koanf:"path" json:"path"`
	Alias   string   `yaml:"alias" koanf:"alias" json:"alias"`
	Exclude []string `yaml:"exclude,omitempty" koanf:"exclude" json:"exclude,omitempty"`
}

// Config holds all configuration options for markpress.
type Config struct {
	Folders []Folder `yaml:"folders,omitempty" koanf:"folders" json:"folders"`
	// Builtin serves the pages compiled into the binary.
	Builtin bool `yaml:"builtin" koanf:"builtin" json:"builtin"`

	Port       int      `yaml:"port" koanf:"port" json:"port"`
	Watch      bool     `yaml:"watch" koanf:"watch" json:"watch"`
	Open       bool     `yaml:"open" koanf:"open" json:"open"`
	Extensions []string `yaml:"extensions" koanf:"extensions" json:"extensions"`
	Exclude    []string `yaml:"exclude" koanf:"exclude" json:"exclude"`
	ShowDrafts bool     `yaml:"show_drafts" koanf:"show_drafts" json:"show_drafts"`

	// Style is the chroma style used for code highlighting.
	Style       string `yaml:"style" koanf:"style" json:"style"`
	ImageWidth  int    `yaml:"image_width" koanf:"image_width" json:"image_width"`
	ImageHeight int    `yaml:"image_height" koanf:"image_height" json:"image_height"`

	SiteTitle string `yaml:"site_title" koanf:"site_title" json:"site_title"`
	BaseURL   string `yaml:"base_url" koanf:"base_url" json:"base_url"`
	// WasmDir holds pageview.wasm and wasm_exec.js, served under /wasm/.
	WasmDir string `yaml:"wasm_dir,omitempty" koanf:"wasm_dir" json:"wasm_dir,omitempty"`

	configPath string
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Builtin:     true,
		Port:        8080,
		Watch:       true,
		Extensions:  []string{".md", ".markdown"},
		Exclude:     []string{"node_modules", ".git", ".svn"},
		Style:       "monokai",
		ImageWidth:  800,
		ImageHeight: 450,
		SiteTitle:   "markpress",
	}
}

// GetConfigDir returns the config directory path.
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/markpress"
	}
	return filepath.Join(home, ".config", "markpress")
}

// GetConfigPath returns the full path to the global config file.
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Find returns the config file to use: explicit if set, else
// ~/.config/markpress/config.yaml, else ./markpress.yaml. It returns "" when
// none exists.
func Find(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(GetConfigPath()); err == nil {
		return GetConfigPath()
	}
	if _, err := os.Stat("markpress.yaml"); err == nil {
		return "markpress.yaml"
	}
	return ""
}

// Load reads the YAML file at path over the defaults, then overlays
// MARKPRESS_* environment variables. A missing file is not an error unless
// mustExist is set.
func Load(path string, mustExist bool) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) || mustExist {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
		cfg.configPath = path
	} else {
		cfg.configPath = GetConfigPath()
	}

	// MARKPRESS_SHOW_DRAFTS -> show_drafts, MARKPRESS_PORT -> port
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.resolveFolders()
	return cfg, nil
}

// resolveFolders makes folder paths absolute and fills in missing aliases.
func (c *Config) resolveFolders() {
	for i := range c.Folders {
		absPath, err := filepath.Abs(c.Folders[i].Path)
		if err == nil {
			c.Folders[i].Path = absPath
		}
		if c.Folders[i].Alias == "" {
			c.Folders[i].Alias = filepath.Base(c.Folders[i].Path)
		}
	}
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ImageWidth <= 0 || c.ImageHeight <= 0 {
		return fmt.Errorf("image size must be positive, got %dx%d", c.ImageWidth, c.ImageHeight)
	}
	seen := make(map[string]bool)
	for _, f := range c.Folders {
		if f.Alias == "" {
			return fmt.Errorf("folder %s has no alias", f.Path)
		}
		if strings.Contains(f.Alias, "/") {
			return fmt.Errorf("folder alias %q must not contain '/'", f.Alias)
		}
		if seen[f.Alias] {
			return fmt.Errorf("duplicate folder alias %q", f.Alias)
		}
		seen[f.Alias] = true
	}
	if !c.Builtin && len(c.Folders) == 0 {
		return fmt.Errorf("no pages to serve: enable builtin or add a folder")
	}
	return nil
}

// Save writes the configuration to its config file, replacing it
// atomically.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := atomic.WriteFile(c.configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing config to %s: %w", c.configPath, err)
	}
	return nil
}

// AddFolder adds the directory at path under alias. Adding the same path
// twice is a no-op.
func (c *Config) AddFolder(path, alias string, exclude []string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	for _, f := range c.Folders {
		if f.Path == absPath {
			return nil
		}
	}
	if alias == "" {
		alias = filepath.Base(absPath)
	}
	c.Folders = append(c.Folders, Folder{Path: absPath, Alias: alias, Exclude: exclude})
	return nil
}

// GetConfigFilePath returns the path to the config file.
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}

// SetConfigFilePath changes where Save writes.
func (c *Config) SetConfigFilePath(path string) {
	c.configPath = path
}

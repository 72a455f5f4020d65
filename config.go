package main

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aktagon/ai-weekly/internal/content"
)

const defaultConfigDir = ".ai-weekly"

// GetConfigPath returns the full path to a config file
func GetConfigPath(filename string) string {
	return filepath.Join(defaultConfigDir, filename)
}

//go:embed config/settings.yaml
var defaultSettings string

//go:embed config/templates/*.html config/style.css
var assets embed.FS

// ConfigOverrides holds command line overrides for settings
type ConfigOverrides struct {
	SettingsPath    *string
	ContentRoot     *string
	OutputDirectory *string
	BasePath        *string
	SiteURL         *string
	TemplateDir     *string
	Strict          *bool
}

// Labels are the user-visible page headings
type Labels struct {
	Home              string `yaml:"home"`
	Weeks             string `yaml:"weeks"`
	Tags              string `yaml:"tags"`
	Search            string `yaml:"search"`
	Summary           string `yaml:"summary"`
	Cards             string `yaml:"cards"`
	Actions           string `yaml:"actions"`
	Score             string `yaml:"score"`
	CreatedAt         string `yaml:"created_at"`
	UpdatedAt         string `yaml:"updated_at"`
	Tag               string `yaml:"tag"`
	SearchPlaceholder string `yaml:"search_placeholder"`
	Results           string `yaml:"results"`
	FullReport        string `yaml:"full_report"`
}

// Settings represents the YAML configuration structure
type Settings struct {
	ContentRoot     string                 `yaml:"content_root"`
	ItemsDir        string                 `yaml:"items_dir"`
	WeeksDir        string                 `yaml:"weeks_dir"`
	Extension       string                 `yaml:"extension"`
	OutputDirectory string                 `yaml:"output_directory"`
	BasePath        string                 `yaml:"base_path"`
	SiteURL         string                 `yaml:"site_url"`
	SiteTitle       string                 `yaml:"site_title"`
	Language        string                 `yaml:"language"`
	TemplateDir     string                 `yaml:"template_dir"`
	Strict          bool                   `yaml:"strict"`
	Concurrency     int                    `yaml:"concurrency"`
	Sections        content.SectionMarkers `yaml:"sections"`
	Labels          Labels                 `yaml:"labels"`
}

// Config holds configuration and overrides
type Config struct {
	Settings  *Settings
	Overrides *ConfigOverrides
}

// NewConfig loads settings and applies overrides. An explicit settings path
// must exist; the default one falls back to the embedded settings.
func NewConfig(overrides *ConfigOverrides) (*Config, error) {
	var (
		settings *Settings
		err      error
	)
	if overrides != nil && overrides.SettingsPath != nil {
		settings, err = loadSettingsRequired(*overrides.SettingsPath)
	} else {
		settings, err = loadSettings(GetConfigPath("settings.yaml"))
	}
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	settings.apply(overrides)
	if err := settings.validate(); err != nil {
		return nil, err
	}

	return &Config{
		Settings:  settings,
		Overrides: overrides,
	}, nil
}

func (s *Settings) apply(o *ConfigOverrides) {
	if o == nil {
		return
	}
	if o.ContentRoot != nil {
		s.ContentRoot = *o.ContentRoot
	}
	if o.OutputDirectory != nil {
		s.OutputDirectory = *o.OutputDirectory
	}
	if o.BasePath != nil {
		s.BasePath = *o.BasePath
	}
	if o.SiteURL != nil {
		s.SiteURL = *o.SiteURL
	}
	if o.TemplateDir != nil {
		s.TemplateDir = *o.TemplateDir
	}
	if o.Strict != nil {
		s.Strict = *o.Strict
	}
}

func (s *Settings) validate() error {
	if s.ContentRoot == "" {
		return errors.New("content_root is required")
	}
	if s.OutputDirectory == "" {
		return errors.New("output_directory is required")
	}
	if s.Concurrency < 1 {
		log.Printf("Warning: concurrency is %d, defaulting to 1", s.Concurrency)
		s.Concurrency = 1
	}
	return nil
}

// OpenStore returns the content store for the configured document root.
// opts are applied after the settings.
func (c *Config) OpenStore(opts ...content.Option) *content.Store {
	s := c.Settings
	return content.New(s.ContentRoot, append([]content.Option{
		content.WithCollections(s.ItemsDir, s.WeeksDir),
		content.WithExtension(s.Extension),
		content.WithStrict(s.Strict),
	}, opts...)...)
}

// Paths returns site-relative URLs under the base path
func (c *Config) Paths() Paths {
	return NewPaths("", c.Settings.BasePath)
}

// AbsolutePaths returns URLs prefixed with site_url
func (c *Config) AbsolutePaths() Paths {
	return NewPaths(c.Settings.SiteURL, c.Settings.BasePath)
}

// TemplateFS returns the page templates (from template_dir or embedded)
func (c *Config) TemplateFS() fs.FS {
	if c.Settings.TemplateDir != "" {
		return os.DirFS(c.Settings.TemplateDir)
	}
	sub, err := fs.Sub(assets, "config/templates")
	if err != nil {
		log.Fatalf("Critical error: embedded templates missing: %v", err)
	}
	return sub
}

// Stylesheet returns style.css (from template_dir or embedded)
func (c *Config) Stylesheet() ([]byte, error) {
	if c.Settings.TemplateDir != "" {
		data, err := os.ReadFile(filepath.Join(c.Settings.TemplateDir, "style.css"))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading stylesheet: %w", err)
		}
		debugLog("no style.css in %s, using the embedded one", c.Settings.TemplateDir)
	}
	return assets.ReadFile("config/style.css")
}

func parseSettings(data []byte) (*Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal([]byte(defaultSettings), &settings); err != nil {
		return nil, fmt.Errorf("parsing embedded settings: %w", err)
	}
	// Keys missing from data keep their embedded defaults
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing settings YAML: %w", err)
	}
	return &settings, nil
}

// loadSettings loads settings from YAML file with fallback to defaults
func loadSettings(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			debugLog("no settings at %s, using defaults", settingsPath)
			return parseSettings(nil)
		}
		return nil, fmt.Errorf("reading settings file %s: %w", settingsPath, err)
	}
	return parseSettings(data)
}

// loadSettingsRequired loads settings from YAML file, failing if file doesn't exist
func loadSettingsRequired(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, err
	}
	return parseSettings(data)
}

// ensureConfigExists creates the config directory and writes settings.yaml if needed
func ensureConfigExists() (string, error) {
	if err := os.MkdirAll(defaultConfigDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	settingsFile := GetConfigPath("settings.yaml")
	if _, err := os.Stat(settingsFile); os.IsNotExist(err) {
		if err := os.WriteFile(settingsFile, []byte(defaultSettings), 0644); err != nil {
			return "", fmt.Errorf("writing settings.yaml: %w", err)
		}
		return settingsFile, nil
	}

	return "", nil
}

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the pdf2lesson configuration.
type Config struct {
	OutputDir string `yaml:"output_dir"`
	AssetDir  string `yaml:"asset_dir"`
	// PageLimit caps the pages extracted per document; nil means all pages.
	PageLimit *int          `yaml:"page_limit"`
	AI        AIConfig      `yaml:"ai"`
	Catalog   CatalogConfig `yaml:"catalog"`
	Export    ExportConfig  `yaml:"export"`
}

type AIConfig struct {
	Provider string `yaml:"provider"` // off | gemini | openai
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"` // openai only
}

type CatalogConfig struct {
	Path                 string `yaml:"path"`
	PublicAssets         string `yaml:"public_assets"`
	LessonID             string `yaml:"lesson_id"`
	RealWorldApplication string `yaml:"real_world_application"`
	Unit                 *Unit  `yaml:"unit"`
}

type Unit struct {
	Number    int    `yaml:"number"`
	Title     string `yaml:"title"`
	PageStart int    `yaml:"page_start"`
	PageEnd   int    `yaml:"page_end"`
}

type ExportConfig struct {
	DBPath            string `yaml:"db_path"`
	CourseID          string `yaml:"course_id"`
	CourseTitle       string `yaml:"course_title"`
	CourseDescription string `yaml:"course_description"`
	ThumbnailURL      string `yaml:"thumbnail_url"`
}

// Default returns the layout the UI expects when run from the project root.
func Default() *Config {
	return &Config{
		OutputDir: "pipeline/output",
		AssetDir:  "pipeline/assets",
		AI:        AIConfig{Provider: "off"},
		Catalog: CatalogConfig{
			Path:         "ui/public/lessons.json",
			PublicAssets: "ui/public/assets",
		},
		Export: ExportConfig{DBPath: "lessons.db"},
	}
}

// Load reads the YAML file at path over Default, then applies environment
// secrets. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

// ApplyEnv fills AI.APIKey from the provider's environment variable when the
// file left it empty.
func (c *Config) ApplyEnv() {
	if c.AI.APIKey != "" {
		return
	}
	var names []string
	switch c.Provider() {
	case "gemini":
		names = []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"}
	case "openai":
		names = []string{"OPENAI_API_KEY"}
	}
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			c.AI.APIKey = v
			return
		}
	}
}

// Provider is the normalized AI provider name.
func (c *Config) Provider() string {
	p := strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if p == "" || p == "noop" || p == "none" {
		return "off"
	}
	return p
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.AssetDir == "" {
		return fmt.Errorf("asset_dir is required")
	}
	switch c.Provider() {
	case "off", "gemini", "openai":
	default:
		return fmt.Errorf("ai.provider: unsupported provider %q (use off, gemini or openai)", c.AI.Provider)
	}
	if u := c.Catalog.Unit; u != nil && u.PageEnd < u.PageStart {
		return fmt.Errorf("catalog.unit: page_end %d is before page_start %d", u.PageEnd, u.PageStart)
	}
	return nil
}

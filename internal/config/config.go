package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// SnapTolerancePx is the vertical distance, in viewport pixels, within which
	// a dragged field snaps to the Y of an unselected field on the same page.
	SnapTolerancePx float64 `json:"snap_tolerance_px"`

	// MinFieldPercent is the minimum width and height (percent of the page)
	// a drawn rectangle must reach to become a field.
	MinFieldPercent float64 `json:"min_field_percent"`

	// ReferenceScale is the scale at which page dimensions are read once per
	// document. 1.0 means native page units (points for PDF).
	ReferenceScale float64 `json:"reference_scale"`

	// RenderScale is the scale of the interactive viewport relative to page units.
	RenderScale float64 `json:"render_scale"`

	// DrawMode makes a press on empty canvas draw a new field instead of
	// starting a lasso.
	DrawMode bool `json:"draw_mode,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.fieldmark/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// WebBind is the interface the inspector UI listens on.
	WebBind string `json:"web_bind,omitempty"`

	// WebPort is the port the inspector UI listens on.
	WebPort int `json:"web_port,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SnapTolerancePx: 5,
		MinFieldPercent: 0.5,
		ReferenceScale:  1.0,
		RenderScale:     1.5,
		WebBind:         "127.0.0.1",
		WebPort:         7420,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.fieldmark.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.fieldmark) and repo (.fieldmark) directories.
// Repo config is found by walking upward from startDir to find the nearest .fieldmark/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .fieldmark/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".fieldmark", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if positive, else base
	result.SnapTolerancePx = pickFloat(overlay.SnapTolerancePx, base.SnapTolerancePx)
	result.MinFieldPercent = pickFloat(overlay.MinFieldPercent, base.MinFieldPercent)
	result.ReferenceScale = pickFloat(overlay.ReferenceScale, base.ReferenceScale)
	result.RenderScale = pickFloat(overlay.RenderScale, base.RenderScale)

	result.WebPort = overlay.WebPort
	if result.WebPort <= 0 {
		result.WebPort = base.WebPort
	}
	result.WebBind = strings.TrimSpace(overlay.WebBind)
	if result.WebBind == "" {
		result.WebBind = base.WebBind
	}

	// Booleans: overlay wins if true, else base
	result.DrawMode = base.DrawMode || overlay.DrawMode
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pickFloat(overlay, base float64) float64 {
	if overlay > 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
)

// ProjectFile is the per-project config file name, looked up in the tracked
// directory.
const ProjectFile = ".devtrackconfig"

// Formats lists the accepted report formats.
var Formats = []string{"json", "markdown", "yaml"}

// Config holds all configurable devtrack settings.
type Config struct {
	IgnorePatterns []string `json:"ignore_patterns"` // doublestar globs, relative to the root
	SnapshotDir    string   `json:"snapshot_dir"`
	DefaultFormat  string   `json:"default_format"` // "json" | "markdown" | "yaml"
	OutputDir      string   `json:"output_dir"`
	ReportName     string   `json:"report_name"`
	TopLanguages   int      `json:"top_languages"`
	TopFiles       int      `json:"top_files"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		IgnorePatterns: []string{},
		SnapshotDir:    ".devtracker",
		DefaultFormat:  "json",
		OutputDir:      ".",
		ReportName:     "dev-report",
		TopLanguages:   3,
		TopFiles:       10,
	}
}

// GlobalPath returns the location of the user-wide config file.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "devtrack", "config.json"), nil
}

// LoadGlobal reads ~/.config/devtrack/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .devtrackconfig in dir.
// Returns nil (no error) if the file is absent.
func LoadProject(dir string) (*Config, error) {
	return loadFile(filepath.Join(dir, ProjectFile), false)
}

// Load is LoadGlobal, LoadProject and Merge in one call.
func Load(dir string) (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, err
	}
	project, err := LoadProject(dir)
	if err != nil {
		return Config{}, err
	}
	cfg := Merge(global, project)
	return cfg, cfg.Validate()
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults. Ignore patterns from both
// files are kept.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, c := range []*Config{global, project} {
		if c == nil {
			continue
		}
		if c.SnapshotDir != "" {
			result.SnapshotDir = c.SnapshotDir
		}
		if c.DefaultFormat != "" {
			result.DefaultFormat = c.DefaultFormat
		}
		if c.OutputDir != "" {
			result.OutputDir = c.OutputDir
		}
		if c.ReportName != "" {
			result.ReportName = c.ReportName
		}
		if c.TopLanguages > 0 {
			result.TopLanguages = c.TopLanguages
		}
		if c.TopFiles > 0 {
			result.TopFiles = c.TopFiles
		}
		result.IgnorePatterns = lo.Uniq(append(result.IgnorePatterns, c.IgnorePatterns...))
	}
	return result
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	if !ValidFormat(c.DefaultFormat) {
		return fmt.Errorf("invalid default_format %q: must be json, markdown or yaml", c.DefaultFormat)
	}
	if filepath.IsAbs(c.SnapshotDir) {
		return fmt.Errorf("invalid snapshot_dir %q: must be relative to the project root", c.SnapshotDir)
	}
	return nil
}

// ValidFormat reports whether f names a supported report format.
func ValidFormat(f string) bool {
	return lo.Contains(Formats, f)
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"
)

// Feature: devtrack, Property: config merge precedence
func TestConfigMergePrecedence(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.-]{1,20}`)

	// Each field is independently either unset or set.
	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasDefaultFormat") {
			cfg.DefaultFormat = nonEmptyString.Draw(t, "defaultFormat")
		}
		if rapid.Bool().Draw(t, "hasOutputDir") {
			cfg.OutputDir = nonEmptyString.Draw(t, "outputDir")
		}
		if rapid.Bool().Draw(t, "hasSnapshotDir") {
			cfg.SnapshotDir = nonEmptyString.Draw(t, "snapshotDir")
		}
		if rapid.Bool().Draw(t, "hasReportName") {
			cfg.ReportName = nonEmptyString.Draw(t, "reportName")
		}
		cfg.TopFiles = rapid.IntRange(0, 20).Draw(t, "topFiles")
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")

		merged := Merge(global, project)
		defaults := Defaults()

		checkStringField(t, "DefaultFormat",
			global.DefaultFormat, project.DefaultFormat, defaults.DefaultFormat,
			merged.DefaultFormat)
		checkStringField(t, "OutputDir",
			global.OutputDir, project.OutputDir, defaults.OutputDir,
			merged.OutputDir)
		checkStringField(t, "SnapshotDir",
			global.SnapshotDir, project.SnapshotDir, defaults.SnapshotDir,
			merged.SnapshotDir)
		checkStringField(t, "ReportName",
			global.ReportName, project.ReportName, defaults.ReportName,
			merged.ReportName)

		want := defaults.TopFiles
		switch {
		case project.TopFiles > 0:
			want = project.TopFiles
		case global.TopFiles > 0:
			want = global.TopFiles
		}
		if merged.TopFiles != want {
			t.Fatalf("TopFiles: want %d, got %d", want, merged.TopFiles)
		}
	})
}

// checkStringField asserts the merge precedence rule for a single string field:
//   - project non-empty  → merged == project
//   - project empty, global non-empty → merged == global
//   - both empty → merged == defaultVal
func checkStringField(t *rapid.T, name, globalVal, projectVal, defaultVal, mergedVal string) {
	t.Helper()
	switch {
	case projectVal != "":
		if mergedVal != projectVal {
			t.Fatalf("%s: both set, expected project value %q, got %q", name, projectVal, mergedVal)
		}
	case globalVal != "":
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set, expected global value %q, got %q", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set, expected default %q, got %q", name, defaultVal, mergedVal)
		}
	}
}

func TestMergeKeepsIgnorePatternsFromBothFiles(t *testing.T) {
	global := &Config{IgnorePatterns: []string{"**/*.log", "dist/**"}}
	project := &Config{IgnorePatterns: []string{"dist/**", "tmp/**"}}

	merged := Merge(global, project)
	want := []string{"**/*.log", "dist/**", "tmp/**"}
	if len(merged.IgnorePatterns) != len(want) {
		t.Fatalf("IgnorePatterns: want %v, got %v", want, merged.IgnorePatterns)
	}
	for i := range want {
		if merged.IgnorePatterns[i] != want[i] {
			t.Errorf("IgnorePatterns[%d]: want %q, got %q", i, want[i], merged.IgnorePatterns[i])
		}
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if d.DefaultFormat != "json" {
		t.Errorf("DefaultFormat: want %q, got %q", "json", d.DefaultFormat)
	}
	if d.OutputDir != "." {
		t.Errorf("OutputDir: want %q, got %q", ".", d.OutputDir)
	}
	if d.SnapshotDir != ".devtracker" {
		t.Errorf("SnapshotDir: want %q, got %q", ".devtracker", d.SnapshotDir)
	}
	if d.ReportName != "dev-report" {
		t.Errorf("ReportName: want %q, got %q", "dev-report", d.ReportName)
	}
	if d.TopLanguages != 3 || d.TopFiles != 10 {
		t.Errorf("Top limits: want 3/10, got %d/%d", d.TopLanguages, d.TopFiles)
	}
	if d.IgnorePatterns == nil || len(d.IgnorePatterns) != 0 {
		t.Errorf("IgnorePatterns: want empty slice, got %v", d.IgnorePatterns)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"markdown", func(c *Config) { c.DefaultFormat = "markdown" }, false},
		{"yaml", func(c *Config) { c.DefaultFormat = "yaml" }, false},
		{"unknown format", func(c *Config) { c.DefaultFormat = "xml" }, true},
		{"absolute snapshot dir", func(c *Config) { c.SnapshotDir = "/tmp/snaps" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Defaults()
			tc.mutate(&c)
			if err := c.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate: wantErr=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config, got nil")
	}
	defaults := Defaults()
	if cfg.DefaultFormat != defaults.DefaultFormat {
		t.Errorf("DefaultFormat: want %q, got %q", defaults.DefaultFormat, cfg.DefaultFormat)
	}
	if cfg.OutputDir != defaults.OutputDir {
		t.Errorf("OutputDir: want %q, got %q", defaults.OutputDir, cfg.OutputDir)
	}
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	cfg, err := LoadProject(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadProjectOverridesGlobal(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	globalDir := filepath.Join(home, ".config", "devtrack")
	if err := os.MkdirAll(globalDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"),
		[]byte(`{"default_format":"markdown","report_name":"weekly"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, ProjectFile),
		[]byte(`{"default_format":"yaml"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(project)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultFormat != "yaml" {
		t.Errorf("DefaultFormat: want yaml, got %q", cfg.DefaultFormat)
	}
	if cfg.ReportName != "weekly" {
		t.Errorf("ReportName: want weekly, got %q", cfg.ReportName)
	}
}

func TestLoadRejectsInvalidFormat(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, ProjectFile),
		[]byte(`{"default_format":"pdf"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(project); err == nil {
		t.Fatal("expected an error for unsupported format, got nil")
	}
}

func TestLoadGlobalParseError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfgDir := filepath.Join(tmp, ".config", "devtrack")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("{invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadGlobal()
	if err == nil {
		t.Fatal("expected an error for invalid JSON, got nil")
	}
	if msg := err.Error(); len(msg) == 0 {
		t.Error("expected a descriptive error message, got empty string")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected *ParseError, got %T: %v", err, err)
	}
}

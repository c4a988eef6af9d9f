package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("file should not exist")
	}
	if cfg.Language != "en" {
		t.Fatalf("unexpected default language %q", cfg.Language)
	}
	if cfg.ParallelDownloads != 4 {
		t.Fatalf("unexpected default parallel_downloads %d", cfg.ParallelDownloads)
	}
	if !cfg.RenameChapters || !cfg.RenameManga {
		t.Fatal("rename defaults should be enabled")
	}
	if !filepath.IsAbs(cfg.OutputDirectory) {
		t.Fatalf("output directory not expanded: %q", cfg.OutputDirectory)
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
language = "ja"
output_directory = "` + dir + `"
rename_chapters = false
blocked_groups = ["aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", " "]
parallel_downloads = 2
[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Language != "ja" || cfg.ParallelDownloads != 2 || cfg.RenameChapters {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.BlockedGroups) != 1 {
		t.Fatalf("blank entries should be trimmed, got %v", cfg.BlockedGroups)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing output", func(c *Config) { c.OutputDirectory = "" }, "output_directory"},
		{"zero workers", func(c *Config) { c.ParallelDownloads = 0 }, "parallel_downloads"},
		{"bad language", func(c *Config) { c.Language = "not a tag" }, "language"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.OutputDirectory = t.TempDir()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample should exist")
	}
	if cfg.AllowQuestionMarks {
		t.Fatal("sample should default allow_question_marks to false")
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandPath("~/manga")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "manga") {
		t.Fatalf("got %q", got)
	}
}

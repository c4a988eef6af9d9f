package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()
	base := t.TempDir()
	outputDir := filepath.Join(base, "library")
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf("output_directory = %q\n%s", outputDir, extra)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	out, _, err = runCLI(t, target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("language = \"en\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	configPath := writeTestConfig(t, "parallel_downloads = 2\n")
	out, _, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "parallel_downloads = 2")
	requireContains(t, out, "output_directory")
}

func TestSyncWithoutMangaIDs(t *testing.T) {
	configPath := writeTestConfig(t, "")
	_, _, err := runCLI(t, configPath, "sync")
	if err == nil || !strings.Contains(err.Error(), "no manga ids") {
		t.Fatalf("expected missing-ids error, got %v", err)
	}
}

func TestChapterRequiresArgs(t *testing.T) {
	configPath := writeTestConfig(t, "")
	_, _, err := runCLI(t, configPath, "chapter")
	if err == nil {
		t.Fatal("expected argument error")
	}
}

func TestHistoryEmpty(t *testing.T) {
	configPath := writeTestConfig(t, "")
	out, _, err := runCLI(t, configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No sync activity")
}

func TestInvalidConfigSurfacesError(t *testing.T) {
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf("output_directory = %q\nlanguage = \"no-such-tag!\"\n", base)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, configPath, "history")
	if err == nil || !strings.Contains(err.Error(), "language") {
		t.Fatalf("expected language validation error, got %v", err)
	}
}

func TestPlainTable(t *testing.T) {
	rows := [][]string{{"a.zip", "valid"}, {"b.zip", "unmatched"}}
	got := plainTable(rows)
	want := "a.zip\tvalid\nb.zip\tunmatched"
	if got != want {
		t.Fatalf("plainTable mismatch: %q", got)
	}
}

func TestRenderTableIncludesHeaders(t *testing.T) {
	out := renderTable([]string{"File", "Status"}, [][]string{{"a.zip", "valid"}})
	requireContains(t, out, "File")
	requireContains(t, out, "a.zip")
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"mangasync/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mangasync.
//
// Configuration keys by concern:
//   - language: translated language to mirror, BCP 47 tag
//   - output_directory: root of the local archive tree
//   - temp_directory: scratch space for in-flight downloads (os default if empty)
//   - manga: manga UUIDs synced when the CLI receives no arguments
//   - rename_manga / rename_chapters: follow upstream display-name changes
//   - allow_question_marks: permit '?' in sanitized filenames
//   - blocked_groups: scanlation group UUIDs whose chapters are skipped
//   - ignored_chapters: chapter UUIDs that are never downloaded
//   - parallel_downloads: worker pool size bounding concurrent page fetches
type Config struct {
	Language           string   `toml:"language"`
	OutputDirectory    string   `toml:"output_directory"`
	TempDirectory      string   `toml:"temp_directory"`
	Manga              []string `toml:"manga"`
	RenameManga        bool     `toml:"rename_manga"`
	RenameChapters     bool     `toml:"rename_chapters"`
	AllowQuestionMarks bool     `toml:"allow_question_marks"`
	BlockedGroups      []string `toml:"blocked_groups"`
	IgnoredChapters    []string `toml:"ignored_chapters"`
	ParallelDownloads  int      `toml:"parallel_downloads"`
	Logging            Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/mangasync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mangasync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	c.Language = strings.TrimSpace(c.Language)
	c.OutputDirectory = strings.TrimSpace(c.OutputDirectory)
	c.TempDirectory = strings.TrimSpace(c.TempDirectory)

	if c.OutputDirectory != "" {
		expanded, err := ExpandPath(c.OutputDirectory)
		if err != nil {
			return err
		}
		c.OutputDirectory = expanded
	}
	if c.TempDirectory != "" {
		expanded, err := ExpandPath(c.TempDirectory)
		if err != nil {
			return err
		}
		c.TempDirectory = expanded
	}

	c.Manga = trimAll(c.Manga)
	c.BlockedGroups = trimAll(c.BlockedGroups)
	c.IgnoredChapters = trimAll(c.IgnoredChapters)
	return nil
}

// Validate checks configuration invariants that cannot be repaired by
// normalization.
func (c *Config) Validate() error {
	if c.OutputDirectory == "" {
		return services.Wrap(services.ErrConfiguration, "config", "validate", "output_directory is required", nil)
	}
	if c.ParallelDownloads < 1 {
		return services.Wrap(services.ErrConfiguration, "config", "validate",
			fmt.Sprintf("parallel_downloads must be at least 1, got %d", c.ParallelDownloads), nil)
	}
	if c.Language == "" {
		return services.Wrap(services.ErrConfiguration, "config", "validate", "language is required", nil)
	}
	if _, err := language.Parse(c.Language); err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "validate",
			fmt.Sprintf("language %q is not a valid BCP 47 tag", c.Language), err)
	}
	return nil
}

// EnsureDirectories creates the output directory tree when missing. The temp
// directory is created on a best-effort basis since the os default is used
// when it is unavailable.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.OutputDirectory, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.OutputDirectory, err)
	}
	if c.TempDirectory != "" {
		_ = os.MkdirAll(c.TempDirectory, 0o755)
	}
	return nil
}

// BlockedGroupSet returns blocked group ids as a membership set.
func (c *Config) BlockedGroupSet() map[string]struct{} {
	return toSet(c.BlockedGroups)
}

// IgnoredChapterSet returns ignored chapter ids as a membership set.
func (c *Config) IgnoredChapterSet() map[string]struct{} {
	return toSet(c.IgnoredChapters)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves ~ prefixes and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

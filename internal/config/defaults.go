package config

const (
	defaultLanguage          = "en"
	defaultOutputDirectory   = "~/manga"
	defaultParallelDownloads = 4
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Language:          defaultLanguage,
		OutputDirectory:   defaultOutputDirectory,
		RenameManga:       true,
		RenameChapters:    true,
		ParallelDownloads: defaultParallelDownloads,
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

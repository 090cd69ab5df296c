package config

import (
	"github.com/spf13/viper"
)

// Default values referenced by Default() and SetDefaults.
const (
	DefaultOutputDir         = "types/notion"
	DefaultBaseURL           = "https://api.notion.com"
	DefaultNotionVersion     = "2022-06-28"
	DefaultTimeoutSeconds    = 30
	DefaultRequestsPerSecond = 3.0
	DefaultMaxConcurrency    = 4
	DefaultMaxRetries        = 3
	DefaultTargetField       = "properties"
	DefaultCachePath         = ".notion-schema/cache.db"
)

// DefaultDirPermissions is used for directories created on behalf of the user.
const DefaultDirPermissions = 0750

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", DefaultOutputDir)

	v.SetDefault("notion.base_url", DefaultBaseURL)
	v.SetDefault("notion.version", DefaultNotionVersion)
	v.SetDefault("notion.timeout_seconds", DefaultTimeoutSeconds)
	v.SetDefault("notion.requests_per_second", DefaultRequestsPerSecond) // Notion's documented average
	v.SetDefault("notion.max_concurrency", DefaultMaxConcurrency)
	v.SetDefault("notion.max_retries", DefaultMaxRetries)

	v.SetDefault("library.input", "")
	v.SetDefault("library.output", "")
	v.SetDefault("library.target_field", DefaultTargetField)
	v.SetDefault("library.constraint", []string{})

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", DefaultCachePath)

	v.SetDefault("format.command", "")
}

// BindSensitiveEnvVars binds the API key to its environment variables.
// NOTION_TOKEN is accepted for compatibility with the Notion SDKs.
func BindSensitiveEnvVars(v *viper.Viper) {
	_ = v.BindEnv("api_key", EnvPrefix+"_API_KEY", "NOTION_TOKEN")
}

// Default returns the configuration written by `notion-schema init`.
func Default() *Config {
	return &Config{
		OutputDir: DefaultOutputDir,
		Databases: []DatabaseConfig{},
		Notion: NotionConfig{
			BaseURL:           DefaultBaseURL,
			Version:           DefaultNotionVersion,
			TimeoutSeconds:    DefaultTimeoutSeconds,
			RequestsPerSecond: DefaultRequestsPerSecond,
			MaxConcurrency:    DefaultMaxConcurrency,
			MaxRetries:        DefaultMaxRetries,
		},
		Library: LibraryConfig{
			TargetField: DefaultTargetField,
			Constraint:  []string{},
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    DefaultCachePath,
		},
	}
}

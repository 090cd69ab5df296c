// Package config loads notion-schema.toml.
//
// Values are resolved in precedence order: defaults < user config
// (~/.notion-schema/notion-schema.toml) < project config (first
// notion-schema.toml found walking up from the working directory) <
// NOTION_SCHEMA_* environment variables.
package config

// FileName is the project configuration file name.
const FileName = "notion-schema.toml"

// EnvPrefix prefixes every environment override, e.g. NOTION_SCHEMA_OUTPUT_DIR.
const EnvPrefix = "NOTION_SCHEMA"

// Config is the full notion-schema configuration.
type Config struct {
	APIKey    string           `mapstructure:"api_key" toml:"api_key,omitempty" json:"-" yaml:"-"`
	OutputDir string           `mapstructure:"output_dir" toml:"output_dir" json:"output_dir" yaml:"output_dir"`
	Databases []DatabaseConfig `mapstructure:"databases" toml:"databases,omitempty" json:"databases" yaml:"databases"`
	Notion    NotionConfig     `mapstructure:"notion" toml:"notion" json:"notion" yaml:"notion"`
	Library   LibraryConfig    `mapstructure:"library" toml:"library" json:"library" yaml:"library"`
	Cache     CacheConfig      `mapstructure:"cache" toml:"cache" json:"cache" yaml:"cache"`
	Format    FormatConfig     `mapstructure:"format" toml:"format" json:"format" yaml:"format"`
}

// DatabaseConfig names one Notion database. Title becomes the generated
// record type name and the output file name, so it is case-sensitive and
// kept out of viper's lower-cased key space by living in an array of tables.
type DatabaseConfig struct {
	Title string `mapstructure:"title" toml:"title" json:"title" yaml:"title"`
	ID    string `mapstructure:"id" toml:"id" json:"id" yaml:"id"`
}

// NotionConfig configures the Notion API client.
type NotionConfig struct {
	BaseURL           string  `mapstructure:"base_url" toml:"base_url" json:"base_url" yaml:"base_url"`
	Version           string  `mapstructure:"version" toml:"version" json:"version" yaml:"version"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" toml:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second"`
	MaxConcurrency    int     `mapstructure:"max_concurrency" toml:"max_concurrency" json:"max_concurrency" yaml:"max_concurrency"`
	MaxRetries        int     `mapstructure:"max_retries" toml:"max_retries" json:"max_retries" yaml:"max_retries"`
}

// LibraryConfig configures the declaration-library rewrite.
// An empty Input disables the rewrite during generate.
type LibraryConfig struct {
	Input       string   `mapstructure:"input" toml:"input" json:"input" yaml:"input"`
	Output      string   `mapstructure:"output" toml:"output" json:"output" yaml:"output"`
	TargetField string   `mapstructure:"target_field" toml:"target_field" json:"target_field" yaml:"target_field"`
	Constraint  []string `mapstructure:"constraint" toml:"constraint" json:"constraint" yaml:"constraint"`
}

// CacheConfig configures the sqlite schema cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
}

// FormatConfig configures the formatter run over written files.
// Command is split with shell quoting rules; file paths are appended.
type FormatConfig struct {
	Command string `mapstructure:"command" toml:"command" json:"command" yaml:"command"`
}

// LibraryOutput returns where the rewritten library is written.
// Without an explicit output the input is rewritten in place.
func (c *Config) LibraryOutput() string {
	if c.Library.Output != "" {
		return c.Library.Output
	}
	return c.Library.Input
}

// Database returns the configured database with the given title.
func (c *Config) Database(title string) (DatabaseConfig, bool) {
	for _, db := range c.Databases {
		if db.Title == title {
			return db, true
		}
	}
	return DatabaseConfig{}, false
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/notion-schema/errors"
)

const sampleConfig = `output_dir = "src/notion"

[notion]
requests_per_second = 1.5
max_retries = 5

[library]
input = "node_modules/@notionhq/client/build/src/api-endpoints.d.ts"
constraint = ["Status", "Due"]

[[databases]]
title = "Tasks"
id = "0123456789abcdef0123456789abcdef"

[[databases]]
title = "ReadingList"
id = "89abcdef-0123-4567-89ab-cdef01234567"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, DefaultBaseURL, cfg.Notion.BaseURL)
	assert.Equal(t, DefaultNotionVersion, cfg.Notion.Version)
	assert.Equal(t, 3.0, cfg.Notion.RequestsPerSecond)
	assert.Equal(t, DefaultTargetField, cfg.Library.TargetField)
	assert.True(t, cfg.Cache.Enabled)
	assert.Empty(t, cfg.Databases)
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("NOTION_SCHEMA_API_KEY", "")
	t.Setenv("NOTION_TOKEN", "secret_token")
	path := writeFile(t, t.TempDir(), FileName, sampleConfig)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "src/notion", cfg.OutputDir)
	assert.Equal(t, "secret_token", cfg.APIKey)
	assert.Equal(t, 1.5, cfg.Notion.RequestsPerSecond)
	assert.Equal(t, 5, cfg.Notion.MaxRetries)
	assert.Equal(t, DefaultNotionVersion, cfg.Notion.Version, "unset keys keep defaults")
	assert.Equal(t, []string{"Status", "Due"}, cfg.Library.Constraint)
	assert.Equal(t, cfg.Library.Input, cfg.LibraryOutput(), "rewrite defaults to in place")

	require.Len(t, cfg.Databases, 2)
	assert.Equal(t, "Tasks", cfg.Databases[0].Title, "titles keep their case")
	assert.Equal(t, "ReadingList", cfg.Databases[1].Title)

	db, ok := cfg.Database("ReadingList")
	require.True(t, ok)
	assert.Equal(t, "89abcdef-0123-4567-89ab-cdef01234567", db.ID)
	_, ok = cfg.Database("tasks")
	assert.False(t, ok)

	require.NoError(t, cfg.Validate())
	cfg.Normalize()
	assert.Equal(t, "01234567-89ab-cdef-0123-456789abcdef", cfg.Databases[0].ID)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestFindProjectConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	assert.Empty(t, FindProjectConfig(nested))

	path := writeFile(t, root, FileName, "")
	assert.Equal(t, path, FindProjectConfig(nested))
	assert.Equal(t, path, FindProjectConfig(root))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Databases = []DatabaseConfig{{Title: "Tasks", ID: "0123456789abcdef0123456789abcdef"}}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty output dir", func(c *Config) { c.OutputDir = " " }, "output_dir cannot be empty"},
		{"title with space", func(c *Config) { c.Databases[0].Title = "My Tasks" }, "not a valid type name"},
		{"title starting with digit", func(c *Config) { c.Databases[0].Title = "2024" }, "not a valid type name"},
		{"duplicate title", func(c *Config) {
			c.Databases = append(c.Databases, DatabaseConfig{Title: "Tasks", ID: "89abcdef-0123-4567-89ab-cdef01234567"})
		}, "configured twice"},
		{"bad id", func(c *Config) { c.Databases[0].ID = "tasks" }, "not a valid id"},
		{"base url scheme", func(c *Config) { c.Notion.BaseURL = "ftp://api.notion.com" }, "notion.base_url"},
		{"zero timeout", func(c *Config) { c.Notion.TimeoutSeconds = 0 }, "notion.timeout_seconds"},
		{"zero rate", func(c *Config) { c.Notion.RequestsPerSecond = 0 }, "notion.requests_per_second"},
		{"zero concurrency", func(c *Config) { c.Notion.MaxConcurrency = 0 }, "notion.max_concurrency"},
		{"negative retries", func(c *Config) { c.Notion.MaxRetries = -1 }, "notion.max_retries"},
		{"zero retries", func(c *Config) { c.Notion.MaxRetries = 0 }, ""},
		{"library without target field", func(c *Config) {
			c.Library.Input = "api-endpoints.d.ts"
			c.Library.TargetField = ""
		}, "library.target_field"},
		{"cache without path", func(c *Config) { c.Cache.Path = "" }, "cache.path"},
		{"disabled cache without path", func(c *Config) {
			c.Cache.Enabled = false
			c.Cache.Path = ""
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalizeDatabaseID(t *testing.T) {
	const canonical = "01234567-89ab-cdef-0123-456789abcdef"

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"undashed", "0123456789abcdef0123456789abcdef", canonical},
		{"dashed", canonical, canonical},
		{"upper case", "0123456789ABCDEF0123456789ABCDEF", canonical},
		{"surrounding space", "  0123456789abcdef0123456789abcdef\n", canonical},
		{"database url", "https://www.notion.so/acme/0123456789abcdef0123456789abcdef?v=fedcba9876543210fedcba9876543210", canonical},
		{"titled url", "https://www.notion.so/acme/My-Tasks-0123456789abcdef0123456789abcdef", canonical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDatabaseID(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "tasks", "0123456789abcdef", "https://www.notion.so/acme/My-Tasks"} {
		_, err := NormalizeDatabaseID(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, errors.ErrInvalidRequest), bad)
	}
}

func TestWriteDefault(t *testing.T) {
	t.Setenv("NOTION_SCHEMA_API_KEY", "")
	t.Setenv("NOTION_TOKEN", "")
	path := filepath.Join(t.TempDir(), "nested", FileName)

	require.NoError(t, WriteDefault(path))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	def := Default()
	assert.Empty(t, cfg.Databases)
	assert.Equal(t, def.OutputDir, cfg.OutputDir)
	assert.Equal(t, def.Notion, cfg.Notion)
	assert.Equal(t, def.Library.TargetField, cfg.Library.TargetField)
	assert.Empty(t, cfg.Library.Constraint)
	assert.Equal(t, def.Cache, cfg.Cache)
	require.NoError(t, cfg.Validate())

	unknown, err := UnknownKeys(path)
	require.NoError(t, err)
	assert.Empty(t, unknown)

	err = WriteDefault(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestWriteDefault_AcceptsAppendedDatabases(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, WriteDefault(path))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("\n[[databases]]\ntitle = \"Tasks\"\nid = \"0123456789abcdef0123456789abcdef\"\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Len(t, cfg.Databases, 1)
	assert.Equal(t, "Tasks", cfg.Databases[0].Title)
}

func TestUnknownKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), FileName, `ouput_dir = "x"

[notion]
retries = 2
version = "2022-06-28"

[[databases]]
title = "Tasks"
id = "0123456789abcdef0123456789abcdef"
colour = "red"
`)

	unknown, err := UnknownKeys(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"databases.colour", "notion.retries", "ouput_dir"}, unknown)
}

func TestUnknownKeys_InvalidTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), FileName, "output_dir = \n")
	_, err := UnknownKeys(path)
	assert.Error(t, err)
}

func TestSave_RotatesBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	cfg := Default()
	cfg.APIKey = "secret"
	for _, out := range []string{"one", "two", "three", "four", "five"} {
		cfg.OutputDir = out
		require.NoError(t, Save(cfg, path))
	}

	current, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "five", current.OutputDir)

	for suffix, want := range map[string]string{".back1": "four", ".back2": "three", ".back3": "two"} {
		backup, err := LoadFromFile(path + suffix)
		require.NoError(t, err, suffix)
		assert.Equal(t, want, backup.OutputDir, suffix)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.Equal(t, "secret", cfg.APIKey, "caller's config is not modified")
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, FileName, `output_dir = "first"`+"\n")

	w, err := NewWatcher(path, 20*time.Millisecond)
	require.NoError(t, err)

	reloaded := make(chan *Config, 4)
	w.OnReload(func(cfg *Config) error {
		reloaded <- cfg
		return nil
	})
	w.Start()

	writeFile(t, dir, "unrelated.toml", `output_dir = "ignored"`+"\n")
	writeFile(t, dir, FileName, `output_dir = "second"`+"\n")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "second", cfg.OutputDir)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}

	require.NoError(t, w.Stop())
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not exit")
	}
}

func TestIsBackupFile(t *testing.T) {
	assert.True(t, isBackupFile("/x/notion-schema.toml.back1"))
	assert.True(t, isBackupFile("notion-schema.toml.back3"))
	assert.False(t, isBackupFile("notion-schema.toml"))
	assert.False(t, isBackupFile("notion-schema.toml.back4"))
}

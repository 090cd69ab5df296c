package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/logger"
)

const defaultHeader = `# notion-schema configuration
#
# Add one [[databases]] table per Notion database:
#
#   [[databases]]
#   title = "Tasks"
#   id = "0123456789abcdef0123456789abcdef"
#
# The API key is read from NOTION_SCHEMA_API_KEY or NOTION_TOKEN.

`

// WriteDefault writes the default configuration to path.
// An existing file is never overwritten.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.WithHint(
			errors.Newf("config file %s already exists", path),
			"edit the existing file or remove it first",
		)
	}

	data, err := toml.Marshal(Default())
	if err != nil {
		return errors.Wrap(err, "failed to marshal default config")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	// O_EXCL closes the gap between the Stat above and the write.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to create config file %s", path)
	}
	defer f.Close()

	if _, err := f.WriteString(defaultHeader); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}
	if _, err := f.Write(data); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}
	return nil
}

// Save writes cfg to path, rotating up to three backups of the previous file.
// The API key is never persisted.
func Save(cfg *Config, path string) error {
	out := *cfg
	out.APIKey = ""

	data, err := toml.Marshal(&out)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := createBackup(path); err != nil {
		return err
	}

	if w := GetGlobalWatcher(); w != nil {
		w.MarkOwnWrite()
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}
	return nil
}

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		logger.Warnw("Failed to delete old config backup",
			logger.FieldPath, back3,
			logger.FieldError, err)
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, 0644); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}

package config

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/typegen/typescript"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("output_dir cannot be empty")
	}

	seen := make(map[string]bool, len(c.Databases))
	for i, db := range c.Databases {
		if !typescript.IsTypeName(db.Title) {
			return errors.WithHint(
				errors.Newf("databases[%d].title %q is not a valid type name", i, db.Title),
				"titles become TypeScript type names: start with a letter, _ or $ and use no spaces",
			)
		}
		if seen[db.Title] {
			return errors.Newf("databases[%d].title %q is configured twice", i, db.Title)
		}
		seen[db.Title] = true

		if _, err := NormalizeDatabaseID(db.ID); err != nil {
			return errors.Wrapf(err, "databases[%d] (%s)", i, db.Title)
		}
	}

	u, err := url.Parse(c.Notion.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Newf("notion.base_url must be an http(s) URL, got %q", c.Notion.BaseURL)
	}
	if c.Notion.Version == "" {
		return errors.New("notion.version cannot be empty")
	}
	if c.Notion.TimeoutSeconds <= 0 {
		return errors.Newf("notion.timeout_seconds must be > 0, got %d", c.Notion.TimeoutSeconds)
	}
	if c.Notion.RequestsPerSecond <= 0 {
		return errors.Newf("notion.requests_per_second must be > 0, got %g", c.Notion.RequestsPerSecond)
	}
	if c.Notion.MaxConcurrency < 1 {
		return errors.Newf("notion.max_concurrency must be >= 1, got %d", c.Notion.MaxConcurrency)
	}
	if c.Notion.MaxRetries < 0 {
		return errors.Newf("notion.max_retries must be >= 0, got %d", c.Notion.MaxRetries)
	}

	if c.Library.Input != "" && strings.TrimSpace(c.Library.TargetField) == "" {
		return errors.New("library.target_field cannot be empty when library.input is set")
	}

	if c.Cache.Enabled && c.Cache.Path == "" {
		return errors.New("cache.path cannot be empty when the cache is enabled")
	}

	return nil
}

// Normalize rewrites every database id into canonical dashed form.
// Call Validate first; ids that do not parse are left untouched.
func (c *Config) Normalize() {
	for i, db := range c.Databases {
		if id, err := NormalizeDatabaseID(db.ID); err == nil {
			c.Databases[i].ID = id
		}
	}
}

// NormalizeDatabaseID accepts the forms Notion shows a database id in
// (dashed, undashed 32-hex, or the tail of a notion.so URL) and returns the
// canonical dashed form.
func NormalizeDatabaseID(id string) (string, error) {
	raw := strings.TrimSpace(id)
	if raw == "" {
		return "", errors.NewInvalidRequestError("database id is empty")
	}

	if strings.Contains(raw, "/") {
		if u, err := url.Parse(raw); err == nil && u.Path != "" {
			raw = u.Path
		}
		raw = raw[strings.LastIndex(raw, "/")+1:]
	}
	// Page URLs carry the title before the id: My-Tasks-0123...
	if i := strings.LastIndex(raw, "-"); i >= 0 && len(raw)-i-1 == 32 {
		raw = raw[i+1:]
	}

	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", errors.WithHint(
			errors.NewInvalidRequestError("database id %q is not a valid id", id),
			"copy the 32-character id from the database URL",
		)
	}
	return parsed.String(), nil
}

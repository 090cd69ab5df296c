package config

import (
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/teranos/notion-schema/errors"
)

// UnknownKeys decodes path strictly and returns the keys that do not map to
// any configuration field, sorted. Viper silently ignores such keys, so a
// typo like `ouput_dir` would otherwise go unnoticed.
func UnknownKeys(path string) ([]string, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode config file %s", path)
	}

	var keys []string
	for _, key := range md.Undecoded() {
		keys = append(keys, key.String())
	}
	sort.Strings(keys)
	return keys, nil
}

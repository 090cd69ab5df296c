// Package commands implements the notion-schema subcommands.
package commands

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/notion-schema/config"
	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/generic"
	"github.com/teranos/notion-schema/logger"
	"github.com/teranos/notion-schema/tsdecl"
)

// configPath returns the --config flag, or the highest-precedence config file found.
func configPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	if sources := config.Sources(); len(sources) > 0 {
		return sources[len(sources)-1]
	}
	return ""
}

// loadConfig loads, validates and normalises the configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
		path = configPath(cmd)
	}
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to load config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", errors.Wrap(err, "configuration validation failed")
	}
	cfg.Normalize()

	if path != "" {
		warnUnknownKeys(path)
	}
	return cfg, path, nil
}

func warnUnknownKeys(path string) {
	unknown, err := config.UnknownKeys(path)
	if err != nil {
		logger.Debugw("Strict config decode failed", logger.FieldPath, path, logger.FieldError, err)
		return
	}
	for _, key := range unknown {
		logger.Warnw("Unknown configuration key", logger.FieldPath, path, "key", key)
		pterm.Warning.Printfln("%s: unknown key %q is ignored", path, key)
	}
}

// explain prints a load error with its source excerpt and passes err through.
func explain(err error) error {
	var loadErr *tsdecl.LoadError
	if errors.As(err, &loadErr) {
		pterm.Println(loadErr.FormatTerminal())
	}
	if hints := errors.FlattenHints(err); hints != "" {
		pterm.Info.Println(hints)
	}
	return err
}

// printRewriteResult summarises a rewrite on the terminal.
func printRewriteResult(path string, result *generic.Result) {
	if !result.Changed() {
		pterm.Info.Printfln("%s is already parameterized", path)
	} else {
		pterm.Success.Printfln("Rewrote %s (%d marked, %d propagated, %d constraints updated)",
			path, len(result.Marked), len(result.Propagated), len(result.Reconstrained))
	}
	for _, w := range result.Warnings {
		pterm.Warning.Println(w.Error())
	}
	if len(result.Unreached) > 0 {
		pterm.Info.Printfln("Still referencing generic declarations without arguments: %s",
			strings.Join(result.Unreached, ", "))
	}
}

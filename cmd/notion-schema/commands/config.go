package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/notion-schema/config"
	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/typegen/typescript"
)

// ConfigCmd represents the config command
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage notion-schema configuration",
	Long: `Display and manage notion-schema configuration.

Configuration sources (in order of precedence):
1. Environment variables (NOTION_SCHEMA_* prefix, NOTION_TOKEN for the API key)
2. Project config (./notion-schema.toml, searched up directories)
3. User config (~/.notion-schema/notion-schema.toml)
4. Default values

Examples:
  notion-schema config show                 # Show current configuration
  notion-schema config show --format json   # Show configuration in JSON format
  notion-schema config validate             # Validate current configuration
  notion-schema config add Tasks <id>       # Add a database`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the merged configuration. The API key is never shown.",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runConfigValidate,
}

var configWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE:  runConfigWhere,
}

var configAddCmd = &cobra.Command{
	Use:   "add <title> <database-id-or-url>",
	Short: "Add a database to the project config",
	Long: `Append a [[databases]] entry to the project config file. The previous
file is kept as .back1 (up to three backups).`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigAdd,
}

var configFormat string

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configValidateCmd)
	ConfigCmd.AddCommand(configWhereCmd)
	ConfigCmd.AddCommand(configAddCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	return showConfig(cmd.OutOrStdout(), cfg, configFormat)
}

func showConfig(w io.Writer, cfg *config.Config, format string) error {
	redacted := *cfg
	redacted.APIKey = ""

	switch format {
	case "json":
		data, err := json.MarshalIndent(&redacted, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(w, string(data))

	case "yaml":
		data, err := yaml.Marshal(&redacted)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(w, "# notion-schema configuration\n%s", data)

	case "toml":
		data, err := toml.Marshal(&redacted)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(w, "# notion-schema configuration\n%s", data)

	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return explain(err)
	}
	pterm.Success.Printfln("Configuration is valid (%d database(s))", len(cfg.Databases))
	if cfg.APIKey == "" {
		pterm.Warning.Println("No API key set; only --offline and --snapshot runs will work")
	}
	return nil
}

func runConfigWhere(cmd *cobra.Command, args []string) error {
	pterm.Println("Configuration cascade (later overrides earlier):")
	pterm.Println("  1. [DEFAULT]  Built-in defaults")
	pterm.Println("  2. [USER]     ~/.notion-schema/" + config.FileName)
	pterm.Println("  3. [PROJECT]  ./" + config.FileName + " (searches up directories)")
	pterm.Println("  4. [ENV]      " + config.EnvPrefix + "_* environment variables")
	pterm.Println()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		pterm.Printfln("Using --config %s", path)
		return nil
	}

	sources := config.Sources()
	if len(sources) == 0 {
		pterm.Warning.Println("No configuration files found; run 'notion-schema init'")
		return nil
	}
	pterm.Println("Active files:")
	for _, s := range sources {
		pterm.Printfln("  %s", s)
	}
	return nil
}

func runConfigAdd(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)
	if path == "" {
		return errors.WithHint(
			errors.New("no config file to add to"),
			"run 'notion-schema init' first",
		)
	}

	cfg, err := addDatabase(path, args[0], args[1])
	if err != nil {
		return explain(err)
	}
	pterm.Success.Printfln("Added %s to %s (%d database(s))", args[0], path, len(cfg.Databases))
	return nil
}

// addDatabase appends a database to the config file at path and saves it.
func addDatabase(path, title, id string) (*config.Config, error) {
	if !typescript.IsTypeName(title) {
		return nil, errors.WithHint(
			errors.NewInvalidRequestError("%q is not a valid type name", title),
			"titles become TypeScript type names: start with a letter, _ or $ and use no spaces",
		)
	}
	normalized, err := config.NormalizeDatabaseID(id)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "config file %s", path)
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if _, exists := cfg.Database(title); exists {
		return nil, errors.Newf("database %s is already configured", title)
	}

	cfg.Databases = append(cfg.Databases, config.DatabaseConfig{Title: title, ID: normalized})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := config.Save(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

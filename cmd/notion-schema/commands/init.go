package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/notion-schema/config"
)

// InitCmd writes a starter configuration file
var InitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a notion-schema.toml",
	Long: `Write a default configuration file. An existing file is never overwritten.

Examples:
  notion-schema init                  # ./notion-schema.toml
  notion-schema init config/ns.toml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.FileName
	if len(args) == 1 {
		path = args[0]
	}

	if err := config.WriteDefault(path); err != nil {
		return explain(err)
	}

	pterm.Success.Printfln("Created %s", path)
	pterm.Info.Println("Add your databases, then set NOTION_SCHEMA_API_KEY and run 'notion-schema generate'")
	return nil
}

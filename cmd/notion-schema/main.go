package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/notion-schema/cmd/notion-schema/commands"
	"github.com/teranos/notion-schema/logger"
)

var rootCmd = &cobra.Command{
	Use:   "notion-schema",
	Short: "Generate TypeScript types from Notion database schemas",
	Long: `notion-schema - TypeScript types for Notion databases.

Fetches database schemas from the Notion API, compiles one record type per
database with string enums for select, multi-select and status properties,
and rewrites the Notion client's declaration library so page and database
responses are generic over your property map.

Available commands:
  init     - Create a notion-schema.toml
  generate - Fetch schemas and write types
  rewrite  - Make a declaration library generic
  check    - Check that generated types are up to date
  config   - Show, validate and edit configuration

Examples:
  notion-schema init
  notion-schema config add Tasks https://www.notion.so/acme/0123456789abcdef0123456789abcdef
  notion-schema generate
  notion-schema check --offline`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		if err := logger.InitializeWithVerbosity(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default: notion-schema.toml searched up from the working directory)")

	rootCmd.AddCommand(commands.InitCmd)
	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.RewriteCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package commands

import (
	"context"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/generic"
	"github.com/teranos/notion-schema/tsdecl"
	"github.com/teranos/notion-schema/typegen"
)

var (
	checkOffline      bool
	checkSnapshots    []string
	checkClientModule string
)

// CheckCmd checks if generated types are up to date
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check if generated types are up to date",
	Long: `Regenerate into a temporary directory and compare with output_dir,
ignoring the Database ID header line. When [library] input is set, also check
that the library needs no further rewrite.

Exit codes:
  0 - Types are up to date
  1 - Types are out of date, or an error occurred

Examples:
  notion-schema check
  notion-schema check --offline      # CI without a Notion token`,
	RunE: runCheck,
}

func init() {
	CheckCmd.Flags().BoolVar(&checkOffline, "offline", false, "Read schemas from the cache instead of Notion")
	CheckCmd.Flags().StringArrayVar(&checkSnapshots, "snapshot", nil, "Compile Title=path from a saved response (repeatable)")
	CheckCmd.Flags().StringVar(&checkClientModule, "client-module", typegen.DefaultClientModule, "Module the generated files import CreatePageParameters from")
}

// checkReport is the outcome of a check run.
type checkReport struct {
	Types          *typegen.CheckResult
	LibraryPath    string
	LibraryChanged bool
}

func (r *checkReport) upToDate() bool {
	return r.Types.UpToDate && !r.LibraryChanged
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return explain(err)
	}
	snapshots, err := parseSnapshots(checkSnapshots)
	if err != nil {
		return err
	}

	pterm.Info.Println("Checking generated types...")
	report, err := check(cmd.Context(), newPipeline(cfg), sourceOptions{Offline: checkOffline, Snapshots: snapshots}, checkClientModule)
	if err != nil {
		return explain(err)
	}

	if report.upToDate() {
		pterm.Success.Println("Types are up to date")
		return nil
	}

	pterm.Error.Println("Types are out of date")
	for _, f := range report.Types.Differences {
		pterm.Printfln("  ~ %s", f)
	}
	for _, f := range report.Types.Stale {
		pterm.Printfln("  - %s (no longer generated)", f)
	}
	if report.LibraryChanged {
		pterm.Printfln("  ~ %s (needs rewrite)", report.LibraryPath)
	}
	return errors.New("types are out of date - run 'notion-schema generate' to update")
}

// check regenerates into a temp dir and compares it with the committed output.
func check(ctx context.Context, p *pipeline, src sourceOptions, clientModule string) (*checkReport, error) {
	tempDir, err := os.MkdirTemp("", "notion-schema-check-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp directory")
	}
	defer os.RemoveAll(tempDir)

	schemas, err := p.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	units, err := p.compile(schemas, clientModule)
	if err != nil {
		return nil, err
	}
	if _, err := p.write(ctx, tempDir, units); err != nil {
		return nil, err
	}

	result, err := typegen.CompareDirectories(tempDir, p.cfg.OutputDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compare directories")
	}
	report := &checkReport{Types: result}

	if p.cfg.Library.Input == "" {
		return report, nil
	}
	ro := p.libraryRewrite(propertyNames(units))
	report.LibraryPath = ro.Output

	lib, err := tsdecl.LoadFile(ro.Output)
	if err != nil {
		return nil, err
	}
	rewritten, err := generic.NewRewriter(generic.Options{
		TargetField: ro.TargetField,
		Constraint:  ro.Constraint,
	}, nil).Rewrite(lib)
	if err != nil {
		return nil, err
	}
	report.LibraryChanged = rewritten.Changed()
	return report, nil
}

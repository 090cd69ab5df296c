package commands

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/notion-schema/config"
	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/logger"
	"github.com/teranos/notion-schema/typegen"
)

var (
	generateOffline      bool
	generateSnapshots    []string
	generateWatch        bool
	generateNoRewrite    bool
	generateOutput       string
	generateClientModule string
)

// GenerateCmd fetches schemas and writes record types
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate TypeScript types from Notion databases",
	Long: `Fetch every configured database schema, compile one <Title>.ts per database
plus an index.ts, and (when [library] input is set) rewrite the client's
declaration library so its property maps are generic.

Examples:
  notion-schema generate                               # fetch from Notion
  notion-schema generate --offline                     # use the schema cache
  notion-schema generate --snapshot Tasks=tasks.json   # use a saved response
  notion-schema generate --watch                       # regenerate on config change`,
	RunE: runGenerate,
}

func init() {
	GenerateCmd.Flags().BoolVar(&generateOffline, "offline", false, "Read schemas from the cache instead of Notion")
	GenerateCmd.Flags().StringArrayVar(&generateSnapshots, "snapshot", nil, "Compile Title=path from a saved response (repeatable)")
	GenerateCmd.Flags().BoolVarP(&generateWatch, "watch", "w", false, "Regenerate when the config file changes")
	GenerateCmd.Flags().BoolVar(&generateNoRewrite, "no-rewrite", false, "Skip the declaration library rewrite")
	GenerateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output directory (default: output_dir from config)")
	GenerateCmd.Flags().StringVar(&generateClientModule, "client-module", typegen.DefaultClientModule, "Module the generated files import CreatePageParameters from")
}

// generateOptions are the flags of one generate run.
type generateOptions struct {
	sourceOptions
	OutputDir    string
	ClientModule string
	NoRewrite    bool
}

// generateSummary reports what a run produced.
type generateSummary struct {
	Units   []*typegen.Unit
	Written []string
	Rewrite *rewriteSummary
}

type rewriteSummary struct {
	Path          string
	Marked        int
	Propagated    int
	Reconstrained int
	Warnings      []string
	Changed       bool
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return explain(err)
	}

	snapshots, err := parseSnapshots(generateSnapshots)
	if err != nil {
		return err
	}
	opts := generateOptions{
		sourceOptions: sourceOptions{Offline: generateOffline, Snapshots: snapshots},
		OutputDir:     generateOutput,
		ClientModule:  generateClientModule,
		NoRewrite:     generateNoRewrite,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := generate(ctx, newPipeline(cfg), opts)
	if err != nil {
		return explain(err)
	}
	printGenerateSummary(summary)

	if !generateWatch {
		return nil
	}
	return watchAndGenerate(ctx, path, opts)
}

// generate runs one fetch, compile, write and optional rewrite.
func generate(ctx context.Context, p *pipeline, opts generateOptions) (*generateSummary, error) {
	schemas, err := p.fetch(ctx, opts.sourceOptions)
	if err != nil {
		return nil, err
	}

	units, err := p.compile(schemas, opts.ClientModule)
	if err != nil {
		return nil, err
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = p.cfg.OutputDir
	}
	report, err := p.write(ctx, dir, units)
	if err != nil {
		return nil, err
	}

	summary := &generateSummary{Units: units, Written: report.Written}
	if opts.NoRewrite || p.cfg.Library.Input == "" {
		return summary, nil
	}

	ro := p.libraryRewrite(propertyNames(units))
	result, err := p.rewriteLibrary(ctx, ro)
	if err != nil {
		return nil, err
	}
	rs := &rewriteSummary{
		Path:          ro.Output,
		Marked:        len(result.Marked),
		Propagated:    len(result.Propagated),
		Reconstrained: len(result.Reconstrained),
		Changed:       result.Changed(),
	}
	for _, w := range result.Warnings {
		rs.Warnings = append(rs.Warnings, w.Error())
	}
	summary.Rewrite = rs
	return summary, nil
}

func watchAndGenerate(ctx context.Context, path string, opts generateOptions) error {
	if path == "" {
		return errors.WithHint(
			errors.New("--watch needs a config file"),
			"run 'notion-schema init' or pass --config",
		)
	}

	w, err := config.NewWatcher(path, config.DefaultDebounce)
	if err != nil {
		return err
	}
	config.SetGlobalWatcher(w)
	defer config.SetGlobalWatcher(nil)

	w.OnReload(func(cfg *config.Config) error {
		if err := cfg.Validate(); err != nil {
			pterm.Error.Printfln("Config invalid, keeping previous output: %v", err)
			return err
		}
		cfg.Normalize()
		summary, err := generate(ctx, newPipeline(cfg), opts)
		if err != nil {
			pterm.Error.Println(explain(err).Error())
			return err
		}
		printGenerateSummary(summary)
		return nil
	})
	w.Start()

	pterm.Info.Printfln("Watching %s (Ctrl-C to stop)", path)
	<-ctx.Done()

	logger.Debugw("Stopping config watcher", logger.FieldPath, path)
	return w.Stop()
}

func parseSnapshots(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	snapshots := make(map[string]string, len(values))
	for _, v := range values {
		title, path, ok := strings.Cut(v, "=")
		if !ok || title == "" || path == "" {
			return nil, errors.WithHint(
				errors.NewInvalidRequestError("invalid --snapshot %q", v),
				"use --snapshot Title=path/to/response.json",
			)
		}
		snapshots[title] = path
	}
	return snapshots, nil
}

func printGenerateSummary(s *generateSummary) {
	data := pterm.TableData{{"Database", "Properties", "Enums"}}
	for _, u := range s.Units {
		data = append(data, []string{u.Title, strconv.Itoa(len(u.Record.Fields)), strconv.Itoa(len(u.Record.Enums))})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	if len(s.Written) == 0 {
		pterm.Info.Println("Generated types are already up to date")
	} else {
		pterm.Success.Printfln("Wrote %d file(s)", len(s.Written))
	}

	if r := s.Rewrite; r != nil {
		if r.Changed {
			pterm.Success.Printfln("Rewrote %s (%d marked, %d propagated, %d constraints updated)",
				r.Path, r.Marked, r.Propagated, r.Reconstrained)
		} else {
			pterm.Info.Printfln("%s is already parameterized", r.Path)
		}
		for _, w := range r.Warnings {
			pterm.Warning.Println(w)
		}
	}
}

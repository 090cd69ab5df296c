package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/generic"
)

var (
	rewriteOutput      string
	rewriteTargetField string
	rewriteConstraint  []string
	rewriteFromCache   bool
	rewriteDryRun      bool
)

// RewriteCmd makes a declaration library generic over the property map
var RewriteCmd = &cobra.Command{
	Use:   "rewrite [library.d.ts]",
	Short: "Make a client declaration library generic over its property map",
	Long: `Load a TypeScript declaration library (e.g. @notionhq/client's
api-endpoints.d.ts), give every response-shaped type with a target field a
type parameter T constrained to the property names, and pass T through every
declaration that builds on them.

The constraint comes from --constraint, then [library] constraint, then
(with --from-cache) the property names of all cached schemas.

Examples:
  notion-schema rewrite                                     # [library] from config
  notion-schema rewrite api-endpoints.d.ts -o out.d.ts --constraint Name,Status
  notion-schema rewrite --from-cache --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRewrite,
}

func init() {
	RewriteCmd.Flags().StringVarP(&rewriteOutput, "output", "o", "", "Output file (default: [library] output, or in place)")
	RewriteCmd.Flags().StringVar(&rewriteTargetField, "target-field", "", "Member name that marks a declaration (default: [library] target_field)")
	RewriteCmd.Flags().StringSliceVar(&rewriteConstraint, "constraint", nil, "Property names the type parameter is constrained to")
	RewriteCmd.Flags().BoolVar(&rewriteFromCache, "from-cache", false, "Derive the constraint from the cached schemas")
	RewriteCmd.Flags().BoolVar(&rewriteDryRun, "dry-run", false, "Print the rewritten library instead of writing it")
}

func runRewrite(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return explain(err)
	}
	p := newPipeline(cfg)

	opts := p.libraryRewrite(nil)
	if len(args) == 1 {
		opts.Input = args[0]
		opts.Output = args[0]
		if cfg.Library.Output != "" && cfg.Library.Input == args[0] {
			opts.Output = cfg.Library.Output
		}
	}
	if rewriteOutput != "" {
		opts.Output = rewriteOutput
	}
	if rewriteTargetField != "" {
		opts.TargetField = rewriteTargetField
	}
	if len(rewriteConstraint) > 0 {
		opts.Constraint = rewriteConstraint
	}
	opts.DryRun = rewriteDryRun

	if err := resolveConstraint(cmd.Context(), p, &opts, rewriteFromCache); err != nil {
		return explain(err)
	}

	result, err := p.rewriteLibrary(cmd.Context(), opts)
	if err != nil {
		return explain(err)
	}

	if opts.DryRun {
		text, err := result.Render()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}
	printRewriteResult(opts.Output, result)
	return nil
}

// resolveConstraint fills opts.Constraint from the cache when asked and
// checks that an input is known.
func resolveConstraint(ctx context.Context, p *pipeline, opts *rewriteOptions, fromCache bool) error {
	if opts.Input == "" {
		return errors.WithHint(
			errors.NewInvalidRequestError("no declaration library to rewrite"),
			"pass a path or set [library] input in the config",
		)
	}
	if opts.TargetField == "" {
		opts.TargetField = generic.DefaultTargetField
	}
	if !fromCache || len(opts.Constraint) > 0 {
		return nil
	}

	store, err := p.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	names, err := store.PropertyNames(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.WithHint(
			errors.NewNotFoundError("the schema cache is empty"),
			"run 'notion-schema generate' once to populate it",
		)
	}
	opts.Constraint = names
	return nil
}

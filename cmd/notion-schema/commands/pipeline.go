package commands

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/notion-schema/cache"
	"github.com/teranos/notion-schema/config"
	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/generic"
	"github.com/teranos/notion-schema/logger"
	"github.com/teranos/notion-schema/notion"
	"github.com/teranos/notion-schema/output"
	"github.com/teranos/notion-schema/tsdecl"
	"github.com/teranos/notion-schema/typegen"
)

// fetchedSchema is one retrieve-database response ready to compile.
type fetchedSchema struct {
	Title string
	ID    string
	Body  []byte
}

// sourceOptions selects where schemas come from.
type sourceOptions struct {
	// Offline reads the schema cache instead of calling Notion.
	Offline bool
	// Snapshots maps titles to response files on disk; overrides both.
	Snapshots map[string]string
}

// pipeline runs the fetch, compile, write and rewrite steps for one config.
type pipeline struct {
	cfg *config.Config
	log *zap.SugaredLogger

	// httpClient overrides the SSRF-guarded client (tests, local mocks).
	httpClient notion.Doer
}

func newPipeline(cfg *config.Config) *pipeline {
	return &pipeline{cfg: cfg, log: logger.ComponentLogger("generate")}
}

func (p *pipeline) openStore() (*cache.Store, error) {
	db, err := cache.OpenWithMigrations(p.cfg.Cache.Path, logger.ComponentLogger("cache"))
	if err != nil {
		return nil, err
	}
	return cache.NewStore(db, logger.ComponentLogger("cache")), nil
}

func (p *pipeline) notionClient() (*notion.Client, error) {
	n := p.cfg.Notion
	return notion.NewClient(notion.Options{
		BaseURL:           n.BaseURL,
		Version:           n.Version,
		APIKey:            p.cfg.APIKey,
		Timeout:           time.Duration(n.TimeoutSeconds) * time.Second,
		RequestsPerSecond: n.RequestsPerSecond,
		MaxConcurrency:    n.MaxConcurrency,
		MaxRetries:        n.MaxRetries,
		HTTPClient:        p.httpClient,
	}, logger.ComponentLogger("notion"))
}

// fetch collects the schema of every configured database.
func (p *pipeline) fetch(ctx context.Context, src sourceOptions) ([]fetchedSchema, error) {
	if len(src.Snapshots) > 0 {
		return p.fetchSnapshots(src.Snapshots)
	}
	if len(p.cfg.Databases) == 0 {
		return nil, errors.WithHint(
			errors.NewInvalidRequestError("no databases configured"),
			"add a [[databases]] table with a title and id to "+config.FileName,
		)
	}
	if src.Offline {
		return p.fetchCached(ctx)
	}
	return p.fetchNotion(ctx)
}

func (p *pipeline) fetchSnapshots(snapshots map[string]string) ([]fetchedSchema, error) {
	titles := make([]string, 0, len(snapshots))
	for title := range snapshots {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	schemas := make([]fetchedSchema, 0, len(titles))
	for _, title := range titles {
		path := snapshots[title]
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read snapshot %s", path)
		}
		var id string
		if db, ok := p.cfg.Database(title); ok {
			id = db.ID
		}
		schemas = append(schemas, fetchedSchema{Title: title, ID: id, Body: body})
	}
	return schemas, nil
}

func (p *pipeline) fetchCached(ctx context.Context) ([]fetchedSchema, error) {
	store, err := p.openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	schemas := make([]fetchedSchema, 0, len(p.cfg.Databases))
	for _, db := range p.cfg.Databases {
		snap, err := store.Get(ctx, db.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "offline schema for %s", db.Title)
		}
		p.log.Debugw("Using cached schema",
			logger.FieldDatabase, db.Title,
			"fetched_at", snap.FetchedAt)
		schemas = append(schemas, fetchedSchema{Title: db.Title, ID: db.ID, Body: snap.Body})
	}
	return schemas, nil
}

func (p *pipeline) fetchNotion(ctx context.Context) ([]fetchedSchema, error) {
	client, err := p.notionClient()
	if err != nil {
		return nil, err
	}

	targets := make([]notion.Target, 0, len(p.cfg.Databases))
	for _, db := range p.cfg.Databases {
		targets = append(targets, notion.Target{Title: db.Title, ID: db.ID})
	}

	fetched, err := client.FetchAll(ctx, targets)
	if err != nil {
		return nil, err
	}

	schemas := make([]fetchedSchema, 0, len(fetched))
	for _, f := range fetched {
		schemas = append(schemas, fetchedSchema{Title: f.Title, ID: f.ID, Body: f.Body})
	}

	if p.cfg.Cache.Enabled {
		p.cacheSchemas(ctx, schemas)
	}
	return schemas, nil
}

// cacheSchemas stores fresh responses. Cache failures never fail a generate.
func (p *pipeline) cacheSchemas(ctx context.Context, schemas []fetchedSchema) {
	store, err := p.openStore()
	if err != nil {
		p.log.Warnw("Schema cache unavailable", logger.FieldError, err)
		return
	}
	defer store.Close()

	now := time.Now()
	for _, s := range schemas {
		snap := cache.Snapshot{DatabaseID: s.ID, Title: s.Title, Body: s.Body, FetchedAt: now}
		if err := store.Put(ctx, snap); err != nil {
			p.log.Warnw("Failed to cache schema",
				logger.FieldDatabase, s.Title,
				logger.FieldError, err)
		}
	}
}

// compile turns fetched schemas into units, in fetch order.
func (p *pipeline) compile(schemas []fetchedSchema, clientModule string) ([]*typegen.Unit, error) {
	units := make([]*typegen.Unit, 0, len(schemas))
	for _, s := range schemas {
		compiler := typegen.NewCompiler(typegen.Options{
			ClientModule: clientModule,
			DatabaseID:   s.ID,
		}, logger.ComponentLogger("compile"))

		unit, err := compiler.CompileResponse(s.Title, s.Body)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, nil
}

// write writes units into dir with the configured formatter.
func (p *pipeline) write(ctx context.Context, dir string, units []*typegen.Unit) (*output.Report, error) {
	w, err := output.NewWriter(dir, p.cfg.Format.Command, logger.ComponentLogger("output"))
	if err != nil {
		return nil, err
	}
	return w.WriteUnits(ctx, units)
}

// rewriteOptions configures one library rewrite.
type rewriteOptions struct {
	Input       string
	Output      string
	TargetField string
	Constraint  []string
	DryRun      bool
}

// rewriteLibrary loads, rewrites and (unless DryRun) writes a declaration library.
func (p *pipeline) rewriteLibrary(ctx context.Context, opts rewriteOptions) (*generic.Result, error) {
	lib, err := tsdecl.LoadFile(opts.Input)
	if err != nil {
		return nil, err
	}

	rw := generic.NewRewriter(generic.Options{
		TargetField: opts.TargetField,
		Constraint:  opts.Constraint,
	}, logger.ComponentLogger("rewrite"))

	result, err := rw.Rewrite(lib)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to rewrite %s", opts.Input)
	}
	if opts.DryRun {
		return result, nil
	}

	text, err := result.Render()
	if err != nil {
		return nil, err
	}

	w, err := output.NewWriter(filepath.Dir(opts.Output), p.cfg.Format.Command, logger.ComponentLogger("output"))
	if err != nil {
		return nil, err
	}
	if _, err := w.WriteFile(ctx, opts.Output, []byte(text)); err != nil {
		return nil, err
	}
	return result, nil
}

// libraryRewrite returns the configured rewrite, using constraint when the
// config names none.
func (p *pipeline) libraryRewrite(constraint []string) rewriteOptions {
	lib := p.cfg.Library
	if len(lib.Constraint) > 0 {
		constraint = lib.Constraint
	}
	return rewriteOptions{
		Input:       lib.Input,
		Output:      p.cfg.LibraryOutput(),
		TargetField: lib.TargetField,
		Constraint:  constraint,
	}
}

// propertyNames returns the sorted, de-duplicated field keys of units.
func propertyNames(units []*typegen.Unit) []string {
	seen := make(map[string]bool)
	for _, u := range units {
		for _, f := range u.Record.Fields {
			seen[f.Key] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package typegen compiles Notion database schemas into standalone TypeScript
// type definitions.
//
// # Architecture
//
// Compilation runs in two steps:
//  1. Build turns the property catalogue into a Record: one PropertyType<"kind">
//     reference per property (MapProperty) plus one enum per closed-choice
//     property (SynthesizeEnum), with the field's option name narrowed to the enum.
//  2. Render prints the Record after a fixed preamble that declares every helper
//     type the record refers to, so each unit parses on its own.
//
// Output is deterministic: fields follow catalogue order and enums follow the
// order their properties were encountered, which keeps `notion-schema check`
// meaningful.
package typegen

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/logger"
	"github.com/teranos/notion-schema/schema"
	"github.com/teranos/notion-schema/typegen/typescript"
)

// DefaultClientModule is the module the preamble imports CreatePageParameters from.
const DefaultClientModule = "@notionhq/client/build/src/api-endpoints"

// Options configures compilation.
type Options struct {
	// ClientModule overrides DefaultClientModule
	ClientModule string
	// DatabaseID is echoed in the generated header when set
	DatabaseID string
}

// Unit is one rendered, self-contained TypeScript module.
type Unit struct {
	Title  string
	Record *Record
	Text   string
}

// FileName returns the file the unit is written to.
func (u *Unit) FileName() string {
	return u.Title + ".ts"
}

// Export describes the unit's exports for the barrel file.
func (u *Unit) Export() typescript.ModuleExport {
	return typescript.ModuleExport{
		Module:        u.Title,
		TypeNames:     []string{u.Record.Title},
		ValueNames:    u.Record.EnumNames(),
		PropertyNames: u.Record.Keys(),
	}
}

// Compiler turns database schemas into Units.
type Compiler struct {
	opts   Options
	logger *zap.SugaredLogger
}

// NewCompiler creates a compiler. A nil logger disables logging.
func NewCompiler(opts Options, log *zap.SugaredLogger) *Compiler {
	if opts.ClientModule == "" {
		opts.ClientModule = DefaultClientModule
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Compiler{opts: opts, logger: log}
}

// CompileResponse decodes a retrieve-database response and compiles it.
// A response without a properties field fails with errors.ErrSchemaShape.
func (c *Compiler) CompileResponse(title string, data []byte) (*Unit, error) {
	db, err := schema.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode schema for %s", title)
	}
	return c.Compile(title, db)
}

// Compile builds and renders the record type for one database.
func (c *Compiler) Compile(title string, db *schema.Database) (*Unit, error) {
	if db == nil {
		return nil, errors.NewSchemaShapeError("no schema for %s", title)
	}

	record, err := c.Build(title, db.Properties)
	if err != nil {
		return nil, err
	}

	opts := c.opts
	if opts.DatabaseID == "" {
		opts.DatabaseID = db.ID
	}

	c.logger.Debugw("compiled record type",
		logger.FieldDatabase, title,
		logger.FieldCount, len(record.Fields),
		logger.FieldEnum, len(record.Enums))

	return &Unit{
		Title:  title,
		Record: record,
		Text:   Render(record, opts),
	}, nil
}

// Build assembles the Record for a property catalogue without rendering it.
func (c *Compiler) Build(title string, props []schema.Property) (*Record, error) {
	if !typescript.IsTypeName(title) {
		return nil, errors.WithHint(
			errors.NewInvalidRequestError("database title %q is not a valid type name", title),
			"database titles in the config become TypeScript type names; use letters, digits and _",
		)
	}

	record := &Record{
		Title:  title,
		Fields: make([]Field, 0, len(props)),
	}

	used := reservedNames(title)
	for _, p := range props {
		record.Fields = append(record.Fields, Field{
			Key:      p.Key,
			Type:     MapProperty(p),
			Property: p,
		})
	}

	for i := range record.Fields {
		f := &record.Fields[i]
		if !f.Property.IsClosedChoice() {
			continue
		}

		enum := SynthesizeEnum(title, f.Property)
		if name := uniqueName(enum.Name, used); name != enum.Name {
			c.logger.Warnw("enum name collision, renamed",
				logger.FieldDatabase, title,
				logger.FieldProperty, f.Key,
				logger.FieldEnum, name)
			enum.Name = name
		}

		narrowOptionName(f, enum)
		record.Enums = append(record.Enums, enum)
	}

	return record, nil
}

// reservedNames are the identifiers already taken in a unit before any enum is added.
func reservedNames(title string) map[string]bool {
	return map[string]bool{
		title:                  true,
		helperPropertyUnion:    true,
		helperPropertyType:     true,
		helperNamedOption:      true,
		helperOptionNamed:      true,
		"CreatePageParameters": true,
	}
}

// uniqueName returns name, or name with the smallest numeric suffix >= 2 that
// is not in used, and records the result in used. Quoted names get the suffix
// inside the quotes.
func uniqueName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[candidate]; n++ {
		suffix := strconv.Itoa(n)
		if strings.HasSuffix(name, `"`) && len(name) >= 2 {
			candidate = name[:len(name)-1] + suffix + `"`
		} else {
			candidate = name + suffix
		}
	}
	used[candidate] = true
	return candidate
}

package typegen

import (
	"fmt"
	"strings"

	"github.com/teranos/notion-schema/typegen/typescript"
)

// Helper type names declared by the preamble.
const (
	helperPropertyUnion = "PropertyUnion"
	helperPropertyType  = "PropertyType"
	helperNamedOption   = "NamedOption"
	helperOptionNamed   = "OptionNamed"
)

// preamble declares the helpers every unit depends on. PropertyType extracts
// one property value shape from the client's CreatePageParameters; OptionNamed
// narrows the option name nested under key K of a property shape to N, going
// through the list wrapper of multi-select values and keeping null.
const preamble = `import type { CreatePageParameters } from %s;

type PropertyUnion = CreatePageParameters["properties"][string];
type PropertyType<T extends string> = Extract<PropertyUnion, { type?: T }>;
type NamedOption<O, N extends string> = O extends null
  ? O
  : O extends Array<infer E>
    ? Array<NamedOption<E, N>>
    : Omit<O, "name"> & { name: N };
type OptionNamed<P, K extends keyof P & string, N extends string> = Omit<P, K> & {
  [Q in K]: NamedOption<P[Q], N>;
};
`

// Render prints a Record as a standalone TypeScript module: header, preamble,
// the record type with fields in catalogue order, then the enums.
func Render(r *Record, opts Options) string {
	clientModule := opts.ClientModule
	if clientModule == "" {
		clientModule = DefaultClientModule
	}

	var sb strings.Builder

	sb.WriteString("/* eslint-disable */\n")
	sb.WriteString("// Code generated by notion-schema from a Notion database schema. DO NOT EDIT.\n")
	sb.WriteString(fmt.Sprintf("// Database: %s\n", r.Title))
	if opts.DatabaseID != "" {
		sb.WriteString(fmt.Sprintf("// Database ID: %s\n", opts.DatabaseID))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf(preamble, typescript.Quote(clientModule)))
	sb.WriteString("\n")

	if len(r.Fields) == 0 {
		sb.WriteString(fmt.Sprintf("export type %s = {};\n", r.Title))
	} else {
		sb.WriteString(fmt.Sprintf("export type %s = {\n", r.Title))
		for _, f := range r.Fields {
			sb.WriteString(fmt.Sprintf("  %s: %s;\n", typescript.PropertyKey(f.Key), f.Type.String()))
		}
		sb.WriteString("};\n")
	}

	for _, e := range r.Enums {
		sb.WriteString("\n")
		sb.WriteString(RenderEnum(e))
	}

	return sb.String()
}

// RenderEnum prints one enum declaration. An enum without members is still
// emitted so field references to it resolve.
func RenderEnum(e EnumDef) string {
	if len(e.Members) == 0 {
		return fmt.Sprintf("export enum %s {}\n", e.Name)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("export enum %s {\n", e.Name))
	for _, m := range e.Members {
		sb.WriteString(fmt.Sprintf("  %s = %s,\n", m.Name, typescript.Quote(m.Value)))
	}
	sb.WriteString("}\n")
	return sb.String()
}

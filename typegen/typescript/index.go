package typescript

import (
	"fmt"
	"sort"
	"strings"
)

// ModuleExport lists what one generated module exports, for the barrel file.
type ModuleExport struct {
	// Module is the file name without extension (e.g. "Tasks")
	Module string
	// TypeNames are type-only exports
	TypeNames []string
	// ValueNames are exports that also exist at runtime (enums)
	ValueNames []string
	// PropertyNames are the record's field keys, folded into PropertiesUnion
	PropertyNames []string
}

// PropertiesUnionName is the barrel's union of every generated property name.
const PropertiesUnionName = "PropertiesUnion"

// GenerateIndex creates the barrel export (index.ts) re-exporting every generated module.
func GenerateIndex(exports []ModuleExport) string {
	var sb strings.Builder

	sb.WriteString("/* eslint-disable */\n")
	sb.WriteString("// Code generated by notion-schema. DO NOT EDIT.\n")
	sb.WriteString("// Barrel export - re-exports all generated database types\n\n")

	// Sort modules for deterministic output
	sorted := make([]ModuleExport, len(exports))
	copy(sorted, exports)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Module < sorted[j].Module
	})

	for _, exp := range sorted {
		if len(exp.TypeNames) > 0 {
			sb.WriteString(fmt.Sprintf("export type { %s } from './%s';\n", joinSorted(exp.TypeNames), exp.Module))
		}
		if len(exp.ValueNames) > 0 {
			sb.WriteString(fmt.Sprintf("export { %s } from './%s';\n", joinSorted(exp.ValueNames), exp.Module))
		}
	}

	if len(sorted) > 0 {
		var names []string
		for _, exp := range sorted {
			names = append(names, exp.PropertyNames...)
		}
		sort.Strings(names)
		sb.WriteString(fmt.Sprintf("\nexport type %s = %s;\n", PropertiesUnionName, LiteralUnion(names)))
	}

	return sb.String()
}

// LiteralUnion renders names as a union of string literal types:
// ["Status", "Priority"] -> "Status"|"Priority". Repeated names are dropped;
// an empty list renders as string.
func LiteralUnion(names []string) string {
	seen := make(map[string]bool, len(names))
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		parts = append(parts, Quote(n))
	}
	if len(parts) == 0 {
		return "string"
	}
	return strings.Join(parts, "|")
}

func joinSorted(names []string) string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}

package typescript

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teranos/notion-schema/typegen/util"
)

// reservedTypeNames cannot be used as the name of a type alias or enum.
var reservedTypeNames = map[string]bool{
	"any": true, "unknown": true, "never": true, "string": true, "number": true,
	"boolean": true, "symbol": true, "object": true, "bigint": true, "undefined": true,
	"null": true, "void": true, "this": true, "true": true, "false": true,
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "finally": true,
	"for": true, "function": true, "if": true, "import": true, "in": true,
	"instanceof": true, "new": true, "return": true, "super": true, "switch": true,
	"throw": true, "try": true, "typeof": true, "var": true, "while": true, "with": true,
	PropertiesUnionName: true,
}

// IsTypeName reports whether s can name a top-level type alias or enum.
func IsTypeName(s string) bool {
	return util.IsIdentifier(s) && !reservedTypeNames[s]
}

// Quote renders s as a double-quoted TypeScript string literal.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\u2028', '\u2029':
			sb.WriteString(fmt.Sprintf(`\u%04x`, r))
		default:
			if r < 0x20 || r == 0x7f {
				sb.WriteString(fmt.Sprintf(`\u%04x`, r))
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// PropertyKey renders an object member name, quoting it unless it is an identifier.
func PropertyKey(name string) string {
	if util.IsIdentifier(name) {
		return name
	}
	return Quote(name)
}

// EnumMemberName renders an enum member name for an option name. Names
// TypeScript would read as numeric (including Infinity and NaN, which are also
// identifiers) or the empty name get a leading underscore because enum members
// cannot have numeric names. Other identifiers are used as-is, the rest quoted.
func EnumMemberName(name string) string {
	if name == "" || isNumeric(name) {
		candidate := "_" + util.ToPascalCase(name)
		if util.IsIdentifier(candidate) {
			return candidate
		}
		return Quote("_" + name)
	}
	if util.IsIdentifier(name) {
		return name
	}
	return Quote(name)
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

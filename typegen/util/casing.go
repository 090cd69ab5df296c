package util

import (
	"strings"
	"unicode"
)

// Capitalize upper-cases the first rune of s and leaves the rest as-is.
// "status" -> "Status", "due_date" -> "Due_date".
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// ToPascalCase joins the words of s into PascalCase. Any rune that cannot
// appear in an identifier separates words: "Due Date" -> "DueDate",
// "in-progress" -> "InProgress".
func ToPascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !IsIdentifierRune(r)
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(Capitalize(part))
	}

	return result.String()
}

// IsIdentifierRune reports whether r may appear in a TypeScript identifier.
func IsIdentifierRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsIdentifier reports whether s is a syntactically valid TypeScript identifier.
// Reserved words are not checked here.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !IsIdentifierRune(r) {
			return false
		}
		if i == 0 && unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

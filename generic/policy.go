package generic

import (
	"strings"

	"github.com/teranos/notion-schema/typegen/typescript"
)

// IsResponseShaped is the default policy deciding whether a marked
// declaration receives the type parameter directly (T) instead of Partial<T>.
// Responses carry whatever properties the server returned; requests may omit
// any of them.
func IsResponseShaped(name string) bool {
	return strings.Contains(name, "Response")
}

// ConstraintExpr renders property names as the constraint on the type
// parameter. It matches the PropertiesUnion alias of the generated barrel.
func ConstraintExpr(names []string) string {
	return typescript.LiteralUnion(names)
}

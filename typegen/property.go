package typegen

import "github.com/teranos/notion-schema/schema"

// MapProperty maps a property descriptor to PropertyType<"kind">.
//
// Kinds are not checked against a vocabulary: an unknown kind still yields a
// valid reference and correctness is left to the consumer of the generated
// declaration, since Notion may add property kinds at any time.
func MapProperty(p schema.Property) TypeRef {
	return TypeRef{
		Name: helperPropertyType,
		Args: []TypeArg{Lit(p.KindName())},
	}
}

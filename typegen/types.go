package typegen

import (
	"strings"

	"github.com/teranos/notion-schema/schema"
	"github.com/teranos/notion-schema/typegen/typescript"
)

// TypeArg is one type argument: either a string literal type or a reference.
type TypeArg struct {
	Literal string
	Ref     *TypeRef
}

// Lit returns a string literal type argument.
func Lit(s string) TypeArg { return TypeArg{Literal: s} }

// RefArg returns a reference type argument.
func RefArg(r TypeRef) TypeArg { return TypeArg{Ref: &r} }

// String renders the argument as TypeScript.
func (a TypeArg) String() string {
	if a.Ref != nil {
		return a.Ref.String()
	}
	return typescript.Quote(a.Literal)
}

// TypeRef references a named, possibly parameterized, type.
//
// For closed-choice properties OptionName narrows the "name" of the option
// shape nested under the OptionKey member of the referenced type; the rest of
// the referenced type (ids, colors, the list wrapper) is untouched.
type TypeRef struct {
	Name string
	Args []TypeArg

	OptionKey  string
	OptionName *TypeRef
}

// Ref returns a reference to a plain named type.
func Ref(name string) TypeRef { return TypeRef{Name: name} }

// Base returns the reference without its option-name narrowing.
func (r TypeRef) Base() TypeRef {
	return TypeRef{Name: r.Name, Args: r.Args}
}

// String renders the reference as TypeScript.
func (r TypeRef) String() string {
	var sb strings.Builder
	if r.OptionName != nil {
		sb.WriteString(helperOptionNamed)
		sb.WriteByte('<')
		sb.WriteString(r.Base().String())
		sb.WriteString(", ")
		sb.WriteString(typescript.Quote(r.OptionKey))
		sb.WriteString(", ")
		sb.WriteString(r.OptionName.String())
		sb.WriteByte('>')
		return sb.String()
	}

	sb.WriteString(r.Name)
	if len(r.Args) > 0 {
		sb.WriteByte('<')
		for i, arg := range r.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(arg.String())
		}
		sb.WriteByte('>')
	}
	return sb.String()
}

// Field is one member of a record type.
type Field struct {
	Key      string
	Type     TypeRef
	Property schema.Property
}

// EnumMember is one enum member; Name is the member identifier, Value its string value.
type EnumMember struct {
	Name  string
	Value string
}

// EnumDef is a synthesized enumeration for a closed-choice property.
type EnumDef struct {
	Name    string
	Members []EnumMember
	// Property is the key of the property the enum was synthesized from
	Property string
}

// Record is the type definition compiled from one database schema.
type Record struct {
	Title  string
	Fields []Field
	Enums  []EnumDef
}

// Field returns the field with the given key.
func (r *Record) Field(key string) (*Field, bool) {
	for i := range r.Fields {
		if r.Fields[i].Key == key {
			return &r.Fields[i], true
		}
	}
	return nil, false
}

// Enum returns the enum synthesized for the given property key.
func (r *Record) Enum(property string) (*EnumDef, bool) {
	for i := range r.Enums {
		if r.Enums[i].Property == property {
			return &r.Enums[i], true
		}
	}
	return nil, false
}

// Keys returns the field keys in emission order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// EnumNames returns the names of all synthesized enums in emission order.
func (r *Record) EnumNames() []string {
	names := make([]string, 0, len(r.Enums))
	for _, e := range r.Enums {
		names = append(names, e.Name)
	}
	return names
}

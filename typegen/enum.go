package typegen

import (
	"golang.org/x/text/unicode/norm"

	"github.com/teranos/notion-schema/schema"
	"github.com/teranos/notion-schema/typegen/typescript"
	"github.com/teranos/notion-schema/typegen/util"
)

// EnumName derives the enum name for a property: RecordTitle + Capitalize(key) + "Enum".
// Keys that are not identifiers are folded to PascalCase first ("Due Date" -> "DueDate")
// so the result is always a valid type name.
func EnumName(title, key string) string {
	part := util.Capitalize(key)
	if !util.IsIdentifier(part) {
		part = util.ToPascalCase(key)
	}
	if part == "" {
		part = "Property"
	}
	return title + part + "Enum"
}

// SynthesizeEnum builds the enum for a closed-choice property. Option names
// become both member names and values, in catalogue order; repeated option
// names (compared after NFC normalization) collapse to the first occurrence.
// An empty option list yields an enum with no members.
func SynthesizeEnum(title string, p schema.Property) EnumDef {
	def := EnumDef{
		Name:     EnumName(title, p.Key),
		Property: p.Key,
		Members:  make([]EnumMember, 0, len(p.Options)),
	}

	seenValues := make(map[string]bool, len(p.Options))
	usedNames := make(map[string]bool, len(p.Options))
	for _, opt := range p.Options {
		key := norm.NFC.String(opt.Name)
		if seenValues[key] {
			continue
		}
		seenValues[key] = true

		name := uniqueName(typescript.EnumMemberName(opt.Name), usedNames)
		def.Members = append(def.Members, EnumMember{Name: name, Value: opt.Name})
	}

	return def
}

// narrowOptionName points the option-name component of a closed-choice field
// at the synthesized enum, keeping the field's base reference.
func narrowOptionName(f *Field, enum EnumDef) {
	name := Ref(enum.Name)
	f.Type.OptionKey = f.Property.KindName()
	f.Type.OptionName = &name
}

// Package schema models the Notion database property catalogue that the type
// generator compiles from.
//
// Property kinds are a closed set of known Notion kinds plus KindUnknown, which
// keeps the raw kind string so new Notion property kinds pass through unchanged.
package schema

// Kind identifies the value shape of a database property.
type Kind int

const (
	KindUnknown Kind = iota // passthrough, see Property.RawKind
	KindTitle
	KindRichText
	KindNumber
	KindSelect
	KindMultiSelect
	KindStatus
	KindDate
	KindPeople
	KindFiles
	KindCheckbox
	KindURL
	KindEmail
	KindPhoneNumber
	KindFormula
	KindRelation
	KindRollup
	KindCreatedTime
	KindCreatedBy
	KindLastEditedTime
	KindLastEditedBy
	KindUniqueID
	KindVerification
	KindButton
)

var kindNames = map[Kind]string{
	KindTitle:          "title",
	KindRichText:       "rich_text",
	KindNumber:         "number",
	KindSelect:         "select",
	KindMultiSelect:    "multi_select",
	KindStatus:         "status",
	KindDate:           "date",
	KindPeople:         "people",
	KindFiles:          "files",
	KindCheckbox:       "checkbox",
	KindURL:            "url",
	KindEmail:          "email",
	KindPhoneNumber:    "phone_number",
	KindFormula:        "formula",
	KindRelation:       "relation",
	KindRollup:         "rollup",
	KindCreatedTime:    "created_time",
	KindCreatedBy:      "created_by",
	KindLastEditedTime: "last_edited_time",
	KindLastEditedBy:   "last_edited_by",
	KindUniqueID:       "unique_id",
	KindVerification:   "verification",
	KindButton:         "button",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

// ParseKind maps a Notion kind string to a Kind. Unrecognised strings map to KindUnknown.
func ParseKind(s string) Kind {
	if k, ok := kindsByName[s]; ok {
		return k
	}
	return KindUnknown
}

// String returns the Notion kind string, or "unknown" for KindUnknown.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsClosedChoice reports whether values of this kind are drawn from a fixed option list.
func (k Kind) IsClosedChoice() bool {
	switch k {
	case KindSelect, KindMultiSelect, KindStatus:
		return true
	}
	return false
}

// IsList reports whether the property value holds several options (multi-select).
func (k Kind) IsList() bool {
	return k == KindMultiSelect
}

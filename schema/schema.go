package schema

// Option is one allowed value of a closed-choice property.
type Option struct {
	ID    string
	Name  string
	Color string
}

// Property is one field of a database schema.
type Property struct {
	// Key is the property name as it appears in the database's properties object
	Key string
	// ID is Notion's short property id
	ID string
	// Kind is the checked variant; KindUnknown for kinds this package does not know
	Kind Kind
	// RawKind is the kind string exactly as received
	RawKind string
	// Options lists the allowed values in catalogue order; only meaningful when HasOptions
	Options []Option
	// HasOptions is true when the kind's payload carried an options sequence, even an empty one
	HasOptions bool
}

// IsClosedChoice reports whether the property takes its value from a fixed option list,
// either because its kind is a known closed-choice kind or because it exposes options.
func (p Property) IsClosedChoice() bool {
	return p.Kind.IsClosedChoice() || p.HasOptions
}

// KindName returns the kind string used in generated type references.
func (p Property) KindName() string {
	if p.RawKind != "" {
		return p.RawKind
	}
	return p.Kind.String()
}

// OptionNames returns the option names in catalogue order.
func (p Property) OptionNames() []string {
	names := make([]string, 0, len(p.Options))
	for _, o := range p.Options {
		names = append(names, o.Name)
	}
	return names
}

// Database is one retrieved database schema.
type Database struct {
	ID string
	// Title is the database title as shown in Notion (plain text)
	Title string
	// Properties in catalogue order
	Properties []Property
}

// Property looks up a property by key.
func (d *Database) Property(key string) (Property, bool) {
	for _, p := range d.Properties {
		if p.Key == key {
			return p, true
		}
	}
	return Property{}, false
}

// Keys returns the property keys in catalogue order.
func (d *Database) Keys() []string {
	keys := make([]string, 0, len(d.Properties))
	for _, p := range d.Properties {
		keys = append(keys, p.Key)
	}
	return keys
}

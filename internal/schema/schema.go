package schema

import "fmt"

// Type identifies one of the supported metadata schemas.
type Type string

const (
	DublinCore Type = "dublin_core"
	ISADG      Type = "isad_g"
)

// Kind selects the validator applied to a field.
type Kind int

const (
	Generic Kind = iota
	Date
	LanguageCode
	CreatorName
)

func (k Kind) String() string {
	switch k {
	case Date:
		return "date"
	case LanguageCode:
		return "language_code"
	case CreatorName:
		return "creator_name"
	default:
		return "generic"
	}
}

// Field is a single schema element.
type Field struct {
	Name        string
	Description string
	Kind        Kind
}

// Schema is an ordered set of fields. Field order is the validation order.
type Schema struct {
	Type   Type
	Label  string
	Fields []Field
}

// Len returns the number of fields in the schema.
func (s Schema) Len() int {
	return len(s.Fields)
}

// Names returns the field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// kindFor resolves the validator for a field name. It runs once per field
// when a schema is defined.
func kindFor(name string) Kind {
	switch name {
	case "date":
		return Date
	case "language":
		return LanguageCode
	case "creator":
		return CreatorName
	default:
		return Generic
	}
}

func define(t Type, label string, pairs [][2]string) Schema {
	fields := make([]Field, len(pairs))
	for i, p := range pairs {
		fields[i] = Field{Name: p[0], Description: p[1], Kind: kindFor(p[0])}
	}
	return Schema{Type: t, Label: label, Fields: fields}
}

var dublinCore = define(DublinCore, "Dublin Core", [][2]string{
	{"title", "Document title"},
	{"creator", "Creator or author"},
	{"subject", "Subject or topic"},
	{"description", "Content description"},
	{"publisher", "Publisher"},
	{"contributor", "Contributor"},
	{"date", "Creation or publication date"},
	{"type", "Document type"},
	{"format", "File format"},
	{"identifier", "Unique identifier"},
	{"source", "Originating source"},
	{"language", "Language"},
	{"relation", "Relation to other documents"},
	{"coverage", "Geographic or temporal coverage"},
	{"rights", "Copyright or access rights"},
})

var isadG = define(ISADG, "ISAD(G)", [][2]string{
	{"reference_code", "Reference code"},
	{"title", "Title"},
	{"date", "Date"},
	{"level_of_description", "Level of description"},
	{"extent_and_medium", "Extent and medium"},
	{"name_of_creator", "Name of creator"},
	{"scope_and_content", "Scope and content"},
	{"conditions_of_access", "Conditions governing access"},
	{"conditions_of_reproduction", "Conditions governing reproduction"},
	{"language_of_material", "Language of material"},
	{"physical_characteristics", "Physical characteristics"},
	{"finding_aids", "Finding aids"},
	{"location_of_originals", "Location of originals"},
	{"availability_of_copies", "Availability of copies"},
	{"related_units", "Related units of description"},
	{"publication_note", "Publication note"},
	{"notes", "General notes"},
})

// Get returns a copy of the schema registered for t.
func Get(t Type) (Schema, error) {
	switch t {
	case DublinCore:
		return clone(dublinCore), nil
	case ISADG:
		return clone(isadG), nil
	default:
		return Schema{}, fmt.Errorf("unknown schema type: %q", t)
	}
}

// MustGet is Get for the built-in schema types.
func MustGet(t Type) Schema {
	s, err := Get(t)
	if err != nil {
		panic(err)
	}
	return s
}

// Types lists the registered schema types.
func Types() []Type {
	return []Type{DublinCore, ISADG}
}

// ParseType accepts the canonical names plus a few common spellings.
func ParseType(s string) (Type, error) {
	switch s {
	case "dublin_core", "dublin-core", "dc", "":
		return DublinCore, nil
	case "isad_g", "isad-g", "isadg", "isad":
		return ISADG, nil
	default:
		return "", fmt.Errorf("unknown schema type: %q (supported: dublin_core, isad_g)", s)
	}
}

func clone(s Schema) Schema {
	fields := make([]Field, len(s.Fields))
	copy(fields, s.Fields)
	return Schema{Type: s.Type, Label: s.Label, Fields: fields}
}

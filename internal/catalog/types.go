package catalog

import "strconv"

// ValueType classifies a searchable field and decides which operator set,
// input widget and query compilation path apply to it.
type ValueType string

const (
	TypeString       ValueType = "string"
	TypeNumber       ValueType = "number"
	TypeDate         ValueType = "date"
	TypeDateTime     ValueType = "dateTime"
	TypeBoolean      ValueType = "boolean"
	TypeSelect       ValueType = "select"
	TypeAutocomplete ValueType = "autocomplete"
	TypePickable     ValueType = "pickable"
	TypeUser         ValueType = "user"
	TypeGroup        ValueType = "group"
	TypeAgent        ValueType = "agent"
)

// IsDate reports whether the type carries calendar semantics.
func (t ValueType) IsDate() bool {
	return t == TypeDate || t == TypeDateTime
}

// Sentinel field ids present in every catalog. AnyField matches any text
// field, AnyRelation matches any relation. Both are part of the wire
// contract with the search UI and the saved-filter format.
const (
	AnyField    = "-2"
	AnyRelation = "-1"
)

// FieldDescriptor describes one searchable field of an object type.
// Descriptors are immutable once the catalog for a type is built.
type FieldDescriptor struct {
	ID                string            `json:"id"`
	Title             string            `json:"title,omitempty"`
	URI               string            `json:"uri,omitempty"`
	Type              ValueType         `json:"type"`
	SubType           string            `json:"subType,omitempty"`
	SolrField         string            `json:"solrField,omitempty"`
	AutocompleteField string            `json:"autocompleteField,omitempty"`
	CodeLists         []int             `json:"codeLists,omitempty"`
	Params            map[string]string `json:"additionalParameters,omitempty"`
}

// SolrName returns the Solr field to query, defaulting to the field id.
func (d FieldDescriptor) SolrName() string {
	if d.SolrField != "" {
		return d.SolrField
	}
	return d.ID
}

// RemoteField is the wire shape of one entry in the searchable-properties
// feed. RangeClass and PropertyType drive the type classification.
type RemoteField struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	URI          string `json:"uri,omitempty"`
	RangeClass   string `json:"rangeClass,omitempty"`
	PropertyType string `json:"propertyType,omitempty"`
	CodeLists    []int  `json:"codeLists,omitempty"`
	SolrField    string `json:"solrField,omitempty"`
	SolrType     string `json:"solrType,omitempty"`
}

// Range classes understood by the classifier. Everything else falls back
// to plain string.
const (
	rangeLong     = "long"
	rangeDate     = "date"
	rangeDateTime = "dateTime"
	rangeBoolean  = "boolean"
	rangeUser     = "emf:User"
	rangeGroup    = "emf:Group"
	rangeAgent    = "ptop:Agent"
	rangeEntity   = "ptop:Entity"
)

// SubTypeObject marks autocomplete fields whose values are full object
// URIs rather than plain text.
const SubTypeObject = "object"

// AssignInternalType builds a descriptor from a remote field, resolving its
// value type. The precedence is fixed and significant: a field can carry
// both a codelist and an object range class, and the earlier rule wins.
func AssignInternalType(f RemoteField) FieldDescriptor {
	d := FieldDescriptor{
		ID:        f.ID,
		Title:     f.Title,
		URI:       f.URI,
		SolrField: f.SolrField,
		Type:      TypeString,
	}

	switch {
	case f.RangeClass == rangeLong:
		d.Type = TypeNumber
	case f.RangeClass == rangeDate:
		d.Type = TypeDate
	case f.RangeClass == rangeDateTime:
		d.Type = TypeDateTime
	case f.RangeClass == rangeBoolean:
		d.Type = TypeBoolean
	case len(f.CodeLists) > 0:
		d.Type = TypeAutocomplete
		d.AutocompleteField = "codelist"
		d.CodeLists = append([]int(nil), f.CodeLists...)
		d.Params = map[string]string{"codelistid": strconv.Itoa(f.CodeLists[0])}
	case f.RangeClass == rangeUser:
		d.Type = TypeUser
	case f.RangeClass == rangeGroup:
		d.Type = TypeGroup
	case f.RangeClass == rangeAgent:
		d.Type = TypeAgent
	case f.RangeClass == rangeEntity || f.PropertyType == SubTypeObject:
		d.Type = TypePickable
	}

	if f.PropertyType == SubTypeObject {
		d.SubType = SubTypeObject
	}
	return d
}

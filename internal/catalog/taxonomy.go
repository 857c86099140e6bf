package catalog

import "strings"

// ObjectTypeRecord is one entry of the all-types feed. Records with
// ObjectType "category" open a parent bucket; subsequent records belong to
// the most recently opened category.
type ObjectTypeRecord struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	ObjectType string `json:"objectType"`
	URI        string `json:"uri,omitempty"`
}

const categoryRecord = "category"

// ObjectTypeAll is the unrestricted object-type selector.
const ObjectTypeAll = "all"

// Taxonomy groups object types into parent categories and maps short type
// names to their full URIs.
type Taxonomy struct {
	// Parents maps a type id to the id of its parent category.
	Parents map[string]string
	// ShortToFullURI maps a type id to its full URI where the feed
	// provides one.
	ShortToFullURI map[string]string
}

// BuildTaxonomy folds the ordered all-types feed into parent and URI maps.
func BuildTaxonomy(records []ObjectTypeRecord) Taxonomy {
	t := Taxonomy{
		Parents:        make(map[string]string),
		ShortToFullURI: make(map[string]string),
	}
	category := ""
	for _, r := range records {
		if r.ObjectType == categoryRecord {
			category = r.Name
		} else if category != "" {
			t.Parents[r.Name] = category
		}
		if r.URI != "" {
			t.ShortToFullURI[r.Name] = r.URI
		}
	}
	return t
}

// ForType builds the forType request parameter for the field-catalog fetch:
// "<parent>_<type>" when the type has a parent category, "<type>_" when it
// does not, and "" for the unrestricted selector.
func (t Taxonomy) ForType(objectType string) string {
	if objectType == "" || objectType == ObjectTypeAll {
		return ""
	}
	if parent, ok := t.Parents[objectType]; ok {
		return parent + "_" + objectType
	}
	return objectType + "_"
}

// FullURI resolves a short type id to its full URI, falling back to the id
// itself when the feed carried none.
func (t Taxonomy) FullURI(objectType string) string {
	if uri, ok := t.ShortToFullURI[objectType]; ok {
		return uri
	}
	return objectType
}

// IsShortURI reports whether an object-type selector is a prefixed URI
// (e.g. "emf:Project") rather than a bare definition id.
func IsShortURI(objectType string) bool {
	return strings.Contains(objectType, ":")
}

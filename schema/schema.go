// Package schema holds the canonical shape of an ora2pg configuration
// document.
//
// Validation is positional. A document is valid only when its own top level
// key sequence equals Categories exactly, index by index. A document that has
// the right keys in a different order is invalid, as is one with extra or
// missing keys. Downstream consumers rely on this stable order.
package schema

import (
	"fmt"

	"github.com/andrejsstepanovs/ora2pgconf/models"
)

// Category describes one top level section of the configuration document.
type Category struct {
	Name  string
	Title string
}

// Categories is the canonical, ordered list of top level keys.
var Categories = []Category{
	{Name: "COMMON", Title: "Common configuration"},
	{Name: "INPUT", Title: "Input section (Oracle connection or input file)"},
	{Name: "SCHEMA", Title: "Schema section (Oracle schema to export and use of schema in PostgreSQL)"},
	{Name: "ENCODING", Title: "Encoding section"},
	{Name: "EXPORT", Title: "Export section (export type and filters)"},
	{Name: "FULL_TEXT_SEARCH", Title: "Full text search section"},
	{Name: "DATA_DIFF", Title: "Data diff section"},
	{Name: "CONSTRAINT", Title: "Constraint section"},
	{Name: "TRIGGERS_AND_SEQUENCES", Title: "Triggers and sequences section"},
	{Name: "OBJECT_MODIFICATION", Title: "Object modification section"},
	{Name: "OUTPUT", Title: "Output section"},
	{Name: "TYPE", Title: "Type section (control output to PostgreSQL database)"},
	{Name: "GRANT", Title: "Grant section"},
	{Name: "DATA", Title: "Data section (control copy of data to PostgreSQL database)"},
	{Name: "PERFORMANCE", Title: "Performance section"},
	{Name: "PLSQL", Title: "PLSQL section"},
	{Name: "ASSESSMENT", Title: "Assessment section"},
	{Name: "POSTGRESQL", Title: "PostgreSQL feature section"},
	{Name: "SPATIAL", Title: "Spatial section"},
	{Name: "FDW", Title: "Foreign data wrapper section"},
	{Name: "MYSQL", Title: "MySQL section"},
}

// KeyError reports the first position where a document diverges from Categories.
type KeyError struct {
	Index    int
	Expected string
	Actual   string // empty when the document has no key at Index
}

func (e *KeyError) Error() string {
	switch {
	case e.Expected == "":
		return fmt.Sprintf("unexpected key %q at position %d", e.Actual, e.Index)
	case e.Actual == "":
		return fmt.Sprintf("missing key %q at position %d", e.Expected, e.Index)
	default:
		return fmt.Sprintf("expected key %q at position %d, got %q", e.Expected, e.Index, e.Actual)
	}
}

// Names returns the canonical key names in order.
func Names() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = c.Name
	}
	return names
}

// ValidKeys reports whether obj has exactly the canonical top level keys in
// canonical order.
func ValidKeys(obj models.ConfigObject) bool {
	return Validate(obj) == nil
}

// Validate is ValidKeys with a reason. Keys are compared from the last
// canonical position to the first and the first mismatch is returned. Keys
// past the end of Categories are rejected.
func Validate(obj models.ConfigObject) error {
	return validateKeys(obj.Keys())
}

func validateKeys(keys []string) error {
	if len(keys) > len(Categories) {
		return &KeyError{Index: len(Categories), Actual: keys[len(Categories)]}
	}

	for i := len(Categories) - 1; i >= 0; i-- {
		var actual string
		if i < len(keys) {
			actual = keys[i]
		}
		if Categories[i].Name != actual {
			return &KeyError{Index: i, Expected: Categories[i].Name, Actual: actual}
		}
	}

	return nil
}

// Skeleton returns a document with every category mapped to an empty object.
func Skeleton() models.ConfigObject {
	obj, _ := models.ParseConfigObject([]byte("{}"))
	for _, c := range Categories {
		// cannot fail: constant path and value
		obj, _ = obj.SetRaw(c.Name, []byte("{}"))
	}
	return obj
}

// Package icons maps icon references to display metadata shared by every
// presentation surface.
package icons

import "strings"

// Definition describes a core icon entry.
type Definition struct {
	Ref         string
	Name        string
	Glyph       string
	Description string
}

var catalog = []Definition{
	{
		Ref:         "icons/event",
		Name:        "Event",
		Glyph:       "◆",
		Description: "Default icon for generic calendar entries.",
	},
	{
		Ref:         "icons/assignment",
		Name:        "Assignment",
		Glyph:       "✎",
		Description: "Assignment due entries.",
	},
	{
		Ref:         "icons/class",
		Name:        "Class",
		Glyph:       "▤",
		Description: "Class meetings.",
	},
	{
		Ref:         "icons/exam",
		Name:        "Exam",
		Glyph:       "✦",
		Description: "Exam sittings.",
	},
}

// Catalog returns a copy of the icon catalog definitions.
func Catalog() []Definition {
	result := make([]Definition, len(catalog))
	copy(result, catalog)
	return result
}

// Lookup returns the definition for an icon reference.
func Lookup(ref string) (Definition, bool) {
	for _, def := range catalog {
		if def.Ref == ref {
			return def, true
		}
	}
	return Definition{}, false
}

// GlyphOrDefault provides a stable glyph even when the reference is unknown.
func GlyphOrDefault(ref string) string {
	if def, ok := Lookup(ref); ok {
		return def.Glyph
	}
	return "◆"
}

// CatalogMarkdown renders the icon catalog as markdown.
func CatalogMarkdown() string {
	var builder strings.Builder
	builder.WriteString("# Icon Catalog\n\n")
	builder.WriteString("| Ref | Name | Glyph | Description |\n")
	builder.WriteString("| --- | --- | --- | --- |\n")
	for _, def := range catalog {
		builder.WriteString("| ")
		builder.WriteString(def.Ref)
		builder.WriteString(" | ")
		builder.WriteString(def.Name)
		builder.WriteString(" | ")
		builder.WriteString(def.Glyph)
		builder.WriteString(" | ")
		builder.WriteString(def.Description)
		builder.WriteString(" |\n")
	}
	return builder.String()
}

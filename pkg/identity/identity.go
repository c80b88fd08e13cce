// Package identity derives stable node identifiers from the semantic content
// of extracted entities. The same logical entity always maps to the same id,
// which is what lets repeated merges converge instead of duplicating nodes.
package identity

import (
	"strconv"
	"strings"
	"unicode"
)

const (
	PaperPrefix     = "paper:"
	SectionPrefix   = "section:"
	ConceptPrefix   = "concept:"
	AuthorPrefix    = "author:"
	ReferencePrefix = "reference:"

	// Unnamed replaces a slug that normalised to nothing.
	Unnamed = "unnamed"
)

// Slug lower-cases s, replaces each whitespace run with a single underscore
// and drops every character outside [a-z0-9_]. The result may be empty.
//
//	Slug("Gaussian Splatting") == "gaussian_splatting"
//	Slug("NeRF (2020)")        == "nerf_2020"
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
				inSpace = true
			}
			continue
		}
		inSpace = false
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// PaperID keys a paper by its title. Case is preserved, so titles that only
// differ in case are different papers.
func PaperID(title string) string {
	return PaperPrefix + collapseWhitespace(title)
}

// SectionID is positional: the zero-based index of the section in
// extraction order.
func SectionID(index int) string {
	return SectionPrefix + strconv.Itoa(index)
}

// ConceptID prefers the id supplied by the extractor and falls back to the
// slugged concept name.
func ConceptID(id, name string) string {
	if id != "" {
		return id
	}
	slug := Slug(name)
	if slug == "" {
		slug = Unnamed
	}
	return ConceptPrefix + slug
}

// AuthorID keys an author by name and, when present, affiliation. The same
// person listed under two affiliations therefore gets two ids.
func AuthorID(name, affiliation string) string {
	base := Slug(name)
	if base == "" {
		base = Unnamed
	}
	if aff := Slug(affiliation); aff != "" {
		return AuthorPrefix + base + "_" + aff
	}
	return AuthorPrefix + base
}

// ReferenceID keys a bibliography entry by its number.
func ReferenceID(number string) string {
	return ReferencePrefix + number
}

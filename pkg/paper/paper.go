package paper

// Metadata holds the bibliographic information known about a paper.
// Only Title is guaranteed to be set after ingestion.
type Metadata struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors,omitempty"`
	Year        *int     `json:"year,omitempty"`
	Venue       string   `json:"venue,omitempty"`
	CanonicalID string   `json:"canonical_id,omitempty"` // arXiv ID or DOI
}

// Section is a coarse structural block recovered from the raw text.
type Section struct {
	Heading string `json:"heading"`
	Level   int    `json:"level"`
	Text    string `json:"text"`
}

// Reference is a single numbered entry of the bibliography.
type Reference struct {
	ID  string `json:"id"`
	Raw string `json:"raw"`
}

// Document represents one ingested paper. It is produced once per source
// file and is not modified afterwards.
//
// Abstract is nil when no abstract could be recovered. An empty abstract is
// never produced.
type Document struct {
	Metadata   Metadata    `json:"metadata"`
	Abstract   *string     `json:"abstract,omitempty"`
	Sections   []Section   `json:"sections"`
	RawText    string      `json:"raw_text"`
	References []Reference `json:"references"`
}

// HasAbstract reports whether an abstract was recovered.
func (d *Document) HasAbstract() bool {
	return d.Abstract != nil
}

// ReferenceStrings returns the raw text of every reference in order.
func (d *Document) ReferenceStrings() []string {
	if len(d.References) == 0 {
		return nil
	}
	out := make([]string, 0, len(d.References))
	for _, ref := range d.References {
		out = append(out, ref.Raw)
	}
	return out
}

// Package segment recovers coarse document structure (title, abstract,
// named sections and the bibliography) from raw paper text. The heuristics
// are lossy. They never reorder text and never merge sections.
package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/alaris-labs/papergraph/pkg/identity"
	"github.com/alaris-labs/papergraph/pkg/logger"
	"github.com/alaris-labs/papergraph/pkg/paper"
)

// metadataPrefixes mark boilerplate lines that are never a title.
var metadataPrefixes = []string{
	"arxiv:",
	"ccs concepts:",
	"acm reference format:",
	"authors' addresses:",
	"authors:",
	"additional key words",
	"keywords:",
}

// SectionNames is the heading vocabulary, matched in this order.
var SectionNames = []string{
	"introduction",
	"related work",
	"method",
	"approach",
	"methods",
	"experiments",
	"results",
	"conclusion",
	"discussion",
}

var (
	reLineBreak      = regexp.MustCompile(`\r?\n`)
	reAbstractHeader = regexp.MustCompile(`(?i)^abstract[:\s]*$`)
	reRefHeader      = regexp.MustCompile(`(?i)^(references|bibliography)`)
	reRefEntry       = regexp.MustCompile(`^(\d+)\.\s+(.*)`)
)

const minTitleLength = 10

// Result is the structure recovered from one document.
type Result struct {
	Title      string
	TitleFound bool
	Abstract   *string
	Sections   []paper.Section
}

// Segment runs title, abstract and section extraction over rawText.
func Segment(rawText string) Result {
	title, ok := ExtractTitle(rawText)
	return Result{
		Title:      title,
		TitleFound: ok,
		Abstract:   ExtractAbstract(rawText),
		Sections:   ExtractSections(rawText),
	}
}

func splitLines(text string) []string {
	return reLineBreak.Split(text, -1)
}

func isMetadataLine(lower string) bool {
	for _, prefix := range metadataPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// ExtractTitle returns the first non-blank, non-metadata line that is longer
// than ten characters and contains a space. The boolean is false when no
// line qualifies; picking a fallback is left to the caller.
func ExtractTitle(text string) (string, bool) {
	for _, raw := range splitLines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if isMetadataLine(strings.ToLower(line)) {
			continue
		}
		if utf8.RuneCountInString(line) > minTitleLength && strings.Contains(line, " ") {
			return line, true
		}
	}
	return "", false
}

// ExtractAbstract collects the lines following an "Abstract" header up to
// the first blank line and joins them with single spaces. It returns nil
// when there is no header or nothing follows it.
func ExtractAbstract(text string) *string {
	lines := splitLines(text)

	header := -1
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if reAbstractHeader.MatchString(line) || strings.HasPrefix(strings.ToLower(line), "abstract:") {
			header = i
			break
		}
	}
	if header == -1 {
		return nil
	}

	parts := make([]string, 0)
	for _, raw := range lines[header+1:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			break
		}
		parts = append(parts, line)
	}

	abstract := strings.Join(parts, " ")
	if abstract == "" {
		return nil
	}
	return &abstract
}

func matchHeading(normalized string) (string, bool) {
	for _, name := range SectionNames {
		if normalized == name || strings.HasPrefix(normalized, name+":") {
			return name, true
		}
	}
	return "", false
}

// ExtractSections splits text at lines naming a known section. Lines before
// the first heading are dropped, and a heading with no following lines does
// not produce a section.
func ExtractSections(text string) []paper.Section {
	sections := make([]paper.Section, 0)

	var (
		heading string
		open    bool
		body    []string
	)
	flush := func() {
		if open && len(body) > 0 {
			sections = append(sections, paper.Section{
				Heading: heading,
				Level:   1,
				Text:    strings.TrimSpace(strings.Join(body, "\n")),
			})
		}
	}

	for _, raw := range splitLines(text) {
		line := strings.TrimSpace(raw)
		if name, ok := matchHeading(strings.ToLower(line)); ok {
			flush()
			heading = name
			open = true
			body = nil
			continue
		}
		if open {
			body = append(body, line)
		}
	}
	flush()

	return sections
}

// ExtractReferences parses numbered entries ("12. Author, Title ...") that
// follow a "References" or "Bibliography" header.
func ExtractReferences(text string) []paper.Reference {
	lines := splitLines(text)

	start := -1
	for i, raw := range lines {
		if reRefHeader.MatchString(strings.TrimSpace(raw)) {
			start = i
			break
		}
	}
	if start == -1 {
		logger.Debug("[Segment] No references section found")
		return []paper.Reference{}
	}

	refs := make([]paper.Reference, 0)
	for _, raw := range lines[start+1:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		m := reRefEntry.FindStringSubmatch(line)
		if m == nil || m[1] == "" || m[2] == "" {
			continue
		}
		refs = append(refs, paper.Reference{
			ID:  identity.ReferenceID(m[1]),
			Raw: m[2],
		})
	}
	return refs
}

package graph

import (
	"strings"

	"github.com/alaris-labs/papergraph/pkg/identity"
	"github.com/alaris-labs/papergraph/pkg/paper"
)

// Concept is an extracted concept before it becomes a node.
type Concept struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	SectionIndex *int   `json:"sectionIndex,omitempty"`
}

// Author is an extracted author before it becomes a node.
type Author struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	Email       string `json:"email,omitempty"`
}

// expansion is the node an entity resolves to plus the edges that
// connect it to the rest of the graph.
type expansion struct {
	node  Node
	edges []Edge
}

// merge appends every unseen node and every unseen edge triple of the
// expansions to a copy of base. base is never modified.
func merge(base Graph, expansions []expansion) Graph {
	out := base.Clone()

	nodeIDs := make(map[string]struct{}, len(out.Nodes))
	for _, n := range out.Nodes {
		nodeIDs[n.ID] = struct{}{}
	}
	edgeKeys := make(map[string]struct{}, len(out.Edges))
	for _, e := range out.Edges {
		edgeKeys[e.Key()] = struct{}{}
	}

	for _, exp := range expansions {
		if _, ok := nodeIDs[exp.node.ID]; !ok {
			out.Nodes = append(out.Nodes, exp.node)
			nodeIDs[exp.node.ID] = struct{}{}
		}
		for _, e := range exp.edges {
			key := e.Key()
			if _, ok := edgeKeys[key]; ok {
				continue
			}
			out.Edges = append(out.Edges, e)
			edgeKeys[key] = struct{}{}
		}
	}

	return out
}

// PaperNodeID returns the node id of the paper described by doc.
func PaperNodeID(doc paper.Document) string {
	return identity.PaperID(doc.Metadata.Title)
}

// FromDocument builds the base graph of a document: the paper node and one
// node per section.
func FromDocument(doc paper.Document) Graph {
	paperID := PaperNodeID(doc)
	base := merge(New(), []expansion{{
		node: Node{
			ID:   paperID,
			Type: NodeTypePaper,
			Data: PaperData{
				Title:      doc.Metadata.Title,
				Abstract:   doc.Abstract,
				References: doc.ReferenceStrings(),
			},
		},
	}})
	return IntegrateSections(base, paperID, doc.Sections)
}

// IntegrateSections adds a node per section, keyed by its position, and a
// has_section edge from the paper.
func IntegrateSections(base Graph, paperID string, sections []paper.Section) Graph {
	expansions := make([]expansion, 0, len(sections))
	for i, s := range sections {
		sectionID := identity.SectionID(i)
		expansions = append(expansions, expansion{
			node: Node{
				ID:   sectionID,
				Type: NodeTypeSection,
				Data: SectionData{Heading: s.Heading, Text: s.Text},
			},
			edges: []Edge{{From: paperID, To: sectionID, Type: EdgeHasSection}},
		})
	}
	return merge(base, expansions)
}

// IntegrateConcepts adds a node per concept with a discusses edge from the
// paper. A concept tied to a section that exists in base also gets a
// mentions edge from that section.
func IntegrateConcepts(base Graph, paperID string, concepts []Concept) Graph {
	sections := make(map[string]struct{})
	for _, n := range base.Nodes {
		if n.Type == NodeTypeSection {
			sections[n.ID] = struct{}{}
		}
	}

	expansions := make([]expansion, 0, len(concepts))
	for _, c := range concepts {
		conceptID := identity.ConceptID(c.ID, c.Name)
		edges := []Edge{{From: paperID, To: conceptID, Type: EdgeDiscusses}}
		if c.SectionIndex != nil {
			sectionID := identity.SectionID(*c.SectionIndex)
			if _, ok := sections[sectionID]; ok {
				edges = append(edges, Edge{From: sectionID, To: conceptID, Type: EdgeMentions})
			}
		}
		expansions = append(expansions, expansion{
			node: Node{
				ID:   conceptID,
				Type: NodeTypeConcept,
				Data: ConceptData{Name: c.Name, Description: c.Description},
			},
			edges: edges,
		})
	}
	return merge(base, expansions)
}

// IntegrateAuthors adds a node per author with authored_by and author_of
// edges between it and the paper.
func IntegrateAuthors(base Graph, paperID string, authors []Author) Graph {
	expansions := make([]expansion, 0, len(authors))
	for _, a := range authors {
		authorID := identity.AuthorID(a.Name, a.Affiliation)
		expansions = append(expansions, expansion{
			node: Node{
				ID:   authorID,
				Type: NodeTypeAuthor,
				Data: AuthorData{
					Name:        a.Name,
					Affiliation: strings.TrimSpace(a.Affiliation),
					Email:       strings.TrimSpace(a.Email),
				},
			},
			edges: []Edge{
				{From: paperID, To: authorID, Type: EdgeAuthoredBy},
				{From: authorID, To: paperID, Type: EdgeAuthorOf},
			},
		})
	}
	return merge(base, expansions)
}

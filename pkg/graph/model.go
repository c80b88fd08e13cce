package graph

import (
	"encoding/json"
	"errors"
	"fmt"
)

// NodeType is the closed set of node kinds in a paper graph.
type NodeType int

const (
	NodeTypePaper NodeType = iota + 1
	NodeTypeSection
	NodeTypeConcept
	NodeTypeAuthor
)

var nodeTypeNames = map[NodeType]string{
	NodeTypePaper:   "Paper",
	NodeTypeSection: "Section",
	NodeTypeConcept: "Concept",
	NodeTypeAuthor:  "Author",
}

func (t NodeType) String() string {
	if name, ok := nodeTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// Valid reports whether t is one of the declared node types.
func (t NodeType) Valid() bool {
	_, ok := nodeTypeNames[t]
	return ok
}

// ParseNodeType maps the persisted name back to a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	for t, name := range nodeTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown node type %q", s)
}

func (t NodeType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid node type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *NodeType) UnmarshalText(b []byte) error {
	parsed, err := ParseNodeType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// EdgeType is the closed set of relationships between nodes.
type EdgeType int

const (
	EdgeHasSection EdgeType = iota + 1
	EdgeDiscusses
	EdgeMentions
	EdgeAuthoredBy
	EdgeAuthorOf
)

var edgeTypeNames = map[EdgeType]string{
	EdgeHasSection: "has_section",
	EdgeDiscusses:  "discusses",
	EdgeMentions:   "mentions",
	EdgeAuthoredBy: "authored_by",
	EdgeAuthorOf:   "author_of",
}

func (t EdgeType) String() string {
	if name, ok := edgeTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EdgeType(%d)", int(t))
}

// Valid reports whether t is one of the declared edge types.
func (t EdgeType) Valid() bool {
	_, ok := edgeTypeNames[t]
	return ok
}

// ParseEdgeType maps the persisted name back to an EdgeType.
func ParseEdgeType(s string) (EdgeType, error) {
	for t, name := range edgeTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown edge type %q", s)
}

func (t EdgeType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid edge type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *EdgeType) UnmarshalText(b []byte) error {
	parsed, err := ParseEdgeType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// NodeData is the type specific payload of a node. The set of
// implementations is closed: only the payload types of this package
// satisfy it.
type NodeData interface {
	// Kind is the node type the payload belongs to.
	Kind() NodeType
	// Label is the human readable name stored in the title column.
	Label() string

	isNodeData()
}

// PaperData is the payload of a Paper node.
type PaperData struct {
	Title      string   `json:"title"`
	Abstract   *string  `json:"abstract,omitempty"`
	References []string `json:"references,omitempty"`
}

// SectionData is the payload of a Section node.
type SectionData struct {
	Heading string `json:"heading"`
	Text    string `json:"text"`
}

// ConceptData is the payload of a Concept node.
type ConceptData struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AuthorData is the payload of an Author node.
type AuthorData struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation"`
	Email       string `json:"email"`
}

func (PaperData) Kind() NodeType   { return NodeTypePaper }
func (SectionData) Kind() NodeType { return NodeTypeSection }
func (ConceptData) Kind() NodeType { return NodeTypeConcept }
func (AuthorData) Kind() NodeType  { return NodeTypeAuthor }

func (d PaperData) Label() string   { return d.Title }
func (d SectionData) Label() string { return d.Heading }
func (d ConceptData) Label() string { return d.Name }
func (d AuthorData) Label() string  { return d.Name }

func (PaperData) isNodeData()   {}
func (SectionData) isNodeData() {}
func (ConceptData) isNodeData() {}
func (AuthorData) isNodeData()  {}

// DecodeNodeData decodes a JSON payload into the concrete payload type of t.
func DecodeNodeData(t NodeType, raw []byte) (NodeData, error) {
	var (
		data NodeData
		err  error
	)
	switch t {
	case NodeTypePaper:
		var d PaperData
		err = json.Unmarshal(raw, &d)
		data = d
	case NodeTypeSection:
		var d SectionData
		err = json.Unmarshal(raw, &d)
		data = d
	case NodeTypeConcept:
		var d ConceptData
		err = json.Unmarshal(raw, &d)
		data = d
	case NodeTypeAuthor:
		var d AuthorData
		err = json.Unmarshal(raw, &d)
		data = d
	default:
		return nil, fmt.Errorf("unknown node type %d", int(t))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", t, err)
	}
	return data, nil
}

// Node is a vertex of the paper graph. Its ID is unique within a Graph and
// its Type never changes once created.
type Node struct {
	ID   string   `json:"id"`
	Type NodeType `json:"type"`
	Data NodeData `json:"data"`
}

// Title is the value persisted in the title column.
func (n Node) Title() string {
	if n.Data == nil {
		return ""
	}
	return n.Data.Label()
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID   string          `json:"id"`
		Type NodeType        `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	data, err := DecodeNodeData(raw.Type, raw.Data)
	if err != nil {
		return err
	}
	n.ID = raw.ID
	n.Type = raw.Type
	n.Data = data
	return nil
}

// Edge is a directed, typed relationship. The triple (From, To, Type) is
// unique within a Graph.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Type EdgeType `json:"type"`
}

// Key is the membership key used to de-duplicate edges.
func (e Edge) Key() string {
	return e.From + "|" + e.To + "|" + e.Type.String()
}

// Graph is the node and edge collection built for one document. Order is
// insertion order and carries no meaning.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// New returns an empty graph.
func New() Graph {
	return Graph{
		Nodes: make([]Node, 0),
		Edges: make([]Edge, 0),
	}
}

// Clone copies the node and edge slices. Payloads are values and are
// shared safely.
func (g Graph) Clone() Graph {
	nodes := make([]Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	edges := make([]Edge, len(g.Edges))
	copy(edges, g.Edges)
	return Graph{Nodes: nodes, Edges: edges}
}

// Node looks a node up by id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

func (g Graph) HasNode(id string) bool {
	_, ok := g.Node(id)
	return ok
}

func (g Graph) HasEdge(from, to string, t EdgeType) bool {
	for _, e := range g.Edges {
		if e.From == from && e.To == to && e.Type == t {
			return true
		}
	}
	return false
}

// NodesOfType returns the nodes of type t in insertion order.
func (g Graph) NodesOfType(t NodeType) []Node {
	out := make([]Node, 0)
	for _, n := range g.Nodes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// EdgesOfType returns the edges of type t in insertion order.
func (g Graph) EdgesOfType(t EdgeType) []Edge {
	out := make([]Edge, 0)
	for _, e := range g.Edges {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks the graph wide invariants: unique node ids, unique edge
// triples, payloads matching their node type and edges whose endpoints
// exist. All violations are reported together.
func (g Graph) Validate() error {
	var errs []error

	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			errs = append(errs, errors.New("node with empty id"))
		}
		if _, dup := ids[n.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate node id %q", n.ID))
		}
		ids[n.ID] = struct{}{}
		if !n.Type.Valid() {
			errs = append(errs, fmt.Errorf("node %q has invalid type %d", n.ID, int(n.Type)))
		}
		if n.Data == nil {
			errs = append(errs, fmt.Errorf("node %q has no payload", n.ID))
		} else if n.Data.Kind() != n.Type {
			errs = append(errs, fmt.Errorf("node %q of type %s carries %s payload", n.ID, n.Type, n.Data.Kind()))
		}
	}

	keys := make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		key := e.Key()
		if _, dup := keys[key]; dup {
			errs = append(errs, fmt.Errorf("duplicate edge %s", key))
		}
		keys[key] = struct{}{}
		if !e.Type.Valid() {
			errs = append(errs, fmt.Errorf("edge %s has invalid type", key))
		}
		if _, ok := ids[e.From]; !ok {
			errs = append(errs, fmt.Errorf("edge %s starts at unknown node", key))
		}
		if _, ok := ids[e.To]; !ok {
			errs = append(errs, fmt.Errorf("edge %s ends at unknown node", key))
		}
	}

	return errors.Join(errs...)
}

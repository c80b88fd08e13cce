package extract

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/alaris-labs/papergraph/pkg/ai"
	"github.com/alaris-labs/papergraph/pkg/graph"
	"github.com/alaris-labs/papergraph/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// sectionIndex accepts any JSON value and keeps it only when it is a
// non-negative integer.
type sectionIndex struct {
	value *int
}

func (s *sectionIndex) UnmarshalJSON(b []byte) error {
	s.value = nil
	var f float64
	if string(b) == "null" || json.Unmarshal(b, &f) != nil {
		return nil
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil
	}
	i := int(f)
	s.value = &i
	return nil
}

func (s sectionIndex) MarshalJSON() ([]byte, error) {
	if s.value == nil {
		return []byte("-1"), nil
	}
	return json.Marshal(*s.value)
}

func (sectionIndex) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "integer",
		Description: "0-based index of the section where the concept is most central, -1 if unknown",
	}
}

type conceptRecord struct {
	ID           string       `json:"id"`
	Name         string       `json:"name" validate:"required"`
	Description  string       `json:"description"`
	SectionIndex sectionIndex `json:"sectionIndex"`
}

type conceptsResponse struct {
	Concepts []conceptRecord `json:"concepts" validate:"required"`
}

type authorRecord struct {
	Name        string `json:"name" validate:"required"`
	Affiliation string `json:"affiliation"`
	Email       string `json:"email"`
}

type authorsResponse struct {
	Authors []authorRecord `json:"authors" validate:"required"`
}

// decodeAnswer locates the JSON object in a free text model answer and
// decodes it into out.
func decodeAnswer(kind, raw string, out any) error {
	block, ok := ai.ExtractJSONBlock(raw)
	if !ok {
		return ErrNoJSON
	}
	if err := ai.UnmarshalFlexible(block, out); err != nil {
		return &ValidationError{Kind: kind, Err: err}
	}
	return nil
}

func (r conceptsResponse) records() ([]graph.Concept, error) {
	if err := validate.Struct(r); err != nil {
		return nil, &ValidationError{Kind: "concepts", Err: errors.New("missing concepts array")}
	}

	out := make([]graph.Concept, 0, len(r.Concepts))
	for _, rec := range r.Concepts {
		rec.Name = strings.TrimSpace(rec.Name)
		if err := validate.Struct(rec); err != nil {
			logger.Debug("[Extract] Dropping concept record", "id", rec.ID, "err", err)
			continue
		}
		out = append(out, graph.Concept{
			ID:           strings.TrimSpace(rec.ID),
			Name:         rec.Name,
			Description:  strings.TrimSpace(rec.Description),
			SectionIndex: rec.SectionIndex.value,
		})
	}
	return out, nil
}

func (r authorsResponse) records() ([]graph.Author, error) {
	if err := validate.Struct(r); err != nil {
		return nil, &ValidationError{Kind: "authors", Err: errors.New("missing authors array")}
	}

	out := make([]graph.Author, 0, len(r.Authors))
	for _, rec := range r.Authors {
		rec.Name = strings.TrimSpace(rec.Name)
		if err := validate.Struct(rec); err != nil {
			logger.Debug("[Extract] Dropping author record", "err", err)
			continue
		}
		email := strings.TrimSpace(rec.Email)
		if email != "" && validate.Var(email, "email") != nil {
			logger.Debug("[Extract] Dropping malformed author email", "name", rec.Name, "email", email)
			email = ""
		}
		out = append(out, graph.Author{
			Name:        rec.Name,
			Affiliation: strings.TrimSpace(rec.Affiliation),
			Email:       email,
		})
	}
	return out, nil
}

// ParseConcepts turns a raw model answer into concept records. Records
// without a name are dropped. Any other problem yields ErrNoJSON or a
// *ValidationError.
func ParseConcepts(raw string) ([]graph.Concept, error) {
	var resp conceptsResponse
	if err := decodeAnswer("concepts", raw, &resp); err != nil {
		return nil, err
	}
	return resp.records()
}

// ParseAuthors turns a raw model answer into author records. Records
// without a name are dropped, missing affiliation and email become "".
func ParseAuthors(raw string) ([]graph.Author, error) {
	var resp authorsResponse
	if err := decodeAnswer("authors", raw, &resp); err != nil {
		return nil, err
	}
	return resp.records()
}

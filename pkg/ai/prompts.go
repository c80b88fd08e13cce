package ai

import "fmt"

const conceptPrompt = `
# Task Context
You are an assistant that extracts important technical concepts from a research paper.

# Detailed Task Description & Rules
- Identify at most %d key concepts discussed in the paper text below.
- For each concept return:
  * id: a machine friendly id like "concept:neural_radiance_field" (lowercase, snake_case)
  * name: the human readable concept name (e.g. "Neural Radiance Field (NeRF)")
  * description: a 1-2 sentence explanation
  * sectionIndex: optional 0-based index of the section where the concept is most central. Omit it if unknown.
- Prefer specific techniques, models, datasets and metrics over generic words.

# Output Formatting
Return a SINGLE JSON object with this shape and nothing before or after it:
{
  "concepts": [
    {
      "id": "concept:some_slug",
      "name": "Some Concept",
      "description": "Short explanation...",
      "sectionIndex": 0
    }
  ]
}

--- PAPER TEXT START ---
%s
--- PAPER TEXT END ---
`

const authorPrompt = `
# Task Context
You are an information extraction system.

# Detailed Task Description & Rules
- Extract the list of authors from this academic paper.
- Focus on the title block and author block at the top of the paper.
- For each author return name (required), affiliation (if present) and email (if present).
- If you are unsure about affiliation or email, use an empty string "".

# Output Formatting
Respond with STRICT JSON in this exact format (no extra keys, no commentary):
{
  "authors": [
    { "name": "Full Name", "affiliation": "Affiliation here or empty string", "email": "email or empty string" }
  ]
}

Paper text:
---
%s
---
`

const explainPrompt = `
# Task Context
You are a research assistant.

# Background Data
Here is the paper graph as JSON:
%s

# Detailed Task Description & Rules
Explain the research paper in a clear, structured and simple way using these fields:
- **Title**
- **High-level summary (2-3 sentences)**
- **Key concepts involved**
- **How these concepts connect together**
- **Why this paper is important**

# Output Formatting
Write clean, readable paragraphs in markdown.
`

// MaxConcepts bounds the number of concepts requested per paper.
const MaxConcepts = 30

// ConceptPrompt builds the concept extraction prompt for text.
func ConceptPrompt(text string) string {
	return fmt.Sprintf(conceptPrompt, MaxConcepts, text)
}

// AuthorPrompt builds the author extraction prompt for the header text of a paper.
func AuthorPrompt(text string) string {
	return fmt.Sprintf(authorPrompt, text)
}

// ExplainPrompt builds the explanation prompt for a JSON encoded paper graph.
func ExplainPrompt(graphJSON string) string {
	return fmt.Sprintf(explainPrompt, graphJSON)
}

package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alaris-labs/papergraph/internal/util"
	"github.com/alaris-labs/papergraph/pkg/ai"
	"github.com/alaris-labs/papergraph/pkg/graph"
	"github.com/alaris-labs/papergraph/pkg/logger"
	"github.com/alaris-labs/papergraph/pkg/store"
)

// maxExplainSectionRunes bounds each section's text in the explain prompt.
const maxExplainSectionRunes = 2000

// ExplainPaperHandler asks the language model to explain a stored paper
// from its concepts and sections.
func ExplainPaperHandler(c echo.Context) error {
	type explainGraph struct {
		Paper    store.NodeRow   `json:"paper"`
		Concepts []store.NodeRow `json:"concepts"`
		Sections []store.NodeRow `json:"sections"`
	}
	type explainResponse struct {
		PaperID     string `json:"paperId"`
		Explanation string `json:"explanation"`
	}

	params := new(paperParams)
	if err := bindAndValidate(c, params); err != nil {
		return err
	}

	a := app(c)
	if a.AIClient == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "Explanations are not configured")
	}

	ctx := c.Request().Context()
	paper, err := a.Store.GetPaper(ctx, params.ID)
	if err != nil {
		return storeError(c, err)
	}
	concepts, err := a.Store.GetPaperConcepts(ctx, params.ID)
	if err != nil {
		return storeError(c, err)
	}
	sections, err := a.Store.GetPaperSections(ctx, params.ID)
	if err != nil {
		return storeError(c, err)
	}
	for i, s := range sections {
		if d, ok := s.Data.(graph.SectionData); ok {
			d.Text = util.TruncateRunes(d.Text, maxExplainSectionRunes)
			sections[i].Data = d
		}
	}

	payload, err := json.Marshal(explainGraph{Paper: paper, Concepts: concepts, Sections: sections})
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "Internal server error")
	}

	explanation, err := a.AIClient.GenerateCompletion(ctx, ai.ExplainPrompt(string(payload)))
	if err != nil {
		logger.Error("[Server] Explain failed", "paper", params.ID, "err", err)
		return errorJSON(c, http.StatusBadGateway, "Failed to generate explanation")
	}
	return c.JSON(http.StatusOK, explainResponse{PaperID: params.ID, Explanation: explanation})
}

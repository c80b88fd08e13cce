package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alaris-labs/papergraph/pkg/store"
)

// ConceptPapersHandler finds the papers discussing concepts that match the
// search by id or by title.
func ConceptPapersHandler(c echo.Context) error {
	type conceptParams struct {
		Search string `param:"search" validate:"required"`
	}
	type conceptPapersResponse struct {
		ConceptSearch string               `json:"conceptSearch"`
		Results       []store.ConceptMatch `json:"results"`
	}

	params := new(conceptParams)
	if err := bindAndValidate(c, params); err != nil {
		return err
	}

	results, err := app(c).Store.SearchPapersByConcept(c.Request().Context(), params.Search)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, conceptPapersResponse{ConceptSearch: params.Search, Results: results})
}

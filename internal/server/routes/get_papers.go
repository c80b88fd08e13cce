package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alaris-labs/papergraph/pkg/store"
)

func ListPapersHandler(c echo.Context) error {
	type listPapersResponse struct {
		Count  int                  `json:"count"`
		Papers []store.PaperSummary `json:"papers"`
	}

	papers, err := app(c).Store.ListPapers(c.Request().Context())
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, listPapersResponse{Count: len(papers), Papers: papers})
}

type paperParams struct {
	ID string `param:"id" validate:"required"`
}

// GetPaperHandler returns a paper with its concepts, authors and sections.
func GetPaperHandler(c echo.Context) error {
	type getPaperResponse struct {
		Paper    store.NodeRow   `json:"paper"`
		Concepts []store.NodeRow `json:"concepts"`
		Authors  []store.NodeRow `json:"authors"`
		Sections []store.NodeRow `json:"sections"`
	}

	params := new(paperParams)
	if err := bindAndValidate(c, params); err != nil {
		return err
	}

	ctx := c.Request().Context()
	s := app(c).Store
	paper, err := s.GetPaper(ctx, params.ID)
	if err != nil {
		return storeError(c, err)
	}
	concepts, err := s.GetPaperConcepts(ctx, params.ID)
	if err != nil {
		return storeError(c, err)
	}
	authors, err := s.GetPaperAuthors(ctx, params.ID)
	if err != nil {
		return storeError(c, err)
	}
	sections, err := s.GetPaperSections(ctx, params.ID)
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, getPaperResponse{
		Paper:    paper,
		Concepts: concepts,
		Authors:  authors,
		Sections: sections,
	})
}

func SimilarPapersHandler(c echo.Context) error {
	type similarParams struct {
		ID    string `param:"id" validate:"required"`
		Limit int    `query:"limit" validate:"gte=0,lte=100"`
	}
	type similarPapersResponse struct {
		PaperID string               `json:"paperId"`
		Similar []store.SimilarPaper `json:"similar"`
	}

	params := new(similarParams)
	if err := bindAndValidate(c, params); err != nil {
		return err
	}

	ctx := c.Request().Context()
	s := app(c).Store
	if _, err := s.GetPaper(ctx, params.ID); err != nil {
		return storeError(c, err)
	}
	similar, err := s.SimilarPapers(ctx, params.ID, params.Limit)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, similarPapersResponse{PaperID: params.ID, Similar: similar})
}

func SearchPapersHandler(c echo.Context) error {
	type searchParams struct {
		Title string `query:"title" validate:"required"`
		Limit int    `query:"limit" validate:"gte=0,lte=100"`
	}
	type searchPapersResponse struct {
		Title  string               `json:"title"`
		Count  int                  `json:"count"`
		Papers []store.PaperSummary `json:"papers"`
	}

	params := new(searchParams)
	if err := bindAndValidate(c, params); err != nil {
		return err
	}

	papers, err := app(c).Store.SearchPapersByTitle(c.Request().Context(), params.Title, params.Limit)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, searchPapersResponse{Title: params.Title, Count: len(papers), Papers: papers})
}

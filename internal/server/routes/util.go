package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alaris-labs/papergraph/internal/server/middleware"
	"github.com/alaris-labs/papergraph/pkg/logger"
	"github.com/alaris-labs/papergraph/pkg/store"
)

func app(c echo.Context) *middleware.App {
	return c.(*middleware.AppContext).App
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// storeError maps a store failure onto a response.
func storeError(c echo.Context, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return errorJSON(c, http.StatusNotFound, "Not found")
	}
	logger.Error("[Server] Store query failed", "path", c.Path(), "err", err)
	return errorJSON(c, http.StatusInternalServerError, "Internal server error")
}

// bindAndValidate binds the request into data and runs the struct validator.
func bindAndValidate(c echo.Context, data any) error {
	if err := c.Bind(data); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(data); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request: "+err.Error())
	}
	return nil
}

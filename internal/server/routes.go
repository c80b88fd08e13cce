package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alaris-labs/papergraph/internal/server/middleware"
	"github.com/alaris-labs/papergraph/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	api := e.Group("", middleware.AuthMiddleware)
	read := middleware.RequirePermission(middleware.PermissionPaperRead)

	// Paper routes
	api.GET("/papers", routes.ListPapersHandler, read)
	api.GET("/papers/search", routes.SearchPapersHandler, read)
	api.GET("/papers/:id", routes.GetPaperHandler, read)
	api.GET("/papers/:id/similar", routes.SimilarPapersHandler, read)
	api.GET("/papers/:id/explain", routes.ExplainPaperHandler, read)
	api.POST("/papers", routes.UploadPaperHandler, middleware.RequirePermission(middleware.PermissionPaperUpload))
	api.POST("/papers/ingest", routes.IngestPaperHandler, middleware.RequirePermission(middleware.PermissionPaperIngest))

	// Concept routes
	api.GET("/concepts/:search/papers", routes.ConceptPapersHandler, read)
}

package middleware

import (
	"context"
	"io"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/alaris-labs/papergraph/internal/queue"
	"github.com/alaris-labs/papergraph/pkg/ai"
	"github.com/alaris-labs/papergraph/pkg/store"
)

type AppUser struct {
	UserID      string
	Role        string
	Permissions []string
}

// Uploader stores uploaded papers and returns their object key.
type Uploader interface {
	PutFile(ctx context.Context, prefix string, name string, body io.Reader) (string, error)
}

// App carries the process wide collaborators of the API. Optional fields
// left nil disable the routes that need them.
type App struct {
	Store    store.GraphReader
	Queue    queue.Channel
	Uploads  Uploader
	AIClient ai.GraphAIClient

	// Keyfunc verifies JWT signatures, usually backed by a JWKS endpoint.
	Keyfunc      jwt.Keyfunc
	MasterAPIKey string
	AuthEnabled  bool
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}

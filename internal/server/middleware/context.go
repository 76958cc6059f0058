package middleware

import (
	"github.com/OFFIS-RIT/papergraph/internal/pipeline"
	"github.com/OFFIS-RIT/papergraph/internal/storage"

	"github.com/labstack/echo/v4"
)

type App struct {
	Pipeline *pipeline.Pipeline
	Storage  storage.Storage
	APIKey   string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}

package server

import (
	"github.com/OFFIS-RIT/papergraph/internal/server/middleware"
	"github.com/OFFIS-RIT/papergraph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", routes.HealthHandler)

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	apiRoutes.GET("/models", routes.GetModelsHandler)
	apiRoutes.GET("/databases", routes.GetDatabasesHandler)
	apiRoutes.GET("/papers", routes.GetPapersHandler)

	// Dataset routes
	apiRoutes.GET("/datasets", routes.GetDatasetsHandler)
	apiRoutes.POST("/datasets/:name/connect", routes.ConnectDatasetHandler)
	apiRoutes.POST("/datasets/:name/files", routes.AddFilesToDatasetHandler)
	apiRoutes.GET("/datasets/:name/schema", routes.GetSchemaHandler)

	// Dataset query routes
	apiRoutes.POST("/datasets/:name/query", routes.QueryDatasetHandler)
	apiRoutes.POST("/datasets/:name/summary", routes.SummaryHandler)
}

package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/papergraph/internal/server/middleware"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports the reachability of Neo4j and the LLM backend.
func HealthHandler(c echo.Context) error {
	p := c.(*middleware.AppContext).App.Pipeline
	health := p.Health(c.Request().Context())
	if !health.OK() {
		return c.JSON(http.StatusServiceUnavailable, health)
	}
	return c.JSON(http.StatusOK, health)
}

func GetModelsHandler(c echo.Context) error {
	type getModelsResponse struct {
		Models  []string `json:"models"`
		Current string   `json:"current"`
	}

	p := c.(*middleware.AppContext).App.Pipeline
	models, err := p.Models(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list models", "err", err)
		return c.JSON(http.StatusBadGateway, errorResponse{
			Message: "Failed to list models",
			Error:   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, getModelsResponse{Models: models, Current: p.Model()})
}

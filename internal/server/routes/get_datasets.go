package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/papergraph/internal/server/middleware"
	"github.com/OFFIS-RIT/papergraph/pkg/common"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

func GetDatasetsHandler(c echo.Context) error {
	type getDatasetsResponse struct {
		Datasets []common.Dataset `json:"datasets"`
	}

	p := c.(*middleware.AppContext).App.Pipeline
	return c.JSON(http.StatusOK, getDatasetsResponse{Datasets: p.Datasets()})
}

func GetDatabasesHandler(c echo.Context) error {
	type getDatabasesResponse struct {
		Databases []string `json:"databases"`
	}

	p := c.(*middleware.AppContext).App.Pipeline
	dbs, err := p.Databases(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list databases", "err", err)
		return c.JSON(http.StatusBadGateway, errorResponse{
			Message: "Failed to list databases",
			Error:   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, getDatabasesResponse{Databases: dbs})
}

// GetPapersHandler lists the papers with cached extracted content.
func GetPapersHandler(c echo.Context) error {
	type getPapersResponse struct {
		Papers []string `json:"papers"`
	}

	p := c.(*middleware.AppContext).App.Pipeline
	papers, err := p.Papers()
	if err != nil {
		logger.Error("Failed to list papers", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Message: "Internal server error",
		})
	}
	return c.JSON(http.StatusOK, getPapersResponse{Papers: papers})
}

func GetSchemaHandler(c echo.Context) error {
	type getSchemaParams struct {
		Name string `param:"name" validate:"required"`
	}

	params := new(getSchemaParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request"})
	}

	p := c.(*middleware.AppContext).App.Pipeline
	report, err := p.Schema(c.Request().Context(), params.Name)
	if err != nil {
		logger.Error("Failed to read schema", "dataset", params.Name, "err", err)
		return c.JSON(statusFor(err), errorResponse{
			Message: "Failed to read schema",
			Error:   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, report)
}

package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/papergraph/internal/server/middleware"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
	"github.com/OFFIS-RIT/papergraph/pkg/query"

	"github.com/labstack/echo/v4"
)

// QueryDatasetHandler answers a natural-language question over the dataset.
// The audit suffix is appended unless the body sets "audit" to false.
func QueryDatasetHandler(c echo.Context) error {
	type queryDatasetRequest struct {
		Name     string `param:"name" validate:"required"`
		Question string `json:"question" validate:"required"`
		Audit    *bool  `json:"audit"`
	}

	data := new(queryDatasetRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request body"})
	}

	var opts []query.QueryOption
	if data.Audit != nil && !*data.Audit {
		opts = append(opts, query.WithoutAudit())
	}

	p := c.(*middleware.AppContext).App.Pipeline
	resp, err := p.Query(c.Request().Context(), data.Name, data.Question, opts...)
	if err != nil {
		logger.Error("Failed to answer question", "dataset", data.Name, "err", err)
		return c.JSON(statusFor(err), errorResponse{
			Message: "Failed to answer question",
			Error:   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func SummaryHandler(c echo.Context) error {
	type summaryParams struct {
		Name string `param:"name" validate:"required"`
	}

	params := new(summaryParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request"})
	}

	p := c.(*middleware.AppContext).App.Pipeline
	resp, err := p.Summary(c.Request().Context(), params.Name)
	if err != nil {
		logger.Error("Failed to summarize dataset", "dataset", params.Name, "err", err)
		return c.JSON(statusFor(err), errorResponse{
			Message: "Failed to summarize dataset",
			Error:   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

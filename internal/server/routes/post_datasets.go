package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/papergraph/internal/pipeline"
	"github.com/OFFIS-RIT/papergraph/internal/server/middleware"
	"github.com/OFFIS-RIT/papergraph/pkg/loader"
	"github.com/OFFIS-RIT/papergraph/pkg/loader/auto"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ConnectDatasetHandler selects the dataset used by later requests that do
// not name one.
func ConnectDatasetHandler(c echo.Context) error {
	type connectParams struct {
		Name string `param:"name" validate:"required"`
	}

	type connectResponse struct {
		Message  string `json:"message"`
		Dataset  string `json:"dataset"`
		Database string `json:"database"`
	}

	params := new(connectParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request"})
	}

	p := c.(*middleware.AppContext).App.Pipeline
	db, err := p.Connect(c.Request().Context(), params.Name)
	if err != nil {
		logger.Error("Failed to connect dataset", "dataset", params.Name, "err", err)
		return c.JSON(statusFor(err), errorResponse{
			Message: "Failed to connect dataset",
			Error:   err.Error(),
		})
	}

	return c.JSON(http.StatusOK, connectResponse{
		Message:  "Connected",
		Dataset:  params.Name,
		Database: db,
	})
}

// AddFilesToDatasetHandler stores the uploaded papers and ingests them into
// the dataset. Uploads that did not reach the graph are removed again.
func AddFilesToDatasetHandler(c echo.Context) error {
	type addFilesParams struct {
		Name  string `param:"name" validate:"required"`
		Clear bool   `form:"clear"`
	}

	type addFilesResponse struct {
		Message  string                 `json:"message"`
		Rejected []string               `json:"rejected,omitempty"`
		Report   *pipeline.IngestReport `json:"report,omitempty"`
		Error    string                 `json:"error,omitempty"`
	}

	params := new(addFilesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, addFilesResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, addFilesResponse{
			Message: "Invalid request body",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, addFilesResponse{
			Message: "Invalid request body",
		})
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		return c.JSON(http.StatusBadRequest, addFilesResponse{
			Message: "No files provided",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	var rejected []string
	files := make([]loader.PaperFile, 0, len(uploads))
	for _, upload := range uploads {
		probe := loader.NewPaperFile(loader.NewPaperFileParams{FilePath: upload.Filename})
		if !auto.Supported(probe) {
			rejected = append(rejected, upload.Filename)
			continue
		}

		src, err := upload.Open()
		if err != nil {
			logger.Error("Failed to open uploaded file", "file", upload.Filename, "err", err)
			rejected = append(rejected, upload.Filename)
			continue
		}
		file, err := app.Storage.Put(ctx, upload.Filename, src)
		src.Close()
		if err != nil {
			logger.Error("Failed to store uploaded file", "file", upload.Filename, "err", err)
			return c.JSON(http.StatusInternalServerError, addFilesResponse{
				Message: "Internal server error",
			})
		}
		files = append(files, file)
	}

	if len(files) == 0 {
		return c.JSON(http.StatusBadRequest, addFilesResponse{
			Message:  "No supported files provided",
			Rejected: rejected,
		})
	}

	report, err := app.Pipeline.Ingest(ctx, pipeline.IngestRequest{
		Dataset:       params.Name,
		Files:         files,
		ClearExisting: params.Clear,
	})
	removeFailedUploads(c, app, files, report)
	if err != nil {
		logger.Error("Failed to ingest files", "dataset", params.Name, "err", err)
		return c.JSON(statusFor(err), addFilesResponse{
			Message:  "Ingestion failed",
			Rejected: rejected,
			Report:   report,
			Error:    err.Error(),
		})
	}

	return c.JSON(http.StatusOK, addFilesResponse{
		Message:  "Files ingested",
		Rejected: rejected,
		Report:   report,
	})
}

func removeFailedUploads(c echo.Context, app *middleware.App, files []loader.PaperFile, report *pipeline.IngestReport) {
	stored := make(map[string]struct{})
	if report != nil {
		for _, f := range report.Files {
			if f.Error == "" {
				stored[f.Path] = struct{}{}
			}
		}
	}

	for _, file := range files {
		if _, ok := stored[file.FilePath]; ok {
			continue
		}
		if err := app.Storage.Delete(c.Request().Context(), file); err != nil {
			logger.Warn("Failed to remove upload", "file", file.FilePath, "err", err)
		}
	}
}

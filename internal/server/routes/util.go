package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/papergraph/internal/pipeline"
	"github.com/OFFIS-RIT/papergraph/pkg/leaselock"
	"github.com/OFFIS-RIT/papergraph/pkg/query"
	"github.com/OFFIS-RIT/papergraph/pkg/store"
)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// statusFor maps pipeline errors to response codes. Failures of the graph
// database or the LLM are reported as a bad gateway.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrNoDataset), errors.Is(err, store.ErrReservedDatabase):
		return http.StatusBadRequest
	case errors.Is(err, query.ErrWriteQuery):
		return http.StatusUnprocessableEntity
	case errors.Is(err, leaselock.ErrBusy):
		return http.StatusConflict
	}
	return http.StatusBadGateway
}

package store

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/papergraph/pkg/common"
)

// ErrNotConnected is returned by operations that need a namespace before
// Connect succeeded.
var ErrNotConnected = errors.New("graph store is not connected to a database")

// ErrReservedDatabase is returned by Connect for the system database, which
// cannot hold a dataset.
var ErrReservedDatabase = errors.New("database name is reserved")

// PushOptions controls a Push call.
type PushOptions struct {
	// ClearExisting deletes every node and edge of the namespace first. Lease
	// nodes of the lock database survive.
	ClearExisting bool
}

// PushResult counts what a Push wrote. Relationships only counts edges whose
// endpoints existed and were merged.
type PushResult struct {
	Nodes         int `json:"nodes"`
	Relationships int `json:"relationships"`
	Papers        int `json:"papers"`
}

// GraphStore persists extracted graphs into per-dataset namespaces of a
// labeled-property graph database.
//
// Query never fails: an execution error yields an empty result and is
// logged, so callers cannot tell "no rows" from "error".
type GraphStore interface {
	// Connect selects the namespace for name, creating it when missing,
	// and returns the sanitized namespace name.
	Connect(ctx context.Context, name string) (string, error)
	Database() string
	ListDatabases(ctx context.Context) ([]string, error)

	Push(ctx context.Context, docs []common.GraphDocument, opts PushOptions) (PushResult, error)

	Schema(ctx context.Context) (common.Schema, error)
	Query(ctx context.Context, query string, params map[string]any) []map[string]any
	Stats(ctx context.Context) (common.GraphStats, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

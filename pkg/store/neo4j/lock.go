package neo4j

import (
	"context"

	"github.com/OFFIS-RIT/papergraph/pkg/common"
)

// lockDatabase holds coordination state shared by every process. It is the
// server's default database and always exists.
const lockDatabase = "neo4j"

// lockLabel is the label of lease nodes written by pkg/leaselock. The lock
// database may also be a dataset, so every dataset-wide statement skips them.
const lockLabel = "AppLock"

// lockPropertyKeys are the properties only lease nodes carry.
var lockPropertyKeys = map[string]struct{}{
	"lock_key":   {},
	"locked_by":  {},
	"expires_at": {},
}

// withoutLockSchema drops lease labels and properties from a schema read in
// the lock database.
func withoutLockSchema(db string, schema common.Schema) common.Schema {
	if db != lockDatabase {
		return schema
	}
	labels := schema.Labels[:0:0]
	for _, l := range schema.Labels {
		if l != lockLabel {
			labels = append(labels, l)
		}
	}
	keys := schema.PropertyKeys[:0:0]
	for _, k := range schema.PropertyKeys {
		if _, ok := lockPropertyKeys[k]; !ok {
			keys = append(keys, k)
		}
	}
	schema.Labels, schema.PropertyKeys = labels, keys
	return schema
}

// ExecuteLock runs a write statement against the lock database, independent
// of the current namespace.
func (s *GraphNeo4jStorage) ExecuteLock(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return s.run.write(ctx, lockDatabase, query, params)
}

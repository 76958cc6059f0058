package neo4j

import (
	"context"

	neo4jv5 "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const systemDatabase = "system"

// runner executes Cypher and returns rows as column maps.
type runner interface {
	read(ctx context.Context, database, query string, params map[string]any) ([]map[string]any, error)
	write(ctx context.Context, database, query string, params map[string]any) ([]map[string]any, error)
	// admin runs an auto-commit statement against the system database.
	admin(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	verify(ctx context.Context) error
	close(ctx context.Context) error
}

type driverRunner struct {
	driver neo4jv5.DriverWithContext
}

func collect(ctx context.Context, result neo4jv5.ResultWithContext) ([]map[string]any, error) {
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.AsMap())
	}
	return rows, nil
}

func (r *driverRunner) execute(
	ctx context.Context,
	database string,
	write bool,
	query string,
	params map[string]any,
) ([]map[string]any, error) {
	session := r.driver.NewSession(ctx, neo4jv5.SessionConfig{DatabaseName: database})
	defer session.Close(ctx)

	work := func(tx neo4jv5.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return collect(ctx, result)
	}

	var (
		out any
		err error
	)
	if write {
		out, err = session.ExecuteWrite(ctx, work)
	} else {
		out, err = session.ExecuteRead(ctx, work)
	}
	if err != nil {
		return nil, err
	}
	return out.([]map[string]any), nil
}

func (r *driverRunner) read(ctx context.Context, database, query string, params map[string]any) ([]map[string]any, error) {
	return r.execute(ctx, database, false, query, params)
}

func (r *driverRunner) write(ctx context.Context, database, query string, params map[string]any) ([]map[string]any, error) {
	return r.execute(ctx, database, true, query, params)
}

func (r *driverRunner) admin(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := r.driver.NewSession(ctx, neo4jv5.SessionConfig{DatabaseName: systemDatabase})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return collect(ctx, result)
}

func (r *driverRunner) verify(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

func (r *driverRunner) close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

package neo4j

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/util"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
	"github.com/OFFIS-RIT/papergraph/pkg/store"

	neo4jv5 "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const (
	databaseNotFound = "Neo.ClientError.Database.DatabaseNotFound"
	settleAttempts   = 5
)

// GraphNeo4jStorage implements store.GraphStore on Neo4j, using one database
// per dataset. The driver is shared; every call opens its own session.
//
// A GraphNeo4jStorage should be created using NewGraphNeo4jStorage.
type GraphNeo4jStorage struct {
	run         runner
	settleDelay time.Duration

	dbLock   sync.RWMutex
	database string
}

// NewGraphNeo4jStorageParams defines the connection parameters.
//
// SettleDelay is waited after creating a database and between readiness
// probes of the new database.
type NewGraphNeo4jStorageParams struct {
	URI         string
	Username    string
	Password    string
	SettleDelay time.Duration
}

// NewGraphNeo4jStorage creates the driver. No connection is made until the
// first operation; use Ping to check reachability.
func NewGraphNeo4jStorage(params NewGraphNeo4jStorageParams) (*GraphNeo4jStorage, error) {
	auth := neo4jv5.BasicAuth(params.Username, params.Password, "")
	driver, err := neo4jv5.NewDriverWithContext(params.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	return newWithRunner(&driverRunner{driver: driver}, params.SettleDelay), nil
}

func newWithRunner(r runner, settleDelay time.Duration) *GraphNeo4jStorage {
	return &GraphNeo4jStorage{run: r, settleDelay: settleDelay}
}

// Database returns the current namespace, or "" before Connect.
func (s *GraphNeo4jStorage) Database() string {
	s.dbLock.RLock()
	defer s.dbLock.RUnlock()
	return s.database
}

func (s *GraphNeo4jStorage) current() (string, error) {
	db := s.Database()
	if db == "" {
		return "", store.ErrNotConnected
	}
	return db, nil
}

func (s *GraphNeo4jStorage) probe(ctx context.Context, database string) error {
	_, err := s.run.read(ctx, database, "RETURN 1 AS test", nil)
	return err
}

func isDatabaseNotFound(err error) bool {
	var neoErr *neo4jv5.Neo4jError
	if errors.As(err, &neoErr) && neoErr.Code == databaseNotFound {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "DatabaseNotFound") || strings.Contains(msg, "does not exist")
}

// Connect sanitizes name, creates the database if it does not exist and makes
// it the current namespace. The system database is refused.
func (s *GraphNeo4jStorage) Connect(ctx context.Context, name string) (string, error) {
	db := store.SanitizeDatabaseName(name)
	if db == "" {
		return "", fmt.Errorf("invalid database name %q", name)
	}
	if db == systemDatabase {
		return "", fmt.Errorf("%w: %q", store.ErrReservedDatabase, db)
	}
	if db != name {
		logger.Warn("[Neo4j] Sanitized database name", "original", name, "sanitized", db)
	}

	err := s.probe(ctx, db)
	if err != nil {
		if !isDatabaseNotFound(err) {
			return "", fmt.Errorf("failed to connect to database %q: %w", db, err)
		}
		if err := s.ensureDatabase(ctx, db); err != nil {
			return "", err
		}
	}

	s.dbLock.Lock()
	s.database = db
	s.dbLock.Unlock()

	logger.Info("[Neo4j] Connected", "database", db)
	return db, nil
}

func (s *GraphNeo4jStorage) databaseExists(ctx context.Context, db string) (bool, error) {
	rows, err := s.run.admin(ctx, "SHOW DATABASES YIELD name WHERE name = $name RETURN name", map[string]any{"name": db})
	if err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return len(rows) > 0, nil
}

// ensureDatabase creates db unless a concurrent caller already did and waits
// until it accepts queries.
func (s *GraphNeo4jStorage) ensureDatabase(ctx context.Context, db string) error {
	exists, err := s.databaseExists(ctx, db)
	if err != nil {
		return err
	}

	if !exists {
		logger.Warn("[Neo4j] Database does not exist, creating it", "database", db)
		query := fmt.Sprintf("CREATE DATABASE `%s` IF NOT EXISTS", db)
		if _, err := s.run.admin(ctx, query, nil); err != nil {
			return fmt.Errorf("failed to create database %q: %w", db, err)
		}
		if err := util.Sleep(ctx, s.settleDelay); err != nil {
			return err
		}
	}

	err = util.RetryErrWithDelay(ctx, settleAttempts, s.settleDelay, func(ctx context.Context) error {
		return s.probe(ctx, db)
	})
	if err != nil {
		return fmt.Errorf("database %q is not available: %w", db, err)
	}
	return nil
}

// Ping checks that the server is reachable with the configured credentials.
func (s *GraphNeo4jStorage) Ping(ctx context.Context) error {
	return s.run.verify(ctx)
}

// Close releases the driver.
func (s *GraphNeo4jStorage) Close(ctx context.Context) error {
	return s.run.close(ctx)
}

var _ store.GraphStore = (*GraphNeo4jStorage)(nil)

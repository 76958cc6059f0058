package leaselock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type heldLock struct {
	token   string
	expires time.Time
}

// memDB interprets the lock statements against an in-memory table.
type memDB struct {
	mu      sync.Mutex
	locks   map[string]heldLock
	schema  int
	stolen  bool
	release int
}

func newMemDB() *memDB {
	return &memDB{locks: map[string]heldLock{}}
}

func (m *memDB) ExecuteLock(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key, _ := params["key"].(string)
	token, _ := params["token"].(string)
	ttl, _ := params["ttl"].(int64)
	row := []map[string]any{{"lock_key": key}}

	switch query {
	case constraintCypher:
		m.schema++
		return nil, nil
	case tryAcquireCypher:
		held, ok := m.locks[key]
		if ok && held.token != token && held.expires.After(time.Now()) {
			return nil, nil
		}
		m.locks[key] = heldLock{token: token, expires: time.Now().Add(time.Duration(ttl) * time.Millisecond)}
		return row, nil
	case renewCypher:
		held, ok := m.locks[key]
		if m.stolen || !ok || held.token != token {
			return nil, nil
		}
		held.expires = time.Now().Add(time.Duration(ttl) * time.Millisecond)
		m.locks[key] = held
		return row, nil
	case releaseCypher:
		m.release++
		if held, ok := m.locks[key]; ok && held.token == token {
			delete(m.locks, key)
		}
		return nil, nil
	}
	return nil, errors.New("unexpected statement")
}

func TestAcquire_Exclusive(t *testing.T) {
	db := newMemDB()
	c := New(db)
	ctx := context.Background()

	first, err := c.Acquire(ctx, "ingest:research", Options{TTL: time.Minute})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := c.Acquire(ctx, "ingest:research", Options{TTL: time.Minute}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, err := c.Acquire(ctx, "ingest:other", Options{TTL: time.Minute}); err != nil {
		t.Fatalf("independent key should be free: %v", err)
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if first.Context.Err() == nil {
		t.Fatalf("expected lease context to be cancelled on release")
	}
	second, err := c.Acquire(ctx, "ingest:research", Options{TTL: time.Minute})
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	second.Release(ctx)

	if db.schema != 1 {
		t.Fatalf("expected the constraint to be created once, got %d", db.schema)
	}
}

func TestAcquire_ExpiredLeaseIsTaken(t *testing.T) {
	db := newMemDB()
	db.locks["registry"] = heldLock{token: "crashed", expires: time.Now().Add(-time.Second)}

	l, err := New(db).Acquire(context.Background(), "registry", Options{TTL: time.Minute})
	if err != nil {
		t.Fatalf("expected expired lease to be taken over, got %v", err)
	}
	defer l.Release(context.Background())
	if db.locks["registry"].token != l.Token {
		t.Fatalf("lock not owned by new lease")
	}
}

func TestAcquire_Wait(t *testing.T) {
	db := newMemDB()
	c := New(db)
	ctx := context.Background()

	held, err := c.Acquire(ctx, "k", Options{TTL: time.Minute})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	go func() {
		time.Sleep(50 * time.Millisecond)
		held.Release(ctx)
	}()

	l, err := c.Acquire(ctx, "k", Options{TTL: time.Minute, Wait: true, WaitInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("expected to acquire after waiting, got %v", err)
	}
	l.Release(ctx)
}

func TestAcquire_WaitCancelled(t *testing.T) {
	c := New(newMemDB())
	if _, err := c.Acquire(context.Background(), "k", Options{TTL: time.Minute}); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.Acquire(ctx, "k", Options{TTL: time.Minute, Wait: true, WaitInterval: 5 * time.Millisecond})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestLease_Lost(t *testing.T) {
	db := newMemDB()
	c := New(db)

	err := c.WithLease(context.Background(), "k", Options{TTL: 2 * time.Second, RenewEvery: time.Second}, func(ctx context.Context) error {
		db.mu.Lock()
		db.stolen = true
		db.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, ErrLost) {
		t.Fatalf("expected ErrLost, got %v", err)
	}
	if db.release != 1 {
		t.Fatalf("expected one release, got %d", db.release)
	}
}

func TestAcquire_EmptyKey(t *testing.T) {
	if _, err := New(newMemDB()).Acquire(context.Background(), "", Options{}); err == nil {
		t.Fatalf("expected an error for an empty key")
	}
}

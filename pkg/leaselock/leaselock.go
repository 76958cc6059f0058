package leaselock

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrBusy = errors.New("lease lock busy")
	ErrLost = errors.New("lease lock lost")
)

// dbConn runs a write statement against the database holding the locks.
type dbConn interface {
	ExecuteLock(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// Client hands out leases stored as :AppLock nodes. A lease expires unless
// it is renewed, so a crashed holder cannot block others forever.
type Client struct {
	db dbConn

	schemaMu    sync.Mutex
	schemaReady bool
}

type Options struct {
	TTL        time.Duration
	RenewEvery time.Duration

	Wait         bool
	WaitInterval time.Duration
	WaitJitter   time.Duration

	TokenPrefix string
}

type Lease struct {
	Key   string
	Token string

	// Context is cancelled when the lease is released or lost.
	Context context.Context

	client *Client
	cancel context.CancelCauseFunc

	stopOnce sync.Once
	stopCh   chan struct{}
}

func New(db dbConn) *Client {
	return &Client{db: db}
}

func (c *Client) WithLease(ctx context.Context, key string, opts Options, fn func(ctx context.Context) error) error {
	lease, err := c.Acquire(ctx, key, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = lease.Release(context.Background())
	}()
	if err := fn(lease.Context); err != nil {
		if cause := context.Cause(lease.Context); errors.Is(cause, ErrLost) {
			return errors.Join(err, cause)
		}
		return err
	}
	return nil
}

func (c *Client) ensureSchema(ctx context.Context) error {
	c.schemaMu.Lock()
	defer c.schemaMu.Unlock()
	if c.schemaReady {
		return nil
	}
	if _, err := c.db.ExecuteLock(ctx, constraintCypher, nil); err != nil {
		return err
	}
	c.schemaReady = true
	return nil
}

func (c *Client) Acquire(ctx context.Context, key string, opts Options) (*Lease, error) {
	if key == "" {
		return nil, errors.New("lease lock key is empty")
	}
	if err := c.ensureSchema(ctx); err != nil {
		return nil, err
	}

	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	ttlMs := opts.TTL.Milliseconds()
	if ttlMs <= 0 {
		ttlMs = int64((5 * time.Minute).Milliseconds())
	}
	if opts.RenewEvery <= 0 {
		opts.RenewEvery = max(opts.TTL/2, time.Second)
	}
	if opts.RenewEvery >= opts.TTL {
		opts.RenewEvery = max(opts.TTL/2, time.Second)
	}
	if opts.WaitInterval <= 0 {
		opts.WaitInterval = 250 * time.Millisecond
	}
	if opts.WaitJitter < 0 {
		opts.WaitJitter = 0
	}

	tok, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	token := opts.TokenPrefix + tok

	acquireOnce := func(ctx context.Context) (bool, error) {
		rows, err := c.db.ExecuteLock(ctx, tryAcquireCypher, lockParams(key, token, ttlMs))
		if err != nil {
			return false, err
		}
		return len(rows) > 0, nil
	}

	for {
		ok, err := acquireOnce(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if !opts.Wait {
			return nil, ErrBusy
		}
		if err := sleepWithJitter(ctx, opts.WaitInterval, opts.WaitJitter); err != nil {
			return nil, err
		}
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	l := &Lease{
		Key:     key,
		Token:   token,
		Context: leaseCtx,
		client:  c,
		cancel:  cancel,
		stopCh:  make(chan struct{}),
	}

	go l.renewLoop(opts, ttlMs)

	return l, nil
}

func (l *Lease) Release(ctx context.Context) error {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.cancel(context.Canceled)
	})

	_, err := l.client.db.ExecuteLock(ctx, releaseCypher, lockParams(l.Key, l.Token, 0))
	return err
}

func (l *Lease) renewLoop(opts Options, ttlMs int64) {
	t := time.NewTicker(opts.RenewEvery)
	defer t.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.Context.Done():
			return
		case <-t.C:
			if err := l.renewOnce(ttlMs); err != nil {
				l.cancel(err)
				return
			}
		}
	}
}

func (l *Lease) renewOnce(ttlMs int64) error {
	for attempt := range 3 {
		renewCtx, cancel := context.WithTimeout(l.Context, 15*time.Second)
		rows, err := l.client.db.ExecuteLock(renewCtx, renewCypher, lockParams(l.Key, l.Token, ttlMs))
		cancel()
		if err == nil {
			if len(rows) == 0 {
				return ErrLost
			}
			return nil
		}
		if attempt == 2 {
			return err
		}
		if err := sleepWithJitter(l.Context, 200*time.Millisecond, 0); err != nil {
			return err
		}
	}
	return ErrLost
}

func sleepWithJitter(ctx context.Context, base, jitter time.Duration) error {
	d := base
	if jitter > 0 {
		d += time.Duration(rand.Int64N(int64(jitter) + 1))
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func lockParams(key, token string, ttlMs int64) map[string]any {
	return map[string]any{"key": key, "token": token, "ttl": ttlMs}
}

const constraintCypher = `
CREATE CONSTRAINT app_lock_key IF NOT EXISTS
FOR (l:AppLock) REQUIRE l.lock_key IS UNIQUE
`

const tryAcquireCypher = `
MERGE (l:AppLock {lock_key: $key})
ON CREATE SET l.locked_by = $token,
              l.expires_at = datetime() + duration({milliseconds: $ttl})
WITH l
WHERE l.locked_by = $token OR l.expires_at < datetime()
SET l.locked_by = $token,
    l.expires_at = datetime() + duration({milliseconds: $ttl})
RETURN l.lock_key AS lock_key
`

const renewCypher = `
MATCH (l:AppLock {lock_key: $key, locked_by: $token})
SET l.expires_at = datetime() + duration({milliseconds: $ttl})
RETURN l.lock_key AS lock_key
`

const releaseCypher = `
MATCH (l:AppLock {lock_key: $key, locked_by: $token})
DELETE l
`

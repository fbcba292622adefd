package settings

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"mentorbook/internal/infra/db"

	"github.com/shopspring/decimal"
)

const refreshInterval = 5 * time.Minute

// Store serves platform settings from an in-memory snapshot of the settings
// table. One background goroutine refreshes the snapshot on an interval;
// reads never touch the database. A missing or unparseable key falls back to
// the caller's default, so a wiped table can never take the engine down.
type Store struct {
	db db.DBTX

	mu     sync.RWMutex
	values map[string]string

	kick chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewStore(db db.DBTX) *Store {
	return &Store{
		db:     db,
		values: map[string]string{},
		kick:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start loads the snapshot and launches the refresh loop. A failed initial
// load is logged, not fatal; the loop retries on the next tick.
func (s *Store) Start(ctx context.Context) {
	if err := s.refresh(ctx); err != nil {
		slog.Warn("initial settings load failed", "error", err)
	}
	go s.loop()
}

// Stop terminates the refresh loop and waits for it to exit.
func (s *Store) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Store) loop() {
	defer close(s.done)
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		case <-s.kick:
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s.refresh(ctx); err != nil {
			// stale values beat no values
			slog.Warn("settings refresh failed", "error", err)
		}
		cancel()
	}
}

func (s *Store) GetDecimal(_ context.Context, key string, def decimal.Decimal) decimal.Decimal {
	raw, ok := s.get(key)
	if !ok {
		return def
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		slog.Warn("unparseable decimal setting", "key", key, "value", raw)
		return def
	}
	return d
}

func (s *Store) GetInt(_ context.Context, key string, def int) int {
	raw, ok := s.get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("unparseable int setting", "key", key, "value", raw)
		return def
	}
	return n
}

func (s *Store) GetBool(_ context.Context, key string, def bool) bool {
	raw, ok := s.get(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("unparseable bool setting", "key", key, "value", raw)
		return def
	}
	return b
}

// InvalidateAll nudges the refresh loop so admin setting updates take effect
// without waiting out the interval.
func (s *Store) InvalidateAll() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Store) get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) refresh(ctx context.Context) error {
	rows, err := queryAll(ctx, s.db)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.values = rows
	s.mu.Unlock()
	return nil
}

func queryAll(ctx context.Context, dbtx db.DBTX) (map[string]string, error) {
	rows, err := dbtx.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

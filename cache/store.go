package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Store is a byte-oriented cache backend used for upstream response payloads.
// Misses and backend failures are indistinguishable to callers.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Clear(ctx context.Context) error
}

// MemoryStore is an in-process Store backed by TTL
type MemoryStore struct {
	ttl *TTL[[]byte]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory Store
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{ttl: NewTTL[[]byte](opts...)}
}

// Get returns a copy of the cached payload
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := s.ttl.Get(key)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// Set stores a copy of value
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	s.ttl.Set(key, append([]byte(nil), value...), ttl)
}

// Clear drops all payloads
func (s *MemoryStore) Clear(_ context.Context) error {
	s.ttl.Clear()
	return nil
}

// Len returns the number of stored payloads
func (s *MemoryStore) Len() int {
	return s.ttl.Len()
}

// RunSweeper periodically evicts expired payloads until ctx is done
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	s.ttl.RunSweeper(ctx, interval)
}

// Key builds a deterministic cache key from an operation name and its parameters
func Key(op string, parts ...any) string {
	var sb strings.Builder
	sb.WriteString(op)
	for _, p := range parts {
		sb.WriteByte('|')
		switch v := p.(type) {
		case string:
			sb.WriteString(strconv.Quote(v))
		case int:
			sb.WriteString(strconv.Itoa(v))
		case int64:
			sb.WriteString(strconv.FormatInt(v, 10))
		case interface{ String() string }:
			sb.WriteString(v.String())
		default:
			fmt.Fprintf(&sb, "%v", v)
		}
	}
	return sb.String()
}

// Package preferences keeps the few settings that outlive a session.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/apex/log"
	"github.com/redis/go-redis/v9"
)

// ThemeKey is the key the theme is stored under.
const ThemeKey = "theme"

// Theme is the colour scheme of the front-end.
type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"
)

// DefaultTheme applies when nothing is stored.
const DefaultTheme = Dark

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool { return t == Dark || t == Light }

// Toggled returns the other theme.
func (t Theme) Toggled() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// KV is a string key-value store.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// RedisKV stores values in Redis under a key prefix.
type RedisKV struct {
	Client *redis.Client
	Prefix string
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.Client.Get(ctx, r.Prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.Client.Set(ctx, r.Prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// MemoryKV is a process-local KV.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Store reads and writes the theme.
type Store struct {
	kv KV
}

// NewStore returns a theme store backed by kv.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Theme returns the stored theme, or the default when nothing valid is
// stored or the store is unreachable.
func (s *Store) Theme(ctx context.Context) Theme {
	v, ok, err := s.kv.Get(ctx, ThemeKey)
	if err != nil {
		log.WithError(err).Warn("failed to read theme preference")
		return DefaultTheme
	}
	if t := Theme(v); ok && t.Valid() {
		return t
	}
	return DefaultTheme
}

// SetTheme stores t.
func (s *Store) SetTheme(ctx context.Context, t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("unknown theme %q", t)
	}
	return s.kv.Set(ctx, ThemeKey, string(t))
}

// Toggle switches between dark and light and returns the new theme.
func (s *Store) Toggle(ctx context.Context) (Theme, error) {
	next := s.Theme(ctx).Toggled()
	if err := s.SetTheme(ctx, next); err != nil {
		return s.Theme(ctx), err
	}
	return next, nil
}

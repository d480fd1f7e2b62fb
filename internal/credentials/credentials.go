package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

var ErrNoKey = errors.New("no gemini api key selected")

// Source supplies the API key for a model request. It is consulted on
// every request so a re-selected key applies to the next call.
type Source interface {
	APIKey(ctx context.Context) (string, error)
}

// Selector is the credential-selection surface: whether a key is selected
// and a way to ask for one.
type Selector interface {
	HasSelected(ctx context.Context) bool
	Select(ctx context.Context) error
}

// Store holds the currently selected Gemini API key.
type Store struct {
	mu  sync.RWMutex
	key string
}

func NewStore(key string) *Store {
	return &Store{key: strings.TrimSpace(key)}
}

func (s *Store) APIKey(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == "" {
		return "", ErrNoKey
	}
	return s.key, nil
}

func (s *Store) Set(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrNoKey
	}
	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
	return nil
}

func (s *Store) HasSelected(_ context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key != ""
}

// EnsureSelected is the startup check: when no key is selected the
// selector is opened once.
func EnsureSelected(ctx context.Context, selector Selector) error {
	if selector.HasSelected(ctx) {
		return nil
	}
	slog.Info("No Gemini API key selected")
	if err := selector.Select(ctx); err != nil {
		return fmt.Errorf("select api key: %w", err)
	}
	return nil
}

// Package tokens keeps the two session credentials issued by the remote
// service. Tokens are durable across restarts, and a stored token is trusted
// until a request using it is rejected: expiry is the server's business.
package tokens

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/amonks/artsy/data"
	"github.com/amonks/artsy/db"
	"github.com/golang-jwt/jwt/v5"
)

// Store is safe for concurrent use. Reads are served from memory; writes go
// to the database first and only then to memory, so a failed write never
// leaves memory ahead of disk.
type Store struct {
	db *db.DB

	mu     sync.RWMutex
	tokens map[data.Kind]string
}

// New loads the stored tokens from db.
func New(db *db.DB) (*Store, error) {
	stored, err := db.GetTokens()
	if err != nil {
		return nil, fmt.Errorf("error loading tokens: %w", err)
	}
	tokens := make(map[data.Kind]string, len(stored))
	for kind, value := range stored {
		tokens[data.Kind(kind)] = value
	}
	return &Store{db: db, tokens: tokens}, nil
}

// Get returns the token of the given kind, and whether there is one.
func (s *Store) Get(kind data.Kind) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[kind]
	return token, ok && token != ""
}

// Set stores token under kind. Setting an empty token removes it.
func (s *Store) Set(kind data.Kind, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		if err := s.db.DeleteToken(string(kind)); err != nil {
			return err
		}
		delete(s.tokens, kind)
		return nil
	}

	if err := s.db.SetToken(string(kind), token); err != nil {
		return err
	}
	s.tokens[kind] = token
	return nil
}

// SetAll stores every token in tokens, leaving other kinds alone.
func (s *Store) SetAll(tokens map[data.Kind]string) error {
	for _, kind := range data.Kinds {
		token, ok := tokens[kind]
		if !ok {
			continue
		}
		if err := s.Set(kind, token); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes both tokens.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.ClearTokens(); err != nil {
		return err
	}
	s.tokens = map[data.Kind]string{}
	return nil
}

// Present reports whether either token is stored. It says nothing about
// whether the server would still accept it.
func (s *Store) Present() bool {
	for _, kind := range data.Kinds {
		if token, ok := s.Get(kind); ok && strings.TrimSpace(token) != "" {
			return true
		}
	}
	return false
}

// Expiry reads the exp claim of the stored JWT without verifying it. It is
// for display only; nothing refuses to send an expired token.
func (s *Store) Expiry() (time.Time, bool) {
	token, ok := s.Get(data.JWTToken)
	if !ok {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

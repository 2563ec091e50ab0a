package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/five82/shelf/internal/inventory"
)

// ErrNoSession is returned when no credentials are stored.
var ErrNoSession = errors.New("not logged in")

// record is the on-disk form of a session.
type record struct {
	Token   string         `json:"token"`
	User    inventory.User `json:"user"`
	SavedAt time.Time      `json:"saved_at"`
}

// Store keeps the bearer token and the user it belongs to in a single file.
// It satisfies inventory.TokenStore.
type Store struct {
	path string
	log  *zap.Logger
	now  func() time.Time

	mu  sync.RWMutex
	rec record
}

// Open loads the session file at path. A missing file yields an empty store.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("session path is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{path: path, log: logger.Named("session"), now: time.Now}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	if err := json.Unmarshal(data, &s.rec); err != nil {
		// A corrupt file is treated as logged out rather than fatal.
		s.log.Warn("discarding unreadable session file", zap.String("path", path), zap.Error(err))
		s.rec = record{}
	}
	return s, nil
}

// Token returns the stored bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Token
}

// User returns the user saved with the token.
func (s *Store) User() (inventory.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.User, s.rec.Token != ""
}

// Save stores a login or registration result.
func (s *Store) Save(res inventory.AuthResult) error {
	if res.Token == "" {
		return fmt.Errorf("save session: empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := record{Token: res.Token, User: res.User, SavedAt: s.now().UTC()}
	if err := s.writeLocked(rec); err != nil {
		return err
	}
	s.rec = rec
	s.log.Info("session saved", zap.String("user_id", res.User.ID), zap.String("email", res.User.Email))
	return nil
}

// SetUser refreshes the cached profile, for example after /auth/me.
func (s *Store) SetUser(u inventory.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.Token == "" {
		return ErrNoSession
	}
	if s.rec.User == u {
		return nil
	}
	rec := s.rec
	rec.User = u
	if err := s.writeLocked(rec); err != nil {
		return err
	}
	s.rec = rec
	return nil
}

// Clear forgets the session and removes the file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.rec.Token != ""
	s.rec = record{}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	if had {
		s.log.Info("session cleared")
	}
	return nil
}

// Expiry reads the exp claim of the stored token without verifying its
// signature. The backend remains the authority; this only lets the console
// skip a request it knows will fail.
func (s *Store) Expiry() (time.Time, bool) {
	return tokenExpiry(s.Token())
}

// Expired reports whether the stored token carries an exp claim in the past.
// A token without a readable exp claim is not considered expired.
func (s *Store) Expired() bool {
	exp, ok := s.Expiry()
	return ok && !s.now().Before(exp)
}

func (s *Store) writeLocked(rec record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Chmod(s.path, 0o600)
}

func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

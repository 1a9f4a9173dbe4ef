// ABOUTME: In-memory username/credential store backing login and register.
// ABOUTME: Concurrent map with put-if-absent semantics; passwords are bcrypt hashed.

package auth

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Identity store errors
var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// IdentityStore holds username→password-hash pairs. Persistence is an
// external collaborator's concern; this store only guarantees safe
// concurrent access within one process.
type IdentityStore struct {
	mu    sync.RWMutex
	users map[string][]byte
}

// NewIdentityStore creates an empty identity store.
func NewIdentityStore() *IdentityStore {
	return &IdentityStore{users: make(map[string][]byte)}
}

// Put registers a user. Returns ErrUserExists when the username is taken;
// the check and insert happen under one lock (put-if-absent).
func (s *IdentityStore) Put(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return ErrUserExists
	}
	s.users[username] = hash
	return nil
}

// Exists reports whether a username is registered.
func (s *IdentityStore) Exists(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.users[username]
	return exists
}

// Check verifies a username/password pair. Returns ErrInvalidCredentials
// for unknown users and wrong passwords alike.
func (s *IdentityStore) Check(username, password string) error {
	s.mu.RLock()
	hash, exists := s.users[username]
	s.mu.RUnlock()

	if !exists {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// ABOUTME: Auth gate combining the identity store with the token verifier.
// ABOUTME: Login/register issue tokens; validate gates dispatch requests.

package auth

import (
	"errors"
	"log/slog"
	"time"
)

// Result is the outcome of a login or register call.
type Result struct {
	Success  bool   `json:"success"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Service is the auth gate: it owns the identity store and issues and
// validates bearer tokens for the dispatcher.
type Service struct {
	store    *IdentityStore
	verifier *JWTVerifier
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewService creates the auth gate. A non-positive ttl falls back to
// DefaultTokenTTL.
func NewService(store *IdentityStore, verifier *JWTVerifier, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{
		store:    store,
		verifier: verifier,
		tokenTTL: ttl,
		logger:   logger.With("component", "auth"),
	}
}

// Login checks credentials and issues a token on success.
func (s *Service) Login(username, password string) Result {
	if err := s.store.Check(username, password); err != nil {
		return Result{Success: false, Message: "Invalid credentials"}
	}

	token, err := s.verifier.Generate(username, s.tokenTTL)
	if err != nil {
		s.logger.Error("token generation failed", "username", username, "error", err)
		return Result{Success: false, Message: "Token generation failed"}
	}
	return Result{Success: true, Username: username, Token: token, Message: "ok"}
}

// Register creates a new user and issues a token. Fails when the username
// already exists.
func (s *Service) Register(username, password string) Result {
	if err := s.store.Put(username, password); err != nil {
		if errors.Is(err, ErrUserExists) {
			return Result{Success: false, Message: "User already exists"}
		}
		s.logger.Error("register failed", "username", username, "error", err)
		return Result{Success: false, Message: "Registration failed"}
	}

	token, err := s.verifier.Generate(username, s.tokenTTL)
	if err != nil {
		s.logger.Error("token generation failed", "username", username, "error", err)
		return Result{Success: false, Message: "Token generation failed"}
	}
	return Result{Success: true, Username: username, Token: token, Message: "registered"}
}

// Validate reports whether the Authorization header value (or bare token)
// carries a valid, unexpired token.
func (s *Service) Validate(authHeader string) bool {
	_, err := s.verifier.Verify(authHeader)
	return err == nil
}

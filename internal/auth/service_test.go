// ABOUTME: Tests for the auth gate: register, login, validate.
// ABOUTME: Covers the register-then-login flow and duplicate usernames.

package auth

import (
	"log/slog"
	"sync"
	"testing"
	"time"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	verifier := NewJWTVerifier([]byte("test-secret-key-for-jwt-signing"))
	return NewService(NewIdentityStore(), verifier, time.Hour, slog.Default())
}

func TestService_RegisterThenLogin(t *testing.T) {
	svc := newTestService(t)

	reg := svc.Register("alice", "s3cret")
	if !reg.Success {
		t.Fatalf("Register() = %+v, want success", reg)
	}
	if reg.Token == "" {
		t.Error("Register() returned blank token")
	}
	if reg.Username != "alice" {
		t.Errorf("Register() username = %q, want alice", reg.Username)
	}

	login := svc.Login("alice", "s3cret")
	if !login.Success {
		t.Fatalf("Login() = %+v, want success", login)
	}
	if login.Token == "" {
		t.Error("Login() returned blank token")
	}

	if !svc.Validate("Bearer " + login.Token) {
		t.Error("Validate() rejected a freshly issued token")
	}
}

func TestService_DuplicateRegister(t *testing.T) {
	svc := newTestService(t)

	if res := svc.Register("bob", "pw"); !res.Success {
		t.Fatalf("first Register() = %+v, want success", res)
	}
	res := svc.Register("bob", "other")
	if res.Success {
		t.Fatal("second Register() should fail")
	}
	if res.Message != "User already exists" {
		t.Errorf("message = %q, want %q", res.Message, "User already exists")
	}
}

func TestService_LoginFailures(t *testing.T) {
	svc := newTestService(t)
	if res := svc.Register("carol", "pw"); !res.Success {
		t.Fatalf("Register() = %+v", res)
	}

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "wrong password", username: "carol", password: "nope"},
		{name: "unknown user", username: "nobody", password: "pw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.Login(tt.username, tt.password)
			if res.Success {
				t.Fatal("Login() should fail")
			}
			if res.Message != "Invalid credentials" {
				t.Errorf("message = %q, want %q", res.Message, "Invalid credentials")
			}
			if res.Token != "" {
				t.Error("failed login must not issue a token")
			}
		})
	}
}

func TestService_ValidateRejectsGarbage(t *testing.T) {
	svc := newTestService(t)

	for _, header := range []string{"", "   ", "Bearer ", "Bearer garbage", "random"} {
		if svc.Validate(header) {
			t.Errorf("Validate(%q) = true, want false", header)
		}
	}
}

func TestIdentityStore_ConcurrentRegister(t *testing.T) {
	store := NewIdentityStore()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Put("dave", "pw")
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
		}
	}
	if won != 1 {
		t.Errorf("Put() succeeded %d times, want exactly 1", won)
	}
}

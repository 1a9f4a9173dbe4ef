// ABOUTME: Unit tests for JWT token verification and generation
// ABOUTME: Tests valid tokens, bearer prefixes, tampering, and expiry

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestJWTVerifier_ValidToken(t *testing.T) {
	secret := []byte("test-secret-key-for-jwt-signing")
	verifier := NewJWTVerifier(secret)

	token, err := verifier.Generate("demo", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	got, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != "demo" {
		t.Errorf("Verify() = %q, want %q", got, "demo")
	}
}

func TestJWTVerifier_BearerPrefix(t *testing.T) {
	verifier := NewJWTVerifier([]byte("test-secret-key-for-jwt-signing"))
	token, err := verifier.Generate("demo", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	tests := []struct {
		name  string
		value string
	}{
		{name: "bare token", value: token},
		{name: "standard prefix", value: "Bearer " + token},
		{name: "lowercase prefix", value: "bearer " + token},
		{name: "uppercase prefix", value: "BEARER " + token},
		{name: "padded", value: "  Bearer  " + token + "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := verifier.Verify(tt.value)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if got != "demo" {
				t.Errorf("Verify() = %q, want %q", got, "demo")
			}
		})
	}
}

func TestJWTVerifier_InvalidToken(t *testing.T) {
	verifier := NewJWTVerifier([]byte("test-secret-key-for-jwt-signing"))

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "blank header", token: "   "},
		{name: "bearer without token", token: "Bearer "},
		{name: "garbage", token: "not-a-jwt-token"},
		{name: "two parts", token: "aaaa.bbbb"},
		{name: "malformed JWT", token: "header.payload.signature"},
		{
			name: "wrong secret",
			token: func() string {
				other := NewJWTVerifier([]byte("different-secret"))
				tok, _ := other.Generate("demo", time.Hour)
				return tok
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := verifier.Verify(tt.token); err == nil {
				t.Error("Verify() should have returned an error")
			}
		})
	}
}

func TestJWTVerifier_TamperedSignature(t *testing.T) {
	verifier := NewJWTVerifier([]byte("test-secret-key-for-jwt-signing"))
	token, err := verifier.Generate("demo", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// Flip one byte of the signature segment
	idx := strings.LastIndex(token, ".") + 1
	sig := []byte(token[idx:])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := token[:idx] + string(sig)

	if _, err := verifier.Verify(tampered); err == nil {
		t.Error("Verify() should reject a tampered signature")
	}
}

func TestJWTVerifier_ExpiredToken(t *testing.T) {
	verifier := NewJWTVerifier([]byte("test-secret-key-for-jwt-signing"))

	token, err := verifier.Generate("demo", -time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	_, err = verifier.Verify(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify() error = %v, want ErrExpiredToken", err)
	}
}

func TestStripBearer(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Bearer abc", want: "abc"},
		{in: "bearer abc", want: "abc"},
		{in: "abc", want: "abc"},
		{in: "  Bearer   abc ", want: "abc"},
		{in: "", want: ""},
		{in: "Bearer", want: "Bearer"}, // no trailing space, not a prefix
	}

	for _, tt := range tests {
		if got := StripBearer(tt.in); got != tt.want {
			t.Errorf("StripBearer(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestManager_RoundTrip(t *testing.T) {
	m, err := NewManager("secret", time.Hour, "duochat")
	if err != nil {
		t.Fatal(err)
	}

	token, exp, err := m.GenerateAccessToken("u1", "alice", "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Errorf("expiry %v too soon", exp)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "u1" || claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestManager_Rejects(t *testing.T) {
	m, _ := NewManager("secret", time.Minute, "duochat")
	token, _, _ := m.GenerateAccessToken("u1", "alice", "alice@example.com")

	other, _ := NewManager("other-secret", time.Minute, "duochat")
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: got %v", err)
	}

	otherIssuer, _ := NewManager("secret", time.Minute, "someone-else")
	if _, err := otherIssuer.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong issuer: got %v", err)
	}

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := m.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expired: got %v", err)
	}

	if _, err := m.ValidateToken("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: got %v", err)
	}
}

func TestNewManager_EmptySecret(t *testing.T) {
	if _, err := NewManager("", time.Minute, "duochat"); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("got %v", err)
	}
}

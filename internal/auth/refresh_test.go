package auth

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewRefreshToken(t *testing.T) {
	composite, id, hash, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if !strings.HasPrefix(composite, id+".") {
		t.Fatalf("composite %q does not start with id %q", composite, id)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("id is not a uuid: %v", err)
	}

	parsedID, secret, ok := ParseRefreshToken(composite)
	if !ok {
		t.Fatalf("ParseRefreshToken rejected own output")
	}
	if parsedID != id {
		t.Fatalf("parsed id %q, want %q", parsedID, id)
	}
	if !VerifyRefreshSecret(secret, hash) {
		t.Fatalf("secret does not verify against stored hash")
	}
}

func TestNewRefreshToken_Unique(t *testing.T) {
	c1, _, h1, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	c2, _, h2, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if c1 == c2 || h1 == h2 {
		t.Fatalf("expected distinct tokens")
	}
}

func TestParseRefreshToken_Invalid(t *testing.T) {
	tests := []string{
		"",
		"no-dot",
		".",
		"not-a-uuid.c2VjcmV0",
		uuid.NewString(),
		uuid.NewString() + ".",
		"." + "c2VjcmV0",
	}
	for _, raw := range tests {
		if _, _, ok := ParseRefreshToken(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestVerifyRefreshSecret_Wrong(t *testing.T) {
	_, _, hash, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if VerifyRefreshSecret("forged", hash) {
		t.Fatalf("expected forged secret to fail")
	}
}

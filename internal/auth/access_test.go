package auth

import (
	"testing"
	"time"
)

func TestAccessTokenSignVerify(t *testing.T) {
	signer := NewAccessTokenSigner([]byte("0123456789abcdef0123456789abcdef"), 15*time.Minute)

	raw, err := signer.Sign("user-1", "user", time.Now())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, err := signer.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("UserID: got %q", claims.UserID)
	}
	if claims.UserTypeCode != "user" {
		t.Fatalf("UserTypeCode: got %q", claims.UserTypeCode)
	}
	if claims.TokenID == "" {
		t.Fatalf("expected a token id")
	}
}

func TestAccessTokenVerify_Expired(t *testing.T) {
	signer := NewAccessTokenSigner([]byte("0123456789abcdef0123456789abcdef"), time.Minute)

	raw, err := signer.Sign("user-1", "user", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := signer.Verify(raw); err == nil {
		t.Fatalf("expected expired token to fail verification")
	}
}

func TestAccessTokenVerify_WrongSecret(t *testing.T) {
	signer := NewAccessTokenSigner([]byte("0123456789abcdef0123456789abcdef"), time.Minute)
	other := NewAccessTokenSigner([]byte("fedcba9876543210fedcba9876543210"), time.Minute)

	raw, err := signer.Sign("user-1", "user", time.Now())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := other.Verify(raw); err == nil {
		t.Fatalf("expected token signed with other secret to fail")
	}
}

func TestAccessTokenVerify_Garbage(t *testing.T) {
	signer := NewAccessTokenSigner([]byte("0123456789abcdef0123456789abcdef"), time.Minute)
	for _, raw := range []string{"", "not.a.jwt", "a.b"} {
		if _, err := signer.Verify(raw); err == nil {
			t.Fatalf("expected %q to fail verification", raw)
		}
	}
}

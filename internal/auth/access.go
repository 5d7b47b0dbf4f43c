package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenIssuer = "bossy"

var ErrAccessTokenInvalid = errors.New("access token invalid")

// AccessClaims is the payload of a short-lived signed access token.
type AccessClaims struct {
	UserID       string
	UserTypeCode string
	TokenID      string
}

// AccessTokenSigner issues and verifies HS256 access tokens. The refresh
// credential is the long-lived one; these are self-contained and
// time-boxed, never persisted.
type AccessTokenSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewAccessTokenSigner(secret []byte, ttl time.Duration) AccessTokenSigner {
	secretCopy := make([]byte, len(secret))
	copy(secretCopy, secret)
	return AccessTokenSigner{secret: secretCopy, ttl: ttl}
}

func (s AccessTokenSigner) TTL() time.Duration { return s.ttl }

func (s AccessTokenSigner) Sign(userID, userTypeCode string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":       userID,
		"user_type": userTypeCode,
		"jti":       uuid.NewString(),
		"iss":       accessTokenIssuer,
		"iat":       now.Unix(),
		"exp":       now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (s AccessTokenSigner) Verify(raw string) (AccessClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithIssuer(accessTokenIssuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return AccessClaims{}, ErrAccessTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return AccessClaims{}, ErrAccessTokenInvalid
	}
	sub, _ := claims["sub"].(string)
	userType, _ := claims["user_type"].(string)
	jti, _ := claims["jti"].(string)
	if sub == "" {
		return AccessClaims{}, ErrAccessTokenInvalid
	}

	return AccessClaims{UserID: sub, UserTypeCode: userType, TokenID: jti}, nil
}

package session

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Nishi-Taiga/F-education-sub002/internal/model"
)

var (
	ErrNoToken      = errors.New("missing_token")
	ErrTokenRevoked = errors.New("token_revoked")
)

// Claims mirrors the access tokens minted by the hosted auth backend.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func ParseToken(secret, issuer, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// TokenResolver verifies the auth backend's JWT locally with the shared secret.
type TokenResolver struct {
	secret   string
	issuer   string
	cookie   string
	denylist *Denylist
}

func NewTokenResolver(secret, issuer, cookieName string, denylist *Denylist) *TokenResolver {
	return &TokenResolver{secret: secret, issuer: issuer, cookie: cookieName, denylist: denylist}
}

func (r *TokenResolver) Resolve(ctx context.Context, req *http.Request) (*model.Session, error) {
	raw := AccessToken(req, r.cookie)
	if raw == "" {
		return nil, ErrNoToken
	}
	claims, err := ParseToken(r.secret, r.issuer, raw)
	if err != nil {
		return nil, err
	}
	revoked, err := r.denylist.Revoked(ctx, raw)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	session := &model.Session{
		UserID:      claims.Subject,
		ExpiresAt:   claims.ExpiresAt.Time,
		AccessToken: raw,
	}
	if email := strings.TrimSpace(claims.Email); email != "" {
		session.Email = &email
	}
	return session, nil
}

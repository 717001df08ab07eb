package session

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Nishi-Taiga/F-education-sub002/internal/model"
)

type Resolver interface {
	Resolve(ctx context.Context, req *http.Request) (*model.Session, error)
}

// SoftResolve never fails: every resolution error means "anonymous". The
// second return value reports whether an error other than a missing or
// revoked token was swallowed, so callers can count it.
func SoftResolve(ctx context.Context, resolver Resolver, req *http.Request, timeout time.Duration) (*model.Session, bool) {
	if resolver == nil {
		return nil, false
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	session, err := resolver.Resolve(ctx, req)
	if err != nil {
		if errors.Is(err, ErrNoToken) || errors.Is(err, ErrTokenRevoked) {
			return nil, false
		}
		log.Printf("session resolve failed for %s: %v", req.URL.Path, err)
		return nil, true
	}
	return session, false
}

// AccessToken prefers the Authorization header and falls back to the session cookie.
func AccessToken(req *http.Request, cookieName string) string {
	if token := bearerToken(req.Header.Get("Authorization")); token != "" {
		return token
	}
	if cookieName == "" {
		return ""
	}
	c, err := req.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return strings.Trim(strings.TrimSpace(c.Value), "\"'")
}

func bearerToken(header string) string {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return ""
	}
	return fields[1]
}

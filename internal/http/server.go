package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nishi-Taiga/F-education-sub002/internal/config"
	"github.com/Nishi-Taiga/F-education-sub002/internal/guard"
	"github.com/Nishi-Taiga/F-education-sub002/internal/model"
	"github.com/Nishi-Taiga/F-education-sub002/internal/repository"
	"github.com/Nishi-Taiga/F-education-sub002/internal/session"
)

const (
	requestIDHeader = "X-Request-ID"
	userIDHeader    = "X-Auth-User-Id"
	userEmailHeader = "X-Auth-User-Email"
)

type ProfileStore interface {
	FindProfileByEmail(ctx context.Context, email string) (*model.UserProfile, error)
	MarkProfileCompleted(ctx context.Context, email string, step repository.SetupStep) (*model.UserProfile, error)
}

type CodeExchanger interface {
	ExchangeCodeForSession(ctx context.Context, code, verifier string) (*session.TokenSet, error)
}

type Server struct {
	cfg      config.Config
	guard    *guard.Guard
	auth     CodeExchanger
	profiles ProfileStore
	denylist *session.Denylist
	upstream *httputil.ReverseProxy
}

func NewServer(cfg config.Config, g *guard.Guard, auth CodeExchanger, profiles ProfileStore, denylist *session.Denylist) (*Server, error) {
	target, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		return nil, err
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, errors.New("upstream url must be absolute")
	}
	return &Server{
		cfg:      cfg,
		guard:    g,
		auth:     auth,
		profiles: profiles,
		denylist: denylist,
		upstream: newUpstreamProxy(target),
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.guard.Middleware)

		r.Get("/auth/callback", s.handleAuthCallback)
		r.Get("/api/me", s.handleGetMe)
		r.Post("/api/profile-setup", s.handleProfileSetup)
		r.Post("/api/auth/signout", s.handleSignOut)

		r.Handle("/*", s.upstream)
	})

	return r
}

func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	next := localPath(query.Get("next"), s.cfg.DashboardPath)
	code := strings.TrimSpace(query.Get("code"))
	if code == "" {
		s.redirectToLogin(w, r, "missing_code")
		return
	}

	verifier := ""
	if c, err := r.Cookie(s.cfg.CodeVerifierCookie); err == nil {
		verifier = c.Value
	}

	tokens, err := s.auth.ExchangeCodeForSession(r.Context(), code, verifier)
	if err != nil {
		log.Printf("auth callback exchange failed: %v", err)
		s.redirectToLogin(w, r, "auth_callback_failed")
		return
	}

	s.setCookie(w, s.cfg.AccessTokenCookie, tokens.AccessToken, tokens.Expiry())
	if tokens.RefreshToken != "" {
		s.setCookie(w, s.cfg.RefreshTokenCookie, tokens.RefreshToken, time.Now().UTC().Add(refreshCookieTTL))
	}
	s.clearCookie(w, s.cfg.CodeVerifierCookie)
	http.Redirect(w, r, next, http.StatusTemporaryRedirect)
}

func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request, code string) {
	target := s.cfg.LoginPath + "?" + url.Values{"error": {code}}.Encode()
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

type userSummary struct {
	ID    string  `json:"id"`
	Email *string `json:"email,omitempty"`
}

type profileSummary struct {
	ID                    string `json:"id"`
	Email                 string `json:"email"`
	Role                  string `json:"role"`
	DisplayName           string `json:"displayName"`
	ProfileCompleted      bool   `json:"profileCompleted"`
	TutorProfileCompleted bool   `json:"tutorProfileCompleted"`
}

type meResponse struct {
	User    userSummary     `json:"user"`
	Profile *profileSummary `json:"profile"`
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	sess := guard.SessionFromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "missing_session")
		return
	}

	resp := meResponse{User: userSummary{ID: sess.UserID, Email: sess.Email}}
	if email := sess.EmailAddress(); email != "" {
		profile, err := s.profiles.FindProfileByEmail(r.Context(), email)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		resp.Profile = mapProfile(profile)
	}
	writeJSON(w, http.StatusOK, resp)
}

type profileSetupRequest struct {
	Step string `json:"step"`
}

type profileSetupResponse struct {
	Profile  *profileSummary `json:"profile"`
	Redirect string          `json:"redirect"`
}

func (s *Server) handleProfileSetup(w http.ResponseWriter, r *http.Request) {
	sess := guard.SessionFromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "missing_session")
		return
	}
	var req profileSetupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	step, ok := repository.ParseSetupStep(strings.TrimSpace(req.Step))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_step")
		return
	}
	email := sess.EmailAddress()
	if email == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing_email")
		return
	}

	profile, err := s.profiles.MarkProfileCompleted(r.Context(), email, step)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "profile_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, profileSetupResponse{Profile: mapProfile(profile), Redirect: s.cfg.DashboardPath})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if sess := guard.SessionFromContext(r.Context()); sess != nil && sess.AccessToken != "" {
		if err := s.denylist.Revoke(r.Context(), sess.AccessToken, sess.UserID, sess.ExpiresAt); err != nil {
			log.Printf("sign-out revoke failed for user %s: %v", sess.UserID, err)
		}
	}
	s.clearCookie(w, s.cfg.AccessTokenCookie)
	s.clearCookie(w, s.cfg.RefreshTokenCookie)
	w.WriteHeader(http.StatusNoContent)
}

func mapProfile(profile *model.UserProfile) *profileSummary {
	if profile == nil {
		return nil
	}
	return &profileSummary{
		ID:                    profile.ID,
		Email:                 profile.Email,
		Role:                  string(profile.Role),
		DisplayName:           profile.DisplayName(),
		ProfileCompleted:      profile.ProfileCompleted,
		TutorProfileCompleted: profile.TutorProfileCompleted,
	}
}

// localPath only accepts same-site absolute paths so the callback cannot be used as an open redirect.
func localPath(value, fallback string) string {
	if value == "" || !strings.HasPrefix(value, "/") || strings.HasPrefix(value, "//") || strings.HasPrefix(value, "/\\") {
		return fallback
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Host != "" || parsed.Scheme != "" {
		return fallback
	}
	return value
}

func newUpstreamProxy(target *url.URL) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		r.Host = target.Host
		r.Header.Del(userIDHeader)
		r.Header.Del(userEmailHeader)
		if sess := guard.SessionFromContext(r.Context()); sess != nil {
			r.Header.Set(userIDHeader, sess.UserID)
			if email := sess.EmailAddress(); email != "" {
				r.Header.Set(userEmailHeader, email)
			}
		}
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("upstream error for %s: %v", r.URL.Path, err)
		writeError(w, http.StatusBadGateway, "upstream_unavailable")
	}
	return proxy
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		r.Header.Set(requestIDHeader, id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Printf("[REQ] id=%s %s %s status=%d dur=%s", r.Header.Get(requestIDHeader), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

package routes

import "testing"

func TestClassify(t *testing.T) {
	cases := map[string]Tags{
		"/auth/callback":          Verification | Auth,
		"/auth/callback?code=x":   Verification | Auth,
		"/auth/confirm":           Verification | Auth,
		"/auth/reset/password":    Verification | Auth,
		"/auth":                   Auth,
		"/auth/login":             Auth,
		"/login":                  Auth,
		"/register":               Auth,
		"/signup":                 Auth,
		"/profile-setup":          ProfileSetup,
		"/profile-setup/parent":   ProfileSetup,
		"/profile-setup/tutor":    ProfileSetup,
		"/api/user":               API,
		"/api/profile-setup":      API,
		"/api":                    0,
		"/dashboard":              0,
		"/settings":               0,
		"/":                       0,
		"/tickets/balance":        0,
		"/teacher/bookings/today": 0,
	}
	for path, expect := range cases {
		if got := Classify(path); got != expect {
			t.Fatalf("classify %s: expected %s, got %s", path, expect, got)
		}
	}
}

// Plain prefix matching means /authors and /login-help are tagged as auth pages too.
func TestClassifyIsPlainPrefixMatch(t *testing.T) {
	for _, path := range []string{"/authors", "/login-help", "/signups"} {
		if !Classify(path).Has(Auth) {
			t.Fatalf("expected %s to carry the auth tag", path)
		}
	}
}

func TestTagsString(t *testing.T) {
	if got := Tags(0).String(); got != "other" {
		t.Fatalf("expected other, got %s", got)
	}
	if got := (Verification | Auth).String(); got != "verification|auth" {
		t.Fatalf("expected verification|auth, got %s", got)
	}
}

func TestMatcherExcluded(t *testing.T) {
	m := NewMatcher([]string{"_next/static", "/_next/image", " favicon.ico ", ""})
	excluded := []string{"/_next/static/chunks/app.js", "/_next/image?url=x", "/favicon.ico"}
	for _, path := range excluded {
		if !m.Excluded(path) {
			t.Fatalf("expected %s to be excluded", path)
		}
	}
	included := []string{"/", "/dashboard", "/api/user", "/next/static"}
	for _, path := range included {
		if m.Excluded(path) {
			t.Fatalf("expected %s to pass through the guard", path)
		}
	}
}

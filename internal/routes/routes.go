package routes

import "strings"

type Tags uint8

const (
	Verification Tags = 1 << iota
	Auth
	ProfileSetup
	API
)

var (
	verificationPrefixes = []string{"/auth/callback", "/auth/confirm", "/auth/reset"}
	authPrefixes         = []string{"/auth", "/login", "/register", "/signup"}
	profileSetupPrefixes = []string{"/profile-setup", "/profile-setup/parent", "/profile-setup/tutor"}
)

const apiPrefix = "/api/"

// Classify is a pure function of the path and never touches the network.
func Classify(path string) Tags {
	var tags Tags
	if hasAnyPrefix(path, verificationPrefixes) {
		tags |= Verification
	}
	if hasAnyPrefix(path, authPrefixes) {
		tags |= Auth
	}
	if hasAnyPrefix(path, profileSetupPrefixes) {
		tags |= ProfileSetup
	}
	if strings.HasPrefix(path, apiPrefix) {
		tags |= API
	}
	return tags
}

func (t Tags) Has(tag Tags) bool {
	return t&tag != 0
}

func (t Tags) String() string {
	var names []string
	for _, entry := range []struct {
		tag  Tags
		name string
	}{
		{Verification, "verification"},
		{Auth, "auth"},
		{ProfileSetup, "profile_setup"},
		{API, "api"},
	} {
		if t.Has(entry.tag) {
			names = append(names, entry.name)
		}
	}
	if len(names) == 0 {
		return "other"
	}
	return strings.Join(names, "|")
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Matcher decides which paths skip the guard entirely (static assets and the like).
type Matcher struct {
	excludes []string
}

func NewMatcher(excludes []string) Matcher {
	cleaned := make([]string, 0, len(excludes))
	for _, exclude := range excludes {
		exclude = strings.TrimLeft(strings.TrimSpace(exclude), "/")
		if exclude != "" {
			cleaned = append(cleaned, exclude)
		}
	}
	return Matcher{excludes: cleaned}
}

func (m Matcher) Excluded(path string) bool {
	return hasAnyPrefix(strings.TrimLeft(path, "/"), m.excludes)
}

package guard

import (
	"github.com/Nishi-Taiga/F-education-sub002/internal/model"
	"github.com/Nishi-Taiga/F-education-sub002/internal/routes"
)

type Input struct {
	Tags       routes.Tags
	HasSession bool
	// Profile is nil both when no record matched and when the lookup was skipped or failed.
	Profile *model.UserProfile
}

type Decision struct {
	Redirect bool
	Target   string
	Rule     string
}

const (
	RuleVerification = "verification"
	RuleSignedInAuth = "signed_in_auth_page"
	RuleIncomplete   = "profile_incomplete"
	RuleDefault      = "default"
)

type Engine struct {
	DashboardPath    string
	ProfileSetupPath string
}

// Decide walks the redirect table in order; the first matching rule wins.
// Anonymous requests to ordinary pages are allowed.
func (e Engine) Decide(in Input) Decision {
	switch {
	case in.Tags.Has(routes.Verification):
		return Decision{Rule: RuleVerification}
	case in.HasSession && in.Tags.Has(routes.Auth):
		return Decision{Redirect: true, Target: e.DashboardPath, Rule: RuleSignedInAuth}
	case in.HasSession &&
		!in.Tags.Has(routes.API) &&
		!in.Profile.Completed() &&
		!in.Tags.Has(routes.ProfileSetup):
		return Decision{Redirect: true, Target: e.ProfileSetupPath, Rule: RuleIncomplete}
	}
	return Decision{Rule: RuleDefault}
}

// NeedsProfile reports whether the profile can change the outcome for this request.
func NeedsProfile(tags routes.Tags, hasSession bool) bool {
	return hasSession && !tags.Has(routes.Verification|routes.Auth|routes.API|routes.ProfileSetup)
}

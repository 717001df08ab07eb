package guard

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/Nishi-Taiga/F-education-sub002/internal/model"
	"github.com/Nishi-Taiga/F-education-sub002/internal/routes"
	"github.com/Nishi-Taiga/F-education-sub002/internal/session"
)

type ProfileFinder interface {
	FindProfileByEmail(ctx context.Context, email string) (*model.UserProfile, error)
}

type Options struct {
	Engine         Engine
	Matcher        routes.Matcher
	SessionTimeout time.Duration
	LookupTimeout  time.Duration
	Metrics        *Metrics
}

type Guard struct {
	resolver session.Resolver
	profiles ProfileFinder
	opts     Options
}

func New(resolver session.Resolver, profiles ProfileFinder, opts Options) *Guard {
	return &Guard{resolver: resolver, profiles: profiles, opts: opts}
}

func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.opts.Matcher.Excluded(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		state := &RequestState{Tags: routes.Classify(r.URL.Path)}
		// Verification links must work for everyone, so no network call happens before this check.
		if state.Tags.Has(routes.Verification) {
			decision := g.opts.Engine.Decide(Input{Tags: state.Tags})
			g.opts.Metrics.observeDecision(decision)
			next.ServeHTTP(w, r.WithContext(withState(r.Context(), state)))
			return
		}

		sess, failed := session.SoftResolve(r.Context(), g.resolver, r, g.opts.SessionTimeout)
		if failed {
			g.opts.Metrics.resolveFailed()
		}
		state.Session = sess

		if NeedsProfile(state.Tags, sess != nil) {
			state.Profile = g.lookupProfile(r.Context(), sess)
		}

		decision := g.opts.Engine.Decide(Input{
			Tags:       state.Tags,
			HasSession: sess != nil,
			Profile:    state.Profile,
		})
		g.opts.Metrics.observeDecision(decision)
		if decision.Redirect {
			http.Redirect(w, r, decision.Target, http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r.WithContext(withState(r.Context(), state)))
	})
}

// lookupProfile degrades every failure to "no profile", which the table treats as incomplete.
func (g *Guard) lookupProfile(ctx context.Context, sess *model.Session) *model.UserProfile {
	email := sess.EmailAddress()
	if email == "" || g.profiles == nil {
		return nil
	}
	if g.opts.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.LookupTimeout)
		defer cancel()
	}

	start := time.Now()
	profile, err := g.profiles.FindProfileByEmail(ctx, email)
	g.opts.Metrics.observeLookup(time.Since(start).Seconds())
	if err != nil {
		g.opts.Metrics.lookupFailed()
		log.Printf("profile lookup failed for user %s: %v", sess.UserID, err)
		return nil
	}
	return profile
}

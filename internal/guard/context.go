package guard

import (
	"context"

	"github.com/Nishi-Taiga/F-education-sub002/internal/model"
	"github.com/Nishi-Taiga/F-education-sub002/internal/routes"
)

// RequestState is what the guard learned about one request. It is never shared across requests.
type RequestState struct {
	Tags    routes.Tags
	Session *model.Session
	Profile *model.UserProfile
}

type stateKey struct{}

func withState(ctx context.Context, state *RequestState) context.Context {
	return context.WithValue(ctx, stateKey{}, state)
}

func FromContext(ctx context.Context) *RequestState {
	state, _ := ctx.Value(stateKey{}).(*RequestState)
	return state
}

func SessionFromContext(ctx context.Context) *model.Session {
	if state := FromContext(ctx); state != nil {
		return state.Session
	}
	return nil
}

package feature_flags

import (
	"context"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
)

const (
	UserKind       ldcontext.Kind = "user"
	DeploymentKind ldcontext.Kind = "deployment"
	serviceKey                    = "sandbox-pool-api"
)

type ctxKey struct{}

func CreateContext(ctx context.Context, contexts ...ldcontext.Context) context.Context {
	var val ldcontext.Context

	switch len(contexts) {
	case 0:
		return ctx
	case 1:
		val = contexts[0]
	default:
		val = ldcontext.NewMulti(contexts...)
	}

	return context.WithValue(ctx, ctxKey{}, val)
}

func getContext(ctx context.Context) (ldcontext.Context, bool) {
	if val, ok := ctx.Value(ctxKey{}).(ldcontext.Context); ok {
		return val, ok
	}

	return ldcontext.Context{}, false
}

func UserContext(email string) ldcontext.Context {
	return ldcontext.NewWithKind(UserKind, email)
}

func deploymentContext(name string) ldcontext.Context {
	return ldcontext.NewWithKind(DeploymentKind, name)
}

// mergeContexts keeps the last context of every kind and wraps them in a multi context.
func mergeContexts(contexts []ldcontext.Context) ldcontext.Context {
	byKind := make(map[ldcontext.Kind]ldcontext.Context)
	order := make([]ldcontext.Kind, 0)

	for _, c := range flattenContexts(contexts) {
		if _, seen := byKind[c.Kind()]; !seen {
			order = append(order, c.Kind())
		}
		byKind[c.Kind()] = c
	}

	switch len(order) {
	case 0:
		return ldcontext.NewWithKind(ldcontext.DefaultKind, serviceKey)
	case 1:
		return byKind[order[0]]
	}

	merged := make([]ldcontext.Context, 0, len(order))
	for _, kind := range order {
		merged = append(merged, byKind[kind])
	}

	return ldcontext.NewMulti(merged...)
}

func flattenContexts(contexts []ldcontext.Context) []ldcontext.Context {
	out := make([]ldcontext.Context, 0, len(contexts))
	for _, c := range contexts {
		if c.Multiple() {
			out = append(out, flattenContexts(c.GetAllIndividualContexts(nil))...)

			continue
		}

		out = append(out, c)
	}

	return out
}

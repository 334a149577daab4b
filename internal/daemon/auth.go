package daemon

import (
	"context"
	"net/http"
	"strings"

	"reviewd/internal/config"
	"reviewd/internal/queues"
)

// principal is an authenticated API caller.
type principal struct {
	name  string
	roles map[string]struct{}
}

func (p *principal) hasRole(role string) bool {
	if p == nil {
		return false
	}
	_, ok := p.roles[role]
	return ok
}

// canWork reports whether the caller holds the queue's privilege role.
func (p *principal) canWork(q *queues.Queue) bool {
	return q != nil && p.hasRole(q.Privilege)
}

// authenticator resolves bearer tokens to principals.
type authenticator struct {
	byToken map[string]*principal
}

func newAuthenticator(cfgs []config.Principal) *authenticator {
	a := &authenticator{byToken: make(map[string]*principal, len(cfgs))}
	for _, pc := range cfgs {
		roles := make(map[string]struct{}, len(pc.Roles))
		for _, role := range pc.Roles {
			roles[role] = struct{}{}
		}
		a.byToken[pc.Token] = &principal{name: pc.Name, roles: roles}
	}
	return a
}

// identify extracts the caller from the Authorization header. Returns nil for
// missing, malformed, or unknown tokens.
func (a *authenticator) identify(r *http.Request) *principal {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return nil
	}
	return a.byToken[token]
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p *principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFrom(ctx context.Context) *principal {
	p, _ := ctx.Value(principalKey{}).(*principal)
	return p
}

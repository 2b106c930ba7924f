// Package authz provides identity extraction and role-based policy checks
// for the governance API. Token verification happens upstream at the
// gateway; this package only maps the caller to an actor and their roles.
package authz

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// identityCtxKey is an unexported type used as the context key for Identity.
type identityCtxKey struct{}

// Identity represents the authenticated actor making a request.
type Identity struct {
	Subject string
	Roles   []string
}

// WithIdentity returns a new context with the given Identity attached.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext retrieves the Identity from the context.
// Returns the zero value and false if no identity is set.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok
}

// IdentityMiddleware returns HTTP middleware that extracts the actor identity
// and stores it in the request context. A Bearer token takes precedence; its
// signature is verified upstream at the gateway, so only the claims are read
// here. Without a token the X-Remote-User and X-Remote-Role headers apply,
// and an unidentified request defaults to "anonymous".
func IdentityMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := identityFromRequest(r)
			ctx := WithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFromRequest(r *http.Request) Identity {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if id, ok := identityFromToken(strings.TrimPrefix(auth, "Bearer ")); ok {
			return id
		}
	}

	user := strings.TrimSpace(r.Header.Get("X-Remote-User"))
	if user == "" {
		user = "anonymous"
	}

	var roles []string
	roleHeader := strings.TrimSpace(r.Header.Get("X-Remote-Role"))
	if roleHeader != "" {
		for _, g := range strings.Split(roleHeader, ",") {
			g = strings.TrimSpace(g)
			if g != "" {
				roles = append(roles, g)
			}
		}
	}

	return Identity{Subject: user, Roles: roles}
}

// identityFromToken reads the sub and roles claims of a JWT. The token is
// not verified; verification happens before the request reaches this service.
func identityFromToken(raw string) (Identity, bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return Identity{}, false
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, false
	}

	var roles []string
	if raw, ok := claims["roles"]; ok {
		if list, ok := raw.([]any); ok {
			for _, v := range list {
				if s, ok := v.(string); ok && s != "" {
					roles = append(roles, s)
				}
			}
		}
	}

	return Identity{Subject: sub, Roles: roles}, true
}

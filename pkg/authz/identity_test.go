package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestIdentityContextRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
	}{
		{
			name:     "basic actor",
			identity: Identity{Subject: "alice", Roles: []string{"risk-reviewer"}},
		},
		{
			name:     "actor with multiple roles",
			identity: Identity{Subject: "bob", Roles: []string{"risk-reviewer", "compliance-approver"}},
		},
		{
			name:     "actor with no roles",
			identity: Identity{Subject: "carol", Roles: nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithIdentity(context.Background(), tt.identity)
			got, ok := IdentityFromContext(ctx)
			if !ok {
				t.Fatal("expected identity in context, got none")
			}
			if got.Subject != tt.identity.Subject {
				t.Errorf("Subject = %q, want %q", got.Subject, tt.identity.Subject)
			}
			if len(got.Roles) != len(tt.identity.Roles) {
				t.Fatalf("Roles length = %d, want %d", len(got.Roles), len(tt.identity.Roles))
			}
			for i, r := range got.Roles {
				if r != tt.identity.Roles[i] {
					t.Errorf("Roles[%d] = %q, want %q", i, r, tt.identity.Roles[i])
				}
			}
		})
	}
}

func TestIdentityFromContextMissing(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	if ok {
		t.Error("expected no identity in empty context")
	}
}

func TestIdentityMiddlewareHeaders(t *testing.T) {
	tests := []struct {
		name            string
		userHeader      string
		roleHeader      string
		expectedSubject string
		expectedRoles   []string
	}{
		{
			name:            "both headers present",
			userHeader:      "alice",
			roleHeader:      "risk-reviewer,compliance-approver",
			expectedSubject: "alice",
			expectedRoles:   []string{"risk-reviewer", "compliance-approver"},
		},
		{
			name:            "missing user header defaults to anonymous",
			userHeader:      "",
			roleHeader:      "risk-reviewer",
			expectedSubject: "anonymous",
			expectedRoles:   []string{"risk-reviewer"},
		},
		{
			name:            "missing role header",
			userHeader:      "bob",
			roleHeader:      "",
			expectedSubject: "bob",
			expectedRoles:   nil,
		},
		{
			name:            "roles with spaces and empty segments",
			userHeader:      "carol",
			roleHeader:      " risk-reviewer ,, system-owner ",
			expectedSubject: "carol",
			expectedRoles:   []string{"risk-reviewer", "system-owner"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedID Identity
			var capturedOK bool

			handler := IdentityMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedID, capturedOK = IdentityFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.userHeader != "" {
				req.Header.Set("X-Remote-User", tt.userHeader)
			}
			if tt.roleHeader != "" {
				req.Header.Set("X-Remote-Role", tt.roleHeader)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if !capturedOK {
				t.Fatal("expected identity in context after middleware")
			}
			if capturedID.Subject != tt.expectedSubject {
				t.Errorf("Subject = %q, want %q", capturedID.Subject, tt.expectedSubject)
			}
			if len(capturedID.Roles) != len(tt.expectedRoles) {
				t.Fatalf("Roles length = %d, want %d", len(capturedID.Roles), len(tt.expectedRoles))
			}
			for i, r := range capturedID.Roles {
				if r != tt.expectedRoles[i] {
					t.Errorf("Roles[%d] = %q, want %q", i, r, tt.expectedRoles[i])
				}
			}
		})
	}
}

func TestIdentityMiddlewareBearerToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "dana",
		"roles": []string{"risk-reviewer", "compliance-approver"},
	})
	raw, err := token.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	var capturedID Identity
	handler := IdentityMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID, _ = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	// Token wins over headers.
	req.Header.Set("X-Remote-User", "ignored")

	handler.ServeHTTP(httptest.NewRecorder(), req)

	if capturedID.Subject != "dana" {
		t.Errorf("Subject = %q, want %q", capturedID.Subject, "dana")
	}
	if len(capturedID.Roles) != 2 || capturedID.Roles[0] != "risk-reviewer" || capturedID.Roles[1] != "compliance-approver" {
		t.Errorf("Roles = %v, want [risk-reviewer compliance-approver]", capturedID.Roles)
	}
}

func TestIdentityMiddlewareMalformedBearerToken(t *testing.T) {
	var capturedID Identity
	handler := IdentityMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID, _ = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	req.Header.Set("X-Remote-User", "fallback-user")

	handler.ServeHTTP(httptest.NewRecorder(), req)

	if capturedID.Subject != "fallback-user" {
		t.Errorf("Subject = %q, want fallback to %q", capturedID.Subject, "fallback-user")
	}
}

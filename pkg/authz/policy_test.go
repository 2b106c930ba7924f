package authz

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPolicyAuthorizerCan(t *testing.T) {
	policy := &Policy{
		Roles: map[string][]string{
			"risk-reviewer":       {"assessment.review"},
			"compliance-approver": {"compliance.approve", "lifecycle.transition"},
			"admin":               {"*"},
		},
		Bindings: map[string][]string{
			"alice": {"risk-reviewer"},
			"bob":   {"risk-reviewer", "compliance-approver"},
			"root":  {"admin"},
		},
	}
	authorizer := NewPolicyAuthorizer(policy)

	tests := []struct {
		name   string
		actor  string
		action string
		want   bool
	}{
		{"granted via single role", "alice", "assessment.review", true},
		{"denied action outside role", "alice", "compliance.approve", false},
		{"granted via second role", "bob", "lifecycle.transition", true},
		{"wildcard grants everything", "root", "assessment.submit", true},
		{"unbound actor denied", "mallory", "assessment.review", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authorizer.Can(tt.actor, tt.action); got != tt.want {
				t.Errorf("Can(%q, %q) = %v, want %v", tt.actor, tt.action, got, tt.want)
			}
		})
	}
}

func TestPolicyAuthorizerNilPolicyAllowsAll(t *testing.T) {
	authorizer := NewPolicyAuthorizer(nil)
	if !authorizer.Can("anyone", "lifecycle.transition") {
		t.Error("nil policy should allow every action")
	}
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	content := `roles:
  risk-reviewer:
    - assessment.review
bindings:
  alice:
    - risk-reviewer
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing policy file: %v", err)
	}

	policy, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	if policy == nil {
		t.Fatal("expected policy, got nil")
	}
	if !NewPolicyAuthorizer(policy).Can("alice", "assessment.review") {
		t.Error("loaded policy should grant alice assessment.review")
	}
}

func TestLoadPolicyMissingFile(t *testing.T) {
	policy, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	if policy != nil {
		t.Error("missing file should yield nil policy")
	}
}

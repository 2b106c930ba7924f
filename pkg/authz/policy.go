package authz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy maps actors to roles and roles to the governance actions they may
// perform. A role action of "*" grants everything.
type Policy struct {
	// Roles maps a role name to the actions it grants.
	Roles map[string][]string `yaml:"roles"`
	// Bindings maps an actor subject to its roles.
	Bindings map[string][]string `yaml:"bindings"`
}

// LoadPolicy reads a policy file. A missing path yields nil and no error so
// callers can fall back to allow-all.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read authz policy %s: %w", path, err)
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse authz policy %s: %w", path, err)
	}
	return &p, nil
}

// PolicyAuthorizer answers authorization questions from a static Policy.
// It satisfies the workflow engine's Authorizer interface.
type PolicyAuthorizer struct {
	policy *Policy
}

// NewPolicyAuthorizer wraps a policy. A nil policy allows everything.
func NewPolicyAuthorizer(p *Policy) *PolicyAuthorizer {
	return &PolicyAuthorizer{policy: p}
}

// Can reports whether the actor's roles grant the action.
func (a *PolicyAuthorizer) Can(actor, action string) bool {
	if a.policy == nil {
		return true
	}
	for _, role := range a.policy.Bindings[actor] {
		for _, granted := range a.policy.Roles[role] {
			if granted == "*" || granted == action {
				return true
			}
		}
	}
	return false
}

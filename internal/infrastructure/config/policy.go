package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lion-wasm/lion/internal/domain/constraint"
	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/policy"
)

// rawRule is the YAML shape of one policy.yaml entry. Subject/Object/Action
// are free-form strings resolved against the domain's own constructors
// rather than decoded directly into policy.Rule, for the same
// never-trust-the-wire-shape reason manifest.go keeps rawManifest separate
// from plugin.Manifest.
type rawRule struct {
	ID        string `yaml:"id"`
	Subject   string `yaml:"subject"` // plugin UUID, or "*" for any
	Object    string `yaml:"object"`
	Action    string `yaml:"action"` // allow | deny | audit
	Condition string `yaml:"condition,omitempty"`
}

type rawPolicyFile struct {
	Rules []rawRule `yaml:"rules"`
}

// LoadPolicyRules parses a policy.yaml file (a declarative policy-store rule
// file) into the ordered []policy.Rule the policystore.Store expects,
// preserving file order as evaluation order.
func LoadPolicyRules(path string) ([]policy.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading policy file %s: %w", path, err)
	}
	return ParsePolicyRules(data)
}

// ParsePolicyRules is LoadPolicyRules for already-read bytes.
func ParsePolicyRules(data []byte) ([]policy.Rule, error) {
	var raw rawPolicyFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parsing policy YAML: %w", err)
	}

	rules := make([]policy.Rule, 0, len(raw.Rules))
	for i, r := range raw.Rules {
		rule, err := resolveRule(r)
		if err != nil {
			return nil, fmt.Errorf("config: policy rule %d (%s): %w", i, r.ID, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func resolveRule(r rawRule) (policy.Rule, error) {
	subject := policy.AnySubject()
	if r.Subject != "" && r.Subject != "*" {
		id, err := ids.ParsePluginID(r.Subject)
		if err != nil {
			return policy.Rule{}, fmt.Errorf("invalid subject %q: %w", r.Subject, err)
		}
		subject = policy.ForPlugin(id)
	}

	action, err := parseAction(r.Action)
	if err != nil {
		return policy.Rule{}, err
	}

	var cond constraint.Constraint
	if r.Condition != "" {
		cond, err = constraint.NewExpr(r.Condition)
		if err != nil {
			return policy.Rule{}, fmt.Errorf("invalid condition %q: %w", r.Condition, err)
		}
	}

	return policy.Rule{ID: r.ID, Subject: subject, Object: r.Object, Action: action, Condition: cond}, nil
}

func parseAction(s string) (policy.Action, error) {
	switch s {
	case "allow":
		return policy.ActionAllow, nil
	case "deny":
		return policy.ActionDeny, nil
	case "audit":
		return policy.ActionAudit, nil
	default:
		return 0, fmt.Errorf("unknown action %q", s)
	}
}

// Package audit defines the immutable record produced by every
// authorization decision. Production and storage of records live in
// internal/application/audit and internal/application/checker; this package
// only holds the value type, kept dependency-free so both can import it.
package audit

import (
	"time"

	"github.com/lion-wasm/lion/internal/domain/access"
	"github.com/lion-wasm/lion/internal/domain/ids"
)

// Decision is the outcome of one capability check.
type Decision struct {
	Allowed bool
	Reason  string // set when !Allowed: "NoCapability", "PolicyDeny", "NotGranted", ...
	RuleID  string // set when a policy rule drove the decision
}

// Allow is the zero-reason success decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny builds a failure decision with reason and optional rule id.
func Deny(reason string, ruleID ...string) Decision {
	d := Decision{Allowed: false, Reason: reason}
	if len(ruleID) > 0 {
		d.RuleID = ruleID[0]
	}
	return d
}

// Record is one immutable authorization decision, produced exactly once per
// Checker.Check call. The default capture is kind+target only; Payload is
// populated only when the caller holds an audit-payload-capture capability
// (see internal/application/checker).
type Record struct {
	Timestamp time.Time
	Plugin    ids.PluginID
	Kind      access.Kind
	Target    string
	Decision  Decision
	Payload   map[string]string // opt-in; nil unless payload capture is granted
}

// Package checker implements the fast path invoked on every guarded
// operation: it combines the capability store's composite view, the policy
// store's rules, and the requested access into a single Allow/Deny
// decision, recording exactly one audit record per call.
package checker

import (
	"time"

	"github.com/lion-wasm/lion/internal/application/audit"
	"github.com/lion-wasm/lion/internal/application/capstore"
	"github.com/lion-wasm/lion/internal/application/policystore"
	"github.com/lion-wasm/lion/internal/domain/access"
	domainaudit "github.com/lion-wasm/lion/internal/domain/audit"
	"github.com/lion-wasm/lion/internal/domain/capability"
	"github.com/lion-wasm/lion/internal/domain/constraint"
	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/policy"
)

// Clock abstracts wall-clock time so tests can control "now" without
// sleeping; defaults to time.Now.
type Clock func() time.Time

// Quota supplies named counters (e.g. "requests_today") referenced by
// Constraint expressions, snapshotted fresh for each check.
type Quota interface {
	Snapshot(plugin ids.PluginID) map[string]int64
}

// Checker is the synchronous, deterministic, side-effect-free (besides
// auditing) authorization fast path.
type Checker struct {
	caps              *capstore.Store
	rules             *policystore.Store
	log               *audit.Log
	clock             Clock
	quota             Quota
	captureAuthorized func(ids.PluginID) bool // opt-in audit payload capture
	metrics           MetricsSink
	redactor          PayloadRedactor
}

// PayloadRedactor scrubs secrets out of a captured audit payload before it
// reaches the audit log. internal/infrastructure/redaction.Redactor
// satisfies this exactly.
type PayloadRedactor interface {
	ScrubPayload(payload map[string]string) map[string]string
}

// MetricsSink observes every terminal Check outcome, letting the plugin
// manager maintain its KernelMetrics snapshot without the checker needing to
// know anything about the manager.
type MetricsSink interface {
	RecordCheck(allowed bool)
}

// New builds a Checker. log may be nil to disable auditing (tests only);
// clock and quota default to time.Now and an all-zero quota.
func New(caps *capstore.Store, rules *policystore.Store, log *audit.Log) *Checker {
	return &Checker{caps: caps, rules: rules, log: log, clock: time.Now, quota: zeroQuota{}}
}

// WithClock overrides the clock used for policy condition evaluation.
func (c *Checker) WithClock(clock Clock) *Checker {
	c.clock = clock
	return c
}

// WithQuota overrides the quota source used for policy condition evaluation.
func (c *Checker) WithQuota(q Quota) *Checker {
	c.quota = q
	return c
}

// WithPayloadCapture installs a predicate deciding, per plugin, whether
// audit records may capture full request parameters — an opt-in guarded by
// a capability rather than on by default.
func (c *Checker) WithPayloadCapture(authorized func(ids.PluginID) bool) *Checker {
	c.captureAuthorized = authorized
	return c
}

// WithMetrics installs a sink notified of every terminal Check outcome.
func (c *Checker) WithMetrics(sink MetricsSink) *Checker {
	c.metrics = sink
	return c
}

// WithRedactor installs a scrubber applied to every captured audit
// payload, so opt-in payload capture (see WithPayloadCapture) never
// writes a raw secret into the audit log.
func (c *Checker) WithRedactor(r PayloadRedactor) *Checker {
	c.redactor = r
	return c
}

type zeroQuota struct{}

func (zeroQuota) Snapshot(ids.PluginID) map[string]int64 { return map[string]int64{} }

// Check is the fast path. Evaluation order:
//  1. resolve the plugin's composite capability; absent/empty -> Deny(NoCapability)
//  2. evaluate policy rules for the plugin then for Any, in declared order
//  3. any matching Deny rule (whose condition holds) -> Deny(PolicyDeny, ruleID)
//  4. else if the composite permits the request -> Allow
//  5. else -> Deny(NotGranted)
//
// Audit-only rule matches are recorded but never change the outcome.
func (c *Checker) Check(plugin ids.PluginID, req access.Request) domainaudit.Decision {
	env := constraint.Environment{Now: c.clock(), Quota: c.quotaMap(plugin)}

	composite, ok := c.caps.Composite(plugin)
	if !ok {
		return c.finish(plugin, req, domainaudit.Deny("NoCapability"))
	}

	for _, rule := range c.rules.RulesFor(plugin) {
		if !rule.Matches(plugin, req, env) {
			continue
		}
		switch rule.Action {
		case policy.ActionDeny:
			return c.finish(plugin, req, domainaudit.Deny("PolicyDeny", rule.ID))
		case policy.ActionAudit:
			c.appendOnly(plugin, req, domainaudit.Allow(), rule.ID)
		case policy.ActionAllow:
			// Allow rules only narrow what Deny would otherwise block;
			// the actual grant still comes from the capability itself.
		}
	}

	if composite.Permits(req, env) {
		return c.finish(plugin, req, domainaudit.Allow())
	}
	return c.finish(plugin, req, domainaudit.Deny("NotGranted"))
}

func (c *Checker) quotaMap(plugin ids.PluginID) map[string]int64 {
	if c.quota == nil {
		return map[string]int64{}
	}
	return c.quota.Snapshot(plugin)
}

func (c *Checker) finish(plugin ids.PluginID, req access.Request, d domainaudit.Decision) domainaudit.Decision {
	c.record(plugin, req, d, "")
	if c.metrics != nil {
		c.metrics.RecordCheck(d.Allowed)
	}
	return d
}

func (c *Checker) appendOnly(plugin ids.PluginID, req access.Request, d domainaudit.Decision, ruleID string) {
	c.record(plugin, req, d, ruleID)
}

func (c *Checker) record(plugin ids.PluginID, req access.Request, d domainaudit.Decision, auditRuleID string) {
	if c.log == nil {
		return
	}
	rec := domainaudit.Record{
		Timestamp: c.clock(),
		Plugin:    plugin,
		Kind:      req.Kind,
		Target:    req.Target,
		Decision:  d,
	}
	if auditRuleID != "" && rec.Decision.RuleID == "" {
		rec.Decision.RuleID = auditRuleID
	}
	if c.captureAuthorized != nil && c.captureAuthorized(plugin) {
		rec.Payload = req.Parameters
		if c.redactor != nil {
			rec.Payload = c.redactor.ScrubPayload(rec.Payload)
		}
	}
	c.log.Append(rec)
}

// Aggregator unions capabilities from multiple sources (e.g. a plugin's
// store grants plus a capability delegated to it at runtime) into a
// transient composite for a single check. Delegation
// itself must be authorized by the delegator already holding at least the
// delegated authority — the Aggregator does not re-derive that; callers
// attenuate on the delegator's capability before delegating.
type Aggregator struct {
	sources []capability.Capability
}

// NewAggregator seeds an aggregator with zero or more capabilities.
func NewAggregator(caps ...capability.Capability) *Aggregator {
	return &Aggregator{sources: append([]capability.Capability(nil), caps...)}
}

// Add appends another capability source.
func (a *Aggregator) Add(cap capability.Capability) {
	a.sources = append(a.sources, cap)
}

// Union returns the transient composite of every source.
func (a *Aggregator) Union() capability.Capability {
	return capability.NewComposite(a.sources...)
}

// Permits checks req against the aggregated union.
func (a *Aggregator) Permits(req access.Request, env constraint.Environment) bool {
	return a.Union().Permits(req, env)
}

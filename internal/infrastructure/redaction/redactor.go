// Package redaction scrubs secrets out of anything a plugin can get the
// kernel to write to a durable sink — log lines (lion_log) and captured
// audit payloads (checker.WithPayloadCapture) — before it leaves process
// memory.
package redaction

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

// Redactor scrubs sensitive substrings out of strings. All fields are
// read-only after construction, so a *Redactor is safe for concurrent use
// across every plugin's lion_log calls.
type Redactor struct {
	patterns []*regexp.Regexp
	hashMode bool
	salt     string

	// gitleaksDetector backs broad, maintained secret detection (220+
	// patterns). Nil falls back to patterns alone.
	gitleaksDetector *detect.Detector
}

// Config configures a Redactor.
type Config struct {
	// Patterns are additional regexes to redact, beyond the built-in set
	// (e.g. an org-specific internal token format).
	Patterns []string
	// HashMode replaces a match with a truncated HMAC instead of
	// "[REDACTED]", so two occurrences of the same secret correlate in
	// logs without either one being recoverable.
	HashMode bool
	// Salt keys the HMAC when HashMode is set. Required for HashMode to
	// resist offline correlation against a known secret.
	Salt string
	// DisableGitleaks skips loading the gitleaks default ruleset and
	// scrubs with Patterns (plus the built-ins) only.
	DisableGitleaks bool
}

// New builds a Redactor from cfg. A gitleaks detector load failure is
// non-fatal — the pattern-based fallback still runs — since the kernel's
// own log pipeline must never become unusable because one ruleset failed
// to parse.
func New(cfg Config) (*Redactor, error) {
	r := &Redactor{
		hashMode: cfg.HashMode,
		salt:     cfg.Salt,
		patterns: make([]*regexp.Regexp, 0, len(cfg.Patterns)+len(defaultPatterns)),
	}

	if !cfg.DisableGitleaks {
		if detector, err := newGitleaksDetector(); err == nil {
			r.gitleaksDetector = detector
		}
	}

	for _, p := range defaultPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redaction: compiling default pattern %s: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redaction: compiling custom pattern %s: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}

	return r, nil
}

func newGitleaksDetector() (*detect.Detector, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(strings.NewReader(config.DefaultConfig)); err != nil {
		return nil, fmt.Errorf("reading gitleaks default config: %w", err)
	}

	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("unmarshaling gitleaks config: %w", err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("translating gitleaks config: %w", err)
	}

	return detect.NewDetector(cfg), nil
}

// ScrubString replaces every secret ScrubString's detectors find in input
// with "[REDACTED]" (or a hash, in HashMode). A nil *Redactor is valid and
// returns input unchanged, so callers that never configured redaction
// don't need a separate nil check at every lion_log call.
func (r *Redactor) ScrubString(input string) string {
	if r == nil || input == "" {
		return input
	}

	result := input

	if r.gitleaksDetector != nil {
		findings := r.gitleaksDetector.Detect(detect.Fragment{Raw: result})
		for _, finding := range findings {
			result = strings.ReplaceAll(result, finding.Secret, r.replacement(finding.Secret))
		}
	}

	for _, re := range r.patterns {
		result = re.ReplaceAllStringFunc(result, r.replacement)
	}

	return result
}

// ScrubPayload scrubs every value of a captured audit payload, preserving
// keys so the audit record's parameter names stay legible while their
// values are sanitized.
func (r *Redactor) ScrubPayload(payload map[string]string) map[string]string {
	if r == nil || payload == nil {
		return payload
	}
	scrubbed := make(map[string]string, len(payload))
	for k, v := range payload {
		scrubbed[k] = r.ScrubString(v)
	}
	return scrubbed
}

func (r *Redactor) replacement(secret string) string {
	if r.hashMode {
		return r.hash(secret)
	}
	return "[REDACTED]"
}

// hash returns a truncated HMAC-SHA256 of secret, keyed by salt, so
// repeated occurrences of the same secret correlate without the secret
// itself being recoverable from the log.
func (r *Redactor) hash(secret string) string {
	mac := hmac.New(sha256.New, []byte(r.salt))
	mac.Write([]byte(secret))
	sum := mac.Sum(nil)
	return fmt.Sprintf("[hmac:%s]", hex.EncodeToString(sum)[:16])
}

// defaultPatterns backstops the gitleaks ruleset (and covers the
// DisableGitleaks case) with a few very high-confidence secret shapes.
var defaultPatterns = []string{
	`\b((?:AKIA|ABIA|ACCA|ASIA)[0-9A-Z]{16})\b`,
	`-----BEGIN [A-Z ]+ PRIVATE KEY-----`,
	`gh[pousr]_[A-Za-z0-9_]{36,255}`,
	`xox[baprs]-([0-9a-zA-Z]{10,48})?`,
}

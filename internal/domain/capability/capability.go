// Package capability implements the unforgeable-permission data model: a
// tagged variant over resource classes plus the composition, attenuation,
// and splitting algebra used for grant, delegation, and partial revocation.
//
// Values of Capability are only ever produced by New* constructors (the
// kernel's grant path) or by Attenuate/Compose/Split on an existing value.
// Nothing in this package (or anywhere else) unmarshals a Capability
// directly from untrusted bytes — see internal/infrastructure/config for the
// deserialization boundary that re-validates and re-mints instead.
package capability

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/lion-wasm/lion/internal/domain/access"
	"github.com/lion-wasm/lion/internal/domain/constraint"
	"github.com/lion-wasm/lion/internal/domain/ids"
)

// Kind identifies which variant a Capability value holds.
type Kind uint8

const (
	KindFileRead Kind = iota
	KindFileWrite
	KindNetworkClient
	KindNetworkServer
	KindMemory
	KindInterPluginComm
	KindPluginCall
	KindCustom
	KindComposite
	KindFilter
	KindProxy
)

func (k Kind) String() string {
	switch k {
	case KindFileRead:
		return "FileRead"
	case KindFileWrite:
		return "FileWrite"
	case KindNetworkClient:
		return "NetworkClient"
	case KindNetworkServer:
		return "NetworkServer"
	case KindMemory:
		return "Memory"
	case KindInterPluginComm:
		return "InterPluginComm"
	case KindPluginCall:
		return "PluginCall"
	case KindCustom:
		return "Custom"
	case KindComposite:
		return "Composite"
	case KindFilter:
		return "Filter"
	case KindProxy:
		return "Proxy"
	default:
		return "Unknown"
	}
}

// PluginSet is either "any plugin" or an explicit set of plugin ids.
type PluginSet struct {
	Any     bool
	Members map[ids.PluginID]struct{}
}

// AnyPlugin is the unrestricted plugin set.
func AnyPlugin() PluginSet { return PluginSet{Any: true} }

// Plugins builds an explicit plugin set from the given ids.
func Plugins(p ...ids.PluginID) PluginSet {
	m := make(map[ids.PluginID]struct{}, len(p))
	for _, id := range p {
		m[id] = struct{}{}
	}
	return PluginSet{Members: m}
}

func (ps PluginSet) contains(id ids.PluginID) bool {
	if ps.Any {
		return true
	}
	_, ok := ps.Members[id]
	return ok
}

func (ps PluginSet) key() string {
	if ps.Any {
		return "any"
	}
	ss := make([]string, 0, len(ps.Members))
	for id := range ps.Members {
		ss = append(ss, id.String())
	}
	sort.Strings(ss)
	return strings.Join(ss, ",")
}

// PatternSet is either "any pattern" or an explicit list of name/topic glob
// patterns (using trailing-"*" matching, see patternMatchesAny).
type PatternSet struct {
	Any      bool
	Patterns []string
}

// AnyPattern is the unrestricted pattern set.
func AnyPattern() PatternSet { return PatternSet{Any: true} }

// Patterns builds an explicit pattern set.
func Patterns(p ...string) PatternSet { return PatternSet{Patterns: p} }

func (ps PatternSet) matches(s string) bool {
	if ps.Any {
		return true
	}
	return patternMatchesAny(s, ps.Patterns)
}

func (ps PatternSet) key() string {
	if ps.Any {
		return "any"
	}
	sorted := append([]string(nil), ps.Patterns...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// Capability is a tagged-variant value type, one of a fixed set of kinds
// (file, network, messaging, ...). The zero value is not a valid
// capability; use the New* constructors.
type Capability struct {
	kind Kind

	// FileRead / FileWrite
	paths []string

	// NetworkClient
	hosts []string
	ports PortSet

	// NetworkServer uses ports only (set above)

	// Memory
	maxBytes uint64
	regions  []string

	// InterPluginComm
	peers  PluginSet
	topics PatternSet

	// PluginCall
	target    ids.PluginID
	functions PatternSet

	// Custom
	tag  string
	data []byte

	// Composite
	components []Capability

	// Filter / Proxy
	inner     *Capability
	predicate constraint.Constraint // Filter
	transform *Mapping              // Proxy
}

// Mapping describes an attenuating request transform for a Proxy capability.
// Name identifies the transform for structural-equality purposes (functions
// are not comparable in Go); Apply performs the actual rewrite.
type Mapping struct {
	Name  string
	Apply func(access.Request) access.Request
}

// Kind reports which variant the capability holds.
func (c Capability) Kind() Kind { return c.kind }

// --- constructors (the only places a Capability value is minted) ---

// NewFileRead grants read access to paths matching any of the given globs.
func NewFileRead(paths ...string) Capability {
	return Capability{kind: KindFileRead, paths: append([]string(nil), paths...)}
}

// NewFileWrite grants write access to paths matching any of the given globs.
func NewFileWrite(paths ...string) Capability {
	return Capability{kind: KindFileWrite, paths: append([]string(nil), paths...)}
}

// NewNetworkClient grants outbound connections to hosts/ports.
func NewNetworkClient(hosts []string, ports PortSet) Capability {
	return Capability{kind: KindNetworkClient, hosts: append([]string(nil), hosts...), ports: append(PortSet(nil), ports...)}
}

// NewNetworkServer grants the right to listen on the given ports.
func NewNetworkServer(ports PortSet) Capability {
	return Capability{kind: KindNetworkServer, ports: append(PortSet(nil), ports...)}
}

// NewMemory grants access to up to maxBytes across the named regions (empty
// regions means "any region", still bounded by maxBytes).
func NewMemory(maxBytes uint64, regions ...string) Capability {
	return Capability{kind: KindMemory, maxBytes: maxBytes, regions: append([]string(nil), regions...)}
}

// NewInterPluginComm grants message delivery to peers on the given topics.
func NewInterPluginComm(peers PluginSet, topics PatternSet) Capability {
	return Capability{kind: KindInterPluginComm, peers: peers, topics: topics}
}

// NewPluginCall grants direct function calls into target, restricted to functions.
func NewPluginCall(target ids.PluginID, functions PatternSet) Capability {
	return Capability{kind: KindPluginCall, target: target, functions: functions}
}

// NewCustom grants an opaque, kernel-unknown authority identified by tag.
// Custom capabilities cannot be meaningfully Split (see ErrUnsupported).
func NewCustom(tag string, data []byte) Capability {
	return Capability{kind: KindCustom, tag: tag, data: append([]byte(nil), data...)}
}

// NewComposite unions the authority of components. Structurally-equal
// components (per StructuralKey) are deduplicated at construction time —
// equality is structural, not by identity, since capabilities are plain
// values with no identity of their own outside the store.
func NewComposite(components ...Capability) Capability {
	return Capability{kind: KindComposite, components: dedupe(components)}
}

func dedupe(components []Capability) []Capability {
	seen := make(map[string]struct{}, len(components))
	out := make([]Capability, 0, len(components))
	for _, c := range components {
		k := c.StructuralKey()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

// --- algebra ---

// Permits evaluates whether the capability authorizes the request, given
// the current environment (time, quota counters) for any embedded
// Constraint. It is synchronous and allocation-free except when walking a
// Composite's components.
func (c Capability) Permits(r access.Request, env constraint.Environment) bool {
	switch c.kind {
	case KindFileRead:
		return r.Kind == access.KindFileRead && pathMatchesAny(r.Target, c.paths)
	case KindFileWrite:
		return r.Kind == access.KindFileWrite && pathMatchesAny(r.Target, c.paths)
	case KindNetworkClient:
		if r.Kind != access.KindNetConnect {
			return false
		}
		port, ok := parsePort(r.Port())
		if !ok {
			return false
		}
		return hostMatchesAny(r.Target, c.hosts) && c.ports.Contains(port)
	case KindNetworkServer:
		if r.Kind != access.KindNetListen {
			return false
		}
		port, ok := parsePort(r.Port())
		if !ok {
			return false
		}
		return c.ports.Contains(port)
	case KindMemory:
		if r.Kind != access.KindMemRead && r.Kind != access.KindMemWrite {
			return false
		}
		if len(c.regions) > 0 && !containsString(c.regions, r.Target) {
			return false
		}
		if c.maxBytes > 0 {
			if n, err := strconv.ParseUint(r.Param("bytes"), 10, 64); err == nil && n > c.maxBytes {
				return false
			}
		}
		return true
	case KindInterPluginComm:
		if r.Kind != access.KindSendMessage {
			return false
		}
		dest, err := ids.ParsePluginID(r.Target)
		if err != nil {
			return false
		}
		return c.peers.contains(dest) && c.topics.matches(r.Param("topic"))
	case KindPluginCall:
		if r.Kind != access.KindCallPlugin {
			return false
		}
		return r.Target == c.target.String() && c.functions.matches(r.Param("function"))
	case KindCustom:
		return r.Kind == access.KindCustom && r.Param("tag") == c.tag
	case KindComposite:
		for _, comp := range c.components {
			if comp.Permits(r, env) {
				return true
			}
		}
		return false
	case KindFilter:
		return c.inner.Permits(r, env) && c.predicate.Evaluate(r, env)
	case KindProxy:
		return c.inner.Permits(c.transform.Apply(r), env)
	default:
		return false
	}
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// Attenuate wraps c in a Filter so that the result permits strictly less
// than c: Attenuate(k).Permits(r) implies c.Permits(r) for every r, because
// the Filter always also requires c.Permits(r). If c is already a Filter,
// the new predicate is conjoined with the existing one instead of nesting
// (flattening trivial filters).
func (c Capability) Attenuate(k constraint.Constraint) Capability {
	if c.kind == KindFilter {
		return Capability{
			kind:      KindFilter,
			inner:     c.inner,
			predicate: constraint.And{c.predicate, k},
		}
	}
	inner := c
	return Capability{kind: KindFilter, inner: &inner, predicate: k}
}

// Compose unions the authority of c and other into a Composite, flattening
// and deduplicating nested composites so Compose(Compose(a,b), c) has the
// same components as Compose(a, b, c).
func (c Capability) Compose(other Capability) Capability {
	var components []Capability
	if c.kind == KindComposite {
		components = append(components, c.components...)
	} else {
		components = append(components, c)
	}
	if other.kind == KindComposite {
		components = append(components, other.components...)
	} else {
		components = append(components, other)
	}
	return NewComposite(components...)
}

// ErrUnsupported is returned by Split when a capability's authority cannot
// be meaningfully divided along an arbitrary predicate (e.g. Custom, whose
// data is opaque to the kernel).
var ErrUnsupported = errors.New("capability: split not supported for this variant")

// Split partitions c's authority by predicate: accepted keeps the part of c
// that also satisfies predicate, rejected keeps the rest. This is the basis
// for CapabilityStore.PartialRevoke: revoking everything matching a
// constraint keeps "rejected" and discards "accepted".
func (c Capability) Split(predicate constraint.Constraint) (accepted, rejected Capability, err error) {
	if c.kind == KindCustom {
		return Capability{}, Capability{}, ErrUnsupported
	}
	accepted = c.Attenuate(predicate)
	rejected = c.Attenuate(constraint.Not{Inner: predicate})
	return accepted, rejected, nil
}

// StructuralKey returns a canonical string representation used for
// structural-equality comparisons (Compose dedup, test assertions). It is
// not a serialization format and carries no stability guarantee across
// versions.
func (c Capability) StructuralKey() string {
	var b strings.Builder
	c.writeKey(&b)
	return b.String()
}

func (c Capability) writeKey(b *strings.Builder) {
	b.WriteString(c.kind.String())
	b.WriteByte('(')
	switch c.kind {
	case KindFileRead, KindFileWrite:
		writeSortedStrings(b, c.paths)
	case KindNetworkClient:
		writeSortedStrings(b, c.hosts)
		b.WriteString(portsKey(c.ports))
	case KindNetworkServer:
		b.WriteString(portsKey(c.ports))
	case KindMemory:
		b.WriteString(strconv.FormatUint(c.maxBytes, 10))
		writeSortedStrings(b, c.regions)
	case KindInterPluginComm:
		b.WriteString(c.peers.key())
		b.WriteString(";")
		b.WriteString(c.topics.key())
	case KindPluginCall:
		b.WriteString(c.target.String())
		b.WriteString(";")
		b.WriteString(c.functions.key())
	case KindCustom:
		b.WriteString(c.tag)
		b.WriteString(":")
		b.Write(c.data)
	case KindComposite:
		for i, comp := range c.components {
			if i > 0 {
				b.WriteByte(',')
			}
			comp.writeKey(b)
		}
	case KindFilter:
		c.inner.writeKey(b)
		b.WriteString("|")
		b.WriteString(c.predicate.String())
	case KindProxy:
		c.inner.writeKey(b)
		b.WriteString("|")
		b.WriteString(c.transform.Name)
	}
	b.WriteByte(')')
}

func portsKey(ps PortSet) string {
	sorted := append(PortSet(nil), ps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lo < sorted[j].Lo })
	var b strings.Builder
	for i, r := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(r.Lo)))
		b.WriteByte('-')
		b.WriteString(strconv.Itoa(int(r.Hi)))
	}
	return b.String()
}

func writeSortedStrings(b *strings.Builder, ss []string) {
	sorted := append([]string(nil), ss...)
	sort.Strings(sorted)
	for i, s := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s)
	}
}

// Equals reports structural equality between c and other.
func (c Capability) Equals(other Capability) bool {
	return c.StructuralKey() == other.StructuralKey()
}

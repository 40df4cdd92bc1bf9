package capability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lion-wasm/lion/internal/domain/access"
	"github.com/lion-wasm/lion/internal/domain/constraint"
	"github.com/lion-wasm/lion/internal/domain/ids"
)

func env() constraint.Environment {
	return constraint.Environment{Now: time.Now()}
}

func TestFileRead_Permits(t *testing.T) {
	tests := []struct {
		name   string
		paths  []string
		target string
		kind   access.Kind
		want   bool
	}{
		{"matches single segment glob", []string{"/tmp/*"}, "/tmp/x", access.KindFileRead, true},
		{"rejects nested path under single star", []string{"/tmp/*"}, "/tmp/sub/x", access.KindFileRead, false},
		{"matches recursive glob", []string{"/tmp/**"}, "/tmp/sub/a", access.KindFileRead, true},
		{"rejects outside recursive root", []string{"/tmp/**"}, "/etc/passwd", access.KindFileRead, false},
		{"rejects traversal", []string{"/tmp/**"}, "/tmp/../etc/passwd", access.KindFileRead, false},
		{"wrong kind denied", []string{"/tmp/**"}, "/tmp/x", access.KindFileWrite, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewFileRead(tt.paths...)
			req := access.Request{Kind: tt.kind, Target: tt.target}
			assert.Equal(t, tt.want, c.Permits(req, env()))
		})
	}
}

func TestNetworkClient_Permits(t *testing.T) {
	c := NewNetworkClient([]string{"*.example.com"}, PortSet{{Lo: 80, Hi: 80}, {Lo: 443, Hi: 443}})

	allow := access.Request{Kind: access.KindNetConnect, Target: "ok.example.com", Parameters: map[string]string{"port": "80"}}
	assert.True(t, c.Permits(allow, env()))

	wrongHost := access.Request{Kind: access.KindNetConnect, Target: "evil.com", Parameters: map[string]string{"port": "80"}}
	assert.False(t, c.Permits(wrongHost, env()))

	wrongPort := access.Request{Kind: access.KindNetConnect, Target: "ok.example.com", Parameters: map[string]string{"port": "8080"}}
	assert.False(t, c.Permits(wrongPort, env()))
}

func TestComposite_UnionSemantics(t *testing.T) {
	a := NewFileRead("/tmp/**")
	b := NewFileRead("/var/log/**")
	composite := a.Compose(b)

	require.Equal(t, KindComposite, composite.Kind())

	reqA := access.Request{Kind: access.KindFileRead, Target: "/tmp/x"}
	reqB := access.Request{Kind: access.KindFileRead, Target: "/var/log/y"}
	reqC := access.Request{Kind: access.KindFileRead, Target: "/etc/passwd"}

	assert.True(t, composite.Permits(reqA, env()))
	assert.True(t, composite.Permits(reqB, env()))
	assert.False(t, composite.Permits(reqC, env()))

	// C.permits(r) <=> A.permits(r) || B.permits(r)
	assert.Equal(t, a.Permits(reqA, env()) || b.Permits(reqA, env()), composite.Permits(reqA, env()))
}

func TestCompose_DeduplicatesStructurallyEqualComponents(t *testing.T) {
	a := NewFileRead("/tmp/**")
	dup := NewFileRead("/tmp/**")
	composite := NewComposite(a, dup, a)

	assert.Len(t, composite.components, 1)
}

func TestAttenuate_IsMonotone(t *testing.T) {
	base := NewFileRead("/tmp/**")
	onlySub, err := constraint.NewExpr(`target startsWith "/tmp/sub/"`)
	require.NoError(t, err)
	narrowed := base.Attenuate(onlySub)

	inScope := access.Request{Kind: access.KindFileRead, Target: "/tmp/sub/a"}
	outOfScope := access.Request{Kind: access.KindFileRead, Target: "/tmp/other/a"}

	assert.True(t, narrowed.Permits(inScope, env()))
	assert.False(t, narrowed.Permits(outOfScope, env()))

	// monotone attenuation: attenuate(c,k).permits(r) => c.permits(r)
	for _, r := range []access.Request{inScope, outOfScope} {
		if narrowed.Permits(r, env()) {
			assert.True(t, base.Permits(r, env()))
		}
	}
}

func TestAttenuate_FlattensNestedFilters(t *testing.T) {
	base := NewFileRead("/tmp/**")
	k1 := constraint.Always(true)
	k2 := constraint.Always(true)

	once := base.Attenuate(k1)
	twice := once.Attenuate(k2)

	assert.Equal(t, KindFilter, twice.Kind())
	assert.Equal(t, once.inner.StructuralKey(), twice.inner.StructuralKey())
}

func TestSplit_PartitionsAuthority(t *testing.T) {
	c := NewNetworkClient([]string{"*.example.com"}, SinglePort(80))
	isEvil, err := constraint.NewExpr(`target == "evil.example.com"`)
	require.NoError(t, err)

	accepted, rejected, err := c.Split(isEvil)
	require.NoError(t, err)

	evilReq := access.Request{Kind: access.KindNetConnect, Target: "evil.example.com", Parameters: map[string]string{"port": "80"}}
	okReq := access.Request{Kind: access.KindNetConnect, Target: "ok.example.com", Parameters: map[string]string{"port": "80"}}

	assert.True(t, accepted.Permits(evilReq, env()))
	assert.False(t, accepted.Permits(okReq, env()))

	assert.False(t, rejected.Permits(evilReq, env()))
	assert.True(t, rejected.Permits(okReq, env()))
}

func TestSplit_CustomCapabilityUnsupported(t *testing.T) {
	c := NewCustom("gpu", []byte("device=0"))
	always := constraint.Always(true)

	_, _, err := c.Split(always)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestPluginCall_Permits(t *testing.T) {
	target := ids.NewPluginID()
	c := NewPluginCall(target, Patterns("do_*"))

	allowed := access.Request{Kind: access.KindCallPlugin, Target: target.String(), Parameters: map[string]string{"function": "do_work"}}
	denied := access.Request{Kind: access.KindCallPlugin, Target: target.String(), Parameters: map[string]string{"function": "other"}}

	assert.True(t, c.Permits(allowed, env()))
	assert.False(t, c.Permits(denied, env()))
}

func TestInterPluginComm_Permits(t *testing.T) {
	peer := ids.NewPluginID()
	c := NewInterPluginComm(Plugins(peer), Patterns("orders.*"))

	allowed := access.Request{Kind: access.KindSendMessage, Target: peer.String(), Parameters: map[string]string{"topic": "orders.created"}}
	wrongTopic := access.Request{Kind: access.KindSendMessage, Target: peer.String(), Parameters: map[string]string{"topic": "other"}}
	wrongPeer := access.Request{Kind: access.KindSendMessage, Target: ids.NewPluginID().String(), Parameters: map[string]string{"topic": "orders.created"}}

	assert.True(t, c.Permits(allowed, env()))
	assert.False(t, c.Permits(wrongTopic, env()))
	assert.False(t, c.Permits(wrongPeer, env()))
}

func TestMemory_BytesLimit(t *testing.T) {
	c := NewMemory(1024, "region-a")

	within := access.Request{Kind: access.KindMemWrite, Target: "region-a", Parameters: map[string]string{"bytes": "512"}}
	over := access.Request{Kind: access.KindMemWrite, Target: "region-a", Parameters: map[string]string{"bytes": "2048"}}
	wrongRegion := access.Request{Kind: access.KindMemWrite, Target: "region-b", Parameters: map[string]string{"bytes": "1"}}

	assert.True(t, c.Permits(within, env()))
	assert.False(t, c.Permits(over, env()))
	assert.False(t, c.Permits(wrongRegion, env()))
}

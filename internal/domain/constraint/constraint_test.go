package constraint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lion-wasm/lion/internal/domain/access"
	"github.com/lion-wasm/lion/internal/domain/ids"
)

func TestExpr_EvaluatesAgainstFlattenedRequest(t *testing.T) {
	e, err := NewExpr(`kind == "file_read" && target startsWith "/tmp/"`)
	require.NoError(t, err)

	req := access.Request{Kind: access.KindFileRead, Target: "/tmp/x"}
	assert.True(t, e.Evaluate(req, Environment{Now: time.Now()}))

	other := access.Request{Kind: access.KindFileWrite, Target: "/tmp/x"}
	assert.False(t, e.Evaluate(other, Environment{Now: time.Now()}))
}

func TestExpr_EvaluatesParamsAndQuota(t *testing.T) {
	e, err := NewExpr(`params.port == "80" && quota.requests_today < 100`)
	require.NoError(t, err)

	req := access.Request{Kind: access.KindNetConnect, Parameters: map[string]string{"port": "80"}}
	env := Environment{Now: time.Now(), Quota: map[string]int64{"requests_today": 5}}
	assert.True(t, e.Evaluate(req, env))

	overQuota := Environment{Now: time.Now(), Quota: map[string]int64{"requests_today": 500}}
	assert.False(t, e.Evaluate(req, overQuota))
}

func TestExpr_PluginIdentity(t *testing.T) {
	plugin := ids.NewPluginID()
	e, err := NewExpr(`plugin == "` + plugin.String() + `"`)
	require.NoError(t, err)

	req := access.Request{Plugin: plugin}
	assert.True(t, e.Evaluate(req, Environment{}))

	other := access.Request{Plugin: ids.NewPluginID()}
	assert.False(t, e.Evaluate(other, Environment{}))
}

func TestNewExpr_CachesCompiledProgram(t *testing.T) {
	expr := `kind == "file_read"`
	a, err := NewExpr(expr)
	require.NoError(t, err)
	b, err := NewExpr(expr)
	require.NoError(t, err)

	assert.Same(t, a.program, b.program, "identical source should reuse the cached compiled program")
}

func TestNewExpr_RejectsInvalidSyntax(t *testing.T) {
	_, err := NewExpr(`this is not valid expr syntax {{{`)
	assert.Error(t, err)
}

func TestCombinators(t *testing.T) {
	req := access.Request{Kind: access.KindFileRead, Target: "/tmp/x"}
	env := Environment{}

	assert.True(t, Always(true).Evaluate(req, env))
	assert.False(t, Always(false).Evaluate(req, env))
	assert.False(t, Not{Inner: Always(true)}.Evaluate(req, env))

	assert.True(t, And{Always(true), Always(true)}.Evaluate(req, env))
	assert.False(t, And{Always(true), Always(false)}.Evaluate(req, env))

	assert.True(t, Or{Always(false), Always(true)}.Evaluate(req, env))
	assert.False(t, Or{Always(false), Always(false)}.Evaluate(req, env))
}

func TestCombinators_String(t *testing.T) {
	assert.Equal(t, "true", Always(true).String())
	assert.Equal(t, "not(true)", Not{Inner: Always(true)}.String())
	assert.Equal(t, "true && false", And{Always(true), Always(false)}.String())
}

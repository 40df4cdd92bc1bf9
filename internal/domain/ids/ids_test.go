package ids

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPluginID_RoundTripsThroughString(t *testing.T) {
	id := NewPluginID()
	parsed, err := ParsePluginID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestPluginID_NewIsUnique(t *testing.T) {
	assert.NotEqual(t, NewPluginID(), NewPluginID())
}

func TestPluginID_IsNil(t *testing.T) {
	assert.True(t, NilPluginID.IsNil())
	assert.False(t, NewPluginID().IsNil())
}

func TestParsePluginID_RejectsGarbage(t *testing.T) {
	_, err := ParsePluginID("not-a-uuid")
	assert.Error(t, err)
}

func TestCapabilityID_RoundTripsThroughString(t *testing.T) {
	id := NewCapabilityID()
	parsed, err := ParseCapabilityID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestPluginIDFromContext_RoundTrips(t *testing.T) {
	id := NewPluginID()
	ctx := WithPluginID(context.Background(), id)

	got, ok := PluginIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestPluginIDFromContext_AbsentByDefault(t *testing.T) {
	_, ok := PluginIDFromContext(context.Background())
	assert.False(t, ok)
}

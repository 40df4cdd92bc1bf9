package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceLimits_WithDefaults_FillsZeroFieldsOnly(t *testing.T) {
	custom := ResourceLimits{MaxMemoryBytes: 42}
	got := custom.WithDefaults()

	assert.Equal(t, uint64(42), got.MaxMemoryBytes, "explicit value is preserved")
	assert.Equal(t, DefaultResourceLimits().MaxCPUFuel, got.MaxCPUFuel)
	assert.Equal(t, DefaultResourceLimits().MaxWallTime, got.MaxWallTime)
}

func TestResourceLimits_WithDefaults_LeavesMessageRateUnlimitedByDefault(t *testing.T) {
	got := ResourceLimits{}.WithDefaults()
	assert.Zero(t, got.MaxMessagesPerSecond)
}

package plugin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   Phase
		want bool
	}{
		{"loaded to initialized", Loaded(), PhaseInitialized, true},
		{"loaded to running is illegal", Loaded(), PhaseRunning, false},
		{"initialized to running", Initialized(), PhaseRunning, true},
		{"running to paused", Running(), PhasePaused, true},
		{"paused to running resumes", Paused(), PhaseRunning, true},
		{"running falls back to loaded after a failed call", Running(), PhaseLoaded, true},
		{"failed can be reloaded", Failed(errors.New("trap")), PhaseLoaded, true},
		{"failed can be unloaded", Failed(errors.New("trap")), PhaseUnloaded, true},
		{"unloaded is terminal", Unloaded(), PhaseLoaded, false},
		{"unloaded cannot re-unload", Unloaded(), PhaseUnloaded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Loaded", Loaded().String())
	assert.Contains(t, Failed(errors.New("boom")).String(), "boom")
}

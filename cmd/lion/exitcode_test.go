package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lion-wasm/lion/internal/application/manager"
	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/infrastructure/bus"
)

func TestExitCodeFor(t *testing.T) {
	id := ids.NewPluginID()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil is success", nil, exitSuccess},
		{"not granted is unauthorized", &manager.NotGrantedError{Plugin: id, Reason: "no match"}, exitUnauthorized},
		{"unknown plugin is unauthorized", &manager.UnknownPluginError{Plugin: id}, exitUnauthorized},
		{"duplicate plugin is unauthorized", &manager.DuplicatePluginError{Plugin: id}, exitUnauthorized},
		{"crash is runtime", &manager.CrashError{Plugin: id, Cause: errors.New("boom")}, exitRuntime},
		{"bus full is runtime", &bus.BusFullError{}, exitRuntime},
		{"user error is user error", userErrorf(errors.New("bad flag")), exitUserError},
		{"unclassified error defaults to runtime, never success", errors.New("whatever"), exitRuntime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(tt.err))
		})
	}
}

func TestUserErrorf(t *testing.T) {
	assert.Nil(t, userErrorf(nil))

	cause := errors.New("bad input")
	err := userErrorf(cause)
	assert.Equal(t, cause.Error(), err.Error())
	assert.ErrorIs(t, err, cause)
}

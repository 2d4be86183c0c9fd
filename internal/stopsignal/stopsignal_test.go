package stopsignal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vk/nodeflow/internal/stopsignal"
)

func TestSignal_SetAndIsSet(t *testing.T) {
	s := stopsignal.New()
	assert.False(t, s.IsSet())

	s.Set()
	assert.True(t, s.IsSet())

	// idempotent
	s.Set()
	assert.True(t, s.IsSet())
}

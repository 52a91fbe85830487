package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	for _, s := range []string{"apply", "destroy", "init"} {
		a, err := ParseAction(s)
		require.NoError(t, err)
		assert.Equal(t, Action(s), a)
	}

	_, err := ParseAction("plan")
	assert.Error(t, err)
}

func TestRun_Duration(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	run := &Run{StartedAt: start}
	assert.False(t, run.Finished())
	assert.Zero(t, run.Duration())

	end := start.Add(90 * time.Second)
	run.FinishedAt = &end
	assert.True(t, run.Finished())
	assert.Equal(t, 90*time.Second, run.Duration())
}

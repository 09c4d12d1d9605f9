package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casservice/internal/config"
	"casservice/internal/engine"
)

func TestBuildEnginesFullLineup(t *testing.T) {
	built := BuildEngines(config.Default())
	require.Len(t, built, 6)

	names := make([]string, len(built))
	for i, e := range built {
		names[i] = e.Name()
	}
	assert.Equal(t, []string{"sympy", "maxima", "sage", "matlab", "gap", "wolframalpha"}, names)
}

func TestBuildOneRecoversPanic(t *testing.T) {
	e := buildOne("broken", func() engine.Engine {
		panic("constructor failed")
	})
	assert.Nil(t, e)
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 10*time.Second, seconds(10))
}

func TestNewApplication(t *testing.T) {
	app, err := NewApplication("test", &Config{})
	require.NoError(t, err)
	assert.NotNil(t, app.Dispatcher())
	assert.Len(t, app.Dispatcher().Engines(), 6)
}

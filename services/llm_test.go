package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestResolveTemperature(t *testing.T) {
	assert.Nil(t, resolveTemperature(nil), "no option means provider default")

	temp := resolveTemperature([]llms.CallOption{llms.WithTemperature(0.3)})
	require.NotNil(t, temp)
	assert.InDelta(t, 0.3, *temp, 1e-6)
}

func TestResolveTemperatureExplicitZero(t *testing.T) {
	temp := resolveTemperature([]llms.CallOption{llms.WithTemperature(0)})
	require.NotNil(t, temp, "an explicit temperature of 0 must not be dropped")
	assert.Zero(t, *temp)
}

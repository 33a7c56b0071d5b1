package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/insider-edge/pkg/config"
)

func TestStandardSet(t *testing.T) {
	strategies := Standard(config.StrategyConfig{
		ClusterWindowDays: 30,
		MinClusterSize:    3,
		ConvictionMinUSD:  100_000,
		LagDays:           []int{1, 5},
		HoldDays:          []int{30, 60},
	})
	require.Len(t, strategies, 6)

	names := make(map[string]bool)
	for _, s := range strategies {
		names[s.Name()] = true
	}
	assert.True(t, names["cluster-30d-min3"])
	assert.True(t, names["politician-conviction-100k"])
	assert.True(t, names["lag-1d-hold-30d"])
	assert.True(t, names["lag-5d-hold-60d"])
}

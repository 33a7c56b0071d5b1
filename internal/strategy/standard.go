package strategy

import (
	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/pkg/config"
)

// Standard builds the configured strategy set: the cluster strategy,
// the conviction strategy, and the lag/hold sweep
func Standard(cfg config.StrategyConfig) []contracts.Strategy {
	strategies := []contracts.Strategy{
		&ClusterStrategy{
			WindowDays:     cfg.ClusterWindowDays,
			MinClusterSize: cfg.MinClusterSize,
		},
		&PoliticianConvictionStrategy{
			MinAmountUSD: cfg.ConvictionMinUSD,
			HoldDays:     60,
		},
	}
	return append(strategies, SweepLagTrades(cfg.LagDays, cfg.HoldDays)...)
}

package commands

import (
	"github.com/wonny/insider-edge/internal/contracts"
	"github.com/wonny/insider-edge/internal/enrichment"
	"github.com/wonny/insider-edge/pkg/config"
	"github.com/wonny/insider-edge/pkg/logger"
	"github.com/wonny/insider-edge/pkg/redis"
)

// newProfiler builds the company profile client, or nil when
// enrichment is not configured. Redis failures degrade to an uncached
// client rather than blocking the run.
func newProfiler(cfg *config.Config, log *logger.Logger) contracts.CompanyProfiler {
	if cfg.Enrichment.BaseURL == "" {
		return nil
	}

	var cache *redis.Cache
	if client, err := redis.New(cfg); err != nil {
		log.WithError(err).Warn("Redis unavailable, enrichment cache disabled")
	} else {
		cache = redis.NewCache(client, "enrichment")
	}

	return enrichment.NewClient(cfg.Enrichment, cache, log)
}

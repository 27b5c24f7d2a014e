package service

import (
	"context"
	"time"

	"github.com/pwasut/harnkan/internal/category"
	"github.com/pwasut/harnkan/internal/domain"
	"github.com/pwasut/harnkan/internal/infra/observability"
	"github.com/pwasut/harnkan/internal/port"
	"github.com/pwasut/harnkan/internal/stats"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var statsTracer = otel.Tracer("service/stats")

// StatsService computes the statistics rollup and the cross-bill pending
// ledger. Rollups are cached per user until the next bill write.
type StatsService struct {
	store   port.BillStore
	cache   port.Cache[*domain.StatisticsRollup]
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewStatsService creates the statistics service.
func NewStatsService(
	store port.BillStore,
	cache port.Cache[*domain.StatisticsRollup],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *StatsService {
	return &StatsService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// catalogLookup adapts the static catalog to the aggregation's lookup shape.
func catalogLookup(id string) (name, color string, ok bool) {
	if !category.Known(id) {
		return "", "", false
	}
	c := category.Lookup(id)
	return c.Name, c.Color, true
}

// Rollup returns the full statistics rollup for a user.
func (s *StatsService) Rollup(ctx context.Context, userID string) (*domain.StatisticsRollup, error) {
	ctx, span := statsTracer.Start(ctx, "StatsService.Rollup")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("statistics", time.Since(start))
	}()

	key := statsCacheKey(userID)
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.IncrCacheHit("stats")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("stats")

	bills, err := s.store.ListBills(ctx, userID)
	if err != nil {
		s.metrics.IncrStoreError("bills")
		return nil, err
	}

	rollup := stats.Aggregate(bills, s.now(), catalogLookup)
	s.cache.Set(key, rollup)

	s.logger.Debug("statistics computed",
		zap.String("user_id", userID),
		zap.Int("bill_count", rollup.BillCount),
	)
	return rollup, nil
}

// PendingLedger returns the cross-bill pending ledger for a user.
func (s *StatsService) PendingLedger(ctx context.Context, userID string) ([]domain.PendingParticipant, error) {
	ctx, span := statsTracer.Start(ctx, "StatsService.PendingLedger")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	// Reuse the cached rollup when available: the ledger is part of it.
	if cached, ok := s.cache.Get(statsCacheKey(userID)); ok {
		s.metrics.IncrCacheHit("stats")
		return cached.PendingParticipants, nil
	}
	s.metrics.IncrCacheMiss("stats")

	bills, err := s.store.ListBills(ctx, userID)
	if err != nil {
		s.metrics.IncrStoreError("bills")
		return nil, err
	}

	// The ledger is a field of the rollup, so compute and cache the whole
	// thing; a statistics request right after loads from the cache.
	rollup := stats.Aggregate(bills, s.now(), catalogLookup)
	s.cache.Set(statsCacheKey(userID), rollup)
	return rollup.PendingParticipants, nil
}

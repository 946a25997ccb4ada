package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/serial-registry/internal/core/domain"
	"github.com/rl1809/serial-registry/internal/platform/logger"
	"github.com/rl1809/serial-registry/internal/port"
)

const DefaultTopProducts = 5

type StatisticsOptions struct {
	Location    *time.Location // calendar used for buckets, UTC when nil
	TopProducts int
	OpTimeout   time.Duration
	Clock       func() time.Time
}

type StatisticsService struct {
	repo port.RecordRepository
	log  *logger.Logger
	opts StatisticsOptions
}

func NewStatisticsService(repo port.RecordRepository, log *logger.Logger, opts StatisticsOptions) *StatisticsService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.TopProducts < 1 {
		opts.TopProducts = DefaultTopProducts
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = DefaultOpTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &StatisticsService{repo: repo, log: log.With("service", "StatisticsService"), opts: opts}
}

// Aggregate reads totals, the time window and product names concurrently.
// The reads are not isolated from each other. Any failed read fails the whole
// call; nothing is zero-filled in its place.
func (s *StatisticsService) Aggregate(ctx context.Context, r domain.Range) (domain.StatisticsSnapshot, error) {
	ctx, span := tracer.Start(ctx, "StatisticsService.Aggregate")
	defer span.End()
	span.SetAttributes(attribute.String("statistics.range", string(r)))

	if !r.Valid() {
		return domain.StatisticsSnapshot{}, fmt.Errorf("%w: %q", domain.ErrInvalidRange, r)
	}

	now := s.opts.Clock().In(s.opts.Location)
	start, end := Window(now, r)

	var (
		names   []string
		batches []string
		stamps  []domain.RecordStamp
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opCtx, cancel := context.WithTimeout(gctx, s.opts.OpTimeout)
		defer cancel()
		var err error
		if names, err = s.repo.ProductNames(opCtx); err != nil {
			return fmt.Errorf("product names: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		opCtx, cancel := context.WithTimeout(gctx, s.opts.OpTimeout)
		defer cancel()
		var err error
		if batches, err = s.repo.BatchIDs(opCtx); err != nil {
			return fmt.Errorf("batch ids: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		opCtx, cancel := context.WithTimeout(gctx, s.opts.OpTimeout)
		defer cancel()
		var err error
		if stamps, err = s.repo.QueryByTimeRange(opCtx, start, end); err != nil {
			return fmt.Errorf("time range: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "statistics unavailable")
		s.log.Warn("statistics read failed", "range", r, "error", err)
		return domain.StatisticsSnapshot{}, fmt.Errorf("%w: %w", ErrStatisticsUnavailable, err)
	}

	times := make([]time.Time, len(stamps))
	for i, st := range stamps {
		times[i] = st.CreatedAt
	}

	return domain.StatisticsSnapshot{
		Range:         r,
		TotalSerials:  len(names),
		TotalProducts: countDistinct(names),
		TotalBatches:  countDistinct(batches),
		TimeSeries:    BuildTimeSeries(now, r, times),
		TopProducts:   TopProducts(names, s.opts.TopProducts),
	}, nil
}

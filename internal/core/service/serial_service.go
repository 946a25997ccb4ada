package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/rl1809/serial-registry/internal/core/domain"
	"github.com/rl1809/serial-registry/internal/core/generator"
	"github.com/rl1809/serial-registry/internal/core/payload"
	"github.com/rl1809/serial-registry/internal/platform/logger"
	"github.com/rl1809/serial-registry/internal/port"
)

var tracer = otel.Tracer("github.com/rl1809/serial-registry/internal/core/service")

const (
	DefaultMaxAttempts = 5
	DefaultOpTimeout   = 5 * time.Second
)

type Options struct {
	MaxAttempts int           // insert attempts per record before giving up
	Workers     int           // records inserted concurrently within one batch
	MaxQuantity int           // 0 means unlimited
	OpTimeout   time.Duration // bound on every repository call

	Clock    func() time.Time
	NewID    func() string
	Generate func(domain.GenerationConfig) string
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts < 1 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = DefaultOpTimeout
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Generate == nil {
		o.Generate = generator.Generate
	}
	return o
}

type SerialService struct {
	repo    port.RecordRepository
	encoder *payload.Encoder
	log     *logger.Logger
	opts    Options
}

func NewSerialService(repo port.RecordRepository, encoder *payload.Encoder, log *logger.Logger, opts Options) *SerialService {
	if encoder == nil {
		encoder = payload.NewEncoder("", nil)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &SerialService{
		repo:    repo,
		encoder: encoder,
		log:     log.With("service", "SerialService"),
		opts:    opts.withDefaults(),
	}
}

func (s *SerialService) Encoder() *payload.Encoder {
	return s.encoder
}

// GenerateBatch creates cfg.Quantity records under one fresh batch id and
// returns them in generation order. Uniqueness is left to the repository: a
// conflicting insert is retried with a new candidate up to MaxAttempts times.
// Any failure aborts the batch with a *GenerationError; records already
// inserted are not rolled back.
func (s *SerialService) GenerateBatch(ctx context.Context, productName string, cfg domain.GenerationConfig) ([]domain.SerialRecord, error) {
	ctx, span := tracer.Start(ctx, "SerialService.GenerateBatch")
	defer span.End()

	productName = NormalizeProductName(productName)
	if productName == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrInvalidConfig)
	}
	if err := cfg.Validate(s.opts.MaxQuantity); err != nil {
		return nil, err
	}

	batchID := s.opts.NewID()
	span.SetAttributes(
		attribute.String("batch.id", batchID),
		attribute.String("batch.format", string(cfg.Format)),
		attribute.Int("batch.quantity", cfg.Quantity),
	)

	records := s.allocate(batchID, productName, cfg.Quantity)

	var committed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	issued := 0
	for i := range records {
		if gctx.Err() != nil {
			break
		}
		issued++
		g.Go(func() error {
			if err := s.insertWithRetry(gctx, &records[i], cfg); err != nil {
				return err
			}
			committed.Add(1)
			return nil
		})
	}

	err := g.Wait()
	if err == nil && issued < len(records) {
		err = ctx.Err()
	}
	if err != nil {
		genErr := &GenerationError{BatchID: batchID, Committed: int(committed.Load()), Err: err}
		span.RecordError(genErr)
		span.SetStatus(codes.Error, "generation failed")
		s.log.Error("batch generation failed",
			"batch_id", batchID,
			"requested", cfg.Quantity,
			"committed", genErr.Committed,
			"error", err,
		)
		return nil, genErr
	}

	s.log.Info("batch generated", "batch_id", batchID, "product", productName, "quantity", cfg.Quantity)
	return records, nil
}

// allocate fixes ids and timestamps up front so CreatedAt is non-decreasing in
// generation order even when slots are filled concurrently.
func (s *SerialService) allocate(batchID, productName string, quantity int) []domain.SerialRecord {
	records := make([]domain.SerialRecord, quantity)
	var prev time.Time
	for i := range records {
		ts := s.opts.Clock().UTC()
		if ts.Before(prev) {
			ts = prev
		}
		prev = ts
		records[i] = domain.SerialRecord{
			ID:          s.opts.NewID(),
			ProductName: productName,
			BatchID:     batchID,
			CreatedAt:   ts,
		}
	}
	return records
}

func (s *SerialService) insertWithRetry(ctx context.Context, rec *domain.SerialRecord, cfg domain.GenerationConfig) error {
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec.SerialNumber = s.opts.Generate(cfg)
		rec.CodePayload = s.encoder.Payload(rec.SerialNumber)

		opCtx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
		err := s.repo.Insert(opCtx, *rec)
		cancel()

		switch {
		case err == nil:
			return nil
		case errors.Is(err, port.ErrConflict):
			s.log.Debug("serial collision, regenerating", "batch_id", rec.BatchID, "attempt", attempt)
		default:
			return fmt.Errorf("insert serial: %w", err)
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrRetriesExhausted, s.opts.MaxAttempts)
}

// Verify looks serialNumber up byte for byte. A miss is VerificationInvalid,
// not an error; a repository failure is ErrVerificationUnavailable.
func (s *SerialService) Verify(ctx context.Context, serialNumber string) (domain.Verification, error) {
	ctx, span := tracer.Start(ctx, "SerialService.Verify")
	defer span.End()

	opCtx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()

	rec, err := s.repo.FindBySerialNumber(opCtx, serialNumber)
	switch {
	case err == nil:
		if rec.CodePayload == "" {
			rec.CodePayload = s.encoder.Payload(rec.SerialNumber)
		}
		span.SetAttributes(attribute.Bool("verification.valid", true))
		return domain.Verification{Status: domain.VerificationValid, Record: rec}, nil
	case errors.Is(err, port.ErrNotFound):
		span.SetAttributes(attribute.Bool("verification.valid", false))
		return domain.Verification{Status: domain.VerificationInvalid}, nil
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "verification unavailable")
		s.log.Warn("verification lookup failed", "error", err)
		return domain.Verification{}, fmt.Errorf("%w: %w", ErrVerificationUnavailable, err)
	}
}

// BatchRecords lists what a batch committed, including partial batches left by
// a failed GenerateBatch.
func (s *SerialService) BatchRecords(ctx context.Context, batchID string) ([]domain.SerialRecord, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()

	records, err := s.repo.FindByBatchID(opCtx, batchID)
	if err != nil {
		return nil, fmt.Errorf("find batch %s: %w", batchID, err)
	}
	for i := range records {
		if records[i].CodePayload == "" {
			records[i].CodePayload = s.encoder.Payload(records[i].SerialNumber)
		}
	}
	return records, nil
}

// NormalizeProductName trims and NFC-normalises a product label so visually
// identical names group together in statistics.
func NormalizeProductName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

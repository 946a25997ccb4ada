package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/serial-registry/internal/core/domain"
	"github.com/rl1809/serial-registry/internal/core/service"
	"github.com/rl1809/serial-registry/internal/platform/logger"
)

type GRPCHandler struct {
	serials *service.SerialService
	stats   *service.StatisticsService
	log     *logger.Logger
}

func NewGRPCHandler(serials *service.SerialService, stats *service.StatisticsService, log *logger.Logger) *GRPCHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &GRPCHandler{serials: serials, stats: stats, log: log.With("handler", "GRPCHandler")}
}

func (h *GRPCHandler) GenerateBatch(ctx context.Context, req *GenerateBatchRequest) (*BatchResponse, error) {
	cfg, err := req.config()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	records, err := h.serials.GenerateBatch(ctx, req.ProductName, cfg)
	if err != nil {
		return nil, toStatus(err)
	}
	return toBatchResponse(records[0].BatchID, records), nil
}

func (h *GRPCHandler) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error) {
	if req.SerialNumber == "" {
		return nil, status.Error(codes.InvalidArgument, errEmptySerial.Error())
	}
	v, err := h.serials.Verify(ctx, req.SerialNumber)
	if err != nil {
		return nil, toStatus(err)
	}
	return toVerifyResponse(v), nil
}

func (h *GRPCHandler) Aggregate(ctx context.Context, req *StatisticsRequest) (*StatisticsResponse, error) {
	r, err := domain.ParseRange(req.Range)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	snap, err := h.stats.Aggregate(ctx, r)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStatisticsResponse(snap), nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig), errors.Is(err, domain.ErrInvalidRange):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, service.ErrVerificationUnavailable),
		errors.Is(err, service.ErrStatisticsUnavailable),
		errors.Is(err, service.ErrGenerationFailed):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

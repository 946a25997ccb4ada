package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/serial-registry/internal/adapter/render"
	"github.com/rl1809/serial-registry/internal/adapter/storage"
	"github.com/rl1809/serial-registry/internal/core/domain"
	"github.com/rl1809/serial-registry/internal/core/payload"
	"github.com/rl1809/serial-registry/internal/core/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServices struct {
	serials *service.SerialService
	stats   *service.StatisticsService
}

func newTestServices(t *testing.T) testServices {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := storage.NewRedisAdapter(client, "test")
	encoder := payload.NewEncoder("https://example.test/verify", render.NewQRRenderer(64))
	return testServices{
		serials: service.NewSerialService(repo, encoder, nil, service.Options{Workers: 4, MaxQuantity: 100}),
		stats:   service.NewStatisticsService(repo, nil, service.StatisticsOptions{}),
	}
}

// brokenRepo fails every call as if the store were down.
type brokenRepo struct{}

var errStoreDown = errors.New("store down")

func (brokenRepo) Insert(context.Context, domain.SerialRecord) error { return errStoreDown }
func (brokenRepo) FindBySerialNumber(context.Context, string) (*domain.SerialRecord, error) {
	return nil, errStoreDown
}
func (brokenRepo) FindByBatchID(context.Context, string) ([]domain.SerialRecord, error) {
	return nil, errStoreDown
}
func (brokenRepo) QueryByTimeRange(context.Context, time.Time, time.Time) ([]domain.RecordStamp, error) {
	return nil, errStoreDown
}
func (brokenRepo) ProductNames(context.Context) ([]string, error) { return nil, errStoreDown }
func (brokenRepo) BatchIDs(context.Context) ([]string, error)     { return nil, errStoreDown }

func newBrokenServices() testServices {
	return testServices{
		serials: service.NewSerialService(brokenRepo{}, nil, nil, service.Options{}),
		stats:   service.NewStatisticsService(brokenRepo{}, nil, service.StatisticsOptions{}),
	}
}

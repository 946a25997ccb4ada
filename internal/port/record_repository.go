package port

import (
	"context"
	"errors"
	"time"

	"github.com/rl1809/serial-registry/internal/core/domain"
)

var (
	// ErrConflict is returned by Insert when the serial number is already stored.
	ErrConflict = errors.New("serial number already exists")
	// ErrNotFound is returned by lookups that match no record.
	ErrNotFound = errors.New("record not found")
)

type RecordRepository interface {
	// Insert persists a record atomically, returns ErrConflict if the serial number exists
	Insert(ctx context.Context, record domain.SerialRecord) error

	// FindBySerialNumber is an exact, case-sensitive lookup, returns ErrNotFound on miss
	FindBySerialNumber(ctx context.Context, serialNumber string) (*domain.SerialRecord, error)

	// FindByBatchID returns the records of one batch ordered by creation time
	FindByBatchID(ctx context.Context, batchID string) ([]domain.SerialRecord, error)

	// QueryByTimeRange returns stamps of records created in [start, end), in any order
	QueryByTimeRange(ctx context.Context, start, end time.Time) ([]domain.RecordStamp, error)

	// ProductNames returns one product name per stored record, in any order
	ProductNames(ctx context.Context) ([]string, error)

	// BatchIDs returns the batch ids of stored records, in any order, duplicates allowed
	BatchIDs(ctx context.Context) ([]string, error)
}

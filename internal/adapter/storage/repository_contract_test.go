package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/serial-registry/internal/core/domain"
	"github.com/rl1809/serial-registry/internal/port"
)

var contractBase = time.Date(2031, 3, 14, 9, 26, 53, 589793000, time.UTC)

func contractRecord(serial, product, batch string, offset time.Duration) domain.SerialRecord {
	return domain.SerialRecord{
		ID:           fmt.Sprintf("id-%s-%s", batch, serial),
		ProductName:  product,
		BatchID:      batch,
		SerialNumber: serial,
		CreatedAt:    contractBase.Add(offset),
		CodePayload:  "https://your-domain.com/verify/" + serial,
	}
}

// runRepositoryContract exercises behaviour every RecordRepository must share.
// repo must start empty.
func runRepositoryContract(t *testing.T, repo port.RecordRepository) {
	ctx := context.Background()

	t.Run("insert and find", func(t *testing.T) {
		rec := contractRecord("SN-0001", "Widget", "batch-a", 0)
		require.NoError(t, repo.Insert(ctx, rec))

		got, err := repo.FindBySerialNumber(ctx, "SN-0001")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.ProductName, got.ProductName)
		assert.Equal(t, rec.BatchID, got.BatchID)
		assert.Equal(t, rec.CodePayload, got.CodePayload)
		assert.True(t, rec.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", got.CreatedAt, rec.CreatedAt)
	})

	t.Run("duplicate serial conflicts", func(t *testing.T) {
		dup := contractRecord("SN-0001", "Gadget", "batch-b", time.Second)
		dup.ID = "id-duplicate"
		err := repo.Insert(ctx, dup)
		assert.ErrorIs(t, err, port.ErrConflict)

		got, err := repo.FindBySerialNumber(ctx, "SN-0001")
		require.NoError(t, err)
		assert.Equal(t, "Widget", got.ProductName)
	})

	t.Run("lookup is case sensitive", func(t *testing.T) {
		_, err := repo.FindBySerialNumber(ctx, "sn-0001")
		assert.ErrorIs(t, err, port.ErrNotFound)

		lower := contractRecord("sn-0001", "Widget", "batch-a", time.Millisecond)
		lower.ID = "id-lower-case"
		require.NoError(t, repo.Insert(ctx, lower))
	})

	t.Run("trailing space is distinct", func(t *testing.T) {
		_, err := repo.FindBySerialNumber(ctx, "SN-0001 ")
		assert.ErrorIs(t, err, port.ErrNotFound)

		padded := contractRecord("SN-0001 ", "Widget", "batch-a", 2*time.Millisecond)
		padded.ID = "id-trailing-space"
		require.NoError(t, repo.Insert(ctx, padded))

		got, err := repo.FindBySerialNumber(ctx, "SN-0001 ")
		require.NoError(t, err)
		assert.Equal(t, "id-trailing-space", got.ID)
		assert.Equal(t, "SN-0001 ", got.SerialNumber)

		got, err = repo.FindBySerialNumber(ctx, "SN-0001")
		require.NoError(t, err)
		assert.Equal(t, "id-batch-a-SN-0001", got.ID)
	})

	t.Run("missing serial", func(t *testing.T) {
		_, err := repo.FindBySerialNumber(ctx, "NOPE")
		assert.ErrorIs(t, err, port.ErrNotFound)
	})

	t.Run("batch records in creation order", func(t *testing.T) {
		require.NoError(t, repo.Insert(ctx, contractRecord("B-3", "Gadget", "batch-c", 3*time.Hour)))
		require.NoError(t, repo.Insert(ctx, contractRecord("B-1", "Gadget", "batch-c", time.Hour)))
		require.NoError(t, repo.Insert(ctx, contractRecord("B-2", "Gadget", "batch-c", 2*time.Hour)))

		records, err := repo.FindByBatchID(ctx, "batch-c")
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "B-1", records[0].SerialNumber)
		assert.Equal(t, "B-2", records[1].SerialNumber)
		assert.Equal(t, "B-3", records[2].SerialNumber)

		none, err := repo.FindByBatchID(ctx, "batch-missing")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("time range is half open", func(t *testing.T) {
		start := contractBase.Add(time.Hour)
		end := contractBase.Add(3 * time.Hour)

		stamps, err := repo.QueryByTimeRange(ctx, start, end)
		require.NoError(t, err)
		require.Len(t, stamps, 2)
		for _, st := range stamps {
			assert.Equal(t, "Gadget", st.ProductName)
			assert.False(t, st.CreatedAt.Before(start))
			assert.True(t, st.CreatedAt.Before(end))
		}
	})

	t.Run("product names and batch ids", func(t *testing.T) {
		names, err := repo.ProductNames(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Widget", "Widget", "Widget", "Gadget", "Gadget", "Gadget"}, names)

		ids, err := repo.BatchIDs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"batch-a", "batch-c"}, ids)
	})

	t.Run("concurrent inserts of one serial", func(t *testing.T) {
		var (
			wg        sync.WaitGroup
			successes atomic.Int32
			conflicts atomic.Int32
		)
		for i := range 20 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				rec := contractRecord("RACE-1", "Racer", "batch-race", time.Duration(i)*time.Millisecond)
				rec.ID = fmt.Sprintf("id-race-%d", i)
				err := repo.Insert(ctx, rec)
				switch {
				case err == nil:
					successes.Add(1)
				case errors.Is(err, port.ErrConflict):
					conflicts.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), successes.Load())
		assert.Equal(t, int32(19), conflicts.Load())
	})
}

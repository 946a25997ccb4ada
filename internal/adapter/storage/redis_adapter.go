package storage

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/serial-registry/internal/core/domain"
	"github.com/rl1809/serial-registry/internal/port"
)

const (
	serialKeyPart  = "serial:"
	batchKeyPart   = "batch:"
	createdKeyPart = "created"
	batchesKeyPart = "batches"
	productKeyPart = "products"
)

// insertSerialScript writes the record hash and its indexes only when the
// serial number is not taken yet. Returns 0 on conflict. Scores in the created
// index are unix milliseconds, so range reads re-check the exact timestamp.
var insertSerialScript = redis.NewScript(`
local serialKey = KEYS[1]
if redis.call('EXISTS', serialKey) == 1 then
	return 0
end

redis.call('HSET', serialKey,
	'id', ARGV[1],
	'product_name', ARGV[2],
	'batch_id', ARGV[3],
	'serial_number', ARGV[4],
	'created_at', ARGV[5],
	'code_payload', ARGV[6])
redis.call('ZADD', KEYS[2], ARGV[7], ARGV[4])
redis.call('SADD', KEYS[3], ARGV[3])
redis.call('HINCRBY', KEYS[4], ARGV[2], 1)
redis.call('RPUSH', KEYS[5], ARGV[4])
return 1
`)

type RedisAdapter struct {
	client *redis.Client
	prefix string
}

func NewRedisAdapter(client *redis.Client, prefix string) *RedisAdapter {
	if prefix != "" {
		prefix += ":"
	}
	return &RedisAdapter{client: client, prefix: prefix}
}

func (r *RedisAdapter) key(parts ...string) string {
	k := r.prefix
	for _, p := range parts {
		k += p
	}
	return k
}

func (r *RedisAdapter) Insert(ctx context.Context, record domain.SerialRecord) error {
	keys := []string{
		r.key(serialKeyPart, record.SerialNumber),
		r.key(createdKeyPart),
		r.key(batchesKeyPart),
		r.key(productKeyPart),
		r.key(batchKeyPart, record.BatchID),
	}
	created := record.CreatedAt.UTC()

	result, err := insertSerialScript.Run(ctx, r.client, keys,
		record.ID,
		record.ProductName,
		record.BatchID,
		record.SerialNumber,
		created.Format(time.RFC3339Nano),
		record.CodePayload,
		created.UnixMilli(),
	).Int()
	if err != nil {
		return fmt.Errorf("insert serial: %w", err)
	}
	if result == 0 {
		return port.ErrConflict
	}
	return nil
}

func (r *RedisAdapter) FindBySerialNumber(ctx context.Context, serialNumber string) (*domain.SerialRecord, error) {
	fields, err := r.client.HGetAll(ctx, r.key(serialKeyPart, serialNumber)).Result()
	if err != nil {
		return nil, fmt.Errorf("query serial: %w", err)
	}
	if len(fields) == 0 {
		return nil, port.ErrNotFound
	}
	return recordFromHash(fields)
}

func (r *RedisAdapter) FindByBatchID(ctx context.Context, batchID string) ([]domain.SerialRecord, error) {
	serials, err := r.client.LRange(ctx, r.key(batchKeyPart, batchID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("query batch: %w", err)
	}
	if len(serials) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(serials))
	for i, sn := range serials {
		cmds[i] = pipe.HGetAll(ctx, r.key(serialKeyPart, sn))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("query batch records: %w", err)
	}

	records := make([]domain.SerialRecord, 0, len(cmds))
	for _, cmd := range cmds {
		rec, err := recordFromHash(cmd.Val())
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	slices.SortStableFunc(records, func(a, b domain.SerialRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return records, nil
}

func (r *RedisAdapter) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]domain.RecordStamp, error) {
	serials, err := r.client.ZRangeByScore(ctx, r.key(createdKeyPart), &redis.ZRangeBy{
		Min: strconv.FormatInt(start.UnixMilli(), 10),
		Max: strconv.FormatInt(end.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("query time range: %w", err)
	}
	if len(serials) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.SliceCmd, len(serials))
	for i, sn := range serials {
		cmds[i] = pipe.HMGet(ctx, r.key(serialKeyPart, sn), "created_at", "product_name")
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("query stamps: %w", err)
	}

	stamps := make([]domain.RecordStamp, 0, len(cmds))
	for _, cmd := range cmds {
		vals := cmd.Val()
		createdRaw, _ := vals[0].(string)
		product, _ := vals[1].(string)
		created, err := time.Parse(time.RFC3339Nano, createdRaw)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdRaw, err)
		}
		if created.Before(start) || !created.Before(end) {
			continue
		}
		stamps = append(stamps, domain.RecordStamp{CreatedAt: created, ProductName: product})
	}
	return stamps, nil
}

// ProductNames expands the per-product counters into one entry per record.
func (r *RedisAdapter) ProductNames(ctx context.Context) ([]string, error) {
	counts, err := r.client.HGetAll(ctx, r.key(productKeyPart)).Result()
	if err != nil {
		return nil, fmt.Errorf("query product names: %w", err)
	}
	var names []string
	for name, raw := range counts {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse product count %q: %w", raw, err)
		}
		for range n {
			names = append(names, name)
		}
	}
	return names, nil
}

func (r *RedisAdapter) BatchIDs(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.key(batchesKeyPart)).Result()
	if err != nil {
		return nil, fmt.Errorf("query batch ids: %w", err)
	}
	return ids, nil
}

func recordFromHash(fields map[string]string) (*domain.SerialRecord, error) {
	created, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", fields["created_at"], err)
	}
	return &domain.SerialRecord{
		ID:           fields["id"],
		ProductName:  fields["product_name"],
		BatchID:      fields["batch_id"],
		SerialNumber: fields["serial_number"],
		CreatedAt:    created.UTC(),
		CodePayload:  fields["code_payload"],
	}, nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/rl1809/serial-registry/internal/platform/config"
	"github.com/rl1809/serial-registry/internal/platform/logger"
	"github.com/rl1809/serial-registry/internal/port"
)

// Store is a RecordRepository bound to the connection that backs it.
type Store struct {
	port.RecordRepository
	Driver  string
	closeFn func() error
}

func (s *Store) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// Open connects to the configured driver and prepares its schema.
func Open(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With("driver", cfg.Driver)

	switch cfg.Driver {
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect mysql: %w", err)
		}
		db.SetMaxOpenConns(cfg.MaxOpenConn)
		db.SetMaxIdleConns(cfg.MaxIdleConn)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping mysql: %w", err)
		}
		adapter := NewMySQLAdapter(db)
		if err := adapter.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("connected to store")
		return &Store{RecordRepository: adapter, Driver: cfg.Driver, closeFn: db.Close}, nil

	case "postgres", "sqlite":
		var (
			db  *gorm.DB
			err error
		)
		if cfg.Driver == "postgres" {
			db, err = OpenPostgres(cfg.PostgresDSN)
		} else {
			db, err = OpenSQLite(cfg.SQLitePath)
		}
		if err != nil {
			return nil, err
		}
		adapter := NewGormAdapter(db)
		if err := adapter.Migrate(ctx); err != nil {
			adapter.Close()
			return nil, err
		}
		log.Info("connected to store")
		return &Store{RecordRepository: adapter, Driver: cfg.Driver, closeFn: adapter.Close}, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: cfg.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		log.Info("connected to store", "prefix", cfg.RedisPrefix)
		return &Store{RecordRepository: NewRedisAdapter(rdb, cfg.RedisPrefix), Driver: cfg.Driver, closeFn: rdb.Close}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

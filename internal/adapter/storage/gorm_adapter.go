package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/rl1809/serial-registry/internal/core/domain"
	"github.com/rl1809/serial-registry/internal/port"
)

const pgUniqueViolation = "23505"

type serialRow struct {
	ID           string    `gorm:"primaryKey;size:36"`
	ProductName  string    `gorm:"size:255;not null"`
	BatchID      string    `gorm:"size:36;not null;index"`
	SerialNumber string    `gorm:"size:191;not null;uniqueIndex"`
	CreatedAt    time.Time `gorm:"not null;index"`
	CodePayload  string    `gorm:"type:text;not null"`
}

func (serialRow) TableName() string { return "serial_numbers" }

func (r serialRow) toDomain() domain.SerialRecord {
	return domain.SerialRecord{
		ID:           r.ID,
		ProductName:  r.ProductName,
		BatchID:      r.BatchID,
		SerialNumber: r.SerialNumber,
		CreatedAt:    r.CreatedAt.UTC(),
		CodePayload:  r.CodePayload,
	}
}

type stampRow struct {
	CreatedAt   time.Time
	ProductName string
}

// GormAdapter stores serial records through gorm. It backs both the postgres
// and sqlite drivers.
type GormAdapter struct {
	db *gorm.DB
}

func NewGormAdapter(db *gorm.DB) *GormAdapter {
	return &GormAdapter{db: db}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}
}

func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a single-connection sqlite database in WAL mode.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func (g *GormAdapter) Migrate(ctx context.Context) error {
	if err := g.db.WithContext(ctx).AutoMigrate(&serialRow{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (g *GormAdapter) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (g *GormAdapter) Insert(ctx context.Context, record domain.SerialRecord) error {
	row := serialRow{
		ID:           record.ID,
		ProductName:  record.ProductName,
		BatchID:      record.BatchID,
		SerialNumber: record.SerialNumber,
		CreatedAt:    record.CreatedAt.UTC(),
		CodePayload:  record.CodePayload,
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicateKey(err) {
			return port.ErrConflict
		}
		return fmt.Errorf("insert serial: %w", err)
	}
	return nil
}

func (g *GormAdapter) FindBySerialNumber(ctx context.Context, serialNumber string) (*domain.SerialRecord, error) {
	var row serialRow
	err := g.db.WithContext(ctx).Where("serial_number = ?", serialNumber).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query serial: %w", err)
	}
	rec := row.toDomain()
	return &rec, nil
}

func (g *GormAdapter) FindByBatchID(ctx context.Context, batchID string) ([]domain.SerialRecord, error) {
	var rows []serialRow
	err := g.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at, serial_number").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query batch: %w", err)
	}
	records := make([]domain.SerialRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toDomain())
	}
	return records, nil
}

func (g *GormAdapter) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]domain.RecordStamp, error) {
	var rows []stampRow
	err := g.db.WithContext(ctx).
		Model(&serialRow{}).
		Select("created_at", "product_name").
		Where("created_at >= ? AND created_at < ?", start.UTC(), end.UTC()).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query time range: %w", err)
	}
	stamps := make([]domain.RecordStamp, 0, len(rows))
	for _, r := range rows {
		stamps = append(stamps, domain.RecordStamp{CreatedAt: r.CreatedAt.UTC(), ProductName: r.ProductName})
	}
	return stamps, nil
}

func (g *GormAdapter) ProductNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := g.db.WithContext(ctx).Model(&serialRow{}).Pluck("product_name", &names).Error; err != nil {
		return nil, fmt.Errorf("query product names: %w", err)
	}
	return names, nil
}

func (g *GormAdapter) BatchIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := g.db.WithContext(ctx).Model(&serialRow{}).Distinct().Pluck("batch_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("query batch ids: %w", err)
	}
	return ids, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

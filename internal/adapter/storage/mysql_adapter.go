package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/serial-registry/internal/core/domain"
	"github.com/rl1809/serial-registry/internal/port"
)

//go:embed schema/mysql.sql
var mysqlSchema string

// ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// EnsureSchema creates the serial_numbers table. serial_number uses a binary
// collation so both uniqueness and lookups are case-sensitive.
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, mysqlSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) Insert(ctx context.Context, record domain.SerialRecord) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO serial_numbers (id, product_name, batch_id, serial_number, created_at, code_payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.ProductName, record.BatchID, record.SerialNumber,
		record.CreatedAt.UTC(), record.CodePayload,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return port.ErrConflict
		}
		return fmt.Errorf("insert serial: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) FindBySerialNumber(ctx context.Context, serialNumber string) (*domain.SerialRecord, error) {
	var rec domain.SerialRecord
	err := m.db.QueryRowContext(ctx, `
		SELECT id, product_name, batch_id, serial_number, created_at, code_payload
		FROM serial_numbers WHERE serial_number = ?`, serialNumber,
	).Scan(&rec.ID, &rec.ProductName, &rec.BatchID, &rec.SerialNumber, &rec.CreatedAt, &rec.CodePayload)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query serial: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}

func (m *MySQLAdapter) FindByBatchID(ctx context.Context, batchID string) ([]domain.SerialRecord, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, product_name, batch_id, serial_number, created_at, code_payload
		FROM serial_numbers WHERE batch_id = ?
		ORDER BY created_at, serial_number`, batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("query batch: %w", err)
	}
	defer rows.Close()

	var records []domain.SerialRecord
	for rows.Next() {
		var rec domain.SerialRecord
		if err := rows.Scan(&rec.ID, &rec.ProductName, &rec.BatchID, &rec.SerialNumber, &rec.CreatedAt, &rec.CodePayload); err != nil {
			return nil, fmt.Errorf("scan batch row: %w", err)
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (m *MySQLAdapter) QueryByTimeRange(ctx context.Context, start, end time.Time) ([]domain.RecordStamp, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT created_at, product_name FROM serial_numbers
		WHERE created_at >= ? AND created_at < ?`, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query time range: %w", err)
	}
	defer rows.Close()

	var stamps []domain.RecordStamp
	for rows.Next() {
		var st domain.RecordStamp
		if err := rows.Scan(&st.CreatedAt, &st.ProductName); err != nil {
			return nil, fmt.Errorf("scan stamp: %w", err)
		}
		stamps = append(stamps, st)
	}
	return stamps, rows.Err()
}

func (m *MySQLAdapter) ProductNames(ctx context.Context) ([]string, error) {
	return m.queryStrings(ctx, `SELECT product_name FROM serial_numbers`)
}

func (m *MySQLAdapter) BatchIDs(ctx context.Context) ([]string, error) {
	return m.queryStrings(ctx, `SELECT DISTINCT batch_id FROM serial_numbers`)
}

func (m *MySQLAdapter) queryStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

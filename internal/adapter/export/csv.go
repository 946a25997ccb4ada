package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/rl1809/serial-registry/internal/core/domain"
)

// TimestampLayout renders Created At as UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var Header = []string{"Product", "Batch ID", "Serial Number", "Created At"}

// WriteCSV writes one row per record, in the order given, under Header.
func WriteCSV(w io.Writer, records []domain.SerialRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.ProductName,
			rec.BatchID,
			rec.SerialNumber,
			rec.CreatedAt.UTC().Format(TimestampLayout),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName is the download name for a batch export.
func FileName(batchID string) string {
	return fmt.Sprintf("batch-%s.csv", batchID)
}

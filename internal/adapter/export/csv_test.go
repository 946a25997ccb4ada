package export

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/serial-registry/internal/core/domain"
)

func TestWriteCSV(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 30, 0, 123456789, time.FixedZone("ICT", 7*3600))
	records := []domain.SerialRecord{
		{ProductName: "Widget", BatchID: "b-1", SerialNumber: "SN-000001", CreatedAt: created},
		{ProductName: "Widget, Large", BatchID: "b-1", SerialNumber: "SN-000002", CreatedAt: created.Add(time.Second)},
		{ProductName: `Gadget "Pro"`, BatchID: "b-1", SerialNumber: "SN-000003", CreatedAt: created.Add(time.Minute)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	g := goldie.New(t)
	g.Assert(t, "batch", buf.Bytes())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "Product,Batch ID,Serial Number,Created At\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSV_WriterError(t *testing.T) {
	err := WriteCSV(failingWriter{}, []domain.SerialRecord{{SerialNumber: "x"}})
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "batch-abc.csv", FileName("abc"))
}

package handler

import (
	"time"

	"github.com/rl1809/serial-registry/internal/core/domain"
)

// Messages shared by the HTTP API and the JSON-coded gRPC service.

type GenerateBatchRequest struct {
	ProductName    string `json:"product_name"`
	Format         string `json:"format"`
	Prefix         string `json:"prefix"`
	Suffix         string `json:"suffix"`
	Length         int    `json:"length"`
	IncludeSymbols bool   `json:"include_symbols"`
	Quantity       int    `json:"quantity"`
}

func (r GenerateBatchRequest) config() (domain.GenerationConfig, error) {
	format, err := domain.ParseFormat(r.Format)
	if err != nil {
		return domain.GenerationConfig{}, err
	}
	return domain.GenerationConfig{
		Format:         format,
		Prefix:         r.Prefix,
		Suffix:         r.Suffix,
		Length:         r.Length,
		IncludeSymbols: r.IncludeSymbols,
		Quantity:       r.Quantity,
	}, nil
}

type Record struct {
	ID           string    `json:"id"`
	ProductName  string    `json:"product_name"`
	BatchID      string    `json:"batch_id"`
	SerialNumber string    `json:"serial_number"`
	CreatedAt    time.Time `json:"created_at"`
	CodePayload  string    `json:"code_payload"`
}

func toRecord(rec domain.SerialRecord) Record {
	return Record{
		ID:           rec.ID,
		ProductName:  rec.ProductName,
		BatchID:      rec.BatchID,
		SerialNumber: rec.SerialNumber,
		CreatedAt:    rec.CreatedAt.UTC(),
		CodePayload:  rec.CodePayload,
	}
}

type BatchResponse struct {
	BatchID string   `json:"batch_id"`
	Count   int      `json:"count"`
	Records []Record `json:"records"`
}

func toBatchResponse(batchID string, records []domain.SerialRecord) *BatchResponse {
	resp := &BatchResponse{BatchID: batchID, Count: len(records), Records: make([]Record, 0, len(records))}
	for _, rec := range records {
		resp.Records = append(resp.Records, toRecord(rec))
	}
	return resp
}

type VerifyRequest struct {
	SerialNumber string `json:"serial_number"`
}

type VerifyResponse struct {
	Valid  bool    `json:"valid"`
	Status string  `json:"status"`
	Record *Record `json:"record,omitempty"`
}

func toVerifyResponse(v domain.Verification) *VerifyResponse {
	resp := &VerifyResponse{Valid: v.Valid(), Status: string(v.Status)}
	if v.Record != nil {
		rec := toRecord(*v.Record)
		resp.Record = &rec
	}
	return resp
}

type StatisticsRequest struct {
	Range string `json:"range"`
}

type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type ProductCount struct {
	ProductName string `json:"product_name"`
	Count       int    `json:"count"`
}

type StatisticsResponse struct {
	Range         string         `json:"range"`
	TotalSerials  int            `json:"total_serials"`
	TotalProducts int            `json:"total_products"`
	TotalBatches  int            `json:"total_batches"`
	TimeSeries    []Bucket       `json:"time_series"`
	TopProducts   []ProductCount `json:"top_products"`
}

func toStatisticsResponse(s domain.StatisticsSnapshot) *StatisticsResponse {
	resp := &StatisticsResponse{
		Range:         string(s.Range),
		TotalSerials:  s.TotalSerials,
		TotalProducts: s.TotalProducts,
		TotalBatches:  s.TotalBatches,
		TimeSeries:    make([]Bucket, 0, len(s.TimeSeries)),
		TopProducts:   make([]ProductCount, 0, len(s.TopProducts)),
	}
	for _, b := range s.TimeSeries {
		resp.TimeSeries = append(resp.TimeSeries, Bucket{Label: b.Label, Count: b.Count})
	}
	for _, p := range s.TopProducts {
		resp.TopProducts = append(resp.TopProducts, ProductCount{ProductName: p.ProductName, Count: p.Count})
	}
	return resp
}

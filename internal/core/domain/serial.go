package domain

import "time"

type SerialRecord struct {
	ID           string
	ProductName  string
	BatchID      string
	SerialNumber string // unique across the whole store
	CreatedAt    time.Time
	CodePayload  string // derived from SerialNumber, see payload.Encoder
}

// RecordStamp is the projection the statistics read path needs.
type RecordStamp struct {
	CreatedAt   time.Time
	ProductName string
}

type VerificationStatus string

const (
	VerificationValid   VerificationStatus = "valid"
	VerificationInvalid VerificationStatus = "invalid"
)

type Verification struct {
	Status VerificationStatus
	Record *SerialRecord // set only when Status is VerificationValid
}

func (v Verification) Valid() bool {
	return v.Status == VerificationValid
}

package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidRange = errors.New("invalid statistics range")

type Range string

const (
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
)

func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(s))); r {
	case RangeWeek, RangeMonth, RangeYear:
		return r, nil
	case "":
		return RangeWeek, nil
	default:
		return "", fmt.Errorf("%w: unknown range %q", ErrInvalidRange, s)
	}
}

func (r Range) Valid() bool {
	switch r {
	case RangeWeek, RangeMonth, RangeYear:
		return true
	}
	return false
}

// Buckets returns the fixed number of time-series buckets for the range.
func (r Range) Buckets() int {
	switch r {
	case RangeMonth:
		return 30
	case RangeYear:
		return 12
	default:
		return 7
	}
}

// Monthly reports whether buckets are calendar months rather than days.
func (r Range) Monthly() bool {
	return r == RangeYear
}

type Bucket struct {
	Label string
	Count int
}

type ProductCount struct {
	ProductName string
	Count       int
}

// StatisticsSnapshot totals are computed over the whole store, while
// TimeSeries only covers the requested range. The parts are read separately and
// may reflect slightly different instants.
type StatisticsSnapshot struct {
	Range         Range
	TotalSerials  int
	TotalProducts int
	TotalBatches  int
	TimeSeries    []Bucket
	TopProducts   []ProductCount
}

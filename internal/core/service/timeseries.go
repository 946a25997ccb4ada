package service

import (
	"cmp"
	"slices"
	"time"

	"github.com/rl1809/serial-registry/internal/core/domain"
)

const (
	dayLabelLayout   = "2006-01-02"
	monthLabelLayout = "2006-01"
)

// Window returns the half-open interval [start, end) covered by the buckets of
// r, ending with the calendar day (or month) of now in now's location.
func Window(now time.Time, r domain.Range) (time.Time, time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	n := r.Buckets()

	if r.Monthly() {
		start := time.Date(y, m-time.Month(n-1), 1, 0, 0, 0, 0, loc)
		end := time.Date(y, m+1, 1, 0, 0, 0, 0, loc)
		return start, end
	}
	start := time.Date(y, m, d-(n-1), 0, 0, 0, 0, loc)
	end := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	return start, end
}

// BuildTimeSeries counts stamps into the fixed buckets of r. The result always
// has r.Buckets() entries, oldest first, zero-filled. Stamps outside the window
// are dropped.
func BuildTimeSeries(now time.Time, r domain.Range, stamps []time.Time) []domain.Bucket {
	loc := now.Location()
	start, _ := Window(now, r)

	buckets := make([]domain.Bucket, r.Buckets())
	index := make(map[string]int, len(buckets))
	for i := range buckets {
		var t time.Time
		if r.Monthly() {
			t = time.Date(start.Year(), start.Month()+time.Month(i), 1, 0, 0, 0, 0, loc)
		} else {
			t = time.Date(start.Year(), start.Month(), start.Day()+i, 0, 0, 0, 0, loc)
		}
		label := bucketLabel(t, r)
		buckets[i] = domain.Bucket{Label: label}
		index[label] = i
	}

	for _, ts := range stamps {
		if i, ok := index[bucketLabel(ts.In(loc), r)]; ok {
			buckets[i].Count++
		}
	}
	return buckets
}

func bucketLabel(t time.Time, r domain.Range) string {
	if r.Monthly() {
		return t.Format(monthLabelLayout)
	}
	return t.Format(dayLabelLayout)
}

// TopProducts returns the n most frequent names, by count descending. Ties are
// ordered by product name ascending so the result does not depend on the order
// the repository returned rows in.
func TopProducts(names []string, n int) []domain.ProductCount {
	counts := make(map[string]int)
	for _, name := range names {
		counts[name]++
	}

	out := make([]domain.ProductCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, domain.ProductCount{ProductName: name, Count: c})
	}
	slices.SortFunc(out, func(a, b domain.ProductCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductName, b.ProductName)
	})

	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func countDistinct(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

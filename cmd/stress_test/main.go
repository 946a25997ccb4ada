package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/serial-registry/internal/app"
	"github.com/rl1809/serial-registry/internal/core/domain"
	"github.com/rl1809/serial-registry/internal/core/service"
	"github.com/rl1809/serial-registry/internal/platform/config"
	"github.com/rl1809/serial-registry/internal/platform/logger"
)

// A four digit body gives 10,000 candidates per prefix, so concurrent
// batches collide often and exercise the retry path.
const (
	totalBatches = 20
	batchSize    = 50
	bodyLength   = 4
)

func main() {
	ctx := context.Background()

	cfgPath := "config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New("prod")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer a.Close()

	prefix := "ST-" + uuid.NewString()[:8] + "-"
	genCfg := domain.GenerationConfig{
		Format:   domain.FormatNumeric,
		Prefix:   prefix,
		Length:   bodyLength,
		Quantity: batchSize,
	}

	var (
		successCount atomic.Int32
		failCount    atomic.Int32
		mu           sync.Mutex
		batchIDs     []string
	)

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalBatches; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			records, err := a.Serials.GenerateBatch(ctx, "stress-item", genCfg)
			var genErr *service.GenerationError
			switch {
			case err == nil:
				successCount.Add(1)
				mu.Lock()
				batchIDs = append(batchIDs, records[0].BatchID)
				mu.Unlock()
			case errors.As(err, &genErr):
				failCount.Add(1)
				mu.Lock()
				batchIDs = append(batchIDs, genErr.BatchID)
				mu.Unlock()
			default:
				failCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Every committed serial, including those of failed batches, must be
	// unique and verifiable.
	seen := make(map[string]string)
	duplicates := 0
	unverifiable := 0
	for _, id := range batchIDs {
		records, err := a.Serials.BatchRecords(ctx, id)
		if err != nil {
			log.Fatalf("failed to read batch %s: %v", id, err)
		}
		for _, r := range records {
			if other, ok := seen[r.SerialNumber]; ok {
				duplicates++
				fmt.Printf("DUPLICATE: %s in batches %s and %s\n", r.SerialNumber, other, id)
				continue
			}
			seen[r.SerialNumber] = id

			v, err := a.Serials.Verify(ctx, r.SerialNumber)
			if err != nil || !v.Valid() || v.Record.BatchID != id {
				unverifiable++
			}
		}
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Store Driver:     %s\n", a.Store.Driver)
	fmt.Printf("Batches:          %d x %d\n", totalBatches, batchSize)
	fmt.Printf("Keyspace:         %s + %d digits\n", prefix, bodyLength)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Committed:        %d\n", len(seen))
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if duplicates == 0 {
		fmt.Println("PASS: no duplicate serial persisted")
	} else {
		fmt.Printf("FAIL: %d duplicate serial(s) persisted\n", duplicates)
	}

	if unverifiable == 0 {
		fmt.Println("PASS: every committed serial verifies against its batch")
	} else {
		fmt.Printf("FAIL: %d committed serial(s) did not verify\n", unverifiable)
	}

	if duplicates > 0 || unverifiable > 0 {
		os.Exit(1)
	}
}

package classification

import (
	"context"
	"sync"

	"shelfward/internal/logging"
	"shelfward/internal/media"
)

// ClassifyAll resolves every record through the cascade, batching AI calls
// and fanning the remaining tier work across a bounded worker pool. Results
// are positional. On cancellation no new tier calls start, in-flight calls
// drain, and the slice keeps whatever finished: unresolved entries stay nil
// and the context error is returned alongside them.
func (c *Classifier) ClassifyAll(ctx context.Context, records []media.Record) ([]*Result, error) {
	logger := logging.WithContext(ctx, c.logger)
	results := make([]*Result, len(records))

	pending := make([]int, 0, len(records))
	for i, record := range records {
		if cached, ok := c.cacheGet(ctx, record.RawName); ok {
			hit := cached
			results[i] = &hit
			continue
		}
		pending = append(pending, i)
	}
	logger.Debug("classification batch starting",
		logging.Int("records", len(records)),
		logging.Int("cached", len(records)-len(pending)))

	aiResults := c.runAITier(ctx, records, pending)

	workers := c.cfg.Classification.Workers
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, idx := range pending {
		if !acquire(ctx, sem) {
			break
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			result := c.resolve(ctx, records[idx], aiResults[idx])
			results[idx] = &result
			c.cachePut(ctx, records[idx].RawName, result)
		}(idx)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		logger.Warn("classification batch interrupted",
			logging.Int("resolved", countResolved(results)),
			logging.Int("records", len(records)))
		return results, err
	}
	return results, nil
}

// runAITier issues one ClassifyBatch call per chunk of pending records,
// bounded by the worker pool. Entries in the returned slice are positional
// over records; indices outside pending, failed batches, and per-item
// failures all stay nil. Distinct goroutines write distinct indices, so no
// lock is needed.
func (c *Classifier) runAITier(ctx context.Context, records []media.Record, pending []int) []*Result {
	aiResults := make([]*Result, len(records))
	if !c.aiEnabled() || len(pending) == 0 {
		return aiResults
	}
	logger := logging.WithContext(ctx, c.logger)
	batchSize := c.cfg.Classification.AIBatchSize
	sem := make(chan struct{}, c.cfg.Classification.Workers)
	var wg sync.WaitGroup
	for start := 0; start < len(pending); start += batchSize {
		chunk := pending[start:min(start+batchSize, len(pending))]
		if !acquire(ctx, sem) {
			break
		}
		wg.Add(1)
		go func(chunk []int) {
			defer wg.Done()
			defer func() { <-sem }()
			names := make([]string, len(chunk))
			for i, idx := range chunk {
				names[i] = records[idx].RawName
			}
			batch, err := c.ai.ClassifyBatch(ctx, names)
			if err != nil {
				logger.Debug("ai tier unavailable for batch",
					logging.Int("batch_size", len(chunk)),
					logging.Error(err))
				return
			}
			for i, idx := range chunk {
				if i < len(batch) {
					aiResults[idx] = batch[i]
				}
			}
		}(chunk)
	}
	wg.Wait()
	return aiResults
}

// acquire takes a worker slot unless the context is done first. The
// leading Err check keeps an already-cancelled context from racing a free
// slot in the select.
func acquire(ctx context.Context, sem chan struct{}) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case sem <- struct{}{}:
		return true
	}
}

func countResolved(results []*Result) int {
	n := 0
	for _, r := range results {
		if r != nil {
			n++
		}
	}
	return n
}

package filter

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/anilumina/mal"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the number of worker goroutines
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if workers > 0 {
			e.workerCount = workers
		}
	}
}

// WithBatchSize sets the chunk size below which evaluation stays sequential
func WithBatchSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// ConcurrentEvaluator implements Evaluator, splitting large result sets across workers
type ConcurrentEvaluator struct {
	workerCount int
	batchSize   int
}

// NewConcurrentEvaluator creates a new concurrent evaluator
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   100,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Evaluate returns the records matching filter in their original order
func (e *ConcurrentEvaluator) Evaluate(ctx context.Context, filter CompiledFilter, records []mal.Record) ([]mal.Record, error) {
	if len(records) == 0 {
		return []mal.Record{}, nil
	}

	// For small result sets, don't bother with concurrency
	if len(records) < e.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return evaluateSequential(filter, records), nil
	}

	return e.evaluateConcurrent(ctx, filter, records)
}

func evaluateSequential(filter CompiledFilter, records []mal.Record) []mal.Record {
	matches := make([]mal.Record, 0, len(records))
	for _, rec := range records {
		if filter.Evaluate(rec) {
			matches = append(matches, rec)
		}
	}
	return matches
}

// evaluateConcurrent evaluates chunks in parallel and joins them in order
func (e *ConcurrentEvaluator) evaluateConcurrent(ctx context.Context, filter CompiledFilter, records []mal.Record) ([]mal.Record, error) {
	chunkSize := max(len(records)/e.workerCount, e.batchSize)
	chunks := (len(records) + chunkSize - 1) / chunkSize
	results := make([][]mal.Record, chunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)

	for i := 0; i < chunks; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, len(records))

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = evaluateSequential(filter, records[start:end])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	matches := make([]mal.Record, 0, total)
	for _, r := range results {
		matches = append(matches, r...)
	}
	return matches, nil
}

package filter

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/testrail-mcp/testrail"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the number of chunks evaluated at once
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if workers > 0 {
			e.workerCount = workers
		}
	}
}

// WithBatchSize sets the list size below which evaluation stays sequential
func WithBatchSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// ConcurrentEvaluator splits large case lists into chunks evaluated in
// parallel. Matches are returned in input order.
type ConcurrentEvaluator struct {
	workerCount int
	batchSize   int
}

var _ Evaluator = (*ConcurrentEvaluator)(nil)

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

// Evaluate returns the cases the filter matches
func (e *ConcurrentEvaluator) Evaluate(ctx context.Context, filter CompiledFilter, cases []testrail.Case) ([]testrail.Case, error) {
	if len(cases) == 0 {
		return []testrail.Case{}, nil
	}

	if len(cases) < e.batchSize || !filter.IsThreadSafe() {
		return evaluateChunk(filter, cases), nil
	}

	return e.evaluateConcurrent(ctx, filter, cases)
}

func evaluateChunk(filter Filter, cases []testrail.Case) []testrail.Case {
	matches := make([]testrail.Case, 0, len(cases)/4)
	for _, tc := range cases {
		if filter.Evaluate(tc) {
			matches = append(matches, tc)
		}
	}
	return matches
}

func (e *ConcurrentEvaluator) evaluateConcurrent(ctx context.Context, filter CompiledFilter, cases []testrail.Case) ([]testrail.Case, error) {
	chunkSize := max(len(cases)/e.workerCount, e.batchSize)
	chunks := (len(cases) + chunkSize - 1) / chunkSize
	results := make([][]testrail.Case, chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)

	for i := range chunks {
		start := i * chunkSize
		end := min(start+chunkSize, len(cases))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = evaluateChunk(filter, cases[start:end])
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
	matches := make([]testrail.Case, 0, total)
	for _, r := range results {
		matches = append(matches, r...)
	}

	return matches, nil
}

package pipeline

import (
	"context"
	"sync"

	"github.com/Bahjat/phishguard/backend/internal/model"
)

// MaxBatchSize is the largest number of URLs accepted in one batch.
const MaxBatchSize = 50

// Analyzer is anything that analyzes a single URL.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (*model.AnalysisResult, error)
}

// Outcome is the result of one URL in a batch; exactly one of Result and
// Err is set.
type Outcome struct {
	URL    string
	Result *model.AnalysisResult
	Err    error
}

// Batch analyzes many URLs with a bounded pool of workers.
type Batch struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatch returns a Batch running at most concurrency analyses at once.
func NewBatch(analyzer Analyzer, concurrency int) *Batch {
	return &Batch{analyzer: analyzer, concurrency: max(concurrency, 1)}
}

// Run analyzes urls and returns their outcomes in input order. A failed URL
// does not affect the others.
func (b *Batch) Run(ctx context.Context, urls []string) []Outcome {
	outcomes := make([]Outcome, len(urls))
	if len(urls) == 0 {
		return outcomes
	}

	jobs := make(chan int, len(urls))
	numWorkers := min(len(urls), b.concurrency)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Go(func() {
			for i := range jobs {
				res, err := b.analyzer.Analyze(ctx, urls[i])
				outcomes[i] = Outcome{URL: urls[i], Result: res, Err: err}
			}
		})
	}

	for i := range urls {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

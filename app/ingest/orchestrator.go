package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/castfeed/castfeed/app/database"
)

// Failure records one URL that could not be processed during a poll run
type Failure struct {
	URL     string      `json:"url"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Summary aggregates the outcome of one full poll sweep
type Summary struct {
	Attempted int       `json:"attempted"`
	NewPosts  int       `json:"new_posts"`
	Failures  []Failure `json:"failures"`
}

// Orchestrator sweeps every distinct registered feed URL through the
// ingestion worker with a bounded pool. One URL's failure never aborts the
// others; failed URLs are retried naturally on the next run.
type Orchestrator struct {
	subs        database.SubscriptionRepository
	worker      *Worker
	workerCount int
}

func NewOrchestrator(subs database.SubscriptionRepository, worker *Worker, workerCount int) *Orchestrator {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Orchestrator{
		subs:        subs,
		worker:      worker,
		workerCount: workerCount,
	}
}

// PollAll runs to completion over every distinct URL and returns the
// aggregate summary. There is no mid-run cancellation and no intra-run
// retry; idempotent dedup makes starting over on the next period safe.
func (o *Orchestrator) PollAll(ctx context.Context) (*Summary, error) {
	runID := uuid.New().String()
	start := time.Now()

	refs, err := o.subs.ListDistinctURLs()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate feed URLs: %w", err)
	}

	slog.Info("Poll run started", "run_id", runID, "urls", len(refs), "workers", o.workerCount)

	summary := &Summary{Failures: []Failure{}}
	jobs := make(chan database.SubscriptionRef)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < o.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range jobs {
				result, err := o.worker.Run(ctx, ref.URL, ref.UserID)

				mu.Lock()
				summary.Attempted++
				if err != nil {
					summary.Failures = append(summary.Failures, Failure{
						URL:     ref.URL,
						Kind:    KindOf(err),
						Message: err.Error(),
					})
				} else {
					summary.NewPosts += result.NewPosts
				}
				mu.Unlock()

				if err != nil {
					slog.Error("Feed processing failed", "run_id", runID, "url", ref.URL, "error", err)
				}
			}
		}()
	}

	for _, ref := range refs {
		jobs <- ref
	}
	close(jobs)
	wg.Wait()

	slog.Info("Poll run complete",
		"run_id", runID,
		"duration", time.Since(start),
		"attempted", summary.Attempted,
		"new_posts", summary.NewPosts,
		"failures", len(summary.Failures))

	return summary, nil
}

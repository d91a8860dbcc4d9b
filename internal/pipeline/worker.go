package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/dgallion1/eadtool/internal/compliance"
)

// Worker analyzes the documents of a batch job.
type Worker struct {
	log   *slog.Logger
	stats *LatencyStats

	maxConcurrentFiles int
}

func NewWorker(log *slog.Logger, maxConcurrentFiles int) *Worker {
	if maxConcurrentFiles < 1 {
		maxConcurrentFiles = 1
	}
	return &Worker{
		log:                log,
		maxConcurrentFiles: maxConcurrentFiles,
	}
}

// WithStats records the analysis time of every file into stats.
func (w *Worker) WithStats(stats *LatencyStats) *Worker {
	w.stats = stats
	return w
}

// Process runs the compliance analysis for every file of a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)

	inputs := job.Inputs()
	job.SetStatus(StatusAnalyzing, "analyzing")
	log.Info("batch started", "files", len(inputs))

	results := w.analyze(ctx, inputs, func(r compliance.FileReport) {
		failed := r.Report.Error != ""
		if failed {
			log.Warn("document not well-formed", "source", r.Source, "error", r.Report.Error)
			job.AddError(fmt.Sprintf("%s: %s", r.Source, r.Report.Error))
		}
		job.RecordFile(failed)
	})

	if err := ctx.Err(); err != nil {
		log.Error("batch cancelled", "error", err)
		job.AddError(fmt.Sprintf("cancelled: %s", err))
		job.SetStatus(StatusFailed, "cancelled")
		return
	}

	job.SetResults(results)

	failed := lo.CountBy(results, func(r compliance.FileReport) bool { return r.Report.Error != "" })
	log.Info("batch complete", "files", len(results), "failed", failed)

	switch {
	case failed == 0:
		job.SetStatus(StatusCompleted, "done")
	case failed < len(results):
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "done")
	}
}

// AnalyzeAll analyzes inputs with bounded concurrency. Results keep input
// order. Files not yet started when ctx is cancelled are reported with the
// context error.
func (w *Worker) AnalyzeAll(ctx context.Context, inputs []Input) []compliance.FileReport {
	return w.analyze(ctx, inputs, nil)
}

func (w *Worker) analyze(ctx context.Context, inputs []Input, done func(compliance.FileReport)) []compliance.FileReport {
	results := make([]compliance.FileReport, len(inputs))
	sem := make(chan struct{}, w.maxConcurrentFiles)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, in := range inputs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = compliance.FileReport{Source: in.Name, Report: compliance.Report{Error: ctx.Err().Error()}}
			continue
		}
		wg.Add(1)
		go func(i int, in Input) {
			defer wg.Done()
			defer func() { <-sem }()
			start := time.Now()
			r := AnalyzeInput(in)
			if w.stats != nil {
				w.stats.Record(time.Since(start))
			}
			results[i] = r
			if done != nil {
				mu.Lock()
				done(r)
				mu.Unlock()
			}
		}(i, in)
	}
	wg.Wait()
	return results
}

// AnalyzeInput analyzes one document and stamps its checksum.
func AnalyzeInput(in Input) compliance.FileReport {
	return compliance.FileReport{
		Source:   in.Name,
		Checksum: ContentHashHex(in.Data),
		Report:   compliance.AnalyzeReader(bytes.NewReader(in.Data), in.Name),
	}
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/coursedeck/api/internal/config"
	"github.com/coursedeck/api/internal/extract"
	"github.com/coursedeck/api/internal/model"
	"github.com/coursedeck/api/internal/registry"
)

// ErrJobTimeout marks the whole-job wall-clock ceiling, distinct from a
// single backend timing out (which only advances the chain).
var ErrJobTimeout = errors.New("extraction timed out")

// Notifier pushes job lifecycle events to live subscribers.
type Notifier interface {
	BroadcastProgress(processID string, progress int, status model.JobStatus)
	BroadcastComplete(processID string, textLength int)
	BroadcastError(processID string, message string)
}

// ExtractionWorker drives one job from submission to a terminal state:
// size gate, backend fallback chain raced against timeouts, normalization,
// terminal registry write. A cancel flag written by the service is never
// clobbered by a late result.
type ExtractionWorker struct {
	registry *registry.Registry
	backends []extract.Backend
	notifier Notifier
	cfg      config.ExtractionConfig
	sem      *semaphore.Weighted
}

// NewExtractionWorker wires the worker. notifier may be nil. When
// cfg.MaxConcurrent > 0 a semaphore gates how many extractions run at once;
// the default 0 keeps the historical unbounded behavior.
func NewExtractionWorker(reg *registry.Registry, backends []extract.Backend, notifier Notifier, cfg config.ExtractionConfig) *ExtractionWorker {
	var sem *semaphore.Weighted
	if cfg.MaxConcurrent > 0 {
		sem = semaphore.NewWeighted(cfg.MaxConcurrent)
	}
	return &ExtractionWorker{
		registry: reg,
		backends: backends,
		notifier: notifier,
		cfg:      cfg,
		sem:      sem,
	}
}

// Run processes one job to completion. It is spawned detached per upload
// and must never escape a fault to the host process.
func (w *ExtractionWorker) Run(jobID string, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Job %s: extraction panic: %v", jobID, r)
			w.failJob(jobID, "internal extraction failure")
		}
	}()

	if w.sem != nil {
		if err := w.sem.Acquire(context.Background(), 1); err != nil {
			w.failJob(jobID, "internal extraction failure")
			return
		}
		defer w.sem.Release(1)
	}

	if int64(len(data)) > w.cfg.MaxFileSize {
		w.failJob(jobID, fmt.Sprintf("file exceeds maximum size of %d bytes", w.cfg.MaxFileSize))
		return
	}
	w.setProgress(jobID, 10)

	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.JobTimeout)
	defer cancel()

	raw, err := w.extract(ctx, jobID, data)
	if err != nil {
		if errors.Is(err, ErrJobTimeout) {
			w.failJob(jobID, ErrJobTimeout.Error())
		} else {
			w.failJob(jobID, err.Error())
		}
		return
	}
	w.setProgress(jobID, 80)

	text, err := extract.Normalize(raw)
	if err != nil {
		// A backend that "succeeds" with nothing usable is still a failure.
		w.failJob(jobID, err.Error())
		return
	}

	w.completeJob(jobID, text)
}

// extract walks the backend chain in priority order. A backend failure or
// per-attempt timeout advances to the next backend; the global ceiling is
// checked independently after every attempt and aborts the whole job.
func (w *ExtractionWorker) extract(ctx context.Context, jobID string, data []byte) (string, error) {
	var lastErr error
	for _, backend := range w.backends {
		if ctx.Err() != nil {
			return "", ErrJobTimeout
		}

		start := time.Now()
		text, err := w.attempt(ctx, backend, data)
		if err == nil {
			log.Printf("Job %s: backend %s succeeded in %s", jobID, backend.Name(), time.Since(start).Round(time.Millisecond))
			return text, nil
		}
		if errors.Is(err, ErrJobTimeout) {
			return "", err
		}

		log.Printf("Job %s: backend %s failed: %v", jobID, backend.Name(), err)
		lastErr = fmt.Errorf("%s: %w", backend.Name(), err)

		if ctx.Err() != nil {
			return "", ErrJobTimeout
		}
	}

	if lastErr == nil {
		lastErr = extract.ErrUnsupported
	}
	return "", fmt.Errorf("all extraction backends failed, last error: %w", lastErr)
}

// attempt races one backend call against the per-attempt timeout. The call
// itself is not preempted; a timed-out attempt keeps running in its
// goroutine and its eventual result is discarded.
func (w *ExtractionWorker) attempt(ctx context.Context, backend extract.Backend, data []byte) (string, error) {
	actx, cancel := context.WithTimeout(ctx, w.cfg.AttemptTimeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("backend panic: %v", r)}
			}
		}()
		text, err := backend.Extract(actx, data)
		ch <- result{text: text, err: err}
	}()

	select {
	case res := <-ch:
		return res.text, res.err
	case <-actx.Done():
		if ctx.Err() != nil {
			return "", ErrJobTimeout
		}
		return "", fmt.Errorf("timed out after %s", w.cfg.AttemptTimeout)
	}
}

// setProgress advances the milestone if the job is still processing.
// Progress never decreases while the job is live.
func (w *ExtractionWorker) setProgress(jobID string, progress int) {
	wrote := false
	_ = w.registry.Update(jobID, func(j *model.Job) {
		if j.Status == model.JobStatusProcessing && progress > j.Progress {
			j.Progress = progress
			wrote = true
		}
	})
	if wrote && w.notifier != nil {
		w.notifier.BroadcastProgress(jobID, progress, model.JobStatusProcessing)
	}
}

func (w *ExtractionWorker) completeJob(jobID, text string) {
	now := time.Now()
	wrote := false
	_ = w.registry.Update(jobID, func(j *model.Job) {
		if j.Status != model.JobStatusProcessing {
			return
		}
		j.Status = model.JobStatusCompleted
		j.Progress = 100
		j.Result = &model.ExtractionResult{
			Text:        text,
			TextLength:  len(text),
			CompletedAt: now,
		}
		wrote = true
	})
	if !wrote {
		log.Printf("Job %s: finished after cancellation, result discarded", jobID)
		return
	}
	if w.notifier != nil {
		w.notifier.BroadcastComplete(jobID, len(text))
	}
	log.Printf("Job %s completed (%d bytes of text)", jobID, len(text))
}

func (w *ExtractionWorker) failJob(jobID, reason string) {
	wrote := false
	_ = w.registry.Update(jobID, func(j *model.Job) {
		if j.Status != model.JobStatusProcessing {
			return
		}
		j.Status = model.JobStatusError
		j.Progress = 0
		j.Error = &reason
		wrote = true
	})
	if !wrote {
		return
	}
	if w.notifier != nil {
		w.notifier.BroadcastError(jobID, reason)
	}
	log.Printf("Job %s failed: %s", jobID, reason)
}

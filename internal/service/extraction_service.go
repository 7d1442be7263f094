package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/coursedeck/api/internal/config"
	"github.com/coursedeck/api/internal/model"
	"github.com/coursedeck/api/internal/registry"
	"github.com/coursedeck/api/internal/worker"
)

var (
	// ErrNotFound mirrors the registry sentinel for handler convenience.
	ErrNotFound = registry.ErrNotFound

	// ErrForbidden signals an owner mismatch on a job lookup.
	ErrForbidden = errors.New("job belongs to another user")

	// ErrInvalidState signals a cancel on an already-terminal job.
	ErrInvalidState = errors.New("job already finished")
)

// NotReadyError is returned by GetResult while the job has not completed.
// It carries the current status, progress and failure reason so pollers get
// a useful payload instead of a bare rejection.
type NotReadyError struct {
	Status   model.JobStatus
	Progress int
	Reason   string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("job not ready: status %s", e.Status)
}

// ExtractionService is the external face of the extraction subsystem:
// submit, poll, list, cancel, aggregate stats and garbage collection.
// Every operation is authorized against the job's owner.
type ExtractionService struct {
	registry *registry.Registry
	worker   *worker.ExtractionWorker
	cfg      config.ExtractionConfig
}

func NewExtractionService(reg *registry.Registry, w *worker.ExtractionWorker, cfg config.ExtractionConfig) *ExtractionService {
	return &ExtractionService{
		registry: reg,
		worker:   w,
		cfg:      cfg,
	}
}

// Submit records the job and starts extraction detached. It returns
// immediately; the caller polls for the outcome.
func (s *ExtractionService) Submit(ownerID string, data []byte, sourceName string) *model.UploadResponse {
	jobID := s.registry.Create(ownerID, sourceName)

	go s.worker.Run(jobID, data)

	return &model.UploadResponse{
		ProcessID: jobID,
		FileName:  sourceName,
		FileSize:  int64(len(data)),
	}
}

func (s *ExtractionService) GetStatus(jobID, ownerID string) (*model.StatusResponse, error) {
	job, ok := s.registry.Get(jobID)
	if !ok {
		return nil, ErrNotFound
	}
	if job.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	return &model.StatusResponse{
		Status:   job.Status,
		Progress: job.Progress,
		FileName: job.SourceName,
		Error:    job.Error,
	}, nil
}

func (s *ExtractionService) GetResult(jobID, ownerID string) (*model.ExtractionResult, error) {
	job, ok := s.registry.Get(jobID)
	if !ok {
		return nil, ErrNotFound
	}
	if job.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if job.Status != model.JobStatusCompleted || job.Result == nil {
		notReady := &NotReadyError{Status: job.Status, Progress: job.Progress}
		if job.Error != nil {
			notReady.Reason = *job.Error
		}
		return nil, notReady
	}

	result := *job.Result
	return &result, nil
}

// ListForOwner returns the caller's jobs, newest first.
func (s *ExtractionService) ListForOwner(ownerID string) *model.UserStatusResponse {
	jobs := s.registry.ListByOwner(ownerID)
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].SubmittedAt.After(jobs[j].SubmittedAt)
	})

	resp := &model.UserStatusResponse{Statuses: make([]model.JobSummary, 0, len(jobs))}
	for _, job := range jobs {
		if job.Status == model.JobStatusProcessing {
			resp.ProcessingCount++
		}
		resp.Statuses = append(resp.Statuses, model.JobSummary{
			ProcessID: job.ID,
			Status:    job.Status,
			Progress:  job.Progress,
			FileName:  job.SourceName,
		})
	}
	return resp
}

// Cancel marks a live job cancelled. The in-flight backend call is not
// interrupted; the worker discards its result when it eventually finishes.
func (s *ExtractionService) Cancel(jobID, ownerID string) (*model.CancelResponse, error) {
	var stateErr error
	err := s.registry.Update(jobID, func(j *model.Job) {
		if j.OwnerID != ownerID {
			stateErr = ErrForbidden
			return
		}
		if j.Status.Terminal() {
			stateErr = ErrInvalidState
			return
		}
		j.Status = model.JobStatusCancelled
		j.Progress = 0
	})
	if err != nil {
		return nil, err
	}
	if stateErr != nil {
		return nil, stateErr
	}

	log.Printf("Job %s cancelled by owner", jobID)
	return &model.CancelResponse{Status: model.JobStatusCancelled}, nil
}

// Stats is the registry-wide administrative view, not owner scoped.
func (s *ExtractionService) Stats() model.StatsResponse {
	return s.registry.Stats()
}

// RunGC sweeps records older than maxAge and returns the number removed.
func (s *ExtractionService) RunGC(maxAge time.Duration) int {
	return s.registry.Sweep(maxAge)
}

// StartGC sweeps on the configured period until ctx is done.
func (s *ExtractionService) StartGC(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.RunGC(s.cfg.Retention); removed > 0 {
				log.Printf("GC removed %d stale jobs", removed)
			}
		}
	}
}

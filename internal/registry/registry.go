// Package registry holds the in-memory table of extraction jobs. It is the
// only shared mutable state in the extraction subsystem; records never touch
// disk or the network and are reclaimed by the periodic sweep.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coursedeck/api/internal/model"
)

var ErrNotFound = errors.New("job not found")

// Registry is a concurrency-safe job table. Updates are applied through
// mutator functions under the lock, so a progress write from the worker and
// a cancel from a handler cannot interleave on the same record.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

func New() *Registry {
	return &Registry{
		jobs: make(map[string]*model.Job),
	}
}

// Create allocates a fresh processing record and returns its id. Ids are
// composed from the owner and the submission nanos; on a collision the nanos
// are bumped under the lock. Collision-avoidance only, not cryptographic.
func (r *Registry) Create(ownerID, sourceName string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	ns := now.UnixNano()
	id := fmt.Sprintf("%s_%d", ownerID, ns)
	for _, exists := r.jobs[id]; exists; _, exists = r.jobs[id] {
		ns++
		id = fmt.Sprintf("%s_%d", ownerID, ns)
	}

	r.jobs[id] = &model.Job{
		ID:          id,
		OwnerID:     ownerID,
		Status:      model.JobStatusProcessing,
		Progress:    0,
		SourceName:  sourceName,
		SubmittedAt: now,
	}
	return id
}

// Get returns a copy of the record so callers never hold a reference into
// the table.
func (r *Registry) Get(id string) (model.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return model.Job{}, false
	}
	return *job, true
}

// Update applies fn to the record atomically with respect to concurrent
// Get/Update calls on the same id.
func (r *Registry) Update(id string, fn func(*model.Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	fn(job)
	return nil
}

// ListByOwner returns copies of every job submitted by ownerID. Full scan;
// the table stays small because the sweep bounds its age.
func (r *Registry) ListByOwner(ownerID string) []model.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Job
	for _, job := range r.jobs {
		if job.OwnerID == ownerID {
			out = append(out, *job)
		}
	}
	return out
}

// Stats aggregates counts across the whole table.
func (r *Registry) Stats() model.StatsResponse {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := model.StatsResponse{Total: len(r.jobs)}
	for _, job := range r.jobs {
		switch job.Status {
		case model.JobStatusProcessing:
			stats.Processing++
		case model.JobStatusCompleted:
			stats.Completed++
		case model.JobStatusError:
			stats.Error++
		case model.JobStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// Sweep removes every record older than maxAge regardless of status,
// including stuck processing records left behind by a crashed run.
// Returns the number of records removed.
func (r *Registry) Sweep(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	border := time.Now().Add(-maxAge)
	removed := 0
	for id, job := range r.jobs {
		if job.SubmittedAt.Before(border) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}

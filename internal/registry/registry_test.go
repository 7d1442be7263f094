package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedeck/api/internal/model"
)

func TestCreateAndGet(t *testing.T) {
	reg := New()

	id := reg.Create("owner-1", "syllabus.pdf")
	require.NotEmpty(t, id)

	job, ok := reg.Get(id)
	require.True(t, ok)
	assert.Equal(t, "owner-1", job.OwnerID)
	assert.Equal(t, "syllabus.pdf", job.SourceName)
	assert.Equal(t, model.JobStatusProcessing, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.Nil(t, job.Error)
	assert.Nil(t, job.Result)
}

func TestGetUnknown(t *testing.T) {
	reg := New()

	_, ok := reg.Get("nope")
	assert.False(t, ok)
}

func TestGetReturnsCopy(t *testing.T) {
	reg := New()
	id := reg.Create("owner-1", "a.txt")

	job, _ := reg.Get(id)
	job.Status = model.JobStatusCompleted

	fresh, _ := reg.Get(id)
	assert.Equal(t, model.JobStatusProcessing, fresh.Status)
}

func TestUpdate(t *testing.T) {
	reg := New()
	id := reg.Create("owner-1", "a.txt")

	err := reg.Update(id, func(j *model.Job) {
		j.Progress = 80
	})
	require.NoError(t, err)

	job, _ := reg.Get(id)
	assert.Equal(t, 80, job.Progress)

	err = reg.Update("nope", func(j *model.Job) {})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentCreateUniqueIDs(t *testing.T) {
	reg := New()

	const n = 200
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- reg.Create("owner-1", "a.txt")
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestListByOwnerIsolation(t *testing.T) {
	reg := New()
	idA := reg.Create("owner-a", "a.txt")
	reg.Create("owner-b", "b.txt")

	jobs := reg.ListByOwner("owner-a")
	require.Len(t, jobs, 1)
	assert.Equal(t, idA, jobs[0].ID)

	assert.Empty(t, reg.ListByOwner("owner-c"))
}

func TestStats(t *testing.T) {
	reg := New()
	reg.Create("o", "1.txt")
	done := reg.Create("o", "2.txt")
	failed := reg.Create("o", "3.txt")

	_ = reg.Update(done, func(j *model.Job) { j.Status = model.JobStatusCompleted })
	_ = reg.Update(failed, func(j *model.Job) { j.Status = model.JobStatusError })

	stats := reg.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Processing)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Error)
	assert.Equal(t, 0, stats.Cancelled)
}

func TestSweepRemovesOldRegardlessOfStatus(t *testing.T) {
	reg := New()
	stale := reg.Create("o", "old.txt")
	fresh := reg.Create("o", "new.txt")

	// Backdate the stale record past the retention border; it stays in
	// processing to mimic a leaked job from a crashed run.
	_ = reg.Update(stale, func(j *model.Job) {
		j.SubmittedAt = time.Now().Add(-25 * time.Hour)
	})

	removed := reg.Sweep(24 * time.Hour)
	assert.Equal(t, 1, removed)

	_, ok := reg.Get(stale)
	assert.False(t, ok)
	_, ok = reg.Get(fresh)
	assert.True(t, ok)
}

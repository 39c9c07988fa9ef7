package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidx/internal/api"
	"vidx/internal/models"
	"vidx/internal/shared"
)

// jobServer is a scriptable fake backend. Responses for the active list and
// for individual jobs can be swapped mid-test; request counts are tracked
// per path.
type jobServer struct {
	mu     sync.Mutex
	active []models.Job
	jobs   map[string]models.Job
	fail   bool
	counts map[string]int
}

func newJobServer() *jobServer {
	return &jobServer{jobs: make(map[string]models.Job), counts: make(map[string]int)}
}

func (s *jobServer) set(active []models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
	for _, j := range active {
		s.jobs[j.ID] = j
	}
}

func (s *jobServer) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *jobServer) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[path]
}

func (s *jobServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.counts[r.URL.Path]++
	fail := s.fail
	active := s.active
	var job models.Job
	var found bool
	if id := jobID(r.URL.Path); id != "" {
		job, found = s.jobs[id]
	}
	var createdID string
	if r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/videos/") {
		createdID = fmt.Sprintf("v%d", len(s.jobs)+1)
		s.jobs[createdID] = models.Job{ID: createdID, Status: models.StatusProcessing}
	}
	s.mu.Unlock()

	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	switch {
	case createdID != "":
		json.NewEncoder(w).Encode(map[string]string{"job_id": createdID})
	case r.URL.Path == "/api/jobs/active":
		json.NewEncoder(w).Encode(active)
	case found && r.Method == http.MethodPost:
		w.WriteHeader(http.StatusNoContent)
	case found:
		json.NewEncoder(w).Encode(job)
	default:
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "job not found"})
	}
}

// jobID extracts the job id from paths like /api/jobs/{id} and
// /api/jobs/{id}/cancel.
func jobID(path string) string {
	const prefix = "/api/jobs/"
	if !strings.HasPrefix(path, prefix) || path == "/api/jobs/active" {
		return ""
	}
	id, _, _ := strings.Cut(path[len(prefix):], "/")
	return id
}

// memCache records upserted snapshots.
type memCache struct {
	mu   sync.Mutex
	jobs map[string]models.Job
}

func newMemCache() *memCache {
	return &memCache{jobs: make(map[string]models.Job)}
}

func (c *memCache) Upsert(j models.Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs[j.ID] = j
	return nil
}

func (c *memCache) get(id string) (models.Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	j, ok := c.jobs[id]
	return j, ok
}

func startPoller(t *testing.T, srv *jobServer, cache JobCache, interval time.Duration) *Poller {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	p := NewPoller(api.NewClient(ts.URL, ts.Client(), nil), cache, shared.NewLogger(nil), interval)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return p
}

// waitFor drains Updates until match returns true or the deadline passes.
func waitFor(t *testing.T, p *Poller, match func(Update) bool) Update {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case u, ok := <-p.Updates():
			if !ok {
				t.Fatal("updates channel closed before expected update")
			}
			if match(u) {
				return u
			}
		case <-deadline:
			t.Fatal("timed out waiting for update")
		}
	}
}

func TestActiveJobsLoop(t *testing.T) {
	t.Run("refreshes immediately and on the interval", func(t *testing.T) {
		srv := newJobServer()
		srv.set([]models.Job{{ID: "j1", Status: models.StatusProcessing, Progress: 50}})

		p := startPoller(t, srv, nil, 40*time.Millisecond)

		u := waitFor(t, p, func(u Update) bool { return u.Kind == ActiveJobsRefreshed })
		require.Len(t, u.Jobs, 1)
		assert.Equal(t, "j1", u.Jobs[0].ID)

		assert.Eventually(t, func() bool {
			return srv.count("/api/jobs/active") >= 3
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("keeps the stale snapshot when a refresh fails", func(t *testing.T) {
		srv := newJobServer()
		srv.set([]models.Job{{ID: "j1", Status: models.StatusProcessing}})

		p := startPoller(t, srv, nil, 40*time.Millisecond)
		waitFor(t, p, func(u Update) bool { return u.Kind == ActiveJobsRefreshed })

		srv.setFail(true)
		u := waitFor(t, p, func(u Update) bool { return u.Kind == RefreshFailed })
		assert.ErrorIs(t, u.Err, shared.ErrServer)
		require.Len(t, u.Jobs, 1, "failed update carries the stale snapshot")
		assert.Equal(t, "j1", u.Jobs[0].ID)
		assert.Len(t, p.Active(), 1)
		assert.Error(t, p.LastError())

		srv.setFail(false)
		waitFor(t, p, func(u Update) bool { return u.Kind == ActiveJobsRefreshed })
		assert.NoError(t, p.LastError())
	})

	t.Run("ignores status regressions from out-of-order responses", func(t *testing.T) {
		srv := newJobServer()
		srv.set([]models.Job{{ID: "j1", Status: models.StatusProcessing, Progress: 70}})

		p := startPoller(t, srv, nil, 30*time.Millisecond)
		waitFor(t, p, func(u Update) bool { return u.Kind == ActiveJobsRefreshed })

		// A stale response claims the job went back to pending.
		srv.set([]models.Job{{ID: "j1", Status: models.StatusPending, Progress: 10}})
		u := waitFor(t, p, func(u Update) bool {
			return u.Kind == ActiveJobsRefreshed && srv.count("/api/jobs/active") >= 2
		})
		require.Len(t, u.Jobs, 1)
		assert.Equal(t, models.StatusProcessing, u.Jobs[0].Status)
		assert.Equal(t, 70.0, u.Jobs[0].Progress)
	})

	t.Run("persists snapshots into the cache", func(t *testing.T) {
		srv := newJobServer()
		srv.set([]models.Job{{ID: "j1", Status: models.StatusProcessing, VideoPath: "clip.mp4"}})
		cache := newMemCache()

		p := startPoller(t, srv, cache, 40*time.Millisecond)
		waitFor(t, p, func(u Update) bool { return u.Kind == ActiveJobsRefreshed })

		got, ok := cache.get("j1")
		require.True(t, ok)
		assert.Equal(t, "clip.mp4", got.VideoPath)
	})
}

func TestSelect(t *testing.T) {
	t.Run("watches a job until terminal status then stops polling", func(t *testing.T) {
		srv := newJobServer()
		srv.set([]models.Job{{ID: "j1", Status: models.StatusProcessing, Progress: 40}})

		p := startPoller(t, srv, nil, 30*time.Millisecond)
		waitFor(t, p, func(u Update) bool { return u.Kind == ActiveJobsRefreshed })

		p.Select("j1")
		waitFor(t, p, func(u Update) bool { return u.Kind == SelectedJobRefreshed })

		srv.set([]models.Job{{ID: "j1", Status: models.StatusCompleted, Progress: 100}})
		u := waitFor(t, p, func(u Update) bool { return u.Kind == SelectedJobFinished })
		assert.Equal(t, models.StatusCompleted, u.Job.Status)

		// The watch loop must stop issuing requests for the finished job.
		n := srv.count("/api/jobs/j1")
		time.Sleep(120 * time.Millisecond)
		assert.Equal(t, n, srv.count("/api/jobs/j1"))

		sel := p.Selected()
		require.NotNil(t, sel, "terminal state stays readable")
		assert.Equal(t, models.StatusCompleted, sel.Status)
	})

	t.Run("deselect stops the watch", func(t *testing.T) {
		srv := newJobServer()
		srv.set([]models.Job{{ID: "j1", Status: models.StatusProcessing}})

		p := startPoller(t, srv, nil, 30*time.Millisecond)
		p.Select("j1")
		waitFor(t, p, func(u Update) bool { return u.Kind == SelectedJobRefreshed })

		p.Deselect()
		assert.Nil(t, p.Selected())

		n := srv.count("/api/jobs/j1")
		time.Sleep(120 * time.Millisecond)
		assert.Equal(t, n, srv.count("/api/jobs/j1"))
	})

	t.Run("selecting a second job replaces the first watch", func(t *testing.T) {
		srv := newJobServer()
		srv.set([]models.Job{
			{ID: "j1", Status: models.StatusProcessing},
			{ID: "j2", Status: models.StatusPending},
		})

		p := startPoller(t, srv, nil, 30*time.Millisecond)
		p.Select("j1")
		waitFor(t, p, func(u Update) bool {
			return u.Kind == SelectedJobRefreshed && u.Job.ID == "j1"
		})

		p.Select("j2")
		waitFor(t, p, func(u Update) bool {
			return u.Kind == SelectedJobRefreshed && u.Job.ID == "j2"
		})

		n := srv.count("/api/jobs/j1")
		time.Sleep(120 * time.Millisecond)
		assert.Equal(t, n, srv.count("/api/jobs/j1"), "old watch must be torn down")
	})

	t.Run("keeps the stale job when a watch refresh fails", func(t *testing.T) {
		srv := newJobServer()
		srv.set([]models.Job{{ID: "j1", Status: models.StatusProcessing, Progress: 60}})

		p := startPoller(t, srv, nil, 30*time.Millisecond)
		p.Select("j1")
		waitFor(t, p, func(u Update) bool { return u.Kind == SelectedJobRefreshed })

		srv.setFail(true)
		waitFor(t, p, func(u Update) bool { return u.Kind == RefreshFailed && u.Err != nil })

		sel := p.Selected()
		require.NotNil(t, sel)
		assert.Equal(t, 60.0, sel.Progress)
	})

	t.Run("select before run starts the watch once run begins", func(t *testing.T) {
		srv := newJobServer()
		srv.set([]models.Job{{ID: "j1", Status: models.StatusProcessing}})

		ts := httptest.NewServer(srv)
		t.Cleanup(ts.Close)

		p := NewPoller(api.NewClient(ts.URL, ts.Client(), nil), nil, shared.NewLogger(nil), 30*time.Millisecond)
		p.Select("j1")

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			p.Run(ctx)
		}()
		t.Cleanup(func() {
			cancel()
			<-done
		})

		u := waitFor(t, p, func(u Update) bool { return u.Kind == SelectedJobRefreshed })
		assert.Equal(t, "j1", u.Job.ID)
	})
}

func TestShutdown(t *testing.T) {
	srv := newJobServer()
	srv.set([]models.Job{{ID: "j1", Status: models.StatusProcessing}})

	ts := httptest.NewServer(srv)
	defer ts.Close()

	p := NewPoller(api.NewClient(ts.URL, ts.Client(), nil), nil, shared.NewLogger(nil), 30*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	p.Select("j1")
	waitFor(t, p, func(u Update) bool { return u.Kind == SelectedJobRefreshed })

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop on context cancellation")
	}

	// Updates channel closes and both loops stop issuing requests.
	for range p.Updates() {
	}
	n := srv.count("/api/jobs/j1") + srv.count("/api/jobs/active")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, n, srv.count("/api/jobs/j1")+srv.count("/api/jobs/active"))
}

func TestCancel(t *testing.T) {
	srv := newJobServer()
	srv.set([]models.Job{{ID: "j1", Status: models.StatusPending}})

	p := startPoller(t, srv, nil, time.Hour)
	waitFor(t, p, func(u Update) bool { return u.Kind == ActiveJobsRefreshed })
	before := srv.count("/api/jobs/active")

	require.Error(t, p.Cancel(context.Background(), "missing"), "backend 404 surfaces")

	require.NoError(t, p.Cancel(context.Background(), "j1"))
	assert.Eventually(t, func() bool {
		return srv.count("/api/jobs/active") > before
	}, 2*time.Second, 10*time.Millisecond, "cancel must trigger an immediate refresh")

	p.Select("j1")
	waitFor(t, p, func(u Update) bool { return u.Kind == SelectedJobRefreshed })
	detailBefore := srv.count("/api/jobs/j1")

	require.NoError(t, p.Cancel(context.Background(), "j1"))
	assert.Eventually(t, func() bool {
		return srv.count("/api/jobs/j1") > detailBefore
	}, 2*time.Second, 10*time.Millisecond, "cancelling the watched job refetches its detail")
}

func TestPrioritize(t *testing.T) {
	srv := newJobServer()
	srv.set([]models.Job{{ID: "j1", Status: models.StatusPending}})

	p := startPoller(t, srv, nil, time.Hour)
	waitFor(t, p, func(u Update) bool { return u.Kind == ActiveJobsRefreshed })

	assert.ErrorIs(t, p.Prioritize(context.Background(), "j1", "sideways"), shared.ErrInvalidArgument)
	assert.NoError(t, p.Prioritize(context.Background(), "j1", "up"))

	p.Select("j1")
	waitFor(t, p, func(u Update) bool { return u.Kind == SelectedJobRefreshed })
	before := srv.count("/api/jobs/j1")

	require.NoError(t, p.Prioritize(context.Background(), "j1", "up"))
	assert.Eventually(t, func() bool {
		return srv.count("/api/jobs/j1") > before
	}, 2*time.Second, 10*time.Millisecond, "reprioritizing the watched job refetches its detail")
}

func TestMutations(t *testing.T) {
	t.Run("upload selects the new job and refreshes the list", func(t *testing.T) {
		srv := newJobServer()
		p := startPoller(t, srv, nil, time.Hour)
		waitFor(t, p, func(u Update) bool { return u.Kind == ActiveJobsRefreshed })
		before := srv.count("/api/jobs/active")

		path := filepath.Join(t.TempDir(), "clip.mp4")
		require.NoError(t, os.WriteFile(path, []byte("fake video bytes"), 0644))

		id, err := p.Upload(context.Background(), path)
		require.NoError(t, err)
		require.NotEmpty(t, id)

		u := waitFor(t, p, func(u Update) bool { return u.Kind == SelectedJobRefreshed })
		assert.Equal(t, id, u.Job.ID, "the uploaded job becomes the watched one")
		assert.Eventually(t, func() bool {
			return srv.count("/api/jobs/active") > before
		}, 2*time.Second, 10*time.Millisecond, "upload invalidates the active list")
	})

	t.Run("process selects the new job", func(t *testing.T) {
		srv := newJobServer()
		p := startPoller(t, srv, nil, time.Hour)
		waitFor(t, p, func(u Update) bool { return u.Kind == ActiveJobsRefreshed })

		id, err := p.Process(context.Background(), "clips/demo.mp4", models.ProcessingParams{Style: "cinematic"})
		require.NoError(t, err)

		u := waitFor(t, p, func(u Update) bool { return u.Kind == SelectedJobRefreshed })
		assert.Equal(t, id, u.Job.ID)
	})

	t.Run("analyze selects the new job", func(t *testing.T) {
		srv := newJobServer()
		p := startPoller(t, srv, nil, time.Hour)
		waitFor(t, p, func(u Update) bool { return u.Kind == ActiveJobsRefreshed })

		id, err := p.Analyze(context.Background(), "clips/demo.mp4", models.AnalysisParams{DetectScenes: true})
		require.NoError(t, err)

		u := waitFor(t, p, func(u Update) bool { return u.Kind == SelectedJobRefreshed })
		assert.Equal(t, id, u.Job.ID)
	})

	t.Run("upload failure leaves the watch untouched", func(t *testing.T) {
		srv := newJobServer()
		p := startPoller(t, srv, nil, time.Hour)
		waitFor(t, p, func(u Update) bool { return u.Kind == ActiveJobsRefreshed })

		_, err := p.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
		require.ErrorIs(t, err, shared.ErrValidation)
		assert.Nil(t, p.Selected())
	})
}

// package jobs keeps the client's view of backend processing jobs fresh.
//
// A Poller refreshes the active-jobs list on a fixed interval and, when a
// job is selected, runs a second loop watching just that job until it
// reaches a terminal status. Consumers read snapshots through Active and
// Selected and react to pushes on Updates.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"vidx/internal/api"
	"vidx/internal/models"
	"vidx/internal/shared"
)

// DefaultInterval is the refresh cadence for both loops.
const DefaultInterval = 5 * time.Second

// UpdateKind tags what changed in an Update.
type UpdateKind int

const (
	// ActiveJobsRefreshed carries a fresh active-jobs snapshot in Jobs.
	ActiveJobsRefreshed UpdateKind = iota
	// SelectedJobRefreshed carries the watched job's latest state in Job.
	SelectedJobRefreshed
	// SelectedJobFinished carries the watched job's terminal state in Job.
	// The watch loop has stopped; no further selected updates follow.
	SelectedJobFinished
	// RefreshFailed carries the failure in Err. The previous snapshot
	// stays readable through Active and Selected.
	RefreshFailed
)

// Update is a single push from the poller to its consumer.
type Update struct {
	Kind UpdateKind
	Jobs []models.Job
	Job  *models.Job
	Err  error
}

// JobCache persists last-seen job snapshots for offline listing.
type JobCache interface {
	Upsert(models.Job) error
}

// Poller owns the refresh loops. Construct with NewPoller, start with Run,
// and stop by cancelling Run's context.
type Poller struct {
	api      *api.Client
	cache    JobCache
	logger   *log.Logger
	interval time.Duration

	updates chan Update
	kick    chan struct{}

	mu        sync.Mutex
	runCtx    context.Context
	pending   string
	active    []models.Job
	selected  *models.Job
	selID     string
	selCancel context.CancelFunc
	selKick   chan struct{}
	lastErr   error
	closed    bool
}

// NewPoller creates a Poller over the given client. A nil cache disables
// snapshot persistence; a non-positive interval falls back to
// DefaultInterval.
func NewPoller(client *api.Client, cache JobCache, logger *log.Logger, interval time.Duration) *Poller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		api:      client,
		cache:    cache,
		logger:   logger,
		interval: interval,
		updates:  make(chan Update, 64),
		kick:     make(chan struct{}, 1),
	}
}

// Updates is the push channel. Sends never block: when the consumer falls
// behind, updates are dropped and state is recovered from the snapshot
// accessors. The channel closes when Run returns.
func (p *Poller) Updates() <-chan Update {
	return p.updates
}

// Run drives the active-jobs loop until ctx is cancelled. It refreshes
// once immediately, then on every tick or kick. Cancelling ctx also tears
// down any selected-job watch before Run returns.
func (p *Poller) Run(ctx context.Context) {
	p.mu.Lock()
	p.runCtx = ctx
	if p.pending != "" {
		id := p.pending
		p.pending = ""
		p.startWatch(id)
	}
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refreshActive(ctx)

	for {
		select {
		case <-ctx.Done():
			p.Deselect()
			p.mu.Lock()
			p.closed = true
			p.mu.Unlock()
			close(p.updates)
			return
		case <-ticker.C:
			p.refreshActive(ctx)
		case <-p.kick:
			p.refreshActive(ctx)
		}
	}
}

// Invalidate requests an immediate refresh of the active-jobs list.
// It never blocks; a refresh already pending absorbs the request.
func (p *Poller) Invalidate() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Active returns the last good active-jobs snapshot.
func (p *Poller) Active() []models.Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Job, len(p.active))
	copy(out, p.active)
	return out
}

// Selected returns a copy of the watched job, or nil when none is selected.
func (p *Poller) Selected() *models.Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected == nil {
		return nil
	}
	j := *p.selected
	return &j
}

// LastError returns the most recent refresh failure, or nil after a
// successful refresh. Concurrent failures resolve last-write-wins.
func (p *Poller) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Select starts watching a job, replacing any prior watch. The job is
// fetched immediately and then on the poll interval until it reaches a
// terminal status. A Select issued before Run starts is remembered and
// the watch begins once Run does.
func (p *Poller) Select(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.runCtx == nil {
		p.pending = id
		return
	}
	p.startWatch(id)
}

// startWatch spawns the watch goroutine. Callers hold p.mu.
func (p *Poller) startWatch(id string) {
	if p.selCancel != nil {
		p.selCancel()
	}
	ctx, cancel := context.WithCancel(p.runCtx)
	p.selCancel = cancel
	p.selKick = make(chan struct{}, 1)
	p.selID = id
	p.selected = nil

	go p.watch(ctx, id, p.selKick)
}

// Deselect stops the selected-job watch, if any.
func (p *Poller) Deselect() {
	p.mu.Lock()
	if p.selCancel != nil {
		p.selCancel()
		p.selCancel = nil
	}
	p.pending = ""
	p.selID = ""
	p.selKick = nil
	p.selected = nil
	p.mu.Unlock()
}

// kickSelected requests an immediate refetch of the watched job when its
// id matches. It never blocks.
func (p *Poller) kickSelected(id string) {
	p.mu.Lock()
	kick := p.selKick
	match := p.selID == id
	p.mu.Unlock()
	if !match || kick == nil {
		return
	}
	select {
	case kick <- struct{}{}:
	default:
	}
}

// watch polls one job until terminal status or cancellation.
func (p *Poller) watch(ctx context.Context, id string, kick <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if done := p.refreshSelected(ctx, id); done {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-kick:
		}
	}
}

// refreshSelected fetches the watched job once. It reports true when the
// watch should stop: terminal status reached or the context is gone.
func (p *Poller) refreshSelected(ctx context.Context, id string) bool {
	job, err := p.api.Job(ctx, id)
	if ctx.Err() != nil {
		return true
	}
	if err != nil {
		p.logger.Debug("selected job refresh failed", "job", id, "error", err)
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		p.emit(Update{Kind: RefreshFailed, Err: err})
		return false
	}

	p.mu.Lock()
	merged := mergeJob(p.selected, *job)
	p.selected = &merged
	p.lastErr = nil
	p.mu.Unlock()

	p.persist(merged)

	if merged.Status.Terminal() {
		j := merged
		p.emit(Update{Kind: SelectedJobFinished, Job: &j})
		p.mu.Lock()
		p.selCancel = nil
		p.selID = ""
		p.selKick = nil
		p.mu.Unlock()
		return true
	}

	j := merged
	p.emit(Update{Kind: SelectedJobRefreshed, Job: &j})
	return false
}

// refreshActive fetches the active-jobs list once. Failures keep the stale
// snapshot in place.
func (p *Poller) refreshActive(ctx context.Context) {
	jobs, err := p.api.ActiveJobs(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		p.logger.Debug("active jobs refresh failed", "error", err)
		p.mu.Lock()
		p.lastErr = err
		stale := make([]models.Job, len(p.active))
		copy(stale, p.active)
		p.mu.Unlock()
		p.emit(Update{Kind: RefreshFailed, Jobs: stale, Err: err})
		return
	}

	p.mu.Lock()
	prev := make(map[string]models.Job, len(p.active))
	for _, j := range p.active {
		prev[j.ID] = j
	}
	merged := make([]models.Job, 0, len(jobs))
	for _, j := range jobs {
		if old, ok := prev[j.ID]; ok {
			merged = append(merged, mergeJob(&old, j))
		} else {
			merged = append(merged, j)
		}
	}
	p.active = merged
	p.lastErr = nil
	snapshot := make([]models.Job, len(merged))
	copy(snapshot, merged)
	p.mu.Unlock()

	for _, j := range snapshot {
		p.persist(j)
	}
	p.emit(Update{Kind: ActiveJobsRefreshed, Jobs: snapshot})
}

// mergeJob folds an incoming job state over the previous one, ignoring
// status regressions from out-of-order poll responses.
func mergeJob(prev *models.Job, next models.Job) models.Job {
	if prev == nil || prev.ID != next.ID {
		return next
	}
	if !prev.Status.CanTransition(next.Status) {
		return *prev
	}
	return next
}

// persist upserts a snapshot into the cache, best-effort.
func (p *Poller) persist(j models.Job) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Upsert(j); err != nil {
		p.logger.Debug("job cache upsert failed", "job", j.ID, "error", err)
	}
}

func (p *Poller) emit(u Update) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.updates <- u:
	default:
	}
}

// Upload sends a local video file to the backend and starts watching the
// resulting job.
func (p *Poller) Upload(ctx context.Context, path string) (string, error) {
	id, err := p.api.UploadVideo(ctx, path)
	if err != nil {
		return "", err
	}
	p.Invalidate()
	p.Select(id)
	return id, nil
}

// Process starts a processing job for an uploaded video and watches it.
func (p *Poller) Process(ctx context.Context, videoPath string, params models.ProcessingParams) (string, error) {
	id, err := p.api.ProcessVideo(ctx, videoPath, params)
	if err != nil {
		return "", err
	}
	p.Invalidate()
	p.Select(id)
	return id, nil
}

// Analyze starts an analysis job for an uploaded video and watches it.
func (p *Poller) Analyze(ctx context.Context, videoPath string, params models.AnalysisParams) (string, error) {
	id, err := p.api.AnalyzeVideo(ctx, videoPath, params)
	if err != nil {
		return "", err
	}
	p.Invalidate()
	p.Select(id)
	return id, nil
}

// Cancel asks the backend to cancel a job, then refreshes the list and,
// when the job is the watched one, its detail snapshot.
func (p *Poller) Cancel(ctx context.Context, id string) error {
	if err := p.api.CancelJob(ctx, id); err != nil {
		return err
	}
	p.Invalidate()
	p.kickSelected(id)
	return nil
}

// Prioritize moves a queued job up or down, then refreshes the list and,
// when the job is the watched one, its detail snapshot.
func (p *Poller) Prioritize(ctx context.Context, id, direction string) error {
	if err := p.api.PrioritizeJob(ctx, id, direction); err != nil {
		return err
	}
	p.Invalidate()
	p.kickSelected(id)
	return nil
}

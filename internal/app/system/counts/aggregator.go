package counts

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/hrdesk/internal/app/system/events"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/app/system/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// asyncRefreshTimeout bounds refreshes triggered by a countsRefresh event.
const asyncRefreshTimeout = 30 * time.Second

// ErrSessionExpired is returned when the upstream API rejected the token.
var ErrSessionExpired = errors.New("counts: session expired")

// ErrUnavailable is returned when every source failed with a transport or
// server error, which is treated as an outage rather than all-zero counts.
var ErrUnavailable = errors.New("counts: upstream unavailable")

// delta maps increment/decrement events to the field they move and the sign.
var delta = map[events.Kind]struct {
	field Field
	sign  int
}{
	events.TaskCreated:         {FieldTasks, +1},
	events.TaskCompleted:       {FieldTasks, -1},
	events.TaskDeleted:         {FieldTasks, -1},
	events.EvaluationAssigned:  {FieldEvaluations, +1},
	events.EvaluationCompleted: {FieldEvaluations, -1},
	events.AttendanceRequested: {FieldAttendance, +1},
	events.AttendanceCheckedIn: {FieldAttendance, -1},
	events.MessageReceived:     {FieldMessages, +1},
	events.MessageRead:         {FieldMessages, -1},
	events.ReportSubmitted:     {FieldReports, +1},
	events.ReportReviewed:      {FieldReports, -1},
}

// Options carries an Aggregator's collaborators.
type Options struct {
	Client         *hrapi.Client
	Log            *zap.Logger
	Metrics        *metrics.Metrics
	OnUnauthorized func(userID string)
	Now            func() time.Time
}

// Aggregator owns one user's CountsState. It is safe for concurrent use.
type Aggregator struct {
	userID   string
	profile  Profile
	client   *hrapi.Client
	log      *zap.Logger
	metrics  *metrics.Metrics
	onUnauth func(userID string)
	now      func() time.Time

	sf singleflight.Group

	mu       sync.Mutex
	token    string
	state    State
	started  uint64 // sequence of the newest fetch started
	applied  uint64 // sequence of the newest fetch whose result was applied
	lastUsed time.Time

	bus   *events.Bus
	subID string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAggregator builds an Aggregator for userID. It starts uninitialized and
// does not fetch until asked.
func NewAggregator(userID, token string, p Profile, opts Options) *Aggregator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Aggregator{
		userID:   userID,
		profile:  p,
		client:   opts.Client,
		log:      log.With(zap.String("user_id", userID), zap.String("role", p.Role)),
		metrics:  opts.Metrics,
		onUnauth: opts.OnUnauthorized,
		now:      now,
		token:    token,
		lastUsed: now(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// UserID returns the owner.
func (a *Aggregator) UserID() string { return a.userID }

// Role returns the profile's role.
func (a *Aggregator) Role() string { return a.profile.Role }

// Interval returns the staleness window.
func (a *Aggregator) Interval() time.Duration { return a.profile.Interval }

// SetToken replaces the access token used for later fetches.
func (a *Aggregator) SetToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

// Touch marks the aggregator as used now.
func (a *Aggregator) Touch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastUsed = a.now()
}

// LastUsed reports the last Touch.
func (a *Aggregator) LastUsed() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastUsed
}

// Snapshot returns a copy of the current state.
func (a *Aggregator) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Sync is the automatic refresh. Once initialized it does nothing while the
// last successful fetch is younger than the staleness window. Concurrent
// Sync calls share one fetch.
func (a *Aggregator) Sync(ctx context.Context) (State, error) {
	a.mu.Lock()
	fresh := a.state.Initialized && a.now().Sub(a.state.LastFetched) < a.profile.Interval
	st := a.state
	a.mu.Unlock()

	if fresh {
		a.metrics.ObserveRefresh(a.profile.Role, metrics.OutcomeSkipped, 0)
		return st, nil
	}

	v, err, _ := a.sf.Do("sync", func() (any, error) {
		return a.fetch(ctx)
	})
	return v.(State), err
}

// Refresh is the manual refresh: it always fetches and restarts the
// staleness window on success.
func (a *Aggregator) Refresh(ctx context.Context) (State, error) {
	return a.fetch(ctx)
}

// ForceRefresh clears the initialized flag, so Loading is reported until the
// fetch lands, then fetches.
func (a *Aggregator) ForceRefresh(ctx context.Context) (State, error) {
	a.mu.Lock()
	a.state.Initialized = false
	a.mu.Unlock()
	return a.fetch(ctx)
}

// fetch runs every source concurrently and merges the results. A failing
// source contributes 0. An upstream 401, a missing token, a cancelled context
// or every source failing with a non-404 error fail the whole fetch, and
// those leave the previous counts in place.
func (a *Aggregator) fetch(ctx context.Context) (State, error) {
	a.mu.Lock()
	a.started++
	seq := a.started
	token := a.token
	if !a.state.Initialized {
		a.state.Loading = true
	}
	a.mu.Unlock()

	start := a.now()

	sess, err := a.client.Session(token)
	if err != nil {
		return a.fail(seq, start, metrics.OutcomeError, "not signed in", err)
	}

	results := make([]int, len(a.profile.Sources))
	var unauthorized atomic.Bool
	var broken atomic.Int32
	var g errgroup.Group
	for i, src := range a.profile.Sources {
		g.Go(func() error {
			n, err := src.Fetch(ctx, Request{Session: sess, UserID: a.userID, Log: a.log})
			if err != nil {
				n = 0
				if a.sourceFailed(src, err, &unauthorized) {
					broken.Add(1)
				}
			}
			results[i] = n
			return nil
		})
	}
	_ = g.Wait()

	if unauthorized.Load() {
		st, err := a.fail(seq, start, metrics.OutcomeUnauthorized, "session expired", ErrSessionExpired)
		if a.onUnauth != nil {
			a.onUnauth(a.userID)
		}
		return st, err
	}
	if err := ctx.Err(); err != nil {
		return a.fail(seq, start, metrics.OutcomeError, "refresh cancelled", err)
	}
	if n := len(a.profile.Sources); n > 0 && int(broken.Load()) == n {
		return a.fail(seq, start, metrics.OutcomeError, "counts unavailable", ErrUnavailable)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if seq < a.applied {
		// A newer fetch already landed; this result is older than what we show.
		a.metrics.ObserveRefresh(a.profile.Role, metrics.OutcomeStale, a.now().Sub(start))
		return a.state, nil
	}
	a.applied = seq

	var c Counts
	for i, src := range a.profile.Sources {
		c.Set(src.Field, results[i])
	}
	a.state.Counts = c
	a.state.Error = ""
	a.state.LastFetched = a.now()
	a.state.Initialized = true
	if seq == a.started {
		a.state.Loading = false
	}

	a.metrics.ObserveRefresh(a.profile.Role, metrics.OutcomeOK, a.now().Sub(start))
	a.log.Debug("counts refreshed",
		zap.Int("tasks", c.Tasks),
		zap.Int("evaluations", c.Evaluations),
		zap.Int("attendance", c.Attendance),
		zap.Int("messages", c.Messages),
		zap.Int("reports", c.Reports))
	return a.state, nil
}

// sourceFailed records a source error. It reports whether the error was an
// outage (neither a 401 nor a missing endpoint).
func (a *Aggregator) sourceFailed(src Source, err error, unauthorized *atomic.Bool) bool {
	switch {
	case errors.Is(err, hrapi.ErrUnauthorized):
		unauthorized.Store(true)
		a.metrics.SourceFailed(a.profile.Role, string(src.Field), "unauthorized")
		return false
	case errors.Is(err, hrapi.ErrNotFound):
		// Feature not deployed upstream; a zero badge is the right answer.
		a.metrics.SourceFailed(a.profile.Role, string(src.Field), "not_found")
		a.log.Debug("count source not available",
			zap.String("field", string(src.Field)),
			zap.String("endpoint", src.Endpoint))
		return false
	default:
		a.metrics.SourceFailed(a.profile.Role, string(src.Field), "error")
		a.log.Warn("count source failed",
			zap.String("field", string(src.Field)),
			zap.String("endpoint", src.Endpoint),
			zap.Error(err))
		return true
	}
}

// fail records an aggregate failure without touching the counts.
func (a *Aggregator) fail(seq uint64, start time.Time, outcome, msg string, err error) (State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Error = msg
	if seq == a.started {
		a.state.Loading = false
	}
	a.metrics.ObserveRefresh(a.profile.Role, outcome, a.now().Sub(start))
	a.log.Warn("count refresh failed", zap.String("reason", msg), zap.Error(err))
	return a.state, err
}

// Apply folds a domain event into the counts.
func (a *Aggregator) Apply(e events.Event) {
	switch e.Kind {
	case events.CountsRefresh:
		a.refreshAsync()
		a.metrics.EventApplied(string(e.Kind))
		return
	case events.CountSet:
		f, ok := ParseField(e.Field)
		if !ok {
			a.log.Warn("countSet with unknown field", zap.String("field", e.Field))
			return
		}
		v := e.Value
		if v < 0 {
			v = 0
		}
		a.mu.Lock()
		a.state.Set(f, v)
		a.mu.Unlock()
	case events.MessagesCleared:
		a.mu.Lock()
		a.state.Messages = 0
		a.mu.Unlock()
	default:
		d, ok := delta[e.Kind]
		if !ok {
			return
		}
		a.mu.Lock()
		a.state.Add(d.field, d.sign*e.Step())
		a.mu.Unlock()
	}
	a.metrics.EventApplied(string(e.Kind))
}

// refreshAsync runs a forced refresh off the publisher's goroutine.
func (a *Aggregator) refreshAsync() {
	a.mu.Lock()
	if a.ctx.Err() != nil {
		a.mu.Unlock()
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(a.ctx, asyncRefreshTimeout)
		defer cancel()
		_, _ = a.ForceRefresh(ctx)
	}()
}

// Attach subscribes the aggregator to its user's events.
func (a *Aggregator) Attach(bus *events.Bus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bus != nil {
		return
	}
	a.bus = bus
	a.subID = bus.Subscribe(a.userID, a.Apply)
}

// Close unsubscribes and cancels async refreshes. It does not wait for them;
// use Wait for that.
func (a *Aggregator) Close() {
	a.mu.Lock()
	a.cancel()
	bus, sub := a.bus, a.subID
	a.bus, a.subID = nil, ""
	a.mu.Unlock()
	if bus != nil {
		bus.Unsubscribe(a.userID, sub)
	}
}

// Wait blocks until async refreshes have returned.
func (a *Aggregator) Wait() {
	a.wg.Wait()
}

// Debug is a diagnostic view of the aggregator.
type Debug struct {
	UserID   string        `json:"userId"`
	Role     string        `json:"role"`
	Interval time.Duration `json:"interval"`
	State    State         `json:"state"`
	Started  uint64        `json:"started"`
	Applied  uint64        `json:"applied"`
	Attached bool          `json:"attached"`
	LastUsed time.Time     `json:"lastUsed"`
}

// Debug returns internal bookkeeping for the debug endpoint.
func (a *Aggregator) Debug() Debug {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Debug{
		UserID:   a.userID,
		Role:     a.profile.Role,
		Interval: a.profile.Interval,
		State:    a.state,
		Started:  a.started,
		Applied:  a.applied,
		Attached: a.bus != nil,
		LastUsed: a.lastUsed,
	}
}

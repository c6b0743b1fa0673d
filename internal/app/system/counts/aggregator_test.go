package counts_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/hrdesk/internal/app/system/completion"
	"github.com/dalemusser/hrdesk/internal/app/system/counts"
	"github.com/dalemusser/hrdesk/internal/app/system/events"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/domain/models"
	"github.com/dalemusser/hrdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var adminPaths = []string{
	"/api/v1/tasks",
	"/api/v1/dashboard/hr/evaluations",
	"/api/v1/attendance",
	"/api/v1/notifications",
	"/api/v1/dashboard/reports",
}

func seedAdmin(api *testutil.FakeAPI) {
	api.OK(http.MethodGet, "/api/v1/tasks", []map[string]any{{"id": "t1"}, {"id": "t2"}, {"id": "t3"}})
	api.OK(http.MethodGet, "/api/v1/dashboard/hr/evaluations", map[string]any{"count": 2})
	api.OK(http.MethodGet, "/api/v1/attendance", map[string]any{"items": []int{1}})
	api.OK(http.MethodGet, "/api/v1/notifications", map[string]any{"unreadCount": 4})
	api.OK(http.MethodGet, "/api/v1/dashboard/reports", 5)
}

func newClient(t *testing.T, baseURL string) *hrapi.Client {
	t.Helper()
	c, err := hrapi.New(hrapi.Config{BaseURL: baseURL, Timeout: 5 * time.Second}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func hitsAll(api *testutil.FakeAPI, paths []string) []int {
	out := make([]int, len(paths))
	for i, p := range paths {
		out[i] = api.Hits(http.MethodGet, p)
	}
	return out
}

func TestAggregator_RefreshMergesAllSources(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	seedAdmin(api)
	clk := newClock()

	a := counts.NewAggregator("u-1", "jwt-1", counts.AdminProfile(30*time.Second), counts.Options{
		Client: newClient(t, api.URL()),
		Now:    clk.Now,
	})

	st, err := a.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, counts.Counts{Tasks: 3, Evaluations: 2, Attendance: 1, Messages: 4, Reports: 5}, st.Counts)
	assert.True(t, st.Initialized)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	assert.Equal(t, clk.Now(), st.LastFetched)
	assert.Equal(t, "Bearer jwt-1", api.LastAuthorization())
}

func TestAggregator_SyncHonoursStalenessWindow(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	seedAdmin(api)
	clk := newClock()

	a := counts.NewAggregator("u-1", "jwt-1", counts.AdminProfile(30*time.Second), counts.Options{
		Client: newClient(t, api.URL()),
		Now:    clk.Now,
	})
	ctx := context.Background()

	// Uninitialized: Sync fetches.
	_, err := a.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1, 1}, hitsAll(api, adminPaths))

	// Inside the window: no network.
	clk.Advance(29 * time.Second)
	st, err := a.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Tasks)
	assert.Equal(t, []int{1, 1, 1, 1, 1}, hitsAll(api, adminPaths))

	// Window elapsed: fetches again.
	clk.Advance(2 * time.Second)
	_, err = a.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2, 2, 2}, hitsAll(api, adminPaths))
}

func TestAggregator_ManualAndForcedRefreshAlwaysFetch(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	seedAdmin(api)
	clk := newClock()

	a := counts.NewAggregator("u-1", "jwt-1", counts.AdminProfile(time.Hour), counts.Options{
		Client: newClient(t, api.URL()),
		Now:    clk.Now,
	})
	ctx := context.Background()

	_, err := a.Refresh(ctx)
	require.NoError(t, err)
	_, err = a.Refresh(ctx)
	require.NoError(t, err)
	st, err := a.ForceRefresh(ctx)
	require.NoError(t, err)

	assert.True(t, st.Initialized)
	assert.Equal(t, 3, api.Hits(http.MethodGet, "/api/v1/tasks"))

	// A manual refresh restarts the window.
	clk.Advance(10 * time.Minute)
	_, err = a.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, api.Hits(http.MethodGet, "/api/v1/tasks"))
}

func TestAggregator_ConcurrentSyncSharesOneFetch(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	seedAdmin(api)
	release := api.Hold(http.MethodGet, "/api/v1/tasks")

	a := counts.NewAggregator("u-1", "jwt-1", counts.AdminProfile(time.Minute), counts.Options{
		Client: newClient(t, api.URL()),
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = a.Sync(context.Background())
		}()
	}

	require.Eventually(t, func() bool {
		return api.Hits(http.MethodGet, "/api/v1/tasks") >= 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, a.Snapshot().Loading, "loading while the first fetch is in flight")

	release()
	wg.Wait()

	assert.Equal(t, 1, api.Hits(http.MethodGet, "/api/v1/tasks"))
	assert.False(t, a.Snapshot().Loading)
}

func TestAggregator_FailingSourcesCountAsZero(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	seedAdmin(api)
	api.Fail(http.MethodGet, "/api/v1/tasks", http.StatusInternalServerError, "boom")
	api.Raw(http.MethodGet, "/api/v1/dashboard/reports", http.StatusNotFound, "")
	api.Raw(http.MethodGet, "/api/v1/attendance", http.StatusOK, "<html>oops</html>")

	a := counts.NewAggregator("u-1", "jwt-1", counts.AdminProfile(time.Minute), counts.Options{
		Client: newClient(t, api.URL()),
	})

	st, err := a.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, counts.Counts{Tasks: 0, Evaluations: 2, Attendance: 0, Messages: 4, Reports: 0}, st.Counts)
	assert.Empty(t, st.Error)
	assert.True(t, st.Initialized)
}

func TestAggregator_OutageKeepsPreviousCounts(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	seedAdmin(api)

	a := counts.NewAggregator("u-1", "jwt-1", counts.AdminProfile(time.Minute), counts.Options{
		Client: newClient(t, api.URL()),
	})
	ctx := context.Background()

	before, err := a.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, counts.Counts{Tasks: 3, Evaluations: 2, Attendance: 1, Messages: 4, Reports: 5}, before.Counts)

	for _, p := range adminPaths {
		api.Fail(http.MethodGet, p, http.StatusBadGateway, "upstream down")
	}
	st, err := a.Refresh(ctx)
	require.ErrorIs(t, err, counts.ErrUnavailable)

	assert.Equal(t, before.Counts, st.Counts)
	assert.Equal(t, before.LastFetched, st.LastFetched)
	assert.Equal(t, "counts unavailable", st.Error)
	assert.False(t, st.Loading)

	// One source coming back is a partial failure again, not an outage.
	api.OK(http.MethodGet, "/api/v1/notifications", map[string]any{"unreadCount": 7})
	st, err = a.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, counts.Counts{Messages: 7}, st.Counts)
	assert.Empty(t, st.Error)
}

func TestAggregator_UnauthorizedKeepsCounts(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	seedAdmin(api)

	var expired []string
	a := counts.NewAggregator("u-1", "jwt-1", counts.AdminProfile(time.Minute), counts.Options{
		Client:         newClient(t, api.URL()),
		OnUnauthorized: func(id string) { expired = append(expired, id) },
	})
	ctx := context.Background()

	before, err := a.Refresh(ctx)
	require.NoError(t, err)

	api.Fail(http.MethodGet, "/api/v1/notifications", http.StatusUnauthorized, "jwt expired")
	st, err := a.Refresh(ctx)
	require.ErrorIs(t, err, counts.ErrSessionExpired)

	assert.Equal(t, before.Counts, st.Counts)
	assert.Equal(t, before.LastFetched, st.LastFetched)
	assert.NotEmpty(t, st.Error)
	assert.False(t, st.Loading)
	assert.Equal(t, []string{"u-1"}, expired)
}

func TestAggregator_MissingTokenIsAnAggregateError(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	seedAdmin(api)

	a := counts.NewAggregator("u-1", "", counts.AdminProfile(time.Minute), counts.Options{
		Client: newClient(t, api.URL()),
	})
	st, err := a.Refresh(context.Background())
	require.ErrorIs(t, err, hrapi.ErrNoToken)
	assert.Equal(t, counts.Counts{}, st.Counts)
	assert.False(t, st.Initialized)
	assert.False(t, st.Loading)
	assert.Equal(t, 0, api.TotalHits())
}

func TestAggregator_ApplyEvents(t *testing.T) {
	p := counts.Profile{Role: models.RoleHR, Interval: time.Minute, Sources: []counts.Source{
		fixed(counts.FieldTasks, 2),
		fixed(counts.FieldEvaluations, 1),
		fixed(counts.FieldAttendance, 0),
		fixed(counts.FieldMessages, 3),
		fixed(counts.FieldReports, 1),
	}}
	a := counts.NewAggregator("u-1", "jwt", p, counts.Options{Client: newClient(t, "http://127.0.0.1:1")})
	_, err := a.Refresh(context.Background())
	require.NoError(t, err)

	a.Apply(events.Event{Kind: events.TaskCreated})
	a.Apply(events.Event{Kind: events.TaskCreated, Delta: 3})
	assert.Equal(t, 6, a.Snapshot().Tasks)

	a.Apply(events.Event{Kind: events.EvaluationCompleted})
	a.Apply(events.Event{Kind: events.EvaluationCompleted})
	assert.Equal(t, 0, a.Snapshot().Evaluations, "decrements stop at zero")

	a.Apply(events.Event{Kind: events.AttendanceCheckedIn})
	assert.Equal(t, 0, a.Snapshot().Attendance)

	a.Apply(events.Event{Kind: events.MessagesCleared})
	assert.Equal(t, 0, a.Snapshot().Messages)

	a.Apply(events.Event{Kind: events.CountSet, Field: "reports", Value: 9})
	assert.Equal(t, 9, a.Snapshot().Reports)
	a.Apply(events.Event{Kind: events.CountSet, Field: "reports", Value: -4})
	assert.Equal(t, 0, a.Snapshot().Reports)

	a.Apply(events.Event{Kind: events.CountSet, Field: "bogus", Value: 4})
	a.Apply(events.Event{Kind: events.Kind("nonsense")})
	assert.Equal(t, counts.Counts{Tasks: 6}, a.Snapshot().Counts)
}

func TestAggregator_StaleResponseIsDiscarded(t *testing.T) {
	slowGate := make(chan struct{})
	var calls atomic.Int32
	src := counts.Source{
		Field: counts.FieldTasks,
		Fetch: func(ctx context.Context, _ counts.Request) (int, error) {
			if calls.Add(1) == 1 {
				<-slowGate
				return 100, nil
			}
			return 7, nil
		},
	}
	p := counts.Profile{Role: models.RoleAdmin, Interval: time.Minute, Sources: []counts.Source{src}}
	a := counts.NewAggregator("u-1", "jwt", p, counts.Options{Client: newClient(t, "http://127.0.0.1:1")})

	slowDone := make(chan counts.State)
	go func() {
		st, _ := a.Refresh(context.Background())
		slowDone <- st
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	st, err := a.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, st.Tasks)

	close(slowGate)
	<-slowDone

	final := a.Snapshot()
	assert.Equal(t, 7, final.Tasks, "older response must not overwrite newer one")
	assert.False(t, final.Loading)
	assert.Equal(t, uint64(2), a.Debug().Applied)
}

func TestAggregator_CountsRefreshEventRefetches(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var calls atomic.Int32
	src := counts.Source{
		Field: counts.FieldMessages,
		Fetch: func(ctx context.Context, _ counts.Request) (int, error) {
			return int(calls.Add(1)), nil
		},
	}
	p := counts.Profile{Role: models.RoleStaff, Interval: time.Hour, Sources: []counts.Source{src}}
	a := counts.NewAggregator("u-9", "jwt", p, counts.Options{Client: newClient(t, "http://127.0.0.1:1")})

	bus := events.NewBus(zap.NewNop())
	a.Attach(bus)
	assert.Equal(t, 1, bus.Subscribers("u-9"))

	_, err := a.Sync(context.Background())
	require.NoError(t, err)

	bus.Publish(events.Event{Kind: events.CountsRefresh, UserID: "u-9"})
	require.Eventually(t, func() bool { return a.Snapshot().Messages == 2 }, 2*time.Second, 5*time.Millisecond)

	// Events for someone else do nothing.
	bus.Publish(events.Event{Kind: events.MessageReceived, UserID: "u-other"})
	assert.Equal(t, 2, a.Snapshot().Messages)

	bus.Publish(events.Event{Kind: events.MessageReceived, UserID: "u-9"})
	assert.Equal(t, 3, a.Snapshot().Messages)

	a.Close()
	a.Wait()
	assert.Equal(t, 0, bus.Subscribers("u-9"))

	// Closed aggregators ignore refresh requests.
	a.Apply(events.Event{Kind: events.CountsRefresh})
	a.Wait()
	assert.Equal(t, int32(2), calls.Load())
}

type evidenceStub struct {
	ev  completion.Evidence
	err error
}

func (s evidenceStub) Evidence(context.Context, string) (completion.Evidence, error) {
	return s.ev, s.err
}

func TestStaffProfile_ReconcilesEvaluations(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.OK(http.MethodGet, "/api/v1/tasks", []int{1, 2})
	api.OK(http.MethodGet, "/api/v1/dashboard/staff/evaluations/reviews", map[string]any{
		"reviews": []map[string]any{
			{"id": "e1", "status": "pending"},
			{"id": "e2", "status": "completed"},
			{"id": "e3", "status": "pending", "responseId": "r-3"},
			{"id": "e4", "status": "pending"},
			{"id": "e5", "status": "pending"},
		},
	})
	api.OK(http.MethodGet, "/api/v1/attendance/today", nil)

	ev := completion.NewEvidence([]string{"e4"}, nil)
	p := counts.StaffProfile(time.Minute, evidenceStub{ev: ev})
	a := counts.NewAggregator("u-s", "jwt", p, counts.Options{Client: newClient(t, api.URL())})

	st, err := a.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, st.Tasks)
	assert.Equal(t, 2, st.Evaluations, "e1 and e5 remain")
	assert.Equal(t, 1, st.Attendance, "no record for today")
	assert.Equal(t, 0, st.Messages, "notifications not deployed")
}

func TestStaffProfile_EvidenceFailureUsesAPISignals(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.OK(http.MethodGet, "/api/v1/dashboard/staff/evaluations/reviews", []map[string]any{
		{"id": "e1", "status": "pending"},
		{"id": "e2", "status": "submitted"},
	})
	api.OK(http.MethodGet, "/api/v1/attendance/today", map[string]any{"id": "a1", "checkInAt": "2026-03-02T08:59:00Z"})

	p := counts.StaffProfile(time.Minute, evidenceStub{err: errors.New("mongo down")})
	a := counts.NewAggregator("u-s", "jwt", p, counts.Options{Client: newClient(t, api.URL())})

	st, err := a.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Evaluations)
	assert.Equal(t, 0, st.Attendance)
}

func fixed(f counts.Field, n int) counts.Source {
	return counts.Source{Field: f, Fetch: func(context.Context, counts.Request) (int, error) { return n, nil }}
}

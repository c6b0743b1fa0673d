package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// FakeAPI is an in-process stand-in for the upstream HR API. Routes answer
// with the {success, data, message} envelope; unknown routes return 404.
type FakeAPI struct {
	srv *httptest.Server

	mu       sync.Mutex
	routes   map[string]fakeRoute
	hits     map[string]int
	bodies   map[string][]byte
	lastAuth string
}

type fakeRoute struct {
	status int
	body   []byte
	hold   chan struct{}
}

// NewFakeAPI starts a FakeAPI that is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		routes: make(map[string]fakeRoute),
		hits:   make(map[string]int),
		bodies: make(map[string][]byte),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

// URL is the server's base URL.
func (f *FakeAPI) URL() string { return f.srv.URL }

func key(method, path string) string { return method + " " + path }

// OK answers method+path with 200 and {success: true, data}.
func (f *FakeAPI) OK(method, path string, data any) {
	raw, _ := json.Marshal(map[string]any{"success": true, "data": data})
	f.set(method, path, http.StatusOK, raw)
}

// Fail answers method+path with status and {success: false, message}.
func (f *FakeAPI) Fail(method, path string, status int, message string) {
	raw, _ := json.Marshal(map[string]any{"success": false, "message": message})
	f.set(method, path, status, raw)
}

// Raw answers method+path with status and a literal body.
func (f *FakeAPI) Raw(method, path string, status int, body string) {
	f.set(method, path, status, []byte(body))
}

func (f *FakeAPI) set(method, path string, status int, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.routes[key(method, path)]
	r.status, r.body = status, body
	f.routes[key(method, path)] = r
}

// Hold makes requests to method+path block until the returned release func
// is called. Release is idempotent.
func (f *FakeAPI) Hold(method, path string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	r := f.routes[key(method, path)]
	r.hold = ch
	f.routes[key(method, path)] = r
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			r := f.routes[key(method, path)]
			if r.hold == ch {
				r.hold = nil
				f.routes[key(method, path)] = r
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Hits returns how many requests method+path has received.
func (f *FakeAPI) Hits(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key(method, path)]
}

// TotalHits returns the number of requests received on any route.
func (f *FakeAPI) TotalHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.hits {
		n += v
	}
	return n
}

// LastBody returns the body of the latest request to method+path.
func (f *FakeAPI) LastBody(method, path string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key(method, path)]
}

// LastAuthorization returns the Authorization header of the latest request.
func (f *FakeAPI) LastAuthorization() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	k := key(r.Method, r.URL.Path)

	f.mu.Lock()
	f.hits[k]++
	f.bodies[k] = body
	f.lastAuth = r.Header.Get("Authorization")
	route, ok := f.routes[k]
	f.mu.Unlock()

	if route.hold != nil {
		select {
		case <-route.hold:
		case <-r.Context().Done():
			return
		}
		// Pick up any response change made while held.
		f.mu.Lock()
		route, ok = f.routes[k]
		f.mu.Unlock()
	}

	if !ok || route.status == 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"not found"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(route.status)
	_, _ = w.Write(route.body)
}

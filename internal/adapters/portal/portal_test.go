package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testFormToken   = "f0rmT0ken123"
	testCookieToken = "c00kieT0ken456"
	testSessionID   = "sessionid=s3ss10n789"
	testResellerID  = "4242"
)

// fakePortal emulates the upstream portal endpoints so the client can be
// exercised end to end without the real service.
type fakePortal struct {
	t   *testing.T
	srv *httptest.Server

	mu            sync.Mutex
	browseHits    int
	loginHits     int
	usageHits     map[string]int
	mutations     []capturedMutation
	directory     []map[string]any
	usageStats    map[string][]map[string]any
	purchased     map[string]any
	mutationCode  int
	mutationBody  string
	rejectLogin   bool
	omitFormToken bool
	omitSetCookie bool
	browseStatus  int
	browseNoLoc   bool
}

type capturedMutation struct {
	path    string
	headers http.Header
	body    map[string]string
}

func newFakePortal(t *testing.T) *fakePortal {
	f := &fakePortal{
		t:            t,
		usageHits:    map[string]int{},
		usageStats:   map[string][]map[string]any{},
		purchased:    map[string]any{},
		mutationCode: http.StatusOK,
		mutationBody: `{"msg": "Plan updated successfully!"}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/login/", byMethod(map[string]http.HandlerFunc{
		http.MethodGet:  f.handleLoginPage,
		http.MethodPost: f.handleLoginSubmit,
	}))
	mux.HandleFunc("/customer/browse/", byMethod(map[string]http.HandlerFunc{http.MethodGet: f.handleBrowse}))
	mux.HandleFunc("/msp/customer_data/", byMethod(map[string]http.HandlerFunc{http.MethodGet: f.handleDirectory}))
	mux.HandleFunc("/msp/usage_stats/", byMethod(map[string]http.HandlerFunc{http.MethodGet: f.handleUsageStats}))
	mux.HandleFunc("/msp/get_plan_pu_data/", byMethod(map[string]http.HandlerFunc{http.MethodGet: f.handlePurchased}))
	mux.HandleFunc("/msp/", byMethod(map[string]http.HandlerFunc{http.MethodPost: f.handleMutation}))

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	return f
}

func (f *fakePortal) client(t *testing.T, cfg Config) *Client {
	cfg.BaseURL = f.srv.URL
	if cfg.Username == "" {
		cfg.Username = "reseller@example.com"
	}
	if cfg.Password == "" {
		cfg.Password = "hunter2"
	}

	client, err := NewClient(cfg)
	require.NoError(t, err)
	// pacing is irrelevant against the fake
	client.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }

	return client
}

func (f *fakePortal) handleLoginPage(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	omit := f.omitFormToken
	f.mu.Unlock()

	w.Header().Add("Set-Cookie", "csrftoken="+testCookieToken+"; expires=Fri, 01 Jan 2027 00:00:00 GMT; Path=/")
	w.Header().Set("Content-Type", "text/html")

	page := `<html><body><form method="post">`
	if !omit {
		page += `<input type="hidden" name="csrfmiddlewaretoken" value="` + testFormToken + `">`
	}
	page += `<input name="username"><input name="password" type="password"></form></body></html>`
	_, _ = w.Write([]byte(page))
}

func (f *fakePortal) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.loginHits++
	reject := f.rejectLogin
	omitSetCookie := f.omitSetCookie
	f.mu.Unlock()

	require.NoError(f.t, r.ParseForm())
	if reject || r.PostForm.Get("csrfmiddlewaretoken") != testFormToken {
		w.WriteHeader(http.StatusOK) // portal re-renders the login form
		return
	}
	require.Equal(f.t, "1", r.PostForm.Get("this_is_the_login_form"))

	if !omitSetCookie {
		w.Header().Add("Set-Cookie", testSessionID+"; Path=/; HttpOnly")
	}
	w.Header().Set("Location", "/customer/browse/")
	w.WriteHeader(http.StatusFound)
}

func (f *fakePortal) handleBrowse(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.browseHits++
	status := f.browseStatus
	noLoc := f.browseNoLoc
	f.mu.Unlock()

	require.Contains(f.t, r.Header.Get("Cookie"), testSessionID)

	if status == 0 {
		status = http.StatusFound
	}
	if !noLoc {
		w.Header().Set("Location", "/msp/customer/browse/data/"+testResellerID+"/")
	}
	w.WriteHeader(status)
}

func (f *fakePortal) handleDirectory(w http.ResponseWriter, r *http.Request) {
	require.Equal(f.t, "/msp/customer_data/"+testResellerID, r.URL.Path)

	f.mu.Lock()
	directory := f.directory
	f.mu.Unlock()

	writeJSON(f.t, w, directory)
}

func (f *fakePortal) handleUsageStats(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.usageHits[r.URL.Path]++
	stats, ok := f.usageStats[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.Error(w, "no such plan", http.StatusInternalServerError)
		return
	}

	writeJSON(f.t, w, stats)
}

func (f *fakePortal) handlePurchased(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	payload, ok := f.purchased[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		writeJSON(f.t, w, map[string]any{})
		return
	}

	writeJSON(f.t, w, payload)
}

func (f *fakePortal) handleMutation(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))

	f.mu.Lock()
	f.mutations = append(f.mutations, capturedMutation{
		path:    r.URL.Path,
		headers: r.Header.Clone(),
		body:    body,
	})
	code := f.mutationCode
	respBody := f.mutationBody
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprint(w, respBody)
}

// byMethod stands in for Go 1.22 "METHOD /path" ServeMux patterns, which the
// Go 1.21 toolchain used to build this module does not support.
func byMethod(handlers map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.Method]; ok {
			h(w, r)
			return
		}
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func usageEntry(tenant string, puUsed, puUnused, puAvail, stUsed, stUnused, stAvail int, features map[string]int) map[string]any {
	if features == nil {
		features = map[string]int{}
	}
	return map[string]any{
		tenant: map[string]any{
			"power_user_stats": map[string]int{"Used": puUsed, "Unused": puUnused, "Available": puAvail},
			"storage_stats":    map[string]int{"Used": stUsed, "Unused": stUnused, "Available": stAvail},
			"feature_stats":    features,
		},
	}
}

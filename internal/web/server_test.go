// ABOUTME: End-to-end tests for the JSON API over httptest.
// ABOUTME: A cookie jar carries the session between requests.
package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/healthstatus/internal/auth"
	"github.com/harperreed/healthstatus/internal/dashboard"
	"github.com/harperreed/healthstatus/internal/metrics"
	"github.com/harperreed/healthstatus/internal/models"
	"github.com/harperreed/healthstatus/internal/registry"
	"github.com/harperreed/healthstatus/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type apiClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestServer(t *testing.T, cfg Config) *apiClient {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "healthstatus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := metrics.New(db, nil,
		metrics.WithClock(func() time.Time { return fixedNow }),
		metrics.WithLocation(time.UTC))
	srv, err := New(cfg, Deps{
		Store:     db,
		Auth:      auth.NewProvider(db, nil, auth.WithBcryptCost(bcrypt.MinCost)),
		Dashboard: dashboard.New(registry.New(db, nil), m),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

func (c *apiClient) do(method, path string, body any, headers ...string) *http.Response {
	c.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rdr)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	return decodeBody[map[string]string](t, resp)["error"]
}

func (c *apiClient) signUp(email string) {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email": email, "password": "correct-horse", "name": "Test User",
	})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	c := newTestServer(t, Config{})
	resp := c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, resp)["status"])
}

func TestRequiresSignIn(t *testing.T) {
	c := newTestServer(t, Config{})

	for _, path := range []string{"/api/auth/me", "/api/status-types", "/api/metrics/blood-pressure/dashboard"} {
		resp := c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestAuthFlow(t *testing.T) {
	c := newTestServer(t, Config{})
	c.signUp("Ada@Example.com")

	resp := c.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ada@example.com", decodeBody[auth.User](t, resp).Email)

	resp = c.do(http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Test User", decodeBody[models.UserProfile](t, resp).Name)

	resp = c.do(http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = c.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "failed to sign in", errorMessage(t, resp))

	resp = c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ada@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = c.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignUpErrors(t *testing.T) {
	c := newTestServer(t, Config{})
	c.signUp("ada@example.com")

	tests := []struct {
		name  string
		email string
		pass  string
		want  int
	}{
		{"duplicate email", "ada@example.com", "correct-horse", http.StatusConflict},
		{"invalid email", "not-an-email", "correct-horse", http.StatusBadRequest},
		{"weak password", "bob@example.com", "123", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := c.do(http.MethodPost, "/api/auth/signup", map[string]string{
				"email": tt.email, "password": tt.pass,
			})
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	c := newTestServer(t, Config{})
	req, err := http.NewRequest(http.MethodPost, c.base+"/api/auth/login", strings.NewReader("{"))
	require.NoError(t, err)
	resp, err := c.http.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChangePassword(t *testing.T) {
	c := newTestServer(t, Config{})
	c.signUp("ada@example.com")

	resp := c.do(http.MethodPost, "/api/auth/password", map[string]string{
		"current_password": "nope-nope", "new_password": "battery-staple",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/auth/password", map[string]string{
		"current_password": "correct-horse", "new_password": "battery-staple",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	c.do(http.MethodPost, "/api/auth/logout", nil)
	resp = c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ada@example.com", "password": "battery-staple",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpdateProfile(t *testing.T) {
	c := newTestServer(t, Config{})
	c.signUp("ada@example.com")

	resp := c.do(http.MethodPut, "/api/profile", map[string]string{
		"name":  "<b>Ada</b> Lovelace",
		"email": "other@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decodeBody[models.UserProfile](t, resp)
	assert.Equal(t, "Ada Lovelace", p.Name)
	assert.Equal(t, "ada@example.com", p.Email)
}

func TestStatusTypes(t *testing.T) {
	c := newTestServer(t, Config{})
	c.signUp("ada@example.com")

	resp := c.do(http.MethodGet, "/api/status-types", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]models.StatusType](t, resp), 2)

	mood := statusTypeRequest{
		Name: "Mood",
		Thresholds: models.ThresholdSet{
			Normal: 3, Elevated: 6, High: 9,
			Ranges: models.RangeNames{Normal: "Low", Elevated: "Okay", High: "Great"},
		},
	}
	resp = c.do(http.MethodPost, "/api/status-types", mood)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "mood", decodeBody[models.StatusType](t, resp).ID)

	resp = c.do(http.MethodPost, "/api/status-types", mood)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	bad := mood
	bad.Name = "Energy"
	bad.Thresholds.High = 1
	resp = c.do(http.MethodPost, "/api/status-types", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errorMessage(t, resp), "ascending")

	resp = c.do(http.MethodDelete, "/api/status-types/blood-pressure", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = c.do(http.MethodDelete, "/api/status-types/mood", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = c.do(http.MethodGet, "/api/status-types", nil)
	assert.Len(t, decodeBody[[]models.StatusType](t, resp), 2)
}

func TestMetricsAndDashboard(t *testing.T) {
	c := newTestServer(t, Config{})
	c.signUp("ada@example.com")

	var ids []string
	for _, entry := range []metricRequest{
		{Value: "115", Date: "2024-03-01"},
		{Value: "125", Date: "2024-03-05"},
		{Value: "135", Date: "2024-03-10"},
	} {
		resp := c.do(http.MethodPost, "/api/metrics/blood-pressure", entry)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		rec := decodeBody[models.HealthMetric](t, resp)
		assert.Equal(t, 23, rec.Timestamp.UTC().Hour())
		ids = append(ids, rec.ID)
	}

	resp := c.do(http.MethodGet, "/api/metrics/blood-pressure/dashboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d := decodeBody[dashboard.Dashboard](t, resp)
	assert.Equal(t, 1, d.Buckets.Normal)
	assert.Equal(t, 1, d.Buckets.Elevated)
	assert.Equal(t, 1, d.Buckets.High)
	require.Len(t, d.Recent, 3)
	assert.Equal(t, "135", d.Recent[0].Value)

	resp = c.do(http.MethodDelete, "/api/records/"+ids[0], nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = c.do(http.MethodGet, "/api/metrics/blood-pressure/dashboard", nil)
	assert.Len(t, decodeBody[dashboard.Dashboard](t, resp).Month, 2)
}

func TestAddMetricErrors(t *testing.T) {
	c := newTestServer(t, Config{})
	c.signUp("ada@example.com")

	tests := []struct {
		name   string
		typeID string
		body   metricRequest
		want   int
	}{
		{"unknown type", "mood", metricRequest{Value: "5", Date: "2024-03-01"}, http.StatusNotFound},
		{"blank value", "sleep-quality", metricRequest{Value: " ", Date: "2024-03-01"}, http.StatusBadRequest},
		{"bad date", "sleep-quality", metricRequest{Value: "7", Date: "03/01/2024"}, http.StatusBadRequest},
		{"default date", "sleep-quality", metricRequest{Value: "7"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := c.do(http.MethodPost, "/api/metrics/"+tt.typeID, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestCharts(t *testing.T) {
	c := newTestServer(t, Config{})
	c.signUp("ada@example.com")

	resp := c.do(http.MethodPost, "/api/metrics/blood-pressure", metricRequest{Value: "118", Date: "2024-03-10"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tests := []struct {
		path        string
		want        int
		contentType string
	}{
		{"/api/metrics/blood-pressure/charts/bar.png", http.StatusOK, "image/png"},
		{"/api/metrics/blood-pressure/charts/line.svg", http.StatusOK, "image/svg+xml"},
		{"/api/metrics/sleep-quality/charts/bar.png", http.StatusNotFound, ""},
		{"/api/metrics/blood-pressure/charts/pie.png", http.StatusBadRequest, ""},
		{"/api/metrics/blood-pressure/charts/bar.gif", http.StatusBadRequest, ""},
		{"/api/metrics/blood-pressure/charts/bar", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := c.do(http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			}
		})
	}
}

func TestUserIsolation(t *testing.T) {
	a := newTestServer(t, Config{})
	a.signUp("ada@example.com")
	resp := a.do(http.MethodPost, "/api/metrics/sleep-quality", metricRequest{Value: "8", Date: "2024-03-10"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	b := &apiClient{t: t, base: a.base, http: &http.Client{Jar: jar}}
	b.signUp("bob@example.com")

	resp = b.do(http.MethodGet, "/api/metrics/sleep-quality/dashboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeBody[dashboard.Dashboard](t, resp).Month)
}

func TestCSRFProtection(t *testing.T) {
	c := newTestServer(t, Config{CSRF: true})

	body := map[string]string{"email": "ada@example.com", "password": "correct-horse"}
	resp := c.do(http.MethodPost, "/api/auth/signup", body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = c.do(http.MethodGet, "/api/csrf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := decodeBody[map[string]string](t, resp)["token"]
	require.NotEmpty(t, token)

	resp = c.do(http.MethodPost, "/api/auth/signup", body, "X-CSRF-Token", token)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

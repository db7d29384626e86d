package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"catdist/internal/analysis/pipeline"
	"catdist/internal/config"
	"catdist/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(limits config.LimitsConfig) *Server {
	defaults := settings.Defaults(config.ChartConfig{
		Alpha:             0.05,
		BandwidthFactor:   0.1,
		DensityResolution: 10,
		LinearPortion:     1,
		TickCount:         10,
	})
	return NewServer(pipeline.NewEngine(limits), settings.NewCache(defaults))
}

func defaultLimits() config.LimitsConfig {
	return config.LimitsConfig{MaxRows: 1000, MaxCategories: 10, Timeout: 5 * time.Second, Workers: 2}
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func chartBody(settings interface{}) map[string]interface{} {
	var rows []map[string]interface{}
	for i := 0; i < 8; i++ {
		rows = append(rows,
			map[string]interface{}{"category": "A", "y": float64(i)},
			map[string]interface{}{"category": "B", "y": float64(i + 10), "marked": i%2 == 0},
		)
	}
	rows = append(rows, map[string]interface{}{"category": "A", "y": nil})
	body := map[string]interface{}{"rows": rows}
	if settings != nil {
		body["settings"] = settings
	}
	return body
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(defaultLimits()), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestChart(t *testing.T) {
	s := newTestServer(defaultLimits())

	rec := do(t, s, http.MethodPost, "/api/chart", chartBody(map[string]interface{}{
		"metrics": []string{"count", "mean", "ci_low"},
		"order":   []string{"B", "A"},
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, []interface{}{"B", "A"}, out["categories"])

	summaries := out["summaries"].([]interface{})
	a := summaries[1].(map[string]interface{})["metrics"].(map[string]interface{})
	assert.Equal(t, 8.0, a["count"], "null y is missing data")
	assert.Equal(t, 3.5, a["mean"])
	assert.NotContains(t, a, "median")

	comparison := out["comparison"].(map[string]interface{})
	assert.Equal(t, true, comparison["displayable"])
	assert.Len(t, comparison["circles"], 2)
	assert.NotContains(t, out, "panels")
}

func TestChartSettingsAsString(t *testing.T) {
	rec := do(t, newTestServer(defaultLimits()), http.MethodPost, "/api/chart", chartBody(`{"axis":"asinh"}`))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Axis struct {
			Mode  string     `json:"mode"`
			Ticks []*float64 `json:"ticks"`
		} `json:"axis"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "asinh", out.Axis.Mode)
	assert.NotEmpty(t, out.Axis.Ticks)
}

func TestChartNaNBecomesNull(t *testing.T) {
	body := map[string]interface{}{
		"rows": []map[string]interface{}{{"category": "solo", "y": 1}},
	}
	rec := do(t, newTestServer(defaultLimits()), http.MethodPost, "/api/chart", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"stddev":0`)
	assert.Contains(t, rec.Body.String(), `"ci_low":null`)
	assert.Contains(t, rec.Body.String(), `"anovaP":"NA"`)
}

func TestChartTrellisPanels(t *testing.T) {
	body := chartBody(nil)
	rows := body["rows"].([]map[string]interface{})
	for i := range rows {
		rows[i]["trellis"] = []string{"left", "right"}[i%2]
	}

	rec := do(t, newTestServer(defaultLimits()), http.MethodPost, "/api/chart", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Panels []struct {
			Name string `json:"name"`
		} `json:"panels"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Panels, 2)
	assert.Equal(t, "left", out.Panels[0].Name)
}

func TestChartErrors(t *testing.T) {
	limits := defaultLimits()
	limits.MaxRows = 3
	rec := do(t, newTestServer(limits), http.MethodPost, "/api/chart", chartBody(nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "SIZE_LIMIT")

	rec = do(t, newTestServer(defaultLimits()), http.MethodPost, "/api/chart", chartBody(map[string]interface{}{"alpha": 3}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")

	req := httptest.NewRequest(http.MethodPost, "/api/chart", bytes.NewBufferString("{not json"))
	recorder := httptest.NewRecorder()
	newTestServer(defaultLimits()).Handler().ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestChartBodyTooLarge(t *testing.T) {
	s := newTestServer(defaultLimits())
	s.maxBody = 64

	rec := do(t, s, http.MethodPost, "/api/chart", chartBody(nil))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "SIZE_LIMIT")
	assert.Contains(t, rec.Body.String(), "exceeds 64 bytes")
}

func TestChartBodyReadFailureIsInternal(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/chart", iotest.ErrReader(errors.New("disk gone")))
	rec := httptest.NewRecorder()

	newTestServer(defaultLimits()).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.False(t, strings.Contains(rec.Body.String(), "disk gone"), "internal details stay in the log")
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, newTestServer(defaultLimits()), http.MethodGet, "/api/nope", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
	assert.Contains(t, rec.Body.String(), "route GET /api/nope not found")
}

func TestTicks(t *testing.T) {
	s := newTestServer(defaultLimits())

	rec := do(t, s, http.MethodGet, "/api/ticks?min=-150&max=300&n=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Ticks []float64 `json:"ticks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Contains(t, out.Ticks, -150.0)
	assert.Contains(t, out.Ticks, 300.0)
	assert.Contains(t, out.Ticks, 0.0)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/ticks?min=a&max=1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/ticks?min=0&max=1&linearPortion=-1", nil).Code)
}

func TestReport(t *testing.T) {
	rec := do(t, newTestServer(defaultLimits()), http.MethodPost, "/api/report?title=Demo", chartBody(nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Demo")
	assert.Contains(t, rec.Body.String(), "<table>")
}

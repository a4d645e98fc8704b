package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotfire/internal/config"
	"hotfire/internal/services"
	"hotfire/internal/shared/testutil"
	ws "hotfire/internal/websocket"
	api "hotfire/pkg/contracts/api/v1"

	apierrors "hotfire/internal/errors"
	customMiddleware "hotfire/internal/middleware"
)

const hotfireCSV = testutil.HotfireCSV

type testServer struct {
	router  chi.Router
	service *services.AnalysisService
	hub     *ws.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	cfg := config.Default()
	cfg.Analysis.DefaultDownsample = 1
	cfg.Analysis.DefaultPadding = 0
	cfg.Analysis.MaxUploadBytes = 1 << 16

	hub := ws.NewHub(logger)
	hub.Start()
	t.Cleanup(hub.Stop)

	svc := services.NewAnalysisService(cfg.Analysis, logger, services.WithPublisher(hub))
	t.Cleanup(svc.Close)

	errorHandler := apierrors.NewErrorHandler(logger, false)
	validator := customMiddleware.NewValidationMiddleware(logger, errorHandler)
	streams := NewWebSocketHandler(svc, hub, cfg, logger, errorHandler)
	handler := NewAnalysisHandler(svc, cfg.Analysis, validator, logger, errorHandler).WithStream(streams.Stream)

	r := chi.NewRouter()
	r.Mount("/api/sessions", handler.Routes())
	return &testServer{router: r, service: svc, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions?name=hotfire.csv", strings.NewReader(hotfireCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var st api.StateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st.SessionID
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) api.StateResponse {
	t.Helper()
	var st api.StateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st), rec.Body.String())
	return st
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem), rec.Body.String())
	return problem
}

func TestAnalysisHandler_CreateRawBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions?name=hotfire.csv", strings.NewReader(hotfireCSV))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	st := decodeState(t, rec)
	assert.NotEmpty(t, st.SessionID)
	assert.Equal(t, "ready", st.Phase)
	assert.Equal(t, "hotfire.csv", st.Dataset)
	assert.Equal(t, 7, st.Rows)
	require.NotNil(t, st.Columns)
	assert.Equal(t, "Time (s)", st.Columns.Time)
	assert.Equal(t, []string{"Thrust (lbf)"}, st.Columns.Thrust)
	assert.False(t, st.NeedsManual)
	assert.Equal(t, "/api/sessions/"+st.SessionID, rec.Header().Get("Location"))
}

func TestAnalysisHandler_CreateMultipart(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "run-42.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(hotfireCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "run-42.csv", decodeState(t, rec).Dataset)
}

func TestAnalysisHandler_CreateErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"unsupported format", "/api/sessions?name=run.json", hotfireCSV, http.StatusBadRequest},
		{"empty dataset", "/api/sessions?name=run.csv", "time,thrust\n", http.StatusUnprocessableEntity},
		{"unreadable workbook", "/api/sessions?name=run.xlsx", "not a workbook", http.StatusBadRequest},
		{"too large", "/api/sessions?name=run.csv", strings.Repeat("1,2\n", 1<<15), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestAnalysisHandler_WindowFlow(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t)
	base := "/api/sessions/" + id

	rec := s.do(t, http.MethodPut, base+"/window", `{"target_thrust": 100}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decodeState(t, rec)
	assert.Equal(t, "computed", st.Phase)
	require.NotNil(t, st.Window)
	assert.Equal(t, "target_thrust", st.Window.Mode)
	assert.Equal(t, 2, st.Window.First)
	assert.Equal(t, 4, st.Window.Last)
	assert.Equal(t, 3, st.Window.CoreSamples)
	assert.Equal(t, 5, st.Window.PadSamples)
	assert.NotEmpty(t, st.Metrics)
	assert.Nil(t, st.Error)

	rec = s.do(t, http.MethodPut, base+"/padding", `{"fraction": 2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 7, decodeState(t, rec).Window.PadSamples)

	rec = s.do(t, http.MethodPut, base+"/window", `{"custom_range": {"start": 4, "end": 1}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st = decodeState(t, rec)
	require.NotNil(t, st.Error)
	assert.Equal(t, "invalid_range", st.Error.Kind)
	assert.Equal(t, 7, st.Window.PadSamples)

	rec = s.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "custom_range", decodeState(t, rec).Window.Mode)
}

func TestAnalysisHandler_RequestValidation(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t)
	base := "/api/sessions/" + id

	tests := []struct {
		name string
		path string
		body string
	}{
		{"no window mode", base + "/window", `{}`},
		{"both window modes", base + "/window", `{"target_thrust": 1, "custom_range": {"start": 0, "end": 1}}`},
		{"range missing end", base + "/window", `{"custom_range": {"start": 0}}`},
		{"padding above limit", base + "/padding", `{"fraction": 4}`},
		{"padding missing", base + "/padding", `{}`},
		{"unknown field", base + "/padding", `{"fraction": 1, "extra": true}`},
		{"empty thrust list", base + "/columns", `{"time": "Time (s)", "thrust": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestAnalysisHandler_ManualColumns(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t)

	rec := s.do(t, http.MethodPut, "/api/sessions/"+id+"/columns", `{"time": "Time (s)", "thrust": ["Chamber Pressure (psi)"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decodeState(t, rec)
	assert.True(t, st.Columns.Manual)
	assert.Equal(t, []string{"Chamber Pressure (psi)"}, st.Columns.Thrust)
	assert.Empty(t, st.Columns.FuelWeight)

	rec = s.do(t, http.MethodPut, "/api/sessions/"+id+"/columns", `{"time": "Time (s)", "thrust": ["Nope"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestAnalysisHandler_Series(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t)
	base := "/api/sessions/" + id
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, base+"/window", `{"target_thrust": 100}`).Code)

	rec := s.do(t, http.MethodGet, base+"/series/thrust?padded=false&downsample=1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var series api.SeriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	assert.Equal(t, "thrust", series.Name)
	assert.Equal(t, api.Values{2, 3, 4}, series.Time)
	assert.Equal(t, api.Values{60, 100, 60}, series.Values)

	rec = s.do(t, http.MethodGet, base+"/series/raw_data", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, base+"/series/thrust?downsample=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisHandler_AverageAndPerformance(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t)
	base := "/api/sessions/" + id
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, base+"/window", `{"target_thrust": 100}`).Code)

	rec := s.do(t, http.MethodPost, base+"/average", `{"series": "thrust", "t1": 4, "t2": 2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var avg api.AverageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &avg))
	assert.InDelta(t, 220.0/3.0, avg.Average, 1e-9)

	rec = s.do(t, http.MethodPost, base+"/performance", `{"fuel_mdot": 1, "ox_mdot": 2, "throat_area": 0.5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var curves []api.SeriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &curves))
	require.Len(t, curves, 3)
	assert.Equal(t, "isp", curves[0].Name)

	rec = s.do(t, http.MethodPost, base+"/performance", `{"fuel_mdot": 0, "ox_mdot": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisHandler_ExportsRequireWindow(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t)
	base := "/api/sessions/" + id

	for _, path := range []string{"/export.csv", "/statistics"} {
		rec := s.do(t, http.MethodGet, base+path, "")
		assert.Equal(t, http.StatusConflict, rec.Code, path)
	}

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, base+"/window", `{"target_thrust": 100}`).Code)

	rec := s.do(t, http.MethodGet, base+"/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "hotfire_window.csv")

	rec = s.do(t, http.MethodGet, base+"/export.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = s.do(t, http.MethodGet, base+"/statistics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats []api.StatisticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.NotEmpty(t, stats)

	rec = s.do(t, http.MethodGet, base+"/report.pdf", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnalysisHandler_Plots(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t)
	base := "/api/sessions/" + id
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, base+"/window", `{"target_thrust": 100}`).Code)

	rec := s.do(t, http.MethodGet, base+"/plots/thrust.png", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = s.do(t, http.MethodPost, base+"/plots/custom",
		`{"title": "Overlay", "series": ["thrust", "chamber_pressure"], "constants": [{"name": "Target", "value": 100}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = s.do(t, http.MethodPost, base+"/plots/custom", `{"series": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisHandler_UnknownSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/sessions/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, apierrors.TypeNotFound, problem["type"])
	assert.Equal(t, "SESSION_NOT_FOUND", problem["error_code"])
}

func TestAnalysisHandler_Delete(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t)

	rec := s.do(t, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, s.service.Count())
}

func TestWebSocketHandler_Stream(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	readState := func() api.StateEvent {
		t.Helper()
		for {
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
			_, data, err := conn.ReadMessage()
			require.NoError(t, err)
			var msg struct {
				Type string          `json:"type"`
				Data json.RawMessage `json:"data"`
			}
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Type != ws.TypeState {
				continue
			}
			var event api.StateEvent
			require.NoError(t, json.Unmarshal(msg.Data, &event))
			return event
		}
	}

	snapshot := readState()
	assert.Equal(t, SnapshotTrigger, snapshot.Trigger)
	assert.Equal(t, "ready", snapshot.State.Phase)

	require.Eventually(t, func() bool { return s.hub.SessionClientCount(id) == 1 }, 2*time.Second, 10*time.Millisecond)

	rec := s.do(t, http.MethodPut, "/api/sessions/"+id+"/window", `{"target_thrust": 100}`)
	require.Equal(t, http.StatusOK, rec.Code)

	event := readState()
	assert.Equal(t, "window", event.Trigger)
	assert.Equal(t, "computed", event.State.Phase)
	assert.Equal(t, id, event.State.SessionID)
}

func TestWebSocketHandler_UnknownSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/sessions/missing/ws", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

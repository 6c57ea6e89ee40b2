package httpgin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/coachseat/internal/domain"
	"github.com/kirinyoku/coachseat/internal/repository/memory"
	redisrepo "github.com/kirinyoku/coachseat/internal/repository/redis"
	"github.com/kirinyoku/coachseat/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memIdem struct {
	mu      sync.Mutex
	results map[string]string
	locked  map[string]bool
}

func newMemIdem() *memIdem {
	return &memIdem{results: map[string]string{}, locked: map[string]bool{}}
}

func (m *memIdem) Begin(_ context.Context, key string) (redisrepo.IdemState, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.results[key]; ok {
		return redisrepo.IdemReplay, p, nil
	}
	if m.locked[key] {
		return redisrepo.IdemInProgress, "", nil
	}
	m.locked[key] = true
	return redisrepo.IdemAcquired, "", nil
}

func (m *memIdem) Save(_ context.Context, key, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[key] = payload
	delete(m.locked, key)
	return nil
}

func (m *memIdem) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locked, key)
	return nil
}

func newTestRouter(t *testing.T, idem Idempotency) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svcs := service.NewServices(memory.NewStore(), nil, nil, nil, logger, service.Config{})
	require.NoError(t, svcs.Booking.Initialize(context.Background()))

	return NewRouter(svcs, idem, logger)
}

func do(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCreateBooking(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/bookings", `{"seats": 3}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []int{1, 2, 3}, resp.Seats)
	assert.Equal(t, []int{1, 1, 1}, resp.Rows)
	assert.True(t, strings.HasPrefix(resp.Reference, "bk-"))

	w = do(r, http.MethodGet, "/chart/availability", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"available":77,"booked":3,"total":80}`, w.Body.String())
}

func TestCreateBookingErrors(t *testing.T) {
	r := newTestRouter(t, nil)

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "malformed", body: `{"seats":`, code: http.StatusBadRequest},
		{name: "missing", body: `{}`, code: http.StatusBadRequest},
		{name: "negative", body: `{"seats": -1}`, code: http.StatusBadRequest},
		{name: "too many", body: `{"seats": 8}`, code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/bookings", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestCreateBookingUntilFull(t *testing.T) {
	r := newTestRouter(t, nil)

	for i := 0; i < 11; i++ {
		w := do(r, http.MethodPost, "/bookings", `{"seats": 7}`)
		require.Equal(t, http.StatusCreated, w.Code, "booking %d: %s", i, w.Body.String())
	}

	w := do(r, http.MethodPost, "/bookings", `{"seats": 7}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "only 3 seats are available")

	w = do(r, http.MethodPost, "/bookings", `{"seats": 3}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, "/bookings", `{"seats": 1}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "fully booked")
}

func TestCreateBookingIdempotent(t *testing.T) {
	r := newTestRouter(t, newMemIdem())

	first := do(r, http.MethodPost, "/bookings", `{"seats": 2}`, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, "abc", first.Header().Get("Idempotency-Key"))

	again := do(r, http.MethodPost, "/bookings", `{"seats": 2}`, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, again.Code)
	assert.JSONEq(t, first.Body.String(), again.Body.String())

	w := do(r, http.MethodGet, "/chart/availability", "")
	assert.JSONEq(t, `{"available":78,"booked":2,"total":80}`, w.Body.String())
}

func TestIdempotencyReleasedOnFailure(t *testing.T) {
	idem := newMemIdem()
	r := newTestRouter(t, idem)

	w := do(r, http.MethodPost, "/bookings", `{"seats": 9}`, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, idem.locked)
	assert.Empty(t, idem.results)
}

func TestGetChart(t *testing.T) {
	r := newTestRouter(t, nil)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/bookings", `{"seats": 1}`).Code)

	w := do(r, http.MethodGet, "/chart", "")
	require.Equal(t, http.StatusOK, w.Code)

	var ch domain.Chart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ch))
	require.Len(t, ch.Rows, domain.RowCount)
	assert.Equal(t, domain.SeatBooked, ch.Rows[0].Seats[0].Status)
	assert.Len(t, ch.Unrowed, 7)

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, "public, max-age=5", w.Header().Get("Cache-Control"))

	w = do(r, http.MethodGet, "/chart", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)
}

func TestGetChartText(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/chart?format=text", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, 12, bytes.Count(w.Body.Bytes(), []byte("\n")))
}

func TestGetRow(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/chart/rows/11", "")
	require.Equal(t, http.StatusOK, w.Code)

	var row RowResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &row))
	assert.Equal(t, 11, row.Index)
	assert.Equal(t, 78, row.Low)
	assert.Equal(t, 80, row.High)
	assert.Equal(t, 3, row.Available)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/chart/rows/12", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/chart/rows/0", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/chart/rows/x", "").Code)
}

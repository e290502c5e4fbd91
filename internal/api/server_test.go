package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"infinityhotel/internal/auth"
	"infinityhotel/internal/engine"
	"infinityhotel/internal/models"
	"infinityhotel/internal/repository/jsonfile"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type testEnv struct {
	handler http.Handler
	engine  *engine.Engine
	token   string
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)
	store, err := jsonfile.Open(filepath.Join(t.TempDir(), "hotel.json"), &logger)
	require.NoError(t, err)

	var seq atomic.Int64
	eng := engine.New(store, &logger,
		engine.WithClock(func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }),
		engine.WithIDGenerator(func() string { return fmt.Sprintf("id-%03d", seq.Add(1)) }),
	)

	hash, err := bcrypt.GenerateFromPassword([]byte("front-desk"), bcrypt.MinCost)
	require.NoError(t, err)
	authn := auth.NewService("admin", string(hash), "test-secret", time.Hour)
	token, _, err := authn.Login("admin", "front-desk")
	require.NoError(t, err)

	srv := NewServer(eng, authn, &logger, opts)
	return &testEnv{handler: srv.Handler(), engine: eng, token: token}
}

func (e *testEnv) call(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) staff(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.call(t, method, path, body, e.token)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	rec := e.staff(t, http.MethodPost, "/api/admin/rooms", map[string]any{"number": "101", "type": "Single", "price": "150,50"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = e.staff(t, http.MethodPost, "/api/admin/rooms", map[string]any{"number": "102", "type": "Suite", "price": 400, "in_service": false})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.call(t, http.MethodPost, "/api/public/customers", map[string]string{
		"name": "ana souza", "email": "Ana@Example.com", "phone": "31999998888",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealthAndRoot(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.call(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	rec = env.call(t, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", decode[map[string]string](t, rec)["status"])

	rec = env.call(t, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicBookingFlow(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seed(t)

	rec := env.call(t, http.MethodGet, "/api/public/rooms", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rooms := decode[[]models.Room](t, rec)
	require.Len(t, rooms, 1)
	assert.Equal(t, "101", rooms[0].Number)
	assert.Equal(t, 150.5, rooms[0].Price)

	rec = env.call(t, http.MethodGet, "/api/public/rooms/available?check_in=2024-06-10&check_out=2024-06-13", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	avail := decode[availabilityResponse](t, rec)
	assert.Equal(t, 3, avail.Nights)
	require.Len(t, avail.Rooms, 1)

	book := map[string]string{"email": "ana@example.com", "room_number": "101", "check_in": "2024-06-10", "check_out": "2024-06-13"}
	rec = env.call(t, http.MethodPost, "/api/public/reservations", book, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[reservationResponse](t, rec)
	assert.Equal(t, "2024-06-10", res.CheckIn)
	assert.Equal(t, "2024-06-13", res.CheckOut)
	assert.Equal(t, "confirmed", res.Status)
	assert.Equal(t, "customer", res.Origin)
	assert.False(t, res.Paid)

	rec = env.call(t, http.MethodPost, "/api/public/reservations", book, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "room is not available for the selected dates", decode[ErrorResponse](t, rec).Error)

	book["check_in"], book["check_out"] = "2024-06-13", "2024-06-15"
	rec = env.call(t, http.MethodPost, "/api/public/reservations", book, "")
	assert.Equal(t, http.StatusCreated, rec.Code, "back-to-back stays must not conflict")

	rec = env.call(t, http.MethodGet, "/api/public/rooms/available?check_in=2024-06-11&check_out=2024-06-12", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[availabilityResponse](t, rec).Rooms)

	rec = env.call(t, http.MethodGet, "/api/public/customers/ANA@example.com/reservations", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	views := decode[[]reservationViewResponse](t, rec)
	require.Len(t, views, 2)
	assert.Equal(t, "Ana Souza", views[0].CustomerName)
	assert.Equal(t, "Single", views[0].RoomType)
	assert.Equal(t, 451.5, views[0].Total)

	rec = env.call(t, http.MethodGet, "/api/public/customers/nobody@example.com/reservations", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestAdminRequiresToken(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.call(t, http.MethodGet, "/api/admin/rooms", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.call(t, http.MethodGet, "/api/admin/rooms", nil, "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.staff(t, http.MethodGet, "/api/admin/verify", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", decode[map[string]any](t, rec)["username"])
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, Options{})

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{name: "valid", body: loginRequest{Username: "admin", Password: "front-desk"}, wantStatus: http.StatusOK},
		{name: "wrong password", body: loginRequest{Username: "admin", Password: "x"}, wantStatus: http.StatusUnauthorized},
		{name: "malformed", body: `{"username":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.call(t, http.MethodPost, "/api/admin/login", tt.body, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				resp := decode[loginResponse](t, rec)
				assert.NotEmpty(t, resp.Token)
				assert.Equal(t, "Bearer", resp.TokenType)

				verify := env.call(t, http.MethodGet, "/api/admin/verify", nil, resp.Token)
				assert.Equal(t, http.StatusOK, verify.Code)
			}
		})
	}
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seed(t)

	rec := env.staff(t, http.MethodGet, "/api/admin/customers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	customers := decode[[]models.Customer](t, rec)
	require.Len(t, customers, 1)
	customerID := customers[0].ID

	rec = env.staff(t, http.MethodPost, "/api/admin/reservations", map[string]string{
		"customer_id": customerID, "room_number": "101", "check_in": "2024-07-01", "check_out": "2024-07-03",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "staff", decode[reservationResponse](t, rec).Origin)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantError  string
	}{
		{
			name:       "bad date format",
			method:     http.MethodGet,
			path:       "/api/public/rooms/available?check_in=01-07-2024&check_out=2024-07-03",
			wantStatus: http.StatusBadRequest,
			wantError:  "check_in: invalid format; expected YYYY-MM-DD",
		},
		{
			name:       "empty range",
			method:     http.MethodGet,
			path:       "/api/public/rooms/available?check_in=2024-07-03&check_out=2024-07-03",
			wantStatus: http.StatusBadRequest,
			wantError:  "check-out date must be after check-in date",
		},
		{
			name:       "unknown field",
			method:     http.MethodPost,
			path:       "/api/public/customers",
			body:       map[string]string{"name": "Bob Lima", "nickname": "bob"},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid JSON body",
		},
		{
			name:       "invalid email",
			method:     http.MethodPost,
			path:       "/api/public/customers",
			body:       map[string]string{"name": "Bob Lima", "email": "bob-at-example", "phone": "3133334444"},
			wantStatus: http.StatusBadRequest,
			wantError:  "email: invalid email format",
		},
		{
			name:       "duplicate email",
			method:     http.MethodPost,
			path:       "/api/public/customers",
			body:       map[string]string{"name": "Ana Lima", "email": "ANA@example.com", "phone": "3133334444"},
			wantStatus: http.StatusConflict,
			wantError:  "email already registered",
		},
		{
			name:       "unknown customer email",
			method:     http.MethodPost,
			path:       "/api/public/reservations",
			body:       map[string]string{"email": "ghost@example.com", "room_number": "101", "check_in": "2024-08-01", "check_out": "2024-08-02"},
			wantStatus: http.StatusNotFound,
			wantError:  "customer not found",
		},
		{
			name:       "out of service room",
			method:     http.MethodPost,
			path:       "/api/public/reservations",
			body:       map[string]string{"email": "ana@example.com", "room_number": "102", "check_in": "2024-08-01", "check_out": "2024-08-02"},
			wantStatus: http.StatusBadRequest,
			wantError:  "room is out of service",
		},
		{
			name:       "bad price",
			method:     http.MethodPost,
			path:       "/api/admin/rooms",
			body:       map[string]any{"number": "201", "type": "Family", "price": "abc"},
			wantStatus: http.StatusBadRequest,
			wantError:  "price: must be a valid number",
		},
		{
			name:       "bad room type",
			method:     http.MethodPost,
			path:       "/api/admin/rooms",
			body:       map[string]any{"number": "201", "type": "Palace", "price": 10},
			wantStatus: http.StatusBadRequest,
			wantError:  "type: must be one of: Single, Couple, Luxury, Suite, Family",
		},
		{
			name:       "duplicate room",
			method:     http.MethodPost,
			path:       "/api/admin/rooms",
			body:       map[string]any{"number": "101", "type": "Single", "price": 10},
			wantStatus: http.StatusConflict,
			wantError:  "room number already exists",
		},
		{
			name:       "missing room",
			method:     http.MethodGet,
			path:       "/api/admin/rooms/999",
			wantStatus: http.StatusNotFound,
			wantError:  "room not found",
		},
		{
			name:       "delete room with active reservation",
			method:     http.MethodDelete,
			path:       "/api/admin/rooms/101",
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "cannot delete a room with active reservations",
		},
		{
			name:       "delete customer with active reservation",
			method:     http.MethodDelete,
			path:       "/api/admin/customers/" + customerID,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "cannot delete a customer with active reservations",
		},
		{
			name:       "missing reservation",
			method:     http.MethodPut,
			path:       "/api/admin/reservations/nope/cancel",
			wantStatus: http.StatusNotFound,
			wantError:  "reservation not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.staff(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantError, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestReservationLifecycleEndpoints(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seed(t)

	rec := env.call(t, http.MethodPost, "/api/public/reservations", map[string]string{
		"email": "ana@example.com", "room_number": "101", "check_in": "2024-06-10", "check_out": "2024-06-12",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[reservationResponse](t, rec).ID

	rec = env.staff(t, http.MethodPut, "/api/admin/reservations/"+id+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[reservationResponse](t, rec)
	assert.Equal(t, "cancelled", res.Status)
	assert.NotNil(t, res.CancelledAt)

	rec = env.staff(t, http.MethodPut, "/api/admin/reservations/"+id+"/payment", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.staff(t, http.MethodPut, "/api/admin/reservations/"+id+"/reactivate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "confirmed", decode[reservationResponse](t, rec).Status)

	rec = env.staff(t, http.MethodPut, "/api/admin/reservations/"+id+"/payment", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[reservationResponse](t, rec).Paid)

	rec = env.staff(t, http.MethodGet, "/api/admin/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[engine.DashboardStats](t, rec)
	assert.Equal(t, 2, stats.TotalRooms)
	assert.Equal(t, 1, stats.ActiveReservations)
	assert.Equal(t, 1, stats.PaidReservations)
	assert.Equal(t, 50, stats.OccupancyPercent)

	rec = env.staff(t, http.MethodGet, "/api/admin/reservations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]reservationViewResponse](t, rec), 1)

	rec = env.staff(t, http.MethodDelete, "/api/admin/reservations/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.staff(t, http.MethodGet, "/api/admin/reservations/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHotelInfoEndpoints(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.call(t, http.MethodGet, "/api/public/hotel-info", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.DefaultHotelInfo(), decode[models.HotelInfo](t, rec))

	rec = env.staff(t, http.MethodPut, "/api/admin/hotel-info", models.HotelInfo{Name: "Infinity Beach", Address: "Rua A, 1", Phone: "2133334444"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "(21) 3333-4444", decode[models.HotelInfo](t, rec).Phone)

	rec = env.staff(t, http.MethodPut, "/api/admin/hotel-info", models.HotelInfo{Address: "Rua A, 1", Phone: "2133334444"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name: is required", decode[ErrorResponse](t, rec).Error)
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	env := newTestEnv(t, Options{Limiter: limiter})

	body := map[string]string{"name": "Bob Lima", "email": "bob@example.com", "phone": "3133334444"}
	rec := env.call(t, http.MethodPost, "/api/public/customers", body, "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	body["email"] = "bob2@example.com"
	rec = env.call(t, http.MethodPost, "/api/public/customers", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// Reads are never throttled.
	rec = env.call(t, http.MethodGet, "/api/public/rooms", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	limiter.SetLimits(1000, 100)
	time.Sleep(20 * time.Millisecond)
	rec = env.call(t, http.MethodPost, "/api/public/customers", body, "")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRateLimit_ForwardedHeaders(t *testing.T) {
	login := func(env *testEnv, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login",
			bytes.NewBufferString(`{"username":"admin","password":"guess"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	tests := []struct {
		name  string
		trust bool
		want  []int
	}{
		{
			name: "headers ignored by default",
			want: []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests},
		},
		{
			name:  "trusted proxy",
			trust: true,
			want:  []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusUnauthorized, http.StatusUnauthorized},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Options{Limiter: NewRateLimiter(0.001, 1), TrustProxyHeaders: tt.trust})
			got := make([]int, 0, len(tt.want))
			for i := range tt.want {
				got = append(got, login(env, fmt.Sprintf("10.0.0.%d", i)))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	l := NewRateLimiter(0.001, 1)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))

	l.now = func() time.Time { return time.Now().Add(time.Hour) }
	l.Allow("10.0.0.3")
	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.clients, 1, "idle clients are pruned")
}

type brokenService struct {
	Service
}

func (brokenService) ListRoomsInService(context.Context) ([]models.Room, error) {
	return nil, errors.New("disk on fire")
}

func (brokenService) Ping(context.Context) error {
	return errors.New("disk on fire")
}

func TestInternalErrorsAreHidden(t *testing.T) {
	logger := zerolog.New(io.Discard)
	authn := auth.NewService("admin", "", "secret", time.Hour)
	h := NewServer(brokenService{}, authn, &logger, Options{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/public/rooms", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decode[ErrorResponse](t, rec).Error)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type stubExporter struct {
	err error
}

func (s stubExporter) Export(_ context.Context, w io.Writer) error {
	if s.err != nil {
		return s.err
	}
	_, err := w.Write([]byte("PK-xlsx"))
	return err
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, Options{Exporter: stubExporter{}})

	rec := env.staff(t, http.MethodGet, "/api/admin/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "infinity-hotel-")
	assert.Equal(t, "PK-xlsx", rec.Body.String())

	env = newTestEnv(t, Options{Exporter: stubExporter{err: errors.New("boom")}})
	rec = env.staff(t, http.MethodGet, "/api/admin/export", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	env = newTestEnv(t, Options{})
	rec = env.staff(t, http.MethodGet, "/api/admin/export", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, Options{AllowedOrigins: []string{"https://hotel.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/public/rooms", nil)
	req.Header.Set("Origin", "https://hotel.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://hotel.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

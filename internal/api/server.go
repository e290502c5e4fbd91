// Package api exposes the reservation engine over HTTP: a public surface for
// guests and a token-protected back office for staff.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"infinityhotel/internal/engine"
	"infinityhotel/internal/metrics"
	"infinityhotel/internal/models"
	"infinityhotel/internal/validation"

	"github.com/goccy/go-json"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// Service is the part of the engine the HTTP layer drives.
type Service interface {
	Ping(ctx context.Context) error

	HotelInfo(ctx context.Context) (models.HotelInfo, error)
	UpdateHotelInfo(ctx context.Context, in models.HotelInfo) (models.HotelInfo, error)

	ListRooms(ctx context.Context) ([]models.Room, error)
	ListRoomsInService(ctx context.Context) ([]models.Room, error)
	GetRoom(ctx context.Context, number string) (*models.Room, error)
	CreateRoom(ctx context.Context, in engine.RoomInput) (*models.Room, error)
	UpdateRoom(ctx context.Context, number string, in engine.RoomInput) (*models.Room, error)
	DeleteRoom(ctx context.Context, number string) error
	QueryAvailability(ctx context.Context, checkIn, checkOut time.Time) ([]models.Room, error)

	ListCustomers(ctx context.Context) ([]models.Customer, error)
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, in engine.CustomerInput) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, id string, in engine.CustomerInput) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error

	CreateReservation(ctx context.Context, in engine.NewReservation) (*models.Reservation, error)
	CreateReservationByEmail(ctx context.Context, email, roomNumber string, checkIn, checkOut time.Time) (*models.Reservation, error)
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	Cancel(ctx context.Context, id string) (*models.Reservation, error)
	Reactivate(ctx context.Context, id string) (*models.Reservation, error)
	TogglePayment(ctx context.Context, id string) (*models.Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	ReservationViews(ctx context.Context) ([]engine.ReservationView, error)
	ReservationsByEmail(ctx context.Context, email string) ([]engine.ReservationView, error)
	DashboardStats(ctx context.Context) (engine.DashboardStats, error)
}

// Authenticator issues staff tokens and guards the back office.
type Authenticator interface {
	Login(user, password string) (string, time.Time, error)
	Middleware(onDenied func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler
}

// Exporter writes a spreadsheet of the current state.
type Exporter interface {
	Export(ctx context.Context, w io.Writer) error
}

type Options struct {
	AllowedOrigins []string
	// Limiter throttles public writes and logins. Nil disables throttling.
	Limiter *RateLimiter
	// Exporter backs GET /api/admin/export. Nil leaves the route out.
	Exporter Exporter
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

type Server struct {
	svc    Service
	auth   Authenticator
	opts   Options
	logger zerolog.Logger
	router *mux.Router
}

func NewServer(svc Service, authn Authenticator, logger *zerolog.Logger, opts Options) *Server {
	s := &Server{
		svc:    svc,
		auth:   authn,
		opts:   opts,
		logger: logger.With().Str("component", "api").Logger(),
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.observe)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	pub := r.PathPrefix("/api/public").Subrouter()
	pub.HandleFunc("/hotel-info", s.handlePublicHotelInfo).Methods(http.MethodGet)
	pub.HandleFunc("/rooms", s.handlePublicRooms).Methods(http.MethodGet)
	pub.HandleFunc("/rooms/available", s.handleAvailability).Methods(http.MethodGet)
	pub.Handle("/customers", s.throttled(s.handleRegisterCustomer)).Methods(http.MethodPost)
	pub.Handle("/reservations", s.throttled(s.handlePublicReservation)).Methods(http.MethodPost)
	pub.HandleFunc("/customers/{email}/reservations", s.handleCustomerReservations).Methods(http.MethodGet)

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Handle("/login", s.throttled(s.handleLogin)).Methods(http.MethodPost)

	staff := admin.NewRoute().Subrouter()
	staff.Use(s.auth.Middleware(func(w http.ResponseWriter, _ *http.Request, _ error) {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
	}))
	staff.HandleFunc("/verify", s.handleVerify).Methods(http.MethodGet)
	staff.HandleFunc("/dashboard/stats", s.handleDashboardStats).Methods(http.MethodGet)

	staff.HandleFunc("/hotel-info", s.handleAdminHotelInfo).Methods(http.MethodGet)
	staff.HandleFunc("/hotel-info", s.handleUpdateHotelInfo).Methods(http.MethodPut)

	staff.HandleFunc("/customers", s.handleListCustomers).Methods(http.MethodGet)
	staff.HandleFunc("/customers", s.handleCreateCustomer).Methods(http.MethodPost)
	staff.HandleFunc("/customers/{id}", s.handleGetCustomer).Methods(http.MethodGet)
	staff.HandleFunc("/customers/{id}", s.handleUpdateCustomer).Methods(http.MethodPut)
	staff.HandleFunc("/customers/{id}", s.handleDeleteCustomer).Methods(http.MethodDelete)

	staff.HandleFunc("/rooms", s.handleListRooms).Methods(http.MethodGet)
	staff.HandleFunc("/rooms", s.handleCreateRoom).Methods(http.MethodPost)
	staff.HandleFunc("/rooms/{number}", s.handleGetRoom).Methods(http.MethodGet)
	staff.HandleFunc("/rooms/{number}", s.handleUpdateRoom).Methods(http.MethodPut)
	staff.HandleFunc("/rooms/{number}", s.handleDeleteRoom).Methods(http.MethodDelete)

	staff.HandleFunc("/reservations", s.handleListReservations).Methods(http.MethodGet)
	staff.HandleFunc("/reservations", s.handleCreateReservation).Methods(http.MethodPost)
	staff.HandleFunc("/reservations/{id}", s.handleGetReservation).Methods(http.MethodGet)
	staff.HandleFunc("/reservations/{id}", s.handleDeleteReservation).Methods(http.MethodDelete)
	staff.HandleFunc("/reservations/{id}/cancel", s.lifecycle(Service.Cancel)).Methods(http.MethodPut)
	staff.HandleFunc("/reservations/{id}/reactivate", s.lifecycle(Service.Reactivate)).Methods(http.MethodPut)
	staff.HandleFunc("/reservations/{id}/payment", s.lifecycle(Service.TogglePayment)).Methods(http.MethodPut)

	if s.opts.Exporter != nil {
		staff.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	}
}

// Handler returns the router wrapped with proxy, CORS and panic recovery
// handling.
func (s *Server) Handler() http.Handler {
	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(panicLogger{s.logger}))
	h := recovery(cors(s.router))
	if s.opts.TrustProxyHeaders {
		h = handlers.ProxyHeaders(h)
	}
	return h
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "infinity-hotel",
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		s.logger.Warn().Err(err).Msg("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// observe counts requests per route template and status.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.IncHTTP(route, strconv.Itoa(rec.status))
		s.logger.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("HTTP request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type panicLogger struct {
	logger zerolog.Logger
}

func (l panicLogger) Println(v ...interface{}) {
	l.logger.Error().Msg(fmt.Sprint(v...))
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps an engine error to its HTTP status. Unclassified errors are
// logged and reported as 500 without details.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var fe *validation.FieldError
	switch {
	case errors.As(err, &fe):
		writeError(w, http.StatusBadRequest, fe.Error())
	case errors.Is(err, engine.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrIntegrityGuard):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error().Err(err).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

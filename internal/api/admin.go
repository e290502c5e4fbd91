package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"infinityhotel/internal/auth"
	"infinityhotel/internal/engine"
	"infinityhotel/internal/models"

	"github.com/gorilla/mux"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, expires, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Error().Err(err).Msg("Login failed")
		}
		s.logger.Warn().Str("username", req.Username).Msg("Rejected staff login")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.logger.Info().Str("username", req.Username).Msg("Staff logged in")
	writeJSON(w, http.StatusOK, loginResponse{Token: token, TokenType: "Bearer", ExpiresAt: expires})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.Subject(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "username": user})
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.DashboardStats(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAdminHotelInfo(w http.ResponseWriter, r *http.Request) {
	s.handlePublicHotelInfo(w, r)
}

func (s *Server) handleUpdateHotelInfo(w http.ResponseWriter, r *http.Request) {
	var req models.HotelInfo
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := s.svc.UpdateHotelInfo(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Customers

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.svc.ListCustomers(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	customers, ok := paginate(w, r, customers)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := s.svc.GetCustomer(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	s.handleRegisterCustomer(w, r)
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req engine.CustomerInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	customer, err := s.svc.UpdateCustomer(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteCustomer(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Rooms

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.svc.ListRooms(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	rooms, ok := paginate(w, r, rooms)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.svc.GetRoom(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeRoom(w, r)
	if !ok {
		return
	}
	room, err := s.svc.CreateRoom(r.Context(), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeRoom(w, r)
	if !ok {
		return
	}
	room, err := s.svc.UpdateRoom(r.Context(), mux.Vars(r)["number"], in)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteRoom(r.Context(), mux.Vars(r)["number"]); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeRoom(w http.ResponseWriter, r *http.Request) (engine.RoomInput, bool) {
	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return engine.RoomInput{}, false
	}
	in, err := req.input()
	if err != nil {
		s.fail(w, err)
		return engine.RoomInput{}, false
	}
	return in, true
}

// Reservations

func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request) {
	views, err := s.svc.ReservationViews(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	views, ok := paginate(w, r, views)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newReservationViews(views))
}

func (s *Server) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.GetReservation(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationResponse(res))
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req staffReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		s.fail(w, err)
		return
	}

	res, err := s.svc.CreateReservation(r.Context(), engine.NewReservation{
		CustomerID: req.CustomerID,
		RoomNumber: req.RoomNumber,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Origin:     models.OriginStaff,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newReservationResponse(res))
}

func (s *Server) handleDeleteReservation(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteReservation(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lifecycle adapts a cancel, reactivate or payment transition to a handler.
func (s *Server) lifecycle(op func(svc Service, ctx context.Context, id string) (*models.Reservation, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := op(s.svc, r.Context(), mux.Vars(r)["id"])
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newReservationResponse(res))
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.opts.Exporter.Export(r.Context(), &buf); err != nil {
		s.fail(w, err)
		return
	}

	name := fmt.Sprintf("infinity-hotel-%s.xlsx", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

package api

import (
	"net/http"

	"infinityhotel/internal/engine"

	"github.com/gorilla/mux"
)

func (s *Server) handlePublicHotelInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.HotelInfo(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handlePublicRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.svc.ListRoomsInService(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// handleAvailability lists rooms free over [check_in, check_out).
// GET /api/public/rooms/available?check_in=YYYY-MM-DD&check_out=YYYY-MM-DD
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	checkIn, checkOut, err := parseStay(q.Get("check_in"), q.Get("check_out"))
	if err != nil {
		s.fail(w, err)
		return
	}

	rooms, err := s.svc.QueryAvailability(r.Context(), checkIn, checkOut)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{
		CheckIn:  q.Get("check_in"),
		CheckOut: q.Get("check_out"),
		Nights:   int(checkOut.Sub(checkIn).Hours() / 24),
		Rooms:    rooms,
	})
}

func (s *Server) handleRegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req engine.CustomerInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	customer, err := s.svc.CreateCustomer(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

// handlePublicReservation books a room for a registered guest identified by
// e-mail.
func (s *Server) handlePublicReservation(w http.ResponseWriter, r *http.Request) {
	var req publicReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		s.fail(w, err)
		return
	}

	res, err := s.svc.CreateReservationByEmail(r.Context(), req.Email, req.RoomNumber, checkIn, checkOut)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newReservationResponse(res))
}

func (s *Server) handleCustomerReservations(w http.ResponseWriter, r *http.Request) {
	views, err := s.svc.ReservationsByEmail(r.Context(), mux.Vars(r)["email"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationViews(views))
}

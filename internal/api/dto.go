package api

import (
	"bytes"
	"time"

	"infinityhotel/internal/engine"
	"infinityhotel/internal/models"
	"infinityhotel/internal/validation"

	"github.com/goccy/go-json"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// roomRequest accepts the price as a JSON number or as a string such as
// "150,50".
type roomRequest struct {
	Number    string          `json:"number"`
	Type      string          `json:"type"`
	Price     json.RawMessage `json:"price"`
	InService *bool           `json:"in_service"`
}

func (req roomRequest) input() (engine.RoomInput, error) {
	price, err := parsePrice(req.Price)
	if err != nil {
		return engine.RoomInput{}, err
	}
	return engine.RoomInput{
		Number:    req.Number,
		Type:      req.Type,
		Price:     price,
		InService: req.InService,
	}, nil
}

func parsePrice(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		raw = nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return validation.ParsePrice(s)
	}
	return validation.ParsePrice(string(raw))
}

type staffReservationRequest struct {
	CustomerID string `json:"customer_id"`
	RoomNumber string `json:"room_number"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
}

type publicReservationRequest struct {
	Email      string `json:"email"`
	RoomNumber string `json:"room_number"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
}

func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := validation.Date("check_in", checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	out, err := validation.Date("check_out", checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return in, out, nil
}

type reservationResponse struct {
	ID            string     `json:"id"`
	CustomerID    string     `json:"customer_id"`
	RoomNumber    string     `json:"room_number"`
	CheckIn       string     `json:"check_in"`
	CheckOut      string     `json:"check_out"`
	Nights        int        `json:"nights"`
	Paid          bool       `json:"paid"`
	Status        string     `json:"status"`
	Origin        string     `json:"origin"`
	CreatedAt     time.Time  `json:"created_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	ReactivatedAt *time.Time `json:"reactivated_at,omitempty"`
}

func newReservationResponse(r *models.Reservation) reservationResponse {
	return reservationResponse{
		ID:            r.ID,
		CustomerID:    r.CustomerID,
		RoomNumber:    r.RoomNumber,
		CheckIn:       r.CheckIn.Format(models.DateLayout),
		CheckOut:      r.CheckOut.Format(models.DateLayout),
		Nights:        r.Nights(),
		Paid:          r.Paid,
		Status:        string(r.Status),
		Origin:        string(r.Origin),
		CreatedAt:     r.CreatedAt,
		PaidAt:        r.PaidAt,
		CancelledAt:   r.CancelledAt,
		ReactivatedAt: r.ReactivatedAt,
	}
}

type reservationViewResponse struct {
	reservationResponse
	CustomerName string  `json:"customer_name"`
	RoomType     string  `json:"room_type"`
	RoomPrice    float64 `json:"room_price"`
	Total        float64 `json:"total"`
}

func newReservationViews(views []engine.ReservationView) []reservationViewResponse {
	out := make([]reservationViewResponse, 0, len(views))
	for i := range views {
		v := &views[i]
		out = append(out, reservationViewResponse{
			reservationResponse: newReservationResponse(&v.Reservation),
			CustomerName:        v.CustomerName,
			RoomType:            v.RoomType,
			RoomPrice:           v.RoomPrice,
			Total:               v.Total,
		})
	}
	return out
}

type availabilityResponse struct {
	CheckIn  string        `json:"check_in"`
	CheckOut string        `json:"check_out"`
	Nights   int           `json:"nights"`
	Rooms    []models.Room `json:"rooms"`
}

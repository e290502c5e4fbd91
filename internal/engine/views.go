package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"infinityhotel/internal/models"
	"infinityhotel/internal/validation"
)

// Placeholders shown when a reservation points at a removed record.
const (
	UnknownCustomer = "unknown customer"
	UnknownRoom     = "unknown room"
)

// ReservationView is a reservation joined with the customer and room it
// references.
type ReservationView struct {
	models.Reservation
	CustomerName string
	RoomType     string
	RoomPrice    float64
	Total        float64
}

// DashboardStats summarises the back-office state.
type DashboardStats struct {
	TotalRooms          int `json:"total_rooms"`
	RoomsInService      int `json:"rooms_in_service"`
	TotalCustomers      int `json:"total_customers"`
	ActiveReservations  int `json:"active_reservations"`
	TotalReservations   int `json:"total_reservations"`
	PaidReservations    int `json:"paid_reservations"`
	PendingReservations int `json:"pending_reservations"`
	OccupancyPercent    int `json:"occupancy_percent"`
}

// Snapshot is a consistent copy of every collection.
type Snapshot struct {
	Rooms        []models.Room
	Customers    []models.Customer
	Reservations []models.Reservation
	HotelInfo    models.HotelInfo
}

// Snapshot reads all collections under one read lock.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot(ctx)
}

func (e *Engine) snapshot(ctx context.Context) (*Snapshot, error) {
	var (
		s   Snapshot
		err error
	)
	if s.Rooms, err = e.repo.ListRooms(ctx); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	if s.Customers, err = e.repo.ListCustomers(ctx); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	if s.Reservations, err = e.repo.ListReservations(ctx); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	if s.HotelInfo, err = e.repo.GetHotelInfo(ctx); err != nil {
		return nil, fmt.Errorf("load hotel info: %w", err)
	}
	return &s, nil
}

// Views joins reservations with their customers and rooms.
func (s *Snapshot) Views(reservations []models.Reservation) []ReservationView {
	customers := make(map[string]models.Customer, len(s.Customers))
	for _, c := range s.Customers {
		customers[c.ID] = c
	}
	rooms := make(map[string]models.Room, len(s.Rooms))
	for _, r := range s.Rooms {
		rooms[r.Number] = r
	}

	views := make([]ReservationView, 0, len(reservations))
	for _, r := range reservations {
		v := ReservationView{Reservation: r, CustomerName: UnknownCustomer, RoomType: UnknownRoom}
		if c, ok := customers[r.CustomerID]; ok {
			v.CustomerName = c.Name
		}
		if room, ok := rooms[r.RoomNumber]; ok {
			v.RoomType = string(room.Type)
			v.RoomPrice = room.Price
			v.Total = math.Round(room.Price*float64(r.Nights())*100) / 100
		}
		views = append(views, v)
	}
	return views
}

// Stats computes the dashboard counters.
func (s *Snapshot) Stats() DashboardStats {
	st := DashboardStats{
		TotalRooms:        len(s.Rooms),
		TotalCustomers:    len(s.Customers),
		TotalReservations: len(s.Reservations),
	}
	for _, r := range s.Rooms {
		if r.InService {
			st.RoomsInService++
		}
	}
	for _, r := range s.Reservations {
		if r.IsActive() {
			st.ActiveReservations++
			if !r.Paid {
				st.PendingReservations++
			}
		}
		if r.Paid {
			st.PaidReservations++
		}
	}
	if st.TotalRooms > 0 {
		st.OccupancyPercent = int(math.Round(float64(st.ActiveReservations) / float64(st.TotalRooms) * 100))
	}
	return st
}

// ReservationViews returns every reservation with customer and room details.
func (e *Engine) ReservationViews(ctx context.Context) ([]ReservationView, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Views(snap.Reservations), nil
}

// ReservationsByEmail returns the reservations of the customer with the given
// e-mail. An unknown e-mail yields an empty list.
func (e *Engine) ReservationsByEmail(ctx context.Context, email string) ([]ReservationView, error) {
	email, err := validation.Email(email)
	if err != nil {
		return nil, invalid(err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	customer, err := e.customerByEmail(ctx, email)
	if errors.Is(err, ErrCustomerNotFound) {
		return []ReservationView{}, nil
	}
	if err != nil {
		return nil, err
	}

	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var own []models.Reservation
	for _, r := range snap.Reservations {
		if r.CustomerID == customer.ID {
			own = append(own, r)
		}
	}
	return snap.Views(own), nil
}

// DashboardStats computes the back-office counters.
func (e *Engine) DashboardStats(ctx context.Context) (DashboardStats, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	return snap.Stats(), nil
}

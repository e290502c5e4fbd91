package models

import "time"

// DateLayout is the wire format for stay dates.
const DateLayout = "2006-01-02"

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

// Origin tells who entered the reservation.
type Origin string

const (
	OriginCustomer Origin = "customer"
	OriginStaff    Origin = "staff"
)

// Reservation is a stay of one customer in one room over [CheckIn, CheckOut).
type Reservation struct {
	ID            string            `json:"id"`
	CustomerID    string            `json:"customer_id"`
	RoomNumber    string            `json:"room_number"`
	CheckIn       time.Time         `json:"check_in"`
	CheckOut      time.Time         `json:"check_out"`
	Paid          bool              `json:"paid"`
	Status        ReservationStatus `json:"status"`
	Origin        Origin            `json:"origin"`
	CreatedAt     time.Time         `json:"created_at"`
	PaidAt        *time.Time        `json:"paid_at,omitempty"`
	CancelledAt   *time.Time        `json:"cancelled_at,omitempty"`
	ReactivatedAt *time.Time        `json:"reactivated_at,omitempty"`
}

// IsActive reports whether the reservation still holds its room.
func (r *Reservation) IsActive() bool {
	return r.Status != StatusCancelled
}

// Overlaps checks the stay against [checkIn, checkOut).
// Both ranges are half-open, so a check-out on the day of another check-in
// does not collide.
func (r *Reservation) Overlaps(checkIn, checkOut time.Time) bool {
	return checkIn.Before(r.CheckOut) && checkOut.After(r.CheckIn)
}

// Blocks reports whether the reservation keeps roomNumber busy during
// [checkIn, checkOut).
func (r *Reservation) Blocks(roomNumber string, checkIn, checkOut time.Time) bool {
	return r.RoomNumber == roomNumber && r.IsActive() && r.Overlaps(checkIn, checkOut)
}

// Nights returns the number of nights in the stay.
func (r *Reservation) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date into a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

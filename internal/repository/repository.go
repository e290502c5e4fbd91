// Package repository defines the storage contract the reservation engine
// works against. Adapters live in subpackages.
package repository

import (
	"context"
	"errors"

	"infinityhotel/internal/models"
)

// ErrNotFound is returned by Get and Delete methods for unknown keys.
var ErrNotFound = errors.New("record not found")

// Rooms stores rooms keyed by number. ListRooms returns them sorted by number.
type Rooms interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	GetRoom(ctx context.Context, number string) (*models.Room, error)
	PutRoom(ctx context.Context, room *models.Room) error
	DeleteRoom(ctx context.Context, number string) error
}

// Customers stores customers keyed by id. ListCustomers returns them in
// registration order.
type Customers interface {
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	PutCustomer(ctx context.Context, customer *models.Customer) error
	DeleteCustomer(ctx context.Context, id string) error
}

// Reservations stores reservations keyed by id. ListReservations returns them
// in creation order.
type Reservations interface {
	ListReservations(ctx context.Context) ([]models.Reservation, error)
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	PutReservation(ctx context.Context, reservation *models.Reservation) error
	DeleteReservation(ctx context.Context, id string) error
}

// Hotel stores the hotel info singleton. GetHotelInfo returns the default
// record when none has been saved.
type Hotel interface {
	GetHotelInfo(ctx context.Context) (models.HotelInfo, error)
	PutHotelInfo(ctx context.Context, info models.HotelInfo) error
}

// Repository is the full capability set of a storage backend.
type Repository interface {
	Rooms
	Customers
	Reservations
	Hotel

	Ping(ctx context.Context) error
	Close() error
}

package engine

import (
	"context"
	"fmt"
	"time"

	"infinityhotel/internal/models"
)

// Available returns the in-service rooms with no active reservation
// overlapping [checkIn, checkOut), in the order of rooms. A reservation with
// id ignoreID is not counted, so a reservation can be checked against
// everything but itself.
func Available(rooms []models.Room, reservations []models.Reservation, checkIn, checkOut time.Time, ignoreID string) ([]models.Room, error) {
	checkIn, checkOut = models.Day(checkIn), models.Day(checkOut)
	if !checkIn.Before(checkOut) {
		return nil, ErrInvalidDateRange
	}

	free := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if !room.InService {
			continue
		}
		if roomFree(room.Number, reservations, checkIn, checkOut, ignoreID) {
			free = append(free, room)
		}
	}
	return free, nil
}

func roomFree(number string, reservations []models.Reservation, checkIn, checkOut time.Time, ignoreID string) bool {
	for i := range reservations {
		r := &reservations[i]
		if r.ID == ignoreID {
			continue
		}
		if r.Blocks(number, checkIn, checkOut) {
			return false
		}
	}
	return true
}

// QueryAvailability lists the rooms that can be booked for [checkIn, checkOut).
func (e *Engine) QueryAvailability(ctx context.Context, checkIn, checkOut time.Time) ([]models.Room, error) {
	if !models.Day(checkIn).Before(models.Day(checkOut)) {
		return nil, ErrInvalidDateRange
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	rooms, err := e.repo.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	reservations, err := e.repo.ListReservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return Available(rooms, reservations, checkIn, checkOut, "")
}

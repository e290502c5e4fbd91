package repository

import (
	"sort"
	"strconv"

	"infinityhotel/internal/models"
)

// LessRoomNumber orders room numbers numerically when both are numbers and
// lexically otherwise, so "20" sorts before "101".
func LessRoomNumber(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		if ai != bi {
			return ai < bi
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// SortRooms sorts rooms into registry order.
func SortRooms(rooms []models.Room) {
	sort.SliceStable(rooms, func(i, j int) bool {
		return LessRoomNumber(rooms[i].Number, rooms[j].Number)
	})
}

// SortCustomers sorts customers by registration time, then id.
func SortCustomers(customers []models.Customer) {
	sort.SliceStable(customers, func(i, j int) bool {
		if !customers[i].CreatedAt.Equal(customers[j].CreatedAt) {
			return customers[i].CreatedAt.Before(customers[j].CreatedAt)
		}
		return customers[i].ID < customers[j].ID
	})
}

// SortReservations sorts reservations by creation time, then id.
func SortReservations(reservations []models.Reservation) {
	sort.SliceStable(reservations, func(i, j int) bool {
		if !reservations[i].CreatedAt.Equal(reservations[j].CreatedAt) {
			return reservations[i].CreatedAt.Before(reservations[j].CreatedAt)
		}
		return reservations[i].ID < reservations[j].ID
	})
}

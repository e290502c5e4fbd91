package engine

import "infinityhotel/internal/models"

// lifecycle lists the status changes each reservation status allows.
// Payment is a flag on the record and never changes the status.
var lifecycle = map[models.ReservationStatus][]models.ReservationStatus{
	models.StatusConfirmed: {models.StatusCancelled},
	models.StatusCancelled: {models.StatusConfirmed},
}

// CanTransition checks if a reservation may move from one status to another.
func CanTransition(from, to models.ReservationStatus) bool {
	for _, allowed := range lifecycle[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// canTogglePayment rejects recording payment on a reservation that was
// cancelled while still unpaid. Un-marking a cancelled, paid reservation stays
// allowed for refunds.
func canTogglePayment(r *models.Reservation) bool {
	return r.IsActive() || r.Paid
}

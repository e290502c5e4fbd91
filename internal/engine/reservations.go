package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"infinityhotel/internal/events"
	"infinityhotel/internal/models"
	"infinityhotel/internal/repository"
	"infinityhotel/internal/validation"
)

// NewReservation is the input for CreateReservation.
type NewReservation struct {
	CustomerID string        `json:"customer_id" validate:"required"`
	RoomNumber string        `json:"room_number" validate:"required"`
	CheckIn    time.Time     `json:"check_in"`
	CheckOut   time.Time     `json:"check_out"`
	Origin     models.Origin `json:"origin"`
}

// CreateReservation books a room for a customer. The availability of the room
// is checked again at write time; on any failure nothing is stored.
func (e *Engine) CreateReservation(ctx context.Context, in NewReservation) (*models.Reservation, error) {
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	in.RoomNumber = strings.TrimSpace(in.RoomNumber)
	if err := validation.Struct(in); err != nil {
		return nil, invalid(err)
	}
	if in.Origin == "" {
		in.Origin = models.OriginStaff
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.createLocked(ctx, in)
}

// CreateReservationByEmail books a room on behalf of the registered customer
// with the given e-mail. Used by the public booking flow.
func (e *Engine) CreateReservationByEmail(ctx context.Context, email, roomNumber string, checkIn, checkOut time.Time) (*models.Reservation, error) {
	email, err := validation.Email(email)
	if err != nil {
		return nil, invalid(err)
	}
	roomNumber, err = validation.RoomNumber(roomNumber)
	if err != nil {
		return nil, invalid(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	customer, err := e.customerByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return e.createLocked(ctx, NewReservation{
		CustomerID: customer.ID,
		RoomNumber: roomNumber,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Origin:     models.OriginCustomer,
	})
}

func (e *Engine) createLocked(ctx context.Context, in NewReservation) (*models.Reservation, error) {
	checkIn, checkOut := models.Day(in.CheckIn), models.Day(in.CheckOut)
	if !checkIn.Before(checkOut) {
		return nil, ErrInvalidDateRange
	}

	if _, err := e.repo.GetCustomer(ctx, in.CustomerID); err != nil {
		return nil, notFound(err, ErrCustomerNotFound, "customer")
	}
	if err := e.checkRoomBookable(ctx, in.RoomNumber, checkIn, checkOut, ""); err != nil {
		return nil, err
	}

	r := &models.Reservation{
		ID:         e.newID(),
		CustomerID: in.CustomerID,
		RoomNumber: in.RoomNumber,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Paid:       false,
		Status:     models.StatusConfirmed,
		Origin:     in.Origin,
		CreatedAt:  e.now(),
	}
	if err := e.repo.PutReservation(ctx, r); err != nil {
		return nil, fmt.Errorf("store reservation: %w", err)
	}

	e.logger.Info().
		Str("reservation_id", r.ID).
		Str("customer_id", r.CustomerID).
		Str("room", r.RoomNumber).
		Str("check_in", checkIn.Format(models.DateLayout)).
		Str("check_out", checkOut.Format(models.DateLayout)).
		Str("origin", string(r.Origin)).
		Msg("Reservation created")
	e.publish(events.ReservationCreated, eventFor(r))
	return r, nil
}

// checkRoomBookable verifies that the room exists, is in service and has no
// active reservation other than ignoreID overlapping the range.
func (e *Engine) checkRoomBookable(ctx context.Context, number string, checkIn, checkOut time.Time, ignoreID string) error {
	room, err := e.repo.GetRoom(ctx, number)
	if err != nil {
		return notFound(err, ErrRoomNotFound, "room")
	}
	if !room.InService {
		return ErrRoomOutOfService
	}

	reservations, err := e.repo.ListReservations(ctx)
	if err != nil {
		return fmt.Errorf("list reservations: %w", err)
	}
	if !roomFree(number, reservations, checkIn, checkOut, ignoreID) {
		return ErrDateRangeConflict
	}
	return nil
}

// Cancel releases the room held by a reservation. Cancelling an already
// cancelled reservation succeeds and changes nothing.
func (e *Engine) Cancel(ctx context.Context, id string) (*models.Reservation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.reservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, models.StatusCancelled) {
		return r, nil
	}

	now := e.now()
	r.Status = models.StatusCancelled
	r.CancelledAt = &now
	if err := e.repo.PutReservation(ctx, r); err != nil {
		return nil, fmt.Errorf("store reservation: %w", err)
	}

	e.logger.Info().Str("reservation_id", r.ID).Str("room", r.RoomNumber).Msg("Reservation cancelled")
	e.publish(events.ReservationCancelled, eventFor(r))
	return r, nil
}

// Reactivate returns a cancelled reservation to confirmed when its room is
// still free for the stay and the stay has not started. Reactivating a
// confirmed reservation succeeds and changes nothing.
func (e *Engine) Reactivate(ctx context.Context, id string) (*models.Reservation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.reservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, models.StatusConfirmed) {
		return r, nil
	}

	// A stay starting today counts as already started.
	if !r.CheckIn.After(models.Day(e.now())) {
		return nil, ErrPastCheckIn
	}
	if _, err := e.repo.GetCustomer(ctx, r.CustomerID); err != nil {
		return nil, notFound(err, ErrCustomerNotFound, "customer")
	}
	if err := e.checkRoomBookable(ctx, r.RoomNumber, r.CheckIn, r.CheckOut, r.ID); err != nil {
		return nil, err
	}

	now := e.now()
	r.Status = models.StatusConfirmed
	r.ReactivatedAt = &now
	r.CancelledAt = nil
	if err := e.repo.PutReservation(ctx, r); err != nil {
		return nil, fmt.Errorf("store reservation: %w", err)
	}

	e.logger.Info().Str("reservation_id", r.ID).Str("room", r.RoomNumber).Msg("Reservation reactivated")
	e.publish(events.ReservationReactivated, eventFor(r))
	return r, nil
}

// TogglePayment flips the paid flag.
func (e *Engine) TogglePayment(ctx context.Context, id string) (*models.Reservation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.reservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTogglePayment(r) {
		return nil, ErrPaymentOnCancelled
	}

	r.Paid = !r.Paid
	if r.Paid {
		now := e.now()
		r.PaidAt = &now
	} else {
		r.PaidAt = nil
	}
	if err := e.repo.PutReservation(ctx, r); err != nil {
		return nil, fmt.Errorf("store reservation: %w", err)
	}

	e.logger.Info().Str("reservation_id", r.ID).Bool("paid", r.Paid).Msg("Reservation payment toggled")
	e.publish(events.ReservationPaymentToggled, eventFor(r))
	return r, nil
}

// DeleteReservation removes the record permanently.
func (e *Engine) DeleteReservation(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.reservation(ctx, id)
	if err != nil {
		return err
	}
	if err := e.repo.DeleteReservation(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReservationNotFound
		}
		return fmt.Errorf("delete reservation: %w", err)
	}

	e.logger.Info().Str("reservation_id", id).Str("status", string(r.Status)).Msg("Reservation deleted")
	e.publish(events.ReservationDeleted, eventFor(r))
	return nil
}

// GetReservation returns one reservation.
func (e *Engine) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reservation(ctx, id)
}

// ListReservations returns every reservation in creation order.
func (e *Engine) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	list, err := e.repo.ListReservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	if list == nil {
		list = []models.Reservation{}
	}
	return list, nil
}

func (e *Engine) reservation(ctx context.Context, id string) (*models.Reservation, error) {
	r, err := e.repo.GetReservation(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrReservationNotFound, "reservation")
	}
	return r, nil
}

func eventFor(r *models.Reservation) events.Event {
	return events.Event{
		ReservationID: r.ID,
		RoomNumber:    r.RoomNumber,
		CustomerID:    r.CustomerID,
		Origin:        string(r.Origin),
		Paid:          r.Paid,
	}
}

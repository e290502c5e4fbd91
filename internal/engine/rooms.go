package engine

import (
	"context"
	"errors"
	"fmt"

	"infinityhotel/internal/models"
	"infinityhotel/internal/repository"
	"infinityhotel/internal/validation"
)

// RoomInput carries room fields as entered by staff. InService defaults to
// true when omitted.
type RoomInput struct {
	Number    string  `json:"number" validate:"required"`
	Type      string  `json:"type" validate:"required"`
	Price     float64 `json:"price"`
	InService *bool   `json:"in_service"`
}

func (in RoomInput) normalize() (models.Room, error) {
	if err := validation.Struct(in); err != nil {
		return models.Room{}, invalid(err)
	}
	number, err := validation.RoomNumber(in.Number)
	if err != nil {
		return models.Room{}, invalid(err)
	}
	roomType, err := validation.RoomType(in.Type)
	if err != nil {
		return models.Room{}, invalid(err)
	}
	price, err := validation.Price(in.Price)
	if err != nil {
		return models.Room{}, invalid(err)
	}
	inService := true
	if in.InService != nil {
		inService = *in.InService
	}
	return models.Room{Number: number, Type: roomType, Price: price, InService: inService}, nil
}

// ListRooms returns all rooms in registry order.
func (e *Engine) ListRooms(ctx context.Context) ([]models.Room, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rooms, err := e.repo.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return rooms, nil
}

// ListRoomsInService returns the rooms guests may book.
func (e *Engine) ListRoomsInService(ctx context.Context) ([]models.Room, error) {
	rooms, err := e.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	inService := make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		if r.InService {
			inService = append(inService, r)
		}
	}
	return inService, nil
}

// GetRoom returns a room by number.
func (e *Engine) GetRoom(ctx context.Context, number string) (*models.Room, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	room, err := e.repo.GetRoom(ctx, number)
	if err != nil {
		return nil, notFound(err, ErrRoomNotFound, "room")
	}
	return room, nil
}

// CreateRoom adds a room with a number not used yet.
func (e *Engine) CreateRoom(ctx context.Context, in RoomInput) (*models.Room, error) {
	room, err := in.normalize()
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureRoomNumberFree(ctx, room.Number); err != nil {
		return nil, err
	}
	if err := e.repo.PutRoom(ctx, &room); err != nil {
		return nil, fmt.Errorf("store room: %w", err)
	}

	e.logger.Info().Str("room", room.Number).Str("type", string(room.Type)).Float64("price", room.Price).Msg("Room created")
	return &room, nil
}

// UpdateRoom replaces the fields of room number. Renumbering is refused while
// any reservation, cancelled or not, points at the old number.
func (e *Engine) UpdateRoom(ctx context.Context, number string, in RoomInput) (*models.Room, error) {
	room, err := in.normalize()
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.repo.GetRoom(ctx, number); err != nil {
		return nil, notFound(err, ErrRoomNotFound, "room")
	}

	if room.Number != number {
		if err := e.ensureRoomNumberFree(ctx, room.Number); err != nil {
			return nil, err
		}
		reservations, err := e.repo.ListReservations(ctx)
		if err != nil {
			return nil, fmt.Errorf("list reservations: %w", err)
		}
		for _, r := range reservations {
			if r.RoomNumber == number {
				return nil, ErrRoomHasReservations
			}
		}
	}

	if err := e.repo.PutRoom(ctx, &room); err != nil {
		return nil, fmt.Errorf("store room: %w", err)
	}
	if room.Number != number {
		if err := e.repo.DeleteRoom(ctx, number); err != nil && !errors.Is(err, repository.ErrNotFound) {
			if rbErr := e.repo.DeleteRoom(ctx, room.Number); rbErr != nil {
				e.logger.Error().Err(rbErr).Str("room", room.Number).Msg("Failed to roll back renumbered room")
			}
			return nil, fmt.Errorf("remove old room %s: %w", number, err)
		}
	}

	e.logger.Info().Str("room", number).Str("new_number", room.Number).Bool("in_service", room.InService).Msg("Room updated")
	return &room, nil
}

// DeleteRoom removes a room that no active reservation references.
func (e *Engine) DeleteRoom(ctx context.Context, number string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.repo.GetRoom(ctx, number); err != nil {
		return notFound(err, ErrRoomNotFound, "room")
	}

	reservations, err := e.repo.ListReservations(ctx)
	if err != nil {
		return fmt.Errorf("list reservations: %w", err)
	}
	for _, r := range reservations {
		if r.RoomNumber == number && r.IsActive() {
			return ErrRoomHasActiveReservations
		}
	}

	if err := e.repo.DeleteRoom(ctx, number); err != nil {
		return notFound(err, ErrRoomNotFound, "room")
	}
	e.logger.Info().Str("room", number).Msg("Room deleted")
	return nil
}

// SeedRooms creates the listed rooms that do not exist yet and leaves existing
// ones untouched. It returns how many rooms were created.
func (e *Engine) SeedRooms(ctx context.Context, rooms []RoomInput) (int, error) {
	created := 0
	for _, in := range rooms {
		_, err := e.CreateRoom(ctx, in)
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrDuplicateRoomNumber):
		default:
			return created, fmt.Errorf("seed room %q: %w", in.Number, err)
		}
	}
	return created, nil
}

func (e *Engine) ensureRoomNumberFree(ctx context.Context, number string) error {
	_, err := e.repo.GetRoom(ctx, number)
	switch {
	case err == nil:
		return ErrDuplicateRoomNumber
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("load room: %w", err)
	}
}

package engine

import (
	"context"
	"fmt"

	"infinityhotel/internal/models"
	"infinityhotel/internal/validation"
)

// HotelInfo returns the hotel description.
func (e *Engine) HotelInfo(ctx context.Context) (models.HotelInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	info, err := e.repo.GetHotelInfo(ctx)
	if err != nil {
		return models.HotelInfo{}, fmt.Errorf("load hotel info: %w", err)
	}
	return info, nil
}

// UpdateHotelInfo replaces the hotel description.
func (e *Engine) UpdateHotelInfo(ctx context.Context, in models.HotelInfo) (models.HotelInfo, error) {
	var (
		info models.HotelInfo
		err  error
	)
	if info.Name, err = validation.Required("name", in.Name); err != nil {
		return models.HotelInfo{}, invalid(err)
	}
	if info.Address, err = validation.Required("address", in.Address); err != nil {
		return models.HotelInfo{}, invalid(err)
	}
	if info.Phone, err = validation.Phone(in.Phone); err != nil {
		return models.HotelInfo{}, invalid(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.repo.PutHotelInfo(ctx, info); err != nil {
		return models.HotelInfo{}, fmt.Errorf("store hotel info: %w", err)
	}
	e.logger.Info().Str("name", info.Name).Msg("Hotel info updated")
	return info, nil
}

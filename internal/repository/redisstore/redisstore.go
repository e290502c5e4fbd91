// Package redisstore keeps hotel data in Redis hashes, one hash per entity
// type with JSON-encoded values.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"infinityhotel/internal/models"
	"infinityhotel/internal/repository"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Store is a repository.Repository over a Redis client.
type Store struct {
	rdb    *redis.Client
	prefix string
}

var _ repository.Repository = (*Store)(nil)

// New wraps rdb. Keys are namespaced with prefix, e.g. "hotel".
func New(rdb *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "hotel"
	}
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) key(kind string) string {
	return s.prefix + ":" + kind
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) ListRooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := listHash(ctx, s.rdb, s.key("rooms"), &rooms); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	repository.SortRooms(rooms)
	return rooms, nil
}

func (s *Store) GetRoom(ctx context.Context, number string) (*models.Room, error) {
	var r models.Room
	if err := getField(ctx, s.rdb, s.key("rooms"), number, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) PutRoom(ctx context.Context, room *models.Room) error {
	return putField(ctx, s.rdb, s.key("rooms"), room.Number, room)
}

func (s *Store) DeleteRoom(ctx context.Context, number string) error {
	return deleteField(ctx, s.rdb, s.key("rooms"), number)
}

func (s *Store) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	if err := listHash(ctx, s.rdb, s.key("customers"), &customers); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	repository.SortCustomers(customers)
	return customers, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	var c models.Customer
	if err := getField(ctx, s.rdb, s.key("customers"), id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) PutCustomer(ctx context.Context, customer *models.Customer) error {
	return putField(ctx, s.rdb, s.key("customers"), customer.ID, customer)
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	return deleteField(ctx, s.rdb, s.key("customers"), id)
}

func (s *Store) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	var reservations []models.Reservation
	if err := listHash(ctx, s.rdb, s.key("reservations"), &reservations); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	repository.SortReservations(reservations)
	return reservations, nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	var r models.Reservation
	if err := getField(ctx, s.rdb, s.key("reservations"), id, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) PutReservation(ctx context.Context, reservation *models.Reservation) error {
	return putField(ctx, s.rdb, s.key("reservations"), reservation.ID, reservation)
}

func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	return deleteField(ctx, s.rdb, s.key("reservations"), id)
}

func (s *Store) GetHotelInfo(ctx context.Context) (models.HotelInfo, error) {
	val, err := s.rdb.Get(ctx, s.key("hotel_info")).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.DefaultHotelInfo(), nil
	}
	if err != nil {
		return models.HotelInfo{}, fmt.Errorf("get hotel info: %w", err)
	}
	var info models.HotelInfo
	if err := json.Unmarshal(val, &info); err != nil {
		return models.HotelInfo{}, fmt.Errorf("decode hotel info: %w", err)
	}
	return info, nil
}

func (s *Store) PutHotelInfo(ctx context.Context, info models.HotelInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key("hotel_info"), data, 0).Err()
}

func listHash[T any](ctx context.Context, rdb *redis.Client, key string, out *[]T) error {
	vals, err := rdb.HVals(ctx, key).Result()
	if err != nil {
		return err
	}
	items := make([]T, 0, len(vals))
	for _, v := range vals {
		var item T
		if err := json.Unmarshal([]byte(v), &item); err != nil {
			return fmt.Errorf("decode %s entry: %w", key, err)
		}
		items = append(items, item)
	}
	*out = items
	return nil
}

func getField(ctx context.Context, rdb *redis.Client, key, field string, out any) error {
	val, err := rdb.HGet(ctx, key, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", key, field, err)
	}
	return json.Unmarshal(val, out)
}

func putField(ctx context.Context, rdb *redis.Client, key, field string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := rdb.HSet(ctx, key, field, data).Err(); err != nil {
		return fmt.Errorf("put %s/%s: %w", key, field, err)
	}
	return nil
}

func deleteField(ctx context.Context, rdb *redis.Client, key, field string) error {
	n, err := rdb.HDel(ctx, key, field).Result()
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", key, field, err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

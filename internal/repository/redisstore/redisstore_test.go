package redisstore

import (
	"context"
	"testing"
	"time"

	"infinityhotel/internal/models"
	"infinityhotel/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := New(rdb, "test")
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_Rooms(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutRoom(ctx, &models.Room{Number: "102", Type: models.RoomCouple, Price: 180, InService: true}))
	require.NoError(t, s.PutRoom(ctx, &models.Room{Number: "101", Type: models.RoomSingle, Price: 100, InService: true}))
	assert.True(t, mr.Exists("test:rooms"))

	rooms, err := s.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "101", rooms[0].Number)

	room, err := s.GetRoom(ctx, "102")
	require.NoError(t, err)
	assert.Equal(t, models.RoomCouple, room.Type)

	require.NoError(t, s.DeleteRoom(ctx, "102"))
	_, err = s.GetRoom(ctx, "102")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.DeleteRoom(ctx, "102"), repository.ErrNotFound)
}

func TestStore_ReservationsOrdered(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"zz", "aa", "mm"} {
		require.NoError(t, s.PutReservation(ctx, &models.Reservation{
			ID:        id,
			Status:    models.StatusConfirmed,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := s.ListReservations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"zz", "aa", "mm"}, []string{list[0].ID, list[1].ID, list[2].ID})

	r, err := s.GetReservation(ctx, "aa")
	require.NoError(t, err)
	assert.True(t, base.Add(time.Minute).Equal(r.CreatedAt))
}

func TestStore_CustomersAndHotelInfo(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	info, err := s.GetHotelInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultHotelInfo(), info)

	require.NoError(t, s.PutHotelInfo(ctx, models.HotelInfo{Name: "A", Address: "B", Phone: "C"}))
	info, err = s.GetHotelInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", info.Name)

	require.NoError(t, s.PutCustomer(ctx, &models.Customer{ID: "c1", Email: "a@b.com"}))
	c, err := s.GetCustomer(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", c.Email)

	list, err := s.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteCustomer(ctx, "c1"))
	_, err = s.GetCustomer(ctx, "c1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, s.Ping(ctx))
}

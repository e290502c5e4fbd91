package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestReservation_Overlaps(t *testing.T) {
	r := Reservation{CheckIn: day(2024, 6, 1), CheckOut: day(2024, 6, 5)}

	tests := []struct {
		name     string
		in, out  time.Time
		expected bool
	}{
		{"same range", day(2024, 6, 1), day(2024, 6, 5), true},
		{"starts inside", day(2024, 6, 3), day(2024, 6, 6), true},
		{"ends inside", day(2024, 5, 28), day(2024, 6, 2), true},
		{"contains", day(2024, 5, 30), day(2024, 6, 10), true},
		{"contained", day(2024, 6, 2), day(2024, 6, 3), true},
		{"back-to-back after", day(2024, 6, 5), day(2024, 6, 8), false},
		{"back-to-back before", day(2024, 5, 28), day(2024, 6, 1), false},
		{"far away", day(2024, 7, 1), day(2024, 7, 3), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Overlaps(tt.in, tt.out))
		})
	}
}

func TestReservation_Blocks(t *testing.T) {
	r := Reservation{
		RoomNumber: "101",
		CheckIn:    day(2024, 6, 1),
		CheckOut:   day(2024, 6, 5),
		Status:     StatusConfirmed,
	}

	assert.True(t, r.Blocks("101", day(2024, 6, 3), day(2024, 6, 6)))
	assert.False(t, r.Blocks("102", day(2024, 6, 3), day(2024, 6, 6)))

	r.Status = StatusCancelled
	assert.False(t, r.Blocks("101", day(2024, 6, 3), day(2024, 6, 6)))
}

func TestReservation_Nights(t *testing.T) {
	r := Reservation{CheckIn: day(2024, 6, 1), CheckOut: day(2024, 6, 5)}
	assert.Equal(t, 4, r.Nights())
}

func TestParseRoomType(t *testing.T) {
	tests := []struct {
		in   string
		want RoomType
		ok   bool
	}{
		{"Single", RoomSingle, true},
		{"solteiro", RoomSingle, true},
		{" Casal ", RoomCouple, true},
		{"Luxo", RoomLuxury, true},
		{"Suíte", RoomSuite, true},
		{"FAMILY", RoomFamily, true},
		{"Penthouse", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRoomType(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDay(t *testing.T) {
	in := time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, day(2024, 6, 1), Day(in))
}

// Package jsonfile keeps all hotel data in a single JSON document on disk.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"infinityhotel/internal/models"
	"infinityhotel/internal/repository"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// document is the on-disk layout.
type document struct {
	Rooms        []models.Room        `json:"rooms"`
	Customers    []models.Customer    `json:"customers"`
	Reservations []models.Reservation `json:"reservations"`
	HotelInfo    *models.HotelInfo    `json:"hotel_info,omitempty"`
}

func defaultDocument() *document {
	info := models.DefaultHotelInfo()
	return &document{
		Rooms:        []models.Room{},
		Customers:    []models.Customer{},
		Reservations: []models.Reservation{},
		HotelInfo:    &info,
	}
}

// Store is a repository.Repository that rewrites the whole document on every
// change.
type Store struct {
	path   string
	logger *zerolog.Logger

	mu  sync.RWMutex
	doc *document
}

var _ repository.Repository = (*Store)(nil)

// Open loads path, seeding it with an empty document when the file is
// missing or unreadable.
func Open(path string, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Store{path: path, logger: logger}
	doc, err := s.load()
	var corrupt *corruptError
	switch {
	case errors.As(err, &corrupt):
		kept := fmt.Sprintf("%s.%s.corrupt", path, time.Now().Format("20060102_150405"))
		if err := os.Rename(path, kept); err != nil {
			return nil, fmt.Errorf("set aside corrupt data file: %w", err)
		}
		logger.Warn().Err(err).Str("path", path).Str("kept_as", kept).Msg("Data file unreadable, starting with defaults")
		doc = nil
	case err != nil:
		return nil, fmt.Errorf("read data file: %w", err)
	}
	if doc == nil {
		doc = defaultDocument()
		if err := s.write(doc); err != nil {
			return nil, err
		}
	}
	s.doc = doc

	logger.Info().
		Str("path", path).
		Int("rooms", len(doc.Rooms)).
		Int("customers", len(doc.Customers)).
		Int("reservations", len(doc.Reservations)).
		Msg("Data file loaded")
	return s, nil
}

// Path returns the data file location.
func (s *Store) Path() string {
	return s.path
}

// BackupTo writes the current document to path.
func (s *Store) BackupTo(_ context.Context, path string) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.doc, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &corruptError{path: s.path, err: err}
	}
	return &doc, nil
}

type corruptError struct {
	path string
	err  error
}

func (e *corruptError) Error() string { return fmt.Sprintf("decode %s: %v", e.path, e.err) }
func (e *corruptError) Unwrap() error { return e.err }

// write replaces the file through a rename so readers never see a partial
// document.
func (s *Store) write(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".hotel-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

// commit applies change to a copy of the document and persists it. The
// in-memory state only moves forward when the write succeeds.
func (s *Store) commit(change func(doc *document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.clone()
	if err := change(next); err != nil {
		return err
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (d *document) clone() *document {
	c := &document{
		Rooms:        append([]models.Room(nil), d.Rooms...),
		Customers:    append([]models.Customer(nil), d.Customers...),
		Reservations: append([]models.Reservation(nil), d.Reservations...),
	}
	if d.HotelInfo != nil {
		info := *d.HotelInfo
		c.HotelInfo = &info
	}
	return c
}

func (s *Store) Ping(context.Context) error {
	_, err := os.Stat(s.path)
	return err
}

func (s *Store) Close() error { return nil }

func (s *Store) ListRooms(context.Context) ([]models.Room, error) {
	s.mu.RLock()
	rooms := append([]models.Room(nil), s.doc.Rooms...)
	s.mu.RUnlock()
	repository.SortRooms(rooms)
	return rooms, nil
}

func (s *Store) GetRoom(_ context.Context, number string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.doc.Rooms {
		if r.Number == number {
			room := r
			return &room, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) PutRoom(_ context.Context, room *models.Room) error {
	return s.commit(func(doc *document) error {
		for i := range doc.Rooms {
			if doc.Rooms[i].Number == room.Number {
				doc.Rooms[i] = *room
				return nil
			}
		}
		doc.Rooms = append(doc.Rooms, *room)
		return nil
	})
}

func (s *Store) DeleteRoom(_ context.Context, number string) error {
	return s.commit(func(doc *document) error {
		for i := range doc.Rooms {
			if doc.Rooms[i].Number == number {
				doc.Rooms = append(doc.Rooms[:i], doc.Rooms[i+1:]...)
				return nil
			}
		}
		return repository.ErrNotFound
	})
}

func (s *Store) ListCustomers(context.Context) ([]models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Customer(nil), s.doc.Customers...), nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.doc.Customers {
		if c.ID == id {
			customer := c
			return &customer, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) PutCustomer(_ context.Context, customer *models.Customer) error {
	return s.commit(func(doc *document) error {
		for i := range doc.Customers {
			if doc.Customers[i].ID == customer.ID {
				doc.Customers[i] = *customer
				return nil
			}
		}
		doc.Customers = append(doc.Customers, *customer)
		return nil
	})
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	return s.commit(func(doc *document) error {
		for i := range doc.Customers {
			if doc.Customers[i].ID == id {
				doc.Customers = append(doc.Customers[:i], doc.Customers[i+1:]...)
				return nil
			}
		}
		return repository.ErrNotFound
	})
}

func (s *Store) ListReservations(context.Context) ([]models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Reservation(nil), s.doc.Reservations...), nil
}

func (s *Store) GetReservation(_ context.Context, id string) (*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.doc.Reservations {
		if r.ID == id {
			reservation := r
			return &reservation, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) PutReservation(_ context.Context, reservation *models.Reservation) error {
	return s.commit(func(doc *document) error {
		for i := range doc.Reservations {
			if doc.Reservations[i].ID == reservation.ID {
				doc.Reservations[i] = *reservation
				return nil
			}
		}
		doc.Reservations = append(doc.Reservations, *reservation)
		return nil
	})
}

func (s *Store) DeleteReservation(_ context.Context, id string) error {
	return s.commit(func(doc *document) error {
		for i := range doc.Reservations {
			if doc.Reservations[i].ID == id {
				doc.Reservations = append(doc.Reservations[:i], doc.Reservations[i+1:]...)
				return nil
			}
		}
		return repository.ErrNotFound
	})
}

func (s *Store) GetHotelInfo(context.Context) (models.HotelInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc.HotelInfo == nil {
		return models.DefaultHotelInfo(), nil
	}
	return *s.doc.HotelInfo, nil
}

func (s *Store) PutHotelInfo(_ context.Context, info models.HotelInfo) error {
	return s.commit(func(doc *document) error {
		doc.HotelInfo = &info
		return nil
	})
}

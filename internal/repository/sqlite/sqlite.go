// Package sqlite stores hotel data in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"infinityhotel/internal/models"
	"infinityhotel/internal/repository"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// Store is a repository.Repository backed by SQLite.
type Store struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

var _ repository.Repository = (*Store)(nil)

// Open initializes the database file and creates tables if they don't exist.
func Open(path string, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{DB: db, path: path, logger: logger}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// BackupTo writes a consistent copy of the database to path with VACUUM INTO.
func (s *Store) BackupTo(ctx context.Context, path string) error {
	if _, err := s.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("vacuum into %s: %w", path, err)
	}
	return nil
}

func (s *Store) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
			number TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			price REAL NOT NULL,
			in_service BOOLEAN NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE COLLATE NOCASE,
			phone TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reservations (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			room_number TEXT NOT NULL,
			check_in TEXT NOT NULL,
			check_out TEXT NOT NULL,
			paid BOOLEAN NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'confirmed',
			origin TEXT NOT NULL,
			created_at TEXT NOT NULL,
			paid_at TEXT,
			cancelled_at TEXT,
			reactivated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS hotel_info (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			name TEXT NOT NULL,
			address TEXT NOT NULL,
			phone TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_reservations_room ON reservations(room_number, status)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_customer ON reservations(customer_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_created ON reservations(created_at, id)`,
	}

	for _, q := range queries {
		if _, err := s.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.PingContext(ctx)
}

func (s *Store) ListRooms(ctx context.Context) ([]models.Room, error) {
	rows, err := s.QueryContext(ctx, `SELECT number, type, price, in_service FROM rooms`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(&r.Number, &r.Type, &r.Price, &r.InService); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	repository.SortRooms(rooms)
	return rooms, nil
}

func (s *Store) GetRoom(ctx context.Context, number string) (*models.Room, error) {
	var r models.Room
	err := s.QueryRowContext(ctx,
		`SELECT number, type, price, in_service FROM rooms WHERE number = ?`, number,
	).Scan(&r.Number, &r.Type, &r.Price, &r.InService)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &r, nil
}

func (s *Store) PutRoom(ctx context.Context, room *models.Room) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO rooms (number, type, price, in_service) VALUES (?, ?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			type = excluded.type,
			price = excluded.price,
			in_service = excluded.in_service`,
		room.Number, room.Type, room.Price, room.InService,
	)
	if err != nil {
		return fmt.Errorf("put room: %w", err)
	}
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, number string) error {
	return s.deleteByKey(ctx, "DELETE FROM rooms WHERE number = ?", number)
}

func (s *Store) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, name, email, phone, created_at FROM customers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	row := s.QueryRowContext(ctx,
		`SELECT id, name, email, phone, created_at FROM customers WHERE id = ?`, id)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return c, err
}

func (s *Store) PutCustomer(ctx context.Context, c *models.Customer) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, phone, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone`,
		c.ID, c.Name, c.Email, c.Phone, formatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put customer: %w", err)
	}
	return nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	return s.deleteByKey(ctx, "DELETE FROM customers WHERE id = ?", id)
}

const reservationColumns = `id, customer_id, room_number, check_in, check_out, paid, status, origin,
	created_at, paid_at, cancelled_at, reactivated_at`

func (s *Store) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *r)
	}
	return reservations, rows.Err()
}

func (s *Store) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	row := s.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return r, err
}

func (s *Store) PutReservation(ctx context.Context, r *models.Reservation) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO reservations (`+reservationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			customer_id = excluded.customer_id,
			room_number = excluded.room_number,
			check_in = excluded.check_in,
			check_out = excluded.check_out,
			paid = excluded.paid,
			status = excluded.status,
			origin = excluded.origin,
			paid_at = excluded.paid_at,
			cancelled_at = excluded.cancelled_at,
			reactivated_at = excluded.reactivated_at`,
		r.ID, r.CustomerID, r.RoomNumber,
		r.CheckIn.Format(models.DateLayout), r.CheckOut.Format(models.DateLayout),
		r.Paid, string(r.Status), string(r.Origin), formatTime(r.CreatedAt),
		nullTime(r.PaidAt), nullTime(r.CancelledAt), nullTime(r.ReactivatedAt),
	)
	if err != nil {
		return fmt.Errorf("put reservation: %w", err)
	}
	return nil
}

func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	return s.deleteByKey(ctx, "DELETE FROM reservations WHERE id = ?", id)
}

func (s *Store) GetHotelInfo(ctx context.Context) (models.HotelInfo, error) {
	var info models.HotelInfo
	err := s.QueryRowContext(ctx, `SELECT name, address, phone FROM hotel_info WHERE id = 1`).
		Scan(&info.Name, &info.Address, &info.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultHotelInfo(), nil
	}
	if err != nil {
		return models.HotelInfo{}, fmt.Errorf("get hotel info: %w", err)
	}
	return info, nil
}

func (s *Store) PutHotelInfo(ctx context.Context, info models.HotelInfo) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO hotel_info (id, name, address, phone) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			phone = excluded.phone`,
		info.Name, info.Address, info.Phone,
	)
	if err != nil {
		return fmt.Errorf("put hotel info: %w", err)
	}
	return nil
}

func (s *Store) deleteByKey(ctx context.Context, query, key string) error {
	res, err := s.ExecContext(ctx, query, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row scanner) (*models.Customer, error) {
	var (
		c       models.Customer
		created string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &created); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("customer %s created_at: %w", c.ID, err)
	}
	return &c, nil
}

func scanReservation(row scanner) (*models.Reservation, error) {
	var (
		r                                models.Reservation
		checkIn, checkOut, created       string
		status, origin                   string
		paidAt, cancelledAt, reactivated sql.NullString
	)
	err := row.Scan(&r.ID, &r.CustomerID, &r.RoomNumber, &checkIn, &checkOut, &r.Paid,
		&status, &origin, &created, &paidAt, &cancelledAt, &reactivated)
	if err != nil {
		return nil, err
	}
	r.Status = models.ReservationStatus(status)
	r.Origin = models.Origin(origin)

	if r.CheckIn, err = models.ParseDate(checkIn); err != nil {
		return nil, fmt.Errorf("reservation %s check_in: %w", r.ID, err)
	}
	if r.CheckOut, err = models.ParseDate(checkOut); err != nil {
		return nil, fmt.Errorf("reservation %s check_out: %w", r.ID, err)
	}
	if r.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("reservation %s created_at: %w", r.ID, err)
	}
	if r.PaidAt, err = parseNullTime(paidAt); err != nil {
		return nil, err
	}
	if r.CancelledAt, err = parseNullTime(cancelledAt); err != nil {
		return nil, err
	}
	if r.ReactivatedAt, err = parseNullTime(reactivated); err != nil {
		return nil, err
	}
	return &r, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

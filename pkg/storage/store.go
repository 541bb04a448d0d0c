// Package storage provides read-only access to the booking rows the agent
// under test persists. The schema belongs to the agent; this package only
// queries it.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guregu/null/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver for database/sql
)

// BookingRow is one persisted booking outcome. Rice fields are stored by the
// agent as single-element JSON arrays and are unpacked to scalars here; both
// are null when no rice was ordered.
type BookingRow struct {
	ID              int64
	CustomerName    string
	ContactPhone    string
	ReservationDate string // yyyy-mm-dd
	ReservationTime string // HH:MM
	PartySize       int
	RiceType        null.String
	RiceServings    null.Int
	Status          string
}

// Store wraps the database handle for booking lookups.
type Store struct {
	db *sql.DB
}

// NewStore wraps an existing connection (useful for tests).
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to the agent's database and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// FindBookings returns every booking row matching the phone's last nine
// digits, reservation date (yyyy-mm-dd) and time (HH:MM), newest id first.
func (s *Store) FindBookings(ctx context.Context, phoneLast9, dbDate, dbTime string) ([]BookingRow, error) {
	const query = `
SELECT
  id,
  customer_name,
  contact_phone,
  to_char(reservation_date, 'YYYY-MM-DD'),
  to_char(reservation_time, 'HH24:MI'),
  party_size,
  arroz_type ->> 0,
  (arroz_servings ->> 0)::int,
  status
FROM bookings
WHERE contact_phone = $1
  AND reservation_date = $2::date
  AND to_char(reservation_time, 'HH24:MI') = $3
ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, phoneLast9, dbDate, dbTime)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var result []BookingRow
	for rows.Next() {
		var r BookingRow
		if err := rows.Scan(
			&r.ID, &r.CustomerName, &r.ContactPhone,
			&r.ReservationDate, &r.ReservationTime, &r.PartySize,
			&r.RiceType, &r.RiceServings, &r.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate booking rows: %w", err)
	}
	return result, nil
}

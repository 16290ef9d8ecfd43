// Package sqlite provides a SQLite-backed implementation of bookinglog.Store.
//
// WAL mode is enabled on Open so that readers never block writers and vice
// versa — important because the saga goroutine writes step records while the
// HTTP handler may be reading (e.g. for the booking status endpoint).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jcmexdev/airline-sagas/internal/coordinator/bookinglog"

	// Register the pure-Go SQLite driver.
	// We use modernc.org/sqlite instead of mattn/go-sqlite3 to avoid CGO
	// requirements, making it easier to build and run in Docker (Alpine).
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup.
// bookings holds the mutable state of each booking; booking_steps is
// append-only, one row per forward or compensation step executed.
const schema = `
CREATE TABLE IF NOT EXISTS bookings (
    -- Business identifier: the booking UUID handed to the client.
    booking_id       TEXT PRIMARY KEY,

    passenger_name   TEXT NOT NULL,
    flight_number    TEXT NOT NULL,
    seat_number      TEXT NOT NULL,

    -- JSON blob with amount, currency, method and metadata.
    payment_details  TEXT NOT NULL DEFAULT '{}',

    -- Lifecycle state: PENDING, IN_PROGRESS, COMPLETED, FAILED,
    -- CANCELLING, CANCELLED.
    status           TEXT NOT NULL,

    -- JSON boarding pass, NULL until the saga completes.
    boarding_pass    TEXT,

    -- Wall-clock timestamps (RFC3339 stored as TEXT, SQLite idiom).
    created_at       TEXT NOT NULL,
    updated_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS booking_steps (
    -- Surrogate primary key — auto-incremented by SQLite.
    id          INTEGER PRIMARY KEY AUTOINCREMENT,

    booking_id  TEXT NOT NULL REFERENCES bookings(booking_id),

    service     TEXT NOT NULL,
    operation   TEXT NOT NULL,
    status      TEXT NOT NULL,
    message     TEXT NOT NULL DEFAULT '',

    -- JSON payload returned by the downstream service, NULL when absent.
    result_data TEXT,

    timestamp   TEXT NOT NULL
);

-- Index for the most common query: "give me all steps for booking X in order".
CREATE INDEX IF NOT EXISTS idx_booking_steps_booking_id ON booking_steps(booking_id, id);
`

// Store is the SQLite implementation of bookinglog.Store.
type Store struct {
	db *sql.DB
}

var _ bookinglog.Store = (*Store)(nil)

// Open opens (or creates) the SQLite database at the given path and applies
// the schema. WAL mode is enabled for better concurrent read/write performance.
//
//	store, err := sqlite.Open("./data/bookings.db")
func Open(path string) (*Store, error) {
	// The pure-Go driver uses _pragma query parameters to configure connection state.
	// WAL enables concurrent readers. foreign_keys=on enforces integrity.
	// busy_timeout waits for locks instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	// Use "sqlite", not "sqlite3" for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, b *bookinglog.Booking) error {
	details, err := json.Marshal(b.PaymentDetails)
	if err != nil {
		return fmt.Errorf("sqlite: marshal payment details for %q: %w", b.ID, err)
	}

	const q = `
		INSERT INTO bookings
			(booking_id, passenger_name, flight_number, seat_number, payment_details, status, created_at, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	now := formatTime(timeNow())
	_, err = s.db.ExecContext(ctx, q,
		b.ID,
		b.PassengerName,
		b.FlightNumber,
		b.SeatNumber,
		string(details),
		string(b.Status),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: create booking %q: %w", b.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, bookingID string) (*bookinglog.Booking, error) {
	const q = `
		SELECT booking_id, passenger_name, flight_number, seat_number,
		       payment_details, status, COALESCE(boarding_pass, ''), created_at, updated_at
		FROM   bookings
		WHERE  booking_id = ?`

	b, err := scanBooking(s.db.QueryRowContext(ctx, q, bookingID))
	if err == sql.ErrNoRows {
		return nil, bookinglog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get booking %q: %w", bookingID, err)
	}

	b.Steps, err = s.loadSteps(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) List(ctx context.Context) ([]*bookinglog.Booking, error) {
	const q = `
		SELECT booking_id, passenger_name, flight_number, seat_number,
		       payment_details, status, COALESCE(boarding_pass, ''), created_at, updated_at
		FROM   bookings
		ORDER  BY created_at, booking_id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list bookings: %w", err)
	}
	defer rows.Close()

	var out []*bookinglog.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list bookings: %w", err)
		}
		if b.Steps, err = s.loadSteps(ctx, b.ID); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list bookings: %w", err)
	}
	return out, nil
}

func (s *Store) AppendStep(ctx context.Context, bookingID string, step bookinglog.StepRecord) error {
	var resultData any
	if step.ResultData != nil {
		raw, err := json.Marshal(step.ResultData)
		if err != nil {
			return fmt.Errorf("sqlite: marshal step data for %q: %w", bookingID, err)
		}
		resultData = string(raw)
	}

	const q = `
		INSERT INTO booking_steps
			(booking_id, service, operation, status, message, result_data, timestamp)
		VALUES
			(?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		bookingID,
		step.Service,
		step.Operation,
		string(step.Status),
		step.Message,
		resultData,
		formatTime(step.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("sqlite: append step for %q: %w", bookingID, err)
	}
	return s.touch(ctx, bookingID)
}

func (s *Store) SetStatus(ctx context.Context, bookingID string, status bookinglog.Status) error {
	const q = `UPDATE bookings SET status = ?, updated_at = ? WHERE booking_id = ?`

	res, err := s.db.ExecContext(ctx, q, string(status), formatTime(timeNow()), bookingID)
	if err != nil {
		return fmt.Errorf("sqlite: set status for %q: %w", bookingID, err)
	}
	return checkUpdated(res, bookingID)
}

func (s *Store) SetBoardingPass(ctx context.Context, bookingID string, pass map[string]any) error {
	raw, err := json.Marshal(pass)
	if err != nil {
		return fmt.Errorf("sqlite: marshal boarding pass for %q: %w", bookingID, err)
	}

	const q = `UPDATE bookings SET boarding_pass = ?, updated_at = ? WHERE booking_id = ?`

	res, err := s.db.ExecContext(ctx, q, string(raw), formatTime(timeNow()), bookingID)
	if err != nil {
		return fmt.Errorf("sqlite: set boarding pass for %q: %w", bookingID, err)
	}
	return checkUpdated(res, bookingID)
}

func (s *Store) loadSteps(ctx context.Context, bookingID string) ([]bookinglog.StepRecord, error) {
	const q = `
		SELECT service, operation, status, message, COALESCE(result_data, ''), timestamp
		FROM   booking_steps
		WHERE  booking_id = ?
		ORDER  BY id`

	rows, err := s.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load steps for %q: %w", bookingID, err)
	}
	defer rows.Close()

	var steps []bookinglog.StepRecord
	for rows.Next() {
		var rec bookinglog.StepRecord
		var status, resultData, ts string
		if err := rows.Scan(&rec.Service, &rec.Operation, &status, &rec.Message, &resultData, &ts); err != nil {
			return nil, fmt.Errorf("sqlite: load steps for %q: %w", bookingID, err)
		}
		rec.Status = bookinglog.StepStatus(status)
		if resultData != "" {
			if err := json.Unmarshal([]byte(resultData), &rec.ResultData); err != nil {
				return nil, fmt.Errorf("sqlite: decode step data for %q: %w", bookingID, err)
			}
		}
		if rec.Timestamp, err = parseRFC3339(ts); err != nil {
			return nil, err
		}
		steps = append(steps, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: load steps for %q: %w", bookingID, err)
	}
	return steps, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (*bookinglog.Booking, error) {
	var b bookinglog.Booking
	var details, status, boardingPass, createdAt, updatedAt string
	err := row.Scan(
		&b.ID,
		&b.PassengerName,
		&b.FlightNumber,
		&b.SeatNumber,
		&details,
		&status,
		&boardingPass,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = bookinglog.Status(status)
	if err := json.Unmarshal([]byte(details), &b.PaymentDetails); err != nil {
		return nil, fmt.Errorf("decode payment details: %w", err)
	}
	if boardingPass != "" {
		if err := json.Unmarshal([]byte(boardingPass), &b.BoardingPass); err != nil {
			return nil, fmt.Errorf("decode boarding pass: %w", err)
		}
	}
	if b.CreatedAt, err = parseRFC3339(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseRFC3339(updatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// touch bumps updated_at after an append. Not found is not an error here:
// steps reference bookings via FK, so the row must exist.
func (s *Store) touch(ctx context.Context, bookingID string) error {
	const q = `UPDATE bookings SET updated_at = ? WHERE booking_id = ?`
	if _, err := s.db.ExecContext(ctx, q, formatTime(timeNow()), bookingID); err != nil {
		return fmt.Errorf("sqlite: touch booking %q: %w", bookingID, err)
	}
	return nil
}

// applySchema runs the DDL statements once. Idempotent due to IF NOT EXISTS.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

func checkUpdated(res sql.Result, bookingID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected for %q: %w", bookingID, err)
	}
	if n == 0 {
		return bookinglog.ErrNotFound
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lifelog/internal/core"
	"lifelog/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the SQLite-backed Event Store. It implements
// store.EventSource for reads and carries the write surface the create
// forms go through.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const selectEvents = `
SELECT e.id, e.date, e.title, e.description, e.amount, e.with_partner, e.positive,
       c.id, c.name, c.hidden,
       l.id, l.name, l.precise_address,
       m.id, m.name
FROM events e
LEFT JOIN categories c ON c.id = e.category_id
LEFT JOIN locations l ON l.id = e.location_id
LEFT JOIN measurements m ON m.id = e.measurement_id
`

// FetchEvents implements store.EventSource. Rows come back date-ascending,
// which the day aggregate relies on.
func (r *SQLiteRepository) FetchEvents(ctx context.Context, f store.Filter) ([]store.RawEventRow, error) {
	query := selectEvents
	if f.ExcludeHiddenCategories {
		query += "WHERE (c.hidden IS NULL OR c.hidden = 0)\n"
	}
	query += "ORDER BY e.date ASC, e.id ASC"

	return r.queryEvents(ctx, query)
}

// FetchEventsForKeys implements store.EventSource.
func (r *SQLiteRepository) FetchEventsForKeys(ctx context.Context, dim store.Dimension, keys []string) ([]store.RawEventRow, error) {
	if len(keys) == 0 {
		return []store.RawEventRow{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	var where string
	switch dim {
	case store.DimCategory:
		where = "WHERE e.category_id IN (" + placeholders + ")\n"
	case store.DimLocation:
		where = "WHERE e.location_id IN (" + placeholders + ")\n"
	case store.DimPerson:
		where = "WHERE e.id IN (SELECT event_id FROM event_people WHERE person_id IN (" + placeholders + "))\n"
	case store.DimDay:
		where = "WHERE substr(e.date, 1, 10) IN (" + placeholders + ")\n"
	default:
		return nil, fmt.Errorf("unsupported dimension %q", dim)
	}

	query := selectEvents + where + "ORDER BY e.date ASC, e.id ASC"
	return r.queryEvents(ctx, query, args...)
}

func (r *SQLiteRepository) queryEvents(ctx context.Context, query string, args ...any) ([]store.RawEventRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := make([]store.RawEventRow, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		var (
			row         store.RawEventRow
			amount      sql.NullFloat64
			withPartner int64
			positive    sql.NullInt64
			catID       sql.NullInt64
			catName     sql.NullString
			catHidden   sql.NullInt64
			locID       sql.NullInt64
			locName     sql.NullString
			locAddress  sql.NullString
			meaID       sql.NullInt64
			meaName     sql.NullString
		)
		if err := rows.Scan(
			&row.EventID, &row.Date, &row.Title, &row.Description, &amount, &withPartner, &positive,
			&catID, &catName, &catHidden,
			&locID, &locName, &locAddress,
			&meaID, &meaName,
		); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}

		if amount.Valid {
			v := amount.Float64
			row.Amount = &v
		}
		row.WithPartner = withPartner != 0
		if positive.Valid {
			v := positive.Int64 != 0
			row.Positive = &v
		}
		if catID.Valid {
			row.Category = &store.RawCategory{
				ID:     catID.Int64,
				Name:   catName.String,
				Hidden: catHidden.Int64 != 0,
			}
		}
		if locID.Valid {
			row.Location = &store.RawLocation{
				LocationID:     locID.Int64,
				Name:           locName.String,
				PreciseAddress: locAddress.String,
			}
		}
		if meaID.Valid {
			row.Measurement = &store.RawMeasurement{
				MeasurementID: meaID.Int64,
				Name:          meaName.String,
			}
		}

		ids = append(ids, row.EventID)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	if err := r.attachAttendees(ctx, out, ids); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLiteRepository) attachAttendees(ctx context.Context, events []store.RawEventRow, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `
SELECT ep.event_id, p.id, p.name
FROM event_people ep
JOIN people p ON p.id = ep.person_id
WHERE ep.event_id IN (` + placeholders + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query attendees: %w", err)
	}
	defer rows.Close()

	byEvent := make(map[int64][]store.RawAttendee)
	for rows.Next() {
		var eventID int64
		var p store.RawPerson
		if err := rows.Scan(&eventID, &p.PersonID, &p.Name); err != nil {
			return fmt.Errorf("scan attendee row: %w", err)
		}
		person := p
		byEvent[eventID] = append(byEvent[eventID], store.RawAttendee{Person: &person})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate attendee rows: %w", err)
	}

	for i := range events {
		events[i].Attendees = byEvent[events[i].EventID]
	}
	return nil
}

// NewEvent is the write-side shape of an event. Optional links stay nil.
type NewEvent struct {
	Title         string
	Description   string
	Date          time.Time
	Amount        *float64
	MeasurementID *int64
	CategoryID    *int64
	LocationID    *int64
	WithPartner   bool
	Positive      *bool
	AttendeeIDs   []int64
}

// CreateEvent inserts an event and its attendee links in one transaction.
// A zero date defaults to record-creation time.
func (r *SQLiteRepository) CreateEvent(ctx context.Context, ev NewEvent) (int64, error) {
	if strings.TrimSpace(ev.Title) == "" {
		return 0, core.ErrEmptyTitle
	}
	if ev.Amount != nil && *ev.Amount < 0 {
		return 0, core.ErrNegativeAmount
	}

	date := ev.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var positive any
	if ev.Positive != nil {
		positive = boolToInt(*ev.Positive)
	}

	res, err := tx.ExecContext(ctx, `
INSERT INTO events (title, description, date, amount, measurement_id, category_id, location_id, with_partner, positive)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Title, ev.Description, date.UTC().Format(time.RFC3339),
		nullableFloat(ev.Amount), nullableInt(ev.MeasurementID), nullableInt(ev.CategoryID), nullableInt(ev.LocationID),
		boolToInt(ev.WithPartner), positive,
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("event id: %w", err)
	}

	for _, personID := range ev.AttendeeIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO event_people (event_id, person_id) VALUES (?, ?)", id, personID); err != nil {
			return 0, fmt.Errorf("insert attendee %d: %w", personID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit event: %w", err)
	}

	slog.InfoContext(ctx, "Event saved",
		"id", id,
		"title", ev.Title,
		"attendees", len(ev.AttendeeIDs))
	return id, nil
}

// DeleteEvent removes an event and its attendee links. The link rows go
// explicitly so the delete never depends on the foreign_keys pragma.
func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM event_people WHERE event_id = ?", id); err != nil {
		return fmt.Errorf("delete attendee links: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Event deleted", "id", id)
	return nil
}

// Reference data rows.
type (
	Category struct {
		ID     int64
		Name   string
		Hidden bool
	}

	Location struct {
		ID             int64
		Name           string
		PreciseAddress string
	}

	Measurement struct {
		ID   int64
		Name string
	}

	Person struct {
		ID   int64
		Name string
	}
)

func (r *SQLiteRepository) CreateCategory(ctx context.Context, name string, hidden bool) (int64, error) {
	return r.insertNamed(ctx, "insert category",
		"INSERT INTO categories (name, hidden) VALUES (?, ?)", name, boolToInt(hidden))
}

func (r *SQLiteRepository) CreatePerson(ctx context.Context, name string) (int64, error) {
	return r.insertNamed(ctx, "insert person",
		"INSERT INTO people (name) VALUES (?)", name)
}

func (r *SQLiteRepository) CreateLocation(ctx context.Context, name, preciseAddress string) (int64, error) {
	return r.insertNamed(ctx, "insert location",
		"INSERT INTO locations (name, precise_address) VALUES (?, ?)", name, preciseAddress)
}

func (r *SQLiteRepository) CreateMeasurement(ctx context.Context, name string) (int64, error) {
	return r.insertNamed(ctx, "insert measurement",
		"INSERT INTO measurements (name) VALUES (?)", name)
}

func (r *SQLiteRepository) insertNamed(ctx context.Context, op, query string, args ...any) (int64, error) {
	if len(args) > 0 {
		if name, ok := args[0].(string); ok && strings.TrimSpace(name) == "" {
			return 0, fmt.Errorf("%s: empty name", op)
		}
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s id: %w", op, err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, hidden FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		var c Category
		var hidden int64
		if err := rows.Scan(&c.ID, &c.Name, &hidden); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Hidden = hidden != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListPeople(ctx context.Context) ([]Person, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM people ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	out := make([]Person, 0)
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, precise_address FROM locations ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	out := make([]Location, 0)
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.PreciseAddress); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListMeasurements(ctx context.Context) ([]Measurement, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM measurements ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	defer rows.Close()

	out := make([]Measurement, 0)
	for rows.Next() {
		var m Measurement
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

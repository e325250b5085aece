package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/writewithwrabit/calorietrack/calendar"
	"github.com/writewithwrabit/calorietrack/db"
	"github.com/writewithwrabit/calorietrack/models"
)

// ErrNotFound is returned when no entry matches the given id for the user.
var ErrNotFound = errors.New("entry not found")

// Store persists intake and exertion entries. Every method is scoped to a
// user id.
type Store struct {
	db  *db.DB
	loc *time.Location
}

// New returns a Store that renders entry times in loc.
func New(conn *db.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{db: conn, loc: loc}
}

// storedTime is the on-disk form of an instant: UTC, second precision, RFC 3339.
func storedTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func parseStoredTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse occurred_at %q: %w", raw, err)
	}
	return t, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scanEntry(row scanner, kind models.Kind) (*models.Entry, error) {
	entry := &models.Entry{Kind: kind}
	var occurredAt string
	if err := row.Scan(&entry.ID, &entry.UserID, &entry.Label, &entry.Calories, &occurredAt); err != nil {
		return nil, err
	}
	t, err := parseStoredTime(occurredAt)
	if err != nil {
		return nil, err
	}
	entry.OccurredAt = t.In(s.loc)
	return entry, nil
}

func (s *Store) Create(ctx context.Context, kind models.Kind, userID string, in models.EntryInput) (*models.Entry, error) {
	entry := &models.Entry{
		ID:         uuid.NewString(),
		Kind:       kind,
		UserID:     userID,
		Label:      in.Label,
		Calories:   in.Calories,
		OccurredAt: in.OccurredAt.In(s.loc),
	}

	query := fmt.Sprintf("INSERT INTO %s (id, user_id, label, calories, occurred_at) VALUES ($1, $2, $3, $4, $5)", kind.Table())
	if _, err := s.db.LogAndExec(ctx, query, entry.ID, entry.UserID, entry.Label, entry.Calories, storedTime(entry.OccurredAt)); err != nil {
		return nil, fmt.Errorf("create %s entry: %w", kind, err)
	}

	return entry, nil
}

// List returns the user's entries of one kind, newest first.
func (s *Store) List(ctx context.Context, kind models.Kind, userID string) ([]*models.Entry, error) {
	query := fmt.Sprintf("SELECT id, user_id, label, calories, occurred_at FROM %s WHERE user_id = $1 ORDER BY occurred_at DESC, id", kind.Table())
	res, err := s.db.LogAndQuery(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s entries: %w", kind, err)
	}
	defer res.Close()

	entries := []*models.Entry{}
	for res.Next() {
		entry, err := s.scanEntry(res, kind)
		if err != nil {
			return nil, fmt.Errorf("scan %s entry: %w", kind, err)
		}
		entries = append(entries, entry)
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("list %s entries: %w", kind, err)
	}

	return entries, nil
}

func (s *Store) Get(ctx context.Context, kind models.Kind, userID, id string) (*models.Entry, error) {
	query := fmt.Sprintf("SELECT id, user_id, label, calories, occurred_at FROM %s WHERE user_id = $1 AND id = $2", kind.Table())
	entry, err := s.scanEntry(s.db.LogAndQueryRow(ctx, query, userID, id), kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s entry %s: %w", kind, id, err)
	}
	return entry, nil
}

// Update replaces label, calories and time of an existing entry.
func (s *Store) Update(ctx context.Context, kind models.Kind, userID, id string, in models.EntryInput) (*models.Entry, error) {
	query := fmt.Sprintf("UPDATE %s SET label = $1, calories = $2, occurred_at = $3, updated_at = CURRENT_TIMESTAMP WHERE user_id = $4 AND id = $5", kind.Table())
	res, err := s.db.LogAndExec(ctx, query, in.Label, in.Calories, storedTime(in.OccurredAt), userID, id)
	if err != nil {
		return nil, fmt.Errorf("update %s entry %s: %w", kind, id, err)
	}
	if err := expectOneRow(res); err != nil {
		return nil, err
	}

	return &models.Entry{
		ID:         id,
		Kind:       kind,
		UserID:     userID,
		Label:      in.Label,
		Calories:   in.Calories,
		OccurredAt: in.OccurredAt.In(s.loc),
	}, nil
}

func (s *Store) Delete(ctx context.Context, kind models.Kind, userID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE user_id = $1 AND id = $2", kind.Table())
	res, err := s.db.LogAndExec(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("delete %s entry %s: %w", kind, id, err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	count, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// DailyTotals sums calories per day for entries inside rng. Days are drawn
// with calendar.DayLabel in the range's location, the same function that
// labels the dashboard, so both sides agree on where a day begins.
func (s *Store) DailyTotals(ctx context.Context, kind models.Kind, userID string, rng calendar.Range) (map[string]int, error) {
	from, to := rng.Bounds()
	query := fmt.Sprintf("SELECT occurred_at, calories FROM %s WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3", kind.Table())
	res, err := s.db.LogAndQuery(ctx, query, userID, storedTime(from), storedTime(to))
	if err != nil {
		return nil, fmt.Errorf("sum %s entries: %w", kind, err)
	}
	defer res.Close()

	totals := map[string]int{}
	for res.Next() {
		var raw string
		var calories int
		if err := res.Scan(&raw, &calories); err != nil {
			return nil, fmt.Errorf("scan %s total: %w", kind, err)
		}
		t, err := parseStoredTime(raw)
		if err != nil {
			return nil, err
		}
		totals[calendar.DayLabel(t, rng.Location())] += calories
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("sum %s entries: %w", kind, err)
	}

	return totals, nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vestnik-bot/vestnik/internal/store"
)

// Timestamp layouts used in the database. Timestamps follow the
// strftime('%Y-%m-%dT%H:%M:%fZ') default; publish dates are day-precision.
const (
	timeLayout = "2006-01-02T15:04:05.000Z"
	dateLayout = "2006-01-02"
)

const selectColumns = `id, user_id, username, type, subtype, from_name, to_name,
	text, photo_id, phone, status, created_at, publish_date, published_at`

// Add inserts a new pending application and returns its ID.
func (s *applicationStore) Add(ctx context.Context, app *store.Application) (int64, error) {
	var publishDate any
	if app.PublishDate != nil {
		publishDate = app.PublishDate.Format(dateLayout)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO applications
			(user_id, username, type, subtype, from_name, to_name, text, photo_id, phone, publish_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.UserID, app.Username, string(app.Type), app.Subtype,
		app.FromName, app.ToName, app.Text, app.PhotoID, app.Phone, publishDate,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: add application: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: add application id: %w", err)
	}
	return id, nil
}

// ByID returns the application with the given ID.
func (s *applicationStore) ByID(ctx context.Context, id int64) (*store.Application, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM applications WHERE id = ?", id)

	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: get application %d: %w", id, err)
	}
	return app, nil
}

// SetStatus moves an application from the expected current status to next.
// The WHERE status = ? guard makes the forward-only invariant hold even
// when two moderation callbacks race on the same row.
func (s *applicationStore) SetStatus(ctx context.Context, id int64, current, next store.Status) error {
	if !current.CanTransition(next) {
		return store.ErrInvalidTransition
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE applications SET status = ? WHERE id = ? AND status = ?",
		string(next), id, string(current),
	)
	if err != nil {
		return fmt.Errorf("sqlite: set status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: set status rows: %w", err)
	}
	if n == 0 {
		return s.missingOrConflict(ctx, id)
	}
	return nil
}

// ApprovedUnpublished returns all applications eligible for delivery at now.
func (s *applicationStore) ApprovedUnpublished(ctx context.Context, now time.Time) ([]store.Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM applications
		WHERE status = ? AND published_at IS NULL
		  AND (publish_date IS NULL OR publish_date <= ?)`,
		string(store.StatusApproved), now.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: approved unpublished: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var apps []store.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: approved unpublished scan: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: approved unpublished rows: %w", err)
	}
	return apps, nil
}

// MarkPublished records delivery time and moves the row to published.
func (s *applicationStore) MarkPublished(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE applications
		SET published_at = strftime('%Y-%m-%dT%H:%M:%fZ','now'), status = ?
		WHERE id = ? AND status = ?`,
		string(store.StatusPublished), id, string(store.StatusApproved),
	)
	if err != nil {
		return fmt.Errorf("sqlite: mark published: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: mark published rows: %w", err)
	}
	if n == 0 {
		return s.missingOrConflict(ctx, id)
	}
	return nil
}

// CountRecentByUser returns how many applications the user created within
// the window ending now. Backs the per-user submission rate limit.
func (s *applicationStore) CountRecentByUser(ctx context.Context, userID int64, window time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-window).Format(timeLayout)

	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM applications WHERE user_id = ? AND created_at >= ?",
		userID, cutoff,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: count recent: %w", err)
	}
	return n, nil
}

// CountByStatus returns the number of applications per status.
func (s *applicationStore) CountByStatus(ctx context.Context) (map[store.Status]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM applications GROUP BY status",
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: count by status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[store.Status]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scan status count: %w", err)
		}
		counts[store.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: count by status: %w", err)
	}
	return counts, nil
}

// PurgeTerminal deletes rejected and published rows older than retention.
func (s *applicationStore) PurgeTerminal(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).Format(timeLayout)

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM applications WHERE status IN (?, ?) AND created_at < ?",
		string(store.StatusRejected), string(store.StatusPublished), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: purge terminal: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: purge terminal rows: %w", err)
	}
	return n, nil
}

// missingOrConflict distinguishes a missing row from a status conflict
// after an UPDATE matched nothing.
func (s *applicationStore) missingOrConflict(ctx context.Context, id int64) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM applications WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("sqlite: check application %d: %w", id, err)
	}
	return store.ErrInvalidTransition
}

// scanner abstracts *sql.Row and *sql.Rows for scanApplication.
type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(sc scanner) (*store.Application, error) {
	var (
		app         store.Application
		typ, status string
		createdAt   string
		publishDate sql.NullString
		publishedAt sql.NullString
	)

	err := sc.Scan(
		&app.ID, &app.UserID, &app.Username, &typ, &app.Subtype,
		&app.FromName, &app.ToName, &app.Text, &app.PhotoID, &app.Phone,
		&status, &createdAt, &publishDate, &publishedAt,
	)
	if err != nil {
		return nil, err
	}

	app.Type = store.Type(typ)
	app.Status = store.Status(status)

	if app.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if publishDate.Valid {
		d, err := time.Parse(dateLayout, publishDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse publish_date %q: %w", publishDate.String, err)
		}
		app.PublishDate = &d
	}
	if publishedAt.Valid {
		ts, err := time.Parse(timeLayout, publishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse published_at %q: %w", publishedAt.String, err)
		}
		app.PublishedAt = &ts
	}

	return &app, nil
}

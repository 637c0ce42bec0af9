package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/nichelab/niche-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL UNIQUE,
	profile    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS reports (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	profile_id TEXT NOT NULL,
	report     TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'completed',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_profiles_user_id ON profiles(user_id);
CREATE INDEX IF NOT EXISTS idx_reports_user_id ON reports(user_id);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveProfile upserts by user: the user's existing profile keeps its id and
// creation time, a new user gets a fresh row. The passed profile is updated
// in place with id and timestamps.
func (s *SQLiteStore) SaveProfile(ctx context.Context, profile *model.FounderProfile) error {
	now := time.Now().UTC()

	existing, err := s.LatestProfile(ctx, profile.UserID)
	if err != nil {
		return err
	}

	if existing != nil {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
		profile.UpdatedAt = now

		doc, err := json.Marshal(profile)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal profile")
		}
		res, err := s.db.ExecContext(ctx,
			`UPDATE profiles SET profile = ?, updated_at = ? WHERE id = ?`,
			string(doc), now, profile.ID,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: update profile %s", profile.ID)
		}
		return checkRowsAffected(res, "profile", profile.ID)
	}

	if profile.ID == "" {
		profile.ID = model.NewProfileID()
	}
	profile.CreatedAt = now
	profile.UpdatedAt = now

	doc, err := json.Marshal(profile)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal profile")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, user_id, profile, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		profile.ID, profile.UserID, string(doc), now, now,
	)
	return eris.Wrap(err, "sqlite: insert profile")
}

func (s *SQLiteStore) GetProfile(ctx context.Context, profileID string) (*model.FounderProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, profile, created_at, updated_at FROM profiles WHERE id = ?`,
		profileID,
	)
	return scanProfile(row)
}

func (s *SQLiteStore) LatestProfile(ctx context.Context, userID string) (*model.FounderProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, profile, created_at, updated_at FROM profiles
		 WHERE user_id = ? ORDER BY updated_at DESC LIMIT 1`,
		userID,
	)
	return scanProfile(row)
}

func (s *SQLiteStore) SaveReport(ctx context.Context, report *model.NicheReport) error {
	doc, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, user_id, profile_id, report, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		report.ID, report.UserID, report.ProfileID, string(doc), string(report.Status), report.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert report")
}

func (s *SQLiteStore) GetReport(ctx context.Context, reportID string) (*model.NicheReport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT report, status, created_at FROM reports WHERE id = ?`,
		reportID,
	)
	return scanReport(row)
}

func (s *SQLiteStore) ListReports(ctx context.Context, userID string, limit int) ([]model.ReportSummary, error) {
	query := `SELECT report, status, created_at FROM reports WHERE 1=1`
	var args []any

	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`

	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	var summaries []model.ReportSummary
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, r.Summarize())
	}
	return summaries, eris.Wrap(rows.Err(), "sqlite: list reports iterate")
}

func (s *SQLiteStore) DeleteReport(ctx context.Context, reportID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, reportID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete report %s", reportID)
	}
	return checkRowsAffected(res, "report", reportID)
}

// UpdateMilestones replaces the milestones_completed list inside the stored
// report document.
func (s *SQLiteStore) UpdateMilestones(ctx context.Context, reportID string, milestones []string) error {
	if milestones == nil {
		milestones = []string{}
	}
	doc, err := json.Marshal(milestones)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal milestones")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET report = json_set(report, '$.milestones_completed', json(?)) WHERE id = ?`,
		string(doc), reportID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update milestones %s", reportID)
	}
	return checkRowsAffected(res, "report", reportID)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

// scanProfile reads one profile row. The id, user and timestamp columns are
// authoritative over whatever the document carries.
func scanProfile(row scannable) (*model.FounderProfile, error) {
	var id, userID, doc string
	var createdAt, updatedAt time.Time

	err := row.Scan(&id, &userID, &doc, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan profile")
	}

	var p model.FounderProfile
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal profile")
	}
	p.ID = id
	p.UserID = userID
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return &p, nil
}

func scanReport(row scannable) (*model.NicheReport, error) {
	var doc, status string
	var createdAt time.Time

	err := row.Scan(&doc, &status, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan report")
	}

	var r model.NicheReport
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal report")
	}
	r.Status = model.ReportStatus(status)
	r.CreatedAt = createdAt
	return &r, nil
}

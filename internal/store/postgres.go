package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/nichelab/niche-cli/internal/db"
	"github.com/nichelab/niche-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

var _ Store = (*PostgresStore)(nil)

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_profile":    `INSERT INTO profiles (id, user_id, profile, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"update_profile":    `UPDATE profiles SET profile = $1, updated_at = $2 WHERE id = $3`,
	"get_profile":       `SELECT id, user_id, profile, created_at, updated_at FROM profiles WHERE id = $1`,
	"latest_profile":    `SELECT id, user_id, profile, created_at, updated_at FROM profiles WHERE user_id = $1 ORDER BY updated_at DESC LIMIT 1`,
	"insert_report":     `INSERT INTO reports (id, user_id, profile_id, report, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"get_report":        `SELECT report, status, created_at FROM reports WHERE id = $1`,
	"delete_report":     `DELETE FROM reports WHERE id = $1`,
	"update_milestones": `UPDATE reports SET report = jsonb_set(report, '{milestones_completed}', $1::jsonb) WHERE id = $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id    TEXT NOT NULL UNIQUE,
	profile    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS reports (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id    TEXT NOT NULL,
	profile_id TEXT NOT NULL,
	report     JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'completed',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_profiles_user_id ON profiles(user_id);
CREATE INDEX IF NOT EXISTS idx_reports_user_id ON reports(user_id);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveProfile(ctx context.Context, profile *model.FounderProfile) error {
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
			return eris.Wrap(err, "postgres: marshal profile")
		}
		tag, err := s.pool.Exec(ctx,
			`UPDATE profiles SET profile = $1, updated_at = $2 WHERE id = $3`,
			doc, now, profile.ID,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: update profile %s", profile.ID)
		}
		if tag.RowsAffected() == 0 {
			return eris.Wrapf(ErrNotFound, "profile %s", profile.ID)
		}
		return nil
	}

	if profile.ID == "" {
		profile.ID = model.NewProfileID()
	}
	profile.CreatedAt = now
	profile.UpdatedAt = now

	doc, err := json.Marshal(profile)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal profile")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO profiles (id, user_id, profile, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		profile.ID, profile.UserID, doc, now, now,
	)
	return eris.Wrap(err, "postgres: insert profile")
}

func (s *PostgresStore) GetProfile(ctx context.Context, profileID string) (*model.FounderProfile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, profile, created_at, updated_at FROM profiles WHERE id = $1`,
		profileID,
	)
	return scanPgProfile(row)
}

func (s *PostgresStore) LatestProfile(ctx context.Context, userID string) (*model.FounderProfile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, profile, created_at, updated_at FROM profiles
		 WHERE user_id = $1 ORDER BY updated_at DESC LIMIT 1`,
		userID,
	)
	return scanPgProfile(row)
}

func (s *PostgresStore) SaveReport(ctx context.Context, report *model.NicheReport) error {
	doc, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO reports (id, user_id, profile_id, report, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		report.ID, report.UserID, report.ProfileID, doc, string(report.Status), report.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert report")
}

func (s *PostgresStore) GetReport(ctx context.Context, reportID string) (*model.NicheReport, error) {
	var doc []byte
	var status string
	var createdAt time.Time

	err := s.pool.QueryRow(ctx,
		`SELECT report, status, created_at FROM reports WHERE id = $1`,
		reportID,
	).Scan(&doc, &status, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get report %s", reportID)
	}

	var r model.NicheReport
	if err := json.Unmarshal(doc, &r); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal report")
	}
	r.Status = model.ReportStatus(status)
	r.CreatedAt = createdAt
	return &r, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, userID string, limit int) ([]model.ReportSummary, error) {
	query := `SELECT report, status, created_at FROM reports WHERE true`
	args := []any{}
	argIdx := 1

	if userID != "" {
		query += ` AND user_id = $1`
		args = append(args, userID)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reports")
	}
	defer rows.Close()

	var summaries []model.ReportSummary
	for rows.Next() {
		var doc []byte
		var status string
		var createdAt time.Time
		if err := rows.Scan(&doc, &status, &createdAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan report")
		}

		var r model.NicheReport
		if err := json.Unmarshal(doc, &r); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal report")
		}
		r.Status = model.ReportStatus(status)
		r.CreatedAt = createdAt
		summaries = append(summaries, r.Summarize())
	}
	return summaries, eris.Wrap(rows.Err(), "postgres: list reports iterate")
}

func (s *PostgresStore) DeleteReport(ctx context.Context, reportID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, reportID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete report %s", reportID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "report %s", reportID)
	}
	return nil
}

// UpdateMilestones replaces the milestones_completed list inside the stored
// report document.
func (s *PostgresStore) UpdateMilestones(ctx context.Context, reportID string, milestones []string) error {
	if milestones == nil {
		milestones = []string{}
	}
	doc, err := json.Marshal(milestones)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal milestones")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE reports SET report = jsonb_set(report, '{milestones_completed}', $1::jsonb) WHERE id = $2`,
		doc, reportID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update milestones %s", reportID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "report %s", reportID)
	}
	return nil
}

func scanPgProfile(row pgx.Row) (*model.FounderProfile, error) {
	var id, userID string
	var doc []byte
	var createdAt, updatedAt time.Time

	err := row.Scan(&id, &userID, &doc, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: scan profile")
	}

	var p model.FounderProfile
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal profile")
	}
	p.ID = id
	p.UserID = userID
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return &p, nil
}

package vacancy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS vacancies (
	id          TEXT PRIMARY KEY,
	seq         BIGSERIAL,
	source      TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	company     TEXT NOT NULL DEFAULT '',
	city        TEXT NOT NULL DEFAULT '',
	work_format TEXT NOT NULL DEFAULT 'unspecified',
	salary_min  INTEGER,
	salary_max  INTEGER,
	payload     JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS vacancies_city_idx ON vacancies (LOWER(city));
`

const upsertQuery = `
INSERT INTO vacancies (id, source, title, company, city, work_format, salary_min, salary_max, payload, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (id) DO UPDATE SET
	source = EXCLUDED.source,
	title = EXCLUDED.title,
	company = EXCLUDED.company,
	city = EXCLUDED.city,
	work_format = EXCLUDED.work_format,
	salary_min = EXCLUDED.salary_min,
	salary_max = EXCLUDED.salary_max,
	payload = EXCLUDED.payload,
	updated_at = now()`

// PostgresSource keeps the corpus in the vacancies table. The scalar columns
// mirror the filter attributes; the full record lives in payload.
type PostgresSource struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Connect opens and verifies a connection pool.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	pingCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

func NewPostgresSource(pool *pgxpool.Pool, logger *zap.Logger) *PostgresSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresSource{pool: pool, logger: logger}
}

// EnsureSchema creates the vacancies table when it does not exist yet.
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create vacancies schema: %w", err)
	}
	return nil
}

// Load returns all records in insertion order.
func (s *PostgresSource) Load(ctx context.Context) ([]*Record, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM vacancies ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query vacancies: %w", err)
	}

	payloads, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("scan vacancies: %w", err)
	}

	records := make([]*Record, 0, len(payloads))
	for _, payload := range payloads {
		var r Record
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("decode vacancy payload: %w", err)
		}
		r.WorkFormat = NormalizeWorkFormat(string(r.WorkFormat))
		records = append(records, &r)
	}

	s.logger.Debug("loaded vacancies from postgres", zap.Int("count", len(records)))
	return records, nil
}

// Upsert writes records keyed by id in a single transaction. Re-ingesting the
// same id updates the row in place and keeps its position.
func (s *PostgresSource) Upsert(ctx context.Context, records []*Record) (int, error) {
	written := 0
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, r := range records {
			if r == nil || r.ID == "" {
				continue
			}
			payload, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encode vacancy %s: %w", r.ID, err)
			}
			if _, err := tx.Exec(ctx, upsertQuery, upsertArgs(r, payload)...); err != nil {
				return fmt.Errorf("upsert vacancy %s: %w", r.ID, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("upserted vacancies", zap.Int("count", written))
	return written, nil
}

func upsertArgs(r *Record, payload []byte) []any {
	return []any{
		r.ID,
		r.Source,
		r.Title,
		r.Company,
		r.City,
		string(r.Format()),
		nullableInt(r.Salary.Min),
		nullableInt(r.Salary.Max),
		payload,
	}
}

func nullableInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

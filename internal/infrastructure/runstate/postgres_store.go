package runstate

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"AINewsAgent/internal/apperr"
	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/ports"
)

// PostgresStore keeps checkpoints in the agent_runs table as jsonb.
type PostgresStore struct {
	db *pgxpool.Pool
}

var _ ports.RunStore = (*PostgresStore)(nil)

// NewPool opens and pings a pgx connection pool.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, apperr.NewStorage("create pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperr.NewStorage("ping postgres", err)
	}
	return pool, nil
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

func (s *PostgresStore) Save(ctx context.Context, run domain.Run) error {
	raw, err := encode(run)
	if err != nil {
		return apperr.NewStorage("encode run", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO agent_runs (run_id, state, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id) DO UPDATE
		SET state = EXCLUDED.state,
		    payload = EXCLUDED.payload,
		    updated_at = EXCLUDED.updated_at`,
		run.ID, string(run.State), raw, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return apperr.NewStorage("save run", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, runID string) (domain.Run, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT payload FROM agent_runs WHERE run_id = $1`, runID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Run{}, apperr.ErrRunNotFound
		}
		return domain.Run{}, apperr.NewStorage("load run", err)
	}

	run, err := decode(raw)
	if err != nil {
		return domain.Run{}, apperr.NewStorage("decode run", err)
	}
	return run, nil
}

func (s *PostgresStore) ListByState(ctx context.Context, state domain.RunState) ([]domain.Run, error) {
	rows, err := s.db.Query(ctx, `
		SELECT payload FROM agent_runs
		WHERE state = $1
		ORDER BY created_at, run_id`, string(state))
	if err != nil {
		return nil, apperr.NewStorage("list runs", err)
	}
	defer rows.Close()

	runs := []domain.Run{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, apperr.NewStorage("scan run", err)
		}
		run, err := decode(raw)
		if err != nil {
			return nil, apperr.NewStorage("decode run", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.NewStorage("list runs", err)
	}
	return runs, nil
}

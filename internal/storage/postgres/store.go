package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"conditionScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS conditions (
	condition_id  BIGINT PRIMARY KEY,
	game_id       BIGINT NOT NULL,
	state         TEXT NOT NULL,
	starts_at     TIMESTAMPTZ NOT NULL,
	odds0         DOUBLE PRECISION NOT NULL,
	odds1         DOUBLE PRECISION NOT NULL,
	outcomes      BIGINT[] NOT NULL,
	ipfs_hash_hex TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS conditions_game_id_idx ON conditions (game_id);
CREATE TABLE IF NOT EXISTS syncer_state (
	name         TEXT PRIMARY KEY,
	latest_block BIGINT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for conditions and the sync cursor.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables the store writes to.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutConditions inserts or updates synced conditions.
func (s *Store) PutConditions(ctx context.Context, conditions []model.Condition) error {
	if len(conditions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range conditions {
		outcomes := make([]int64, 0, len(c.Outcomes))
		for _, outcome := range c.Outcomes {
			outcomes = append(outcomes, int64(outcome))
		}
		batch.Queue(`
			INSERT INTO conditions (
				condition_id, game_id, state, starts_at, odds0, odds1, outcomes, ipfs_hash_hex, created_at, updated_at
			) VALUES ($1, $2, $3, to_timestamp($4::double precision / 1000), $5, $6, $7, $8, now(), now())
			ON CONFLICT (condition_id)
			DO UPDATE SET
				game_id = EXCLUDED.game_id,
				state = EXCLUDED.state,
				starts_at = EXCLUDED.starts_at,
				odds0 = EXCLUDED.odds0,
				odds1 = EXCLUDED.odds1,
				outcomes = EXCLUDED.outcomes,
				ipfs_hash_hex = EXCLUDED.ipfs_hash_hex,
				updated_at = now()
		`,
			int64(c.ID),
			int64(c.GameData.ID),
			c.GameData.State.String(),
			c.GameData.StartsAt,
			c.Odds[0],
			c.Odds[1],
			outcomes,
			c.GameData.IPFSHashHex,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, c := range conditions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert condition %d: %w", c.ID, err)
		}
	}
	return nil
}

// LoadState returns the stored block for a cursor name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block int64
	row := s.pool.QueryRow(ctx, `SELECT latest_block FROM syncer_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(block), true, nil
}

// SaveState upserts the block for a cursor name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO syncer_state (name, latest_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET latest_block = EXCLUDED.latest_block, updated_at = now()
	`, name, int64(block))
	return err
}

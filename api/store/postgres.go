package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Schema creates the records table. Fees are NUMERIC for exact sums.
const Schema = `
CREATE TABLE IF NOT EXISTS router_records (
	id            UUID PRIMARY KEY,
	height        BIGINT NOT NULL,
	seq           BIGINT NOT NULL,
	tx_hash       TEXT NOT NULL DEFAULT '',
	queue         TEXT NOT NULL,
	action        TEXT NOT NULL,
	request_key   TEXT NOT NULL,
	account       TEXT NOT NULL,
	market_id     TEXT NOT NULL,
	is_long       BOOLEAN NOT NULL,
	size_delta    TEXT NOT NULL,
	execution_fee NUMERIC NOT NULL,
	fee_receiver  TEXT NOT NULL DEFAULT '',
	block_gap     BIGINT NOT NULL,
	time_gap      BIGINT NOT NULL,
	indexed_at    TIMESTAMPTZ NOT NULL,
	UNIQUE (height, seq)
);
CREATE INDEX IF NOT EXISTS router_records_key_idx ON router_records (request_key);
CREATE INDEX IF NOT EXISTS router_records_account_idx ON router_records (account, height DESC, seq DESC);
`

const selectColumns = `id::TEXT, height, seq, tx_hash, queue, action, request_key, account, market_id,
	is_long, size_delta, execution_fee::TEXT, fee_receiver, block_gap, time_gap, indexed_at`

// PostgresStore implements Store on PostgreSQL
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the table and indexes when missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec *Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO router_records (id, height, seq, tx_hash, queue, action, request_key, account, market_id,
		                             is_long, size_delta, execution_fee, fee_receiver, block_gap, time_gap, indexed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::NUMERIC, $13, $14, $15, $16)
		 ON CONFLICT (height, seq) DO NOTHING`,
		rec.ID, rec.Height, int64(rec.Seq), rec.TxHash, rec.Queue, string(rec.Action), rec.Key, rec.Account, rec.MarketID,
		rec.IsLong, rec.SizeDelta, rec.ExecutionFee.String(), rec.FeeReceiver, rec.BlockGap, rec.TimeGap, rec.IndexedAt,
	)
	if err != nil {
		return fmt.Errorf("insert record %d/%d: %w", rec.Height, rec.Seq, err)
	}
	return nil
}

func (s *PostgresStore) GetByKey(ctx context.Context, queue, key string) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM router_records
		 WHERE request_key = $1 AND ($2 = '' OR queue = $2)
		 ORDER BY height, seq`, key, queue)
	if err != nil {
		return nil, fmt.Errorf("get records by key %s: %w", key, err)
	}
	out, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, account string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM router_records
		 WHERE account = $1
		 ORDER BY height DESC, seq DESC
		 LIMIT $2`, account, limit)
	if err != nil {
		return nil, fmt.Errorf("list records of %s: %w", account, err)
	}
	return scanRecords(rows)
}

func (s *PostgresStore) Latency(ctx context.Context, queue string) (*LatencyStats, error) {
	var (
		created, executed, cancelled, blockSum, timeSum, maxGap int64
		fees                                                    string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT
		    COUNT(*) FILTER (WHERE action = 'created'),
		    COUNT(*) FILTER (WHERE action = 'executed'),
		    COUNT(*) FILTER (WHERE action = 'cancelled'),
		    COALESCE(SUM(block_gap) FILTER (WHERE action <> 'created'), 0)::BIGINT,
		    COALESCE(SUM(time_gap) FILTER (WHERE action <> 'created'), 0)::BIGINT,
		    COALESCE(MAX(block_gap) FILTER (WHERE action <> 'created'), 0),
		    COALESCE(SUM(execution_fee) FILTER (WHERE action <> 'created'), 0)::TEXT
		 FROM router_records WHERE queue = $1`, queue).
		Scan(&created, &executed, &cancelled, &blockSum, &timeSum, &maxGap, &fees)
	if err != nil {
		return nil, fmt.Errorf("latency of %s: %w", queue, err)
	}

	acc := newLatencyAccumulator(queue)
	acc.stats.Created = created
	acc.stats.Executed = executed
	acc.stats.Cancelled = cancelled
	acc.stats.MaxBlockGap = maxGap
	acc.blockSum = blockSum
	acc.timeSum = timeSum
	acc.stats.FeesPaid, _ = decimal.NewFromString(fees)
	return acc.result(), nil
}

func (s *PostgresStore) LastHeight(ctx context.Context) (int64, error) {
	var height int64
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(height), 0) FROM router_records`).Scan(&height)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("last height: %w", err)
	}
	return height, nil
}

func scanRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec    Record
			seq    int64
			action string
			fee    string
		)
		if err := rows.Scan(&rec.ID, &rec.Height, &seq, &rec.TxHash, &rec.Queue, &action, &rec.Key, &rec.Account,
			&rec.MarketID, &rec.IsLong, &rec.SizeDelta, &fee, &rec.FeeReceiver, &rec.BlockGap, &rec.TimeGap,
			&rec.IndexedAt); err != nil {
			return nil, err
		}
		rec.Seq = uint64(seq)
		rec.Action = Action(action)
		rec.ExecutionFee, _ = decimal.NewFromString(fee)
		out = append(out, rec)
	}
	return out, rows.Err()
}

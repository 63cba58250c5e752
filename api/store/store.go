package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Action is a lifecycle transition of a queued request
type Action string

const (
	ActionCreated   Action = "created"
	ActionExecuted  Action = "executed"
	ActionCancelled Action = "cancelled"
)

// ErrNotFound is returned when no record matches a lookup
var ErrNotFound = errors.New("record not found")

// Record is one indexed router event. (Height, Seq) orders records in
// chain order and identifies them for idempotent re-ingestion.
type Record struct {
	ID           string          `json:"id"`
	Height       int64           `json:"height"`
	Seq          uint64          `json:"seq"`
	TxHash       string          `json:"tx_hash,omitempty"`
	Queue        string          `json:"queue"`
	Action       Action          `json:"action"`
	Key          string          `json:"key"`
	Account      string          `json:"account"`
	MarketID     string          `json:"market_id"`
	IsLong       bool            `json:"is_long"`
	SizeDelta    string          `json:"size_delta"`
	ExecutionFee decimal.Decimal `json:"execution_fee"`
	FeeReceiver  string          `json:"fee_receiver,omitempty"`
	BlockGap     int64           `json:"block_gap"`
	TimeGap      int64           `json:"time_gap"`
	IndexedAt    time.Time       `json:"indexed_at"`
}

// LatencyStats aggregates how long requests of a queue waited before being
// executed or cancelled
type LatencyStats struct {
	Queue       string          `json:"queue"`
	Created     int64           `json:"created"`
	Executed    int64           `json:"executed"`
	Cancelled   int64           `json:"cancelled"`
	AvgBlockGap decimal.Decimal `json:"avg_block_gap"`
	AvgTimeGap  decimal.Decimal `json:"avg_time_gap"`
	MaxBlockGap int64           `json:"max_block_gap"`
	FeesPaid    decimal.Decimal `json:"fees_paid"`
}

// Store persists indexed records
type Store interface {
	// Insert stores a record; re-inserting the same (Height, Seq) is a no-op
	Insert(ctx context.Context, rec *Record) error

	// GetByKey returns the lifecycle of a request key in chain order.
	// An empty queue matches both queues.
	GetByKey(ctx context.Context, queue, key string) ([]Record, error)

	// ListByAccount returns an account's records, newest first
	ListByAccount(ctx context.Context, account string, limit int) ([]Record, error)

	// Latency aggregates the settled records of a queue
	Latency(ctx context.Context, queue string) (*LatencyStats, error)

	// LastHeight returns the highest indexed height, 0 when empty
	LastHeight(ctx context.Context) (int64, error)
}

// latencyAccumulator folds records into LatencyStats
type latencyAccumulator struct {
	stats    LatencyStats
	blockSum int64
	timeSum  int64
}

func newLatencyAccumulator(queue string) *latencyAccumulator {
	return &latencyAccumulator{stats: LatencyStats{
		Queue:       queue,
		AvgBlockGap: decimal.Zero,
		AvgTimeGap:  decimal.Zero,
		FeesPaid:    decimal.Zero,
	}}
}

func (a *latencyAccumulator) add(rec *Record) {
	switch rec.Action {
	case ActionCreated:
		a.stats.Created++
		return
	case ActionExecuted:
		a.stats.Executed++
	case ActionCancelled:
		a.stats.Cancelled++
	}
	a.blockSum += rec.BlockGap
	a.timeSum += rec.TimeGap
	if rec.BlockGap > a.stats.MaxBlockGap {
		a.stats.MaxBlockGap = rec.BlockGap
	}
	a.stats.FeesPaid = a.stats.FeesPaid.Add(rec.ExecutionFee)
}

func (a *latencyAccumulator) result() *LatencyStats {
	settled := a.stats.Executed + a.stats.Cancelled
	if settled > 0 {
		n := decimal.NewFromInt(settled)
		a.stats.AvgBlockGap = decimal.NewFromInt(a.blockSum).DivRound(n, 4)
		a.stats.AvgTimeGap = decimal.NewFromInt(a.timeSum).DivRound(n, 4)
	}
	out := a.stats
	return &out
}

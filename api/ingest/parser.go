package ingest

import (
	"strconv"
	"time"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openalpha/perp-router/api/store"
	routertypes "github.com/openalpha/perp-router/x/positionrouter/types"
)

// BlockEventsSlot is the tx slot given to finalize-block events so they sort
// after every tx of the block
const BlockEventsSlot = 1 << 20

type eventKind struct {
	queue  string
	action store.Action
}

var routerEvents = map[string]eventKind{
	routertypes.EventTypeCreateIncreasePosition:  {routertypes.QueueIncrease.String(), store.ActionCreated},
	routertypes.EventTypeCreateDecreasePosition:  {routertypes.QueueDecrease.String(), store.ActionCreated},
	routertypes.EventTypeExecuteIncreasePosition: {routertypes.QueueIncrease.String(), store.ActionExecuted},
	routertypes.EventTypeExecuteDecreasePosition: {routertypes.QueueDecrease.String(), store.ActionExecuted},
	routertypes.EventTypeCancelIncreasePosition:  {routertypes.QueueIncrease.String(), store.ActionCancelled},
	routertypes.EventTypeCancelDecreasePosition:  {routertypes.QueueDecrease.String(), store.ActionCancelled},
}

// Seq orders an event inside its block
func Seq(txSlot, eventIndex int) uint64 {
	return uint64(txSlot)<<20 | uint64(eventIndex)
}

// ParseEvents converts the router lifecycle events of one tx (or of the
// finalize-block phase) into records. Other events are ignored.
func ParseEvents(height int64, txSlot int, txHash string, events []abci.Event, now time.Time) []store.Record {
	var out []store.Record
	for i, ev := range events {
		kind, ok := routerEvents[ev.Type]
		if !ok {
			continue
		}

		attrs := make(map[string]string, len(ev.Attributes))
		for _, attr := range ev.Attributes {
			attrs[attr.Key] = attr.Value
		}

		rec := store.Record{
			ID:           uuid.New().String(),
			Height:       height,
			Seq:          Seq(txSlot, i),
			TxHash:       txHash,
			Queue:        kind.queue,
			Action:       kind.action,
			Key:          attrs[routertypes.AttributeKeyKey],
			Account:      attrs[routertypes.AttributeKeyAccount],
			MarketID:     attrs[routertypes.AttributeKeyMarketID],
			IsLong:       attrs[routertypes.AttributeKeyIsLong] == "true",
			SizeDelta:    attrs[routertypes.AttributeKeySizeDelta],
			FeeReceiver:  attrs[routertypes.AttributeKeyFeeReceiver],
			ExecutionFee: decimal.Zero,
			IndexedAt:    now,
		}
		if fee, err := decimal.NewFromString(attrs[routertypes.AttributeKeyExecutionFee]); err == nil {
			rec.ExecutionFee = fee
		}
		rec.BlockGap, _ = strconv.ParseInt(attrs[routertypes.AttributeKeyBlockGap], 10, 64)
		rec.TimeGap, _ = strconv.ParseInt(attrs[routertypes.AttributeKeyTimeGap], 10, 64)

		out = append(out, rec)
	}
	return out
}

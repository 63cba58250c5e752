package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"
	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	cmttypes "github.com/cometbft/cometbft/types"

	"github.com/openalpha/perp-router/api/store"
	"github.com/openalpha/perp-router/metrics"
)

const subscriber = "perp-router-indexer"

var (
	txQuery          = cmttypes.QueryForEvent(cmttypes.EventTx).String()
	blockEventsQuery = cmttypes.QueryForEvent(cmttypes.EventNewBlockEvents).String()
)

// Broadcaster receives every stored record
type Broadcaster interface {
	BroadcastRecord(rec *store.Record)
}

// Ingester subscribes to a CometBFT node and stores router lifecycle events
type Ingester struct {
	store       store.Store
	broadcaster Broadcaster
	logger      log.Logger
	now         func() time.Time
}

// NewIngester creates an ingester writing to st. broadcaster may be nil.
func NewIngester(st store.Store, broadcaster Broadcaster, logger log.Logger) *Ingester {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Ingester{
		store:       st,
		broadcaster: broadcaster,
		logger:      logger.With("module", "ingest"),
		now:         time.Now,
	}
}

// Run subscribes to tx and finalize-block events on rpcAddr and blocks until
// ctx is done or the subscription closes
func (i *Ingester) Run(ctx context.Context, rpcAddr string) error {
	client, err := rpchttp.New(rpcAddr, "/websocket")
	if err != nil {
		return fmt.Errorf("create rpc client: %w", err)
	}
	if err := client.Start(); err != nil {
		return fmt.Errorf("start rpc client: %w", err)
	}
	defer func() {
		if err := client.Stop(); err != nil {
			i.logger.Error("stop rpc client", "err", err)
		}
	}()

	txCh, err := client.Subscribe(ctx, subscriber, txQuery, 256)
	if err != nil {
		return fmt.Errorf("subscribe txs: %w", err)
	}
	blockCh, err := client.Subscribe(ctx, subscriber, blockEventsQuery, 64)
	if err != nil {
		return fmt.Errorf("subscribe block events: %w", err)
	}
	i.logger.Info("subscribed", "rpc", rpcAddr)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-txCh:
			if !ok {
				return fmt.Errorf("tx subscription closed")
			}
			data, ok := ev.Data.(cmttypes.EventDataTx)
			if !ok {
				continue
			}
			hash := strings.ToUpper(fmt.Sprintf("%x", cmttypes.Tx(data.Tx).Hash()))
			i.Process(ctx, data.Height, int(data.Index), hash, data.Result.Events)
		case ev, ok := <-blockCh:
			if !ok {
				return fmt.Errorf("block events subscription closed")
			}
			data, ok := ev.Data.(cmttypes.EventDataNewBlockEvents)
			if !ok {
				continue
			}
			i.Process(ctx, data.Height, BlockEventsSlot, "", data.Events)
			metrics.GetCollector().UpdateBlockHeight(data.Height)
		}
	}
}

// Process stores and broadcasts the router records found in events and
// returns how many were stored
func (i *Ingester) Process(ctx context.Context, height int64, txSlot int, txHash string, events []abci.Event) int {
	collector := metrics.GetCollector()
	stored := 0

	for _, rec := range ParseEvents(height, txSlot, txHash, events, i.now()) {
		rec := rec
		if err := i.store.Insert(ctx, &rec); err != nil {
			collector.RecordIndexerError("store")
			i.logger.Error("store record", "height", height, "key", rec.Key, "err", err)
			continue
		}
		stored++
		collector.RecordIndexed(rec.Queue, string(rec.Action), rec.Height)
		collector.RecordRequest(rec.Queue, string(rec.Action))
		if rec.Action == store.ActionExecuted {
			collector.RecordExecutionGap(rec.Queue, rec.BlockGap, rec.TimeGap)
		}
		if i.broadcaster != nil {
			i.broadcaster.BroadcastRecord(&rec)
		}
		i.logger.Debug("indexed", "queue", rec.Queue, "action", rec.Action, "key", rec.Key, "height", rec.Height)
	}
	return stored
}

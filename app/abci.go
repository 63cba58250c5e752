package app

import (
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/metrics"
	routertypes "github.com/openalpha/perp-router/x/positionrouter/types"
)

// endBlockWarnThreshold is the EndBlocker duration above which a warning is logged
const endBlockWarnThreshold = 100 * time.Millisecond

// BeginBlocker executes begin block logic
func (app *App) BeginBlocker(ctx sdk.Context) (sdk.BeginBlock, error) {
	return sdk.BeginBlock{}, nil
}

// EndBlocker runs the router auto-drive and publishes queue gauges. A failed
// drive is logged and does not halt the chain.
func (app *App) EndBlocker(ctx sdk.Context) (sdk.EndBlock, error) {
	logger := app.Logger().With("height", ctx.BlockHeight())
	collector := metrics.GetCollector()
	start := time.Now()

	results, err := app.PositionRouterKeeper.EndBlocker(ctx)
	if err != nil {
		logger.Error("position router end block failed", "err", err)
	}
	driveElapsed := time.Since(start)

	for _, r := range results {
		queue := r.Kind.String()
		collector.RecordEndBlockDrive(queue, r.Executed, r.Cancelled, r.Skipped)
		if r.Processed() == 0 {
			continue
		}
		logger.Info("auto-drive",
			"queue", queue,
			"start", r.Start,
			"end", r.End,
			"executed", r.Executed,
			"cancelled", r.Cancelled,
			"skipped", r.Skipped,
			"stopped_early", r.StoppedEarly,
		)
	}

	for _, kind := range []routertypes.QueueKind{routertypes.QueueIncrease, routertypes.QueueDecrease} {
		collector.SetQueueDepth(kind.String(), app.PositionRouterKeeper.GetQueueState(ctx, kind).Pending())
	}
	collector.UpdateBlockHeight(ctx.BlockHeight())

	total := time.Since(start)
	collector.RecordEndBlock("drive", float64(driveElapsed.Microseconds())/1000.0)
	collector.RecordEndBlock("total", float64(total.Microseconds())/1000.0)

	if total > endBlockWarnThreshold {
		logger.Warn("end block slow", "duration_ms", total.Milliseconds(), "threshold_ms", endBlockWarnThreshold.Milliseconds())
	}

	return sdk.EndBlock{}, nil
}

package keeperbot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	"github.com/openalpha/perp-router/metrics"
	"github.com/openalpha/perp-router/x/positionrouter/types"
)

var queueKinds = []types.QueueKind{types.QueueIncrease, types.QueueDecrease}

// Stats holds counters for the bot run
type Stats struct {
	Polls           int64
	PollErrors      int64
	Drives          int64
	DriveErrors     int64
	RequestsDriven  uint64
	LastHeight      int64
	LastPollTime    time.Time
	PendingIncrease int
	PendingDecrease int
}

// Bot polls the router queues and submits batch drives for requests whose
// keeper block delay has elapsed
type Bot struct {
	config    *Config
	source    QueueSource
	submitter TxSubmitter
	tracker   *Tracker
	logger    log.Logger
	runID     string

	mu    sync.RWMutex
	stats Stats

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewBot creates a keeper bot
func NewBot(config *Config, source QueueSource, submitter TxSubmitter, logger log.Logger) *Bot {
	if config == nil {
		config = DefaultConfig()
	}
	if submitter == nil {
		submitter = NewMockSubmitter()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	runID := uuid.New().String()

	return &Bot{
		config:    config,
		source:    source,
		submitter: submitter,
		tracker:   NewTracker(),
		logger:    logger.With("module", "keeperbot", "run", runID),
		runID:     runID,
		stopCh:    make(chan struct{}),
	}
}

// RunID returns the identifier of this bot run
func (b *Bot) RunID() string {
	return b.runID
}

// Tracker returns the bot's slot tracker
func (b *Bot) Tracker() *Tracker {
	return b.tracker
}

// Start starts the poll and stats loops
func (b *Bot) Start(ctx context.Context) error {
	if b.source == nil {
		return fmt.Errorf("keeper bot requires a queue source")
	}
	b.logger.Info("starting keeper bot", "poll_interval", b.config.PollInterval, "batch_size", b.config.BatchSize)

	b.wg.Add(1)
	go b.pollLoop(ctx)

	if b.config.StatsInterval > 0 {
		b.wg.Add(1)
		go b.statsLoop(ctx)
	}
	return nil
}

// Stop stops the loops and waits for them to exit
func (b *Bot) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
	b.wg.Wait()
	b.logger.Info("keeper bot stopped")
}

func (b *Bot) pollLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stopCh:
			return
		case <-ticker.C:
			if err := b.Tick(ctx); err != nil {
				b.logger.Error("poll failed", "err", err)
			}
		}
	}
}

func (b *Bot) statsLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.config.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stopCh:
			return
		case <-ticker.C:
			s := b.Stats()
			status := b.submitter.GetStatus()
			b.logger.Info("keeper bot stats",
				"height", s.LastHeight,
				"polls", s.Polls,
				"drives", s.Drives,
				"drive_errors", s.DriveErrors,
				"requests_driven", s.RequestsDriven,
				"pending_increase", s.PendingIncrease,
				"pending_decrease", s.PendingDecrease,
				"last_tx", status.LastTxHash,
			)
		}
	}
}

// Tick reads one snapshot and submits a drive for every queue with ready
// requests. Drive failures are logged and retried on the next tick.
func (b *Bot) Tick(ctx context.Context) error {
	snap, err := b.source.Snapshot(ctx)
	if err != nil {
		b.mu.Lock()
		b.stats.PollErrors++
		b.mu.Unlock()
		return fmt.Errorf("snapshot: %w", err)
	}

	collector := metrics.GetCollector()
	pending := make(map[types.QueueKind]int, len(queueKinds))

	for _, kind := range queueKinds {
		state := snap.Queues[kind]
		added, removed := b.tracker.Observe(kind, state, snap.Height)
		if added > 0 || removed > 0 {
			b.logger.Debug("queue observed", "queue", kind.String(), "start", state.Start, "length", state.Length, "added", added, "removed", removed)
		}

		ready := b.tracker.Ready(kind, snap.Height, snap.Params.MinBlockDelayKeeper, b.config.BatchSize)
		if ready > 0 {
			b.drive(ctx, kind, ready)
		}

		pending[kind] = b.tracker.Pending(kind)
		collector.SetBotPending(kind.String(), pending[kind])
	}

	b.mu.Lock()
	b.stats.Polls++
	b.stats.LastHeight = snap.Height
	b.stats.LastPollTime = time.Now()
	b.stats.PendingIncrease = pending[types.QueueIncrease]
	b.stats.PendingDecrease = pending[types.QueueDecrease]
	b.mu.Unlock()
	return nil
}

func (b *Bot) drive(ctx context.Context, kind types.QueueKind, count uint64) {
	timer := metrics.NewTimer()
	txHash, err := b.submitter.SubmitDrive(ctx, kind, count)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.stats.DriveErrors++
		metrics.GetCollector().RecordBotDrive(kind.String(), "error", timer.ElapsedMs())
		b.logger.Error("drive failed", "queue", kind.String(), "count", count, "err", err)
		return
	}

	b.stats.Drives++
	b.stats.RequestsDriven += count
	metrics.GetCollector().RecordBotDrive(kind.String(), "ok", timer.ElapsedMs())
	b.logger.Info("drive submitted", "queue", kind.String(), "count", count, "tx", txHash)
}

// Stats returns a copy of the bot counters
func (b *Bot) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stats
}

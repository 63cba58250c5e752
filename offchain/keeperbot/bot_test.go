package keeperbot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

func newTestBot(height int64) (*Bot, *StaticQueueSource, *MockSubmitter) {
	cfg := DefaultConfig()
	cfg.BatchSize = 3
	cfg.StatsInterval = 0
	source := NewStaticQueueSource(height)
	submitter := NewMockSubmitter()
	return NewBot(cfg, source, submitter, nil), source, submitter
}

func TestBotWaitsForKeeperDelay(t *testing.T) {
	bot, source, submitter := newTestBot(100)
	ctx := context.Background()
	delay := types.DefaultParams().MinBlockDelayKeeper

	source.Set(100, types.QueueIncrease, types.QueueState{Start: 0, Length: 2})
	if err := bot.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if n := len(submitter.Drives()); n != 0 {
		t.Fatalf("drives before delay = %d, want 0", n)
	}

	source.Set(100+delay, types.QueueIncrease, types.QueueState{Start: 0, Length: 2})
	if err := bot.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	drives := submitter.Drives()
	if len(drives) != 1 {
		t.Fatalf("drives after delay = %d, want 1", len(drives))
	}
	if drives[0].Kind != types.QueueIncrease || drives[0].MaxCount != 2 {
		t.Errorf("drive = %+v, want increase x2", drives[0])
	}
}

func TestBotCapsDriveAtBatchSize(t *testing.T) {
	bot, source, submitter := newTestBot(50)
	ctx := context.Background()

	source.Set(50, types.QueueDecrease, types.QueueState{Start: 0, Length: 10})
	if err := bot.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	source.Set(60, types.QueueDecrease, types.QueueState{Start: 0, Length: 10})
	if err := bot.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	drives := submitter.Drives()
	if len(drives) != 1 || drives[0].MaxCount != 3 {
		t.Fatalf("drives = %+v, want one decrease drive of 3", drives)
	}

	// The chain consumed the batch; the cursor moved
	source.Set(61, types.QueueDecrease, types.QueueState{Start: 3, Length: 10})
	if err := bot.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if got := bot.Stats().PendingDecrease; got != 7 {
		t.Errorf("pending decrease = %d, want 7", got)
	}
	if got := bot.Stats().RequestsDriven; got != 6 {
		t.Errorf("requests driven = %d, want 6", got)
	}
}

func TestBotDriveFailureIsCounted(t *testing.T) {
	bot, source, submitter := newTestBot(10)
	submitter.SetSimulateFailure(true)

	source.Set(20, types.QueueIncrease, types.QueueState{Start: 0, Length: 1})
	bot.Tracker().Observe(types.QueueIncrease, types.QueueState{Start: 0, Length: 1}, 10)

	if err := bot.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	stats := bot.Stats()
	if stats.DriveErrors != 1 || stats.Drives != 0 {
		t.Errorf("stats = %+v, want one drive error", stats)
	}
	if status := submitter.GetStatus(); status.FailedSubmissions != 1 {
		t.Errorf("failed submissions = %d, want 1", status.FailedSubmissions)
	}
}

func TestBotSnapshotError(t *testing.T) {
	bot, source, _ := newTestBot(1)
	source.SetError(errors.New("node unavailable"))

	if err := bot.Tick(context.Background()); err == nil {
		t.Fatal("expected snapshot error")
	}
	if got := bot.Stats().PollErrors; got != 1 {
		t.Errorf("poll errors = %d, want 1", got)
	}
}

func TestBotStartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PollInterval = 5 * time.Millisecond
	cfg.StatsInterval = 5 * time.Millisecond
	source := NewStaticQueueSource(1)
	bot := NewBot(cfg, source, nil, nil)

	if err := bot.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	bot.Stop()
	bot.Stop()

	if bot.Stats().Polls == 0 {
		t.Error("expected at least one poll")
	}
	if bot.RunID() == "" {
		t.Error("expected a run id")
	}
}

func TestBotRequiresSource(t *testing.T) {
	bot := NewBot(nil, nil, nil, nil)
	if err := bot.Start(context.Background()); err == nil {
		t.Fatal("expected error without a queue source")
	}
}

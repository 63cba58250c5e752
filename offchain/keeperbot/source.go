package keeperbot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cosmos/cosmos-sdk/client/grpc/cmtservice"
	"google.golang.org/grpc"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// Snapshot is the router state the bot reads on every poll
type Snapshot struct {
	Height int64
	Params types.Params
	Queues map[types.QueueKind]types.QueueState
}

// QueueSource reads the router's queue cursors and params
type QueueSource interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// GRPCQueueSource reads raw router store entries through the node's
// ABCIQuery gRPC endpoint
type GRPCQueueSource struct {
	client cmtservice.ServiceClient
}

// NewGRPCQueueSource creates a queue source over conn
func NewGRPCQueueSource(conn grpc.ClientConnInterface) *GRPCQueueSource {
	return &GRPCQueueSource{client: cmtservice.NewServiceClient(conn)}
}

var storeQueryPath = fmt.Sprintf("/store/%s/key", types.StoreKey)

func (s *GRPCQueueSource) query(ctx context.Context, key []byte, height int64) ([]byte, int64, error) {
	res, err := s.client.ABCIQuery(ctx, &cmtservice.ABCIQueryRequest{
		Data:   key,
		Path:   storeQueryPath,
		Height: height,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("abci query: %w", err)
	}
	if res.Code != 0 {
		return nil, 0, fmt.Errorf("abci query failed with code %d: %s", res.Code, res.Log)
	}
	return res.Value, res.Height, nil
}

// Snapshot reads params and both queue states at one height
func (s *GRPCQueueSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	bz, height, err := s.query(ctx, types.ParamsKey, 0)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Height: height,
		Params: types.DefaultParams(),
		Queues: make(map[types.QueueKind]types.QueueState, 2),
	}
	if len(bz) > 0 {
		if err := json.Unmarshal(bz, &snap.Params); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
	}

	for _, kind := range []types.QueueKind{types.QueueIncrease, types.QueueDecrease} {
		bz, _, err := s.query(ctx, types.QueueStateStoreKey(kind), height)
		if err != nil {
			return nil, err
		}
		var state types.QueueState
		if len(bz) > 0 {
			if err := json.Unmarshal(bz, &state); err != nil {
				return nil, fmt.Errorf("decode %s queue state: %w", kind, err)
			}
		}
		snap.Queues[kind] = state
	}
	return snap, nil
}

// StaticQueueSource serves snapshots set by the caller
type StaticQueueSource struct {
	mu   sync.Mutex
	snap Snapshot
	err  error
}

// NewStaticQueueSource creates a source at height with default params and empty queues
func NewStaticQueueSource(height int64) *StaticQueueSource {
	return &StaticQueueSource{snap: Snapshot{
		Height: height,
		Params: types.DefaultParams(),
		Queues: map[types.QueueKind]types.QueueState{},
	}}
}

// Set replaces the height and the state of one queue
func (s *StaticQueueSource) Set(height int64, kind types.QueueKind, state types.QueueState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Height = height
	s.snap.Queues[kind] = state
}

// SetError makes subsequent snapshots fail with err
func (s *StaticQueueSource) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Snapshot returns a copy of the current snapshot
func (s *StaticQueueSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := s.snap
	out.Queues = make(map[types.QueueKind]types.QueueState, len(s.snap.Queues))
	for k, v := range s.snap.Queues {
		out.Queues[k] = v
	}
	return &out, nil
}

package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// MsgServer defines the positionrouter MsgServer
type MsgServer struct {
	keeper *Keeper
}

var _ types.MsgServer = (*MsgServer)(nil)

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

// CreateIncreasePosition handles MsgCreateIncreasePosition
func (m *MsgServer) CreateIncreasePosition(ctx context.Context, msg *types.MsgCreateIncreasePosition) (*types.MsgCreateRequestResponse, error) {
	req, payment, err := msg.ToRequest()
	if err != nil {
		return nil, err
	}
	return m.submitIncrease(ctx, req, payment)
}

// CreateIncreasePositionNative handles MsgCreateIncreasePositionNative
func (m *MsgServer) CreateIncreasePositionNative(ctx context.Context, msg *types.MsgCreateIncreasePositionNative) (*types.MsgCreateRequestResponse, error) {
	req, payment, err := msg.ToRequest()
	if err != nil {
		return nil, err
	}
	return m.submitIncrease(ctx, req, payment)
}

func (m *MsgServer) submitIncrease(ctx context.Context, req *types.IncreasePositionRequest, payment math.Int) (*types.MsgCreateRequestResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	var resp *types.MsgCreateRequestResponse
	err := m.keeper.nonReentrant(sdkCtx, func() error {
		index, key, err := m.keeper.SubmitIncreasePosition(sdkCtx, req, payment)
		if err != nil {
			return err
		}
		resp = &types.MsgCreateRequestResponse{Index: index, Key: types.FormatRequestKey(key)}
		return nil
	})
	return resp, err
}

// CreateDecreasePosition handles MsgCreateDecreasePosition
func (m *MsgServer) CreateDecreasePosition(ctx context.Context, msg *types.MsgCreateDecreasePosition) (*types.MsgCreateRequestResponse, error) {
	req, payment, err := msg.ToRequest()
	if err != nil {
		return nil, err
	}
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	var resp *types.MsgCreateRequestResponse
	err = m.keeper.nonReentrant(sdkCtx, func() error {
		index, key, err := m.keeper.SubmitDecreasePosition(sdkCtx, req, payment)
		if err != nil {
			return err
		}
		resp = &types.MsgCreateRequestResponse{Index: index, Key: types.FormatRequestKey(key)}
		return nil
	})
	return resp, err
}

// ExecuteIncreasePosition handles MsgExecuteIncreasePosition
func (m *MsgServer) ExecuteIncreasePosition(ctx context.Context, msg *types.MsgExecuteIncreasePosition) (*types.MsgExecuteRequestResponse, error) {
	return m.executeOne(ctx, types.QueueIncrease, msg.Sender, msg.Key, msg.FeeReceiver)
}

// ExecuteDecreasePosition handles MsgExecuteDecreasePosition
func (m *MsgServer) ExecuteDecreasePosition(ctx context.Context, msg *types.MsgExecuteDecreasePosition) (*types.MsgExecuteRequestResponse, error) {
	return m.executeOne(ctx, types.QueueDecrease, msg.Sender, msg.Key, msg.FeeReceiver)
}

func (m *MsgServer) executeOne(ctx context.Context, kind types.QueueKind, sender, keyHex, feeReceiverAddr string) (*types.MsgExecuteRequestResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	caller, feeReceiver, key, err := parseKeyedMsg(sender, keyHex, feeReceiverAddr)
	if err != nil {
		return nil, err
	}
	role := m.keeper.CallerRoleFor(sdkCtx, caller)

	var executed bool
	err = m.keeper.nonReentrant(sdkCtx, func() error {
		var err error
		if kind == types.QueueIncrease {
			executed, err = m.keeper.ExecuteIncreasePosition(sdkCtx, key, feeReceiver, role)
		} else {
			executed, err = m.keeper.ExecuteDecreasePosition(sdkCtx, key, feeReceiver, role)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &types.MsgExecuteRequestResponse{Executed: executed}, nil
}

// CancelIncreasePosition handles MsgCancelIncreasePosition
func (m *MsgServer) CancelIncreasePosition(ctx context.Context, msg *types.MsgCancelIncreasePosition) (*types.MsgCancelRequestResponse, error) {
	return m.cancelOne(ctx, types.QueueIncrease, msg.Sender, msg.Key, msg.FeeReceiver)
}

// CancelDecreasePosition handles MsgCancelDecreasePosition
func (m *MsgServer) CancelDecreasePosition(ctx context.Context, msg *types.MsgCancelDecreasePosition) (*types.MsgCancelRequestResponse, error) {
	return m.cancelOne(ctx, types.QueueDecrease, msg.Sender, msg.Key, msg.FeeReceiver)
}

func (m *MsgServer) cancelOne(ctx context.Context, kind types.QueueKind, sender, keyHex, feeReceiverAddr string) (*types.MsgCancelRequestResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	caller, feeReceiver, key, err := parseKeyedMsg(sender, keyHex, feeReceiverAddr)
	if err != nil {
		return nil, err
	}
	role := m.keeper.CallerRoleFor(sdkCtx, caller)

	err = m.keeper.nonReentrant(sdkCtx, func() error {
		if kind == types.QueueIncrease {
			return m.keeper.CancelIncreasePosition(sdkCtx, key, feeReceiver, caller, role)
		}
		return m.keeper.CancelDecreasePosition(sdkCtx, key, feeReceiver, caller, role)
	})
	if err != nil {
		return nil, err
	}
	return &types.MsgCancelRequestResponse{}, nil
}

// ExecuteIncreasePositions handles MsgExecuteIncreasePositions (position keepers only)
func (m *MsgServer) ExecuteIncreasePositions(ctx context.Context, msg *types.MsgExecuteIncreasePositions) (*types.MsgDriveQueueResponse, error) {
	return m.drive(ctx, types.QueueIncrease, msg.Sender, msg.MaxCount, msg.FeeReceiver)
}

// ExecuteDecreasePositions handles MsgExecuteDecreasePositions (position keepers only)
func (m *MsgServer) ExecuteDecreasePositions(ctx context.Context, msg *types.MsgExecuteDecreasePositions) (*types.MsgDriveQueueResponse, error) {
	return m.drive(ctx, types.QueueDecrease, msg.Sender, msg.MaxCount, msg.FeeReceiver)
}

func (m *MsgServer) drive(ctx context.Context, kind types.QueueKind, sender string, maxCount uint64, feeReceiverAddr string) (*types.MsgDriveQueueResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	caller, err := sdk.AccAddressFromBech32(sender)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrapf("sender: %s", err)
	}
	if !m.keeper.IsPositionKeeper(sdkCtx, caller) {
		return nil, types.ErrUnauthorized.Wrapf("%s is not a position keeper", sender)
	}
	feeReceiver, err := feeReceiverOrSender(caller, feeReceiverAddr)
	if err != nil {
		return nil, err
	}

	var result DriveResult
	err = m.keeper.nonReentrant(sdkCtx, func() error {
		var err error
		if kind == types.QueueIncrease {
			result, err = m.keeper.ExecuteIncreasePositions(sdkCtx, maxCount, feeReceiver, types.CallerSelf)
		} else {
			result, err = m.keeper.ExecuteDecreasePositions(sdkCtx, maxCount, feeReceiver, types.CallerSelf)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return &types.MsgDriveQueueResponse{
		Start:     result.Start,
		End:       result.End,
		Executed:  result.Executed,
		Cancelled: result.Cancelled,
		Skipped:   result.Skipped,
	}, nil
}

// UpdateParams handles MsgUpdateParams (authority only)
func (m *MsgServer) UpdateParams(ctx context.Context, msg *types.MsgUpdateParams) (*types.MsgUpdateParamsResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if msg.Authority != m.keeper.GetAuthority() {
		return nil, types.ErrUnauthorized.Wrapf("expected %s, got %s", m.keeper.GetAuthority(), msg.Authority)
	}

	params, err := m.keeper.UpdateParams(sdkCtx, msg.Params)
	if err != nil {
		return nil, err
	}
	return &types.MsgUpdateParamsResponse{Version: params.Version}, nil
}

// SetPositionKeeper handles MsgSetPositionKeeper (authority only)
func (m *MsgServer) SetPositionKeeper(ctx context.Context, msg *types.MsgSetPositionKeeper) (*types.MsgSetPositionKeeperResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if msg.Authority != m.keeper.GetAuthority() {
		return nil, types.ErrUnauthorized.Wrapf("expected %s, got %s", m.keeper.GetAuthority(), msg.Authority)
	}
	addr, err := sdk.AccAddressFromBech32(msg.Address)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrapf("keeper: %s", err)
	}

	if err := m.keeper.SetPositionKeeper(sdkCtx, addr, msg.Active); err != nil {
		return nil, err
	}
	return &types.MsgSetPositionKeeperResponse{}, nil
}

// WithdrawFees handles MsgWithdrawFees (authority only)
func (m *MsgServer) WithdrawFees(ctx context.Context, msg *types.MsgWithdrawFees) (*types.MsgWithdrawFeesResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if msg.Authority != m.keeper.GetAuthority() {
		return nil, types.ErrUnauthorized.Wrapf("expected %s, got %s", m.keeper.GetAuthority(), msg.Authority)
	}
	receiver, err := sdk.AccAddressFromBech32(msg.Receiver)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrapf("receiver: %s", err)
	}
	amount, ok := math.NewIntFromString(msg.Amount)
	if !ok || !amount.IsPositive() {
		return nil, types.ErrInvalidAmount.Wrapf("withdraw amount %q", msg.Amount)
	}

	var remaining math.Int
	err = m.keeper.nonReentrant(sdkCtx, func() error {
		var err error
		remaining, err = m.keeper.WithdrawFees(sdkCtx, msg.Denom, amount, receiver)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &types.MsgWithdrawFeesResponse{Remaining: remaining.String()}, nil
}

func parseKeyedMsg(sender, keyHex, feeReceiverAddr string) (sdk.AccAddress, sdk.AccAddress, []byte, error) {
	caller, err := sdk.AccAddressFromBech32(sender)
	if err != nil {
		return nil, nil, nil, types.ErrInvalidAddress.Wrapf("sender: %s", err)
	}
	feeReceiver, err := feeReceiverOrSender(caller, feeReceiverAddr)
	if err != nil {
		return nil, nil, nil, err
	}
	key, err := types.ParseRequestKey(keyHex)
	if err != nil {
		return nil, nil, nil, types.ErrRequestNotFound.Wrap(err.Error())
	}
	return caller, feeReceiver, key, nil
}

func feeReceiverOrSender(sender sdk.AccAddress, feeReceiver string) (sdk.AccAddress, error) {
	if feeReceiver == "" {
		return sender, nil
	}
	addr, err := sdk.AccAddressFromBech32(feeReceiver)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrapf("fee receiver: %s", err)
	}
	return addr, nil
}

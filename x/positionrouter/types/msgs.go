package types

import (
	"context"

	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/codec"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RegisterInterfaces registers the module's interface types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgCreateIncreasePosition{},
		&MsgCreateIncreasePositionNative{},
		&MsgCreateDecreasePosition{},
		&MsgExecuteIncreasePosition{},
		&MsgExecuteDecreasePosition{},
		&MsgCancelIncreasePosition{},
		&MsgCancelDecreasePosition{},
		&MsgExecuteIncreasePositions{},
		&MsgExecuteDecreasePositions{},
		&MsgUpdateParams{},
		&MsgSetPositionKeeper{},
		&MsgWithdrawFees{},
	)
}

// RegisterLegacyAminoCodec registers the module's concrete types on the amino codec
func RegisterLegacyAminoCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterConcrete(&MsgCreateIncreasePosition{}, "positionrouter/MsgCreateIncreasePosition", nil)
	cdc.RegisterConcrete(&MsgCreateIncreasePositionNative{}, "positionrouter/MsgCreateIncreasePositionNative", nil)
	cdc.RegisterConcrete(&MsgCreateDecreasePosition{}, "positionrouter/MsgCreateDecreasePosition", nil)
	cdc.RegisterConcrete(&MsgExecuteIncreasePosition{}, "positionrouter/MsgExecuteIncreasePosition", nil)
	cdc.RegisterConcrete(&MsgExecuteDecreasePosition{}, "positionrouter/MsgExecuteDecreasePosition", nil)
	cdc.RegisterConcrete(&MsgCancelIncreasePosition{}, "positionrouter/MsgCancelIncreasePosition", nil)
	cdc.RegisterConcrete(&MsgCancelDecreasePosition{}, "positionrouter/MsgCancelDecreasePosition", nil)
	cdc.RegisterConcrete(&MsgExecuteIncreasePositions{}, "positionrouter/MsgExecuteIncreasePositions", nil)
	cdc.RegisterConcrete(&MsgExecuteDecreasePositions{}, "positionrouter/MsgExecuteDecreasePositions", nil)
	cdc.RegisterConcrete(&MsgUpdateParams{}, "positionrouter/MsgUpdateParams", nil)
	cdc.RegisterConcrete(&MsgSetPositionKeeper{}, "positionrouter/MsgSetPositionKeeper", nil)
	cdc.RegisterConcrete(&MsgWithdrawFees{}, "positionrouter/MsgWithdrawFees", nil)
}

// MsgServer defines the positionrouter module's gRPC message service
type MsgServer interface {
	CreateIncreasePosition(context.Context, *MsgCreateIncreasePosition) (*MsgCreateRequestResponse, error)
	CreateIncreasePositionNative(context.Context, *MsgCreateIncreasePositionNative) (*MsgCreateRequestResponse, error)
	CreateDecreasePosition(context.Context, *MsgCreateDecreasePosition) (*MsgCreateRequestResponse, error)
	ExecuteIncreasePosition(context.Context, *MsgExecuteIncreasePosition) (*MsgExecuteRequestResponse, error)
	ExecuteDecreasePosition(context.Context, *MsgExecuteDecreasePosition) (*MsgExecuteRequestResponse, error)
	CancelIncreasePosition(context.Context, *MsgCancelIncreasePosition) (*MsgCancelRequestResponse, error)
	CancelDecreasePosition(context.Context, *MsgCancelDecreasePosition) (*MsgCancelRequestResponse, error)
	ExecuteIncreasePositions(context.Context, *MsgExecuteIncreasePositions) (*MsgDriveQueueResponse, error)
	ExecuteDecreasePositions(context.Context, *MsgExecuteDecreasePositions) (*MsgDriveQueueResponse, error)
	UpdateParams(context.Context, *MsgUpdateParams) (*MsgUpdateParamsResponse, error)
	SetPositionKeeper(context.Context, *MsgSetPositionKeeper) (*MsgSetPositionKeeperResponse, error)
	WithdrawFees(context.Context, *MsgWithdrawFees) (*MsgWithdrawFeesResponse, error)
}

// RegisterMsgServer registers the MsgServer to the configurator's MsgServer
func RegisterMsgServer(s interface{}, srv MsgServer) {
	// TODO: register with the msg service router once the .proto service
	// definitions for these messages are generated.
}

// ============ Create ============

// MsgCreateIncreasePosition queues an increase request paid for with Path[0]
type MsgCreateIncreasePosition struct {
	Sender          string   `json:"sender"`
	Path            []string `json:"path"`
	MarketID        string   `json:"market_id"`
	AmountIn        string   `json:"amount_in"`
	MinOut          string   `json:"min_out"`
	SizeDelta       string   `json:"size_delta"`
	IsLong          bool     `json:"is_long"`
	AcceptablePrice string   `json:"acceptable_price"`
	ExecutionFee    string   `json:"execution_fee"`
	Payment         string   `json:"payment"` // native denom attached for the execution fee
}

func (msg *MsgCreateIncreasePosition) Reset()         { *msg = MsgCreateIncreasePosition{} }
func (msg *MsgCreateIncreasePosition) String() string { return msg.Sender + ":" + msg.MarketID }
func (msg *MsgCreateIncreasePosition) ProtoMessage()  {}

// XXX_MessageName returns the message type URL
func (msg *MsgCreateIncreasePosition) XXX_MessageName() string {
	return "perprouter.positionrouter.v1.MsgCreateIncreasePosition"
}

// ValidateBasic performs stateless validation
func (msg *MsgCreateIncreasePosition) ValidateBasic() error {
	_, _, err := msg.ToRequest()
	return err
}

// GetSigners returns the signer addresses
func (msg *MsgCreateIncreasePosition) GetSigners() []sdk.AccAddress {
	return signers(msg.Sender)
}

// ToRequest converts the message into a request record and the attached payment
func (msg *MsgCreateIncreasePosition) ToRequest() (*IncreasePositionRequest, math.Int, error) {
	p := amountParser{}
	req := &IncreasePositionRequest{
		Account:         msg.Sender,
		Path:            msg.Path,
		MarketID:        msg.MarketID,
		AmountIn:        p.integer("amount_in", msg.AmountIn),
		MinOut:          p.integer("min_out", msg.MinOut),
		SizeDelta:       p.decimal("size_delta", msg.SizeDelta),
		IsLong:          msg.IsLong,
		AcceptablePrice: p.decimal("acceptable_price", msg.AcceptablePrice),
		ExecutionFee:    p.integer("execution_fee", msg.ExecutionFee),
	}
	payment := p.integer("payment", msg.Payment)
	if p.err != nil {
		return nil, math.Int{}, p.err
	}
	if err := req.Validate(); err != nil {
		return nil, math.Int{}, err
	}
	if !payment.Equal(req.ExecutionFee) {
		return nil, math.Int{}, ErrInvalidPayment.Wrapf("payment %s must equal execution fee %s", payment, req.ExecutionFee)
	}
	return req, payment, nil
}

// MsgCreateIncreasePositionNative queues an increase request funded by the
// native denom: Payment covers the execution fee and the remainder is wrapped
// and used as the input amount.
type MsgCreateIncreasePositionNative struct {
	Sender          string   `json:"sender"`
	Path            []string `json:"path"`
	MarketID        string   `json:"market_id"`
	MinOut          string   `json:"min_out"`
	SizeDelta       string   `json:"size_delta"`
	IsLong          bool     `json:"is_long"`
	AcceptablePrice string   `json:"acceptable_price"`
	ExecutionFee    string   `json:"execution_fee"`
	Payment         string   `json:"payment"`
}

func (msg *MsgCreateIncreasePositionNative) Reset()         { *msg = MsgCreateIncreasePositionNative{} }
func (msg *MsgCreateIncreasePositionNative) String() string { return msg.Sender + ":" + msg.MarketID }
func (msg *MsgCreateIncreasePositionNative) ProtoMessage()  {}

// XXX_MessageName returns the message type URL
func (msg *MsgCreateIncreasePositionNative) XXX_MessageName() string {
	return "perprouter.positionrouter.v1.MsgCreateIncreasePositionNative"
}

// ValidateBasic performs stateless validation
func (msg *MsgCreateIncreasePositionNative) ValidateBasic() error {
	_, _, err := msg.ToRequest()
	return err
}

// GetSigners returns the signer addresses
func (msg *MsgCreateIncreasePositionNative) GetSigners() []sdk.AccAddress {
	return signers(msg.Sender)
}

// ToRequest converts the message into a request record and the attached payment
func (msg *MsgCreateIncreasePositionNative) ToRequest() (*IncreasePositionRequest, math.Int, error) {
	p := amountParser{}
	req := &IncreasePositionRequest{
		Account:               msg.Sender,
		Path:                  msg.Path,
		MarketID:              msg.MarketID,
		MinOut:                p.integer("min_out", msg.MinOut),
		SizeDelta:             p.decimal("size_delta", msg.SizeDelta),
		IsLong:                msg.IsLong,
		AcceptablePrice:       p.decimal("acceptable_price", msg.AcceptablePrice),
		ExecutionFee:          p.integer("execution_fee", msg.ExecutionFee),
		HasCollateralInNative: true,
	}
	payment := p.integer("payment", msg.Payment)
	if p.err != nil {
		return nil, math.Int{}, p.err
	}
	if payment.LT(req.ExecutionFee) {
		return nil, math.Int{}, ErrInvalidPayment.Wrapf("payment %s below execution fee %s", payment, req.ExecutionFee)
	}
	req.AmountIn = payment.Sub(req.ExecutionFee)
	if err := req.Validate(); err != nil {
		return nil, math.Int{}, err
	}
	return req, payment, nil
}

// MsgCreateDecreasePosition queues a decrease request
type MsgCreateDecreasePosition struct {
	Sender          string `json:"sender"`
	CollateralDenom string `json:"collateral_denom"`
	MarketID        string `json:"market_id"`
	CollateralDelta string `json:"collateral_delta"`
	SizeDelta       string `json:"size_delta"`
	IsLong          bool   `json:"is_long"`
	Receiver        string `json:"receiver"`
	AcceptablePrice string `json:"acceptable_price"`
	ExecutionFee    string `json:"execution_fee"`
	Payment         string `json:"payment"`
	WithdrawNative  bool   `json:"withdraw_native"`
}

func (msg *MsgCreateDecreasePosition) Reset()         { *msg = MsgCreateDecreasePosition{} }
func (msg *MsgCreateDecreasePosition) String() string { return msg.Sender + ":" + msg.MarketID }
func (msg *MsgCreateDecreasePosition) ProtoMessage()  {}

// XXX_MessageName returns the message type URL
func (msg *MsgCreateDecreasePosition) XXX_MessageName() string {
	return "perprouter.positionrouter.v1.MsgCreateDecreasePosition"
}

// ValidateBasic performs stateless validation
func (msg *MsgCreateDecreasePosition) ValidateBasic() error {
	_, _, err := msg.ToRequest()
	return err
}

// GetSigners returns the signer addresses
func (msg *MsgCreateDecreasePosition) GetSigners() []sdk.AccAddress {
	return signers(msg.Sender)
}

// ToRequest converts the message into a request record and the attached payment
func (msg *MsgCreateDecreasePosition) ToRequest() (*DecreasePositionRequest, math.Int, error) {
	p := amountParser{}
	receiver := msg.Receiver
	if receiver == "" {
		receiver = msg.Sender
	}
	req := &DecreasePositionRequest{
		Account:         msg.Sender,
		CollateralDenom: msg.CollateralDenom,
		MarketID:        msg.MarketID,
		CollateralDelta: p.integer("collateral_delta", msg.CollateralDelta),
		SizeDelta:       p.decimal("size_delta", msg.SizeDelta),
		IsLong:          msg.IsLong,
		Receiver:        receiver,
		AcceptablePrice: p.decimal("acceptable_price", msg.AcceptablePrice),
		ExecutionFee:    p.integer("execution_fee", msg.ExecutionFee),
		WithdrawNative:  msg.WithdrawNative,
	}
	payment := p.integer("payment", msg.Payment)
	if p.err != nil {
		return nil, math.Int{}, p.err
	}
	if err := req.Validate(); err != nil {
		return nil, math.Int{}, err
	}
	if !payment.Equal(req.ExecutionFee) {
		return nil, math.Int{}, ErrInvalidPayment.Wrapf("payment %s must equal execution fee %s", payment, req.ExecutionFee)
	}
	return req, payment, nil
}

// MsgCreateRequestResponse is the response for the create messages
type MsgCreateRequestResponse struct {
	Index uint64 `json:"index"`
	Key   string `json:"key"`
}

func (msg *MsgCreateRequestResponse) Reset()         { *msg = MsgCreateRequestResponse{} }
func (msg *MsgCreateRequestResponse) String() string { return msg.Key }
func (msg *MsgCreateRequestResponse) ProtoMessage()  {}

// ============ Single request execute / cancel ============

// MsgExecuteIncreasePosition executes one queued increase request
type MsgExecuteIncreasePosition struct {
	Sender      string `json:"sender"`
	Key         string `json:"key"`
	FeeReceiver string `json:"fee_receiver"`
}

func (msg *MsgExecuteIncreasePosition) Reset()         { *msg = MsgExecuteIncreasePosition{} }
func (msg *MsgExecuteIncreasePosition) String() string { return msg.Key }
func (msg *MsgExecuteIncreasePosition) ProtoMessage()  {}

// XXX_MessageName returns the message type URL
func (msg *MsgExecuteIncreasePosition) XXX_MessageName() string {
	return "perprouter.positionrouter.v1.MsgExecuteIncreasePosition"
}

// ValidateBasic performs stateless validation
func (msg *MsgExecuteIncreasePosition) ValidateBasic() error {
	return validateKeyedMsg(msg.Sender, msg.Key, msg.FeeReceiver)
}

// GetSigners returns the signer addresses
func (msg *MsgExecuteIncreasePosition) GetSigners() []sdk.AccAddress {
	return signers(msg.Sender)
}

// MsgExecuteDecreasePosition executes one queued decrease request
type MsgExecuteDecreasePosition struct {
	Sender      string `json:"sender"`
	Key         string `json:"key"`
	FeeReceiver string `json:"fee_receiver"`
}

func (msg *MsgExecuteDecreasePosition) Reset()         { *msg = MsgExecuteDecreasePosition{} }
func (msg *MsgExecuteDecreasePosition) String() string { return msg.Key }
func (msg *MsgExecuteDecreasePosition) ProtoMessage()  {}

// XXX_MessageName returns the message type URL
func (msg *MsgExecuteDecreasePosition) XXX_MessageName() string {
	return "perprouter.positionrouter.v1.MsgExecuteDecreasePosition"
}

// ValidateBasic performs stateless validation
func (msg *MsgExecuteDecreasePosition) ValidateBasic() error {
	return validateKeyedMsg(msg.Sender, msg.Key, msg.FeeReceiver)
}

// GetSigners returns the signer addresses
func (msg *MsgExecuteDecreasePosition) GetSigners() []sdk.AccAddress {
	return signers(msg.Sender)
}

// MsgExecuteRequestResponse reports whether the request was executed. A false
// value means the request is not yet eligible and stays queued.
type MsgExecuteRequestResponse struct {
	Executed bool `json:"executed"`
}

func (msg *MsgExecuteRequestResponse) Reset() { *msg = MsgExecuteRequestResponse{} }
func (msg *MsgExecuteRequestResponse) String() string {
	if msg.Executed {
		return "executed"
	}
	return "pending"
}
func (msg *MsgExecuteRequestResponse) ProtoMessage() {}

// MsgCancelIncreasePosition cancels one queued increase request
type MsgCancelIncreasePosition struct {
	Sender      string `json:"sender"`
	Key         string `json:"key"`
	FeeReceiver string `json:"fee_receiver"`
}

func (msg *MsgCancelIncreasePosition) Reset()         { *msg = MsgCancelIncreasePosition{} }
func (msg *MsgCancelIncreasePosition) String() string { return msg.Key }
func (msg *MsgCancelIncreasePosition) ProtoMessage()  {}

// XXX_MessageName returns the message type URL
func (msg *MsgCancelIncreasePosition) XXX_MessageName() string {
	return "perprouter.positionrouter.v1.MsgCancelIncreasePosition"
}

// ValidateBasic performs stateless validation
func (msg *MsgCancelIncreasePosition) ValidateBasic() error {
	return validateKeyedMsg(msg.Sender, msg.Key, msg.FeeReceiver)
}

// GetSigners returns the signer addresses
func (msg *MsgCancelIncreasePosition) GetSigners() []sdk.AccAddress {
	return signers(msg.Sender)
}

// MsgCancelDecreasePosition cancels one queued decrease request
type MsgCancelDecreasePosition struct {
	Sender      string `json:"sender"`
	Key         string `json:"key"`
	FeeReceiver string `json:"fee_receiver"`
}

func (msg *MsgCancelDecreasePosition) Reset()         { *msg = MsgCancelDecreasePosition{} }
func (msg *MsgCancelDecreasePosition) String() string { return msg.Key }
func (msg *MsgCancelDecreasePosition) ProtoMessage()  {}

// XXX_MessageName returns the message type URL
func (msg *MsgCancelDecreasePosition) XXX_MessageName() string {
	return "perprouter.positionrouter.v1.MsgCancelDecreasePosition"
}

// ValidateBasic performs stateless validation
func (msg *MsgCancelDecreasePosition) ValidateBasic() error {
	return validateKeyedMsg(msg.Sender, msg.Key, msg.FeeReceiver)
}

// GetSigners returns the signer addresses
func (msg *MsgCancelDecreasePosition) GetSigners() []sdk.AccAddress {
	return signers(msg.Sender)
}

// MsgCancelRequestResponse is the response for the cancel messages
type MsgCancelRequestResponse struct{}

func (msg *MsgCancelRequestResponse) Reset()         { *msg = MsgCancelRequestResponse{} }
func (msg *MsgCancelRequestResponse) String() string { return "cancelled" }
func (msg *MsgCancelRequestResponse) ProtoMessage()  {}

// ============ Batch drive ============

// MsgExecuteIncreasePositions drives the increase queue (position keepers only)
type MsgExecuteIncreasePositions struct {
	Sender      string `json:"sender"`
	MaxCount    uint64 `json:"max_count"`
	FeeReceiver string `json:"fee_receiver"`
}

func (msg *MsgExecuteIncreasePositions) Reset()         { *msg = MsgExecuteIncreasePositions{} }
func (msg *MsgExecuteIncreasePositions) String() string { return msg.Sender }
func (msg *MsgExecuteIncreasePositions) ProtoMessage()  {}

// XXX_MessageName returns the message type URL
func (msg *MsgExecuteIncreasePositions) XXX_MessageName() string {
	return "perprouter.positionrouter.v1.MsgExecuteIncreasePositions"
}

// ValidateBasic performs stateless validation
func (msg *MsgExecuteIncreasePositions) ValidateBasic() error {
	return validateDriveMsg(msg.Sender, msg.MaxCount, msg.FeeReceiver)
}

// GetSigners returns the signer addresses
func (msg *MsgExecuteIncreasePositions) GetSigners() []sdk.AccAddress {
	return signers(msg.Sender)
}

// MsgExecuteDecreasePositions drives the decrease queue (position keepers only)
type MsgExecuteDecreasePositions struct {
	Sender      string `json:"sender"`
	MaxCount    uint64 `json:"max_count"`
	FeeReceiver string `json:"fee_receiver"`
}

func (msg *MsgExecuteDecreasePositions) Reset()         { *msg = MsgExecuteDecreasePositions{} }
func (msg *MsgExecuteDecreasePositions) String() string { return msg.Sender }
func (msg *MsgExecuteDecreasePositions) ProtoMessage()  {}

// XXX_MessageName returns the message type URL
func (msg *MsgExecuteDecreasePositions) XXX_MessageName() string {
	return "perprouter.positionrouter.v1.MsgExecuteDecreasePositions"
}

// ValidateBasic performs stateless validation
func (msg *MsgExecuteDecreasePositions) ValidateBasic() error {
	return validateDriveMsg(msg.Sender, msg.MaxCount, msg.FeeReceiver)
}

// GetSigners returns the signer addresses
func (msg *MsgExecuteDecreasePositions) GetSigners() []sdk.AccAddress {
	return signers(msg.Sender)
}

// MsgDriveQueueResponse summarises one batch drive
type MsgDriveQueueResponse struct {
	Start     uint64 `json:"start"`
	End       uint64 `json:"end"`
	Executed  uint64 `json:"executed"`
	Cancelled uint64 `json:"cancelled"`
	Skipped   uint64 `json:"skipped"`
}

func (msg *MsgDriveQueueResponse) Reset()         { *msg = MsgDriveQueueResponse{} }
func (msg *MsgDriveQueueResponse) String() string { return "drive" }
func (msg *MsgDriveQueueResponse) ProtoMessage()  {}

// ============ Administration ============

// MsgUpdateParams replaces the router params (authority only)
type MsgUpdateParams struct {
	Authority string `json:"authority"`
	Params    Params `json:"params"`
}

func (msg *MsgUpdateParams) Reset()         { *msg = MsgUpdateParams{} }
func (msg *MsgUpdateParams) String() string { return msg.Params.String() }
func (msg *MsgUpdateParams) ProtoMessage()  {}

// XXX_MessageName returns the message type URL
func (msg *MsgUpdateParams) XXX_MessageName() string {
	return "perprouter.positionrouter.v1.MsgUpdateParams"
}

// ValidateBasic performs stateless validation
func (msg *MsgUpdateParams) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return ErrInvalidAddress.Wrapf("authority: %s", err)
	}
	return msg.Params.Validate()
}

// GetSigners returns the signer addresses
func (msg *MsgUpdateParams) GetSigners() []sdk.AccAddress {
	return signers(msg.Authority)
}

// MsgUpdateParamsResponse carries the new params version
type MsgUpdateParamsResponse struct {
	Version uint64 `json:"version"`
}

func (msg *MsgUpdateParamsResponse) Reset()         { *msg = MsgUpdateParamsResponse{} }
func (msg *MsgUpdateParamsResponse) String() string { return "params updated" }
func (msg *MsgUpdateParamsResponse) ProtoMessage()  {}

// MsgSetPositionKeeper adds or removes a position keeper (authority only)
type MsgSetPositionKeeper struct {
	Authority string `json:"authority"`
	Address   string `json:"address"`
	Active    bool   `json:"active"`
}

func (msg *MsgSetPositionKeeper) Reset()         { *msg = MsgSetPositionKeeper{} }
func (msg *MsgSetPositionKeeper) String() string { return msg.Address }
func (msg *MsgSetPositionKeeper) ProtoMessage()  {}

// XXX_MessageName returns the message type URL
func (msg *MsgSetPositionKeeper) XXX_MessageName() string {
	return "perprouter.positionrouter.v1.MsgSetPositionKeeper"
}

// ValidateBasic performs stateless validation
func (msg *MsgSetPositionKeeper) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return ErrInvalidAddress.Wrapf("authority: %s", err)
	}
	if _, err := sdk.AccAddressFromBech32(msg.Address); err != nil {
		return ErrInvalidAddress.Wrapf("keeper: %s", err)
	}
	return nil
}

// GetSigners returns the signer addresses
func (msg *MsgSetPositionKeeper) GetSigners() []sdk.AccAddress {
	return signers(msg.Authority)
}

// MsgSetPositionKeeperResponse is the response for MsgSetPositionKeeper
type MsgSetPositionKeeperResponse struct{}

func (msg *MsgSetPositionKeeperResponse) Reset()         { *msg = MsgSetPositionKeeperResponse{} }
func (msg *MsgSetPositionKeeperResponse) String() string { return "ok" }
func (msg *MsgSetPositionKeeperResponse) ProtoMessage()  {}

// MsgWithdrawFees sends collected deposit fees to a receiver (authority only)
type MsgWithdrawFees struct {
	Authority string `json:"authority"`
	Denom     string `json:"denom"`
	Amount    string `json:"amount"`
	Receiver  string `json:"receiver"`
}

func (msg *MsgWithdrawFees) Reset()         { *msg = MsgWithdrawFees{} }
func (msg *MsgWithdrawFees) String() string { return msg.Amount + msg.Denom }
func (msg *MsgWithdrawFees) ProtoMessage()  {}

// XXX_MessageName returns the message type URL
func (msg *MsgWithdrawFees) XXX_MessageName() string {
	return "perprouter.positionrouter.v1.MsgWithdrawFees"
}

// ValidateBasic performs stateless validation
func (msg *MsgWithdrawFees) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return ErrInvalidAddress.Wrapf("authority: %s", err)
	}
	if _, err := sdk.AccAddressFromBech32(msg.Receiver); err != nil {
		return ErrInvalidAddress.Wrapf("receiver: %s", err)
	}
	if err := sdk.ValidateDenom(msg.Denom); err != nil {
		return ErrInvalidDenom.Wrap(err.Error())
	}
	p := amountParser{}
	amount := p.integer("amount", msg.Amount)
	if p.err != nil {
		return p.err
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount.Wrap("withdraw amount must be positive")
	}
	return nil
}

// GetSigners returns the signer addresses
func (msg *MsgWithdrawFees) GetSigners() []sdk.AccAddress {
	return signers(msg.Authority)
}

// MsgWithdrawFeesResponse is the response for MsgWithdrawFees
type MsgWithdrawFeesResponse struct {
	Remaining string `json:"remaining"`
}

func (msg *MsgWithdrawFeesResponse) Reset()         { *msg = MsgWithdrawFeesResponse{} }
func (msg *MsgWithdrawFeesResponse) String() string { return msg.Remaining }
func (msg *MsgWithdrawFeesResponse) ProtoMessage()  {}

// ============ Helpers ============

func signers(addr string) []sdk.AccAddress {
	acc, _ := sdk.AccAddressFromBech32(addr)
	return []sdk.AccAddress{acc}
}

func validateKeyedMsg(sender, key, feeReceiver string) error {
	if _, err := sdk.AccAddressFromBech32(sender); err != nil {
		return ErrInvalidAddress.Wrapf("sender: %s", err)
	}
	if feeReceiver != "" {
		if _, err := sdk.AccAddressFromBech32(feeReceiver); err != nil {
			return ErrInvalidAddress.Wrapf("fee receiver: %s", err)
		}
	}
	if _, err := ParseRequestKey(key); err != nil {
		return ErrRequestNotFound.Wrap(err.Error())
	}
	return nil
}

func validateDriveMsg(sender string, maxCount uint64, feeReceiver string) error {
	if _, err := sdk.AccAddressFromBech32(sender); err != nil {
		return ErrInvalidAddress.Wrapf("sender: %s", err)
	}
	if feeReceiver != "" {
		if _, err := sdk.AccAddressFromBech32(feeReceiver); err != nil {
			return ErrInvalidAddress.Wrapf("fee receiver: %s", err)
		}
	}
	if maxCount == 0 {
		return ErrInvalidAmount.Wrap("max count must be positive")
	}
	return nil
}

// amountParser collects the first parse error across several fields
type amountParser struct {
	err error
}

func (p *amountParser) integer(field, s string) math.Int {
	if p.err != nil {
		return math.ZeroInt()
	}
	if s == "" {
		return math.ZeroInt()
	}
	v, ok := math.NewIntFromString(s)
	if !ok {
		p.err = ErrInvalidAmount.Wrapf("%s: %q", field, s)
		return math.ZeroInt()
	}
	return v
}

func (p *amountParser) decimal(field, s string) math.LegacyDec {
	if p.err != nil {
		return math.LegacyZeroDec()
	}
	if s == "" {
		return math.LegacyZeroDec()
	}
	v, err := math.LegacyNewDecFromStr(s)
	if err != nil {
		p.err = ErrInvalidAmount.Wrapf("%s: %s", field, err)
		return math.LegacyZeroDec()
	}
	return v
}

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
		&MsgSetMarket{},
		&MsgSetPrice{},
		&MsgFundPool{},
	)
}

// RegisterLegacyAminoCodec registers the module's concrete types on the amino codec
func RegisterLegacyAminoCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterConcrete(&MsgSetMarket{}, "perpetual/MsgSetMarket", nil)
	cdc.RegisterConcrete(&MsgSetPrice{}, "perpetual/MsgSetPrice", nil)
	cdc.RegisterConcrete(&MsgFundPool{}, "perpetual/MsgFundPool", nil)
}

// MsgServer defines the perpetual module's gRPC message service
type MsgServer interface {
	SetMarket(context.Context, *MsgSetMarket) (*MsgSetMarketResponse, error)
	SetPrice(context.Context, *MsgSetPrice) (*MsgSetPriceResponse, error)
	FundPool(context.Context, *MsgFundPool) (*MsgFundPoolResponse, error)
}

// RegisterMsgServer registers the MsgServer to the configurator's MsgServer
func RegisterMsgServer(s interface{}, srv MsgServer) {
	// This is a placeholder - in production, this would use gRPC registration
	// For now, the messages are handled through the module's handler
}

// MsgSetMarket creates or updates a market (authority only)
type MsgSetMarket struct {
	Authority   string `json:"authority"`
	MarketID    string `json:"market_id"`
	IndexDenom  string `json:"index_denom"`
	MaxLeverage string `json:"max_leverage"`
	Status      int    `json:"status"`
}

func (msg *MsgSetMarket) Reset()         { *msg = MsgSetMarket{} }
func (msg *MsgSetMarket) String() string { return msg.MarketID }
func (msg *MsgSetMarket) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgSetMarket
func (msg *MsgSetMarket) XXX_MessageName() string {
	return "perprouter.perpetual.v1.MsgSetMarket"
}

// ValidateBasic for MsgSetMarket
func (msg *MsgSetMarket) ValidateBasic() error {
	_, err := msg.ToMarket()
	return err
}

// GetSigners returns the signer addresses for MsgSetMarket
func (msg *MsgSetMarket) GetSigners() []sdk.AccAddress {
	authority, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{authority}
}

// ToMarket converts the message into a market record
func (msg *MsgSetMarket) ToMarket() (*Market, error) {
	if msg.Authority == "" {
		return nil, ErrUnauthorized
	}
	leverage, err := math.LegacyNewDecFromStr(msg.MaxLeverage)
	if err != nil {
		return nil, ErrInvalidLeverage.Wrap(err.Error())
	}
	market := NewMarket(msg.MarketID, msg.IndexDenom, leverage)
	market.Status = MarketStatus(msg.Status)
	if err := market.Validate(); err != nil {
		return nil, err
	}
	return market, nil
}

// MsgSetMarketResponse is the response for MsgSetMarket
type MsgSetMarketResponse struct{}

func (msg *MsgSetMarketResponse) Reset()         { *msg = MsgSetMarketResponse{} }
func (msg *MsgSetMarketResponse) String() string { return "ok" }
func (msg *MsgSetMarketResponse) ProtoMessage()  {}

// MsgSetPrice posts an oracle price for a denom (authority only)
type MsgSetPrice struct {
	Authority string `json:"authority"`
	Denom     string `json:"denom"`
	Price     string `json:"price"`
}

func (msg *MsgSetPrice) Reset()         { *msg = MsgSetPrice{} }
func (msg *MsgSetPrice) String() string { return msg.Denom + "@" + msg.Price }
func (msg *MsgSetPrice) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgSetPrice
func (msg *MsgSetPrice) XXX_MessageName() string {
	return "perprouter.perpetual.v1.MsgSetPrice"
}

// ValidateBasic for MsgSetPrice
func (msg *MsgSetPrice) ValidateBasic() error {
	if msg.Authority == "" {
		return ErrUnauthorized
	}
	if err := sdk.ValidateDenom(msg.Denom); err != nil {
		return ErrInvalidDenom.Wrap(err.Error())
	}
	price, err := math.LegacyNewDecFromStr(msg.Price)
	if err != nil || !price.IsPositive() {
		return ErrInvalidPrice.Wrapf("price %q", msg.Price)
	}
	return nil
}

// GetSigners returns the signer addresses for MsgSetPrice
func (msg *MsgSetPrice) GetSigners() []sdk.AccAddress {
	authority, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{authority}
}

// MsgSetPriceResponse is the response for MsgSetPrice
type MsgSetPriceResponse struct{}

func (msg *MsgSetPriceResponse) Reset()         { *msg = MsgSetPriceResponse{} }
func (msg *MsgSetPriceResponse) String() string { return "ok" }
func (msg *MsgSetPriceResponse) ProtoMessage()  {}

// MsgFundPool deposits liquidity into a denom's pool
type MsgFundPool struct {
	Sender string `json:"sender"`
	Amount string `json:"amount"` // coin string, e.g. "1000000uusdc"
}

func (msg *MsgFundPool) Reset()         { *msg = MsgFundPool{} }
func (msg *MsgFundPool) String() string { return msg.Amount }
func (msg *MsgFundPool) ProtoMessage()  {}

// XXX_MessageName returns the message type URL for MsgFundPool
func (msg *MsgFundPool) XXX_MessageName() string {
	return "perprouter.perpetual.v1.MsgFundPool"
}

// ValidateBasic for MsgFundPool
func (msg *MsgFundPool) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Sender); err != nil {
		return ErrUnauthorized.Wrap(err.Error())
	}
	coin, err := sdk.ParseCoinNormalized(msg.Amount)
	if err != nil {
		return ErrInvalidQuantity.Wrap(err.Error())
	}
	if !coin.IsPositive() {
		return ErrInvalidQuantity.Wrap("amount must be positive")
	}
	return nil
}

// GetSigners returns the signer addresses for MsgFundPool
func (msg *MsgFundPool) GetSigners() []sdk.AccAddress {
	sender, _ := sdk.AccAddressFromBech32(msg.Sender)
	return []sdk.AccAddress{sender}
}

// MsgFundPoolResponse is the response for MsgFundPool
type MsgFundPoolResponse struct {
	Reserve string `json:"reserve"`
}

func (msg *MsgFundPoolResponse) Reset()         { *msg = MsgFundPoolResponse{} }
func (msg *MsgFundPoolResponse) String() string { return msg.Reserve }
func (msg *MsgFundPoolResponse) ProtoMessage()  {}

package types

import (
	"errors"
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

var (
	msgSender   = sdk.AccAddress([]byte("alice_______________")).String()
	msgReceiver = sdk.AccAddress([]byte("bob_________________")).String()
)

func validCreateIncrease() *MsgCreateIncreasePosition {
	return &MsgCreateIncreasePosition{
		Sender:          msgSender,
		Path:            []string{"ubtc", "uusdc"},
		MarketID:        "BTC-USDC",
		AmountIn:        "1000",
		MinOut:          "990",
		SizeDelta:       "5000.5",
		IsLong:          true,
		AcceptablePrice: "50100",
		ExecutionFee:    "1000",
		Payment:         "1000",
	}
}

// TestMsgCreateIncreasePositionToRequest tests string amounts are parsed into the request
func TestMsgCreateIncreasePositionToRequest(t *testing.T) {
	req, payment, err := validCreateIncrease().ToRequest()
	if err != nil {
		t.Fatalf("to request: %v", err)
	}
	if !req.AmountIn.Equal(math.NewInt(1000)) || !req.MinOut.Equal(math.NewInt(990)) {
		t.Errorf("unexpected amounts %s/%s", req.AmountIn, req.MinOut)
	}
	if !req.SizeDelta.Equal(math.LegacyMustNewDecFromStr("5000.5")) {
		t.Errorf("unexpected size delta %s", req.SizeDelta)
	}
	if !payment.Equal(req.ExecutionFee) {
		t.Errorf("expected payment to equal fee")
	}
	if req.HasCollateralInNative {
		t.Error("expected non-native request")
	}
}

// TestMsgCreateIncreasePositionValidateBasic tests stateless validation
func TestMsgCreateIncreasePositionValidateBasic(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *MsgCreateIncreasePosition)
		wantErr error
	}{
		{"valid", func(m *MsgCreateIncreasePosition) {}, nil},
		{"bad sender", func(m *MsgCreateIncreasePosition) { m.Sender = "x" }, ErrInvalidAddress},
		{"long path", func(m *MsgCreateIncreasePosition) { m.Path = []string{"a1a", "b1b", "c1c"} }, ErrInvalidPath},
		{"garbage amount", func(m *MsgCreateIncreasePosition) { m.AmountIn = "ten" }, ErrInvalidAmount},
		{"garbage price", func(m *MsgCreateIncreasePosition) { m.AcceptablePrice = "1.2.3" }, ErrInvalidAmount},
		{"payment mismatch", func(m *MsgCreateIncreasePosition) { m.Payment = "999" }, ErrInvalidPayment},
		{"empty market", func(m *MsgCreateIncreasePosition) { m.MarketID = "" }, ErrInvalidMarket},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := validCreateIncrease()
			tc.mutate(msg)
			err := msg.ValidateBasic()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

// TestMsgCreateIncreasePositionNative tests the native variant splits the payment
func TestMsgCreateIncreasePositionNative(t *testing.T) {
	msg := &MsgCreateIncreasePositionNative{
		Sender:          msgSender,
		Path:            []string{DefaultWrappedNativeDenom},
		MarketID:        "BTC-USDC",
		SizeDelta:       "10",
		AcceptablePrice: "50000",
		ExecutionFee:    "1000",
		Payment:         "6000",
	}
	req, _, err := msg.ToRequest()
	if err != nil {
		t.Fatalf("to request: %v", err)
	}
	if !req.AmountIn.Equal(math.NewInt(5000)) || !req.HasCollateralInNative {
		t.Errorf("expected native amount 5000, got %s", req.AmountIn)
	}

	msg.Payment = "999"
	if err := msg.ValidateBasic(); !errors.Is(err, ErrInvalidPayment) {
		t.Errorf("expected ErrInvalidPayment, got %v", err)
	}
}

// TestMsgCreateDecreasePositionDefaults tests the receiver defaults to the sender
func TestMsgCreateDecreasePositionDefaults(t *testing.T) {
	msg := &MsgCreateDecreasePosition{
		Sender:          msgSender,
		CollateralDenom: "uusdc",
		MarketID:        "BTC-USDC",
		CollateralDelta: "100",
		SizeDelta:       "10",
		AcceptablePrice: "49000",
		ExecutionFee:    "1000",
		Payment:         "1000",
	}
	req, _, err := msg.ToRequest()
	if err != nil {
		t.Fatalf("to request: %v", err)
	}
	if req.Receiver != msgSender {
		t.Errorf("expected receiver %s, got %s", msgSender, req.Receiver)
	}
}

// TestKeyedMsgValidateBasic tests execute/cancel/drive message validation
func TestKeyedMsgValidateBasic(t *testing.T) {
	key := FormatRequestKey(RequestKey(sdk.AccAddress([]byte("alice_______________")), 1))

	if err := (&MsgExecuteIncreasePosition{Sender: msgSender, Key: key}).ValidateBasic(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&MsgCancelDecreasePosition{Sender: msgSender, Key: "beef"}).ValidateBasic(); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound, got %v", err)
	}
	if err := (&MsgExecuteDecreasePosition{Sender: msgSender, Key: key, FeeReceiver: "bad"}).ValidateBasic(); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
	if err := (&MsgExecuteIncreasePositions{Sender: msgSender}).ValidateBasic(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for zero max count, got %v", err)
	}
	if err := (&MsgExecuteDecreasePositions{Sender: msgSender, MaxCount: 3, FeeReceiver: msgReceiver}).ValidateBasic(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestAdminMsgValidateBasic tests admin message validation
func TestAdminMsgValidateBasic(t *testing.T) {
	if err := (&MsgUpdateParams{Authority: msgSender, Params: DefaultParams()}).ValidateBasic(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	bad := DefaultParams()
	bad.DepositFeeBps = 20_000
	if err := (&MsgUpdateParams{Authority: msgSender, Params: bad}).ValidateBasic(); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
	if err := (&MsgSetPositionKeeper{Authority: msgSender, Address: "nope"}).ValidateBasic(); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
	if err := (&MsgWithdrawFees{Authority: msgSender, Denom: "uusdc", Amount: "0", Receiver: msgReceiver}).ValidateBasic(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	signers := (&MsgWithdrawFees{Authority: msgSender}).GetSigners()
	if len(signers) != 1 || signers[0].String() != msgSender {
		t.Errorf("unexpected signers %v", signers)
	}
}

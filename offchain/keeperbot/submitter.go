package keeperbot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/tx"
	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"google.golang.org/grpc"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// TxSubmitter submits batch drive transactions to the chain
type TxSubmitter interface {
	// SubmitDrive asks the router to process up to maxCount requests of a queue
	SubmitDrive(ctx context.Context, kind types.QueueKind, maxCount uint64) (string, error)

	// GetStatus returns the submitter status
	GetStatus() SubmitterStatus
}

// SubmitterStatus represents the status of a submitter
type SubmitterStatus struct {
	Connected         bool
	LastSubmitTime    time.Time
	LastTxHash        string
	LastError         string
	TotalSubmissions  int64
	FailedSubmissions int64
}

// Drive is a drive request recorded by MockSubmitter
type Drive struct {
	Kind     types.QueueKind
	MaxCount uint64
}

// MockSubmitter records drives instead of broadcasting them
type MockSubmitter struct {
	mu              sync.Mutex
	drives          []Drive
	status          SubmitterStatus
	simulateFailure bool
}

// NewMockSubmitter creates a new mock submitter
func NewMockSubmitter() *MockSubmitter {
	return &MockSubmitter{
		status: SubmitterStatus{Connected: true},
	}
}

// SubmitDrive records the drive
func (s *MockSubmitter) SubmitDrive(ctx context.Context, kind types.QueueKind, maxCount uint64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.simulateFailure {
		s.status.FailedSubmissions++
		s.status.LastError = "simulated failure"
		return "", fmt.Errorf("simulated failure")
	}

	s.drives = append(s.drives, Drive{Kind: kind, MaxCount: maxCount})
	s.status.TotalSubmissions++
	s.status.LastSubmitTime = time.Now()
	s.status.LastTxHash = fmt.Sprintf("mock-%d", len(s.drives))
	return s.status.LastTxHash, nil
}

// GetStatus returns the mock submitter status
func (s *MockSubmitter) GetStatus() SubmitterStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Drives returns all recorded drives
func (s *MockSubmitter) Drives() []Drive {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Drive, len(s.drives))
	copy(out, s.drives)
	return out
}

// SetSimulateFailure enables or disables failure simulation
func (s *MockSubmitter) SetSimulateFailure(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simulateFailure = fail
}

// GRPCSubmitter signs drive transactions with a keyring entry and broadcasts
// them through the node's tx gRPC service
type GRPCSubmitter struct {
	txClient   txtypes.ServiceClient
	authClient authtypes.QueryClient
	cdc        codec.Codec
	txConfig   client.TxConfig
	keyring    keyring.Keyring
	config     *Config

	signer      sdk.AccAddress
	feeReceiver string

	mu       sync.Mutex
	status   SubmitterStatus
	sequence uint64
	accNum   uint64
	synced   bool
}

// NewGRPCSubmitter creates a submitter signing as cfg.KeyName
func NewGRPCSubmitter(conn *grpc.ClientConn, cdc codec.Codec, txConfig client.TxConfig, kr keyring.Keyring, cfg *Config) (*GRPCSubmitter, error) {
	record, err := kr.Key(cfg.KeyName)
	if err != nil {
		return nil, fmt.Errorf("load key %q: %w", cfg.KeyName, err)
	}
	signer, err := record.GetAddress()
	if err != nil {
		return nil, fmt.Errorf("key address: %w", err)
	}

	feeReceiver := cfg.FeeReceiver
	if feeReceiver == "" {
		feeReceiver = signer.String()
	}

	return &GRPCSubmitter{
		txClient:    txtypes.NewServiceClient(conn),
		authClient:  authtypes.NewQueryClient(conn),
		cdc:         cdc,
		txConfig:    txConfig,
		keyring:     kr,
		config:      cfg,
		signer:      signer,
		feeReceiver: feeReceiver,
		status:      SubmitterStatus{Connected: true},
	}, nil
}

// Signer returns the keeper address the submitter signs as
func (s *GRPCSubmitter) Signer() sdk.AccAddress {
	return s.signer
}

func (s *GRPCSubmitter) syncAccount(ctx context.Context) error {
	res, err := s.authClient.Account(ctx, &authtypes.QueryAccountRequest{Address: s.signer.String()})
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	var acc sdk.AccountI
	if err := s.cdc.UnpackAny(res.Account, &acc); err != nil {
		return fmt.Errorf("failed to unpack account: %w", err)
	}
	s.accNum = acc.GetAccountNumber()
	s.sequence = acc.GetSequence()
	s.synced = true
	return nil
}

func (s *GRPCSubmitter) driveMsg(kind types.QueueKind, maxCount uint64) sdk.Msg {
	if kind == types.QueueIncrease {
		return &types.MsgExecuteIncreasePositions{Sender: s.signer.String(), MaxCount: maxCount, FeeReceiver: s.feeReceiver}
	}
	return &types.MsgExecuteDecreasePositions{Sender: s.signer.String(), MaxCount: maxCount, FeeReceiver: s.feeReceiver}
}

// SubmitDrive signs and broadcasts one batch drive in sync mode
func (s *GRPCSubmitter) SubmitDrive(ctx context.Context, kind types.QueueKind, maxCount uint64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txHash, err := s.submitLocked(ctx, kind, maxCount)
	if err != nil {
		// Resync the sequence on the next attempt
		s.synced = false
		s.status.FailedSubmissions++
		s.status.LastError = err.Error()
		return "", err
	}

	s.sequence++
	s.status.TotalSubmissions++
	s.status.LastSubmitTime = time.Now()
	s.status.LastTxHash = txHash
	return txHash, nil
}

func (s *GRPCSubmitter) submitLocked(ctx context.Context, kind types.QueueKind, maxCount uint64) (string, error) {
	if !s.synced {
		if err := s.syncAccount(ctx); err != nil {
			return "", err
		}
	}

	factory := tx.Factory{}.
		WithChainID(s.config.ChainID).
		WithKeybase(s.keyring).
		WithTxConfig(s.txConfig).
		WithAccountNumber(s.accNum).
		WithSequence(s.sequence).
		WithGas(s.config.GasLimit).
		WithFees(s.config.Fees).
		WithSignMode(signing.SignMode_SIGN_MODE_DIRECT)

	builder, err := factory.BuildUnsignedTx(s.driveMsg(kind, maxCount))
	if err != nil {
		return "", fmt.Errorf("build tx: %w", err)
	}
	if err := tx.Sign(ctx, factory, s.config.KeyName, builder, true); err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}
	txBytes, err := s.txConfig.TxEncoder()(builder.GetTx())
	if err != nil {
		return "", fmt.Errorf("encode tx: %w", err)
	}

	res, err := s.txClient.BroadcastTx(ctx, &txtypes.BroadcastTxRequest{
		TxBytes: txBytes,
		Mode:    txtypes.BroadcastMode_BROADCAST_MODE_SYNC,
	})
	if err != nil {
		return "", fmt.Errorf("broadcast failed: %w", err)
	}
	if res.TxResponse.Code != 0 {
		return res.TxResponse.TxHash, fmt.Errorf("tx failed with code %d: %s", res.TxResponse.Code, res.TxResponse.RawLog)
	}
	return res.TxResponse.TxHash, nil
}

// GetStatus returns the submitter status
func (s *GRPCSubmitter) GetStatus() SubmitterStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

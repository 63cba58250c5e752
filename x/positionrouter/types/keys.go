package types

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"cosmossdk.io/collections"
	"github.com/cometbft/cometbft/crypto/tmhash"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// ModuleName defines the module name
	ModuleName = "positionrouter"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// TStoreKey defines the transient store key used by the reentrancy guard
	TStoreKey = "transient_" + ModuleName

	// RouterKey defines the module's message routing key
	RouterKey = ModuleName

	// BasisPointsDivisor is the denominator for DepositFeeBps
	BasisPointsDivisor = 10000
)

// Store key prefixes
var (
	IncreaseRequestKeyPrefix = []byte{0x01}
	DecreaseRequestKeyPrefix = []byte{0x02}
	IncreaseIndexKeyPrefix   = []byte{0x03}
	DecreaseIndexKeyPrefix   = []byte{0x04}
	IncreaseQueueKeyPrefix   = []byte{0x05}
	DecreaseQueueKeyPrefix   = []byte{0x06}
	QueueStateKeyPrefix      = []byte{0x07}
	ParamsKey                = []byte{0x08}

	PositionKeepersPrefix = collections.NewPrefix(9)
	FeeReservesPrefix     = collections.NewPrefix(10)

	// ReentrancyGuardKey lives in the transient store
	ReentrancyGuardKey = []byte{0x01}
)

// QueueKind selects one of the two request queues
type QueueKind uint8

const (
	QueueIncrease QueueKind = 1
	QueueDecrease QueueKind = 2
)

func (q QueueKind) String() string {
	switch q {
	case QueueIncrease:
		return "increase"
	case QueueDecrease:
		return "decrease"
	default:
		return "unknown"
	}
}

// ParseQueueKind parses "increase" or "decrease"
func ParseQueueKind(s string) (QueueKind, error) {
	switch s {
	case "increase":
		return QueueIncrease, nil
	case "decrease":
		return QueueDecrease, nil
	default:
		return 0, fmt.Errorf("unknown queue kind %q", s)
	}
}

// RequestKeyLength is the byte length of a request key
const RequestKeyLength = tmhash.Size

// RequestKey derives the lookup key of the index-th request created by account.
func RequestKey(account sdk.AccAddress, index uint64) []byte {
	bz := make([]byte, 0, len(account)+8)
	bz = append(bz, account...)
	bz = binary.BigEndian.AppendUint64(bz, index)
	return tmhash.Sum(bz)
}

// FormatRequestKey renders a request key for events, queries and logs
func FormatRequestKey(key []byte) string {
	return hex.EncodeToString(key)
}

// ParseRequestKey parses a hex encoded request key
func ParseRequestKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid request key %q: %w", s, err)
	}
	if len(key) != RequestKeyLength {
		return nil, fmt.Errorf("invalid request key length %d, expected %d", len(key), RequestKeyLength)
	}
	return key, nil
}

// RequestStoreKey returns the store key holding the request record for key
func RequestStoreKey(kind QueueKind, key []byte) []byte {
	return append(requestPrefix(kind), key...)
}

// RequestIndexStoreKey returns the store key of an account's per-kind counter
func RequestIndexStoreKey(kind QueueKind, account sdk.AccAddress) []byte {
	prefix := IncreaseIndexKeyPrefix
	if kind == QueueDecrease {
		prefix = DecreaseIndexKeyPrefix
	}
	return append(append([]byte{}, prefix...), account...)
}

// QueueSlotStoreKey returns the store key of the position-th queue slot
func QueueSlotStoreKey(kind QueueKind, position uint64) []byte {
	return binary.BigEndian.AppendUint64(QueueSlotPrefix(kind), position)
}

// QueueSlotPrefix returns the prefix under which a queue's slots are stored
func QueueSlotPrefix(kind QueueKind) []byte {
	if kind == QueueDecrease {
		return append([]byte{}, DecreaseQueueKeyPrefix...)
	}
	return append([]byte{}, IncreaseQueueKeyPrefix...)
}

// QueueStateStoreKey returns the store key of a queue's cursor/length pair
func QueueStateStoreKey(kind QueueKind) []byte {
	return append(append([]byte{}, QueueStateKeyPrefix...), byte(kind))
}

func requestPrefix(kind QueueKind) []byte {
	if kind == QueueDecrease {
		return append([]byte{}, DecreaseRequestKeyPrefix...)
	}
	return append([]byte{}, IncreaseRequestKeyPrefix...)
}

package app

import (
	"sync"

	coreaddress "cosmossdk.io/core/address"
	"cosmossdk.io/x/tx/signing"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/codec/address"
	"github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/std"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtx "github.com/cosmos/cosmos-sdk/x/auth/tx"
	"github.com/cosmos/gogoproto/proto"
)

// AccountAddressPrefix is the bech32 human readable part of router accounts
const AccountAddressPrefix = "perp"

var prefixOnce sync.Once

// SetAddressPrefixes installs the router bech32 prefixes in the global SDK
// config. It must run before any address is encoded; later calls are no-ops.
func SetAddressPrefixes() {
	prefixOnce.Do(func() {
		cfg := sdk.GetConfig()
		cfg.SetBech32PrefixForAccount(AccountAddressPrefix, AccountAddressPrefix+sdk.PrefixPublic)
		cfg.SetBech32PrefixForValidator(
			AccountAddressPrefix+sdk.PrefixValidator+sdk.PrefixOperator,
			AccountAddressPrefix+sdk.PrefixValidator+sdk.PrefixOperator+sdk.PrefixPublic,
		)
		cfg.SetBech32PrefixForConsensusNode(
			AccountAddressPrefix+sdk.PrefixValidator+sdk.PrefixConsensus,
			AccountAddressPrefix+sdk.PrefixValidator+sdk.PrefixConsensus+sdk.PrefixPublic,
		)
	})
}

// EncodingConfig bundles the codecs shared by the chain, its CLI and the
// keeper bot
type EncodingConfig struct {
	InterfaceRegistry types.InterfaceRegistry
	Codec             codec.Codec
	TxConfig          client.TxConfig
	Amino             *codec.LegacyAmino
}

// accountCodec returns the bech32 codec for account addresses under the
// currently configured prefix
func accountCodec() coreaddress.Codec {
	return address.NewBech32Codec(sdk.GetConfig().GetBech32AccountAddrPrefix())
}

func signingOptions() signing.Options {
	return signing.Options{
		AddressCodec:          accountCodec(),
		ValidatorAddressCodec: address.NewBech32Codec(sdk.GetConfig().GetBech32ValidatorAddrPrefix()),
	}
}

// MakeEncodingConfig builds the proto codec, amino codec and direct-sign tx
// config with every router module registered
func MakeEncodingConfig() EncodingConfig {
	opts := signingOptions()

	registry, err := types.NewInterfaceRegistryWithOptions(types.InterfaceRegistryOptions{
		ProtoFiles:     proto.HybridResolver,
		SigningOptions: opts,
	})
	if err != nil {
		panic(err)
	}
	cdc := codec.NewProtoCodec(registry)

	txConfig, err := authtx.NewTxConfigWithOptions(cdc, authtx.ConfigOptions{
		EnabledSignModes: authtx.DefaultSignModes,
		SigningOptions:   &opts,
	})
	if err != nil {
		panic(err)
	}

	amino := codec.NewLegacyAmino()
	std.RegisterLegacyAminoCodec(amino)
	std.RegisterInterfaces(registry)
	ModuleBasics.RegisterLegacyAminoCodec(amino)
	ModuleBasics.RegisterInterfaces(registry)

	return EncodingConfig{
		InterfaceRegistry: registry,
		Codec:             cdc,
		TxConfig:          txConfig,
		Amino:             amino,
	}
}

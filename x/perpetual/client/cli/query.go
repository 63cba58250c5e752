package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/types/kv"

	"github.com/openalpha/perp-router/x/perpetual/types"
)

// GetQueryCmd returns the cli query commands for the perpetual module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the perpetual module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryMarket(),
		CmdQueryList("markets", "Query all markets", types.MarketKeyPrefix),
		CmdQueryPrice(),
		CmdQueryList("prices", "Query all oracle prices", types.PriceKeyPrefix),
		CmdQueryList("pools", "Query all swap pools", types.PoolKeyPrefix),
		CmdQueryPositions(),
	)

	return cmd
}

// CmdQueryMarket returns the command to query market info
func CmdQueryMarket() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market [market-id]",
		Short: "Query market information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return queryOne(cmd, types.MarketKey(args[0]), "market "+args[0])
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryPrice returns the command to query a denom's oracle price
func CmdQueryPrice() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price [denom]",
		Short: "Query the oracle price of a denom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return queryOne(cmd, types.PriceKey(args[0]), "price "+args[0])
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryPositions returns the command to query a trader's positions
func CmdQueryPositions() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions [address]",
		Short: "Query all positions of a trader",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return queryList(cmd, types.TraderPositionPrefix(args[0]))
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryList returns a command listing every record under prefix
func CmdQueryList(use, short string, prefix []byte) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return queryList(cmd, prefix)
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

func queryOne(cmd *cobra.Command, key []byte, what string) error {
	clientCtx, err := client.GetClientQueryContext(cmd)
	if err != nil {
		return err
	}
	bz, _, err := clientCtx.QueryStore(key, types.StoreKey)
	if err != nil {
		return err
	}
	if len(bz) == 0 {
		return fmt.Errorf("%s not found", what)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(bz))
	return nil
}

func queryList(cmd *cobra.Command, prefix []byte) error {
	clientCtx, err := client.GetClientQueryContext(cmd)
	if err != nil {
		return err
	}
	res, err := clientCtx.QueryABCI(abci.RequestQuery{
		Path: fmt.Sprintf("/store/%s/subspace", types.StoreKey),
		Data: prefix,
	})
	if err != nil {
		return err
	}
	out, err := subspaceValues(res.Value)
	if err != nil {
		return err
	}
	output, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return nil
}

// subspaceValues unpacks a raw subspace query response into its JSON values
func subspaceValues(bz []byte) ([]json.RawMessage, error) {
	var pairs kv.Pairs
	if err := pairs.Unmarshal(bz); err != nil {
		return nil, fmt.Errorf("decode subspace: %w", err)
	}
	out := make([]json.RawMessage, 0, len(pairs.Pairs))
	for _, pair := range pairs.Pairs {
		out = append(out, json.RawMessage(pair.Value))
	}
	return out, nil
}

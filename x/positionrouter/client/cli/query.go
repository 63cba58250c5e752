package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/kv"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// GetQueryCmd returns the cli query commands for the positionrouter module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the positionrouter module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryRequestKey(),
		CmdQueryQueueLengths(),
		CmdQueryRequest(),
		CmdQueryAccountRequests(),
		CmdQueryParams(),
	)

	return cmd
}

// CmdQueryRequestKey returns the command to derive a request key
func CmdQueryRequestKey() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request-key [account] [index]",
		Short: "Derive the key of an account's index-th request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := sdk.AccAddressFromBech32(args[0])
			if err != nil {
				return err
			}
			index, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid index: %v", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), types.FormatRequestKey(types.RequestKey(account, index)))
			return nil
		},
	}

	return cmd
}

// CmdQueryQueueLengths returns the command to query both queue cursors
func CmdQueryQueueLengths() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue-lengths",
		Short: "Query the cursor and length of both request queues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}

			increase, err := queryQueueState(clientCtx, types.QueueIncrease)
			if err != nil {
				return err
			}
			decrease, err := queryQueueState(clientCtx, types.QueueDecrease)
			if err != nil {
				return err
			}

			return printJSON(cmd, types.QueueLengths{
				IncreaseStart:  increase.Start,
				IncreaseLength: increase.Length,
				DecreaseStart:  decrease.Start,
				DecreaseLength: decrease.Length,
			})
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryRequest returns the command to query a pending request by key
func CmdQueryRequest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request [increase|decrease] [key]",
		Short: "Query a pending request by key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}

			kind, err := types.ParseQueueKind(args[0])
			if err != nil {
				return err
			}
			key, err := types.ParseRequestKey(args[1])
			if err != nil {
				return err
			}

			bz, _, err := clientCtx.QueryStore(types.RequestStoreKey(kind, key), types.StoreKey)
			if err != nil {
				return err
			}
			if len(bz) == 0 {
				return types.ErrRequestNotFound.Wrapf("%s request %s", kind, args[1])
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryAccountRequests returns the command to list an account's pending requests
func CmdQueryAccountRequests() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account-requests [account]",
		Short: "List the pending requests created by an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}
			if _, err := sdk.AccAddressFromBech32(args[0]); err != nil {
				return err
			}

			increases, err := querySubspace[types.IncreasePositionRequest](clientCtx, types.IncreaseRequestKeyPrefix)
			if err != nil {
				return err
			}
			decreases, err := querySubspace[types.DecreasePositionRequest](clientCtx, types.DecreaseRequestKeyPrefix)
			if err != nil {
				return err
			}

			out := struct {
				Account          string                          `json:"account"`
				IncreaseRequests []types.IncreasePositionRequest `json:"increase_requests"`
				DecreaseRequests []types.DecreasePositionRequest `json:"decrease_requests"`
			}{Account: args[0]}
			for _, req := range increases {
				if req.Account == args[0] {
					out.IncreaseRequests = append(out.IncreaseRequests, req)
				}
			}
			for _, req := range decreases {
				if req.Account == args[0] {
					out.DecreaseRequests = append(out.DecreaseRequests, req)
				}
			}

			return printJSON(cmd, out)
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryParams returns the command to query the router params
func CmdQueryParams() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Query the router params",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}

			bz, _, err := clientCtx.QueryStore(types.ParamsKey, types.StoreKey)
			if err != nil {
				return err
			}
			params := types.DefaultParams()
			if len(bz) > 0 {
				if err := json.Unmarshal(bz, &params); err != nil {
					return err
				}
			}

			return printJSON(cmd, params)
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

func queryQueueState(clientCtx client.Context, kind types.QueueKind) (types.QueueState, error) {
	var state types.QueueState
	bz, _, err := clientCtx.QueryStore(types.QueueStateStoreKey(kind), types.StoreKey)
	if err != nil || len(bz) == 0 {
		return state, err
	}
	err = json.Unmarshal(bz, &state)
	return state, err
}

// querySubspace reads every value stored under prefix through the store's
// raw subspace query
func querySubspace[T any](clientCtx client.Context, prefix []byte) ([]T, error) {
	res, err := clientCtx.QueryABCI(abci.RequestQuery{
		Path: fmt.Sprintf("/store/%s/subspace", types.StoreKey),
		Data: prefix,
	})
	if err != nil {
		return nil, err
	}
	return decodeSubspace[T](res.Value)
}

func decodeSubspace[T any](bz []byte) ([]T, error) {
	var pairs kv.Pairs
	if err := pairs.Unmarshal(bz); err != nil {
		return nil, fmt.Errorf("decode subspace: %w", err)
	}
	out := make([]T, 0, len(pairs.Pairs))
	for _, pair := range pairs.Pairs {
		var v T
		if err := json.Unmarshal(pair.Value, &v); err != nil {
			return nil, fmt.Errorf("decode %x: %w", pair.Key, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return nil
}

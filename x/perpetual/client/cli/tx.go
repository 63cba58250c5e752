package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/openalpha/perp-router/x/perpetual/types"
)

// GetTxCmd returns the transaction commands for the perpetual module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Perpetual module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdSetMarket(),
		CmdSetPrice(),
		CmdFundPool(),
	)

	return cmd
}

// CmdSetMarket returns the command to create or update a market
func CmdSetMarket() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-market [market-id] [index-denom] [max-leverage] [status]",
		Short: "Create or update a market (status: 0 inactive, 1 active, 2 reduce-only)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			status, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("invalid status: %v", err)
			}

			msg := &types.MsgSetMarket{
				Authority:   clientCtx.GetFromAddress().String(),
				MarketID:    args[0],
				IndexDenom:  args[1],
				MaxLeverage: args[2],
				Status:      status,
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetPrice returns the command to post an oracle price
func CmdSetPrice() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-price [denom] [price]",
		Short: "Post the oracle price of a denom",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgSetPrice{
				Authority: clientCtx.GetFromAddress().String(),
				Denom:     args[0],
				Price:     args[1],
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdFundPool returns the command to add pool liquidity
func CmdFundPool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund-pool [amount]",
		Short: "Deposit liquidity into a denom's pool, e.g. 1000000uusdc",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgFundPool{
				Sender: clientCtx.GetFromAddress().String(),
				Amount: args[0],
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

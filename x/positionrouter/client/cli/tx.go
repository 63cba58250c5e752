package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

const (
	FlagShort          = "short"
	FlagMinOut         = "min-out"
	FlagReceiver       = "receiver"
	FlagWithdrawNative = "withdraw-native"
	FlagFeeReceiver    = "fee-receiver"
)

// GetTxCmd returns the transaction commands for the positionrouter module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Position router transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdCreateIncreasePosition(),
		CmdCreateIncreasePositionNative(),
		CmdCreateDecreasePosition(),
		CmdExecuteRequest(),
		CmdCancelRequest(),
		CmdExecuteQueue(),
		CmdSetPositionKeeper(),
		CmdWithdrawFees(),
	)

	return cmd
}

// CmdCreateIncreasePosition returns the command to queue an increase request
func CmdCreateIncreasePosition() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "increase [path] [market-id] [amount-in] [size-delta] [acceptable-price] [execution-fee]",
		Short: "Queue an increase position request (path is comma separated, e.g. uusdc or uatom,uusdc)",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			short, _ := cmd.Flags().GetBool(FlagShort)
			minOut, _ := cmd.Flags().GetString(FlagMinOut)

			msg := &types.MsgCreateIncreasePosition{
				Sender:          clientCtx.GetFromAddress().String(),
				Path:            strings.Split(args[0], ","),
				MarketID:        args[1],
				AmountIn:        args[2],
				MinOut:          minOut,
				SizeDelta:       args[3],
				IsLong:          !short,
				AcceptablePrice: args[4],
				ExecutionFee:    args[5],
				Payment:         args[5],
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().Bool(FlagShort, false, "Open a short position")
	cmd.Flags().String(FlagMinOut, "0", "Minimum swap output for a two-hop path")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdCreateIncreasePositionNative returns the command to queue an increase
// request funded with the native denom
func CmdCreateIncreasePositionNative() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "increase-native [path] [market-id] [payment] [size-delta] [acceptable-price] [execution-fee]",
		Short: "Queue an increase position request funded with the native denom",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			short, _ := cmd.Flags().GetBool(FlagShort)
			minOut, _ := cmd.Flags().GetString(FlagMinOut)

			msg := &types.MsgCreateIncreasePositionNative{
				Sender:          clientCtx.GetFromAddress().String(),
				Path:            strings.Split(args[0], ","),
				MarketID:        args[1],
				Payment:         args[2],
				MinOut:          minOut,
				SizeDelta:       args[3],
				IsLong:          !short,
				AcceptablePrice: args[4],
				ExecutionFee:    args[5],
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().Bool(FlagShort, false, "Open a short position")
	cmd.Flags().String(FlagMinOut, "0", "Minimum swap output for a two-hop path")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdCreateDecreasePosition returns the command to queue a decrease request
func CmdCreateDecreasePosition() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrease [collateral-denom] [market-id] [collateral-delta] [size-delta] [acceptable-price] [execution-fee]",
		Short: "Queue a decrease position request",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			short, _ := cmd.Flags().GetBool(FlagShort)
			receiver, _ := cmd.Flags().GetString(FlagReceiver)
			withdrawNative, _ := cmd.Flags().GetBool(FlagWithdrawNative)

			msg := &types.MsgCreateDecreasePosition{
				Sender:          clientCtx.GetFromAddress().String(),
				CollateralDenom: args[0],
				MarketID:        args[1],
				CollateralDelta: args[2],
				SizeDelta:       args[3],
				IsLong:          !short,
				Receiver:        receiver,
				AcceptablePrice: args[4],
				ExecutionFee:    args[5],
				Payment:         args[5],
				WithdrawNative:  withdrawNative,
			}
			if err := msg.ValidateBasic(); err != nil {
				return err
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().Bool(FlagShort, false, "Decrease a short position")
	cmd.Flags().String(FlagReceiver, "", "Address receiving the payout (defaults to sender)")
	cmd.Flags().Bool(FlagWithdrawNative, false, "Unwrap a wrapped native payout")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdExecuteRequest returns the command to execute a single queued request
func CmdExecuteRequest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute [increase|decrease] [key]",
		Short: "Execute one queued request by key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			kind, err := types.ParseQueueKind(args[0])
			if err != nil {
				return err
			}
			feeReceiver, _ := cmd.Flags().GetString(FlagFeeReceiver)
			sender := clientCtx.GetFromAddress().String()

			var msg sdk.Msg
			if kind == types.QueueIncrease {
				msg = &types.MsgExecuteIncreasePosition{Sender: sender, Key: args[1], FeeReceiver: feeReceiver}
			} else {
				msg = &types.MsgExecuteDecreasePosition{Sender: sender, Key: args[1], FeeReceiver: feeReceiver}
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().String(FlagFeeReceiver, "", "Address receiving the execution fee (defaults to sender)")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdCancelRequest returns the command to cancel a single queued request
func CmdCancelRequest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel [increase|decrease] [key]",
		Short: "Cancel one queued request by key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			kind, err := types.ParseQueueKind(args[0])
			if err != nil {
				return err
			}
			feeReceiver, _ := cmd.Flags().GetString(FlagFeeReceiver)
			sender := clientCtx.GetFromAddress().String()

			var msg sdk.Msg
			if kind == types.QueueIncrease {
				msg = &types.MsgCancelIncreasePosition{Sender: sender, Key: args[1], FeeReceiver: feeReceiver}
			} else {
				msg = &types.MsgCancelDecreasePosition{Sender: sender, Key: args[1], FeeReceiver: feeReceiver}
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().String(FlagFeeReceiver, "", "Address receiving the execution fee (defaults to sender)")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdExecuteQueue returns the command to drive a queue as a position keeper
func CmdExecuteQueue() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute-queue [increase|decrease] [max-count]",
		Short: "Process up to max-count requests from the head of a queue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			kind, err := types.ParseQueueKind(args[0])
			if err != nil {
				return err
			}
			maxCount, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid max count: %v", err)
			}
			feeReceiver, _ := cmd.Flags().GetString(FlagFeeReceiver)
			sender := clientCtx.GetFromAddress().String()

			var msg sdk.Msg
			if kind == types.QueueIncrease {
				msg = &types.MsgExecuteIncreasePositions{Sender: sender, MaxCount: maxCount, FeeReceiver: feeReceiver}
			} else {
				msg = &types.MsgExecuteDecreasePositions{Sender: sender, MaxCount: maxCount, FeeReceiver: feeReceiver}
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().String(FlagFeeReceiver, "", "Address receiving the execution fees (defaults to sender)")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetPositionKeeper returns the command to add or remove a position keeper
func CmdSetPositionKeeper() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-keeper [address] [true|false]",
		Short: "Add or remove a position keeper (authority only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			active, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid active flag: %v", err)
			}

			msg := &types.MsgSetPositionKeeper{
				Authority: clientCtx.GetFromAddress().String(),
				Address:   args[0],
				Active:    active,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdWithdrawFees returns the command to withdraw collected deposit fees
func CmdWithdrawFees() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw-fees [denom] [amount] [receiver]",
		Short: "Withdraw collected deposit fees (authority only)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgWithdrawFees{
				Authority: clientCtx.GetFromAddress().String(),
				Denom:     args[0],
				Amount:    args[1],
				Receiver:  args[2],
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

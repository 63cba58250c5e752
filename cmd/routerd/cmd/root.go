package cmd

import (
	"io"
	"os"
	"time"

	"cosmossdk.io/log"
	confixcmd "cosmossdk.io/tools/confix/cmd"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/config"
	"github.com/cosmos/cosmos-sdk/client/debug"
	"github.com/cosmos/cosmos-sdk/client/keys"
	"github.com/cosmos/cosmos-sdk/client/pruning"
	"github.com/cosmos/cosmos-sdk/client/snapshot"
	"github.com/cosmos/cosmos-sdk/server"
	serverconfig "github.com/cosmos/cosmos-sdk/server/config"
	servertypes "github.com/cosmos/cosmos-sdk/server/types"
	"github.com/cosmos/cosmos-sdk/types/module"
	authcli "github.com/cosmos/cosmos-sdk/x/auth/client/cli"
	"github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/cosmos/cosmos-sdk/x/crisis"
	genutilcli "github.com/cosmos/cosmos-sdk/x/genutil/client/cli"
	"github.com/spf13/cobra"

	tmcfg "github.com/cometbft/cometbft/config"

	"github.com/openalpha/perp-router/app"
	perpetualcli "github.com/openalpha/perp-router/x/perpetual/client/cli"
	routercli "github.com/openalpha/perp-router/x/positionrouter/client/cli"
	routertypes "github.com/openalpha/perp-router/x/positionrouter/types"
)

// NewRootCmd creates the routerd root command
func NewRootCmd() *cobra.Command {
	initSDKConfig()
	encodingConfig := app.MakeEncodingConfig()

	clientCtx := client.Context{}.
		WithCodec(encodingConfig.Codec).
		WithInterfaceRegistry(encodingConfig.InterfaceRegistry).
		WithTxConfig(encodingConfig.TxConfig).
		WithLegacyAmino(encodingConfig.Amino).
		WithInput(os.Stdin).
		WithAccountRetriever(types.AccountRetriever{}).
		WithHomeDir(app.DefaultNodeHome).
		WithViper("ROUTERD")

	rootCmd := &cobra.Command{
		Use:   "routerd",
		Short: "Perp Router - deferred position request chain",
		Long: `Perp Router queues leveraged position requests and executes them
after a delay against the on-chain position ledger.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())

			ctx, err := client.ReadPersistentCommandFlags(clientCtx.WithCmdContext(cmd.Context()), cmd.Flags())
			if err != nil {
				return err
			}
			if ctx, err = config.ReadFromClientConfig(ctx); err != nil {
				return err
			}
			if err := client.SetCmdClientContextHandler(ctx, cmd); err != nil {
				return err
			}

			appTemplate, appConfig := initAppConfig()
			return server.InterceptConfigsPreRunHandler(cmd, appTemplate, appConfig, initCometBFTConfig())
		},
	}

	initRootCmd(rootCmd, encodingConfig, app.ModuleBasics)
	return rootCmd
}

func initRootCmd(rootCmd *cobra.Command, encodingConfig app.EncodingConfig, basicManager module.BasicManager) {
	rootCmd.AddCommand(
		genutilcli.InitCmd(basicManager, app.DefaultNodeHome),
		genutilcli.Commands(encodingConfig.TxConfig, basicManager, app.DefaultNodeHome),
		debug.Cmd(),
		confixcmd.ConfigCommand(),
		pruning.Cmd(newApp, app.DefaultNodeHome),
		snapshot.Cmd(newApp),
	)

	server.AddCommands(rootCmd, app.DefaultNodeHome, newApp, appExport, addModuleInitFlags)

	rootCmd.AddCommand(
		queryCommand(),
		txCommand(),
		keys.Commands(),
		VersionCmd(),
	)
}

// queryCommand groups tx lookups with the ledger and router store queries
func queryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "query",
		Aliases:                    []string{"q"},
		Short:                      "Querying subcommands",
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}
	cmd.AddCommand(
		authcli.QueryTxsByEventsCmd(),
		authcli.QueryTxCmd(),
		perpetualcli.GetQueryCmd(),
		routercli.GetQueryCmd(),
	)
	return cmd
}

// txCommand groups offline signing with the ledger and router messages
func txCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "tx",
		Short:                      "Transactions subcommands",
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}
	cmd.AddCommand(
		authcli.GetSignCommand(),
		authcli.GetBroadcastCommand(),
		perpetualcli.GetTxCmd(),
		routercli.GetTxCmd(),
	)
	return cmd
}

// addModuleInitFlags registers the crisis invariant-check flag accepted by
// the SDK start command
func addModuleInitFlags(startCmd *cobra.Command) {
	crisis.AddModuleInitFlags(startCmd)
}

func newApp(logger log.Logger, db dbm.DB, traceStore io.Writer, appOpts servertypes.AppOptions) servertypes.Application {
	return app.NewApp(logger, db, traceStore, true, appOpts, server.DefaultBaseappOptions(appOpts)...)
}

// appExport exports the genesis modules' state at height, or at the latest
// height when height is -1
func appExport(
	logger log.Logger,
	db dbm.DB,
	traceStore io.Writer,
	height int64,
	forZeroHeight bool,
	jailAllowedAddrs []string,
	appOpts servertypes.AppOptions,
	modulesToExport []string,
) (servertypes.ExportedApp, error) {
	routerApp := app.NewApp(logger, db, traceStore, height == -1, appOpts)
	if height != -1 {
		if err := routerApp.LoadHeight(height); err != nil {
			return servertypes.ExportedApp{}, err
		}
	}
	return routerApp.ExportAppStateAndValidators(forZeroHeight, jailAllowedAddrs, modulesToExport)
}

// initSDKConfig installs the router bech32 prefixes
func initSDKConfig() {
	app.SetAddressPrefixes()
}

// targetBlockTime is the block cadence the consensus timeouts aim for. The
// router's keeper delay is counted in blocks, so it bounds execution latency.
const targetBlockTime = 500 * time.Millisecond

// initAppConfig returns the app config with a zero minimum gas price in the
// native denom so keeper drives are accepted on fresh nodes
func initAppConfig() (string, interface{}) {
	srvCfg := serverconfig.DefaultConfig()
	srvCfg.MinGasPrices = "0" + routertypes.DefaultNativeDenom
	srvCfg.API.Enable = true
	srvCfg.GRPC.Enable = true

	return serverconfig.DefaultConfigTemplate, *srvCfg
}

// initCometBFTConfig tunes consensus for short block times and sizes the
// mempool for bursts of queued requests
func initCometBFTConfig() *tmcfg.Config {
	cfg := tmcfg.DefaultConfig()

	step := targetBlockTime / 5
	cfg.Consensus.TimeoutPropose = targetBlockTime
	cfg.Consensus.TimeoutProposeDelta = step
	cfg.Consensus.TimeoutPrevote = targetBlockTime
	cfg.Consensus.TimeoutPrevoteDelta = step
	cfg.Consensus.TimeoutPrecommit = targetBlockTime
	cfg.Consensus.TimeoutPrecommitDelta = step
	cfg.Consensus.TimeoutCommit = targetBlockTime

	cfg.Mempool.Size = 10000
	cfg.Mempool.MaxTxBytes = 1 << 20
	cfg.Mempool.MaxTxsBytes = 1 << 27
	cfg.Mempool.Recheck = true

	cfg.P2P.FlushThrottleTimeout = 10 * time.Millisecond
	cfg.P2P.SendRate = 20 << 20
	cfg.P2P.RecvRate = 20 << 20

	// The indexer subscribes to Tx and NewBlockEvents over websocket
	cfg.RPC.MaxSubscriptionsPerClient = 10

	return cfg
}

// Version is the routerd release, set with -ldflags at build time
var Version = "v0.1.0"

// VersionCmd returns a command to print the version
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s %s\n", app.Name, Version)
		},
	}
}

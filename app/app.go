package app

import (
	"io"
	"os"
	"path/filepath"

	"cosmossdk.io/core/appmodule"
	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/baseapp"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/grpc/cmtservice"
	nodeservice "github.com/cosmos/cosmos-sdk/client/grpc/node"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/runtime"
	"github.com/cosmos/cosmos-sdk/server/api"
	"github.com/cosmos/cosmos-sdk/server/config"
	servertypes "github.com/cosmos/cosmos-sdk/server/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/module"
	"github.com/cosmos/cosmos-sdk/x/auth"
	authkeeper "github.com/cosmos/cosmos-sdk/x/auth/keeper"
	authtx "github.com/cosmos/cosmos-sdk/x/auth/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/cosmos/cosmos-sdk/x/bank"
	bankkeeper "github.com/cosmos/cosmos-sdk/x/bank/keeper"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"github.com/cosmos/cosmos-sdk/x/consensus"
	consensusparamkeeper "github.com/cosmos/cosmos-sdk/x/consensus/keeper"
	consensusparamtypes "github.com/cosmos/cosmos-sdk/x/consensus/types"
	"github.com/cosmos/cosmos-sdk/x/genutil"
	genutiltypes "github.com/cosmos/cosmos-sdk/x/genutil/types"
	"github.com/cosmos/cosmos-sdk/x/staking"
	gogoprotograpc "github.com/cosmos/gogoproto/grpc"

	"github.com/openalpha/perp-router/x/perpetual"
	perpetualkeeper "github.com/openalpha/perp-router/x/perpetual/keeper"
	perpetualtypes "github.com/openalpha/perp-router/x/perpetual/types"
	"github.com/openalpha/perp-router/x/positionrouter"
	routerkeeper "github.com/openalpha/perp-router/x/positionrouter/keeper"
	routertypes "github.com/openalpha/perp-router/x/positionrouter/types"
)

const (
	Name = "perprouter"
)

var (
	// DefaultNodeHome is the default home of routerd, the keeper bot keyring
	// and the indexer
	DefaultNodeHome string

	// ModuleBasics registers codecs and genesis defaults. Staking is present
	// only so gentx based genesis files validate.
	ModuleBasics = module.NewBasicManager(
		auth.AppModuleBasic{},
		bank.AppModuleBasic{},
		staking.AppModuleBasic{},
		genutil.NewAppModuleBasic(genutiltypes.DefaultMessageValidator),
		consensus.AppModuleBasic{},
		perpetual.AppModuleBasic{},
		positionrouter.AppModuleBasic{},
	)

	// moduleAccountPerms lists module accounts and their bank permissions.
	// The router and the ledger mint and burn when wrapping the native denom.
	moduleAccountPerms = map[string][]string{
		authtypes.FeeCollectorName: nil,
		perpetualtypes.ModuleName:  {authtypes.Minter, authtypes.Burner},
		routertypes.ModuleName:     {authtypes.Minter, authtypes.Burner},
	}
)

func init() {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	DefaultNodeHome = filepath.Join(userHomeDir, ".perprouter")
}

// App is the routerd ABCI application: auth, bank and consensus params from
// the SDK plus the position ledger and the position router
type App struct {
	*baseapp.BaseApp

	legacyAmino       *codec.LegacyAmino
	appCodec          codec.Codec
	interfaceRegistry codectypes.InterfaceRegistry
	txConfig          client.TxConfig

	keys  map[string]*storetypes.KVStoreKey
	tkeys map[string]*storetypes.TransientStoreKey

	ConsensusParamsKeeper consensusparamkeeper.Keeper
	AccountKeeper         authkeeper.AccountKeeper
	BankKeeper            bankkeeper.BaseKeeper
	PerpetualKeeper       *perpetualkeeper.Keeper
	PositionRouterKeeper  *routerkeeper.Keeper

	// genesisModules are imported in this order by InitChainer and exported
	// by ExportAppStateAndValidators
	genesisModules []module.HasGenesis

	BasicModuleManager module.BasicManager
}

// NewApp returns a new App instance
func NewApp(
	logger log.Logger,
	db dbm.DB,
	traceStore io.Writer,
	loadLatest bool,
	appOpts servertypes.AppOptions,
	baseAppOptions ...func(*baseapp.BaseApp),
) *App {
	encodingConfig := MakeEncodingConfig()

	bApp := baseapp.NewBaseApp(Name, logger, db, encodingConfig.TxConfig.TxDecoder(), baseAppOptions...)
	bApp.SetCommitMultiStoreTracer(traceStore)
	bApp.SetInterfaceRegistry(encodingConfig.InterfaceRegistry)

	app := &App{
		BaseApp:           bApp,
		legacyAmino:       encodingConfig.Amino,
		appCodec:          encodingConfig.Codec,
		interfaceRegistry: encodingConfig.InterfaceRegistry,
		txConfig:          encodingConfig.TxConfig,
		keys: storetypes.NewKVStoreKeys(
			authtypes.StoreKey,
			banktypes.StoreKey,
			consensusparamtypes.StoreKey,
			perpetualtypes.StoreKey,
			routertypes.StoreKey,
		),
		tkeys:              storetypes.NewTransientStoreKeys(routertypes.TStoreKey),
		BasicModuleManager: ModuleBasics,
	}

	// The gov module address is the authority of every keeper; there is no
	// gov module, so params change only through a chain upgrade or genesis.
	app.initKeepers(authtypes.NewModuleAddress("gov").String(), logger)
	app.registerServices()

	app.genesisModules = []module.HasGenesis{
		auth.NewAppModule(app.appCodec, app.AccountKeeper, nil, nil),
		bank.NewAppModule(app.appCodec, app.BankKeeper, app.AccountKeeper, nil),
		perpetual.NewAppModule(app.PerpetualKeeper),
		positionrouter.NewAppModule(app.PositionRouterKeeper),
	}

	app.MountKVStores(app.keys)
	app.MountTransientStores(app.tkeys)

	app.SetInitChainer(app.InitChainer)
	app.SetBeginBlocker(app.BeginBlocker)
	app.SetEndBlocker(app.EndBlocker)

	if loadLatest {
		if err := app.LoadLatestVersion(); err != nil {
			panic(err)
		}
	}

	return app
}

func (app *App) initKeepers(authority string, logger log.Logger) {
	app.ConsensusParamsKeeper = consensusparamkeeper.NewKeeper(
		app.appCodec,
		runtime.NewKVStoreService(app.keys[consensusparamtypes.StoreKey]),
		authority,
		runtime.EventService{},
	)
	app.SetParamStore(app.ConsensusParamsKeeper.ParamsStore)

	app.AccountKeeper = authkeeper.NewAccountKeeper(
		app.appCodec,
		runtime.NewKVStoreService(app.keys[authtypes.StoreKey]),
		authtypes.ProtoBaseAccount,
		moduleAccountPerms,
		accountCodec(),
		sdk.GetConfig().GetBech32AccountAddrPrefix(),
		authority,
	)

	app.BankKeeper = bankkeeper.NewBaseKeeper(
		app.appCodec,
		runtime.NewKVStoreService(app.keys[banktypes.StoreKey]),
		app.AccountKeeper,
		BlockedModuleAccountAddrs(moduleAccountPerms),
		authority,
		logger,
	)

	app.PerpetualKeeper = perpetualkeeper.NewKeeper(
		app.appCodec,
		app.keys[perpetualtypes.StoreKey],
		app.BankKeeper,
		authority,
		logger,
	)

	// The router sees the ledger only through its collaborator interfaces;
	// funds move through the bank adapter in keeper_adapters.go.
	app.PositionRouterKeeper = routerkeeper.NewKeeper(
		app.appCodec,
		app.keys[routertypes.StoreKey],
		app.tkeys[routertypes.TStoreKey],
		app.PerpetualKeeper,
		newBankAssetTransfer(app.BankKeeper),
		authority,
		logger,
	)
}

func (app *App) registerServices() {
	msgRouter := app.MsgServiceRouter()
	perpetualtypes.RegisterMsgServer(msgRouter, perpetualkeeper.NewMsgServerImpl(app.PerpetualKeeper))
	routertypes.RegisterMsgServer(msgRouter, routerkeeper.NewMsgServerImpl(app.PositionRouterKeeper))

	// The keeper bot resolves its account number and sequence over gRPC
	queryRouter := app.GRPCQueryRouter()
	authtypes.RegisterQueryServer(queryRouter, authkeeper.NewQueryServer(app.AccountKeeper))
	banktypes.RegisterQueryServer(queryRouter, bankkeeper.NewQuerier(&app.BankKeeper))
}

// LoadHeight loads a particular height
func (app *App) LoadHeight(height int64) error {
	return app.LoadVersion(height)
}

// LegacyAmino returns the legacy amino codec
func (app *App) LegacyAmino() *codec.LegacyAmino {
	return app.legacyAmino
}

// AppCodec returns the app codec
func (app *App) AppCodec() codec.Codec {
	return app.appCodec
}

// InterfaceRegistry returns the InterfaceRegistry
func (app *App) InterfaceRegistry() codectypes.InterfaceRegistry {
	return app.interfaceRegistry
}

// TxConfig returns the transaction config
func (app *App) TxConfig() client.TxConfig {
	return app.txConfig
}

// GetKey returns a store key
func (app *App) GetKey(storeKey string) *storetypes.KVStoreKey {
	return app.keys[storeKey]
}

// GetTKey returns a transient store key
func (app *App) GetTKey(storeKey string) *storetypes.TransientStoreKey {
	return app.tkeys[storeKey]
}

// RegisterAPIRoutes registers the gateway routes of every module basic
func (app *App) RegisterAPIRoutes(apiSvr *api.Server, apiConfig config.APIConfig) {
	ModuleBasics.RegisterGRPCGatewayRoutes(apiSvr.ClientCtx, apiSvr.GRPCGatewayRouter)
}

// AutoCliOpts returns no autocli modules; CLI commands are hand written
func (app *App) AutoCliOpts() map[string]appmodule.AppModule {
	return map[string]appmodule.AppModule{}
}

// RegisterTxService implements servertypes.Application
func (app *App) RegisterTxService(clientCtx client.Context) {
	authtx.RegisterTxService(app.GRPCQueryRouter(), clientCtx, app.Simulate, app.interfaceRegistry)
}

// RegisterTendermintService serves the ABCI query endpoint the keeper bot
// reads queue state through
func (app *App) RegisterTendermintService(clientCtx client.Context) {
	cmtservice.RegisterTendermintService(clientCtx, app.GRPCQueryRouter(), app.interfaceRegistry, app.Query)
}

// RegisterNodeService implements servertypes.Application
func (app *App) RegisterNodeService(clientCtx client.Context, cfg config.Config) {
	nodeservice.RegisterNodeService(clientCtx, app.GRPCQueryRouter(), cfg)
}

// RegisterGRPCServer is a no-op: services are registered on the routers in
// registerServices
func (app *App) RegisterGRPCServer(server gogoprotograpc.Server) {}

// SimulationManager returns nil; the app has no simulation support
func (app *App) SimulationManager() *module.SimulationManager {
	return nil
}

// BlockedModuleAccountAddrs returns module accounts that may not receive coins
// by plain sends. The ledger and the router custody user funds and stay open.
func BlockedModuleAccountAddrs(perms map[string][]string) map[string]bool {
	open := map[string]bool{
		authtypes.NewModuleAddress(perpetualtypes.ModuleName).String(): true,
		authtypes.NewModuleAddress(routertypes.ModuleName).String():    true,
	}
	blocked := make(map[string]bool)
	for acc := range perms {
		addr := authtypes.NewModuleAddress(acc).String()
		if !open[addr] {
			blocked[addr] = true
		}
	}
	return blocked
}

package app

import (
	"encoding/json"
	"fmt"

	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	servertypes "github.com/cosmos/cosmos-sdk/server/types"
	"github.com/cosmos/cosmos-sdk/types/module"
)

// ExportAppStateAndValidators exports the state of every module with genesis
// state. Validators are not exported since the app runs without staking.
func (app *App) ExportAppStateAndValidators(forZeroHeight bool, jailAllowedAddrs, modulesToExport []string) (servertypes.ExportedApp, error) {
	ctx := app.NewContextLegacy(true, cmtproto.Header{Height: app.LastBlockHeight()})

	height := app.LastBlockHeight() + 1
	if forZeroHeight {
		height = 0
	}

	wanted := make(map[string]bool, len(modulesToExport))
	for _, name := range modulesToExport {
		wanted[name] = true
	}

	genesisState := make(map[string]json.RawMessage, len(app.genesisModules))
	for _, m := range app.genesisModules {
		name := m.(module.HasName).Name()
		if len(wanted) > 0 && !wanted[name] {
			continue
		}
		genesisState[name] = m.ExportGenesis(ctx, app.appCodec)
	}

	appState, err := json.MarshalIndent(genesisState, "", "  ")
	if err != nil {
		return servertypes.ExportedApp{}, fmt.Errorf("marshal app state: %w", err)
	}

	return servertypes.ExportedApp{
		AppState:        appState,
		Height:          height,
		ConsensusParams: app.BaseApp.GetConsensusParams(ctx),
	}, nil
}

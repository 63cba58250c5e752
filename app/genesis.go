package app

import (
	"encoding/base64"
	"encoding/json"

	abci "github.com/cometbft/cometbft/abci/types"
	cmtcrypto "github.com/cometbft/cometbft/proto/tendermint/crypto"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/module"
)

// genesisValidatorPower is the voting power given to every validator found in
// genesis. Without staking all validators weigh the same.
const genesisValidatorPower = 100

const msgCreateValidatorType = "/cosmos.staking.v1beta1.MsgCreateValidator"

// genesisPubKey is the JSON shape of an ed25519 consensus key in genesis files
type genesisPubKey struct {
	Type string `json:"@type"`
	Key  string `json:"key"`
}

type stakingGenesis struct {
	Validators []struct {
		ConsensusPubkey genesisPubKey `json:"consensus_pubkey"`
		Status          string        `json:"status"`
	} `json:"validators"`
}

type genutilGenesis struct {
	GenTxs []struct {
		Body struct {
			Messages []struct {
				Type   string        `json:"@type"`
				Pubkey genesisPubKey `json:"pubkey"`
			} `json:"messages"`
		} `json:"body"`
	} `json:"gen_txs"`
}

// InitChainer imports every genesis module, falling back to its default state
// when the app state omits it, and returns the initial validator set
func (app *App) InitChainer(ctx sdk.Context, req *abci.RequestInitChain) (*abci.ResponseInitChain, error) {
	var appState map[string]json.RawMessage
	if err := json.Unmarshal(req.AppStateBytes, &appState); err != nil {
		return nil, err
	}

	for _, m := range app.genesisModules {
		name := m.(module.HasName).Name()
		raw, ok := appState[name]
		if !ok {
			raw = m.DefaultGenesis(app.appCodec)
		}
		m.InitGenesis(ctx, app.appCodec, raw)
	}

	if len(req.Validators) > 0 {
		return &abci.ResponseInitChain{Validators: req.Validators}, nil
	}
	return &abci.ResponseInitChain{Validators: genesisValidators(appState)}, nil
}

// genesisValidators reads bonded validators from staking genesis and, when
// there are none, from the create-validator messages of genesis transactions.
// Malformed entries are skipped.
func genesisValidators(appState map[string]json.RawMessage) []abci.ValidatorUpdate {
	var updates []abci.ValidatorUpdate

	var staking stakingGenesis
	if raw, ok := appState["staking"]; ok && json.Unmarshal(raw, &staking) == nil {
		for _, val := range staking.Validators {
			if val.Status != "BOND_STATUS_BONDED" {
				continue
			}
			if u, ok := validatorUpdate(val.ConsensusPubkey); ok {
				updates = append(updates, u)
			}
		}
	}
	if len(updates) > 0 {
		return updates
	}

	var genutil genutilGenesis
	if raw, ok := appState["genutil"]; ok && json.Unmarshal(raw, &genutil) == nil {
		for _, tx := range genutil.GenTxs {
			for _, msg := range tx.Body.Messages {
				if msg.Type != msgCreateValidatorType {
					continue
				}
				if u, ok := validatorUpdate(msg.Pubkey); ok {
					updates = append(updates, u)
				}
			}
		}
	}
	return updates
}

func validatorUpdate(pk genesisPubKey) (abci.ValidatorUpdate, bool) {
	key, err := base64.StdEncoding.DecodeString(pk.Key)
	if err != nil || len(key) == 0 {
		return abci.ValidatorUpdate{}, false
	}
	return abci.ValidatorUpdate{
		PubKey: cmtcrypto.PublicKey{Sum: &cmtcrypto.PublicKey_Ed25519{Ed25519: key}},
		Power:  genesisValidatorPower,
	}, true
}

package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/perp-router/x/positionrouter/types"
)

// nonReentrant runs fn with the router's mutating surface locked. The flag
// lives in the transient store so it never reaches committed state.
func (k *Keeper) nonReentrant(ctx sdk.Context, fn func() error) error {
	tstore := ctx.TransientStore(k.tstoreKey)
	if tstore.Has(types.ReentrancyGuardKey) {
		return types.ErrReentrancy
	}
	tstore.Set(types.ReentrancyGuardKey, []byte{1})
	defer tstore.Delete(types.ReentrancyGuardKey)

	return fn()
}

package positionrouter

import (
	"testing"

	"cosmossdk.io/core/appmodule"
)

// The auto-drive runs only from the app EndBlocker
func TestAppModuleHasNoEndBlockHook(t *testing.T) {
	var m interface{} = AppModule{}
	if _, ok := m.(appmodule.HasEndBlocker); ok {
		t.Error("AppModule must not expose an EndBlock hook")
	}
}

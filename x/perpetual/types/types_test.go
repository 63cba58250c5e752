package types

import (
	"errors"
	"testing"

	"cosmossdk.io/math"
)

// TestNewMarket tests market creation with default values
func TestNewMarket(t *testing.T) {
	market := NewMarket("BTC-USDC", "ubtc", math.LegacyNewDec(50))

	if market.MarketID != "BTC-USDC" {
		t.Errorf("expected market ID BTC-USDC, got %s", market.MarketID)
	}
	if market.IndexDenom != "ubtc" {
		t.Errorf("expected index denom ubtc, got %s", market.IndexDenom)
	}
	if !market.MaxLeverage.Equal(math.LegacyNewDec(50)) {
		t.Errorf("expected max leverage 50, got %s", market.MaxLeverage)
	}
	if !market.MaxPositionSize.IsZero() {
		t.Errorf("expected unbounded position size, got %s", market.MaxPositionSize)
	}
	if market.Status != MarketStatusActive {
		t.Errorf("expected active status, got %s", market.Status)
	}
	if err := market.Validate(); err != nil {
		t.Errorf("expected valid market, got %v", err)
	}
}

func TestMarketValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Market)
		wantErr error
	}{
		{"empty id", func(m *Market) { m.MarketID = "" }, ErrInvalidMarketID},
		{"empty index denom", func(m *Market) { m.IndexDenom = "" }, ErrInvalidDenom},
		{"zero leverage", func(m *Market) { m.MaxLeverage = math.LegacyZeroDec() }, ErrInvalidLeverage},
		{"negative max size", func(m *Market) { m.MaxPositionSize = math.LegacyNewDec(-1) }, ErrPositionSizeTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMarket("BTC-USDC", "ubtc", math.LegacyNewDec(50))
			tc.mutate(m)
			if err := m.Validate(); !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestMarketStatus(t *testing.T) {
	tests := []struct {
		status      MarketStatus
		name        string
		canIncrease bool
		canDecrease bool
	}{
		{MarketStatusInactive, "inactive", false, false},
		{MarketStatusActive, "active", true, true},
		{MarketStatusReduceOnly, "reduce_only", false, true},
	}

	for _, tc := range tests {
		if tc.status.String() != tc.name {
			t.Errorf("expected %s, got %s", tc.name, tc.status)
		}
		if tc.status.CanIncrease() != tc.canIncrease {
			t.Errorf("%s: CanIncrease = %v", tc.name, tc.status.CanIncrease())
		}
		if tc.status.CanDecrease() != tc.canDecrease {
			t.Errorf("%s: CanDecrease = %v", tc.name, tc.status.CanDecrease())
		}
	}
}

func TestPositionPnL(t *testing.T) {
	tests := []struct {
		name   string
		isLong bool
		mark   int64
		want   int64
	}{
		{"long profit", true, 55000, 500},
		{"long loss", true, 45000, -500},
		{"short profit", false, 45000, 500},
		{"short loss", false, 55000, -500},
		{"flat", true, 50000, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPosition("trader", "BTC-USDC", "uusdc", tc.isLong)
			p.AddSize(math.LegacyNewDec(5000), math.LegacyNewDec(50000))
			got := p.CalculatePnL(math.LegacyNewDec(tc.mark))
			if !got.Equal(math.LegacyNewDec(tc.want)) {
				t.Errorf("expected pnl %d, got %s", tc.want, got)
			}
		})
	}
}

func TestPositionLeverage(t *testing.T) {
	p := NewPosition("trader", "BTC-USDC", "uusdc", true)
	if !p.CalculateLeverage(math.LegacyOneDec()).IsZero() {
		t.Error("expected zero leverage without collateral")
	}

	p.Collateral = math.NewInt(1000)
	p.AddSize(math.LegacyNewDec(5000), math.LegacyNewDec(50000))
	if got := p.CalculateLeverage(math.LegacyOneDec()); !got.Equal(math.LegacyNewDec(5)) {
		t.Errorf("expected leverage 5, got %s", got)
	}
	if got := p.CalculateLeverage(math.LegacyNewDec(2)); !got.Equal(math.LegacyNewDecWithPrec(25, 1)) {
		t.Errorf("expected leverage 2.5, got %s", got)
	}
}

func TestPositionAddSizeAveragesEntry(t *testing.T) {
	p := NewPosition("trader", "BTC-USDC", "uusdc", true)
	p.AddSize(math.LegacyNewDec(4000), math.LegacyNewDec(40000))
	p.AddSize(math.LegacyZeroDec(), math.LegacyNewDec(99999))
	if !p.EntryPrice.Equal(math.LegacyNewDec(40000)) {
		t.Fatalf("zero add changed entry to %s", p.EntryPrice)
	}

	// 0.1 units at 40000 plus 0.1 units at 60000
	p.AddSize(math.LegacyNewDec(6000), math.LegacyNewDec(60000))
	if !p.Size.Equal(math.LegacyNewDec(10000)) {
		t.Errorf("expected size 10000, got %s", p.Size)
	}
	if !p.EntryPrice.Equal(math.LegacyNewDec(50000)) {
		t.Errorf("expected entry 50000, got %s", p.EntryPrice)
	}
}

func TestIsPriceAcceptable(t *testing.T) {
	mark := math.LegacyNewDec(100)
	tests := []struct {
		name       string
		isLong     bool
		isIncrease bool
		acceptable int64
		want       bool
	}{
		{"increase long under bound", true, true, 101, true},
		{"increase long over bound", true, true, 99, false},
		{"decrease long over floor", true, false, 99, true},
		{"decrease long under floor", true, false, 101, false},
		{"increase short over floor", false, true, 99, true},
		{"increase short under floor", false, true, 101, false},
		{"decrease short under bound", false, false, 101, true},
		{"decrease short over bound", false, false, 99, false},
		{"equal is acceptable", true, true, 100, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := IsPriceAcceptable(tc.isLong, tc.isIncrease, mark, math.LegacyNewDec(tc.acceptable))
			if got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestPositionKeyPrefix(t *testing.T) {
	long := PositionKey("trader", "BTC-USDC", "uusdc", true)
	short := PositionKey("trader", "BTC-USDC", "uusdc", false)
	if string(long) == string(short) {
		t.Fatal("long and short keys collide")
	}
	prefix := TraderPositionPrefix("trader")
	for _, key := range [][]byte{long, short} {
		if len(key) < len(prefix) || string(key[:len(prefix)]) != string(prefix) {
			t.Errorf("key %q does not start with trader prefix", key)
		}
	}
	if other := PositionKey("trader2", "BTC-USDC", "uusdc", true); string(other[:len(prefix)]) == string(prefix) {
		t.Error("trader prefix matches another trader")
	}
}

func TestDefaultGenesisValidate(t *testing.T) {
	if err := DefaultGenesis().Validate(); err != nil {
		t.Fatalf("default genesis invalid: %v", err)
	}

	gs := DefaultGenesis()
	gs.Markets = append(gs.Markets, gs.Markets[0])
	if err := gs.Validate(); err == nil {
		t.Error("expected duplicate market error")
	}

	gs = DefaultGenesis()
	gs.Prices[0].Price = math.LegacyZeroDec()
	if err := gs.Validate(); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}

	gs = DefaultGenesis()
	pos := NewPosition("trader", "ETH-USDC", "uusdc", true)
	gs.Positions = append(gs.Positions, *pos)
	if err := gs.Validate(); !errors.Is(err, ErrMarketNotFound) {
		t.Errorf("expected ErrMarketNotFound, got %v", err)
	}
}

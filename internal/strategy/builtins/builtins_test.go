package builtins

import (
	"math"
	"testing"
	"time"

	"makemytrade/internal/domain"
)

func barsFromCloses(closes []float64, spread float64) []domain.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Symbol:    "BTCUSD",
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c + spread,
			Low:       c - spread,
			Close:     c,
			Volume:    1,
		}
	}
	return bars
}

func TestSMACross_BuysOnCrossoverAndGatesLosingExit(t *testing.T) {
	// Short SMA(2) overtakes long SMA(3) at the third bar, then drops back
	// below while the position is under water.
	bars := barsFromCloses([]float64{10, 11, 12, 9, 8}, 0)
	s := NewSMACross(2, 3)

	res, err := s.Backtest(bars, 10000)
	if err != nil {
		t.Fatalf("Backtest: %v", err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("trade count = %d, want 1 (entry only, exit gated)", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Type != domain.TradeBuy {
		t.Errorf("trade type = %q, want %q", tr.Type, domain.TradeBuy)
	}
	if tr.Price != 12 {
		t.Errorf("entry price = %v, want 12", tr.Price)
	}
	if len(res.Equity) != len(bars) {
		t.Errorf("equity length = %d, want %d", len(res.Equity), len(bars))
	}
}

func TestSMATrend_ProfitableRoundTrip(t *testing.T) {
	// Low crosses the SMA at the third bar, price runs up, then pulls back
	// under the SMA with the position comfortably past the 20% gate.
	bars := barsFromCloses([]float64{10, 10, 20, 40, 60, 30}, 1)
	s := NewSMATrend(3)

	res, err := s.Backtest(bars, 10000)
	if err != nil {
		t.Fatalf("Backtest: %v", err)
	}
	if len(res.Trades) != 2 {
		t.Fatalf("trade count = %d, want 2", len(res.Trades))
	}
	if res.Trades[0].Type != domain.TradeBuy || res.Trades[0].Price != 20 {
		t.Errorf("entry = %+v, want buy at 20", res.Trades[0])
	}
	if res.Trades[1].Type != domain.TradeSell || res.Trades[1].Price != 30 {
		t.Errorf("exit = %+v, want sell at 30", res.Trades[1])
	}
	// 400 units bought at 20 with 80% of 10k, sold at 30.
	if math.Abs(res.FinalCapital-14000) > 1e-9 {
		t.Errorf("final capital = %v, want 14000", res.FinalCapital)
	}
}

func TestFilteredDonchian_BreakoutEntry(t *testing.T) {
	// Flat tape long enough to fill the shifted entry channel, then a
	// single wide breakout bar.
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100
	}
	bars := barsFromCloses(closes, 0)
	breakout := bars[24]
	breakout.High = 120
	breakout.Close = 120
	bars[24] = breakout

	s := NewFilteredDonchian()
	res, err := s.Backtest(bars, 100000)
	if err != nil {
		t.Fatalf("Backtest: %v", err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("trade count = %d, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Type != domain.TradeEntry || tr.Side != domain.SideLong {
		t.Fatalf("trade = %+v, want long entry", tr)
	}
	if tr.Price != 120 {
		t.Errorf("entry price = %v, want 120", tr.Price)
	}
	// Risk sizing would take 175 units; the 10% notional cap clamps it.
	wantSize := 0.10 * 100000 / 120
	if math.Abs(tr.Size-wantSize) > 1e-9 {
		t.Errorf("size = %v, want %v", tr.Size, wantSize)
	}
}

func TestFilteredDonchian_ShiftedChannelQuietBeforeWarmup(t *testing.T) {
	// Too few bars for the shifted entry channel: no breakout can fire.
	closes := []float64{100, 105, 110, 115, 120}
	s := NewFilteredDonchian()

	res, err := s.Backtest(barsFromCloses(closes, 2), 100000)
	if err != nil {
		t.Fatalf("Backtest: %v", err)
	}
	if len(res.Trades) != 0 {
		t.Errorf("trade count = %d, want 0 before channel warm-up", len(res.Trades))
	}
}

func TestEMACross_EntersWithStop(t *testing.T) {
	closes := []float64{100, 105, 110, 115, 120, 125}
	s := NewEMACross(2, 5)

	res, err := s.Backtest(barsFromCloses(closes, 2), 10000)
	if err != nil {
		t.Fatalf("Backtest: %v", err)
	}
	if len(res.Trades) == 0 {
		t.Fatal("expected at least one entry on a rising tape")
	}
	tr := res.Trades[0]
	if tr.Type != domain.TradeEntry || tr.Side != domain.SideLong {
		t.Errorf("first trade = %+v, want long entry", tr)
	}
}

func TestMACDTrend_FlatTapeIsQuiet(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	s := NewMACDTrend()

	res, err := s.Backtest(barsFromCloses(closes, 0), 10000)
	if err != nil {
		t.Fatalf("Backtest: %v", err)
	}
	if len(res.Trades) != 0 {
		t.Errorf("trade count = %d, want 0 on a flat tape", len(res.Trades))
	}
}

func TestBuiltinNames(t *testing.T) {
	for name, got := range map[string]string{
		"sma-cross":         NewSMACross(5, 20).Name(),
		"sma-trend":         NewSMATrend(200).Name(),
		"filtered-donchian": NewFilteredDonchian().Name(),
		"ema-cross":         NewEMACross(8, 21).Name(),
		"macd-trend":        NewMACDTrend().Name(),
	} {
		if got != name {
			t.Errorf("Name() = %q, want %q", got, name)
		}
	}
}

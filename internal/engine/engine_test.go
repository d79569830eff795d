package engine

import (
	"math"
	"testing"
	"time"

	"makemytrade/internal/domain"
	"makemytrade/internal/signal"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// flatBars builds n bars at the given close with a small intrabar range.
func flatBars(n int, price float64) []domain.Bar {
	bars := make([]domain.Bar, n)
	for i := range bars {
		bars[i] = domain.Bar{
			Timestamp: day(i),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    1000,
		}
	}
	return bars
}

func emptyFrame(n int) signal.Frame {
	return signal.Frame{Buy: make([]bool, n), Sell: make([]bool, n), ATR: make([]float64, n)}
}

func atrRiskParams() RiskParams {
	return RiskParams{
		Sizing:          SizingATRRisk,
		Accounting:      AccountingTrack,
		SellMode:        SellOpensShort,
		StopATRMult:     2,
		RiskPerTrade:    0.01,
		MaxNotionalFrac: 0.10,
		MinNotional:     10,
	}
}

func TestSimulateEquityLengthMatchesBars(t *testing.T) {
	for _, n := range []int{0, 1, 5, 37} {
		bars := flatBars(n, 100)
		res, err := Simulate(bars, emptyFrame(n), atrRiskParams(), 10_000)
		if err != nil {
			t.Fatalf("Simulate(%d bars) error: %v", n, err)
		}
		if len(res.Equity) != n {
			t.Errorf("equity trajectory has %d points for %d bars", len(res.Equity), n)
		}
	}
}

func TestSimulateRejectsMisalignedFrame(t *testing.T) {
	bars := flatBars(5, 100)
	_, err := Simulate(bars, emptyFrame(4), atrRiskParams(), 10_000)
	if err == nil {
		t.Fatal("Simulate accepted a frame shorter than the bar sequence")
	}
}

func TestEnterSizingScenario(t *testing.T) {
	// Initial capital 10,000, risk 1%, 2x ATR stop, ATR 5:
	// stop distance 10, dollar risk 100, size 10 units.
	params := atrRiskParams()
	params.MaxNotionalFrac = 1 // no clamp in this case
	book := NewBook(params, 10_000)

	bar := domain.Bar{Timestamp: day(0), High: 101, Low: 99, Close: 100}
	if !book.Enter(bar, domain.SideLong, 5) {
		t.Fatal("entry was rejected")
	}

	trades := book.Trades()
	if len(trades) != 1 {
		t.Fatalf("ledger has %d trades, want 1", len(trades))
	}
	if got := trades[0].Size; math.Abs(got-10) > 1e-9 {
		t.Errorf("size = %v, want 10", got)
	}
	p := book.open(domain.SideLong)
	if p == nil {
		t.Fatal("no open long after entry")
	}
	if p.StopPrice != 90 {
		t.Errorf("stop price = %v, want 90", p.StopPrice)
	}
}

func TestEnterClampsToMaxNotional(t *testing.T) {
	// Unclamped notional would be 10 * 100 = 1000; the 5% cap allows 500,
	// so the recorded size must be the clamped 5 units.
	params := atrRiskParams()
	params.MaxNotionalFrac = 0.05
	book := NewBook(params, 10_000)

	bar := domain.Bar{Timestamp: day(0), High: 101, Low: 99, Close: 100}
	if !book.Enter(bar, domain.SideLong, 5) {
		t.Fatal("entry was rejected")
	}
	if got := book.Trades()[0].Size; math.Abs(got-5) > 1e-9 {
		t.Errorf("clamped size = %v, want 5", got)
	}
}

func TestEnterSkipsWithoutATR(t *testing.T) {
	book := NewBook(atrRiskParams(), 10_000)
	bar := domain.Bar{Timestamp: day(0), High: 101, Low: 99, Close: 100}

	if book.Enter(bar, domain.SideLong, 0) {
		t.Error("entry accepted with zero ATR")
	}
	if book.Enter(bar, domain.SideLong, math.NaN()) {
		t.Error("entry accepted with undefined ATR")
	}
}

func TestEnterSkipsBelowMinNotional(t *testing.T) {
	params := atrRiskParams()
	params.MinNotional = 1e9
	book := NewBook(params, 10_000)
	bar := domain.Bar{Timestamp: day(0), High: 101, Low: 99, Close: 100}
	if book.Enter(bar, domain.SideLong, 5) {
		t.Error("entry accepted below the minimum notional")
	}
}

func TestCapacityOnePositionPerSide(t *testing.T) {
	book := NewBook(atrRiskParams(), 10_000)
	bar := domain.Bar{Timestamp: day(0), High: 101, Low: 99, Close: 100}

	if !book.Enter(bar, domain.SideLong, 5) {
		t.Fatal("first long rejected")
	}
	if book.Enter(bar, domain.SideLong, 5) {
		t.Error("second concurrent long accepted")
	}
	if !book.Enter(bar, domain.SideShort, 5) {
		t.Error("short rejected while only a long is open")
	}
	if book.OpenCount(domain.SideLong) != 1 || book.OpenCount(domain.SideShort) != 1 {
		t.Errorf("open counts long=%d short=%d, want 1/1",
			book.OpenCount(domain.SideLong), book.OpenCount(domain.SideShort))
	}
}

func TestStopEvaluatedBeforeEntry(t *testing.T) {
	// Bar 1 both breaches the open long's stop and carries a buy signal:
	// the stop close must be recorded first, then the new entry.
	params := atrRiskParams()
	bars := []domain.Bar{
		{Timestamp: day(0), Open: 100, High: 101, Low: 99, Close: 100},
		{Timestamp: day(1), Open: 100, High: 101, Low: 85, Close: 100},
	}
	frame := signal.Frame{
		Buy:  []bool{true, true},
		Sell: []bool{false, false},
		ATR:  []float64{5, 5},
	}

	res, err := Simulate(bars, frame, params, 10_000)
	if err != nil {
		t.Fatalf("Simulate error: %v", err)
	}

	// Ledger: entry(bar0), exit(bar1, stop 90), entry(bar1).
	if len(res.Trades) != 3 {
		t.Fatalf("ledger has %d trades, want 3: %+v", len(res.Trades), res.Trades)
	}
	if res.Trades[1].Type != domain.TradeExit {
		t.Errorf("second ledger record is %s, want the stop exit", res.Trades[1].Type)
	}
	if res.Trades[1].Price != 90 {
		t.Errorf("stop exit filled at %v, want the stop price 90", res.Trades[1].Price)
	}
	if res.Trades[2].Type != domain.TradeEntry {
		t.Errorf("third ledger record is %s, want the re-entry", res.Trades[2].Type)
	}
}

func TestShortStopTriggersOnHigh(t *testing.T) {
	params := atrRiskParams()
	book := NewBook(params, 10_000)
	entryBar := domain.Bar{Timestamp: day(0), High: 101, Low: 99, Close: 100}
	if !book.Enter(entryBar, domain.SideShort, 5) {
		t.Fatal("short entry rejected")
	}
	// Stop sits at 110; a high of 112 breaches it.
	book.MarkStops(domain.Bar{Timestamp: day(1), High: 112, Low: 100, Close: 111})

	if book.OpenCount(domain.SideShort) != 0 {
		t.Fatal("short still open after stop breach")
	}
	exit := book.Trades()[len(book.Trades())-1]
	if exit.Price != 110 {
		t.Errorf("short stop filled at %v, want 110", exit.Price)
	}
	if exit.Profit >= 0 {
		t.Errorf("stopped short recorded profit %v, want a loss", exit.Profit)
	}
}

func TestProfitGateBlocksUnprofitableExit(t *testing.T) {
	params := RiskParams{
		Sizing:     SizingBalanceFrac,
		Accounting: AccountingDebit,
		SellMode:   SellClosesLong,
		InvestFrac: 0.8,
		ProfitGate: true,
	}
	book := NewBook(params, 10_000)
	book.Enter(domain.Bar{Timestamp: day(0), Close: 100, High: 101, Low: 99}, domain.SideLong, math.NaN())

	if book.ExitLong(domain.Bar{Timestamp: day(1), Close: 95, High: 96, Low: 94}) {
		t.Error("profit-gated exit honored at a loss")
	}
	if !book.ExitLong(domain.Bar{Timestamp: day(2), Close: 120, High: 121, Low: 119}) {
		t.Error("profitable exit rejected")
	}
}

func TestDebitAccountingMovesCashOnEntry(t *testing.T) {
	params := RiskParams{
		Sizing:     SizingBalanceFrac,
		Accounting: AccountingDebit,
		SellMode:   SellClosesLong,
		InvestFrac: 0.5,
	}
	book := NewBook(params, 10_000)
	bar := domain.Bar{Timestamp: day(0), Close: 100, High: 101, Low: 99}
	book.Enter(bar, domain.SideLong, math.NaN())

	if book.Cash() != 5_000 {
		t.Errorf("cash after debit entry = %v, want 5000", book.Cash())
	}
	// Equity is unchanged at the entry price.
	if eq := book.Equity(100); math.Abs(eq-10_000) > 1e-9 {
		t.Errorf("equity after debit entry = %v, want 10000", eq)
	}

	book.ExitLong(domain.Bar{Timestamp: day(1), Close: 120, High: 121, Low: 119})
	if got := book.Cash(); math.Abs(got-11_000) > 1e-9 {
		t.Errorf("cash after profitable exit = %v, want 11000", got)
	}
}

func TestTrackAccountingLeavesCashOnEntry(t *testing.T) {
	book := NewBook(atrRiskParams(), 10_000)
	bar := domain.Bar{Timestamp: day(0), Close: 100, High: 101, Low: 99}
	book.Enter(bar, domain.SideLong, 5)

	if book.Cash() != 10_000 {
		t.Errorf("cash after track entry = %v, want 10000", book.Cash())
	}
	// Unrealized P&L shows up in equity, not cash.
	if eq := book.Equity(110); eq <= 10_000 {
		t.Errorf("equity at 110 = %v, want > 10000", eq)
	}
}

package indicator

import (
	"errors"
	"math"
	"testing"

	"makemytrade/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMAPartialWindow(t *testing.T) {
	got := SMA([]float64{10, 11, 12, 9, 8}, 3)
	want := []float64{10, 10.5, 11, 32.0 / 3, 29.0 / 3}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("SMA[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEMASeedsFromFirstValue(t *testing.T) {
	values := []float64{10, 12, 14}
	got := EMA(values, 3) // alpha = 0.5
	if got[0] != 10 {
		t.Errorf("EMA[0] = %v, want first observation 10", got[0])
	}
	if !almostEqual(got[1], 11) {
		t.Errorf("EMA[1] = %v, want 11", got[1])
	}
	if !almostEqual(got[2], 12.5) {
		t.Errorf("EMA[2] = %v, want 12.5", got[2])
	}
}

func TestTrueRangeFirstBar(t *testing.T) {
	high := []float64{12, 15}
	low := []float64{9, 11}
	closes := []float64{10, 14}

	tr := TrueRange(high, low, closes)
	if tr[0] != 3 {
		t.Errorf("first-bar true range = %v, want high-low = 3", tr[0])
	}
	// max(15-11, |15-10|, |11-10|) = 5
	if tr[1] != 5 {
		t.Errorf("true range = %v, want 5", tr[1])
	}
}

func TestATRPartialWindow(t *testing.T) {
	high := []float64{12, 15, 14}
	low := []float64{9, 11, 10}
	closes := []float64{10, 14, 11}

	atr := ATR(high, low, closes, 14)
	for i, v := range atr {
		if math.IsNaN(v) {
			t.Errorf("ATR[%d] is NaN during warm-up; partial-window policy requires a value", i)
		}
	}
	if atr[0] != 3 {
		t.Errorf("ATR[0] = %v, want 3", atr[0])
	}
}

func TestDonchianUnshifted(t *testing.T) {
	highs := []float64{5, 7, 6, 9, 8}
	got := DonchianHigh(highs, 3, false)
	want := []float64{5, 7, 7, 9, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DonchianHigh[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDonchianShiftedExcludesCurrentBar(t *testing.T) {
	highs := []float64{5, 7, 6, 9, 8}
	got := DonchianHigh(highs, 2, true)

	// Warm-up: no full window of prior bars yet.
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Errorf("shifted channel should be undefined during warm-up, got %v, %v", got[0], got[1])
	}
	// got[3] covers bars 1..2 only; the 9 at index 3 must not leak in.
	if got[3] != 7 {
		t.Errorf("DonchianHigh[3] = %v, want 7 (prior bars only)", got[3])
	}
	if got[4] != 9 {
		t.Errorf("DonchianHigh[4] = %v, want 9", got[4])
	}
}

func TestDonchianLow(t *testing.T) {
	lows := []float64{5, 3, 4, 2, 6}
	got := DonchianLow(lows, 2, false)
	want := []float64{5, 3, 3, 2, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DonchianLow[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMACD(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	macd, signal := MACD(values, 3, 6, 4)
	if len(macd) != len(values) || len(signal) != len(values) {
		t.Fatalf("MACD lengths = %d/%d, want %d", len(macd), len(signal), len(values))
	}
	if macd[0] != 0 {
		t.Errorf("MACD[0] = %v, want 0 (both EMAs seed from the same value)", macd[0])
	}
	// On a rising series the fast EMA leads the slow one.
	if macd[len(macd)-1] <= 0 {
		t.Errorf("MACD tail = %v, want > 0 on a rising series", macd[len(macd)-1])
	}
}

func TestRollingMedian(t *testing.T) {
	got := RollingMedian([]float64{1, 9, 2, 8, 3}, 3)
	want := []float64{1, 5, 2, 8, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("RollingMedian[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSeriesRejectsNonNumeric(t *testing.T) {
	bars := []domain.Bar{
		{Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Open: 1, High: math.NaN(), Low: 0.5, Close: 1.5, Volume: 10},
	}
	_, err := Series(bars)
	if err == nil {
		t.Fatal("Series accepted a NaN high")
	}
	var dataErr *domain.DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("Series error has type %T, want *DataError", err)
	}
	if dataErr.Column != "high" {
		t.Errorf("DataError.Column = %q, want %q", dataErr.Column, "high")
	}
}

package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"makemytrade/internal/broker"
	"makemytrade/internal/config"
	"makemytrade/internal/domain"
	"makemytrade/internal/fetch"
	"makemytrade/internal/store"
	"makemytrade/internal/strategy"
	"makemytrade/internal/strategy/builtins"
	"makemytrade/internal/util"
)

// trader evaluates the configured strategy on recent history and mirrors
// the latest bar's signal onto a brokerage account. It performs at most one
// order per instrument per invocation; scheduling is left to cron.
func main() {
	brokerFlag := flag.String("broker", "simulator", "execution backend: simulator or alpaca")
	notionalFlag := flag.Float64("notional", 1000, "order notional in quote currency")
	flag.Parse()

	cfgPath := "config/backtest.yaml"
	if p := os.Getenv("MAKEMYTRADE_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	exec, err := broker.New(*brokerFlag, broker.Options{
		APIKey:      cfg.Alpaca.APIKey,
		APISecret:   cfg.Alpaca.APISecret,
		BaseURL:     cfg.Alpaca.BaseURL,
		InitialCash: cfg.Backtest.InitialCapital,
	})
	if err != nil {
		log.Fatalf("failed to build broker: %v", err)
	}

	fetcher, err := fetch.New(cfg.Fetch.Provider, fetch.Options{
		APIKey:            cfg.Alpaca.APIKey,
		APISecret:         cfg.Alpaca.APISecret,
		BaseURL:           cfg.Alpaca.DataURL,
		RequestsPerMinute: cfg.Fetch.RateLimitPerMin,
		MaxAttempts:       cfg.Fetch.MaxAttempts,
	})
	if err != nil {
		log.Fatalf("failed to build fetcher: %v", err)
	}
	cached := fetch.NewCachedFetcher(store.NewParquetCache(cfg.Storage.DataDir), fetcher)

	registry := strategy.NewRegistry()
	registry.Register(builtins.NewSMACross(5, 20))
	registry.Register(builtins.NewSMATrend(200))
	registry.Register(builtins.NewEMACross(8, 21))
	registry.Register(builtins.NewFilteredDonchian())
	registry.Register(builtins.NewMACDTrend())

	s, err := registry.Get(cfg.Backtest.Strategy)
	if err != nil {
		log.Fatalf("unknown strategy: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	timeframe := cfg.ParsedTimeframe()
	end := time.Now().UTC()
	// Enough history for the slowest lookback (200-bar SMA trend filter).
	start := end.Add(-400 * timeframe.Duration())

	for _, name := range cfg.Backtest.Instruments {
		instrument := domain.Instrument(name)

		bars, err := cached.FetchHistory(ctx, instrument, timeframe, start, end)
		if err != nil || len(bars) == 0 {
			slog.Error("history unavailable", "instrument", instrument, "error", err)
			continue
		}

		frame, err := s.GenerateSignals(bars)
		if err != nil {
			slog.Error("signal generation failed", "instrument", instrument, "error", err)
			continue
		}

		last := frame.Len() - 1
		buy, sell := frame.At(last)
		if !buy && !sell {
			slog.Info("no signal", "instrument", instrument, "strategy", s.Name())
			continue
		}

		side := broker.OrderBuy
		if sell {
			side = broker.OrderSell
		}
		lastClose := bars[len(bars)-1].Close
		if lastClose <= 0 {
			slog.Error("bad last close", "instrument", instrument, "close", lastClose)
			continue
		}

		if sim, ok := exec.(*broker.SimulatorBroker); ok {
			sim.SetPrice(instrument, lastClose)
		}

		order, err := exec.PlaceOrder(ctx, broker.OrderRequest{
			Instrument:  instrument,
			Qty:         *notionalFlag / lastClose,
			Side:        side,
			Type:        broker.OrderMarket,
			TimeInForce: broker.GTC,
		})
		if err != nil {
			slog.Error("order failed", "instrument", instrument, "side", side, "error", err)
			continue
		}
		slog.Info("order placed",
			"instrument", instrument,
			"side", side,
			"qty", order.Qty,
			"status", order.Status,
			"id", order.ID)
	}

	account, err := exec.GetAccount(ctx)
	if err != nil {
		slog.Error("account snapshot failed", "error", err)
		return
	}
	slog.Info("account", "broker", exec.Name(), "cash", account.Cash, "equity", account.Equity)
}

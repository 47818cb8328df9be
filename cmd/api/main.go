package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/defiplex/tradecore/internal/config"
	"github.com/defiplex/tradecore/internal/history"
	"github.com/defiplex/tradecore/internal/pricing"
	"github.com/defiplex/tradecore/internal/server"
	"github.com/defiplex/tradecore/internal/sor"
	"github.com/defiplex/tradecore/internal/tokens"
	"github.com/defiplex/tradecore/internal/trading"
	"github.com/defiplex/tradecore/internal/wrap"
)

// main wires a trading session behind the HTTP API: routing-oracle client,
// wrap classifier, price-impact calculator and optional history sinks.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env before anything reads os.Getenv
	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file found, using system environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Token resolution: static list file, resolved before the core runs.
	var resolver tokens.Resolver = tokens.MapResolver{}
	if path := os.Getenv("TOKEN_LIST_PATH"); path != "" {
		list, err := tokens.LoadList(path)
		if err != nil {
			logger.WithError(err).Fatal("failed to load token list")
		}
		resolver = list
	}

	// Rebasing wrapper rates come from a static oracle here; a live
	// deployment swaps in a contract-backed ConversionOracle.
	oracle := wrap.NewStaticRateOracle()
	oracle.SetRate(cfg.WstETHAddress, cfg.WstETHRate)

	classifier := wrap.NewClassifier(cfg.NativeAddress, cfg.WrappedNativeAddress, oracle)
	classifier.RegisterRebasing(cfg.WstETHAddress, cfg.StETHAddress)

	// wstETH liquidity is priced in stETH terms, so impact calculations
	// convert wstETH return amounts through the wrapper rate first.
	calc := pricing.NewCalculator()
	wstETHRate := cfg.WstETHRate
	calc.RegisterAdjuster(cfg.WstETHAddress, func(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
		return amount.Mul(wstETHRate), nil
	})

	sorClient := sor.NewClient(sor.ClientConfig{
		BaseURL:           cfg.SORBaseURL,
		APIKey:            cfg.SORAPIKey,
		Timeout:           cfg.HTTPTimeout,
		RequestsPerSecond: cfg.SORRequestsPerSecond,
		Logger:            logger,
	})

	// Optional history sinks.
	var recorders []history.Recorder
	var historyReader *history.RedisRecorder
	if cfg.RedisAddr != "" {
		rclient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rclient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Fatal("failed to connect to Redis")
		}
		rec, err := history.NewRedisRecorder(rclient)
		if err != nil {
			logger.WithError(err).Fatal("failed to create redis recorder")
		}
		recorders = append(recorders, rec)
		historyReader = rec
	}
	if cfg.ClickHouseAddr != "" {
		ch, err := history.NewClickHouseStore(ctx, history.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to ClickHouse")
		}
		defer func() { _ = ch.Close() }()
		recorders = append(recorders, ch)
	}
	var recorder history.Recorder
	if len(recorders) > 0 {
		recorder = history.Multi(recorders...)
	}

	engineCfg := trading.DefaultConfig(cfg.NativeAddress)
	engineCfg.ThrottleWindow = cfg.ThrottleWindow
	engineCfg.PoolRefreshInterval = cfg.PoolRefreshInterval
	engineCfg.RefetchPools = cfg.RefetchPools
	engineCfg.HandleAmountsOnFetchPools = cfg.HandleAmountsOnFetchPools

	engine, err := trading.NewEngine(engineCfg, trading.Deps{
		SOR:      sorClient,
		Tokens:   resolver,
		Wrapper:  classifier,
		Impact:   calc,
		Recorder: recorder,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create trading engine")
	}
	engine.SetSlippageRate(cfg.SlippageRate)

	// Background pool refresh loop.
	go func() {
		if err := engine.Start(ctx); err != nil && err != context.Canceled {
			logger.WithError(err).Error("pool refresh loop stopped")
		}
	}()

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: &server.Handlers{
			Engine:  engine,
			History: historyReader,
			DevMode: cfg.DevMode,
			Logger:  logger,
		},
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil {
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/lintang-b-s/indoornav/pkg/engine"
	"github.com/lintang-b-s/indoornav/pkg/http"
	"github.com/lintang-b-s/indoornav/pkg/http/usecases"
	"github.com/lintang-b-s/indoornav/pkg/logger"
	"github.com/lintang-b-s/indoornav/pkg/navgraph"
	"github.com/lintang-b-s/indoornav/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configFile   = flag.String("config", "", "path to config.yaml (default ./data/config.yaml)")
	envFile      = flag.String("env", ".env", "dotenv file loaded before the config, missing file is ignored")
	useRateLimit = flag.Bool("rate_limit", false, "enable per client ip rate limiting")
	policy       = flag.String("reciprocity", "", "one-way connection policy: repair, reject or directed (default from config, else repair)")
)

func main() {
	flag.Parse()
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Fatal("load env file", zap.Error(err))
	}
	if err := util.ReadConfig(*configFile); err != nil {
		logger.Fatal("read config", zap.Error(err))
	}

	floors, err := util.ReadFloorConfigs()
	if err != nil {
		logger.Fatal("read floors", zap.Error(err))
	}

	policyName := *policy
	if policyName == "" {
		policyName = viper.GetString("RECIPROCITY_POLICY")
	}
	reciprocity, err := navgraph.ParseReciprocityPolicy(policyName)
	if err != nil {
		logger.Fatal("reciprocity policy", zap.Error(err))
	}

	navEngine, err := engine.NewEngine(floors, logger, engine.Options{
		Policy:    reciprocity,
		CacheSize: viper.GetInt("ROUTE_CACHE_SIZE"),
		Workers:   viper.GetInt("ROUTE_WORKERS"),
	})
	if err != nil {
		logger.Fatal("create engine", zap.Error(err))
	}

	ctx, cleanup, err := NewContext()
	if err != nil {
		panic(err)
	}

	if err := navEngine.LoadAll(ctx); err != nil {
		logger.Fatal("load floors", zap.Error(err))
	}

	api := http.NewServer(logger)
	routingService := usecases.NewRoutingService(logger, navEngine)

	done := make(chan error, 1)
	go func() {
		done <- api.Use(ctx, *useRateLimit, routingService)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("Indoor Navigation Server failed", zap.Error(err))
		}
	case signal := <-shutdownSignal():
		logger.Info("Indoor Navigation Server Stopped", zap.String("signal", signal.String()))
		cleanup()
		<-done
	}
	cleanup()
}

func NewContext() (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
	}

	return ctx, cb, nil
}

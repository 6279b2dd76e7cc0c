package http

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	http_router "github.com/lintang-b-s/indoornav/pkg/http/router"
	"github.com/lintang-b-s/indoornav/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/indoornav/pkg/http/server"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Log *zap.Logger
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

func SetDefaults() {
	viper.SetDefault("API_PORT", 6060)
	viper.SetDefault("API_TIMEOUT", "30s")
	viper.SetDefault("HTTP_SERVER_READ_TIMEOUT", "15s")
	viper.SetDefault("HTTP_SERVER_WRITE_TIMEOUT", "15s")
	viper.SetDefault("HTTP_SERVER_IDLE_TIMEOUT", "120s")
	viper.SetDefault("HTTP_SERVER_READ_HEADER_TIMEOUT", "5s")
	viper.SetDefault("RATE_LIMIT_RPS", 20.0)
	viper.SetDefault("RATE_LIMIT_BURST", 40)
	viper.SetDefault("WEBSOCKET_WORKERS", 32)
}

func ConfigFromViper() http_server.Config {
	SetDefaults()
	return http_server.Config{
		Port:              viper.GetInt("API_PORT"),
		Timeout:           viper.GetDuration("API_TIMEOUT"),
		ReadTimeout:       viper.GetDuration("HTTP_SERVER_READ_TIMEOUT"),
		WriteTimeout:      viper.GetDuration("HTTP_SERVER_WRITE_TIMEOUT"),
		IdleTimeout:       viper.GetDuration("HTTP_SERVER_IDLE_TIMEOUT"),
		ReadHeaderTimeout: viper.GetDuration("HTTP_SERVER_READ_HEADER_TIMEOUT"),
		RateLimit:         viper.GetFloat64("RATE_LIMIT_RPS"),
		RateBurst:         viper.GetInt("RATE_LIMIT_BURST"),
		WebsocketWorkers:  viper.GetInt("WEBSOCKET_WORKERS"),
	}
}

// Use. serves the api until ctx is done or the listener fails.
func (s *Server) Use(
	ctx context.Context,

	useRateLimit bool,
	routingService controllers.RoutingService,
) error {
	config := ConfigFromViper()

	server := http_router.NewAPI(s.Log)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(ctx, config, useRateLimit, routingService)
	})

	return g.Wait()
}

func GracefulShutdown() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicsync-client/backend"
	"civicsync-client/config"
	"civicsync-client/engine"
	"civicsync-client/geocode"
	"civicsync-client/logger"
	"civicsync-client/metrics"
	"civicsync-client/middlewares"
	"civicsync-client/preferences"
	"civicsync-client/realtime"
	"civicsync-client/routes"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.WithError(err).Fatal("client exited")
	}
}

func run() error {
	var envFile, listen string
	flagSet := pflag.NewFlagSet("civicsync-client", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "path to an optional env file")
	flagSet.StringVar(&listen, "listen", "", "control API address (overrides LISTEN_ADDR)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg := config.Load(envFile)
	if listen != "" {
		cfg.ListenAddr = listen
	}

	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	metrics.Register()
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	redisClient, err := config.ConnectRedis(cfg)
	if err != nil {
		log.WithError(err).Warn("continuing without Redis")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var prefs preferences.KV = preferences.NewMemoryKV()
	if redisClient != nil {
		prefs = &preferences.RedisKV{Client: redisClient, Prefix: "civicsync:prefs:"}
	}

	e := engine.New(cfg, engine.Deps{
		Backend: backend.NewClient(cfg.BackendURL, &http.Client{Timeout: cfg.RequestTimeout}),
		Geocoder: geocode.NewClient(cfg.NominatimURL,
			geocode.WithCountryCodes(cfg.NominatimCountries),
			geocode.WithUserAgent(cfg.NominatimUserAgent),
			geocode.WithRateLimit(cfg.NominatimRatePerSec),
		),
		Subscriber:  subscriber(cfg, redisClient),
		Preferences: prefs,
	})

	limiter := middlewares.IssueRateLimiter(redisClient, cfg.SubmitRateLimit, cfg.SubmitRateWindow)
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: routes.NewRouter(e, limiter),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.Run(ctx) })
	g.Go(func() error {
		log.WithField("addr", cfg.ListenAddr).Info("starting control API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("client exited")
	return nil
}

// subscriber picks the live update transport. Unknown or disabled transports
// leave the client in pull-only mode.
func subscriber(cfg *config.Config, redisClient *redis.Client) realtime.Subscriber {
	switch cfg.RealtimeTransport {
	case "websocket", "ws":
		return &realtime.WebsocketSubscriber{URL: cfg.RealtimeURL}
	case "redis":
		if redisClient == nil {
			log.Warn("redis transport selected but Redis is unavailable")
			return nil
		}
		return &realtime.RedisSubscriber{Client: redisClient, Channel: cfg.RealtimeChannel}
	case "amqp":
		return &realtime.AMQPSubscriber{URL: cfg.AMQPURL, Exchange: cfg.AMQPExchange}
	case "", "none", "off":
		return nil
	default:
		log.WithField("transport", cfg.RealtimeTransport).Warn("unknown realtime transport")
		return nil
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/t77yq/floorwatch/internal/audio"
	"github.com/t77yq/floorwatch/internal/config"
	"github.com/t77yq/floorwatch/internal/logging"
	"github.com/t77yq/floorwatch/internal/monitor"
	"github.com/t77yq/floorwatch/internal/service"
	"github.com/t77yq/floorwatch/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the alert engine until interrupted",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	v, err := config.Read(cfgFile)
	if err != nil {
		return err
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	feed, err := storage.OpenSQLFeed(ctx, cfg.Snapshot.Driver, cfg.Snapshot.DSN, logger)
	if err != nil {
		return err
	}
	defer feed.Close()

	opts, err := engineOptions(cfg)
	if err != nil {
		return err
	}
	engine := monitor.NewAlertEngine(feed, opts, logger)
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start alert engine: %w", err)
	}
	defer engine.Stop()

	config.Watch(v, logger, func(c *config.Config) {
		engine.UpdateSettings(c.Notifications.Patch())
	})

	if cfg.NATS.Enabled {
		nc, err := connectNATS(cfg.NATS, logger)
		if err != nil {
			return err
		}
		defer nc.Drain()

		bridge := service.NewFloorEventBridge(nc, cfg.NATS.Subject, engine, logger)
		if err := bridge.Start(ctx); err != nil {
			return err
		}

		if cfg.NATS.StatsInterval > 0 {
			publisher := service.NewStatsPublisher(nc, cfg.NATS.StatsSubject, cfg.NATS.StatsInterval, engine, logger)
			if err := publisher.Start(ctx); err != nil {
				return err
			}
			defer publisher.Stop()
		}
	}

	<-ctx.Done()

	stats := engine.Stats()
	logger.Info("Server shutting down gracefully",
		zap.Int("alerts", stats.Total),
		zap.Int("unread", stats.Unread))
	return nil
}

func engineOptions(cfg *config.Config) (monitor.Options, error) {
	loc, err := cfg.Monitor.Location()
	if err != nil {
		return monitor.Options{}, err
	}

	opts := monitor.DefaultOptions()
	opts.Settings = cfg.Notifications.Settings()
	opts.EvaluationInterval = cfg.Monitor.EvaluationInterval
	opts.Location = loc
	opts.CueRate = rate.Limit(cfg.Audio.RatePerSecond)
	opts.CueBurst = cfg.Audio.Burst
	if len(cfg.Audio.Command) > 0 {
		opts.Player = audio.NewCommandPlayer(cfg.Audio.Command, cfg.Audio.SampleRate)
	}
	return opts, nil
}

func connectNATS(cfg config.NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("floorwatch"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.PingInterval(20 * time.Second),
		nats.MaxPingsOutstanding(5),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("NATS connection error",
				zap.String("subject", subject),
				zap.Error(err))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected",
				zap.String("url", nc.ConnectedUrl()))
		}),
	}

	// Connect with retry
	var nc *nats.Conn
	var err error
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		nc, err = nats.Connect(cfg.URL, opts...)
		if err == nil {
			break
		}
		logger.Warn("Failed to connect to NATS, retrying...",
			zap.Int("attempt", i+1),
			zap.Error(err))
		time.Sleep(time.Second * time.Duration(i+1))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS after retries: %w", err)
	}

	logger.Info("Connected to NATS successfully",
		zap.String("url", nc.ConnectedUrl()))
	return nc, nil
}

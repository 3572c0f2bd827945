package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/t77yq/floorwatch/internal/audio"
	"github.com/t77yq/floorwatch/internal/config"
	"github.com/t77yq/floorwatch/internal/logging"
	"github.com/t77yq/floorwatch/internal/model"
	"github.com/t77yq/floorwatch/internal/monitor"
	"github.com/t77yq/floorwatch/internal/storage"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one evaluation and print the raised alerts as JSON",
	RunE:  runCheck,
}

type checkReport struct {
	Alerts []model.Alert `json:"alerts"`
	Stats  model.Stats   `json:"stats"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	feed, err := storage.OpenSQLFeed(ctx, cfg.Snapshot.Driver, cfg.Snapshot.DSN, logger)
	if err != nil {
		return err
	}
	defer feed.Close()

	opts, err := engineOptions(cfg)
	if err != nil {
		return err
	}
	opts.Player = audio.NopPlayer{}

	engine := monitor.NewAlertEngine(feed, opts, logger)
	defer engine.Stop()

	engine.Evaluate(ctx)

	out, err := json.MarshalIndent(checkReport{
		Alerts: engine.Alerts(),
		Stats:  engine.Stats(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

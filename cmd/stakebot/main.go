package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mcjkula/bittensor-scripts/internal/config"
	"github.com/mcjkula/bittensor-scripts/internal/dashboard"
	"github.com/mcjkula/bittensor-scripts/internal/engine"
	"github.com/mcjkula/bittensor-scripts/internal/gateway"
	"github.com/mcjkula/bittensor-scripts/internal/history"
	"github.com/mcjkula/bittensor-scripts/internal/logging"
	"github.com/mcjkula/bittensor-scripts/internal/model"
	"github.com/mcjkula/bittensor-scripts/internal/recorder"
	"github.com/mcjkula/bittensor-scripts/internal/schedule"
)

var (
	cfgPath     string
	dryRun      bool
	noDashboard bool
)

var rootCmd = &cobra.Command{
	Use:   "stakebot",
	Short: "Automated dTAO stake rebalancing and scheduled staking bot",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the orchestration loop",
	RunE:  runBot,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a one-shot snapshot of the current stake state",
	RunE:  printStatus,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "configs/config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "use an in-memory mock gateway instead of the chain")
	runCmd.Flags().BoolVar(&noDashboard, "no-dashboard", false, "disable the live terminal dashboard")
	rootCmd.AddCommand(runCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired collaborators for one engine instance.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	engine *engine.Engine
	close  func()
}

func buildApp(cmd *cobra.Command) (*app, error) {
	if !cmd.Flags().Changed("config") {
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			cfgPath = v
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dryRun && cfg.Gateway.Endpoint == "" {
		cfg.Gateway.Endpoint = "mock://"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	logger.Info().Str("config", cfgPath).Bool("dry_run", dryRun).Msg("stakebot starting")

	// Gateway
	var gw gateway.Client
	if dryRun {
		mock := gateway.NewMockClient(cfg.Staking.MinRootStake + model.TotalRequired(cfg.Staking.Subnets))
		mock.SetStake(cfg.Wallet.RootHotkey, model.RootNetUID, cfg.Staking.MinRootStake)
		gw = mock
	} else {
		gw = gateway.NewSubtensorClient(cfg.Gateway.Endpoint, cfg.Gateway.APIKey, cfg.Gateway.Proxy)
	}
	logger.Info().Str("gateway", gw.Name()).Msg("chain gateway ready")

	// Schedule store
	var store schedule.Store
	if cfg.Schedule.Store == "file" {
		store, err = schedule.NewFileStore(cfg.Schedule.Path)
	} else {
		store, err = schedule.OpenBoltStore(cfg.Schedule.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("open schedule store: %w", err)
	}

	// Recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" && !dryRun {
		_ = os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0700)
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logging.WithComponent(logger, "recorder"))
		if err != nil {
			logger.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Approval
	var approver engine.Approver = engine.AutoApprover{}
	if cfg.Staking.ManualConfirm {
		approver = engine.NewPromptApprover()
	}

	ledger := history.NewLedger(history.DefaultCapacity, logging.WithComponent(logger, "history"))

	eng, err := engine.New(engine.Params{
		Gateway:           gw,
		Store:             store,
		Recorder:          rec,
		Ledger:            ledger,
		Approver:          approver,
		Logger:            logging.WithComponent(logger, "engine"),
		Coldkey:           cfg.Wallet.Coldkey,
		RootHotkey:        cfg.Wallet.RootHotkey,
		Subnets:           cfg.Staking.Subnets,
		MinRootStake:      cfg.Staking.MinRootStake,
		MinStakeThreshold: cfg.Staking.MinStakeThreshold,
		SeedImmediate:     cfg.Schedule.SeedImmediate,
	})
	if err != nil {
		_ = store.Close()
		_ = rec.Close()
		return nil, fmt.Errorf("init engine: %w", err)
	}

	return &app{
		cfg:    cfg,
		log:    logger,
		engine: eng,
		close: func() {
			_ = rec.Close()
			_ = store.Close()
		},
	}, nil
}

func runBot(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !noDashboard && !a.cfg.Dashboard.Disabled {
		d := dashboard.New(a.engine, os.Stdout, logging.WithComponent(a.log, "dashboard"))
		go d.Run(ctx)
	}

	err = a.engine.Run(ctx)
	a.log.Info().Msg("stakebot stopped")
	return err
}

func printStatus(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap := a.engine.Refresh(ctx)
	fmt.Fprint(os.Stdout, dashboard.Render(snap))
	return nil
}

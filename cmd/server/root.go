package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/unicycle-racing/internal/config"
	"github.com/DoyleJ11/unicycle-racing/internal/engine"
	"github.com/DoyleJ11/unicycle-racing/internal/httpapi"
	"github.com/DoyleJ11/unicycle-racing/internal/logger"
	"github.com/DoyleJ11/unicycle-racing/internal/relay"
	"github.com/DoyleJ11/unicycle-racing/internal/store"
	"github.com/DoyleJ11/unicycle-racing/internal/track"
)

const shutdownTimeout = 5 * time.Second

var cfgFile string

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:          "unicycle-server",
		Short:        "Session relay for multiplayer unicycle racing",
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is ./.unicycle.yml)")
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// initConfig loads .env, then binds flags, UNICYCLE_* variables and the
// config file into v.
func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".unicycle")
	}
	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	} else if cfgFile != "" {
		return fmt.Errorf("read config: %w", err)
	}
	return config.Bind(v, cmd.Flags())
}

func run(parent context.Context, cfg config.Config) (err error) {
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	model, err := track.For(cfg.Track)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	var (
		archive *store.Archive
		laps    httpapi.LapLister
	)
	if cfg.ArchiveDSN != "" {
		db, openErr := store.Open(cfg.ArchiveDSN)
		if openErr != nil {
			return fmt.Errorf("open archive: %w", openErr)
		}
		if archive, err = store.NewArchive(db, cfg.Track, log, store.DefaultQueueSize); err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, archive.Close()) }()
		laps = archive
		g.Go(func() error { return archive.Run(gctx) })
	}

	opts := relay.Options{
		Track:            model,
		LapClockInterval: cfg.LapClockInterval,
		Leaderboard: engine.LeaderboardRules{
			MaxEntries:  cfg.LeaderboardMaxEntries,
			BestPerName: cfg.LeaderboardBestPerName,
		},
		Logger: log,
	}
	if archive != nil {
		opts.Archive = archive
	}
	rl, err := relay.New(gctx, opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpapi.SetupRoutes(rl, laps, log, httpapi.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			OutboxSize:     cfg.OutboxSize,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("track", string(cfg.Track)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		<-rl.Done()
		return err
	})

	return g.Wait()
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"comment-insights-go/internal/config"
	"comment-insights-go/internal/extractor"
	"comment-insights-go/internal/logger"
	"comment-insights-go/internal/notify"
	"comment-insights-go/internal/processor"
	"comment-insights-go/internal/source"
	"comment-insights-go/internal/store"
)

var (
	configPath string
	outPath    string
	withNotify bool
)

func main() {
	root := &cobra.Command{
		Use:           "insights",
		Short:         "Commercial insights from Guardian reader comments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVarP(&outPath, "out", "o", "", "write the report to this file (.json, .yaml or .xlsx)")
	root.PersistentFlags().BoolVar(&withNotify, "notify", false, "send the digest to the configured Telegram chat")

	root.AddCommand(fileCmd(), articleCmd(), keywordCmd(), sectionCmd(), runsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is everything a command needs, built from the loaded config.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	proc  *processor.Processor
	store *store.Store
}

func setup() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logger.NewWith(cfg.Environment, cfg.LogLevel, os.Stderr)
	a := &app{cfg: cfg, log: log}

	analyzer, err := extractor.New(cfg, logger.Component(log, "extractor"))
	if err != nil {
		log.WithError(err).Debug("analyzer unavailable")
	}

	var opts []processor.Option
	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store.Path, logger.Component(log, "store"))
		if err != nil {
			log.WithError(err).Warn("run history disabled")
		} else {
			a.store = st
			opts = append(opts, processor.WithStore(st))
		}
	}
	if withNotify {
		tg, err := notify.NewTelegram(cfg.Telegram, logger.Component(log, "notify"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, processor.WithNotifier(tg))
	}

	src := source.NewGuardian(cfg.Guardian, logger.Component(log, "source"))
	a.proc = processor.New(cfg, src, analyzer, log.Entry, opts...)
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

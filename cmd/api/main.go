package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"comment-insights-go/internal/api"
	"comment-insights-go/internal/config"
	"comment-insights-go/internal/extractor"
	"comment-insights-go/internal/logger"
	"comment-insights-go/internal/notify"
	"comment-insights-go/internal/processor"
	"comment-insights-go/internal/source"
	"comment-insights-go/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWith(cfg.Environment, cfg.LogLevel, os.Stdout)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("server terminated")
		os.Exit(1)
	}
}

// run serves until the listener fails. Deferred cleanup runs before main
// exits.
func run(cfg *config.Config, log *logger.Logger) error {
	log.WithField("service", "comment-insights-go").Info("starting service")

	// a missing LLM setting is reported per request, so the server still starts
	analyzer, err := extractor.New(cfg, logger.Component(log, "extractor"))
	if err != nil {
		log.WithError(err).Warn("analyzer unavailable")
	}

	opts := []processor.Option{}
	var runs api.Runs
	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store.Path, logger.Component(log, "store"))
		if err != nil {
			log.WithError(err).WithField("path", cfg.Store.Path).Warn("run history disabled")
		} else {
			defer func() {
				if err := st.Close(); err != nil {
					log.WithError(err).Warn("close run store")
				}
			}()
			opts = append(opts, processor.WithStore(st))
			runs = st
		}
	}
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram, logger.Component(log, "notify"))
		if err != nil {
			log.WithError(err).Warn("telegram notifications disabled")
		} else {
			opts = append(opts, processor.WithNotifier(tg))
		}
	}

	src := source.NewGuardian(cfg.Guardian, logger.Component(log, "source"))
	proc := processor.New(cfg, src, analyzer, log.Entry, opts...)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewServer(proc, runs, log).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

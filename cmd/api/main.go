package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"techform/internal/data"
	"techform/internal/jsonlog"
)

var (
	buildTime string
	version   string
)

type application struct {
	config      config
	logger      *jsonlog.Logger
	messages    data.Messages
	schema      *data.Schema
	form        *data.Controller
	rateLimiter *rateLimiterMap
}

type config struct {
	port     int
	env      string
	locale   string
	logLevel string
	limiter  struct {
		enabled bool
		rps     float64
		burst   int
	}
}

func main() {
	var cfg config

	flag.IntVar(&cfg.port, "port", 4000, "API server port")
	flag.StringVar(&cfg.env, "env", "development", "Environment (development|staging|production)")
	flag.StringVar(&cfg.locale, "locale", "en", "Validation message locale (en|pt-BR)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Minimum log level (debug|info|warn|error)")

	flag.BoolVar(&cfg.limiter.enabled, "limiter-enabled", true, "Enable per-IP rate limiting")
	flag.Float64Var(&cfg.limiter.rps, "limiter-rps", 4, "Rate limiter maximum requests per second")
	flag.IntVar(&cfg.limiter.burst, "limiter-burst", 8, "Rate limiter maximum burst")
	flag.Parse()

	level := jsonlog.LevelInfo
	if cfg.env == "development" {
		level = jsonlog.LevelDebug
	}
	if cfg.logLevel != "" {
		parsed, err := jsonlog.ParseLevel(cfg.logLevel)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		level = parsed
	}

	logger := jsonlog.New(os.Stdout, level, cfg.env)

	app, err := newApplication(cfg, logger)
	if err != nil {
		logger.PrintFatal(err, map[string]string{"locale": cfg.locale})
	}

	limiter := initializeRateLimiter(cfg, logger)
	app.rateLimiter = limiter.rateLimiterMap

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.port),
		Handler:      app.routes(),
		ErrorLog:     log.New(logger, "", 0),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		logger.Info("shutdown initiated",
			"signal", s.String(),
			"timeout", "5s",
			"addr", srv.Addr)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)

		limiter.shutdown()
		limiter.waitForShutdown()

		logger.Info("background tasks completed",
			"shutdown_timeout", "5s")

		shutdownError <- err
	}()

	logger.Info("starting server", "addr", srv.Addr, "env", cfg.env, "locale", cfg.locale,
		"version", version, "buildTime", buildTime)

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed to start or crashed",
			"error", err,
			"addr", srv.Addr,
			"env", cfg.env)
		os.Exit(1)
	}

	err = <-shutdownError
	if err != nil {
		logger.Error("graceful shutdown failed",
			"error", err,
			"addr", srv.Addr)
		os.Exit(1)
	}

	logger.Info("server stopped gracefully",
		"addr", srv.Addr,
		"env", cfg.env)
}

// newApplication wires the schema, the form controller and its sink for cfg.
func newApplication(cfg config, logger *jsonlog.Logger) (*application, error) {
	messages, err := data.MessagesFor(cfg.locale)
	if err != nil {
		return nil, err
	}

	schema := data.NewSchema(messages)
	form := data.NewController(schema,
		data.WithSink(data.NewLogSink(logger)),
		data.WithLogger(logger),
	)

	return &application{
		config:      cfg,
		logger:      logger,
		messages:    messages,
		schema:      schema,
		form:        form,
		rateLimiter: newRateLimiterMap(cfg.limiter.rps, cfg.limiter.burst),
	}, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/fernandovmc/ai-workspaces/internal/api"
	"github.com/fernandovmc/ai-workspaces/internal/config"
	"github.com/fernandovmc/ai-workspaces/internal/inbox"
	"github.com/fernandovmc/ai-workspaces/internal/service"
	"github.com/fernandovmc/ai-workspaces/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("ai-workspaces", pflag.ContinueOnError)
	configPath := flags.String("config", os.Getenv("WORKSPACES_CONFIG"), "path to a YAML config file")
	addr := flags.String("addr", "", "listen address, overrides SERVER_ADDR")
	logLevel := flags.String("log-level", "", "debug, info, warn or error")
	if err := flags.Parse(args); err != nil {
		return err
	}

	// config
	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.ServerAddr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// store
	db, err := store.Open(cfg.DBDriver, cfg.PgConn)
	if err != nil {
		return err
	}
	defer db.Close()

	// services
	llm, err := newLLM(cfg)
	if err != nil {
		return err
	}
	compose := service.DefaultComposeOptions()
	compose.Window = cfg.HistoryWindow

	auth := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, logger)
	workspaces := service.NewWorkspaceService(db, logger)
	documents := service.NewDocumentService(db, cfg.UploadDir, int64(cfg.MaxUploadBytes), logger)
	chat := service.NewChatService(db, db, llm, service.ChatOptions{
		Compose:      compose,
		HistoryLimit: cfg.HistoryLimit,
		Timeout:      cfg.LLMTimeout,
	}, logger)

	if cfg.InboxDir != "" {
		w, err := inbox.New(cfg.InboxDir, documents, db, logger)
		if err != nil {
			return fmt.Errorf("inbox: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("inbox: %w", err)
		}
		defer w.Close()
	}

	// api
	h := api.NewHandler(auth, workspaces, documents, chat, llm, db, logger)
	app := api.NewApp(h, api.AppOptions{
		// room for the multipart envelope around the largest file
		BodyLimit:      cfg.MaxUploadBytes + 1<<20,
		AllowedOrigins: cfg.AllowedOrigins,
		AccessLog:      true,
	})

	errc := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", cfg.ServerAddr, "db", cfg.DBDriver, "llm", cfg.LLMMode)
		errc <- app.Listen(cfg.ServerAddr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}

type llmClient interface {
	service.Completer
	api.ModelLister
}

func newLLM(cfg *config.Config) (llmClient, error) {
	switch cfg.LLMMode {
	case config.LLMModeOpenAI, "":
		return service.NewLLMClient(cfg), nil
	case config.LLMModeMock:
		slog.Warn("using mock llm, answers are not generated by a model")
		return service.NewMockLLM(), nil
	}
	return nil, fmt.Errorf("unknown llm mode %q", cfg.LLMMode)
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

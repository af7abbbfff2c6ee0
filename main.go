package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"luna_companion/internal/api"
	"luna_companion/internal/config"
	"luna_companion/internal/nodes"
	"luna_companion/internal/photo"
	"luna_companion/internal/pipeline"
	"luna_companion/internal/storage"
	"luna_companion/src"
	"luna_companion/src/llm"
	"luna_companion/src/logger"
	"luna_companion/src/model"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; the environment wins
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := src.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(cfg.LogConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *src.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	persona, err := config.LoadConfig(cfg.PersonaFile)
	if err != nil {
		return fmt.Errorf("error loading persona config: %w", err)
	}

	chatModel, err := llm.NewChatModel(ctx, cfg.LLMConfig, cfg.LLMConfig.Model)
	if err != nil {
		return fmt.Errorf("error creating chat model: %w", err)
	}
	visionModel := chatModel
	if name := cfg.LLMConfig.VisionModelName(); name != cfg.LLMConfig.Model {
		if visionModel, err = llm.NewChatModel(ctx, cfg.LLMConfig, name); err != nil {
			return fmt.Errorf("error creating vision model: %w", err)
		}
	}
	client := llm.NewClient(chatModel, visionModel, cfg.LLMConfig.Timeout)

	store, err := openStore(ctx, cfg.StoreConfig)
	if err != nil {
		return err
	}
	defer store.Close()

	replies := nodes.Replies{
		MemoryFound:     persona.Replies.MemoryFound,
		PhotoFailed:     persona.Replies.PhotoFailed,
		ChatFailed:      persona.Replies.ChatFailed,
		ImageUnreadable: persona.Replies.ImageUnreadable,
		PhotoCaption:    persona.Replies.PhotoCaption,
	}

	conversation, err := pipeline.NewConversation(ctx, pipeline.ConversationConfig{
		Store:        store,
		Completer:    client,
		Resolver:     photo.NewResolver(store, client),
		SystemPrompt: persona.Persona.SystemPrompt,
		HistoryLimit: persona.Agent.HistoryLimit,
		MemoryLimit:  persona.Agent.MemoryLimit,
		Replies:      replies,
	})
	if err != nil {
		return err
	}

	vision, err := pipeline.NewVision(ctx, pipeline.VisionConfig{
		Store:       store,
		Perceiver:   client,
		Instruction: persona.Persona.VisionInstruction,
		Policy: nodes.SafetyPolicy{
			DisallowedTerms: persona.Safety.DisallowedTerms,
			PersonTerms:     persona.Safety.PersonTerms,
			LocationTerms:   persona.Safety.LocationTerms,
		},
		Replies: replies,
	})
	if err != nil {
		return err
	}

	uploads, err := api.NewUploadStore(cfg.ServerConfig.UploadDir, api.UploadsPath)
	if err != nil {
		return err
	}

	handlerConfig := api.HandlerConfig{
		Chat:           conversation,
		Images:         vision,
		Uploads:        uploads,
		MaxUploadBytes: cfg.ServerConfig.MaxUploadBytes,
		RequestTimeout: cfg.ServerConfig.RequestTimeout,
	}
	if pinger, ok := store.(api.Pinger); ok {
		handlerConfig.Health = pinger
	}

	if cfg.LogConfig.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:    cfg.ServerConfig.Addr,
		Handler: api.NewRouter(api.NewHandler(handlerConfig)),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("provider", cfg.LLMConfig.Provider).
			Str("model", cfg.LLMConfig.Model).
			Str("store", cfg.StoreConfig.Driver).
			Msg("Luna companion listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerConfig.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, config model.StoreConfig) (storage.ContextStore, error) {
	switch config.Driver {
	case "", "file":
		return storage.NewFileStore(config.FilePath)
	case "redis":
		return storage.NewRedisStore(ctx, config.RedisURL)
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", config.Driver)
	}
}

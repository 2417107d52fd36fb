package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	orchestration "github.com/koscakluka/ema-relay/core"
	"github.com/koscakluka/ema-relay/core/conversations"
	"github.com/koscakluka/ema-relay/core/llms/groq"
	"github.com/koscakluka/ema-relay/core/llms/openai"
	"github.com/koscakluka/ema-relay/core/speechtotext"
	"github.com/koscakluka/ema-relay/core/speechtotext/deepgram"
	"github.com/koscakluka/ema-relay/internal/config"
	"github.com/koscakluka/ema-relay/internal/gateway"
	"github.com/koscakluka/ema-relay/internal/livekit"
	"github.com/koscakluka/ema-relay/internal/logging"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("relay stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	store := conversations.NewStore()

	opts := []orchestration.OrchestratorOption{
		orchestration.WithStore(store),
		orchestration.WithLogger(log),
		orchestration.WithInstructions(cfg.SystemPrompt),
		orchestration.WithFallbackReply(cfg.FallbackReply),
		orchestration.WithTranscriptionTimeout(cfg.TranscriptionTimeout),
		orchestration.WithGenerationTimeout(cfg.GenerationTimeout),
	}

	stt, err := deepgram.NewTranscriptionClient(
		deepgram.WithAPIKey(cfg.DeepgramAPIKey),
		deepgram.WithDialer(&websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.DeepgramDialTimeout,
		}),
	)
	if err != nil {
		log.Warn("speech transcription disabled", "error", err)
	} else {
		opts = append(opts, orchestration.WithSpeechToTextClient(stt,
			speechtotext.WithModel(cfg.DeepgramModel),
			speechtotext.WithLanguage(cfg.DeepgramLanguage),
		))
	}

	if llm, err := newLLM(cfg); err != nil {
		log.Warn("response generation disabled, every reply will be the fallback", "error", err)
	} else {
		opts = append(opts, orchestration.WithLLM(llm))
	}

	orchestrator := orchestration.NewOrchestrator(opts...)

	routeOpts := []gateway.RouteOption{
		gateway.WithPort(cfg.Port),
		gateway.WithPublicDir(cfg.PublicDir),
		gateway.WithLogger(log),
	}
	if issuer, err := livekit.NewIssuer(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret, livekit.WithValidFor(cfg.LiveKitTokenTTL)); err != nil {
		log.Warn("token issuing disabled", "error", err)
	} else {
		routeOpts = append(routeOpts, gateway.WithTokenIssuer(issuer))
	}

	wsServer := gateway.NewServer(orchestrator,
		gateway.WithMaxFrameBytes(cfg.MaxFrameBytes),
		gateway.WithServerLogger(log),
	)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           gateway.NewHandler(wsServer, store, routeOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.Port, "livekit_host", cfg.LiveKitHost, "llm_provider", cfg.LLMProvider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not closed by http.Server.Shutdown.
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("websocket connections did not close in time", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func newLLM(cfg config.Config) (orchestration.LLM, error) {
	switch cfg.LLMProvider {
	case config.LLMProviderGroq:
		return groq.NewClient(
			groq.WithAPIKey(cfg.GroqAPIKey),
			groq.WithModel(cfg.LLMModel),
			groq.WithHistory(cfg.LLMIncludeHistory),
			groq.WithMaxTokens(cfg.LLMMaxTokens),
		)
	default:
		return openai.NewClient(
			openai.WithAPIKey(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
			openai.WithHistory(cfg.LLMIncludeHistory),
			openai.WithMaxTokens(cfg.LLMMaxTokens),
		)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"chat-relay/internal/config"
	"chat-relay/internal/logger"
	"chat-relay/internal/server"
)

const (
	rootShortDesc = "Serve a local chat page backed by an OpenAI-compatible model server"
	rootLongDesc  = `chat-relay serves a single-page chat UI and forwards each prompt to a
local chat-completions endpoint (Ollama by default).

Settings come from the environment (and a .env file); flags override them.

Examples:
  chat-relay
  chat-relay --model llama3.1:8b --port 9000
  chat-relay --upstream http://gpu-box:11434/v1/chat/completions --timeout 5m
`
	shutdownTimeout = 10 * time.Second
)

type rootCommander struct {
	cfg   config.Config
	debug bool
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&rootCommander{cfg: config.Load()})
}

// newRootCmdWith binds flags onto cmder.cfg, so flags win over the environment.
func newRootCmdWith(cmder *rootCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chat-relay",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cmder.cfg.Port, "port", "p", cmder.cfg.Port, "port (or host:port) to listen on")
	flags.StringVar(&cmder.cfg.UpstreamURL, "upstream", cmder.cfg.UpstreamURL, "chat-completions endpoint URL")
	flags.StringVarP(&cmder.cfg.Model, "model", "m", cmder.cfg.Model, "model name sent with every prompt")
	flags.DurationVar(&cmder.cfg.RequestTimeout, "timeout", cmder.cfg.RequestTimeout, "how long to wait for the model to answer")
	flags.StringVar(&cmder.cfg.PageConfig, "page-config", cmder.cfg.PageConfig, "YAML file with page title and greeting")
	flags.BoolVar(&cmder.debug, "debug", false, "enable debug logging")

	return cmd
}

func (c *rootCommander) run(ctx context.Context) error {
	opts := []logger.Option{
		logger.WithLevel(logger.ParseLevel(c.cfg.LogLevel)),
		logger.WithJSON(c.cfg.LogJSON),
	}
	if c.debug {
		opts = append(opts, logger.WithDebug(true))
	}
	l := logger.New(opts...)

	s, err := server.NewServer(c.cfg, l)
	if err != nil {
		l.Error("failed to create server", "err", err)
		return err
	}

	srv := &http.Server{
		Addr:              c.cfg.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("chat relay listening", "addr", srv.Addr, "upstream", c.cfg.UpstreamURL,
			"model", c.cfg.Model, "timeout", c.cfg.RequestTimeout)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			l.Error("server stopped", "err", err)
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	l.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

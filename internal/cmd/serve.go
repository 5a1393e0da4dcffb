package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jundoHeo/vikunja-mcp/internal/config"
	"github.com/jundoHeo/vikunja-mcp/internal/mcp"
	"github.com/jundoHeo/vikunja-mcp/internal/refcache"
	"github.com/jundoHeo/vikunja-mcp/internal/server"
	"github.com/jundoHeo/vikunja-mcp/internal/session"
	"github.com/jundoHeo/vikunja-mcp/internal/tools"
	"github.com/jundoHeo/vikunja-mcp/internal/vikunja"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP server port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if servePort > 0 {
		cfg.Port = servePort
	}

	sessions := session.NewStatic(cfg.APIURL, cfg.APIToken, session.AuthType(cfg.AuthType))
	if !sessions.IsAuthenticated() {
		log.Warn().Msg("VIKUNJA_MCP_API_TOKEN not set, write operations will be rejected")
	}

	client := vikunja.NewClient(sessions)

	fallback, err := refcache.LoadEventsFile(cfg.EventsFile)
	if err != nil {
		return fmt.Errorf("loading events file: %w", err)
	}
	events := refcache.New(client.AvailableWebhookEvents, fallback)

	registry := tools.NewRegistry()
	registry.Register(tools.NewLabelsTool(client, sessions))
	registry.Register(tools.NewTeamsTool(client, sessions))
	registry.Register(tools.NewUsersTool(client, sessions))
	registry.Register(tools.NewWebhooksTool(client, sessions, events))

	mcpHandler := mcp.NewHandler(registry)

	opts := []server.Option{server.WithCORSOrigins([]string{"*"})}
	if cfg.GlobalRPM > 0 {
		opts = append(opts, server.WithRateLimiter(server.NewRateLimiter(cfg.GlobalRPM, cfg.PerCallerRPM)))
	}
	if len(cfg.APIKeys) == 0 {
		log.Warn().Msg("api_keys not set, /mcp is unauthenticated (local use only)")
	}
	srv := server.NewServer(mcpHandler, cfg.APIKeys, resolvedVersion(), opts...)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().
		Str("addr", addr).
		Str("api_url", cfg.APIURL).
		Str("auth_type", string(sessions.AuthType())).
		Int("tools", len(registry.List())).
		Bool("events_override", viper.GetString(config.KeyEventsFile) != "").
		Msg("vikunja_mcp_started")

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown_signal_received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server_stopped")
	return nil
}

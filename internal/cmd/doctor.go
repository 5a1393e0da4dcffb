package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jundoHeo/vikunja-mcp/internal/config"
	"github.com/jundoHeo/vikunja-mcp/internal/refcache"
	"github.com/jundoHeo/vikunja-mcp/internal/session"
	"github.com/jundoHeo/vikunja-mcp/internal/vikunja"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run preflight checks (config, upstream reachability, credential)",
	Long:  "Verifies the config loads, the Vikunja instance answers /info, the configured token is accepted, and the events override file (if any) parses.",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	out := cmd.OutOrStdout()
	ok := true

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(out, "✗ Config: %v\n", err)
		return fmt.Errorf("preflight failed")
	}
	fmt.Fprintf(out, "✓ Config: api_url %s\n", cfg.APIURL)

	sessions := session.NewStatic(cfg.APIURL, cfg.APIToken, session.AuthType(cfg.AuthType))
	client := vikunja.NewClient(sessions)

	// 1. Upstream reachable: /info is unauthenticated on Vikunja.
	status, body, err := client.DoRaw(ctx, "GET", "/info", nil)
	switch {
	case err != nil:
		fmt.Fprintf(out, "✗ Upstream: %s unreachable: %v\n", cfg.APIURL, err)
		ok = false
	case status != 200:
		fmt.Fprintf(out, "✗ Upstream: /info returned HTTP %d\n", status)
		ok = false
	default:
		var info struct {
			Version string `json:"version"`
		}
		_ = json.Unmarshal(body, &info)
		fmt.Fprintf(out, "✓ Upstream: Vikunja %s\n", info.Version)
	}

	// 2. Credential accepted.
	if !sessions.IsAuthenticated() {
		fmt.Fprintf(out, "✗ Credential: no API token configured (set VIKUNJA_MCP_API_TOKEN)\n")
		ok = false
	} else {
		status, _, err := client.DoRaw(ctx, "GET", "/labels", nil)
		switch {
		case err != nil:
			fmt.Fprintf(out, "✗ Credential: %v\n", err)
			ok = false
		case status == 401 || status == 403:
			fmt.Fprintf(out, "✗ Credential: rejected with HTTP %d (%s)\n", status, sessions.AuthType())
			ok = false
		default:
			fmt.Fprintf(out, "✓ Credential: accepted (%s)\n", sessions.AuthType())
		}
	}

	// 3. Events override parses.
	if cfg.EventsFile == "" {
		fmt.Fprintf(out, "✓ Events fallback: built-in defaults (%d events)\n", len(refcache.DefaultEvents()))
	} else if events, err := refcache.LoadEventsFile(cfg.EventsFile); err != nil {
		fmt.Fprintf(out, "✗ Events fallback: %s: %v\n", cfg.EventsFile, err)
		ok = false
	} else {
		fmt.Fprintf(out, "✓ Events fallback: %s (%d events)\n", cfg.EventsFile, len(events))
	}

	if !ok {
		return fmt.Errorf("preflight failed")
	}
	fmt.Fprintln(out, "All checks passed")
	return nil
}

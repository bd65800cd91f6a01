// ABOUTME: Sync CLI commands for one-shot and daemon-mode queue draining
// ABOUTME: Handles the connectivity probe, periodic ticker, and status output
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/focusden/focusden/sync"
)

// MinSyncInterval guards against hammering the backend in daemon mode.
const MinSyncInterval = 30 * time.Second

// SyncNowCommand performs a single sync pass.
func SyncNowCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	daemon := fs.Bool("daemon", false, "Keep running and sync periodically")
	interval := fs.Duration("interval", 5*time.Minute, "Sync interval in daemon mode")
	_ = fs.Parse(args)

	if !app.Config.IsConfigured() {
		return fmt.Errorf("backend not configured: run 'focusden init' or set FOCUSDEN_SERVER and FOCUSDEN_USER_ID")
	}

	if *daemon {
		return runDaemon(app, *interval)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// One-shot mode probes once instead of trusting a stale flag.
	app.Monitor.Probe(ctx, app.Backend())
	if !app.Monitor.Online() {
		fmt.Println("Backend unreachable; queued operations kept for later.")
		return nil
	}

	before, err := app.Queue.PendingCount()
	if err != nil {
		return err
	}
	if before == 0 {
		fmt.Println("Nothing to sync.")
		return nil
	}

	if err := app.Orchestrator.SyncNow(ctx); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	after, err := app.Queue.PendingCount()
	if err != nil {
		return err
	}
	fmt.Printf("✓ Delivered %d of %d operations (%d remaining)\n", before-after, before, after)

	status, err := app.Orchestrator.Status()
	if err != nil {
		return err
	}
	if status.LastSyncError != "" {
		fmt.Printf("  Last error: %s\n", status.LastSyncError)
	}
	return nil
}

// runDaemon keeps the probe and periodic sync loops running until
// interrupted.
func runDaemon(app *App, interval time.Duration) error {
	if interval < MinSyncInterval {
		return fmt.Errorf("interval %s is below the minimum %s", interval, MinSyncInterval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	backend := app.Backend()
	go app.Monitor.StartProbing(ctx, backend, MinSyncInterval)
	go app.Orchestrator.Run(ctx, interval)

	fmt.Printf("focusden sync daemon started (interval %s). Ctrl-C to stop.\n", interval)
	<-sigCh
	fmt.Println("\nStopping sync daemon...")
	return nil
}

// InitCommand stores backend credentials in the config file.
func InitCommand(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	server := fs.String("server", "", "Backend server URL")
	userID := fs.String("user", "", "User ID")
	token := fs.String("token", "", "Bearer token")
	_ = fs.Parse(args)

	cfg, err := sync.LoadConfig()
	if err != nil {
		return err
	}
	if *server != "" {
		cfg.Server = *server
	}
	if *userID != "" {
		cfg.UserID = *userID
	}
	if *token != "" {
		cfg.Token = *token
	}

	if err := sync.SaveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("✓ Configuration saved to %s\n", sync.ConfigPath())
	if !cfg.IsConfigured() {
		fmt.Println("Note: server and user ID are still missing; sync stays offline-only.")
	}
	return nil
}

// ResetCommand clears the queue and restores the economy stores to initial
// values. Used on logout and account switch.
func ResetCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirmed := fs.Bool("yes", false, "Skip confirmation")
	_ = fs.Parse(args)

	if !*confirmed {
		return fmt.Errorf("reset drops all pending operations and local progress; re-run with --yes to confirm")
	}

	if err := app.Orchestrator.Reset(); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	fmt.Println("✓ Local state reset")
	return nil
}

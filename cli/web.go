// ABOUTME: Web command starting the local read-only dashboard
// ABOUTME: Runs the probe and periodic sync in the background while serving
package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/focusden/focusden/web"
)

// WebCommand serves the local dashboard. Sync keeps running in the
// background so the page reflects live queue state.
func WebCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("web", flag.ExitOnError)
	port := fs.Int("port", 4711, "Port to listen on")
	interval := fs.Duration("interval", 5*time.Minute, "Background sync interval")
	_ = fs.Parse(args)

	if *interval < MinSyncInterval {
		return fmt.Errorf("interval %s is below the minimum %s", *interval, MinSyncInterval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if app.Config.IsConfigured() {
		go app.Monitor.StartProbing(ctx, app.Backend(), MinSyncInterval)
		go app.Orchestrator.Run(ctx, *interval)
	} else {
		fmt.Println("Backend not configured; dashboard runs offline-only.")
	}

	server, err := web.NewServer(app.DB, app.Orchestrator, app.Coins, app.XP)
	if err != nil {
		return err
	}
	return server.Start(*port)
}

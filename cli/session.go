// ABOUTME: Session CLI commands for recording completed focus sessions
// ABOUTME: Applies rewards locally and queues the backend writes
package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/focusden/focusden/models"
)

// SessionCompleteCommand records a finished focus session.
func SessionCompleteCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("session complete", flag.ExitOnError)
	duration := fs.Int("duration", 25, "Session length in minutes")
	sessionType := fs.String("type", models.SessionDeep, "Session type: deep or break")
	_ = fs.Parse(args)

	if *sessionType != models.SessionDeep && *sessionType != models.SessionBreak {
		return fmt.Errorf("unknown session type %q (want deep or break)", *sessionType)
	}

	session, err := app.Orchestrator.CompleteSession(*duration, *sessionType)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}

	fmt.Printf("✓ Logged %d min %s session: +%d XP, +%d coins\n",
		session.Duration, session.SessionType, session.XPEarned, session.CoinsEarned)

	xp := app.XP.State()
	fmt.Printf("  Level %d  •  %d XP  •  %.0f%% to next level\n",
		xp.CurrentLevel, xp.CurrentXP, app.XP.LevelProgress())

	// Auto-sync attempts immediate delivery; failures just leave the
	// operations queued.
	if app.Config.AutoSync && app.Config.IsConfigured() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		app.Monitor.Probe(ctx, app.Backend())
		if err := app.Orchestrator.SyncNow(ctx); err != nil {
			fmt.Printf("  sync attempt failed: %v\n", err)
		}
	}

	pending, err := app.Queue.PendingCount()
	if err != nil {
		return err
	}
	if pending > 0 {
		fmt.Printf("  %d operations queued for sync\n", pending)
	}

	return nil
}

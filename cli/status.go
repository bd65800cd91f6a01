// ABOUTME: Status CLI command showing queue depth, economy state, and sync health
// ABOUTME: Read-only view over the local database and state store
package cli

import (
	"flag"
	"fmt"
	"time"

	"github.com/focusden/focusden/db"
	"github.com/focusden/focusden/economy"
)

// StatusCommand prints the current local state and sync health.
func StatusCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	_ = fs.Parse(args)

	coins := app.Coins.State()
	xp := app.XP.State()

	fmt.Println("Economy")
	fmt.Printf("  Level %d (%.0f%% to next)  •  %d XP\n", xp.CurrentLevel, app.XP.LevelProgress(), xp.CurrentXP)
	fmt.Printf("  Coins: %d (earned %d, spent %d)\n", coins.Balance, coins.TotalEarned, coins.TotalSpent)
	fmt.Printf("  Biome: %s  •  Animals: %d  •  Streak freezes: %d\n",
		xp.CurrentBiome, len(xp.UnlockedAnimals), coins.StreakFreezes)
	if coins.PendingServerValidation {
		fmt.Println("  (local changes pending server validation)")
	}

	totals, err := db.TotalsForDay(app.DB, time.Now())
	if err != nil {
		return err
	}
	fmt.Println("\nToday")
	fmt.Printf("  %d sessions  •  %d min focused  •  +%d XP  •  +%d coins\n",
		totals.Sessions, totals.Minutes, totals.XPEarned, totals.CoinsEarned)

	status, err := app.Orchestrator.Status()
	if err != nil {
		return err
	}
	fmt.Println("\nSync")
	fmt.Printf("  Pending: %d  •  Exhausted: %d  •  Delivered: %d\n",
		status.PendingCount, status.FailedCount, status.TotalSynced)
	if status.LastSyncAt != nil {
		fmt.Printf("  Last sync: %s\n", status.LastSyncAt.Local().Format(time.RFC822))
	} else {
		fmt.Println("  Last sync: never")
	}
	if status.LastSyncError != "" {
		fmt.Printf("  Last error: %s\n", status.LastSyncError)
	}

	next := xp.CurrentLevel + 1
	if next <= economy.MaxLevel {
		fmt.Printf("\nNext level at %d XP\n", economy.XPRequiredForLevel(next))
	}

	return nil
}

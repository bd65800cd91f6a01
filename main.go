// ABOUTME: Entry point for the focusden CLI and sync daemon
// ABOUTME: Routes to subcommands based on arguments
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/focusden/focusden/cli"
	"github.com/focusden/focusden/tui"
)

const version = "0.1.0"

func main() {
	// Local overrides for development; missing .env is fine.
	_ = godotenv.Load()

	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/focusden/focusden.db)")
	stateDir := flag.String("state-dir", "", "State store directory (default: ~/.local/share/focusden/state)")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("focusden version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	// init doesn't need the service graph
	if command == "init" {
		if err := cli.InitCommand(commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	app, err := cli.OpenApp(*dbPath, *stateDir)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer app.Close()

	switch command {
	case "status":
		err = cli.StatusCommand(app, commandArgs)
	case "session":
		err = routeSession(app, commandArgs)
	case "sync":
		err = cli.SyncNowCommand(app, commandArgs)
	case "reset":
		err = cli.ResetCommand(app, commandArgs)
	case "tui":
		err = tui.Run(app)
	case "web":
		err = cli.WebCommand(app, commandArgs)
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func routeSession(app *cli.App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: focusden session complete [--duration N] [--type deep|break]")
	}
	switch args[0] {
	case "complete":
		return cli.SessionCompleteCommand(app, args[1:])
	default:
		return fmt.Errorf("unknown session command: %s", args[0])
	}
}

func printUsage() {
	fmt.Println(`focusden - offline-first focus companion

Usage:
  focusden status                        Show economy state and sync health
  focusden session complete [flags]      Record a completed focus session
  focusden sync [--daemon --interval 5m] Deliver queued operations to the backend
  focusden tui                           Interactive status view
  focusden web [--port 4711]             Local read-only dashboard
  focusden init [flags]                  Store backend credentials
  focusden reset --yes                   Clear queue and local progress (logout)

Global flags:
  --db-path PATH      Database path
  --state-dir PATH    State store directory
  --version           Show version`)
}

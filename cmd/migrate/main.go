// ABOUTME: Maintenance tool that upgrades a focusden database in place.
// ABOUTME: Replaces the pre-release queue layout and reapplies the current schema.

package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/focusden/focusden/db"
	_ "github.com/mattn/go-sqlite3"
)

// prototypeTables existed in pre-release builds before the durable queue
// landed. Their contents cannot be carried over: the old rows had no
// operation IDs or retry bookkeeping.
var prototypeTables = []string{
	"pending_operations", "coin_ledger", "xp_events", "session_log",
}

func main() {
	dbPath := flag.String("db", "", "Path to database file (required)")
	dryRun := flag.Bool("dry-run", false, "Report planned changes without touching the database")
	noBackup := flag.Bool("no-backup", false, "Skip the backup copy")
	force := flag.Bool("force", false, "Allow dropping prototype tables")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("Error: -db flag is required")
	}
	if err := run(*dbPath, *dryRun, *noBackup, *force); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
}

func run(dbPath string, dryRun, noBackup, force bool) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", dbPath)
	}

	database, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	stale, err := findPrototypeTables(database)
	if err != nil {
		return err
	}

	if dryRun {
		if len(stale) > 0 {
			log.Printf("Would drop: %s", strings.Join(stale, ", "))
		}
		log.Printf("Would reapply current schema (sync_queue, focus_sessions, sync_state)")
		return nil
	}

	if len(stale) > 0 && !force {
		return fmt.Errorf("found prototype tables (%s); dropping them discards queued work, re-run with -force", strings.Join(stale, ", "))
	}

	if !noBackup {
		backupPath, err := backup(dbPath)
		if err != nil {
			return err
		}
		log.Printf("Backup written to %s", backupPath)
	}

	for _, table := range stale {
		if _, err := database.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
		log.Printf("Dropped %s", table)
	}

	// InitSchema is idempotent; running it on a current database just
	// picks up any new indexes.
	if err := db.InitSchema(database); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Printf("Schema is current")
	return nil
}

func findPrototypeTables(database *sql.DB) ([]string, error) {
	rows, err := database.Query("SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	known := make(map[string]bool, len(prototypeTables))
	for _, t := range prototypeTables {
		known[t] = true
	}

	var stale []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		if known[name] {
			stale = append(stale, name)
		}
	}
	return stale, rows.Err()
}

func backup(dbPath string) (string, error) {
	backupPath := fmt.Sprintf("%s.backup.%s", dbPath, time.Now().Format("20060102-150405"))

	data, err := os.ReadFile(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to read database for backup: %w", err)
	}
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return backupPath, nil
}

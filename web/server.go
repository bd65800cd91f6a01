// ABOUTME: Web UI server with embedded templates
// ABOUTME: Provides a read-only local dashboard plus a JSON status endpoint
package web

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/focusden/focusden/db"
	"github.com/focusden/focusden/economy"
	"github.com/focusden/focusden/sync"
)

//go:embed templates/*
var templatesFS embed.FS

type Server struct {
	db        *sql.DB
	orch      *sync.Orchestrator
	coins     *economy.CoinStore
	xp        *economy.XPStore
	templates *template.Template
}

func NewServer(database *sql.DB, orch *sync.Orchestrator, coins *economy.CoinStore, xp *economy.XPStore) (*Server, error) {
	funcMap := template.FuncMap{
		"percent": func(f float64) int {
			return int(f)
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		db:        database,
		orch:      orch,
		coins:     coins,
		xp:        xp,
		templates: tmpl,
	}, nil
}

func (s *Server) Start(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleDashboard)
	mux.HandleFunc("/sessions", s.handleSessions)
	mux.HandleFunc("/api/status", s.handleAPIStatus)
	mux.HandleFunc("/sync", s.handleSyncTrigger)

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Starting web server at http://localhost%s", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	status, err := s.orch.Status()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	today, err := db.TotalsForDay(s.db, time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	xpState := s.xp.State()

	data := map[string]interface{}{
		"Title":           "Dashboard",
		"ContentTemplate": "dashboard-content",
		"Coins":           s.coins.State(),
		"XP":              xpState,
		"NextLevelXP":     economy.XPRequiredForLevel(xpState.CurrentLevel + 1),
		"Progress":        s.xp.LevelProgress(),
		"Today":           today,
		"Sync":            status,
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	since := time.Now().AddDate(0, 0, -7)
	sessions, err := db.SessionsSince(s.db, since)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Title":           "Sessions",
		"ContentTemplate": "sessions-content",
		"Sessions":        sessions,
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.orch.Status()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	payload := map[string]interface{}{
		"online":       status.Online,
		"syncing":      status.IsSyncing,
		"pending":      status.PendingCount,
		"failed":       status.FailedCount,
		"total_synced": status.TotalSynced,
		"total_failed": status.TotalFailed,
		"last_sync_at": status.LastSyncAt,
		"last_error":   status.LastSyncError,
		"coins":        s.coins.State(),
		"xp":           s.xp.State(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error writing status response: %v", err)
	}
}

func (s *Server) handleSyncTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.orch.SyncNow(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	// The data map includes ContentTemplate to select the content block.
	err := s.templates.ExecuteTemplate(w, name, data)
	if err != nil {
		log.Printf("Template error rendering %s: %v", name, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

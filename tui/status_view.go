// ABOUTME: TUI view for economy state and sync status
// ABOUTME: Displays queue depth, level progress, and lets the user trigger a sync
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/focusden/focusden/cli"
	"github.com/focusden/focusden/sync"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	syncingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	barFilled = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	barEmpty  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// tickMsg refreshes the status display.
type tickMsg time.Time

// syncDoneMsg is sent when a manual sync attempt finishes.
type syncDoneMsg struct {
	err error
}

// Model is the bubbletea model for the status view.
type Model struct {
	app     *cli.App
	spinner spinner.Model
	syncing bool
	status  *sync.Status
	message string
	err     error
}

// Run starts the interactive status view.
func Run(app *cli.App) error {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = syncingStyle

	m := Model{app: app, spinner: sp}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick(), m.refresh())
}

func tick() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		status, err := m.app.Orchestrator.Status()
		if err != nil {
			return syncDoneMsg{err: err}
		}
		return status
	}
}

func (m Model) startSync() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		m.app.Monitor.Probe(ctx, m.app.Backend())
		return syncDoneMsg{err: m.app.Orchestrator.SyncNow(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "s":
			if !m.syncing {
				m.syncing = true
				m.message = ""
				return m, m.startSync()
			}
		}

	case tickMsg:
		return m, tea.Batch(tick(), m.refresh())

	case *sync.Status:
		m.status = msg
		return m, nil

	case syncDoneMsg:
		m.syncing = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.message = "Sync attempt finished"
		}
		return m, m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("focusden"))
	s.WriteString("\n\n")

	coins := m.app.Coins.State()
	xp := m.app.XP.State()

	s.WriteString(headerStyle.Render("Economy"))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("  Level %-3d %s %.0f%%\n", xp.CurrentLevel, progressBar(m.app.XP.LevelProgress(), 24), m.app.XP.LevelProgress()))
	s.WriteString(fmt.Sprintf("  XP %d  •  Coins %d  •  Biome %s  •  Freezes %d\n",
		xp.CurrentXP, coins.Balance, xp.CurrentBiome, coins.StreakFreezes))
	if coins.PendingServerValidation {
		s.WriteString(helpStyle.Render("  local changes pending server validation"))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(headerStyle.Render("Sync"))
	s.WriteString("\n\n")

	if m.status != nil {
		online := errorStyle.Render("offline")
		if m.status.Online {
			online = idleStyle.Render("online")
		}
		s.WriteString(fmt.Sprintf("  %s  •  pending %d  •  delivered %d  •  exhausted %d\n",
			online, m.status.PendingCount, m.status.TotalSynced, m.status.FailedCount))
		if m.status.LastSyncAt != nil {
			s.WriteString(fmt.Sprintf("  last sync %s\n", m.status.LastSyncAt.Local().Format("15:04:05")))
		} else {
			s.WriteString("  last sync never\n")
		}
		if m.status.LastSyncError != "" {
			s.WriteString(errorStyle.Render("  " + m.status.LastSyncError))
			s.WriteString("\n")
		}
	}

	s.WriteString("\n")
	if m.syncing {
		s.WriteString(m.spinner.View())
		s.WriteString(syncingStyle.Render(" syncing..."))
		s.WriteString("\n")
	} else if m.message != "" {
		s.WriteString(idleStyle.Render("  " + m.message))
		s.WriteString("\n")
	}
	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("  error: %v", m.err)))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("s: sync now  •  q: quit"))
	return s.String()
}

func progressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return barFilled.Render(strings.Repeat("█", filled)) + barEmpty.Render(strings.Repeat("░", width-filled))
}

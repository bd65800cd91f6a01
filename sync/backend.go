// ABOUTME: Backend write contract and REST implementation for queued operations
// ABOUTME: One typed write per operation type, plus economy fetch and health probe
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/focusden/focusden/models"
)

// Backend is the authoritative server's typed write surface. Each write
// returns the server's economy snapshot when the response carries one; a nil
// snapshot means there is nothing to reconcile.
type Backend interface {
	InsertFocusSession(ctx context.Context, p models.FocusSessionPayload) (*models.EconomySnapshot, error)
	UpdateXP(ctx context.Context, p models.XPUpdatePayload) (*models.EconomySnapshot, error)
	UpdateCoins(ctx context.Context, p models.CoinUpdatePayload) (*models.EconomySnapshot, error)
	UpdateStreak(ctx context.Context, p models.StreakUpdatePayload) (*models.EconomySnapshot, error)
	UnlockAchievement(ctx context.Context, p models.AchievementUnlockPayload) (*models.EconomySnapshot, error)
	InsertPetInteraction(ctx context.Context, p models.PetInteractionPayload) (*models.EconomySnapshot, error)
	UpsertQuest(ctx context.Context, p models.QuestUpdatePayload) (*models.EconomySnapshot, error)
	UpsertProgress(ctx context.Context, p models.ProgressUpdatePayload) (*models.EconomySnapshot, error)

	// FetchEconomy pulls the full authoritative economy state, used to
	// correct optimistic local state after a rejected mutation.
	FetchEconomy(ctx context.Context) (*models.EconomySnapshot, error)

	// Healthz checks reachability for the connectivity probe.
	Healthz(ctx context.Context) error
}

// RejectionError marks a mutation the server refused on validation grounds.
// Rejections are never retried; the orchestrator forces a reconciliation
// pull instead.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("server rejected mutation: %s", e.Reason)
}

// IsRejection reports whether err is (or wraps) a server rejection.
func IsRejection(err error) bool {
	var rej *RejectionError
	return errors.As(err, &rej)
}

// HTTPBackend talks JSON to the gamification backend over REST.
type HTTPBackend struct {
	baseURL string
	token   string
	userID  string
	client  *http.Client
}

// NewHTTPBackend creates a backend client with a bearer token.
func NewHTTPBackend(baseURL, token, userID string) *HTTPBackend {
	return &HTTPBackend{
		baseURL: baseURL,
		token:   token,
		userID:  userID,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// writeResponse is the common envelope returned by backend writes.
type writeResponse struct {
	Economy *models.EconomySnapshot `json:"economy,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

func (b *HTTPBackend) InsertFocusSession(ctx context.Context, p models.FocusSessionPayload) (*models.EconomySnapshot, error) {
	return b.write(ctx, http.MethodPost, "/v1/focus-sessions", p)
}

func (b *HTTPBackend) UpdateXP(ctx context.Context, p models.XPUpdatePayload) (*models.EconomySnapshot, error) {
	return b.write(ctx, http.MethodPut, "/v1/users/"+b.userID+"/xp", p)
}

func (b *HTTPBackend) UpdateCoins(ctx context.Context, p models.CoinUpdatePayload) (*models.EconomySnapshot, error) {
	return b.write(ctx, http.MethodPut, "/v1/users/"+b.userID+"/coins", p)
}

func (b *HTTPBackend) UpdateStreak(ctx context.Context, p models.StreakUpdatePayload) (*models.EconomySnapshot, error) {
	return b.write(ctx, http.MethodPut, "/v1/users/"+b.userID+"/streak", p)
}

func (b *HTTPBackend) UnlockAchievement(ctx context.Context, p models.AchievementUnlockPayload) (*models.EconomySnapshot, error) {
	return b.write(ctx, http.MethodPost, "/v1/users/"+b.userID+"/achievements", p)
}

func (b *HTTPBackend) InsertPetInteraction(ctx context.Context, p models.PetInteractionPayload) (*models.EconomySnapshot, error) {
	return b.write(ctx, http.MethodPost, "/v1/users/"+b.userID+"/pet-interactions", p)
}

func (b *HTTPBackend) UpsertQuest(ctx context.Context, p models.QuestUpdatePayload) (*models.EconomySnapshot, error) {
	return b.write(ctx, http.MethodPut, "/v1/users/"+b.userID+"/quests/"+p.QuestID, p)
}

func (b *HTTPBackend) UpsertProgress(ctx context.Context, p models.ProgressUpdatePayload) (*models.EconomySnapshot, error) {
	return b.write(ctx, http.MethodPut, "/v1/users/"+b.userID+"/progress", p)
}

func (b *HTTPBackend) FetchEconomy(ctx context.Context) (*models.EconomySnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/v1/users/"+b.userID+"/economy", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	b.setHeaders(req)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch economy: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("economy fetch returned status %d", resp.StatusCode)
	}

	var snapshot models.EconomySnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode economy snapshot: %w", err)
	}
	return &snapshot, nil
}

func (b *HTTPBackend) Healthz(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// write performs a JSON request and classifies the response: 2xx succeeds,
// 4xx is a rejection (never retried), everything else is transient.
func (b *HTTPBackend) write(ctx context.Context, method, path string, payload any) (*models.EconomySnapshot, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	b.setHeaders(req)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var wr writeResponse
		if len(data) > 0 {
			if err := json.Unmarshal(data, &wr); err != nil {
				return nil, fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return wr.Economy, nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var wr writeResponse
		reason := fmt.Sprintf("status %d", resp.StatusCode)
		if json.Unmarshal(data, &wr) == nil && wr.Error != "" {
			reason = wr.Error
		}
		return nil, &RejectionError{Reason: reason}

	default:
		return nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
}

func (b *HTTPBackend) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
}

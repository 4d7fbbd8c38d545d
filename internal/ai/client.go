// Package ai talks to the external plan-generation service. The service is
// an optional collaborator: every call is bounded by a deadline and every
// response is treated as an untrusted draft that the caller re-validates.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edubloom/study-planner-api/internal/dto"
	"github.com/edubloom/study-planner-api/internal/models"
	"github.com/edubloom/study-planner-api/pkg/config"
)

// PlanRequest is the payload sent to the generation service.
type PlanRequest struct {
	Model      string           `json:"model"`
	Profile    *models.Profile  `json:"profile"`
	Subjects   []models.Subject `json:"subjects"`
	StartDate  string           `json:"start_date"`
	TargetDate string           `json:"target_date"`
	DailyHours []DayBudget      `json:"daily_hours"`
}

// DayBudget tells the generation service how much time each day holds.
type DayBudget struct {
	Date        string  `json:"date"`
	BudgetHours float64 `json:"budget_hours"`
	StartTime   string  `json:"start_time"`
}

type generateResponse struct {
	Content string `json:"content"`
}

// Client produces plan drafts from the external generation service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *zap.Logger
}

func NewClient(cfg config.AIConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger,
	}
}

// GeneratePlan asks the generation service for a full plan draft. The
// returned draft has not been validated; callers must check it against the
// plan invariants before persisting anything from it.
func (c *Client) GeneratePlan(ctx context.Context, req PlanRequest) (*dto.PlanDraft, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal plan request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/plans/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build plan request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call generation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation service returned status %d", resp.StatusCode)
	}

	var envelope generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode generation response: %w", err)
	}

	draft, err := parseDraft(envelope.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("generation service produced a draft",
		zap.Int("sessions", len(draft.Sessions)),
		zap.Duration("elapsed", time.Since(started)))
	return draft, nil
}

// parseDraft extracts the JSON draft from the model output. Models tend to
// wrap JSON in markdown code fences, so those are stripped first.
func parseDraft(content string) (*dto.PlanDraft, error) {
	content = stripCodeFence(content)
	var draft dto.PlanDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return nil, fmt.Errorf("parse plan draft: %w", err)
	}
	if len(draft.Sessions) == 0 {
		return nil, fmt.Errorf("plan draft contains no sessions")
	}
	return &draft, nil
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	if idx := strings.LastIndex(content, "```"); idx >= 0 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}

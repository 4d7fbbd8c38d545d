package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubloom/study-planner-api/internal/models"
	"github.com/edubloom/study-planner-api/internal/service"
	"github.com/edubloom/study-planner-api/pkg/config"
)

type subjectsStub struct {
	subjects []models.Subject
}

func (s *subjectsStub) ListByUser(ctx context.Context, userID string) ([]models.Subject, error) {
	return s.subjects, nil
}

func (s *subjectsStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	for i := range s.subjects {
		if s.subjects[i].ID == id {
			return &s.subjects[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *subjectsStub) UpdateConfidence(ctx context.Context, id string, level int) error {
	return nil
}

type profilesStub struct{}

func (profilesStub) GetByUser(ctx context.Context, userID string) (*models.Profile, error) {
	return &models.Profile{
		UserID:             userID,
		WeekdayHours:       2,
		WeekendHours:       4,
		PreferredStudyTime: models.StudyTimeEvening,
		TargetDate:         time.Now().UTC().AddDate(0, 0, 14),
	}, nil
}

type plansStub struct {
	plan *models.StudyPlan
}

func (s *plansStub) GetByUser(ctx context.Context, userID string) (*models.StudyPlan, error) {
	if s.plan == nil {
		return nil, sql.ErrNoRows
	}
	return s.plan, nil
}

func (s *plansStub) Replace(ctx context.Context, plan *models.StudyPlan, expectedVersion int) error {
	s.plan = plan
	return nil
}

func (s *plansStub) FindSession(ctx context.Context, id string) (*models.Session, error) {
	return nil, sql.ErrNoRows
}

func (s *plansStub) CompleteSession(ctx context.Context, id string, at time.Time) (*models.Session, error) {
	return nil, sql.ErrNoRows
}

func newTestRouter(t *testing.T) (*gin.Engine, *plansStub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	subjects := &subjectsStub{subjects: []models.Subject{
		{ID: "calc", UserID: "user-1", Name: "Calculus", Credits: 3, ConfidenceLevel: 2},
	}}
	plans := &plansStub{}
	svc := service.NewPlanService(subjects, profilesStub{}, plans, nil, nil, nil, nil, nil, nil, service.PlanServiceConfig{
		Planner: config.PlannerConfig{BufferCadence: 7, MinSessionHours: 0.5, MaxSessionHours: 2, PreferredWindowHours: 4},
	})

	r := gin.New()
	api := r.Group("/api/v1")
	authed := api.Group("", RequireUser())
	h := NewPlanHandler(svc)
	authed.GET("/plan", h.Get)
	authed.POST("/plan/generate", h.Generate)
	return r, plans
}

func TestPlanRoutesRequireUserHeader(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/plan", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPlanNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/plan", nil)
	req.Header.Set("X-User-ID", "user-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGeneratePlanFallback(t *testing.T) {
	r, plans := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/plan/generate", nil)
	req.Header.Set("X-User-ID", "user-1")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, plans.plan)

	var envelope struct {
		Data models.StudyPlan `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.SourceFallback, envelope.Data.Source)
	assert.NotEmpty(t, envelope.Data.Sessions)
	assert.Equal(t, 1, envelope.Data.Version)
}

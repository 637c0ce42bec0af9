package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nichelab/niche-cli/internal/model"
	"github.com/nichelab/niche-cli/internal/pipeline"
	"github.com/nichelab/niche-cli/internal/store"
)

// stubRunner stands in for the pipeline and records what it was asked to run.
type stubRunner struct {
	err          error
	calls        int
	gotProfile   model.FounderProfile
	gotUserID    string
	gotProfileID string
}

func (r *stubRunner) Run(_ context.Context, profile model.FounderProfile, userID, profileID string) (*pipeline.Result, error) {
	r.calls++
	r.gotProfile = profile
	r.gotUserID = userID
	r.gotProfileID = profileID

	if r.err != nil {
		return &pipeline.Result{}, r.err
	}

	rep := model.NewReport(userID, profileID)
	rep.ProfileSummary.BackgroundSummary = "logistics engineer turned founder"
	rep.RecommendedNiches = append(rep.RecommendedNiches, model.Niche{
		Name:             "Freight Exception Tracker",
		FitScore:         84,
		CompetitionLevel: "medium",
	})
	return &pipeline.Result{Report: rep}, nil
}

type serverEnv struct {
	store  store.Store
	runner *stubRunner
	router http.Handler
}

func newTestEnv(t *testing.T) *serverEnv {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	runner := &stubRunner{}
	srv := New(st, runner, StaticAuthenticator{Token: "secret", UserID: "user-1"}, []string{"*"})
	return &serverEnv{store: st, runner: runner, router: srv.Router()}
}

// do issues an authenticated request against the router.
func (e *serverEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer secret")

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v))
}

func seedProfile(t *testing.T, e *serverEnv, userID string) *model.FounderProfile {
	t.Helper()
	p := &model.FounderProfile{
		UserID:          userID,
		Education:       "BSc Computer Science",
		CurrentRole:     "Backend engineer",
		YearsExperience: 6,
		TechSkills:      []string{"Go", "Postgres"},
		ExcitedDomains:  []string{"logistics"},
		HoursPerWeek:    10,
	}
	require.NoError(t, e.store.SaveProfile(context.Background(), p))
	return p
}

func seedReport(t *testing.T, e *serverEnv, userID string) *model.NicheReport {
	t.Helper()
	rep := model.NewReport(userID, "profile-1")
	rep.RecommendedNiches = append(rep.RecommendedNiches, model.Niche{
		Name:     "Freight Exception Tracker",
		FitScore: 84,
	})
	require.NoError(t, e.store.SaveReport(context.Background(), rep))
	return rep
}

func TestHealth_NoAuthRequired(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	decodeBody(t, rr, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestAuth_MissingToken(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	var body map[string]string
	decodeBody(t, rr, &body)
	assert.Equal(t, "not authenticated", body["error"])
}

func TestAuth_WrongToken(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_DisabledWhenNoTokenConfigured(t *testing.T) {
	auth := StaticAuthenticator{}

	uid, err := auth.Authenticate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultUserID, uid)
}

func TestSaveProfile_Created(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodPost, "/api/profile", map[string]any{
		"education":      "MSc Supply Chain",
		"current_role":   "Operations lead",
		"hours_per_week": 15,
		"user_id":        "someone-else",
	})

	require.Equal(t, http.StatusCreated, rr.Code)
	var got model.FounderProfile
	decodeBody(t, rr, &got)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "user-1", got.UserID, "identity comes from the token, not the body")
	assert.Equal(t, "MSc Supply Chain", got.Education)

	stored, err := e.store.LatestProfile(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, got.ID, stored.ID)
}

func TestSaveProfile_UpsertKeepsID(t *testing.T) {
	e := newTestEnv(t)

	first := e.do(t, http.MethodPost, "/api/profile", map[string]any{"education": "v1"})
	require.Equal(t, http.StatusCreated, first.Code)
	var p1 model.FounderProfile
	decodeBody(t, first, &p1)

	second := e.do(t, http.MethodPost, "/api/profile", map[string]any{"education": "v2"})
	require.Equal(t, http.StatusCreated, second.Code)
	var p2 model.FounderProfile
	decodeBody(t, second, &p2)

	assert.Equal(t, p1.ID, p2.ID)
	assert.Equal(t, "v2", p2.Education)
}

func TestSaveProfile_BadBody(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/profile", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetProfile(t *testing.T) {
	e := newTestEnv(t)
	seeded := seedProfile(t, e, "user-1")

	rr := e.do(t, http.MethodGet, "/api/profile", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var got model.FounderProfile
	decodeBody(t, rr, &got)
	assert.Equal(t, seeded.ID, got.ID)
	assert.Equal(t, "Backend engineer", got.CurrentRole)
}

func TestGetProfile_Missing(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodGet, "/api/profile", nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAnalyze_NoProfile(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodPost, "/api/analyze", map[string]any{})

	require.Equal(t, http.StatusNotFound, rr.Code)
	var body map[string]string
	decodeBody(t, rr, &body)
	assert.Equal(t, "Profile not found. Please complete onboarding first.", body["error"])
	assert.Zero(t, e.runner.calls)
}

func TestAnalyze_Succeeds(t *testing.T) {
	e := newTestEnv(t)
	seeded := seedProfile(t, e, "user-1")

	rr := e.do(t, http.MethodPost, "/api/analyze", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	decodeBody(t, rr, &body)
	assert.NotEmpty(t, body["report_id"])
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, "Analysis completed successfully", body["message"])

	assert.Equal(t, 1, e.runner.calls)
	assert.Equal(t, "user-1", e.runner.gotUserID)
	assert.Equal(t, seeded.ID, e.runner.gotProfileID)
	assert.Equal(t, 10, e.runner.gotProfile.HoursPerWeek)

	saved, err := e.store.GetReport(context.Background(), body["report_id"])
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Freight Exception Tracker", saved.RecommendedNiches[0].Name)
}

func TestAnalyze_ByProfileID(t *testing.T) {
	e := newTestEnv(t)
	seeded := seedProfile(t, e, "user-1")

	rr := e.do(t, http.MethodPost, "/api/analyze", map[string]any{"profile_id": seeded.ID})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, seeded.ID, e.runner.gotProfileID)
}

func TestAnalyze_OtherUsersProfileHidden(t *testing.T) {
	e := newTestEnv(t)
	other := seedProfile(t, e, "user-2")

	rr := e.do(t, http.MethodPost, "/api/analyze", map[string]any{"profile_id": other.ID})

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Zero(t, e.runner.calls)
}

func TestAnalyze_PipelineFailureStaysGeneric(t *testing.T) {
	e := newTestEnv(t)
	seedProfile(t, e, "user-1")
	e.runner.err = &pipeline.StageError{
		Stage: pipeline.StageMarketHunter,
		Err:   eris.New("upstream quota exhausted for key sk-12345"),
	}

	rr := e.do(t, http.MethodPost, "/api/analyze", nil)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	var body map[string]string
	decodeBody(t, rr, &body)
	assert.Equal(t, "analysis failed", body["error"])
	assert.NotContains(t, rr.Body.String(), "sk-12345")

	reports, err := e.store.ListReports(context.Background(), "user-1", 10)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestListReports_NewestFirst(t *testing.T) {
	e := newTestEnv(t)

	older := model.NewReport("user-1", "profile-1")
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	older.RecommendedNiches = []model.Niche{{Name: "Warehouse Slotting Optimizer", FitScore: 71}}
	require.NoError(t, e.store.SaveReport(context.Background(), older))

	newer := seedReport(t, e, "user-1")

	rr := e.do(t, http.MethodGet, "/api/reports", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var got []model.ReportSummary
	decodeBody(t, rr, &got)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)
	assert.Equal(t, "Freight Exception Tracker", got[0].TopNiche)
}

func TestListReports_EmptyIsArray(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodGet, "/api/reports", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestGetReport(t *testing.T) {
	e := newTestEnv(t)
	rep := seedReport(t, e, "user-1")

	rr := e.do(t, http.MethodGet, "/api/reports/"+rep.ID, nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var got model.NicheReport
	decodeBody(t, rr, &got)
	assert.Equal(t, rep.ID, got.ID)
	assert.Equal(t, "Freight Exception Tracker", got.RecommendedNiches[0].Name)
}

func TestGetReport_Missing(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodGet, "/api/reports/nope", nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetReport_OtherUsersHidden(t *testing.T) {
	e := newTestEnv(t)
	rep := seedReport(t, e, "user-2")

	rr := e.do(t, http.MethodGet, "/api/reports/"+rep.ID, nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteReport(t *testing.T) {
	e := newTestEnv(t)
	rep := seedReport(t, e, "user-1")

	rr := e.do(t, http.MethodDelete, "/api/reports/"+rep.ID, nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	decodeBody(t, rr, &body)
	assert.Equal(t, "Report deleted successfully", body["message"])

	gone, err := e.store.GetReport(context.Background(), rep.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestDeleteReport_Missing(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodDelete, "/api/reports/nope", nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateMilestones(t *testing.T) {
	e := newTestEnv(t)
	rep := seedReport(t, e, "user-1")

	rr := e.do(t, http.MethodPatch, "/api/reports/"+rep.ID+"/milestones", map[string]any{
		"milestones_completed": []string{"Ship MVP", "First customer call"},
	})

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	decodeBody(t, rr, &body)
	assert.Equal(t, "Milestones updated successfully", body["message"])

	saved, err := e.store.GetReport(context.Background(), rep.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, []string{"Ship MVP", "First customer call"}, saved.MilestonesCompleted)
}

func TestUpdateMilestones_Missing(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodPatch, "/api/reports/nope/milestones", map[string]any{
		"milestones_completed": []string{"x"},
	})

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

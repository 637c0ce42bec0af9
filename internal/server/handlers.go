package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nichelab/niche-cli/internal/model"
	"github.com/nichelab/niche-cli/internal/store"
)

// listLimit caps how many summaries one report listing returns.
const listLimit = 100

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSaveProfile upserts the caller's profile. The store keeps the
// existing id and creation time when the user already has one.
func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var p model.FounderProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Identity comes from the token, never from the body.
	p.ID = ""
	p.UserID = UserID(r.Context())

	if err := s.store.SaveProfile(r.Context(), &p); err != nil {
		zap.L().Error("server: save profile", zap.String("user_id", p.UserID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.LatestProfile(r.Context(), UserID(r.Context()))
	if err != nil {
		zap.L().Error("server: load profile", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if p == nil {
		respondError(w, http.StatusNotFound, "profile not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// handleAnalyze runs the full pipeline synchronously and persists the
// report. Pipeline failures surface as a generic 500; the cause is logged,
// never returned to the caller.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProfileID string `json:"profile_id"`
	}
	// The body is optional; an empty one analyzes the user's latest profile.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	userID := UserID(ctx)

	var (
		profile *model.FounderProfile
		err     error
	)
	if req.ProfileID != "" {
		profile, err = s.store.GetProfile(ctx, req.ProfileID)
	} else {
		profile, err = s.store.LatestProfile(ctx, userID)
	}
	if err != nil {
		zap.L().Error("server: load profile", zap.String("user_id", userID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if profile != nil && profile.UserID != userID {
		profile = nil
	}
	if profile == nil {
		respondError(w, http.StatusNotFound, "Profile not found. Please complete onboarding first.")
		return
	}

	result, err := s.runner.Run(ctx, *profile, userID, profile.ID)
	if err != nil {
		zap.L().Error("server: analysis failed",
			zap.String("user_id", userID),
			zap.String("profile_id", profile.ID),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	if err := s.store.SaveReport(ctx, result.Report); err != nil {
		zap.L().Error("server: save report", zap.String("report_id", result.Report.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to save report")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"report_id": result.Report.ID,
		"status":    string(model.ReportStatusCompleted),
		"message":   "Analysis completed successfully",
	})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.ListReports(r.Context(), UserID(r.Context()), listLimit)
	if err != nil {
		zap.L().Error("server: list reports", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	if summaries == nil {
		summaries = []model.ReportSummary{}
	}
	respondJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep := s.ownedReport(w, r)
	if rep == nil {
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	rep := s.ownedReport(w, r)
	if rep == nil {
		return
	}

	if err := s.store.DeleteReport(r.Context(), rep.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "report not found")
			return
		}
		zap.L().Error("server: delete report", zap.String("report_id", rep.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to delete report")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Report deleted successfully"})
}

func (s *Server) handleUpdateMilestones(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MilestonesCompleted []string `json:"milestones_completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rep := s.ownedReport(w, r)
	if rep == nil {
		return
	}

	if err := s.store.UpdateMilestones(r.Context(), rep.ID, req.MilestonesCompleted); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "report not found")
			return
		}
		zap.L().Error("server: update milestones", zap.String("report_id", rep.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update milestones")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Milestones updated successfully"})
}

// ownedReport loads the report named in the route and hides other users'
// reports behind the same 404 as missing ones. Writes the error response
// itself and returns nil when the caller should stop.
func (s *Server) ownedReport(w http.ResponseWriter, r *http.Request) *model.NicheReport {
	id := chi.URLParam(r, "id")
	rep, err := s.store.GetReport(r.Context(), id)
	if err != nil {
		zap.L().Error("server: get report", zap.String("report_id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load report")
		return nil
	}
	if rep == nil || rep.UserID != UserID(r.Context()) {
		respondError(w, http.StatusNotFound, "report not found")
		return nil
	}
	return rep
}

//go:build !integration

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nichelab/niche-cli/internal/model"
)

func TestLoadProfile_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeProfileFile(t, dir, "profile.json", model.FounderProfile{
		UserID:       "founder-1",
		CurrentRole:  "Backend engineer",
		TechSkills:   []string{"Go", "Postgres"},
		HoursPerWeek: 15,
	})

	p, err := loadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "founder-1", p.UserID)
	assert.Equal(t, "Backend engineer", p.CurrentRole)
	assert.Equal(t, []string{"Go", "Postgres"}, p.TechSkills)
	assert.Equal(t, 15, p.HoursPerWeek)
}

func TestLoadProfile_MissingFile(t *testing.T) {
	_, err := loadProfile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read profile")
}

func TestLoadProfile_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := loadProfile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse profile")
}

func TestWriteReport_BasicOutput(t *testing.T) {
	var buf bytes.Buffer

	report := model.NewReport("founder-1", "profile-1")
	report.RecommendedNiches = []model.Niche{
		{Name: "Freight Exception Tracker", FitScore: 84},
	}

	err := writeReport(&buf, report)
	require.NoError(t, err)

	// Verify it's valid JSON.
	var decoded model.NicheReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.ID, decoded.ID)
	require.Len(t, decoded.RecommendedNiches, 1)
	assert.Equal(t, 84, decoded.RecommendedNiches[0].FitScore)
}

func TestWriteReport_PrettyPrinted(t *testing.T) {
	var buf bytes.Buffer

	err := writeReport(&buf, model.NewReport("founder-1", "profile-1"))
	require.NoError(t, err)

	// Should be indented.
	assert.Contains(t, buf.String(), "  ")
}

package main

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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/occupation-matcher/internal/index"
	"github.com/jonathan/occupation-matcher/internal/observability"
	"github.com/jonathan/occupation-matcher/internal/scheduler"
	"github.com/jonathan/occupation-matcher/internal/skills"
	"github.com/jonathan/occupation-matcher/internal/types"
)

const (
	uriProgrammeren = "https://linkeddata.competentnl.nl/uwv/id/humancapability/programmeren"
	uriAnalyseren   = "https://linkeddata.competentnl.nl/uwv/id/humancapability/analyseren"
)

func writeSnapshotFile(t *testing.T) string {
	t.Helper()
	snapshot, err := skills.Compute([]types.ConceptFrequency{
		{URI: uriProgrammeren, Label: "programmeren", Type: types.ConceptHumanCapability, DocumentFrequency: 2},
		{URI: uriAnalyseren, Label: "analyseren", Type: types.ConceptHumanCapability, DocumentFrequency: 9},
	}, 10, nil, skills.DefaultCategorizer(), time.Now())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "idf.json")
	require.NoError(t, skills.ExportFile(path, snapshot))
	return path
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		idfInput, pretty = "", false
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestIdfStatsCommand_FromFile(t *testing.T) {
	path := writeSnapshotFile(t)

	out, err := executeCommand(t, "idf", "stats", "--in", path, "--top", "1")
	require.NoError(t, err)

	var summary skills.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.TotalSkills)
	require.Len(t, summary.MostUnique, 1)
	assert.Equal(t, uriProgrammeren, summary.MostUnique[0].SkillURI)
	require.Len(t, summary.MostUniversal, 1)
	assert.Equal(t, uriAnalyseren, summary.MostUniversal[0].SkillURI)
}

func TestIdfStatsCommand_Pretty(t *testing.T) {
	path := writeSnapshotFile(t)

	out, err := executeCommand(t, "idf", "stats", "--in", path, "--pretty")
	require.NoError(t, err)
	assert.Contains(t, out, "programmeren")
}

func TestIdfStatsCommand_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	_, err := executeCommand(t, "idf", "stats", "--in", path)
	assert.Error(t, err)
}

type staticLinks map[types.Tier][]types.RequirementLink

func (s staticLinks) FetchLinks(_ context.Context, tier types.Tier) ([]types.RequirementLink, error) {
	return s[tier], nil
}

func TestDaemonMux(t *testing.T) {
	source := staticLinks{
		types.TierEssential: {{
			SubjectURI:   "https://linkeddata.competentnl.nl/uwv/id/occupation/developer",
			SubjectLabel: "Softwareontwikkelaar",
			ObjectURI:    uriProgrammeren,
			ObjectLabel:  "programmeren",
			ObjectType:   types.ConceptHumanCapability,
			Tier:         types.TierEssential,
		}},
	}
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	a := &app{
		index:   index.New(source, time.Second, nil, metrics),
		weights: skills.NewProvider(skills.DefaultIDF),
	}
	sched := scheduler.NewService(nil)
	mux := newDaemonMux(a, sched, reg)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	_, err := a.index.EnsureReady(context.Background())
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status DaemonStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, index.StateReady.String(), status.Index)
	require.NotNil(t, status.Stats)
	assert.Equal(t, 1, status.Stats.Occupations)
	assert.Nil(t, status.LastRefresh)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `occupation_matcher_index_size{kind="occupations"} 1`)
}

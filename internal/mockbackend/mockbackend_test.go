package mockbackend

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rahul4469/crisis-analyzer/internal/classify"
	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/rahul4469/crisis-analyzer/internal/scenario"
	"github.com/rahul4469/crisis-analyzer/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(scenario.MustLoad(), nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyze_ThroughBackendClient(t *testing.T) {
	srv := newServer(t)
	client := services.NewBackendClient(srv.URL, 0, nil)

	tests := []struct {
		query       string
		wantUrgent  bool
		wantSteps   bool
		wantSources int
	}{
		{"I see smoke and flames near the library", true, true, 6},
		{"There is a storm coming", true, true, 6},
		{"Students are having a BBQ", false, false, 6},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := models.AnalysisRequest{
				Scenario:      tt.query,
				Location:      "Santa Clara University",
				EmergencyType: classify.Classify(tt.query),
			}
			result, err := client.Analyze(context.Background(), req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantUrgent, result.IsEmergency)
			assert.Equal(t, tt.wantSteps, len(result.EvacuationSteps) > 0)
			assert.NotEmpty(t, result.EmergencyProcedures)
			assert.Equal(t, req.Location, result.Metadata["location"])
			assert.Equal(t, req.EmergencyType.String(), result.Metadata["emergency_type"])
			assert.Len(t, result.Metadata["intelligence_sources"], tt.wantSources)
			assert.Len(t, result.DataSources, tt.wantSources)
		})
	}
}

func TestAnalyze_DoesNotMutateCatalog(t *testing.T) {
	catalog := scenario.MustLoad()
	s := New(catalog, nil)

	_, err := s.Result(models.AnalysisRequest{Scenario: "fire", Location: "x", EmergencyType: models.EmergencyFire})
	require.NoError(t, err)

	sc, err := catalog.Get(scenario.RealEmergency)
	require.NoError(t, err)
	assert.Empty(t, sc.Result.EmergencyProcedures)
	assert.Nil(t, sc.Result.Metadata)
}

func TestAnalyze_RejectsBadRequests(t *testing.T) {
	srv := newServer(t)

	for _, body := range []string{
		`not json`,
		`{"scenario":"smoke","location":"","emergency_type":"fire"}`,
		`{"scenario":"smoke","location":"Quad","emergency_type":"tornado"}`,
	} {
		resp, err := http.Post(srv.URL+"/analyze", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, body)
	}

	// the client surfaces the status as a BackendError
	client := services.NewBackendClient(srv.URL, 0, nil)
	_, err := client.Analyze(context.Background(), models.AnalysisRequest{Scenario: " ", Location: "Quad"})
	var backendErr *models.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, http.StatusUnprocessableEntity, backendErr.StatusCode)
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	client := services.NewBackendClient(srv.URL, 0, nil)
	assert.NoError(t, client.Health(context.Background()))
}

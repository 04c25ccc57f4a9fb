package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/rahul4469/crisis-analyzer/internal/mockbackend"
	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/rahul4469/crisis-analyzer/internal/overlay"
	"github.com/rahul4469/crisis-analyzer/internal/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"I", "see", "SMOKE"}, "fire"},
		{[]string{"heavy rain all night"}, "flood"},
		{[]string{"a", "quiet", "evening"}, "none"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, _, err := execute(t, append([]string{"classify"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}
}

func TestClassify_NeedsText(t *testing.T) {
	_, _, err := execute(t, "classify")
	assert.Error(t, err)
}

func TestScenarioList(t *testing.T) {
	out, _, err := execute(t, "scenario", "list")
	require.NoError(t, err)
	assert.Contains(t, out, scenario.RealEmergency)
	assert.Contains(t, out, scenario.FalseAlarm)
}

func TestScenarioPlay(t *testing.T) {
	out, progress, err := execute(t, "scenario", "play", scenario.FalseAlarm, "--speed", "1000", "-o", "yaml")
	require.NoError(t, err)

	var result models.AnalysisResult
	require.NoError(t, yaml.Unmarshal([]byte(out), &result))
	assert.False(t, result.IsEmergency)
	assert.Contains(t, progress, "synthesis:complete")
}

func TestScenarioPlay_Unknown(t *testing.T) {
	_, _, err := execute(t, "scenario", "play", "volcano")
	assert.ErrorIs(t, err, scenario.ErrScenarioNotFound)
}

func TestOverlay(t *testing.T) {
	out, _, err := execute(t, "overlay", "--scenario", scenario.RealEmergency, "--step", "0")
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection([]byte(out))
	require.NoError(t, err)
	layers := overlay.Layers(fc)
	assert.Positive(t, layers[overlay.LayerRoute])
	assert.Positive(t, layers[overlay.LayerShelter])
}

func TestOverlay_StepOutOfRange(t *testing.T) {
	_, _, err := execute(t, "overlay", "--step", "99")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(mockbackend.New(scenario.MustLoad(), nil).Handler())
	defer srv.Close()

	out, progress, err := execute(t,
		"--backend", srv.URL,
		"analyze", "smoke", "near", "the", "library",
		"--location", "Santa Clara University",
		"--step", "1ms", "--final-delay", "1ms", "--no-hold")
	require.NoError(t, err)

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.IsEmergency)
	assert.Equal(t, "fire", result.Metadata["emergency_type"])
	assert.Contains(t, progress, "Emergency type: fire")
	assert.Contains(t, progress, "Severity: URGENT")
}

func TestAnalyze_BackendDown(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	_, _, err := execute(t, "--backend", url, "analyze", "smoke", "--location", "campus", "--no-hold")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to analyze situation")
}

func TestAnalyze_RequiresLocation(t *testing.T) {
	_, _, err := execute(t, "analyze", "smoke")
	assert.Error(t, err)
}

func TestUnknownOutput(t *testing.T) {
	_, _, err := execute(t, "scenario", "play", scenario.FalseAlarm, "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

package models

import (
	"fmt"
	"strings"
)

// EmergencyType is the category attached to an outbound analysis request.
// The set is closed; unknown labels are rejected when decoding.
type EmergencyType int

const (
	EmergencyNone EmergencyType = iota
	EmergencyFire
	EmergencyHurricane
	EmergencyFlood
)

var emergencyTypeNames = [...]string{
	EmergencyNone:      "none",
	EmergencyFire:      "fire",
	EmergencyHurricane: "hurricane",
	EmergencyFlood:     "flood",
}

func (t EmergencyType) String() string {
	if t < 0 || int(t) >= len(emergencyTypeNames) {
		return fmt.Sprintf("EmergencyType(%d)", int(t))
	}
	return emergencyTypeNames[t]
}

// ParseEmergencyType maps a wire label back to its EmergencyType.
func ParseEmergencyType(s string) (EmergencyType, error) {
	for i, name := range emergencyTypeNames {
		if s == name {
			return EmergencyType(i), nil
		}
	}
	return EmergencyNone, fmt.Errorf("%w: unknown emergency type %q", ErrInvalidInput, s)
}

func (t EmergencyType) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(emergencyTypeNames) {
		return nil, fmt.Errorf("%w: emergency type %d", ErrInvalidInput, int(t))
	}
	return []byte(emergencyTypeNames[t]), nil
}

func (t *EmergencyType) UnmarshalText(b []byte) error {
	parsed, err := ParseEmergencyType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Coordinates is a geographic point as the backend sends it.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// AnalysisRequest is the body POSTed to the backend /analyze endpoint.
type AnalysisRequest struct {
	Scenario      string        `json:"scenario"`
	Location      string        `json:"location"`
	EmergencyType EmergencyType `json:"emergency_type"`
}

// Validate checks the free-text fields collected by the landing page.
func (r AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.Scenario) == "" {
		return fmt.Errorf("%w: scenario is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	return nil
}

// EvacuationStep is one leg of an evacuation plan. Step order is display order.
type EvacuationStep struct {
	Step        int         `json:"step" yaml:"step"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	Details     []string    `json:"details,omitempty" yaml:"details,omitempty"`
	Action      string      `json:"action,omitempty" yaml:"action,omitempty"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`
	Zoom        int         `json:"zoom,omitempty" yaml:"zoom,omitempty"`
	Distance    string      `json:"distance" yaml:"distance"`
	Time        string      `json:"time" yaml:"time"`
	Warning     string      `json:"warning,omitempty" yaml:"warning,omitempty"`
}

type SafeShelter struct {
	Name        string      `json:"name" yaml:"name"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`
	Distance    string      `json:"distance" yaml:"distance"`
}

type EmergencyContact struct {
	Service string `json:"service" yaml:"service"`
	Number  string `json:"number" yaml:"number"`
}

// DataSource records what one agent was asked and what it answered.
type DataSource struct {
	Source   string `json:"source" yaml:"source"`
	Query    string `json:"query" yaml:"query"`
	Response string `json:"response" yaml:"response"`
}

// AnalysisResult is the backend's answer. It is created once per request and
// never mutated afterwards.
type AnalysisResult struct {
	IsEmergency       bool               `json:"is_emergency" yaml:"is_emergency"`
	Severity          string             `json:"severity,omitempty" yaml:"severity,omitempty"`
	Assessment        string             `json:"assessment,omitempty" yaml:"assessment,omitempty"`
	Reasoning         string             `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	Confidence        float64            `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	EvacuationSteps   []EvacuationStep   `json:"evacuation_steps,omitempty" yaml:"evacuation_steps,omitempty"`
	SafeShelter       *SafeShelter       `json:"safe_shelter,omitempty" yaml:"safe_shelter,omitempty"`
	EmergencyContacts []EmergencyContact `json:"emergency_contacts,omitempty" yaml:"emergency_contacts,omitempty"`
	SuggestedActions  []string           `json:"suggested_actions,omitempty" yaml:"suggested_actions,omitempty"`
	DataSources       []DataSource       `json:"data_sources,omitempty" yaml:"data_sources,omitempty"`

	// Orchestrator extras; present when the real backend answers.
	EmergencyProcedures string         `json:"emergency_procedures,omitempty" yaml:"-"`
	DecisionMetadata    map[string]any `json:"decision_metadata,omitempty" yaml:"-"`
	Metadata            map[string]any `json:"metadata,omitempty" yaml:"-"`
}

// Route returns the evacuation step coordinates in step order, ending at the
// shelter when one is known.
func (r *AnalysisResult) Route() []Coordinates {
	if r == nil {
		return nil
	}
	route := make([]Coordinates, 0, len(r.EvacuationSteps)+1)
	for _, s := range r.EvacuationSteps {
		route = append(route, s.Coordinates)
	}
	if r.SafeShelter != nil {
		if n := len(route); n == 0 || route[n-1] != r.SafeShelter.Coordinates {
			route = append(route, r.SafeShelter.Coordinates)
		}
	}
	return route
}

// SeverityLabel is the banner text shown above a result.
func (r *AnalysisResult) SeverityLabel() string {
	if r != nil && r.IsEmergency {
		return "URGENT"
	}
	return "CALM"
}

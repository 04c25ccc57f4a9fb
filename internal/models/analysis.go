package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rahul4469/crisis-analyzer/internal/crypto"
)

type AnalysisStatus string

const (
	StatusPending   AnalysisStatus = "pending"
	StatusCompleted AnalysisStatus = "completed"
	StatusFailed    AnalysisStatus = "failed"
)

// Analysis is an archived live analysis.
type Analysis struct {
	ID            int64           `json:"id"`
	RunID         string          `json:"run_id"`
	Scenario      string          `json:"scenario"`
	Location      string          `json:"location"`
	EmergencyType EmergencyType   `json:"emergency_type"`
	Status        AnalysisStatus  `json:"status"`
	Result        *AnalysisResult `json:"result,omitempty"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// AnalysisRecorder archives the lifecycle of live analyses.
type AnalysisRecorder interface {
	Create(ctx context.Context, runID string, req AnalysisRequest) (*Analysis, error)
	Complete(ctx context.Context, id int64, result *AnalysisResult) error
	Fail(ctx context.Context, id int64, errorMsg string) error
	Recent(ctx context.Context, limit int) ([]*Analysis, error)
}

// NopRecorder is used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) Create(ctx context.Context, runID string, req AnalysisRequest) (*Analysis, error) {
	return &Analysis{RunID: runID, Scenario: req.Scenario, Location: req.Location,
		EmergencyType: req.EmergencyType, Status: StatusPending, CreatedAt: time.Now()}, nil
}
func (NopRecorder) Complete(ctx context.Context, id int64, result *AnalysisResult) error { return nil }
func (NopRecorder) Fail(ctx context.Context, id int64, errorMsg string) error             { return nil }
func (NopRecorder) Recent(ctx context.Context, limit int) ([]*Analysis, error)           { return nil, nil }

// AnalysisService archives live analyses in the analyses table. Scenario
// and location are sealed the same way handoffs are.
type AnalysisService struct {
	db        DBTX
	encryptor *crypto.Encryptor
}

func NewAnalysisService(db DBTX, encryptor *crypto.Encryptor) *AnalysisService {
	return &AnalysisService{db: db, encryptor: encryptor}
}

func (s *AnalysisService) Create(ctx context.Context, runID string, req AnalysisRequest) (*Analysis, error) {
	sealedScenario, err := s.encryptor.Encrypt(req.Scenario)
	if err != nil {
		return nil, fmt.Errorf("create analysis: %w", err)
	}
	sealedLocation, err := s.encryptor.Encrypt(req.Location)
	if err != nil {
		return nil, fmt.Errorf("create analysis: %w", err)
	}

	query := `
		INSERT INTO analyses (run_id, scenario, location, emergency_type, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	analysis := &Analysis{
		RunID:         runID,
		Scenario:      req.Scenario,
		Location:      req.Location,
		EmergencyType: req.EmergencyType,
		Status:        StatusPending,
	}
	err = s.db.QueryRow(ctx, query, runID, sealedScenario, sealedLocation,
		req.EmergencyType.String(), StatusPending).Scan(&analysis.ID, &analysis.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis: %w", err)
	}
	return analysis, nil
}

func (s *AnalysisService) Complete(ctx context.Context, id int64, result *AnalysisResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	query := `
		UPDATE analyses
		SET status = $1, result = $2, completed_at = NOW()
		WHERE id = $3
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, StatusCompleted, resultJSON, id)
	if err != nil {
		return fmt.Errorf("failed to complete analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

// Fail marks the analysis as failed with an error message.
func (s *AnalysisService) Fail(ctx context.Context, id int64, errorMsg string) error {
	query := `
		UPDATE analyses
		SET status = $1, error_message = $2, completed_at = NOW()
		WHERE id = $3
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, StatusFailed, errorMsg, id)
	if err != nil {
		return fmt.Errorf("failed to mark analysis as failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

const analysisColumns = `id, run_id, scenario, location, emergency_type, status, result,
		       error_message, created_at, completed_at`

func (s *AnalysisService) Recent(ctx context.Context, limit int) ([]*Analysis, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT ` + analysisColumns + `
		FROM analyses
		ORDER BY created_at DESC
		LIMIT $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*Analysis
	for rows.Next() {
		a, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}
	return analyses, nil
}

// ByRunID returns the archived analysis of a run that is no longer live.
func (s *AnalysisService) ByRunID(ctx context.Context, runID string) (*Analysis, error) {
	query := `
		SELECT ` + analysisColumns + `
		FROM analyses
		WHERE run_id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	a, err := s.scan(s.db.QueryRow(ctx, query, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAnalysisNotFound
	}
	return a, err
}

func (s *AnalysisService) scan(row pgx.Row) (*Analysis, error) {
	a := &Analysis{}
	var emergencyType, sealedScenario, sealedLocation string
	var resultJSON []byte
	err := row.Scan(&a.ID, &a.RunID, &sealedScenario, &sealedLocation, &emergencyType,
		&a.Status, &resultJSON, &a.ErrorMessage, &a.CreatedAt, &a.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan analysis: %w", err)
	}

	if a.Scenario, err = s.encryptor.Decrypt(sealedScenario); err != nil {
		return nil, fmt.Errorf("analysis %d: %w", a.ID, err)
	}
	if a.Location, err = s.encryptor.Decrypt(sealedLocation); err != nil {
		return nil, fmt.Errorf("analysis %d: %w", a.ID, err)
	}

	// an unknown label falls back to none rather than hiding the row
	a.EmergencyType, _ = ParseEmergencyType(emergencyType)
	if len(resultJSON) > 0 {
		var result AnalysisResult
		if err := json.Unmarshal(resultJSON, &result); err == nil {
			a.Result = &result
		}
	}
	return a, nil
}

// Duration returns how long the analysis took. Returns 0 if not completed.
func (a *Analysis) Duration() time.Duration {
	if a.CompletedAt == nil {
		return 0
	}
	return a.CompletedAt.Sub(a.CreatedAt)
}

func (a *Analysis) IsCompleted() bool {
	return a.Status == StatusCompleted
}

func (a *Analysis) IsFailed() bool {
	return a.Status == StatusFailed
}

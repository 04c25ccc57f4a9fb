package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rahul4469/crisis-analyzer/internal/crypto"
)

// PostgresHandoffStore keeps handoffs in the handoffs table. Query and
// location are sealed before they leave the process.
type PostgresHandoffStore struct {
	db        DBTX
	encryptor *crypto.Encryptor

	BytesPerToken int
	TTL           time.Duration
}

func NewPostgresHandoffStore(db DBTX, encryptor *crypto.Encryptor, ttl time.Duration) *PostgresHandoffStore {
	if ttl <= 0 {
		ttl = DefaultHandoffTTL
	}
	return &PostgresHandoffStore{
		db:            db,
		encryptor:     encryptor,
		BytesPerToken: MinBytesPerToken,
		TTL:           ttl,
	}
}

func (s *PostgresHandoffStore) Put(ctx context.Context, query, location string) (*Handoff, error) {
	req := AnalysisRequest{Scenario: query, Location: location}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	token, err := GenerateToken(s.BytesPerToken)
	if err != nil {
		return nil, fmt.Errorf("put handoff: %w", err)
	}

	sealedQuery, err := s.encryptor.Encrypt(query)
	if err != nil {
		return nil, fmt.Errorf("put handoff: %w", err)
	}
	sealedLocation, err := s.encryptor.Encrypt(location)
	if err != nil {
		return nil, fmt.Errorf("put handoff: %w", err)
	}

	now := time.Now().UTC()
	h := &Handoff{
		Token:     token,
		TokenHash: HashToken(token),
		Query:     query,
		Location:  location,
		CreatedAt: now,
		ExpiresAt: now.Add(s.TTL),
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	_, err = s.db.Exec(ctx, `
		INSERT INTO handoffs (token_hash, query, location, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, h.TokenHash, sealedQuery, sealedLocation, h.CreatedAt, h.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrHandoffConflict
		}
		return nil, fmt.Errorf("failed to store handoff: %w", err)
	}
	return h, nil
}

func (s *PostgresHandoffStore) Take(ctx context.Context, token string) (*Handoff, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	h := &Handoff{TokenHash: HashToken(token)}
	var sealedQuery, sealedLocation string
	var expired bool
	err := s.db.QueryRow(ctx, `
		DELETE FROM handoffs
		WHERE token_hash = $1
		RETURNING query, location, created_at, expires_at, expires_at <= NOW()
	`, h.TokenHash).Scan(&sealedQuery, &sealedLocation, &h.CreatedAt, &h.ExpiresAt, &expired)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHandoffNotFound
		}
		return nil, fmt.Errorf("failed to take handoff: %w", err)
	}
	if expired {
		return nil, ErrHandoffExpired
	}

	if h.Query, err = s.encryptor.Decrypt(sealedQuery); err != nil {
		return nil, fmt.Errorf("take handoff: %w", err)
	}
	if h.Location, err = s.encryptor.Decrypt(sealedLocation); err != nil {
		return nil, fmt.Errorf("take handoff: %w", err)
	}
	return h, nil
}

func (s *PostgresHandoffStore) Purge(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	tag, err := s.db.Exec(ctx, `DELETE FROM handoffs WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge handoffs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

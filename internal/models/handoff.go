package models

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

const (
	// MinBytesPerToken is the minimum number of random bytes in a handoff token
	MinBytesPerToken = 32
	// DefaultHandoffTTL is how long a stored handoff waits for the analysis page
	DefaultHandoffTTL = 10 * time.Minute
)

// Handoff carries the two free-text fields from the landing page to the
// analysis page. It is written once and taken once.
type Handoff struct {
	//Token is only set when the handoff is created. Stores keep the hash.
	Token     string
	TokenHash string
	Query     string
	Location  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// HandoffStore is the cross-page mailbox.
type HandoffStore interface {
	// Put stores query and location and returns the handoff with its raw token set.
	Put(ctx context.Context, query, location string) (*Handoff, error)
	// Take returns and deletes the handoff for token.
	Take(ctx context.Context, token string) (*Handoff, error)
	// Purge removes expired handoffs and reports how many were dropped.
	Purge(ctx context.Context) (int, error)
}

// MemoryHandoffStore keeps handoffs in process memory.
type MemoryHandoffStore struct {
	mu       sync.Mutex
	handoffs map[string]*Handoff

	BytesPerToken int
	TTL           time.Duration
	now           func() time.Time
}

func NewMemoryHandoffStore(ttl time.Duration) *MemoryHandoffStore {
	if ttl <= 0 {
		ttl = DefaultHandoffTTL
	}
	return &MemoryHandoffStore{
		handoffs:      make(map[string]*Handoff),
		BytesPerToken: MinBytesPerToken,
		TTL:           ttl,
		now:           time.Now,
	}
}

func (s *MemoryHandoffStore) Put(ctx context.Context, query, location string) (*Handoff, error) {
	req := AnalysisRequest{Scenario: query, Location: location}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	token, err := GenerateToken(s.BytesPerToken)
	if err != nil {
		return nil, fmt.Errorf("put handoff: %w", err)
	}

	now := s.now()
	h := &Handoff{
		Token:     token,
		TokenHash: HashToken(token),
		Query:     query,
		Location:  location,
		CreatedAt: now,
		ExpiresAt: now.Add(s.TTL),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.handoffs[h.TokenHash]; exists {
		return nil, ErrHandoffConflict
	}
	stored := *h
	stored.Token = ""
	s.handoffs[h.TokenHash] = &stored
	return h, nil
}

func (s *MemoryHandoffStore) Take(ctx context.Context, token string) (*Handoff, error) {
	hash := HashToken(token)

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handoffs[hash]
	if !ok {
		return nil, ErrHandoffNotFound
	}
	delete(s.handoffs, hash)

	if !s.now().Before(h.ExpiresAt) {
		return nil, ErrHandoffExpired
	}
	return h, nil
}

func (s *MemoryHandoffStore) Purge(ctx context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for hash, h := range s.handoffs {
		if !now.Before(h.ExpiresAt) {
			delete(s.handoffs, hash)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored handoffs.
func (s *MemoryHandoffStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handoffs)
}

// GenerateToken returns a URL-safe random token of at least MinBytesPerToken bytes.
func GenerateToken(length int) (string, error) {
	if length < MinBytesPerToken {
		length = MinBytesPerToken
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// HashToken is the form a token takes at rest.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base64.URLEncoding.EncodeToString(hash[:])
}

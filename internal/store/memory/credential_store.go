// Package memory provides in-memory store implementations for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
)

// CredentialStore keeps credentials in a mutex-guarded map. The mutex makes
// AcquireNext a single critical section, so concurrent selections cannot claim
// the same credential while another active one exists.
type CredentialStore struct {
	mu    sync.Mutex
	creds map[string]insight.Credential
}

// NewCredentialStore creates an empty in-memory credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{creds: make(map[string]insight.Credential)}
}

// Add inserts a credential, defaulting its status to Active.
func (s *CredentialStore) Add(_ context.Context, cred insight.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cred.Status == "" {
		cred.Status = insight.CredentialStatusActive
	}
	s.creds[cred.ID] = cred
	return nil
}

// Get returns the credential with the given ID.
func (s *CredentialStore) Get(_ context.Context, id string) (insight.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[id]
	if !ok {
		return insight.Credential{}, insight.ErrCredentialNotFound
	}
	return cred, nil
}

// List returns every credential for the owner, newest first.
func (s *CredentialStore) List(_ context.Context, ownerID string) ([]insight.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []insight.Credential
	for _, cred := range s.creds {
		if cred.OwnerID == ownerID {
			out = append(out, cred)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListActive returns the owner's Active credentials ordered by last use
// ascending, never-used first.
func (s *CredentialStore) ListActive(_ context.Context, ownerID string) ([]insight.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked(ownerID), nil
}

// AcquireNext claims the least-recently-used Active credential and stamps its
// last_used timestamp under the store lock.
func (s *CredentialStore) AcquireNext(_ context.Context, ownerID string, now time.Time) (insight.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := s.activeLocked(ownerID)
	if len(active) == 0 {
		return insight.Credential{}, insight.ErrCredentialNotFound
	}
	chosen := active[0]
	at := now
	chosen.LastUsedAt = &at
	s.creds[chosen.ID] = chosen
	return chosen, nil
}

// RecordUse stamps last_used for the credential.
func (s *CredentialStore) RecordUse(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[id]
	if !ok {
		return insight.ErrCredentialNotFound
	}
	ts := at
	cred.LastUsedAt = &ts
	s.creds[id] = cred
	return nil
}

// RecordFailure increments the failure count and returns the new value.
func (s *CredentialStore) RecordFailure(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[id]
	if !ok {
		return 0, insight.ErrCredentialNotFound
	}
	cred.FailureCount++
	s.creds[id] = cred
	return cred.FailureCount, nil
}

// RecordSuccess resets the failure count; status is untouched.
func (s *CredentialStore) RecordSuccess(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[id]
	if !ok {
		return insight.ErrCredentialNotFound
	}
	cred.FailureCount = 0
	s.creds[id] = cred
	return nil
}

// Invalidate retires the credential. Calling it twice is a no-op.
func (s *CredentialStore) Invalidate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[id]
	if !ok {
		return insight.ErrCredentialNotFound
	}
	cred.Status = insight.CredentialStatusInvalid
	s.creds[id] = cred
	return nil
}

func (s *CredentialStore) activeLocked(ownerID string) []insight.Credential {
	var active []insight.Credential
	for _, cred := range s.creds {
		if cred.OwnerID == ownerID && cred.Status == insight.CredentialStatusActive {
			active = append(active, cred)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		li, lj := active[i].LastUsedAt, active[j].LastUsedAt
		switch {
		case li == nil && lj == nil:
			return active[i].ID < active[j].ID
		case li == nil:
			return true
		case lj == nil:
			return false
		case !li.Equal(*lj):
			return li.Before(*lj)
		default:
			return active[i].ID < active[j].ID
		}
	})
	return active
}

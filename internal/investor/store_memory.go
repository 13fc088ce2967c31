package investor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tokengate/internal/compliance"
	"tokengate/pkg/platform/sentinel"
)

// MemoryStore keeps investors in a map. It backs unit tests and single-node
// development runs; the postgres store is the production implementation.
type MemoryStore struct {
	mu        sync.RWMutex
	investors map[string]*Investor

	// FailIDs makes BulkSetStatus skip these ids, simulating rows that a
	// partial bulk update could not touch. Test hook only.
	FailIDs map[string]bool
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{investors: make(map[string]*Investor)}
}

func (s *MemoryStore) Put(_ context.Context, inv *Investor) error {
	if inv == nil || inv.ID == "" {
		return fmt.Errorf("investor with id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *inv
	s.investors[inv.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Investor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.investors[id]
	if !ok {
		return nil, fmt.Errorf("investor %s: %w", id, sentinel.ErrNotFound)
	}
	cp := *inv
	return &cp, nil
}

func (s *MemoryStore) ListByIDs(_ context.Context, ids []string) ([]*Investor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Investor, 0, len(ids))
	for _, id := range ids {
		if inv, ok := s.investors[id]; ok {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListByToken(_ context.Context, tokenID string) ([]*Investor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Investor
	for _, inv := range s.investors {
		if inv.TokenID == tokenID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) BulkSetStatus(_ context.Context, ids []string, change StatusChange) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated []string
	for _, id := range ids {
		inv, ok := s.investors[id]
		if !ok || s.FailIDs[id] {
			continue
		}
		applyChange(inv, change)
		updated = append(updated, id)
	}
	return updated, nil
}

func (s *MemoryStore) BulkSetStatusWhere(_ context.Context, fromStatus compliance.Status, reasonContains string, change StatusChange) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated []string
	for id, inv := range s.investors {
		if inv.ComplianceStatus != fromStatus {
			continue
		}
		if !strings.Contains(inv.ComplianceStatusReason, reasonContains) {
			continue
		}
		applyChange(inv, change)
		updated = append(updated, id)
	}
	sort.Strings(updated)
	return updated, nil
}

func applyChange(inv *Investor, change StatusChange) {
	inv.ComplianceStatus = change.Status
	inv.ComplianceStatusReason = change.Reason
	inv.ComplianceStatusAt = change.At
	inv.GracePeriodEndsAt = change.GracePeriodEndsAt
	inv.OnChainSynced = false
	inv.OnChainSyncedAt = nil
	inv.OnChainTxHash = ""
}

func (s *MemoryStore) ClearSyncFlags(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if inv, ok := s.investors[id]; ok {
			inv.OnChainSynced = false
			inv.OnChainSyncedAt = nil
			inv.OnChainTxHash = ""
		}
	}
	return nil
}

func (s *MemoryStore) MarkSynced(_ context.Context, ids []string, txHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if inv, ok := s.investors[id]; ok {
			inv.OnChainSynced = true
			syncedAt := at
			inv.OnChainSyncedAt = &syncedAt
			inv.OnChainTxHash = txHash
		}
	}
	return nil
}

func (s *MemoryStore) ListExpiredGrace(_ context.Context, asOf time.Time) ([]*Investor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Investor
	for _, inv := range s.investors {
		if inv.GracePeriodEndsAt != nil && inv.GracePeriodEndsAt.Before(asOf) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) ListPendingSync(_ context.Context, limit int) ([]*Investor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Investor
	for _, inv := range s.investors {
		if !inv.OnChainSynced && inv.WalletAddress != "" {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

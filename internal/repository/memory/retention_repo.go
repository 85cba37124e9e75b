// Package memory — реестр политик хранения в памяти процесса.
// Используется, когда database.url не задан (локальный запуск), и в тестах.
// Данные теряются при остановке процесса.
package memory

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/xela07ax/vms-retention/internal/domain"
)

type RetentionPolicyRepo struct {
	mu       sync.RWMutex
	policies map[uuid.UUID]domain.RetentionPolicy
}

func NewRetentionPolicyRepo() *RetentionPolicyRepo {
	return &RetentionPolicyRepo{policies: make(map[uuid.UUID]domain.RetentionPolicy)}
}

func (r *RetentionPolicyRepo) GetPolicyByID(_ context.Context, id uuid.UUID) (domain.RetentionPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.policies[id]
	if !ok {
		return domain.RetentionPolicy{}, domain.ErrPolicyNotFound
	}
	return p, nil
}

func (r *RetentionPolicyRepo) GetAllPolicies(_ context.Context) ([]domain.RetentionPolicy, error) {
	return r.list(func(domain.RetentionPolicy) bool { return true }), nil
}

func (r *RetentionPolicyRepo) GetActivePolicies(_ context.Context) ([]domain.RetentionPolicy, error) {
	return r.list(func(p domain.RetentionPolicy) bool { return p.IsActive }), nil
}

// list сортирует так же, как postgres: table_name, created_at, policy_id
func (r *RetentionPolicyRepo) list(keep func(domain.RetentionPolicy) bool) []domain.RetentionPolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.RetentionPolicy, 0, len(r.policies))
	for _, p := range r.policies {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.RetentionPolicy) int {
		if c := strings.Compare(a.TableName, b.TableName); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.PolicyID[:], b.PolicyID[:])
	})
	return out
}

func (r *RetentionPolicyRepo) CreatePolicy(_ context.Context, p domain.RetentionPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.policies[p.PolicyID]; ok {
		return domain.ErrPolicyExists
	}
	r.policies[p.PolicyID] = p
	return nil
}

// UpdatePolicy меняет всё, кроме PolicyID и CreatedAt.
func (r *RetentionPolicyRepo) UpdatePolicy(_ context.Context, p domain.RetentionPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.policies[p.PolicyID]
	if !ok {
		return domain.ErrPolicyNotFound
	}
	p.CreatedAt = stored.CreatedAt
	r.policies[p.PolicyID] = p
	return nil
}

func (r *RetentionPolicyRepo) DeletePolicy(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.policies[id]; !ok {
		return domain.ErrPolicyNotFound
	}
	delete(r.policies, id)
	return nil
}

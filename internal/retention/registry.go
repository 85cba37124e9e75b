package retention

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/vms-retention/internal/domain"
	"go.uber.org/zap"
)

type PolicySource interface {
	GetActivePolicies(ctx context.Context) ([]domain.RetentionPolicy, error)
}

// Registry — in-memory снимок активных политик хранения.
// Источник правды — БД; Registry перечитывает её целиком по сигналу из Redis.
// Политики хранятся по значению, наружу отдаются копии.
type Registry struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]domain.RetentionPolicy
	byTable map[string]domain.RetentionPolicy

	source  PolicySource
	metrics *Metrics
	logger  *zap.Logger
}

func NewRegistry(source PolicySource, metrics *Metrics, logger *zap.Logger) *Registry {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Registry{
		byID:    make(map[uuid.UUID]domain.RetentionPolicy),
		byTable: make(map[string]domain.RetentionPolicy),
		source:  source,
		metrics: metrics,
		logger:  logger.Named("registry"),
	}
}

// Refresh выполняет холодную загрузку всех активных политик и атомарно подменяет снимок.
func (r *Registry) Refresh(ctx context.Context) error {
	policies, err := r.source.GetActivePolicies(ctx)
	if err != nil {
		r.metrics.Refreshes.WithLabelValues("error").Inc()
		return err
	}

	byID := make(map[uuid.UUID]domain.RetentionPolicy, len(policies))
	byTable := make(map[string]domain.RetentionPolicy, len(policies))
	for _, p := range policies {
		if !p.IsActive {
			continue
		}
		byID[p.PolicyID] = p
		if cur, ok := byTable[p.TableName]; !ok || supersedes(p, cur) {
			byTable[p.TableName] = p
		}
	}

	r.mu.Lock()
	r.byID = byID
	r.byTable = byTable
	r.mu.Unlock()

	r.metrics.Refreshes.WithLabelValues("ok").Inc()
	r.metrics.CachedPolicies.Set(float64(len(byID)))
	r.metrics.LastRefresh.Set(float64(time.Now().Unix()))
	r.logger.Info("retention registry refreshed", zap.Int("count", len(byID)), zap.Int("tables", len(byTable)))
	return nil
}

// supersedes: на одну таблицу побеждает самая свежая политика,
// при равном created_at — с большим policy_id, независимо от порядка выдачи источника.
func supersedes(p, cur domain.RetentionPolicy) bool {
	if c := p.CreatedAt.Compare(cur.CreatedAt); c != 0 {
		return c > 0
	}
	return bytes.Compare(p.PolicyID[:], cur.PolicyID[:]) > 0
}

// ForTable возвращает действующую политику таблицы.
func (r *Registry) ForTable(table string) (domain.RetentionPolicy, bool) {
	r.mu.RLock()
	p, ok := r.byTable[table]
	r.mu.RUnlock()

	if ok {
		r.metrics.Lookups.WithLabelValues("hit").Inc()
	} else {
		r.metrics.Lookups.WithLabelValues("miss").Inc()
	}
	return p, ok
}

func (r *Registry) Get(id uuid.UUID) (domain.RetentionPolicy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

// All возвращает копию снимка, отсортированную по таблице и дате создания.
func (r *Registry) All() []domain.RetentionPolicy {
	r.mu.RLock()
	out := make([]domain.RetentionPolicy, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	r.mu.RUnlock()

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

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

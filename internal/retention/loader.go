package retention

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/vms-retention/internal/domain"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// seedFile — формат файла начальных политик:
//
//	policies:
//	  - table_name: events
//	    retention_months: 12
//	    archive_before_delete: true
type seedFile struct {
	Policies []seedPolicy `yaml:"policies"`
}

type seedPolicy struct {
	PolicyID            string     `yaml:"policy_id"`
	TableName           string     `yaml:"table_name"`
	RetentionMonths     int        `yaml:"retention_months"`
	ArchiveBeforeDelete bool       `yaml:"archive_before_delete"`
	IsActive            *bool      `yaml:"is_active"` // по умолчанию true
	CreatedAt           *time.Time `yaml:"created_at"`
}

// LoadSeedFile читает политики из YAML. Незаданные policy_id и created_at остаются нулевыми:
// их проставит сервис при создании.
func LoadSeedFile(path string) ([]domain.RetentionPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: failed to read %s: %w", path, err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) ([]domain.RetentionPolicy, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("seed: invalid yaml: %w", err)
	}

	out := make([]domain.RetentionPolicy, 0, len(f.Policies))
	for i, sp := range f.Policies {
		b := domain.NewRetentionPolicyBuilder().
			TableName(sp.TableName).
			RetentionMonths(sp.RetentionMonths).
			ArchiveBeforeDelete(sp.ArchiveBeforeDelete).
			IsActive(sp.IsActive == nil || *sp.IsActive)

		if sp.PolicyID != "" {
			id, err := uuid.Parse(sp.PolicyID)
			if err != nil {
				return nil, fmt.Errorf("seed: policy #%d: invalid policy_id: %w", i, err)
			}
			b.PolicyID(id)
		}
		if sp.CreatedAt != nil {
			b.CreatedAt(*sp.CreatedAt)
		}
		out = append(out, b.Build())
	}
	return out, nil
}

// PolicyWriter — то, что нужно Seed от админского сервиса.
type PolicyWriter interface {
	GetAll(ctx context.Context) ([]domain.RetentionPolicy, error)
	Create(ctx context.Context, p domain.RetentionPolicy) (domain.RetentionPolicy, error)
}

// Seed создаёт политики только для таблиц, у которых в реестре ещё нет ни одной политики,
// активной или выключенной: выключение политики админом переживает рестарт.
// Записи с уже существующим policy_id пропускаются, повторный запуск ничего не создаёт.
// Возвращает число созданных записей.
func Seed(ctx context.Context, w PolicyWriter, policies []domain.RetentionPolicy, logger *zap.Logger) (int, error) {
	existing, err := w.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	covered := make(map[string]struct{}, len(existing))
	known := make(map[uuid.UUID]struct{}, len(existing))
	for _, p := range existing {
		covered[p.TableName] = struct{}{}
		known[p.PolicyID] = struct{}{}
	}

	created := 0
	for _, p := range policies {
		if _, ok := known[p.PolicyID]; ok && p.PolicyID != uuid.Nil {
			logger.Debug("seed skipped: policy already exists", zap.Stringer("policy_id", p.PolicyID))
			continue
		}
		if _, ok := covered[p.TableName]; ok {
			logger.Debug("seed skipped: table already governed", zap.String("table", p.TableName))
			continue
		}
		stored, err := w.Create(ctx, p)
		if err != nil {
			return created, fmt.Errorf("seed: table %s: %w", p.TableName, err)
		}
		covered[stored.TableName] = struct{}{}
		known[stored.PolicyID] = struct{}{}
		created++
	}
	return created, nil
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/xela07ax/vms-retention/internal/audit"
	"github.com/xela07ax/vms-retention/internal/domain"
	"go.uber.org/zap"
)

// RetentionPolicyRepository описывает требования сервиса к хранилищу реестра
type RetentionPolicyRepository interface {
	GetPolicyByID(ctx context.Context, id uuid.UUID) (domain.RetentionPolicy, error)
	GetAllPolicies(ctx context.Context) ([]domain.RetentionPolicy, error)
	GetActivePolicies(ctx context.Context) ([]domain.RetentionPolicy, error)
	CreatePolicy(ctx context.Context, p domain.RetentionPolicy) error
	UpdatePolicy(ctx context.Context, p domain.RetentionPolicy) error
	DeletePolicy(ctx context.Context, id uuid.UUID) error
}

// Notifier будит остальные инстансы, чтобы они перечитали реестр.
type Notifier interface {
	NotifyUpdate(ctx context.Context) error
}

// Refresher — локальный кэш реестра этого же инстанса (retention.Registry).
type Refresher interface {
	Refresh(ctx context.Context) error
}

type RetentionPolicyService struct {
	repo        RetentionPolicyRepository
	notifier    Notifier
	refresher   Refresher
	auditor     audit.Auditor
	knownTables []string
	logger      *zap.Logger
	now         func() time.Time
}

func NewRetentionPolicyService(
	repo RetentionPolicyRepository,
	notifier Notifier,
	auditor audit.Auditor,
	knownTables []string,
	logger *zap.Logger,
) *RetentionPolicyService {
	return &RetentionPolicyService{
		repo:        repo,
		notifier:    notifier,
		auditor:     auditor,
		knownTables: knownTables,
		logger:      logger.Named("retention-service"),
		now:         time.Now,
	}
}

// WithLocalRefresh подключает кэш реестра своего инстанса: он перечитывается сразу после записи,
// не дожидаясь сигнала через Redis.
func (s *RetentionPolicyService) WithLocalRefresh(r Refresher) *RetentionPolicyService {
	s.refresher = r
	return s
}

func (s *RetentionPolicyService) GetByID(ctx context.Context, id uuid.UUID) (domain.RetentionPolicy, error) {
	return s.repo.GetPolicyByID(ctx, id)
}

// GetAll возвращает весь реестр из БД
func (s *RetentionPolicyService) GetAll(ctx context.Context) ([]domain.RetentionPolicy, error) {
	return s.repo.GetAllPolicies(ctx)
}

func (s *RetentionPolicyService) GetActive(ctx context.Context) ([]domain.RetentionPolicy, error) {
	return s.repo.GetActivePolicies(ctx)
}

// Create регистрирует новую политику. PolicyID и CreatedAt проставляются, если не заданы.
func (s *RetentionPolicyService) Create(ctx context.Context, p domain.RetentionPolicy) (domain.RetentionPolicy, error) {
	if p.PolicyID == uuid.Nil {
		p.PolicyID = uuid.New()
	} else if _, err := s.repo.GetPolicyByID(ctx, p.PolicyID); err == nil {
		return domain.RetentionPolicy{}, domain.ErrPolicyExists
	} else if !errors.Is(err, domain.ErrPolicyNotFound) {
		return domain.RetentionPolicy{}, err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}

	if err := domain.ValidateRetentionPolicy(p, s.knownTables); err != nil {
		return domain.RetentionPolicy{}, err
	}
	if err := s.repo.CreatePolicy(ctx, p); err != nil {
		return domain.RetentionPolicy{}, err
	}

	s.logger.Info("retention policy created",
		zap.Stringer("policy_id", p.PolicyID),
		zap.String("table", p.TableName),
		zap.Int("months", p.RetentionMonths),
	)
	s.record(ctx, audit.ActionCreate, p)
	s.notifyUpdate(ctx)
	return p, nil
}

// Update меняет изменяемые поля. PolicyID и CreatedAt всегда берутся из сохранённой записи.
func (s *RetentionPolicyService) Update(ctx context.Context, id uuid.UUID, changes domain.RetentionPolicy) (domain.RetentionPolicy, error) {
	stored, err := s.repo.GetPolicyByID(ctx, id)
	if err != nil {
		return domain.RetentionPolicy{}, err
	}

	updated := domain.NewRetentionPolicy(
		stored.PolicyID,
		changes.TableName,
		changes.RetentionMonths,
		changes.ArchiveBeforeDelete,
		changes.IsActive,
		stored.CreatedAt,
	)
	if err := domain.ValidateRetentionPolicy(updated, s.knownTables); err != nil {
		return domain.RetentionPolicy{}, err
	}
	if err := s.repo.UpdatePolicy(ctx, updated); err != nil {
		return domain.RetentionPolicy{}, err
	}

	s.logger.Info("retention policy updated", zap.Stringer("policy_id", updated.PolicyID))
	s.record(ctx, audit.ActionUpdate, updated)
	s.notifyUpdate(ctx)
	return updated, nil
}

// Delete убирает политику из реестра
func (s *RetentionPolicyService) Delete(ctx context.Context, id uuid.UUID) error {
	stored, err := s.repo.GetPolicyByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePolicy(ctx, id); err != nil {
		return err
	}

	s.logger.Info("retention policy deleted", zap.Stringer("policy_id", id), zap.String("table", stored.TableName))
	s.record(ctx, audit.ActionDelete, stored)
	s.notifyUpdate(ctx)
	return nil
}

func (s *RetentionPolicyService) record(ctx context.Context, action audit.Action, p domain.RetentionPolicy) {
	if s.auditor == nil {
		return
	}
	s.auditor.Log(audit.ChangeEvent{
		TraceID:   middleware.GetReqID(ctx),
		Action:    action,
		PolicyID:  p.PolicyID.String(),
		TableName: p.TableName,
		Snapshot:  p,
	})
}

// notifyUpdate перечитывает локальный кэш и шлёт широковещательный сигнал остальным.
// Ошибки не возвращаются: БД уже обновлена, а реестры перечитывают таблицу при переподключении к Redis.
func (s *RetentionPolicyService) notifyUpdate(ctx context.Context) {
	if s.refresher != nil {
		if err := s.refresher.Refresh(ctx); err != nil {
			s.logger.Warn("local registry refresh failed", zap.Error(err))
		}
	}
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyUpdate(ctx); err != nil {
		s.logger.Warn("policy update notification failed", zap.Error(err))
	}
}

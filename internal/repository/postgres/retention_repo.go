package postgres

/*
Файл retention_repo.go — долговременное хранение реестра политик хранения в PostgreSQL.
Шлюзы и движок очистки читают политики из памяти (retention.Registry),
сюда обращаются только админка и холодная загрузка кэша.
*/

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xela07ax/vms-retention/internal/domain"
)

const policyColumns = `policy_id, table_name, retention_months, archive_before_delete, is_active, created_at`

type RetentionPolicyRepo struct {
	pool *pgxpool.Pool
}

func NewRetentionPolicyRepo(pool *pgxpool.Pool) *RetentionPolicyRepo {
	return &RetentionPolicyRepo{pool: pool}
}

func scanPolicy(row pgx.Row) (domain.RetentionPolicy, error) {
	var p domain.RetentionPolicy
	err := row.Scan(&p.PolicyID, &p.TableName, &p.RetentionMonths, &p.ArchiveBeforeDelete, &p.IsActive, &p.CreatedAt)
	return p, err
}

func (r *RetentionPolicyRepo) GetPolicyByID(ctx context.Context, id uuid.UUID) (domain.RetentionPolicy, error) {
	query := `SELECT ` + policyColumns + ` FROM retention_policies WHERE policy_id = $1`

	p, err := scanPolicy(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RetentionPolicy{}, domain.ErrPolicyNotFound
		}
		return domain.RetentionPolicy{}, fmt.Errorf("postgres: failed to get retention policy: %w", err)
	}
	return p, nil
}

// GetAllPolicies отдаёт весь реестр, включая выключенные политики (для админки).
func (r *RetentionPolicyRepo) GetAllPolicies(ctx context.Context) ([]domain.RetentionPolicy, error) {
	return r.list(ctx, `SELECT `+policyColumns+` FROM retention_policies ORDER BY table_name, created_at, policy_id`)
}

// GetActivePolicies — холодная загрузка кэша реестра.
func (r *RetentionPolicyRepo) GetActivePolicies(ctx context.Context) ([]domain.RetentionPolicy, error) {
	return r.list(ctx, `SELECT `+policyColumns+` FROM retention_policies WHERE is_active ORDER BY table_name, created_at, policy_id`)
}

func (r *RetentionPolicyRepo) list(ctx context.Context, query string) ([]domain.RetentionPolicy, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list retention policies: %w", err)
	}
	defer rows.Close()

	var results []domain.RetentionPolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan retention policy: %w", err)
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func (r *RetentionPolicyRepo) CreatePolicy(ctx context.Context, p domain.RetentionPolicy) error {
	query := `
		INSERT INTO retention_policies (` + policyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		p.PolicyID, p.TableName, p.RetentionMonths, p.ArchiveBeforeDelete, p.IsActive, p.CreatedAt)
	if err != nil {
		return createErr(err)
	}
	return nil
}

// uniqueViolation — SQLSTATE нарушения PRIMARY KEY / UNIQUE.
const uniqueViolation = "23505"

// createErr сводит гонку двух вставок с одним policy_id к доменной ошибке.
func createErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("postgres: policy_id conflict (%s): %w", pgErr.ConstraintName, domain.ErrPolicyExists)
	}
	return fmt.Errorf("postgres: failed to create retention policy: %w", err)
}

// UpdatePolicy меняет всё, кроме policy_id и created_at.
func (r *RetentionPolicyRepo) UpdatePolicy(ctx context.Context, p domain.RetentionPolicy) error {
	query := `
		UPDATE retention_policies
		SET table_name = $1, retention_months = $2, archive_before_delete = $3, is_active = $4
		WHERE policy_id = $5`

	ct, err := r.pool.Exec(ctx, query, p.TableName, p.RetentionMonths, p.ArchiveBeforeDelete, p.IsActive, p.PolicyID)
	if err != nil {
		return fmt.Errorf("postgres: failed to update retention policy: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrPolicyNotFound
	}
	return nil
}

func (r *RetentionPolicyRepo) DeletePolicy(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM retention_policies WHERE policy_id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete retention policy: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrPolicyNotFound
	}
	return nil
}

// Ping проверяет доступность базы
func (r *RetentionPolicyRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

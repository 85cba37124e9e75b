package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/vms-retention/internal/audit"
	"github.com/xela07ax/vms-retention/internal/domain"
	"github.com/xela07ax/vms-retention/internal/infra"
	"go.uber.org/zap"
)

// Интеграционные тесты: нужен живой Postgres с применённой migrations/001_retention.sql.
// RETENTION_TEST_DB_URL=postgres://... go test ./internal/repository/postgres/...
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("RETENTION_TEST_DB_URL")
	if url == "" {
		t.Skip("RETENTION_TEST_DB_URL is not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, infra.DatabaseConfig{URL: url, ConnectAttempts: 1}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestNewPoolRequiresURL(t *testing.T) {
	_, err := NewPool(context.Background(), infra.DatabaseConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestCreateErrMapsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "retention_policies_pkey"}
	assert.ErrorIs(t, createErr(dup), domain.ErrPolicyExists)
	assert.ErrorIs(t, createErr(fmt.Errorf("exec: %w", dup)), domain.ErrPolicyExists)

	other := &pgconn.PgError{Code: "23502"}
	err := createErr(other)
	assert.NotErrorIs(t, err, domain.ErrPolicyExists)
	assert.ErrorIs(t, err, other)

	assert.NotErrorIs(t, createErr(errors.New("conn reset")), domain.ErrPolicyExists)
}

func TestListOrderIsDeterministic(t *testing.T) {
	pool := testPool(t)
	repo := NewRetentionPolicyRepo(pool)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Microsecond)
	table := "tie_" + uuid.NewString()[:8]
	hi := domain.NewRetentionPolicy(uuid.MustParse("ffffffff-0000-0000-0000-000000000000"), table, 1, false, true, created)
	lo := domain.NewRetentionPolicy(uuid.MustParse("00000000-ffff-0000-0000-000000000000"), table, 2, false, true, created)
	for _, p := range []domain.RetentionPolicy{hi, lo} {
		require.NoError(t, repo.CreatePolicy(ctx, p))
		t.Cleanup(func() { _ = repo.DeletePolicy(ctx, p.PolicyID) })
	}

	active, err := repo.GetActivePolicies(ctx)
	require.NoError(t, err)
	var ids []uuid.UUID
	for _, p := range active {
		if p.TableName == table {
			ids = append(ids, p.PolicyID)
		}
	}
	assert.Equal(t, []uuid.UUID{lo.PolicyID, hi.PolicyID}, ids)
}

func TestRetentionPolicyRepoLifecycle(t *testing.T) {
	pool := testPool(t)
	repo := NewRetentionPolicyRepo(pool)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Microsecond)
	p := domain.NewRetentionPolicy(uuid.New(), "events", 12, true, true, created)
	require.NoError(t, repo.CreatePolicy(ctx, p))
	t.Cleanup(func() { _ = repo.DeletePolicy(ctx, p.PolicyID) })
	assert.ErrorIs(t, repo.CreatePolicy(ctx, p), domain.ErrPolicyExists)

	got, err := repo.GetPolicyByID(ctx, p.PolicyID)
	require.NoError(t, err)
	assert.Equal(t, p.TableName, got.TableName)
	assert.True(t, created.Equal(got.CreatedAt))

	p.RetentionMonths = 6
	p.IsActive = false
	p.CreatedAt = created.Add(time.Hour) // должен игнорироваться
	require.NoError(t, repo.UpdatePolicy(ctx, p))

	got, err = repo.GetPolicyByID(ctx, p.PolicyID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.RetentionMonths)
	assert.False(t, got.IsActive)
	assert.True(t, created.Equal(got.CreatedAt))

	active, err := repo.GetActivePolicies(ctx)
	require.NoError(t, err)
	for _, a := range active {
		assert.NotEqual(t, p.PolicyID, a.PolicyID)
	}

	require.NoError(t, repo.DeletePolicy(ctx, p.PolicyID))
	_, err = repo.GetPolicyByID(ctx, p.PolicyID)
	assert.ErrorIs(t, err, domain.ErrPolicyNotFound)
	assert.ErrorIs(t, repo.DeletePolicy(ctx, p.PolicyID), domain.ErrPolicyNotFound)
	assert.ErrorIs(t, repo.UpdatePolicy(ctx, p), domain.ErrPolicyNotFound)
}

func TestChangeLogRepoWriteBatch(t *testing.T) {
	pool := testPool(t)
	repo := NewChangeLogRepo(pool)

	require.NoError(t, repo.WriteBatch(context.Background(), nil))
	err := repo.WriteBatch(context.Background(), []audit.ChangeEvent{{
		ID:        uuid.NewString(),
		Action:    audit.ActionCreate,
		PolicyID:  uuid.NewString(),
		TableName: "events",
		Timestamp: time.Now(),
	}})
	assert.NoError(t, err)
}

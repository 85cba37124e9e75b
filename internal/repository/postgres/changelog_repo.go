package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xela07ax/vms-retention/internal/audit"
)

type ChangeLogRepo struct {
	pool *pgxpool.Pool
}

func NewChangeLogRepo(pool *pgxpool.Pool) *ChangeLogRepo {
	return &ChangeLogRepo{pool: pool}
}

// WriteBatch пишет пачку событий одним INSERT.
func (r *ChangeLogRepo) WriteBatch(ctx context.Context, events []audit.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}

	const numFields = 7
	placeholders := make([]string, 0, len(events))
	vals := make([]interface{}, 0, len(events)*numFields)

	for i, e := range events {
		p := i * numFields
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7))

		snapshot, err := json.Marshal(e.Snapshot)
		if err != nil {
			return fmt.Errorf("postgres: failed to encode snapshot: %w", err)
		}

		vals = append(vals, e.ID, e.TraceID, string(e.Action), e.PolicyID, e.TableName, snapshot, e.Timestamp)
	}

	query := "INSERT INTO retention_policy_changes (id, trace_id, action, policy_id, table_name, snapshot, timestamp) VALUES " +
		strings.Join(placeholders, ",")

	if _, err := r.pool.Exec(ctx, query, vals...); err != nil {
		return fmt.Errorf("postgres: failed to write change batch: %w", err)
	}
	return nil
}

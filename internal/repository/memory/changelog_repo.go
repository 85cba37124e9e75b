package memory

import (
	"context"
	"sync"

	"github.com/xela07ax/vms-retention/internal/audit"
)

// ChangeLogRepo держит последние limit событий журнала изменений.
type ChangeLogRepo struct {
	mu     sync.Mutex
	limit  int
	events []audit.ChangeEvent
}

func NewChangeLogRepo(limit int) *ChangeLogRepo {
	if limit <= 0 {
		limit = 10000
	}
	return &ChangeLogRepo{limit: limit}
}

func (r *ChangeLogRepo) WriteBatch(_ context.Context, events []audit.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, events...)
	if over := len(r.events) - r.limit; over > 0 {
		r.events = append(r.events[:0:0], r.events[over:]...)
	}
	return nil
}

// Events возвращает копию накопленных событий, старые первыми.
func (r *ChangeLogRepo) Events() []audit.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.ChangeEvent(nil), r.events...)
}

package audit

/*
Файл changelog.go — журнал изменений реестра политик хранения.

- Запись не блокирует админские операции: события уходят в буферизованный канал.
- Пачки пишутся в хранилище по таймеру или при достижении лимита batchSize.
- Stop закрывает канал и ждёт, пока воркер вычитает остаток и сделает финальный flush.
*/

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const batchSize = 100

// StorageInterface определяет, куда физически сохраняются события
type StorageInterface interface {
	WriteBatch(ctx context.Context, events []ChangeEvent) error
}

type Auditor interface {
	Log(event ChangeEvent)
}

type ChangeLog struct {
	ch            chan ChangeEvent
	repo          StorageInterface
	logger        *zap.Logger
	flushInterval time.Duration
	wg            sync.WaitGroup

	// mu: Log держит RLock на время отправки, Stop берёт Lock на закрытие канала
	mu     sync.RWMutex
	closed bool
}

func NewChangeLog(repo StorageInterface, bufferSize int, flushInterval time.Duration, logger *zap.Logger) *ChangeLog {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &ChangeLog{
		ch:            make(chan ChangeEvent, bufferSize),
		repo:          repo,
		logger:        logger.With(zap.String("mod", "changelog")),
		flushInterval: flushInterval,
	}
}

func (l *ChangeLog) Start() {
	l.wg.Add(1)
	go l.worker()
}

// Stop запирает вход и ждёт, пока воркер всё допишет.
func (l *ChangeLog) Stop() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.logger.Info("stopping changelog: closing channel and flushing buffer...")
	close(l.ch)
	l.mu.Unlock()

	l.wg.Wait()
	l.logger.Info("changelog stopped gracefully")
}

func (l *ChangeLog) Log(event ChangeEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.logger.Warn("change event dropped: changelog is stopping", zap.String("id", event.ID))
		return
	}

	// Load Shedding: при переполнении событие уходит только в лог
	select {
	case l.ch <- event:
	default:
		l.logger.Error("changelog_buffer_overflow",
			zap.String("policy_id", event.PolicyID),
			zap.String("action", string(event.Action)),
			zap.String("trace_id", event.TraceID),
		)
	}
}

func (l *ChangeLog) worker() {
	defer l.wg.Done()

	batch := make([]ChangeEvent, 0, batchSize)
	ticker := time.NewTicker(l.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			// Background: основной контекст может быть уже закрыт
			if err := l.repo.WriteBatch(context.Background(), batch); err != nil {
				l.logger.Error("changelog flush failed", zap.Int("events", len(batch)), zap.Error(err))
			}
			batch = batch[:0]
		}
	}

	for {
		select {
		case event, ok := <-l.ch:
			if !ok {
				flush()
				l.logger.Info("changelog worker finished")
				return
			}
			batch = append(batch, event)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

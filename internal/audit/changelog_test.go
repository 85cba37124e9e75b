package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStorage struct {
	mu      sync.Mutex
	batches [][]ChangeEvent
	err     error
}

func (m *memStorage) WriteBatch(_ context.Context, events []ChangeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]ChangeEvent, len(events))
	copy(cp, events)
	m.batches = append(m.batches, cp)
	return m.err
}

func (m *memStorage) events() []ChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []ChangeEvent
	for _, b := range m.batches {
		all = append(all, b...)
	}
	return all
}

func TestChangeLogFlushesOnStop(t *testing.T) {
	store := &memStorage{}
	cl := NewChangeLog(store, 10, time.Hour, zap.NewNop())
	cl.Start()

	cl.Log(ChangeEvent{Action: ActionCreate, PolicyID: "p1", TableName: "events"})
	cl.Log(ChangeEvent{Action: ActionDelete, PolicyID: "p1", TableName: "events"})
	cl.Stop()

	got := store.events()
	require.Len(t, got, 2)
	assert.Equal(t, ActionCreate, got[0].Action)
	assert.Equal(t, ActionDelete, got[1].Action)
	for _, e := range got {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestChangeLogFlushesOnTicker(t *testing.T) {
	store := &memStorage{}
	cl := NewChangeLog(store, 10, 20*time.Millisecond, zap.NewNop())
	cl.Start()
	defer cl.Stop()

	cl.Log(ChangeEvent{Action: ActionUpdate, PolicyID: "p2"})

	assert.Eventually(t, func() bool { return len(store.events()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestChangeLogDropsAfterStop(t *testing.T) {
	store := &memStorage{}
	cl := NewChangeLog(store, 10, time.Hour, zap.NewNop())
	cl.Start()
	cl.Stop()
	cl.Stop()

	cl.Log(ChangeEvent{Action: ActionCreate, PolicyID: "late"})
	assert.Empty(t, store.events())
}

func TestChangeLogSurvivesStorageError(t *testing.T) {
	store := &memStorage{err: errors.New("db down")}
	cl := NewChangeLog(store, 10, time.Hour, zap.NewNop())
	cl.Start()

	cl.Log(ChangeEvent{Action: ActionCreate, PolicyID: "p3"})
	cl.Stop()

	assert.Len(t, store.events(), 1)
}

func TestChangeLogSheddingWhenFull(t *testing.T) {
	store := &memStorage{}
	// воркер не запущен — канал заполнится
	cl := NewChangeLog(store, 1, time.Hour, zap.NewNop())

	cl.Log(ChangeEvent{PolicyID: "a"})
	cl.Log(ChangeEvent{PolicyID: "b"})

	assert.Len(t, cl.ch, 1)
}

func TestChangeLogStopRacesWithLog(t *testing.T) {
	for i := 0; i < 50; i++ {
		store := &memStorage{}
		cl := NewChangeLog(store, 1000, time.Hour, zap.NewNop())
		cl.Start()

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					cl.Log(ChangeEvent{Action: ActionUpdate, PolicyID: "p"})
				}
			}()
		}
		// Stop посреди отправок не должен приводить к send on closed channel
		require.NotPanics(t, cl.Stop)
		wg.Wait()

		assert.LessOrEqual(t, len(store.events()), 8*20)
	}
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSyncer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	panic map[string]bool
	block chan struct{}
}

func (s *stubSyncer) ReconcileAll(ctx context.Context, tenantID string) (AllResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, tenantID)
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	if s.panic[tenantID] {
		panic("boom")
	}
	return AllResult{}, s.fail[tenantID]
}

func TestRunCycleContinuesAfterFailures(t *testing.T) {
	repo := newStubRepo()
	repo.addTenant("a", "alpha", "tok")
	repo.addTenant("b", "beta", "tok")
	repo.addTenant("c", "gamma", "tok")
	repo.addTenant("d", "delta", "")
	syncer := &stubSyncer{
		fail:  map[string]error{"a": errors.New("db down")},
		panic: map[string]bool{"b": true},
	}
	s := &Scheduler{Tenants: repo, Syncer: syncer}

	res := s.RunCycle(context.Background())
	assert.False(t, res.Skipped)
	assert.Equal(t, 3, res.Tenants)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, []string{"a", "b", "c"}, syncer.calls)
	assert.False(t, s.Running())
}

func TestRunCycleSkipsWhileRunning(t *testing.T) {
	repo := newStubRepo()
	repo.addTenant("a", "alpha", "tok")
	syncer := &stubSyncer{block: make(chan struct{})}
	s := &Scheduler{Tenants: repo, Syncer: syncer}

	done := make(chan CycleResult)
	go func() { done <- s.RunCycle(context.Background()) }()
	require.Eventually(t, s.Running, timeoutShort, tick)

	second := s.RunCycle(context.Background())
	assert.True(t, second.Skipped)

	close(syncer.block)
	first := <-done
	assert.False(t, first.Skipped)
	assert.Equal(t, 1, repo.listTenantsN)
}

func TestRunCycleStopsOnCanceledContext(t *testing.T) {
	repo := newStubRepo()
	repo.addTenant("a", "alpha", "tok")
	syncer := &stubSyncer{}
	s := &Scheduler{Tenants: repo, Syncer: syncer}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := s.RunCycle(ctx)
	assert.Zero(t, res.Tenants)
	assert.Empty(t, syncer.calls)
}

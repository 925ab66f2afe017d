package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"shopmirror/internal/metrics"
	"shopmirror/internal/models"
)

type TenantLister interface {
	ListTenantsWithAccessToken(ctx context.Context) ([]models.Tenant, error)
}

type TenantSyncer interface {
	ReconcileAll(ctx context.Context, tenantID string) (AllResult, error)
}

type CycleResult struct {
	Skipped    bool
	Tenants    int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Scheduler runs one full sync for every tenant holding an access token.
// Tenants are processed one after another; a failing tenant never stops the
// cycle.
type Scheduler struct {
	Tenants TenantLister
	Syncer  TenantSyncer
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Now     func() time.Time

	running atomic.Bool
}

func (s *Scheduler) RunCycle(ctx context.Context) CycleResult {
	res := CycleResult{StartedAt: s.now()}
	log := s.log()
	if !s.running.CompareAndSwap(false, true) {
		log.Warn("sync cycle skipped, previous cycle still running")
		s.Metrics.IncCycle("skipped")
		res.Skipped = true
		res.FinishedAt = res.StartedAt
		return res
	}
	defer s.running.Store(false)

	tenants, err := s.Tenants.ListTenantsWithAccessToken(ctx)
	if err != nil {
		log.Error("sync cycle list tenants failed", zap.Error(err))
		s.Metrics.IncCycle("failed")
		res.FinishedAt = s.now()
		return res
	}
	log.Info("sync cycle started", zap.Int("tenants", len(tenants)))

	for i := range tenants {
		if ctx.Err() != nil {
			log.Info("sync cycle stopped", zap.Error(ctx.Err()))
			break
		}
		tenant := tenants[i]
		if !tenant.HasAccessToken() {
			continue
		}
		res.Tenants++
		result, err := s.syncTenant(ctx, tenant.ID)
		if err != nil {
			res.Failed++
			log.Error("tenant sync failed", zap.String("tenant_id", tenant.ID), zap.Error(err))
			continue
		}
		log.Info("tenant sync finished",
			zap.String("tenant_id", tenant.ID),
			zap.Any("result", result),
		)
	}

	res.FinishedAt = s.now()
	s.Metrics.IncCycle("completed")
	log.Info("sync cycle finished",
		zap.Int("tenants", res.Tenants),
		zap.Int("failed", res.Failed),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)),
	)
	return res
}

func (s *Scheduler) syncTenant(ctx context.Context, tenantID string) (result AllResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return s.Syncer.ReconcileAll(ctx, tenantID)
}

// Running reports whether a cycle is in progress.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Scheduler) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

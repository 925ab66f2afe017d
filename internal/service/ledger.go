package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"shopmirror/internal/client/shopify"
	"shopmirror/internal/models"
	"shopmirror/internal/repository"
)

const (
	defaultStatusLimit = 20
	maxStatusLimit     = 200
	subscriberBuffer   = 32
)

type SyncStatus struct {
	RecentLogs []models.SyncLog             `json:"recent_logs"`
	Summary    []repository.SyncLogSummary `json:"summary"`
}

// Ledger appends one SyncLog per sync attempt and fans recorded rows out to
// live subscribers of the same tenant.
type Ledger struct {
	Repo   repository.SyncLogRepository
	Logger *zap.Logger
	Now    func() time.Time

	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
}

type subscription struct {
	ch     chan models.SyncLog
	closed bool
}

func NewLedger(repo repository.SyncLogRepository, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{Repo: repo, Logger: logger}
}

func (l *Ledger) Record(ctx context.Context, tenantID string, kind shopify.Kind, status string, count int, errMsg string) (*models.SyncLog, error) {
	if l == nil || l.Repo == nil {
		return nil, fmt.Errorf("ledger not configured")
	}
	if count < 0 {
		count = 0
	}
	row := &models.SyncLog{
		TenantID:     tenantID,
		SyncType:     string(kind),
		Status:       status,
		RecordsCount: count,
		CreatedAt:    l.now(),
	}
	if msg := strings.TrimSpace(errMsg); msg != "" {
		row.ErrorMessage = &msg
	}
	if err := l.Repo.InsertSyncLog(ctx, row); err != nil {
		return nil, fmt.Errorf("record sync log: %w", err)
	}
	l.publish(*row)
	return row, nil
}

func (l *Ledger) Status(ctx context.Context, tenantID string, limit int) (SyncStatus, error) {
	if l == nil || l.Repo == nil {
		return SyncStatus{}, fmt.Errorf("ledger not configured")
	}
	if limit <= 0 {
		limit = defaultStatusLimit
	}
	if limit > maxStatusLimit {
		limit = maxStatusLimit
	}
	logs, err := l.Repo.ListRecentSyncLogs(ctx, tenantID, limit)
	if err != nil {
		return SyncStatus{}, fmt.Errorf("list sync logs: %w", err)
	}
	summary, err := l.Repo.SummarizeSyncLogs(ctx, tenantID)
	if err != nil {
		return SyncStatus{}, fmt.Errorf("summarize sync logs: %w", err)
	}
	if logs == nil {
		logs = []models.SyncLog{}
	}
	if summary == nil {
		summary = []repository.SyncLogSummary{}
	}
	return SyncStatus{RecentLogs: logs, Summary: summary}, nil
}

// Subscribe returns a channel of rows recorded for tenantID from now on.
// The channel is closed by cancel, or by the ledger when the reader falls
// behind.
func (l *Ledger) Subscribe(tenantID string) (<-chan models.SyncLog, func()) {
	sub := &subscription{ch: make(chan models.SyncLog, subscriberBuffer)}
	l.mu.Lock()
	if l.subs == nil {
		l.subs = make(map[string]map[*subscription]struct{})
	}
	if l.subs[tenantID] == nil {
		l.subs[tenantID] = make(map[*subscription]struct{})
	}
	l.subs[tenantID][sub] = struct{}{}
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.dropLocked(tenantID, sub)
	}
	return sub.ch, cancel
}

func (l *Ledger) publish(row models.SyncLog) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for sub := range l.subs[row.TenantID] {
		select {
		case sub.ch <- row:
		default:
			l.log().Warn("ledger subscriber too slow, dropping",
				zap.String("tenant_id", row.TenantID),
			)
			l.dropLocked(row.TenantID, sub)
		}
	}
}

func (l *Ledger) dropLocked(tenantID string, sub *subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
	delete(l.subs[tenantID], sub)
	if len(l.subs[tenantID]) == 0 {
		delete(l.subs, tenantID)
	}
}

func (l *Ledger) log() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

func (l *Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopmirror/internal/client/shopify"
	"shopmirror/internal/models"
	"shopmirror/internal/repository"
)

func TestLedgerStatusGroupsByKindAndStatus(t *testing.T) {
	repo := newStubRepo()
	l := NewLedger(repo, nil)
	ctx := context.Background()

	_, err := l.Record(ctx, "t1", shopify.KindCustomers, models.SyncStatusSuccess, 4, "")
	require.NoError(t, err)
	_, err = l.Record(ctx, "t1", shopify.KindCustomers, models.SyncStatusSuccess, 2, "")
	require.NoError(t, err)
	_, err = l.Record(ctx, "t1", shopify.KindOrders, models.SyncStatusFailed, 0, "boom")
	require.NoError(t, err)
	_, err = l.Record(ctx, "t2", shopify.KindOrders, models.SyncStatusSuccess, 1, "")
	require.NoError(t, err)

	st, err := l.Status(ctx, "t1", 0)
	require.NoError(t, err)
	require.Len(t, st.RecentLogs, 3)
	assert.Equal(t, models.SyncTypeOrders, st.RecentLogs[0].SyncType)
	assert.Equal(t, []repository.SyncLogSummary{
		{SyncType: models.SyncTypeCustomers, Status: models.SyncStatusSuccess, Count: 2},
		{SyncType: models.SyncTypeOrders, Status: models.SyncStatusFailed, Count: 1},
	}, st.Summary)

	limited, err := l.Status(ctx, "t1", 1)
	require.NoError(t, err)
	assert.Len(t, limited.RecentLogs, 1)
}

func TestLedgerStatusEmptyTenant(t *testing.T) {
	l := NewLedger(newStubRepo(), nil)
	st, err := l.Status(context.Background(), "nobody", 20)
	require.NoError(t, err)
	assert.NotNil(t, st.RecentLogs)
	assert.NotNil(t, st.Summary)
	assert.Empty(t, st.RecentLogs)
}

func TestLedgerFanOutIsPerTenant(t *testing.T) {
	l := NewLedger(newStubRepo(), nil)
	ch1, cancel1 := l.Subscribe("t1")
	defer cancel1()
	ch2, cancel2 := l.Subscribe("t2")
	defer cancel2()

	_, err := l.Record(context.Background(), "t1", shopify.KindProducts, models.SyncStatusSuccess, 3, "")
	require.NoError(t, err)

	select {
	case row := <-ch1:
		assert.Equal(t, 3, row.RecordsCount)
	default:
		t.Fatal("t1 subscriber got nothing")
	}
	select {
	case row := <-ch2:
		t.Fatalf("t2 subscriber got %+v", row)
	default:
	}
}

func TestLedgerDropsSlowSubscriber(t *testing.T) {
	l := NewLedger(newStubRepo(), nil)
	ch, cancel := l.Subscribe("t1")
	ctx := context.Background()
	for i := 0; i < subscriberBuffer+1; i++ {
		_, err := l.Record(ctx, "t1", shopify.KindOrders, models.SyncStatusSuccess, i, "")
		require.NoError(t, err)
	}
	n := 0
	for range ch {
		n++
	}
	assert.Equal(t, subscriberBuffer, n)
	cancel()
}

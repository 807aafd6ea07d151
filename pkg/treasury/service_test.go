package treasury

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/viamover/moverd/internal/services/db"
	"github.com/viamover/moverd/internal/services/moverapi"
	"github.com/viamover/moverd/pkg/mover"
	"github.com/viamover/moverd/pkg/queue"
)

var account = common.HexToAddress("0x480Fbe37526226b6c6E2a7AfA449cDf661939D2f")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeSource struct {
	mu           sync.Mutex
	infoCalls    int
	receiptCalls int
	err          error
}

func (f *fakeSource) TreasuryInfo(ctx context.Context, address common.Address) (*moverapi.TreasuryInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &moverapi.TreasuryInfo{EarnedTotal: float64(f.infoCalls)}, nil
}

func (f *fakeSource) TreasuryReceipt(ctx context.Context, address common.Address, year, month int) (*moverapi.TreasuryReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiptCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &moverapi.TreasuryReceipt{TotalAmountEarned: float64(year*100 + month)}, nil
}

type fakeQueue struct {
	messages []queue.Message
}

func (q *fakeQueue) Enqueue(m queue.Message) error {
	q.messages = append(q.messages, m)
	return nil
}

type fakeTracker struct {
	errs []error
}

func (t *fakeTracker) CaptureException(err error)             { t.errs = append(t.errs, err) }
func (t *fakeTracker) AddBreadcrumb(category, message string) {}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2023, time.March, 15, 12, 0, 0, 0, time.UTC)}
}

func TestInfoCache(t *testing.T) {
	clock := newClock()
	src := &fakeSource{}
	store := db.NewMemoryStore(clock)
	s := NewService(account, src, store, nil, nil, clock)
	ctx := context.Background()

	info, err := s.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, 1.0, info.EarnedTotal)

	clock.Advance(InfoTTL - time.Second)
	info, err = s.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, 1.0, info.EarnedTotal)
	require.Equal(t, 1, src.infoCalls)

	clock.Advance(2 * time.Second)
	info, err = s.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, 2.0, info.EarnedTotal)

	var persisted moverapi.TreasuryInfo
	ok, err := store.Get(ctx, mover.PersistKey(account, "treasury", "info"), &persisted)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2.0, persisted.EarnedTotal)
}

func TestInfoError(t *testing.T) {
	clock := newClock()
	tracker := &fakeTracker{}
	src := &fakeSource{err: errors.New("unavailable")}
	s := NewService(account, src, db.NewMemoryStore(clock), nil, tracker, clock)

	_, err := s.Info(context.Background())
	require.ErrorIs(t, err, src.err)
	require.Len(t, tracker.errs, 1)
}

func TestReceiptPersistedThroughQueue(t *testing.T) {
	clock := newClock()
	src := &fakeSource{}
	store := db.NewMemoryStore(clock)
	q := &fakeQueue{}
	s := NewService(account, src, store, q, nil, clock)
	ctx := context.Background()

	receipt, err := s.Receipt(ctx, 2023, 2)
	require.NoError(t, err)
	require.Equal(t, 202302.0, receipt.TotalAmountEarned)

	_, err = s.Receipt(ctx, 2023, 2)
	require.NoError(t, err)
	require.Equal(t, 1, src.receiptCalls)

	require.Len(t, q.messages, 1)
	require.Equal(t, mover.PersistKey(account, "treasuryReceipts", "2023/2"), q.messages[0].ID)

	key := mover.PersistKey(account, "treasuryReceipts", "2023/2")
	var persisted moverapi.TreasuryReceipt
	ok, err := store.Get(ctx, key, &persisted)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Process(ctx, q.messages[0]))

	ok, err = store.Get(ctx, key, &persisted)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 202302.0, persisted.TotalAmountEarned)

	clock.Advance(ReceiptTTL)
	ok, err = store.Get(ctx, key, &persisted)
	require.NoError(t, err)
	require.False(t, ok)

	require.Error(t, s.Process(ctx, queue.NewMessage("bad", "not a persist item")))
}

func TestRestore(t *testing.T) {
	clock := newClock()
	store := db.NewMemoryStore(clock)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, mover.PersistKey(account, "treasury", "info"), moverapi.TreasuryInfo{EarnedTotal: 42}, InfoTTL))
	require.NoError(t, store.Set(ctx, mover.PersistKey(account, "treasuryReceipts", "2023/1"), moverapi.TreasuryReceipt{TotalAmountEarned: 7}, ReceiptTTL))
	// older than a year
	require.NoError(t, store.Set(ctx, mover.PersistKey(account, "treasuryReceipts", "2022/3"), moverapi.TreasuryReceipt{TotalAmountEarned: 8}, ReceiptTTL))

	src := &fakeSource{}
	s := NewService(account, src, store, nil, nil, clock)
	require.NoError(t, s.Restore(ctx))

	info, err := s.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, 42.0, info.EarnedTotal)

	receipt, err := s.Receipt(ctx, 2023, 1)
	require.NoError(t, err)
	require.Equal(t, 7.0, receipt.TotalAmountEarned)

	receipt, err = s.Receipt(ctx, 2022, 3)
	require.NoError(t, err)
	require.Equal(t, 202203.0, receipt.TotalAmountEarned)

	require.Equal(t, 0, src.infoCalls)
	require.Equal(t, 1, src.receiptCalls)

	s.ClearCache()
	_, err = s.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, src.infoCalls)
}

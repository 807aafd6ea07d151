package treasury

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/viamover/moverd/internal/services/moverapi"
	"github.com/viamover/moverd/pkg/mover"
	"github.com/viamover/moverd/pkg/queue"
	"golang.org/x/sync/singleflight"
)

const (
	InfoTTL    = 5 * time.Minute
	ReceiptTTL = 10 * time.Minute

	infoNamespace     = "treasury"
	receiptsNamespace = "treasuryReceipts"
	infoKey           = "info"

	// receipts of this many past months are restored on start
	restoreMonths = 12
)

type Source interface {
	TreasuryInfo(ctx context.Context, address common.Address) (*moverapi.TreasuryInfo, error)
	TreasuryReceipt(ctx context.Context, address common.Address, year, month int) (*moverapi.TreasuryReceipt, error)
}

// Enqueuer hands persist jobs to a background queue
type Enqueuer interface {
	Enqueue(message queue.Message) error
}

type entry[T any] struct {
	value     *T
	expiresAt time.Time
}

func (e entry[T]) valid(now time.Time) bool {
	return e.value != nil && now.Before(e.expiresAt)
}

// persistItem is the payload of a persist job
type persistItem struct {
	Key   string
	Value any
	TTL   time.Duration
}

// Service caches the treasury info and monthly receipts of one account
type Service struct {
	account common.Address
	src     Source
	store   mover.ExpiringStore
	queue   Enqueuer
	tracker mover.ErrorTracker
	clock   mover.Clock

	mu       sync.Mutex
	info     entry[moverapi.TreasuryInfo]
	receipts map[string]entry[moverapi.TreasuryReceipt]

	group singleflight.Group
}

// NewService persists synchronously when q is nil
func NewService(account common.Address, src Source, store mover.ExpiringStore, q Enqueuer, t mover.ErrorTracker, c mover.Clock) *Service {
	if t == nil {
		t = mover.NopTracker
	}
	if c == nil {
		c = mover.SystemClock
	}

	return &Service{
		account:  account,
		src:      src,
		store:    store,
		queue:    q,
		tracker:  t,
		clock:    c,
		receipts: map[string]entry[moverapi.TreasuryReceipt]{},
	}
}

func receiptKey(year, month int) string {
	return fmt.Sprintf("%d/%d", year, month)
}

// Restore loads the persisted info and the receipts of the last months.
// Restored entries stay valid for a full ttl.
func (s *Service) Restore(ctx context.Context) error {
	now := s.clock.Now()

	var info moverapi.TreasuryInfo
	ok, err := s.store.Get(ctx, mover.PersistKey(s.account, infoNamespace, infoKey), &info)
	if err != nil {
		return err
	}
	if ok {
		s.mu.Lock()
		s.info = entry[moverapi.TreasuryInfo]{&info, now.Add(InfoTTL)}
		s.mu.Unlock()
	}

	restored := 0
	for i := 0; i < restoreMonths; i++ {
		t := now.AddDate(0, -i, 0)
		key := receiptKey(t.Year(), int(t.Month()))

		var receipt moverapi.TreasuryReceipt
		ok, err := s.store.Get(ctx, mover.PersistKey(s.account, receiptsNamespace, key), &receipt)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		s.mu.Lock()
		s.receipts[key] = entry[moverapi.TreasuryReceipt]{&receipt, now.Add(ReceiptTTL)}
		s.mu.Unlock()
		restored++
	}

	log.Info().Str("account", s.account.Hex()).Bool("info", ok).Int("receipts", restored).Msg("treasury restored")

	return nil
}

// Info returns the cached treasury info, fetching it when stale
func (s *Service) Info(ctx context.Context) (*moverapi.TreasuryInfo, error) {
	s.mu.Lock()
	cached := s.info
	s.mu.Unlock()

	if cached.valid(s.clock.Now()) {
		return cached.value, nil
	}

	v, err, _ := s.group.Do(infoKey, func() (any, error) {
		info, err := s.src.TreasuryInfo(ctx, s.account)
		if err != nil {
			return nil, fmt.Errorf("can't get treasury info: %w", err)
		}

		s.mu.Lock()
		s.info = entry[moverapi.TreasuryInfo]{info, s.clock.Now().Add(InfoTTL)}
		s.mu.Unlock()

		s.persist(ctx, mover.PersistKey(s.account, infoNamespace, infoKey), info, InfoTTL)

		return info, nil
	})
	if err != nil {
		s.tracker.CaptureException(err)
		return nil, err
	}

	return v.(*moverapi.TreasuryInfo), nil
}

// Receipt returns the receipt of the month, fetching it when stale
func (s *Service) Receipt(ctx context.Context, year, month int) (*moverapi.TreasuryReceipt, error) {
	key := receiptKey(year, month)

	s.mu.Lock()
	cached := s.receipts[key]
	s.mu.Unlock()

	if cached.valid(s.clock.Now()) {
		return cached.value, nil
	}

	v, err, _ := s.group.Do("receipt:"+key, func() (any, error) {
		receipt, err := s.src.TreasuryReceipt(ctx, s.account, year, month)
		if err != nil {
			return nil, fmt.Errorf("can't get treasury receipt %s: %w", key, err)
		}

		s.mu.Lock()
		s.receipts[key] = entry[moverapi.TreasuryReceipt]{receipt, s.clock.Now().Add(ReceiptTTL)}
		s.mu.Unlock()

		s.persist(ctx, mover.PersistKey(s.account, receiptsNamespace, key), receipt, ReceiptTTL)

		return receipt, nil
	})
	if err != nil {
		s.tracker.CaptureException(err)
		return nil, err
	}

	return v.(*moverapi.TreasuryReceipt), nil
}

// ClearCache drops every cached entry, persisted values are kept
func (s *Service) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.info = entry[moverapi.TreasuryInfo]{}
	s.receipts = map[string]entry[moverapi.TreasuryReceipt]{}
}

func (s *Service) persist(ctx context.Context, key string, value any, ttl time.Duration) {
	item := persistItem{Key: key, Value: value, TTL: ttl}

	if s.queue == nil {
		if err := s.store.Set(ctx, key, value, ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("error persisting treasury data")
		}
		return
	}

	if err := s.queue.Enqueue(queue.NewMessage(key, item)); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("error queueing treasury data")
	}
}

// Process writes queued persist jobs to the store
func (s *Service) Process(ctx context.Context, message queue.Message) error {
	item, ok := message.Message.(persistItem)
	if !ok {
		return fmt.Errorf("invalid persist message %s", message.ID)
	}

	return s.store.Set(ctx, item.Key, item.Value, item.TTL)
}

package governance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/viamover/moverd/pkg/mover"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCachePeriod                      = 300 * time.Second
	DefaultMinimumVotingThresholdMultiplier = 0.1
	DefaultProposalDurationDays             = 3
	DefaultMaxParallelLoads                 = 8
	DefaultLoadTimeout                      = 60 * time.Second

	governanceKey      = "governance"
	votingPowerSelfKey = "votingPowerSelf"
)

type Config struct {
	SpaceID                          string
	CachePeriod                      time.Duration
	MinimumVotingThresholdMultiplier float64
	ProposalDurationDays             int
	MaxParallelLoads                 int
	LoadTimeout                      time.Duration
}

func (c Config) withDefaults() Config {
	if c.CachePeriod <= 0 {
		c.CachePeriod = DefaultCachePeriod
	}
	if c.MinimumVotingThresholdMultiplier <= 0 {
		c.MinimumVotingThresholdMultiplier = DefaultMinimumVotingThresholdMultiplier
	}
	if c.ProposalDurationDays <= 0 {
		c.ProposalDurationDays = DefaultProposalDurationDays
	}
	if c.MaxParallelLoads <= 0 {
		c.MaxParallelLoads = DefaultMaxParallelLoads
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = DefaultLoadTimeout
	}
	return c
}

// Deps are the collaborators of an Aggregator. Wallet and Account may be
// empty when no wallet is connected.
type Deps struct {
	Source  Source
	Power   PowerSource
	Wallet  mover.Wallet
	Tracker mover.ErrorTracker
	Clock   mover.Clock
	Account common.Address
}

// Aggregator caches governance data of one session
type Aggregator struct {
	cfg Config

	source  Source
	power   PowerSource
	wallet  mover.Wallet
	tracker mover.ErrorTracker
	clock   mover.Clock
	account common.Address

	mu                          sync.RWMutex
	items                       map[string]*ProposalInfo
	cacheInfo                   CacheInfoMap
	genericCacheInfo            CacheInfoMap
	space                       *Space
	powerNeededToBecomeProposer float64
	communityVotingPower        float64
	votingPowerSelf             float64
	err                         error

	loadingAll atomic.Bool
	inflight   singleflight.Group
}

func New(cfg Config, deps Deps) *Aggregator {
	if deps.Tracker == nil {
		deps.Tracker = mover.NopTracker
	}
	if deps.Clock == nil {
		deps.Clock = mover.SystemClock
	}

	return &Aggregator{
		cfg:              cfg.withDefaults(),
		source:           deps.Source,
		power:            deps.Power,
		wallet:           deps.Wallet,
		tracker:          deps.Tracker,
		clock:            deps.Clock,
		account:          deps.Account,
		items:            map[string]*ProposalInfo{},
		cacheInfo:        CacheInfoMap{},
		genericCacheInfo: CacheInfoMap{},
	}
}

func (a *Aggregator) hasAccount() bool {
	return a.account != (common.Address{})
}

func (a *Aggregator) accountKey() string {
	return strings.ToLower(a.account.Hex())
}

func (a *Aggregator) report(err error) {
	a.tracker.CaptureException(err)
}

// detachedContext keeps the values of its parent but is never cancelled
type detachedContext struct {
	parent context.Context
}

func (detachedContext) Deadline() (time.Time, bool) { return time.Time{}, false }
func (detachedContext) Done() <-chan struct{} { return nil }
func (detachedContext) Err() error { return nil }
func (c detachedContext) Value(key any) any { return c.parent.Value(key) }

// share runs fn once per key for all concurrent callers. fn runs on a context
// detached from ctx, so a caller that gives up only stops waiting while the
// fetch and its cache write complete for everyone else.
func (a *Aggregator) share(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, bool, error) {
	ch := a.inflight.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(detachedContext{parent: ctx}, a.cfg.LoadTimeout)
		defer cancel()

		return fn(lctx)
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	}
}

// cached returns the entry for id if it is still valid
func (a *Aggregator) cached(id string) (*ProposalInfo, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	item, ok := a.items[id]
	if !ok {
		return nil, false
	}

	if !a.cacheInfo.IsValid(id, a.cfg.CachePeriod, a.clock.Now()) {
		return nil, false
	}

	return item, true
}

func (a *Aggregator) upsert(item *ProposalInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.items[item.Proposal.ID] = item
	a.cacheInfo[item.Proposal.ID] = a.clock.Now()
}

// LoadProposalInfo returns the proposal from the cache while it is valid and
// fetches it otherwise. Concurrent loads of the same id share one fetch.
func (a *Aggregator) LoadProposalInfo(ctx context.Context, id string, refetch bool) (*ProposalInfo, error) {
	if !refetch {
		if item, ok := a.cached(id); ok {
			return item, nil
		}
	}

	key := "proposal:" + id
	if refetch {
		a.inflight.Forget(key)
	}

	v, _, err := a.share(ctx, key, func(ctx context.Context) (any, error) {
		item, err := a.fetchProposalInfo(ctx, id)
		if err != nil {
			a.report(fmt.Errorf("load proposal %s: %w", id, err))
			return nil, err
		}
		return item, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*ProposalInfo), nil
}

// fetchProposalInfo commits nothing unless every sub fetch succeeded
func (a *Aggregator) fetchProposalInfo(ctx context.Context, id string) (*ProposalInfo, error) {
	pv, err := a.source.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	if pv == nil || pv.Proposal == nil {
		return nil, ErrProposalNotFound
	}

	p := pv.Proposal

	voters := make([]string, 0, len(pv.Votes))
	for _, v := range pv.Votes {
		voters = append(voters, strings.ToLower(v.Voter))
	}

	all := EmptyScores(len(p.Strategies))
	self := EmptyScores(len(p.Strategies))
	var community float64

	g, gctx := errgroup.WithContext(ctx)

	if len(voters) > 0 {
		g.Go(func() error {
			s, err := a.source.GetScores(gctx, a.cfg.SpaceID, p.Strategies, p.Network, voters, p.Snapshot)
			if err != nil {
				return fmt.Errorf("scores: %w", err)
			}
			all = s
			return nil
		})
	}

	if a.hasAccount() {
		g.Go(func() error {
			s, err := a.source.GetScores(gctx, a.cfg.SpaceID, p.Strategies, p.Network, []string{a.accountKey()}, p.Snapshot)
			if err != nil {
				return fmt.Errorf("self scores: %w", err)
			}
			self = s
			return nil
		})
	}

	g.Go(func() error {
		power, err := a.power.GetCommunityVotingPower(gctx, p.Snapshot)
		if err != nil {
			return fmt.Errorf("community voting power: %w", err)
		}
		community = power
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	item := &ProposalInfo{
		Proposal: *p,
		Votes:    pv.Votes,
		Scores: ProposalScores{
			All:  all,
			Self: self,
		},
		CommunityVotingPower: community,
	}

	a.upsert(item)

	return item, nil
}

// LoadGovernanceInfo loads every proposal of the space. Concurrent calls
// share one load unless refetch is set, which always starts a new one.
// Proposals that fail to load are left out.
func (a *Aggregator) LoadGovernanceInfo(ctx context.Context, refetch bool) ([]*ProposalInfo, error) {
	if refetch {
		a.inflight.Forget(governanceKey)
	}

	v, shared, err := a.share(ctx, governanceKey, func(ctx context.Context) (any, error) {
		return a.loadAll(ctx, refetch)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		log.Debug().Msg("attached to in flight governance load")
	}

	return v.([]*ProposalInfo), nil
}

func (a *Aggregator) loadAll(ctx context.Context, refetch bool) ([]*ProposalInfo, error) {
	a.loadingAll.Store(true)
	defer a.loadingAll.Store(false)

	a.setErr(nil)

	var ids []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ids, err = a.source.GetProposalIDs(gctx, a.cfg.SpaceID)
		if err != nil {
			return fmt.Errorf("proposal ids: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.loadPowerInfo(gctx)
	})

	if err := g.Wait(); err != nil {
		a.report(err)
		a.setErr(err)
		return nil, err
	}

	results := make([]*ProposalInfo, len(ids))

	lg := new(errgroup.Group)
	lg.SetLimit(a.cfg.MaxParallelLoads)

	for i, id := range ids {
		i, id := i, id
		lg.Go(func() error {
			item, err := a.LoadProposalInfo(ctx, id, refetch)
			if err != nil {
				// reported by LoadProposalInfo
				return nil
			}
			results[i] = item
			return nil
		})
	}
	lg.Wait()

	items := make([]*ProposalInfo, 0, len(results))
	for _, item := range results {
		if item != nil {
			items = append(items, item)
		}
	}

	log.Info().Int("proposals", len(items)).Int("failed", len(ids)-len(items)).Msg("governance info loaded")

	return items, nil
}

// LoadMinimalGovernanceInfo loads the last proposal and the power info only.
// It waits for a full load instead when one is in flight.
func (a *Aggregator) LoadMinimalGovernanceInfo(ctx context.Context, refetch bool) (*ProposalInfo, error) {
	if !refetch && a.loadingAll.Load() {
		if _, err := a.LoadGovernanceInfo(ctx, false); err == nil {
			if last := a.LastProposal(); last != nil {
				return last, nil
			}
		}
	}

	var last *ProposalInfo

	// no shared cancellation, each half completes and reports on its own
	g := new(errgroup.Group)

	if a.Space() == nil {
		g.Go(func() error {
			return a.LoadPowerInfo(ctx)
		})
	}

	g.Go(func() error {
		id, err := a.source.GetLastProposalID(ctx, a.cfg.SpaceID)
		if err != nil {
			err = fmt.Errorf("last proposal id: %w", err)
			a.report(err)
			return err
		}

		// reports its own errors
		last, err = a.LoadProposalInfo(ctx, id, refetch)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return last, nil
}

// LoadPowerInfo refreshes the space, the community voting power and the
// voting power of the account
func (a *Aggregator) LoadPowerInfo(ctx context.Context) error {
	err := a.loadPowerInfo(ctx)
	if err != nil {
		a.report(err)
	}
	return err
}

// loadPowerInfo leaves reporting to the caller
func (a *Aggregator) loadPowerInfo(ctx context.Context) error {
	var (
		space     *Space
		community float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		space, err = a.source.GetSpace(gctx, a.cfg.SpaceID)
		if err != nil {
			return fmt.Errorf("space: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		community, err = a.power.GetCommunityVotingPower(gctx, "")
		if err != nil {
			return fmt.Errorf("community voting power: %w", err)
		}
		return nil
	})

	selfDone := make(chan struct{})
	go func() {
		defer close(selfDone)
		// falls back on its own, a failed space fetch must not cancel it
		a.LoadVotingPowerSelf(ctx, false)
	}()

	err := g.Wait()
	<-selfDone

	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.space = space
	a.powerNeededToBecomeProposer = space.Filters.MinScore
	a.communityVotingPower = community

	return nil
}

// LoadVotingPowerSelf returns the voting power of the account. When the
// power endpoint fails the power is summed from raw scores, and when that
// fails too the power is 0.
func (a *Aggregator) LoadVotingPowerSelf(ctx context.Context, refetch bool) float64 {
	if !refetch {
		a.mu.RLock()
		valid := a.genericCacheInfo.IsValid(votingPowerSelfKey, a.cfg.CachePeriod, a.clock.Now())
		power := a.votingPowerSelf
		a.mu.RUnlock()

		if valid {
			return power
		}
	}

	power, err := a.votingPowerSelfPrimary(ctx)
	if err == nil {
		a.setVotingPowerSelf(power)
		return power
	}

	a.report(err)
	a.tracker.AddBreadcrumb("governance", "trying to use fallback self voting power scenario")

	power, err = a.votingPowerSelfFallback(ctx)
	if err != nil {
		a.report(err)
		return 0
	}

	a.setVotingPowerSelf(power)
	return power
}

func (a *Aggregator) votingPowerSelfPrimary(ctx context.Context) (float64, error) {
	if !a.hasAccount() {
		return 0, ErrNoAddress
	}

	return a.power.GetVotingPower(ctx, a.account)
}

func (a *Aggregator) votingPowerSelfFallback(ctx context.Context) (float64, error) {
	if !a.hasAccount() {
		return 0, ErrNoAddress
	}

	space := a.Space()
	if space == nil {
		var err error
		space, err = a.source.GetSpace(ctx, a.cfg.SpaceID)
		if err != nil {
			return 0, fmt.Errorf("fallback space: %w", err)
		}
	}

	scores, err := a.source.GetScores(ctx, a.cfg.SpaceID, space.Strategies, space.Network, []string{a.accountKey()}, SnapshotLatest)
	if err != nil {
		return 0, fmt.Errorf("fallback scores: %w", err)
	}

	return scores.Total(a.accountKey()), nil
}

func (a *Aggregator) setVotingPowerSelf(power float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.votingPowerSelf = power
	a.genericCacheInfo[votingPowerSelfKey] = a.clock.Now()
}

func (a *Aggregator) setErr(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.err = err
}

// Err is the error of the last governance load
func (a *Aggregator) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.err
}

// Loading reports whether a governance load is in flight
func (a *Aggregator) Loading() bool {
	return a.loadingAll.Load()
}

func (a *Aggregator) Space() *Space {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.space
}

func (a *Aggregator) CommunityVotingPower() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.communityVotingPower
}

func (a *Aggregator) VotingPowerSelf() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.votingPowerSelf
}

func (a *Aggregator) PowerNeededToBecomeProposer() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.powerNeededToBecomeProposer
}

// ClearCache drops every cached item and cache stamp
func (a *Aggregator) ClearCache() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.items = map[string]*ProposalInfo{}
	a.cacheInfo = CacheInfoMap{}
	a.genericCacheInfo = CacheInfoMap{}
	a.votingPowerSelf = 0
}

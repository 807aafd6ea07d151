package governance

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/require"
	"github.com/viamover/moverd/pkg/mover"
)

var (
	testAccount = common.HexToAddress("0x480Fbe37526226b6c6E2a7AfA449cDf661939D2f")
	testSelf    = "0x480fbe37526226b6c6e2a7afa449cdf661939d2f"
	voterA      = "0x1111111111111111111111111111111111111111"
	voterB      = "0x2222222222222222222222222222222222222222"
)

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

type fakeTracker struct {
	mu          sync.Mutex
	errs        []error
	breadcrumbs []string
}

func (t *fakeTracker) CaptureException(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errs = append(t.errs, err)
}

func (t *fakeTracker) AddBreadcrumb(category, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breadcrumbs = append(t.breadcrumbs, message)
}

type fakeSource struct {
	proposals map[string]*ProposalWithVotes
	scores    map[string]float64
	space     *Space

	proposalErr error
	scoresErr   error
	spaceErr    error

	// block GetProposalIDs and GetProposal until released when set
	idsStarted      chan struct{}
	idsRelease      chan struct{}
	idsOnce         sync.Once
	proposalStarted chan struct{}
	proposalRelease chan struct{}
	proposalOnce    sync.Once

	// closed once GetSpace failed
	spaceFailed chan struct{}
	spaceOnce   sync.Once

	proposalCalls atomic.Int32
	idsCalls      atomic.Int32
	scoresCalls   atomic.Int32

	votes   []VoteParams
	created []CreateProposalParams
}

func (s *fakeSource) GetProposal(ctx context.Context, id string) (*ProposalWithVotes, error) {
	s.proposalCalls.Add(1)
	if s.proposalStarted != nil {
		s.proposalOnce.Do(func() { close(s.proposalStarted) })
		<-s.proposalRelease
	}
	if s.proposalErr != nil {
		return nil, s.proposalErr
	}
	return s.proposals[id], nil
}

func (s *fakeSource) GetProposalIDs(ctx context.Context, space string) ([]string, error) {
	s.idsCalls.Add(1)
	if s.idsStarted != nil {
		s.idsOnce.Do(func() { close(s.idsStarted) })
		<-s.idsRelease
	}

	ids := []string{}
	for id := range s.proposals {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeSource) GetLastProposalID(ctx context.Context, space string) (string, error) {
	for id := range s.proposals {
		return id, nil
	}
	return "", errors.New("no proposals")
}

func (s *fakeSource) GetScores(ctx context.Context, space string, strategies []Strategy, network string, addresses []string, snapshot string) (Scores, error) {
	s.scoresCalls.Add(1)
	if s.scoresErr != nil {
		return nil, s.scoresErr
	}

	res := EmptyScores(len(strategies))
	for _, addr := range addresses {
		if v, ok := s.scores[addr]; ok {
			for i := range res {
				res[i][addr] = v
			}
		}
	}
	return res, nil
}

func (s *fakeSource) GetSpace(ctx context.Context, space string) (*Space, error) {
	if s.spaceErr != nil {
		if s.spaceFailed != nil {
			s.spaceOnce.Do(func() { close(s.spaceFailed) })
		}
		return nil, s.spaceErr
	}
	return s.space, nil
}

func (s *fakeSource) CreateProposal(ctx context.Context, w mover.Wallet, address common.Address, space string, params CreateProposalParams) (*Receipt, error) {
	s.created = append(s.created, params)
	return &Receipt{ID: "0xproposal"}, nil
}

func (s *fakeSource) Vote(ctx context.Context, w mover.Wallet, address common.Address, space string, params VoteParams) (*Receipt, error) {
	s.votes = append(s.votes, params)
	return &Receipt{ID: "0xvote"}, nil
}

type fakePower struct {
	self         float64
	selfErr      error
	community    float64
	communityErr error

	// GetVotingPower waits for it when set
	selfAfter chan struct{}
}

func (p *fakePower) GetVotingPower(ctx context.Context, address common.Address) (float64, error) {
	if p.selfAfter != nil {
		<-p.selfAfter
		// let the failed sibling cancel its group
		time.Sleep(20 * time.Millisecond)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return p.self, p.selfErr
}

func (p *fakePower) GetCommunityVotingPower(ctx context.Context, snapshot string) (float64, error) {
	return p.community, p.communityErr
}

type fakeWallet struct {
	block uint64
}

func (w *fakeWallet) PersonalSign(ctx context.Context, message string, address common.Address, password string) (string, error) {
	return "", nil
}

func (w *fakeWallet) SignTypedData(ctx context.Context, address common.Address, data apitypes.TypedData) (string, error) {
	return "", nil
}

func (w *fakeWallet) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(1), nil }

func (w *fakeWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{testAccount}, nil
}

func (w *fakeWallet) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	return new(big.Int), nil
}

func (w *fakeWallet) BlockNumber(ctx context.Context) (uint64, error) { return w.block, nil }

var twoStrategies = []Strategy{{Name: "erc20-balance-of"}, {Name: "mover-staking"}}

func testProposal(id string, end int64, votes ...Vote) *ProposalWithVotes {
	return &ProposalWithVotes{
		Proposal: &Proposal{
			ID:         id,
			Title:      "proposal " + id,
			Choices:    DefaultChoices,
			Start:      0,
			End:        end,
			Snapshot:   "100",
			Network:    "1",
			Strategies: twoStrategies,
		},
		Votes: votes,
	}
}

func newFakes() (*fakeSource, *fakePower) {
	src := &fakeSource{
		proposals: map[string]*ProposalWithVotes{
			"0x01": testProposal("0x01", 2000000000, Vote{Voter: voterA, Choice: ChoiceFor}),
		},
		scores: map[string]float64{
			voterA:   10,
			testSelf: 3,
		},
		space: &Space{
			ID:         "mover.eth",
			Network:    "1",
			Strategies: twoStrategies,
			Filters:    SpaceFilters{MinScore: 5},
		},
	}
	power := &fakePower{self: 7, community: 1000}

	return src, power
}

func newTestAggregator(src *fakeSource, power *fakePower, clock *fakeClock, tracker *fakeTracker) *Aggregator {
	return New(Config{SpaceID: "mover.eth", CachePeriod: 300 * time.Second}, Deps{
		Source:  src,
		Power:   power,
		Wallet:  &fakeWallet{block: 1234},
		Tracker: tracker,
		Clock:   clock,
		Account: testAccount,
	})
}

func TestCacheInfoMapIsValid(t *testing.T) {
	t0 := time.Unix(1700000000, 0)
	m := CacheInfoMap{"a": t0}

	require.True(t, m.IsValid("a", 300*time.Second, t0.Add(299*time.Second)))
	require.False(t, m.IsValid("a", 300*time.Second, t0.Add(300*time.Second)))
	require.False(t, m.IsValid("a", 300*time.Second, t0.Add(301*time.Second)))
	require.False(t, m.IsValid("b", 300*time.Second, t0))
}

func TestLoadProposalInfoCache(t *testing.T) {
	src, power := newFakes()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	a := newTestAggregator(src, power, clock, &fakeTracker{})
	ctx := context.Background()

	item, err := a.LoadProposalInfo(ctx, "0x01", false)
	require.NoError(t, err)
	require.Equal(t, int32(1), src.proposalCalls.Load())

	require.Len(t, item.Scores.All, 2)
	require.Equal(t, 10.0, item.Scores.All[0][voterA])
	require.Equal(t, 6.0, item.Scores.Self.Total(testSelf))
	require.Equal(t, 1000.0, item.CommunityVotingPower)

	clock.Advance(299 * time.Second)
	cached, err := a.LoadProposalInfo(ctx, "0x01", false)
	require.NoError(t, err)
	require.Same(t, item, cached)
	require.Equal(t, int32(1), src.proposalCalls.Load())

	clock.Advance(2 * time.Second)
	_, err = a.LoadProposalInfo(ctx, "0x01", false)
	require.NoError(t, err)
	require.Equal(t, int32(2), src.proposalCalls.Load())

	_, err = a.LoadProposalInfo(ctx, "0x01", true)
	require.NoError(t, err)
	require.Equal(t, int32(3), src.proposalCalls.Load())
}

func TestLoadProposalInfoAllOrNothing(t *testing.T) {
	src, power := newFakes()
	power.communityErr = errors.New("community power unavailable")
	tracker := &fakeTracker{}
	a := newTestAggregator(src, power, &fakeClock{now: time.Unix(1700000000, 0)}, tracker)

	_, err := a.LoadProposalInfo(context.Background(), "0x01", false)
	require.Error(t, err)

	require.Empty(t, a.Items())
	_, ok := a.ProposalStats("0x01")
	require.False(t, ok)
	require.Len(t, tracker.errs, 1)
}

func TestLoadProposalInfoNotFound(t *testing.T) {
	src, power := newFakes()
	a := newTestAggregator(src, power, &fakeClock{now: time.Unix(1700000000, 0)}, &fakeTracker{})

	_, err := a.LoadProposalInfo(context.Background(), "0xmissing", false)
	require.ErrorIs(t, err, ErrProposalNotFound)
}

func TestLoadProposalInfoWithoutAccount(t *testing.T) {
	src, power := newFakes()
	a := New(Config{SpaceID: "mover.eth"}, Deps{Source: src, Power: power})

	item, err := a.LoadProposalInfo(context.Background(), "0x01", false)
	require.NoError(t, err)
	require.Equal(t, EmptyScores(2), item.Scores.Self)
	// voters only
	require.Equal(t, int32(1), src.scoresCalls.Load())
}

func TestLoadVotingPowerSelf(t *testing.T) {
	t.Run("primary", func(t *testing.T) {
		src, power := newFakes()
		a := newTestAggregator(src, power, &fakeClock{now: time.Unix(1700000000, 0)}, &fakeTracker{})

		require.Equal(t, 7.0, a.LoadVotingPowerSelf(context.Background(), false))
	})

	t.Run("cached", func(t *testing.T) {
		src, power := newFakes()
		clock := &fakeClock{now: time.Unix(1700000000, 0)}
		a := newTestAggregator(src, power, clock, &fakeTracker{})

		require.Equal(t, 7.0, a.LoadVotingPowerSelf(context.Background(), false))

		power.self = 9
		clock.Advance(299 * time.Second)
		require.Equal(t, 7.0, a.LoadVotingPowerSelf(context.Background(), false))

		clock.Advance(2 * time.Second)
		require.Equal(t, 9.0, a.LoadVotingPowerSelf(context.Background(), false))
	})

	t.Run("fallback", func(t *testing.T) {
		src, power := newFakes()
		power.selfErr = errors.New("power endpoint down")
		tracker := &fakeTracker{}
		a := newTestAggregator(src, power, &fakeClock{now: time.Unix(1700000000, 0)}, tracker)

		// 3 per strategy, two strategies
		require.Equal(t, 6.0, a.LoadVotingPowerSelf(context.Background(), false))
		require.Equal(t, 6.0, a.VotingPowerSelf())
		require.Len(t, tracker.errs, 1)
		require.Len(t, tracker.breadcrumbs, 1)
	})

	t.Run("fallback fails", func(t *testing.T) {
		src, power := newFakes()
		power.selfErr = errors.New("power endpoint down")
		src.scoresErr = errors.New("score api down")
		tracker := &fakeTracker{}
		a := newTestAggregator(src, power, &fakeClock{now: time.Unix(1700000000, 0)}, tracker)

		require.Equal(t, 0.0, a.LoadVotingPowerSelf(context.Background(), false))
		require.Len(t, tracker.errs, 2)
	})
}

func TestLoadGovernanceInfo(t *testing.T) {
	src, power := newFakes()
	src.proposals["0x02"] = testProposal("0x02", 1000, Vote{Voter: voterB, Choice: ChoiceAgainst})
	a := newTestAggregator(src, power, &fakeClock{now: time.Unix(1700000000, 0)}, &fakeTracker{})

	items, err := a.LoadGovernanceInfo(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NoError(t, a.Err())

	require.Equal(t, 5.0, a.PowerNeededToBecomeProposer())
	require.Equal(t, 1000.0, a.CommunityVotingPower())
	require.Equal(t, 7.0, a.VotingPowerSelf())
	require.Equal(t, "0x01", a.LastProposal().Proposal.ID)
}

func TestLoadGovernanceInfoSkipsFailedProposals(t *testing.T) {
	src, power := newFakes()
	src.proposals["0x02"] = nil
	a := newTestAggregator(src, power, &fakeClock{now: time.Unix(1700000000, 0)}, &fakeTracker{})

	items, err := a.LoadGovernanceInfo(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestLoadGovernanceInfoError(t *testing.T) {
	src, power := newFakes()
	src.spaceErr = errors.New("hub down")
	tracker := &fakeTracker{}
	a := newTestAggregator(src, power, &fakeClock{now: time.Unix(1700000000, 0)}, tracker)

	items, err := a.LoadGovernanceInfo(context.Background(), false)
	require.Error(t, err)
	require.Nil(t, items)
	require.Error(t, a.Err())
	require.Len(t, tracker.errs, 1)
}

func TestLoadPowerInfoKeepsSelfPower(t *testing.T) {
	src, power := newFakes()
	src.spaceErr = errors.New("hub down")
	src.spaceFailed = make(chan struct{})
	power.selfAfter = src.spaceFailed
	tracker := &fakeTracker{}
	a := newTestAggregator(src, power, &fakeClock{now: time.Unix(1700000000, 0)}, tracker)

	err := a.LoadPowerInfo(context.Background())
	require.ErrorContains(t, err, "hub down")

	// the failed space fetch does not cancel the self power lookup
	require.Equal(t, 7.0, a.VotingPowerSelf())
	require.Len(t, tracker.errs, 1)
	require.Empty(t, tracker.breadcrumbs)
}

func TestLoadGovernanceInfoDeduplicates(t *testing.T) {
	src, power := newFakes()
	src.idsStarted = make(chan struct{})
	src.idsRelease = make(chan struct{})
	a := newTestAggregator(src, power, &fakeClock{now: time.Unix(1700000000, 0)}, &fakeTracker{})

	var wg sync.WaitGroup
	results := make([][]*ProposalInfo, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = a.LoadGovernanceInfo(context.Background(), false)
	}()

	<-src.idsStarted
	require.True(t, a.Loading())

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = a.LoadGovernanceInfo(context.Background(), false)
	}()

	// give the second caller time to attach
	time.Sleep(50 * time.Millisecond)
	close(src.idsRelease)
	wg.Wait()

	require.Equal(t, int32(1), src.idsCalls.Load())
	require.Equal(t, int32(1), src.proposalCalls.Load())
	require.Len(t, results[0], 1)
	require.Equal(t, results[0], results[1])
	require.False(t, a.Loading())
}

func TestLoadGovernanceInfoOutlivesCaller(t *testing.T) {
	src, power := newFakes()
	src.idsStarted = make(chan struct{})
	src.idsRelease = make(chan struct{})
	a := newTestAggregator(src, power, &fakeClock{now: time.Unix(1700000000, 0)}, &fakeTracker{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := make(chan error, 1)
	go func() {
		_, err := a.LoadGovernanceInfo(ctx, false)
		first <- err
	}()

	<-src.idsStarted

	type result struct {
		items []*ProposalInfo
		err   error
	}
	second := make(chan result, 1)
	go func() {
		items, err := a.LoadGovernanceInfo(context.Background(), false)
		second <- result{items, err}
	}()

	// give the second caller time to attach
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	close(src.idsRelease)
	res := <-second
	require.NoError(t, res.err)
	require.Len(t, res.items, 1)

	require.Equal(t, int32(1), src.idsCalls.Load())
	_, ok := a.ProposalStats("0x01")
	require.True(t, ok)
	require.NoError(t, a.Err())
}

func TestLoadGovernanceInfoRefetchStartsNewLoad(t *testing.T) {
	src, power := newFakes()
	src.idsStarted = make(chan struct{})
	src.idsRelease = make(chan struct{})
	a := newTestAggregator(src, power, &fakeClock{now: time.Unix(1700000000, 0)}, &fakeTracker{})

	var wg sync.WaitGroup
	results := make([][]*ProposalInfo, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = a.LoadGovernanceInfo(context.Background(), false)
	}()

	<-src.idsStarted

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = a.LoadGovernanceInfo(context.Background(), true)
	}()

	time.Sleep(50 * time.Millisecond)
	close(src.idsRelease)
	wg.Wait()

	require.Equal(t, int32(2), src.idsCalls.Load())
	require.Len(t, results[0], 1)
	require.Len(t, results[1], 1)
}

func TestLoadProposalInfoDeduplicates(t *testing.T) {
	src, power := newFakes()
	src.proposalStarted = make(chan struct{})
	src.proposalRelease = make(chan struct{})
	a := newTestAggregator(src, power, &fakeClock{now: time.Unix(1700000000, 0)}, &fakeTracker{})

	var wg sync.WaitGroup
	items := make([]*ProposalInfo, 2)

	for i := range items {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			items[i], _ = a.LoadProposalInfo(context.Background(), "0x01", false)
		}()
	}

	<-src.proposalStarted
	// give the other caller time to attach
	time.Sleep(50 * time.Millisecond)
	close(src.proposalRelease)
	wg.Wait()

	require.Equal(t, int32(1), src.proposalCalls.Load())
	require.NotNil(t, items[0])
	require.Same(t, items[0], items[1])
}

func TestLoadMinimalGovernanceInfo(t *testing.T) {
	src, power := newFakes()
	a := newTestAggregator(src, power, &fakeClock{now: time.Unix(1700000000, 0)}, &fakeTracker{})

	last, err := a.LoadMinimalGovernanceInfo(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, "0x01", last.Proposal.ID)
	require.NotNil(t, a.Space())
	require.Equal(t, int32(0), src.idsCalls.Load())
}

func TestClearCache(t *testing.T) {
	src, power := newFakes()
	a := newTestAggregator(src, power, &fakeClock{now: time.Unix(1700000000, 0)}, &fakeTracker{})

	_, err := a.LoadProposalInfo(context.Background(), "0x01", false)
	require.NoError(t, err)

	a.ClearCache()
	require.Empty(t, a.Items())

	_, err = a.LoadProposalInfo(context.Background(), "0x01", false)
	require.NoError(t, err)
	require.Equal(t, int32(2), src.proposalCalls.Load())
}

package subsidized

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	com "github.com/viamover/moverd/internal/common"
	"github.com/viamover/moverd/pkg/mover"
)

// Relayer submits prepared actions to the relay
type Relayer interface {
	Relay(ctx context.Context, req mover.RelayRequest) (*mover.RelayResult, error)
}

// BonusBalancer returns the Smart Treasury bonus of an account in USDC
type BonusBalancer interface {
	BonusBalance(ctx context.Context, address common.Address) (*big.Rat, error)
}

// Quote is the part of a swap quote the relay needs
type Quote struct {
	BuyAmount *big.Int `json:"buyAmount"`
}

type Submitter struct {
	account common.Address
	network mover.Network

	wallet  mover.Wallet
	relay   Relayer
	bonus   BonusBalancer
	tracker mover.ErrorTracker
	clock   mover.Clock
}

func NewSubmitter(account common.Address, network mover.Network, w mover.Wallet, r Relayer, b BonusBalancer, t mover.ErrorTracker, c mover.Clock) *Submitter {
	if t == nil {
		t = mover.NopTracker
	}
	if c == nil {
		c = mover.SystemClock
	}

	return &Submitter{
		account: account,
		network: network,
		wallet:  w,
		relay:   r,
		bonus:   b,
		tracker: t,
		clock:   c,
	}
}

func (s *Submitter) Account() common.Address {
	return s.account
}

// Timestamp is the unix time used for new action strings
func (s *Submitter) Timestamp() int64 {
	return s.clock.Now().Unix()
}

// Sign asks the wallet for a personal signature over the action string
func (s *Submitter) Sign(ctx context.Context, actionString string) (string, error) {
	sig, err := s.wallet.PersonalSign(ctx, actionString, s.account, "")
	if err != nil {
		serr := &SigningError{Err: err}
		s.tracker.CaptureException(serr)
		return "", serr
	}

	return sig, nil
}

func (s *Submitter) PrepareSubsidizedAction(ctx context.Context, actionString string) (mover.PreparedAction, error) {
	sig, err := s.Sign(ctx, actionString)
	if err != nil {
		return mover.PreparedAction{}, err
	}

	return mover.PreparedAction{
		ActionString: actionString,
		Signature:    sig,
	}, nil
}

// Submit signs the action string and hands it to the relay. Relay errors are not retried.
func (s *Submitter) Submit(ctx context.Context, kind ActionKind, actionString string) (*mover.RelayResult, error) {
	action, err := s.PrepareSubsidizedAction(ctx, actionString)
	if err != nil {
		return nil, err
	}

	return s.SubmitPrepared(ctx, kind, action)
}

// SubmitPrepared relays an action that is already signed
func (s *Submitter) SubmitPrepared(ctx context.Context, kind ActionKind, action mover.PreparedAction) (*mover.RelayResult, error) {
	return s.SubmitPreparedFor(ctx, s.account, kind, action)
}

// SubmitPreparedFor relays an action that account signed elsewhere. The
// caller verifies the action first.
func (s *Submitter) SubmitPreparedFor(ctx context.Context, account common.Address, kind ActionKind, action mover.PreparedAction) (*mover.RelayResult, error) {
	s.tracker.AddBreadcrumb("subsidized", fmt.Sprintf("relay %s", kind))

	res, err := s.relay.Relay(ctx, mover.RelayRequest{
		Action:         string(kind),
		Network:        s.network,
		Address:        account,
		PreparedAction: action,
	})
	if err != nil {
		var apiErr *mover.APIError
		if errors.As(err, &apiErr) && apiErr.ShortMessage == mover.UnsupportedChainCode {
			err = &mover.InvalidNetworkForOperationError{Network: s.network, Supported: mover.NetworkMainnet}
		}

		s.tracker.CaptureException(err)
		return nil, err
	}

	log.Info().Str("action", string(kind)).Str("tx", res.TxID).Str("queue", res.QueueID).Msg("subsidized action relayed")

	return res, nil
}

// CalcTransactionFastNativePrice is the USD cost of gasLimit at the fast gas price
func CalcTransactionFastNativePrice(fastGasPriceGWEI, txGasLimit, ethPriceUSD string) (*big.Rat, error) {
	gasPriceWei, err := com.ToWei(fastGasPriceGWEI, com.GweiDecimals)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}

	gasLimit, err := com.ParseDecimal(txGasLimit)
	if err != nil {
		return nil, fmt.Errorf("gas limit: %w", err)
	}

	ethPrice, err := com.ParseDecimal(ethPriceUSD)
	if err != nil {
		return nil, fmt.Errorf("eth price: %w", err)
	}

	priceWei := new(big.Rat).SetInt(gasPriceWei)
	priceWei.Mul(priceWei, gasLimit)

	priceEth := new(big.Rat).Quo(priceWei, new(big.Rat).SetInt(com.Pow10(com.EthDecimals)))

	return priceEth.Mul(priceEth, ethPrice), nil
}

// IsAllowed reports whether the treasury bonus covers a fast transaction
func (s *Submitter) IsAllowed(ctx context.Context, fastGasPriceGWEI, txGasLimit, ethPriceUSD string) (bool, error) {
	bonus, err := s.bonus.BonusBalance(ctx, s.account)
	if err != nil {
		s.tracker.CaptureException(err)
		return false, err
	}

	price, err := CalcTransactionFastNativePrice(fastGasPriceGWEI, txGasLimit, ethPriceUSD)
	if err != nil {
		return false, err
	}

	return Eligible(bonus, price), nil
}

// Eligible is bonus >= price && bonus > 0
func Eligible(bonus, price *big.Rat) bool {
	return bonus.Cmp(price) >= 0 && bonus.Sign() > 0
}

// SwapSubsidized swaps inputAmount of in for out through the relay
func (s *Submitter) SwapSubsidized(ctx context.Context, in, out mover.SmallToken, inputAmount string, quote Quote) (*mover.RelayResult, error) {
	if quote.BuyAmount == nil {
		return nil, ErrInvalidQuote
	}

	amount, err := com.ToWei(inputAmount, in.Decimals)
	if err != nil {
		return nil, err
	}

	minimum := ExpectedMinimum(quote.BuyAmount)

	log.Debug().Str("minimum", minimum.String()).Msg("subsidized swap expected minimum received")

	str := SwapActionString(s.account, s.Timestamp(), in.Address, out.Address, amount, minimum)

	return s.Submit(ctx, ActionSwap, str)
}

// ClaimAndBurnSubsidized burns MOVE against the treasury through the relay
func (s *Submitter) ClaimAndBurnSubsidized(ctx context.Context, in mover.SmallToken, inputAmount string) (*mover.RelayResult, error) {
	move, ok := mover.MoveAssetData(s.network)
	if !ok || move.Address != in.Address {
		return nil, ErrOnlyMoveBurnable
	}

	amount, err := com.ToWei(inputAmount, in.Decimals)
	if err != nil {
		return nil, err
	}

	str := BurnActionString(s.account, s.Timestamp(), in.Address, amount)

	return s.Submit(ctx, ActionBurn, str)
}

// SavingsDepositSubsidized deposits inputAmount of in to savings plus through the relay
func (s *Submitter) SavingsDepositSubsidized(ctx context.Context, in mover.SmallToken, inputAmount string) (*mover.RelayResult, error) {
	amount, err := com.ToWei(inputAmount, in.Decimals)
	if err != nil {
		return nil, err
	}

	str := SavingsDepositActionString(s.account, s.Timestamp(), in.Address, amount)

	return s.Submit(ctx, ActionSavingsDeposit, str)
}

// SavingsWithdrawSubsidized withdraws inputAmount USDC from savings plus
// through the relay, used when the backend executes the withdrawal
func (s *Submitter) SavingsWithdrawSubsidized(ctx context.Context, inputAmount string) (*mover.RelayResult, error) {
	usdc, ok := mover.USDCAssetData(s.network)
	if !ok {
		return nil, &mover.InvalidNetworkForOperationError{Network: s.network, Supported: mover.NetworkPolygon}
	}

	amount, err := com.ToWei(inputAmount, usdc.Decimals)
	if err != nil {
		return nil, err
	}

	str := SavingsWithdrawActionString(s.account, s.Timestamp(), amount)

	return s.Submit(ctx, ActionSavingsWithdraw, str)
}

// VerifyPreparedAction checks that action was signed by account, is bound to
// account and is not older than maxAge
func VerifyPreparedAction(action mover.PreparedAction, account common.Address, now time.Time, maxAge time.Duration) (ActionKind, error) {
	kind, onBehalf, ts, err := ParseActionString(action.ActionString)
	if err != nil {
		return "", err
	}

	if onBehalf != account {
		return "", com.ErrSignerMismatch
	}

	if maxAge > 0 && now.Sub(time.Unix(ts, 0)) > maxAge {
		return "", ErrStaleAction
	}

	if err := com.VerifyPersonalSignature(action.ActionString, action.Signature, account); err != nil {
		return "", err
	}

	return kind, nil
}

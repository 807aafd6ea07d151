package treasury

import (
	"math/big"

	com "github.com/viamover/moverd/internal/common"
)

var (
	tokenWeight = big.NewRat(1, 1)
	lpWeight    = big.NewRat(5, 2)
)

// share returns weight * staked / (wallet + staked), zero when undefined
func share(staked, wallet, weight *big.Rat) *big.Rat {
	total := new(big.Rat).Add(wallet, staked)
	if total.Sign() == 0 {
		return new(big.Rat)
	}

	r := new(big.Rat).Quo(staked, total)
	return r.Mul(r, weight)
}

// CalcTreasuryBoost returns the bonus multiplier earned by staking MOVE and
// MOVE-ETH LP tokens in the treasury
func CalcTreasuryBoost(treasuryMove, treasuryLP, walletMove, walletLP string) (*big.Rat, error) {
	values := make([]*big.Rat, 4)
	for i, s := range []string{treasuryMove, treasuryLP, walletMove, walletLP} {
		r, err := com.ParseDecimal(s)
		if err != nil {
			return nil, err
		}
		values[i] = r
	}

	boost := share(values[0], values[2], tokenWeight)
	boost.Add(boost, share(values[1], values[3], lpWeight))

	return boost, nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	com "github.com/viamover/moverd/internal/common"
	"github.com/viamover/moverd/internal/config"
	"github.com/viamover/moverd/internal/services/ethrequest"
	"github.com/viamover/moverd/internal/services/moverapi"
	"github.com/viamover/moverd/internal/services/smarttreasury"
	"github.com/viamover/moverd/pkg/mover"
	"github.com/viamover/moverd/pkg/subsidized"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	env := flag.String("env", ".env", "path to .env file")

	action := flag.String("action", "burn", "action to submit (swap or burn)")

	amount := flag.String("amount", "", "decimal amount of the input token")

	tokenIn := flag.String("in", "", "input token address (default: MOVE of the network)")

	decimals := flag.Int("decimals", 18, "input token decimals")

	tokenOut := flag.String("out", "", "output token address (swap only)")

	buy := flag.String("buy", "", "quoted buy amount in the output token's smallest unit (swap only)")

	dry := flag.Bool("dry", false, "print the action string without signing or relaying it")

	flag.Parse()

	ctx := context.Background()

	conf, err := config.New(ctx, *env)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	network, err := conf.ParsedNetwork()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid network")
	}

	in, err := inputToken(network, *tokenIn, *decimals)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid input token")
	}

	kind := subsidized.ActionKind(strings.ToUpper(*action))

	if kind != subsidized.ActionSwap && kind != subsidized.ActionBurn {
		log.Fatal().Str("action", *action).Msg("unsupported action, must be one of: swap, burn")
	}

	var quote subsidized.Quote
	var out mover.SmallToken
	if kind == subsidized.ActionSwap {
		if !common.IsHexAddress(*tokenOut) {
			log.Fatal().Str("out", *tokenOut).Msg("invalid output token")
		}
		out = mover.SmallToken{Address: common.HexToAddress(*tokenOut)}

		b, ok := new(big.Int).SetString(*buy, 10)
		if !ok {
			log.Fatal().Str("buy", *buy).Msg("invalid buy amount")
		}
		quote.BuyAmount = b
	}

	if *dry {
		account := conf.Account()
		if conf.AccountPrivateKey != "" {
			signer, err := ethrequest.NewKeySigner(conf.AccountPrivateKey, nil)
			if err != nil {
				log.Fatal().Err(err).Msg("invalid account private key")
			}
			account = signer.Address()
		}

		str, err := actionString(kind, account, time.Now().Unix(), in, out, *amount, quote)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build action")
		}

		fmt.Println(str)
		return
	}

	evm, err := ethrequest.NewEthService(ctx, conf.RPCURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to rpc")
	}
	defer evm.Close()

	var wallet mover.Wallet = evm
	account := conf.Account()

	if conf.AccountPrivateKey != "" {
		signer, err := ethrequest.NewKeySigner(conf.AccountPrivateKey, evm)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid account private key")
		}

		wallet = signer
		account = signer.Address()
	}

	if account == (common.Address{}) {
		log.Fatal().Msg("no account configured, set ACCOUNT_ADDRESS or ACCOUNT_PRIVATE_KEY")
	}

	api := moverapi.New(moverapi.Config{
		BaseURL:    conf.MoverAPIURL,
		APIViewURL: conf.MoverAPIViewURL,
		Network:    network,
	})

	st, err := smarttreasury.New(common.HexToAddress(conf.SmartTreasuryAddress), evm.Backend())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind smart treasury")
	}

	sub := subsidized.NewSubmitter(account, network, wallet, api, st, nil, nil)

	var res *mover.RelayResult
	switch kind {
	case subsidized.ActionSwap:
		res, err = sub.SwapSubsidized(ctx, in, out, *amount, quote)
	case subsidized.ActionBurn:
		res, err = sub.ClaimAndBurnSubsidized(ctx, in, *amount)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to submit action")
	}

	log.Info().Str("tx", res.TxID).Str("queue", res.QueueID).Msg("action relayed")
}

func inputToken(network mover.Network, addr string, decimals int) (mover.SmallToken, error) {
	if addr == "" {
		move, ok := mover.MoveAssetData(network)
		if !ok {
			return mover.SmallToken{}, subsidized.ErrOnlyMoveBurnable
		}
		return move, nil
	}

	if !common.IsHexAddress(addr) {
		return mover.SmallToken{}, fmt.Errorf("invalid address: %s", addr)
	}

	return mover.SmallToken{Address: common.HexToAddress(addr), Decimals: decimals}, nil
}

func actionString(kind subsidized.ActionKind, account common.Address, ts int64, in, out mover.SmallToken, amount string, quote subsidized.Quote) (string, error) {
	wei, err := com.ToWei(amount, in.Decimals)
	if err != nil {
		return "", err
	}

	if kind == subsidized.ActionSwap {
		return subsidized.SwapActionString(account, ts, in.Address, out.Address, wei, subsidized.ExpectedMinimum(quote.BuyAmount)), nil
	}

	return subsidized.BurnActionString(account, ts, in.Address, wei), nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	com "github.com/viamover/moverd/internal/common"
	"github.com/viamover/moverd/internal/config"
	igov "github.com/viamover/moverd/internal/governance"
	"github.com/viamover/moverd/internal/savings"
	"github.com/viamover/moverd/internal/services/db"
	"github.com/viamover/moverd/internal/services/ethrequest"
	"github.com/viamover/moverd/internal/services/moverapi"
	"github.com/viamover/moverd/internal/services/reporter"
	"github.com/viamover/moverd/internal/services/smarttreasury"
	"github.com/viamover/moverd/internal/services/snapshot"
	"github.com/viamover/moverd/internal/services/webhook"
	isub "github.com/viamover/moverd/internal/subsidized"
	itreasury "github.com/viamover/moverd/internal/treasury"
	"github.com/viamover/moverd/internal/version"
	"github.com/viamover/moverd/pkg/governance"
	"github.com/viamover/moverd/pkg/mover"
	"github.com/viamover/moverd/pkg/queue"
	"github.com/viamover/moverd/pkg/router"
	"github.com/viamover/moverd/pkg/subsidized"
	"github.com/viamover/moverd/pkg/treasury"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	log.Info().Msg("launching moverd...")

	env := flag.String("env", ".env", "path to .env file")

	port := flag.Int("port", 3000, "port to listen on")

	bufferSize := flag.Int("buffer", 100, "persist queue buffer size (default: 100)")

	notify := flag.Bool("notify", true, "enable notifications")

	debug := flag.Bool("debug", false, "enable debug logging")

	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conf, err := config.New(ctx, *env)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if conf.SentryURL != "" && conf.SentryURL != "x" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn:              conf.SentryURL,
			TracesSampleRate: 1.0,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("sentry.Init")
		}
	}

	network, err := conf.ParsedNetwork()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid network")
	}

	log.Info().Str("url", conf.RPCURL).Msg("connecting to rpc...")

	evm, err := ethrequest.NewEthService(ctx, conf.RPCURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to rpc")
	}
	defer evm.Close()

	chid, err := evm.ChainID(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to fetch chain id")
	}

	if n, ok := mover.NetworkByChainID(chid); !ok || n != network {
		log.Warn().Str("chain", chid.String()).Str("network", string(network)).Msg("rpc chain does not match the configured network")
	}

	var wallet mover.Wallet = evm
	account := conf.Account()

	if conf.AccountPrivateKey != "" {
		signer, err := ethrequest.NewKeySigner(conf.AccountPrivateKey, evm)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid account private key")
		}

		if conf.AccountAddress != "" && !com.IsSameHexAddress(conf.AccountAddress, signer.Address().Hex()) {
			log.Warn().Str("configured", conf.AccountAddress).Str("key", signer.Address().Hex()).Msg("ACCOUNT_ADDRESS does not match the private key, using the key")
		}

		wallet = signer
		account = signer.Address()
	}

	if account == (common.Address{}) {
		accounts, err := evm.Accounts(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to fetch accounts")
		}
		if len(accounts) > 0 {
			account = accounts[0]
		}
	}

	if account == (common.Address{}) {
		log.Warn().Msg("no account connected, signing operations are disabled")
	} else {
		log.Info().Str("account", account.Hex()).Msg("account connected")
	}

	w := webhook.NewMessager(conf.DiscordURL, fmt.Sprintf("moverd/%s/%s", network, com.ShortenName(account.Hex(), 6)), *notify)

	rep := reporter.New(sentry.CurrentHub(), w)
	// Flush buffered events before the program terminates.
	defer rep.Flush(2 * time.Second)

	var store mover.ExpiringStore
	if conf.DB.Enabled() {
		log.Info().Msg("starting postgres store...")

		pg, err := db.NewPostgresDB(conf.DB.URL(), conf.DB.ReaderURL(), string(network), nil)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		defer pg.Close()

		go purgeExpired(ctx, pg.PersistDB, rep)

		store = pg.PersistDB
	} else {
		log.Info().Msg("no database configured, state is kept in memory")
		store = db.NewMemoryStore(nil)
	}

	api := moverapi.New(moverapi.Config{
		BaseURL:    conf.MoverAPIURL,
		APIViewURL: conf.MoverAPIViewURL,
		Network:    network,
	})

	snap := snapshot.New(snapshot.Config{
		HubURL:    conf.SnapshotHubURL,
		ScoreURL:  conf.SnapshotScoreURL,
		RateLimit: conf.SnapshotRateLimit,
	}, nil)

	st, err := smarttreasury.New(common.HexToAddress(conf.SmartTreasuryAddress), evm.Backend())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind smart treasury")
	}

	quitAck := make(chan error)

	persistq := queue.NewService("persist", 3, *bufferSize, ctx, w)
	defer persistq.Close()

	ts := treasury.NewService(account, api, store, persistq, rep, nil)
	if err := ts.Restore(ctx); err != nil {
		rep.CaptureException(err)
		log.Error().Err(err).Msg("failed to restore treasury cache")
	}

	go func() {
		quitAck <- persistq.Start(ts)
	}()

	agg := governance.New(governance.Config{
		SpaceID:                          conf.SnapshotSpace,
		CachePeriod:                      conf.GovernanceCachePeriod,
		MinimumVotingThresholdMultiplier: conf.GovernanceQuorumMultiplier,
		ProposalDurationDays:             conf.ProposalDurationDays,
	}, governance.Deps{
		Source:  snap,
		Power:   api,
		Wallet:  wallet,
		Tracker: rep,
		Account: account,
	})

	sub := subsidized.NewSubmitter(account, network, wallet, api, st, rep, nil)

	srv := router.NewServer(
		conf.APIKEY,
		nil,
		igov.NewService(agg),
		isub.NewService(network, sub, nil),
		savings.NewService(account, network, api, sub),
		itreasury.NewService(account, ts, st),
		version.NewService(network),
	)

	go func() {
		quitAck <- srv.Start(*port)
	}()

	log.Info().Int("port", *port).Msg("listening")

	for err := range quitAck {
		if err != nil {
			w.NotifyError(ctx, err)
			sentry.CaptureException(err)
			sentry.Flush(2 * time.Second)
			log.Fatal().Err(err).Msg("service stopped")
		}
	}

	log.Info().Msg("moverd stopped")
}

func purgeExpired(ctx context.Context, p *db.PersistDB, t mover.ErrorTracker) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				t.CaptureException(err)
				continue
			}
			log.Debug().Int64("rows", n).Msg("purged expired entries")
		}
	}
}

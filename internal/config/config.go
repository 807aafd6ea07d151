package config

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"
	"github.com/viamover/moverd/pkg/mover"
)

var ErrInvalidAccount = errors.New("ACCOUNT_ADDRESS is not a valid address")

type Config struct {
	RPCURL            string `env:"RPC_URL,default=http://localhost:8545"`
	Network           string `env:"NETWORK,default=mainnet"`
	AccountAddress    string `env:"ACCOUNT_ADDRESS"`
	AccountPrivateKey string `env:"ACCOUNT_PRIVATE_KEY"`
	APIKEY            string `env:"API_KEY"`
	SentryURL         string `env:"SENTRY_URL"`
	DiscordURL        string `env:"DISCORD_URL"`

	MoverAPIURL     string `env:"MOVER_API_URL"`
	MoverAPIViewURL string `env:"MOVER_APIVIEW_URL"`

	SnapshotHubURL    string  `env:"SNAPSHOT_HUB_URL"`
	SnapshotScoreURL  string  `env:"SNAPSHOT_SCORE_URL"`
	SnapshotSpace     string  `env:"SNAPSHOT_SPACE,default=move.eth"`
	SnapshotRateLimit float64 `env:"SNAPSHOT_RATE_LIMIT,default=5"`

	GovernanceCachePeriod      time.Duration `env:"GOVERNANCE_CACHE_PERIOD,default=5m"`
	GovernanceQuorumMultiplier float64       `env:"GOVERNANCE_QUORUM_MULTIPLIER,default=1.5"`
	ProposalDurationDays       int           `env:"PROPOSAL_DURATION_DAYS,default=5"`

	SmartTreasuryAddress string `env:"SMART_TREASURY_ADDRESS,default=0x94F748BfD1483750a7dF01aCD993213Ab64C960F"`

	DB DBConfig
}

func New(ctx context.Context, envpath string) (*Config, error) {
	if envpath != "" {
		log.Info().Str("path", envpath).Msg("loading env from file")
		err := godotenv.Load(envpath)
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	err := envconfig.Process(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if _, err := cfg.ParsedNetwork(); err != nil {
		return nil, err
	}

	if cfg.AccountAddress != "" && !common.IsHexAddress(cfg.AccountAddress) {
		return nil, ErrInvalidAccount
	}

	return cfg, nil
}

func (c *Config) ParsedNetwork() (mover.Network, error) {
	return mover.ParseNetwork(c.Network)
}

// Account returns the configured account, the zero address when there is none
func (c *Config) Account() common.Address {
	if c.AccountAddress == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.AccountAddress)
}

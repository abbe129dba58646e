// Package config loads the service settings from the environment and the
// per network subgraph table from an optional YAML file.
package config

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/treeder/gotils/v2"
	"gopkg.in/yaml.v2"
)

// DefaultFeeRate is the swap fee charged by every emiswap pool
const DefaultFeeRate = 0.003

// Config is the process wide configuration
type Config struct {
	Port            int           `envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	NetworksFile    string        `envconfig:"NETWORKS_FILE"`
	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"1m" validate:"gt=0"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"10m" validate:"gt=0"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`

	CoingeckoURL string  `envconfig:"COINGECKO_URL" default:"https://api.coingecko.com/api/v3" validate:"required,url"`
	CoingeckoRPS float64 `envconfig:"COINGECKO_RPS" default:"0.8" validate:"gt=0"`
	SubgraphRPS  float64 `envconfig:"SUBGRAPH_RPS" default:"10" validate:"gt=0"`

	LogoCacheSize        int `envconfig:"LOGO_CACHE_SIZE" default:"1024" validate:"min=1"`
	AllTimeMonths        int `envconfig:"ALL_TIME_MONTHS" default:"3" validate:"min=1"`
	TopTokensConcurrency int `envconfig:"TOP_TOKENS_CONCURRENCY" default:"8" validate:"min=1"`

	Networks []*Network `ignored:"true" validate:"required,min=1,dive"`
}

// TokenAlias renames a token in listings, used for wrapped native tokens
type TokenAlias struct {
	Name   string `yaml:"name" json:"name" validate:"required"`
	Symbol string `yaml:"symbol" json:"symbol" validate:"required"`
}

// Network is one chain the dashboard can switch to
type Network struct {
	Name           string `yaml:"name" json:"network" validate:"required,alphanum,lowercase"`
	Alias          string `yaml:"alias" json:"alias"`
	DisplayName    string `yaml:"displayName" json:"name"`
	FactoryAddress string `yaml:"factoryAddress" json:"factoryAddress" validate:"required,eth_addr"`
	SubgraphURL    string `yaml:"subgraphURL" json:"-" validate:"required,url"`
	BlocksURL      string `yaml:"blocksURL" json:"-" validate:"omitempty,url"`
	RPCURL         string `yaml:"rpcURL" json:"-" validate:"omitempty,url"`
	CurrencySymbol string `yaml:"currencySymbol" json:"currencySymbol" validate:"required"`
	ScanURL        string `yaml:"scanURL" json:"scanUrl"`

	// CoingeckoPlatform is the asset platform id for token_price lookups
	CoingeckoPlatform string `yaml:"coingeckoPlatform" json:"-" validate:"required"`

	// FixedEthPrice pins the native price for chains without a usable bundle
	FixedEthPrice       float64 `yaml:"fixedEthPrice" json:"-" validate:"gte=0"`
	FixedOneDayEthPrice float64 `yaml:"fixedOneDayEthPrice" json:"-" validate:"gte=0"`

	FeeRate float64 `yaml:"feeRate" json:"feeRate" validate:"gte=0,lt=1"`

	// LogoURLs are tried in order, {address} and {lowerAddress} are replaced
	LogoURLs        []string `yaml:"logoURLs" json:"-" validate:"dive,required"`
	PlaceholderLogo string   `yaml:"placeholderLogo" json:"-" validate:"omitempty,url"`

	Aliases map[string]TokenAlias `yaml:"aliases" json:"-" validate:"dive,keys,eth_addr,endkeys"`
}

type networksFile struct {
	Networks []*Network `yaml:"networks"`
}

// Load reads .env (if present), the environment and the networks table
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, gotils.C(ctx).Errorf("error loading .env: %v", err)
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, gotils.C(ctx).Errorf("error on envconfig.Process: %v", err)
	}

	if cfg.NetworksFile != "" {
		ns, err := LoadNetworks(ctx, cfg.NetworksFile)
		if err != nil {
			return nil, err
		}
		cfg.Networks = ns
	} else {
		cfg.Networks = DefaultNetworks()
	}

	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadNetworks reads a YAML file with a top level networks list
func LoadNetworks(ctx context.Context, path string) ([]*Network, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, gotils.C(ctx).Errorf("error reading networks file %q: %v", path, err)
	}
	nf := &networksFile{}
	if err := yaml.UnmarshalStrict(b, nf); err != nil {
		return nil, gotils.C(ctx).Errorf("error parsing networks file %q: %v", path, err)
	}
	return nf.Networks, nil
}

// Validate fills network defaults and checks the whole config
func (c *Config) Validate(ctx context.Context) error {
	seen := map[string]bool{}
	for _, n := range c.Networks {
		if n == nil {
			return gotils.C(ctx).Errorf("nil network entry")
		}
		n.setDefaults()
		if n.BlocksURL == "" && n.RPCURL == "" {
			return gotils.C(ctx).Errorf("network %q needs a blocksURL or an rpcURL", n.Name)
		}
		if seen[n.Name] {
			return gotils.C(ctx).Errorf("duplicate network %q", n.Name)
		}
		seen[n.Name] = true
	}
	if err := validator.New().Struct(c); err != nil {
		return gotils.C(ctx).Errorf("invalid config: %v", err)
	}
	return nil
}

func (n *Network) setDefaults() {
	n.Name = strings.ToLower(n.Name)
	if n.FeeRate == 0 {
		n.FeeRate = DefaultFeeRate
	}
	if n.CoingeckoPlatform == "" {
		n.CoingeckoPlatform = "ethereum"
	}
	if len(n.LogoURLs) == 0 {
		n.LogoURLs = []string{
			"https://raw.githubusercontent.com/trustwallet/assets/master/blockchains/ethereum/assets/{address}/logo.png",
			"https://1inch.exchange/assets/tokens/{lowerAddress}.png",
		}
	}
	if n.PlaceholderLogo == "" {
		n.PlaceholderLogo = "https://etherscan.io/images/main/empty-token.png"
	}
	aliases := make(map[string]TokenAlias, len(n.Aliases))
	for k, v := range n.Aliases {
		aliases[strings.ToLower(k)] = v
	}
	n.Aliases = aliases
}

// Network finds a configured network by name
func (c *Config) Network(name string) (*Network, bool) {
	name = strings.ToLower(name)
	for _, n := range c.Networks {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// HasFixedEthPrice is true when the native price is pinned in config
func (n *Network) HasFixedEthPrice() bool {
	return n.FixedEthPrice > 0
}

// DefaultNetworks is the table used when no networks file is given
func DefaultNetworks() []*Network {
	return []*Network{
		{
			Name:              "main",
			Alias:             "MAINNET",
			DisplayName:       "Ethereum",
			FactoryAddress:    "0x1771dff85160768255F0a44D20965665806cBf48",
			SubgraphURL:       "https://api.thegraph.com/subgraphs/name/lombardi22/emiswap8",
			BlocksURL:         "https://api.thegraph.com/subgraphs/name/blocklytics/ethereum-blocks",
			CurrencySymbol:    "ETH",
			ScanURL:           "etherscan.io",
			CoingeckoPlatform: "ethereum",
			Aliases: map[string]TokenAlias{
				"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": {Name: "Ether (Wrapped)", Symbol: "ETH"},
			},
		},
		{
			Name:              "kcc",
			Alias:             "KUCOIN",
			DisplayName:       "KuCoin",
			FactoryAddress:    "0x945316F2964ef5C6C84921b435a528DD1790E93a",
			SubgraphURL:       "https://thegraph.kcc.network/subgraphs/name/emiswap/emiswap1",
			BlocksURL:         "https://thegraph.kcc.network/subgraphs/name/kcc-blocks",
			RPCURL:            "https://rpc-mainnet.kcc.network",
			CurrencySymbol:    "KCS",
			ScanURL:           "explorer.kcc.io",
			CoingeckoPlatform: "kucoin-community-chain",
			LogoURLs: []string{
				"https://raw.githubusercontent.com/KoffeeSwap/kcc-assets/main/mainnet/tokens/{address}/logo.png",
				"https://1inch.exchange/assets/tokens/{lowerAddress}.png",
			},
			Aliases: map[string]TokenAlias{
				"0x4446fc4eb47f2f6586f9faab68b3498f86c07521": {Name: "KuCoin (Wrapped)", Symbol: "KCS"},
			},
		},
	}
}

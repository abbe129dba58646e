package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("ALLOWED_ORIGINS", "https://info.emiswap.com,http://localhost:3000")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, []string{"https://info.emiswap.com", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 3, cfg.AllTimeMonths)
	require.Len(t, cfg.Networks, 2)

	kcc, ok := cfg.Network("KCC")
	require.True(t, ok)
	assert.Equal(t, DefaultFeeRate, kcc.FeeRate)
	assert.Equal(t, "KCS", kcc.Aliases["0x4446fc4eb47f2f6586f9faab68b3498f86c07521"].Symbol)
	assert.Contains(t, kcc.LogoURLs[0], "kcc-assets")

	_, ok = cfg.Network("nope")
	assert.False(t, ok)
}

func TestLoadNetworksFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
networks:
  - name: aurora
    alias: AURORA
    factoryAddress: "0x0000000000000000000000000000000000000001"
    subgraphURL: https://example.com/subgraphs/emiswap
    rpcURL: https://rpc.example.com
    currencySymbol: ETH
    coingeckoPlatform: aurora
    fixedEthPrice: 2628
    fixedOneDayEthPrice: 2621
    aliases:
      "0xC9BDEED33CD01541E1EED10F90519D2C06FE3FEB":
        name: Ether (Wrapped)
        symbol: ETH
`), 0o644))
	t.Setenv("NETWORKS_FILE", path)

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	require.Len(t, cfg.Networks, 1)

	n := cfg.Networks[0]
	assert.True(t, n.HasFixedEthPrice())
	assert.Equal(t, 2621.0, n.FixedOneDayEthPrice)
	assert.NotEmpty(t, n.PlaceholderLogo)
	// alias keys are normalized
	assert.Equal(t, "ETH", n.Aliases["0xc9bdeed33cd01541e1eed10f90519d2c06fe3feb"].Symbol)
}

func TestValidate(t *testing.T) {
	valid := func() *Network {
		return &Network{
			Name:           "main",
			FactoryAddress: "0x1771dff85160768255F0a44D20965665806cBf48",
			SubgraphURL:    "https://example.com/subgraph",
			BlocksURL:      "https://example.com/blocks",
			CurrencySymbol: "ETH",
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"no networks", func(c *Config) { c.Networks = nil }, false},
		{"bad factory", func(c *Config) { c.Networks[0].FactoryAddress = "0x123" }, false},
		{"no block source", func(c *Config) {
			c.Networks[0].BlocksURL = ""
			c.Networks[0].RPCURL = ""
		}, false},
		{"rpc only", func(c *Config) {
			c.Networks[0].BlocksURL = ""
			c.Networks[0].RPCURL = "https://rpc.example.com"
		}, true},
		{"duplicate", func(c *Config) { c.Networks = append(c.Networks, valid()) }, false},
		{"fee rate", func(c *Config) { c.Networks[0].FeeRate = 1.5 }, false},
		{"bad port", func(c *Config) { c.Port = 0 }, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := &Config{
				Port:                 8080,
				CacheTTL:             time.Minute,
				RefreshInterval:      time.Minute,
				CoingeckoURL:         "https://api.coingecko.com/api/v3",
				CoingeckoRPS:         1,
				SubgraphRPS:          1,
				LogoCacheSize:        1,
				AllTimeMonths:        1,
				TopTokensConcurrency: 1,
				Networks:             []*Network{valid()},
			}
			test.mutate(c)
			err := c.Validate(context.Background())
			if test.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

package params

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultRPCURL         = "https://sepolia-rollup.arbitrum.io/rpc"
	DefaultAPIBaseURL     = "https://api-v2.pendle.finance/core"
	DefaultConvertBaseURL = "https://api-v2.pendle.finance/convert"

	// DefaultConfirmTimeout bounds the post-submission wait for a receipt.
	DefaultConfirmTimeout = 300 * time.Second
)

// NetworkInfo describes the chain the agent signs against.
type NetworkInfo struct {
	Name           string `json:"name"`
	ChainID        uint64 `json:"chainId"`
	RPCURL         string `json:"rpcUrl"`
	BlockExplorer  string `json:"blockExplorer"`
	CurrencySymbol string `json:"currencySymbol"`
	IsTestnet      bool   `json:"isTestnet"`
}

// ArbitrumSepolia is the default signing network.
var ArbitrumSepolia = NetworkInfo{
	Name:           "Arbitrum Sepolia",
	ChainID:        421614,
	RPCURL:         DefaultRPCURL,
	BlockExplorer:  "https://sepolia.arbiscan.io/",
	CurrencySymbol: "ETH",
	IsTestnet:      true,
}

// SupportedChains lists the chains the hosted SDK serves.
var SupportedChains = map[string]uint64{
	"ethereum": 1,
	"arbitrum": 42161,
	"optimism": 10,
	"bsc":      56,
	"mantle":   5000,
}

// Config is loaded once at process start. A missing router address is a
// valid state (contract not deployed on the active network), not an error.
type Config struct {
	RPCURL           string
	WalletPrivateKey string
	RouterAddress    *common.Address
	Network          NetworkInfo
	APIBaseURL       string
	ConvertBaseURL   string
	ConfirmTimeout   time.Duration
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RPCURL:           envOrDefault("RPC_URL", DefaultRPCURL),
		WalletPrivateKey: os.Getenv("WALLET_PRIVATE_KEY"),
		Network:          ArbitrumSepolia,
		APIBaseURL:       envOrDefault("PENDLE_API_BASE", DefaultAPIBaseURL),
		ConvertBaseURL:   envOrDefault("PENDLE_CONVERT_BASE", DefaultConvertBaseURL),
		ConfirmTimeout:   DefaultConfirmTimeout,
	}

	if raw := os.Getenv("PENDLE_ROUTER_ADDRESS"); common.IsHexAddress(raw) {
		addr := common.HexToAddress(raw)
		cfg.RouterAddress = &addr
	}

	if raw := os.Getenv("TX_CONFIRM_TIMEOUT"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("invalid TX_CONFIRM_TIMEOUT %q", raw)
		}
		cfg.ConfirmTimeout = time.Duration(seconds) * time.Second
	}

	return cfg, nil
}

// RouterDeployed reports whether the router contract is bound on the active
// network.
func (c *Config) RouterDeployed() bool {
	return c.RouterAddress != nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

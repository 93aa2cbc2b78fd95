package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"

	"github.com/pendle-tools/pendle-agent/account"
	"github.com/pendle-tools/pendle-agent/params"
	"github.com/pendle-tools/pendle-agent/services/yield"
	"github.com/pendle-tools/pendle-agent/thirdparty/pendleapi"
	"github.com/pendle-tools/pendle-agent/transactions"
)

const banner = `
  Pendle Agent - yield trading and liquidity management
`

func main() {
	log.Root().SetHandler(log.LvlFilterHandler(log.LvlInfo, log.StreamHandler(os.Stderr, log.TerminalFormat(true))))
	logger := log.New("package", "pendle-agent/main")

	fmt.Print(banner)

	cfg, err := params.LoadConfig()
	if err != nil {
		logger.Crit("Invalid configuration", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	chainClient, err := ethclient.DialContext(ctx, cfg.RPCURL)
	cancel()
	if err != nil {
		logger.Crit("Failed to dial RPC endpoint", "url", cfg.RPCURL, "error", err)
	}
	defer chainClient.Close()

	var manager *account.Manager
	if cfg.WalletPrivateKey != "" {
		manager, err = account.NewManager(cfg.WalletPrivateKey)
		if err != nil {
			logger.Crit("Invalid wallet private key", "error", err)
		}
		logger.Info("Wallet loaded", "address", manager.Address())
	} else {
		logger.Warn("No wallet key configured, direct-chain operations disabled")
	}

	var executor *yield.Executor
	{
		var sender yield.TxSender
		if manager != nil {
			transactor := transactions.NewTransactor(chainClient, cfg.Network.ChainID, manager.PrivateKey())
			transactor.SetConfirmTimeout(cfg.ConfirmTimeout)
			sender = transactor
		}
		executor, err = yield.NewExecutor(sender, cfg.RouterAddress)
		if err != nil {
			logger.Crit("Failed to initialize executor", "error", err)
		}
	}

	apiClient := pendleapi.NewClient(pendleapi.WithBaseURLs(cfg.APIBaseURL, cfg.ConvertBaseURL))
	service := yield.NewService(executor, apiClient, manager, chainClient, cfg)
	if err := service.Start(); err != nil {
		logger.Crit("Failed to start service", "error", err)
	}

	logger.Info("Environment check",
		"network", cfg.Network.Name,
		"chainID", cfg.Network.ChainID,
		"routerDeployed", cfg.RouterDeployed(),
		"walletConfigured", manager != nil)
	for _, api := range service.APIs() {
		logger.Info("Namespace registered", "namespace", api.Namespace, "version", api.Version)
	}
	logger.Info("Agent ready")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
	sig := <-interrupt

	logger.Info("Shutting down", "signal", sig)
	if err := service.Stop(); err != nil {
		logger.Error("Service stop failed", "error", err)
	}
}

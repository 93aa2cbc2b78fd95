package yield

import (
	"github.com/ethereum/go-ethereum/p2p"
	ethRpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/pendle-tools/pendle-agent/account"
	"github.com/pendle-tools/pendle-agent/params"
	"github.com/pendle-tools/pendle-agent/thirdparty/pendleapi"
)

// Yield trading service
type Service struct {
	api *API
}

// Returns a new yield Service. accountManager may be nil when no signing key
// is configured; direct-chain operations then report the missing wallet.
func NewService(executor *Executor, client *pendleapi.Client, accountManager *account.Manager, balanceReader account.BalanceReader, config *params.Config) *Service {
	return &Service{
		NewAPI(executor, client, accountManager, balanceReader, config),
	}
}

// Protocols returns a new protocols list. In this case, there are none.
func (s *Service) Protocols() []p2p.Protocol {
	return []p2p.Protocol{}
}

// APIs returns a list of new APIs.
func (s *Service) APIs() []ethRpc.API {
	return []ethRpc.API{
		{
			Namespace: "yield",
			Version:   "0.1.0",
			Service:   s.api,
			Public:    true,
		},
	}
}

// Start is run when a service is started.
func (s *Service) Start() error {
	return nil
}

// Stop is run when a service is stopped.
func (s *Service) Stop() error {
	return nil
}

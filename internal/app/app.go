// Package app wires every subsystem component into the engine's fx
// dependency graph: config and logging at the root, the chain/pool/
// signer/relay/simulator collaborators built from them, the strategy
// Manager built from those, and the mempool ingester and status API
// that drive and observe it.
package app

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mev-engine/sandwich-arb-engine/internal/api"
	"github.com/mev-engine/sandwich-arb-engine/internal/config"
	"github.com/mev-engine/sandwich-arb-engine/internal/logging"
	"github.com/mev-engine/sandwich-arb-engine/pkg/alert"
	"github.com/mev-engine/sandwich-arb-engine/pkg/chain"
	"github.com/mev-engine/sandwich-arb-engine/pkg/mempool"
	"github.com/mev-engine/sandwich-arb-engine/pkg/metrics"
	"github.com/mev-engine/sandwich-arb-engine/pkg/pool"
	"github.com/mev-engine/sandwich-arb-engine/pkg/relay"
	"github.com/mev-engine/sandwich-arb-engine/pkg/signer"
	"github.com/mev-engine/sandwich-arb-engine/pkg/simulation"
	"github.com/mev-engine/sandwich-arb-engine/pkg/strategy"
	"github.com/mev-engine/sandwich-arb-engine/pkg/strategy/arbitrage"
	mevtypes "github.com/mev-engine/sandwich-arb-engine/pkg/types"
)

// Application owns the ingester and status API's start/stop lifecycle.
type Application struct {
	cfg       *config.Config
	ingester  *mempool.Ingester
	apiServer *api.Server
	log       *zap.SugaredLogger

	cancel context.CancelFunc
}

// NewApplication assembles an Application from its fully-constructed
// collaborators.
func NewApplication(cfg *config.Config, ingester *mempool.Ingester, apiServer *api.Server, log *zap.SugaredLogger) *Application {
	return &Application{cfg: cfg, ingester: ingester, apiServer: apiServer, log: log}
}

// Start brings up the status API and runs the mempool ingester until
// ctx is cancelled. It returns once startup completes; the ingester
// itself keeps running on a background goroutine.
func (a *Application) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.apiServer.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("start api server: %w", err)
	}

	go func() {
		if err := a.ingester.Run(runCtx); err != nil && runCtx.Err() == nil {
			a.log.Errorw("mempool ingester stopped", "error", err)
		}
	}()

	a.log.Infow("engine started", "bind", fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port))
	return nil
}

// Stop shuts down the status API and signals the ingester to exit.
func (a *Application) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	if err := a.apiServer.Stop(ctx); err != nil {
		return fmt.Errorf("stop api server: %w", err)
	}
	a.log.Info("engine stopped")
	return nil
}

func provideLogger() (*zap.SugaredLogger, error) {
	return logging.New(viper.GetBool("debug"))
}

func provideChainClient(cfg *config.Config) (chain.Client, error) {
	client, err := ethclient.Dial(cfg.Chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc %s: %w", cfg.Chain.RPCURL, err)
	}
	return client, nil
}

// provideSigner loads the bot's trading key from the configured
// environment variable, falling back to a freshly generated ephemeral
// key (logged loudly) so the engine still starts in a local/dev
// environment with no funded account configured.
func provideSigner(cfg *config.Config, log *zap.SugaredLogger, chainClient chain.Client) (*signer.Signer, error) {
	key, err := loadOrGenerateKey(cfg.Signer.PrivateKeyEnv, log, "trading")
	if err != nil {
		return nil, err
	}

	addr := crypto.PubkeyToAddress(key.PublicKey)
	nonce := cfg.Signer.StartNonce
	if n, err := chainNonce(chainClient, addr); err == nil {
		nonce = n
	} else {
		log.Warnw("falling back to configured start nonce, could not read on-chain nonce", "address", addr.Hex(), "error", err)
	}

	return signer.New(key, nonce), nil
}

func chainNonce(chainClient chain.Client, addr common.Address) (uint64, error) {
	type nonceReader interface {
		PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	}
	reader, ok := chainClient.(nonceReader)
	if !ok {
		return 0, fmt.Errorf("chain client does not expose PendingNonceAt")
	}
	return reader.PendingNonceAt(context.Background(), addr)
}

func provideAuthSigner(cfg *config.Config, log *zap.SugaredLogger) (*signer.AuthSigner, error) {
	key, err := loadOrGenerateKey(cfg.Signer.AuthKeyEnv, log, "relay auth")
	if err != nil {
		return nil, err
	}
	return signer.NewAuthSignerFromKey(key), nil
}

func loadOrGenerateKey(envVar string, log *zap.SugaredLogger, purpose string) (*ecdsa.PrivateKey, error) {
	if raw := os.Getenv(envVar); raw != "" {
		key, err := crypto.HexToECDSA(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s key from %s: %w", purpose, envVar, err)
		}
		return key, nil
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate ephemeral %s key: %w", purpose, err)
	}
	log.Warnw("no key configured, generated an ephemeral one", "purpose", purpose, "env_var", envVar, "address", crypto.PubkeyToAddress(key.PublicKey).Hex())
	return key, nil
}

func providePoolProvider(cfg *config.Config, chainClient chain.Client) pool.Provider {
	factory := common.HexToAddress(cfg.Pool.FactoryAddress)
	resolver := pool.NewFactoryResolver(chainClient, factory)
	base := pool.NewEthClientProvider(chainClient, resolver, cfg.Pool.DefaultFeeBps)
	return pool.NewCachingProvider(base, cfg.Pool.CacheTTL)
}

func provideRelayClient(cfg *config.Config, auth *signer.AuthSigner) *relay.Client {
	return relay.New(cfg.Relay.Endpoint, auth)
}

func provideSimulator(chainClient chain.Client) *simulation.Simulator {
	return simulation.NewSimulator(chainClient)
}

func provideCollector(cfg *config.Config) *metrics.Collector {
	return metrics.NewCollector(&metrics.CollectorConfig{MaxRecords: cfg.Monitoring.MaxRecords})
}

func provideAlertSink(log *zap.SugaredLogger) alert.Sink {
	return alert.NewLogSink(log)
}

func provideStrategyManager(
	cfg *config.Config,
	pools pool.Provider,
	chainClient chain.Client,
	sim *simulation.Simulator,
	s *signer.Signer,
	relayClient *relay.Client,
	collector *metrics.Collector,
	alertSink alert.Sink,
	log *zap.SugaredLogger,
) *strategy.Manager {
	stables := make([]common.Address, len(cfg.Arbitrage.Stables))
	for i, addr := range cfg.Arbitrage.Stables {
		stables[i] = common.HexToAddress(addr)
	}

	m := strategy.New(strategy.Config{
		ChainID:       cfg.Chain.ChainID,
		RouterAddress: common.HexToAddress(cfg.Router.Address),
		FrontrunLimit: cfg.Router.FrontrunLimit,
		BackrunLimit:  cfg.Router.BackrunLimit,
		DeadlineSkew:  cfg.Router.DeadlineSkew,
		ExpiryWindow:  cfg.Router.ExpiryWindow,
		Vocab: arbitrage.Vocabulary{
			Wrapped: common.HexToAddress(cfg.Arbitrage.WrappedToken),
			Stables: stables,
		},
	}, pools, chainClient, sim, s, relayClient, log)

	m.SetAlertSink(alertSink)
	m.SetRecorder(collector)
	return m
}

func provideIngester(cfg *config.Config, m *strategy.Manager, collector *metrics.Collector, log *zap.SugaredLogger) *mempool.Ingester {
	handler := func(ctx context.Context, tx *mevtypes.Transaction) {
		start := time.Now()
		m.HandleTransaction(ctx, tx)
		collector.ObserveHandleLatency(time.Since(start))
	}

	ig := mempool.NewIngester(mempool.IngestConfig{
		WSURL:           cfg.Chain.WebSocketURL,
		DedupeCapacity:  cfg.Mempool.DedupeCapacity,
		WorkerPoolSize:  cfg.Mempool.WorkerPoolSize,
		WorkerQueueSize: cfg.Mempool.WorkerQueueSize,
		StreamConfig: mempool.TransactionStreamConfig{
			MinGasPrice: gweiToWei(cfg.Mempool.MinGasPriceGwei),
			MaxGasPrice: gweiToWei(cfg.Mempool.MaxGasPriceGwei),
		},
	}, handler, log)
	ig.SetMetrics(collector)
	return ig
}

func gweiToWei(gwei float64) *big.Int {
	wei := new(big.Float).Mul(big.NewFloat(gwei), big.NewFloat(1_000_000_000))
	result, _ := wei.Int(nil)
	return result
}

func provideAPIServer(cfg *config.Config, m *strategy.Manager, collector *metrics.Collector, log *zap.SugaredLogger) *api.Server {
	return api.NewServer(cfg, m, collector, log)
}

// Module provides the fx module for dependency injection.
var Module = fx.Options(
	fx.Provide(
		provideLogger,
		provideChainClient,
		provideSigner,
		provideAuthSigner,
		providePoolProvider,
		provideRelayClient,
		provideSimulator,
		provideCollector,
		provideAlertSink,
		provideStrategyManager,
		provideIngester,
		provideAPIServer,
		NewApplication,
	),
)

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/layer-3/accolade/adapters/chain"
	"github.com/layer-3/accolade/adapters/events"
	"github.com/layer-3/accolade/adapters/ipfs"
	"github.com/layer-3/accolade/adapters/questions"
	"github.com/layer-3/accolade/adapters/records"
	"github.com/layer-3/accolade/adapters/render"
	"github.com/layer-3/accolade/adapters/store"
	"github.com/layer-3/accolade/config"
	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/logger"
	"github.com/layer-3/accolade/metrics"
	"github.com/layer-3/accolade/ports"
	"github.com/layer-3/accolade/service"
	httptransport "github.com/layer-3/accolade/transport/http"
	"github.com/layer-3/accolade/workers/cleanup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("accolade stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	wmLogger := watermill.NewSlogLogger(log)

	var (
		ledger      ports.Ledger
		publisher   message.Publisher
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}

		publisher, err = redisstream.NewPublisher(redisstream.PublisherConfig{Client: redisClient}, wmLogger)
		if err != nil {
			return fmt.Errorf("create redis publisher: %w", err)
		}
		ledger = store.NewRedisLedger(redisClient)
		log.Info("using redis ledger and event stream")
	} else {
		publisher = gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
		ledger = store.NewMemoryLedger()
		log.Info("using in-memory ledger")
	}
	defer publisher.Close()
	eventPub := events.NewWatermillPublisher(publisher)

	var recordStore ports.RecordStore
	switch cfg.Assets.RecordsBackend {
	case config.RecordsBackendRedis:
		recordStore = records.NewRedisStore(redisClient)
	default:
		recordStore = records.NewFileStore(cfg.Assets.RecordsFile)
	}

	bank, err := loadBank(cfg.Assets.QuestionsFile)
	if err != nil {
		return err
	}

	sessions := store.NewMemorySessionStore()
	opts := []service.Option{
		service.WithPolicy(policyFrom(cfg)),
		service.WithLogger(log),
		service.WithMetrics(m),
	}

	quiz, err := service.NewQuizService(ledger, sessions, bank, opts...)
	if err != nil {
		return err
	}
	accounts, err := service.NewAccountService(ledger, sessions, opts...)
	if err != nil {
		return err
	}
	services := httptransport.Services{Quiz: quiz, Accounts: accounts}

	chainClient, err := dialChain(ctx, cfg.Chain)
	if err != nil {
		return err
	}
	if chainClient != nil {
		services.Chain = chainClient
		if services.Mint, err = service.NewMintService(ledger, chainClient, eventPub, opts...); err != nil {
			return err
		}
		gateway := ipfs.NewGateway(&http.Client{Timeout: cfg.ExternalTimeout})
		if services.Badges, err = service.NewBadgeService(chainClient, gateway, opts...); err != nil {
			return err
		}
		log.Info("chain client ready", "issuer", chainClient.From().Hex(), "contract", cfg.Chain.ContractAddress)
	} else {
		log.Warn("SMART_CONTRACT_ADDRESS or ACCOUNT_PRIVATE_KEY not set, minting disabled")
	}

	if cfg.Pinata.JWT != "" {
		pinata, err := ipfs.NewPinata(ipfs.Config{
			JWT:        cfg.Pinata.JWT,
			UploadURL:  cfg.Pinata.UploadURL,
			PinJSONURL: cfg.Pinata.PinJSONURL,
			GatewayURL: cfg.Pinata.GatewayURL,
			HTTPClient: &http.Client{Timeout: cfg.ExternalTimeout},
		})
		if err != nil {
			return err
		}

		renderer := render.NewCertificateRenderer(cfg.Assets.CertTemplate, cfg.Assets.CertFont)
		services.Credentials, err = service.NewCredentialService(ledger, pinata, renderer, recordStore, eventPub, opts...)
		if err != nil {
			return err
		}
	} else {
		log.Warn("PINATA_JWT not set, credential publication disabled")
	}

	worker := cleanup.New(sessions,
		cleanup.WithLogger(log),
		cleanup.WithInterval(cfg.CleanupInterval),
		cleanup.WithMetrics(m),
	)
	go func() {
		if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("session cleanup worker failed", "error", err)
		}
	}()

	router := httptransport.SetupRouter(httptransport.NewHandlers(services, log), log, reg)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}

func policyFrom(cfg *config.Config) service.Policy {
	p := service.DefaultPolicy()
	p.InitialGrant = cfg.Economy.InitialGrant
	p.RewardPerCorrect = cfg.Economy.RewardPerCorrect
	p.MinimumMint = cfg.Economy.MinimumMint
	p.QuizSize = cfg.Economy.QuizSize
	p.SessionTTL = cfg.SessionTTL
	p.ExternalTimeout = cfg.ExternalTimeout
	return p
}

func loadBank(path string) ([]core.Question, error) {
	if path == "" {
		return questions.Default()
	}
	return questions.LoadFile(path)
}

// dialChain returns nil when no contract or issuing key is configured
func dialChain(ctx context.Context, cfg config.ChainConfig) (*chain.Client, error) {
	if cfg.ContractAddress == "" || cfg.PrivateKey == "" {
		return nil, nil
	}

	key, err := chain.ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	gasPrice, err := chain.GweiToWei(cfg.GasPriceGwei)
	if err != nil {
		return nil, err
	}

	backend, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}

	chainCfg := chain.Config{
		ContractAddress: common.HexToAddress(cfg.ContractAddress),
		PrivateKey:      key,
		GasLimit:        cfg.GasLimit,
		GasPrice:        gasPrice,
	}
	if cfg.ChainID > 0 {
		chainCfg.ChainID = big.NewInt(cfg.ChainID)
	}

	client, err := chain.NewClient(backend, chainCfg)
	if err != nil {
		return nil, err
	}
	if cfg.AccountAddress != "" && !strings.EqualFold(client.From().Hex(), common.HexToAddress(cfg.AccountAddress).Hex()) {
		return nil, fmt.Errorf("ACCOUNT_ADDRESS %s does not match the private key address %s", cfg.AccountAddress, client.From().Hex())
	}
	return client, nil
}

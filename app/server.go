package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jexdex/aggregator-engine/domain"
	evaluatorusecase "github.com/jexdex/aggregator-engine/evaluator/usecase"
	"github.com/jexdex/aggregator-engine/log"
	"github.com/jexdex/aggregator-engine/middleware"
	optimizerusecase "github.com/jexdex/aggregator-engine/optimizer/usecase"
	queryhttp "github.com/jexdex/aggregator-engine/query/delivery/http"
	queryusecase "github.com/jexdex/aggregator-engine/query/usecase"
	routerusecase "github.com/jexdex/aggregator-engine/router/usecase"
	"github.com/jexdex/aggregator-engine/store"
	"github.com/jexdex/aggregator-engine/store/rediscache"
	"github.com/jexdex/aggregator-engine/sync/rpc"
	syncusecase "github.com/jexdex/aggregator-engine/sync/usecase"
)

// wegldIdentifier/usdcIdentifier are the two tokens the Hatom price oracle
// prices directly, grounded on opendex_aggregator_api/services/tokens.py's
// WEGLD_IDENTIFIER/USDC_IDENTIFIER constants.
const (
	wegldIdentifier = "WEGLD-bd4d79"
	usdcIdentifier  = "USDC-c76f1f"
)

// Server is the aggregator engine's process: the HTTP query façade plus, when
// enabled, the background sync worker (spec.md §6, grounded on the teacher's
// app/sidecar_query_server.go SideCarQueryServer).
type Server struct {
	e       *echo.Echo
	address string
	logger  log.Logger

	worker *syncusecase.Worker
	noTasks bool
}

// NewServer wires every collaborator named in spec.md §6 from cfg, the way
// the teacher's NewSideCarQueryServer wires its redis/pools/router/tokens
// stack.
func NewServer(cfg domain.Config, logger log.Logger) (*Server, error) {
	poolStore := store.NewPoolStore()

	var rpcClient domain.RPCClient
	if cfg.GatewayURL != "" {
		rpcClient = rpc.NewGatewayClient(cfg.GatewayURL)
	} else {
		rpcClient = rpc.NopClient{}
	}

	var lease domain.KeyValueCache
	if cfg.RedisHost != "" {
		redisCache := rediscache.New(cfg.RedisHost)
		lease = redisCache
	}

	tokenFetcher := rpc.NewTokenFetcher(rpcClient, cfg.SCAddresses.SystemTokens)
	tokens := store.NewTokenRegistry(tokenFetcher)

	usdPrices := rpc.NewHatomPriceOracle(rpcClient, cfg.SCAddresses.HatomPriceFeed, wegldIdentifier, usdcIdentifier)

	router := routerusecase.NewRouter(poolStore, cfg.Router)
	evaluator := evaluatorusecase.NewEvaluator(poolStore, cfg.Evaluator)
	optimizer := optimizerusecase.NewBucketed(evaluator, cfg.Evaluator.SplitBuckets)

	service := queryusecase.NewService(router, evaluator, optimizer, tokens, poolStore, usdPrices, cfg.Router, cfg.Evaluator, logger)

	e := echo.New()
	mw := middleware.InitMiddleware("", logger)
	e.Use(mw.CORS)
	e.Use(mw.InstrumentMiddleware)

	queryhttp.NewQueryHandler(e, service)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	var worker *syncusecase.Worker
	if !cfg.NoTasks {
		worker = syncusecase.NewWorker(rpcClient, lease, poolStore, tokens, cfg.SCAddresses, cfg.Sync, cfg.RouterPoolsDir, logger)
	}

	return &Server{e: e, address: cfg.ServerAddress, logger: logger, worker: worker, noTasks: cfg.NoTasks}, nil
}

// Start runs the HTTP server and, unless NoTasks is set, the background
// sync worker, until ctx is cancelled (spec.md §6).
func (s *Server) Start(ctx context.Context) error {
	if s.worker != nil {
		go s.worker.Run(ctx)
	} else {
		s.logger.Info("sync worker disabled (no-tasks)")
	}

	s.logger.Info("starting aggregator engine", zap.String("address", s.address))
	if err := s.e.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-cart-ledger/internal/aws"
	"github.com/imrishuroy/go-cart-ledger/internal/config"
	"github.com/imrishuroy/go-cart-ledger/internal/coupons"
	"github.com/imrishuroy/go-cart-ledger/internal/handlers"
	"github.com/imrishuroy/go-cart-ledger/internal/metrics"
	"github.com/imrishuroy/go-cart-ledger/internal/orders"
	"github.com/imrishuroy/go-cart-ledger/internal/storage"
	"github.com/imrishuroy/go-cart-ledger/internal/storefront"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterCartRoutes(r, cfg)

	return r
}

func newLogger(local bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if local {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

// mirrorFactory returns a constructor for per-device storage adapters.
func mirrorFactory(ctx context.Context, cfg config.Config, clients *aws.AWSClients) (func(deviceID string) storage.Adapter, *sql.DB, error) {
	switch cfg.StorageBackend {
	case config.BackendDynamoDB:
		return func(deviceID string) storage.Adapter {
			return storage.NewDynamoStore(clients.DynamoDB, cfg.CartTable, deviceID)
		}, nil, nil
	case config.BackendPostgres:
		db, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := storage.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return func(deviceID string) storage.Adapter {
			return storage.NewPostgresStore(db, deviceID)
		}, db, nil
	default:
		return func(string) storage.Adapter { return storage.NewMemoryStore() }, nil, nil
	}
}

func main() {
	// .env is optional and only consulted for local runs
	_ = godotenv.Load()

	cfg, err := config.Load()
	logger := newLogger(cfg.RunLocal)
	defer logger.Sync()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var clients *aws.AWSClients
	if cfg.NeedsAWS() {
		clients, err = aws.NewAWSClients(ctx)
		if err != nil {
			logger.Fatal("failed to init aws clients", zap.Error(err))
		}
	}

	newMirror, db, err := mirrorFactory(ctx, cfg, clients)
	if err != nil {
		logger.Fatal("failed to init cart storage", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}

	var gateway coupons.Gateway
	if cfg.CouponAPIURL != "" {
		gateway = coupons.NewHTTPGateway(cfg.CouponAPIURL, cfg.CouponTimeout)
	}

	var submitter storefront.Submitter
	if cfg.CheckoutQueueURL != "" {
		submitter = orders.NewSubmitter(aws.NewPublisher(clients.SQS, cfg.CheckoutQueueURL), logger)
	}

	var (
		recorder metrics.Recorder = metrics.Nop{}
		cw       *metrics.CloudWatchRecorder
	)
	if cfg.MetricsNamespace != "" {
		cw = metrics.NewCloudWatchRecorder(clients.CloudWatch, cfg.MetricsNamespace, logger)
		recorder = cw
	}

	registry := storefront.NewRegistry(func(ctx context.Context, deviceID string) *storefront.Store {
		return storefront.New(ctx, storefront.Deps{
			DeviceID:  deviceID,
			Mirror:    newMirror(deviceID),
			Coupons:   gateway,
			Submitter: submitter,
			Recorder:  recorder,
			Logger:    logger,
		})
	})
	go registry.Run(ctx, time.Minute, cfg.SessionIdle)

	r := setupRouter(handlers.HandlerConfig{Registry: registry, Logger: logger})

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		runLocal(ctx, r, cfg.HTTPAddr, cw, cfg.MetricsInterval, logger)
		return
	}

	// lambda adapter
	lambda.Start(proxyHandler(r, cw, logger))
}

// proxyHandler adapts r for API Gateway. Buffered metrics are flushed before each
// invocation returns since the instance may be frozen afterwards.
func proxyHandler(r *gin.Engine, cw *metrics.CloudWatchRecorder, logger *zap.Logger) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	adapter := ginadapter.New(r)
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		resp, err := adapter.ProxyWithContext(ctx, req)
		if cw != nil {
			if ferr := cw.Flush(ctx); ferr != nil {
				logger.Warn("[metrics] flush failed", zap.Error(ferr))
			}
		}
		return resp, err
	}
}

// runLocal serves r until ctx is cancelled, then shuts down and lets metrics flush once more.
func runLocal(ctx context.Context, r *gin.Engine, addr string, cw *metrics.CloudWatchRecorder, interval time.Duration, logger *zap.Logger) {
	metricsDone := make(chan struct{})
	if cw != nil {
		go func() {
			defer close(metricsDone)
			cw.Run(ctx, interval)
		}()
	} else {
		close(metricsDone)
	}

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		logger.Info("running local server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to run local server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	<-metricsDone
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	rewardsv1 "lendrewards/api/rewards/v1"
	"lendrewards/config"
	"lendrewards/observability/logging"
	telemetry "lendrewards/observability/otel"
	"lendrewards/services/rewards/claimlog"
	"lendrewards/services/rewards/engine"
	rewardsserver "lendrewards/services/rewards/server"
	rewardsdconfig "lendrewards/services/rewardsd/config"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "services/rewardsd/config.yaml", "path to rewardsd config")
	flag.Parse()

	cfg, err := rewardsdconfig.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	env := cfg.Environment
	logger := logging.Setup("rewardsd", env,
		logging.WithLevel(logging.ParseLevel(cfg.Log.Level)),
		logging.WithFile(logging.FileConfig{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		}),
	)
	logger.Info("rewardsd configured",
		slog.String("storage", cfg.Storage.Driver),
		slog.String("receipts", cfg.Receipts.Driver),
		logging.MaskDSN("receipts_dsn", cfg.Receipts.DSN),
		logging.MaskField("jwt_secret", cfg.Auth.JWT.Secret),
		slog.Int("api_tokens", len(cfg.Auth.APITokens)),
		slog.Bool("mtls", cfg.TLS.MTLSEnabled()),
		slog.String("otlp_endpoint", cfg.Telemetry.Endpoint),
	)

	programs, err := config.Load(cfg.ProgramsPath)
	if err != nil {
		log.Fatalf("load reward programs: %v", err)
	}

	db, err := openStorage(cfg.Storage)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer db.Close()

	st, err := buildStack(db, programs, wallClock(), logger)
	if err != nil {
		log.Fatalf("build rewards engine: %v", err)
	}

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "rewardsd",
		Environment: env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     cfg.Telemetry.Headers,
		Traces:      !cfg.Telemetry.DisableTraces,
		Metrics:     !cfg.Telemetry.DisableMetrics,
		SampleRatio: cfg.Telemetry.SampleRatio,
		Attributes: map[string]string{
			"rewards.engine.version":  strconv.FormatUint(uint64(st.engine.Version()), 10),
			"rewards.storage.driver":  cfg.Storage.Driver,
			"rewards.receipts.driver": cfg.Receipts.Driver,
		},
	})
	if err != nil {
		log.Fatalf("init telemetry: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	var (
		receipts engine.ReceiptLog
		lister   rewardsserver.ReceiptLister
	)
	if cfg.Receipts.Driver != "" {
		receiptLog, err := claimlog.Open(cfg.Receipts.Driver, cfg.Receipts.DSN)
		if err != nil {
			log.Fatalf("open claim receipts: %v", err)
		}
		defer receiptLog.Close()
		receipts, lister = receiptLog, receiptLog
	}

	native, err := engine.NewNative(st.engine, programs, receipts, logger)
	if err != nil {
		log.Fatalf("wrap rewards engine: %v", err)
	}
	for _, frozen := range st.frozen {
		if err := native.AddFrozen(frozen); err != nil {
			log.Fatalf("attach frozen engine v%d: %v", frozen.Version(), err)
		}
	}
	st.ledger.SetRewardHooks(native)
	ledger, err := engine.NewLedgerAdapter(st.ledger)
	if err != nil {
		log.Fatalf("wrap lending ledger: %v", err)
	}

	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		log.Fatalf("listen on %s: %v", cfg.ListenAddress, err)
	}
	if cfg.TLS.AllowInsecure {
		tcpAddr, _ := listener.Addr().(*net.TCPAddr)
		loopback := tcpAddr != nil && tcpAddr.IP != nil && tcpAddr.IP.IsLoopback()
		if !strings.EqualFold(env, "dev") && !loopback {
			log.Fatalf("plaintext rewardsd mode is restricted to loopback listeners or dev environment")
		}
	}

	serverCfg := rewardsserver.Config{
		TLSCertFile:      cfg.TLS.CertPath,
		TLSKeyFile:       cfg.TLS.KeyPath,
		TLSClientCAFile:  cfg.TLS.ClientCAPath,
		AllowInsecure:    cfg.TLS.AllowInsecure,
		MTLSRequired:     cfg.TLS.MTLSEnabled(),
		AllowedClientCNs: cfg.Auth.MTLS.AllowedCommonNames,
		ClaimsPerMinute:  cfg.ClaimsPerMinute,
		APITokens:        cfg.Auth.APITokens,
		JWTSecret:        cfg.Auth.JWT.Secret,
		JWTIssuer:        cfg.Auth.JWT.Issuer,
		Logger:           logger,
	}
	creds, err := rewardsserver.GrpcServerCreds(serverCfg)
	if err != nil {
		log.Fatalf("configure tls: %v", err)
	}
	options := []grpc.ServerOption{grpc.ChainUnaryInterceptor(otelgrpc.UnaryServerInterceptor())}
	options = append(options, rewardsserver.Interceptors(serverCfg)...)
	if creds != nil {
		options = append(options, creds)
	}
	grpcServer := grpc.NewServer(options...)
	service := rewardsserver.New(native, ledger, logger, rewardsserver.NewInterceptorAuthorizer())
	rewardsv1.RegisterRewardsServiceServer(grpcServer, service)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           rewardsserver.NewGateway(native, lister, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 2)
	go func() {
		logger.Info("rewardsd grpc listening", "address", cfg.ListenAddress)
		serverErr <- grpcServer.Serve(listener)
	}()
	go func() {
		logger.Info("rewardsd http listening", "address", cfg.HTTPAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		done := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			logger.Warn("forcing server stop")
			grpcServer.Stop()
		}
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	}
}

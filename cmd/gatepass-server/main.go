package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/auth"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/config"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/db"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/metrics"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/pass"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/service"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store/memory"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store/sqlite"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/grpcapi"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/httpapi"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gatepass-server:", err)
		os.Exit(1)
	}
}

type stores struct {
	visits store.VisitStore
	scans  store.ScanLogStore
	gates  store.GateStore
	close  func()
}

func run() error {
	configPath := pflag.String("config", "", "path to a YAML config file")
	httpAddr := pflag.String("http-addr", "", "HTTP listen address (overrides config)")
	grpcAddr := pflag.String("grpc-addr", "", "gRPC listen address (overrides config)")
	mintToken := pflag.String("mint-token", "", "dev only: print an agent token for agent:role and exit")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if pflag.CommandLine.Changed("http-addr") {
		cfg.HTTPAddr = *httpAddr
	}
	if pflag.CommandLine.Changed("grpc-addr") {
		cfg.GRPCAddr = *grpcAddr
	}

	if *mintToken != "" {
		return printToken(cfg, *mintToken)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	codec, err := pass.NewCodec(cfg.PassSecret)
	if err != nil {
		return fmt.Errorf("pass codec: %w", err)
	}
	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("auth verifier: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Services
	gates := service.NewGateRegistry(st.gates)
	policy := service.ValidityPolicy{
		DefaultHours: cfg.Validity.DefaultHours,
		MinHours:     cfg.Validity.MinHours,
		MaxHours:     cfg.Validity.MaxHours,
	}
	requests := service.NewRequestService(st.visits)
	issuer := service.NewIssuer(st.visits, codec, policy, logger, m)
	scanner := service.NewScanService(st.visits, st.scans, gates, pass.NewValidator(codec), logger, m)
	reports := service.NewReports(st.visits, st.scans)
	monitor := service.NewOverstayMonitor(st.visits, time.Duration(cfg.OverstayIntervalMinutes)*time.Minute, logger, m)

	// HTTP
	httpSrv := httpapi.NewServer(httpapi.Dependencies{
		Logger:   logger,
		Addr:     cfg.HTTPAddr,
		Verifier: verifier,
		Requests: requests,
		Issuer:   issuer,
		Scanner:  scanner,
		Reports:  reports,
		Gates:    gates,
		Gatherer: reg,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	var grpcSrv *grpcapi.Server
	if cfg.GRPCAddr != "" {
		grpcSrv = grpcapi.NewServer(grpcapi.Dependencies{
			Logger:   logger,
			Addr:     cfg.GRPCAddr,
			Verifier: verifier,
			Scanner:  scanner,
		})
		g.Go(func() error {
			logger.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
			if err := grpcSrv.Start(); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	monitor.Start(gctx)

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		monitor.Stop()
		err := httpSrv.Shutdown(shutdownCtx)
		if grpcSrv != nil {
			err = errors.Join(err, grpcSrv.Shutdown(shutdownCtx))
		}
		return err
	})

	return g.Wait()
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (stores, error) {
	if cfg.Store == "memory" {
		logger.Warn("using in-memory store; nothing survives a restart")
		scans := memory.NewScanLogStore()
		return stores{
			visits: memory.NewVisitStore(scans),
			scans:  scans,
			gates:  memory.NewGateStore(cfg.Gates),
			close:  func() {},
		}, nil
	}

	sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return stores{}, fmt.Errorf("open db: %w", err)
	}
	if err := db.SeedGates(ctx, sqlDB, cfg.Gates); err != nil {
		_ = sqlDB.Close()
		return stores{}, err
	}
	writer := db.NewWorker(sqlDB)
	logger.Info("sqlite store ready", zap.String("path", cfg.DBPath), zap.Strings("gates", cfg.Gates))

	return stores{
		visits: sqlite.NewVisitStore(sqlDB, writer),
		scans:  sqlite.NewScanLogStore(sqlDB, writer),
		gates:  sqlite.NewGateStore(sqlDB, writer),
		close: func() {
			writer.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

// printToken signs a short-lived agent token with the configured secret
// so a developer can exercise the API without the identity service.
func printToken(cfg config.Config, arg string) error {
	if cfg.Env != "dev" {
		return errors.New("--mint-token is only available with env=dev")
	}
	agent, role, ok := strings.Cut(arg, ":")
	if !ok || strings.TrimSpace(agent) == "" || !auth.Role(role).Valid() {
		return fmt.Errorf("--mint-token wants agent:role with role security or admin, got %q", arg)
	}

	tok, err := auth.Sign(cfg.JWTSecret, auth.Identity{Agent: strings.TrimSpace(agent), Role: auth.Role(role)}, 12*time.Hour)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

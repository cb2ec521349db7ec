package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/xtding233/idle-gacha/internal/api"
	"github.com/xtding233/idle-gacha/internal/banner"
	"github.com/xtding233/idle-gacha/internal/config"
	"github.com/xtding233/idle-gacha/internal/metrics"
)

func main() {
	envFile := flag.String("env", ".env", "optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger, err := cfg.Logger()
	if err != nil {
		logrus.WithError(err).Fatal("configure logger")
	}
	log := logrus.NewEntry(logger)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg config.Config, log *logrus.Entry) error {
	rec := metrics.New()
	loader := banner.NewLoader(cfg.ConfigDir)
	hub := api.NewHub(loader, rec, log, cfg.Seed)
	if err := hub.LoadAll(); err != nil {
		return err
	}

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, name := range hub.Names() {
		healthSrv.SetServingStatus("banner."+name, healthpb.HealthCheckResponse_SERVING)
	}

	if cfg.Watch {
		w, err := banner.NewWatcher(loader.Paths(), cfg.ReloadDebounce, func(name string) {
			if err := hub.Reload(name); err != nil {
				log.WithError(err).WithField("banner", name).Error("reload failed, keeping previous config")
				return
			}
			for _, n := range hub.Names() {
				healthSrv.SetServingStatus("banner."+n, healthpb.HealthCheckResponse_SERVING)
			}
		}, log)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(hub, rec, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcSrv := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		log.WithField("addr", cfg.GRPCAddr).Info("grpc health listening")
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		grpcSrv.Stop()
		return err
	}

	healthSrv.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	grpcSrv.GracefulStop()
	return httpSrv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/ttlpool/ttlpool/server/internal/api"
	"github.com/ttlpool/ttlpool/server/internal/auth"
	"github.com/ttlpool/ttlpool/server/internal/collector"
	"github.com/ttlpool/ttlpool/server/internal/config"
	"github.com/ttlpool/ttlpool/server/internal/console"
	"github.com/ttlpool/ttlpool/server/internal/health"
	"github.com/ttlpool/ttlpool/server/internal/metrics"
	"github.com/ttlpool/ttlpool/server/internal/notify"
	"github.com/ttlpool/ttlpool/server/internal/store"
	"github.com/ttlpool/ttlpool/server/internal/ws"
)

// shutdownTimeout bounds the whole graceful shutdown sequence.
const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file; empty uses built-in defaults")
	noConsole := flag.Bool("no-console", false, "do not read commands from stdin (use when running as a service)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ttlpool: %v\n", err)
		os.Exit(1)
	}

	// Level lives in a LevelVar so a config reload can change it.
	var level slog.LevelVar
	level.Set(cfg.Log.SlogLevel())

	var logOut io.Writer = os.Stderr
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ttlpool: open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: &level})))

	slog.Info("ttlpool starting", "config", *configPath)
	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"period", cfg.Collector.Period,
		"reactive", cfg.Collector.Reactive,
		"autostart", cfg.Collector.Autostart,
	)

	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st := store.New()
	healthSrv := health.New()
	hub := ws.New(st, cfg.Stream.Interval)
	mx := metrics.New(st.Count)
	mx.Registry().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	coll := collector.New(st,
		notify.Multi{notify.NewLog(slog.Default()), mx, hub, healthSrv},
		collector.Config{Period: cfg.Collector.Period, Reactive: cfg.Collector.Reactive},
	)

	// Entries inserted without a lifetime get a random one from the live config.
	defaultLifetime := func() time.Duration {
		return current.Load().Collector.RandomLifetime()
	}

	checker := auth.New(cfg.Server.Auth.Mode, cfg.Server.Auth.EffectiveHeader(), cfg.Server.Auth.Key())

	eg, egCtx := errgroup.WithContext(ctx)

	// gRPC health service, guarded by the same API key as the REST API.
	var grpcSrv *grpc.Server
	if port := cfg.Server.GRPCPort; port != 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			slog.Error("failed to listen on gRPC port", "port", port, "err", err)
			os.Exit(1)
		}
		grpcSrv = grpc.NewServer(
			grpc.ChainUnaryInterceptor(checker.UnaryInterceptor()),
			grpc.ChainStreamInterceptor(checker.StreamInterceptor()),
		)
		healthSrv.Register(grpcSrv)

		eg.Go(func() error {
			slog.Info("gRPC health listening", "port", port)
			return grpcSrv.Serve(lis)
		})
	}

	// REST API, metrics and event stream share HTTPPort.
	var httpSrv *http.Server
	if port := cfg.Server.HTTPPort; port != 0 {
		mux := http.NewServeMux()
		mux.Handle("/api/", checker.Middleware(api.New(coll, defaultLifetime)))
		mux.Handle("/metrics", mx.Handler())
		mux.Handle("/ws/stream", hub)

		httpSrv = &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		eg.Go(func() error {
			slog.Info("HTTP server listening", "port", port)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http: %w", err)
			}
			return nil
		})
	}

	eg.Go(func() error {
		hub.Run(egCtx)
		return nil
	})

	if *configPath != "" {
		eg.Go(func() error {
			err := config.Watch(egCtx, *configPath, func(next *config.Config) {
				prev := current.Swap(next)
				if next.Collector.Reactive != prev.Collector.Reactive {
					coll.SetReactiveMode(next.Collector.Reactive)
				}
				coll.SetDefaultPeriod(next.Collector.Period)
				level.Set(next.Log.SlogLevel())
				if next.Server != prev.Server || next.Stream != prev.Stream {
					slog.Warn("config: server and stream changes take effect on restart")
				}
			})
			if err != nil {
				slog.Warn("config: hot reload disabled", "path", *configPath, "err", err)
			}
			return nil
		})
	}

	// Shutdown waits for the signal, a console exit or a failed listener.
	// HTTP stops taking inserts before the collector is closed.
	eg.Go(func() error {
		<-egCtx.Done()
		slog.Info("ttlpool shutting down")

		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()

		var errs []error
		if httpSrv != nil {
			if err := httpSrv.Shutdown(stopCtx); err != nil {
				errs = append(errs, fmt.Errorf("http shutdown: %w", err))
			}
		}
		if err := coll.Close(stopCtx); err != nil {
			slog.Warn("collector did not stop in time", "err", err)
		}
		healthSrv.Shutdown()
		if grpcSrv != nil {
			grpcSrv.GracefulStop()
		}
		return errors.Join(errs...)
	})

	if cfg.Collector.Autostart {
		if err := coll.StartPeriodic(0); err != nil && !errors.Is(err, collector.ErrAlreadyRunning) {
			slog.Error("collector autostart failed", "err", err)
		}
	}

	// The console is not part of the errgroup: a read on stdin cannot be
	// interrupted, so shutdown must not wait for it.
	if cfg.Console.Enabled && !*noConsole {
		sh := console.New(coll, os.Stdout, console.Options{
			Prompt:          cfg.Console.Prompt,
			DefaultLifetime: defaultLifetime,
			Stats:           mx.WriteText,
		})
		go func() {
			if err := sh.Run(egCtx, os.Stdin); err != nil {
				slog.Error("console: read failed", "err", err)
			}
			cancel()
		}()
	}

	if err := eg.Wait(); err != nil {
		slog.Error("ttlpool stopped with error", "err", err)
		os.Exit(1)
	}
	slog.Info("ttlpool stopped")
}

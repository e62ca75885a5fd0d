package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/wishlist-service/internal/cache"
	"github.com/pribylovaa/wishlist-service/internal/config"
	wlhttp "github.com/pribylovaa/wishlist-service/internal/http"
	"github.com/pribylovaa/wishlist-service/internal/metrics"
	"github.com/pribylovaa/wishlist-service/internal/pkg/log"
	"github.com/pribylovaa/wishlist-service/internal/service"
	"github.com/pribylovaa/wishlist-service/internal/storage/mongo"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	lg := log.New(cfg.Env, os.Stdout)
	slog.SetDefault(lg)
	lg.Info("starting wishlist-service", slog.String("env", cfg.Env))

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	// Mongo.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 15*time.Second)
	db, err := mongo.New(dbCtx, cfg)
	dbCancel()
	if err != nil {
		lg.Error("mongo_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if cerr := db.Close(closeCtx); cerr != nil {
			lg.Warn("mongo_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	lg.Info("mongo_connected")

	reg := prometheus.DefaultRegisterer
	m := metrics.New(reg)

	svc := service.New(db, *cfg)
	svc.SetMetrics(m)

	// Redis (опционально): без кэша профили читаются из Mongo на каждый запрос.
	if cfg.Cache.RedisURL != "" {
		rcCtx, rcCancel := context.WithTimeout(rootCtx, 5*time.Second)
		uc, err := cache.NewRedisCache(rcCtx, cfg.Cache.RedisURL, "")
		rcCancel()

		if err != nil {
			lg.Warn("redis_unavailable_cache_disabled", slog.String("err", err.Error()))
		} else {
			svc.SetUserCache(uc)
			lg.Info("redis_connected")

			defer func() {
				if cerr := uc.Close(); cerr != nil {
					lg.Warn("redis_close_failed", slog.String("err", cerr.Error()))
				}
			}()
		}
	}

	apiHandler := wlhttp.NewRouter(svc, svc, wlhttp.Options{
		Logger:     lg,
		Timeout:    cfg.Timeouts.Service,
		Metrics:    m,
		CookieName: cfg.Auth.CookieName,
	})

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&ready) != 1 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			http.Error(w, "mongo unavailable", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		lg.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	lg.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	lg.Info("service_ready")

	select {
	case <-rootCtx.Done():
		lg.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			lg.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		lg.Info("http_stopped")
	}

	lg.Info("service_stopped")
}

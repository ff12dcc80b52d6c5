// 程序入口：读取配置、装配依赖并启动服务；路由注册在 internal/api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"volley-globe/internal/api"
	"volley-globe/internal/config"
	"volley-globe/internal/fivb"
	"volley-globe/internal/globe"
	"volley-globe/internal/locate"
	"volley-globe/internal/logger"
	"volley-globe/internal/middleware"
	"volley-globe/internal/migrate"
	"volley-globe/internal/rankings"
	"volley-globe/internal/registry"
	"volley-globe/internal/session"
	"volley-globe/internal/store"
	"volley-globe/internal/topology"
	"volley-globe/internal/utils"
	"volley-globe/internal/version"
)

func main() {
	config.LoadDotenv()
	l := logger.Setup()
	l.Debug("log_init_ok")
	cfg := config.Load()
	l.Debug("config_loaded", "api_base", cfg.APIBase, "ui", cfg.UIDist, "fivb", cfg.FIVBBase)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 地图是唯一不可恢复的依赖：全部来源失败时退出
	mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	features, mapSource, err := topology.Load(mctx, cfg.MapObject,
		topology.HTTPSource{URL: cfg.MapCDNURL, Client: &http.Client{Timeout: 15 * time.Second}},
		topology.FileSource{Path: cfg.MapLocalPath},
	)
	cancel()
	if err != nil {
		var mle *topology.MapLoadError
		if errors.As(err, &mle) {
			for _, a := range mle.Attempts {
				l.Error("map_load_attempt", "source", a.Source, "err", a.Err)
			}
		}
		l.Error("map_load_error", "err", err)
		os.Exit(1)
	}
	l.Info("map_ready", "source", mapSource, "features", len(features))

	reg := registry.New(cfg.FlagBaseURL, cfg.FlagFallbackURL)
	opts := []rankings.Option{rankings.WithTTL(cfg.RankingsTTL)}

	var st *store.Store
	if cfg.PGEnable {
		db, err := utils.OpenPostgresFromEnv(ctx)
		if err != nil {
			l.Error("db_open_error", "err", err)
		} else if err := migrate.EnsureSchema(db); err != nil {
			l.Error("schema_error", "err", err)
			_ = db.Close()
		} else {
			st = store.AttachDB(db)
			defer st.Close()
			opts = append(opts, rankings.WithRecorder(st))
			l.Info("db_ready")
		}
	} else {
		l.Info("db_disabled")
	}

	if cfg.RedisEnable {
		rc, err := utils.OpenRedisFromEnv(ctx)
		if err != nil {
			l.Error("redis_open_error", "err", err)
		} else {
			defer rc.Close()
			opts = append(opts, rankings.WithMirror(rankings.NewRedisMirror(rc, cfg.RedisKey, 0)))
			l.Info("redis_ready")
		}
	} else {
		l.Info("redis_disabled")
	}

	client := fivb.NewClient(cfg.FIVBBase, cfg.FIVBPages, cfg.FIVBPageSize, cfg.FIVBTimeout)
	cache := rankings.NewCache(client, opts...)
	// 预热默认组别，失败只记日志
	go func() {
		if _, err := cache.DivisionRankings(ctx, rankings.Women); err != nil {
			l.Warn("rankings_warmup_error", "division", rankings.Women, "err", err)
		}
	}()

	var sources []locate.Lookup
	if cfg.GeoIPPath != "" {
		if g, err := locate.OpenGeoIP(cfg.GeoIPPath); err != nil {
			l.Error("geoip_open_error", "path", cfg.GeoIPPath, "err", err)
		} else {
			defer g.Close()
			sources = append(sources, g)
			l.Info("geoip_ready", "path", cfg.GeoIPPath)
		}
	}
	if cfg.IP2RegionPath != "" {
		if x, err := locate.OpenIP2Region(cfg.IP2RegionPath); err != nil {
			l.Error("ip2region_open_error", "path", cfg.IP2RegionPath, "err", err)
		} else {
			defer x.Close()
			sources = append(sources, x)
			l.Info("ip2region_ready", "path", cfg.IP2RegionPath)
		}
	}
	locator := locate.New(reg, features, sources...)

	sessions := session.NewManager(session.Deps{
		Features: features,
		Options:  globe.OptionsFrom(cfg.Globe),
		Registry: reg,
		Rankings: cache,
	}, cfg.SessionTTL)
	sessions.Start(ctx)

	deps := api.Deps{
		Base:         cfg.APIBase,
		Rankings:     cache,
		Registry:     reg,
		Features:     features,
		Sessions:     sessions,
		Locator:      locator,
		AdminToken:   cfg.AdminToken,
		AdminGuard:   middleware.AllowlistFromEnv(),
		ShareBaseURL: cfg.ShareBaseURL,
		TickInterval: cfg.Globe.TickInterval,
	}
	if st != nil {
		deps.History = st
	}
	router := api.NewRouter(deps)

	// 向前端暴露 API 基础路径与构建信息，避免硬编码
	router.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + cfg.APIBase + "'\n"))
		_, _ = w.Write([]byte("window.__DEFAULT_DIVISION__='" + string(rankings.Women) + "'\n"))
		_, _ = w.Write([]byte("window.__FLAG_FALLBACK__='" + cfg.FlagFallbackURL + "'\n"))
		_, _ = w.Write([]byte("window.__MAP_SOURCE__='" + mapSource + "'\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + version.Commit + "'"))
	})
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.UIDist)))

	handler := api.Wrap(router)
	handler = logger.AccessMiddleware(l)(handler)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	if cfg.TLSEnable {
		if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "volley-globe.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		if os.Getenv("TLS_REDIRECT_ENABLE") == "true" {
			go redirectToHTTPS(cfg.Addr)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
		if err := s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("server_error", "err", err)
			os.Exit(1)
		}
		return
	}
	l.Info("listening", "addr", cfg.Addr, "version", version.Commit)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
}

// redirectToHTTPS：可选的 HTTP → HTTPS 跳转（TLS_REDIRECT_ADDR，默认 :80）
func redirectToHTTPS(addr string) {
	l := logger.L()
	redirAddr := os.Getenv("TLS_REDIRECT_ADDR")
	if redirAddr == "" {
		redirAddr = ":80"
	}
	httpsPort := strings.TrimPrefix(addr, ":")
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if i := strings.LastIndex(host, ":"); i != -1 {
			host = host[:i]
		}
		if httpsPort != "" && httpsPort != "443" {
			host = host + ":" + httpsPort
		}
		target := "https://" + host + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		l.Debug("http_redirect", "from", r.Host, "to", target)
	})
	l.Info("http_redirect_listening", "addr", redirAddr, "to", "https"+addr)
	if err := http.ListenAndServe(redirAddr, logger.AccessMiddleware(l)(mux)); err != nil {
		l.Error("http_redirect_error", "err", err)
	}
}

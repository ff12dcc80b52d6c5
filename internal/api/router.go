// 包 api：集中注册 HTTP 路由，主入口只负责装配依赖与启动服务
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"volley-globe/internal/geo"
	"volley-globe/internal/locate"
	"volley-globe/internal/logger"
	"volley-globe/internal/metrics"
	"volley-globe/internal/middleware"
	"volley-globe/internal/rankings"
	"volley-globe/internal/registry"
	"volley-globe/internal/session"
	"volley-globe/internal/store"
)

// RankingService：排名缓存对外能力
type RankingService interface {
	TopRankings(ctx context.Context, d rankings.Division, limit int) ([]rankings.Entry, error)
	CountryRanking(ctx context.Context, name string, d rankings.Division) (*rankings.Entry, error)
	Refresh(ctx context.Context, d rankings.Division) (*rankings.Snapshot, error)
	Status() []rankings.SlotStatus
}

// HistoryStore：历史名次（Postgres）；未启用时为 nil
type HistoryStore interface {
	History(ctx context.Context, d rankings.Division, federation string, limit int) ([]store.HistoryPoint, error)
}

// Deps：路由依赖
type Deps struct {
	Base         string
	Rankings     RankingService
	History      HistoryStore
	Registry     *registry.Registry
	Features     []geo.Feature
	Sessions     *session.Manager
	Locator      *locate.Locator
	AdminToken   string
	AdminGuard   *middleware.Allowlist
	ShareBaseURL string
	TickInterval time.Duration
}

type server struct {
	Deps
	byID map[string]geo.Feature
	log  *slog.Logger
}

// NewRouter：在 Base（默认 /api）下注册全部接口
func NewRouter(d Deps) *mux.Router {
	if d.Base == "" {
		d.Base = "/api"
	}
	if d.TickInterval <= 0 {
		d.TickInterval = 16 * time.Millisecond
	}
	s := &server{Deps: d, byID: make(map[string]geo.Feature, len(d.Features)), log: logger.Named("api")}
	for _, f := range d.Features {
		s.byID[registry.PadID(f.ID)] = f
	}
	r := mux.NewRouter()
	api := r.PathPrefix(d.Base).Subrouter()

	api.Handle("/metrics", d.AdminGuard.Guard(metrics.Handler())).Methods(http.MethodGet)

	api.HandleFunc("/rankings/status", s.rankingStatus).Methods(http.MethodGet)
	api.HandleFunc("/rankings/{division}", s.leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/rankings/{division}/country", s.countryRanking).Methods(http.MethodGet)
	api.HandleFunc("/rankings/{division}/history", s.history).Methods(http.MethodGet)
	api.Handle("/rankings/{division}/refresh", d.AdminGuard.Guard(http.HandlerFunc(s.refresh))).Methods(http.MethodPost)

	api.HandleFunc("/countries", s.countries).Methods(http.MethodGet)
	api.HandleFunc("/countries/{id}", s.country).Methods(http.MethodGet)
	api.HandleFunc("/countries/{id}/share.png", s.share).Methods(http.MethodGet)

	api.HandleFunc("/locate", s.locate).Methods(http.MethodGet)

	api.HandleFunc("/globe/sessions", s.createSession).Methods(http.MethodPost)
	api.HandleFunc("/globe/sessions/{id}", s.getSession).Methods(http.MethodGet)
	api.HandleFunc("/globe/sessions/{id}", s.deleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/globe/sessions/{id}/events", s.sessionEvent).Methods(http.MethodPost)
	api.HandleFunc("/globe/sessions/{id}/ws", s.sessionSocket).Methods(http.MethodGet)

	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return r
}

// Wrap：跨域与 panic 恢复
func Wrap(h http.Handler) http.Handler {
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Admin-Token"}),
	)(h)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(logger.L().Handler(), slog.LevelError)),
	)(h)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusOf：上游不可用 503，其余 500
func statusOf(err error) int {
	if errors.Is(err, rankings.ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func division(w http.ResponseWriter, r *http.Request) (rankings.Division, bool) {
	d, err := rankings.ParseDivision(mux.Vars(r)["division"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return d, true
}

// intParam：缺省或非法时返回 def，并夹取到 [lo, hi]
func intParam(r *http.Request, key string, def, lo, hi int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		n = def
	}
	if n < lo {
		n = lo
	}
	if n > hi {
		n = hi
	}
	return n
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RankingFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vbglobe_ranking_fetch_total",
		Help: "Ranking source fetches by division and status",
	}, []string{"division", "status"})
	RankingFetchDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vbglobe_ranking_fetch_duration_ms",
		Help:    "Ranking source fetch duration in milliseconds",
		Buckets: []float64{50, 100, 200, 500, 1000, 2000, 5000, 10000},
	}, []string{"division"})
	RankingCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vbglobe_ranking_cache_hits_total",
		Help: "Fresh ranking cache hits",
	}, []string{"division"})
	RankingCacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vbglobe_ranking_cache_misses_total",
		Help: "Ranking cache misses or expired slots",
	}, []string{"division"})
	RankingDegradedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vbglobe_ranking_degraded_total",
		Help: "Stale ranking data served after a failed refresh",
	}, []string{"division", "source"})
	ReconcileTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vbglobe_reconcile_total",
		Help: "Country name reconciliation outcomes",
	}, []string{"result"})
	MapLoadTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vbglobe_map_load_total",
		Help: "World map load attempts by source and status",
	}, []string{"source", "status"})
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vbglobe_sessions_active",
		Help: "Live globe sessions",
	})
	FramesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vbglobe_frames_total",
		Help: "Frames emitted to renderers",
	})
	SelectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vbglobe_selections_total",
		Help: "Country selections by ranking presence",
	}, []string{"ranked"})
	LocateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vbglobe_locate_total",
		Help: "Visitor locate lookups by resolving source",
	}, []string{"source"})
)

func init() {
	prometheus.MustRegister(RankingFetchTotal)
	prometheus.MustRegister(RankingFetchDurationMs)
	prometheus.MustRegister(RankingCacheHitsTotal)
	prometheus.MustRegister(RankingCacheMissesTotal)
	prometheus.MustRegister(RankingDegradedTotal)
	prometheus.MustRegister(ReconcileTotal)
	prometheus.MustRegister(MapLoadTotal)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(FramesTotal)
	prometheus.MustRegister(SelectionsTotal)
	prometheus.MustRegister(LocateTotal)
}

// 文档注释：返回 Prometheus 指标处理器，主入口挂载到 {API_BASE}/metrics
func Handler() http.Handler { return promhttp.Handler() }

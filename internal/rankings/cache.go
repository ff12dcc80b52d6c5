package rankings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"volley-globe/internal/fivb"
	"volley-globe/internal/logger"
	"volley-globe/internal/metrics"
	"volley-globe/internal/reconcile"
)

var (
	// ErrUnavailable：拉取失败且没有任何可回退的数据
	ErrUnavailable = errors.New("rankings unavailable")
	// ErrNoEntries：源返回成功但没有一条有效记录
	ErrNoEntries = errors.New("ranking source returned no usable entries")
)

// Source：排名数据源（fivb.Client 实现）
type Source interface {
	Teams(ctx context.Context, divisionCode int) ([]fivb.Team, error)
}

// Mirror：跨实例共享的快照副本（Redis）
type Mirror interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, d Division) (*Snapshot, error)
}

// Recorder：快照历史落库（Postgres）
type Recorder interface {
	Record(ctx context.Context, snap Snapshot) error
}

// Cache：按组别的 TTL 缓存
// 背景：两个组别各占一个槽位，刷新一个组别不阻塞另一组别的读取
// 约束：槽位要么不存在，要么是一次完整拉取的结果；并发刷新同一组别通过 singleflight 合并
type Cache struct {
	src      Source
	ttl      time.Duration
	now      func() time.Time
	mirror   Mirror
	recorder Recorder
	log      *slog.Logger

	mu    sync.RWMutex
	slots map[Division]*Snapshot
	group singleflight.Group
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock：注入时钟，测试用
func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

func WithMirror(m Mirror) Option { return func(c *Cache) { c.mirror = m } }

func WithRecorder(r Recorder) Option { return func(c *Cache) { c.recorder = r } }

func NewCache(src Source, opts ...Option) *Cache {
	c := &Cache{
		src:   src,
		ttl:   time.Hour,
		now:   time.Now,
		log:   logger.Named("rankings"),
		slots: make(map[Division]*Snapshot),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) slot(d Division) *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slots[d]
}

func (c *Cache) fresh(s *Snapshot) bool {
	return s != nil && c.now().Sub(s.FetchedAt) < c.ttl
}

// DivisionRankings：新鲜则直接返回；否则拉取并整体替换槽位
// 失败时依次回退：内存中的过期槽位 → 共享副本 → ErrUnavailable
// 约束：返回的切片只读
func (c *Cache) DivisionRankings(ctx context.Context, d Division) ([]Entry, error) {
	snap, err := c.snapshot(ctx, d, false)
	if err != nil {
		return nil, err
	}
	return snap.Entries, nil
}

// AllRankings：排行榜全量，规则同 DivisionRankings
func (c *Cache) AllRankings(ctx context.Context, d Division) ([]Entry, error) {
	return c.DivisionRankings(ctx, d)
}

// Snapshot：带拉取时间的完整快照
func (c *Cache) Snapshot(ctx context.Context, d Division) (*Snapshot, error) {
	return c.snapshot(ctx, d, false)
}

// TopRankings：前 limit 名；limit<=0 返回全部
func (c *Cache) TopRankings(ctx context.Context, d Division, limit int) ([]Entry, error) {
	es, err := c.DivisionRankings(ctx, d)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(es) {
		es = es[:limit]
	}
	return es, nil
}

// CountryRanking：按国名对齐联合会名称；未命中返回 (nil, nil)
func (c *Cache) CountryRanking(ctx context.Context, name string, d Division) (*Entry, error) {
	es, err := c.DivisionRankings(ctx, d)
	if err != nil {
		return nil, err
	}
	i, outcome := reconcile.Find(name, es, func(e Entry) string { return e.FederationName })
	metrics.ReconcileTotal.WithLabelValues(string(outcome)).Inc()
	if i < 0 {
		c.log.Debug("reconcile_miss", "division", d, "name", name)
		return nil, nil
	}
	e := es[i]
	c.log.Debug("reconcile_hit", "division", d, "name", name, "federation", e.FederationName, "outcome", outcome)
	return &e, nil
}

// Refresh：忽略新鲜度强制拉取；失败时不回退，保留原槽位
func (c *Cache) Refresh(ctx context.Context, d Division) (*Snapshot, error) {
	return c.snapshot(ctx, d, true)
}

// Clear：清空指定组别；不传参数清空全部
func (c *Cache) Clear(ds ...Division) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(ds) == 0 {
		c.slots = make(map[Division]*Snapshot)
		c.log.Info("rankings_cache_cleared", "division", "all")
		return
	}
	for _, d := range ds {
		delete(c.slots, d)
		c.log.Info("rankings_cache_cleared", "division", d)
	}
}

// Status：各组别槽位状态
func (c *Cache) Status() []SlotStatus {
	now := c.now()
	out := make([]SlotStatus, 0, len(Divisions))
	for _, d := range Divisions {
		st := SlotStatus{Division: d}
		if s := c.slot(d); s != nil {
			st.Entries = len(s.Entries)
			st.FetchedAt = s.FetchedAt
			st.Age = now.Sub(s.FetchedAt)
			st.Fresh = c.fresh(s)
		}
		out = append(out, st)
	}
	return out
}

func (c *Cache) snapshot(ctx context.Context, d Division, force bool) (*Snapshot, error) {
	if !force {
		if s := c.slot(d); c.fresh(s) {
			metrics.RankingCacheHitsTotal.WithLabelValues(string(d)).Inc()
			return s, nil
		}
	}
	metrics.RankingCacheMissesTotal.WithLabelValues(string(d)).Inc()
	key := string(d)
	if force {
		key = "refresh:" + key
	}
	// 合并后的拉取不随单个调用方取消而中断
	fctx := context.WithoutCancel(ctx)
	v, err, shared := c.group.Do(key, func() (any, error) {
		if !force {
			if s := c.slot(d); c.fresh(s) {
				return s, nil
			}
			if s := c.freshMirror(fctx, d); s != nil {
				return s, nil
			}
		}
		return c.fetch(fctx, d)
	})
	if err == nil {
		if shared {
			c.log.Debug("rankings_fetch_shared", "division", d)
		}
		return v.(*Snapshot), nil
	}
	if force {
		return nil, err
	}
	return c.fallback(ctx, d, err)
}

func (c *Cache) fetch(ctx context.Context, d Division) (*Snapshot, error) {
	t0 := time.Now()
	teams, err := c.src.Teams(ctx, d.Code())
	metrics.RankingFetchDurationMs.WithLabelValues(string(d)).Observe(float64(time.Since(t0).Milliseconds()))
	if err != nil {
		metrics.RankingFetchTotal.WithLabelValues(string(d), "error").Inc()
		c.log.Warn("rankings_fetch_error", "division", d, "err", err)
		return nil, err
	}
	entries := Build(teams)
	if len(entries) == 0 {
		metrics.RankingFetchTotal.WithLabelValues(string(d), "empty").Inc()
		c.log.Warn("rankings_fetch_empty", "division", d, "teams", len(teams))
		return nil, ErrNoEntries
	}
	snap := &Snapshot{Division: d, Entries: entries, FetchedAt: c.now()}
	c.mu.Lock()
	c.slots[d] = snap
	c.mu.Unlock()
	metrics.RankingFetchTotal.WithLabelValues(string(d), "ok").Inc()
	c.log.Info("rankings_fetch_ok", "division", d, "entries", len(entries), "duration_ms", time.Since(t0).Milliseconds())
	c.persist(ctx, *snap)
	return snap, nil
}

// persist：写共享副本与历史；失败只记日志
func (c *Cache) persist(ctx context.Context, snap Snapshot) {
	if c.mirror != nil {
		if err := c.mirror.Save(ctx, snap); err != nil {
			c.log.Warn("rankings_mirror_save_error", "division", snap.Division, "err", err)
		}
	}
	if c.recorder != nil {
		if err := c.recorder.Record(ctx, snap); err != nil {
			c.log.Warn("rankings_record_error", "division", snap.Division, "err", err)
		}
	}
}

// freshMirror：其他实例刚写入的新鲜快照可直接复用，避免重复访问上游
func (c *Cache) freshMirror(ctx context.Context, d Division) *Snapshot {
	if c.mirror == nil {
		return nil
	}
	s, err := c.mirror.Load(ctx, d)
	if err != nil || s == nil || !c.fresh(s) || len(s.Entries) == 0 {
		return nil
	}
	c.mu.Lock()
	c.slots[d] = s
	c.mu.Unlock()
	c.log.Debug("rankings_mirror_hit", "division", d, "fetched_at", s.FetchedAt)
	return s
}

func (c *Cache) fallback(ctx context.Context, d Division, cause error) (*Snapshot, error) {
	if s := c.slot(d); s != nil {
		metrics.RankingDegradedTotal.WithLabelValues(string(d), "memory").Inc()
		c.log.Warn("rankings_degraded", "division", d, "source", "memory", "age", c.now().Sub(s.FetchedAt).String(), "err", cause)
		return s, nil
	}
	if c.mirror != nil {
		s, err := c.mirror.Load(ctx, d)
		if err == nil && s != nil && len(s.Entries) > 0 {
			c.mu.Lock()
			if c.slots[d] == nil {
				c.slots[d] = s
			}
			c.mu.Unlock()
			metrics.RankingDegradedTotal.WithLabelValues(string(d), "mirror").Inc()
			c.log.Warn("rankings_degraded", "division", d, "source", "mirror", "err", cause)
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, d, cause)
}

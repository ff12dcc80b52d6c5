// 包 selection：国家点击 → 名称解析 → 当前组别排名查询 → 视图回调
package selection

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"volley-globe/internal/geo"
	"volley-globe/internal/logger"
	"volley-globe/internal/metrics"
	"volley-globe/internal/rankings"
	"volley-globe/internal/registry"
)

// Rankings：排名查询；未命中返回 (nil, nil)
type Rankings interface {
	CountryRanking(ctx context.Context, name string, d rankings.Division) (*rankings.Entry, error)
}

// Result：一次选中的完整结果；Ranking 为 nil 表示无数据
type Result struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	FlagCode string            `json:"flagCode"`
	FlagURL  string            `json:"flagUrl"`
	Division rankings.Division `json:"division"`
	Ranking  *rankings.Entry   `json:"ranking"`
}

// Callback：每次 Select 恰好调用一次
type Callback func(Result)

// Coordinator：持有当前组别（默认女子）
type Coordinator struct {
	mu       sync.RWMutex
	division rankings.Division
	reg      *registry.Registry
	ranks    Rankings
	cb       Callback
	log      *slog.Logger
}

func New(reg *registry.Registry, ranks Rankings, cb Callback) *Coordinator {
	return &Coordinator{
		division: rankings.Women,
		reg:      reg,
		ranks:    ranks,
		cb:       cb,
		log:      logger.Named("selection"),
	}
}

func (c *Coordinator) Division() rankings.Division {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.division
}

func (c *Coordinator) SetDivision(d rankings.Division) {
	c.mu.Lock()
	c.division = d
	c.mu.Unlock()
}

// ToggleDivision：女子 ↔ 男子，返回切换后的组别
func (c *Coordinator) ToggleDivision() rankings.Division {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.division = c.division.Other()
	return c.division
}

// Select：排名查询失败不向上传播，记日志后以无排名结果回调
func (c *Coordinator) Select(ctx context.Context, f geo.Feature) Result {
	country := c.reg.Country(f)
	d := c.Division()
	res := Result{ID: country.ID, Name: country.Name, FlagCode: country.FlagCode, FlagURL: country.FlagURL, Division: d}
	if c.ranks != nil {
		e, err := c.ranks.CountryRanking(ctx, country.Name, d)
		if err != nil {
			c.log.Warn("selection_ranking_error", "id", f.ID, "name", country.Name, "division", d, "err", err)
		} else if e != nil {
			e.FlagURL = country.FlagURL
			res.Ranking = e
		}
	}
	metrics.SelectionsTotal.WithLabelValues(strconv.FormatBool(res.Ranking != nil)).Inc()
	if c.cb != nil {
		c.cb(res)
	}
	return res
}

// 包 fivb：FIVB 世界排名接口客户端
// 接口：GET {base}/{division}/{page}/{size}，女子 0、男子 1；响应为队伍数组或 {"teams": [...]}
package fivb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"volley-globe/internal/logger"
)

// StatusError：非 2xx 响应
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fivb: %s returned http %d", e.URL, e.StatusCode)
}

// Client：分页拉取排名
// 约束：任一页失败即整体失败，不返回部分结果；空页提前结束分页
type Client struct {
	Base     string
	Pages    int
	PageSize int
	HTTP     *http.Client
}

// NewClient：默认 2 页 × 50 条，10s 超时
func NewClient(base string, pages, size int, timeout time.Duration) *Client {
	if pages < 1 {
		pages = 2
	}
	if size < 1 {
		size = 50
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{Base: base, Pages: pages, PageSize: size, HTTP: &http.Client{Timeout: timeout}}
}

// Teams：拉取一个组别的全部页，保持源顺序
func (c *Client) Teams(ctx context.Context, divisionCode int) ([]Team, error) {
	var all []Team
	for page := 0; page < c.Pages; page++ {
		teams, err := c.page(ctx, divisionCode, page)
		if err != nil {
			return nil, err
		}
		if len(teams) == 0 {
			break
		}
		all = append(all, teams...)
	}
	return all, nil
}

func (c *Client) page(ctx context.Context, divisionCode, page int) ([]Team, error) {
	u := fmt.Sprintf("%s/%d/%d/%d", c.Base, divisionCode, page, c.PageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	t0 := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		logger.L().Warn("fivb_http_error", "url", u, "err", err)
		return nil, fmt.Errorf("fivb: page %d: %w", page, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		logger.L().Warn("fivb_http_status", "url", u, "status", resp.StatusCode)
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fivb: read page %d: %w", page, err)
	}
	teams, err := DecodeTeams(body)
	if err != nil {
		return nil, fmt.Errorf("fivb: decode page %d: %w", page, err)
	}
	logger.L().Debug("fivb_page", "division", divisionCode, "page", page, "teams", len(teams), "duration_ms", time.Since(t0).Milliseconds())
	return teams, nil
}

// DecodeTeams：兼容裸数组与 {"teams": [...]} 两种包装
func DecodeTeams(body []byte) ([]Team, error) {
	var teams []Team
	if err := json.Unmarshal(body, &teams); err == nil {
		return teams, nil
	}
	var wrapped struct {
		Teams []Team `json:"teams"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Teams, nil
}

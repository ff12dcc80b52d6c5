// 包 topology：世界地图加载，按顺序尝试数据源（CDN → 本地文件），首个成功者生效
package topology

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"volley-globe/internal/geo"
	"volley-globe/internal/logger"
	"volley-globe/internal/metrics"
)

// ErrMapLoad：所有地图源均失败；初始化阶段视为致命错误
var ErrMapLoad = errors.New("world map unavailable")

// Source：地图数据源契约
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTPSource：远程 TopoJSON/GeoJSON
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Name() string { return s.URL }

// Fetch：非 2xx 与传输错误同样视为失败
func (s HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// FileSource：随程序分发的本地地图文件
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file:" + s.Path }

func (s FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(s.Path)
}

// Attempt：一次数据源尝试的失败记录
type Attempt struct {
	Source string
	Err    error
}

// MapLoadError：列出每个失败源及原因；errors.Is(err, ErrMapLoad) 成立
type MapLoadError struct {
	Attempts []Attempt
}

func (e *MapLoadError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Source+": "+a.Err.Error())
	}
	if len(parts) == 0 {
		return ErrMapLoad.Error() + ": no sources configured"
	}
	return ErrMapLoad.Error() + ": " + strings.Join(parts, "; ")
}

func (e *MapLoadError) Unwrap() error { return ErrMapLoad }

// Load：依次尝试数据源并解码指定对象（TopoJSON 的 objects[object]，GeoJSON 忽略该参数）
// 返回：要素列表与实际生效的数据源名称
func Load(ctx context.Context, object string, sources ...Source) ([]geo.Feature, string, error) {
	l := logger.Named("topology")
	var failed []Attempt
	for _, src := range sources {
		if src == nil {
			continue
		}
		data, err := src.Fetch(ctx)
		if err == nil {
			var features []geo.Feature
			features, err = Decode(data, object)
			if err == nil && len(features) == 0 {
				err = errors.New("no country features")
			}
			if err == nil {
				metrics.MapLoadTotal.WithLabelValues(src.Name(), "ok").Inc()
				l.Info("map_load_ok", "source", src.Name(), "features", len(features))
				return features, src.Name(), nil
			}
		}
		metrics.MapLoadTotal.WithLabelValues(src.Name(), "fail").Inc()
		l.Warn("map_source_failed", "source", src.Name(), "err", err)
		failed = append(failed, Attempt{Source: src.Name(), Err: err})
	}
	return nil, "", &MapLoadError{Attempts: failed}
}

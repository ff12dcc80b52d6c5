package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Feature：一个国家的几何要素，加载后不可变
type Feature struct {
	ID         string
	Properties map[string]any
	Geometry   orb.MultiPolygon
	Bound      orb.Bound
	Centroid   orb.Point
}

// NewFeature：计算外包框与球面质心
func NewFeature(id string, props map[string]any, mp orb.MultiPolygon) Feature {
	if props == nil {
		props = map[string]any{}
	}
	return Feature{
		ID:         id,
		Properties: props,
		Geometry:   mp,
		Bound:      mp.Bound(),
		Centroid:   Centroid(mp),
	}
}

// Contains：点是否落在要素内（外包框预筛，再做含洞多边形判断）
func (f Feature) Contains(pt orb.Point) bool {
	if len(f.Geometry) == 0 || !f.Bound.Contains(pt) {
		return false
	}
	return planar.MultiPolygonContains(f.Geometry, pt)
}

// HitTest：返回包含该点的第一个要素；多个命中时取外包框面积最小者（飞地优先于包围它的国家）
func HitTest(features []Feature, pt orb.Point) (*Feature, bool) {
	best := -1
	bestArea := math.Inf(1)
	for i := range features {
		if !features[i].Contains(pt) {
			continue
		}
		b := features[i].Bound
		area := (b.Max.Lon() - b.Min.Lon()) * (b.Max.Lat() - b.Min.Lat())
		if area < bestArea {
			best, bestArea = i, area
		}
	}
	if best < 0 {
		return nil, false
	}
	return &features[best], true
}

// ProjectLine：按可见性把一条经纬度折线切分为若干屏幕折线段
// 约束：不做大圆重采样；跨越裁剪边界的段在最后一个可见点处截断
func (p Projector) ProjectLine(pts []orb.Point) [][]ScreenPoint {
	var out [][]ScreenPoint
	var cur []ScreenPoint
	for _, pt := range pts {
		sp, ok := p.Project(pt)
		if !ok {
			if len(cur) > 1 {
				out = append(out, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, sp)
	}
	if len(cur) > 1 {
		out = append(out, cur)
	}
	return out
}

// ProjectFeature：要素所有环的可见屏幕路径
func (p Projector) ProjectFeature(f Feature) [][]ScreenPoint {
	var out [][]ScreenPoint
	for _, poly := range f.Geometry {
		for _, ring := range poly {
			out = append(out, p.ProjectLine(ring)...)
		}
	}
	return out
}

package topology

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"volley-globe/internal/geo"
)

type topoTransform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

type topoDoc struct {
	Type      string                     `json:"type"`
	Transform *topoTransform             `json:"transform"`
	Arcs      [][][]float64              `json:"arcs"`
	Objects   map[string]json.RawMessage `json:"objects"`
}

type topoGeometry struct {
	Type       string          `json:"type"`
	ID         json.RawMessage `json:"id"`
	Properties map[string]any  `json:"properties"`
	Arcs       json.RawMessage `json:"arcs"`
	Geometries []topoGeometry  `json:"geometries"`
}

// Decode：识别 TopoJSON（type=Topology）或 GeoJSON 并转为国家要素
// 约束：仅保留 Polygon / MultiPolygon；空几何的要素被跳过
func Decode(data []byte, object string) ([]geo.Feature, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}
	switch head.Type {
	case "Topology":
		return decodeTopology(data, object)
	case "FeatureCollection":
		return decodeGeoJSON(data)
	}
	return nil, fmt.Errorf("decode map: unsupported type %q", head.Type)
}

func decodeTopology(data []byte, object string) ([]geo.Feature, error) {
	var doc topoDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	if object == "" {
		object = "countries"
	}
	raw, ok := doc.Objects[object]
	if !ok {
		return nil, fmt.Errorf("decode topology: object %q not found", object)
	}
	var root topoGeometry
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("decode topology object: %w", err)
	}
	arcs := decodeArcs(doc.Arcs, doc.Transform)
	geoms := root.Geometries
	if root.Type != "GeometryCollection" {
		geoms = []topoGeometry{root}
	}
	out := make([]geo.Feature, 0, len(geoms))
	for _, g := range geoms {
		mp, err := g.multiPolygon(arcs)
		if err != nil {
			return nil, err
		}
		if len(mp) == 0 {
			continue
		}
		out = append(out, geo.NewFeature(rawID(g.ID), g.Properties, mp))
	}
	return out, nil
}

// decodeArcs：量化坐标先做差分还原，再套用 scale/translate
func decodeArcs(raw [][][]float64, t *topoTransform) [][]orb.Point {
	arcs := make([][]orb.Point, len(raw))
	for i, arc := range raw {
		pts := make([]orb.Point, 0, len(arc))
		var x, y float64
		for _, p := range arc {
			if len(p) < 2 {
				continue
			}
			if t != nil {
				x += p[0]
				y += p[1]
				pts = append(pts, orb.Point{x*t.Scale[0] + t.Translate[0], y*t.Scale[1] + t.Translate[1]})
			} else {
				pts = append(pts, orb.Point{p[0], p[1]})
			}
		}
		arcs[i] = pts
	}
	return arcs
}

func (g topoGeometry) multiPolygon(arcs [][]orb.Point) (orb.MultiPolygon, error) {
	switch g.Type {
	case "Polygon":
		var rings [][]int
		if err := json.Unmarshal(g.Arcs, &rings); err != nil {
			return nil, fmt.Errorf("decode polygon %s: %w", rawID(g.ID), err)
		}
		poly, err := stitchPolygon(rings, arcs)
		if err != nil {
			return nil, err
		}
		return orb.MultiPolygon{poly}, nil
	case "MultiPolygon":
		var polys [][][]int
		if err := json.Unmarshal(g.Arcs, &polys); err != nil {
			return nil, fmt.Errorf("decode multipolygon %s: %w", rawID(g.ID), err)
		}
		mp := make(orb.MultiPolygon, 0, len(polys))
		for _, rings := range polys {
			poly, err := stitchPolygon(rings, arcs)
			if err != nil {
				return nil, err
			}
			mp = append(mp, poly)
		}
		return mp, nil
	}
	return nil, nil
}

func stitchPolygon(rings [][]int, arcs [][]orb.Point) (orb.Polygon, error) {
	poly := make(orb.Polygon, 0, len(rings))
	for _, idx := range rings {
		ring, err := stitchRing(idx, arcs)
		if err != nil {
			return nil, err
		}
		poly = append(poly, ring)
	}
	return poly, nil
}

// stitchRing：按弧索引拼接环；负索引 ~i 表示反向使用第 i 条弧，相邻弧共享端点只保留一次
func stitchRing(idx []int, arcs [][]orb.Point) (orb.Ring, error) {
	var ring orb.Ring
	for _, i := range idx {
		reversed := i < 0
		if reversed {
			i = ^i
		}
		if i >= len(arcs) {
			return nil, errors.New("decode topology: arc index out of range")
		}
		arc := arcs[i]
		if len(ring) > 0 {
			ring = ring[:len(ring)-1]
		}
		if reversed {
			for k := len(arc) - 1; k >= 0; k-- {
				ring = append(ring, arc[k])
			}
		} else {
			ring = append(ring, arc...)
		}
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	for len(ring) > 0 && len(ring) < 4 {
		ring = append(ring, ring[0])
	}
	return ring, nil
}

func decodeGeoJSON(data []byte) ([]geo.Feature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	out := make([]geo.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		var mp orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			mp = g
		default:
			continue
		}
		id := anyID(f.ID)
		if id == "" {
			id = anyID(f.Properties["id"])
		}
		out = append(out, geo.NewFeature(id, map[string]any(f.Properties), mp))
	}
	return out, nil
}

func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return anyID(v)
}

func anyID(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	}
	return ""
}

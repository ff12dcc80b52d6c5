package geo

import (
	"math"

	"github.com/paulmach/orb"
)

type vec3 [3]float64

func toVec(pt orb.Point) vec3 {
	lon, lat := pt.Lon()*radians, pt.Lat()*radians
	cl := math.Cos(lat)
	return vec3{cl * math.Cos(lon), cl * math.Sin(lon), math.Sin(lat)}
}

func (a vec3) add(b vec3) vec3     { return vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a vec3) scale(k float64) vec3 { return vec3{a[0] * k, a[1] * k, a[2] * k} }
func (a vec3) dot(b vec3) float64   { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func (a vec3) norm() float64        { return math.Sqrt(a.dot(a)) }
func (a vec3) cross(b vec3) vec3 {
	return vec3{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

func (a vec3) point() orb.Point {
	lon := math.Atan2(a[1], a[0]) * degrees
	lat := math.Asin(clampUnit(a[2]/a.norm())) * degrees
	return orb.Point{lon, lat}
}

// Centroid：球面面积加权质心
// 背景：对每个环累加 ½·θ·normalize(vᵢ×vᵢ₊₁)，得到面单位法向量积分；跨越 ±180 经线的多边形不会被平面平均拉到本初子午线
// 约束：环方向不可靠，按多边形与其顶点和同向修正符号；退化几何回退为顶点平均
func Centroid(mp orb.MultiPolygon) orb.Point {
	var total, verts vec3
	for _, poly := range mp {
		var moment, vsum vec3
		for _, ring := range poly {
			moment = moment.add(ringMoment(ring))
			for _, pt := range ring {
				vsum = vsum.add(toVec(pt))
			}
		}
		if moment.dot(vsum) < 0 {
			moment = moment.scale(-1)
		}
		total = total.add(moment)
		verts = verts.add(vsum)
	}
	if total.norm() > 1e-12 {
		return total.point()
	}
	if verts.norm() > 1e-12 {
		return verts.point()
	}
	return orb.Point{}
}

func ringMoment(ring orb.Ring) vec3 {
	var m vec3
	n := len(ring)
	if n < 2 {
		return m
	}
	for i := 0; i < n; i++ {
		a := toVec(ring[i])
		b := toVec(ring[(i+1)%n])
		c := a.cross(b)
		cn := c.norm()
		if cn < 1e-15 {
			continue
		}
		theta := math.Atan2(cn, a.dot(b))
		m = m.add(c.scale(theta / (2 * cn)))
	}
	return m
}

package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func square(lon, lat, half float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{lon - half, lat - half},
		{lon + half, lat - half},
		{lon + half, lat + half},
		{lon - half, lat + half},
		{lon - half, lat - half},
	}}
}

func TestProjectCenter(t *testing.T) {
	p := NewProjector(960, 640, 280)
	sp, ok := p.Project(orb.Point{0, 0})
	if !ok || !near(sp.X, 480, 1e-9) || !near(sp.Y, 320, 1e-9) {
		t.Fatalf("center projected to %+v ok=%v", sp, ok)
	}
	sp, ok = p.Project(orb.Point{0, 45})
	if !ok || !near(sp.X, 480, 1e-9) || !near(sp.Y, 320-280*math.Sin(math.Pi/4), 1e-9) {
		t.Fatalf("north point projected to %+v", sp)
	}
}

func TestProjectClipsBackHemisphere(t *testing.T) {
	p := NewProjector(960, 640, 280)
	cases := []orb.Point{{90, 0}, {180, 0}, {-120, 10}, {0, -90}}
	for _, c := range cases {
		if _, ok := p.Project(c); ok {
			t.Errorf("%v should be off-globe", c)
		}
	}
}

func TestCenteredRotationBringsPointToCenter(t *testing.T) {
	p := NewProjector(960, 640, 280)
	target := orb.Point{-47.9, -15.8}
	p.Rotation = Centered(target)
	sp, ok := p.Project(target)
	if !ok || !near(sp.X, 480, 1e-6) || !near(sp.Y, 320, 1e-6) {
		t.Fatalf("target projected to %+v ok=%v", sp, ok)
	}
}

func TestInvertRoundTrip(t *testing.T) {
	p := NewProjector(960, 640, 350)
	p.Rotation = Rotation{Lambda: 30, Phi: -25}
	pts := []orb.Point{{-30, 25}, {-10, 40}, {-60, 0}, {0, 10}, {-45, 60}}
	for _, pt := range pts {
		sp, ok := p.Project(pt)
		if !ok {
			t.Fatalf("%v not visible", pt)
		}
		back, ok := p.Invert(sp)
		if !ok {
			t.Fatalf("invert of %+v failed", sp)
		}
		if !near(back.Lon(), pt.Lon(), 1e-6) || !near(back.Lat(), pt.Lat(), 1e-6) {
			t.Errorf("round trip %v -> %v", pt, back)
		}
	}
}

func TestInvertOffGlobe(t *testing.T) {
	p := NewProjector(960, 640, 280)
	if _, ok := p.Invert(ScreenPoint{X: 480 + 281, Y: 320}); ok {
		t.Fatal("point outside disc should not invert")
	}
	if _, ok := p.Invert(ScreenPoint{X: 5, Y: 5}); ok {
		t.Fatal("corner should not invert")
	}
}

func TestCentroidSmallPolygon(t *testing.T) {
	c := Centroid(orb.MultiPolygon{square(10, 20, 1)})
	if !near(c.Lon(), 10, 0.01) || !near(c.Lat(), 20, 0.05) {
		t.Fatalf("centroid = %v", c)
	}
}

func TestCentroidIgnoresRingOrientation(t *testing.T) {
	sq := square(-60, -10, 2)
	rev := make(orb.Ring, len(sq[0]))
	for i, pt := range sq[0] {
		rev[len(rev)-1-i] = pt
	}
	a := Centroid(orb.MultiPolygon{sq})
	b := Centroid(orb.MultiPolygon{{rev}})
	if !near(a.Lon(), b.Lon(), 1e-9) || !near(a.Lat(), b.Lat(), 1e-9) {
		t.Fatalf("orientation changed centroid: %v vs %v", a, b)
	}
}

func TestCentroidAcrossAntimeridian(t *testing.T) {
	mp := orb.MultiPolygon{{orb.Ring{{170, -5}, {-170, -5}, {-170, 5}, {170, 5}, {170, -5}}}}
	c := Centroid(mp)
	if math.Abs(c.Lon()) < 179 || !near(c.Lat(), 0, 0.01) {
		t.Fatalf("centroid = %v, want near 180,0", c)
	}
}

func TestCentroidAreaWeighted(t *testing.T) {
	big := square(0, 0, 5)
	small := square(40, 0, 0.5)
	c := Centroid(orb.MultiPolygon{big, small})
	if c.Lon() <= 0 || c.Lon() > 2 {
		t.Fatalf("centroid lon = %v, want pulled slightly toward the small island", c.Lon())
	}
}

func TestFeatureContainsRespectsHoles(t *testing.T) {
	outer := square(0, 0, 10)[0]
	hole := square(0, 0, 2)[0]
	f := NewFeature("1", nil, orb.MultiPolygon{{outer, hole}})
	if !f.Contains(orb.Point{5, 5}) {
		t.Error("point in ring should be contained")
	}
	if f.Contains(orb.Point{0, 0}) {
		t.Error("point in hole should not be contained")
	}
	if f.Contains(orb.Point{50, 0}) {
		t.Error("point outside bound should not be contained")
	}
}

func TestHitTestPrefersSmallestFeature(t *testing.T) {
	features := []Feature{
		NewFeature("710", nil, orb.MultiPolygon{square(25, -29, 8)}),
		NewFeature("426", nil, orb.MultiPolygon{square(28, -29.5, 1)}),
	}
	f, ok := HitTest(features, orb.Point{28, -29.5})
	if !ok || f.ID != "426" {
		t.Fatalf("hit = %+v ok=%v", f, ok)
	}
	f, ok = HitTest(features, orb.Point{20, -25})
	if !ok || f.ID != "710" {
		t.Fatalf("hit = %+v ok=%v", f, ok)
	}
	if _, ok := HitTest(features, orb.Point{-100, 40}); ok {
		t.Fatal("ocean should not hit")
	}
}

func TestClampAndNormalize(t *testing.T) {
	if Clamp(120, -90, 90) != 90 || Clamp(-120, -90, 90) != -90 || Clamp(3, -90, 90) != 3 {
		t.Fatal("clamp")
	}
	cases := map[float64]float64{190: -170, -190: 170, 180: -180, 0: 0, 725: 5}
	for in, want := range cases {
		if got := NormalizeLon(in); !near(got, want, 1e-9) {
			t.Errorf("NormalizeLon(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestProjectLineSplitsAtHorizon(t *testing.T) {
	p := NewProjector(960, 640, 280)
	line := []orb.Point{{-30, 0}, {0, 0}, {30, 0}, {120, 0}, {150, 0}, {60, 10}, {70, 10}}
	runs := p.ProjectLine(line)
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if len(runs[0]) != 3 || len(runs[1]) != 2 {
		t.Fatalf("run lengths = %d,%d", len(runs[0]), len(runs[1]))
	}
}

func TestGraticuleCounts(t *testing.T) {
	g := Graticule(10)
	if len(g) != 36+17 {
		t.Fatalf("graticule lines = %d", len(g))
	}
}

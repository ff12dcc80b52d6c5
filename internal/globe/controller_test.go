package globe

import (
	"math"
	"sync"
	"testing"

	"github.com/paulmach/orb"

	"volley-globe/internal/geo"
)

func square(id string, lon, lat, half float64) geo.Feature {
	ring := orb.Ring{
		{lon - half, lat - half}, {lon + half, lat - half},
		{lon + half, lat + half}, {lon - half, lat + half},
		{lon - half, lat - half},
	}
	return geo.NewFeature(id, nil, orb.MultiPolygon{{ring}})
}

var testNames = map[string]string{"076": "Brazil", "392": "Japan", "840": "United States of America"}

type frameLog struct {
	mu     sync.Mutex
	frames []Frame
}

func (l *frameLog) Render(f Frame) {
	l.mu.Lock()
	l.frames = append(l.frames, f)
	l.mu.Unlock()
}

func (l *frameLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames)
}

func newTestController(log *frameLog) *Controller {
	fs := []geo.Feature{
		square("076", -50, -10, 8),
		square("392", 138, 36, 5),
		square("840", -100, 40, 12),
	}
	var r Renderer
	if log != nil {
		r = log
	}
	return NewController(fs, DefaultOptions(), r,
		WithNames(func(f geo.Feature) string { return testNames[f.ID] }),
		WithFlags(func(id string) string { return "BR" }),
	)
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestInitialState(t *testing.T) {
	c := newTestController(nil)
	s := c.State()
	if s.Mode != ModeAutorotating || !s.AutoRotate || s.SelectedID != "" {
		t.Fatalf("state = %+v", s)
	}
	if s.Rotation.Phi != -10 || s.Rotation.Lambda != 0 || s.Scale != 280 {
		t.Fatalf("view = %+v", s)
	}
}

func TestTickFollowsElapsedTime(t *testing.T) {
	c := newTestController(nil)
	if _, ok := c.Tick(160); !ok {
		t.Fatal("autorotating tick should emit")
	}
	if got := c.State().Rotation.Lambda; !near(got, 0.2) {
		t.Fatalf("lambda = %v, want 0.2", got)
	}
	c.Tick(16)
	if got := c.State().Rotation.Lambda; !near(got, 0.22) {
		t.Fatalf("lambda = %v, want 0.22", got)
	}
	if _, ok := c.Tick(0); ok {
		t.Fatal("zero elapsed should not emit")
	}
}

func TestDragPausesAutorotation(t *testing.T) {
	c := newTestController(nil)
	c.PointerDown()
	if s := c.State(); s.Mode != ModeDragging || s.AutoRotate {
		t.Fatalf("after down = %+v", s)
	}
	if _, ok := c.Tick(1000); ok {
		t.Fatal("tick while dragging should not rotate")
	}
	c.Drag(40, 20)
	s := c.State()
	if !near(s.Rotation.Lambda, 10) || !near(s.Rotation.Phi, -15) {
		t.Fatalf("after drag = %+v", s.Rotation)
	}
	c.Drag(0, 10000)
	if s := c.State(); s.Rotation.Phi != -90 {
		t.Fatalf("phi not clamped: %v", s.Rotation.Phi)
	}
	c.Drag(0, -100000)
	if s := c.State(); s.Rotation.Phi != 90 {
		t.Fatalf("phi not clamped: %v", s.Rotation.Phi)
	}
	c.PointerUp()
	if s := c.State(); s.Mode != ModeAutorotating || !s.AutoRotate {
		t.Fatalf("after up = %+v", s)
	}
}

func TestZoomClamps(t *testing.T) {
	c := newTestController(nil)
	c.Zoom(1.5)
	if s := c.State().Scale; s != 420 {
		t.Fatalf("scale = %v", s)
	}
	c.Zoom(5)
	if s := c.State().Scale; s != 500 {
		t.Fatalf("scale = %v, want max 500", s)
	}
	c.Zoom(0.1)
	if s := c.State().Scale; s != 200 {
		t.Fatalf("scale = %v, want min 200", s)
	}
	for i := 0; i < 20; i++ {
		c.ZoomIn()
	}
	if s := c.State().Scale; s != 500 {
		t.Fatalf("zoom in = %v", s)
	}
	c.ZoomOut()
	if s := c.State().Scale; s != 470 {
		t.Fatalf("zoom out = %v", s)
	}
}

func TestZoomExtentFollowsOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxScale = 900
	c := NewController(nil, opts, nil)
	c.Zoom(3)
	if s := c.State().Scale; s != 560 {
		t.Fatalf("default extent: scale = %v, want 560", s)
	}
	opts.ZoomMax = 3
	c = NewController(nil, opts, nil)
	c.Zoom(3)
	if s := c.State().Scale; s != 840 {
		t.Fatalf("wider extent: scale = %v, want 840", s)
	}
}

func TestSelectCentersAndStopsRotation(t *testing.T) {
	log := &frameLog{}
	c := newTestController(log)
	c.SelectID("392")
	s := c.State()
	if s.Mode != ModeSelected || s.AutoRotate || s.SelectedID != "392" {
		t.Fatalf("state = %+v", s)
	}
	cen := *s.SelectedCentroid
	if !near(s.Rotation.Lambda, -cen.Lon()) || !near(s.Rotation.Phi, -cen.Lat()) {
		t.Fatalf("rotation %+v not centred on %v", s.Rotation, cen)
	}
	if _, ok := c.Tick(1000); ok {
		t.Fatal("tick with selection should not rotate")
	}
	// 选中期间拖拽结束不恢复自动旋转
	c.PointerDown()
	c.PointerUp()
	if s := c.State(); s.AutoRotate || s.Mode != ModeSelected {
		t.Fatalf("after drag with selection = %+v", s)
	}

	f := c.Render()
	if f.Marker == nil || !f.Marker.Visible || f.Marker.ID != "392" || f.Marker.FlagCode != "BR" {
		t.Fatalf("marker = %+v", f.Marker)
	}
	if math.Abs(f.Marker.Pin.X-480) > 1e-6 || math.Abs(f.Marker.Pin.Y-320) > 1e-6 {
		t.Fatalf("pin = %+v, want view centre", f.Marker.Pin)
	}
	selected := 0
	for _, cp := range f.Countries {
		if cp.Selected {
			selected++
			if cp.ID != "392" {
				t.Fatalf("wrong country highlighted: %s", cp.ID)
			}
		}
	}
	if selected != 1 {
		t.Fatalf("highlighted = %d", selected)
	}

	c.Deselect()
	if s := c.State(); s.SelectedID != "" || !s.AutoRotate || s.Mode != ModeAutorotating {
		t.Fatalf("after deselect = %+v", s)
	}
	if f := c.Render(); f.Marker != nil {
		t.Fatal("marker survived deselect")
	}
}

func TestClickHitsCountryUnderPointer(t *testing.T) {
	c := newTestController(nil)
	c.SelectID("076")
	// 以日本为中心后点击视图中心
	c.SelectID("392")
	f, _, ok := c.Click(geo.ScreenPoint{X: 480, Y: 320})
	if !ok || f.ID != "392" {
		t.Fatalf("click centre = %v %v", f, ok)
	}
	before := c.State()
	// 球外
	if _, _, ok := c.Click(geo.ScreenPoint{X: 5, Y: 5}); ok {
		t.Fatal("click outside disc selected something")
	}
	// 海洋：中心往下 200 像素
	if _, _, ok := c.Click(geo.ScreenPoint{X: 480, Y: 520}); ok {
		t.Fatal("click on ocean selected something")
	}
	if after := c.State(); after.Rotation != before.Rotation || after.SelectedID != before.SelectedID || after.Mode != before.Mode {
		t.Fatalf("miss changed state: %+v -> %+v", before, after)
	}
}

func TestSelectByName(t *testing.T) {
	c := newTestController(nil)
	f, _, ok := c.SelectByName("USA")
	if !ok || f.ID != "840" {
		t.Fatalf("USA = %v %v", f, ok)
	}
	if _, _, ok := c.SelectByName("Atlantis"); ok {
		t.Fatal("unknown name selected")
	}
	if c.State().SelectedID != "840" {
		t.Fatal("failed lookup changed selection")
	}
}

func TestFramesAreSequenced(t *testing.T) {
	log := &frameLog{}
	c := newTestController(log)
	c.Render()
	c.Tick(16)
	c.PointerDown()
	c.Drag(1, 1)
	c.PointerUp()
	if log.len() != 5 {
		t.Fatalf("frames = %d", log.len())
	}
	for i := 1; i < len(log.frames); i++ {
		if log.frames[i].Seq <= log.frames[i-1].Seq {
			t.Fatalf("seq not increasing at %d", i)
		}
	}
	f := log.frames[0]
	if f.Sea.R != 280 || f.Sea.CX != 480 || f.Sea.CY != 320 {
		t.Fatalf("sea = %+v", f.Sea)
	}
	if len(f.Graticule) == 0 || len(f.Countries) == 0 {
		t.Fatalf("empty frame: graticule=%d countries=%d", len(f.Graticule), len(f.Countries))
	}
}

package rankings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"volley-globe/internal/fivb"
)

type fakeSource struct {
	mu      sync.Mutex
	calls   map[int]int
	teams   map[int][]fivb.Team
	err     error
	entered chan struct{}
	release chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		calls: map[int]int{},
		teams: map[int][]fivb.Team{
			0: {{FederationName: "Brazil", DecimalPoints: num(373.88)}, {FederationName: "Czechia", DecimalPoints: num(250)}, {FederationName: "Oman", DecimalPoints: num(10)}},
			1: {{FederationName: "Poland", DecimalPoints: num(401)}},
		},
	}
}

func (f *fakeSource) Teams(ctx context.Context, code int) ([]fivb.Team, error) {
	f.mu.Lock()
	f.calls[code]++
	err := f.err
	teams := f.teams[code]
	entered, release := f.entered, f.release
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
		<-release
	}
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (f *fakeSource) count(code int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[code]
}

func (f *fakeSource) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *clock { return &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)} }

type memMirror struct {
	mu    sync.Mutex
	snaps map[Division]Snapshot
	saves int
}

func (m *memMirror) Save(ctx context.Context, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snaps == nil {
		m.snaps = map[Division]Snapshot{}
	}
	m.snaps[s.Division] = s
	m.saves++
	return nil
}

func (m *memMirror) Load(ctx context.Context, d Division) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snaps[d]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) Record(ctx context.Context, s Snapshot) error {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
	return nil
}

func TestFreshnessWindow(t *testing.T) {
	src, clk := newFakeSource(), newClock()
	c := NewCache(src, WithClock(clk.now))
	ctx := context.Background()

	es, err := c.DivisionRankings(ctx, Women)
	if err != nil || len(es) != 3 {
		t.Fatalf("first fetch: %v %v", es, err)
	}
	clk.advance(59*time.Minute + 59*time.Second)
	if _, err := c.DivisionRankings(ctx, Women); err != nil {
		t.Fatal(err)
	}
	if n := src.count(0); n != 1 {
		t.Fatalf("fresh lookup refetched: calls = %d", n)
	}
	clk.advance(time.Second)
	if _, err := c.DivisionRankings(ctx, Women); err != nil {
		t.Fatal(err)
	}
	if n := src.count(0); n != 2 {
		t.Fatalf("expired lookup did not refetch: calls = %d", n)
	}
}

func TestStaleFallbackOnFailure(t *testing.T) {
	src, clk := newFakeSource(), newClock()
	c := NewCache(src, WithClock(clk.now))
	ctx := context.Background()
	if _, err := c.DivisionRankings(ctx, Women); err != nil {
		t.Fatal(err)
	}
	src.fail(&fivb.StatusError{URL: "x", StatusCode: 503})
	clk.advance(3 * time.Hour)
	es, err := c.DivisionRankings(ctx, Women)
	if err != nil {
		t.Fatalf("stale fallback returned error: %v", err)
	}
	if len(es) != 3 || es[0].FederationName != "Brazil" {
		t.Fatalf("stale entries = %+v", es)
	}
	if src.count(0) != 2 {
		t.Fatalf("calls = %d", src.count(0))
	}
}

func TestFailureWithoutCacheErrors(t *testing.T) {
	src := newFakeSource()
	boom := errors.New("connection refused")
	src.fail(boom)
	c := NewCache(src)
	_, err := c.DivisionRankings(context.Background(), Men)
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if st := c.Status(); st[1].Entries != 0 || st[1].Fresh {
		t.Fatalf("failed fetch left state: %+v", st)
	}
}

func TestEmptySourceIsFailure(t *testing.T) {
	src := newFakeSource()
	src.teams[1] = []fivb.Team{{FederationName: "NoPoints"}}
	c := NewCache(src)
	_, err := c.DivisionRankings(context.Background(), Men)
	if !errors.Is(err, ErrNoEntries) || !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v", err)
	}
}

func TestDivisionsAreIndependent(t *testing.T) {
	src := newFakeSource()
	c := NewCache(src)
	ctx := context.Background()
	if _, err := c.DivisionRankings(ctx, Women); err != nil {
		t.Fatal(err)
	}
	src.fail(errors.New("down"))
	if _, err := c.DivisionRankings(ctx, Men); err == nil {
		t.Fatal("men should fail")
	}
	es, err := c.DivisionRankings(ctx, Women)
	if err != nil || len(es) != 3 {
		t.Fatalf("women affected by men failure: %v %v", es, err)
	}
	if src.count(0) != 1 {
		t.Fatalf("women refetched: %d", src.count(0))
	}
}

func TestConcurrentRefetchesCoalesce(t *testing.T) {
	src := newFakeSource()
	src.entered = make(chan struct{}, 1)
	src.release = make(chan struct{})
	c := NewCache(src)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([][]Entry, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			es, err := c.DivisionRankings(ctx, Women)
			if err != nil {
				t.Error(err)
			}
			results[i] = es
		}(i)
	}
	<-src.entered
	close(src.release)
	wg.Wait()
	if n := src.count(0); n != 1 {
		t.Fatalf("calls = %d, want 1", n)
	}
	for i, es := range results {
		if len(es) != 3 {
			t.Fatalf("caller %d got %d entries", i, len(es))
		}
	}
}

func TestCountryRanking(t *testing.T) {
	c := NewCache(newFakeSource())
	ctx := context.Background()
	e, err := c.CountryRanking(ctx, "Czech Republic", Women)
	if err != nil || e == nil || e.FederationName != "Czechia" || e.Rank != 2 {
		t.Fatalf("czech = %+v %v", e, err)
	}
	e, err = c.CountryRanking(ctx, "Romania", Women)
	if err != nil || e != nil {
		t.Fatalf("romania matched %+v %v", e, err)
	}
}

func TestTopRankingsAndClear(t *testing.T) {
	src := newFakeSource()
	c := NewCache(src)
	ctx := context.Background()
	top, err := c.TopRankings(ctx, Women, 2)
	if err != nil || len(top) != 2 || top[1].Rank != 2 {
		t.Fatalf("top = %+v %v", top, err)
	}
	all, _ := c.TopRankings(ctx, Women, 0)
	if len(all) != 3 {
		t.Fatalf("all = %d", len(all))
	}
	c.Clear(Women)
	if _, err := c.AllRankings(ctx, Women); err != nil {
		t.Fatal(err)
	}
	if src.count(0) != 2 {
		t.Fatalf("clear did not force refetch: %d", src.count(0))
	}
}

func TestRefreshForcesFetchAndKeepsSlotOnFailure(t *testing.T) {
	src, clk := newFakeSource(), newClock()
	c := NewCache(src, WithClock(clk.now))
	ctx := context.Background()
	if _, err := c.Refresh(ctx, Men); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Refresh(ctx, Men); err != nil {
		t.Fatal(err)
	}
	if src.count(1) != 2 {
		t.Fatalf("refresh calls = %d", src.count(1))
	}
	src.fail(errors.New("down"))
	if _, err := c.Refresh(ctx, Men); err == nil {
		t.Fatal("refresh should surface failure")
	}
	st := c.Status()
	if st[1].Entries != 1 || !st[1].Fresh {
		t.Fatalf("slot after failed refresh = %+v", st[1])
	}
}

func TestMirrorAndRecorder(t *testing.T) {
	src, clk := newFakeSource(), newClock()
	m := &memMirror{}
	rec := &recorder{}
	c := NewCache(src, WithClock(clk.now), WithMirror(m), WithRecorder(rec))
	ctx := context.Background()
	if _, err := c.DivisionRankings(ctx, Women); err != nil {
		t.Fatal(err)
	}
	if m.saves != 1 || len(rec.snaps) != 1 || rec.snaps[0].Division != Women {
		t.Fatalf("persist: saves=%d records=%d", m.saves, len(rec.snaps))
	}

	// 另一个实例：副本新鲜时不访问上游
	src2 := newFakeSource()
	c2 := NewCache(src2, WithClock(clk.now), WithMirror(m))
	es, err := c2.DivisionRankings(ctx, Women)
	if err != nil || len(es) != 3 || src2.count(0) != 0 {
		t.Fatalf("fresh mirror not used: %v %v calls=%d", es, err, src2.count(0))
	}

	// 副本过期且上游故障：仍以副本降级返回
	clk.advance(5 * time.Hour)
	src3 := newFakeSource()
	src3.fail(errors.New("down"))
	c3 := NewCache(src3, WithClock(clk.now), WithMirror(m))
	es, err = c3.DivisionRankings(ctx, Women)
	if err != nil || len(es) != 3 || src3.count(0) != 1 {
		t.Fatalf("mirror fallback: %v %v calls=%d", es, err, src3.count(0))
	}
}

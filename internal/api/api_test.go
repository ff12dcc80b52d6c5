package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/paulmach/orb"

	"volley-globe/internal/fivb"
	"volley-globe/internal/geo"
	"volley-globe/internal/globe"
	"volley-globe/internal/locate"
	"volley-globe/internal/middleware"
	"volley-globe/internal/rankings"
	"volley-globe/internal/registry"
	"volley-globe/internal/session"
	"volley-globe/internal/store"
)

type teamSource struct {
	mu    sync.Mutex
	teams map[int][]fivb.Team
	fail  map[int]error
}

func (s *teamSource) Teams(ctx context.Context, code int) ([]fivb.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[code]; err != nil {
		return nil, err
	}
	return s.teams[code], nil
}

func pts(v float64) fivb.Number { return fivb.Number{Value: v, Valid: true} }

type historyStub struct {
	federation string
}

func (h *historyStub) History(ctx context.Context, d rankings.Division, federation string, limit int) ([]store.HistoryPoint, error) {
	h.federation = federation
	return []store.HistoryPoint{{Rank: 2, Points: 250, FederationName: federation}}, nil
}

type ipLookup map[string]string

func (l ipLookup) Name() string { return "fake" }

func (l ipLookup) CountryCode(ip net.IP) (string, error) { return l[ip.String()], nil }

func square(id string, lon, lat, half float64) geo.Feature {
	ring := orb.Ring{
		{lon - half, lat - half}, {lon + half, lat - half},
		{lon + half, lat + half}, {lon - half, lat + half},
		{lon - half, lat - half},
	}
	return geo.NewFeature(id, nil, orb.MultiPolygon{{ring}})
}

type fixture struct {
	handler http.Handler
	src     *teamSource
	hist    *historyStub
}

func newFixture(t *testing.T, withHistory bool) *fixture {
	t.Helper()
	src := &teamSource{
		teams: map[int][]fivb.Team{
			0: {
				{FederationName: "Brazil", DecimalPoints: pts(373.88)},
				{FederationName: "Czechia", DecimalPoints: pts(250)},
				{FederationName: "Oman", DecimalPoints: pts(10)},
			},
		},
		fail: map[int]error{1: &fivb.StatusError{URL: "men", StatusCode: 502}},
	}
	cache := rankings.NewCache(src)
	reg := registry.New("https://flags.test/", "https://flags.test/none.png")
	features := []geo.Feature{square("076", -50, -10, 8), square("203", 15, 50, 3), square("250", 2, 46, 4)}
	sessions := session.NewManager(session.Deps{
		Features: features,
		Options:  globe.DefaultOptions(),
		Registry: reg,
		Rankings: cache,
	}, time.Minute)
	d := Deps{
		Rankings:     cache,
		Registry:     reg,
		Features:     features,
		Sessions:     sessions,
		Locator:      locate.New(reg, features, ipLookup{"200.1.2.3": "BR"}),
		AdminToken:   "secret",
		ShareBaseURL: "https://globe.test/",
		TickInterval: 10 * time.Millisecond,
	}
	fx := &fixture{src: src}
	if withHistory {
		fx.hist = &historyStub{}
		d.History = fx.hist
	}
	fx.handler = middleware.Wrap(Wrap(NewRouter(d)))
	return fx
}

func (fx *fixture) do(t *testing.T, method, path string, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, rd)
	for k, v := range hdr {
		r.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	fx.handler.ServeHTTP(rec, r)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestLeaderboard(t *testing.T) {
	fx := newFixture(t, false)
	rec := fx.do(t, "GET", "/api/rankings/women?limit=2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body)
	}
	var lb leaderboardResponse
	decode(t, rec, &lb)
	if lb.Division != rankings.Women || lb.Count != 2 || lb.Entries[0].FederationName != "Brazil" || lb.Entries[1].Rank != 2 {
		t.Fatalf("leaderboard = %+v", lb)
	}
	if lb.Entries[0].FlagURL != "https://flags.test/br.png" || lb.Entries[1].FlagURL != "https://flags.test/cz.png" {
		t.Fatalf("flags = %q %q", lb.Entries[0].FlagURL, lb.Entries[1].FlagURL)
	}

	if rec := fx.do(t, "GET", "/api/rankings/mixed", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad division = %d", rec.Code)
	}
	if rec := fx.do(t, "GET", "/api/rankings/men", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("upstream down = %d", rec.Code)
	}
}

func TestCountryRankingEndpoint(t *testing.T) {
	fx := newFixture(t, false)
	rec := fx.do(t, "GET", "/api/rankings/women/country?name=Czech%20Republic", "", nil)
	var cr countryRankingResponse
	decode(t, rec, &cr)
	if rec.Code != http.StatusOK || cr.Ranking == nil || cr.Ranking.FederationName != "Czechia" || cr.Ranking.Rank != 2 {
		t.Fatalf("czech = %d %+v", rec.Code, cr.Ranking)
	}

	rec = fx.do(t, "GET", "/api/rankings/women/country?name=Romania", "", nil)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"ranking":null`) {
		t.Fatalf("romania = %d %s", rec.Code, rec.Body)
	}

	rec = fx.do(t, "GET", "/api/rankings/women/country?id=76", "", nil)
	decode(t, rec, &cr)
	if rec.Code != http.StatusOK || cr.Name != "Brazil" || cr.Ranking.Points != 373.88 {
		t.Fatalf("by id = %d %+v", rec.Code, cr)
	}

	if rec := fx.do(t, "GET", "/api/rankings/women/country", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing name = %d", rec.Code)
	}
}

func TestRefreshRequiresToken(t *testing.T) {
	fx := newFixture(t, false)
	if rec := fx.do(t, "POST", "/api/rankings/women/refresh", "", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("no token = %d", rec.Code)
	}
	if rec := fx.do(t, "POST", "/api/rankings/women/refresh", "", map[string]string{"x-admin-token": "wrong"}); rec.Code != http.StatusForbidden {
		t.Fatalf("wrong token = %d", rec.Code)
	}
	rec := fx.do(t, "POST", "/api/rankings/women/refresh", "", map[string]string{"x-admin-token": "secret"})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"entries":3`) {
		t.Fatalf("refresh = %d %s", rec.Code, rec.Body)
	}
	if rec := fx.do(t, "POST", "/api/rankings/men/refresh", "", map[string]string{"x-admin-token": "secret"}); rec.Code != http.StatusBadGateway {
		t.Fatalf("failed refresh = %d", rec.Code)
	}
	rec = fx.do(t, "GET", "/api/rankings/status", "", nil)
	var st struct {
		Slots []rankings.SlotStatus `json:"slots"`
	}
	decode(t, rec, &st)
	if len(st.Slots) != 2 || st.Slots[0].Entries != 3 || !st.Slots[0].Fresh {
		t.Fatalf("status = %+v", st)
	}
}

func TestHistory(t *testing.T) {
	if rec := newFixture(t, false).do(t, "GET", "/api/rankings/women/history?name=Brazil", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("disabled store = %d", rec.Code)
	}
	fx := newFixture(t, true)
	rec := fx.do(t, "GET", "/api/rankings/women/history?name=Czech%20Republic&limit=5", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history = %d %s", rec.Code, rec.Body)
	}
	if fx.hist.federation != "Czechia" {
		t.Fatalf("history queried %q", fx.hist.federation)
	}
}

func TestCountries(t *testing.T) {
	fx := newFixture(t, false)
	var list struct {
		Count     int                `json:"count"`
		Countries []registry.Country `json:"countries"`
	}
	decode(t, fx.do(t, "GET", "/api/countries", "", nil), &list)
	if list.Count != 3 || list.Countries[0].Name != "Brazil" || list.Countries[2].Name != "France" {
		t.Fatalf("countries = %+v", list)
	}

	rec := fx.do(t, "GET", "/api/countries/76?division=women", "", nil)
	var v countryView
	decode(t, rec, &v)
	if rec.Code != http.StatusOK || v.ID != "076" || v.FlagCode != "BR" || v.Ranking == nil || v.Ranking.Rank != 1 {
		t.Fatalf("brazil = %d %+v", rec.Code, v)
	}
	if v.Rotation.Lambda < 45 || v.Rotation.Lambda > 55 {
		t.Fatalf("rotation = %+v", v.Rotation)
	}
	if rec := fx.do(t, "GET", "/api/countries/999", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown = %d", rec.Code)
	}

	rec = fx.do(t, "GET", "/api/countries/250/share.png?size=200", "", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("content-type") != "image/png" {
		t.Fatalf("share = %d %s", rec.Code, rec.Header().Get("content-type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatal("share body is not a png")
	}
}

func TestShareLink(t *testing.T) {
	if got := shareLink("https://globe.test/app?x=1", "076", "M"); got != "https://globe.test/app?country=076&division=men&x=1" {
		t.Fatalf("link = %s", got)
	}
	if got := shareLink("", "250", ""); got != "/?country=250" {
		t.Fatalf("link = %s", got)
	}
}

func TestSessionLifecycle(t *testing.T) {
	fx := newFixture(t, false)
	rec := fx.do(t, "POST", "/api/globe/sessions", "", nil)
	var created sessionResponse
	decode(t, rec, &created)
	if rec.Code != http.StatusCreated || created.ID == "" || created.Frame == nil || created.Division != rankings.Women {
		t.Fatalf("create = %d %+v", rec.Code, created)
	}
	// 创建只渲染一次初始帧
	if created.Frame.Seq != 1 {
		t.Fatalf("initial frame seq = %d", created.Frame.Seq)
	}
	base := "/api/globe/sessions/" + created.ID

	rec = fx.do(t, "POST", base+"/events", `{"type":"select","id":"76"}`, nil)
	var rep session.Reply
	decode(t, rec, &rep)
	if rec.Code != http.StatusOK || rep.Selection == nil || rep.Selection.Ranking == nil || rep.Selection.Ranking.Points != 373.88 {
		t.Fatalf("select = %d %+v", rec.Code, rep.Selection)
	}

	if rec := fx.do(t, "POST", base+"/events", `{"type":"spin"}`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown event = %d", rec.Code)
	}
	if rec := fx.do(t, "POST", base+"/events", `{"type":"select_name","name":"Atlantis"}`, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown country = %d", rec.Code)
	}
	if rec := fx.do(t, "POST", base+"/events", `not json`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body = %d", rec.Code)
	}

	rec = fx.do(t, "GET", base, "", nil)
	var got sessionResponse
	decode(t, rec, &got)
	if got.State == nil || got.State.SelectedID != "076" || got.State.AutoRotate {
		t.Fatalf("state = %+v", got.State)
	}

	if rec := fx.do(t, "DELETE", base, "", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	if rec := fx.do(t, "GET", base, "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("after delete = %d", rec.Code)
	}
}

func TestSessionSocket(t *testing.T) {
	fx := newFixture(t, false)
	srv := httptest.NewServer(fx.handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/globe/sessions", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	var created sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/globe/sessions/" + created.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(session.Event{Type: session.EventSelectName, Name: "Brazil"}); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	// 帧与选中结果的先后顺序不固定，两者都到达即可
	var sel *wsMessage
	marked := false
	for sel == nil || !marked {
		var m wsMessage
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v", err)
		}
		switch m.Type {
		case "frame":
			if m.Frame.Marker != nil && m.Frame.Marker.ID == "076" {
				marked = true
			}
		case "selection":
			sel = &m
		}
	}
	if sel.Selection.ID != "076" || sel.Selection.Ranking == nil || sel.Selection.Ranking.Rank != 1 {
		t.Fatalf("selection = %+v", sel.Selection)
	}
}

func TestLocate(t *testing.T) {
	fx := newFixture(t, false)
	var res locate.Result
	decode(t, fx.do(t, "GET", "/api/locate?ip=200.1.2.3", "", nil), &res)
	if !res.Found || res.CountryID != "076" || res.Source != "fake" || res.Rotation == nil {
		t.Fatalf("ip = %+v", res)
	}
	res = locate.Result{}
	decode(t, fx.do(t, "GET", "/api/locate", "", map[string]string{"X-EO-Geo-CountryCodeAlpha2": "FR"}), &res)
	if !res.Found || res.CountryID != "250" || res.Source != "edgeone" {
		t.Fatalf("edge = %+v", res)
	}
	res = locate.Result{}
	decode(t, fx.do(t, "GET", "/api/locate", "", map[string]string{"X-Forwarded-For": "10.1.1.1"}), &res)
	if res.Found || res.IP != "10.1.1.1" {
		t.Fatalf("unknown = %+v", res)
	}
}

func TestStatusOf(t *testing.T) {
	if statusOf(errors.Join(rankings.ErrUnavailable, errors.New("x"))) != http.StatusServiceUnavailable {
		t.Fatal("unavailable")
	}
	if statusOf(errors.New("x")) != http.StatusInternalServerError {
		t.Fatal("other")
	}
}

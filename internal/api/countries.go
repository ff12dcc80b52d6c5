package api

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"github.com/skip2/go-qrcode"

	"volley-globe/internal/geo"
	"volley-globe/internal/rankings"
	"volley-globe/internal/registry"
)

type countryView struct {
	registry.Country
	Centroid orb.Point       `json:"centroid"`
	Bound    [2]orb.Point    `json:"bound"`
	Rotation geo.Rotation    `json:"rotation"`
	Ranking  *rankings.Entry `json:"ranking,omitempty"`
}

func (s *server) view(f geo.Feature) countryView {
	return countryView{
		Country:  s.Registry.Country(f),
		Centroid: f.Centroid,
		Bound:    [2]orb.Point{f.Bound.Min, f.Bound.Max},
		Rotation: geo.Centered(f.Centroid),
	}
}

// countries：GET /countries，按名称排序
func (s *server) countries(w http.ResponseWriter, r *http.Request) {
	out := make([]registry.Country, 0, len(s.Features))
	for _, f := range s.Features {
		out = append(out, s.Registry.Country(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "countries": out})
}

// country：GET /countries/{id}?division=，带 division 时附带排名（查询失败视为无数据）
func (s *server) country(w http.ResponseWriter, r *http.Request) {
	f, ok := s.byID[registry.PadID(mux.Vars(r)["id"])]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown country")
		return
	}
	v := s.view(f)
	if q := r.URL.Query().Get("division"); q != "" {
		d, err := rankings.ParseDivision(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		e, err := s.Rankings.CountryRanking(r.Context(), v.Name, d)
		if err != nil {
			s.log.Warn("country_ranking_error", "id", f.ID, "division", d, "err", err)
		} else if e != nil {
			e.FlagURL = v.FlagURL
			v.Ranking = e
		}
	}
	writeJSON(w, http.StatusOK, v)
}

// share：GET /countries/{id}/share.png?size=，指向前端并预选该国家的二维码
func (s *server) share(w http.ResponseWriter, r *http.Request) {
	id := registry.PadID(mux.Vars(r)["id"])
	if _, ok := s.byID[id]; !ok {
		writeError(w, http.StatusNotFound, "unknown country")
		return
	}
	size := intParam(r, "size", 256, 128, 1024)
	link := shareLink(s.ShareBaseURL, id, r.URL.Query().Get("division"))
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		s.log.Error("share_qr_error", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "qr encode failed")
		return
	}
	w.Header().Set("content-type", "image/png")
	w.Header().Set("cache-control", "public, max-age=86400")
	w.Header().Set("content-length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func shareLink(base, id, division string) string {
	if base == "" {
		base = "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("country", id)
	if d, err := rankings.ParseDivision(division); err == nil {
		q.Set("division", string(d))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

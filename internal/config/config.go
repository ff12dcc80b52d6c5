// 包 config：集中读取环境变量并给出默认值，入口与 CLI 共用同一份配置
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 默认数据源与渲染常量
const (
	DefaultFIVBBase      = "https://en.volleyballworld.com/api/v1/worldranking/volleyball"
	DefaultMapCDN        = "https://cdn.jsdelivr.net/npm/world-atlas@2/countries-110m.json"
	DefaultFlagBase      = "https://flagcdn.com/w320/"
	DefaultFlagFallback  = "https://upload.wikimedia.org/wikipedia/commons/thumb/2/2a/Flag_of_None.svg/320px-Flag_of_None.svg.png"
	DefaultMapObject     = "countries"
	DefaultRankingsTTL   = time.Hour
	DefaultSessionTTL    = 15 * time.Minute
	DefaultFIVBPageSize  = 50
	DefaultFIVBPages     = 2
	DefaultFIVBTimeout   = 10 * time.Second
	DefaultGlobeWidth    = 960
	DefaultGlobeHeight   = 640
	DefaultGlobeScale    = 280
	DefaultGlobeMinScale = 200
	DefaultGlobeMaxScale = 500
	DefaultGlobeZoomMin  = 0.6
	DefaultGlobeZoomMax  = 2
)

// Globe：视图与交互参数
type Globe struct {
	Width            float64
	Height           float64
	Scale            float64
	MinScale         float64
	MaxScale         float64
	ZoomMin          float64
	ZoomMax          float64
	InitialPhi       float64
	RotationSpeed    float64
	DragSensitivity  float64
	ZoomStep         float64
	TickInterval     time.Duration
	GraticuleStepDeg float64
}

// Config：进程级配置
type Config struct {
	Addr    string
	APIBase string
	UIDist  string

	FIVBBase     string
	FIVBPages    int
	FIVBPageSize int
	FIVBTimeout  time.Duration
	RankingsTTL  time.Duration

	MapCDNURL    string
	MapLocalPath string
	MapObject    string

	FlagBaseURL     string
	FlagFallbackURL string
	ShareBaseURL    string

	Globe      Globe
	SessionTTL time.Duration

	PGEnable      bool
	RedisEnable   bool
	RedisKey      string
	GeoIPPath     string
	IP2RegionPath string

	AdminToken string

	TLSEnable   bool
	TLSCertPath string
	TLSKeyPath  string
}

// LoadDotenv：加载 .env 与 data/env/.env；文件缺失时静默忽略
func LoadDotenv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// Load：从环境变量构建配置
// 约束：数值解析失败时回退默认值，不中断启动
func Load() Config {
	c := Config{
		Addr:    str("ADDR", ":8080"),
		APIBase: strings.TrimRight(str("API_BASE", "/api"), "/"),
		UIDist:  str("UI_DIST", filepath.Join("ui", "dist")),

		FIVBBase:     strings.TrimRight(str("FIVB_API_BASE", DefaultFIVBBase), "/"),
		FIVBPages:    integer("FIVB_PAGES", DefaultFIVBPages),
		FIVBPageSize: integer("FIVB_PAGE_SIZE", DefaultFIVBPageSize),
		FIVBTimeout:  duration("FIVB_TIMEOUT", DefaultFIVBTimeout),
		RankingsTTL:  duration("RANKINGS_TTL", DefaultRankingsTTL),

		MapCDNURL:    str("MAP_CDN_URL", DefaultMapCDN),
		MapLocalPath: str("MAP_LOCAL_PATH", filepath.Join("assets", "data", "world-110m.json")),
		MapObject:    str("MAP_OBJECT", DefaultMapObject),

		FlagBaseURL:     str("FLAG_BASE_URL", DefaultFlagBase),
		FlagFallbackURL: str("FLAG_FALLBACK_URL", DefaultFlagFallback),
		ShareBaseURL:    str("SHARE_BASE_URL", "http://localhost:8080/"),

		Globe:      LoadGlobe(),
		SessionTTL: duration("SESSION_TTL", DefaultSessionTTL),

		PGEnable:      boolean("PG_ENABLE", false),
		RedisEnable:   boolean("REDIS_ENABLE", false),
		RedisKey:      str("REDIS_RANKINGS_PREFIX", "vbglobe:rankings:"),
		GeoIPPath:     os.Getenv("GEOIP_DB_PATH"),
		IP2RegionPath: os.Getenv("IP2REGION_V4_PATH"),

		AdminToken: os.Getenv("ADMIN_TOKEN"),

		TLSEnable:   boolean("TLS_ENABLE", false),
		TLSCertPath: str("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKeyPath:  str("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),
	}
	if c.APIBase == "" {
		c.APIBase = "/api"
	}
	if c.FIVBPages < 1 {
		c.FIVBPages = DefaultFIVBPages
	}
	if c.FIVBPageSize < 1 {
		c.FIVBPageSize = DefaultFIVBPageSize
	}
	return c
}

// LoadGlobe：视图参数，缺省值与前端渲染常量一致
func LoadGlobe() Globe {
	g := Globe{
		Width:            float("GLOBE_WIDTH", DefaultGlobeWidth),
		Height:           float("GLOBE_HEIGHT", DefaultGlobeHeight),
		Scale:            float("GLOBE_SCALE", DefaultGlobeScale),
		MinScale:         float("GLOBE_MIN_SCALE", DefaultGlobeMinScale),
		MaxScale:         float("GLOBE_MAX_SCALE", DefaultGlobeMaxScale),
		ZoomMin:          float("GLOBE_ZOOM_MIN", DefaultGlobeZoomMin),
		ZoomMax:          float("GLOBE_ZOOM_MAX", DefaultGlobeZoomMax),
		InitialPhi:       float("GLOBE_INITIAL_PHI", -10),
		RotationSpeed:    float("GLOBE_ROTATION_SPEED", 0.02),
		DragSensitivity:  float("GLOBE_DRAG_SENSITIVITY", 0.25),
		ZoomStep:         float("GLOBE_ZOOM_STEP", 30),
		TickInterval:     duration("GLOBE_TICK_MS", 16*time.Millisecond),
		GraticuleStepDeg: float("GLOBE_GRATICULE_STEP", 10),
	}
	if g.MinScale > g.MaxScale {
		g.MinScale, g.MaxScale = g.MaxScale, g.MinScale
	}
	if g.ZoomMin <= 0 || g.ZoomMax < g.ZoomMin {
		g.ZoomMin, g.ZoomMax = DefaultGlobeZoomMin, DefaultGlobeZoomMax
	}
	return g
}

func str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func integer(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func float(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return n
		}
	}
	return def
}

func boolean(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}

// duration：接受 Go 时长字符串（"90s"）或纯数字毫秒（GLOBE_TICK_MS=16）
func duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Millisecond
	}
	return def
}

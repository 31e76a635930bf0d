package health

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/health/service"
	storage "signal_bot/internal/modules/storage/service"
	"signal_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
)

const (
	signalTimeout  = 30 * time.Second
	maxHistoryRows = 200
)

type Analyzer interface {
	Analyze(ctx context.Context, symbol string) models.Signal
}

// CacheStats: счётчики кэша свечей; nil, если кэш не включён.
type CacheStats interface {
	Stats() (hits, misses int64)
}

func writeJSON(c *gin.Context, code int, v any) {
	b, err := sonic.Marshal(v)
	if err != nil {
		logger.Error("[HTTP] encode response: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(code, "application/json; charset=utf-8", b)
}

func NewRouter(state *service.State, engine Analyzer, history storage.SignalLog, cache CacheStats) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/livez", func(c *gin.Context) {
		// liveness: процесс жив
		c.String(http.StatusOK, "ok")
	})

	r.GET("/readyz", func(c *gin.Context) {
		// readiness: первый проход сканера завершён
		if !state.Ready() {
			c.String(http.StatusServiceUnavailable, "not ready")
			return
		}
		c.String(http.StatusOK, "ready")
	})

	r.GET("/healthz", func(c *gin.Context) {
		lastScan := int64(0)
		if t := state.LastScan(); !t.IsZero() {
			lastScan = t.Unix()
		}
		resp := map[string]any{
			"ready":        state.Ready(),
			"wsConnected":  state.WSConnected(),
			"uptimeSec":    int64(state.Uptime().Seconds()),
			"lastScanUnix": lastScan,
			"signalsSent":  state.Signals(),
		}
		if cache != nil {
			hits, misses := cache.Stats()
			resp["cacheHits"] = hits
			resp["cacheMisses"] = misses
		}
		writeJSON(c, http.StatusOK, resp)
	})

	r.GET("/signal/:symbol", func(c *gin.Context) {
		symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
		ctx, cancel := context.WithTimeout(c.Request.Context(), signalTimeout)
		defer cancel()
		writeJSON(c, http.StatusOK, engine.Analyze(ctx, symbol))
	})

	r.GET("/signals", func(c *gin.Context) {
		n, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil || n <= 0 {
			writeJSON(c, http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		recs, err := history.Recent(c.Request.Context(), strings.ToUpper(c.Query("symbol")), min(n, maxHistoryRows))
		if err != nil {
			logger.Error("[HTTP] recent signals: %v", err)
			writeJSON(c, http.StatusInternalServerError, gin.H{"error": "history unavailable"})
			return
		}
		if recs == nil {
			recs = []models.SignalRecord{}
		}
		writeJSON(c, http.StatusOK, recs)
	})

	return r
}

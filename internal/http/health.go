package http

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/sstove-api/internal/httputil"
	"github.com/redmonkez12/sstove-api/internal/logging"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB and *bun.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db    Pinger
	redis redis.Cmdable
}

func NewHealthHandler(db Pinger, redisClient redis.Cmdable) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// ReadinessResponse reports the state of each dependency
type ReadinessResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Duration string            `json:"duration"`
}

// Live is a liveness check
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}

// Ready pings PostgreSQL and Redis
// @Summary      Readiness check
// @Description  Ping PostgreSQL and Redis
// @Tags         health
// @Produce      json
// @Success      200 {object} ReadinessResponse
// @Failure      503 {object} ReadinessResponse
// @Router       /health/ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := ReadinessResponse{Status: "ready", Checks: map[string]string{}}
	status := http.StatusOK

	check := func(name string, err error) {
		if err != nil {
			logger.Warn("readiness check failed", "dependency", name, "error", err.Error())
			resp.Checks[name] = "unavailable"
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			return
		}
		resp.Checks[name] = "ok"
	}

	check("postgres", h.db.PingContext(ctx))
	check("redis", h.redis.Ping(ctx).Err())

	resp.Duration = time.Since(start).String()
	httputil.RespondJSON(w, resp, status)
}
